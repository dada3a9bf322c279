package domain

// Customer is the identity returned by the account service for a checkout.
type Customer struct {
	Name       string
	DocumentID string
}
