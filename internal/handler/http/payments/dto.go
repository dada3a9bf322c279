package payments_http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/domain"
)

type CreatePaymentRequest struct {
	Value              *decimal.Decimal `json:"value" validate:"required"`
	PaymentMethod      string           `json:"paymentMethod" validate:"required"`
	OrderID            *int64           `json:"orderId"`
	CustomerName       string           `json:"customerName" validate:"max=255"`
	CustomerDocumentID string           `json:"customerDocumentId" validate:"max=32"`
	UserID             *int64           `json:"userId" validate:"required"`
}

type CheckoutRequest struct {
	UserID *int64 `json:"userId"`
}

type PaymentResponse struct {
	ID                 int64           `json:"id"`
	Value              decimal.Decimal `json:"value"`
	PaymentMethod      string          `json:"paymentMethod"`
	OrderID            *int64          `json:"orderId"`
	ExternalReference  *string         `json:"externalReference"`
	CustomerName       string          `json:"customerName"`
	CustomerDocumentID string          `json:"customerDocumentId"`
	UserID             int64           `json:"userId"`
	Status             string          `json:"status"`
	PaymentDate        time.Time       `json:"paymentDate"`
}

// ErrorResponse is the body of every failed request. Timestamp is in Unix
// milliseconds.
type ErrorResponse struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                 p.ID,
		Value:              p.Value,
		PaymentMethod:      string(p.Method),
		OrderID:            p.OrderID,
		ExternalReference:  p.ExternalReference,
		CustomerName:       p.CustomerName,
		CustomerDocumentID: p.CustomerDocumentID,
		UserID:             p.UserID,
		Status:             string(p.Status),
		PaymentDate:        p.PaymentDate,
	}
}

func toPaymentResponses(payments []*domain.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	return out
}
