package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Values travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusApproved PaymentStatus = "APPROVED"
	PaymentStatusRejected PaymentStatus = "REJECTED"
	PaymentStatusCanceled PaymentStatus = "CANCELED"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch st := PaymentStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case PaymentStatusPending, PaymentStatusApproved, PaymentStatusRejected, PaymentStatusCanceled:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown payment status %q", ErrValidation, s)
}

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusApproved || s == PaymentStatusRejected || s == PaymentStatusCanceled
}

type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentMethodPix        PaymentMethod = "PIX"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s))); m {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPix:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown payment method %q", ErrValidation, s)
}

type Payment struct {
	ID                 int64
	Value              decimal.Decimal
	Method             PaymentMethod
	OrderID            *int64
	ExternalReference  *string
	CustomerName       string
	CustomerDocumentID string
	UserID             int64
	Status             PaymentStatus
	PaymentDate        time.Time
	UpdatedAt          time.Time
}

// NewPaymentParams carries the caller-supplied fields of a payment. A nil
// UserID or empty Method means the field was not provided.
type NewPaymentParams struct {
	Value              decimal.Decimal
	Method             PaymentMethod
	OrderID            *int64
	ExternalReference  *string
	CustomerName       string
	CustomerDocumentID string
	UserID             *int64
}

func NewPayment(p NewPaymentParams, now time.Time) (*Payment, error) {
	if !p.Value.IsPositive() {
		return nil, fmt.Errorf("%w: value must be greater than zero", ErrValidation)
	}
	if p.UserID == nil {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if p.Method == "" {
		return nil, fmt.Errorf("%w: payment method is required", ErrValidation)
	}
	if _, err := ParsePaymentMethod(string(p.Method)); err != nil {
		return nil, err
	}

	return &Payment{
		Value:              p.Value,
		Method:             p.Method,
		OrderID:            p.OrderID,
		ExternalReference:  p.ExternalReference,
		CustomerName:       p.CustomerName,
		CustomerDocumentID: p.CustomerDocumentID,
		UserID:             *p.UserID,
		Status:             PaymentStatusPending,
		PaymentDate:        now,
		UpdatedAt:          now,
	}, nil
}

// TerminalPolicy decides what happens when a transition is requested on a
// payment that already left PENDING.
type TerminalPolicy string

const (
	// TerminalPolicyReject fails every transition out of a terminal status.
	TerminalPolicyReject TerminalPolicy = "reject"
	// TerminalPolicyIdempotent accepts a repeat of the transition that produced
	// the current status as a no-op. Any other target still fails.
	TerminalPolicyIdempotent TerminalPolicy = "idempotent"
	// TerminalPolicyOverwrite assigns the target status whatever the current
	// one is. Repeating the current status is a no-op.
	TerminalPolicyOverwrite TerminalPolicy = "overwrite"
)

func ParseTerminalPolicy(s string) (TerminalPolicy, error) {
	switch p := TerminalPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case TerminalPolicyReject, TerminalPolicyIdempotent, TerminalPolicyOverwrite:
		return p, nil
	}
	return "", fmt.Errorf("unknown terminal transition policy %q", s)
}

// TransitionTo moves the payment from PENDING to target, or from any status
// under TerminalPolicyOverwrite. It reports whether the payment was modified.
func (p *Payment) TransitionTo(target PaymentStatus, policy TerminalPolicy, now time.Time) (bool, error) {
	if !target.IsTerminal() {
		return false, fmt.Errorf("%w: %s is not a valid target status", ErrInvalidTransition, target)
	}

	if policy == TerminalPolicyOverwrite && p.Status == target {
		return false, nil
	}
	if p.Status != PaymentStatusPending && policy != TerminalPolicyOverwrite {
		if policy == TerminalPolicyIdempotent && p.Status == target {
			return false, nil
		}
		return false, fmt.Errorf("%w: payment %d is %s and cannot become %s", ErrInvalidTransition, p.ID, p.Status, target)
	}

	p.Status = target
	p.UpdatedAt = now
	return true, nil
}
