package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentEventType string

const (
	PaymentEventCreated  PaymentEventType = "payment.created"
	PaymentEventApproved PaymentEventType = "payment.approved"
	PaymentEventRejected PaymentEventType = "payment.rejected"
	PaymentEventCanceled PaymentEventType = "payment.canceled"
	PaymentEventDeleted  PaymentEventType = "payment.deleted"
)

// EventTypeForStatus returns the event emitted when a payment enters status.
func EventTypeForStatus(status PaymentStatus) PaymentEventType {
	switch status {
	case PaymentStatusApproved:
		return PaymentEventApproved
	case PaymentStatusRejected:
		return PaymentEventRejected
	case PaymentStatusCanceled:
		return PaymentEventCanceled
	default:
		return PaymentEventCreated
	}
}

// PaymentEvent is published to the payment events topic.
type PaymentEvent struct {
	EventType          PaymentEventType `json:"event_type"`
	PaymentID          int64            `json:"payment_id"`
	Status             PaymentStatus    `json:"status"`
	Method             PaymentMethod    `json:"payment_method"`
	Value              decimal.Decimal  `json:"value"`
	UserID             int64            `json:"user_id"`
	CustomerDocumentID string           `json:"customer_document_id,omitempty"`
	OccurredAt         time.Time        `json:"occurred_at"`
}

func NewPaymentEvent(eventType PaymentEventType, p *Payment, at time.Time) PaymentEvent {
	return PaymentEvent{
		EventType:          eventType,
		PaymentID:          p.ID,
		Status:             p.Status,
		Method:             p.Method,
		Value:              p.Value,
		UserID:             p.UserID,
		CustomerDocumentID: p.CustomerDocumentID,
		OccurredAt:         at,
	}
}
