package payments

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/domain"
)

const testTopic = "payment-events"

type testDeps struct {
	db         *sql.DB
	mock       sqlmock.Sqlmock
	payments   *fakePaymentRepository
	outbox     *fakeOutboxRepository
	accounts   *mockAccounts
	sales      *mockTotal
	scheduling *mockTotal
}

func newTestService(t *testing.T, opts Options, existing ...*domain.Payment) (PaymentService, *testDeps) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	deps := &testDeps{
		db:         db,
		mock:       mock,
		payments:   newFakePaymentRepository(existing...),
		outbox:     &fakeOutboxRepository{},
		accounts:   &mockAccounts{},
		sales:      &mockTotal{Total: decimal.Zero},
		scheduling: &mockTotal{Total: decimal.Zero},
	}
	svc := NewPaymentService(db, deps.payments, deps.outbox, deps.accounts, deps.sales, deps.scheduling, opts, zap.NewNop())
	return svc, deps
}

func pendingPayment(id int64) *domain.Payment {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &domain.Payment{
		ID:          id,
		Value:       decimal.NewFromInt(50),
		Method:      domain.PaymentMethodCreditCard,
		UserID:      1,
		Status:      domain.PaymentStatusPending,
		PaymentDate: now,
		UpdatedAt:   now,
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestCreatePayment(t *testing.T) {
	svc, deps := newTestService(t, Options{EventsTopic: testTopic})
	deps.mock.ExpectBegin()
	deps.mock.ExpectCommit()

	p, err := svc.CreatePayment(context.Background(), domain.NewPaymentParams{
		Value:              decimal.RequireFromString("150.00"),
		Method:             domain.PaymentMethodPix,
		CustomerName:       "Maria",
		CustomerDocumentID: "123",
		UserID:             int64Ptr(7),
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if p.ID == 0 || p.Status != domain.PaymentStatusPending {
		t.Errorf("unexpected payment %+v", p)
	}
	if len(deps.outbox.Messages) != 1 {
		t.Fatalf("expected 1 outbox message, got %d", len(deps.outbox.Messages))
	}
	msg := deps.outbox.Messages[0]
	if msg.MessageType != string(domain.PaymentEventCreated) || msg.Topic != testTopic || msg.Key != "1" {
		t.Errorf("unexpected outbox message %+v", msg)
	}
	var event domain.PaymentEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.PaymentID != p.ID || !event.Value.Equal(decimal.NewFromInt(150)) {
		t.Errorf("unexpected event %+v", event)
	}
	if err := deps.mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreatePayment_ValidationSkipsStore(t *testing.T) {
	svc, deps := newTestService(t, Options{})

	_, err := svc.CreatePayment(context.Background(), domain.NewPaymentParams{
		Value:  decimal.NewFromInt(10),
		Method: domain.PaymentMethodPix,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if deps.payments.SaveCalls != 0 {
		t.Errorf("expected no save, got %d", deps.payments.SaveCalls)
	}
	if err := deps.mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreatePayment_NoEventsWhenTopicEmpty(t *testing.T) {
	svc, deps := newTestService(t, Options{})
	deps.mock.ExpectBegin()
	deps.mock.ExpectCommit()

	if _, err := svc.CreatePayment(context.Background(), domain.NewPaymentParams{
		Value:  decimal.NewFromInt(10),
		Method: domain.PaymentMethodDebitCard,
		UserID: int64Ptr(2),
	}); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if len(deps.outbox.Messages) != 0 {
		t.Errorf("expected no outbox messages, got %d", len(deps.outbox.Messages))
	}
}

func TestCreatePayment_StoreFailureRollsBack(t *testing.T) {
	svc, deps := newTestService(t, Options{})
	deps.payments.SaveFunc = func(*domain.Payment) error { return errors.New("connection reset") }
	deps.mock.ExpectBegin()
	deps.mock.ExpectRollback()

	_, err := svc.CreatePayment(context.Background(), domain.NewPaymentParams{
		Value:  decimal.NewFromInt(10),
		Method: domain.PaymentMethodPix,
		UserID: int64Ptr(2),
	})
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("expected store error, got %v", err)
	}
	if err := deps.mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetPayment_NotFound(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	_, err := svc.GetPayment(context.Background(), 99)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByOrderID_Empty(t *testing.T) {
	svc, _ := newTestService(t, Options{}, pendingPayment(1))
	payments, err := svc.ListByOrderID(context.Background(), 42)
	if err != nil {
		t.Fatalf("ListByOrderID: %v", err)
	}
	if payments == nil || len(payments) != 0 {
		t.Errorf("expected empty list, got %v", payments)
	}
}

func applyTransition(svc PaymentService, id int64, target domain.PaymentStatus) (*domain.Payment, error) {
	ctx := context.Background()
	switch target {
	case domain.PaymentStatusApproved:
		return svc.ApprovePayment(ctx, id)
	case domain.PaymentStatusRejected:
		return svc.RejectPayment(ctx, id)
	default:
		return svc.CancelPayment(ctx, id)
	}
}

func TestTransitions(t *testing.T) {
	const (
		pending  = domain.PaymentStatusPending
		approved = domain.PaymentStatusApproved
		rejected = domain.PaymentStatusRejected
		canceled = domain.PaymentStatusCanceled
	)

	tests := []struct {
		name       string
		policy     domain.TerminalPolicy
		start      domain.PaymentStatus
		target     domain.PaymentStatus
		wantStatus domain.PaymentStatus
		wantErr    error
		wantEvents int
	}{
		{"approve pending", domain.TerminalPolicyReject, pending, approved, approved, nil, 1},
		{"reject pending", domain.TerminalPolicyReject, pending, rejected, rejected, nil, 1},
		{"cancel pending", domain.TerminalPolicyReject, pending, canceled, canceled, nil, 1},
		{"approve rejected", domain.TerminalPolicyIdempotent, rejected, approved, rejected, domain.ErrInvalidTransition, 0},
		{"approve approved strict", domain.TerminalPolicyReject, approved, approved, approved, domain.ErrInvalidTransition, 0},
		{"approve approved idempotent", domain.TerminalPolicyIdempotent, approved, approved, approved, nil, 0},
		{"reject approved overwrite", domain.TerminalPolicyOverwrite, approved, rejected, rejected, nil, 1},
		{"approve canceled overwrite", domain.TerminalPolicyOverwrite, canceled, approved, approved, nil, 1},
		{"cancel pending overwrite", domain.TerminalPolicyOverwrite, pending, canceled, canceled, nil, 1},
		{"approve approved overwrite", domain.TerminalPolicyOverwrite, approved, approved, approved, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := pendingPayment(1)
			existing.Status = tt.start
			svc, deps := newTestService(t, Options{TerminalPolicy: tt.policy, EventsTopic: testTopic}, existing)
			deps.mock.ExpectBegin()
			if tt.wantErr != nil {
				deps.mock.ExpectRollback()
			} else {
				deps.mock.ExpectCommit()
			}

			p, err := applyTransition(svc, 1, tt.target)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if p.Status != tt.wantStatus {
					t.Errorf("returned status %s, want %s", p.Status, tt.wantStatus)
				}
			}

			stored, _ := deps.payments.GetByID(context.Background(), nil, 1)
			if stored.Status != tt.wantStatus {
				t.Errorf("stored status %s, want %s", stored.Status, tt.wantStatus)
			}
			if len(deps.outbox.Messages) != tt.wantEvents {
				t.Errorf("expected %d events, got %d", tt.wantEvents, len(deps.outbox.Messages))
			}
			if err := deps.mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestApprovePayment_NotFound(t *testing.T) {
	svc, deps := newTestService(t, Options{})
	deps.mock.ExpectBegin()
	deps.mock.ExpectRollback()

	_, err := svc.ApprovePayment(context.Background(), 404)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePayment(t *testing.T) {
	svc, deps := newTestService(t, Options{EventsTopic: testTopic}, pendingPayment(3))
	deps.mock.ExpectBegin()
	deps.mock.ExpectCommit()

	if err := svc.DeletePayment(context.Background(), 3); err != nil {
		t.Fatalf("DeletePayment: %v", err)
	}
	if _, err := deps.payments.GetByID(context.Background(), nil, 3); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected payment to be gone, got %v", err)
	}
	if len(deps.outbox.Messages) != 1 || deps.outbox.Messages[0].MessageType != string(domain.PaymentEventDeleted) {
		t.Errorf("expected one deleted event, got %+v", deps.outbox.Messages)
	}
}

func TestDeletePayment_NotFound(t *testing.T) {
	svc, deps := newTestService(t, Options{EventsTopic: testTopic})
	deps.mock.ExpectBegin()
	deps.mock.ExpectRollback()

	err := svc.DeletePayment(context.Background(), 77)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent id, got %v", err)
	}
	if len(deps.outbox.Messages) != 0 {
		t.Errorf("expected no events, got %d", len(deps.outbox.Messages))
	}
	if err := deps.mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
