package payments

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/domain"
	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/repository/outbox_repo"
	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/repository/payments_repo"
)

const aggregateTypePayment = "payment"

type PaymentService interface {
	CreatePayment(ctx context.Context, params domain.NewPaymentParams) (*domain.Payment, error)
	GetPayment(ctx context.Context, id int64) (*domain.Payment, error)
	ListPayments(ctx context.Context) ([]*domain.Payment, error)
	ListByStatus(ctx context.Context, status domain.PaymentStatus) ([]*domain.Payment, error)
	ListByCustomerDocumentID(ctx context.Context, documentID string) ([]*domain.Payment, error)
	ListByOrderID(ctx context.Context, orderID int64) ([]*domain.Payment, error)
	ListByUserID(ctx context.Context, userID int64) ([]*domain.Payment, error)
	ApprovePayment(ctx context.Context, id int64) (*domain.Payment, error)
	RejectPayment(ctx context.Context, id int64) (*domain.Payment, error)
	CancelPayment(ctx context.Context, id int64) (*domain.Payment, error)
	DeletePayment(ctx context.Context, id int64) error
	Checkout(ctx context.Context, customerID int64, userID *int64) (*domain.Payment, error)
}

type Options struct {
	TerminalPolicy    domain.TerminalPolicy
	UnavailablePolicy UnavailablePolicy
	// EventsTopic is the Kafka topic written to the outbox. Empty disables
	// event publishing.
	EventsTopic string
}

type paymentService struct {
	db          *sql.DB
	paymentRepo payments_repo.PaymentRepository
	outboxRepo  outbox_repo.OutboxRepository
	accounts    AccountDirectory
	sales       SalesLedger
	scheduling  SchedulingLedger
	opts        Options
	now         func() time.Time
	logger      *zap.Logger
}

func NewPaymentService(
	db *sql.DB,
	paymentRepo payments_repo.PaymentRepository,
	outboxRepo outbox_repo.OutboxRepository,
	accounts AccountDirectory,
	sales SalesLedger,
	scheduling SchedulingLedger,
	opts Options,
	logger *zap.Logger,
) PaymentService {
	if opts.TerminalPolicy == "" {
		opts.TerminalPolicy = domain.TerminalPolicyReject
	}
	if opts.UnavailablePolicy == "" {
		opts.UnavailablePolicy = UnavailableDegrade
	}
	return &paymentService{
		db:          db,
		paymentRepo: paymentRepo,
		outboxRepo:  outboxRepo,
		accounts:    accounts,
		sales:       sales,
		scheduling:  scheduling,
		opts:        opts,
		now:         time.Now,
		logger:      logger,
	}
}

func (s *paymentService) CreatePayment(ctx context.Context, params domain.NewPaymentParams) (*domain.Payment, error) {
	payment, err := domain.NewPayment(params, s.now())
	if err != nil {
		return nil, err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.paymentRepo.Save(ctx, tx, payment); err != nil {
			return err
		}
		return s.enqueueEvent(ctx, tx, domain.PaymentEventCreated, payment)
	})
	if err != nil {
		s.logger.Error("Failed to create payment", zap.Int64("user_id", payment.UserID), zap.Error(err))
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	s.logger.Info("Payment created",
		zap.Int64("payment_id", payment.ID),
		zap.Int64("user_id", payment.UserID),
		zap.String("method", string(payment.Method)),
		zap.String("value", payment.Value.StringFixed(2)))
	return payment, nil
}

func (s *paymentService) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	return s.paymentRepo.GetByID(ctx, s.db, id)
}

func (s *paymentService) ListPayments(ctx context.Context) ([]*domain.Payment, error) {
	return s.paymentRepo.List(ctx, s.db)
}

func (s *paymentService) ListByStatus(ctx context.Context, status domain.PaymentStatus) ([]*domain.Payment, error) {
	return s.paymentRepo.ListByStatus(ctx, s.db, status)
}

func (s *paymentService) ListByCustomerDocumentID(ctx context.Context, documentID string) ([]*domain.Payment, error) {
	return s.paymentRepo.ListByCustomerDocumentID(ctx, s.db, documentID)
}

func (s *paymentService) ListByOrderID(ctx context.Context, orderID int64) ([]*domain.Payment, error) {
	return s.paymentRepo.ListByOrderID(ctx, s.db, orderID)
}

func (s *paymentService) ListByUserID(ctx context.Context, userID int64) ([]*domain.Payment, error) {
	return s.paymentRepo.ListByUserID(ctx, s.db, userID)
}

func (s *paymentService) ApprovePayment(ctx context.Context, id int64) (*domain.Payment, error) {
	return s.transition(ctx, id, domain.PaymentStatusApproved)
}

func (s *paymentService) RejectPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	return s.transition(ctx, id, domain.PaymentStatusRejected)
}

func (s *paymentService) CancelPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	return s.transition(ctx, id, domain.PaymentStatusCanceled)
}

func (s *paymentService) transition(ctx context.Context, id int64, target domain.PaymentStatus) (*domain.Payment, error) {
	var payment *domain.Payment
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		payment, err = s.paymentRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		changed, err := payment.TransitionTo(target, s.opts.TerminalPolicy, s.now())
		if err != nil || !changed {
			return err
		}
		if err := s.paymentRepo.Save(ctx, tx, payment); err != nil {
			return err
		}
		return s.enqueueEvent(ctx, tx, domain.EventTypeForStatus(target), payment)
	})
	if err != nil {
		s.logger.Warn("Payment transition failed",
			zap.Int64("payment_id", id),
			zap.String("target_status", string(target)),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Payment status updated", zap.Int64("payment_id", id), zap.String("status", string(payment.Status)))
	return payment, nil
}

func (s *paymentService) DeletePayment(ctx context.Context, id int64) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		payment, err := s.paymentRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.paymentRepo.Delete(ctx, tx, id); err != nil {
			return err
		}
		return s.enqueueEvent(ctx, tx, domain.PaymentEventDeleted, payment)
	})
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn("Payment to delete not found", zap.Int64("payment_id", id))
		return err
	}
	if err != nil {
		s.logger.Error("Failed to delete payment", zap.Int64("payment_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete payment %d: %w", id, err)
	}
	s.logger.Info("Payment deleted", zap.Int64("payment_id", id))
	return nil
}

// withTx runs fn in a transaction, committing when fn returns nil and rolling
// back otherwise.
func (s *paymentService) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered panic during transaction, rolling back", zap.Any("panic", r))
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *paymentService) enqueueEvent(ctx context.Context, tx *sql.Tx, eventType domain.PaymentEventType, payment *domain.Payment) error {
	if s.opts.EventsTopic == "" {
		return nil
	}

	now := s.now()
	payload, err := json.Marshal(domain.NewPaymentEvent(eventType, payment, now))
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	aggregateID := strconv.FormatInt(payment.ID, 10)
	msg := &domain.OutboxMessage{
		ID:            uuid.NewString(),
		AggregateID:   aggregateID,
		AggregateType: aggregateTypePayment,
		MessageType:   string(eventType),
		Topic:         s.opts.EventsTopic,
		Key:           aggregateID,
		Payload:       payload,
		Status:        domain.OutboxStatusPending,
		CreatedAt:     now,
	}
	if err := s.outboxRepo.CreateMessage(ctx, tx, msg); err != nil {
		return fmt.Errorf("failed to enqueue %s event for payment %d: %w", eventType, payment.ID, err)
	}
	return nil
}
