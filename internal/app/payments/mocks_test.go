package payments

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/domain"
)

// fakePaymentRepository keeps payments in memory and ignores the querier.
type fakePaymentRepository struct {
	mu        sync.Mutex
	payments  map[int64]*domain.Payment
	nextID    int64
	SaveCalls int
	SaveFunc  func(payment *domain.Payment) error
}

func newFakePaymentRepository(existing ...*domain.Payment) *fakePaymentRepository {
	r := &fakePaymentRepository{payments: make(map[int64]*domain.Payment), nextID: 1}
	for _, p := range existing {
		cp := *p
		r.payments[p.ID] = &cp
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
	}
	return r
}

func (r *fakePaymentRepository) Save(ctx context.Context, _ domain.Querier, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SaveCalls++
	if r.SaveFunc != nil {
		if err := r.SaveFunc(payment); err != nil {
			return err
		}
	}
	if payment.ID == 0 {
		payment.ID = r.nextID
		r.nextID++
	} else if _, ok := r.payments[payment.ID]; !ok {
		return fmt.Errorf("%w: payment with id %d", domain.ErrNotFound, payment.ID)
	}
	cp := *payment
	r.payments[payment.ID] = &cp
	return nil
}

func (r *fakePaymentRepository) GetByID(ctx context.Context, _ domain.Querier, id int64) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, fmt.Errorf("%w: payment with id %d", domain.ErrNotFound, id)
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepository) GetByIDForUpdate(ctx context.Context, q domain.Querier, id int64) (*domain.Payment, error) {
	return r.GetByID(ctx, q, id)
}

func (r *fakePaymentRepository) filter(keep func(p *domain.Payment) bool) []*domain.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Payment, 0)
	for id := int64(1); id < r.nextID; id++ {
		if p, ok := r.payments[id]; ok && keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

func (r *fakePaymentRepository) List(ctx context.Context, _ domain.Querier) ([]*domain.Payment, error) {
	return r.filter(func(*domain.Payment) bool { return true }), nil
}

func (r *fakePaymentRepository) ListByStatus(ctx context.Context, _ domain.Querier, status domain.PaymentStatus) ([]*domain.Payment, error) {
	return r.filter(func(p *domain.Payment) bool { return p.Status == status }), nil
}

func (r *fakePaymentRepository) ListByCustomerDocumentID(ctx context.Context, _ domain.Querier, documentID string) ([]*domain.Payment, error) {
	return r.filter(func(p *domain.Payment) bool { return p.CustomerDocumentID == documentID }), nil
}

func (r *fakePaymentRepository) ListByOrderID(ctx context.Context, _ domain.Querier, orderID int64) ([]*domain.Payment, error) {
	return r.filter(func(p *domain.Payment) bool { return p.OrderID != nil && *p.OrderID == orderID }), nil
}

func (r *fakePaymentRepository) ListByUserID(ctx context.Context, _ domain.Querier, userID int64) ([]*domain.Payment, error) {
	return r.filter(func(p *domain.Payment) bool { return p.UserID == userID }), nil
}

func (r *fakePaymentRepository) Delete(ctx context.Context, _ domain.Querier, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.payments, id)
	return nil
}

type fakeOutboxRepository struct {
	mu       sync.Mutex
	Messages []domain.OutboxMessage
}

func (r *fakeOutboxRepository) CreateMessage(ctx context.Context, _ domain.Querier, msg *domain.OutboxMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, *msg)
	return nil
}

func (r *fakeOutboxRepository) GetPendingMessages(ctx context.Context, _ domain.Querier, limit int) ([]domain.OutboxMessage, error) {
	return nil, nil
}

func (r *fakeOutboxRepository) MarkMessagesAsSent(ctx context.Context, _ domain.Querier, ids []string) error {
	return nil
}

func (r *fakeOutboxRepository) MarkMessagesAsFailed(ctx context.Context, _ domain.Querier, ids []string) error {
	return nil
}

type mockAccounts struct {
	GetCustomerFunc func(ctx context.Context, customerID int64) (*domain.Customer, error)
	Calls           int
}

func (m *mockAccounts) GetCustomer(ctx context.Context, customerID int64) (*domain.Customer, error) {
	m.Calls++
	if m.GetCustomerFunc != nil {
		return m.GetCustomerFunc(ctx, customerID)
	}
	return nil, nil
}

// mockTotal serves as both SalesLedger and SchedulingLedger.
type mockTotal struct {
	Total decimal.Decimal
	Err   error
	Calls int
}

func (m *mockTotal) GetCartTotal(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	m.Calls++
	return m.Total, m.Err
}

func (m *mockTotal) GetPendingServicesTotal(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	m.Calls++
	return m.Total, m.Err
}
