package payments

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/domain"
)

func customerAna(ctx context.Context, id int64) (*domain.Customer, error) {
	return &domain.Customer{Name: "Ana", DocumentID: "123.456.789-00"}, nil
}

func TestCheckout_SumsTotals(t *testing.T) {
	svc, deps := newTestService(t, Options{})
	deps.accounts.GetCustomerFunc = customerAna
	deps.sales.Total = decimal.RequireFromString("80.00")
	deps.scheduling.Total = decimal.RequireFromString("20.00")
	deps.mock.ExpectBegin()
	deps.mock.ExpectCommit()

	p, err := svc.Checkout(context.Background(), 5, int64Ptr(11))
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if !p.Value.Equal(decimal.NewFromInt(100)) {
		t.Errorf("value = %s, want 100", p.Value)
	}
	if p.Method != domain.PaymentMethodPix || p.Status != domain.PaymentStatusPending {
		t.Errorf("unexpected payment %+v", p)
	}
	if p.OrderID != nil {
		t.Errorf("expected no order id, got %d", *p.OrderID)
	}
	if p.ExternalReference == nil || !strings.HasPrefix(*p.ExternalReference, checkoutReferencePrefix) {
		t.Errorf("unexpected external reference %v", p.ExternalReference)
	}
	if p.CustomerName != "Ana" || p.CustomerDocumentID != "123.456.789-00" || p.UserID != 11 {
		t.Errorf("customer fields not copied: %+v", p)
	}
	if all, _ := deps.payments.List(context.Background(), nil); len(all) != 1 {
		t.Errorf("expected exactly one stored payment, got %d", len(all))
	}
}

func TestCheckout_InvalidCustomer(t *testing.T) {
	tests := []struct {
		name     string
		customer *domain.Customer
	}{
		{"no record", nil},
		{"no document id", &domain.Customer{Name: "Ana"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := newTestService(t, Options{})
			deps.accounts.GetCustomerFunc = func(context.Context, int64) (*domain.Customer, error) {
				return tt.customer, nil
			}
			deps.sales.Total = decimal.NewFromInt(10)

			_, err := svc.Checkout(context.Background(), 9, int64Ptr(1))
			if !errors.Is(err, domain.ErrCheckout) {
				t.Fatalf("expected ErrCheckout, got %v", err)
			}
			if !strings.Contains(err.Error(), "customer with id 9 not found or invalid") {
				t.Errorf("unexpected message %q", err.Error())
			}
			if deps.sales.Calls != 0 || deps.scheduling.Calls != 0 {
				t.Errorf("totals fetched for invalid customer: sales=%d scheduling=%d", deps.sales.Calls, deps.scheduling.Calls)
			}
		})
	}
}

func TestCheckout_AccountFailure(t *testing.T) {
	svc, deps := newTestService(t, Options{})
	deps.accounts.GetCustomerFunc = func(context.Context, int64) (*domain.Customer, error) {
		return nil, domain.ErrCollaboratorUnavailable
	}

	_, err := svc.Checkout(context.Background(), 9, int64Ptr(1))
	if !errors.Is(err, domain.ErrCheckout) {
		t.Fatalf("expected ErrCheckout, got %v", err)
	}
}

func TestCheckout_NothingPending(t *testing.T) {
	svc, deps := newTestService(t, Options{UnavailablePolicy: UnavailableDegrade})
	deps.accounts.GetCustomerFunc = customerAna
	deps.sales.Err = domain.ErrCollaboratorUnavailable
	deps.scheduling.Err = domain.ErrCollaboratorUnavailable

	_, err := svc.Checkout(context.Background(), 5, int64Ptr(1))
	if !errors.Is(err, domain.ErrCheckout) {
		t.Fatalf("expected ErrCheckout, got %v", err)
	}
	if !strings.Contains(err.Error(), "no pending amount found for customer") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestCheckout_DegradesUnavailableTotal(t *testing.T) {
	svc, deps := newTestService(t, Options{UnavailablePolicy: UnavailableDegrade})
	deps.accounts.GetCustomerFunc = customerAna
	deps.sales.Err = domain.ErrCollaboratorUnavailable
	deps.scheduling.Total = decimal.NewFromInt(35)
	deps.mock.ExpectBegin()
	deps.mock.ExpectCommit()

	p, err := svc.Checkout(context.Background(), 5, int64Ptr(1))
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if !p.Value.Equal(decimal.NewFromInt(35)) {
		t.Errorf("value = %s, want 35", p.Value)
	}
}

func TestCheckout_FailPolicy(t *testing.T) {
	svc, deps := newTestService(t, Options{UnavailablePolicy: UnavailableFail})
	deps.accounts.GetCustomerFunc = customerAna
	deps.sales.Total = decimal.NewFromInt(80)
	deps.scheduling.Err = domain.ErrCollaboratorUnavailable

	_, err := svc.Checkout(context.Background(), 5, int64Ptr(1))
	if !errors.Is(err, domain.ErrCheckout) {
		t.Fatalf("expected ErrCheckout, got %v", err)
	}
	if all, _ := deps.payments.List(context.Background(), nil); len(all) != 0 {
		t.Errorf("expected no payment, got %d", len(all))
	}
}

func TestCheckout_MissingUser(t *testing.T) {
	svc, deps := newTestService(t, Options{})
	deps.accounts.GetCustomerFunc = customerAna
	deps.sales.Total = decimal.NewFromInt(10)

	_, err := svc.Checkout(context.Background(), 5, nil)
	if !errors.Is(err, domain.ErrCheckout) {
		t.Fatalf("expected ErrCheckout, got %v", err)
	}
	if err.Error() != "checkout failed: user id is required" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestParseUnavailablePolicy(t *testing.T) {
	if p, err := ParseUnavailablePolicy("FAIL"); err != nil || p != UnavailableFail {
		t.Errorf("ParseUnavailablePolicy(FAIL) = %q, %v", p, err)
	}
	if _, err := ParseUnavailablePolicy("retry"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
