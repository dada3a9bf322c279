package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/domain"
)

// AccountDirectory returns the identity of a customer, or nil when the
// account service has no record of it.
type AccountDirectory interface {
	GetCustomer(ctx context.Context, customerID int64) (*domain.Customer, error)
}

type SalesLedger interface {
	GetCartTotal(ctx context.Context, customerID int64) (decimal.Decimal, error)
}

type SchedulingLedger interface {
	GetPendingServicesTotal(ctx context.Context, customerID int64) (decimal.Decimal, error)
}

// UnavailablePolicy decides how checkout treats a remote total that could
// not be obtained.
type UnavailablePolicy string

const (
	// UnavailableDegrade counts the missing total as zero.
	UnavailableDegrade UnavailablePolicy = "degrade"
	// UnavailableFail aborts the checkout.
	UnavailableFail UnavailablePolicy = "fail"
)

func ParseUnavailablePolicy(s string) (UnavailablePolicy, error) {
	switch p := UnavailablePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case UnavailableDegrade, UnavailableFail:
		return p, nil
	}
	return "", fmt.Errorf("unknown unavailable total policy %q", s)
}

const checkoutReferencePrefix = "checkout-"

// Checkout charges a customer's open cart and pending scheduled services as
// a single PIX payment. Every failure is reported as domain.ErrCheckout.
func (s *paymentService) Checkout(ctx context.Context, customerID int64, userID *int64) (*domain.Payment, error) {
	logger := s.logger.With(zap.Int64("customer_id", customerID))
	logger.Info("Starting checkout")

	payment, err := s.checkout(ctx, logger, customerID, userID)
	if err != nil {
		logger.Error("Checkout failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %s", domain.ErrCheckout, checkoutMessage(err))
	}

	logger.Info("Checkout completed", zap.Int64("payment_id", payment.ID), zap.String("value", payment.Value.StringFixed(2)))
	return payment, nil
}

func (s *paymentService) checkout(ctx context.Context, logger *zap.Logger, customerID int64, userID *int64) (*domain.Payment, error) {
	customer, err := s.accounts.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer %d: %w", customerID, err)
	}
	if customer == nil || strings.TrimSpace(customer.DocumentID) == "" {
		return nil, fmt.Errorf("customer with id %d not found or invalid", customerID)
	}

	salesTotal, err := s.remoteTotal(ctx, logger, "sales", customerID, s.sales.GetCartTotal)
	if err != nil {
		return nil, err
	}
	servicesTotal, err := s.remoteTotal(ctx, logger, "scheduling", customerID, s.scheduling.GetPendingServicesTotal)
	if err != nil {
		return nil, err
	}

	total := salesTotal.Add(servicesTotal)
	logger.Info("Checkout totals",
		zap.String("sales_total", salesTotal.StringFixed(2)),
		zap.String("services_total", servicesTotal.StringFixed(2)),
		zap.String("total", total.StringFixed(2)))
	if !total.IsPositive() {
		return nil, errors.New("no pending amount found for customer")
	}

	reference := checkoutReferencePrefix + uuid.NewString()
	return s.CreatePayment(ctx, domain.NewPaymentParams{
		Value:              total,
		Method:             domain.PaymentMethodPix,
		ExternalReference:  &reference,
		CustomerName:       customer.Name,
		CustomerDocumentID: customer.DocumentID,
		UserID:             userID,
	})
}

func (s *paymentService) remoteTotal(
	ctx context.Context,
	logger *zap.Logger,
	source string,
	customerID int64,
	fetch func(ctx context.Context, customerID int64) (decimal.Decimal, error),
) (decimal.Decimal, error) {
	total, err := fetch(ctx, customerID)
	if err == nil {
		return total, nil
	}
	if s.opts.UnavailablePolicy == UnavailableDegrade {
		logger.Warn("Remote total unavailable, counting it as zero", zap.String("source", source), zap.Error(err))
		return decimal.Zero, nil
	}
	return decimal.Zero, fmt.Errorf("%s total unavailable: %w", source, err)
}

// checkoutMessage strips the sentinel prefixes so the caller sees the
// underlying reason, as in "value must be greater than zero".
func checkoutMessage(err error) string {
	msg := err.Error()
	for _, prefix := range []string{"failed to create payment: ", domain.ErrValidation.Error() + ": "} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	return msg
}
