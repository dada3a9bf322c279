package collaborators

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/domain"
)

type cartResponse struct {
	Success bool `json:"success"`
	Data    *struct {
		Total *decimal.Decimal `json:"total"`
	} `json:"data"`
}

type SalesClient struct {
	c *client
}

func NewSalesClient(resolver *Resolver, httpClient *http.Client, timeout time.Duration, logger *zap.Logger) *SalesClient {
	return &SalesClient{c: newClient(ServiceSales, resolver, httpClient, timeout, logger)}
}

// GetCartTotal returns the open cart total of a customer. An unsuccessful
// response or one without a total counts as zero. Any failure to obtain a
// response is reported as domain.ErrCollaboratorUnavailable.
func (s *SalesClient) GetCartTotal(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	var resp *cartResponse
	err := s.c.getJSON(ctx, fmt.Sprintf("/carrinho/%d", customerID), &resp)
	if errors.Is(err, errNotFound) {
		return decimal.Zero, fmt.Errorf("%w: cart of customer %d not found", domain.ErrCollaboratorUnavailable, customerID)
	}
	if err != nil {
		return decimal.Zero, err
	}

	if resp == nil || !resp.Success || resp.Data == nil || resp.Data.Total == nil {
		s.c.logger.Info("no cart total for customer", zap.Int64("customer_id", customerID))
		return decimal.Zero, nil
	}
	return *resp.Data.Total, nil
}
