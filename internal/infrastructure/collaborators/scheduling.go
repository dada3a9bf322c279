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

type appointmentResponse struct {
	ValorServico *decimal.Decimal `json:"valorServico"`
}

type SchedulingClient struct {
	c *client
}

func NewSchedulingClient(resolver *Resolver, httpClient *http.Client, timeout time.Duration, logger *zap.Logger) *SchedulingClient {
	return &SchedulingClient{c: newClient(ServiceScheduling, resolver, httpClient, timeout, logger)}
}

// GetPendingServicesTotal sums the service values of the customer's pending
// appointments, ignoring appointments without a value.
func (s *SchedulingClient) GetPendingServicesTotal(ctx context.Context, customerID int64) (decimal.Decimal, error) {
	var appointments []appointmentResponse
	err := s.c.getJSON(ctx, fmt.Sprintf("/agendamentos/cliente/%d/pendentes", customerID), &appointments)
	if errors.Is(err, errNotFound) {
		return decimal.Zero, fmt.Errorf("%w: appointments of customer %d not found", domain.ErrCollaboratorUnavailable, customerID)
	}
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, a := range appointments {
		if a.ValorServico != nil {
			total = total.Add(*a.ValorServico)
		}
	}
	return total, nil
}
