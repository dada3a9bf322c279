package collaborators

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/domain"
)

type customerResponse struct {
	Nome string `json:"nome"`
	CPF  string `json:"cpf"`
}

type AccountClient struct {
	c *client
}

func NewAccountClient(resolver *Resolver, httpClient *http.Client, timeout time.Duration, logger *zap.Logger) *AccountClient {
	return &AccountClient{c: newClient(ServiceAccounts, resolver, httpClient, timeout, logger)}
}

// GetCustomer returns (nil, nil) when the account service has no record for id.
func (a *AccountClient) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	var resp *customerResponse
	err := a.c.getJSON(ctx, fmt.Sprintf("/api/contas/clientes/%d", id), &resp)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return &domain.Customer{Name: resp.Nome, DocumentID: resp.CPF}, nil
}
