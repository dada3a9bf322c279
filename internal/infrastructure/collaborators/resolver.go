package collaborators

import (
	"fmt"
	"strings"
)

// Logical names of the services called during checkout.
const (
	ServiceAccounts   = "CONTA"
	ServiceSales      = "VENDAS-SERVICE"
	ServiceScheduling = "AGENDAMENTO"
)

// Resolver maps logical service names to base URLs. Names are matched case
// insensitively and '_' is read as '-', so VENDAS_SERVICE finds VENDAS-SERVICE.
type Resolver struct {
	services map[string]string
}

func NewResolver(services map[string]string) *Resolver {
	normalized := make(map[string]string, len(services))
	for name, baseURL := range services {
		normalized[normalizeName(name)] = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
	return &Resolver{services: normalized}
}

func (r *Resolver) Resolve(name string) (string, error) {
	baseURL, ok := r.services[normalizeName(name)]
	if !ok || baseURL == "" {
		return "", fmt.Errorf("no address configured for service %s", name)
	}
	return baseURL, nil
}

func normalizeName(name string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(name)), "_", "-")
}
