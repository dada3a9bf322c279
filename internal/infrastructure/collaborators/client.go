package collaborators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/domain"
)

const maxResponseBytes = 1 << 20

var requestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "collaborator_requests_total",
		Help: "Total number of requests made to collaborating services",
	},
	[]string{"service", "outcome"},
)

var errNotFound = errors.New("resource not found")

// client issues GET requests against one logical service and decodes JSON
// bodies. Each request runs under its own timeout.
type client struct {
	service  string
	resolver *Resolver
	http     *http.Client
	timeout  time.Duration
	logger   *zap.Logger
}

func newClient(service string, resolver *Resolver, httpClient *http.Client, timeout time.Duration, logger *zap.Logger) *client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &client{
		service:  service,
		resolver: resolver,
		http:     httpClient,
		timeout:  timeout,
		logger:   logger.With(zap.String("collaborator", service)),
	}
}

// getJSON decodes the response body into out. A 404 returns errNotFound.
// Transport failures, other non-2xx statuses and undecodable bodies are
// wrapped with domain.ErrCollaboratorUnavailable.
func (c *client) getJSON(ctx context.Context, path string, out any) error {
	baseURL, err := c.resolver.Resolve(c.service)
	if err != nil {
		requestsTotal.WithLabelValues(c.service, "unresolved").Inc()
		return fmt.Errorf("%w: %v", domain.ErrCollaboratorUnavailable, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	url := baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(c.service, "transport_error").Inc()
		c.logger.Warn("request failed", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("%w: %s request failed: %v", domain.ErrCollaboratorUnavailable, c.service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		requestsTotal.WithLabelValues(c.service, "not_found").Inc()
		return errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		requestsTotal.WithLabelValues(c.service, "bad_status").Inc()
		c.logger.Warn("unexpected status", zap.String("url", url), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: %s returned status %d", domain.ErrCollaboratorUnavailable, c.service, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		requestsTotal.WithLabelValues(c.service, "transport_error").Inc()
		return fmt.Errorf("%w: failed to read %s response: %v", domain.ErrCollaboratorUnavailable, c.service, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		requestsTotal.WithLabelValues(c.service, "decode_error").Inc()
		c.logger.Warn("undecodable response", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("%w: failed to decode %s response: %v", domain.ErrCollaboratorUnavailable, c.service, err)
	}

	requestsTotal.WithLabelValues(c.service, "success").Inc()
	return nil
}
