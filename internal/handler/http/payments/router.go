package payments_http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/app/payments"
	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/config"
	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/handler/http/middleware"
)

const basePath = "/api/pagamentos"

// NewRouter builds the service's HTTP handler: ops endpoints plus the payment
// API behind request id, recovery, logging, metrics and CORS middleware.
func NewRouter(cfg config.HTTPConfig, s payments.PaymentService, l *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(l.With(zap.String("component", "HTTPAccessLog"))))
	r.Use(middleware.Metrics)
	if cfg.WriteTimeout > 0 {
		r.Use(chimw.Timeout(cfg.WriteTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           int((5 * time.Minute).Seconds()),
	}))

	r.Handle("/metrics", promhttp.Handler())
	RegisterRoutes(r, s, l)
	return r
}

func RegisterRoutes(r chi.Router, s payments.PaymentService, l *zap.Logger) {
	handler := NewPaymentHandler(s, l.With(zap.String("component", "PaymentHTTPHandler")))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Payments service is healthy!"))
	})

	r.Route(basePath, func(r chi.Router) {
		r.Post("/", handler.CreatePaymentHandler)
		r.Get("/", handler.ListPaymentsHandler)
		r.Get("/{id}", handler.GetPaymentHandler)
		r.Delete("/{id}", handler.DeletePaymentHandler)
		r.Put("/{id}/aprovar", handler.ApprovePaymentHandler)
		r.Put("/{id}/rejeitar", handler.RejectPaymentHandler)
		r.Put("/{id}/cancelar", handler.CancelPaymentHandler)
		r.Get("/status/{status}", handler.ListByStatusHandler)
		r.Get("/cliente/{cpf}", handler.ListByCustomerDocumentHandler)
		r.Get("/pedido/{orderId}", handler.ListByOrderHandler)
		r.Get("/usuario/{userId}", handler.ListByUserHandler)
		r.Post("/checkout/{customerId}", handler.CheckoutHandler)
	})
}
