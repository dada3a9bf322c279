package payments_http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/domain"
)

func (h *PaymentHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (h *PaymentHandler) writeErrorMessage(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, ErrorResponse{
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	})
}

// writeError maps service errors to HTTP statuses. Unexpected errors are
// logged and reported without detail.
func (h *PaymentHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrCheckout):
		h.writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.writeErrorMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		h.writeErrorMessage(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("Request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		h.writeErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
