package payments_http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/app/payments"
	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/domain"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is required")

type PaymentHandler struct {
	service  payments.PaymentService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewPaymentHandler(s payments.PaymentService, l *zap.Logger) *PaymentHandler {
	validate := validator.New()
	// Report fields by their JSON names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &PaymentHandler{service: s, validate: validate, logger: l}
}

func (h *PaymentHandler) CreatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeErrorMessage(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	method, err := domain.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	payment, err := h.service.CreatePayment(r.Context(), domain.NewPaymentParams{
		Value:              *req.Value,
		Method:             method,
		OrderID:            req.OrderID,
		CustomerName:       req.CustomerName,
		CustomerDocumentID: req.CustomerDocumentID,
		UserID:             req.UserID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}

func (h *PaymentHandler) GetPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.int64Param(w, r, "id")
	if !ok {
		return
	}
	payment, err := h.service.GetPayment(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}

func (h *PaymentHandler) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListPayments(r.Context())
	h.writeList(w, r, list, err)
}

func (h *PaymentHandler) ListByStatusHandler(w http.ResponseWriter, r *http.Request) {
	status, err := domain.ParsePaymentStatus(chi.URLParam(r, "status"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.service.ListByStatus(r.Context(), status)
	h.writeList(w, r, list, err)
}

func (h *PaymentHandler) ListByCustomerDocumentHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListByCustomerDocumentID(r.Context(), chi.URLParam(r, "cpf"))
	h.writeList(w, r, list, err)
}

func (h *PaymentHandler) ListByOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.int64Param(w, r, "orderId")
	if !ok {
		return
	}
	list, err := h.service.ListByOrderID(r.Context(), orderID)
	h.writeList(w, r, list, err)
}

func (h *PaymentHandler) ListByUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.int64Param(w, r, "userId")
	if !ok {
		return
	}
	list, err := h.service.ListByUserID(r.Context(), userID)
	h.writeList(w, r, list, err)
}

func (h *PaymentHandler) ApprovePaymentHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ApprovePayment)
}

func (h *PaymentHandler) RejectPaymentHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.RejectPayment)
}

// CancelPaymentHandler ignores any request body.
func (h *PaymentHandler) CancelPaymentHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CancelPayment)
}

func (h *PaymentHandler) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id int64) (*domain.Payment, error)) {
	id, ok := h.int64Param(w, r, "id")
	if !ok {
		return
	}
	payment, err := apply(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}

func (h *PaymentHandler) DeletePaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeletePayment(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PaymentHandler) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.int64Param(w, r, "customerId")
	if !ok {
		return
	}
	// The body is optional here; a missing user id is reported by checkout.
	var req CheckoutRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		h.writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	payment, err := h.service.Checkout(r.Context(), customerID, req.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}

func (h *PaymentHandler) writeList(w http.ResponseWriter, r *http.Request, list []*domain.Payment, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toPaymentResponses(list))
}

func (h *PaymentHandler) int64Param(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.writeErrorMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid %s %q", name, raw))
		return 0, false
	}
	return v, true
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
