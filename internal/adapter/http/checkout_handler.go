package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/YelzhanWeb/restopos/internal/adapter/logger"
	"github.com/YelzhanWeb/restopos/internal/domain"
	"github.com/YelzhanWeb/restopos/internal/interfaces"
)

// CheckoutHandler is the cashier-side surface: price a cart, or price it
// and submit it to the order store in one call.
type CheckoutHandler struct {
	service interfaces.CheckoutService
	logger  logger.Logger
}

func NewCheckoutHandler(service interfaces.CheckoutService, logger logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger,
	}
}

// Checkout serves POST /checkout.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	cmd, ok := h.decode(w, r)
	if !ok {
		return
	}

	order, err := h.service.Checkout(r.Context(), cmd)
	if err != nil {
		h.logger.Error("checkout_failed", "Checkout rejected", "", nil, err)
		h.respondCheckoutError(w, err)
		return
	}

	h.respond(w, http.StatusCreated, order)
}

// Preview serves POST /checkout/preview.
func (h *CheckoutHandler) Preview(w http.ResponseWriter, r *http.Request) {
	cmd, ok := h.decode(w, r)
	if !ok {
		return
	}

	breakdown, err := h.service.Preview(r.Context(), cmd)
	if err != nil {
		h.respondCheckoutError(w, err)
		return
	}

	h.respond(w, http.StatusOK, breakdown)
}

func (h *CheckoutHandler) decode(w http.ResponseWriter, r *http.Request) (interfaces.CheckoutCommand, bool) {
	var cmd interfaces.CheckoutCommand
	if r.Method != http.MethodPost {
		h.respond(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return cmd, false
	}
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		h.respond(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return cmd, false
	}
	return cmd, true
}

func (h *CheckoutHandler) respondCheckoutError(w http.ResponseWriter, err error) {
	var (
		cart       *domain.InvalidCartError
		ineligible *domain.CouponIneligibleError
	)
	switch {
	case errors.As(err, &cart),
		errors.As(err, &ineligible),
		errors.Is(err, domain.ErrSplitMismatch),
		errors.Is(err, domain.ErrBreakdownMismatch):
		h.respond(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		h.respond(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func (h *CheckoutHandler) respond(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
