package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/YelzhanWeb/restopos/internal/adapter/logger"
	"github.com/YelzhanWeb/restopos/internal/domain"
	"github.com/YelzhanWeb/restopos/internal/interfaces"
)

type OrderHandler struct {
	service interfaces.StoreService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.StoreService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

type updateStatusRequest struct {
	Status    domain.OrderStatus `json:"status"`
	ChangedBy string             `json:"changed_by"`
}

type errorResponse struct {
	Error string `json:"error"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

// HandleOrders serves /orders and /orders/{number}[/status|/history].
func (h *OrderHandler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodPost:
			h.createOrder(w, r)
		case http.MethodGet:
			h.listOrders(w, r)
		default:
			h.respondError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		}
	case len(parts) == 2:
		h.getOrder(w, r, parts[1])
	case len(parts) == 3 && parts[2] == "status":
		h.updateStatus(w, r, parts[1])
	case len(parts) == 3 && parts[2] == "history":
		h.getHistory(w, r, parts[1])
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

func (h *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var cmd interfaces.CreateOrderCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		h.respondError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	order, err := h.service.CreateOrder(r.Context(), cmd)
	if err != nil {
		h.logger.Error("order_creation_failed", "Failed to create order", "", nil, err)
		h.respondError(w, creationStatusCode(err), err)
		return
	}

	h.respondJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	filter := interfaces.ListFilter{}
	q := r.URL.Query()

	if q.Get("active") == "true" {
		filter.ActiveOnly = true
	}
	for _, s := range q["status"] {
		filter.Statuses = append(filter.Statuses, domain.OrderStatus(s))
	}
	for _, k := range q["kind"] {
		filter.Kinds = append(filter.Kinds, domain.OrderKind(k))
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		h.logger.Error("order_list_failed", "Failed to list orders", "", nil, err)
		h.respondError(w, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	h.respondJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request, number string) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	order, err := h.service.GetOrder(r.Context(), number)
	if err != nil {
		h.respondError(w, http.StatusNotFound, domain.ErrOrderNotFound)
		return
	}

	h.respondJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request, number string) {
	if r.Method != http.MethodPatch {
		h.respondError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.ChangedBy == "" {
		req.ChangedBy = "unknown"
	}

	order, err := h.service.UpdateStatus(r.Context(), number, req.Status, req.ChangedBy)
	if err != nil {
		var invalid *domain.InvalidTransitionError
		switch {
		case errors.As(err, &invalid):
			h.respondJSON(w, http.StatusConflict, errorResponse{
				Error: invalid.Error(),
				From:  string(invalid.From),
				To:    string(invalid.To),
			})
		case errors.Is(err, domain.ErrOrderNotFound):
			h.respondError(w, http.StatusNotFound, err)
		default:
			h.respondError(w, http.StatusBadRequest, err)
		}
		return
	}

	h.respondJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) getHistory(w http.ResponseWriter, r *http.Request, number string) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	history, err := h.service.StatusHistory(r.Context(), number)
	if err != nil {
		h.respondError(w, http.StatusNotFound, domain.ErrOrderNotFound)
		return
	}

	resp := make([]map[string]interface{}, len(history))
	for i, log := range history {
		resp[i] = map[string]interface{}{
			"status":     log.Status,
			"timestamp":  log.ChangedAt,
			"changed_by": log.ChangedBy,
		}
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func creationStatusCode(err error) int {
	var (
		cart       *domain.InvalidCartError
		ineligible *domain.CouponIneligibleError
	)
	switch {
	case errors.As(err, &cart),
		errors.As(err, &ineligible),
		errors.Is(err, domain.ErrSplitMismatch),
		errors.Is(err, domain.ErrBreakdownMismatch):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *OrderHandler) respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func (h *OrderHandler) respondError(w http.ResponseWriter, code int, err error) {
	h.respondJSON(w, code, errorResponse{Error: err.Error()})
}
