package http

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/restopos/internal/adapter/logger"
	"github.com/YelzhanWeb/restopos/internal/interfaces"
)

type CouponHandler struct {
	service interfaces.StoreService
	logger  logger.Logger
}

func NewCouponHandler(service interfaces.StoreService, logger logger.Logger) *CouponHandler {
	return &CouponHandler{
		service: service,
		logger:  logger,
	}
}

type validateCouponRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// ValidateCoupon serves POST /coupons/validate. Ineligible coupons are a
// 200 with valid=false and a reason; only malformed requests and store
// failures are errors.
func (h *CouponHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req validateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.service.ValidateCoupon(r.Context(), req.Code, req.Subtotal)
	if err != nil {
		h.logger.Error("coupon_validation_failed", "Failed to validate coupon", "", map[string]interface{}{
			"code": req.Code,
		}, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(errorResponse{Error: "internal server error"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
