// Package storeclient is the HTTP implementation of the order store
// contract used by the polling view binaries. It maps the store's error
// responses back to the domain's typed errors so callers can branch on
// them the same way they would in-process.
package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/restopos/internal/domain"
	"github.com/YelzhanWeb/restopos/internal/interfaces"
)

type Client struct {
	baseURL string
	http    *http.Client
}

var _ interfaces.OrderStore = (*Client)(nil)

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodPost, "/orders", cmd, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) ListOrders(ctx context.Context, filter interfaces.ListFilter) ([]*domain.Order, error) {
	q := url.Values{}
	if filter.ActiveOnly {
		q.Set("active", "true")
	}
	for _, s := range filter.Statuses {
		q.Add("status", string(s))
	}
	for _, k := range filter.Kinds {
		q.Add("kind", string(k))
	}

	path := "/orders"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var orders []*domain.Order
	if err := c.do(ctx, http.MethodGet, path, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) GetOrder(ctx context.Context, number string) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(number), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, number string, target domain.OrderStatus, changedBy string) (*domain.Order, error) {
	body := map[string]string{
		"status":     string(target),
		"changed_by": changedBy,
	}

	var order domain.Order
	if err := c.do(ctx, http.MethodPatch, "/orders/"+url.PathEscape(number)+"/status", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) ValidateCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*interfaces.CouponValidationResult, error) {
	body := map[string]any{
		"code":     code,
		"subtotal": subtotal,
	}

	var result interfaces.CouponValidationResult
	if err := c.do(ctx, http.MethodPost, "/coupons/validate", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type errorPayload struct {
	Error string `json:"error"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("order store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.mapError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) mapError(resp *http.Response) error {
	var payload errorPayload
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return domain.ErrOrderNotFound
	case http.StatusConflict:
		// The store rejected a transition; reconstruct the typed error so
		// callers can branch on it like a local rejection.
		return &domain.InvalidTransitionError{
			From: domain.OrderStatus(payload.From),
			To:   domain.OrderStatus(payload.To),
		}
	}

	if payload.Error != "" {
		return fmt.Errorf("order store rejected request: %s", payload.Error)
	}
	return fmt.Errorf("order store returned status %d", resp.StatusCode)
}
