package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ankurvermaj09-ux/e-commerce/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Core is the fulfillment service as seen from HTTP.
type Core interface {
	CheckoutOnce(ctx context.Context, userID int64, key string) (orders.Receipt, error)
	GetOrder(ctx context.Context, userID int64, orderID string) (orders.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]orders.Order, error)
	ListAllOrders(ctx context.Context) ([]orders.Order, error)
	CancelOrder(ctx context.Context, userID int64, orderID string) error
	UpdateOrderStatus(ctx context.Context, orderID string, status orders.Status) error
}

// StatusCache holds the latest known status and owner of an order.
type StatusCache interface {
	Get(ctx context.Context, orderID string) (orders.StatusChange, bool, error)
	Advance(ctx context.Context, ch orders.StatusChange) (bool, error)
}

type OrdersHandler struct {
	Core  Core
	Cache StatusCache // optional
	Log   *zap.Logger
}

type CheckoutResp struct {
	Message    string `json:"message"`
	OrderID    string `json:"order_id"`
	TotalCents int64  `json:"total_cents"`
}

type StatusResp struct {
	OrderID string        `json:"order_id"`
	Status  orders.Status `json:"status"`
}

type OrdersResp struct {
	Orders []orders.Order `json:"orders"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(withIdentity)
		r.Post("/checkout", h.checkout)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
		r.Get("/orders/{id}/status", h.getStatus)
		r.Put("/orders/{id}/cancel", h.cancelOrder)

		r.Route("/admin/orders", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/", h.listAllOrders)
			r.Put("/{id}/status", h.updateStatus)
		})
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain failures to their status code. Anything else is
// reported without detail.
func (h *OrdersHandler) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, orders.ErrInternal):
		// an internal error may wrap a domain sentinel; its cause stays hidden
	case errors.Is(err, orders.ErrEmptyCart):
		code = http.StatusBadRequest
	case errors.Is(err, orders.ErrInsufficientStock), errors.Is(err, orders.ErrInvalidTransition):
		code = http.StatusConflict
	case errors.Is(err, orders.ErrNotOwner):
		code = http.StatusForbidden
	case errors.Is(err, orders.ErrNotFound):
		code = http.StatusNotFound
	}
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = orders.ErrInternal.Error()
	}
	writeJSON(w, code, map[string]string{"error": msg})
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	receipt, err := h.Core.CheckoutOnce(ctx, who(r).UserID, r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.cacheStatus(ctx, orders.StatusChange{OrderID: receipt.OrderID, UserID: who(r).UserID, Status: orders.StatusPending})
	writeJSON(w, http.StatusCreated, CheckoutResp{
		Message:    "Checkout successful",
		OrderID:    receipt.OrderID,
		TotalCents: receipt.TotalCents,
	})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Core.GetOrder(ctx, who(r).UserID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Core.ListOrders(ctx, who(r).UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OrdersResp{Orders: list})
}

func (h *OrdersHandler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Core.ListAllOrders(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	userID := who(r).UserID
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) try the cache; entries without a known owner fall through
	if h.Cache != nil {
		if e, ok, err := h.Cache.Get(ctx, orderID); err == nil && ok && e.UserID != 0 {
			if e.UserID != userID {
				h.writeError(w, orders.ErrNotFound)
				return
			}
			writeJSON(w, http.StatusOK, StatusResp{OrderID: orderID, Status: e.Status})
			return
		}
	}

	// 2) fall back to the owner-scoped read
	o, err := h.Core.GetOrder(ctx, userID, orderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.cacheStatus(ctx, orders.StatusChange{OrderID: o.ID, UserID: o.UserID, Status: o.Status})
	writeJSON(w, http.StatusOK, StatusResp{OrderID: orderID, Status: o.Status})
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Core.CancelOrder(ctx, who(r).UserID, orderID); err != nil {
		h.writeError(w, err)
		return
	}
	h.cacheStatus(ctx, orders.StatusChange{OrderID: orderID, UserID: who(r).UserID, Status: orders.StatusCancelled})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Order cancelled"})
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	status := orders.Status(r.URL.Query().Get("status"))
	if status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing status"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Core.UpdateOrderStatus(ctx, orderID, status); err != nil {
		h.writeError(w, err)
		return
	}
	h.cacheStatus(ctx, orders.StatusChange{OrderID: orderID, Status: status})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Status updated"})
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, ch orders.StatusChange) {
	if h.Cache == nil {
		return
	}
	if _, err := h.Cache.Advance(ctx, ch); err != nil {
		h.Log.Warn("cache status", zap.String("order_id", ch.OrderID), zap.Error(err))
	}
}
