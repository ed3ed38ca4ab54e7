package handlers

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/policy"
	"github.com/Skotchmaster/storefront/internal/service/order"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
)

type OrderHandler struct {
	Svc *order.Service
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order", "invalid body", err)
	}
	if req.UserID == "" {
		return badRequest(l, "create_order", "userId is required", nil)
	}
	if err := auth.Authorize(c, policy.AccessOwnData, req.UserID); err != nil {
		return fail(l, "create_order", err)
	}

	v, err := h.Svc.Create(ctx, req.UserID)
	if err != nil {
		return fail(l, "create_order", err)
	}

	l.Info("create_order_success", "order_id", v.ID, "total", v.TotalAmount.String())
	return c.JSON(http.StatusOK, transport.Order(v))
}

// ListOrders is the admin listing. Without size every order is returned.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	views, err := h.Svc.List(ctx, order.Filter{
		Status: c.QueryParam("status"),
		Page:   util.ParseIntDefault(c.QueryParam("page"), 1),
		Size:   min(util.ParseIntDefault(c.QueryParam("size"), 0), util.MaxPageSize),
	})
	if err != nil {
		return fail(l, "list_orders", err)
	}
	return c.JSON(http.StatusOK, transport.Orders(views))
}

func (h *OrderHandler) OrdersByUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.orders_by_user")

	views, err := h.Svc.ByUser(ctx, c.Param("userId"))
	if err != nil {
		return fail(l, "orders_by_user", err)
	}
	return c.JSON(http.StatusOK, transport.Orders(views))
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "get_order", err)
	}
	v, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_order", err)
	}
	if err := auth.Authorize(c, policy.AccessOwnData, v.UserID); err != nil {
		return fail(l, "get_order", err)
	}
	return c.JSON(http.StatusOK, transport.Order(v))
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "update_status", err)
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return badRequest(l, "update_status", "invalid body", err)
	}
	status, err := parseStatusBody(body)
	if err != nil {
		return badRequest(l, "update_status", "invalid body", err)
	}

	v, err := h.Svc.UpdateStatus(ctx, id, status)
	if err != nil {
		return fail(l, "update_status", err)
	}

	l.Info("update_status_success", "order_id", id, "status", v.Status)
	return c.JSON(http.StatusOK, transport.Order(v))
}

func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete_order")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "delete_order", err)
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(l, "delete_order", err)
	}

	l.Info("delete_order_success", "order_id", id)
	return c.JSON(http.StatusOK, "Order deleted successfully")
}
