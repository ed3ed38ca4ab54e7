package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/policy"
	"github.com/Skotchmaster/storefront/internal/service/cart"
	"github.com/Skotchmaster/storefront/internal/transport"
)

// CartHandler expects the owner check on :userId routes to run as middleware.
type CartHandler struct {
	Svc *cart.Service
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	items, err := h.Svc.List(ctx, c.Param("userId"))
	if err != nil {
		return fail(l, "get_cart", err)
	}
	return c.JSON(http.StatusOK, transport.CartLines(items))
}

func (h *CartHandler) CartLength(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.cart_length")

	n, err := h.Svc.Count(ctx, c.Param("userId"))
	if err != nil {
		return fail(l, "cart_length", err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_to_cart")

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_to_cart", "invalid body", err)
	}

	item, err := h.Svc.Add(ctx, c.Param("userId"), req.ProductID, req.Quantity)
	if err != nil {
		return fail(l, "add_to_cart", err)
	}

	l.Info("add_to_cart_success", "product_id", item.ProductID, "quantity", item.Quantity)
	return c.JSON(http.StatusOK, transport.AddToCartResponse{
		Message: "Item added to cart",
		Cart:    transport.CartRef{ProductID: item.ProductID, Quantity: item.Quantity},
	})
}

func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_quantity")

	var req transport.UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_quantity", "invalid body", err)
	}
	if err := auth.Authorize(c, policy.AccessOwnData, req.UserID); err != nil {
		return fail(l, "update_quantity", err)
	}

	if err := h.Svc.UpdateQuantity(ctx, req.UserID, req.ProductID, req.Quantity); err != nil {
		return fail(l, "update_quantity", err)
	}

	l.Info("update_quantity_success", "product_id", req.ProductID, "quantity", req.Quantity)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Cart updated"})
}

func (h *CartHandler) RemoveLine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_line")

	id, err := uintParam(c, "cartItemId")
	if err != nil {
		return fail(l, "remove_line", err)
	}
	line, err := h.Svc.Line(ctx, id)
	if err != nil {
		return fail(l, "remove_line", err)
	}
	// Someone else's line looks the same as a missing one.
	if err := auth.Authorize(c, policy.AccessOwnData, line.UserID); err != nil {
		if errors.Is(err, apperr.ErrForbidden) {
			err = cart.ErrLineNotFound
		}
		return fail(l, "remove_line", err)
	}

	removed, err := h.Svc.RemoveLine(ctx, id)
	if err != nil {
		return fail(l, "remove_line", err)
	}

	l.Info("remove_line_success", "cart_item_id", id)
	return c.JSON(http.StatusOK, transport.RemovedLineResponse{
		Message:  "Item removed from cart",
		CartItem: transport.CartLine(removed),
	})
}

func (h *CartHandler) RemoveProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_product")

	productID, err := uintParam(c, "productId")
	if err != nil {
		return fail(l, "remove_product", err)
	}

	removed, err := h.Svc.Remove(ctx, c.Param("userId"), productID)
	if err != nil {
		return fail(l, "remove_product", err)
	}

	l.Info("remove_product_success", "product_id", productID)
	return c.JSON(http.StatusOK, transport.RemovedLineResponse{
		Message:  "Item removed from cart",
		CartItem: transport.CartLine(removed),
	})
}
