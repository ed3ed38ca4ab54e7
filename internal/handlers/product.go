package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service/catalog"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
)

type ProductHandler struct {
	Svc *catalog.Service
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var categoryID *uint
	if raw := c.QueryParam("categoryId"); raw != "" {
		id := util.ParseIntDefault(raw, 0)
		if id <= 0 {
			return badRequest(l, "get_products", "categoryId must be a positive integer", nil)
		}
		cid := uint(id)
		categoryID = &cid
	}

	total, items, err := h.Svc.ListProducts(ctx, categoryID, offset, limit)
	if err != nil {
		return fail(l, "get_products", err)
	}

	l.Info("get_products_success", "total", total)
	return c.JSON(http.StatusOK, transport.PageResponse[transport.ProductResponse]{
		Data: transport.Products(items),
		Meta: util.NewMeta(page, offset, limit, total),
	})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "get_product", err)
	}
	p, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product", err)
	}
	return c.JSON(http.StatusOK, transport.Product(p))
}

func (h *ProductHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.Search(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "search", err)
	}

	l.Info("search_success", "total", total)
	return c.JSON(http.StatusOK, transport.PageResponse[transport.ProductResponse]{
		Data: transport.Products(items),
		Meta: util.NewMeta(page, offset, limit, total),
	})
}

func productInput(req transport.ProductRequest) catalog.ProductInput {
	return catalog.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Status:      req.Status,
		ImagePath:   req.ImagePath,
		CategoryID:  req.CategoryID,
	}
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_product", "invalid body", err)
	}

	p, err := h.Svc.CreateProduct(ctx, productInput(req))
	if err != nil {
		return fail(l, "create_product", err)
	}

	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, transport.Product(p))
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update_product")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "update_product", err)
	}
	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_product", "invalid body", err)
	}

	p, err := h.Svc.UpdateProduct(ctx, id, productInput(req))
	if err != nil {
		return fail(l, "update_product", err)
	}

	l.Info("update_product_success", "product_id", p.ID)
	return c.JSON(http.StatusOK, transport.Product(p))
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	id, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "delete_product", err)
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "delete_product", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product deleted successfully"})
}
