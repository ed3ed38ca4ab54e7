package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/handlers"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/policy"
	"github.com/Skotchmaster/storefront/pkg/db"
)

type Deps struct {
	DB       *gorm.DB
	Auth     *auth.Middleware
	Account  *handlers.AccountHandler
	Cart     *handlers.CartHandler
	Order    *handlers.OrderHandler
	Product  *handlers.ProductHandler
	Category *handlers.CategoryHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)

	m := d.Auth
	api := e.Group("/api")

	account := api.Group("/account")
	account.POST("/register", d.Account.Register)
	account.POST("/login", d.Account.Login)
	account.POST("/refreshtoken", d.Account.Refresh)
	account.POST("/verifyemail", d.Account.VerifyEmail)
	account.POST("/logout", d.Account.Logout, m.OptionalAuth)
	account.POST("/changepassword", d.Account.ChangePassword, m.RequireAuth)
	account.GET("/whoami", d.Account.WhoAmI, m.RequireAuth)
	account.GET("/userinfo/:userId", d.Account.UserInfo, m.RequireAuth, m.Owner("userId"))

	cart := api.Group("/cart", m.RequireAuth)
	cart.GET("/usercart/:userId", d.Cart.GetCart, m.Owner("userId"))
	cart.GET("/usercartlength/:userId", d.Cart.CartLength, m.Owner("userId"))
	cart.PUT("/update-quantity", d.Cart.UpdateQuantity)
	cart.DELETE("/remove/:userId/:productId", d.Cart.RemoveProduct, m.Owner("userId"))
	cart.POST("/:userId", d.Cart.AddToCart, m.Owner("userId"))
	cart.DELETE("/:cartItemId", d.Cart.RemoveLine)

	order := api.Group("/order", m.RequireAuth)
	order.POST("", d.Order.CreateOrder)
	order.GET("", d.Order.ListOrders, m.Allow(policy.ViewAllOrders))
	order.GET("/user/:userId", d.Order.OrdersByUser, m.Owner("userId"))
	order.GET("/:id", d.Order.GetOrder)
	order.PUT("/:id/status", d.Order.UpdateStatus, m.Allow(policy.ManageOrders))
	order.DELETE("/:id", d.Order.DeleteOrder, m.Allow(policy.ManageOrders))

	product := api.Group("/product")
	product.GET("", d.Product.GetProducts)
	product.GET("/search", d.Product.Search)
	product.GET("/:id", d.Product.GetProduct)
	product.POST("", d.Product.CreateProduct, m.RequireAuth, m.Allow(policy.ManageCatalog))
	product.PUT("/:id", d.Product.UpdateProduct, m.RequireAuth, m.Allow(policy.ManageCatalog))
	product.DELETE("/:id", d.Product.DeleteProduct, m.RequireAuth, m.Allow(policy.ManageCatalog))

	category := api.Group("/category")
	category.GET("", d.Category.ListCategories)
	category.GET("/:id", d.Category.GetCategory)
	category.POST("", d.Category.CreateCategory, m.RequireAuth, m.Allow(policy.ManageCatalog))
	category.PUT("/:id", d.Category.UpdateCategory, m.RequireAuth, m.Allow(policy.ManageCatalog))
	category.DELETE("/:id", d.Category.DeleteCategory, m.RequireAuth, m.Allow(policy.ManageCatalog))
}

func (d *Deps) ready(c echo.Context) error {
	ctx := c.Request().Context()
	if err := db.Ping(ctx, d.DB); err != nil {
		logging.FromContext(ctx).Warn("readiness_failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
