package app

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/handlers"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service/account"
	"github.com/Skotchmaster/storefront/internal/service/cart"
	"github.com/Skotchmaster/storefront/internal/service/catalog"
	"github.com/Skotchmaster/storefront/internal/service/order"
	"github.com/Skotchmaster/storefront/internal/service/token"
	httpserver "github.com/Skotchmaster/storefront/internal/transport/http"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

// Options carries the resources the application is built from. Publisher,
// Index and Cache may be nil.
type Options struct {
	Config    config.Config
	DB        *gorm.DB
	Publisher events.Publisher
	Index     catalog.SearchIndex
	Cache     catalog.ProductCache
	Logger    *slog.Logger
	HashCost  int
}

type App struct {
	Echo    *echo.Echo
	Account *account.Service
	Catalog *catalog.Service
	Cart    *cart.Service
	Order   *order.Service
	Tokens  *token.Service
}

func New(opts Options) *App {
	cfg := opts.Config
	pub := opts.Publisher
	if pub == nil {
		pub = events.Noop{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store := repo.New(opts.DB)
	tokenSvc := token.NewService(store, tokens.Signer{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.JWT.TokenValidity,
	})
	accountSvc := &account.Service{
		Repo:           store,
		Tokens:         tokenSvc,
		Events:         pub,
		HashCost:       opts.HashCost,
		RevokeOnLogout: cfg.RevokeRefreshOnLogout,
	}
	catalogSvc := &catalog.Service{Repo: store, Index: opts.Index, Cache: opts.Cache, Events: pub}
	cartSvc := &cart.Service{Repo: store, Events: pub}
	orderSvc := &order.Service{Repo: store, Events: pub, ClearCartOnCheckout: cfg.ClearCartOnCheckout}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit("2M"))

	httpserver.Register(e, &httpserver.Deps{
		DB:       opts.DB,
		Auth:     auth.New(tokenSvc.Validate),
		Account:  &handlers.AccountHandler{Svc: accountSvc},
		Cart:     &handlers.CartHandler{Svc: cartSvc},
		Order:    &handlers.OrderHandler{Svc: orderSvc},
		Product:  &handlers.ProductHandler{Svc: catalogSvc},
		Category: &handlers.CategoryHandler{Svc: catalogSvc},
	})

	return &App{
		Echo:    e,
		Account: accountSvc,
		Catalog: catalogSvc,
		Cart:    cartSvc,
		Order:   orderSvc,
		Tokens:  tokenSvc,
	}
}
