package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/jwtmiddleware"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/policy"
)

type Middleware struct {
	required echo.MiddlewareFunc
	optional echo.MiddlewareFunc
}

func New(validate jwtmiddleware.ValidateFunc) *Middleware {
	return &Middleware{
		required: jwtmiddleware.Bearer(validate, false),
		optional: jwtmiddleware.Bearer(validate, true),
	}
}

func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.required(next)
}

func (m *Middleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.optional(next)
}

// Allow admits authenticated callers holding cap. Use it after RequireAuth.
func (m *Middleware) Allow(cap policy.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := Authorize(c, cap, ""); err != nil {
				return deny(c, err)
			}
			return next(c)
		}
	}
}

// Owner admits the user named by the path parameter, and admins.
func (m *Middleware) Owner(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := Authorize(c, policy.AccessOwnData, c.Param(param)); err != nil {
				return deny(c, err)
			}
			return next(c)
		}
	}
}

// Principal returns the authenticated caller, or nil.
func Principal(c echo.Context) *policy.Principal {
	p, _ := c.Get(jwtmiddleware.ContextKey).(*policy.Principal)
	return p
}

func Authorize(c echo.Context, cap policy.Capability, ownerID string) error {
	return policy.Authorize(Principal(c), cap, ownerID)
}

func deny(c echo.Context, err error) error {
	status := apperr.Status(err)
	logging.FromContext(c.Request().Context()).Warn("access_denied",
		"status", status,
		"path", c.Path(),
		"error", err,
	)
	return echo.NewHTTPError(status, apperr.Message(err))
}
