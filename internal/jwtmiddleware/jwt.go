package jwtmiddleware

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/policy"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

// ContextKey is where the authenticated *policy.Principal is stored.
const ContextKey = "principal"

type ValidateFunc func(accessToken string) (*tokens.AccessClaims, error)

// Bearer authenticates "Authorization: Bearer <jwt>". When optional is set a
// missing or invalid token lets the request through without a principal.
func Bearer(validate ValidateFunc, optional bool) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:             ContextKey,
		TokenLookup:            "header:Authorization:Bearer ",
		ContinueOnIgnoredError: optional,
		ParseTokenFunc: func(c echo.Context, auth string) (any, error) {
			claims, err := validate(auth)
			if err != nil {
				return nil, err
			}
			return &policy.Principal{
				UserID:   claims.Subject,
				UserName: claims.UserName,
				Roles:    claims.Roles,
			}, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if optional {
				return nil
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid access token")
		},
	})
}
