package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/policy"
	"github.com/Skotchmaster/storefront/internal/service/account"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type AccountHandler struct {
	Svc *account.Service
}

func (h *AccountHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register", "invalid body", err)
	}

	u, err := h.Svc.Register(ctx, account.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		City:            req.City,
		PhoneNumber:     req.PhoneNumber,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return fail(l, "register", err)
	}

	l.Info("register_success", "user_id", u.ID)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "User registered successfully"})
}

func (h *AccountHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login", "invalid body", err)
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(l, "login", "email and password are required", nil)
	}

	s, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login", err)
	}

	l.Info("login_success", "user_id", s.UserID)
	return c.JSON(http.StatusOK, transport.Session(s))
}

func (h *AccountHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.refresh")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "refresh", "invalid body", err)
	}

	s, err := h.Svc.Refresh(ctx, req.UserName, req.RefreshToken)
	if err != nil {
		return fail(l, "refresh", err)
	}

	l.Info("refresh_success", "user_id", s.UserID)
	return c.JSON(http.StatusOK, transport.Session(s))
}

func (h *AccountHandler) VerifyEmail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.verify_email")

	var req transport.EmailRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "verify_email", "invalid body", err)
	}

	name, err := h.Svc.VerifyEmail(ctx, req.Email)
	if err != nil {
		return fail(l, "verify_email", err)
	}
	return c.JSON(http.StatusOK, transport.VerifyEmailResponse{UserName: name})
}

// ChangePassword identifies the account by email; only its owner or an admin may change it.
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.change_password")

	var req transport.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "change_password", "invalid body", err)
	}

	u, err := h.Svc.Lookup(ctx, req.Email)
	if err != nil {
		return fail(l, "change_password", err)
	}
	if err := auth.Authorize(c, policy.AccessOwnData, u.ID); err != nil {
		return fail(l, "change_password", err)
	}
	if err := h.Svc.ChangePassword(ctx, u.ID, req.NewPassword, req.ConfirmNewPassword); err != nil {
		return fail(l, "change_password", err)
	}

	l.Info("change_password_success", "user_id", u.ID)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Password changed successfully"})
}

func (h *AccountHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.logout")

	var userID string
	if p := auth.Principal(c); p != nil {
		userID = p.UserID
	}
	msg, err := h.Svc.Logout(ctx, userID)
	if err != nil {
		return fail(l, "logout", err)
	}

	l.Info("logout_success", "user_id", userID)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: msg})
}

func (h *AccountHandler) WhoAmI(c echo.Context) error {
	p := auth.Principal(c)
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return c.JSON(http.StatusOK, transport.WhoAmIResponse{UserName: p.UserName, Roles: p.Roles})
}

func (h *AccountHandler) UserInfo(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.user_info")

	u, err := h.Svc.Profile(ctx, c.Param("userId"))
	if err != nil {
		return fail(l, "user_info", err)
	}
	return c.JSON(http.StatusOK, transport.Profile(u))
}
