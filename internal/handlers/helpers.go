package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apperr"
)

// fail logs err under "<op>_error" and turns it into the matching HTTP error.
// The message of a 500 never carries the underlying error text.
func fail(l *slog.Logger, op string, err error) error {
	status := apperr.Status(err)
	msg := apperr.Message(err)
	if status >= http.StatusInternalServerError {
		l.Error(op+"_error", "status", status, "reason", msg, "error", err)
	} else {
		l.Warn(op+"_error", "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func badRequest(l *slog.Logger, op, reason string, err error) error {
	l.Warn(op+"_error", "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

func uintParam(c echo.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 0)
	if err != nil || n == 0 {
		return 0, apperr.Newf(apperr.ErrValidation, "%s must be a positive integer", name)
	}
	return uint(n), nil
}

var errNoStatus = errors.New("body must be a JSON string or an object with a status field")

// parseStatusBody accepts either `"Shipped"` or `{"status": "Shipped"}`.
func parseStatusBody(body []byte) (string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return "", errNoStatus
	}

	var s string
	if body[0] == '"' {
		if err := json.Unmarshal(body, &s); err != nil {
			return "", err
		}
		return s, nil
	}

	var obj struct {
		Status *string `json:"status"`
	}
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", err
	}
	if obj.Status == nil {
		return "", errNoStatus
	}
	return *obj.Status, nil
}
