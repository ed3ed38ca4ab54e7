package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/testutil"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
)

const adminPassword = "Adm1nSecret"

type client struct {
	t *testing.T
	e *echo.Echo
}

func (c client) do(method, path, token string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(c.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func newTestApp(t *testing.T) (*App, client, *testutil.EventRecorder) {
	t.Helper()

	rec := &testutil.EventRecorder{}
	a := New(Options{
		Config: config.Config{
			JWT: config.JWTConfig{
				Secret:        []byte("test-secret-0123456789"),
				Issuer:        "storefront",
				Audience:      "storefront-clients",
				TokenValidity: 30 * time.Minute,
			},
			CORSOrigins: []string{"*"},
		},
		DB:        testutil.NewDB(t),
		Publisher: rec,
		Logger:    logging.NewWithWriter(io.Discard, "error"),
		HashCost:  bcrypt.MinCost,
	})

	_, created, err := a.Account.SeedAdmin(context.Background(), "admin@example.com", adminPassword)
	require.NoError(t, err)
	require.True(t, created)

	return a, client{t: t, e: a.Echo}, rec
}

func login(t *testing.T, c client, email, password string) transport.SessionResponse {
	t.Helper()

	res := c.do(http.MethodPost, "/api/account/login", "", transport.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	return decode[transport.SessionResponse](t, res)
}

func register(t *testing.T, c client, email string) transport.SessionResponse {
	t.Helper()

	res := c.do(http.MethodPost, "/api/account/register", "", transport.RegisterRequest{
		Name:            "Shopper",
		Email:           email,
		City:            "Riga",
		Password:        testutil.Password,
		ConfirmPassword: testutil.Password,
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	return login(t, c, email, testutil.Password)
}

func TestCheckoutKeepsPriceSnapshot(t *testing.T) {
	t.Parallel()

	_, c, rec := newTestApp(t)
	admin := login(t, c, "admin@example.com", adminPassword)

	res := c.do(http.MethodPost, "/api/product", admin.Token, transport.ProductRequest{
		Name: "Mug", Description: "stoneware", Price: decimal.NewFromInt(10), Status: "Available", ImagePath: "/img/mug.png",
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	product := decode[transport.ProductResponse](t, res)
	assert.Contains(t, res.Body.String(), `"price":10.00`)

	shopper := register(t, c, "a@b.com")
	assert.Equal(t, "a@b.com", shopper.UserName)
	assert.Equal(t, 30*60, shopper.ExpiresIn)

	cartPath := "/api/cart/" + shopper.UserID
	for _, qty := range []int{2, 3} {
		res = c.do(http.MethodPost, cartPath, shopper.Token, transport.AddToCartRequest{ProductID: product.ID, Quantity: qty})
		require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	}
	added := decode[transport.AddToCartResponse](t, res)
	assert.Equal(t, 5, added.Cart.Quantity)

	res = c.do(http.MethodGet, "/api/cart/usercart/"+shopper.UserID, shopper.Token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	lines := decode[[]transport.CartLineResponse](t, res)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(50).Equal(lines[0].TotalPrice.Decimal))
	rawLines := decode[[]map[string]any](t, res)
	assert.Equal(t, 10.0, rawLines[0]["price"], "money is a JSON number")
	assert.Equal(t, 50.0, rawLines[0]["totalPrice"])
	assert.Equal(t, "Mug", lines[0].ProductName)
	assert.Equal(t, "a@b.com", lines[0].UserName)

	res = c.do(http.MethodGet, "/api/cart/usercartlength/"+shopper.UserID, shopper.Token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "1", strings.TrimSpace(res.Body.String()))

	res = c.do(http.MethodPost, "/api/order", shopper.Token, transport.CreateOrderRequest{UserID: shopper.UserID})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	placed := decode[transport.OrderResponse](t, res)
	require.Len(t, placed.Items, 1)
	assert.True(t, decimal.NewFromInt(10).Equal(placed.Items[0].UnitPrice.Decimal))
	assert.True(t, decimal.NewFromInt(50).Equal(placed.TotalAmount.Decimal))
	rawOrder := decode[map[string]any](t, res)
	assert.Equal(t, 50.0, rawOrder["totalAmount"])
	rawItem := rawOrder["items"].([]any)[0].(map[string]any)
	assert.Equal(t, 10.0, rawItem["unitPrice"])
	assert.Equal(t, 50.0, rawItem["subtotal"])
	assert.Equal(t, "Pending", string(placed.Status))

	res = c.do(http.MethodPut, "/api/product/"+strconv.FormatUint(uint64(product.ID), 10), admin.Token, transport.ProductRequest{
		Name: "Mug", Price: decimal.NewFromInt(15), Status: "Available",
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	orderPath := "/api/order/" + strconv.FormatUint(uint64(placed.ID), 10)
	res = c.do(http.MethodGet, orderPath, shopper.Token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	got := decode[transport.OrderResponse](t, res)
	assert.True(t, decimal.NewFromInt(10).Equal(got.Items[0].UnitPrice.Decimal))
	assert.True(t, decimal.NewFromInt(50).Equal(got.TotalAmount.Decimal))

	res = c.do(http.MethodGet, "/api/cart/usercart/"+shopper.UserID, shopper.Token, nil)
	assert.Len(t, decode[[]transport.CartLineResponse](t, res), 1, "checkout leaves the cart alone by default")

	assert.Contains(t, rec.Types(events.TopicOrders), "order_created")
	assert.Contains(t, rec.Types(events.TopicProducts), "product_updated")
}

func TestAccessControl(t *testing.T) {
	t.Parallel()

	_, c, _ := newTestApp(t)
	admin := login(t, c, "admin@example.com", adminPassword)
	alice := register(t, c, "alice@example.com")
	bob := register(t, c, "bob@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
	}{
		{name: "cart without token", method: http.MethodGet, path: "/api/cart/usercart/" + alice.UserID, status: http.StatusUnauthorized},
		{name: "cart with bad token", method: http.MethodGet, path: "/api/cart/usercart/" + alice.UserID, token: "nope", status: http.StatusUnauthorized},
		{name: "foreign cart", method: http.MethodGet, path: "/api/cart/usercart/" + alice.UserID, token: bob.Token, status: http.StatusForbidden},
		{name: "own cart", method: http.MethodGet, path: "/api/cart/usercart/" + alice.UserID, token: alice.Token, status: http.StatusOK},
		{name: "admin reads any cart", method: http.MethodGet, path: "/api/cart/usercart/" + alice.UserID, token: admin.Token, status: http.StatusOK},
		{name: "foreign checkout", method: http.MethodPost, path: "/api/order", token: bob.Token, body: transport.CreateOrderRequest{UserID: alice.UserID}, status: http.StatusForbidden},
		{name: "empty cart checkout", method: http.MethodPost, path: "/api/order", token: alice.Token, body: transport.CreateOrderRequest{UserID: alice.UserID}, status: http.StatusNotFound},
		{name: "user lists all orders", method: http.MethodGet, path: "/api/order", token: alice.Token, status: http.StatusForbidden},
		{name: "admin lists all orders", method: http.MethodGet, path: "/api/order", token: admin.Token, status: http.StatusOK},
		{name: "orders of user with none", method: http.MethodGet, path: "/api/order/user/" + alice.UserID, token: alice.Token, status: http.StatusNotFound},
		{name: "user creates product", method: http.MethodPost, path: "/api/product", token: alice.Token, body: transport.ProductRequest{Name: "x"}, status: http.StatusForbidden},
		{name: "anonymous creates category", method: http.MethodPost, path: "/api/category", body: transport.CategoryRequest{Name: "x"}, status: http.StatusUnauthorized},
		{name: "foreign user info", method: http.MethodGet, path: "/api/account/userinfo/" + alice.UserID, token: bob.Token, status: http.StatusForbidden},
		{name: "own user info", method: http.MethodGet, path: "/api/account/userinfo/" + alice.UserID, token: alice.Token, status: http.StatusOK},
		{name: "whoami", method: http.MethodGet, path: "/api/account/whoami", token: bob.Token, status: http.StatusOK},
		{name: "foreign password change", method: http.MethodPost, path: "/api/account/changepassword", token: bob.Token,
			body: transport.ChangePasswordRequest{Email: "alice@example.com", NewPassword: "N3wPassword", ConfirmNewPassword: "N3wPassword"}, status: http.StatusForbidden},
		{name: "public product list", method: http.MethodGet, path: "/api/product", status: http.StatusOK},
		{name: "search without query", method: http.MethodGet, path: "/api/product/search", status: http.StatusBadRequest},
		{name: "liveness", method: http.MethodGet, path: "/health/live", status: http.StatusOK},
		{name: "readiness", method: http.MethodGet, path: "/health/ready", status: http.StatusOK},
	}

	for _, tt := range tests {
		res := c.do(tt.method, tt.path, tt.token, tt.body)
		assert.Equal(t, tt.status, res.Code, "%s: %s", tt.name, res.Body.String())
	}
}

func TestAccountFlow(t *testing.T) {
	t.Parallel()

	_, c, _ := newTestApp(t)
	first := register(t, c, "a@b.com")

	res := c.do(http.MethodPost, "/api/account/register", "", transport.RegisterRequest{
		Name: "Again", Email: "A@B.com", Password: testutil.Password, ConfirmPassword: testutil.Password,
	})
	assert.Equal(t, http.StatusConflict, res.Code)

	res = c.do(http.MethodPost, "/api/account/register", "", transport.RegisterRequest{
		Name: "Weak", Email: "weak@b.com", Password: "password", ConfirmPassword: "password",
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = c.do(http.MethodPost, "/api/account/login", "", transport.LoginRequest{Email: "a@b.com", Password: "Wr0ngPassword"})
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = c.do(http.MethodPost, "/api/account/refreshtoken", "", transport.RefreshRequest{UserName: "a@b.com", RefreshToken: first.RefreshToken})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	rotated := decode[transport.SessionResponse](t, res)
	assert.NotEqual(t, first.RefreshToken, rotated.RefreshToken)

	res = c.do(http.MethodPost, "/api/account/refreshtoken", "", transport.RefreshRequest{UserName: "a@b.com", RefreshToken: first.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, res.Code, "a rotated token cannot be replayed")

	res = c.do(http.MethodPost, "/api/account/verifyemail", "", transport.EmailRequest{Email: "a@b.com"})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "a@b.com", decode[transport.VerifyEmailResponse](t, res).UserName)

	res = c.do(http.MethodPost, "/api/account/verifyemail", "", transport.EmailRequest{Email: "nobody@b.com"})
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = c.do(http.MethodPost, "/api/account/changepassword", rotated.Token, transport.ChangePasswordRequest{
		Email: "a@b.com", NewPassword: "N3wPassword", ConfirmNewPassword: "N3wPassword",
	})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	login(t, c, "a@b.com", "N3wPassword")

	res = c.do(http.MethodPost, "/api/account/logout", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Logged out successfully", decode[transport.MessageResponse](t, res).Message)
}

func TestOrderAdministration(t *testing.T) {
	t.Parallel()

	_, c, _ := newTestApp(t)
	admin := login(t, c, "admin@example.com", adminPassword)
	shopper := register(t, c, "a@b.com")

	res := c.do(http.MethodPost, "/api/category", admin.Token, transport.CategoryRequest{Name: "Kitchen"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	res = c.do(http.MethodPost, "/api/category", admin.Token, transport.CategoryRequest{Name: "Kitchen"})
	assert.Equal(t, http.StatusConflict, res.Code)

	res = c.do(http.MethodPost, "/api/product", admin.Token, transport.ProductRequest{Name: "Plate", Price: decimal.RequireFromString("4.50")})
	require.Equal(t, http.StatusCreated, res.Code)
	plate := decode[transport.ProductResponse](t, res)

	res = c.do(http.MethodPost, "/api/cart/"+shopper.UserID, shopper.Token, transport.AddToCartRequest{ProductID: plate.ID, Quantity: 2})
	require.Equal(t, http.StatusOK, res.Code)
	res = c.do(http.MethodPost, "/api/order", shopper.Token, transport.CreateOrderRequest{UserID: shopper.UserID})
	require.Equal(t, http.StatusOK, res.Code)
	placed := decode[transport.OrderResponse](t, res)
	statusPath := "/api/order/" + strconv.FormatUint(uint64(placed.ID), 10) + "/status"

	res = c.do(http.MethodPut, statusPath, shopper.Token, `"Shipped"`)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = c.do(http.MethodPut, statusPath, admin.Token, `"shipped"`)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Equal(t, "Shipped", string(decode[transport.OrderResponse](t, res).Status))

	res = c.do(http.MethodPut, statusPath, admin.Token, `{"status":"Delivered"}`)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Delivered", string(decode[transport.OrderResponse](t, res).Status))

	res = c.do(http.MethodPut, statusPath, admin.Token, `{"status":"Lost"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	res = c.do(http.MethodPut, "/api/order/999/status", admin.Token, `"Lost"`)
	assert.Equal(t, http.StatusNotFound, res.Code, "a missing order wins over a bad status")

	res = c.do(http.MethodGet, "/api/order?status=delivered", admin.Token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	listed := decode[[]transport.OrderResponse](t, res)
	require.Len(t, listed, 1)
	assert.Equal(t, "Shopper", listed[0].UserName)

	res = c.do(http.MethodDelete, "/api/product/"+strconv.FormatUint(uint64(plate.ID), 10), admin.Token, nil)
	require.Equal(t, http.StatusOK, res.Code)

	res = c.do(http.MethodGet, "/api/order/user/"+shopper.UserID, shopper.Token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	mine := decode[[]transport.OrderResponse](t, res)
	require.Len(t, mine, 1)
	assert.Equal(t, "Plate", mine[0].Items[0].ProductName, "deleted products fall back to the snapshot name")

	res = c.do(http.MethodDelete, "/api/order/"+strconv.FormatUint(uint64(placed.ID), 10), admin.Token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Order deleted successfully", decode[string](t, res))

	res = c.do(http.MethodGet, "/api/product?page=1&size=5", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	page := decode[transport.PageResponse[transport.ProductResponse]](t, res)
	assert.Empty(t, page.Data)
	assert.Equal(t, util.Meta{Page: 1, Size: 5}, page.Meta)
}

func TestRemoveLine_ForeignLineLooksMissing(t *testing.T) {
	t.Parallel()

	_, c, _ := newTestApp(t)
	admin := login(t, c, "admin@example.com", adminPassword)
	alice := register(t, c, "alice@example.com")
	bob := register(t, c, "bob@example.com")

	res := c.do(http.MethodPost, "/api/product", admin.Token, transport.ProductRequest{Name: "Cup", Price: decimal.NewFromInt(3)})
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	cup := decode[transport.ProductResponse](t, res)

	res = c.do(http.MethodPost, "/api/cart/"+alice.UserID, alice.Token, transport.AddToCartRequest{ProductID: cup.ID, Quantity: 1})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	res = c.do(http.MethodGet, "/api/cart/usercart/"+alice.UserID, alice.Token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	lines := decode[[]transport.CartLineResponse](t, res)
	require.Len(t, lines, 1)
	linePath := "/api/cart/" + strconv.FormatUint(uint64(lines[0].ID), 10)

	foreign := c.do(http.MethodDelete, linePath, bob.Token, nil)
	missing := c.do(http.MethodDelete, "/api/cart/99999", bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, foreign.Code)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.JSONEq(t, missing.Body.String(), foreign.Body.String())

	res = c.do(http.MethodDelete, linePath, admin.Token, nil)
	assert.Equal(t, http.StatusOK, res.Code, res.Body.String())
	res = c.do(http.MethodDelete, linePath, alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}
