package transport

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service/account"
	"github.com/Skotchmaster/storefront/internal/service/order"
	"github.com/Skotchmaster/storefront/internal/util"
)

type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	City            string `json:"city"`
	PhoneNumber     string `json:"phoneNumber"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	UserName     string `json:"userName"`
	RefreshToken string `json:"refreshToken"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type ChangePasswordRequest struct {
	Email              string `json:"email"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

type AddToCartRequest struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

type UpdateQuantityRequest struct {
	UserID    string `json:"userId"`
	ProductID uint   `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	UserID string `json:"userId"`
}

type ProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Status      string          `json:"status"`
	ImagePath   string          `json:"imagePath"`
	CategoryID  *uint           `json:"categoryId"`
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SessionResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	UserName     string `json:"userName"`
	UserID       string `json:"userId"`
}

func Session(s *account.Session) SessionResponse {
	return SessionResponse{
		Token:        s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		UserName:     s.UserName,
		UserID:       s.UserID,
	}
}

type VerifyEmailResponse struct {
	UserName string `json:"username"`
}

type WhoAmIResponse struct {
	UserName string   `json:"userName"`
	Roles    []string `json:"roles"`
}

type ProfileResponse struct {
	ID          string `json:"id"`
	UserName    string `json:"userName"`
	Email       string `json:"email"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	City        string `json:"city"`
}

func Profile(u *models.User) ProfileResponse {
	return ProfileResponse{
		ID:          u.ID,
		UserName:    u.UserName,
		Email:       u.Email,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		City:        u.City,
	}
}

type CartLineResponse struct {
	ID          uint   `json:"id"`
	ProductID   uint   `json:"productId"`
	ProductName string `json:"productName"`
	Price       Money  `json:"price"`
	Quantity    int    `json:"quantity"`
	UserName    string `json:"userName"`
	ImagePath   string `json:"imagePath"`
	TotalPrice  Money  `json:"totalPrice"`
}

func CartLine(ci *models.CartItem) CartLineResponse {
	out := CartLineResponse{
		ID:         ci.ID,
		ProductID:  ci.ProductID,
		Quantity:   ci.Quantity,
		TotalPrice: NewMoney(ci.LineTotal()),
	}
	if ci.Product != nil {
		out.ProductName = ci.Product.Name
		out.Price = NewMoney(ci.Product.Price)
		out.ImagePath = ci.Product.ImagePath
	}
	if ci.User != nil {
		out.UserName = ci.User.UserName
	}
	return out
}

func CartLines(items []models.CartItem) []CartLineResponse {
	out := make([]CartLineResponse, len(items))
	for i := range items {
		out[i] = CartLine(&items[i])
	}
	return out
}

type CartRef struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

type AddToCartResponse struct {
	Message string  `json:"message"`
	Cart    CartRef `json:"cart"`
}

type RemovedLineResponse struct {
	Message  string           `json:"message"`
	CartItem CartLineResponse `json:"cartItem"`
}

type OrderItemResponse struct {
	ProductID   uint   `json:"productId"`
	ProductName string `json:"productName"`
	ImagePath   string `json:"imagePath"`
	UnitPrice   Money  `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
	Subtotal    Money  `json:"subtotal"`
}

type OrderResponse struct {
	ID          uint                `json:"id"`
	UserID      string              `json:"userId"`
	UserName    string              `json:"userName"`
	OrderDate   time.Time           `json:"orderDate"`
	TotalAmount Money               `json:"totalAmount"`
	Status      models.OrderStatus  `json:"status"`
	Items       []OrderItemResponse `json:"items"`
}

func Order(v *order.View) OrderResponse {
	items := make([]OrderItemResponse, len(v.Lines))
	for i := range v.Lines {
		ln := &v.Lines[i]
		items[i] = OrderItemResponse{
			ProductID:   ln.ProductID,
			ProductName: ln.DisplayName,
			ImagePath:   ln.ImagePath,
			UnitPrice:   NewMoney(ln.UnitPrice),
			Quantity:    ln.Quantity,
			Subtotal:    NewMoney(ln.Subtotal()),
		}
	}
	return OrderResponse{
		ID:          v.ID,
		UserID:      v.UserID,
		UserName:    v.UserName,
		OrderDate:   v.OrderDate,
		TotalAmount: NewMoney(v.TotalAmount),
		Status:      v.Status,
		Items:       items,
	}
}

func Orders(views []*order.View) []OrderResponse {
	out := make([]OrderResponse, len(views))
	for i, v := range views {
		out[i] = Order(v)
	}
	return out
}

type ProductResponse struct {
	ID                  uint   `json:"id"`
	Name                string `json:"name"`
	Description         string `json:"description"`
	Price               Money  `json:"price"`
	Status              string `json:"status"`
	ImagePath           string `json:"imagePath"`
	CategoryID          *uint  `json:"categoryId"`
	CategoryName        string `json:"categoryName,omitempty"`
	CategoryDescription string `json:"categoryDescription,omitempty"`
}

func Product(p *models.Product) ProductResponse {
	out := ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       NewMoney(p.Price),
		Status:      p.Status,
		ImagePath:   p.ImagePath,
		CategoryID:  p.CategoryID,
	}
	if p.Category != nil {
		out.CategoryName = p.Category.Name
		out.CategoryDescription = p.Category.Description
	}
	return out
}

func Products(ps []models.Product) []ProductResponse {
	out := make([]ProductResponse, len(ps))
	for i := range ps {
		out[i] = Product(&ps[i])
	}
	return out
}

type PageResponse[T any] struct {
	Data []T       `json:"data"`
	Meta util.Meta `json:"meta"`
}
