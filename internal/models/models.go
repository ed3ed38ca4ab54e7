package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

type User struct {
	ID                    string     `gorm:"primaryKey;size:36"              json:"id"`
	UserName              string     `gorm:"size:256;not null;uniqueIndex"   json:"userName"`
	Email                 string     `gorm:"size:256;not null;uniqueIndex"   json:"email"`
	FullName              string     `gorm:"size:256;not null;default:''"    json:"fullName"`
	City                  string     `gorm:"size:128;not null;default:''"    json:"city"`
	PhoneNumber           string     `gorm:"size:64;not null;default:''"     json:"phoneNumber"`
	PasswordHash          string     `gorm:"not null"                        json:"-"`
	Roles                 []string   `gorm:"serializer:json;type:text;not null" json:"roles"`
	RefreshTokenHash      *string    `gorm:"size:64"                         json:"-"`
	RefreshTokenExpiresAt *time.Time `                                       json:"-"`
	CreatedAt             time.Time  `                                       json:"createdAt"`
	UpdatedAt             time.Time  `                                       json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if len(u.Roles) == 0 {
		u.Roles = []string{RoleUser}
	}
	return nil
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

type Category struct {
	ID          uint   `gorm:"primaryKey"                      json:"id"`
	Name        string `gorm:"size:100;not null;uniqueIndex"   json:"name"`
	Description string `gorm:"size:255;not null;default:''"    json:"description"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey"                        json:"id"`
	Name        string          `gorm:"size:200;not null"                 json:"name"`
	Description string          `gorm:"type:text;not null;default:''"     json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"       json:"price"`
	Status      string          `gorm:"size:64;not null;default:''"       json:"status"`
	ImagePath   string          `gorm:"size:512;not null;default:''"      json:"imagePath"`
	CategoryID  *uint           `gorm:"index"                             json:"categoryId"`
	Category    *Category       `gorm:"constraint:OnDelete:SET NULL"      json:"category,omitempty"`
	CreatedAt   time.Time       `                                         json:"createdAt"`
	UpdatedAt   time.Time       `                                         json:"updatedAt"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey"                                 json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_user_product" json:"userId"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_user_product"      json:"productId"`
	Quantity  int       `gorm:"not null;check:quantity > 0"                json:"quantity"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE"                json:"-"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE"                json:"-"`
	CreatedAt time.Time `                                                  json:"createdAt"`
	UpdatedAt time.Time `                                                  json:"updatedAt"`
}

// LineTotal is the live price times quantity. Zero when the product was not loaded.
func (ci *CartItem) LineTotal() decimal.Decimal {
	if ci.Product == nil {
		return decimal.Zero
	}
	return ci.Product.Price.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}

type Order struct {
	ID          uint            `gorm:"primaryKey"                               json:"id"`
	UserID      string          `gorm:"size:36;not null;index"                   json:"userId"`
	User        *User           `gorm:"constraint:OnDelete:CASCADE"              json:"-"`
	OrderDate   time.Time       `gorm:"not null"                                 json:"orderDate"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"              json:"totalAmount"`
	Status      OrderStatus     `gorm:"size:32;not null;default:Pending"         json:"status"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// OrderItem keeps the product name and price as they were when the order was placed.
// ProductID deliberately has no foreign key so the line outlives the product.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey"                   json:"id"`
	OrderID     uint            `gorm:"not null;index"               json:"orderId"`
	ProductID   uint            `gorm:"not null"                     json:"productId"`
	ProductName string          `gorm:"size:200;not null;default:''" json:"productName"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"unitPrice"`
	Quantity    int             `gorm:"not null;check:quantity > 0"  json:"quantity"`
}

func (oi *OrderItem) Subtotal() decimal.Decimal {
	return oi.UnitPrice.Mul(decimal.NewFromInt(int64(oi.Quantity)))
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Category{},
		&Product{},
		&CartItem{},
		&Order{},
		&OrderItem{},
	)
}
