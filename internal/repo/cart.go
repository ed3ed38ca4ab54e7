package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) cartLines(ctx context.Context) *gorm.DB {
	return r.conn(ctx).Preload("Product").Preload("User")
}

// UpsertCartItem adds qty to the user's line for productID, creating it when
// absent. The merge is a single INSERT ... ON CONFLICT statement.
func (r *GormRepo) UpsertCartItem(ctx context.Context, userID string, productID uint, qty int) (*models.CartItem, error) {
	item := models.CartItem{UserID: userID, ProductID: productID, Quantity: qty}
	db := r.conn(ctx)
	err := db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
			"updated_at": db.NowFunc(),
		}),
	}).Create(&item).Error
	if err != nil {
		return nil, translate(err, "cart item")
	}
	return r.CartItem(ctx, userID, productID)
}

func (r *GormRepo) CartItem(ctx context.Context, userID string, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.cartLines(ctx).Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error; err != nil {
		return nil, translate(err, "cart item")
	}
	return &item, nil
}

func (r *GormRepo) CartItemByID(ctx context.Context, id uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.cartLines(ctx).First(&item, id).Error; err != nil {
		return nil, translate(err, "cart item")
	}
	return &item, nil
}

func (r *GormRepo) SetCartQuantity(ctx context.Context, userID string, productID uint, qty int) error {
	res := r.conn(ctx).Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("quantity", qty)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("cart item")
	}
	return nil
}

// DeleteCartItem removes the user's line for productID and returns it as it was.
func (r *GormRepo) DeleteCartItem(ctx context.Context, userID string, productID uint) (*models.CartItem, error) {
	var removed *models.CartItem
	err := r.InTx(ctx, func(ctx context.Context) error {
		item, err := r.CartItem(ctx, userID, productID)
		if err != nil {
			return err
		}
		if err := r.deleteLine(ctx, item.ID); err != nil {
			return err
		}
		removed = item
		return nil
	})
	return removed, err
}

func (r *GormRepo) DeleteCartItemByID(ctx context.Context, id uint) (*models.CartItem, error) {
	var removed *models.CartItem
	err := r.InTx(ctx, func(ctx context.Context) error {
		item, err := r.CartItemByID(ctx, id)
		if err != nil {
			return err
		}
		if err := r.deleteLine(ctx, item.ID); err != nil {
			return err
		}
		removed = item
		return nil
	})
	return removed, err
}

func (r *GormRepo) deleteLine(ctx context.Context, id uint) error {
	res := r.conn(ctx).Delete(&models.CartItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("cart item")
	}
	return nil
}

func (r *GormRepo) CartItems(ctx context.Context, userID string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.cartLines(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CountCartItems(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := r.conn(ctx).Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID string) error {
	return r.conn(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
