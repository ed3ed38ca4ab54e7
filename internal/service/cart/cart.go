package cart

import (
	"context"
	"errors"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

var (
	ErrProductNotFound = apperr.New(apperr.ErrNotFound, "product not found")
	ErrLineNotFound    = apperr.New(apperr.ErrNotFound, "cart item not found")
	ErrBadQuantity     = apperr.New(apperr.ErrValidation, "quantity must be greater than zero")
)

type Repository interface {
	ProductByID(ctx context.Context, id uint) (*models.Product, error)
	UpsertCartItem(ctx context.Context, userID string, productID uint, qty int) (*models.CartItem, error)
	SetCartQuantity(ctx context.Context, userID string, productID uint, qty int) error
	DeleteCartItem(ctx context.Context, userID string, productID uint) (*models.CartItem, error)
	CartItemByID(ctx context.Context, id uint) (*models.CartItem, error)
	DeleteCartItemByID(ctx context.Context, id uint) (*models.CartItem, error)
	CartItems(ctx context.Context, userID string) ([]models.CartItem, error)
	CountCartItems(ctx context.Context, userID string) (int64, error)
	ClearCart(ctx context.Context, userID string) error
}

type Service struct {
	Repo   Repository
	Events events.Publisher
}

func lineNotFound(err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return ErrLineNotFound
	}
	return err
}

func lineEvent(typ string, item *models.CartItem) events.Event {
	return events.New(typ, map[string]any{
		"cartItemId": item.ID,
		"userId":     item.UserID,
		"productId":  item.ProductID,
		"quantity":   item.Quantity,
	})
}

// Add puts qty units of productID into the user's cart, merging with an
// existing line for the same product.
func (s *Service) Add(ctx context.Context, userID string, productID uint, qty int) (*models.CartItem, error) {
	l := logging.FromContext(ctx).With("svc", "cart.add")

	if qty <= 0 {
		return nil, ErrBadQuantity
	}
	if _, err := s.Repo.ProductByID(ctx, productID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	item, err := s.Repo.UpsertCartItem(ctx, userID, productID, qty)
	if err != nil {
		return nil, err
	}

	l.Debug("cart_item_merged", "user_id", userID, "product_id", productID, "quantity", item.Quantity)
	events.Emit(ctx, s.Events, events.TopicCart, userID, lineEvent("cart_item_added", item))
	return item, nil
}

// UpdateQuantity sets the line's quantity, or removes the line when qty <= 0.
func (s *Service) UpdateQuantity(ctx context.Context, userID string, productID uint, qty int) error {
	if qty <= 0 {
		item, err := s.Repo.DeleteCartItem(ctx, userID, productID)
		if err != nil {
			return lineNotFound(err)
		}
		events.Emit(ctx, s.Events, events.TopicCart, userID, lineEvent("cart_item_removed", item))
		return nil
	}

	if err := s.Repo.SetCartQuantity(ctx, userID, productID, qty); err != nil {
		return lineNotFound(err)
	}
	events.Emit(ctx, s.Events, events.TopicCart, userID, events.New("cart_quantity_updated", map[string]any{
		"userId":    userID,
		"productId": productID,
		"quantity":  qty,
	}))
	return nil
}

func (s *Service) Remove(ctx context.Context, userID string, productID uint) (*models.CartItem, error) {
	item, err := s.Repo.DeleteCartItem(ctx, userID, productID)
	if err != nil {
		return nil, lineNotFound(err)
	}
	events.Emit(ctx, s.Events, events.TopicCart, userID, lineEvent("cart_item_removed", item))
	return item, nil
}

func (s *Service) RemoveLine(ctx context.Context, lineID uint) (*models.CartItem, error) {
	item, err := s.Repo.DeleteCartItemByID(ctx, lineID)
	if err != nil {
		return nil, lineNotFound(err)
	}
	events.Emit(ctx, s.Events, events.TopicCart, item.UserID, lineEvent("cart_item_removed", item))
	return item, nil
}

func (s *Service) Line(ctx context.Context, lineID uint) (*models.CartItem, error) {
	item, err := s.Repo.CartItemByID(ctx, lineID)
	if err != nil {
		return nil, lineNotFound(err)
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]models.CartItem, error) {
	return s.Repo.CartItems(ctx, userID)
}

func (s *Service) Count(ctx context.Context, userID string) (int64, error) {
	return s.Repo.CountCartItems(ctx, userID)
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.Repo.ClearCart(ctx, userID); err != nil {
		return err
	}
	events.Emit(ctx, s.Events, events.TopicCart, userID, events.New("cart_cleared", map[string]any{"userId": userID}))
	return nil
}
