package order

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

const UnknownProduct = "Unknown Product"

var (
	ErrEmptyCart     = apperr.New(apperr.ErrNotFound, "cart is empty for this user")
	ErrOrderNotFound = apperr.New(apperr.ErrNotFound, "order not found")
	ErrNoOrders      = apperr.New(apperr.ErrNotFound, "no orders found for this user")
	ErrBadStatus     = apperr.New(apperr.ErrValidation, "invalid order status")
)

type Repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	CartItems(ctx context.Context, userID string) ([]models.CartItem, error)
	ClearCart(ctx context.Context, userID string) error
	CreateOrder(ctx context.Context, o *models.Order) error
	OrderByID(ctx context.Context, id uint) (*models.Order, error)
	ListOrders(ctx context.Context, f repo.OrderFilter) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uint, status models.OrderStatus) error
	DeleteOrder(ctx context.Context, id uint) error
	ProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
	UsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

type Service struct {
	Repo                Repository
	Events              events.Publisher
	ClearCartOnCheckout bool
	Now                 func() time.Time
}

// Line is an order line joined with the product's current display data.
type Line struct {
	models.OrderItem
	DisplayName string
	ImagePath   string
}

type View struct {
	models.Order
	UserName string
	Lines    []Line
}

type Filter struct {
	UserID string
	Status string
	Page   int
	Size   int
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func orderKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func orderNotFound(err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return ErrOrderNotFound
	}
	return err
}

// Create turns the user's cart into a Pending order. Each line copies the
// product's name and current price; later catalog changes do not touch it.
func (s *Service) Create(ctx context.Context, userID string) (*View, error) {
	l := logging.FromContext(ctx).With("svc", "order.create")

	var created *models.Order
	var products []models.Product
	err := s.Repo.InTx(ctx, func(ctx context.Context) error {
		lines, err := s.Repo.CartItems(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		o := &models.Order{
			UserID:    userID,
			OrderDate: s.now().UTC(),
			Status:    models.OrderStatusPending,
			Items:     make([]models.OrderItem, 0, len(lines)),
		}
		total := decimal.Zero
		for _, line := range lines {
			if line.Product == nil {
				continue
			}
			item := models.OrderItem{
				ProductID:   line.ProductID,
				ProductName: line.Product.Name,
				UnitPrice:   line.Product.Price,
				Quantity:    line.Quantity,
			}
			total = total.Add(item.Subtotal())
			o.Items = append(o.Items, item)
			products = append(products, *line.Product)
		}
		if len(o.Items) == 0 {
			return ErrEmptyCart
		}
		o.TotalAmount = total

		if err := s.Repo.CreateOrder(ctx, o); err != nil {
			return err
		}
		if s.ClearCartOnCheckout {
			if err := s.Repo.ClearCart(ctx, userID); err != nil {
				return err
			}
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.Info("order_created", "order_id", created.ID, "user_id", userID, "total", created.TotalAmount.String())
	events.Emit(ctx, s.Events, events.TopicOrders, orderKey(created.ID), events.New("order_created", map[string]any{
		"orderId":     created.ID,
		"userId":      userID,
		"totalAmount": created.TotalAmount,
		"items":       len(created.Items),
	}))

	users, err := s.Repo.UsersByIDs(ctx, []string{userID})
	if err != nil {
		return nil, err
	}
	return buildViews([]models.Order{*created}, products, users)[0], nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]*View, error) {
	rf := repo.OrderFilter{UserID: f.UserID}
	if f.Status != "" {
		st, ok := models.ParseOrderStatus(f.Status)
		if !ok {
			return nil, ErrBadStatus
		}
		rf.Status = st
	}
	if f.Size > 0 {
		page := max(f.Page, 1)
		rf.Offset = (page - 1) * f.Size
		rf.Limit = f.Size
	}

	orders, err := s.Repo.ListOrders(ctx, rf)
	if err != nil {
		return nil, err
	}
	return s.join(ctx, orders)
}

func (s *Service) ByUser(ctx context.Context, userID string) ([]*View, error) {
	views, err := s.List(ctx, Filter{UserID: userID})
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, ErrNoOrders
	}
	return views, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*View, error) {
	o, err := s.Repo.OrderByID(ctx, id)
	if err != nil {
		return nil, orderNotFound(err)
	}
	views, err := s.join(ctx, []models.Order{*o})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// UpdateStatus accepts any known status, matched case-insensitively.
// A missing order is reported before a bad status.
func (s *Service) UpdateStatus(ctx context.Context, id uint, raw string) (*View, error) {
	current, err := s.Repo.OrderByID(ctx, id)
	if err != nil {
		return nil, orderNotFound(err)
	}
	next, ok := models.ParseOrderStatus(raw)
	if !ok {
		return nil, ErrBadStatus
	}
	if current.Status.Valid() && !models.CanTransition(current.Status, next) {
		return nil, apperr.Newf(apperr.ErrValidation, "cannot move order from %s to %s", current.Status, next)
	}
	if err := s.Repo.UpdateOrderStatus(ctx, id, next); err != nil {
		return nil, orderNotFound(err)
	}

	events.Emit(ctx, s.Events, events.TopicOrders, orderKey(id), events.New("order_status_changed", map[string]any{
		"orderId": id,
		"from":    current.Status,
		"to":      next,
	}))
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteOrder(ctx, id); err != nil {
		return orderNotFound(err)
	}
	events.Emit(ctx, s.Events, events.TopicOrders, orderKey(id), events.New("order_deleted", map[string]any{"orderId": id}))
	return nil
}

func (s *Service) join(ctx context.Context, orders []models.Order) ([]*View, error) {
	var productIDs []uint
	var userIDs []string
	seenUser := map[string]bool{}
	for _, o := range orders {
		for _, it := range o.Items {
			productIDs = append(productIDs, it.ProductID)
		}
		if !seenUser[o.UserID] {
			seenUser[o.UserID] = true
			userIDs = append(userIDs, o.UserID)
		}
	}

	products, err := s.Repo.ProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	users, err := s.Repo.UsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	return buildViews(orders, products, users), nil
}

func buildViews(orders []models.Order, products []models.Product, users []models.User) []*View {
	byProduct := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byProduct[p.ID] = p
	}
	byUser := make(map[string]string, len(users))
	for _, u := range users {
		byUser[u.ID] = u.FullName
	}

	views := make([]*View, 0, len(orders))
	for _, o := range orders {
		v := &View{Order: o, UserName: byUser[o.UserID], Lines: make([]Line, 0, len(o.Items))}
		for _, it := range o.Items {
			line := Line{OrderItem: it}
			if p, ok := byProduct[it.ProductID]; ok {
				line.DisplayName = p.Name
				line.ImagePath = p.ImagePath
			} else if it.ProductName != "" {
				line.DisplayName = it.ProductName
			} else {
				line.DisplayName = UnknownProduct
			}
			v.Lines = append(v.Lines, line)
		}
		views = append(views, v)
	}
	return views
}
