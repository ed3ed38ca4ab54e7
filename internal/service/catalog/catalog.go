package catalog

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service/search"
)

const (
	maxCategoryName = 100
	maxCategoryDesc = 255
)

var (
	ErrProductNotFound  = apperr.New(apperr.ErrNotFound, "product not found")
	ErrCategoryNotFound = apperr.New(apperr.ErrNotFound, "category not found")
	ErrCategoryExists   = apperr.New(apperr.ErrConflict, "a category with this name already exists")
	ErrEmptyQuery       = apperr.New(apperr.ErrValidation, "search query is required")
)

type Repository interface {
	ListProducts(ctx context.Context, f repo.ProductFilter) (int64, []models.Product, error)
	SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error)
	AllProducts(ctx context.Context) ([]models.Product, error)
	ProductByID(ctx context.Context, id uint) (*models.Product, error)
	ProductIDsByCategory(ctx context.Context, categoryID uint) ([]uint, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	CategoryByID(ctx context.Context, id uint) (*models.Category, error)
	CategoryByName(ctx context.Context, name string) (*models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id uint) error
}

type SearchIndex interface {
	Upsert(ctx context.Context, doc search.Document) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []search.Document, error)
}

type ProductCache interface {
	Get(ctx context.Context, id uint) (*models.Product, bool, error)
	Set(ctx context.Context, p *models.Product) error
	Invalidate(ctx context.Context, id uint) error
}

// Service owns product and category use cases. Index and Cache are optional.
type Service struct {
	Repo   Repository
	Index  SearchIndex
	Cache  ProductCache
	Events events.Publisher
}

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Status      string
	ImagePath   string
	CategoryID  *uint
}

func productKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func productNotFound(err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}

func categoryNotFound(err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return ErrCategoryNotFound
	}
	return err
}

func (s *Service) ListProducts(ctx context.Context, categoryID *uint, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, repo.ProductFilter{CategoryID: categoryID, Offset: offset, Limit: limit})
}

func (s *Service) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.get_product")

	if s.Cache != nil {
		p, ok, err := s.Cache.Get(ctx, id)
		if err != nil {
			l.Warn("product_cache_error", "product_id", id, "error", err)
		} else if ok {
			return p, nil
		}
	}

	p, err := s.Repo.ProductByID(ctx, id)
	if err != nil {
		return nil, productNotFound(err)
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, p); err != nil {
			l.Warn("product_cache_error", "product_id", id, "error", err)
		}
	}
	return p, nil
}

func (s *Service) validateProduct(ctx context.Context, in *ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperr.New(apperr.ErrValidation, "name is required")
	}
	if in.Price.IsNegative() {
		return apperr.New(apperr.ErrValidation, "price must not be negative")
	}
	if in.CategoryID != nil {
		if _, err := s.Repo.CategoryByID(ctx, *in.CategoryID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.New(apperr.ErrValidation, "category does not exist")
			}
			return err
		}
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := s.validateProduct(ctx, &in); err != nil {
		return nil, err
	}
	p := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price.Round(2),
		Status:      in.Status,
		ImagePath:   in.ImagePath,
		CategoryID:  in.CategoryID,
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	stored, err := s.Repo.ProductByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, "product_created", stored)
	return stored, nil
}

// UpdateProduct replaces every editable field of the product.
func (s *Service) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	if err := s.validateProduct(ctx, &in); err != nil {
		return nil, err
	}
	p := &models.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price.Round(2),
		Status:      in.Status,
		ImagePath:   in.ImagePath,
		CategoryID:  in.CategoryID,
	}
	if err := s.Repo.UpdateProduct(ctx, p); err != nil {
		return nil, productNotFound(err)
	}

	stored, err := s.Repo.ProductByID(ctx, id)
	if err != nil {
		return nil, productNotFound(err)
	}
	s.afterWrite(ctx, "product_updated", stored)
	return stored, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete_product")

	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return productNotFound(err)
	}
	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			l.Warn("search_index_error", "product_id", id, "error", err)
		}
	}
	s.invalidate(ctx, id)
	events.Emit(ctx, s.Events, events.TopicProducts, productKey(id), events.New("product_deleted", map[string]any{"productId": id}))
	return nil
}

func (s *Service) afterWrite(ctx context.Context, typ string, p *models.Product) {
	l := logging.FromContext(ctx).With("svc", "catalog")

	if s.Index != nil {
		if err := s.Index.Upsert(ctx, search.FromProduct(*p)); err != nil {
			l.Warn("search_index_error", "product_id", p.ID, "error", err)
		}
	}
	s.invalidate(ctx, p.ID)
	events.Emit(ctx, s.Events, events.TopicProducts, productKey(p.ID), events.New(typ, map[string]any{
		"productId": p.ID,
		"name":      p.Name,
		"price":     p.Price,
	}))
}

// refreshProducts drops cached copies and re-indexes products after their category changed.
func (s *Service) refreshProducts(ctx context.Context, ids []uint) {
	l := logging.FromContext(ctx).With("svc", "catalog")

	for _, id := range ids {
		s.invalidate(ctx, id)
		if s.Index == nil {
			continue
		}
		p, err := s.Repo.ProductByID(ctx, id)
		if err != nil {
			l.Warn("search_index_error", "product_id", id, "error", err)
			continue
		}
		if err := s.Index.Upsert(ctx, search.FromProduct(*p)); err != nil {
			l.Warn("search_index_error", "product_id", id, "error", err)
		}
	}
}

func (s *Service) invalidate(ctx context.Context, id uint) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("product_cache_error", "product_id", id, "error", err)
	}
}

// Search uses the full-text index when one is configured and a LIKE query otherwise.
func (s *Service) Search(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, ErrEmptyQuery
	}
	if s.Index == nil {
		return s.Repo.SearchProducts(ctx, query, offset, limit)
	}

	total, docs, err := s.Index.Search(ctx, query, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	products := make([]models.Product, len(docs))
	for i, d := range docs {
		products[i] = d.Product()
	}
	return total, products, nil
}

// Reindex pushes every product to the search index and returns how many were sent.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, nil
	}
	products, err := s.Repo.AllProducts(ctx)
	if err != nil {
		return 0, err
	}
	for i := range products {
		if err := s.Index.Upsert(ctx, search.FromProduct(products[i])); err != nil {
			return i, err
		}
	}
	return len(products), nil
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *Service) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	c, err := s.Repo.CategoryByID(ctx, id)
	if err != nil {
		return nil, categoryNotFound(err)
	}
	return c, nil
}

func validateCategory(name, desc string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.New(apperr.ErrValidation, "name is required")
	}
	if utf8.RuneCountInString(name) > maxCategoryName {
		return "", apperr.Newf(apperr.ErrValidation, "name must be at most %d characters", maxCategoryName)
	}
	if utf8.RuneCountInString(desc) > maxCategoryDesc {
		return "", apperr.Newf(apperr.ErrValidation, "description must be at most %d characters", maxCategoryDesc)
	}
	return name, nil
}

func (s *Service) ensureNameFree(ctx context.Context, name string, selfID uint) error {
	existing, err := s.Repo.CategoryByName(ctx, name)
	switch {
	case err == nil && existing.ID != selfID:
		return ErrCategoryExists
	case err != nil && !errors.Is(err, apperr.ErrNotFound):
		return err
	}
	return nil
}

func (s *Service) CreateCategory(ctx context.Context, name, desc string) (*models.Category, error) {
	name, err := validateCategory(name, desc)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return nil, err
	}
	c := &models.Category{Name: name, Description: desc}
	if err := s.Repo.CreateCategory(ctx, c); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, ErrCategoryExists
		}
		return nil, err
	}
	events.Emit(ctx, s.Events, events.TopicProducts, "category", events.New("category_created", map[string]any{"categoryId": c.ID, "name": c.Name}))
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id uint, name, desc string) (*models.Category, error) {
	name, err := validateCategory(name, desc)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, id); err != nil {
		return nil, err
	}
	c := &models.Category{ID: id, Name: name, Description: desc}
	if err := s.Repo.UpdateCategory(ctx, c); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, ErrCategoryExists
		}
		return nil, categoryNotFound(err)
	}
	ids, err := s.Repo.ProductIDsByCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	s.refreshProducts(ctx, ids)
	events.Emit(ctx, s.Events, events.TopicProducts, "category", events.New("category_updated", map[string]any{"categoryId": id, "name": name}))
	return c, nil
}

// DeleteCategory detaches the category's products before removing it.
func (s *Service) DeleteCategory(ctx context.Context, id uint) error {
	ids, err := s.Repo.ProductIDsByCategory(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteCategory(ctx, id); err != nil {
		return categoryNotFound(err)
	}
	s.refreshProducts(ctx, ids)
	events.Emit(ctx, s.Events, events.TopicProducts, "category", events.New("category_deleted", map[string]any{"categoryId": id}))
	return nil
}
