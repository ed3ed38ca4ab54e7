package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

type ProductFilter struct {
	CategoryID *uint
	Offset     int
	Limit      int
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) (int64, []models.Product, error) {
	scope := func() *gorm.DB {
		q := r.conn(ctx).Model(&models.Product{})
		if f.CategoryID != nil {
			q = q.Where("category_id = ?", *f.CategoryID)
		}
		return q
	}
	return r.pageProducts(scope, f.Offset, f.Limit)
}

// SearchProducts is the plain SQL fallback for full-text search.
func (r *GormRepo) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	scope := func() *gorm.DB {
		return r.conn(ctx).Model(&models.Product{}).
			Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	return r.pageProducts(scope, offset, limit)
}

func (r *GormRepo) pageProducts(scope func() *gorm.DB, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return 0, nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	var products []models.Product
	if err := scope().Preload("Category").Order("id ASC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return 0, nil, err
	}
	return total, products, nil
}

func (r *GormRepo) AllProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.conn(ctx).Preload("Category").Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormRepo) ProductByID(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.conn(ctx).Preload("Category").First(&p, id).Error; err != nil {
		return nil, translate(err, "product")
	}
	return &p, nil
}

func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.conn(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return translate(r.conn(ctx).Omit(clause.Associations).Create(p).Error, "product")
}

func (r *GormRepo) UpdateProduct(ctx context.Context, p *models.Product) error {
	res := r.conn(ctx).Model(&models.Product{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"status":      p.Status,
		"image_path":  p.ImagePath,
		"category_id": p.CategoryID,
	})
	if res.Error != nil {
		return translate(res.Error, "product")
	}
	if res.RowsAffected == 0 {
		return notFound("product")
	}
	return nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	return r.InTx(ctx, func(ctx context.Context) error {
		// the cascade is declared in the schema; deleting explicitly keeps
		// behaviour the same on connections without foreign key enforcement
		if err := r.conn(ctx).Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		res := r.conn(ctx).Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("product")
		}
		return nil
	})
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := r.conn(ctx).Order("id ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *GormRepo) CategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.conn(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err, "category")
	}
	return &c, nil
}

func (r *GormRepo) CategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	if err := r.conn(ctx).Where("name = ?", name).First(&c).Error; err != nil {
		return nil, translate(err, "category")
	}
	return &c, nil
}

func (r *GormRepo) ProductIDsByCategory(ctx context.Context, categoryID uint) ([]uint, error) {
	var ids []uint
	err := r.conn(ctx).Model(&models.Product{}).Where("category_id = ?", categoryID).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	return translate(r.conn(ctx).Create(c).Error, "category")
}

func (r *GormRepo) UpdateCategory(ctx context.Context, c *models.Category) error {
	res := r.conn(ctx).Model(&models.Category{}).Where("id = ?", c.ID).Updates(map[string]any{
		"name":        c.Name,
		"description": c.Description,
	})
	if res.Error != nil {
		return translate(res.Error, "category")
	}
	if res.RowsAffected == 0 {
		return notFound("category")
	}
	return nil
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	return r.InTx(ctx, func(ctx context.Context) error {
		if err := r.conn(ctx).Model(&models.Product{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		res := r.conn(ctx).Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("category")
		}
		return nil
	})
}
