package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"modmarket/internal/model"
	"modmarket/pkg/utils"
)

// ProductFilter listing filter
type ProductFilter struct {
	CategoryID uint64
	Search     string
	OnlyActive bool
}

// ProductRepository product repository interface
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uint64) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter, page, pageSize int) ([]*model.Product, int64, error)
	Deactivate(ctx context.Context, id uint64) error
	ListIDs(ctx context.Context) ([]uint64, error)
	Count(ctx context.Context) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a product repository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"category_id":    product.CategoryID,
			"title_ru":       product.TitleRU,
			"title_en":       product.TitleEN,
			"description_ru": product.DescriptionRU,
			"description_en": product.DescriptionEN,
			"price":          product.Price,
			"currency":       product.Currency,
			"image_url":      product.ImageURL,
			"download_link":  product.DownloadLink,
			"stock_quantity": product.StockQuantity,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter, page, pageSize int) ([]*model.Product, int64, error) {
	var products []*model.Product
	var total int64

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	db := r.db.WithContext(ctx).Model(&model.Product{})
	if filter.OnlyActive {
		db = db.Where("is_active = ?", true)
	}
	if filter.CategoryID != 0 {
		db = db.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Where("title_ru LIKE ? OR title_en LIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset((page - 1) * pageSize).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&products).Error

	return products, total, err
}

// Deactivate soft-deactivates a product; deals referencing it stay intact
func (r *productRepository) Deactivate(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrProductNotFound
	}
	return nil
}

// ListIDs lists all product IDs, used to prime the bloom filter
func (r *productRepository) ListIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *productRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&count).Error
	return count, err
}
