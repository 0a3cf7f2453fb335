package repository

import (
	"agency-hub/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Seed(ctx context.Context, products []model.Product) error
	List(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, productID int64) (*model.Product, error)
	FindBySlug(ctx context.Context, slug string) (*model.Product, error)
	FindManyBySlug(ctx context.Context, slugs []string) ([]*model.Product, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

// Seed upserts the catalog; existing rows are refreshed from the seed.
func (r *productRepoImpl) Seed(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		UpdateAll: true,
	}).Create(&products).Error
}

func (r *productRepoImpl) List(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Order("slug").
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindBySlug(ctx context.Context, slug string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindManyBySlug(ctx context.Context, slugs []string) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("slug IN ?", slugs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}
