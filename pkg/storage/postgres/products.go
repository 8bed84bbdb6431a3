package postgres

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/storage"
)

type PostgresProductsStore struct {
	db      *gorm.DB
	querier *postgresDBQuerier[models.Product]
}

func NewProductsRepository(logger *logrus.Entry, db *gorm.DB) (storage.ProductsRepo, error) {
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		return nil, err
	}

	return &PostgresProductsStore{
		db:      db,
		querier: newPostgresDBQuerier[models.Product](db, "products", "id"),
	}, nil
}

func (db *PostgresProductsStore) Insert(ctx context.Context, product *models.Product) (*models.Product, error) {
	return db.querier.Insert(ctx, product)
}

func (db *PostgresProductsStore) SelectBySerialNumber(ctx context.Context, serialNumber string, productType models.ProductType) (bool, *models.Product, error) {
	opts := []gormExtraOps{
		{query: "serial_number = ?", additionalWhere: []any{serialNumber}},
		{query: "type = ?", additionalWhere: []any{productType}},
	}
	return db.querier.SelectFirst(ctx, opts, "")
}
