package postgres

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/storage"
)

type PostgresDevicesStore struct {
	db      *gorm.DB
	querier *postgresDBQuerier[models.Device]
}

func NewDevicesRepository(logger *logrus.Entry, db *gorm.DB) (storage.DevicesRepo, error) {
	if err := db.AutoMigrate(&models.Device{}); err != nil {
		return nil, err
	}

	return &PostgresDevicesStore{
		db:      db,
		querier: newPostgresDBQuerier[models.Device](db, "devices", "id"),
	}, nil
}

func (db *PostgresDevicesStore) Insert(ctx context.Context, device *models.Device) (*models.Device, error) {
	return db.querier.Insert(ctx, device)
}

func (db *PostgresDevicesStore) Update(ctx context.Context, device *models.Device) (*models.Device, error) {
	return db.querier.Update(ctx, device, device.ID)
}

func (db *PostgresDevicesStore) SelectExists(ctx context.Context, id string) (bool, *models.Device, error) {
	return db.querier.SelectExists(ctx, id, nil)
}

func (db *PostgresDevicesStore) SelectBySerialNumber(ctx context.Context, serialNumber string) (bool, *models.Device, error) {
	queryCol := "serial_number"
	return db.querier.SelectExists(ctx, serialNumber, &queryCol)
}

func (db *PostgresDevicesStore) SelectAll(ctx context.Context, applyFunc func(models.Device)) error {
	return db.querier.SelectAll(ctx, []gormExtraOps{}, "creation_timestamp asc", applyFunc)
}

func (db *PostgresDevicesStore) SelectByConnectionStatus(ctx context.Context, status models.DeviceConnectionStatus, applyFunc func(models.Device)) error {
	opts := []gormExtraOps{
		{query: "connection_status = ?", additionalWhere: []any{status}},
	}
	return db.querier.SelectAll(ctx, opts, "", applyFunc)
}
