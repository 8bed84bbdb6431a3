package postgres

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/storage"
)

type PostgresCartridgesStore struct {
	db      *gorm.DB
	querier *postgresDBQuerier[models.DeviceCartridge]
}

func NewCartridgesRepository(logger *logrus.Entry, db *gorm.DB) (storage.CartridgesRepo, error) {
	if err := db.AutoMigrate(&models.DeviceCartridge{}); err != nil {
		return nil, err
	}

	return &PostgresCartridgesStore{
		db:      db,
		querier: newPostgresDBQuerier[models.DeviceCartridge](db, "device_cartridges", "id"),
	}, nil
}

func (db *PostgresCartridgesStore) Insert(ctx context.Context, cartridge *models.DeviceCartridge) (*models.DeviceCartridge, error) {
	return db.querier.Insert(ctx, cartridge)
}

func (db *PostgresCartridgesStore) Update(ctx context.Context, cartridge *models.DeviceCartridge) (*models.DeviceCartridge, error) {
	return db.querier.Update(ctx, cartridge, cartridge.ID)
}

func (db *PostgresCartridgesStore) SelectByDeviceID(ctx context.Context, deviceID string) ([]models.DeviceCartridge, error) {
	opts := []gormExtraOps{
		{query: "device_id = ?", additionalWhere: []any{deviceID}},
	}

	cartridges := []models.DeviceCartridge{}
	err := db.querier.SelectAll(ctx, opts, "slot asc", func(cartridge models.DeviceCartridge) {
		cartridges = append(cartridges, cartridge)
	})
	if err != nil {
		return nil, err
	}

	return cartridges, nil
}

func (db *PostgresCartridgesStore) SelectByDeviceAndSerial(ctx context.Context, deviceID, serialNumber string) (bool, *models.DeviceCartridge, error) {
	opts := []gormExtraOps{
		{query: "device_id = ?", additionalWhere: []any{deviceID}},
		{query: "serial_number = ?", additionalWhere: []any{serialNumber}},
	}
	return db.querier.SelectFirst(ctx, opts, "")
}

func (db *PostgresCartridgesStore) ReplaceForDevice(ctx context.Context, deviceID string, cartridges []models.DeviceCartridge) ([]models.DeviceCartridge, error) {
	err := db.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("device_cartridges").Where("device_id = ?", deviceID).Delete(&models.DeviceCartridge{}).Error; err != nil {
			return err
		}

		for i := range cartridges {
			if err := tx.Table("device_cartridges").Create(&cartridges[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return cartridges, nil
}
