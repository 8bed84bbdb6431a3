package postgres

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/storage"
)

type PostgresCommandsStore struct {
	db      *gorm.DB
	querier *postgresDBQuerier[models.DeviceCommand]
}

func NewCommandsRepository(logger *logrus.Entry, db *gorm.DB) (storage.CommandsRepo, error) {
	if err := db.AutoMigrate(&models.DeviceCommand{}); err != nil {
		return nil, err
	}

	return &PostgresCommandsStore{
		db:      db,
		querier: newPostgresDBQuerier[models.DeviceCommand](db, "device_commands", "id"),
	}, nil
}

func (db *PostgresCommandsStore) Insert(ctx context.Context, command *models.DeviceCommand) (*models.DeviceCommand, error) {
	return db.querier.Insert(ctx, command)
}

func (db *PostgresCommandsStore) Update(ctx context.Context, command *models.DeviceCommand) (*models.DeviceCommand, error) {
	return db.querier.Update(ctx, command, command.ID)
}

func (db *PostgresCommandsStore) SelectExists(ctx context.Context, id string) (bool, *models.DeviceCommand, error) {
	return db.querier.SelectExists(ctx, id, nil)
}

func (db *PostgresCommandsStore) SelectOldestUnexecuted(ctx context.Context, deviceID string) (bool, *models.DeviceCommand, error) {
	opts := []gormExtraOps{
		{query: "device_id = ?", additionalWhere: []any{deviceID}},
		{query: "executed = ?", additionalWhere: []any{false}},
	}
	return db.querier.SelectFirst(ctx, opts, "creation_timestamp asc")
}

func (db *PostgresCommandsStore) MarkAllExecuted(ctx context.Context, deviceID string) (int, error) {
	now := time.Now()
	tx := db.db.WithContext(ctx).Table("device_commands").
		Where("device_id = ? AND executed = ?", deviceID, false).
		Updates(map[string]any{"executed": true, "executed_at": now})
	if tx.Error != nil {
		return 0, tx.Error
	}

	return int(tx.RowsAffected), nil
}
