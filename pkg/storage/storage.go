package storage

import (
	"context"

	"github.com/anemonelabs/anemone-cloud/pkg/models"
)

type DevicesRepo interface {
	Insert(ctx context.Context, device *models.Device) (*models.Device, error)
	Update(ctx context.Context, device *models.Device) (*models.Device, error)
	SelectExists(ctx context.Context, id string) (bool, *models.Device, error)
	SelectBySerialNumber(ctx context.Context, serialNumber string) (bool, *models.Device, error)
	SelectAll(ctx context.Context, applyFunc func(models.Device)) error
	SelectByConnectionStatus(ctx context.Context, status models.DeviceConnectionStatus, applyFunc func(models.Device)) error
}

type CertificatesRepo interface {
	Insert(ctx context.Context, certificate *models.DeviceCertificate) (*models.DeviceCertificate, error)
	Update(ctx context.Context, certificate *models.DeviceCertificate) (*models.DeviceCertificate, error)
	SelectExistsByCertificateID(ctx context.Context, certificateID string) (bool, *models.DeviceCertificate, error)
	SelectByDeviceID(ctx context.Context, deviceID string) ([]models.DeviceCertificate, error)
	SelectActiveByDeviceID(ctx context.Context, deviceID string) (bool, *models.DeviceCertificate, error)
}

type CartridgesRepo interface {
	Insert(ctx context.Context, cartridge *models.DeviceCartridge) (*models.DeviceCartridge, error)
	Update(ctx context.Context, cartridge *models.DeviceCartridge) (*models.DeviceCartridge, error)
	SelectByDeviceID(ctx context.Context, deviceID string) ([]models.DeviceCartridge, error)
	SelectByDeviceAndSerial(ctx context.Context, deviceID, serialNumber string) (bool, *models.DeviceCartridge, error)
	// ReplaceForDevice atomically deletes the device's cartridge roster and
	// recreates it from the given list.
	ReplaceForDevice(ctx context.Context, deviceID string, cartridges []models.DeviceCartridge) ([]models.DeviceCartridge, error)
}

type CommandsRepo interface {
	Insert(ctx context.Context, command *models.DeviceCommand) (*models.DeviceCommand, error)
	Update(ctx context.Context, command *models.DeviceCommand) (*models.DeviceCommand, error)
	SelectExists(ctx context.Context, id string) (bool, *models.DeviceCommand, error)
	SelectOldestUnexecuted(ctx context.Context, deviceID string) (bool, *models.DeviceCommand, error)
	// MarkAllExecuted cancels every unexecuted command of the device in a
	// single statement and reports how many were affected.
	MarkAllExecuted(ctx context.Context, deviceID string) (int, error)
}

type ProductsRepo interface {
	Insert(ctx context.Context, product *models.Product) (*models.Product, error)
	SelectBySerialNumber(ctx context.Context, serialNumber string, productType models.ProductType) (bool, *models.Product, error)
}
