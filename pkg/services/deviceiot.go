package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/anemonelabs/anemone-cloud/pkg/errs"
	"github.com/anemonelabs/anemone-cloud/pkg/helpers"
	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/storage"
)

type DeviceIotMiddleware func(DeviceIotService) DeviceIotService

type DeviceIotService interface {
	Heartbeat(ctx context.Context, input HeartbeatInput) (*HeartbeatOutput, error)
	SyncCartridges(ctx context.Context, input SyncCartridgesInput) ([]models.DeviceCartridge, error)
	ReplaceCartridges(ctx context.Context, input ReplaceCartridgesInput) ([]models.DeviceCartridge, error)
	GetCartridges(ctx context.Context, input GetCartridgesInput) ([]models.DeviceCartridge, error)
	SweepDisconnected(ctx context.Context, input SweepDisconnectedInput) (int, error)
	EnqueueCommand(ctx context.Context, input EnqueueCommandInput) (*models.DeviceCommand, error)
	NextCommand(ctx context.Context, input NextCommandInput) (*models.DeviceCommand, error)
	MarkCommandExecuted(ctx context.Context, input MarkCommandExecutedInput) (*models.DeviceCommand, error)
}

type HeartbeatInput struct {
	DeviceID        string `validate:"required"`
	FirmwareVersion string
	Readings        []models.CartridgeReading `validate:"omitempty,dive"`
}

type HeartbeatOutput struct {
	Device         models.Device `json:"device"`
	PendingCommand bool          `json:"pending_command"`
}

type SyncCartridgesInput struct {
	DeviceID string                    `validate:"required"`
	Readings []models.CartridgeReading `validate:"required,dive"`
}

type ReplaceCartridgesInput struct {
	DeviceID string                    `validate:"required"`
	Readings []models.CartridgeReading `validate:"dive"`
}

type GetCartridgesInput struct {
	DeviceID string `validate:"required"`
}

type SweepDisconnectedInput struct {
	// StalenessThreshold overrides the configured threshold when positive.
	StalenessThreshold time.Duration
}

type EnqueueCommandInput struct {
	DeviceID string `validate:"required"`
	Payload  models.CommandPayload
}

type NextCommandInput struct {
	DeviceID string `validate:"required"`
}

type MarkCommandExecutedInput struct {
	CommandID string `validate:"required"`
}

var iotValidate *validator.Validate

type DeviceIotServiceBackend struct {
	devicesStorage     storage.DevicesRepo
	cartridgesStorage  storage.CartridgesRepo
	commandsStorage    storage.CommandsRepo
	productsStorage    storage.ProductsRepo
	stalenessThreshold time.Duration
	service            DeviceIotService
	logger             *logrus.Entry
}

type DeviceIotBuilder struct {
	Logger             *logrus.Entry
	DevicesStorage     storage.DevicesRepo
	CartridgesStorage  storage.CartridgesRepo
	CommandsStorage    storage.CommandsRepo
	ProductsStorage    storage.ProductsRepo
	StalenessThreshold time.Duration
}

func NewDeviceIotService(builder DeviceIotBuilder) DeviceIotService {
	iotValidate = validator.New()

	staleness := builder.StalenessThreshold
	if staleness <= 0 {
		staleness = 15 * time.Second
	}

	svc := &DeviceIotServiceBackend{
		devicesStorage:     builder.DevicesStorage,
		cartridgesStorage:  builder.CartridgesStorage,
		commandsStorage:    builder.CommandsStorage,
		productsStorage:    builder.ProductsStorage,
		stalenessThreshold: staleness,
		logger:             builder.Logger,
	}

	svc.service = svc
	return svc
}

func (svc *DeviceIotServiceBackend) SetService(service DeviceIotService) {
	svc.service = service
}

func (svc *DeviceIotServiceBackend) Heartbeat(ctx context.Context, input HeartbeatInput) (*HeartbeatOutput, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := iotValidate.Struct(input)
	if err != nil {
		lFunc.Errorf("struct validation error: %s", err)
		return nil, errs.ErrValidateBadRequest
	}

	exists, device, err := svc.devicesStorage.SelectExists(ctx, input.DeviceID)
	if err != nil {
		lFunc.Errorf("could not check if device '%s' exists: %s", input.DeviceID, err)
		return nil, err
	}
	if !exists {
		lFunc.Errorf("device '%s' does not exist", input.DeviceID)
		return nil, errs.ErrDeviceNotFound
	}

	now := time.Now()
	device.LastHeartbeatAt = &now
	device.ConnectionStatus = models.DeviceConnected
	if input.FirmwareVersion != "" {
		device.FirmwareVersion = input.FirmwareVersion
	}

	device, err = svc.devicesStorage.Update(ctx, device)
	if err != nil {
		lFunc.Errorf("could not persist heartbeat of device '%s': %s", input.DeviceID, err)
		return nil, err
	}

	if len(input.Readings) > 0 {
		_, err = svc.service.SyncCartridges(ctx, SyncCartridgesInput{
			DeviceID: device.ID,
			Readings: input.Readings,
		})
		if err != nil {
			return nil, err
		}
	}

	pending, _, err := svc.commandsStorage.SelectOldestUnexecuted(ctx, device.ID)
	if err != nil {
		lFunc.Errorf("could not check pending commands of device '%s': %s", device.ID, err)
		return nil, err
	}

	lFunc.Debugf("heartbeat from device '%s' (pending command: %t)", device.ID, pending)
	return &HeartbeatOutput{
		Device:         *device,
		PendingCommand: pending,
	}, nil
}

func (svc *DeviceIotServiceBackend) SyncCartridges(ctx context.Context, input SyncCartridgesInput) ([]models.DeviceCartridge, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := iotValidate.Struct(input)
	if err != nil {
		lFunc.Errorf("struct validation error: %s", err)
		return nil, errs.ErrValidateBadRequest
	}

	exists, device, err := svc.devicesStorage.SelectExists(ctx, input.DeviceID)
	if err != nil {
		lFunc.Errorf("could not check if device '%s' exists: %s", input.DeviceID, err)
		return nil, err
	}
	if !exists {
		lFunc.Errorf("device '%s' does not exist", input.DeviceID)
		return nil, errs.ErrDeviceNotFound
	}

	if err = checkDuplicatePositions(input.Readings); err != nil {
		lFunc.Errorf("invalid cartridge readings for device '%s': %s", device.ID, err)
		return nil, errs.ErrValidateBadRequest
	}

	for _, reading := range input.Readings {
		// Serial "0" marks an empty slot on older firmware.
		if reading.SerialNumber == "0" {
			continue
		}

		found, cartridge, err := svc.cartridgesStorage.SelectByDeviceAndSerial(ctx, device.ID, reading.SerialNumber)
		if err != nil {
			lFunc.Errorf("could not look up cartridge '%s' of device '%s': %s", reading.SerialNumber, device.ID, err)
			return nil, err
		}

		if found {
			cartridge.Percentage = reading.Percentage
			cartridge.RemainingRuntime = reading.RemainingRuntime
			cartridge.TotalRuntime = reading.TotalRuntime
			cartridge.Position = reading.Position

			if _, err = svc.cartridgesStorage.Update(ctx, cartridge); err != nil {
				lFunc.Errorf("could not update cartridge '%s' of device '%s': %s", reading.SerialNumber, device.ID, err)
				return nil, err
			}

			continue
		}

		productExists, product, err := svc.productsStorage.SelectBySerialNumber(ctx, reading.SerialNumber, models.ProductTypeCartridge)
		if err != nil {
			lFunc.Errorf("could not look up cartridge product '%s': %s", reading.SerialNumber, err)
			return nil, err
		}
		if !productExists {
			lFunc.Warnf("device '%s' reported unknown cartridge serial number '%s'. Skipping reading", device.ID, reading.SerialNumber)
			continue
		}

		newCartridge := models.DeviceCartridge{
			ID:                uuid.NewString(),
			DeviceID:          device.ID,
			ProductID:         product.ID,
			SerialNumber:      reading.SerialNumber,
			Percentage:        reading.Percentage,
			RemainingRuntime:  reading.RemainingRuntime,
			TotalRuntime:      reading.TotalRuntime,
			Position:          reading.Position,
			CreationTimestamp: time.Now(),
		}

		if _, err = svc.cartridgesStorage.Insert(ctx, &newCartridge); err != nil {
			lFunc.Errorf("could not create cartridge '%s' for device '%s': %s", reading.SerialNumber, device.ID, err)
			return nil, err
		}
	}

	return svc.cartridgesStorage.SelectByDeviceID(ctx, device.ID)
}

func (svc *DeviceIotServiceBackend) ReplaceCartridges(ctx context.Context, input ReplaceCartridgesInput) ([]models.DeviceCartridge, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := iotValidate.Struct(input)
	if err != nil {
		lFunc.Errorf("struct validation error: %s", err)
		return nil, errs.ErrValidateBadRequest
	}

	exists, device, err := svc.devicesStorage.SelectExists(ctx, input.DeviceID)
	if err != nil {
		lFunc.Errorf("could not check if device '%s' exists: %s", input.DeviceID, err)
		return nil, err
	}
	if !exists {
		lFunc.Errorf("device '%s' does not exist", input.DeviceID)
		return nil, errs.ErrDeviceNotFound
	}

	if err = checkDuplicatePositions(input.Readings); err != nil {
		lFunc.Errorf("invalid cartridge readings for device '%s': %s", device.ID, err)
		return nil, errs.ErrValidateBadRequest
	}

	cartridges := []models.DeviceCartridge{}
	for _, reading := range input.Readings {
		if reading.SerialNumber == "0" {
			continue
		}

		productExists, product, err := svc.productsStorage.SelectBySerialNumber(ctx, reading.SerialNumber, models.ProductTypeCartridge)
		if err != nil {
			lFunc.Errorf("could not look up cartridge product '%s': %s", reading.SerialNumber, err)
			return nil, err
		}
		if !productExists {
			lFunc.Warnf("device '%s' reported unknown cartridge serial number '%s'. Skipping reading", device.ID, reading.SerialNumber)
			continue
		}

		cartridges = append(cartridges, models.DeviceCartridge{
			ID:                uuid.NewString(),
			DeviceID:          device.ID,
			ProductID:         product.ID,
			SerialNumber:      reading.SerialNumber,
			Percentage:        reading.Percentage,
			RemainingRuntime:  reading.RemainingRuntime,
			TotalRuntime:      reading.TotalRuntime,
			Position:          reading.Position,
			CreationTimestamp: time.Now(),
		})
	}

	lFunc.Infof("replacing cartridge roster of device '%s' with %d cartridges", device.ID, len(cartridges))
	return svc.cartridgesStorage.ReplaceForDevice(ctx, device.ID, cartridges)
}

func (svc *DeviceIotServiceBackend) GetCartridges(ctx context.Context, input GetCartridgesInput) ([]models.DeviceCartridge, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := iotValidate.Struct(input)
	if err != nil {
		lFunc.Errorf("struct validation error: %s", err)
		return nil, errs.ErrValidateBadRequest
	}

	exists, device, err := svc.devicesStorage.SelectExists(ctx, input.DeviceID)
	if err != nil {
		lFunc.Errorf("could not check if device '%s' exists: %s", input.DeviceID, err)
		return nil, err
	}
	if !exists {
		lFunc.Errorf("device '%s' does not exist", input.DeviceID)
		return nil, errs.ErrDeviceNotFound
	}

	return svc.cartridgesStorage.SelectByDeviceID(ctx, device.ID)
}

func (svc *DeviceIotServiceBackend) SweepDisconnected(ctx context.Context, input SweepDisconnectedInput) (int, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	threshold := input.StalenessThreshold
	if threshold <= 0 {
		threshold = svc.stalenessThreshold
	}

	now := time.Now()
	demoted := 0
	err := svc.devicesStorage.SelectByConnectionStatus(ctx, models.DeviceConnected, func(device models.Device) {
		if device.LastHeartbeatAt != nil && now.Sub(*device.LastHeartbeatAt) <= threshold {
			return
		}

		device.ConnectionStatus = models.DeviceDisconnected
		if _, err := svc.devicesStorage.Update(ctx, &device); err != nil {
			// A single device failing must not abort the sweep.
			lFunc.Errorf("could not demote device '%s' to disconnected: %s", device.ID, err)
			return
		}

		lFunc.Infof("device '%s' demoted to disconnected: last heartbeat over %s ago", device.ID, threshold)
		demoted++
	})
	if err != nil {
		lFunc.Errorf("could not select connected devices: %s", err)
		return demoted, err
	}

	return demoted, nil
}

func (svc *DeviceIotServiceBackend) EnqueueCommand(ctx context.Context, input EnqueueCommandInput) (*models.DeviceCommand, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := iotValidate.Struct(input)
	if err != nil {
		lFunc.Errorf("struct validation error: %s", err)
		return nil, errs.ErrValidateBadRequest
	}

	if err = input.Payload.Validate(); err != nil {
		lFunc.Errorf("invalid command payload: %s", err)
		return nil, errs.ErrValidateBadRequest
	}

	exists, device, err := svc.devicesStorage.SelectExists(ctx, input.DeviceID)
	if err != nil {
		lFunc.Errorf("could not check if device '%s' exists: %s", input.DeviceID, err)
		return nil, err
	}
	if !exists {
		lFunc.Errorf("device '%s' does not exist", input.DeviceID)
		return nil, errs.ErrDeviceNotFound
	}

	// Last request wins: cancel anything still queued before inserting.
	cancelled, err := svc.commandsStorage.MarkAllExecuted(ctx, device.ID)
	if err != nil {
		lFunc.Errorf("could not cancel queued commands of device '%s': %s", device.ID, err)
		return nil, err
	}
	if cancelled > 0 {
		lFunc.Debugf("cancelled %d queued command(s) of device '%s'", cancelled, device.ID)
	}

	command := models.DeviceCommand{
		ID:                uuid.NewString(),
		DeviceID:          device.ID,
		Payload:           input.Payload,
		Executed:          false,
		CreationTimestamp: time.Now(),
	}

	stored, err := svc.commandsStorage.Insert(ctx, &command)
	if err != nil {
		lFunc.Errorf("could not enqueue command for device '%s': %s", device.ID, err)
		return nil, err
	}

	lFunc.Infof("enqueued '%s' command '%s' for device '%s'", stored.Payload.Kind, stored.ID, device.ID)
	return stored, nil
}

func (svc *DeviceIotServiceBackend) NextCommand(ctx context.Context, input NextCommandInput) (*models.DeviceCommand, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := iotValidate.Struct(input)
	if err != nil {
		lFunc.Errorf("struct validation error: %s", err)
		return nil, errs.ErrValidateBadRequest
	}

	exists, device, err := svc.devicesStorage.SelectExists(ctx, input.DeviceID)
	if err != nil {
		lFunc.Errorf("could not check if device '%s' exists: %s", input.DeviceID, err)
		return nil, err
	}
	if !exists {
		lFunc.Errorf("device '%s' does not exist", input.DeviceID)
		return nil, errs.ErrDeviceNotFound
	}

	found, command, err := svc.commandsStorage.SelectOldestUnexecuted(ctx, device.ID)
	if err != nil {
		lFunc.Errorf("could not get next command of device '%s': %s", device.ID, err)
		return nil, err
	}
	if !found {
		return nil, nil
	}

	return command, nil
}

func (svc *DeviceIotServiceBackend) MarkCommandExecuted(ctx context.Context, input MarkCommandExecutedInput) (*models.DeviceCommand, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := iotValidate.Struct(input)
	if err != nil {
		lFunc.Errorf("struct validation error: %s", err)
		return nil, errs.ErrValidateBadRequest
	}

	exists, command, err := svc.commandsStorage.SelectExists(ctx, input.CommandID)
	if err != nil {
		lFunc.Errorf("could not check if command '%s' exists: %s", input.CommandID, err)
		return nil, err
	}
	if !exists {
		lFunc.Errorf("command '%s' does not exist", input.CommandID)
		return nil, errs.ErrCommandNotFound
	}

	if command.Executed {
		return command, nil
	}

	now := time.Now()
	command.Executed = true
	command.ExecutedAt = &now

	command, err = svc.commandsStorage.Update(ctx, command)
	if err != nil {
		lFunc.Errorf("could not persist execution of command '%s': %s", input.CommandID, err)
		return nil, err
	}

	lFunc.Debugf("command '%s' of device '%s' marked executed", command.ID, command.DeviceID)
	return command, nil
}

func checkDuplicatePositions(readings []models.CartridgeReading) error {
	seen := map[int]string{}
	for _, reading := range readings {
		if reading.SerialNumber == "0" {
			continue
		}

		if other, ok := seen[reading.Position]; ok {
			return fmt.Errorf("cartridges '%s' and '%s' both report slot position %d", other, reading.SerialNumber, reading.Position)
		}
		seen[reading.Position] = reading.SerialNumber
	}

	return nil
}
