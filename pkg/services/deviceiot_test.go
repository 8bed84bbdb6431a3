package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/anemonelabs/anemone-cloud/pkg/config"
	"github.com/anemonelabs/anemone-cloud/pkg/errs"
	"github.com/anemonelabs/anemone-cloud/pkg/helpers"
	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/services"
	"github.com/anemonelabs/anemone-cloud/pkg/storage"
	"github.com/anemonelabs/anemone-cloud/pkg/storage/memory"
)

type deviceIotTestFixture struct {
	service        services.DeviceIotService
	devicesRepo    storage.DevicesRepo
	cartridgesRepo storage.CartridgesRepo
	commandsRepo   storage.CommandsRepo
	productsRepo   storage.ProductsRepo
}

func setupDeviceIotService(t *testing.T) *deviceIotTestFixture {
	t.Helper()

	fixture := &deviceIotTestFixture{
		devicesRepo:    memory.NewDevicesRepository(),
		cartridgesRepo: memory.NewCartridgesRepository(),
		commandsRepo:   memory.NewCommandsRepository(),
		productsRepo:   memory.NewProductsRepository(),
	}

	fixture.service = services.NewDeviceIotService(services.DeviceIotBuilder{
		Logger:             helpers.SetupLogger(config.None, "test", "device-iot"),
		DevicesStorage:     fixture.devicesRepo,
		CartridgesStorage:  fixture.cartridgesRepo,
		CommandsStorage:    fixture.commandsRepo,
		ProductsStorage:    fixture.productsRepo,
		StalenessThreshold: 10 * time.Second,
	})

	return fixture
}

func (f *deviceIotTestFixture) seedDevice(t *testing.T, id string, status models.DeviceConnectionStatus, lastHeartbeatAt *time.Time) *models.Device {
	t.Helper()

	device, err := f.devicesRepo.Insert(context.Background(), &models.Device{
		ID:                 id,
		Name:               "diffuser-" + id,
		SerialNumber:       "SN-" + id,
		ProvisioningStatus: models.DeviceProvisioned,
		ConnectionStatus:   status,
		LastHeartbeatAt:    lastHeartbeatAt,
		CreationTimestamp:  time.Now(),
	})
	assert.NoError(t, err)
	return device
}

func (f *deviceIotTestFixture) seedCartridgeProduct(t *testing.T, serialNumber string) {
	t.Helper()

	_, err := f.productsRepo.Insert(context.Background(), &models.Product{
		ID:                "prod-" + serialNumber,
		SerialNumber:      serialNumber,
		Name:              "lavender",
		Type:              models.ProductTypeCartridge,
		CreationTimestamp: time.Now(),
	})
	assert.NoError(t, err)
}

func TestHeartbeat(t *testing.T) {
	fixture := setupDeviceIotService(t)
	fixture.seedDevice(t, "dev-1", models.DeviceDisconnected, nil)

	output, err := fixture.service.Heartbeat(context.Background(), services.HeartbeatInput{DeviceID: "dev-1"})
	assert.NoError(t, err)
	assert.Equal(t, models.DeviceConnected, output.Device.ConnectionStatus)
	assert.NotNil(t, output.Device.LastHeartbeatAt)
	assert.False(t, output.PendingCommand)
}

func TestHeartbeatUnknownDevice(t *testing.T) {
	fixture := setupDeviceIotService(t)

	_, err := fixture.service.Heartbeat(context.Background(), services.HeartbeatInput{DeviceID: "missing"})
	assert.ErrorIs(t, err, errs.ErrDeviceNotFound)
}

func TestHeartbeatUpdatesFirmwareVersion(t *testing.T) {
	fixture := setupDeviceIotService(t)
	fixture.seedDevice(t, "dev-1", models.DeviceDisconnected, nil)

	output, err := fixture.service.Heartbeat(context.Background(), services.HeartbeatInput{
		DeviceID:        "dev-1",
		FirmwareVersion: "2.4.0",
	})
	assert.NoError(t, err)
	assert.Equal(t, "2.4.0", output.Device.FirmwareVersion)
}

func TestHeartbeatWithReadings(t *testing.T) {
	fixture := setupDeviceIotService(t)
	fixture.seedDevice(t, "dev-1", models.DeviceDisconnected, nil)
	fixture.seedCartridgeProduct(t, "CART-1")

	_, err := fixture.service.Heartbeat(context.Background(), services.HeartbeatInput{
		DeviceID: "dev-1",
		Readings: []models.CartridgeReading{
			{SerialNumber: "CART-1", Percentage: 80, RemainingRuntime: 4000, TotalRuntime: 5000, Position: 1},
		},
	})
	assert.NoError(t, err)

	cartridges, err := fixture.cartridgesRepo.SelectByDeviceID(context.Background(), "dev-1")
	assert.NoError(t, err)
	assert.Len(t, cartridges, 1)
	assert.Equal(t, "CART-1", cartridges[0].SerialNumber)
}

func TestSweepDisconnected(t *testing.T) {
	fixture := setupDeviceIotService(t)

	fresh := time.Now()
	stale := time.Now().Add(-20 * time.Second)
	fixture.seedDevice(t, "fresh", models.DeviceConnected, &fresh)
	fixture.seedDevice(t, "stale", models.DeviceConnected, &stale)
	fixture.seedDevice(t, "never", models.DeviceConnected, nil)
	fixture.seedDevice(t, "offline", models.DeviceDisconnected, &stale)

	demoted, err := fixture.service.SweepDisconnected(context.Background(), services.SweepDisconnectedInput{})
	assert.NoError(t, err)
	assert.Equal(t, 2, demoted)

	_, freshDevice, err := fixture.devicesRepo.SelectExists(context.Background(), "fresh")
	assert.NoError(t, err)
	assert.Equal(t, models.DeviceConnected, freshDevice.ConnectionStatus)

	_, staleDevice, err := fixture.devicesRepo.SelectExists(context.Background(), "stale")
	assert.NoError(t, err)
	assert.Equal(t, models.DeviceDisconnected, staleDevice.ConnectionStatus)

	_, neverDevice, err := fixture.devicesRepo.SelectExists(context.Background(), "never")
	assert.NoError(t, err)
	assert.Equal(t, models.DeviceDisconnected, neverDevice.ConnectionStatus)
}

func TestSweepDisconnectedIsIdempotent(t *testing.T) {
	fixture := setupDeviceIotService(t)

	stale := time.Now().Add(-20 * time.Second)
	fixture.seedDevice(t, "stale", models.DeviceConnected, &stale)

	demoted, err := fixture.service.SweepDisconnected(context.Background(), services.SweepDisconnectedInput{})
	assert.NoError(t, err)
	assert.Equal(t, 1, demoted)

	demoted, err = fixture.service.SweepDisconnected(context.Background(), services.SweepDisconnectedInput{})
	assert.NoError(t, err)
	assert.Equal(t, 0, demoted)
}

func TestSweepDisconnectedThresholdOverride(t *testing.T) {
	fixture := setupDeviceIotService(t)

	heartbeatAt := time.Now().Add(-30 * time.Second)
	fixture.seedDevice(t, "dev-1", models.DeviceConnected, &heartbeatAt)

	demoted, err := fixture.service.SweepDisconnected(context.Background(), services.SweepDisconnectedInput{
		StalenessThreshold: time.Minute,
	})
	assert.NoError(t, err)
	assert.Equal(t, 0, demoted)
}

func TestSyncCartridgesUpsert(t *testing.T) {
	fixture := setupDeviceIotService(t)
	fixture.seedDevice(t, "dev-1", models.DeviceConnected, nil)
	fixture.seedCartridgeProduct(t, "CART-1")

	cartridges, err := fixture.service.SyncCartridges(context.Background(), services.SyncCartridgesInput{
		DeviceID: "dev-1",
		Readings: []models.CartridgeReading{
			{SerialNumber: "CART-1", Percentage: 90, RemainingRuntime: 4500, TotalRuntime: 5000, Position: 1},
		},
	})
	assert.NoError(t, err)
	assert.Len(t, cartridges, 1)

	// The same serial number on a later sync updates in place, even when the
	// cartridge was moved to another slot.
	cartridges, err = fixture.service.SyncCartridges(context.Background(), services.SyncCartridgesInput{
		DeviceID: "dev-1",
		Readings: []models.CartridgeReading{
			{SerialNumber: "CART-1", Percentage: 75, RemainingRuntime: 3750, TotalRuntime: 5000, Position: 3},
		},
	})
	assert.NoError(t, err)
	assert.Len(t, cartridges, 1)
	assert.Equal(t, 75.0, cartridges[0].Percentage)
	assert.Equal(t, 3, cartridges[0].Position)
}

func TestSyncCartridgesSkipsEmptySlots(t *testing.T) {
	fixture := setupDeviceIotService(t)
	fixture.seedDevice(t, "dev-1", models.DeviceConnected, nil)
	fixture.seedCartridgeProduct(t, "CART-1")

	cartridges, err := fixture.service.SyncCartridges(context.Background(), services.SyncCartridgesInput{
		DeviceID: "dev-1",
		Readings: []models.CartridgeReading{
			{SerialNumber: "CART-1", Percentage: 90, RemainingRuntime: 4500, TotalRuntime: 5000, Position: 1},
			{SerialNumber: "0", Position: 2},
		},
	})
	assert.NoError(t, err)
	assert.Len(t, cartridges, 1)
}

func TestSyncCartridgesSkipsUnknownProducts(t *testing.T) {
	fixture := setupDeviceIotService(t)
	fixture.seedDevice(t, "dev-1", models.DeviceConnected, nil)

	cartridges, err := fixture.service.SyncCartridges(context.Background(), services.SyncCartridgesInput{
		DeviceID: "dev-1",
		Readings: []models.CartridgeReading{
			{SerialNumber: "CART-counterfeit", Percentage: 90, RemainingRuntime: 4500, TotalRuntime: 5000, Position: 1},
		},
	})
	assert.NoError(t, err)
	assert.Empty(t, cartridges)
}

func TestSyncCartridgesRejectsDuplicatePositions(t *testing.T) {
	fixture := setupDeviceIotService(t)
	fixture.seedDevice(t, "dev-1", models.DeviceConnected, nil)
	fixture.seedCartridgeProduct(t, "CART-1")
	fixture.seedCartridgeProduct(t, "CART-2")

	_, err := fixture.service.SyncCartridges(context.Background(), services.SyncCartridgesInput{
		DeviceID: "dev-1",
		Readings: []models.CartridgeReading{
			{SerialNumber: "CART-1", Percentage: 90, RemainingRuntime: 4500, TotalRuntime: 5000, Position: 1},
			{SerialNumber: "CART-2", Percentage: 50, RemainingRuntime: 2500, TotalRuntime: 5000, Position: 1},
		},
	})
	assert.ErrorIs(t, err, errs.ErrValidateBadRequest)
}

func TestReplaceCartridges(t *testing.T) {
	fixture := setupDeviceIotService(t)
	fixture.seedDevice(t, "dev-1", models.DeviceConnected, nil)
	fixture.seedCartridgeProduct(t, "CART-1")
	fixture.seedCartridgeProduct(t, "CART-2")

	_, err := fixture.service.SyncCartridges(context.Background(), services.SyncCartridgesInput{
		DeviceID: "dev-1",
		Readings: []models.CartridgeReading{
			{SerialNumber: "CART-1", Percentage: 90, RemainingRuntime: 4500, TotalRuntime: 5000, Position: 1},
		},
	})
	assert.NoError(t, err)

	replaced, err := fixture.service.ReplaceCartridges(context.Background(), services.ReplaceCartridgesInput{
		DeviceID: "dev-1",
		Readings: []models.CartridgeReading{
			{SerialNumber: "CART-2", Percentage: 100, RemainingRuntime: 5000, TotalRuntime: 5000, Position: 2},
		},
	})
	assert.NoError(t, err)
	assert.Len(t, replaced, 1)
	assert.Equal(t, "CART-2", replaced[0].SerialNumber)
}

func TestEnqueueCommandLastRequestWins(t *testing.T) {
	fixture := setupDeviceIotService(t)
	fixture.seedDevice(t, "dev-1", models.DeviceConnected, nil)

	first, err := fixture.service.EnqueueCommand(context.Background(), services.EnqueueCommandInput{
		DeviceID: "dev-1",
		Payload:  models.CommandPayload{Kind: models.CommandKindPause},
	})
	assert.NoError(t, err)

	second, err := fixture.service.EnqueueCommand(context.Background(), services.EnqueueCommandInput{
		DeviceID: "dev-1",
		Payload: models.CommandPayload{
			Kind: models.CommandKindPlay,
			Play: &models.PlayParams{ScentID: "lavender", Intensity: 3, CycleMs: 30000},
		},
	})
	assert.NoError(t, err)

	// The slot holds a single command: enqueueing displaced the first one.
	next, err := fixture.service.NextCommand(context.Background(), services.NextCommandInput{DeviceID: "dev-1"})
	assert.NoError(t, err)
	assert.Equal(t, second.ID, next.ID)

	_, displaced, err := fixture.commandsRepo.SelectExists(context.Background(), first.ID)
	assert.NoError(t, err)
	assert.True(t, displaced.Executed)
}

func TestEnqueueCommandInvalidPayload(t *testing.T) {
	fixture := setupDeviceIotService(t)
	fixture.seedDevice(t, "dev-1", models.DeviceConnected, nil)

	_, err := fixture.service.EnqueueCommand(context.Background(), services.EnqueueCommandInput{
		DeviceID: "dev-1",
		Payload:  models.CommandPayload{Kind: models.CommandKindPlay},
	})
	assert.ErrorIs(t, err, errs.ErrValidateBadRequest)
}

func TestNextCommandEmptyQueue(t *testing.T) {
	fixture := setupDeviceIotService(t)
	fixture.seedDevice(t, "dev-1", models.DeviceConnected, nil)

	next, err := fixture.service.NextCommand(context.Background(), services.NextCommandInput{DeviceID: "dev-1"})
	assert.NoError(t, err)
	assert.Nil(t, next)
}

func TestMarkCommandExecuted(t *testing.T) {
	fixture := setupDeviceIotService(t)
	fixture.seedDevice(t, "dev-1", models.DeviceConnected, nil)

	command, err := fixture.service.EnqueueCommand(context.Background(), services.EnqueueCommandInput{
		DeviceID: "dev-1",
		Payload:  models.CommandPayload{Kind: models.CommandKindRequestAuth},
	})
	assert.NoError(t, err)

	executed, err := fixture.service.MarkCommandExecuted(context.Background(), services.MarkCommandExecutedInput{CommandID: command.ID})
	assert.NoError(t, err)
	assert.True(t, executed.Executed)
	assert.NotNil(t, executed.ExecutedAt)

	next, err := fixture.service.NextCommand(context.Background(), services.NextCommandInput{DeviceID: "dev-1"})
	assert.NoError(t, err)
	assert.Nil(t, next)

	// Acking twice keeps the original execution timestamp.
	again, err := fixture.service.MarkCommandExecuted(context.Background(), services.MarkCommandExecutedInput{CommandID: command.ID})
	assert.NoError(t, err)
	assert.Equal(t, executed.ExecutedAt.Unix(), again.ExecutedAt.Unix())
}

func TestMarkCommandExecutedNotFound(t *testing.T) {
	fixture := setupDeviceIotService(t)

	_, err := fixture.service.MarkCommandExecuted(context.Background(), services.MarkCommandExecutedInput{CommandID: "missing"})
	assert.ErrorIs(t, err, errs.ErrCommandNotFound)
}

func TestHeartbeatReportsPendingCommand(t *testing.T) {
	fixture := setupDeviceIotService(t)
	fixture.seedDevice(t, "dev-1", models.DeviceConnected, nil)

	_, err := fixture.service.EnqueueCommand(context.Background(), services.EnqueueCommandInput{
		DeviceID: "dev-1",
		Payload:  models.CommandPayload{Kind: models.CommandKindPause},
	})
	assert.NoError(t, err)

	output, err := fixture.service.Heartbeat(context.Background(), services.HeartbeatInput{DeviceID: "dev-1"})
	assert.NoError(t, err)
	assert.True(t, output.PendingCommand)
}
