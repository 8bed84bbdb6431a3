package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"

	"github.com/anemonelabs/anemone-cloud/pkg/config"
	"github.com/anemonelabs/anemone-cloud/pkg/errs"
	"github.com/anemonelabs/anemone-cloud/pkg/helpers"
	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/services"
	"github.com/anemonelabs/anemone-cloud/pkg/services/mock"
	"github.com/anemonelabs/anemone-cloud/pkg/storage"
	"github.com/anemonelabs/anemone-cloud/pkg/storage/memory"
)

type deviceManagerTestFixture struct {
	service      services.DeviceManagerService
	devicesRepo  storage.DevicesRepo
	productsRepo storage.ProductsRepo
	certsService *mock.MockCertificatesService
	iotCore      *mock.MockIotCoreService
}

func setupDeviceManagerService(t *testing.T) *deviceManagerTestFixture {
	t.Helper()

	fixture := &deviceManagerTestFixture{
		devicesRepo:  memory.NewDevicesRepository(),
		productsRepo: memory.NewProductsRepository(),
		certsService: &mock.MockCertificatesService{},
		iotCore:      &mock.MockIotCoreService{},
	}

	fixture.service = services.NewDeviceManagerService(services.DeviceManagerBuilder{
		Logger:                helpers.SetupLogger(config.None, "test", "device-manager"),
		DevicesStorage:        fixture.devicesRepo,
		ProductsStorage:       fixture.productsRepo,
		CertificatesService:   fixture.certsService,
		IotCore:               fixture.iotCore,
		RegistrationFreshness: 10 * time.Minute,
	})

	return fixture
}

func (f *deviceManagerTestFixture) seedProduct(t *testing.T, serialNumber string, productType models.ProductType) {
	t.Helper()

	_, err := f.productsRepo.Insert(context.Background(), &models.Product{
		ID:                "prod-" + serialNumber,
		ManufacturerID:    "anemone",
		SKU:               "AN-100",
		SerialNumber:      serialNumber,
		Name:              "diffuser",
		Type:              productType,
		CreationTimestamp: time.Now(),
	})
	assert.NoError(t, err)
}

func (f *deviceManagerTestFixture) createDevice(t *testing.T, serialNumber string) *models.Device {
	t.Helper()

	f.seedProduct(t, serialNumber, models.ProductTypeDevice)
	device, err := f.service.CreateDevice(context.Background(), services.CreateDeviceInput{
		Name:         "bedroom",
		SerialNumber: serialNumber,
	})
	assert.NoError(t, err)
	return device
}

func issuedCertificateFor(deviceID string) *services.CertificateIssueOutput {
	return &services.CertificateIssueOutput{
		Certificate: models.DeviceCertificate{
			ID:             "rec-1",
			DeviceID:       deviceID,
			CertificateID:  "cert-1",
			CertificateArn: "arn:cert-1",
			Status:         models.CertificateActive,
		},
		CertificateURL: "https://blobs.test/cert-1.pem",
		PrivateKeyURL:  "https://blobs.test/cert-1.key",
	}
}

func TestCreateDevice(t *testing.T) {
	fixture := setupDeviceManagerService(t)

	device := fixture.createDevice(t, "SN-100")
	assert.Equal(t, models.DevicePendingProvisioning, device.ProvisioningStatus)
	assert.Equal(t, models.DeviceDisconnected, device.ConnectionStatus)
	assert.Nil(t, device.ThingName)
	assert.Nil(t, device.RegisteredBy)
}

func TestCreateDeviceWithoutManufacturedProduct(t *testing.T) {
	fixture := setupDeviceManagerService(t)

	_, err := fixture.service.CreateDevice(context.Background(), services.CreateDeviceInput{
		Name:         "bedroom",
		SerialNumber: "SN-unknown",
	})
	assert.ErrorIs(t, err, errs.ErrProductNotFound)
}

func TestCreateDeviceDuplicateSerialNumber(t *testing.T) {
	fixture := setupDeviceManagerService(t)
	fixture.createDevice(t, "SN-100")

	_, err := fixture.service.CreateDevice(context.Background(), services.CreateDeviceInput{
		Name:         "kitchen",
		SerialNumber: "SN-100",
	})
	assert.ErrorIs(t, err, errs.ErrDeviceAlreadyExists)
}

func TestProvisionDevice(t *testing.T) {
	fixture := setupDeviceManagerService(t)
	device := fixture.createDevice(t, "SN-100")

	fixture.iotCore.On("CreateThing", tmock.Anything, device.ID, tmock.Anything).Return(nil).Once()
	fixture.certsService.On("IssueCertificate", tmock.Anything, services.IssueCertificateInput{DeviceID: device.ID}).Return(issuedCertificateFor(device.ID), nil).Once()
	fixture.iotCore.On("AttachCertificate", tmock.Anything, device.ID, "arn:cert-1").Return(nil).Once()

	output, err := fixture.service.ProvisionDevice(context.Background(), services.ProvisionDeviceInput{DeviceID: device.ID})
	assert.NoError(t, err)
	assert.Equal(t, models.DeviceProvisioned, output.Device.ProvisioningStatus)
	assert.NotNil(t, output.Device.ThingName)
	assert.Equal(t, device.ID, *output.Device.ThingName)
	assert.Equal(t, "cert-1", output.Certificate.CertificateID)
	assert.NotEmpty(t, output.PrivateKeyURL)

	fixture.iotCore.AssertExpectations(t)
	fixture.certsService.AssertExpectations(t)
}

func TestProvisionDeviceAlreadyProvisioned(t *testing.T) {
	fixture := setupDeviceManagerService(t)
	device := fixture.createDevice(t, "SN-100")

	fixture.iotCore.On("CreateThing", tmock.Anything, device.ID, tmock.Anything).Return(nil).Once()
	fixture.certsService.On("IssueCertificate", tmock.Anything, tmock.Anything).Return(issuedCertificateFor(device.ID), nil).Once()
	fixture.iotCore.On("AttachCertificate", tmock.Anything, device.ID, tmock.Anything).Return(nil).Once()

	_, err := fixture.service.ProvisionDevice(context.Background(), services.ProvisionDeviceInput{DeviceID: device.ID})
	assert.NoError(t, err)

	_, err = fixture.service.ProvisionDevice(context.Background(), services.ProvisionDeviceInput{DeviceID: device.ID})
	assert.ErrorIs(t, err, errs.ErrDeviceAlreadyProvisioned)
}

func TestProvisionDeviceThingCreationFailure(t *testing.T) {
	fixture := setupDeviceManagerService(t)
	device := fixture.createDevice(t, "SN-100")

	fixture.iotCore.On("CreateThing", tmock.Anything, device.ID, tmock.Anything).Return(errors.New("throttled")).Once()

	_, err := fixture.service.ProvisionDevice(context.Background(), services.ProvisionDeviceInput{DeviceID: device.ID})

	var platformErr *errs.IdentityPlatformError
	assert.ErrorAs(t, err, &platformErr)
	assert.Equal(t, "create-thing", platformErr.Step)

	_, stored, err := fixture.devicesRepo.SelectExists(context.Background(), device.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.DeviceProvisioningFailed, stored.ProvisioningStatus)
	assert.Nil(t, stored.ThingName)
}

func TestProvisionDeviceRetryAfterFailure(t *testing.T) {
	fixture := setupDeviceManagerService(t)
	device := fixture.createDevice(t, "SN-100")

	fixture.iotCore.On("CreateThing", tmock.Anything, device.ID, tmock.Anything).Return(errors.New("throttled")).Once()
	_, err := fixture.service.ProvisionDevice(context.Background(), services.ProvisionDeviceInput{DeviceID: device.ID})
	assert.Error(t, err)

	fixture.iotCore.On("CreateThing", tmock.Anything, device.ID, tmock.Anything).Return(nil).Once()
	fixture.certsService.On("IssueCertificate", tmock.Anything, tmock.Anything).Return(issuedCertificateFor(device.ID), nil).Once()
	fixture.iotCore.On("AttachCertificate", tmock.Anything, device.ID, tmock.Anything).Return(nil).Once()

	output, err := fixture.service.ProvisionDevice(context.Background(), services.ProvisionDeviceInput{DeviceID: device.ID})
	assert.NoError(t, err)
	assert.Equal(t, models.DeviceProvisioned, output.Device.ProvisioningStatus)
}

func TestProvisionDeviceCertificateFailure(t *testing.T) {
	fixture := setupDeviceManagerService(t)
	device := fixture.createDevice(t, "SN-100")

	fixture.iotCore.On("CreateThing", tmock.Anything, device.ID, tmock.Anything).Return(nil).Once()
	fixture.certsService.On("IssueCertificate", tmock.Anything, tmock.Anything).Return(nil, errors.New("issuance failed")).Once()

	_, err := fixture.service.ProvisionDevice(context.Background(), services.ProvisionDeviceInput{DeviceID: device.ID})
	assert.Error(t, err)

	_, stored, err := fixture.devicesRepo.SelectExists(context.Background(), device.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.DeviceProvisioningFailed, stored.ProvisioningStatus)
}

func (f *deviceManagerTestFixture) provisionWithHeartbeat(t *testing.T, heartbeatAge time.Duration) *models.Device {
	t.Helper()

	device := f.createDevice(t, "SN-100")

	f.iotCore.On("CreateThing", tmock.Anything, device.ID, tmock.Anything).Return(nil).Once()
	f.certsService.On("IssueCertificate", tmock.Anything, tmock.Anything).Return(issuedCertificateFor(device.ID), nil).Once()
	f.iotCore.On("AttachCertificate", tmock.Anything, device.ID, tmock.Anything).Return(nil).Once()

	output, err := f.service.ProvisionDevice(context.Background(), services.ProvisionDeviceInput{DeviceID: device.ID})
	assert.NoError(t, err)

	provisioned := output.Device
	if heartbeatAge >= 0 {
		heartbeatAt := time.Now().Add(-heartbeatAge)
		provisioned.LastHeartbeatAt = &heartbeatAt
		updated, err := f.devicesRepo.Update(context.Background(), &provisioned)
		assert.NoError(t, err)
		return updated
	}

	return &provisioned
}

func TestRegisterDevice(t *testing.T) {
	fixture := setupDeviceManagerService(t)
	device := fixture.provisionWithHeartbeat(t, 5*time.Second)

	registered, err := fixture.service.RegisterDevice(context.Background(), services.RegisterDeviceInput{
		DeviceID: device.ID,
		UserID:   "user-1",
	})
	assert.NoError(t, err)
	assert.NotNil(t, registered.RegisteredBy)
	assert.Equal(t, "user-1", *registered.RegisteredBy)
}

func TestRegisterDeviceSameUserIsIdempotent(t *testing.T) {
	fixture := setupDeviceManagerService(t)
	device := fixture.provisionWithHeartbeat(t, 5*time.Second)

	_, err := fixture.service.RegisterDevice(context.Background(), services.RegisterDeviceInput{DeviceID: device.ID, UserID: "user-1"})
	assert.NoError(t, err)

	registered, err := fixture.service.RegisterDevice(context.Background(), services.RegisterDeviceInput{DeviceID: device.ID, UserID: "user-1"})
	assert.NoError(t, err)
	assert.Equal(t, "user-1", *registered.RegisteredBy)
}

func TestRegisterDeviceOwnedByAnotherUser(t *testing.T) {
	fixture := setupDeviceManagerService(t)
	device := fixture.provisionWithHeartbeat(t, 5*time.Second)

	_, err := fixture.service.RegisterDevice(context.Background(), services.RegisterDeviceInput{DeviceID: device.ID, UserID: "user-1"})
	assert.NoError(t, err)

	_, err = fixture.service.RegisterDevice(context.Background(), services.RegisterDeviceInput{DeviceID: device.ID, UserID: "user-2"})
	assert.ErrorIs(t, err, errs.ErrDeviceAlreadyRegistered)
}

func TestRegisterDeviceNotProvisioned(t *testing.T) {
	fixture := setupDeviceManagerService(t)
	device := fixture.createDevice(t, "SN-100")

	_, err := fixture.service.RegisterDevice(context.Background(), services.RegisterDeviceInput{DeviceID: device.ID, UserID: "user-1"})
	assert.ErrorIs(t, err, errs.ErrDeviceNotProvisioned)
}

func TestRegisterDeviceWithStaleHeartbeat(t *testing.T) {
	fixture := setupDeviceManagerService(t)
	device := fixture.provisionWithHeartbeat(t, 30*time.Minute)

	_, err := fixture.service.RegisterDevice(context.Background(), services.RegisterDeviceInput{DeviceID: device.ID, UserID: "user-1"})
	assert.ErrorIs(t, err, errs.ErrDeviceNotResponding)
}

func TestRegisterDeviceWithoutHeartbeat(t *testing.T) {
	fixture := setupDeviceManagerService(t)
	device := fixture.provisionWithHeartbeat(t, -1)

	_, err := fixture.service.RegisterDevice(context.Background(), services.RegisterDeviceInput{DeviceID: device.ID, UserID: "user-1"})
	assert.ErrorIs(t, err, errs.ErrDeviceNotResponding)
}

func TestUpdateFirmwareVersion(t *testing.T) {
	fixture := setupDeviceManagerService(t)
	device := fixture.createDevice(t, "SN-100")

	updated, err := fixture.service.UpdateFirmwareVersion(context.Background(), services.UpdateFirmwareVersionInput{
		DeviceID:        device.ID,
		FirmwareVersion: "2.4.0",
	})
	assert.NoError(t, err)
	assert.Equal(t, "2.4.0", updated.FirmwareVersion)
}

func TestDecommissionDevice(t *testing.T) {
	fixture := setupDeviceManagerService(t)
	device := fixture.provisionWithHeartbeat(t, 5*time.Second)

	fixture.iotCore.On("DeleteThing", tmock.Anything, device.ID).Return(nil).Once()

	decommissioned, err := fixture.service.DecommissionDevice(context.Background(), services.DecommissionDeviceInput{DeviceID: device.ID})
	assert.NoError(t, err)
	assert.Nil(t, decommissioned.ThingName)
	assert.Equal(t, models.DevicePendingProvisioning, decommissioned.ProvisioningStatus)
	assert.Equal(t, models.DeviceDisconnected, decommissioned.ConnectionStatus)

	fixture.iotCore.AssertExpectations(t)
}

func TestGetDevicesStats(t *testing.T) {
	fixture := setupDeviceManagerService(t)
	fixture.createDevice(t, "SN-100")
	fixture.createDevice(t, "SN-200")

	stats, err := fixture.service.GetDevicesStats(context.Background(), services.GetDevicesStatsInput{})
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDevices)
	assert.Equal(t, 2, stats.DisconnectedDevices)
	assert.Equal(t, 2, stats.ProvisioningStatus[models.DevicePendingProvisioning])
}
