package services

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/anemonelabs/anemone-cloud/pkg/errs"
	"github.com/anemonelabs/anemone-cloud/pkg/helpers"
	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/storage"
)

type DeviceMiddleware func(DeviceManagerService) DeviceManagerService

type DeviceManagerService interface {
	CreateDevice(ctx context.Context, input CreateDeviceInput) (*models.Device, error)
	GetDeviceByID(ctx context.Context, input GetDeviceByIDInput) (*models.Device, error)
	GetDevices(ctx context.Context, input GetDevicesInput) ([]models.Device, error)
	GetDevicesStats(ctx context.Context, input GetDevicesStatsInput) (*models.DevicesStats, error)
	ProvisionDevice(ctx context.Context, input ProvisionDeviceInput) (*ProvisionDeviceOutput, error)
	RegisterDevice(ctx context.Context, input RegisterDeviceInput) (*models.Device, error)
	UpdateFirmwareVersion(ctx context.Context, input UpdateFirmwareVersionInput) (*models.Device, error)
	DecommissionDevice(ctx context.Context, input DecommissionDeviceInput) (*models.Device, error)
}

type CreateDeviceInput struct {
	Name            string `validate:"required"`
	SerialNumber    string `validate:"required"`
	FirmwareVersion string
	Metadata        map[string]any
}

type GetDeviceByIDInput struct {
	ID string `validate:"required"`
}

type GetDevicesInput struct {
}

type GetDevicesStatsInput struct {
}

type ProvisionDeviceInput struct {
	DeviceID string `validate:"required"`
}

// ProvisionDeviceOutput bundles the provisioned device with the certificate
// issued during provisioning and its one-time download URLs.
type ProvisionDeviceOutput struct {
	Device         models.Device            `json:"device"`
	Certificate    models.DeviceCertificate `json:"certificate"`
	CertificateURL string                   `json:"certificate_url"`
	PrivateKeyURL  string                   `json:"private_key_url"`
}

type RegisterDeviceInput struct {
	DeviceID string `validate:"required"`
	UserID   string `validate:"required"`
}

type UpdateFirmwareVersionInput struct {
	DeviceID        string `validate:"required"`
	FirmwareVersion string `validate:"required"`
}

type DecommissionDeviceInput struct {
	DeviceID string `validate:"required"`
}

var deviceValidate *validator.Validate

type DeviceManagerServiceBackend struct {
	devicesStorage        storage.DevicesRepo
	productsStorage       storage.ProductsRepo
	certificatesService   CertificatesService
	iotCore               IotCoreService
	registrationFreshness time.Duration
	service               DeviceManagerService
	logger                *logrus.Entry
}

type DeviceManagerBuilder struct {
	Logger                *logrus.Entry
	DevicesStorage        storage.DevicesRepo
	ProductsStorage       storage.ProductsRepo
	CertificatesService   CertificatesService
	IotCore               IotCoreService
	RegistrationFreshness time.Duration
}

func NewDeviceManagerService(builder DeviceManagerBuilder) DeviceManagerService {
	deviceValidate = validator.New()

	freshness := builder.RegistrationFreshness
	if freshness <= 0 {
		freshness = 10 * time.Minute
	}

	svc := &DeviceManagerServiceBackend{
		devicesStorage:        builder.DevicesStorage,
		productsStorage:       builder.ProductsStorage,
		certificatesService:   builder.CertificatesService,
		iotCore:               builder.IotCore,
		registrationFreshness: freshness,
		logger:                builder.Logger,
	}

	svc.service = svc
	return svc
}

func (svc *DeviceManagerServiceBackend) SetService(service DeviceManagerService) {
	svc.service = service
}

func (svc *DeviceManagerServiceBackend) CreateDevice(ctx context.Context, input CreateDeviceInput) (*models.Device, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := deviceValidate.Struct(input)
	if err != nil {
		lFunc.Errorf("struct validation error: %s", err)
		return nil, errs.ErrValidateBadRequest
	}

	productExists, _, err := svc.productsStorage.SelectBySerialNumber(ctx, input.SerialNumber, models.ProductTypeDevice)
	if err != nil {
		lFunc.Errorf("could not look up product with serial number '%s': %s", input.SerialNumber, err)
		return nil, err
	}
	if !productExists {
		lFunc.Errorf("no device product manufactured with serial number '%s'", input.SerialNumber)
		return nil, errs.ErrProductNotFound
	}

	deviceExists, _, err := svc.devicesStorage.SelectBySerialNumber(ctx, input.SerialNumber)
	if err != nil {
		lFunc.Errorf("could not check devices with serial number '%s': %s", input.SerialNumber, err)
		return nil, err
	}
	if deviceExists {
		lFunc.Errorf("a device with serial number '%s' already exists", input.SerialNumber)
		return nil, errs.ErrDeviceAlreadyExists
	}

	device := models.Device{
		ID:                 uuid.NewString(),
		Name:               input.Name,
		SerialNumber:       input.SerialNumber,
		ProvisioningStatus: models.DevicePendingProvisioning,
		ConnectionStatus:   models.DeviceDisconnected,
		FirmwareVersion:    input.FirmwareVersion,
		CreationTimestamp:  time.Now(),
		Metadata:           input.Metadata,
	}

	lFunc.Infof("creating device '%s' with serial number '%s'", device.ID, device.SerialNumber)
	return svc.devicesStorage.Insert(ctx, &device)
}

func (svc *DeviceManagerServiceBackend) GetDeviceByID(ctx context.Context, input GetDeviceByIDInput) (*models.Device, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := deviceValidate.Struct(input)
	if err != nil {
		lFunc.Errorf("struct validation error: %s", err)
		return nil, errs.ErrValidateBadRequest
	}

	exists, device, err := svc.devicesStorage.SelectExists(ctx, input.ID)
	if err != nil {
		lFunc.Errorf("could not check if device '%s' exists: %s", input.ID, err)
		return nil, err
	}
	if !exists {
		lFunc.Errorf("device '%s' does not exist", input.ID)
		return nil, errs.ErrDeviceNotFound
	}

	return device, nil
}

func (svc *DeviceManagerServiceBackend) GetDevices(ctx context.Context, input GetDevicesInput) ([]models.Device, error) {
	devices := []models.Device{}
	err := svc.devicesStorage.SelectAll(ctx, func(device models.Device) {
		devices = append(devices, device)
	})
	if err != nil {
		return nil, err
	}

	return devices, nil
}

func (svc *DeviceManagerServiceBackend) GetDevicesStats(ctx context.Context, input GetDevicesStatsInput) (*models.DevicesStats, error) {
	stats := models.DevicesStats{
		ProvisioningStatus: map[models.DeviceProvisioningStatus]int{},
	}

	err := svc.devicesStorage.SelectAll(ctx, func(device models.Device) {
		stats.TotalDevices++
		stats.ProvisioningStatus[device.ProvisioningStatus]++
		if device.ConnectionStatus == models.DeviceConnected {
			stats.ConnectedDevices++
		} else {
			stats.DisconnectedDevices++
		}
	})
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func (svc *DeviceManagerServiceBackend) ProvisionDevice(ctx context.Context, input ProvisionDeviceInput) (*ProvisionDeviceOutput, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := deviceValidate.Struct(input)
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

	if device.ProvisioningStatus == models.DeviceProvisioned {
		lFunc.Errorf("device '%s' is already provisioned", device.ID)
		return nil, errs.ErrDeviceAlreadyProvisioned
	}

	thingName := device.ID
	attributes := map[string]string{
		"serial_number": device.SerialNumber,
		"product_type":  string(models.ProductTypeDevice),
	}
	if device.FirmwareVersion != "" {
		attributes["firmware_version"] = device.FirmwareVersion
	}

	lFunc.Infof("provisioning device '%s': creating thing '%s'", device.ID, thingName)
	if err = svc.iotCore.CreateThing(ctx, thingName, attributes); err != nil {
		return nil, svc.failProvisioning(ctx, lFunc, device, &errs.IdentityPlatformError{Step: "create-thing", Err: err})
	}

	issued, err := svc.certificatesService.IssueCertificate(ctx, IssueCertificateInput{DeviceID: device.ID})
	if err != nil {
		return nil, svc.failProvisioning(ctx, lFunc, device, err)
	}

	if err = svc.iotCore.AttachCertificate(ctx, thingName, issued.Certificate.CertificateArn); err != nil {
		return nil, svc.failProvisioning(ctx, lFunc, device, &errs.IdentityPlatformError{Step: "attach-certificate", Err: err})
	}

	device.ThingName = &thingName
	device.ProvisioningStatus = models.DeviceProvisioned
	device, err = svc.devicesStorage.Update(ctx, device)
	if err != nil {
		lFunc.Errorf("could not persist provisioning of device '%s': %s", input.DeviceID, err)
		return nil, err
	}

	lFunc.Infof("device '%s' provisioned with thing '%s' and certificate '%s'", device.ID, thingName, issued.Certificate.CertificateID)
	return &ProvisionDeviceOutput{
		Device:         *device,
		Certificate:    issued.Certificate,
		CertificateURL: issued.CertificateURL,
		PrivateKeyURL:  issued.PrivateKeyURL,
	}, nil
}

// failProvisioning records the FAILED state and hands the original error
// back. Platform-side artifacts created before the failure are not rolled
// back: provisioning is retryable and thing creation is idempotent at the
// name level.
func (svc *DeviceManagerServiceBackend) failProvisioning(ctx context.Context, lFunc *logrus.Entry, device *models.Device, cause error) error {
	lFunc.Errorf("provisioning of device '%s' failed: %s", device.ID, cause)

	device.ProvisioningStatus = models.DeviceProvisioningFailed
	if _, err := svc.devicesStorage.Update(ctx, device); err != nil {
		lFunc.Errorf("could not persist FAILED provisioning status of device '%s': %s", device.ID, err)
	}

	return cause
}

func (svc *DeviceManagerServiceBackend) RegisterDevice(ctx context.Context, input RegisterDeviceInput) (*models.Device, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := deviceValidate.Struct(input)
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

	if device.ProvisioningStatus != models.DeviceProvisioned {
		lFunc.Errorf("device '%s' is in provisioning status '%s'. Only provisioned devices can be registered", device.ID, device.ProvisioningStatus)
		return nil, errs.ErrDeviceNotProvisioned
	}

	if device.RegisteredBy != nil {
		if *device.RegisteredBy == input.UserID {
			lFunc.Debugf("device '%s' is already registered to user '%s'", device.ID, input.UserID)
			return device, nil
		}

		lFunc.Errorf("device '%s' is already registered to another user", device.ID)
		return nil, errs.ErrDeviceAlreadyRegistered
	}

	if device.LastHeartbeatAt == nil || time.Since(*device.LastHeartbeatAt) > svc.registrationFreshness {
		lFunc.Errorf("device '%s' has not sent a heartbeat within the last %s", device.ID, svc.registrationFreshness)
		return nil, errs.ErrDeviceNotResponding
	}

	userID := input.UserID
	device.RegisteredBy = &userID

	device, err = svc.devicesStorage.Update(ctx, device)
	if err != nil {
		lFunc.Errorf("could not persist registration of device '%s': %s", input.DeviceID, err)
		return nil, err
	}

	lFunc.Infof("device '%s' registered to user '%s'", device.ID, input.UserID)
	return device, nil
}

func (svc *DeviceManagerServiceBackend) UpdateFirmwareVersion(ctx context.Context, input UpdateFirmwareVersionInput) (*models.Device, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := deviceValidate.Struct(input)
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

	device.FirmwareVersion = input.FirmwareVersion
	device, err = svc.devicesStorage.Update(ctx, device)
	if err != nil {
		lFunc.Errorf("could not persist firmware version of device '%s': %s", input.DeviceID, err)
		return nil, err
	}

	lFunc.Infof("device '%s' firmware version updated to '%s'", device.ID, device.FirmwareVersion)
	return device, nil
}

func (svc *DeviceManagerServiceBackend) DecommissionDevice(ctx context.Context, input DecommissionDeviceInput) (*models.Device, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := deviceValidate.Struct(input)
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

	if device.ThingName != nil {
		if err = svc.iotCore.DeleteThing(ctx, *device.ThingName); err != nil {
			lFunc.Errorf("could not delete thing '%s' at the identity platform: %s", *device.ThingName, err)
			return nil, &errs.IdentityPlatformError{Step: "delete-thing", Err: err}
		}
	}

	device.ThingName = nil
	device.ProvisioningStatus = models.DevicePendingProvisioning
	device.ConnectionStatus = models.DeviceDisconnected

	device, err = svc.devicesStorage.Update(ctx, device)
	if err != nil {
		lFunc.Errorf("could not persist decommission of device '%s': %s", input.DeviceID, err)
		return nil, err
	}

	lFunc.Infof("device '%s' decommissioned", device.ID)
	return device, nil
}
