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

type CertificatesMiddleware func(CertificatesService) CertificatesService

type CertificatesService interface {
	IssueCertificate(ctx context.Context, input IssueCertificateInput) (*CertificateIssueOutput, error)
	ActivateCertificate(ctx context.Context, input ActivateCertificateInput) (*models.DeviceCertificate, error)
	RotateCertificate(ctx context.Context, input RotateCertificateInput) (*CertificateIssueOutput, error)
	RevokeCertificate(ctx context.Context, input RevokeCertificateInput) (*models.DeviceCertificate, error)
	ValidateCertificate(ctx context.Context, input ValidateCertificateInput) (*CertificateValidationOutput, error)
	GetDeviceCertificates(ctx context.Context, input GetDeviceCertificatesInput) ([]models.DeviceCertificate, error)
}

type IssueCertificateInput struct {
	DeviceID string `validate:"required"`
}

type ActivateCertificateInput struct {
	CertificateID string `validate:"required"`
}

type RotateCertificateInput struct {
	DeviceID string `validate:"required"`
}

type RevokeCertificateInput struct {
	CertificateID string `validate:"required"`
}

type ValidateCertificateInput struct {
	CertificateID string `validate:"required"`
}

type GetDeviceCertificatesInput struct {
	DeviceID string `validate:"required"`
}

// CertificateIssueOutput carries the persisted certificate record plus
// short-lived download URLs for the stored blobs. The URLs are the only way
// key material leaves the subsystem.
type CertificateIssueOutput struct {
	Certificate    models.DeviceCertificate `json:"certificate"`
	CertificateURL string                   `json:"certificate_url"`
	PrivateKeyURL  string                   `json:"private_key_url"`
}

type CertificateValidationOutput struct {
	IsValid        bool                     `json:"is_valid"`
	LocalStatus    models.CertificateStatus `json:"local_status"`
	PlatformStatus string                   `json:"platform_status"`
}

var certValidate *validator.Validate

type CertificatesServiceBackend struct {
	devicesStorage      storage.DevicesRepo
	certificatesStorage storage.CertificatesRepo
	iotCore             IotCoreService
	objectStorage       ObjectStorageService
	downloadURLTTL      time.Duration
	service             CertificatesService
	logger              *logrus.Entry
}

type CertificatesBuilder struct {
	Logger              *logrus.Entry
	DevicesStorage      storage.DevicesRepo
	CertificatesStorage storage.CertificatesRepo
	IotCore             IotCoreService
	ObjectStorage       ObjectStorageService
	DownloadURLTTL      time.Duration
}

func NewCertificatesService(builder CertificatesBuilder) CertificatesService {
	certValidate = validator.New()

	ttl := builder.DownloadURLTTL
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}

	svc := &CertificatesServiceBackend{
		devicesStorage:      builder.DevicesStorage,
		certificatesStorage: builder.CertificatesStorage,
		iotCore:             builder.IotCore,
		objectStorage:       builder.ObjectStorage,
		downloadURLTTL:      ttl,
		logger:              builder.Logger,
	}

	svc.service = svc
	return svc
}

func (svc *CertificatesServiceBackend) SetService(service CertificatesService) {
	svc.service = service
}

func (svc *CertificatesServiceBackend) IssueCertificate(ctx context.Context, input IssueCertificateInput) (*CertificateIssueOutput, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := certValidate.Struct(input)
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

	lFunc.Debugf("requesting new certificate with keys for device '%s'", device.ID)
	keys, err := svc.iotCore.CreateCertificateWithKeys(ctx)
	if err != nil {
		lFunc.Errorf("could not create certificate for device '%s': %s", device.ID, err)
		return nil, &errs.IdentityPlatformError{Step: "create-certificate", Err: err}
	}

	certKey := models.CertificateBlobKey(device.ID, keys.CertificateID)
	privKey := models.PrivateKeyBlobKey(device.ID, keys.CertificateID)

	if err = svc.objectStorage.Put(ctx, certKey, []byte(keys.CertificatePem), "application/x-pem-file"); err != nil {
		lFunc.Errorf("could not store certificate blob '%s': %s", certKey, err)
		return nil, &errs.StorageError{Op: "put", Key: certKey, Err: err}
	}

	if err = svc.objectStorage.Put(ctx, privKey, []byte(keys.PrivateKey), "application/x-pem-file"); err != nil {
		lFunc.Errorf("could not store private key blob '%s': %s", privKey, err)
		return nil, &errs.StorageError{Op: "put", Key: privKey, Err: err}
	}

	now := time.Now()
	expiresAt := now.AddDate(1, 0, 0)
	certificate := models.DeviceCertificate{
		ID:                uuid.NewString(),
		DeviceID:          device.ID,
		CertificateID:     keys.CertificateID,
		CertificateArn:    keys.CertificateArn,
		CertificateKey:    certKey,
		PrivateKeyKey:     &privKey,
		Status:            models.CertificateActive,
		ActivatedAt:       &now,
		ExpiresAt:         &expiresAt,
		CreationTimestamp: now,
	}

	stored, err := svc.certificatesStorage.Insert(ctx, &certificate)
	if err != nil {
		lFunc.Errorf("could not persist certificate '%s' for device '%s': %s", keys.CertificateID, device.ID, err)
		return nil, err
	}

	certURL, err := svc.objectStorage.SignedURL(ctx, certKey, svc.downloadURLTTL)
	if err != nil {
		lFunc.Errorf("could not sign certificate download URL for '%s': %s", certKey, err)
		return nil, &errs.StorageError{Op: "sign", Key: certKey, Err: err}
	}

	privURL, err := svc.objectStorage.SignedURL(ctx, privKey, svc.downloadURLTTL)
	if err != nil {
		lFunc.Errorf("could not sign private key download URL for '%s': %s", privKey, err)
		return nil, &errs.StorageError{Op: "sign", Key: privKey, Err: err}
	}

	lFunc.Infof("issued certificate '%s' for device '%s'", stored.CertificateID, device.ID)
	return &CertificateIssueOutput{
		Certificate:    *stored,
		CertificateURL: certURL,
		PrivateKeyURL:  privURL,
	}, nil
}

func (svc *CertificatesServiceBackend) ActivateCertificate(ctx context.Context, input ActivateCertificateInput) (*models.DeviceCertificate, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := certValidate.Struct(input)
	if err != nil {
		lFunc.Errorf("struct validation error: %s", err)
		return nil, errs.ErrValidateBadRequest
	}

	exists, certificate, err := svc.certificatesStorage.SelectExistsByCertificateID(ctx, input.CertificateID)
	if err != nil {
		lFunc.Errorf("could not check if certificate '%s' exists: %s", input.CertificateID, err)
		return nil, err
	}
	if !exists {
		lFunc.Errorf("certificate '%s' does not exist", input.CertificateID)
		return nil, errs.ErrCertificateNotFound
	}

	if certificate.Status != models.CertificatePending {
		lFunc.Errorf("certificate '%s' is in status '%s'. Only PENDING certificates can be activated", certificate.CertificateID, certificate.Status)
		return nil, errs.ErrCertificateStatusTransition
	}

	_, device, err := svc.devicesStorage.SelectExists(ctx, certificate.DeviceID)
	if err != nil || device == nil {
		lFunc.Errorf("could not get device '%s' owning certificate '%s': %s", certificate.DeviceID, certificate.CertificateID, err)
		return nil, errs.ErrDeviceNotFound
	}

	if err = svc.iotCore.UpdateCertificateStatus(ctx, certificate.CertificateID, PlatformCertificateActive); err != nil {
		lFunc.Errorf("could not activate certificate '%s' at the identity platform: %s", certificate.CertificateID, err)
		return nil, &errs.IdentityPlatformError{Step: "update-certificate-status", Err: err}
	}

	if device.ThingName != nil {
		if err = svc.iotCore.AttachCertificate(ctx, *device.ThingName, certificate.CertificateArn); err != nil {
			lFunc.Errorf("could not attach certificate '%s' to thing '%s': %s", certificate.CertificateID, *device.ThingName, err)
			return nil, &errs.IdentityPlatformError{Step: "attach-certificate", Err: err}
		}
	}

	now := time.Now()
	certificate.Status = models.CertificateActive
	certificate.ActivatedAt = &now

	certificate, err = svc.certificatesStorage.Update(ctx, certificate)
	if err != nil {
		lFunc.Errorf("could not persist activation of certificate '%s': %s", input.CertificateID, err)
		return nil, err
	}

	// Key material must not outlive activation. A failed deletion is a
	// recoverable inconsistency: keep the reference so it can be retried.
	certificate = svc.deletePrivateKeyBlob(ctx, lFunc, certificate)

	lFunc.Infof("activated certificate '%s' for device '%s'", certificate.CertificateID, certificate.DeviceID)
	return certificate, nil
}

func (svc *CertificatesServiceBackend) RotateCertificate(ctx context.Context, input RotateCertificateInput) (*CertificateIssueOutput, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := certValidate.Struct(input)
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

	hasActive, previous, err := svc.certificatesStorage.SelectActiveByDeviceID(ctx, device.ID)
	if err != nil {
		lFunc.Errorf("could not get active certificate for device '%s': %s", device.ID, err)
		return nil, err
	}
	if !hasActive {
		lFunc.Errorf("device '%s' has no active certificate to rotate", device.ID)
		return nil, errs.ErrCertificateNotFound
	}

	output, err := svc.service.IssueCertificate(ctx, IssueCertificateInput{DeviceID: device.ID})
	if err != nil {
		lFunc.Errorf("could not issue replacement certificate for device '%s': %s", device.ID, err)
		return nil, err
	}

	if device.ThingName != nil {
		if err = svc.iotCore.AttachCertificate(ctx, *device.ThingName, output.Certificate.CertificateArn); err != nil {
			lFunc.Errorf("could not attach certificate '%s' to thing '%s': %s", output.Certificate.CertificateID, *device.ThingName, err)
			return nil, &errs.IdentityPlatformError{Step: "attach-certificate", Err: err}
		}
	}

	// The superseded certificate keeps its platform-side policy attachment.
	// Only the local record is demoted.
	previous.Status = models.CertificateInactive
	previous, err = svc.certificatesStorage.Update(ctx, previous)
	if err != nil {
		lFunc.Errorf("could not mark certificate '%s' inactive: %s", previous.CertificateID, err)
		return nil, err
	}

	svc.deletePrivateKeyBlob(ctx, lFunc, previous)

	lFunc.Infof("rotated certificate for device '%s': '%s' -> '%s'", device.ID, previous.CertificateID, output.Certificate.CertificateID)
	return output, nil
}

func (svc *CertificatesServiceBackend) RevokeCertificate(ctx context.Context, input RevokeCertificateInput) (*models.DeviceCertificate, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := certValidate.Struct(input)
	if err != nil {
		lFunc.Errorf("struct validation error: %s", err)
		return nil, errs.ErrValidateBadRequest
	}

	exists, certificate, err := svc.certificatesStorage.SelectExistsByCertificateID(ctx, input.CertificateID)
	if err != nil {
		lFunc.Errorf("could not check if certificate '%s' exists: %s", input.CertificateID, err)
		return nil, err
	}
	if !exists {
		lFunc.Errorf("certificate '%s' does not exist", input.CertificateID)
		return nil, errs.ErrCertificateNotFound
	}

	if certificate.Status == models.CertificateRevoked {
		lFunc.Infof("certificate '%s' is already revoked", certificate.CertificateID)
		return certificate, nil
	}

	if err = svc.iotCore.UpdateCertificateStatus(ctx, certificate.CertificateID, PlatformCertificateRevoked); err != nil {
		platformStatus, descErr := svc.iotCore.DescribeCertificate(ctx, certificate.CertificateID)
		if descErr != nil || platformStatus != PlatformCertificateRevoked {
			lFunc.Errorf("could not revoke certificate '%s' at the identity platform: %s", certificate.CertificateID, err)
			return nil, &errs.IdentityPlatformError{Step: "revoke-certificate", Err: err}
		}

		lFunc.Warnf("certificate '%s' was already revoked at the identity platform", certificate.CertificateID)
	}

	now := time.Now()
	certificate.Status = models.CertificateRevoked
	certificate.RevokedAt = &now

	certificate, err = svc.certificatesStorage.Update(ctx, certificate)
	if err != nil {
		lFunc.Errorf("could not persist revocation of certificate '%s': %s", input.CertificateID, err)
		return nil, err
	}

	certificate = svc.deletePrivateKeyBlob(ctx, lFunc, certificate)

	lFunc.Infof("revoked certificate '%s' for device '%s'", certificate.CertificateID, certificate.DeviceID)
	return certificate, nil
}

func (svc *CertificatesServiceBackend) ValidateCertificate(ctx context.Context, input ValidateCertificateInput) (*CertificateValidationOutput, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := certValidate.Struct(input)
	if err != nil {
		lFunc.Errorf("struct validation error: %s", err)
		return nil, errs.ErrValidateBadRequest
	}

	exists, certificate, err := svc.certificatesStorage.SelectExistsByCertificateID(ctx, input.CertificateID)
	if err != nil {
		lFunc.Errorf("could not check if certificate '%s' exists: %s", input.CertificateID, err)
		return nil, err
	}
	if !exists {
		lFunc.Errorf("certificate '%s' does not exist", input.CertificateID)
		return nil, errs.ErrCertificateNotFound
	}

	platformStatus, err := svc.iotCore.DescribeCertificate(ctx, certificate.CertificateID)
	if err != nil {
		lFunc.Errorf("could not describe certificate '%s' at the identity platform: %s", certificate.CertificateID, err)
		return nil, &errs.IdentityPlatformError{Step: "describe-certificate", Err: err}
	}

	return &CertificateValidationOutput{
		IsValid:        certificate.Status == models.CertificateActive && platformStatus == PlatformCertificateActive,
		LocalStatus:    certificate.Status,
		PlatformStatus: platformStatus,
	}, nil
}

func (svc *CertificatesServiceBackend) GetDeviceCertificates(ctx context.Context, input GetDeviceCertificatesInput) ([]models.DeviceCertificate, error) {
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	err := certValidate.Struct(input)
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

	return svc.certificatesStorage.SelectByDeviceID(ctx, device.ID)
}

func (svc *CertificatesServiceBackend) deletePrivateKeyBlob(ctx context.Context, lFunc *logrus.Entry, certificate *models.DeviceCertificate) *models.DeviceCertificate {
	if certificate.PrivateKeyKey == nil {
		return certificate
	}

	key := *certificate.PrivateKeyKey
	if err := svc.objectStorage.Delete(ctx, key); err != nil {
		lFunc.Warnf("could not delete private key blob '%s': %s", key, err)
		return certificate
	}

	certificate.PrivateKeyKey = nil
	updated, err := svc.certificatesStorage.Update(ctx, certificate)
	if err != nil {
		lFunc.Warnf("could not clear private key reference of certificate '%s': %s", certificate.CertificateID, err)
		return certificate
	}

	return updated
}
