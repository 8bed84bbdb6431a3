package services

import (
	"context"
)

// CertificateKeysOutput carries a freshly created identity platform
// certificate together with its key material. The private key only exists in
// this response: the platform does not store it.
type CertificateKeysOutput struct {
	CertificateID  string
	CertificateArn string
	CertificatePem string
	PrivateKey     string
	PublicKey      string
}

// IotCoreService is the capability surface of the device identity platform.
// Implementations return plain errors; callers annotate them with the
// failing step.
type IotCoreService interface {
	CreateThing(ctx context.Context, thingName string, attributes map[string]string) error
	CreateCertificateWithKeys(ctx context.Context) (*CertificateKeysOutput, error)
	AttachCertificate(ctx context.Context, thingName string, certificateArn string) error
	UpdateCertificateStatus(ctx context.Context, certificateID string, status string) error
	DescribeCertificate(ctx context.Context, certificateID string) (string, error)
	DeleteThing(ctx context.Context, thingName string) error
}

// Platform-side certificate status values.
const (
	PlatformCertificateActive   = "ACTIVE"
	PlatformCertificateInactive = "INACTIVE"
	PlatformCertificateRevoked  = "REVOKED"
)
