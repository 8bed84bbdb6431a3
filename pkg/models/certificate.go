package models

import (
	"fmt"
	"time"
)

type CertificateStatus string

const (
	CertificatePending  CertificateStatus = "PENDING"
	CertificateActive   CertificateStatus = "ACTIVE"
	CertificateInactive CertificateStatus = "INACTIVE" // superseded by rotation
	CertificateRevoked  CertificateStatus = "REVOKED"
	// CertificatePendingTransfer is reserved for a future ownership-transfer
	// flow. No transition into or out of it is implemented.
	CertificatePendingTransfer CertificateStatus = "PENDING_TRANSFER"
)

type DeviceCertificate struct {
	ID                string            `json:"id" gorm:"primaryKey"`
	DeviceID          string            `json:"device_id" gorm:"index"`
	CertificateID     string            `json:"certificate_id" gorm:"uniqueIndex"`
	CertificateArn    string            `json:"certificate_arn"`
	CertificateKey    string            `json:"certificate_key"`
	PrivateKeyKey     *string           `json:"private_key_key,omitempty"`
	Status            CertificateStatus `json:"status"`
	ActivatedAt       *time.Time        `json:"activated_at,omitempty"`
	ExpiresAt         *time.Time        `json:"expires_at,omitempty"`
	RevokedAt         *time.Time        `json:"revoked_at,omitempty"`
	CreationTimestamp time.Time         `json:"creation_timestamp"`
}

// Blob keys follow a deterministic path scheme so any component can
// reconstruct them from (deviceID, certificateID) without a lookup.

func CertificateBlobKey(deviceID, certificateID string) string {
	return fmt.Sprintf("certificates/%s/%s.pem", deviceID, certificateID)
}

func PrivateKeyBlobKey(deviceID, certificateID string) string {
	return fmt.Sprintf("certificates/%s/%s.key", deviceID, certificateID)
}
