package models

import (
	"time"
)

type DeviceProvisioningStatus string

const (
	DevicePendingProvisioning DeviceProvisioningStatus = "PENDING"
	DeviceProvisioned         DeviceProvisioningStatus = "PROVISIONED"
	DeviceProvisioningFailed  DeviceProvisioningStatus = "FAILED"
)

type DeviceConnectionStatus string

const (
	DeviceConnected    DeviceConnectionStatus = "CONNECTED"
	DeviceDisconnected DeviceConnectionStatus = "DISCONNECTED"
)

type Device struct {
	ID                 string                   `json:"id" gorm:"primaryKey"`
	Name               string                   `json:"name"`
	SerialNumber       string                   `json:"serial_number" gorm:"uniqueIndex"`
	ThingName          *string                  `json:"thing_name,omitempty"`
	ProvisioningStatus DeviceProvisioningStatus `json:"provisioning_status"`
	ConnectionStatus   DeviceConnectionStatus   `json:"connection_status"`
	LastHeartbeatAt    *time.Time               `json:"last_heartbeat_at,omitempty"`
	FirmwareVersion    string                   `json:"firmware_version"`
	RegisteredBy       *string                  `json:"registered_by,omitempty"`
	CreationTimestamp  time.Time                `json:"creation_timestamp"`
	Metadata           map[string]any           `json:"metadata" gorm:"serializer:json"`
}

type DevicesStats struct {
	TotalDevices        int                              `json:"total"`
	ProvisioningStatus  map[DeviceProvisioningStatus]int `json:"provisioning_distribution"`
	ConnectedDevices    int                              `json:"connected"`
	DisconnectedDevices int                              `json:"disconnected"`
}
