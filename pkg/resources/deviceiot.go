package resources

import (
	"github.com/anemonelabs/anemone-cloud/pkg/models"
)

type HeartbeatBody struct {
	FirmwareVersion string                    `json:"firmware_version"`
	Readings        []models.CartridgeReading `json:"readings"`
}

type HeartbeatResponse struct {
	ConnectionStatus models.DeviceConnectionStatus `json:"connection_status"`
	PendingCommand   bool                          `json:"pending_command"`
}

type SyncCartridgesBody struct {
	Readings []models.CartridgeReading `json:"readings" binding:"required"`
}

type ReplaceCartridgesBody struct {
	Readings []models.CartridgeReading `json:"readings"`
}

type GetCartridgesResponse struct {
	List []models.DeviceCartridge `json:"list"`
}

type EnqueueCommandBody struct {
	Payload models.CommandPayload `json:"payload" binding:"required"`
}

type GetCertificatesResponse struct {
	List []models.DeviceCertificate `json:"list"`
}
