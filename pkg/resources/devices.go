package resources

import (
	"github.com/anemonelabs/anemone-cloud/pkg/models"
)

type CreateDeviceBody struct {
	Name            string         `json:"name" binding:"required"`
	SerialNumber    string         `json:"serial_number" binding:"required"`
	FirmwareVersion string         `json:"firmware_version"`
	Metadata        map[string]any `json:"metadata"`
}

type RegisterDeviceBody struct {
	UserID string `json:"user_id" binding:"required"`
}

type UpdateFirmwareVersionBody struct {
	FirmwareVersion string `json:"firmware_version" binding:"required"`
}

type GetDevicesResponse struct {
	List []models.Device `json:"list"`
}
