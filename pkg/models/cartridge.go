package models

import "time"

// DeviceCartridge is the stored state of one scent cartridge inserted in a
// device. The natural key within a device is the cartridge serial number;
// the slot position is a mutable attribute (cartridges can be moved).
type DeviceCartridge struct {
	ID                string    `json:"id" gorm:"primaryKey"`
	DeviceID          string    `json:"device_id" gorm:"index"`
	ProductID         string    `json:"product_id"`
	SerialNumber      string    `json:"serial_number"`
	Percentage        float64   `json:"percentage"`
	RemainingRuntime  int64     `json:"remaining_runtime"`
	TotalRuntime      int64     `json:"total_runtime"`
	Position          int       `json:"position" gorm:"column:slot"`
	CreationTimestamp time.Time `json:"creation_timestamp"`
}

// CartridgeReading is a single device-reported cartridge measurement.
type CartridgeReading struct {
	SerialNumber     string  `json:"serial_number" validate:"required"`
	Percentage       float64 `json:"percentage" validate:"gte=0,lte=100"`
	RemainingRuntime int64   `json:"remaining_runtime" validate:"gte=0"`
	TotalRuntime     int64   `json:"total_runtime" validate:"gte=0"`
	Position         int     `json:"position" validate:"gte=1,lte=6"`
}
