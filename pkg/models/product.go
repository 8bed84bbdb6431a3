package models

import "time"

type ProductType string

const (
	ProductTypeDevice    ProductType = "DEVICE"
	ProductTypeCartridge ProductType = "CARTRIDGE"
)

// Product is the manufacturing record a physical device or cartridge links
// to through its serial number.
type Product struct {
	ID                string      `json:"id" gorm:"primaryKey"`
	ManufacturerID    string      `json:"manufacturer_id"`
	SKU               string      `json:"sku"`
	BatchID           string      `json:"batch_id"`
	SerialNumber      string      `json:"serial_number" gorm:"uniqueIndex"`
	Name              string      `json:"name"`
	Type              ProductType `json:"type"`
	CreationTimestamp time.Time   `json:"creation_timestamp"`
}
