package models

type EventType string

const (
	EventCreateDeviceKey    EventType = "device.create"
	EventProvisionDeviceKey EventType = "device.provision"
	EventRegisterDeviceKey  EventType = "device.register"
	EventUpdateFirmwareKey  EventType = "device.firmware.update"
	EventDecommissionKey    EventType = "device.decommission"
	EventEnqueueCommandKey  EventType = "device.command.enqueue"
)

const DeviceManagerSource = "device-manager"

type UpdateModel[E any] struct {
	Previous E `json:"previous"`
	Updated  E `json:"updated"`
}
