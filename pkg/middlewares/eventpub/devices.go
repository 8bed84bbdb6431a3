package eventpub

import (
	"context"
	"fmt"

	"github.com/anemonelabs/anemone-cloud/pkg/helpers"
	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/services"
)

type deviceEventPublisher struct {
	next       services.DeviceManagerService
	eventMWPub ICloudEventPublisher
}

func NewDeviceEventPublisher(eventMWPub ICloudEventPublisher) services.DeviceMiddleware {
	return func(next services.DeviceManagerService) services.DeviceManagerService {
		return &deviceEventPublisher{
			next:       next,
			eventMWPub: NewEventPublisherWithSourceMiddleware(eventMWPub, models.DeviceManagerSource),
		}
	}
}

func (mw *deviceEventPublisher) CreateDevice(ctx context.Context, input services.CreateDeviceInput) (output *models.Device, err error) {
	ctx = context.WithValue(ctx, helpers.CtxEventType, string(models.EventCreateDeviceKey))
	ctx = context.WithValue(ctx, helpers.CtxEventSubject, fmt.Sprintf("device/%s", input.SerialNumber))

	defer func() {
		if err == nil {
			mw.eventMWPub.PublishCloudEvent(ctx, output)
		}
	}()
	return mw.next.CreateDevice(ctx, input)
}

func (mw *deviceEventPublisher) GetDeviceByID(ctx context.Context, input services.GetDeviceByIDInput) (*models.Device, error) {
	return mw.next.GetDeviceByID(ctx, input)
}

func (mw *deviceEventPublisher) GetDevices(ctx context.Context, input services.GetDevicesInput) ([]models.Device, error) {
	return mw.next.GetDevices(ctx, input)
}

func (mw *deviceEventPublisher) GetDevicesStats(ctx context.Context, input services.GetDevicesStatsInput) (*models.DevicesStats, error) {
	return mw.next.GetDevicesStats(ctx, input)
}

func (mw *deviceEventPublisher) ProvisionDevice(ctx context.Context, input services.ProvisionDeviceInput) (output *services.ProvisionDeviceOutput, err error) {
	ctx = context.WithValue(ctx, helpers.CtxEventType, string(models.EventProvisionDeviceKey))
	ctx = context.WithValue(ctx, helpers.CtxEventSubject, fmt.Sprintf("device/%s", input.DeviceID))

	defer func() {
		if err == nil {
			// Download URLs carry key material. The event only announces the
			// device and the certificate record.
			mw.eventMWPub.PublishCloudEvent(ctx, map[string]any{
				"device":      output.Device,
				"certificate": output.Certificate,
			})
		}
	}()
	return mw.next.ProvisionDevice(ctx, input)
}

func (mw *deviceEventPublisher) RegisterDevice(ctx context.Context, input services.RegisterDeviceInput) (output *models.Device, err error) {
	ctx = context.WithValue(ctx, helpers.CtxEventType, string(models.EventRegisterDeviceKey))
	ctx = context.WithValue(ctx, helpers.CtxEventSubject, fmt.Sprintf("device/%s", input.DeviceID))

	defer func() {
		if err == nil {
			mw.eventMWPub.PublishCloudEvent(ctx, output)
		}
	}()
	return mw.next.RegisterDevice(ctx, input)
}

func (mw *deviceEventPublisher) UpdateFirmwareVersion(ctx context.Context, input services.UpdateFirmwareVersionInput) (output *models.Device, err error) {
	ctx = context.WithValue(ctx, helpers.CtxEventType, string(models.EventUpdateFirmwareKey))
	ctx = context.WithValue(ctx, helpers.CtxEventSubject, fmt.Sprintf("device/%s", input.DeviceID))

	prev, err := mw.GetDeviceByID(ctx, services.GetDeviceByIDInput{
		ID: input.DeviceID,
	})
	if err != nil {
		return nil, fmt.Errorf("mw error: could not get device %s: %w", input.DeviceID, err)
	}

	defer func() {
		if err == nil {
			mw.eventMWPub.PublishCloudEvent(ctx, models.UpdateModel[models.Device]{
				Previous: *prev,
				Updated:  *output,
			})
		}
	}()
	return mw.next.UpdateFirmwareVersion(ctx, input)
}

func (mw *deviceEventPublisher) DecommissionDevice(ctx context.Context, input services.DecommissionDeviceInput) (output *models.Device, err error) {
	ctx = context.WithValue(ctx, helpers.CtxEventType, string(models.EventDecommissionKey))
	ctx = context.WithValue(ctx, helpers.CtxEventSubject, fmt.Sprintf("device/%s", input.DeviceID))

	defer func() {
		if err == nil {
			mw.eventMWPub.PublishCloudEvent(ctx, output)
		}
	}()
	return mw.next.DecommissionDevice(ctx, input)
}
