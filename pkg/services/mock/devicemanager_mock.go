package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/services"
)

type MockDeviceManagerService struct {
	mock.Mock
}

func (m *MockDeviceManagerService) CreateDevice(ctx context.Context, input services.CreateDeviceInput) (*models.Device, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Device), args.Error(1)
}

func (m *MockDeviceManagerService) GetDeviceByID(ctx context.Context, input services.GetDeviceByIDInput) (*models.Device, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Device), args.Error(1)
}

func (m *MockDeviceManagerService) GetDevices(ctx context.Context, input services.GetDevicesInput) ([]models.Device, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Device), args.Error(1)
}

func (m *MockDeviceManagerService) GetDevicesStats(ctx context.Context, input services.GetDevicesStatsInput) (*models.DevicesStats, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DevicesStats), args.Error(1)
}

func (m *MockDeviceManagerService) ProvisionDevice(ctx context.Context, input services.ProvisionDeviceInput) (*services.ProvisionDeviceOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ProvisionDeviceOutput), args.Error(1)
}

func (m *MockDeviceManagerService) RegisterDevice(ctx context.Context, input services.RegisterDeviceInput) (*models.Device, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Device), args.Error(1)
}

func (m *MockDeviceManagerService) UpdateFirmwareVersion(ctx context.Context, input services.UpdateFirmwareVersionInput) (*models.Device, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Device), args.Error(1)
}

func (m *MockDeviceManagerService) DecommissionDevice(ctx context.Context, input services.DecommissionDeviceInput) (*models.Device, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Device), args.Error(1)
}
