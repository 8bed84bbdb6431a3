package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/services"
)

type MockDeviceIotService struct {
	mock.Mock
}

func (m *MockDeviceIotService) Heartbeat(ctx context.Context, input services.HeartbeatInput) (*services.HeartbeatOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.HeartbeatOutput), args.Error(1)
}

func (m *MockDeviceIotService) SyncCartridges(ctx context.Context, input services.SyncCartridgesInput) ([]models.DeviceCartridge, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DeviceCartridge), args.Error(1)
}

func (m *MockDeviceIotService) ReplaceCartridges(ctx context.Context, input services.ReplaceCartridgesInput) ([]models.DeviceCartridge, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DeviceCartridge), args.Error(1)
}

func (m *MockDeviceIotService) GetCartridges(ctx context.Context, input services.GetCartridgesInput) ([]models.DeviceCartridge, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DeviceCartridge), args.Error(1)
}

func (m *MockDeviceIotService) SweepDisconnected(ctx context.Context, input services.SweepDisconnectedInput) (int, error) {
	args := m.Called(ctx, input)
	return args.Int(0), args.Error(1)
}

func (m *MockDeviceIotService) EnqueueCommand(ctx context.Context, input services.EnqueueCommandInput) (*models.DeviceCommand, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeviceCommand), args.Error(1)
}

func (m *MockDeviceIotService) NextCommand(ctx context.Context, input services.NextCommandInput) (*models.DeviceCommand, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeviceCommand), args.Error(1)
}

func (m *MockDeviceIotService) MarkCommandExecuted(ctx context.Context, input services.MarkCommandExecutedInput) (*models.DeviceCommand, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeviceCommand), args.Error(1)
}
