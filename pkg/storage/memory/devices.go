package memory

import (
	"context"
	"sync"

	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/storage"
)

type InMemoryDevicesStore struct {
	mu      sync.RWMutex
	devices map[string]models.Device
}

func NewDevicesRepository() storage.DevicesRepo {
	return &InMemoryDevicesStore{
		devices: map[string]models.Device{},
	}
}

func (s *InMemoryDevicesStore) Insert(ctx context.Context, device *models.Device) (*models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.devices[device.ID] = *device
	stored := s.devices[device.ID]
	return &stored, nil
}

func (s *InMemoryDevicesStore) Update(ctx context.Context, device *models.Device) (*models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.devices[device.ID] = *device
	stored := s.devices[device.ID]
	return &stored, nil
}

func (s *InMemoryDevicesStore) SelectExists(ctx context.Context, id string) (bool, *models.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	device, ok := s.devices[id]
	if !ok {
		return false, nil, nil
	}

	return true, &device, nil
}

func (s *InMemoryDevicesStore) SelectBySerialNumber(ctx context.Context, serialNumber string) (bool, *models.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, device := range s.devices {
		if device.SerialNumber == serialNumber {
			found := device
			return true, &found, nil
		}
	}

	return false, nil, nil
}

func (s *InMemoryDevicesStore) SelectAll(ctx context.Context, applyFunc func(models.Device)) error {
	s.mu.RLock()
	snapshot := make([]models.Device, 0, len(s.devices))
	for _, device := range s.devices {
		snapshot = append(snapshot, device)
	}
	s.mu.RUnlock()

	for _, device := range snapshot {
		applyFunc(device)
	}

	return nil
}

func (s *InMemoryDevicesStore) SelectByConnectionStatus(ctx context.Context, status models.DeviceConnectionStatus, applyFunc func(models.Device)) error {
	s.mu.RLock()
	snapshot := []models.Device{}
	for _, device := range s.devices {
		if device.ConnectionStatus == status {
			snapshot = append(snapshot, device)
		}
	}
	s.mu.RUnlock()

	for _, device := range snapshot {
		applyFunc(device)
	}

	return nil
}
