package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/storage"
)

type InMemoryCartridgesStore struct {
	mu         sync.RWMutex
	cartridges map[string]models.DeviceCartridge
}

func NewCartridgesRepository() storage.CartridgesRepo {
	return &InMemoryCartridgesStore{
		cartridges: map[string]models.DeviceCartridge{},
	}
}

func (s *InMemoryCartridgesStore) Insert(ctx context.Context, cartridge *models.DeviceCartridge) (*models.DeviceCartridge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cartridges[cartridge.ID] = *cartridge
	stored := s.cartridges[cartridge.ID]
	return &stored, nil
}

func (s *InMemoryCartridgesStore) Update(ctx context.Context, cartridge *models.DeviceCartridge) (*models.DeviceCartridge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cartridges[cartridge.ID] = *cartridge
	stored := s.cartridges[cartridge.ID]
	return &stored, nil
}

func (s *InMemoryCartridgesStore) SelectByDeviceID(ctx context.Context, deviceID string) ([]models.DeviceCartridge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cartridges := []models.DeviceCartridge{}
	for _, cartridge := range s.cartridges {
		if cartridge.DeviceID == deviceID {
			cartridges = append(cartridges, cartridge)
		}
	}

	sort.Slice(cartridges, func(i, j int) bool {
		return cartridges[i].Position < cartridges[j].Position
	})

	return cartridges, nil
}

func (s *InMemoryCartridgesStore) SelectByDeviceAndSerial(ctx context.Context, deviceID, serialNumber string) (bool, *models.DeviceCartridge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cartridge := range s.cartridges {
		if cartridge.DeviceID == deviceID && cartridge.SerialNumber == serialNumber {
			found := cartridge
			return true, &found, nil
		}
	}

	return false, nil, nil
}

func (s *InMemoryCartridgesStore) ReplaceForDevice(ctx context.Context, deviceID string, cartridges []models.DeviceCartridge) ([]models.DeviceCartridge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, cartridge := range s.cartridges {
		if cartridge.DeviceID == deviceID {
			delete(s.cartridges, id)
		}
	}

	for _, cartridge := range cartridges {
		s.cartridges[cartridge.ID] = cartridge
	}

	return cartridges, nil
}
