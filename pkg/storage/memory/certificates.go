package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/storage"
)

type InMemoryCertificatesStore struct {
	mu           sync.RWMutex
	certificates map[string]models.DeviceCertificate
}

func NewCertificatesRepository() storage.CertificatesRepo {
	return &InMemoryCertificatesStore{
		certificates: map[string]models.DeviceCertificate{},
	}
}

func (s *InMemoryCertificatesStore) Insert(ctx context.Context, certificate *models.DeviceCertificate) (*models.DeviceCertificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.certificates[certificate.ID] = *certificate
	stored := s.certificates[certificate.ID]
	return &stored, nil
}

func (s *InMemoryCertificatesStore) Update(ctx context.Context, certificate *models.DeviceCertificate) (*models.DeviceCertificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.certificates[certificate.ID] = *certificate
	stored := s.certificates[certificate.ID]
	return &stored, nil
}

func (s *InMemoryCertificatesStore) SelectExistsByCertificateID(ctx context.Context, certificateID string) (bool, *models.DeviceCertificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, certificate := range s.certificates {
		if certificate.CertificateID == certificateID {
			found := certificate
			return true, &found, nil
		}
	}

	return false, nil, nil
}

func (s *InMemoryCertificatesStore) SelectByDeviceID(ctx context.Context, deviceID string) ([]models.DeviceCertificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	certificates := []models.DeviceCertificate{}
	for _, certificate := range s.certificates {
		if certificate.DeviceID == deviceID {
			certificates = append(certificates, certificate)
		}
	}

	sort.Slice(certificates, func(i, j int) bool {
		return certificates[i].CreationTimestamp.After(certificates[j].CreationTimestamp)
	})

	return certificates, nil
}

func (s *InMemoryCertificatesStore) SelectActiveByDeviceID(ctx context.Context, deviceID string) (bool, *models.DeviceCertificate, error) {
	certificates, err := s.SelectByDeviceID(ctx, deviceID)
	if err != nil {
		return false, nil, err
	}

	for _, certificate := range certificates {
		if certificate.Status == models.CertificateActive {
			found := certificate
			return true, &found, nil
		}
	}

	return false, nil, nil
}
