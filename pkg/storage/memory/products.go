package memory

import (
	"context"
	"sync"

	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/storage"
)

type InMemoryProductsStore struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

func NewProductsRepository() storage.ProductsRepo {
	return &InMemoryProductsStore{
		products: map[string]models.Product{},
	}
}

func (s *InMemoryProductsStore) Insert(ctx context.Context, product *models.Product) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[product.ID] = *product
	stored := s.products[product.ID]
	return &stored, nil
}

func (s *InMemoryProductsStore) SelectBySerialNumber(ctx context.Context, serialNumber string, productType models.ProductType) (bool, *models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, product := range s.products {
		if product.SerialNumber == serialNumber && product.Type == productType {
			found := product
			return true, &found, nil
		}
	}

	return false, nil, nil
}
