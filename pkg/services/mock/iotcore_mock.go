package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/anemonelabs/anemone-cloud/pkg/services"
)

type MockIotCoreService struct {
	mock.Mock
}

func (m *MockIotCoreService) CreateThing(ctx context.Context, thingName string, attributes map[string]string) error {
	args := m.Called(ctx, thingName, attributes)
	return args.Error(0)
}

func (m *MockIotCoreService) CreateCertificateWithKeys(ctx context.Context) (*services.CertificateKeysOutput, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CertificateKeysOutput), args.Error(1)
}

func (m *MockIotCoreService) AttachCertificate(ctx context.Context, thingName string, certificateArn string) error {
	args := m.Called(ctx, thingName, certificateArn)
	return args.Error(0)
}

func (m *MockIotCoreService) UpdateCertificateStatus(ctx context.Context, certificateID string, status string) error {
	args := m.Called(ctx, certificateID, status)
	return args.Error(0)
}

func (m *MockIotCoreService) DescribeCertificate(ctx context.Context, certificateID string) (string, error) {
	args := m.Called(ctx, certificateID)
	return args.String(0), args.Error(1)
}

func (m *MockIotCoreService) DeleteThing(ctx context.Context, thingName string) error {
	args := m.Called(ctx, thingName)
	return args.Error(0)
}
