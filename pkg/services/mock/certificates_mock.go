package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/services"
)

type MockCertificatesService struct {
	mock.Mock
}

func (m *MockCertificatesService) IssueCertificate(ctx context.Context, input services.IssueCertificateInput) (*services.CertificateIssueOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CertificateIssueOutput), args.Error(1)
}

func (m *MockCertificatesService) ActivateCertificate(ctx context.Context, input services.ActivateCertificateInput) (*models.DeviceCertificate, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeviceCertificate), args.Error(1)
}

func (m *MockCertificatesService) RotateCertificate(ctx context.Context, input services.RotateCertificateInput) (*services.CertificateIssueOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CertificateIssueOutput), args.Error(1)
}

func (m *MockCertificatesService) RevokeCertificate(ctx context.Context, input services.RevokeCertificateInput) (*models.DeviceCertificate, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeviceCertificate), args.Error(1)
}

func (m *MockCertificatesService) ValidateCertificate(ctx context.Context, input services.ValidateCertificateInput) (*services.CertificateValidationOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CertificateValidationOutput), args.Error(1)
}

func (m *MockCertificatesService) GetDeviceCertificates(ctx context.Context, input services.GetDeviceCertificatesInput) ([]models.DeviceCertificate, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DeviceCertificate), args.Error(1)
}
