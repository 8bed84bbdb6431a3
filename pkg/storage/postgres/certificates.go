package postgres

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/storage"
)

type PostgresCertificatesStore struct {
	db      *gorm.DB
	querier *postgresDBQuerier[models.DeviceCertificate]
}

func NewCertificatesRepository(logger *logrus.Entry, db *gorm.DB) (storage.CertificatesRepo, error) {
	if err := db.AutoMigrate(&models.DeviceCertificate{}); err != nil {
		return nil, err
	}

	return &PostgresCertificatesStore{
		db:      db,
		querier: newPostgresDBQuerier[models.DeviceCertificate](db, "device_certificates", "id"),
	}, nil
}

func (db *PostgresCertificatesStore) Insert(ctx context.Context, certificate *models.DeviceCertificate) (*models.DeviceCertificate, error) {
	return db.querier.Insert(ctx, certificate)
}

func (db *PostgresCertificatesStore) Update(ctx context.Context, certificate *models.DeviceCertificate) (*models.DeviceCertificate, error) {
	return db.querier.Update(ctx, certificate, certificate.ID)
}

func (db *PostgresCertificatesStore) SelectExistsByCertificateID(ctx context.Context, certificateID string) (bool, *models.DeviceCertificate, error) {
	queryCol := "certificate_id"
	return db.querier.SelectExists(ctx, certificateID, &queryCol)
}

func (db *PostgresCertificatesStore) SelectByDeviceID(ctx context.Context, deviceID string) ([]models.DeviceCertificate, error) {
	opts := []gormExtraOps{
		{query: "device_id = ?", additionalWhere: []any{deviceID}},
	}

	certificates := []models.DeviceCertificate{}
	err := db.querier.SelectAll(ctx, opts, "creation_timestamp desc", func(cert models.DeviceCertificate) {
		certificates = append(certificates, cert)
	})
	if err != nil {
		return nil, err
	}

	return certificates, nil
}

func (db *PostgresCertificatesStore) SelectActiveByDeviceID(ctx context.Context, deviceID string) (bool, *models.DeviceCertificate, error) {
	opts := []gormExtraOps{
		{query: "device_id = ?", additionalWhere: []any{deviceID}},
		{query: "status = ?", additionalWhere: []any{models.CertificateActive}},
	}
	return db.querier.SelectFirst(ctx, opts, "creation_timestamp desc")
}
