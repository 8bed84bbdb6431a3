package deviceauth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/anemonelabs/anemone-cloud/pkg/config"
	"github.com/anemonelabs/anemone-cloud/pkg/helpers"
	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/routes/middlewares/deviceauth"
	"github.com/anemonelabs/anemone-cloud/pkg/storage"
	"github.com/anemonelabs/anemone-cloud/pkg/storage/memory"
)

func setupAuthEngine(t *testing.T) (*gin.Engine, storage.DevicesRepo, storage.CertificatesRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	devicesRepo := memory.NewDevicesRepository()
	certsRepo := memory.NewCertificatesRepository()

	engine := gin.New()
	engine.Use(deviceauth.DeviceAuthMiddleware(helpers.SetupLogger(config.None, "test", "device-auth"), devicesRepo, certsRepo))
	engine.GET("/whoami", func(c *gin.Context) {
		c.JSON(200, gin.H{"device_id": c.GetString(helpers.CtxDeviceID)})
	})

	return engine, devicesRepo, certsRepo
}

func seedAuthenticatedDevice(t *testing.T, devicesRepo storage.DevicesRepo, certsRepo storage.CertificatesRepo, status models.CertificateStatus) {
	t.Helper()

	_, err := devicesRepo.Insert(context.Background(), &models.Device{
		ID:                "dev-1",
		SerialNumber:      "SN-100",
		CreationTimestamp: time.Now(),
	})
	assert.NoError(t, err)

	_, err = certsRepo.Insert(context.Background(), &models.DeviceCertificate{
		ID:                "rec-1",
		DeviceID:          "dev-1",
		CertificateID:     "cert-1",
		Status:            status,
		CreationTimestamp: time.Now(),
	})
	assert.NoError(t, err)
}

func doAuthRequest(engine *gin.Engine, deviceID, certificateID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if deviceID != "" {
		req.Header.Set(deviceauth.DeviceIDHeader, deviceID)
	}
	if certificateID != "" {
		req.Header.Set(deviceauth.CertificateIDHeader, certificateID)
	}

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func TestDeviceAuthAcceptsActiveCertificate(t *testing.T) {
	engine, devicesRepo, certsRepo := setupAuthEngine(t)
	seedAuthenticatedDevice(t, devicesRepo, certsRepo, models.CertificateActive)

	recorder := doAuthRequest(engine, "dev-1", "cert-1")
	assert.Equal(t, 200, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "dev-1")
}

func TestDeviceAuthRejectsMissingHeaders(t *testing.T) {
	engine, _, _ := setupAuthEngine(t)

	assert.Equal(t, 401, doAuthRequest(engine, "", "").Code)
	assert.Equal(t, 401, doAuthRequest(engine, "dev-1", "").Code)
	assert.Equal(t, 401, doAuthRequest(engine, "", "cert-1").Code)
}

func TestDeviceAuthRejectsUnknownDevice(t *testing.T) {
	engine, _, _ := setupAuthEngine(t)

	assert.Equal(t, 401, doAuthRequest(engine, "ghost", "cert-1").Code)
}

func TestDeviceAuthRejectsInactiveCertificate(t *testing.T) {
	engine, devicesRepo, certsRepo := setupAuthEngine(t)
	seedAuthenticatedDevice(t, devicesRepo, certsRepo, models.CertificateRevoked)

	assert.Equal(t, 401, doAuthRequest(engine, "dev-1", "cert-1").Code)
}

func TestDeviceAuthRejectsForeignCertificate(t *testing.T) {
	engine, devicesRepo, certsRepo := setupAuthEngine(t)
	seedAuthenticatedDevice(t, devicesRepo, certsRepo, models.CertificateActive)

	_, err := devicesRepo.Insert(context.Background(), &models.Device{
		ID:                "dev-2",
		SerialNumber:      "SN-200",
		CreationTimestamp: time.Now(),
	})
	assert.NoError(t, err)

	// dev-2 presenting dev-1's certificate must be turned away.
	assert.Equal(t, 401, doAuthRequest(engine, "dev-2", "cert-1").Code)
}
