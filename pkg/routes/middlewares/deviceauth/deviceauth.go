package deviceauth

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anemonelabs/anemone-cloud/pkg/helpers"
	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/storage"
)

const (
	DeviceIDHeader      = "X-Device-Id"
	CertificateIDHeader = "X-Certificate-Id"
)

// DeviceAuthMiddleware authenticates device-facing requests: the caller must
// present a known device id together with the id of a certificate that
// belongs to that device and is still ACTIVE. The authenticated device id is
// placed in the request context for the handlers.
func DeviceAuthMiddleware(logger *logrus.Entry, devicesStorage storage.DevicesRepo, certificatesStorage storage.CertificatesRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceID := c.GetHeader(DeviceIDHeader)
		certificateID := c.GetHeader(CertificateIDHeader)

		if deviceID == "" || certificateID == "" {
			c.AbortWithStatusJSON(401, gin.H{"err": "missing device credentials"})
			return
		}

		deviceExists, device, err := devicesStorage.SelectExists(c.Request.Context(), deviceID)
		if err != nil {
			logger.Errorf("could not check device '%s' during authentication: %s", deviceID, err)
			c.AbortWithStatusJSON(500, gin.H{"err": "could not authenticate device"})
			return
		}
		if !deviceExists {
			logger.Warnf("authentication attempt with unknown device id '%s'", deviceID)
			c.AbortWithStatusJSON(401, gin.H{"err": "invalid device credentials"})
			return
		}

		certExists, certificate, err := certificatesStorage.SelectExistsByCertificateID(c.Request.Context(), certificateID)
		if err != nil {
			logger.Errorf("could not check certificate '%s' during authentication: %s", certificateID, err)
			c.AbortWithStatusJSON(500, gin.H{"err": "could not authenticate device"})
			return
		}
		if !certExists || certificate.DeviceID != device.ID || certificate.Status != models.CertificateActive {
			logger.Warnf("device '%s' presented an invalid or inactive certificate '%s'", deviceID, certificateID)
			c.AbortWithStatusJSON(401, gin.H{"err": "invalid device credentials"})
			return
		}

		c.Set(helpers.CtxDeviceID, device.ID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), helpers.CtxDeviceID, device.ID))
		c.Next()
	}
}
