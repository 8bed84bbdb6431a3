package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anemonelabs/anemone-cloud/pkg/controllers"
	"github.com/anemonelabs/anemone-cloud/pkg/services"
)

// NewDeviceManagerHTTPLayer wires the operator-facing surface: device
// lifecycle, provisioning, registration, certificates and command dispatch.
func NewDeviceManagerHTTPLayer(router *gin.RouterGroup, devSvc services.DeviceManagerService, certSvc services.CertificatesService, iotSvc services.DeviceIotService, logger *logrus.Entry) {
	devRoutes := controllers.NewDeviceManagerHttpRoutes(devSvc)
	certRoutes := controllers.NewCertificatesHttpRoutes(certSvc)
	iotRoutes := controllers.NewDeviceIotHttpRoutes(iotSvc)

	rv1 := router.Group("/v1")

	rv1.GET("/stats", devRoutes.GetStats)
	rv1.GET("/devices", devRoutes.GetAllDevices)
	rv1.POST("/devices", devRoutes.CreateDevice)
	rv1.GET("/devices/:id", devRoutes.GetDeviceByID)
	rv1.POST("/devices/:id/provision", devRoutes.ProvisionDevice)
	rv1.POST("/devices/:id/register", devRoutes.RegisterDevice)
	rv1.PUT("/devices/:id/firmware", devRoutes.UpdateFirmwareVersion)
	rv1.DELETE("/devices/:id/decommission", devRoutes.DecommissionDevice)

	rv1.GET("/devices/:id/certificates", certRoutes.GetDeviceCertificates)
	rv1.POST("/devices/:id/certificates/rotation", certRoutes.RotateCertificate)
	rv1.POST("/certificates/:certId/activate", certRoutes.ActivateCertificate)
	rv1.POST("/certificates/:certId/revoke", certRoutes.RevokeCertificate)
	rv1.GET("/certificates/:certId/validation", certRoutes.ValidateCertificate)

	rv1.GET("/devices/:id/cartridges", iotRoutes.GetDeviceCartridges)
	rv1.POST("/devices/:id/commands", iotRoutes.EnqueueCommand)
}
