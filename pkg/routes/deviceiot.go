package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anemonelabs/anemone-cloud/pkg/controllers"
	"github.com/anemonelabs/anemone-cloud/pkg/routes/middlewares/deviceauth"
	"github.com/anemonelabs/anemone-cloud/pkg/services"
	"github.com/anemonelabs/anemone-cloud/pkg/storage"
)

// NewDeviceIotHTTPLayer wires the device-facing surface. Every route sits
// behind the device auth middleware.
func NewDeviceIotHTTPLayer(router *gin.RouterGroup, svc services.DeviceIotService, devicesStorage storage.DevicesRepo, certificatesStorage storage.CertificatesRepo, logger *logrus.Entry) {
	routes := controllers.NewDeviceIotHttpRoutes(svc)

	rv1 := router.Group("/v1/iot")
	rv1.Use(deviceauth.DeviceAuthMiddleware(logger, devicesStorage, certificatesStorage))

	rv1.POST("/heartbeat", routes.Heartbeat)
	rv1.POST("/cartridges/sync", routes.SyncCartridges)
	rv1.PUT("/cartridges", routes.ReplaceCartridges)
	rv1.GET("/commands/next", routes.NextCommand)
	rv1.POST("/commands/:cmdId/ack", routes.AckCommand)
}
