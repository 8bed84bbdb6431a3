package routes

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anemonelabs/anemone-cloud/pkg/config"
	"github.com/anemonelabs/anemone-cloud/pkg/controllers"
	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/routes/middlewares/headerextractors"
)

func NewGinEngine(logger *logrus.Entry) *gin.Engine {
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {
		logger.Debugf("Endpoint: %-6s %s", httpMethod, absolutePath)
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"*"}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		cors.New(corsConfig),
		headerextractors.RequestMetadataToContextMiddleware(logger),
	)

	return router
}

// RunHttpRouter serves the given engine plus a /health endpoint, blocking
// until the listener fails. Returns the bound port, useful when the config
// asks for port 0.
func RunHttpRouter(logger *logrus.Entry, routerEngine http.Handler, httpServerCfg config.HttpServer, apiInfo models.APIServiceInfo) (int, error) {
	hCheckRoute := controllers.NewHealthCheckRoute(apiInfo)
	healthLogger := logger
	if !httpServerCfg.HealthCheckLogging {
		nooutLogger := logrus.New()
		nooutLogger.Out = io.Discard
		healthLogger = nooutLogger.WithField("", "")
	}

	healthEngine := NewGinEngine(healthLogger)
	healthEngine.GET("/health", hCheckRoute.HealthCheck)

	mainEngine := http.NewServeMux()
	mainEngine.Handle("/", routerEngine)
	mainEngine.Handle("/health", healthEngine)

	addr := fmt.Sprintf("%s:%d", httpServerCfg.ListenAddress, httpServerCfg.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return -1, err
	}

	usedPort := listener.Addr().(*net.TCPAddr).Port

	t := time.Second * 10
	server := http.Server{
		Addr:         addr,
		Handler:      mainEngine,
		ReadTimeout:  t,
		WriteTimeout: t,
	}

	go func() {
		var srvErr error
		if httpServerCfg.Protocol == config.HTTPS {
			logger.Infof("listening on https://%s:%d", httpServerCfg.ListenAddress, usedPort)
			srvErr = server.ServeTLS(listener, httpServerCfg.CertFile, httpServerCfg.KeyFile)
		} else {
			logger.Infof("listening on http://%s:%d", httpServerCfg.ListenAddress, usedPort)
			srvErr = server.Serve(listener)
		}

		if srvErr != nil && srvErr != http.ErrServerClosed {
			logger.Fatalf("http server stopped: %s", srvErr)
		}
	}()

	return usedPort, nil
}
