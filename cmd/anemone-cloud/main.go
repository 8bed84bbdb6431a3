package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/anemonelabs/anemone-cloud/pkg/assemblers"
	"github.com/anemonelabs/anemone-cloud/pkg/config"
	"github.com/anemonelabs/anemone-cloud/pkg/helpers"
	"github.com/anemonelabs/anemone-cloud/pkg/models"
)

var (
	version   = "v0"    // api version
	sha1ver   = "-"     // sha1 revision used to build the program
	buildTime = "devTS" // when the executable was built
)

func main() {
	conf, err := config.LoadConfig[config.DeviceManagerConfig](config.DeviceManagerDefaults())
	if err != nil {
		fmt.Printf("could not load config: %s. Exiting\n", err)
		os.Exit(1)
	}

	logger := helpers.SetupLogger(conf.Logs.Level, "Device Manager", "Launcher")
	logger.Infof("starting api: version=%s buildTime=%s sha1=%s", version, buildTime, sha1ver)

	apiInfo := models.APIServiceInfo{
		Version:   version,
		BuildSHA:  sha1ver,
		BuildTime: buildTime,
	}

	_, port, err := assemblers.AssembleDeviceManagerServiceWithHTTPServer(*conf, apiInfo)
	if err != nil {
		logger.Fatalf("could not assemble Device Manager: %s", err)
	}

	logger.Infof("Device Manager is ready to accept requests on port %d", port)

	forever := make(chan os.Signal, 1)
	signal.Notify(forever, syscall.SIGINT, syscall.SIGTERM)
	<-forever
	logger.Info("shutting down")
}
