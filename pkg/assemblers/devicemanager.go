package assemblers

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/anemonelabs/anemone-cloud/pkg/config"
	"github.com/anemonelabs/anemone-cloud/pkg/eventbus"
	"github.com/anemonelabs/anemone-cloud/pkg/fsstorage"
	"github.com/anemonelabs/anemone-cloud/pkg/helpers"
	"github.com/anemonelabs/anemone-cloud/pkg/iotplatform"
	"github.com/anemonelabs/anemone-cloud/pkg/jobs"
	"github.com/anemonelabs/anemone-cloud/pkg/middlewares/eventpub"
	"github.com/anemonelabs/anemone-cloud/pkg/models"
	"github.com/anemonelabs/anemone-cloud/pkg/routes"
	"github.com/anemonelabs/anemone-cloud/pkg/services"
	"github.com/anemonelabs/anemone-cloud/pkg/storage"
	"github.com/anemonelabs/anemone-cloud/pkg/storage/memory"
	"github.com/anemonelabs/anemone-cloud/pkg/storage/postgres"
)

// DeviceManagerAssembly groups everything the device manager runtime is made
// of: the three service layers, the repositories the HTTP middlewares need,
// and the offline sweep scheduler (nil when monitoring is disabled).
type DeviceManagerAssembly struct {
	DeviceManager       services.DeviceManagerService
	Certificates        services.CertificatesService
	DeviceIot           services.DeviceIotService
	DevicesStorage      storage.DevicesRepo
	CertificatesStorage storage.CertificatesRepo
	SweepScheduler      *jobs.JobScheduler
}

func AssembleDeviceManagerServiceWithHTTPServer(conf config.DeviceManagerConfig, apiInfo models.APIServiceInfo) (*DeviceManagerAssembly, int, error) {
	assembly, err := AssembleDeviceManagerService(conf)
	if err != nil {
		return nil, -1, fmt.Errorf("could not assemble Device Manager Service: %s", err)
	}

	lHttp := helpers.SetupLogger(conf.Server.LogLevel, "Device Manager", "HTTP Server")

	httpEngine := routes.NewGinEngine(lHttp)
	httpGrp := httpEngine.Group("/")

	routes.NewDeviceManagerHTTPLayer(httpGrp, assembly.DeviceManager, assembly.Certificates, assembly.DeviceIot, lHttp)
	routes.NewDeviceIotHTTPLayer(httpGrp, assembly.DeviceIot, assembly.DevicesStorage, assembly.CertificatesStorage, lHttp)

	port, err := routes.RunHttpRouter(lHttp, httpEngine, conf.Server, apiInfo)
	if err != nil {
		return nil, -1, fmt.Errorf("could not run Device Manager http server: %s", err)
	}

	return assembly, port, nil
}

func AssembleDeviceManagerService(conf config.DeviceManagerConfig) (*DeviceManagerAssembly, error) {
	lSvc := helpers.SetupLogger(conf.Logs.Level, "Device Manager", "Service")
	lStorage := helpers.SetupLogger(conf.Storage.LogLevel, "Device Manager", "Storage")
	lIotPlatform := helpers.SetupLogger(conf.IotPlatform.LogLevel, "Device Manager", "IoT Platform")
	lBlobStorage := helpers.SetupLogger(conf.BlobStorage.LogLevel, "Device Manager", "Blob Storage")
	lMessaging := helpers.SetupLogger(conf.PublisherEventBus.LogLevel, "Device Manager", "Event Bus")

	devicesStorage, productsStorage, certificatesStorage, cartridgesStorage, commandsStorage, err := createStorageInstances(lStorage, conf.Storage)
	if err != nil {
		return nil, fmt.Errorf("could not create storage instances: %s", err)
	}

	iotCore, err := iotplatform.NewAWSIotPlatformService(iotplatform.AWSIotPlatformBuilder{
		Logger: lIotPlatform,
		Config: conf.IotPlatform,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create IoT platform service: %s", err)
	}

	blobStorage, err := fsstorage.NewBlobStorageService(fsstorage.BlobStorageBuilder{
		Logger: lBlobStorage,
		Config: conf.BlobStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create blob storage service: %s", err)
	}

	certSvc := services.NewCertificatesService(services.CertificatesBuilder{
		Logger:              lSvc,
		DevicesStorage:      devicesStorage,
		CertificatesStorage: certificatesStorage,
		IotCore:             iotCore,
		ObjectStorage:       blobStorage,
		DownloadURLTTL:      conf.BlobStorage.DownloadURLTTL,
	})

	devSvc := services.NewDeviceManagerService(services.DeviceManagerBuilder{
		Logger:                lSvc,
		DevicesStorage:        devicesStorage,
		ProductsStorage:       productsStorage,
		CertificatesService:   certSvc,
		IotCore:               iotCore,
		RegistrationFreshness: conf.Monitoring.RegistrationFreshness,
	})
	deviceManagerService := devSvc.(*services.DeviceManagerServiceBackend)

	iotSvc := services.NewDeviceIotService(services.DeviceIotBuilder{
		Logger:             lSvc,
		DevicesStorage:     devicesStorage,
		CartridgesStorage:  cartridgesStorage,
		CommandsStorage:    commandsStorage,
		ProductsStorage:    productsStorage,
		StalenessThreshold: conf.Monitoring.HeartbeatStaleness,
	})

	if conf.PublisherEventBus.Enabled {
		lMessaging.Infof("event bus is enabled")
		pub, _ := eventbus.NewGoChannelPubSub(lMessaging)

		eventMWPub := &eventpub.CloudEventPublisher{
			Publisher: pub,
			ServiceID: models.DeviceManagerSource,
			Logger:    lMessaging,
		}

		devSvc = eventpub.NewDeviceEventPublisher(eventMWPub)(devSvc)
	}

	deviceManagerService.SetService(devSvc)

	var scheduler *jobs.JobScheduler
	if conf.Monitoring.Enabled {
		monitorJob := jobs.NewDeviceOfflineMonitorJob(iotSvc, conf.Monitoring.HeartbeatStaleness, lSvc)
		scheduler = jobs.NewJobScheduler(lSvc, conf.Monitoring.SweepFrequency, monitorJob)
		scheduler.Start()
	} else {
		lSvc.Warnf("device connection monitoring is disabled")
	}

	return &DeviceManagerAssembly{
		DeviceManager:       devSvc,
		Certificates:        certSvc,
		DeviceIot:           iotSvc,
		DevicesStorage:      devicesStorage,
		CertificatesStorage: certificatesStorage,
		SweepScheduler:      scheduler,
	}, nil
}

// createStorageInstances builds the five repositories. An empty postgres
// hostname selects the in-memory stores, meant for local development and
// tests only.
func createStorageInstances(logger *logrus.Entry, conf config.PostgresConfig) (storage.DevicesRepo, storage.ProductsRepo, storage.CertificatesRepo, storage.CartridgesRepo, storage.CommandsRepo, error) {
	if conf.Hostname == "" {
		logger.Warnf("no postgres hostname configured. Using volatile in-memory storage")
		return memory.NewDevicesRepository(), memory.NewProductsRepository(), memory.NewCertificatesRepository(), memory.NewCartridgesRepository(), memory.NewCommandsRepository(), nil
	}

	db, err := postgres.CreatePostgresDBConnection(logger, conf)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("could not connect to postgres: %s", err)
	}

	devicesStorage, err := postgres.NewDevicesRepository(logger, db)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("could not initialize devices repository: %s", err)
	}

	productsStorage, err := postgres.NewProductsRepository(logger, db)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("could not initialize products repository: %s", err)
	}

	certificatesStorage, err := postgres.NewCertificatesRepository(logger, db)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("could not initialize certificates repository: %s", err)
	}

	cartridgesStorage, err := postgres.NewCartridgesRepository(logger, db)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("could not initialize cartridges repository: %s", err)
	}

	commandsStorage, err := postgres.NewCommandsRepository(logger, db)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("could not initialize commands repository: %s", err)
	}

	return devicesStorage, productsStorage, certificatesStorage, cartridgesStorage, commandsStorage, nil
}
