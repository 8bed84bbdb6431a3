package jobs

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anemonelabs/anemone-cloud/pkg/helpers"
	"github.com/anemonelabs/anemone-cloud/pkg/services"
)

// DeviceOfflineMonitor demotes connected devices whose heartbeat has gone
// stale. It is the only writer that disconnects a device without an explicit
// user action.
type DeviceOfflineMonitor struct {
	logger    *logrus.Entry
	service   services.DeviceIotService
	staleness time.Duration
}

func NewDeviceOfflineMonitorJob(service services.DeviceIotService, staleness time.Duration, logger *logrus.Entry) *DeviceOfflineMonitor {
	return &DeviceOfflineMonitor{
		service:   service,
		logger:    logger,
		staleness: staleness,
	}
}

func (svc *DeviceOfflineMonitor) Run() {
	ctx := helpers.InitContext()
	lFunc := helpers.ConfigureLogger(ctx, svc.logger)

	demoted, err := svc.service.SweepDisconnected(ctx, services.SweepDisconnectedInput{
		StalenessThreshold: svc.staleness,
	})
	if err != nil {
		lFunc.Errorf("device offline sweep failed: %s", err)
		return
	}

	if demoted > 0 {
		lFunc.Infof("device offline sweep demoted %d device(s)", demoted)
	}
}
