package jobs_test

import (
	"testing"
	"time"

	tmock "github.com/stretchr/testify/mock"

	"github.com/anemonelabs/anemone-cloud/pkg/config"
	"github.com/anemonelabs/anemone-cloud/pkg/helpers"
	"github.com/anemonelabs/anemone-cloud/pkg/jobs"
	"github.com/anemonelabs/anemone-cloud/pkg/services"
	"github.com/anemonelabs/anemone-cloud/pkg/services/mock"
)

func TestDeviceOfflineMonitorRunsSweep(t *testing.T) {
	iotService := &mock.MockDeviceIotService{}
	iotService.On("SweepDisconnected", tmock.Anything, services.SweepDisconnectedInput{StalenessThreshold: 30 * time.Second}).Return(2, nil).Once()

	monitor := jobs.NewDeviceOfflineMonitorJob(iotService, 30*time.Second, helpers.SetupLogger(config.None, "test", "monitoring"))
	monitor.Run()

	iotService.AssertExpectations(t)
}
