package jobs

import (
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// JobScheduler wraps a cron runner around a single periodic job. Six-field
// cron expressions enable second-level cadences, used by the device offline
// sweep in development setups.
type JobScheduler struct {
	scheduler *cron.Cron
	logger    *logrus.Entry
	job       cron.Job
	entryID   cron.EntryID
}

func NewJobScheduler(logger *logrus.Entry, frequency string, job cron.Job) *JobScheduler {
	scheduler := cron.New()

	logger.Infof("scheduling periodic job with cron expression: '%s'", frequency)
	if strings.Count(frequency, " ") == 5 {
		logger.Warn("cron expression uses second-level scheduling. This may cause load issues in production scenarios")
		scheduler = cron.New(cron.WithSeconds())
	}

	var entryID cron.EntryID
	if job != nil {
		var err error
		entryID, err = scheduler.AddJob(frequency, job)
		if err != nil {
			logger.Errorf("could not schedule job: %v", err)
		}
	}

	return &JobScheduler{
		scheduler: scheduler,
		logger:    logger,
		job:       job,
		entryID:   entryID,
	}
}

func (js *JobScheduler) Start() {
	js.scheduler.Start()
}

func (js *JobScheduler) NextRun() time.Time {
	return js.scheduler.Entry(js.entryID).Next
}

func (js *JobScheduler) Stop() {
	js.scheduler.Remove(js.entryID)
	<-js.scheduler.Stop().Done()
}
