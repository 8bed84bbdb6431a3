package jobs_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/anemonelabs/anemone-cloud/pkg/config"
	"github.com/anemonelabs/anemone-cloud/pkg/helpers"
	"github.com/anemonelabs/anemone-cloud/pkg/jobs"
)

type countingJob struct {
	runs atomic.Int32
}

func (j *countingJob) Run() {
	j.runs.Add(1)
}

func TestJobSchedulerSecondLevelExpression(t *testing.T) {
	job := &countingJob{}
	scheduler := jobs.NewJobScheduler(helpers.SetupLogger(config.None, "test", "scheduler"), "* * * * * *", job)

	scheduler.Start()
	defer scheduler.Stop()

	next := scheduler.NextRun()
	assert.False(t, next.IsZero())
	assert.LessOrEqual(t, time.Until(next), time.Second+100*time.Millisecond)

	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond)
}

func TestJobSchedulerStandardExpression(t *testing.T) {
	job := &countingJob{}
	scheduler := jobs.NewJobScheduler(helpers.SetupLogger(config.None, "test", "scheduler"), "0 * * * *", job)

	scheduler.Start()
	defer scheduler.Stop()

	next := scheduler.NextRun()
	assert.False(t, next.IsZero())
	assert.LessOrEqual(t, time.Until(next), time.Hour)
}
