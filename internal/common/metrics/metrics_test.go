package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestJobTracker(t *testing.T) {
	const taskType = "metrics-test-task"

	completedBefore := testutil.ToFloat64(WorkerJobsCompleted.WithLabelValues(taskType))
	failedBefore := testutil.ToFloat64(WorkerJobsFailed.WithLabelValues(taskType, "COMPLETION_FAILED"))

	tracker := StartJob(taskType)
	assert.Equal(t, float64(1), testutil.ToFloat64(WorkerJobsActive.WithLabelValues(taskType)))
	tracker.Done("")

	StartJob(taskType).Done("COMPLETION_FAILED")

	assert.Equal(t, float64(0), testutil.ToFloat64(WorkerJobsActive.WithLabelValues(taskType)))
	assert.Equal(t, completedBefore+1, testutil.ToFloat64(WorkerJobsCompleted.WithLabelValues(taskType)))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(WorkerJobsFailed.WithLabelValues(taskType, "COMPLETION_FAILED")))
	assert.GreaterOrEqual(t, tracker.Elapsed().Nanoseconds(), int64(0))
}
