package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCalculation(t *testing.T) {
	ok := testutil.ToFloat64(CalculationsTotal.WithLabelValues("preview", "ok"))
	rejected := testutil.ToFloat64(CalculationsTotal.WithLabelValues("preview", "rejected"))

	ObserveCalculation("preview", nil)
	ObserveCalculation("preview", errors.New("bad reading"))
	ObserveCalculation("preview", nil)

	assert.Equal(t, ok+2, testutil.ToFloat64(CalculationsTotal.WithLabelValues("preview", "ok")))
	assert.Equal(t, rejected+1, testutil.ToFloat64(CalculationsTotal.WithLabelValues("preview", "rejected")))
}

func TestUpdateJobMetrics(t *testing.T) {
	failures := testutil.ToFloat64(ScheduledJobFailuresTotal.WithLabelValues("test_job"))

	UpdateJobMetrics("test_job", time.Now().Add(-2*time.Second), nil)
	assert.GreaterOrEqual(t, testutil.ToFloat64(ScheduledJobLastDurationSeconds.WithLabelValues("test_job")), 2.0)
	assert.Equal(t, failures, testutil.ToFloat64(ScheduledJobFailuresTotal.WithLabelValues("test_job")))

	UpdateJobMetrics("test_job", time.Now(), errors.New("boom"))
	assert.Equal(t, failures+1, testutil.ToFloat64(ScheduledJobFailuresTotal.WithLabelValues("test_job")))
}
