package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dormbill_requests_total",
			Help: "Total number of API requests per route",
		},
		[]string{"route"},
	)

	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dormbill_request_duration_seconds",
			Help:    "Request duration in seconds per route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dormbill_request_errors_total",
			Help: "Total number of error responses per route and status code",
		},
		[]string{"route", "code"},
	)

	CalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dormbill_calculations_total",
			Help: "Bill calculations by mode (preview, issue) and outcome",
		},
		[]string{"mode", "outcome"},
	)

	CalculationDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dormbill_calculation_duration_seconds",
			Help:    "Time spent composing a bill",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1},
		},
	)

	BillsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dormbill_bills_issued_total",
			Help: "Total number of bills persisted",
		},
	)

	BillsOverdueTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dormbill_bills_marked_overdue_total",
			Help: "Total number of bills moved to overdue by the sweep job",
		},
	)

	ReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dormbill_reports_total",
			Help: "Maintenance report events (submitted, approved, declined, deleted)",
		},
		[]string{"event"},
	)
)

var (
	ScheduledJobLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dormbill_job_last_run_timestamp",
			Help: "Unix timestamp of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobLastDurationSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dormbill_job_last_duration_seconds",
			Help: "Duration of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dormbill_job_failures_total",
			Help: "Total number of failed executions per job",
		},
		[]string{"job"},
	)
)

// ObserveCalculation records the outcome of one bill calculation.
func ObserveCalculation(mode string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	CalculationsTotal.WithLabelValues(mode, outcome).Inc()
}

func UpdateJobMetrics(job string, startedAt time.Time, err error) {
	dur := time.Since(startedAt).Seconds()
	ScheduledJobLastDurationSeconds.WithLabelValues(job).Set(dur)
	ScheduledJobLastRun.WithLabelValues(job).Set(float64(time.Now().Unix()))
	if err != nil {
		ScheduledJobFailuresTotal.WithLabelValues(job).Inc()
	}
}
