package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	job := "payment-window-expiry"

	m.ObserveRun(job, 250*time.Millisecond, nil)
	m.ObserveRun(job, time.Second, nil)
	m.ObserveRun(job, 10*time.Millisecond, errors.New("boom"))

	mfs, err := reg.Gather()
	require.NoError(t, err)

	runs := findMetricFamily(mfs, "fulfillment_cron_job_runs_total")
	require.NotNil(t, runs)
	assert.Equal(t, 2.0, labelled(runs, map[string]string{"job": job, "outcome": CronOutcomeSuccess}).GetCounter().GetValue())
	assert.Equal(t, 1.0, labelled(runs, map[string]string{"job": job, "outcome": CronOutcomeFailure}).GetCounter().GetValue())

	duration := findMetricFamily(mfs, "fulfillment_cron_job_duration_seconds")
	require.NotNil(t, duration)
	hist := labelled(duration, map[string]string{"job": job}).GetHistogram()
	assert.Equal(t, uint64(3), hist.GetSampleCount())
	assert.InDelta(t, 1.26, hist.GetSampleSum(), 0.001)

	last := findMetricFamily(mfs, "fulfillment_cron_job_last_success_timestamp_seconds")
	require.NotNil(t, last)
	assert.Greater(t, labelled(last, map[string]string{"job": job}).GetGauge().GetValue(), 0.0)
}

func TestCronJobMetricsWithoutRegistererIsNoop(t *testing.T) {
	var nilMetrics *CronJobMetrics
	assert.NotPanics(t, func() {
		NewCronJobMetrics(nil).ObserveRun("job", time.Second, nil)
		nilMetrics.ObserveRun("job", time.Second, errors.New("x"))
	})
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

// labelled returns the series of mf whose labels include every pair in want.
func labelled(mf *dto.MetricFamily, want map[string]string) *dto.Metric {
	for _, metric := range mf.GetMetric() {
		matched := 0
		for _, pair := range metric.GetLabel() {
			if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
				matched++
			}
		}
		if matched == len(want) {
			return metric
		}
	}
	return nil
}
