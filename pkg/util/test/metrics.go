package test

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func GetCounterValue(metric prometheus.Counter) (float64, error) {
	m := &dto.Metric{}
	if err := metric.Write(m); err != nil {
		return 0, err
	}
	return m.Counter.GetValue(), nil
}

func GetHistogramSampleCount(metric prometheus.Histogram) (uint64, error) {
	m := &dto.Metric{}
	if err := metric.Write(m); err != nil {
		return 0, err
	}
	return m.Histogram.GetSampleCount(), nil
}
