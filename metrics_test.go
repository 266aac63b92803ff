package collector

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMetricsCollect(t *testing.T) {
	m := NewMetrics()
	m.FetchRounds.Inc()
	m.CacheHits.Add(2)

	ch := make(chan prometheus.Metric, 4)
	m.Collect(ch)
	close(ch)

	var got int
	for metric := range ch {
		got++
		var pb dto.Metric
		if err := metric.Write(&pb); err != nil {
			t.Fatal(err)
		}
	}
	if got != 4 {
		t.Errorf("got %d collected metrics, want 4", got)
	}
}
