package progress

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNoOpDoesNotPanic(t *testing.T) {
	var obs Observer = NoOp{}
	obs.BytesWritten(100)
	obs.ChunkCompleted(1)
	obs.CacheHit(true)
	obs.CacheHit(false)
}

func TestPrometheusObserverRecordsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewPrometheusObserver(reg)

	obs.BytesWritten(4096)
	obs.ChunkCompleted(0)
	obs.CacheHit(true)
	obs.CacheHit(false)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(metrics) != 4 {
		t.Fatalf("expected 4 registered metric families, got %d", len(metrics))
	}
}
