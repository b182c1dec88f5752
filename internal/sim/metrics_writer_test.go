package sim

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	out := make(map[string]float64)
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, l := range m.GetLabel() {
				key += "/" + l.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			}
		}
	}
	return out
}

func TestMetricsWriter(t *testing.T) {
	reg := prometheus.NewRegistry()
	w, err := NewMetricsWriter(reg)
	if err != nil {
		t.Fatalf("new metrics writer: %v", err)
	}
	if err := WriteAll(w, sampleEvents()); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := gather(t, reg)
	want := map[string]float64{
		"counterdrone_events_total/radar_detection":   1,
		"counterdrone_radar_detections_total/real":    1,
		"counterdrone_intercepts_total/SUCCESS":       1,
		"counterdrone_active_hostiles":                2,
		"counterdrone_neutralized_drones":             1,
		"counterdrone_available_interceptors":         1,
		"counterdrone_running":                        1,
		"counterdrone_sim_time_seconds":               2,
		"counterdrone_events_total/simulation_status": 1,
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s = %v, want %v", k, got[k], v)
		}
	}

	if _, err := NewMetricsWriter(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
