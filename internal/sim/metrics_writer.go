package sim

import (
	"github.com/prometheus/client_golang/prometheus"

	"counterdrone-sim/internal/telemetry"
)

const metricsNamespace = "counterdrone"

// MetricsWriter turns the event stream into Prometheus counters and gauges.
type MetricsWriter struct {
	events      *prometheus.CounterVec
	intercepts  *prometheus.CounterVec
	detections  *prometheus.CounterVec
	simTime     prometheus.Gauge
	hostiles    prometheus.Gauge
	neutralized prometheus.Gauge
	available   prometheus.Gauge
	running     prometheus.Gauge
}

// NewMetricsWriter registers the simulator metrics with reg.
func NewMetricsWriter(reg prometheus.Registerer) (*MetricsWriter, error) {
	m := &MetricsWriter{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Name: "events_total",
			Help: "Events emitted by the simulator, by type.",
		}, []string{"type"}),
		intercepts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Name: "intercepts_total",
			Help: "Resolved engagements, by result.",
		}, []string{"result"}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Name: "radar_detections_total",
			Help: "Radar returns, split into real and false alarms.",
		}, []string{"kind"}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace, Name: "sim_time_seconds",
			Help: "Simulated time of the last status event.",
		}),
		hostiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace, Name: "active_hostiles",
			Help: "Hostile drones not yet neutralized.",
		}),
		neutralized: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace, Name: "neutralized_drones",
			Help: "Drones neutralized in the current scenario.",
		}),
		available: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace, Name: "available_interceptors",
			Help: "Interceptors in standby.",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace, Name: "running",
			Help: "1 while the simulation is running.",
		}),
	}
	for _, c := range []prometheus.Collector{m.events, m.intercepts, m.detections, m.simTime, m.hostiles, m.neutralized, m.available, m.running} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// WriteEvent updates the metrics for one event.
func (m *MetricsWriter) WriteEvent(ev telemetry.Event) error {
	m.events.WithLabelValues(string(ev.Kind())).Inc()
	switch e := ev.(type) {
	case telemetry.RadarDetection:
		kind := "real"
		if e.IsFalseAlarm {
			kind = "false_alarm"
		}
		m.detections.WithLabelValues(kind).Inc()
	case telemetry.InterceptResult:
		m.intercepts.WithLabelValues(e.Result).Inc()
	case telemetry.SimulationStatus:
		m.simTime.Set(e.SimTime)
		m.hostiles.Set(float64(e.ActiveHostiles))
		m.neutralized.Set(float64(e.NeutralizedCount))
		m.available.Set(float64(e.AvailableInterceptors))
		if e.IsRunning {
			m.running.Set(1)
		} else {
			m.running.Set(0)
		}
	}
	return nil
}
