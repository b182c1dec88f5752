package experiment

import (
	"math"
	"sort"
)

// Stats describes a sample of delays in simulated seconds.
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// newStats expects a sorted sample.
func newStats(xs []float64) Stats {
	s := Stats{Count: len(xs)}
	if len(xs) == 0 {
		return s
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	s.Mean = sum / float64(len(xs))
	s.Min, s.Max = xs[0], xs[len(xs)-1]
	mid := len(xs) / 2
	if len(xs)%2 == 0 {
		s.Median = (xs[mid-1] + xs[mid]) / 2
	} else {
		s.Median = xs[mid]
	}
	var sq float64
	for _, x := range xs {
		sq += (x - s.Mean) * (x - s.Mean)
	}
	s.Std = math.Sqrt(sq / float64(len(xs)))
	s.Mean, s.Median, s.Std = round(s.Mean, 3), round(s.Median, 3), round(s.Std, 3)
	s.Min, s.Max = round(s.Min, 3), round(s.Max, 3)
	return s
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// percent returns part/whole in percent with one decimal, or 0 for an empty whole.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round(float64(part)/float64(whole)*100, 1)
}

// DroneStats counts drones by classification and fate.
type DroneStats struct {
	Total              int `json:"total"`
	Hostile            int `json:"hostile"`
	Neutral            int `json:"neutral"`
	Detected           int `json:"detected"`
	Engaged            int `json:"engaged"`
	Neutralized        int `json:"neutralized"`
	HostileNeutralized int `json:"hostile_neutralized"`
}

// DetectionStats summarizes sensor output.
type DetectionStats struct {
	Radar          int     `json:"radar_detections"`
	FalseAlarms    int     `json:"false_alarms"`
	FalseAlarmRate float64 `json:"false_alarm_rate"`
	Audio          int     `json:"audio_detections"`
	Delay          Stats   `json:"delay"`
}

// EngagementStats summarizes launch decisions.
type EngagementStats struct {
	Commands     int     `json:"commands"`
	EngagedRatio float64 `json:"engaged_ratio"`
	Delay        Stats   `json:"delay"`
}

// InterceptionStats summarizes resolved engagements.
type InterceptionStats struct {
	Attempts           int            `json:"attempts"`
	Successes          int            `json:"successes"`
	Failures           int            `json:"failures"`
	SuccessRate        float64        `json:"success_rate"`
	NeutralizationRate float64        `json:"neutralization_rate"`
	FailureReasons     map[string]int `json:"failure_reasons"`
}

// Metrics is the measured outcome of one or more runs. Rates are percentages.
type Metrics struct {
	Drones       DroneStats        `json:"drones"`
	Detection    DetectionStats    `json:"detection"`
	Engagement   EngagementStats   `json:"engagement"`
	Interception InterceptionStats `json:"interception"`
	EventTotals  map[string]int    `json:"event_totals"`
}

// finish derives the rates and delay statistics from the counters.
func (m *Metrics) finish(s samples) {
	m.Detection.FalseAlarmRate = percent(m.Detection.FalseAlarms, m.Detection.Radar)
	m.Detection.Delay = newStats(s.detection)
	m.Engagement.EngagedRatio = percent(m.Drones.Engaged, m.Drones.Detected)
	m.Engagement.Delay = newStats(s.engagement)
	m.Interception.SuccessRate = percent(m.Interception.Successes, m.Interception.Attempts)
	m.Interception.NeutralizationRate = percent(m.Drones.HostileNeutralized, m.Drones.Hostile)
}

// add accumulates the counters of o into m. Rates are recomputed by finish.
func (m *Metrics) add(o Metrics) {
	m.Drones.Total += o.Drones.Total
	m.Drones.Hostile += o.Drones.Hostile
	m.Drones.Neutral += o.Drones.Neutral
	m.Drones.Detected += o.Drones.Detected
	m.Drones.Engaged += o.Drones.Engaged
	m.Drones.Neutralized += o.Drones.Neutralized
	m.Drones.HostileNeutralized += o.Drones.HostileNeutralized
	m.Detection.Radar += o.Detection.Radar
	m.Detection.FalseAlarms += o.Detection.FalseAlarms
	m.Detection.Audio += o.Detection.Audio
	m.Engagement.Commands += o.Engagement.Commands
	m.Interception.Attempts += o.Interception.Attempts
	m.Interception.Successes += o.Interception.Successes
	m.Interception.Failures += o.Interception.Failures
	if m.Interception.FailureReasons == nil {
		m.Interception.FailureReasons = make(map[string]int)
	}
	for k, v := range o.Interception.FailureReasons {
		m.Interception.FailureReasons[k] += v
	}
	if m.EventTotals == nil {
		m.EventTotals = make(map[string]int)
	}
	for k, v := range o.EventTotals {
		m.EventTotals[k] += v
	}
}

// Count is a named tally used for ranked listings.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// top returns the n largest entries of m, ties broken by name.
func top(m map[string]int, n int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
