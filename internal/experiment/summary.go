package experiment

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// failureLabels gives readable names to recorded failure reasons.
var failureLabels = map[string]string{
	"evaded":      "target evaded",
	"missed":      "terminal miss",
	"aborted":     "engagement aborted",
	"target_lost": "target lost before intercept",
}

// Summary aggregates a set of runs.
type Summary struct {
	GeneratedAt       time.Time    `json:"generated_at"`
	Runs              int          `json:"runs"`
	Scenarios         []string     `json:"scenarios"`
	Metrics           Metrics      `json:"metrics"`
	TopFailures       []Count      `json:"top_failures"`
	TopEvents         []Count      `json:"top_events"`
	Experiments       []*RunResult `json:"individual_experiments"`
	ImprovementPoints []string     `json:"improvement_points"`
}

// Summarize merges the runs into one Summary stamped with now.
func Summarize(runs []*RunResult, now time.Time) *Summary {
	s := &Summary{GeneratedAt: now.UTC(), Runs: len(runs), Experiments: runs}
	var all samples
	seen := make(map[string]bool)
	for _, r := range runs {
		s.Metrics.add(r.Metrics)
		all.detection = append(all.detection, r.samples.detection...)
		all.engagement = append(all.engagement, r.samples.engagement...)
		if !seen[r.ScenarioID] {
			seen[r.ScenarioID] = true
			s.Scenarios = append(s.Scenarios, r.ScenarioID)
		}
	}
	if s.Metrics.EventTotals == nil {
		s.Metrics.EventTotals = map[string]int{}
	}
	if s.Metrics.Interception.FailureReasons == nil {
		s.Metrics.Interception.FailureReasons = map[string]int{}
	}
	sort.Float64s(all.detection)
	sort.Float64s(all.engagement)
	s.Metrics.finish(all)
	s.TopFailures = top(s.Metrics.Interception.FailureReasons, 3)
	s.TopEvents = top(s.Metrics.EventTotals, 8)
	s.ImprovementPoints = improvementPoints(s.Metrics)
	return s
}

// improvementPoints turns the aggregated metrics into operator notes.
func improvementPoints(m Metrics) []string {
	var notes []string
	if m.Interception.Attempts > 0 {
		switch rate := m.Interception.SuccessRate; {
		case rate < 50:
			notes = append(notes, fmt.Sprintf("Intercept success rate is low (%.1f%%); review guidance tuning and engagement range.", rate))
		case rate < 75:
			notes = append(notes, fmt.Sprintf("Intercept success rate (%.1f%%) has room to improve.", rate))
		default:
			notes = append(notes, fmt.Sprintf("Intercept success rate is good (%.1f%%).", rate))
		}
	}
	if m.Detection.Radar > 0 {
		switch rate := m.Detection.FalseAlarmRate; {
		case rate > 5:
			notes = append(notes, fmt.Sprintf("False alarm rate is high (%.1f%%); raise the detection threshold or filter tracks.", rate))
		case rate > 2:
			notes = append(notes, fmt.Sprintf("False alarm rate (%.1f%%) should be monitored.", rate))
		default:
			notes = append(notes, fmt.Sprintf("False alarm rate is good (%.1f%%).", rate))
		}
	}
	if d := m.Detection.Delay; d.Count > 0 {
		switch {
		case d.Mean > 3:
			notes = append(notes, fmt.Sprintf("Mean detection delay is long (%.2fs); consider a faster scan rate or more sensor coverage.", d.Mean))
		case d.Mean > 1.5:
			notes = append(notes, fmt.Sprintf("Mean detection delay (%.2fs) can be improved.", d.Mean))
		default:
			notes = append(notes, fmt.Sprintf("Mean detection delay is good (%.2fs).", d.Mean))
		}
	}
	if m.Drones.Detected > 0 && m.Engagement.EngagedRatio < 30 {
		notes = append(notes, fmt.Sprintf("Only %.1f%% of detected drones were engaged; review the engagement doctrine.", m.Engagement.EngagedRatio))
	}
	if f := top(m.Interception.FailureReasons, 1); len(f) > 0 {
		label := failureLabels[f[0].Name]
		if label == "" {
			label = f[0].Name
		}
		notes = append(notes, fmt.Sprintf("Most common failure: %s (%d occurrences).", label, f[0].Count))
	}
	if m.Drones.Hostile > 0 && m.Interception.NeutralizationRate < 20 {
		notes = append(notes, fmt.Sprintf("Neutralization rate is low (%.1f%%); more interceptors or earlier engagement may help.", m.Interception.NeutralizationRate))
	}
	if m.Detection.Audio == 0 {
		notes = append(notes, "No acoustic detections were relayed; the audio classifier was inactive for these runs.")
	}
	return notes
}

// WriteJSON stores s as indented JSON at path.
func WriteJSON(path string, s *Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
