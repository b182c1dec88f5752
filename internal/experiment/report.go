package experiment

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	goodColor    = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	badColor     = color.New(color.FgRed, color.Bold)
)

// WriteReport prints a human readable summary to w.
func WriteReport(w io.Writer, s *Summary) {
	m := s.Metrics
	headingColor.Fprintln(w, "Experiment Summary")
	fmt.Fprintf(w, "generated %s, %d run(s), scenarios %s\n\n", s.GeneratedAt.Format("2006-01-02 15:04:05 MST"), s.Runs, strings.Join(s.Scenarios, ", "))

	section(w, "Drones", func(tw io.Writer) {
		fmt.Fprintf(tw, "Total:\t%d (hostile %d, neutral %d)\n", m.Drones.Total, m.Drones.Hostile, m.Drones.Neutral)
		fmt.Fprintf(tw, "Detected:\t%d\n", m.Drones.Detected)
		fmt.Fprintf(tw, "Engaged:\t%d\n", m.Drones.Engaged)
		fmt.Fprintf(tw, "Neutralized:\t%d\n", m.Drones.Neutralized)
	})
	section(w, "Detection", func(tw io.Writer) {
		fmt.Fprintf(tw, "Radar detections:\t%d\n", m.Detection.Radar)
		fmt.Fprintf(tw, "False alarms:\t%d (%s)\n", m.Detection.FalseAlarms, rate(m.Detection.FalseAlarmRate, 2, 5, false))
		fmt.Fprintf(tw, "Audio detections:\t%d\n", m.Detection.Audio)
		fmt.Fprintf(tw, "Detection delay:\t%s\n", delay(m.Detection.Delay))
	})
	section(w, "Engagement", func(tw io.Writer) {
		fmt.Fprintf(tw, "Commands:\t%d\n", m.Engagement.Commands)
		fmt.Fprintf(tw, "Engaged ratio:\t%s\n", rate(m.Engagement.EngagedRatio, 30, 30, true))
		fmt.Fprintf(tw, "Engagement delay:\t%s\n", delay(m.Engagement.Delay))
	})
	section(w, "Interception", func(tw io.Writer) {
		fmt.Fprintf(tw, "Attempts:\t%d\n", m.Interception.Attempts)
		fmt.Fprintf(tw, "Successes:\t%d\n", m.Interception.Successes)
		fmt.Fprintf(tw, "Failures:\t%d\n", m.Interception.Failures)
		fmt.Fprintf(tw, "Success rate:\t%s\n", rate(m.Interception.SuccessRate, 75, 50, true))
		fmt.Fprintf(tw, "Neutralization rate:\t%s\n", rate(m.Interception.NeutralizationRate, 20, 20, true))
		for _, f := range s.TopFailures {
			fmt.Fprintf(tw, "  %s:\t%d\n", f.Name, f.Count)
		}
	})
	section(w, "Events", func(tw io.Writer) {
		for _, c := range s.TopEvents {
			fmt.Fprintf(tw, "%s:\t%d\n", c.Name, c.Count)
		}
	})

	headingColor.Fprintln(w, "Improvement Points")
	for i, p := range s.ImprovementPoints {
		fmt.Fprintf(w, "%d. %s\n", i+1, p)
	}
}

func section(w io.Writer, title string, body func(io.Writer)) {
	headingColor.Fprintln(w, title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	body(tw)
	tw.Flush()
	fmt.Fprintln(w)
}

// rate colors a percentage. With higherIsBetter, values at or above good are
// green and values below bad are red; otherwise the comparison is inverted.
func rate(v, good, bad float64, higherIsBetter bool) string {
	s := fmt.Sprintf("%.1f%%", v)
	switch {
	case higherIsBetter && v >= good, !higherIsBetter && v <= good:
		return goodColor.Sprint(s)
	case higherIsBetter && v < bad, !higherIsBetter && v > bad:
		return badColor.Sprint(s)
	}
	return warnColor.Sprint(s)
}

func delay(s Stats) string {
	if s.Count == 0 {
		return "n/a"
	}
	return fmt.Sprintf("mean %.2fs, median %.2fs, std %.2fs, min %.2fs, max %.2fs (n=%d)", s.Mean, s.Median, s.Std, s.Min, s.Max, s.Count)
}
