package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"proxycheck/internal/domain"
)

const separator = "--------------------------------------------------"

// Writer prints the line-oriented run report.
type Writer struct {
	out        io.Writer
	traceFirst int
	traceEvery int

	heading lipgloss.Style
	good    lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
}

func NewWriter(out io.Writer, traceFirst, traceEvery int) *Writer {
	renderer := lipgloss.NewRenderer(out)

	return &Writer{
		out:        out,
		traceFirst: traceFirst,
		traceEvery: traceEvery,
		heading:    renderer.NewStyle().Bold(true),
		good:       renderer.NewStyle().Foreground(lipgloss.Color("2")),
		warn:       renderer.NewStyle().Foreground(lipgloss.Color("3")),
		bad:        renderer.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// ShouldTrace selects the attempts echoed while a run is in progress: the first
// traceFirst, then every traceEvery-th. Failed attempts are always traced.
func (w *Writer) ShouldTrace(outcome domain.Outcome) bool {
	if !outcome.Succeeded() {
		return true
	}

	index := outcome.Attempt - 1
	if index < w.traceFirst {
		return true
	}
	return w.traceEvery > 0 && index%w.traceEvery == w.traceEvery-1
}

func (w *Writer) Header(cfg domain.ProbeConfig) {
	w.printf("Testing proxy with %d consecutive requests...\n", cfg.RequestCount)
	w.printf("Proxy: %s\n", cfg.Proxy.Redacted())
	w.printf("Target: %s\n", cfg.TargetURL)
	w.println(separator)
}

// Progress has the checker.ProgressFunc signature.
func (w *Writer) Progress(outcome domain.Outcome, _ int) {
	if !w.ShouldTrace(outcome) {
		return
	}

	if outcome.Succeeded() {
		w.printf("Request %3d: %s\n", outcome.Attempt, outcome.OriginIP)
		return
	}
	w.printf("Request %3d: %s\n", outcome.Attempt, w.bad.Render("FAILED - "+outcome.Reason()))
}

func (w *Writer) Summary(summary domain.ProbeSummary) {
	w.println(separator)
	w.println(w.heading.Render("PROXY ANALYSIS RESULTS:"))
	w.printf("Total requests: %d\n", summary.RequestCount)
	w.printf("Successful: %d\n", summary.SuccessCount)
	w.printf("Failed: %d\n", summary.FailureCount)
	w.printf("Success rate: %.1f%%\n", summary.SuccessRate*100)
	w.printf("Total time: %.2f seconds\n", summary.TotalDuration.Seconds())
	w.printf("Average time per request: %.3f seconds\n", summary.AverageDuration.Seconds())

	if summary.SuccessCount > 0 {
		w.printf("Latency of successful requests: min %.3fs, smoothed %.3fs, max %.3fs\n",
			summary.MinLatency.Seconds(), summary.SmoothedLatency.Seconds(), summary.MaxLatency.Seconds())
	}

	if len(summary.Distribution) > 0 {
		w.println("")
		w.printf("Unique IPs detected: %d\n", summary.UniqueIPs())

		if summary.Rotates {
			w.println(w.warn.Render("🔄 Proxy rotates IP addresses"))
		} else {
			w.println(w.good.Render("✅ Proxy uses consistent IP address"))
		}

		if summary.Rotates || enriched(summary.Distribution) {
			w.println("IP distribution:")
			for _, entry := range summary.Distribution {
				w.printf("  %s: %d times (%.1f%%)%s\n", entry.IP, entry.Count, entry.Percentage, geoSuffix(entry))
			}
		}
	}

	switch summary.Anonymity {
	case domain.AnonymityTransparent:
		w.println(w.bad.Render(fmt.Sprintf("Anonymity: transparent (direct IP %s visible to target)", summary.DirectIP)))
	case domain.AnonymityAnonymous:
		w.println(w.good.Render(fmt.Sprintf("Anonymity: anonymous (direct IP %s hidden)", summary.DirectIP)))
	}

	if summary.ScoreLabel != "" {
		w.printf("Stability score: %.1f/100 (%s)\n", summary.Score, summary.ScoreLabel)
	}

	if summary.FailureCount > 0 {
		w.println("")
		w.println(w.warn.Render(fmt.Sprintf("⚠️  %d requests failed - proxy may be unstable", summary.FailureCount)))
	}
}

func enriched(distribution []domain.IPCount) bool {
	for _, entry := range distribution {
		if entry.Country != "" || entry.EstimatedType != "" {
			return true
		}
	}
	return false
}

func geoSuffix(entry domain.IPCount) string {
	parts := make([]string, 0, 2)
	if entry.Country != "" {
		parts = append(parts, entry.Country)
	}
	if entry.EstimatedType != "" {
		parts = append(parts, entry.EstimatedType)
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

func (w *Writer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format, args...)
}

func (w *Writer) println(line string) {
	_, _ = fmt.Fprintln(w.out, line)
}
