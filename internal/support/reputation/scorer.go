package reputation

import (
	"sort"
	"strings"
	"time"

	"proxycheck/internal/domain"
)

// recentWindow is how many trailing attempts feed the recency component.
const recentWindow = 10

const (
	latencyFullScoreMs = 400.0
	latencyZeroScoreMs = 3000.0
)

type Metrics struct {
	TotalChecks      int
	SuccessfulChecks int
	Latencies        []time.Duration
	RecentChecks     int
	RecentSuccesses  int
	Anonymity        string
	EstimatedType    string
	FailureStreak    int
}

// Weights are relative; Score normalises them to sum to 1.
type Weights struct {
	Uptime    float64 `yaml:"uptime"`
	Recency   float64 `yaml:"recency"`
	Latency   float64 `yaml:"latency"`
	Anonymity float64 `yaml:"anonymity"`
	Failures  float64 `yaml:"failures"`
}

type ScoreResult struct {
	Score   float64
	Label   string
	Signals map[string]any
}

const (
	labelGood    = "good"
	labelNeutral = "neutral"
	labelPoor    = "poor"
)

var defaultWeights = Weights{
	Uptime:    0.45,
	Recency:   0.2,
	Latency:   0.15,
	Anonymity: 0.1,
	Failures:  0.1,
}

// MetricsFromSummary collects scoring inputs from a finished probe run.
// The estimated type is taken from the most frequent origin IP.
func MetricsFromSummary(summary domain.ProbeSummary) Metrics {
	m := Metrics{
		TotalChecks:      len(summary.Results),
		SuccessfulChecks: summary.SuccessCount,
		Anonymity:        summary.Anonymity,
	}

	streak := 0
	for _, outcome := range summary.Results {
		if outcome.Succeeded() {
			m.Latencies = append(m.Latencies, outcome.Latency)
			streak = 0
			continue
		}
		streak++
		if streak > m.FailureStreak {
			m.FailureStreak = streak
		}
	}

	recent := summary.Results
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}
	m.RecentChecks = len(recent)
	for _, outcome := range recent {
		if outcome.Succeeded() {
			m.RecentSuccesses++
		}
	}

	if len(summary.Distribution) > 0 {
		m.EstimatedType = summary.Distribution[0].EstimatedType
	}

	return m
}

func Score(metrics Metrics, customWeights *Weights) ScoreResult {
	w := defaultWeights
	if customWeights != nil {
		w = *customWeights
		normaliseWeights(&w)
	}

	uptimeScore := calculateUptimeScore(metrics)
	recencyScore := calculateRecencyScore(metrics)
	latencyScore := calculateLatencyScore(metrics)
	anonymityScore := calculateAnonymityScore(metrics)
	failuresScore := calculateFailureScore(metrics)

	score := clamp01(
		w.Uptime*uptimeScore+
			w.Recency*recencyScore+
			w.Latency*latencyScore+
			w.Anonymity*anonymityScore+
			w.Failures*failuresScore,
	) * 100

	signals := map[string]any{
		"uptime_score":     uptimeScore,
		"uptime_ratio":     ratio(metrics.SuccessfulChecks, metrics.TotalChecks),
		"recency_score":    recencyScore,
		"latency_score":    latencyScore,
		"anonymity_score":  anonymityScore,
		"anonymity":        sanitize(metrics.Anonymity),
		"estimated_type":   sanitize(metrics.EstimatedType),
		"failures_score":   failuresScore,
		"failure_streak":   metrics.FailureStreak,
		"sample_checks":    metrics.TotalChecks,
		"sample_successes": metrics.SuccessfulChecks,
	}
	if medianMs, ok := medianMilliseconds(metrics.Latencies); ok {
		signals["latency_median_ms"] = medianMs
	}

	return ScoreResult{
		Score:   score,
		Label:   labelFromScore(score),
		Signals: signals,
	}
}

func normaliseWeights(w *Weights) {
	total := w.Uptime + w.Recency + w.Latency + w.Anonymity + w.Failures
	if total <= 0 {
		*w = defaultWeights
		return
	}
	w.Uptime /= total
	w.Recency /= total
	w.Latency /= total
	w.Anonymity /= total
	w.Failures /= total
}

func calculateUptimeScore(m Metrics) float64 {
	return ratio(m.SuccessfulChecks, m.TotalChecks)
}

// the tail of a run says more about the proxy right now than its start
func calculateRecencyScore(m Metrics) float64 {
	return ratio(m.RecentSuccesses, m.RecentChecks)
}

func calculateLatencyScore(m Metrics) float64 {
	medianMs, ok := medianMilliseconds(m.Latencies)
	if !ok {
		return 0
	}

	switch {
	case medianMs <= latencyFullScoreMs:
		return 1
	case medianMs >= latencyZeroScoreMs:
		return 0
	default:
		return clamp01(1 - (medianMs-latencyFullScoreMs)/(latencyZeroScoreMs-latencyFullScoreMs))
	}
}

func calculateAnonymityScore(m Metrics) float64 {
	anonymityScale := map[string]float64{
		domain.AnonymityAnonymous:   0.8,
		domain.AnonymityTransparent: 0.3,
		"":                          0.5,
	}
	typeScale := map[string]float64{
		"residential": 1.0,
		"isp":         0.9,
		"datacenter":  0.4,
		"":            0.6,
	}

	anonymityScore, ok := anonymityScale[sanitize(m.Anonymity)]
	if !ok {
		anonymityScore = anonymityScale[""]
	}
	typeScore, ok := typeScale[sanitize(m.EstimatedType)]
	if !ok {
		typeScore = typeScale[""]
	}

	return clamp01((anonymityScore + typeScore) / 2)
}

func calculateFailureScore(m Metrics) float64 {
	if m.FailureStreak == 0 {
		return 1
	}
	const maxPenaltyStreak = 5
	if m.FailureStreak >= maxPenaltyStreak {
		return 0
	}
	return clamp01(1 - float64(m.FailureStreak)/float64(maxPenaltyStreak))
}

func labelFromScore(score float64) string {
	switch {
	case score >= 80:
		return labelGood
	case score >= 40:
		return labelNeutral
	default:
		return labelPoor
	}
}

func ratio(success, total int) float64 {
	if total == 0 {
		return 0
	}
	return clamp01(float64(success) / float64(total))
}

func medianMilliseconds(values []time.Duration) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]time.Duration, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}
	return float64(median) / float64(time.Millisecond), true
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

func sanitize(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}
