package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"proxycheck/internal/api/dto"
	"proxycheck/internal/domain"
)

func ToDTO(summary domain.ProbeSummary, generatedAt time.Time) dto.ProbeSummary {
	out := dto.ProbeSummary{
		Proxy:             summary.Proxy,
		Target:            summary.TargetURL,
		RequestCount:      summary.RequestCount,
		SuccessCount:      summary.SuccessCount,
		FailureCount:      summary.FailureCount,
		SuccessRate:       summary.SuccessRate,
		TotalDurationMs:   milliseconds(summary.TotalDuration),
		AverageDurationMs: milliseconds(summary.AverageDuration),
		SmoothedLatencyMs: milliseconds(summary.SmoothedLatency),
		MinLatencyMs:      milliseconds(summary.MinLatency),
		MaxLatencyMs:      milliseconds(summary.MaxLatency),
		UniqueIPs:         summary.UniqueIPs(),
		Rotates:           summary.Rotates,
		DirectIP:          summary.DirectIP,
		Anonymity:         summary.Anonymity,
		Score:             summary.Score,
		ScoreLabel:        summary.ScoreLabel,
		Distribution:      make([]dto.IPCount, 0, len(summary.Distribution)),
		Attempts:          make([]dto.ProbeAttempt, 0, len(summary.Results)),
		GeneratedAt:       generatedAt.UTC(),
	}

	for _, entry := range summary.Distribution {
		out.Distribution = append(out.Distribution, dto.IPCount{
			IP:            entry.IP,
			Count:         entry.Count,
			Percentage:    entry.Percentage,
			Country:       entry.Country,
			EstimatedType: entry.EstimatedType,
		})
	}

	for _, outcome := range summary.Results {
		out.Attempts = append(out.Attempts, dto.ProbeAttempt{
			Attempt:   outcome.Attempt,
			Success:   outcome.Succeeded(),
			OriginIP:  outcome.OriginIP,
			Reason:    outcome.Reason(),
			LatencyMs: milliseconds(outcome.Latency),
		})
	}

	return out
}

// WriteJSONFile writes summary to filePath as indented JSON.
func WriteJSONFile(filePath string, summary domain.ProbeSummary) error {
	data, err := json.MarshalIndent(ToDTO(summary, time.Now()), "", "  ")
	if err != nil {
		return fmt.Errorf("cannot serialize summary: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("cannot write json report %q: %w", filePath, err)
	}

	return nil
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
