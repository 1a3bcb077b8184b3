package checker

import (
	"sort"
	"time"

	"github.com/VividCortex/ewma"

	"proxycheck/internal/domain"
)

// Summarize derives the ProbeSummary of a finished run. IP grouping only looks at
// successful outcomes; percentages are relative to the success count.
func Summarize(cfg domain.ProbeConfig, results domain.ProbeResult, duration time.Duration) domain.ProbeSummary {
	summary := domain.ProbeSummary{
		Proxy:         cfg.Proxy.Redacted(),
		TargetURL:     cfg.TargetURL,
		RequestCount:  len(results),
		TotalDuration: duration,
		IPCounts:      make(map[string]int),
		Results:       results,
	}

	latency := ewma.NewMovingAverage()
	firstSeen := make([]string, 0)

	for _, outcome := range results {
		if !outcome.Succeeded() {
			summary.FailureCount++
			continue
		}

		summary.SuccessCount++
		if _, seen := summary.IPCounts[outcome.OriginIP]; !seen {
			firstSeen = append(firstSeen, outcome.OriginIP)
		}
		summary.IPCounts[outcome.OriginIP]++

		latency.Add(float64(outcome.Latency))
		if summary.MinLatency == 0 || outcome.Latency < summary.MinLatency {
			summary.MinLatency = outcome.Latency
		}
		if outcome.Latency > summary.MaxLatency {
			summary.MaxLatency = outcome.Latency
		}
	}

	if summary.RequestCount > 0 {
		summary.SuccessRate = float64(summary.SuccessCount) / float64(summary.RequestCount)
		summary.AverageDuration = duration / time.Duration(summary.RequestCount)
	}
	if summary.SuccessCount > 0 {
		summary.SmoothedLatency = time.Duration(latency.Value())
	}

	summary.Distribution = buildDistribution(firstSeen, summary.IPCounts, summary.SuccessCount)
	summary.Rotates = len(summary.IPCounts) > 1

	return summary
}

// buildDistribution orders IPs by descending count; SliceStable keeps first-seen order on ties.
func buildDistribution(firstSeen []string, counts map[string]int, successCount int) []domain.IPCount {
	distribution := make([]domain.IPCount, 0, len(firstSeen))
	for _, ip := range firstSeen {
		entry := domain.IPCount{IP: ip, Count: counts[ip]}
		if successCount > 0 {
			entry.Percentage = float64(entry.Count) / float64(successCount) * 100
		}
		distribution = append(distribution, entry)
	}

	sort.SliceStable(distribution, func(i, j int) bool {
		return distribution[i].Count > distribution[j].Count
	})

	return distribution
}

// OriginIPs lists the distinct observed origins in distribution order.
func OriginIPs(summary domain.ProbeSummary) []string {
	ips := make([]string, 0, len(summary.Distribution))
	for _, entry := range summary.Distribution {
		ips = append(ips, entry.IP)
	}
	return ips
}
