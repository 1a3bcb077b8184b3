package checker

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"proxycheck/internal/domain"
)

// ProgressFunc is called once per attempt, in order, right after the outcome is recorded.
type ProgressFunc func(outcome domain.Outcome, total int)

type Runner struct {
	attempter Attempter
	progress  ProgressFunc
}

func NewRunner(attempter Attempter, progress ProgressFunc) *Runner {
	return &Runner{
		attempter: attempter,
		progress:  progress,
	}
}

// Run performs cfg.RequestCount sequential attempts and summarizes them. Only an
// invalid configuration returns an error; attempt failures are part of the summary.
func (r *Runner) Run(ctx context.Context, cfg domain.ProbeConfig) (domain.ProbeSummary, error) {
	if err := cfg.Validate(); err != nil {
		return domain.ProbeSummary{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var limiter *rate.Limiter
	if cfg.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Interval), 1)
	}

	log.Debug("Probe run started", "proxy", cfg.Proxy.Redacted(), "target", cfg.TargetURL, "count", cfg.RequestCount, "timeout", cfg.Timeout)

	results := make(domain.ProbeResult, 0, cfg.RequestCount)
	start := time.Now()

	for i := 1; i <= cfg.RequestCount; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				log.Warn("Pacing interrupted", "attempt", i, "error", err)
			}
		}

		outcome := r.attempter.Attempt(ctx, i)
		outcome.Attempt = i
		results = append(results, outcome)

		if !outcome.Succeeded() {
			log.Debug("Attempt failed", "attempt", i, "reason", outcome.Reason())
		}
		if r.progress != nil {
			r.progress(outcome, cfg.RequestCount)
		}
	}

	summary := Summarize(cfg, results, time.Since(start))
	log.Debug("Probe run finished", "success", summary.SuccessCount, "failure", summary.FailureCount, "duration", summary.TotalDuration)

	return summary, nil
}

// Run probes cfg.Proxy with a fresh transport scoped to this call.
func Run(ctx context.Context, cfg domain.ProbeConfig, progress ProgressFunc) (domain.ProbeSummary, error) {
	if err := cfg.Validate(); err != nil {
		return domain.ProbeSummary{}, err
	}

	attempter, err := NewProxyAttempter(cfg)
	if err != nil {
		return domain.ProbeSummary{}, err
	}
	defer attempter.Close()

	return NewRunner(attempter, progress).Run(ctx, cfg)
}
