package checker

import (
	"context"
	"math"
	"testing"
	"time"

	"proxycheck/internal/domain"
)

// scriptedAttempter replays outcomes by attempt number and counts calls.
type scriptedAttempter struct {
	script   map[int]domain.Outcome
	fallback domain.Outcome
	calls    int
}

func (s *scriptedAttempter) Attempt(_ context.Context, attempt int) domain.Outcome {
	s.calls++
	if outcome, ok := s.script[attempt]; ok {
		return outcome
	}
	return s.fallback
}

func goodConfig(t *testing.T, count int) domain.ProbeConfig {
	t.Helper()

	cfg, err := domain.NewProbeConfig("http://good:8080", count)
	if err != nil {
		t.Fatalf("NewProbeConfig returned error: %v", err)
	}
	return cfg
}

func timeoutOutcome() domain.Outcome {
	return domain.Failure(0, &domain.AttemptError{Kind: domain.AttemptTimeout, Err: context.DeadlineExceeded}, 0)
}

func TestRunnerConsistentIP(t *testing.T) {
	attempter := &scriptedAttempter{fallback: domain.Success(0, "1.2.3.4", 10*time.Millisecond)}

	summary, err := NewRunner(attempter, nil).Run(context.Background(), goodConfig(t, 3))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.SuccessCount != 3 || summary.FailureCount != 0 {
		t.Fatalf("success=%d failure=%d, want 3/0", summary.SuccessCount, summary.FailureCount)
	}
	if summary.UniqueIPs() != 1 || summary.IPCounts["1.2.3.4"] != 3 {
		t.Fatalf("ip counts = %v, want 1.2.3.4 x3", summary.IPCounts)
	}
	if summary.Rotates {
		t.Fatal("single ip reported as rotating")
	}
	if summary.SuccessRate != 1 {
		t.Fatalf("success rate = %f, want 1", summary.SuccessRate)
	}
}

func TestRunnerRecordsTimeoutsInPlace(t *testing.T) {
	attempter := &scriptedAttempter{
		script: map[int]domain.Outcome{
			1: domain.Success(0, "1.1.1.1", 0),
			2: timeoutOutcome(),
			3: domain.Success(0, "2.2.2.2", 0),
			4: timeoutOutcome(),
			5: domain.Success(0, "3.3.3.3", 0),
		},
	}

	summary, err := NewRunner(attempter, nil).Run(context.Background(), goodConfig(t, 5))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.SuccessCount != 3 || summary.FailureCount != 2 {
		t.Fatalf("success=%d failure=%d, want 3/2", summary.SuccessCount, summary.FailureCount)
	}
	if len(summary.Results) != 5 {
		t.Fatalf("results length = %d, want 5", len(summary.Results))
	}

	for i, outcome := range summary.Results {
		if outcome.Attempt != i+1 {
			t.Fatalf("result %d has attempt %d", i, outcome.Attempt)
		}
	}
	for _, pos := range []int{1, 3} {
		if summary.Results[pos].Reason() != "timeout" {
			t.Fatalf("attempt %d reason = %q, want timeout", pos+1, summary.Results[pos].Reason())
		}
	}

	var successes []string
	for _, outcome := range summary.Results {
		if outcome.Succeeded() {
			successes = append(successes, outcome.OriginIP)
		}
	}
	want := []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"}
	for i := range want {
		if successes[i] != want[i] {
			t.Fatalf("success order = %v, want %v", successes, want)
		}
	}
}

func TestRunnerAllFailures(t *testing.T) {
	attempter := &scriptedAttempter{fallback: timeoutOutcome()}

	summary, err := NewRunner(attempter, nil).Run(context.Background(), goodConfig(t, 4))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.SuccessCount != 0 || summary.FailureCount != 4 {
		t.Fatalf("success=%d failure=%d, want 0/4", summary.SuccessCount, summary.FailureCount)
	}
	if len(summary.IPCounts) != 0 || len(summary.Distribution) != 0 {
		t.Fatalf("expected empty distribution, got %v", summary.IPCounts)
	}
	if summary.Rotates {
		t.Fatal("rotation reported without successes")
	}
}

func TestRunnerConfigErrorIssuesNoAttempts(t *testing.T) {
	attempter := &scriptedAttempter{fallback: domain.Success(0, "1.2.3.4", 0)}

	cfg := domain.ProbeConfig{TargetURL: domain.DefaultTargetURL, RequestCount: 10, Timeout: time.Second}
	if _, err := NewRunner(attempter, nil).Run(context.Background(), cfg); !domain.IsConfigError(err) {
		t.Fatalf("Run returned %v, want ConfigError", err)
	}

	cfg = goodConfig(t, 1)
	cfg.RequestCount = 0
	if _, err := NewRunner(attempter, nil).Run(context.Background(), cfg); !domain.IsConfigError(err) {
		t.Fatalf("Run returned %v, want ConfigError", err)
	}

	if attempter.calls != 0 {
		t.Fatalf("attempter called %d times, want 0", attempter.calls)
	}
}

func TestRunnerInvariants(t *testing.T) {
	for _, count := range []int{1, 7, 40} {
		attempter := &scriptedAttempter{
			script: map[int]domain.Outcome{
				2: timeoutOutcome(),
				5: domain.Failure(0, &domain.AttemptError{Kind: domain.AttemptStatus, StatusCode: 500}, 0),
			},
			fallback: domain.Success(0, "9.9.9.9", 0),
		}

		var progressed []int
		summary, err := NewRunner(attempter, func(outcome domain.Outcome, total int) {
			progressed = append(progressed, outcome.Attempt)
		}).Run(context.Background(), goodConfig(t, count))
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}

		if len(summary.Results) != count {
			t.Fatalf("results length = %d, want %d", len(summary.Results), count)
		}
		if summary.SuccessCount+summary.FailureCount != count {
			t.Fatalf("success+failure = %d, want %d", summary.SuccessCount+summary.FailureCount, count)
		}
		wantRate := float64(summary.SuccessCount) / float64(count)
		if math.Abs(summary.SuccessRate-wantRate) > 1e-9 {
			t.Fatalf("success rate = %f, want %f", summary.SuccessRate, wantRate)
		}
		if len(progressed) != count || progressed[count-1] != count {
			t.Fatalf("progress order = %v", progressed)
		}
	}
}

func TestRunnerPacing(t *testing.T) {
	attempter := &scriptedAttempter{fallback: domain.Success(0, "1.2.3.4", 0)}

	cfg := goodConfig(t, 3)
	cfg.Interval = 30 * time.Millisecond

	start := time.Now()
	if _, err := NewRunner(attempter, nil).Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 55*time.Millisecond {
		t.Fatalf("run took %s, want at least two pacing intervals", elapsed)
	}
}
