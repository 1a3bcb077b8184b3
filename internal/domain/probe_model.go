package domain

import (
	"time"
)

const (
	DefaultTargetURL    = "https://httpbin.org/ip"
	DefaultRequestCount = 100
	DefaultTimeout      = 10 * time.Second
	DefaultUserAgent    = "Mozilla/5.0 (compatible; proxy-check/1.0)"

	// UnknownOrigin is recorded when the echo body carries no origin field.
	UnknownOrigin = "unknown"
)

const (
	AnonymityTransparent = "transparent"
	AnonymityAnonymous   = "anonymous"
)

// ProbeConfig is built once from external input and not mutated afterwards.
type ProbeConfig struct {
	Proxy        Proxy
	TargetURL    string
	RequestCount int
	Timeout      time.Duration
	Interval     time.Duration
	UserAgent    string
}

func NewProbeConfig(rawProxy string, requestCount int) (ProbeConfig, error) {
	proxy, err := ParseProxy(rawProxy)
	if err != nil {
		return ProbeConfig{}, err
	}

	cfg := ProbeConfig{
		Proxy:        proxy,
		TargetURL:    DefaultTargetURL,
		RequestCount: requestCount,
		Timeout:      DefaultTimeout,
		UserAgent:    DefaultUserAgent,
	}
	return cfg, cfg.Validate()
}

func (cfg ProbeConfig) Validate() error {
	if cfg.Proxy.Host == "" {
		return &ConfigError{Field: "proxy", Reason: "proxy endpoint is empty"}
	}
	if cfg.RequestCount <= 0 {
		return &ConfigError{Field: "count", Reason: "request count must be a positive integer"}
	}
	if cfg.TargetURL == "" {
		return &ConfigError{Field: "target", Reason: "target url is empty"}
	}
	if cfg.Timeout <= 0 {
		return &ConfigError{Field: "timeout", Reason: "timeout must be positive"}
	}
	if cfg.Interval < 0 {
		return &ConfigError{Field: "interval", Reason: "interval must not be negative"}
	}
	return nil
}

// Outcome is the result of one attempt: a success when Err is nil, a failure otherwise.
type Outcome struct {
	Attempt  int
	OriginIP string
	Err      *AttemptError
	Latency  time.Duration
}

func Success(attempt int, originIP string, latency time.Duration) Outcome {
	return Outcome{Attempt: attempt, OriginIP: originIP, Latency: latency}
}

func Failure(attempt int, err *AttemptError, latency time.Duration) Outcome {
	return Outcome{Attempt: attempt, Err: err, Latency: latency}
}

func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

type ProbeResult []Outcome

type IPCount struct {
	IP            string
	Count         int
	Percentage    float64
	Country       string
	EstimatedType string
}

type ProbeSummary struct {
	Proxy        string
	TargetURL    string
	RequestCount int
	SuccessCount int
	FailureCount int
	SuccessRate  float64

	TotalDuration   time.Duration
	AverageDuration time.Duration
	SmoothedLatency time.Duration
	MinLatency      time.Duration
	MaxLatency      time.Duration

	IPCounts     map[string]int
	Distribution []IPCount
	Rotates      bool

	DirectIP  string
	Anonymity string

	// Score is a 0-100 stability rating, ScoreLabel its good/neutral/poor bucket.
	Score      float64
	ScoreLabel string

	Results ProbeResult
}

func (s ProbeSummary) UniqueIPs() int {
	return len(s.IPCounts)
}
