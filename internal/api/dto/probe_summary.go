package dto

import "time"

type ProbeSummary struct {
	Proxy             string         `json:"proxy"`
	Target            string         `json:"target"`
	RequestCount      int            `json:"request_count"`
	SuccessCount      int            `json:"success_count"`
	FailureCount      int            `json:"failure_count"`
	SuccessRate       float64        `json:"success_rate"`
	TotalDurationMs   float64        `json:"total_duration_ms"`
	AverageDurationMs float64        `json:"average_duration_ms"`
	SmoothedLatencyMs float64        `json:"smoothed_latency_ms"`
	MinLatencyMs      float64        `json:"min_latency_ms"`
	MaxLatencyMs      float64        `json:"max_latency_ms"`
	UniqueIPs         int            `json:"unique_ips"`
	Rotates           bool           `json:"rotates"`
	DirectIP          string         `json:"direct_ip,omitempty"`
	Anonymity         string         `json:"anonymity,omitempty"`
	Score             float64        `json:"score"`
	ScoreLabel        string         `json:"score_label"`
	Distribution      []IPCount      `json:"distribution"`
	Attempts          []ProbeAttempt `json:"attempts"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

type IPCount struct {
	IP            string  `json:"ip"`
	Count         int     `json:"count"`
	Percentage    float64 `json:"percentage"`
	Country       string  `json:"country,omitempty"`
	EstimatedType string  `json:"estimated_type,omitempty"`
}

type ProbeAttempt struct {
	Attempt   int     `json:"attempt"`
	Success   bool    `json:"success"`
	OriginIP  string  `json:"origin_ip,omitempty"`
	Reason    string  `json:"reason,omitempty"`
	LatencyMs float64 `json:"latency_ms"`
}
