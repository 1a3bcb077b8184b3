package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Timer is a duration split into calendar-ish parts, as written in settings files.
type Timer struct {
	Days         uint32 `yaml:"days"`
	Hours        uint32 `yaml:"hours"`
	Minutes      uint32 `yaml:"minutes"`
	Seconds      uint32 `yaml:"seconds"`
	Milliseconds uint32 `yaml:"milliseconds"`
}

func CalculateMillisecondsOfPeriod(timer Timer) uint64 {
	return uint64(timer.Days)*24*60*60*1000 +
		uint64(timer.Hours)*60*60*1000 +
		uint64(timer.Minutes)*60*1000 +
		uint64(timer.Seconds)*1000 +
		uint64(timer.Milliseconds)
}

func CalculateDuration(timer Timer) time.Duration {
	return time.Duration(CalculateMillisecondsOfPeriod(timer)) * time.Millisecond
}

// TimerFromDuration is the inverse of CalculateDuration, truncated to milliseconds.
func TimerFromDuration(d time.Duration) Timer {
	if d <= 0 {
		return Timer{}
	}

	ms := uint64(d / time.Millisecond)
	timer := Timer{}
	timer.Days = uint32(ms / (24 * 60 * 60 * 1000))
	ms %= 24 * 60 * 60 * 1000
	timer.Hours = uint32(ms / (60 * 60 * 1000))
	ms %= 60 * 60 * 1000
	timer.Minutes = uint32(ms / (60 * 1000))
	ms %= 60 * 1000
	timer.Seconds = uint32(ms / 1000)
	timer.Milliseconds = uint32(ms % 1000)
	return timer
}

// UnmarshalYAML accepts either the split form or a duration string such as "1m30s".
// A decoded timer replaces the previous value instead of merging into it.
func (timer *Timer) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		d, err := time.ParseDuration(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: invalid duration %q: %w", node.Line, node.Value, err)
		}
		*timer = TimerFromDuration(d)
		return nil
	}

	type plain Timer
	var decoded plain
	if err := node.Decode(&decoded); err != nil {
		return err
	}
	*timer = Timer(decoded)
	return nil
}
