package session

import (
	"strconv"
	"strings"
	"time"
)

// DurationConfig bounds a recording. Zero means record until manual stop.
type DurationConfig struct {
	Hours   int
	Minutes int
}

// ParseDuration builds a DurationConfig from user text input. Empty,
// unparseable or negative fields coerce to 0.
func ParseDuration(hoursText, minutesText string) DurationConfig {
	return DurationConfig{
		Hours:   parseField(hoursText),
		Minutes: parseField(minutesText),
	}
}

func parseField(text string) int {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Seconds returns the derived total duration in seconds.
func (d DurationConfig) Seconds() int {
	return d.Hours*3600 + d.Minutes*60
}

// Duration returns the bound as a time.Duration; zero means unbounded.
func (d DurationConfig) Duration() time.Duration {
	return time.Duration(d.Seconds()) * time.Second
}
