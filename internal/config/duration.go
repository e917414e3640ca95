package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/srec-dev/srec-go/pkg/duration"
)

// Duration is a time.Duration that additionally accepts the humanized
// day/week units pkg/duration supports, for config fields like
// fetch.segment_timeout_min or writer.max_duration.
type Duration time.Duration

// ParseDuration parses a humanized duration string.
func ParseDuration(s string) (Duration, error) {
	d, err := duration.Parse(s)
	if err != nil {
		return 0, err
	}
	return Duration(d), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var ns int64
		if err := json.Unmarshal(data, &ns); err != nil {
			return err
		}
		*d = Duration(ns)
		return nil
	}
	return d.UnmarshalText([]byte(s))
}

func (d Duration) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d Duration) String() string {
	dur := time.Duration(d)
	if dur == 0 {
		return "0s"
	}
	negative := dur < 0
	if negative {
		dur = -dur
	}
	weeks := dur / (7 * 24 * time.Hour)
	dur -= weeks * 7 * 24 * time.Hour
	days := dur / (24 * time.Hour)
	dur -= days * 24 * time.Hour

	var result string
	if weeks > 0 {
		result += fmt.Sprintf("%dw", weeks)
	}
	if days > 0 {
		result += fmt.Sprintf("%dd", days)
	}
	if dur > 0 {
		result += dur.String()
	}
	if result == "" {
		return time.Duration(d).String()
	}
	if negative {
		result = "-" + result
	}
	return result
}
