package loot

import (
	"fmt"
	"strings"
)

// Scale is the presentation period for drop and coin figures.
type Scale int

const (
	// PerHour shows figures as computed by Aggregate.
	PerHour Scale = 1
	// PerDay multiplies hourly figures by 24.
	PerDay Scale = 24
)

// ParseScale accepts "hour", "day" (and "hr", "d", "") case-insensitively.
func ParseScale(s string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hour", "hr", "h":
		return PerHour, nil
	case "day", "d":
		return PerDay, nil
	}
	return 0, fmt.Errorf("loot: unknown scale %q", s)
}

func (s Scale) String() string {
	if s == PerDay {
		return "day"
	}
	return "hour"
}

// Scaled returns a copy of records with DropsPerHour and CoinPerHour
// multiplied by the scale. CoinPerItem is unchanged.
func Scaled(records []Record, s Scale) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		r.DropsPerHour *= float64(s)
		r.CoinPerHour *= float64(s)
		out[i] = r
	}
	return out
}

// Apply scales a single hourly figure, such as a total.
func (s Scale) Apply(v float64) float64 { return v * float64(s) }

// MarshalText encodes the scale as "hour" or "day".
func (s Scale) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a scale accepted by ParseScale.
func (s *Scale) UnmarshalText(b []byte) error {
	v, err := ParseScale(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
