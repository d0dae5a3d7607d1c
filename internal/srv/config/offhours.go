package config

import (
	"fmt"
	"strings"
	"time"
)

// OffHoursParam turns the panel off every day from From until Until ("15:04"
// local time). Both empty disables it.
type OffHoursParam struct {
	From  string `yaml:"from"`
	Until string `yaml:"until"`
}

// OffHours is a daily window, it may span midnight
type OffHours struct {
	from  time.Duration
	until time.Duration
}

// Parse returns nil when no window is configured
func (p OffHoursParam) Parse() (*OffHours, error) {
	if strings.TrimSpace(p.From) == "" && strings.TrimSpace(p.Until) == "" {
		return nil, nil
	}
	from, err := parseClock(p.From)
	if err != nil {
		return nil, err
	}
	until, err := parseClock(p.Until)
	if err != nil {
		return nil, err
	}
	if from == until {
		return nil, fmt.Errorf("from and until are both %s", p.From)
	}
	return &OffHours{from: from, until: until}, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Contains reports whether t is inside the window, never for a nil window
func (o *OffHours) Contains(t time.Time) bool {
	if o == nil {
		return false
	}
	h, m, s := t.Clock()
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
	if o.from < o.until {
		return d >= o.from && d < o.until
	}
	return d >= o.from || d < o.until
}
