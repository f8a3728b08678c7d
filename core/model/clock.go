package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock is a wall-clock time of day expressed in whole minutes since midnight.
// All scheduling arithmetic is done on Clock values; strings only appear at
// the boundary.
type Clock int

// MinutesPerDay bounds valid Clock values.
const MinutesPerDay = 24 * 60

// ClockAt builds a Clock from hours and minutes.
func ClockAt(h, m int) Clock { return Clock(h*60 + m) }

// ParseClock parses "9:30", "09:30", "09:30:00" and 12-hour forms such as
// "9:30 AM" or "1:05pm".
func ParseClock(s string) (Clock, error) {
	raw := strings.TrimSpace(strings.ToLower(s))
	if raw == "" {
		return 0, fmt.Errorf("empty clock value")
	}
	meridiem := ""
	for _, suffix := range []string{"am", "pm"} {
		if strings.HasSuffix(raw, suffix) {
			meridiem = suffix
			raw = strings.TrimSpace(strings.TrimSuffix(raw, suffix))
		}
	}
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if m < 0 || m > 59 {
		return 0, fmt.Errorf("minute out of range in %q", s)
	}
	switch meridiem {
	case "am":
		if h < 1 || h > 12 {
			return 0, fmt.Errorf("hour out of range in %q", s)
		}
		if h == 12 {
			h = 0
		}
	case "pm":
		if h < 1 || h > 12 {
			return 0, fmt.Errorf("hour out of range in %q", s)
		}
		if h != 12 {
			h += 12
		}
	default:
		if h < 0 || h > 23 {
			return 0, fmt.Errorf("hour out of range in %q", s)
		}
	}
	return ClockAt(h, m), nil
}

// MustClock parses s and panics on error. Intended for tests and fixtures.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String renders the clock as HH:MM. Values past midnight wrap.
func (c Clock) String() string {
	v := int(c) % MinutesPerDay
	if v < 0 {
		v += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", v/60, v%60)
}

// Add returns c shifted by the given number of minutes.
func (c Clock) Add(minutes int) Clock { return c + Clock(minutes) }

// Sub returns c - o in minutes.
func (c Clock) Sub(o Clock) int { return int(c - o) }

// MarshalText implements encoding.TextMarshaler.
func (c Clock) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ClockPtr returns a pointer to c.
func ClockPtr(c Clock) *Clock { return &c }

// TimeWindow is the [Start, End) interval in which work on a job must begin.
type TimeWindow struct {
	Start Clock `json:"start" yaml:"start"`
	End   Clock `json:"end" yaml:"end"`
}

// Valid reports whether the window is non-empty and within a day.
func (w TimeWindow) Valid() bool {
	return w.Start >= 0 && w.End > w.Start && w.End <= MinutesPerDay
}

// ParseWindow builds a TimeWindow from two clock strings.
func ParseWindow(start, end string) (TimeWindow, error) {
	s, err := ParseClock(start)
	if err != nil {
		return TimeWindow{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return TimeWindow{}, err
	}
	w := TimeWindow{Start: s, End: e}
	if !w.Valid() {
		return TimeWindow{}, fmt.Errorf("window %s-%s is empty", start, end)
	}
	return w, nil
}

func (w TimeWindow) String() string { return w.Start.String() + "-" + w.End.String() }
