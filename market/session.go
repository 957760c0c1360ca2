package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a wall-clock time of day, stored as the offset since midnight.
type Clock time.Duration

// NewClock returns the Clock for hour:minute.
func NewClock(hour, minute int) Clock {
	return Clock(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// ClockOf returns the time of day of t in t's own location.
func ClockOf(t time.Time) Clock {
	h, m, s := t.Clock()
	d := time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond())
	return Clock(d)
}

// ParseClock parses "HH:MM" or "HH:MM:SS".
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("bad clock %q: want HH:MM", s)
	}

	var vals [3]int
	limits := [3]int{24, 60, 60}
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("bad clock %q: %w", s, err)
		}
		if v < 0 || v >= limits[i] {
			return 0, fmt.Errorf("bad clock %q: field %d out of range", s, i)
		}
		vals[i] = v
	}

	return NewClock(vals[0], vals[1]) + Clock(time.Duration(vals[2])*time.Second), nil
}

// MustClock is ParseClock for constants.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) String() string {
	d := time.Duration(c)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if s != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// Before reports whether c is strictly earlier than o.
func (c Clock) Before(o Clock) bool { return c < o }

// MarshalText implements encoding.TextMarshaler so clocks read as "14:30"
// in YAML and JSON.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Window is an inclusive time-of-day range.
type Window struct {
	Start Clock
	End   Clock
}

// Contains reports whether t's time of day is in [Start, End].
func (w Window) Contains(t time.Time) bool {
	c := ClockOf(t)
	return c >= w.Start && c <= w.End
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// Session defaults for the VN30 index futures market.
var (
	TradingHours = Window{Start: NewClock(9, 0), End: NewClock(15, 0)}
	SignalHours  = Window{Start: NewClock(9, 15), End: NewClock(14, 30)}
	EntryCutoff  = NewClock(14, 30)
	MarketClose  = NewClock(14, 45)
)

// Day identifies a calendar day in a candle's own location.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
