package slideshow

import (
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" in 24-hour form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parsing time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// MustParseTimeOfDay is ParseTimeOfDay for constants; it panics on error.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

// Window is the daily period during which the slideshow is awake,
// [On, Off). A window whose On is later than Off spans midnight.
type Window struct {
	On  TimeOfDay
	Off TimeOfDay
}

// Validate rejects windows with no duration.
func (w Window) Validate() error {
	if w.On == w.Off {
		return fmt.Errorf("%w: on and off are both %s", ErrInvalidWindow, w.On)
	}
	return nil
}

// Contains reports whether now falls inside the window.
func (w Window) Contains(now time.Time) bool {
	m := now.Hour()*60 + now.Minute()
	on, off := w.On.minutes(), w.Off.minutes()
	if on < off {
		return m >= on && m < off
	}
	return m >= on || m < off
}

// UntilNext returns the exact time from now until the next occurrence of
// target strictly after now, in now's location. It is never zero: when now
// is exactly target the next occurrence is the following day.
func UntilNext(now time.Time, target TimeOfDay) time.Duration {
	y, mo, d := now.Date()
	next := time.Date(y, mo, d, target.Hour, target.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(y, mo, d+1, target.Hour, target.Minute, 0, 0, now.Location())
	}
	return next.Sub(now)
}

// MinutesUntil is the minute-granular distance from now's wall-clock minute
// to target, in [1, 1440]. A same-minute target yields a full day.
func MinutesUntil(now time.Time, target TimeOfDay) int {
	diff := (target.minutes() - (now.Hour()*60 + now.Minute()) + minutesPerDay) % minutesPerDay
	if diff == 0 {
		return minutesPerDay
	}
	return diff
}
