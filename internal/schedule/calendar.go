// Package schedule computes the fixed daily grid of bookable hour slots.
// The grid is date-independent: only occupancy varies by date.
package schedule

import (
	"fmt"
	"regexp"
	"time"
)

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Grid is the clinic's working-hour window. Slots start on the hour, one
// hour long, from StartHour (inclusive) to EndHour (exclusive): an 08–18
// window yields 08:00..17:00.
type Grid struct {
	StartHour int
	EndHour   int
}

func NewGrid(startHour, endHour int) (Grid, error) {
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return Grid{}, fmt.Errorf("invalid working hours %d-%d", startHour, endHour)
	}
	return Grid{StartHour: startHour, EndHour: endHour}, nil
}

// Slots returns the ordered sequence of slot start times for a working day.
func (g Grid) Slots() []string {
	out := make([]string, 0, g.EndHour-g.StartHour)
	for h := g.StartHour; h < g.EndHour; h++ {
		out = append(out, fmt.Sprintf("%02d:00", h))
	}
	return out
}

// Contains reports whether timeOfDay is one of the grid's slot starts.
func (g Grid) Contains(timeOfDay string) bool {
	for _, s := range g.Slots() {
		if s == timeOfDay {
			return true
		}
	}
	return false
}

// ValidDateFormat reports whether s matches YYYY-MM-DD.
func ValidDateFormat(s string) bool {
	return dateRe.MatchString(s)
}

// ValidTimeFormat reports whether s matches HH:MM.
func ValidTimeFormat(s string) bool {
	return timeRe.MatchString(s)
}

// ParseSlot combines a YYYY-MM-DD date and HH:MM time into a wall-clock
// instant, rejecting strings that match the shape but not the calendar
// (e.g. 2026-02-30).
func ParseSlot(date, timeOfDay string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", date+" "+timeOfDay, time.Local)
}
