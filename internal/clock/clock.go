// Package clock provides the time source used by the scheduler and the
// day-cycle boundary rule used by due queries.
package clock

import (
	"fmt"
	"sync"
	"time"
)

// DefaultDayStartHour is the local hour at which a new review day begins.
const DefaultDayStartHour = 4

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

// Now returns the current time.
func (System) Now() time.Time { return time.Now() }

// Adjustable is a Clock that always returns a caller-controlled instant.
// It is safe for concurrent use.
type Adjustable struct {
	mu  sync.Mutex
	now time.Time
}

// NewAdjustable returns an Adjustable clock set to now.
func NewAdjustable(now time.Time) *Adjustable {
	return &Adjustable{now: now}
}

// Now returns the current instant of the clock.
func (c *Adjustable) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *Adjustable) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d.
func (c *Adjustable) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ParseZone resolves an IANA zone name. An empty name selects the system
// local zone.
func ParseZone(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// DayBoundary defines where one review day ends and the next begins.
type DayBoundary struct {
	// Zone returns the zone the start hour is interpreted in. Nil means time.Local.
	Zone func() *time.Location
	// StartHour is the local hour a day starts at.
	StartHour int
}

// DefaultDayBoundary starts days at 04:00 in the system local zone.
func DefaultDayBoundary() DayBoundary {
	return DayBoundary{StartHour: DefaultDayStartHour}
}

// FixedZone returns a DayBoundary that always resolves to loc.
func FixedZone(loc *time.Location, startHour int) DayBoundary {
	return DayBoundary{
		Zone:      func() *time.Location { return loc },
		StartHour: startHour,
	}
}

// Location returns the zone days are computed in.
func (b DayBoundary) Location() *time.Location {
	if b.Zone != nil {
		if z := b.Zone(); z != nil {
			return z
		}
	}
	return time.Local
}

// StartOfNextDay returns the start of the review day following now.
func (b DayBoundary) StartOfNextDay(now time.Time) time.Time {
	return StartOfNextDay(now, b.Location(), b.StartHour)
}

// StartOfNextDay returns the first instant at startHour local time that
// begins the day after now. Before startHour that is today at startHour,
// otherwise it is tomorrow at startHour.
func StartOfNextDay(now time.Time, loc *time.Location, startHour int) time.Time {
	local := now.In(loc)
	y, m, d := local.Date()
	if local.Hour() < startHour {
		return time.Date(y, m, d, startHour, 0, 0, 0, loc)
	}
	return time.Date(y, m, d+1, startHour, 0, 0, 0, loc)
}
