package domain

import "time"

// Status is the scheduling status of a card. It is either Active or Suspended.
type Status interface {
	isStatus()
}

// Active is the status of a card that takes part in reviews.
// IntervalDays is 0 only for a card that has never been answered.
type Active struct {
	ScheduledFor time.Time
	IntervalDays int
}

// Suspended is the status of a card that was taken out of the review pool.
type Suspended struct{}

func (Active) isStatus()    {}
func (Suspended) isStatus() {}

// ScheduleState is the per-card scheduling row.
type ScheduleState struct {
	CardID  int64
	Status  Status
	IsLeech bool
}

// NewSchedule returns the state of a card created at now: never reviewed and
// immediately due.
func NewSchedule(cardID int64, now time.Time) ScheduleState {
	return ScheduleState{
		CardID: cardID,
		Status: Active{ScheduledFor: now, IntervalDays: 0},
	}
}

// Active reports whether the card is active and, if so, its active status.
func (s ScheduleState) Active() (Active, bool) {
	a, ok := s.Status.(Active)
	return a, ok
}

// IsSuspended reports whether the card has been taken out of the review pool.
func (s ScheduleState) IsSuspended() bool {
	_, ok := s.Status.(Suspended)
	return ok
}
