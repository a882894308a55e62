package schedule

import (
	"time"

	"github.com/google/uuid"
)

// TimeOfDay is a clock time within a day.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Minutes returns the time as minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// On anchors the time-of-day to a calendar date in the date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, date.Location())
}

// ShiftTemplate is the form input a recurring shift series is expanded
// from: one anchor date, a daily time window, and a recurrence cadence.
type ShiftTemplate struct {
	PractitionerID uuid.UUID  `json:"practitioner_id"`
	Date           time.Time  `json:"date"`
	StartTime      TimeOfDay  `json:"start_time"`
	EndTime        TimeOfDay  `json:"end_time"`
	Repeat         Cadence    `json:"repeat"`
	RepeatUntil    *time.Time `json:"repeat_until,omitempty"`
	Room           string     `json:"room,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedBy      string     `json:"created_by,omitempty"`
}

// ValidateShiftTimes checks that a template's daily window is non-empty.
func ValidateShiftTimes(start, end TimeOfDay) error {
	if end.Minutes() <= start.Minutes() {
		return &ValidationError{Field: "end_time", Msg: "must be after start time"}
	}
	return nil
}

// ExpandShifts deterministically expands a template into concrete shift
// instances. A no-repeat template yields a single shift with no series
// identifier. Recurring templates step forward by the cadence interval
// (7 days weekly, 14 biweekly), re-applying the template's time-of-day
// on each date up to and including RepeatUntil; every instance shares
// one fresh SeriesID and carries the template's room, tags, notes and
// creator. Instances get independent identities so each can be edited
// or cancelled without touching its siblings.
//
// Returns a ValidationError if the time window is empty or a recurring
// template omits RepeatUntil.
func ExpandShifts(tpl ShiftTemplate) ([]Shift, error) {
	if err := ValidateShiftTimes(tpl.StartTime, tpl.EndTime); err != nil {
		return nil, err
	}
	if tpl.Repeat != RepeatNone && tpl.Repeat != RepeatWeekly && tpl.Repeat != RepeatBiweekly {
		return nil, &ValidationError{Field: "repeat", Msg: "unknown cadence " + string(tpl.Repeat)}
	}
	if tpl.Repeat != RepeatNone && tpl.RepeatUntil == nil {
		return nil, &ValidationError{Field: "repeat_until", Msg: "required for recurring shifts"}
	}

	now := time.Now().UTC()
	make1 := func(date time.Time, seriesID uuid.UUID) Shift {
		return Shift{
			ID:             uuid.New(),
			PractitionerID: tpl.PractitionerID,
			StartAt:        tpl.StartTime.On(date),
			EndAt:          tpl.EndTime.On(date),
			Repeat:         tpl.Repeat,
			RepeatUntil:    tpl.RepeatUntil,
			SeriesID:       seriesID,
			Room:           tpl.Room,
			Tags:           tpl.Tags,
			Notes:          tpl.Notes,
			CreatedBy:      tpl.CreatedBy,
			Version:        1,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}

	if tpl.Repeat == RepeatNone {
		return []Shift{make1(tpl.Date, uuid.Nil)}, nil
	}

	seriesID := uuid.New()
	step := tpl.Repeat.Interval()
	until := *tpl.RepeatUntil
	var shifts []Shift
	// AddDate keeps the wall-clock date stable across DST transitions.
	for date := tpl.Date; !dateAfter(date, until); date = date.AddDate(0, 0, step) {
		shifts = append(shifts, make1(date, seriesID))
	}
	return shifts, nil
}

// dateAfter compares calendar dates only, ignoring time-of-day, so a
// RepeatUntil equal to the stepped date is inclusive.
func dateAfter(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}
