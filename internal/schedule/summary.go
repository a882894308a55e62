package schedule

// DaySummary aggregates one practitioner's day for the calendar header.
type DaySummary struct {
	Total          int     `json:"total"`
	Confirmed      int     `json:"confirmed"`
	Pending        int     `json:"pending"`
	Cancelled      int     `json:"cancelled"`
	InProgress     int     `json:"in_progress"`
	Completed      int     `json:"completed"`
	NoShow         int     `json:"no_show"`
	BookedMinutes  int     `json:"booked_minutes"`
	ShiftMinutes   int     `json:"shift_minutes"`
	UtilizationPct float64 `json:"utilization_pct"`
}

// SummarizeDay computes appointment counts by status and utilization of
// the day's shift time. Only blocking appointments count toward booked
// minutes; utilization is zero when no shifts are scheduled.
func SummarizeDay(appointments []Appointment, shifts []Shift) DaySummary {
	s := DaySummary{Total: len(appointments)}
	for _, appt := range appointments {
		switch appt.Status {
		case StatusConfirmed:
			s.Confirmed++
		case StatusScheduled:
			s.Pending++
		case StatusCancelled:
			s.Cancelled++
		case StatusInProgress:
			s.InProgress++
		case StatusCompleted:
			s.Completed++
		case StatusNoShow:
			s.NoShow++
		}
		if appt.Status.Blocking() {
			s.BookedMinutes += appt.DurationMin
		}
	}
	for _, sh := range shifts {
		s.ShiftMinutes += int(sh.EndAt.Sub(sh.StartAt).Minutes())
	}
	if s.ShiftMinutes > 0 {
		s.UtilizationPct = float64(s.BookedMinutes) / float64(s.ShiftMinutes) * 100
	}
	return s
}
