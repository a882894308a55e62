package schedule

import "sort"

// LayoutPosition is the horizontal band assigned to an appointment for
// side-by-side rendering. Left and Width are percentages of the column.
type LayoutPosition struct {
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	ZIndex int     `json:"z_index"`
}

// AppointmentLayout pairs an appointment with its computed position.
type AppointmentLayout struct {
	Appointment
	Position LayoutPosition `json:"position"`
}

// LayoutOptions tunes the column-packing geometry.
type LayoutOptions struct {
	// GapPercent separates adjacent bands within an overlap group.
	GapPercent float64
	// InsetPercent is the left inset for appointments with no overlap.
	InsetPercent float64
	// BaseZ is the stacking order of the first band in a group.
	BaseZ int
}

// DefaultLayoutOptions matches the calendar's rendering defaults.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{GapPercent: 2, InsetPercent: 1, BaseZ: 10}
}

// Layout assigns a non-colliding horizontal band to every appointment in
// one practitioner/day column. Appointments whose time ranges overlap are
// grouped by transitive closure (connected components of the overlap
// graph), so a chain A-B-C where A and C never touch still shares one
// band set. Members of an n-sized group split the column into n tracks
// separated by GapPercent; everything else renders full width.
//
// Pure function: input order does not matter and the input slice is not
// mutated. Every input appointment appears exactly once in the output.
func Layout(appointments []Appointment, opts LayoutOptions) []AppointmentLayout {
	if len(appointments) == 0 {
		return []AppointmentLayout{}
	}

	sorted := make([]Appointment, len(appointments))
	copy(sorted, appointments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].StartAt.Equal(sorted[j].StartAt) {
			return sorted[i].StartAt.Before(sorted[j].StartAt)
		}
		// Deterministic tie-break so repeated renders agree.
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	out := make([]AppointmentLayout, 0, len(sorted))
	for _, group := range overlapGroups(sorted) {
		n := len(group)
		if n == 1 {
			out = append(out, AppointmentLayout{
				Appointment: group[0],
				Position: LayoutPosition{
					Left:   opts.InsetPercent,
					Width:  100 - 2*opts.InsetPercent,
					ZIndex: opts.BaseZ,
				},
			})
			continue
		}
		width := (100 - float64(n-1)*opts.GapPercent) / float64(n)
		for i, appt := range group {
			out = append(out, AppointmentLayout{
				Appointment: appt,
				Position: LayoutPosition{
					Left:   float64(i) * (width + opts.GapPercent),
					Width:  width,
					ZIndex: opts.BaseZ + i,
				},
			})
		}
	}
	return out
}

// overlapGroups splits appointments (already sorted by start) into
// connected components of the half-open overlap relation. A component
// extends as long as the next appointment starts before the furthest end
// seen so far, which is exactly transitive closure for intervals.
func overlapGroups(sorted []Appointment) [][]Appointment {
	var groups [][]Appointment
	var current []Appointment
	var maxEnd = sorted[0].EndAt

	for i, appt := range sorted {
		if i == 0 || appt.StartAt.Before(maxEnd) {
			current = append(current, appt)
		} else {
			groups = append(groups, current)
			current = []Appointment{appt}
			maxEnd = appt.EndAt
		}
		if appt.EndAt.After(maxEnd) {
			maxEnd = appt.EndAt
		}
	}
	return append(groups, current)
}
