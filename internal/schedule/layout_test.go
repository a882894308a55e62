package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apptAt(t *testing.T, start string, durationMin int) Appointment {
	t.Helper()
	st, err := time.Parse(time.RFC3339, start)
	require.NoError(t, err)
	return Appointment{
		ID:          uuid.New(),
		StartAt:     st,
		EndAt:       st.Add(time.Duration(durationMin) * time.Minute),
		DurationMin: durationMin,
		Status:      StatusConfirmed,
	}
}

func positionsByID(layouts []AppointmentLayout) map[uuid.UUID]LayoutPosition {
	m := make(map[uuid.UUID]LayoutPosition, len(layouts))
	for _, l := range layouts {
		m[l.ID] = l.Position
	}
	return m
}

func TestLayout_Empty(t *testing.T) {
	out := Layout(nil, DefaultLayoutOptions())
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestLayout_NoOverlapFullWidth(t *testing.T) {
	opts := DefaultLayoutOptions()
	a := apptAt(t, "2025-03-10T09:00:00Z", 30)
	b := apptAt(t, "2025-03-10T09:30:00Z", 30) // abuts a, half-open: no overlap
	c := apptAt(t, "2025-03-10T11:00:00Z", 45)

	out := Layout([]Appointment{c, a, b}, opts)
	require.Len(t, out, 3)

	for id, pos := range positionsByID(out) {
		assert.Equal(t, opts.InsetPercent, pos.Left, "appointment %s", id)
		assert.Equal(t, 100-2*opts.InsetPercent, pos.Width, "appointment %s", id)
		assert.Equal(t, opts.BaseZ, pos.ZIndex, "appointment %s", id)
	}
}

func TestLayout_TwoWayOverlapSplitsColumn(t *testing.T) {
	opts := DefaultLayoutOptions()
	a := apptAt(t, "2025-03-10T09:00:00Z", 60)
	b := apptAt(t, "2025-03-10T09:30:00Z", 60)

	out := Layout([]Appointment{b, a}, opts)
	require.Len(t, out, 2)

	wantWidth := (100 - opts.GapPercent) / 2
	pos := positionsByID(out)
	assert.InDelta(t, 0, pos[a.ID].Left, 1e-9)
	assert.InDelta(t, wantWidth, pos[a.ID].Width, 1e-9)
	assert.Equal(t, opts.BaseZ, pos[a.ID].ZIndex)
	assert.InDelta(t, wantWidth+opts.GapPercent, pos[b.ID].Left, 1e-9)
	assert.InDelta(t, wantWidth, pos[b.ID].Width, 1e-9)
	assert.Equal(t, opts.BaseZ+1, pos[b.ID].ZIndex)
}

// A chain where the first and last appointments never touch must still
// land in one group: A 9:00-9:30, B 9:15-9:45, C 9:30-10:00.
func TestLayout_TransitiveChainGroupsTogether(t *testing.T) {
	opts := DefaultLayoutOptions()
	a := apptAt(t, "2025-03-10T09:00:00Z", 30)
	b := apptAt(t, "2025-03-10T09:15:00Z", 30)
	c := apptAt(t, "2025-03-10T09:30:00Z", 30)
	require.False(t, a.Overlaps(c), "a and c must not overlap directly")

	out := Layout([]Appointment{c, a, b}, opts)
	require.Len(t, out, 3)

	wantWidth := (100 - 2*opts.GapPercent) / 3
	pos := positionsByID(out)
	for _, appt := range []Appointment{a, b, c} {
		assert.InDelta(t, wantWidth, pos[appt.ID].Width, 1e-9)
	}
	assert.InDelta(t, 0, pos[a.ID].Left, 1e-9)
	assert.InDelta(t, wantWidth+opts.GapPercent, pos[b.ID].Left, 1e-9)
	assert.InDelta(t, 2*(wantWidth+opts.GapPercent), pos[c.ID].Left, 1e-9)
}

func TestLayout_BandsNeverCollideWithinGroup(t *testing.T) {
	opts := DefaultLayoutOptions()
	appts := []Appointment{
		apptAt(t, "2025-03-10T09:00:00Z", 120),
		apptAt(t, "2025-03-10T09:20:00Z", 30),
		apptAt(t, "2025-03-10T09:40:00Z", 30),
		apptAt(t, "2025-03-10T10:00:00Z", 45),
	}
	out := Layout(appts, opts)
	require.Len(t, out, 4)

	// Every band ends before the next one begins (the gap separates them),
	// and nothing runs past the column.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if !out[i].Overlaps(out[j].Appointment) {
				continue
			}
			li, ri := out[i].Position.Left, out[i].Position.Left+out[i].Position.Width
			lj, rj := out[j].Position.Left, out[j].Position.Left+out[j].Position.Width
			assert.True(t, ri <= lj+1e-9 || rj <= li+1e-9,
				"overlapping appointments share horizontal space: [%v,%v) vs [%v,%v)", li, ri, lj, rj)
		}
		assert.LessOrEqual(t, out[i].Position.Left+out[i].Position.Width, 100+1e-9)
	}
}

func TestLayout_DeterministicAcrossInputOrder(t *testing.T) {
	opts := DefaultLayoutOptions()
	a := apptAt(t, "2025-03-10T09:00:00Z", 60)
	b := apptAt(t, "2025-03-10T09:00:00Z", 45) // same start, tie-break on ID
	c := apptAt(t, "2025-03-10T09:30:00Z", 60)

	first := positionsByID(Layout([]Appointment{a, b, c}, opts))
	second := positionsByID(Layout([]Appointment{c, b, a}, opts))
	assert.Equal(t, first, second)
}

func TestLayout_InputNotMutated(t *testing.T) {
	a := apptAt(t, "2025-03-10T10:00:00Z", 30)
	b := apptAt(t, "2025-03-10T09:00:00Z", 30)
	in := []Appointment{a, b}

	Layout(in, DefaultLayoutOptions())
	assert.Equal(t, a.ID, in[0].ID)
	assert.Equal(t, b.ID, in[1].ID)
}

func TestLayout_EveryInputAppearsOnce(t *testing.T) {
	appts := []Appointment{
		apptAt(t, "2025-03-10T09:00:00Z", 60),
		apptAt(t, "2025-03-10T09:30:00Z", 60),
		apptAt(t, "2025-03-10T12:00:00Z", 30),
	}
	out := Layout(appts, DefaultLayoutOptions())
	require.Len(t, out, len(appts))

	seen := make(map[uuid.UUID]bool)
	for _, l := range out {
		assert.False(t, seen[l.ID], "appointment %s appears twice", l.ID)
		seen[l.ID] = true
	}
	for _, appt := range appts {
		assert.True(t, seen[appt.ID], "appointment %s missing from layout", appt.ID)
	}
}
