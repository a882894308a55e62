package waitlist

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Frozen reference time so wait-day math never drifts with the clock.
var refNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func baseEntry() Entry {
	return Entry{
		ID:                 uuid.New(),
		PatientID:          uuid.New(),
		PatientName:        "Riley Chen",
		Service:            "Botox",
		ServiceDurationMin: 30,
		Priority:           PriorityMedium,
		AvailStartMin:      0,
		AvailEndMin:        24 * 60,
		WaitingSince:       refNow,
		Status:             EntryActive,
	}
}

func baseSlot() OpenSlot {
	return OpenSlot{
		PractitionerID: uuid.New(),
		Service:        "Botox",
		DurationMin:    45,
		StartAt:        refNow.Add(48 * time.Hour),
	}
}

func TestScorer_Score_Components(t *testing.T) {
	w := DefaultWeights()
	scorer := NewScorer(w, 0)

	tests := []struct {
		name       string
		mutate     func(*Entry, *OpenSlot)
		wantScore  int
		wantReason string
	}{
		{
			name:   "baseline medium priority exact service",
			mutate: func(e *Entry, s *OpenSlot) {},
			// medium 20 + exact 25 + fits 20 + availability 15
			wantScore:  w.PriorityMedium + w.ServiceExact + w.DurationFits + w.AvailabilityFit,
			wantReason: "Exact service match",
		},
		{
			name: "high priority outscores medium",
			mutate: func(e *Entry, s *OpenSlot) {
				e.Priority = PriorityHigh
			},
			wantScore:  w.PriorityHigh + w.ServiceExact + w.DurationFits + w.AvailabilityFit,
			wantReason: "High priority",
		},
		{
			name: "partial service match",
			mutate: func(e *Entry, s *OpenSlot) {
				e.Service = "Botox touch-up"
			},
			wantScore:  w.PriorityMedium + w.ServicePartial + w.DurationFits + w.AvailabilityFit,
			wantReason: "Similar service",
		},
		{
			name: "duration misfit penalized silently",
			mutate: func(e *Entry, s *OpenSlot) {
				e.ServiceDurationMin = 90
			},
			wantScore: w.PriorityMedium + w.ServiceExact + w.DurationPenalty + w.AvailabilityFit,
		},
		{
			name: "preferred practitioner",
			mutate: func(e *Entry, s *OpenSlot) {
				e.PreferredPractitioner = s.PractitionerID
			},
			wantScore:  w.PriorityMedium + w.ServiceExact + w.DurationFits + w.PractitionerMatch + w.AvailabilityFit,
			wantReason: "Preferred practitioner",
		},
		{
			name: "forms and deposit",
			mutate: func(e *Entry, s *OpenSlot) {
				e.FormsComplete = true
				e.DepositCents = 5000
			},
			wantScore:  w.PriorityMedium + w.ServiceExact + w.DurationFits + w.FormsComplete + w.DepositPaid + w.AvailabilityFit,
			wantReason: "Deposit paid",
		},
		{
			name: "wait bonus capped",
			mutate: func(e *Entry, s *OpenSlot) {
				e.WaitingSince = refNow.AddDate(0, 0, -30)
			},
			wantScore:  w.PriorityMedium + w.ServiceExact + w.DurationFits + w.WaitCap + w.AvailabilityFit,
			wantReason: "Waiting 30 days",
		},
		{
			name: "decline penalty capped",
			mutate: func(e *Entry, s *OpenSlot) {
				e.DeclinedCount = 10
			},
			wantScore: w.PriorityMedium + w.ServiceExact + w.DurationFits + w.AvailabilityFit - w.DeclineCap,
		},
		{
			name: "outside availability penalized",
			mutate: func(e *Entry, s *OpenSlot) {
				e.AvailStartMin = 17 * 60
				e.AvailEndMin = 20 * 60
			},
			wantScore: w.PriorityMedium + w.ServiceExact + w.DurationFits + w.AvailabilityPenalty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := baseEntry()
			slot := baseSlot()
			tt.mutate(&entry, &slot)

			score, reasons := scorer.Score(entry, slot, refNow)
			assert.Equal(t, tt.wantScore, score)
			if tt.wantReason != "" {
				assert.Contains(t, reasons, tt.wantReason)
			}
		})
	}
}

func TestScorer_Score_ReasonsArePositiveOnly(t *testing.T) {
	scorer := NewScorer(DefaultWeights(), 0)
	entry := baseEntry()
	entry.ServiceDurationMin = 90 // misfit penalty
	entry.DeclinedCount = 4       // decline penalty
	entry.AvailStartMin = 17 * 60 // availability penalty
	entry.AvailEndMin = 20 * 60

	_, reasons := scorer.Score(entry, baseSlot(), refNow)
	for _, r := range reasons {
		assert.NotContains(t, r, "penal")
		assert.NotContains(t, r, "decline")
		assert.NotContains(t, r, "not")
	}
}

func TestScorer_Eligible(t *testing.T) {
	scorer := NewScorer(DefaultWeights(), 24)

	tests := []struct {
		name   string
		mutate func(*Entry, *OpenSlot)
		want   bool
	}{
		{name: "active entry fits", mutate: func(e *Entry, s *OpenSlot) {}, want: true},
		{
			name:   "booked entry is out",
			mutate: func(e *Entry, s *OpenSlot) { e.Status = EntryBooked },
			want:   false,
		},
		{
			name:   "removed entry is out",
			mutate: func(e *Entry, s *OpenSlot) { e.Status = EntryRemoved },
			want:   false,
		},
		{
			name:   "service longer than slot",
			mutate: func(e *Entry, s *OpenSlot) { e.ServiceDurationMin = s.DurationMin + 15 },
			want:   false,
		},
		{
			name: "slot outside availability window",
			mutate: func(e *Entry, s *OpenSlot) {
				e.AvailStartMin = 9 * 60
				e.AvailEndMin = 12 * 60
				s.StartAt = time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC)
			},
			want: false,
		},
		{
			name: "slot too soon for minimum notice",
			mutate: func(e *Entry, s *OpenSlot) {
				s.StartAt = refNow.Add(2 * time.Hour)
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := baseEntry()
			slot := baseSlot()
			tt.mutate(&entry, &slot)
			assert.Equal(t, tt.want, scorer.Eligible(entry, slot, refNow))
		})
	}
}

func TestScorer_Rank_OrderingAndFiltering(t *testing.T) {
	scorer := NewScorer(DefaultWeights(), 0)
	slot := baseSlot()

	high := baseEntry()
	high.Priority = PriorityHigh

	low := baseEntry()
	low.Priority = PriorityLow

	booked := baseEntry()
	booked.Priority = PriorityHigh
	booked.Status = EntryBooked

	results := scorer.Rank([]Entry{low, booked, high}, slot, refNow)
	require.Len(t, results, 2)
	assert.Equal(t, high.ID, results[0].Entry.ID)
	assert.Equal(t, low.ID, results[1].Entry.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestScorer_Rank_DropsNonPositiveScores(t *testing.T) {
	// Weights tuned so an eligible but repeatedly-declining entry lands
	// at or below zero.
	w := MatchWeights{
		PriorityLow:    5,
		DeclinePenalty: 5,
		DeclineCap:     25,
	}
	scorer := NewScorer(w, 0)

	discouraged := baseEntry()
	discouraged.Priority = PriorityLow
	discouraged.Service = "" // no service signal
	discouraged.DeclinedCount = 3

	keeper := baseEntry()
	keeper.Priority = PriorityLow

	score, _ := scorer.Score(discouraged, baseSlot(), refNow)
	require.LessOrEqual(t, score, 0)

	results := scorer.Rank([]Entry{discouraged, keeper}, baseSlot(), refNow)
	require.Len(t, results, 1)
	assert.Equal(t, keeper.ID, results[0].Entry.ID)
}

func TestScorer_Rank_TieBreaksOnLongestWait(t *testing.T) {
	scorer := NewScorer(DefaultWeights(), 0)
	slot := baseSlot()

	newer := baseEntry()
	older := baseEntry()
	// Same weights everywhere; only wait differs, but keep it under a day
	// so the wait bonus stays zero and the scores tie.
	older.WaitingSince = refNow.Add(-12 * time.Hour)

	results := scorer.Rank([]Entry{newer, older}, slot, refNow)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Equal(t, older.ID, results[0].Entry.ID)
}

func TestScorer_Rank_Deterministic(t *testing.T) {
	scorer := NewScorer(DefaultWeights(), 0)
	slot := baseSlot()
	entries := []Entry{baseEntry(), baseEntry(), baseEntry()}
	for i := range entries {
		entries[i].Priority = PriorityHigh
	}

	first := scorer.Rank(entries, slot, refNow)
	second := scorer.Rank([]Entry{entries[2], entries[0], entries[1]}, slot, refNow)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Entry.ID, second[i].Entry.ID)
	}
}

func TestOpenSlot_Key(t *testing.T) {
	id := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	slot := OpenSlot{
		PractitionerID: id,
		StartAt:        time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7:2025-03-12T14:00:00Z", slot.Key())
}
