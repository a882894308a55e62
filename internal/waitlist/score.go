package waitlist

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MatchWeights holds every tunable contribution to the match score, so
// operators can adjust behavior without code changes and tests can
// isolate a single weight's effect.
type MatchWeights struct {
	PriorityHigh   int
	PriorityMedium int
	PriorityLow    int

	ServiceExact   int
	ServicePartial int

	DurationFits    int
	DurationPenalty int

	PractitionerMatch int

	WaitPerDay int
	WaitCap    int

	FormsComplete int
	DepositPaid   int

	AvailabilityFit     int
	AvailabilityPenalty int

	// DeclinePenalty is subtracted per declined offer, up to DeclineCap.
	DeclinePenalty int
	DeclineCap     int
}

// DefaultWeights reproduces the production scoring behavior.
func DefaultWeights() MatchWeights {
	return MatchWeights{
		PriorityHigh:        30,
		PriorityMedium:      20,
		PriorityLow:         10,
		ServiceExact:        25,
		ServicePartial:      15,
		DurationFits:        20,
		DurationPenalty:     -10,
		PractitionerMatch:   20,
		WaitPerDay:          2,
		WaitCap:             15,
		FormsComplete:       10,
		DepositPaid:         5,
		AvailabilityFit:     15,
		AvailabilityPenalty: -15,
		DeclinePenalty:      5,
		DeclineCap:          25,
	}
}

// GoodMatchThreshold is the score at or above which the UI auto-suggests
// a candidate.
const GoodMatchThreshold = 50

// Scorer computes match scores for waitlist entries against open slots.
// The reference time is injected so wait-day math is reproducible.
type Scorer struct {
	weights MatchWeights
	// MinNoticeHours rejects slots starting too soon for the patient to
	// plausibly make it in.
	minNoticeHours float64
}

// NewScorer creates a scorer with the given weights.
func NewScorer(weights MatchWeights, minNoticeHours float64) *Scorer {
	return &Scorer{weights: weights, minNoticeHours: minNoticeHours}
}

// Eligible applies the hard requirements that gate an entry out of
// matching entirely, independent of score: the entry must be active, the
// service must fit the slot's duration, the slot must start inside the
// patient's availability window, and the slot must be far enough out to
// honor the minimum notice.
func (s *Scorer) Eligible(entry Entry, slot OpenSlot, now time.Time) bool {
	if entry.Status != EntryActive {
		return false
	}
	if entry.ServiceDurationMin > slot.DurationMin {
		return false
	}
	slotMin := slot.StartAt.Hour()*60 + slot.StartAt.Minute()
	if slotMin < entry.AvailStartMin || slotMin >= entry.AvailEndMin {
		return false
	}
	if s.minNoticeHours > 0 && slot.StartAt.Sub(now).Hours() < s.minNoticeHours {
		return false
	}
	return true
}

// Score computes the weighted match score of one entry against a freed
// slot, plus the human-readable reasons shown in the suggestion UI.
// Reasons surface positive signals only; penalties (duration misfit,
// outside availability, prior declines) silently lower the score.
func (s *Scorer) Score(entry Entry, slot OpenSlot, now time.Time) (int, []string) {
	w := s.weights
	score := 0
	var reasons []string

	switch entry.Priority {
	case PriorityHigh:
		score += w.PriorityHigh
		reasons = append(reasons, "High priority")
	case PriorityMedium:
		score += w.PriorityMedium
		reasons = append(reasons, "Medium priority")
	default:
		score += w.PriorityLow
	}

	entrySvc := strings.ToLower(strings.TrimSpace(entry.Service))
	slotSvc := strings.ToLower(strings.TrimSpace(slot.Service))
	switch {
	case entrySvc != "" && entrySvc == slotSvc:
		score += w.ServiceExact
		reasons = append(reasons, "Exact service match")
	case entrySvc != "" && slotSvc != "" &&
		(strings.Contains(entrySvc, slotSvc) || strings.Contains(slotSvc, entrySvc)):
		score += w.ServicePartial
		reasons = append(reasons, "Similar service")
	}

	if entry.ServiceDurationMin <= slot.DurationMin {
		score += w.DurationFits
		reasons = append(reasons, "Fits the open slot")
	} else {
		score += w.DurationPenalty
	}

	if entry.PreferredPractitioner != uuid.Nil && entry.PreferredPractitioner == slot.PractitionerID {
		score += w.PractitionerMatch
		reasons = append(reasons, "Preferred practitioner")
	}

	daysWaiting := int(now.Sub(entry.WaitingSince).Hours() / 24)
	if daysWaiting > 0 {
		bonus := daysWaiting * w.WaitPerDay
		if bonus > w.WaitCap {
			bonus = w.WaitCap
		}
		score += bonus
		if daysWaiting >= 3 {
			reasons = append(reasons, fmt.Sprintf("Waiting %d days", daysWaiting))
		}
	}

	if entry.FormsComplete {
		score += w.FormsComplete
		reasons = append(reasons, "Forms completed")
	}
	if entry.DepositCents > 0 {
		score += w.DepositPaid
		reasons = append(reasons, "Deposit paid")
	}

	slotMin := slot.StartAt.Hour()*60 + slot.StartAt.Minute()
	if slotMin >= entry.AvailStartMin && slotMin < entry.AvailEndMin {
		score += w.AvailabilityFit
		reasons = append(reasons, "Within preferred hours")
	} else {
		score += w.AvailabilityPenalty
	}

	if entry.DeclinedCount > 0 {
		penalty := entry.DeclinedCount * w.DeclinePenalty
		if penalty > w.DeclineCap {
			penalty = w.DeclineCap
		}
		score -= penalty
	}

	return score, reasons
}

// Rank scores every eligible entry against the slot and returns the
// candidates with positive scores, best first. Ties break on longest
// wait, then entry ID, so repeated runs agree.
func (s *Scorer) Rank(entries []Entry, slot OpenSlot, now time.Time) []MatchResult {
	results := make([]MatchResult, 0, len(entries))
	for _, entry := range entries {
		if !s.Eligible(entry, slot, now) {
			continue
		}
		score, reasons := s.Score(entry, slot, now)
		if score <= 0 {
			continue
		}
		results = append(results, MatchResult{Entry: entry, Score: score, Reasons: reasons})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].Entry.WaitingSince.Equal(results[j].Entry.WaitingSince) {
			return results[i].Entry.WaitingSince.Before(results[j].Entry.WaitingSince)
		}
		return results[i].Entry.ID.String() < results[j].Entry.ID.String()
	})
	return results
}
