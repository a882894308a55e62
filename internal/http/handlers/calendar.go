// Package handlers exposes the scheduling core over HTTP for the
// calendar UI and booking API.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/glowops/medspa-scheduling/internal/observability/metrics"
	"github.com/glowops/medspa-scheduling/internal/schedule"
	"github.com/glowops/medspa-scheduling/pkg/logging"
)

// CalendarHandler serves day views with overlap layout and validates
// drag-and-drop reschedules.
type CalendarHandler struct {
	store   *schedule.Store
	layout  schedule.LayoutOptions
	metrics *metrics.SchedulingMetrics
	logger  *logging.Logger
}

// NewCalendarHandler creates the calendar HTTP handler.
func NewCalendarHandler(store *schedule.Store, layout schedule.LayoutOptions, m *metrics.SchedulingMetrics, logger *logging.Logger) *CalendarHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CalendarHandler{store: store, layout: layout, metrics: m, logger: logger}
}

// DayView returns a practitioner's appointments for a date with layout
// positions assigned, the day's shifts, and a summary block.
// GET /api/v1/calendar/day?practitioner_id=...&date=2025-06-01
func (h *CalendarHandler) DayView(w http.ResponseWriter, r *http.Request) {
	practitionerID, err := uuid.Parse(r.URL.Query().Get("practitioner_id"))
	if err != nil {
		http.Error(w, "invalid practitioner_id", http.StatusBadRequest)
		return
	}
	day, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	appointments, err := h.store.ListAppointmentsForDay(r.Context(), practitionerID, day)
	if err != nil {
		h.logger.Error("calendar handler: list appointments", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	shifts, err := h.store.ListShiftsForDay(r.Context(), practitionerID, day)
	if err != nil {
		h.logger.Error("calendar handler: list shifts", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	laid := schedule.Layout(appointments, h.layout)
	h.metrics.ObserveDayView(len(laid))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"appointments": laid,
		"shifts":       shifts,
		"summary":      schedule.SummarizeDay(appointments, shifts),
	})
}

type validateMoveRequest struct {
	Candidate          schedule.MoveCandidate `json:"candidate"`
	AllowDoubleBooking bool                   `json:"allow_double_booking"`
}

// ValidateMove checks a candidate reschedule against the practitioner's
// shift and existing bookings for that day. The result tells the drag
// UI whether the move was accepted as-is, adjusted to fit the shift, or
// conflicts with another booking. Nothing is persisted here.
// POST /api/v1/calendar/validate-move
func (h *CalendarHandler) ValidateMove(w http.ResponseWriter, r *http.Request) {
	var req validateMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Candidate.PractitionerID == uuid.Nil || req.Candidate.StartAt.IsZero() {
		http.Error(w, "practitioner_id and start_at are required", http.StatusBadRequest)
		return
	}

	existing, err := h.store.ListAppointmentsForDay(r.Context(), req.Candidate.PractitionerID, req.Candidate.StartAt)
	if err != nil {
		h.logger.Error("calendar handler: list appointments", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	shifts, err := h.store.ListShiftsForDay(r.Context(), req.Candidate.PractitionerID, req.Candidate.StartAt)
	if err != nil {
		h.logger.Error("calendar handler: list shifts", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	shift, ok := pickShift(shifts, req.Candidate.StartAt)
	if !ok {
		h.metrics.ObserveValidate("no_shift")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(schedule.MoveResult{
			AdjustedStart:    req.Candidate.StartAt,
			AdjustedDuration: req.Candidate.DurationMin,
			Conflict:         true,
			Reason:           "no shift scheduled",
		})
		return
	}

	result := schedule.ValidateMove(req.Candidate, existing, shift, req.AllowDoubleBooking)
	switch {
	case result.Conflict:
		h.metrics.ObserveValidate("conflict")
	case result.Adjusted:
		h.metrics.ObserveValidate("adjusted")
	default:
		h.metrics.ObserveValidate("ok")
	}
	if req.AllowDoubleBooking && !result.Conflict && result.Reason != "" {
		// Conflicting move accepted under double-booking mode; leave an
		// audit trail.
		h.metrics.ObserveOverride()
		h.logger.Warn("double-booking override",
			"practitioner_id", req.Candidate.PractitionerID,
			"appointment_id", req.Candidate.AppointmentID,
			"start_at", result.AdjustedStart,
			"reason", result.Reason,
		)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// pickShift selects the shift whose window contains the candidate start,
// falling back to the day's first shift so out-of-shift moves still
// report the boundaries they were clamped against.
func pickShift(shifts []schedule.Shift, at time.Time) (schedule.Shift, bool) {
	for _, s := range shifts {
		if s.Contains(at) {
			return s, true
		}
	}
	if len(shifts) > 0 {
		return shifts[0], true
	}
	return schedule.Shift{}, false
}
