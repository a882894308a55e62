package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/glowops/medspa-scheduling/internal/schedule"
	"github.com/glowops/medspa-scheduling/pkg/logging"
)

// ShiftsHandler expands recurring shift templates and manages the
// resulting instances.
type ShiftsHandler struct {
	store  *schedule.Store
	logger *logging.Logger
}

// NewShiftsHandler creates the shifts HTTP handler.
func NewShiftsHandler(store *schedule.Store, logger *logging.Logger) *ShiftsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ShiftsHandler{store: store, logger: logger}
}

// Create expands a shift template into its series and bulk-inserts the
// instances. Malformed templates fail with 422 before anything is
// written.
// POST /api/v1/shifts
func (h *ShiftsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var tpl schedule.ShiftTemplate
	if err := json.NewDecoder(r.Body).Decode(&tpl); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if tpl.PractitionerID == uuid.Nil {
		http.Error(w, "practitioner_id is required", http.StatusBadRequest)
		return
	}

	shifts, err := schedule.ExpandShifts(tpl)
	if err != nil {
		if schedule.IsValidation(err) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("shifts handler: expand", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := h.store.CreateShifts(r.Context(), shifts); err != nil {
		h.logger.Error("shifts handler: create", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("shift series created",
		"practitioner_id", tpl.PractitionerID,
		"repeat", tpl.Repeat,
		"instances", len(shifts),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"shifts": shifts,
		"count":  len(shifts),
	})
}

// Delete removes one shift instance, or the whole series when
// series=true is passed and the shift belongs to one.
// DELETE /api/v1/shifts/{shiftID}?series=true
func (h *ShiftsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	shiftID, err := uuid.Parse(chi.URLParam(r, "shiftID"))
	if err != nil {
		http.Error(w, "invalid shift id", http.StatusBadRequest)
		return
	}

	deleteSeries := r.URL.Query().Get("series") == "true"
	if deleteSeries {
		shift, err := h.store.GetShift(r.Context(), shiftID)
		if err != nil {
			if errors.Is(err, schedule.ErrNotFound) {
				http.Error(w, "shift not found", http.StatusNotFound)
				return
			}
			h.logger.Error("shifts handler: load", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if shift.SeriesID != uuid.Nil {
			n, err := h.store.DeleteSeries(r.Context(), shift.SeriesID)
			if err != nil {
				h.logger.Error("shifts handler: delete series", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"deleted": n})
			return
		}
		// Not part of a series; fall through to a single delete.
	}

	if err := h.store.DeleteShift(r.Context(), shiftID); err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			http.Error(w, "shift not found", http.StatusNotFound)
			return
		}
		h.logger.Error("shifts handler: delete", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": 1})
}
