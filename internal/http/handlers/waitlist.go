package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/glowops/medspa-scheduling/internal/waitlist"
	"github.com/glowops/medspa-scheduling/pkg/logging"
)

// WaitlistHandler manages waitlist entries and the slot offer flow.
type WaitlistHandler struct {
	store  *waitlist.Store
	offers *waitlist.OfferService
	logger *logging.Logger
}

// NewWaitlistHandler creates the waitlist HTTP handler.
func NewWaitlistHandler(store *waitlist.Store, offers *waitlist.OfferService, logger *logging.Logger) *WaitlistHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WaitlistHandler{store: store, offers: offers, logger: logger}
}

// List returns every active waitlist entry.
// GET /api/v1/waitlist
func (h *WaitlistHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ListActive(r.Context())
	if err != nil {
		h.logger.Error("waitlist handler: list", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// Create adds a patient to the waitlist.
// POST /api/v1/waitlist
func (h *WaitlistHandler) Create(w http.ResponseWriter, r *http.Request) {
	var entry waitlist.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.store.CreateEntry(r.Context(), &entry); err != nil {
		var ve *waitlist.ValidationError
		if errors.As(err, &ve) {
			http.Error(w, ve.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("waitlist handler: create", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(entry)
}

// Remove takes an entry off the waitlist.
// DELETE /api/v1/waitlist/{entryID}
func (h *WaitlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(chi.URLParam(r, "entryID"))
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}
	if err := h.store.RemoveEntry(r.Context(), entryID); err != nil {
		if errors.Is(err, waitlist.ErrNotFound) {
			http.Error(w, "entry not found", http.StatusNotFound)
			return
		}
		h.logger.Error("waitlist handler: remove", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Match ranks the waitlist against a freed slot without side effects,
// for the calendar's suggestion banner.
// POST /api/v1/waitlist/match
func (h *WaitlistHandler) Match(w http.ResponseWriter, r *http.Request) {
	var slot waitlist.OpenSlot
	if err := json.NewDecoder(r.Body).Decode(&slot); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if slot.PractitionerID == uuid.Nil || slot.StartAt.IsZero() || slot.DurationMin <= 0 {
		http.Error(w, "practitioner_id, start_at and duration_min are required", http.StatusBadRequest)
		return
	}
	results, err := h.offers.Suggest(r.Context(), slot)
	if err != nil {
		h.logger.Error("waitlist handler: match", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"matches": results,
		"count":   len(results),
	})
}

// CreateOffer locks the freed slot and opens an offer for the best
// candidate. 409 means another offer already holds the slot or every
// candidate was already offered it.
// POST /api/v1/waitlist/offers
func (h *WaitlistHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var slot waitlist.OpenSlot
	if err := json.NewDecoder(r.Body).Decode(&slot); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if slot.PractitionerID == uuid.Nil || slot.StartAt.IsZero() || slot.DurationMin <= 0 {
		http.Error(w, "practitioner_id, start_at and duration_min are required", http.StatusBadRequest)
		return
	}

	offer, match, err := h.offers.CreateOffer(r.Context(), slot)
	switch {
	case errors.Is(err, waitlist.ErrNoCandidates):
		http.Error(w, "no matching candidates", http.StatusNotFound)
		return
	case errors.Is(err, waitlist.ErrSlotLocked), errors.Is(err, waitlist.ErrAlreadyOffered):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		h.logger.Error("waitlist handler: create offer", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"offer": offer,
		"match": match,
	})
}

type offerResponse struct {
	Accept bool `json:"accept"`
}

// RespondOffer settles a pending offer by its token.
// POST /api/v1/waitlist/offers/{token}/respond
func (h *WaitlistHandler) RespondOffer(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		http.Error(w, "missing token", http.StatusBadRequest)
		return
	}
	var body offerResponse
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	offer, err := h.offers.Respond(r.Context(), token, body.Accept)
	switch {
	case errors.Is(err, waitlist.ErrNotFound):
		http.Error(w, "offer not found", http.StatusNotFound)
		return
	case errors.Is(err, waitlist.ErrOfferExpired):
		http.Error(w, "offer expired", http.StatusGone)
		return
	case errors.Is(err, waitlist.ErrOfferSettled):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		h.logger.Error("waitlist handler: respond", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(offer)
}
