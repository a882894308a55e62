package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/glowops/medspa-scheduling/internal/http/handlers"
	httpmiddleware "github.com/glowops/medspa-scheduling/internal/http/middleware"
	"github.com/glowops/medspa-scheduling/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Calendar           *handlers.CalendarHandler
	Shifts             *handlers.ShiftsHandler
	Waitlist           *handlers.WaitlistHandler
	MetricsHandler     http.Handler
	StaffJWTSecret     string
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		// Offer response links are sent to patients; rate-limit the
		// token endpoint.
		if cfg.Waitlist != nil {
			public.With(httpmiddleware.RateLimit(1, 5)).
				Post("/api/v1/waitlist/offers/{token}/respond", cfg.Waitlist.RespondOffer)
		}
	})

	// Staff-facing API, behind staff auth.
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(httpmiddleware.StaffJWT(cfg.StaffJWTSecret))

		api.Route("/calendar", func(cal chi.Router) {
			cal.Get("/day", cfg.Calendar.DayView)
			cal.Post("/validate-move", cfg.Calendar.ValidateMove)
		})

		api.Route("/shifts", func(sh chi.Router) {
			sh.Post("/", cfg.Shifts.Create)
			sh.Delete("/{shiftID}", cfg.Shifts.Delete)
		})

		api.Route("/waitlist", func(wl chi.Router) {
			wl.Get("/", cfg.Waitlist.List)
			wl.Post("/", cfg.Waitlist.Create)
			wl.Delete("/{entryID}", cfg.Waitlist.Remove)
			wl.Post("/match", cfg.Waitlist.Match)
			wl.Post("/offers", cfg.Waitlist.CreateOffer)
		})
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
