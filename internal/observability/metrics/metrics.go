package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for the scheduling core.
type SchedulingMetrics struct {
	validateTotal  *prometheus.CounterVec
	overrideTotal  prometheus.Counter
	offerTotal     *prometheus.CounterVec
	matchedEntries prometheus.Histogram
	dayViewSize    prometheus.Histogram
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		validateTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medspa",
			Subsystem: "scheduling",
			Name:      "validate_move_total",
			Help:      "Outcomes of reschedule validations",
		}, []string{"outcome"}),
		overrideTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medspa",
			Subsystem: "scheduling",
			Name:      "double_booking_override_total",
			Help:      "Moves accepted despite a conflict under double-booking mode",
		}),
		offerTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medspa",
			Subsystem: "waitlist",
			Name:      "offer_total",
			Help:      "Waitlist offer lifecycle events",
		}, []string{"status"}),
		matchedEntries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "medspa",
			Subsystem: "waitlist",
			Name:      "match_results",
			Help:      "Ranked candidates returned per match run",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		}),
		dayViewSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "medspa",
			Subsystem: "scheduling",
			Name:      "day_view_appointments",
			Help:      "Appointments laid out per day view render",
			Buckets:   []float64{0, 2, 4, 8, 12, 16, 24},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.validateTotal, m.overrideTotal, m.offerTotal, m.matchedEntries, m.dayViewSize)
	return m
}

func (m *SchedulingMetrics) ObserveValidate(outcome string) {
	if m == nil {
		return
	}
	m.validateTotal.WithLabelValues(outcome).Inc()
}

func (m *SchedulingMetrics) ObserveOverride() {
	if m == nil {
		return
	}
	m.overrideTotal.Inc()
}

func (m *SchedulingMetrics) ObserveOffer(status string) {
	if m == nil {
		return
	}
	m.offerTotal.WithLabelValues(status).Inc()
}

func (m *SchedulingMetrics) ObserveMatchRun(results int) {
	if m == nil {
		return
	}
	m.matchedEntries.Observe(float64(results))
}

func (m *SchedulingMetrics) ObserveDayView(n int) {
	if m == nil {
		return
	}
	m.dayViewSize.Observe(float64(n))
}
