package metrics

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trak"

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	commutesLogged      *prometheus.CounterVec
	co2SavedKg          prometheus.Counter
	pointsAwarded       prometheus.Counter
	challengesJoined    prometheus.Counter
	challengesCompleted prometheus.Counter
	rewardsRedeemed     prometheus.Counter
	redemptionsRejected *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		commutesLogged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commutes_logged_total",
			Help:      "Commute logs created, by commute type.",
		}, []string{"commute_type"}),
		co2SavedKg: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "co2_saved_kg_total",
			Help:      "Estimated kilograms of CO2 saved across all logs.",
		}),
		pointsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_awarded_total",
			Help:      "Points awarded for commutes and completed challenges.",
		}),
		challengesJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_joined_total",
			Help:      "Challenge joins.",
		}),
		challengesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_completed_total",
			Help:      "Challenges completed by participants.",
		}),
		rewardsRedeemed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewards_redeemed_total",
			Help:      "Successful reward redemptions.",
		}),
		redemptionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redemptions_rejected_total",
			Help:      "Rejected redemptions by reason.",
		}, []string{"reason"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.commutesLogged,
		m.co2SavedKg,
		m.pointsAwarded,
		m.challengesJoined,
		m.challengesCompleted,
		m.rewardsRedeemed,
		m.redemptionsRejected,
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:            errorLog{},
		ErrorHandling:       promhttp.ContinueOnError,
		Registry:            m.registry,
		MaxRequestsInFlight: 5,
	})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) CommuteLogged(commuteType string, co2SavedKg, points int) {
	if m == nil {
		return
	}
	m.commutesLogged.WithLabelValues(commuteType).Inc()
	m.co2SavedKg.Add(float64(co2SavedKg))
	m.pointsAwarded.Add(float64(points))
}

func (m *Metrics) ChallengeJoined() {
	if m == nil {
		return
	}
	m.challengesJoined.Inc()
}

func (m *Metrics) ChallengeCompleted(rewardPoints int) {
	if m == nil {
		return
	}
	m.challengesCompleted.Inc()
	m.pointsAwarded.Add(float64(rewardPoints))
}

func (m *Metrics) RewardRedeemed() {
	if m == nil {
		return
	}
	m.rewardsRedeemed.Inc()
}

func (m *Metrics) RedemptionRejected(reason string) {
	if m == nil {
		return
	}
	m.redemptionsRejected.WithLabelValues(reason).Inc()
}

// errorLog adapts promhttp's logger to slog.
type errorLog struct{}

func (errorLog) Println(v ...any) {
	slog.Error("prometheus handler error", "error", fmt.Sprint(v...))
}
