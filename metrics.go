package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are deliberately low-cardinality: no per-player or per-entity
// labels, since a player id is attacker-controlled input.
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cellserver_tick_duration_seconds",
		Help:    "Time spent advancing one simulation tick",
		Buckets: []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.033, 0.05, 0.1},
	})

	playerCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cellserver_player_count",
		Help: "Current number of players in the roster",
	})

	foodCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cellserver_food_count",
		Help: "Current number of food items",
	})

	virusCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cellserver_virus_count",
		Help: "Current number of viruses",
	})

	massFoodCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cellserver_mass_food_count",
		Help: "Current number of in-flight or resting mass-food projectiles",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cellserver_connection_rejected_total",
		Help: "Connections rejected before a session was created",
	}, []string{"reason"}) // bounded: "rate_limit", "origin"

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cellserver_ws_connections_active",
		Help: "Currently open WebSocket connections, admitted or not",
	})

	eatsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cellserver_eats_total",
		Help: "Entities consumed, by kind",
	}, []string{"kind"}) // bounded: "food", "mass_food", "virus", "player"
)

// RecordTick records one tick's wall-clock duration.
func RecordTick(d time.Duration) { tickDuration.Observe(d.Seconds()) }

// UpdateWorldGauges refreshes the point-in-time entity gauges; called once
// at the end of every tick.
func UpdateWorldGauges(players, food, virus, massFood int) {
	playerCount.Set(float64(players))
	foodCount.Set(float64(food))
	virusCount.Set(float64(virus))
	massFoodCount.Set(float64(massFood))
}

// RecordConnectionRejected increments the rejection counter. reason must be
// one of "rate_limit" or "origin".
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// UpdateWSConnections sets the active WebSocket connection gauge.
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// RecordEat increments the eaten-entity counter for kind, one of "food",
// "mass_food", "virus", or "player".
func RecordEat(kind string) { eatsTotal.WithLabelValues(kind).Inc() }

// MetricsHandler exposes the Prometheus exposition endpoint.
func MetricsHandler() http.Handler { return promhttp.Handler() }
