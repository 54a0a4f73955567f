package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GamesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fourinarow_games_created_total",
		Help: "Total games created",
	})
	GamesReaped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fourinarow_games_reaped_total",
		Help: "Total empty games removed by the reaper",
	})
	ActiveGames = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fourinarow_active_games",
		Help: "Games currently held in the registry",
	})
	TokensPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fourinarow_tokens_placed_total",
		Help: "Total tokens placed on play fields",
	})
	CardsPlayed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fourinarow_cards_played_total",
			Help: "Total cards played",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(GamesCreated, GamesReaped, ActiveGames, TokensPlaced, CardsPlayed)
}
