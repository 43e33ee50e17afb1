package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matchOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinebot_match_outcomes_total",
		Help: "Query resolutions by outcome.",
	}, []string{"outcome"})
	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinebot_deliveries_total",
		Help: "Poster and file sends by kind and result.",
	}, []string{"kind", "result"})
	handoffTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinebot_handoff_transitions_total",
		Help: "Deep-link handoff state transitions.",
	}, []string{"state"})
	broadcastPostsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinebot_broadcast_posts_total",
		Help: "Messages copied to the updates channel by result.",
	}, []string{"result"})
)
