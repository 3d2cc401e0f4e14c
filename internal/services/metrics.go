package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// sommelierReplies counts chat turns by the dispatch route that answered.
	sommelierReplies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sommelier_replies_total",
			Help: "Total number of sommelier replies by dispatch route.",
		},
		[]string{"route"},
	)

	// flowCompletions counts flows that reached a result step or closing option.
	flowCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sommelier_flow_completions_total",
			Help: "Total number of completed conversation flows by flow id.",
		},
		[]string{"flow"},
	)
)

func init() {
	prometheus.MustRegister(sommelierReplies, flowCompletions)
}
