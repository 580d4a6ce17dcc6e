package statemachine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	actionsReduced = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "statemachine_actions_total",
		Help: "The total number of actions folded by the reducer",
	}, []string{"machine", "action"})

	stateChanges = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "statemachine_state_changes_total",
		Help: "The total number of reductions that produced a different state",
	}, []string{"machine"})

	effectEmissions = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "statemachine_effect_emissions_total",
		Help: "The total number of actions emitted by effects",
	}, []string{"machine", "effect"})

	effectPanics = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "statemachine_effect_panics_total",
		Help: "The total number of effects that recovered from a panic",
	}, []string{"machine", "effect"})

	inboxDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "statemachine_inbox_depth",
		Help: "The number of actions waiting to be reduced",
	}, []string{"machine"})
)
