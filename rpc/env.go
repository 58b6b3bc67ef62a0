package rpc

import (
	"dagbft_demo/consensus"
	"dagbft_demo/libs/metric"
)

var env *Environment

func SetEnvironment(e *Environment) {
	env = e
}

// Environment carries the handles the RPC handlers read from. Status is a
// callback so the node can report its lifecycle state without this package
// depending on it.
type Environment struct {
	Shared *consensus.SharedState
	Status func() string

	MetricSet *metric.MetricSet
}
