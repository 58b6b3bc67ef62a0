package rpc

import (
	rpctypes "github.com/tendermint/tendermint/rpc/jsonrpc/types"
)

type ResultMetrics struct {
	Metrics map[string]string `json:"metrics"`
}

// JSONMetrics renders the registered metric items. With an empty label every
// item is included.
func JSONMetrics(ctx *rpctypes.Context, label string) (*ResultMetrics, error) {
	result := &ResultMetrics{Metrics: make(map[string]string)}

	var labels []string
	if label != "" {
		labels = []string{label}
	} else {
		labels = env.MetricSet.Labels()
	}

	for _, l := range labels {
		item := env.MetricSet.Get(l)
		if item != nil {
			result.Metrics[l] = item.JSONString()
		}
	}

	return result, nil
}
