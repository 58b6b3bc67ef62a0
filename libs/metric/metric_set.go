package metric

import (
	"errors"
	"sync"
)

var (
	ErrMetricLabelExist = errors.New("metric label already exist")
)

func NewMetricSet() *MetricSet {
	return &MetricSet{
		metrics: make(map[string]MetricItem),
	}
}

// MetricSet is a label-keyed registry of metric items, safe for concurrent
// registration and lookup.
type MetricSet struct {
	mtx     sync.RWMutex
	metrics map[string]MetricItem
}

// Register binds item to label. Registering an existing label fails.
func (ms *MetricSet) Register(label string, item MetricItem) error {
	ms.mtx.Lock()
	defer ms.mtx.Unlock()

	if _, existed := ms.metrics[label]; existed {
		return ErrMetricLabelExist
	}
	ms.metrics[label] = item
	return nil
}

func (ms *MetricSet) Has(label string) bool {
	ms.mtx.RLock()
	_, existed := ms.metrics[label]
	ms.mtx.RUnlock()
	return existed
}

func (ms *MetricSet) Get(label string) MetricItem {
	ms.mtx.RLock()
	defer ms.mtx.RUnlock()
	return ms.metrics[label]
}

func (ms *MetricSet) Labels() []string {
	ms.mtx.RLock()
	defer ms.mtx.RUnlock()

	keys := make([]string, 0, len(ms.metrics))
	for k := range ms.metrics {
		keys = append(keys, k)
	}
	return keys
}
