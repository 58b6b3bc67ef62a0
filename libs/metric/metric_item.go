package metric

// MetricItem is implemented by every component that exposes a metric view.
// JSONString renders the component's current state as a JSON document.
type MetricItem interface {
	JSONString() string
}

type mockMetricItem struct {
	name string
}

func (mock *mockMetricItem) JSONString() string {
	return mock.name
}
