package models

// Collection names one of the generated document sets. The value doubles as
// the output file stem.
type Collection string

const (
	CollectionLogs      Collection = "logs"
	CollectionMetrics   Collection = "metrics"
	CollectionBusiness  Collection = "business_metrics"
	CollectionIncidents Collection = "incidents_history"
)

// Collections returns every collection in serialisation order.
func Collections() []Collection {
	return []Collection{CollectionLogs, CollectionMetrics, CollectionBusiness, CollectionIncidents}
}

// Dataset is the output of a single scenario run.
type Dataset struct {
	Logs      []LogRecord
	Metrics   []MetricRecord
	Business  []BusinessRecord
	Incidents []IncidentRecord
}

// Documents returns the records of one collection as generic values, in
// generation order.
func (d Dataset) Documents(c Collection) []any {
	var out []any
	switch c {
	case CollectionLogs:
		out = make([]any, 0, len(d.Logs))
		for _, r := range d.Logs {
			out = append(out, r)
		}
	case CollectionMetrics:
		out = make([]any, 0, len(d.Metrics))
		for _, r := range d.Metrics {
			out = append(out, r)
		}
	case CollectionBusiness:
		out = make([]any, 0, len(d.Business))
		for _, r := range d.Business {
			out = append(out, r)
		}
	case CollectionIncidents:
		out = make([]any, 0, len(d.Incidents))
		for _, r := range d.Incidents {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of records in a collection.
func (d Dataset) Len(c Collection) int {
	switch c {
	case CollectionLogs:
		return len(d.Logs)
	case CollectionMetrics:
		return len(d.Metrics)
	case CollectionBusiness:
		return len(d.Business)
	case CollectionIncidents:
		return len(d.Incidents)
	}
	return 0
}

// Total returns the number of records across all collections.
func (d Dataset) Total() int {
	total := 0
	for _, c := range Collections() {
		total += d.Len(c)
	}
	return total
}
