// Package metrics exposes Prometheus instruments for the record store.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation results
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// StoreOperations counts record store calls by operation and result.
var StoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "minicrm",
	Subsystem: "store",
	Name:      "operations_total",
	Help:      "Record store operations by operation and result.",
}, []string{"operation", "result"})

// InvoicesIssued counts invoices that were persisted.
var InvoicesIssued = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "minicrm",
	Subsystem: "store",
	Name:      "invoices_issued_total",
	Help:      "Invoice numbers issued.",
})

// HistoryTrimmed counts history entries dropped by the retention cap.
var HistoryTrimmed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "minicrm",
	Subsystem: "store",
	Name:      "history_trimmed_total",
	Help:      "History entries dropped because a customer exceeded the retention cap.",
})

// Classifier maps an error to a result label.
type Classifier struct {
	NotFound error
	Invalid  error
	Conflict error
}

// Observe records one operation outcome.
func (c Classifier) Observe(operation string, err error) {
	StoreOperations.WithLabelValues(operation, c.result(err)).Inc()
}

func (c Classifier) result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case c.NotFound != nil && errors.Is(err, c.NotFound):
		return ResultNotFound
	case c.Invalid != nil && errors.Is(err, c.Invalid):
		return ResultInvalid
	case c.Conflict != nil && errors.Is(err, c.Conflict):
		return ResultConflict
	default:
		return ResultError
	}
}
