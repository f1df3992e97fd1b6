// Package metrics holds the Prometheus collectors for ledger activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics counts hashing, appends and slot failures.
type LedgerMetrics struct {
	HashedBytes          prometheus.Counter
	RecordsAppended      prometheus.Counter
	PersistFailures      prometheus.Counter
	LoadWarnings         *prometheus.CounterVec
	RegistrationFailures prometheus.Counter
	LedgerRecords        prometheus.Gauge
}

// NewLedgerMetrics creates the collectors and registers them on reg.
func NewLedgerMetrics(reg prometheus.Registerer) (*LedgerMetrics, error) {
	m := &LedgerMetrics{
		HashedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "provledger_hashed_bytes_total",
			Help: "Total number of content bytes digested.",
		}),
		RecordsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "provledger_records_appended_total",
			Help: "Total number of provenance records appended to the ledger.",
		}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "provledger_persist_failures_total",
			Help: "Total number of failed ledger writes to the durable slot.",
		}),
		LoadWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provledger_load_warnings_total",
			Help: "Total number of ledger loads that fell back to an empty ledger.",
		}, []string{"reason"}),
		RegistrationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "provledger_registration_failures_total",
			Help: "Total number of external registry calls that did not return a reference.",
		}),
		LedgerRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "provledger_ledger_records",
			Help: "Number of records currently held in the ledger.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.HashedBytes,
		m.RecordsAppended,
		m.PersistFailures,
		m.LoadWarnings,
		m.RegistrationFailures,
		m.LedgerRecords,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Nop returns collectors that are not registered anywhere.
func Nop() *LedgerMetrics {
	m, _ := NewLedgerMetrics(prometheus.NewRegistry())
	return m
}
