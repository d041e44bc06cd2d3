package manager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts manager operations. Register it once per process; a nil
// registerer yields unregistered collectors, which tests rely on.
type Metrics struct {
	PoolsCreated  prometheus.Counter
	MintsTotal    prometheus.Counter
	BurnsTotal    prometheus.Counter
	SwapsTotal    prometheus.Counter
	CollectsTotal prometheus.Counter
	OpFailures    *prometheus.CounterVec
}

// NewMetrics builds the manager metric set on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PoolsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: "clamm", Subsystem: "manager",
			Name: "pools_created_total", Help: "Pools created through the manager.",
		}),
		MintsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "clamm", Subsystem: "manager",
			Name: "mints_total", Help: "Successful liquidity mints.",
		}),
		BurnsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "clamm", Subsystem: "manager",
			Name: "burns_total", Help: "Successful liquidity burns.",
		}),
		SwapsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "clamm", Subsystem: "manager",
			Name: "swaps_total", Help: "Successful swaps.",
		}),
		CollectsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "clamm", Subsystem: "manager",
			Name: "collects_total", Help: "Successful fee collections.",
		}),
		OpFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clamm", Subsystem: "manager",
			Name: "op_failures_total", Help: "Failed operations by kind.",
		}, []string{"op"}),
	}
}
