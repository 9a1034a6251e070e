// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are shared by every pool of a vm.
type Metrics struct {
	operations *prometheus.CounterVec
	refunds    *prometheus.CounterVec
	donations  prometheus.Counter
	payouts    prometheus.Counter
}

func NewMetrics() (*prometheus.Registry, *Metrics, error) {
	r := prometheus.NewRegistry()
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pool",
			Name:      "operations",
			Help:      "number of operations applied by pools",
		}, []string{"op"}),
		refunds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pool",
			Name:      "refunds",
			Help:      "number of operations refunded by pools",
		}, []string{"reason"}),
		donations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pool",
			Name:      "donations",
			Help:      "number of transfers kept without an operation",
		}),
		payouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pool",
			Name:      "fee_payouts",
			Help:      "number of accumulated fee transfers",
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.operations),
		r.Register(m.refunds),
		r.Register(m.donations),
		r.Register(m.payouts),
	)
	return r, m, errs.Err
}
