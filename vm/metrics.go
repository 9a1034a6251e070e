// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	sent      prometheus.Counter
	delivered prometheus.Counter
	bounced   prometheus.Counter
	credited  prometheus.Counter
	failed    prometheus.Counter
	inFlight  prometheus.Gauge
	feesSpent prometheus.Counter
	handle    prometheus.Histogram
}

func newMetrics() (*prometheus.Registry, *metrics, error) {
	r := prometheus.NewRegistry()
	m := &metrics{
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vm",
			Name:      "messages_sent",
			Help:      "number of messages queued for delivery",
		}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vm",
			Name:      "messages_delivered",
			Help:      "number of messages handled by an actor",
		}),
		bounced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vm",
			Name:      "messages_bounced",
			Help:      "number of messages returned to their sender",
		}),
		credited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vm",
			Name:      "messages_credited",
			Help:      "number of messages credited to an address without a handler",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vm",
			Name:      "handler_failures",
			Help:      "number of handlers that returned an error",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vm",
			Name:      "messages_in_flight",
			Help:      "number of messages sent but not yet handled",
		}),
		feesSpent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vm",
			Name:      "message_fees",
			Help:      "native value consumed by message delivery",
		}),
		handle: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vm",
			Name:      "handle_seconds",
			Help:      "time spent handling a single message",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.sent),
		r.Register(m.delivered),
		r.Register(m.bounced),
		r.Register(m.credited),
		r.Register(m.failed),
		r.Register(m.inFlight),
		r.Register(m.feesSpent),
		r.Register(m.handle),
	)
	return r, m, errs.Err
}
