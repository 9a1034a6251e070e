// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"time"

	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsInterval = 10 * time.Second

type metrics struct {
	stallStart time.Time
	writeStall prometheus.Histogram
	getLatency prometheus.Histogram

	compactions       *prometheus.CounterVec
	activeCompactions prometheus.Gauge

	tombstones    prometheus.Gauge
	diskUsage     prometheus.Gauge
	obsoleteBytes prometheus.Gauge
}

func newMetrics() (*prometheus.Registry, *metrics, error) {
	r := prometheus.NewRegistry()
	m := &metrics{
		writeStall: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pebble",
			Name:      "write_stall_seconds",
			Help:      "time spent waiting for disk writes to drain",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		getLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pebble",
			Name:      "get_seconds",
			Help:      "latency of point reads",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		compactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pebble",
			Name:      "compactions",
			Help:      "number of compactions by input level",
		}, []string{"level"}),
		activeCompactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pebble",
			Name:      "active_compactions",
			Help:      "number of compactions in progress",
		}),
		tombstones: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pebble",
			Name:      "tombstone_count",
			Help:      "approximate count of internal tombstones",
		}),
		diskUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pebble",
			Name:      "disk_usage_bytes",
			Help:      "bytes used on disk by the store",
		}),
		obsoleteBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pebble",
			Name:      "obsolete_bytes",
			Help:      "bytes held by tables and WAL segments no longer referenced",
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.writeStall),
		r.Register(m.getLatency),
		r.Register(m.compactions),
		r.Register(m.activeCompactions),
		r.Register(m.tombstones),
		r.Register(m.diskUsage),
		r.Register(m.obsoleteBytes),
	)
	return r, m, errs.Err
}

func (db *Database) onCompactionBegin(info pebble.CompactionInfo) {
	db.metrics.activeCompactions.Inc()
	level := "l1+"
	if len(info.Input) > 0 && info.Input[0].Level == 0 {
		level = "l0"
	}
	db.metrics.compactions.WithLabelValues(level).Inc()
}

func (db *Database) onCompactionEnd(pebble.CompactionInfo) {
	db.metrics.activeCompactions.Dec()
}

func (db *Database) onWriteStallBegin(pebble.WriteStallBeginInfo) {
	db.metrics.stallStart = time.Now()
}

func (db *Database) onWriteStallEnd() {
	db.metrics.writeStall.Observe(time.Since(db.metrics.stallStart).Seconds())
}

func (db *Database) collectMetrics() {
	t := time.NewTicker(metricsInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			m := db.db.Metrics()
			db.metrics.tombstones.Set(float64(m.Keys.TombstoneCount))
			db.metrics.diskUsage.Set(float64(m.DiskSpaceUsage()))
			db.metrics.obsoleteBytes.Set(float64(m.Table.ObsoleteSize + m.WAL.ObsoletePhysicalSize))
		case <-db.closing:
			return
		}
	}
}
