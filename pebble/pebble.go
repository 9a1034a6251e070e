// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/units"
	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/exp/slices"
)

var (
	_ database.Database = (*Database)(nil)
	_ database.Batch    = (*batch)(nil)
	_ database.Iterator = (*iterator)(nil)
)

type Config struct {
	CacheSize                   int   `json:"cacheSize"`
	BytesPerSync                int   `json:"bytesPerSync"`
	WALBytesPerSync             int   `json:"walBytesPerSync"`
	MemTableStopWritesThreshold int   `json:"memTableStopWritesThreshold"`
	MemTableSize                int   `json:"memTableSize"`
	MaxOpenFiles                int   `json:"maxOpenFiles"`
	ConcurrentCompactions       int   `json:"concurrentCompactions"`
	L0CompactionThreshold       int   `json:"l0CompactionThreshold"`
	TargetFileSize              int64 `json:"targetFileSize"`
	Sync                        bool  `json:"sync"`
}

// Pools persist a handful of small records, so the defaults favor a small
// footprint over write throughput.
func NewDefaultConfig() Config {
	return Config{
		CacheSize:                   64 * units.MiB,
		BytesPerSync:                512 * units.KiB,
		WALBytesPerSync:             0,
		MemTableStopWritesThreshold: 4,
		MemTableSize:                16 * units.MiB,
		MaxOpenFiles:                1_024,
		ConcurrentCompactions:       1,
		L0CompactionThreshold:       2,
		TargetFileSize:              2 * units.MiB,
		Sync:                        true,
	}
}

type Database struct {
	db      *pebble.DB
	metrics *metrics

	writeOptions *pebble.WriteOptions

	closing chan struct{}
	closed  sync.Once
	wg      sync.WaitGroup
}

// New opens (or creates) a pebble database at [path]. The returned registry
// carries the database's metrics and should be registered by the caller.
func New(path string, cfg Config) (database.Database, *prometheus.Registry, error) {
	registry, metrics, err := newMetrics()
	if err != nil {
		return nil, nil, err
	}
	db := &Database{
		metrics:      metrics,
		writeOptions: &pebble.WriteOptions{Sync: cfg.Sync},
		closing:      make(chan struct{}),
	}
	opts := &pebble.Options{
		Cache:                       pebble.NewCache(int64(cfg.CacheSize)),
		BytesPerSync:                cfg.BytesPerSync,
		WALBytesPerSync:             cfg.WALBytesPerSync,
		MemTableStopWritesThreshold: cfg.MemTableStopWritesThreshold,
		MemTableSize:                uint64(cfg.MemTableSize),
		MaxOpenFiles:                cfg.MaxOpenFiles,
		MaxConcurrentCompactions:    func() int { return cfg.ConcurrentCompactions },
		L0CompactionThreshold:       cfg.L0CompactionThreshold,
		EventListener: &pebble.EventListener{
			CompactionBegin: db.onCompactionBegin,
			CompactionEnd:   db.onCompactionEnd,
			WriteStallBegin: db.onWriteStallBegin,
			WriteStallEnd:   db.onWriteStallEnd,
		},
	}
	opts.Experimental.ReadSamplingMultiplier = -1 // disable seek compactions
	opts.Levels = make([]pebble.LevelOptions, 7)
	for i := range opts.Levels {
		l := &opts.Levels[i]
		l.TargetFileSize = cfg.TargetFileSize
		if i > 0 {
			l.TargetFileSize = opts.Levels[i-1].TargetFileSize * 2
		}
	}
	opts.EnsureDefaults()
	d, err := pebble.Open(path, opts)
	if err != nil {
		return nil, nil, err
	}
	db.db = d

	db.wg.Add(1)
	go func() {
		defer db.wg.Done()
		db.collectMetrics()
	}()
	return db, registry, nil
}

func (db *Database) isClosed() bool {
	select {
	case <-db.closing:
		return true
	default:
		return false
	}
}

func (db *Database) Close() error {
	if db.isClosed() {
		return database.ErrClosed
	}
	db.closed.Do(func() { close(db.closing) })
	db.wg.Wait()
	return db.db.Close()
}

func (db *Database) HealthCheck(context.Context) (interface{}, error) {
	if db.isClosed() {
		return nil, database.ErrClosed
	}
	return map[string]interface{}{
		"diskSpaceUsage": db.db.Metrics().DiskSpaceUsage(),
	}, nil
}

func (db *Database) Has(key []byte) (bool, error) {
	_, err := db.Get(key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, database.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (db *Database) Get(key []byte) ([]byte, error) {
	if db.isClosed() {
		return nil, database.ErrClosed
	}
	start := time.Now()
	defer func() {
		db.metrics.getLatency.Observe(time.Since(start).Seconds())
	}()

	data, closer, err := db.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	return slices.Clone(data), nil
}

func (db *Database) Put(key []byte, value []byte) error {
	if db.isClosed() {
		return database.ErrClosed
	}
	return db.db.Set(key, value, db.writeOptions)
}

func (db *Database) Delete(key []byte) error {
	if db.isClosed() {
		return database.ErrClosed
	}
	return db.db.Delete(key, db.writeOptions)
}

func (db *Database) Compact(start []byte, limit []byte) error {
	if db.isClosed() {
		return database.ErrClosed
	}
	if limit == nil {
		// Compact everything after [start] by finding the last key.
		it, err := db.db.NewIter(&pebble.IterOptions{LowerBound: start})
		if err != nil {
			return err
		}
		if !it.Last() {
			return it.Close()
		}
		limit = append(slices.Clone(it.Key()), 0)
		if err := it.Close(); err != nil {
			return err
		}
	}
	return db.db.Compact(start, limit, true)
}
