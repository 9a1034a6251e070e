// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"github.com/ava-labs/avalanchego/api/metrics"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/corruptabledb"

	"github.com/ava-labs/hyperamm/pebble"
	"github.com/ava-labs/hyperamm/utils"
)

// StateNamespace is the sub-directory and metrics prefix of the pool store.
const StateNamespace = "statedb"

// New opens the pebble store under [dataDir]/[namespace] and registers its
// metrics with [gatherer].
func New(cfg pebble.Config, dataDir string, namespace string, gatherer metrics.MultiGatherer) (database.Database, error) {
	path, err := utils.InitSubDirectory(dataDir, namespace)
	if err != nil {
		return nil, err
	}

	db, registry, err := pebble.New(path, cfg)
	if err != nil {
		return nil, err
	}

	if err := gatherer.Register(namespace, registry); err != nil {
		_ = db.Close()
		return nil, err
	}

	return corruptabledb.New(db), nil
}
