package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"craftbench.ai/internal/persistence/indexdb"
	"craftbench.ai/internal/persistence/snapshot"
	"craftbench.ai/internal/sim/bench"
	"craftbench.ai/internal/sim/catalogs"
	"craftbench.ai/internal/sim/tuning"
)

type runtimeIndex interface {
	bench.EventLogger
	Close() error
	Stats() indexdb.Stats
	UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error
	RecordSession(sessionID, clientName string, resumed bool)
	RecordSnapshot(path string, snap snapshot.SessionV1, digest string)
}

func openRuntimeIndex(dataDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("CB_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(dataDir, "index", "bench.sqlite"))
	default:
		return nil, fmt.Errorf("unsupported CB_INDEX_BACKEND: %s", backend)
	}
}
