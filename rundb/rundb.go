// Package rundb is a hash-indexed on-disk run database: SHA-256 of a
// canonicalized config.Run JSON document names a subdirectory under the
// run root, following the teacher's cmd/run/main.go idiom of keying
// output directories by run parameters and marking completed runs with a
// sentinel file. Each run's subdirectory holds a SQLite database (the
// same "github.com/mattn/go-sqlite3" driver and sql.Open/CREATE TABLE
// pattern as mat/disk.go's DiskMatrix) indexing one row per sweep-
// callback invocation, and a CSV file (encoding/csv, the teacher's
// mat/disk.go and qising.go I/O idiom) of final eigen-data dumps.
package rundb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/fumin/tnsim/sweep"
)

const (
	fnameDB    = "telemetry.db"
	fnameDone  = "done.txt"
	fnameEigen = "eigen.csv"

	tableSweeps = "sweeps"
)

// Store is an open run database rooted at one run's subdirectory under
// the run root.
type Store struct {
	dir string
	db  *sql.DB
}

// Dir returns the run's subdirectory under the run root.
func (s *Store) Dir() string { return s.dir }

// Open returns the Store for configJSON's run, creating its subdirectory
// and SQLite database on first use. The subdirectory name is the hex
// SHA-256 of configJSON, so identical configurations always resolve to
// the same run directory.
func Open(root string, configJSON []byte) (*Store, error) {
	sum := sha256.Sum256(configJSON)
	dir := filepath.Join(root, hex.EncodeToString(sum[:]))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "rundb: mkdir run dir")
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", filepath.Join(dir, fnameDB)))
	if err != nil {
		return nil, errors.Wrap(err, "rundb: open sqlite3")
	}
	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "rundb: prepare schema")
	}
	return &Store{dir: dir, db: db}, nil
}

func prepareDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		sweep_index INTEGER PRIMARY KEY,
		has_energy INTEGER NOT NULL,
		energy REAL NOT NULL,
		max_bond_dim INTEGER NOT NULL,
		elapsed_ns INTEGER NOT NULL,
		recorded_at TEXT NOT NULL
	) STRICT`, tableSweeps)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, sqlStr)
	}
	return nil
}

// Close closes the store's SQLite connection.
func (s *Store) Close() error {
	return errors.Wrap(s.db.Close(), "rundb: close")
}

// RecordSweep inserts one telemetry row for a completed (right, left)
// sweep pair, replacing any prior row for the same index so a resumed
// run overwrites stale telemetry rather than accumulating duplicates.
func (s *Store) RecordSweep(info sweep.SweepInfo, recordedAt time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s
		(sweep_index, has_energy, energy, max_bond_dim, elapsed_ns, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`, tableSweeps)
	hasEnergy := 0
	if info.HasEnergy {
		hasEnergy = 1
	}
	_, err := s.db.ExecContext(ctx, sqlStr,
		info.Index, hasEnergy, float64(info.Energy), info.MaxBondDim,
		info.Elapsed.Nanoseconds(), recordedAt.Format(time.RFC3339Nano))
	if err != nil {
		return errors.Wrap(err, sqlStr)
	}
	return nil
}

// Sink adapts a Store into a sweep.Callback, per spec.md §6's
// "any persistence ... implemented in that sink, not in the core"
// contract: the sweep engine itself never touches rundb.
func Sink(s *Store) sweep.Callback {
	return func(info sweep.SweepInfo) {
		if err := s.RecordSweep(info, time.Now()); err != nil {
			log.Printf("rundb: record sweep %d: %+v", info.Index, err)
		}
	}
}

// MarkDone writes the run's completion sentinel, the teacher's
// cmd/run/main.go fnameDone idiom for skipping already-finished runs.
func (s *Store) MarkDone() error {
	return errors.Wrap(os.WriteFile(filepath.Join(s.dir, fnameDone), nil, 0644), "rundb: mark done")
}

// Done reports whether the run's completion sentinel is present.
func (s *Store) Done() bool {
	_, err := os.Stat(filepath.Join(s.dir, fnameDone))
	return err == nil
}

// WriteEigenCSV writes one CSV row of (real, imag) pairs per eigen-
// data value, the flat text-column layout cmd/run/main.go's
// writeEig/readEig use for ground-state eigenvalue dumps.
func (s *Store) WriteEigenCSV(values []complex64) error {
	f, err := os.Create(filepath.Join(s.dir, fnameEigen))
	if err != nil {
		return errors.Wrap(err, "rundb: create eigen csv")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	row := make([]string, 0, 2*len(values))
	for _, v := range values {
		row = append(row, fmt.Sprintf("%v", real(v)), fmt.Sprintf("%v", imag(v)))
	}
	if err := w.Write(row); err != nil {
		return errors.Wrap(err, "rundb: write eigen csv")
	}
	w.Flush()
	return errors.Wrap(w.Error(), "rundb: flush eigen csv")
}

// CanonicalJSON re-marshals a decoded config.Run (or any JSON-compatible
// value) into a deterministic byte form suitable for hashing: Go's
// encoding/json marshals struct fields in declaration order, so two
// decodes of the same document produce identical bytes.
func CanonicalJSON(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	return b, errors.Wrap(err, "rundb: canonicalize config")
}
