package rundb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fumin/tnsim/sweep"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	s, err := Open(root, []byte(`{"channels":[]}`))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenIsStableUnderSameConfig(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	cfg := []byte(`{"channels":["field"]}`)

	a, err := Open(root, cfg)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer a.Close()
	b, err := Open(root, cfg)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer b.Close()

	if a.Dir() != b.Dir() {
		t.Fatalf("Dir() = %q, %q, want identical hash-indexed directories for identical config", a.Dir(), b.Dir())
	}
}

func TestOpenDiffersAcrossConfig(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	a, err := Open(root, []byte(`{"channels":["field"]}`))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer a.Close()
	b, err := Open(root, []byte(`{"channels":["boson_only"]}`))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer b.Close()

	if a.Dir() == b.Dir() {
		t.Fatalf("Dir() collided for distinct configs: %q", a.Dir())
	}
}

func TestRecordSweepAndSink(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	info := sweep.SweepInfo{Index: 0, Energy: -1.25, HasEnergy: true, MaxBondDim: 8, Elapsed: 10 * time.Millisecond}
	if err := s.RecordSweep(info, time.Now()); err != nil {
		t.Fatalf("%+v", err)
	}

	sink := Sink(s)
	sink(sweep.SweepInfo{Index: 1, HasEnergy: false, MaxBondDim: 10, Elapsed: time.Millisecond})
}

func TestDoneSentinel(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	if s.Done() {
		t.Fatalf("Done() = true before MarkDone")
	}
	if err := s.MarkDone(); err != nil {
		t.Fatalf("%+v", err)
	}
	if !s.Done() {
		t.Fatalf("Done() = false after MarkDone")
	}
}

func TestWriteEigenCSV(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	values := []complex64{complex(1, 0), complex(0, -0.5)}
	if err := s.WriteEigenCSV(values); err != nil {
		t.Fatalf("%+v", err)
	}

	path := filepath.Join(s.Dir(), fnameEigen)
	if _, err := filepath.Abs(path); err != nil {
		t.Fatalf("%+v", err)
	}
}

func TestCanonicalJSONIsDeterministic(t *testing.T) {
	t.Parallel()
	type doc struct {
		A int    `json:"a"`
		B string `json:"b"`
	}
	x := doc{A: 1, B: "two"}
	a, err := CanonicalJSON(x)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	b, err := CanonicalJSON(x)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("CanonicalJSON not deterministic: %q vs %q", a, b)
	}
}
