package config

import (
	"testing"

	"github.com/fumin/tnsim/site"
)

func tfimJSON() []byte {
	return []byte(`{
		"channels": [
			{"kind": "finite_range_coupling", "op_a": "Z", "op_b": "Z", "delta": 1, "w": "-1+0i"},
			{"kind": "field", "op": "X", "w": "-0.5+0i"}
		],
		"sites": [
			{"kind": "spin", "two_s": 1},
			{"kind": "spin", "two_s": 1},
			{"kind": "spin", "two_s": 1}
		],
		"initial": {"kind": "product", "pattern": [
			{"axis": "z", "index": 1},
			{"axis": "z", "index": 1},
			{"axis": "z", "index": 1}
		]},
		"dmrg": {"chi_max": 16, "cutoff": 1e-10, "krylov_dim": 8, "max_iter": 1, "n_sweeps": 4}
	}`)
}

func TestDecodeAndBuildTFIM(t *testing.T) {
	t.Parallel()
	r, err := Decode(tfimJSON())
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if r.DMRG == nil {
		t.Fatalf("expected DMRG options to be set")
	}
	if r.TDVP != nil {
		t.Fatalf("expected TDVP options to be nil")
	}

	cat := site.NewCatalog()
	built, err := r.Build(cat)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if got, want := len(built.MPO), 3; got != want {
		t.Fatalf("len(MPO) = %d, want %d", got, want)
	}
	if got, want := len(built.State), 3; got != want {
		t.Fatalf("len(State) = %d, want %d", got, want)
	}

	opt := r.DMRG.toOptions()
	if opt.NSweeps != 4 {
		t.Fatalf("NSweeps = %d, want 4", opt.NSweeps)
	}
}

func TestDecodeRejectsBothAlgorithms(t *testing.T) {
	t.Parallel()
	doc := []byte(`{
		"channels": [{"kind": "field", "op": "X", "w": "1+0i"}],
		"sites": [{"kind": "spin", "two_s": 1}],
		"initial": {"kind": "random", "chi0": 2},
		"dmrg": {"chi_max": 4, "cutoff": 0, "krylov_dim": 4, "max_iter": 1, "n_sweeps": 1},
		"tdvp": {"dt": 0.1, "chi_max": 4, "cutoff": 0, "krylov_dim": 4, "tol": 1e-8, "evol_kind": "real", "n_sweeps": 1}
	}`)
	if _, err := Decode(doc); err == nil {
		t.Fatalf("expected ErrConfigInvalid for both dmrg and tdvp set")
	}
}

func TestDecodeRejectsNeitherAlgorithm(t *testing.T) {
	t.Parallel()
	doc := []byte(`{
		"channels": [{"kind": "field", "op": "X", "w": "1+0i"}],
		"sites": [{"kind": "spin", "two_s": 1}],
		"initial": {"kind": "random", "chi0": 2}
	}`)
	if _, err := Decode(doc); err == nil {
		t.Fatalf("expected ErrConfigInvalid for neither dmrg nor tdvp set")
	}
}

func TestTDVPSpecRejectsUnknownEvolKind(t *testing.T) {
	t.Parallel()
	spec := TDVPSpec{Dt: 0.1, ChiMax: 4, KrylovDim: 4, Tol: 1e-8, EvolKind: "sideways", NSweeps: 1}
	if _, err := spec.toOptions(); err == nil {
		t.Fatalf("expected ErrConfigInvalid for an unknown evol_kind")
	}
}

func TestBuildRejectsUnknownSiteKind(t *testing.T) {
	t.Parallel()
	doc := []byte(`{
		"channels": [],
		"sites": [{"kind": "qutrit"}],
		"initial": {"kind": "random", "chi0": 1},
		"dmrg": {"chi_max": 4, "cutoff": 0, "krylov_dim": 4, "max_iter": 1, "n_sweeps": 1}
	}`)
	r, err := Decode(doc)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if _, err := r.Build(site.NewCatalog()); err == nil {
		t.Fatalf("expected ErrConfigInvalid for an unknown site kind")
	}
}

func TestComplexRoundTrip(t *testing.T) {
	t.Parallel()
	c := Complex(complex(1.5, -2.25))
	b, err := c.MarshalJSON()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	var got Complex
	if err := got.UnmarshalJSON(b); err != nil {
		t.Fatalf("%+v", err)
	}
	if got != c {
		t.Fatalf("round trip = %v, want %v", got, c)
	}
}
