package sweep

import (
	"math"
	"testing"

	"github.com/fumin/tnsim/exactdiag"
)

func TestRunDMRGLowersEnergyMonotonically(t *testing.T) {
	t.Parallel()
	_, mpoState, state := tfimChain(t, 6, 1.0, 0.5, 4)

	var energies []float32
	cb := func(info SweepInfo) {
		if info.HasEnergy {
			energies = append(energies, info.Energy)
		}
	}
	opt := DMRGOptions{ChiMax: 16, Cutoff: 1e-10, KrylovDim: 8, NSweeps: 4}
	if err := RunDMRG(state, mpoState, opt, cb, nil); err != nil {
		t.Fatalf("%+v", err)
	}

	if len(energies) != opt.NSweeps {
		t.Fatalf("got %d energy reports, want %d", len(energies), opt.NSweeps)
	}
	for i := 1; i < len(energies); i++ {
		if energies[i] > energies[i-1]+1e-3 {
			t.Fatalf("energy rose from sweep %d (%v) to %d (%v)", i-1, energies[i-1], i, energies[i])
		}
	}
	if got, want := stateNorm(t, state), float32(1); math.Abs(float64(got-want)) > 1e-3 {
		t.Fatalf("||psi|| after DMRG = %v, want ~%v", got, want)
	}
}

// TestRunDMRGMatchesExactDiagonalization cross-checks the converged DMRG
// ground energy of a small chain against exactdiag's brute-force
// diagonalization of the same transverse-field Ising Hamiltonian.
func TestRunDMRGMatchesExactDiagonalization(t *testing.T) {
	t.Parallel()
	const n, j, h = 4, 1.0, 0.5
	_, mpoState, state := tfimChain(t, n, j, h, 8)

	var lastEnergy float32
	cb := func(info SweepInfo) {
		if info.HasEnergy {
			lastEnergy = info.Energy
		}
	}
	opt := DMRGOptions{ChiMax: 16, Cutoff: 1e-12, KrylovDim: 8, NSweeps: 8}
	if err := RunDMRG(state, mpoState, opt, cb, nil); err != nil {
		t.Fatalf("%+v", err)
	}

	want, err := exactdiag.GroundEnergy(exactdiag.TFIMHamiltonian(n, j, h))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if math.Abs(float64(lastEnergy-want)) > 1e-2 {
		t.Fatalf("DMRG ground energy = %v, exact diagonalization = %v", lastEnergy, want)
	}
}

func TestRunDMRGRejectsLengthMismatch(t *testing.T) {
	t.Parallel()
	_, mpoState, state := tfimChain(t, 4, 1.0, 0.5, 2)
	opt := DMRGOptions{ChiMax: 8, Cutoff: 1e-10, KrylovDim: 6, NSweeps: 1}
	if err := RunDMRG(state, mpoState[:len(mpoState)-1], opt, nil, nil); err == nil {
		t.Fatalf("expected ErrDimensionMismatch")
	}
}

func TestRunDMRGStopsAfterRequestedSweep(t *testing.T) {
	t.Parallel()
	_, mpoState, state := tfimChain(t, 5, 1.0, 0.5, 3)
	calls := 0
	stop := func() bool {
		calls++
		return calls > 4
	}
	reports := 0
	cb := func(SweepInfo) { reports++ }
	opt := DMRGOptions{ChiMax: 8, Cutoff: 1e-10, KrylovDim: 6, NSweeps: 10}
	if err := RunDMRG(state, mpoState, opt, cb, stop); err != nil {
		t.Fatalf("%+v", err)
	}
	if reports >= opt.NSweeps {
		t.Fatalf("got %d sweep reports, expected early stop before %d", reports, opt.NSweeps)
	}
}
