// Package sweep implements the shared two-site sweep engine DMRG ground-
// state search and TDVP time evolution are both built from: bond
// iteration, environment update, and canonical-center move, generalizing
// the teacher's rightSweep/leftSweep loop shape and buffer-passing
// convention in mps/mps.go from a one-site QR-normalize-plus-Lanczos
// sweep to a two-site truncated-SVD split driven by a pluggable Strategy.
package sweep

import (
	"time"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"

	"github.com/fumin/tnsim/heff"
	"github.com/fumin/tnsim/mps"
	"github.com/fumin/tnsim/tnop"
)

// Direction is the sweep's traversal direction over bonds.
type Direction int

const (
	Right Direction = iota
	Left
)

func (d Direction) String() string {
	if d == Left {
		return "left"
	}
	return "right"
}

// truncationDegradedThreshold is the squared-norm fraction spec.md's
// TRUNCATION_DEGRADED condition fires past: a single bond's truncated
// SVD discarded more than 1% of the state's squared norm.
const truncationDegradedThreshold = 1e-2

// ErrTruncationDegraded flags (non-fatally, via BondStatus) a bond whose
// truncated SVD discarded more squared norm than
// truncationDegradedThreshold.
var ErrTruncationDegraded = errors.New("sweep: truncation discarded more than 1% of squared norm")

// ErrDimensionMismatch is returned when the MPS and MPO chains passed to
// a sweep disagree in length.
var ErrDimensionMismatch = errors.New("sweep: MPS and MPO chain length mismatch")

// BondStatus is per-bond telemetry for one local update, surfaced
// non-fatally: spec.md's SOLVER_NON_CONVERGENCE and TRUNCATION_DEGRADED
// conditions are reported here rather than as a returned error. A Lanczos
// breakdown has no flag here, since the solver returns its Ritz pair
// without error; solver.ErrNumericalBreakdown is returned as an error and
// ends the sweep.
type BondStatus struct {
	Bond            int
	Direction       Direction
	Chi             int
	TruncationError float32
	Degraded        bool
	NonConvergent   bool
}

// SweepInfo is passed to a Callback once per (right, left) sweep pair,
// matching spec.md §6's run-callback contract.
type SweepInfo struct {
	Index      int
	Energy     float32
	HasEnergy  bool
	MaxBondDim int
	Elapsed    time.Duration
	Bonds      []BondStatus
}

// Callback is the caller-supplied sink spec.md §6 describes; any
// persistence, logging, or database indexing happens inside it, not in
// the engine.
type Callback func(SweepInfo)

// Strategy is the per-bond local-update policy DMRG and TDVP each supply
// to the shared engine below.
type Strategy interface {
	// LocalUpdate solves the two-site local problem at a bond, returning
	// the updated block and, when applicable, its energy.
	LocalUpdate(op heff.TwoSite, psi *tensor.Dense) (psiNew *tensor.Dense, energy float32, hasEnergy bool, nonConvergent bool, err error)
	// NeedsBackStep reports whether BackStep does real work; DMRG
	// returns false so the engine skips building the extra one-site
	// environment TDVP's back-step needs.
	NeedsBackStep() bool
	// BackStep evolves the one-site tensor being left behind by the
	// sweep's backward half-step.
	BackStep(op heff.OneSite, a *tensor.Dense) (aNew *tensor.Dense, nonConvergent bool, err error)
}

// Options bundles the truncation policy and Krylov dimension every bond
// update shares.
type Options struct {
	ChiMax    int
	Cutoff    float32
	KrylovDim int
}

// runSweep performs one full pass over all bonds in direction dir,
// mutating state and env in place, and returns the final bond's energy
// (if the strategy reports one) and per-bond telemetry. stopRequested, if
// non-nil, is checked after each bond commits; when it reports true the
// sweep stops early having already committed that bond's update in full,
// per spec.md §5's no-partial-write guarantee.
func runSweep(state mps.State, mpoState []*tensor.Dense, env *tnop.EnvChain, dir Direction, strat Strategy, opt Options, stopRequested func() bool) (energy float32, hasEnergy bool, bonds []BondStatus, err error) {
	n := len(state)
	if len(mpoState) != n {
		return 0, false, nil, errors.Wrapf(ErrDimensionMismatch, "MPS length %d, MPO length %d", n, len(mpoState))
	}

	bondOrder := make([]int, 0, n-1)
	if dir == Right {
		for i := 0; i < n-1; i++ {
			bondOrder = append(bondOrder, i)
		}
	} else {
		for i := n - 2; i >= 0; i-- {
			bondOrder = append(bondOrder, i)
		}
	}

	svdOpt := tnop.SVDPolicy{ChiMax: opt.ChiMax, Cutoff: opt.Cutoff}
	for _, i := range bondOrder {
		psi := tnop.ContractBond(state[i], state[i+1])
		twoOp := heff.TwoSite{L: env.Left(i), R: env.Right(i + 2), Wi: mpoState[i], Wi1: mpoState[i+1]}

		psiNew, e, has, nonConv, err := strat.LocalUpdate(twoOp, psi)
		if err != nil {
			return 0, false, bonds, errors.Wrapf(err, "sweep: bond %d local update", i)
		}

		absorbRight := dir == Right
		aI, aI1, chi, truncErr, err := tnop.SplitTwoSite(psiNew, absorbRight, svdOpt)
		if err != nil {
			return 0, false, bonds, errors.Wrapf(err, "sweep: bond %d split", i)
		}
		state[i], state[i+1] = aI, aI1

		if strat.NeedsBackStep() {
			var nonConv2 bool
			if dir == Right {
				rNew := tnop.UpdateRight(env.Right(i+2), mpoState[i+1], state[i+1])
				oneOp := heff.OneSite{L: env.Left(i), R: rNew, W: mpoState[i]}
				back, nc, err := strat.BackStep(oneOp, state[i])
				if err != nil {
					return 0, false, bonds, errors.Wrapf(err, "sweep: bond %d back-step", i)
				}
				state[i], nonConv2 = back, nc
				env.AdvanceRight(i, state[i])
			} else {
				lNew := tnop.UpdateLeft(env.Left(i), mpoState[i], state[i])
				oneOp := heff.OneSite{L: lNew, R: env.Right(i + 2), W: mpoState[i+1]}
				back, nc, err := strat.BackStep(oneOp, state[i+1])
				if err != nil {
					return 0, false, bonds, errors.Wrapf(err, "sweep: bond %d back-step", i)
				}
				state[i+1], nonConv2 = back, nc
				env.AdvanceLeft(i+1, state[i+1])
			}
			nonConv = nonConv || nonConv2
		} else {
			if dir == Right {
				env.AdvanceRight(i, state[i])
			} else {
				env.AdvanceLeft(i+1, state[i+1])
			}
		}

		status := BondStatus{
			Bond:            i,
			Direction:       dir,
			Chi:             chi,
			TruncationError: truncErr,
			Degraded:        truncErr > truncationDegradedThreshold,
			NonConvergent:   nonConv,
		}
		bonds = append(bonds, status)
		if has {
			energy, hasEnergy = e, true
		}

		if stopRequested != nil && stopRequested() {
			break
		}
	}
	return energy, hasEnergy, bonds, nil
}

// newEnvChainAtZero brings state to right-canonical form (center at site
// 0) and builds its initial environment cache, matching the teacher's
// rightNormalizeAll-then-RExpressions preamble in mps.SearchGroundState
// before the first sweep.
func newEnvChainAtZero(state mps.State, mpoState []*tensor.Dense) (*tnop.EnvChain, error) {
	if err := tnop.Canonicalize(state, 0, tnop.SVDPolicy{}); err != nil {
		return nil, errors.Wrap(err, "sweep: canonicalize to center 0")
	}
	return tnop.NewEnvChain(state, mpoState, 0)
}

func maxChi(state mps.State) int {
	m := 0
	for _, a := range state {
		if c := a.Shape()[2]; c > m {
			m = c
		}
	}
	return m
}
