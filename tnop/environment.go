package tnop

import (
	"github.com/fumin/tensor"
	"github.com/pkg/errors"
)

// MPO axis layout, matching the teacher's mps/mps.go constants.
const (
	mpoLeftAxis  = 0
	mpoRightAxis = 1
	mpoUpAxis    = 2
	mpoDownAxis  = 3
)

// ErrChainLengthMismatch is returned when the MPS and MPO chains, or a
// chain and a requested boundary index, disagree in length.
var ErrChainLengthMismatch = errors.New("tnop: chain length mismatch")

// UpdateLeft folds one more site into a left (3-index) Hamiltonian
// environment: given the environment left of site i, the MPO tensor
// W[i] and the MPS tensor A[i], it returns the environment left of
// site i+1. This is the teacher's lExpression, generalized to return
// one incremental step of the L-chain instead of reducing all the way
// to a scalar.
func UpdateLeft(env, w, a *tensor.Dense) *tensor.Dense {
	// fm is of shape {fTop, fMid, mpsUp, mpsRight}.
	fm := tensor.Product(tensor.Zeros(1), env, a, [][2]int{{2, mpsLeftAxis}})
	// wfm is of shape {mpoRight, mpoUp, fTop, mpsRight}.
	wfm := tensor.Product(tensor.Zeros(1), w, fm, [][2]int{{mpoDownAxis, 2}, {mpoLeftAxis, 1}})
	// out is of shape {mpsRight.conj, mpoRight, mpsRight}.
	out := tensor.Product(tensor.Zeros(1), a.Conj(), wfm, [][2]int{{mpsLeftAxis, 2}, {mpsUpAxis, 1}})
	return out
}

// UpdateRight is the mirror image of UpdateLeft: given the environment
// right of site i, W[i] and A[i], it returns the environment right of
// site i-1. Generalizes the teacher's rExpression.
func UpdateRight(env, w, a *tensor.Dense) *tensor.Dense {
	// fm is of shape {fTop, fMid, mpsLeft, mpsTop}.
	fm := tensor.Product(tensor.Zeros(1), env, a, [][2]int{{2, mpsRightAxis}})
	// wfm is of shape {mpoLeft, mpoUp, fTop, mpsLeft}.
	wfm := tensor.Product(tensor.Zeros(1), w, fm, [][2]int{{mpoDownAxis, 3}, {mpoRightAxis, 1}})
	// out is of shape {mpsLeft.conj, mpoLeft, mpsLeft}.
	out := tensor.Product(tensor.Zeros(1), a.Conj(), wfm, [][2]int{{mpsRightAxis, 2}, {mpsUpAxis, 1}})
	return out
}

// trivialEnv3 is the rank-3 boundary environment at either end of the
// chain: a 1x1x1 tensor holding 1, the identity for environment
// contraction.
func trivialEnv3() *tensor.Dense {
	t := tensor.Zeros(1, 1, 1)
	t.SetAt([]int{0, 0, 0}, 1)
	return t
}

// trivialEnv2 is the rank-2 boundary environment used by the
// operator-free and single-operator contraction primitives.
func trivialEnv2() *tensor.Dense {
	t := tensor.Zeros(1, 1)
	t.SetAt([]int{0, 0}, 1)
	return t
}

// BuildEnvironment contracts an MPS/MPO pair from both ends inward
// around canonical center c, returning left[i] = environment of sites
// 0..i-1 (left of site i) for i in [0,c], and right[i] = environment of
// sites i..n-1 (right of site i-1) for i in (c,n-1], plus the trivial
// boundary right[n]. Indices
// outside their populated range are nil; the sweep engine extends
// either array incrementally with UpdateLeft/UpdateRight as the center
// moves, per the spec's environment-reuse discipline.
func BuildEnvironment(mpsState, mpoState []*tensor.Dense, c int) (left, right []*tensor.Dense, err error) {
	n := len(mpsState)
	if len(mpoState) != n {
		return nil, nil, errors.Wrapf(ErrChainLengthMismatch, "mps length %d, mpo length %d", n, len(mpoState))
	}
	if c < 0 || c >= n {
		return nil, nil, errors.Wrapf(ErrChainLengthMismatch, "center %d out of range for chain length %d", c, n)
	}

	left = make([]*tensor.Dense, n+1)
	left[0] = trivialEnv3()
	for i := 0; i < c; i++ {
		left[i+1] = UpdateLeft(left[i], mpoState[i], mpsState[i])
	}

	right = make([]*tensor.Dense, n+1)
	right[n] = trivialEnv3()
	for i := n - 1; i > c; i-- {
		right[i] = UpdateRight(right[i+1], mpoState[i], mpsState[i])
	}
	return left, right, nil
}

// FullContract is the 3-index-environment + 4-index-MPO primitive: it
// folds one more site into env, the same step UpdateLeft/UpdateRight
// perform, exposed under the name the spec's contraction-primitive
// taxonomy uses.
func FullContract(env, w, a *tensor.Dense, leftToRight bool) *tensor.Dense {
	if leftToRight {
		return UpdateLeft(env, w, a)
	}
	return UpdateRight(env, w, a)
}

// ExpectationContract is the 2-index-environment + 2-index-local-
// operator primitive used to evaluate single-site expectation values:
// env is of shape {fTop, fBot}, op of shape {opUp, opDown}, a of shape
// {mpsLeft, mpsUp, mpsRight}. Returns the updated 2-index environment
// after folding in site a with operator op inserted at its physical
// leg.
func ExpectationContract(env, op, a *tensor.Dense, leftToRight bool) *tensor.Dense {
	linkAxis := mpsLeftAxis
	if !leftToRight {
		linkAxis = mpsRightAxis
	}
	// ea is of shape {fTop, mpsUp, mpsFar}.
	ea := tensor.Product(tensor.Zeros(1), env, a, [][2]int{{1, linkAxis}})
	// oea is of shape {opUp, fTop, mpsFar}.
	oea := tensor.Product(tensor.Zeros(1), op, ea, [][2]int{{1, 1}})
	// out is of shape {mpsFar.conj, mpsFar}.
	out := tensor.Product(tensor.Zeros(1), a.Conj(), oea, [][2]int{{linkAxis, 1}, {mpsUpAxis, 0}})
	return out
}

// InnerProductContract is the 2-index-environment, no-operator
// primitive used for norm and overlap bookkeeping: folds site a (and
// its conjugate) into env without any physical-leg operator. This is
// the teacher's InnerProduct step, generalized to run in either
// direction instead of only left to right.
func InnerProductContract(env, a *tensor.Dense, leftToRight bool) *tensor.Dense {
	linkAxis := mpsLeftAxis
	if !leftToRight {
		linkAxis = mpsRightAxis
	}
	// ea is of shape {fTop, mpsUp, mpsFar}.
	ea := tensor.Product(tensor.Zeros(1), env, a, [][2]int{{1, linkAxis}})
	// out is of shape {mpsFar.conj, mpsFar}.
	out := tensor.Product(tensor.Zeros(1), a.Conj(), ea, [][2]int{{linkAxis, 0}, {mpsUpAxis, 1}})
	return out
}
