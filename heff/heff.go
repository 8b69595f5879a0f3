// Package heff expresses the local effective-Hamiltonian problems the
// sweep engine solves at each bond or site, as linear operators acting
// directly on a state block rather than as a materialized dense
// matrix. The contraction steps generalize the teacher's getH in
// mps/mps.go, which built H as an explicit reshaped matrix for a
// single site; here the same L-W-R contraction is applied straight to
// the state, and to two sites at once for the two-site sweep step, and
// with no site operator at all on a bare bond (ZeroSite).
package heff

import (
	"math"

	"github.com/fumin/tensor"
)

// Axis layout, matching the teacher's mps/mps.go constants.
const (
	mpoLeftAxis  = 0
	mpoRightAxis = 1
	mpoUpAxis    = 2
	mpoDownAxis  = 3
)

// Operator is a local effective-Hamiltonian linear map: Apply writes
// H_eff*psi into dst and returns it, Dim is the flattened dimension of
// the state block it acts on, and NormEstimate bounds the operator's
// norm for solver step-size heuristics.
type Operator interface {
	Apply(dst, psi *tensor.Dense) *tensor.Dense
	Dim() int
	NormEstimate() float32
}

// TwoSite is the effective Hamiltonian at bond (i, i+1): acts on a
// rank-4 block shaped [chiL, d_i, d_{i+1}, chiR].
type TwoSite struct {
	L, R    *tensor.Dense // shapes [chiL, mpoMid, chiL], [chiR, mpoMid, chiR]
	Wi, Wi1 *tensor.Dense // shapes [mpoLeft, mpoRight, d, d]
}

func (op TwoSite) Dim() int {
	s := op.L.Shape()
	wi, wi1 := op.Wi.Shape(), op.Wi1.Shape()
	r := op.R.Shape()
	return s[0] * wi[mpoUpAxis] * wi1[mpoUpAxis] * r[0]
}

func (op TwoSite) NormEstimate() float32 {
	return frobenius(op.L) * frobenius(op.Wi) * frobenius(op.Wi1) * frobenius(op.R)
}

// Apply contracts L, Wi, Wi1, R around psi, a rank-4 block shaped
// [chiL, d_i, d_{i+1}, chiR], and returns a block of the same shape.
func (op TwoSite) Apply(dst, psi *tensor.Dense) *tensor.Dense {
	// lp is of shape {lTop, lMid, dI', dI1', chiR'}.
	lp := tensor.Product(tensor.Zeros(1), op.L, psi, [][2]int{{2, 0}})
	// lwp is of shape {wiRight, wiUp, lTop, dI1', chiR'}.
	lwp := tensor.Product(tensor.Zeros(1), op.Wi, lp, [][2]int{{mpoLeftAxis, 1}, {mpoDownAxis, 2}})
	// lwwp is of shape {wi1Right, wi1Up, wiUp, lTop, chiR'}.
	lwwp := tensor.Product(tensor.Zeros(1), op.Wi1, lwp, [][2]int{{mpoLeftAxis, 0}, {mpoDownAxis, 3}})
	// out is of shape {rTop, wi1Up, wiUp, lTop}.
	out := tensor.Product(tensor.Zeros(1), op.R, lwwp, [][2]int{{1, 0}, {2, 4}})
	// Reorder to {lTop, wiUp, wi1Up, rTop}, matching psi's axis order.
	return resetCopy(dst, out.Transpose(3, 2, 1, 0))
}

// OneSite is the effective Hamiltonian at site i: acts on a rank-3
// block shaped [chiL, d_i, chiR].
type OneSite struct {
	L, R *tensor.Dense // shapes [chiL, mpoMid, chiL], [chiR, mpoMid, chiR]
	W    *tensor.Dense // shape [mpoLeft, mpoRight, d, d]
}

func (op OneSite) Dim() int {
	s := op.L.Shape()
	w := op.W.Shape()
	r := op.R.Shape()
	return s[0] * w[mpoUpAxis] * r[0]
}

func (op OneSite) NormEstimate() float32 {
	return frobenius(op.L) * frobenius(op.W) * frobenius(op.R)
}

// Apply contracts L, W, R around psi, a rank-3 block shaped
// [chiL, d_i, chiR], and returns a block of the same shape.
func (op OneSite) Apply(dst, psi *tensor.Dense) *tensor.Dense {
	// lp is of shape {lTop, lMid, dI', chiR'}.
	lp := tensor.Product(tensor.Zeros(1), op.L, psi, [][2]int{{2, 0}})
	// lwp is of shape {wRight, wUp, lTop, chiR'}.
	lwp := tensor.Product(tensor.Zeros(1), op.W, lp, [][2]int{{mpoLeftAxis, 1}, {mpoDownAxis, 2}})
	// out is of shape {rTop, wUp, lTop}.
	out := tensor.Product(tensor.Zeros(1), op.R, lwp, [][2]int{{1, 0}, {2, 3}})
	// Reorder to {lTop, wUp, rTop}, matching psi's axis order.
	return resetCopy(dst, out.Transpose(2, 1, 0))
}

// ZeroSite is the effective Hamiltonian on the bare bond between two
// sites (the sweep package does not use it; its TDVP back-step acts on
// one site through OneSite): acts on a rank-2 matrix
// shaped [chiL, chiR], with no site operator since the bond itself
// carries no physical leg.
type ZeroSite struct {
	L, R *tensor.Dense // shapes [chiL, mpoMid, chiL], [chiR, mpoMid, chiR]
}

func (op ZeroSite) Dim() int {
	return op.L.Shape()[0] * op.R.Shape()[0]
}

func (op ZeroSite) NormEstimate() float32 {
	return frobenius(op.L) * frobenius(op.R)
}

// Apply contracts L and R around psi, a rank-2 matrix shaped
// [chiL, chiR], through the shared MPO bond index, and returns a
// matrix of the same shape.
func (op ZeroSite) Apply(dst, psi *tensor.Dense) *tensor.Dense {
	// lp is of shape {lTop, lMid, chiR'}.
	lp := tensor.Product(tensor.Zeros(1), op.L, psi, [][2]int{{2, 0}})
	// out is of shape {rTop, lTop}.
	out := tensor.Product(tensor.Zeros(1), op.R, lp, [][2]int{{1, 1}, {2, 2}})
	return resetCopy(dst, out.Transpose(1, 0))
}

func resetCopy(dst, src *tensor.Dense) *tensor.Dense {
	shape := src.Shape()
	zeroIdx := make([]int, len(shape))
	dst.Reset(shape...).Set(zeroIdx, src)
	return dst
}

// frobenius is a coarse operator-norm estimate: the Frobenius norm of
// a tensor, used to bound ||L||*||W||*||R|| as a cheap upper estimate
// of ||H_eff|| for Krylov step-size heuristics.
func frobenius(t *tensor.Dense) float32 {
	var sum float64
	for idx := range t.All() {
		v := t.At(idx...)
		sum += float64(real(v))*float64(real(v)) + float64(imag(v))*float64(imag(v))
	}
	return float32(math.Sqrt(sum))
}
