package solver

import (
	"math"
	"math/cmplx"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/fumin/tnsim/heff"
)

// EvolutionKind selects the sign and phase convention of the exponential
// KrylovExp evolves under.
type EvolutionKind int

const (
	// Real evolves under exp(-i*dt*H), unitary time evolution.
	Real EvolutionKind = iota
	// Imaginary evolves under exp(-dt*H), imaginary-time projection
	// toward the ground state.
	Imaginary
)

// KrylovExp approximates exp(-i*dt*op)*v0 (Real) or exp(-dt*op)*v0
// (Imaginary) by projecting op onto a Krylov subspace of dimension up to
// dim and exponentiating the small projected matrix directly, following
// the standard Krylov-subspace exponential-integrator approach (Saad
// 1992) applied here to a Hermitian op built the same way lanczosBasis
// builds its subspace for Lanczos. Because the projected matrix is real
// symmetric tridiagonal, its exponential needs no dense expm routine:
// diagonalizing it with gonum's EigenSym and exponentiating the (real or
// imaginary) eigenvalues directly is exact and cheap. Returns early once
// the step's a posteriori error estimate drops below tol; if dim is
// exhausted first, returns the best available estimate alongside
// ErrNonConvergence and the achieved error, so the caller can retry with
// a smaller dt.
func KrylovExp(op heff.Operator, v0 *tensor.Dense, dt float32, kind EvolutionKind, dim int, tol float32) (result *tensor.Dense, achievedErr float32, err error) {
	norm0 := vecNorm(v0)
	if norm0 == 0 {
		return nil, 0, errors.Wrap(ErrNumericalBreakdown, "zero starting vector")
	}
	shape := v0.Shape()
	vs := make([]*tensor.Dense, 0, dim)
	vs = append(vs, vecScaleCopy(v0, 1/norm0))
	alpha := make([]float32, 0, dim)
	beta := make([]float32, 0, dim)

	w := tensor.Zeros(shape...)
	var bestResult *tensor.Dense
	var bestErr float32 = float32(math.Inf(1))
	for j := 0; j < dim; j++ {
		op.Apply(w, vs[j])
		a := real(vecDot(vs[j], w))
		alpha = append(alpha, a)

		vecAxpy(w, w, complex(-a, 0), vs[j])
		if j > 0 {
			vecAxpy(w, w, complex(-beta[j-1], 0), vs[j-1])
		}
		reorthogonalize(w, vs, tNorm(alpha, beta))

		b := vecNorm(w)
		res, estErr := expApply(vs, alpha, beta, kind, dt, norm0, b)
		bestResult, bestErr = res, estErr
		if estErr < tol {
			return res, estErr, nil
		}
		if j == dim-1 {
			break
		}
		if b < lanczosBreakdownTol {
			// The subspace is invariant under op: the projected
			// exponential is exact, not merely an estimate.
			return res, 0, nil
		}
		beta = append(beta, b)
		vecScale(w, 1/b)
		vs = append(vs, vecCopy(tensor.Zeros(shape...), w))
	}
	return bestResult, bestErr, errors.Wrapf(ErrNonConvergence, "KrylovExp: dim %d, achieved error %v", dim, bestErr)
}

// expApply diagonalizes the tridiagonal (alpha, beta) projection of op,
// applies the scalar exponential to its eigenvalues, and reassembles the
// result in the original space, scaled back up by norm0. nextBeta is the
// as-yet-unabsorbed residual norm from extending the basis by one more
// vector; its magnitude, weighted by the last Krylov coefficient, is the
// standard a posteriori error estimate for a Krylov exponential of this
// dimension (Saad 1992).
func expApply(vs []*tensor.Dense, alpha, beta []float32, kind EvolutionKind, dt, norm0, nextBeta float32) (*tensor.Dense, float32) {
	n := len(alpha)
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sym.SetSym(i, i, float64(alpha[i]))
	}
	for i := 0; i < n-1; i++ {
		sym.SetSym(i, i+1, float64(beta[i]))
	}

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return vecScaleCopy(vs[0], norm0), float32(math.Inf(1))
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// y = Q * phi(Lambda) * Q^T * e1, where phi(lambda) = exp(-i*dt*lambda)
	// (Real) or exp(-dt*lambda) (Imaginary).
	y := make([]complex128, n)
	for i := 0; i < n; i++ {
		var phase complex128
		switch kind {
		case Imaginary:
			phase = complex(math.Exp(-float64(dt)*vals[i]), 0)
		default:
			phase = cmplx.Exp(complex(0, -float64(dt)*vals[i]))
		}
		q0i := vecs.At(0, i)
		for k := 0; k < n; k++ {
			y[k] += complex(vecs.At(k, i)*q0i, 0) * phase
		}
	}

	shape := vs[0].Shape()
	out := tensor.Zeros(shape...)
	for k, v := range vs {
		out = vecAxpy(out, out, complex(norm0, 0)*complex64(y[k]), v)
	}

	errEst := nextBeta * float32(cmplx.Abs(y[n-1]))
	return out, errEst
}
