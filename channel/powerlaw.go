package channel

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/fumin/tnsim/fsm"
)

// ErrInvalidFit is returned by FitPowerLaw when the fitted exponential sum
// diverges (|lambda_k| >= 1+fitStabilityEps) or fails to approximate
// 1/r^alpha within the caller's requested relative-error bound.
var ErrInvalidFit = errors.New("channel: power-law fit invalid")

// fitStabilityEps is the margin spec.md allows past unit modulus before a
// fitted exponential is rejected as non-decaying.
const fitStabilityEps = 1e-8

// defaultMaxRelErr is the fit tolerance PowerLawCoupling uses when its
// MaxRelErr field is left at its zero value; spec.md's shorthand
// PowerLawCoupling(op_a, op_b, J, alpha, K, N) constructor elides the
// fit's own relative-error bound as an implementation detail, so a
// channel built without one still compiles to a usable MPO.
const defaultMaxRelErr = 1e-6

// PowerLawCoupling is a two-site term J * sum_{i<j} A_i B_j / (j-i)^alpha,
// compiled by fitting 1/r^alpha on [1,N] to a sum of K exponentials
// (FitPowerLaw) and emitting one ExpChannelCoupling-shaped branch per
// fitted term, per spec.md §4.3's "emit K parallel exponential branches
// with weights (1, lambda_k, J*nu_k*lambda_k)".
type PowerLawCoupling struct {
	OpA, OpB  string
	J         complex64
	Alpha     float64
	K         int
	N         int
	MaxRelErr float64
}

func (c PowerLawCoupling) Compile(b *fsm.Builder) error {
	maxRelErr := c.MaxRelErr
	if maxRelErr <= 0 {
		maxRelErr = defaultMaxRelErr
	}
	nu, lambda, err := FitPowerLaw(c.Alpha, c.N, c.K, maxRelErr)
	if err != nil {
		return errors.Wrap(err, "power-law coupling: fit")
	}
	for k := range nu {
		branch := ExpChannelCoupling{
			OpA:    c.OpA,
			OpB:    c.OpB,
			Amp:    c.J * complex64(nu[k]),
			Lambda: complex64(lambda[k]),
		}
		if err := branch.Compile(b); err != nil {
			return errors.Wrapf(err, "power-law coupling: branch %d", k)
		}
	}
	return nil
}

// FitPowerLaw approximates f(r) = 1/r^alpha on integer r in [1, n] by an
// order-k sum of exponentials sum_j nu_j * lambda_j^r, following the
// Hankel/QR/generalized-eigenvalue/least-squares procedure of the
// Hankel-matrix exponential-sum fitting family (matrix-pencil / ESPRIT).
// Returns ErrConfigInvalid for out-of-range n, k, alpha, and ErrInvalidFit
// if no stable fit achieves maxRelErr.
func FitPowerLaw(alpha float64, n, k int, maxRelErr float64) (nu, lambda []complex128, err error) {
	if alpha <= 0 {
		return nil, nil, errors.Wrapf(ErrConfigInvalid, "power-law fit: alpha %v <= 0", alpha)
	}
	if k <= 0 {
		return nil, nil, errors.Wrapf(ErrConfigInvalid, "power-law fit: k %d <= 0", k)
	}
	if n < 2*k {
		return nil, nil, errors.Wrapf(ErrConfigInvalid, "power-law fit: n %d too small for k %d", n, k)
	}

	f := make([]float64, n)
	for i := range f {
		f[i] = 1 / math.Pow(float64(i+1), alpha)
	}

	// Hankel matrix M[i,j] = f[i+j], 0-indexed, rows = n-k+1, cols = k.
	rows := n - k + 1
	m := mat.NewDense(rows, k, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < k; j++ {
			m.Set(i, j, f[i+j])
		}
	}

	var qr mat.QR
	qr.Factorize(m)
	var q mat.Dense
	qr.QTo(&q)

	// Q1 = rows [0, rows-2], Q2 = rows [1, rows-1] (the shift-by-one pair
	// whose generalized eigenvalues are the exponential decay rates).
	q1 := q.Slice(0, rows-1, 0, k)
	q2 := q.Slice(1, rows, 0, k)

	var v mat.Dense
	if err := v.Solve(q1, q2); err != nil {
		return nil, nil, errors.Wrap(err, "power-law fit: solve for shift operator")
	}

	var eig mat.Eigen
	if ok := eig.Factorize(&v, mat.EigenNone); !ok {
		return nil, nil, errors.Wrap(ErrInvalidFit, "power-law fit: shift-operator eigendecomposition failed")
	}
	lambda = eig.Values(nil)
	for _, l := range lambda {
		if cmplxAbs(l) >= 1+fitStabilityEps {
			return nil, nil, errors.Wrapf(ErrInvalidFit, "power-law fit: |lambda| = %v >= 1", cmplxAbs(l))
		}
	}

	nu, err = leastSquaresExponents(f, lambda)
	if err != nil {
		return nil, nil, errors.Wrap(err, "power-law fit: amplitude solve")
	}

	relErr := maxRelativeError(f, nu, lambda)
	if relErr > maxRelErr {
		return nil, nil, errors.Wrapf(ErrInvalidFit, "power-law fit: max relative error %v > %v", relErr, maxRelErr)
	}
	return nu, lambda, nil
}

// leastSquaresExponents solves Lambda @ nu ~= f in the least-squares sense,
// where Lambda[r,j] = lambda[j]^(r+1), by splitting the complex system into
// an equivalent real 2n x 2k system (gonum's Dense.Solve only handles real
// matrices):
//
//	[Re(Lambda)  -Im(Lambda)] [Re(nu)]   [f]
//	[Im(Lambda)   Re(Lambda)] [Im(nu)] = [0]
func leastSquaresExponents(f []float64, lambda []complex128) ([]complex128, error) {
	n, k := len(f), len(lambda)
	a := mat.NewDense(2*n, 2*k, nil)
	b := mat.NewDense(2*n, 1, nil)
	for r := 0; r < n; r++ {
		for j := 0; j < k; j++ {
			p := cmplxPow(lambda[j], r+1)
			a.Set(r, j, real(p))
			a.Set(r, k+j, -imag(p))
			a.Set(n+r, j, imag(p))
			a.Set(n+r, k+j, real(p))
		}
		b.Set(r, 0, f[r])
	}

	var x mat.Dense
	if err := x.Solve(a, b); err != nil {
		return nil, err
	}
	nu := make([]complex128, k)
	for j := 0; j < k; j++ {
		nu[j] = complex(x.At(j, 0), x.At(k+j, 0))
	}
	return nu, nil
}

func maxRelativeError(f []float64, nu, lambda []complex128) float64 {
	var worst float64
	for r, want := range f {
		var got complex128
		for j := range nu {
			got += nu[j] * cmplxPow(lambda[j], r+1)
		}
		e := cmplxAbs(got - complex(want, 0))
		rel := e / math.Abs(want)
		if rel > worst {
			worst = rel
		}
	}
	return worst
}

func cmplxAbs(z complex128) float64 {
	return math.Hypot(real(z), imag(z))
}

func cmplxPow(z complex128, p int) complex128 {
	out := complex(1, 0)
	for i := 0; i < p; i++ {
		out *= z
	}
	return out
}
