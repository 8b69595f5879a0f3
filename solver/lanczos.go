package solver

import (
	stderrors "errors"
	"math"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/fumin/tnsim/heff"
)

// ErrNumericalBreakdown is returned when the starting vector has zero
// norm, so no Krylov basis can be built at all.
var ErrNumericalBreakdown = errors.New("solver: numerical breakdown")

// ErrNonConvergence is returned when a Krylov expansion exhausts its
// dimension budget without meeting its convergence tolerance. The best
// estimate found so far is still returned alongside the error, since a
// partial Krylov result is usable and the caller may retry with a
// smaller step.
var ErrNonConvergence = errors.New("solver: failed to converge within the given Krylov dimension")

// lanczosBreakdownTol is the residual norm below which a Lanczos
// iteration is treated as having found an invariant subspace exactly,
// rather than a numerical accident worth reorthogonalizing against.
const lanczosBreakdownTol = 1e-12

// reorthoTol scales the drop tolerance for selective reorthogonalization:
// a previous basis vector is projected back out of the new residual only
// when its overlap exceeds reorthoTol*||T||, following the standard
// selective-reorthogonalization heuristic for Lanczos.
const reorthoTol = 1e-12

// ritzResidualTol is the Ritz residual norm below which Lanczos accepts
// its current lowest eigenpair as converged.
const ritzResidualTol = 1e-10

// lanczosBasis grows a Krylov basis for op starting from v0, up to dim
// vectors, returning the orthonormal basis and the real tridiagonal
// coefficients alpha (diagonal) and beta (off-diagonal). op is assumed
// Hermitian, so the basis is built by three-term Lanczos recurrence
// rather than full Arnoldi; selective reorthogonalization guards against
// the loss of orthogonality that recurrence accumulates in floating
// point. Returns early (fewer than dim vectors) on breakdown, when the
// residual norm collapses to lanczosBreakdownTol: the basis built so far
// already spans an invariant subspace of op.
func lanczosBasis(op heff.Operator, v0 *tensor.Dense, dim int) (vs []*tensor.Dense, alpha, beta []float32, broke bool, err error) {
	norm0 := vecNorm(v0)
	if norm0 == 0 {
		return nil, nil, nil, false, errors.Wrap(ErrNumericalBreakdown, "zero starting vector")
	}
	shape := v0.Shape()
	vs = make([]*tensor.Dense, 0, dim)
	vs = append(vs, vecScaleCopy(v0, 1/norm0))
	alpha = make([]float32, 0, dim)
	beta = make([]float32, 0, dim)

	w := tensor.Zeros(shape...)
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
		if j == dim-1 {
			break
		}
		if b < lanczosBreakdownTol {
			broke = true
			break
		}
		beta = append(beta, b)
		vecScale(w, 1/b)
		vs = append(vs, vecCopy(tensor.Zeros(shape...), w))
	}
	return vs, alpha, beta, broke, nil
}

// reorthogonalize projects any basis vector whose overlap with w exceeds
// reorthoTol*tNorm back out of w, in place.
func reorthogonalize(w *tensor.Dense, vs []*tensor.Dense, tNorm float32) {
	drop := reorthoTol * tNorm
	if drop < reorthoTol {
		drop = reorthoTol
	}
	for _, v := range vs {
		overlap := vecDot(v, w)
		if cAbs(overlap) > drop {
			vecAxpy(w, w, -overlap, v)
		}
	}
}

func tNorm(alpha, beta []float32) float32 {
	var sum float64
	for _, a := range alpha {
		sum += float64(a) * float64(a)
	}
	for _, b := range beta {
		sum += 2 * float64(b) * float64(b)
	}
	return float32(math.Sqrt(sum))
}

// lowestEigenpair diagonalizes the real symmetric tridiagonal matrix with
// diagonal alpha and off-diagonal beta, returning its lowest eigenvalue
// and the corresponding eigenvector's coefficients in the Lanczos basis.
func lowestEigenpair(alpha, beta []float32) (lambda float32, coeffs []float32, ok bool) {
	n := len(alpha)
	if n == 0 {
		return 0, nil, false
	}
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sym.SetSym(i, i, float64(alpha[i]))
	}
	for i := 0; i < n-1; i++ {
		sym.SetSym(i, i+1, float64(beta[i]))
	}

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return 0, nil, false
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	minIdx := 0
	for i, v := range vals {
		if v < vals[minIdx] {
			minIdx = i
		}
	}
	coeffs = make([]float32, n)
	for i := 0; i < n; i++ {
		coeffs[i] = float32(vecs.At(i, minIdx))
	}
	return float32(vals[minIdx]), coeffs, true
}

// combine returns sum_i coeffs[i]*vs[i], normalized to unit norm.
func combine(vs []*tensor.Dense, coeffs []float32) *tensor.Dense {
	shape := vs[0].Shape()
	out := tensor.Zeros(shape...)
	for i, v := range vs {
		vecAxpy(out, out, complex(coeffs[i], 0), v)
	}
	n := vecNorm(out)
	if n > 0 {
		vecScale(out, 1/n)
	}
	return out
}

// lanczosPass finds the lowest eigenpair of op within a single Krylov
// subspace grown from v0 up to dim vectors. Terminates early once the Ritz
// residual drops below ritzResidualTol, or on Lanczos breakdown, in which
// case the subspace built so far already contains an exact eigenpair of
// op; a subspace that spans op's whole space is treated the same way. If
// dim is exhausted without reaching the residual tolerance, the best Ritz
// pair found is returned alongside ErrNonConvergence.
func lanczosPass(op heff.Operator, v0 *tensor.Dense, dim int) (lambda float32, w *tensor.Dense, err error) {
	vs, alpha, beta, broke, err := lanczosBasis(op, v0, dim)
	if err != nil {
		return 0, nil, err
	}

	var bestLambda float32
	var bestW *tensor.Dense
	for k := 1; k <= len(alpha); k++ {
		l, coeffs, ok := lowestEigenpair(alpha[:k], beta[:k-1])
		if !ok {
			continue
		}
		ritz := combine(vs[:k], coeffs)
		bestLambda, bestW = l, ritz

		res := tensor.Zeros(ritz.Shape()...)
		op.Apply(res, ritz)
		vecAxpy(res, res, complex(-l, 0), ritz)
		if vecNorm(res) < ritzResidualTol {
			return l, ritz, nil
		}
	}
	if bestW == nil {
		return 0, nil, errors.Wrap(ErrNumericalBreakdown, "no Lanczos vector built")
	}
	if broke || len(alpha) >= op.Dim() {
		return bestLambda, bestW, nil
	}
	return bestLambda, bestW, errors.Wrapf(ErrNonConvergence, "Lanczos: dim %d, lambda %v", dim, bestLambda)
}

// Lanczos finds the lowest eigenpair of op by growing a Krylov subspace of
// dimension dim from v0, generalizing the teacher's
// tensor.Arnoldi(eigvals, eigvecs, h, 1, bufs) call in mps/mps.go's
// leftSweep/rightSweep to an operator that is never materialized as a
// dense matrix. dim and maxIter are the Krylov dimension and iteration cap
// spec.md §4.8 lists as the solver's two distinct knobs: if a single
// dim-sized subspace does not reach the Ritz residual tolerance, Lanczos
// restarts up to maxIter-1 further times, each restart rebuilding a fresh
// dim-sized subspace from the previous attempt's best Ritz vector (implicit
// restart), rather than growing the subspace itself past dim. maxIter <= 0
// is treated as 1 (a single pass, no restart).
func Lanczos(op heff.Operator, v0 *tensor.Dense, dim, maxIter int) (lambda float32, w *tensor.Dense, err error) {
	if maxIter <= 0 {
		maxIter = 1
	}

	cur := v0
	for iter := 0; iter < maxIter; iter++ {
		l, ritz, passErr := lanczosPass(op, cur, dim)
		if passErr == nil {
			return l, ritz, nil
		}
		if !stderrors.Is(passErr, ErrNonConvergence) {
			return l, ritz, passErr
		}
		lambda, w, err = l, ritz, passErr
		cur = ritz
	}
	return lambda, w, err
}

func vecScaleCopy(src *tensor.Dense, a float32) *tensor.Dense {
	dst := vecCopy(tensor.Zeros(src.Shape()...), src)
	vecScale(dst, a)
	return dst
}

func cAbs(c complex64) float32 {
	return float32(math.Hypot(float64(real(c)), float64(imag(c))))
}
