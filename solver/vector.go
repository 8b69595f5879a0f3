// Package solver implements the local linear-algebra problems the sweep
// engine poses against a heff.Operator: the lowest-eigenvalue Lanczos
// solve used by ground-state search, and the Krylov exponential used by
// time evolution. Both work directly against the operator's Apply
// method, generalizing the teacher's getH-plus-tensor.Arnoldi pattern in
// mps/mps.go to a matrix-free setting where the effective Hamiltonian is
// never materialized as a dense matrix.
package solver

import (
	"math"

	"github.com/fumin/tensor"
)

// vecNorm returns the Euclidean norm of v, treating it as a flat vector
// regardless of its tensor shape.
func vecNorm(v *tensor.Dense) float32 {
	var sum float64
	for _, c := range v.All() {
		sum += float64(real(c))*float64(real(c)) + float64(imag(c))*float64(imag(c))
	}
	return float32(math.Sqrt(sum))
}

// vecDot returns <a|b>, the conjugate-linear-in-a inner product. a and b
// must share the same shape.
func vecDot(a, b *tensor.Dense) complex64 {
	var sum complex128
	for idx, av := range a.All() {
		bv := b.At(idx...)
		sum += complex128(cmplx64Conj(av)) * complex128(bv)
	}
	return complex64(sum)
}

func cmplx64Conj(c complex64) complex64 {
	return complex(real(c), -imag(c))
}

// vecCopy resets dst to src's shape and copies its entries.
func vecCopy(dst, src *tensor.Dense) *tensor.Dense {
	shape := src.Shape()
	dst.Reset(shape...)
	for idx, v := range src.All() {
		dst.SetAt(idx, v)
	}
	return dst
}

// vecScale multiplies v in place by a real scalar.
func vecScale(v *tensor.Dense, a float32) {
	for idx, c := range v.All() {
		v.SetAt(idx, complex(a, 0)*c)
	}
}

// vecAxpy computes dst = a + alpha*b in place, where dst may alias a. a
// and b must share the same shape.
func vecAxpy(dst, a *tensor.Dense, alpha complex64, b *tensor.Dense) *tensor.Dense {
	shape := a.Shape()
	vals := make([]complex64, 0, len(shape))
	idxs := make([][]int, 0, len(shape))
	for idx, av := range a.All() {
		bv := b.At(idx...)
		idxCopy := append([]int(nil), idx...)
		idxs = append(idxs, idxCopy)
		vals = append(vals, av+alpha*bv)
	}
	dst.Reset(shape...)
	for i, idx := range idxs {
		dst.SetAt(idx, vals[i])
	}
	return dst
}
