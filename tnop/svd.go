// Package tnop implements the tensor-level primitives that the sweep
// engine shares across DMRG and TDVP: truncated SVD, canonical-form
// shifting, and environment build/update. The contraction index
// bookkeeping follows the teacher's lExpression/rExpression/getH in
// mps/mps.go; truncated SVD and the Frobenius-norm renormalization it
// drives are new, since the teacher only ever used lossless QR/LQ.
package tnop

import (
	"math"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"
)

// SVDPolicy bounds a truncated SVD: at most ChiMax singular values are
// kept, and any singular value below Cutoff*sigmaMax is discarded.
// ChiMax <= 0 means unbounded; Cutoff <= 0 means no cutoff-driven
// discard, so a zero-value SVDPolicy is the lossless (identity) policy.
type SVDPolicy struct {
	ChiMax int
	Cutoff float32
}

// ErrDimensionMismatch is returned for inputs of the wrong rank or
// incompatible shapes.
var ErrDimensionMismatch = errors.New("tnop: dimension mismatch")

// TruncatedSVD decomposes the rank-2 tensor m as U*Sigma*Vh, keeping at
// most opt.ChiMax singular values and discarding any sigma_k with
// sigma_k < opt.Cutoff*sigma_max. Ties exactly at the cutoff are kept,
// which is the larger-index-keeping rule: counting every singular
// value at or above the threshold, rather than stopping at the first
// one observed below it, is insensitive to a backend returning
// equal-valued singular values out of strict descending order.
// truncErr is the sum of squares of the discarded singular values.
func TruncatedSVD(m *tensor.Dense, opt SVDPolicy) (u, s, vh *tensor.Dense, truncErr float32, err error) {
	shape := m.Shape()
	if len(shape) != 2 {
		return nil, nil, nil, 0, errors.Wrapf(ErrDimensionMismatch, "SVD input shape %v, want rank 2", shape)
	}
	rows, cols := shape[0], shape[1]
	r := min(rows, cols)
	if r < 1 {
		return nil, nil, nil, 0, errors.Wrapf(ErrDimensionMismatch, "SVD input shape %v is degenerate", shape)
	}

	sIn := resetCopy(tensor.Zeros(rows, cols), m)
	uFull, vFull := tensor.Zeros(1), tensor.Zeros(1)
	bufs := make([]*tensor.Dense, 8)
	for i := range bufs {
		bufs[i] = tensor.Zeros(1)
	}
	if svdErr := tensor.SVD(sIn, uFull, vFull, bufs); svdErr != nil {
		return nil, nil, nil, 0, errors.Wrap(svdErr, "tnop: SVD")
	}

	sigma := make([]float32, r)
	for i := 0; i < r; i++ {
		sigma[i] = cAbs(sIn.At(i, i))
	}

	keep := truncationRank(sigma, opt)
	for i := keep; i < r; i++ {
		truncErr += sigma[i] * sigma[i]
	}

	u = uFull.Slice([][2]int{{0, rows}, {0, keep}})
	vh = vFull.Slice([][2]int{{0, cols}, {0, keep}}).H()
	s = tensor.Zeros(keep, keep)
	for i := 0; i < keep; i++ {
		s.SetAt([]int{i, i}, complex(sigma[i], 0))
	}
	return u, s, vh, truncErr, nil
}

// truncationRank returns the number of singular values to keep: every
// sigma at or above cutoff*sigmaMax, capped at opt.ChiMax, with at
// least one kept so the decomposition never degenerates to rank 0.
func truncationRank(sigma []float32, opt SVDPolicy) int {
	keep := len(sigma)
	if opt.Cutoff > 0 {
		sigmaMax := sigma[0]
		for _, v := range sigma {
			if v > sigmaMax {
				sigmaMax = v
			}
		}
		threshold := opt.Cutoff * sigmaMax
		keep = 0
		for _, v := range sigma {
			if v >= threshold {
				keep++
			}
		}
	}
	if opt.ChiMax > 0 && keep > opt.ChiMax {
		keep = opt.ChiMax
	}
	if keep < 1 {
		keep = 1
	}
	return keep
}

// FrobeniusNorm returns the Frobenius norm of the diagonal singular-
// value tensor s returned by TruncatedSVD.
func FrobeniusNorm(s *tensor.Dense) float32 {
	n := s.Shape()[0]
	var sum float32
	for i := 0; i < n; i++ {
		v := cAbs(s.At(i, i))
		sum += v * v
	}
	return float32(math.Sqrt(float64(sum)))
}

// Scale multiplies every diagonal entry of the singular-value tensor s
// by c, in place, and returns s.
func Scale(s *tensor.Dense, c float32) *tensor.Dense {
	n := s.Shape()[0]
	for i := 0; i < n; i++ {
		s.SetAt([]int{i, i}, s.At(i, i)*complex(c, 0))
	}
	return s
}

func cAbs(z complex64) float32 {
	return float32(math.Hypot(float64(real(z)), float64(imag(z))))
}

func resetCopy(dst, src *tensor.Dense) *tensor.Dense {
	shape := src.Shape()
	zeroIdx := make([]int, len(shape))
	dst.Reset(shape...).Set(zeroIdx, src)
	return dst
}
