package mps

import (
	"math/rand/v2"

	"github.com/fumin/tensor"
	"github.com/fumin/tnsim/site"
	"github.com/pkg/errors"
)

// State is an ordered sequence of site tensors A[1..N], A[i] shaped
// [chi_left(i), d(i), chi_right(i)], with chi_left(1) = chi_right(N) = 1.
type State []*tensor.Dense

// ErrPatternMismatch is returned by Product when the pattern's length does
// not match the site chain's, or a pattern entry is out of range for its site.
var ErrPatternMismatch = errors.New("mps: pattern does not match site chain")

// PatternEntry selects one basis state of a single site: for a spin site,
// (Axis, Index) names the Index-th ascending eigenvector of that axis's
// operator; for a boson site, Index is the Fock occupation number and Axis
// is ignored.
type PatternEntry struct {
	Axis  site.Axis
	Index int
}

// Product builds a product-state MPS: every site tensor is the pattern's
// selected eigenvector, reshaped to [1, d, 1]. Bond dimension is 1
// throughout, since a product state carries no entanglement.
func Product(chain site.Chain, pattern []PatternEntry) (State, error) {
	if len(pattern) != chain.Len() {
		return nil, errors.Wrapf(ErrPatternMismatch, "pattern length %d, chain length %d", len(pattern), chain.Len())
	}

	out := make(State, chain.Len())
	for i, s := range chain {
		d := s.LocalDim()
		var axis site.Axis
		if _, isBoson := s.(*site.Boson); isBoson {
			axis = site.AxisN
		} else {
			axis = pattern[i].Axis
		}

		_, vecs, err := s.Eigenbasis(axis)
		if err != nil {
			return nil, errors.Wrapf(err, "mps: site %d eigenbasis", i)
		}
		idx := pattern[i].Index
		if idx < 0 || idx >= d {
			return nil, errors.Wrapf(ErrPatternMismatch, "site %d: index %d out of range [0,%d)", i, idx, d)
		}

		a := tensor.Zeros(1, d, 1)
		for j := 0; j < d; j++ {
			a.SetAt([]int{0, j, 0}, vecs.At(j, idx))
		}
		out[i] = a
	}
	return out, nil
}

// Random builds a random MPS with uniform bond dimension chi0 (clamped at
// the chain boundaries, where it must be 1), entries drawn i.i.d. from the
// chain's scalar kind: uniform on [-1,1] for a real chain, or the same
// square drawn independently for the real and imaginary parts of a complex
// chain. Not canonicalized and not normalized; the first sweep does both.
func Random(chain site.Chain, chi0 int) State {
	n := chain.Len()
	kind := chain.Kind()
	out := make(State, n)
	left := 1
	for i, s := range chain {
		d := s.LocalDim()
		right := chi0
		if i == n-1 {
			right = 1
		}
		out[i] = randState(kind, left, d, right)
		left = right
	}
	return out
}

func randState(kind site.ScalarKind, l, d, r int) *tensor.Dense {
	t := tensor.Zeros(l, d, r)
	for idx := range t.All() {
		t.SetAt(idx, randScalar(kind))
	}
	return t
}

func randScalar(kind site.ScalarKind) complex64 {
	re := rand.Float32()*2 - 1
	if kind == site.Real {
		return complex(re, 0)
	}
	im := rand.Float32()*2 - 1
	return complex(re, im)
}
