// Package mpo assembles a finished fsm graph and a site chain into a
// Matrix Product Operator: an ordered sequence of rank-4 tensors shaped
// [chi_left, chi_right, d, d], with the first and last tensors boundary-
// reduced to a single row/column. The bulk-tensor accumulation and
// boundary-slice pattern follow the teacher's newMPO in
// mps/hamiltonian.go, generalized from two hand-written Hamiltonians to an
// arbitrary compiled fsm.Edge list over a heterogeneous site chain.
package mpo

import (
	"github.com/fumin/tensor"
	"github.com/fumin/tnsim/fsm"
	"github.com/fumin/tnsim/site"
	"github.com/pkg/errors"
)

// MPO is an ordered sequence of site tensors, W[1..N].
type MPO []*tensor.Dense

// ErrDimensionMismatch is returned by Build for an empty chain or a channel
// operator whose symbol no site of the chain recognizes.
var ErrDimensionMismatch = errors.New("mpo: dimension mismatch")

// Build accumulates the bulk tensor B[site][alpha, beta, :, :] = sum over
// edges (alpha, beta, op, w) of w * operator(site, op), then boundary-
// reduces site 1 to its row alpha=chi-1 (the Final idle state) and site N
// to its column beta=0 (the Initial idle state), per fsm's bond-index
// convention. An edge whose operator is defined on some other site of the
// chain but not on this one adds nothing to this site's tensor.
func Build(chi int, edges []fsm.Edge, chain site.Chain) (MPO, error) {
	n := chain.Len()
	if n < 1 {
		return nil, errors.Wrap(ErrDimensionMismatch, "empty site chain")
	}

	known := make(map[string]bool)
	for _, s := range chain {
		for _, e := range edges {
			if _, err := s.Operator(e.Op); err == nil {
				known[e.Op] = true
			}
		}
	}

	bulk := make([]*tensor.Dense, n)
	for i, s := range chain {
		d := s.LocalDim()
		b := tensor.Zeros(chi, chi, d, d)
		for _, e := range edges {
			op, err := s.Operator(e.Op)
			if err != nil {
				if known[e.Op] {
					continue
				}
				return nil, errors.Wrapf(ErrDimensionMismatch, "site %d: operator %q: %v", i, e.Op, err)
			}
			if op.Shape()[0] != d || op.Shape()[1] != d {
				return nil, errors.Wrapf(ErrDimensionMismatch, "site %d: operator %q shape %v, want [%d %d]", i, e.Op, op.Shape(), d, d)
			}
			accumulate(b, e.From, e.To, e.Weight, op)
		}
		bulk[i] = b
	}

	out := make(MPO, n)
	copy(out, bulk)
	d0 := chain[0].LocalDim()
	out[0] = bulk[0].Slice([][2]int{{chi - 1, chi}, {0, chi}, {0, d0}, {0, d0}})
	dN := chain[n-1].LocalDim()
	out[n-1] = bulk[n-1].Slice([][2]int{{0, chi}, {0, 1}, {0, dN}, {0, dN}})
	return out, nil
}

// accumulate adds weight*op into b's [from, to, :, :] slab.
func accumulate(b *tensor.Dense, from, to int, weight complex64, op *tensor.Dense) {
	d := op.Shape()[0]
	for i := 0; i < d; i++ {
		for j := 0; j < op.Shape()[1]; j++ {
			prev := b.At(from, to, i, j)
			b.SetAt([]int{from, to, i, j}, prev+weight*op.At(i, j))
		}
	}
}
