package site

import (
	"math"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"
)

// Boson is a truncated-Fock-space bosonic site with occupation 0..nMax.
type Boson struct {
	nMax int
	dim  int

	ops map[string]*tensor.Dense
	eig map[Axis][2]*tensor.Dense
}

// NewBoson constructs a boson site truncated at occupation nMax.
func NewBoson(nMax int) (*Boson, error) {
	if nMax <= 0 {
		return nil, errors.Errorf("invalid n_max %d", nMax)
	}
	b := &Boson{nMax: nMax, dim: nMax + 1}
	b.build()
	return b, nil
}

func (b *Boson) LocalDim() int    { return b.dim }
func (b *Boson) Kind() ScalarKind { return Real }
func (b *Boson) cacheKey() cacheKey {
	return cacheKey{kind: "boson", nMax: b.nMax}
}

func (b *Boson) Operator(symbol string) (*tensor.Dense, error) {
	op, ok := b.ops[symbol]
	if !ok {
		return nil, errors.Wrap(ErrUnknownOperator, symbol)
	}
	return op, nil
}

// Eigenbasis accepts only AxisN and returns ErrUnsupportedAxis for any
// other axis: the boson site only diagonalizes the number operator, whose
// eigenbasis is the Fock basis itself (identity columns).
func (b *Boson) Eigenbasis(axis Axis) (*tensor.Dense, *tensor.Dense, error) {
	if axis != AxisN {
		return nil, nil, errors.Wrap(ErrUnsupportedAxis, "boson")
	}
	vv := b.eig[AxisN]
	return vv[0], vv[1], nil
}

func (b *Boson) build() {
	d := b.dim
	ident := tensor.Zeros(d, d)
	a := tensor.Zeros(d, d)
	adag := tensor.Zeros(d, d)
	n := tensor.Zeros(d, d)

	for i := 0; i < d; i++ {
		ident.SetAt([]int{i, i}, 1)
		n.SetAt([]int{i, i}, complex(float32(i), 0))
	}
	for occ := 1; occ < d; occ++ {
		v := float32(math.Sqrt(float64(occ)))
		a.SetAt([]int{occ - 1, occ}, complex(v, 0))
		adag.SetAt([]int{occ, occ - 1}, complex(v, 0))
	}

	b.ops = map[string]*tensor.Dense{
		OpI:    ident,
		OpA:    a,
		OpAdag: adag,
		OpN:    n,
	}

	vals := tensor.Zeros(d)
	vecs := tensor.Zeros(d, d)
	for i := 0; i < d; i++ {
		vals.SetAt([]int{i}, complex(float32(i), 0))
		vecs.SetAt([]int{i, i}, 1)
	}
	b.eig = map[Axis][2]*tensor.Dense{AxisN: {vals, vecs}}
}
