package site

import (
	"math"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"
)

// Spin is a spin-S site. Operators X, Y, Z are normalized so that for S=1/2
// they equal the Pauli matrices exactly (eigenvalues +-1), generalizing to
// X = S+ + S-, Y = -i(S+ - S-), Z = diag(2m) for general S.
type Spin struct {
	spinTwice int // 2S, so half-integer spins are represented exactly.
	dim       int

	ops   map[string]*tensor.Dense
	eig   map[Axis][2]*tensor.Dense
	eigen bool
}

// NewSpin constructs a spin-S site, where twoS = 2S is a positive integer
// (1 for spin-1/2, 2 for spin-1, etc).
func NewSpin(twoS int) (*Spin, error) {
	if twoS <= 0 {
		return nil, errors.Errorf("invalid 2S %d", twoS)
	}
	s := &Spin{spinTwice: twoS, dim: twoS + 1}
	s.build()
	return s, nil
}

func (s *Spin) LocalDim() int   { return s.dim }
func (s *Spin) Kind() ScalarKind { return Complex }
func (s *Spin) cacheKey() cacheKey {
	return cacheKey{kind: "spin", spinTwice: s.spinTwice}
}

func (s *Spin) Operator(symbol string) (*tensor.Dense, error) {
	op, ok := s.ops[symbol]
	if !ok {
		return nil, errors.Wrap(ErrUnknownOperator, symbol)
	}
	return op, nil
}

func (s *Spin) Eigenbasis(axis Axis) (*tensor.Dense, *tensor.Dense, error) {
	vv, ok := s.eig[axis]
	if !ok {
		return nil, nil, errors.Wrap(ErrUnsupportedAxis, "spin")
	}
	return vv[0], vv[1], nil
}

func (s *Spin) build() {
	d := s.dim
	capS := float64(s.spinTwice) / 2

	// m values in descending order: index i has m = S - i.
	m := make([]float64, d)
	for i := range m {
		m[i] = capS - float64(i)
	}

	ident := tensor.Zeros(d, d)
	sp := tensor.Zeros(d, d)
	sm := tensor.Zeros(d, d)
	z := tensor.Zeros(d, d)
	for i := 0; i < d; i++ {
		ident.SetAt([]int{i, i}, 1)
		z.SetAt([]int{i, i}, complex(float32(2*m[i]), 0))
	}
	for i := 1; i < d; i++ {
		// Raises m[i] -> m[i-1], i.e. (S+)[i-1, i].
		v := math.Sqrt(capS*(capS+1) - m[i]*(m[i]+1))
		sp.SetAt([]int{i - 1, i}, complex(float32(v), 0))
	}
	for i := 0; i < d-1; i++ {
		// Lowers m[i] -> m[i+1], i.e. (S-)[i+1, i].
		v := math.Sqrt(capS*(capS+1) - m[i]*(m[i]-1))
		sm.SetAt([]int{i + 1, i}, complex(float32(v), 0))
	}

	x := tensor.Zeros(d, d)
	y := tensor.Zeros(d, d)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			xij := sp.At(i, j) + sm.At(i, j)
			yij := complex(0, -1) * (sp.At(i, j) - sm.At(i, j))
			x.SetAt([]int{i, j}, xij)
			y.SetAt([]int{i, j}, yij)
		}
	}

	s.ops = map[string]*tensor.Dense{
		OpI:  ident,
		OpX:  x,
		OpY:  y,
		OpZ:  z,
		OpSp: sp,
		OpSm: sm,
	}

	s.eig = make(map[Axis][2]*tensor.Dense)
	s.eig[AxisZ] = eigDiagonal(z)
	s.eig[AxisX] = eigGeneral(x)
	s.eig[AxisY] = eigGeneral(y)
}

// eigDiagonal returns the (ascending eigenvalue, eigenvector) pair for an
// already-diagonal Hermitian operator, without an iterative solve.
func eigDiagonal(diag *tensor.Dense) [2]*tensor.Dense {
	d := diag.Shape()[0]
	type pair struct {
		val complex64
		idx int
	}
	pairs := make([]pair, d)
	for i := 0; i < d; i++ {
		pairs[i] = pair{val: diag.At(i, i), idx: i}
	}
	// Stable ascending sort by real part; ties broken by original (descending
	// m, i.e. increasing original) index to keep a deterministic order.
	for i := 1; i < d; i++ {
		for j := i; j > 0 && real(pairs[j-1].val) > real(pairs[j].val); j-- {
			pairs[j-1], pairs[j] = pairs[j], pairs[j-1]
		}
	}

	vals := tensor.Zeros(d)
	vecs := tensor.Zeros(d, d)
	for col, p := range pairs {
		vals.SetAt([]int{col}, p.val)
		vecs.SetAt([]int{p.idx, col}, 1)
	}
	return [2]*tensor.Dense{vals, vecs}
}

// eigGeneral diagonalizes a small Hermitian operator via the shared dense
// eigensolver; panics on failure since the operators here are fixed,
// well-conditioned matrices that must always diagonalize.
func eigGeneral(a *tensor.Dense) [2]*tensor.Dense {
	vals, vecs, err := tensor.NewEig().Solve(a)
	if err != nil {
		panic(errors.Wrap(err, "site eigendecomposition"))
	}
	return [2]*tensor.Dense{vals, vecs}
}
