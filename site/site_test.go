package site

import (
	"fmt"
	"testing"

	"github.com/fumin/tensor"
)

const epsilon = 1e-5

func TestSpinPauli(t *testing.T) {
	t.Parallel()
	s, err := NewSpin(1)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	x, err := s.Operator(OpX)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	wantX := tensor.T2([][]complex64{{0, 1}, {1, 0}})
	if err := x.Equal(wantX, epsilon); err != nil {
		t.Fatalf("%+v", err)
	}

	y, err := s.Operator(OpY)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	wantY := tensor.T2([][]complex64{{0, -1i}, {1i, 0}})
	if err := y.Equal(wantY, epsilon); err != nil {
		t.Fatalf("%+v", err)
	}

	z, err := s.Operator(OpZ)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	wantZ := tensor.T2([][]complex64{{1, 0}, {0, -1}})
	if err := z.Equal(wantZ, epsilon); err != nil {
		t.Fatalf("%+v", err)
	}
}

func TestSpinEigenbasisAscending(t *testing.T) {
	t.Parallel()
	tests := []struct {
		twoS int
		axis Axis
	}{
		{1, AxisZ}, {1, AxisX}, {1, AxisY},
		{2, AxisZ}, {2, AxisX},
		{3, AxisZ},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d/%d", test.twoS, test.axis), func(t *testing.T) {
			t.Parallel()
			s, err := NewSpin(test.twoS)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			vals, vecs, err := s.Eigenbasis(test.axis)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			d := s.LocalDim()
			if vals.Shape()[0] != d || vecs.Shape()[0] != d || vecs.Shape()[1] != d {
				t.Fatalf("%#v %#v", vals.Shape(), vecs.Shape())
			}
			for i := 1; i < d; i++ {
				if real(vals.At(i)) < real(vals.At(i-1))-epsilon {
					t.Fatalf("not ascending at %d: %v %v", i, vals.At(i-1), vals.At(i))
				}
			}
		})
	}
}

func TestBosonOperators(t *testing.T) {
	t.Parallel()
	b, err := NewBoson(3)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if b.Kind() != Real {
		t.Fatalf("boson site must be real")
	}

	a, err := b.Operator(OpA)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	adag, err := b.Operator(OpAdag)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	n, err := b.Operator(OpN)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	got := tensor.Zeros(1)
	tensor.MatMul(got, adag, a)
	if err := got.Equal(n, epsilon); err != nil {
		t.Fatalf("a+a != n: %+v", err)
	}
}

func TestCatalogSharesSites(t *testing.T) {
	t.Parallel()
	c := NewCatalog()
	s1, err := c.Spin(1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	s2, err := c.Spin(1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if s1 != s2 {
		t.Fatalf("catalog did not share identical spin site")
	}

	b1, err := c.Boson(4)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	b2, err := c.Boson(4)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if b1 != b2 {
		t.Fatalf("catalog did not share identical boson site")
	}
}

func TestChainKindPromotion(t *testing.T) {
	t.Parallel()
	c := NewCatalog()
	spin, err := c.Spin(1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	boson, err := c.Boson(4)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	chain := Chain{spin, boson}
	if chain.Kind() != Complex {
		t.Fatalf("expected complex promotion, got %v", chain.Kind())
	}
}
