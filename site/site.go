// Package site implements the per-site local Hilbert space catalog:
// operator tables and precomputed eigenbases for the heterogeneous
// site chains that a channel list, FSM, and MPO are built over.
//
// References:
//   - The density-matrix renormalization group in the age of matrix product states, Ulrich Schollwock
package site

import (
	"fmt"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"
)

// ScalarKind is the scalar field an operator table is expressed over.
type ScalarKind int

const (
	Real ScalarKind = iota
	Complex
)

// Promote returns the promotion of two scalar kinds: complex dominates real.
func (k ScalarKind) Promote(o ScalarKind) ScalarKind {
	if k == Complex || o == Complex {
		return Complex
	}
	return Real
}

// Axis selects which single-site Hermitian operator's eigenbasis to return.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
	// AxisN is the boson number-operator axis; spin sites do not support it.
	AxisN
)

// Operator symbols recognized by channel compilation and MPO assembly.
const (
	OpI    = "I"
	OpX    = "X"
	OpY    = "Y"
	OpZ    = "Z"
	OpSp   = "S+"
	OpSm   = "S-"
	OpA    = "a"
	OpAdag = "a+"
	OpN    = "n"
)

// Site is the tagged-union local Hilbert space of spec.md section 3: a spin
// site of half-integer or integer spin, or a truncated boson Fock space.
type Site interface {
	// LocalDim returns d, the local Hilbert space dimension.
	LocalDim() int
	// Kind returns the scalar field this site's operators are expressed over.
	Kind() ScalarKind
	// Operator returns the d x d matrix for the given operator symbol.
	Operator(symbol string) (*tensor.Dense, error)
	// Eigenbasis returns the eigenvalues (ascending) and eigenvectors (as
	// columns) of the Hermitian operator named by axis.
	Eigenbasis(axis Axis) (vals, vecs *tensor.Dense, err error)

	cacheKey() cacheKey
}

// cacheKey identifies a site's construction parameters for Catalog memoization.
type cacheKey struct {
	kind string
	// spinTwice is 2S for spin sites (so half-integer spins are exact ints).
	spinTwice int
	// nMax is n_max for boson sites.
	nMax int
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%s/%d/%d", k.kind, k.spinTwice, k.nMax)
}

// ErrUnknownOperator is returned by Operator for a symbol the site does not define.
var ErrUnknownOperator = errors.New("unknown operator symbol")

// ErrUnsupportedAxis is returned by Eigenbasis for an axis the site does not define.
var ErrUnsupportedAxis = errors.New("unsupported eigenbasis axis")
