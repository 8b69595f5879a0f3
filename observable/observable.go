// Package observable computes read-only physical quantities from a
// finalized MPS: single-site and subsystem expectation values, two-site
// correlators, Schmidt spectra, and Rényi entanglement entropy. It never
// mutates the state slices it is handed — every canonicalizing call works
// against a shallow copy of the chain, since tnop.ShiftLeft/ShiftRight
// replace slice elements rather than mutate the tensors in place.
//
// Contraction is the teacher's InnerProduct/LExpressions folding pattern
// in mps/mps.go, generalized by tnop.InnerProductContract/
// ExpectationContract to run left to right over an arbitrary set of sites
// carrying an inserted operator instead of always the whole chain with no
// operator.
package observable

import (
	"github.com/fumin/tensor"
	"github.com/pkg/errors"

	"github.com/fumin/tnsim/mps"
	"github.com/fumin/tnsim/site"
	"github.com/fumin/tnsim/tnop"
)

// ErrSiteOutOfRange is returned for a site index outside the chain.
var ErrSiteOutOfRange = errors.New("observable: site index out of range")

// ErrZeroNorm is returned when a state's squared norm is too small to
// safely normalize an expectation value by.
var ErrZeroNorm = errors.New("observable: state has zero norm")

const zeroNormTol = 1e-20

func trivialEnv2() *tensor.Dense {
	t := tensor.Zeros(1, 1)
	t.SetAt([]int{0, 0}, 1)
	return t
}

// contractWithOps folds the whole chain left to right, inserting the
// operator ops[i] at site i where present and the identity (via
// tnop.InnerProductContract) everywhere else, returning the resulting
// scalar (as a 1x1 tensor's only entry).
func contractWithOps(state mps.State, ops map[int]*tensor.Dense) complex64 {
	env := trivialEnv2()
	for i, a := range state {
		if op, ok := ops[i]; ok {
			env = tnop.ExpectationContract(env, op, a, true)
		} else {
			env = tnop.InnerProductContract(env, a, true)
		}
	}
	return env.At(0, 0)
}

// NormSquared returns ⟨psi|psi⟩.
func NormSquared(state mps.State) complex64 {
	return contractWithOps(state, nil)
}

func checkSite(state mps.State, i int) error {
	if i < 0 || i >= len(state) {
		return errors.Wrapf(ErrSiteOutOfRange, "site %d, chain length %d", i, len(state))
	}
	return nil
}

// ExpectationOneSite returns ⟨psi|O_i|psi⟩/⟨psi|psi⟩, the single-site
// expectation value of the operator named opSymbol at site i.
func ExpectationOneSite(state mps.State, chain site.Chain, i int, opSymbol string) (complex64, error) {
	if err := checkSite(state, i); err != nil {
		return 0, err
	}
	if i >= chain.Len() {
		return 0, errors.Wrapf(ErrSiteOutOfRange, "site %d, site chain length %d", i, chain.Len())
	}
	op, err := chain[i].Operator(opSymbol)
	if err != nil {
		return 0, errors.Wrapf(err, "observable: site %d operator %q", i, opSymbol)
	}
	norm2 := contractWithOps(state, nil)
	if sqMag(norm2) < zeroNormTol {
		return 0, ErrZeroNorm
	}
	raw := contractWithOps(state, map[int]*tensor.Dense{i: op})
	return raw / norm2, nil
}

// SubsystemSum returns ⟨psi|sum_{i=l}^{m} O_i|psi⟩/⟨psi|psi⟩, the sum of
// opSymbol's single-site expectation value over the inclusive site range
// [l, m].
func SubsystemSum(state mps.State, chain site.Chain, l, m int, opSymbol string) (complex64, error) {
	if l < 0 || m >= len(state) || l > m {
		return 0, errors.Wrapf(ErrSiteOutOfRange, "range [%d,%d], chain length %d", l, m, len(state))
	}
	var sum complex64
	for i := l; i <= m; i++ {
		v, err := ExpectationOneSite(state, chain, i, opSymbol)
		if err != nil {
			return 0, errors.Wrapf(err, "observable: subsystem sum at site %d", i)
		}
		sum += v
	}
	return sum, nil
}

// Correlator returns ⟨psi|O_i P_j|psi⟩/⟨psi|psi⟩, the two-site correlator
// of opA at site i and opB at site j, i != j. Since i and j address
// distinct sites, insertion order does not matter: the contraction folds
// the chain once, left to right, regardless of which of i, j comes first.
func Correlator(state mps.State, chain site.Chain, i, j int, opA, opB string) (complex64, error) {
	if i == j {
		return 0, errors.Wrapf(ErrSiteOutOfRange, "correlator requires distinct sites, got i=j=%d", i)
	}
	if err := checkSite(state, i); err != nil {
		return 0, err
	}
	if err := checkSite(state, j); err != nil {
		return 0, err
	}
	a, err := chain[i].Operator(opA)
	if err != nil {
		return 0, errors.Wrapf(err, "observable: site %d operator %q", i, opA)
	}
	b, err := chain[j].Operator(opB)
	if err != nil {
		return 0, errors.Wrapf(err, "observable: site %d operator %q", j, opB)
	}
	norm2 := contractWithOps(state, nil)
	if sqMag(norm2) < zeroNormTol {
		return 0, ErrZeroNorm
	}
	raw := contractWithOps(state, map[int]*tensor.Dense{i: a, j: b})
	return raw / norm2, nil
}

func sqMag(z complex64) float32 {
	re, im := real(z), imag(z)
	return re*re + im*im
}
