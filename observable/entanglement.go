package observable

import (
	"math"

	"github.com/pkg/errors"

	"github.com/fumin/tnsim/mps"
	"github.com/fumin/tnsim/tnop"
)

// ErrBondOutOfRange is returned for a bond index outside [0, n-2].
var ErrBondOutOfRange = errors.New("observable: bond index out of range")

// SchmidtSpectrum returns the Schmidt coefficients (singular values,
// descending) of the bipartition cutting the chain between site bond and
// site bond+1. It canonicalizes a shallow copy of state to center
// bond+1 and reads off the singular values of the reshaped center
// tensor, the same SVD tnop.ShiftRight/ShiftLeft perform for a canonical-
// form move; the caller's state slice is never mutated, since canonical
// moves replace slice elements rather than the tensors they point to.
func SchmidtSpectrum(state mps.State, bond int, opt tnop.SVDPolicy) ([]float32, error) {
	n := len(state)
	if bond < 0 || bond > n-2 {
		return nil, errors.Wrapf(ErrBondOutOfRange, "bond %d, chain length %d", bond, n)
	}

	cp := make(mps.State, n)
	copy(cp, state)
	if err := tnop.Canonicalize(cp, bond+1, tnop.SVDPolicy{}); err != nil {
		return nil, errors.Wrap(err, "observable: canonicalize for Schmidt spectrum")
	}

	shape := cp[bond+1].Shape()
	chiL, d, chiR := shape[0], shape[1], shape[2]
	m := cp[bond+1].Reshape(chiL, d*chiR)
	_, s, _, _, err := tnop.TruncatedSVD(m, opt)
	if err != nil {
		return nil, errors.Wrap(err, "observable: Schmidt spectrum SVD")
	}

	keep := s.Shape()[0]
	spectrum := make([]float32, keep)
	for i := 0; i < keep; i++ {
		spectrum[i] = real(s.At(i, i))
	}
	return spectrum, nil
}

// RenyiEntropy computes the Rényi-alpha entanglement entropy from a
// Schmidt spectrum: S_alpha = 1/(1-alpha) * ln(sum_i p_i^alpha), where p_i
// = sigma_i^2 normalized to sum to 1. alpha == 1 is the von Neumann
// entropy S_1 = -sum_i p_i ln p_i, the limit of the general formula as
// alpha -> 1.
func RenyiEntropy(spectrum []float32, alpha float32) (float32, error) {
	if len(spectrum) == 0 {
		return 0, errors.New("observable: empty Schmidt spectrum")
	}
	if alpha < 0 {
		return 0, errors.Errorf("observable: Rényi order alpha = %v must be >= 0", alpha)
	}

	var norm float64
	p := make([]float64, len(spectrum))
	for i, sigma := range spectrum {
		p[i] = float64(sigma) * float64(sigma)
		norm += p[i]
	}
	if norm < 1e-20 {
		return 0, errors.New("observable: Schmidt spectrum has zero weight")
	}
	for i := range p {
		p[i] /= norm
	}

	const alphaOneTol = 1e-6
	if math.Abs(float64(alpha)-1) < alphaOneTol {
		var s float64
		for _, pi := range p {
			if pi <= 0 {
				continue
			}
			s -= pi * math.Log(pi)
		}
		return float32(s), nil
	}

	var sumPowers float64
	for _, pi := range p {
		if pi <= 0 {
			continue
		}
		sumPowers += math.Pow(pi, float64(alpha))
	}
	s := math.Log(sumPowers) / (1 - float64(alpha))
	return float32(s), nil
}
