package tnop

import (
	"github.com/fumin/tensor"
	"github.com/pkg/errors"
)

// ContractBond merges two neighboring MPS site tensors A[i] (shaped
// [chiL, dI, chiMid]) and A[i+1] (shaped [chiMid, dI1, chiR]) along their
// shared bond into a single rank-4 block shaped [chiL, dI, dI1, chiR],
// the two-site state heff.TwoSite acts on.
func ContractBond(aI, aI1 *tensor.Dense) *tensor.Dense {
	return tensor.Product(tensor.Zeros(1), aI, aI1, [][2]int{{mpsRightAxis, mpsLeftAxis}})
}

// SplitTwoSite reverses ContractBond: it truncated-SVD-splits a rank-4
// two-site block back into site tensors A[i], A[i+1], absorbing the
// singular values into whichever side the sweep is moving toward, the
// same truncate-and-absorb step ShiftRight/ShiftLeft perform for a
// single-site canonical-form shift, generalized here to a freshly solved
// two-site block where neither side starts out already canonical.
func SplitTwoSite(psi *tensor.Dense, absorbRight bool, opt SVDPolicy) (aI, aI1 *tensor.Dense, chi int, truncErr float32, err error) {
	shape := psi.Shape()
	if len(shape) != 4 {
		return nil, nil, 0, 0, errors.Wrapf(ErrDimensionMismatch, "SplitTwoSite: shape %v, want rank 4", shape)
	}
	chiL, dI, dI1, chiR := shape[0], shape[1], shape[2], shape[3]

	m := psi.Reshape(chiL*dI, dI1*chiR)
	u, s, vh, truncErr, err := TruncatedSVD(m, opt)
	if err != nil {
		return nil, nil, 0, 0, errors.Wrap(err, "tnop: SplitTwoSite")
	}
	chi = s.Shape()[0]

	if absorbRight {
		aI = resetCopy(tensor.Zeros(1), u).Reshape(chiL, dI, -1)
		sv := tensor.Product(tensor.Zeros(1), s, vh, [][2]int{{1, 0}})
		aI1 = resetCopy(tensor.Zeros(1), sv).Reshape(-1, dI1, chiR)
	} else {
		us := tensor.Product(tensor.Zeros(1), u, s, [][2]int{{1, 0}})
		aI = resetCopy(tensor.Zeros(1), us).Reshape(chiL, dI, -1)
		aI1 = resetCopy(tensor.Zeros(1), vh).Reshape(-1, dI1, chiR)
	}
	return aI, aI1, chi, truncErr, nil
}
