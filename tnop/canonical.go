package tnop

import (
	"github.com/fumin/tensor"
	"github.com/pkg/errors"
)

// MPS axis layout, matching the teacher's mps/mps.go constants.
const (
	mpsLeftAxis  = 0
	mpsUpAxis    = 1
	mpsRightAxis = 2
)

// ErrCenterOutOfRange is returned by Canonicalize for a center index
// outside the chain.
var ErrCenterOutOfRange = errors.New("tnop: canonical center out of range")

// ShiftRight moves the canonical center from site i to site i+1: A[i]
// is reshaped to a [chiLeft*d, chiRight] matrix, truncated-SVD'd, and
// its left-canonical factor U becomes the new A[i]; Sigma*Vh absorbs
// into A[i+1]. Sigma is renormalized by its Frobenius norm first, so
// that a unit-norm state stays unit-norm through the shift. This
// generalizes the teacher's leftNormalize, which used a lossless QR
// instead of a truncated SVD and relied on later convergence checks
// for normalization instead of renormalizing explicitly.
func ShiftRight(state []*tensor.Dense, i int, opt SVDPolicy) (truncErr float32, err error) {
	if i < 0 || i >= len(state)-1 {
		return 0, errors.Wrapf(ErrCenterOutOfRange, "ShiftRight: site %d, chain length %d", i, len(state))
	}
	s := state[i].Shape()
	chiL, d, chiR := s[mpsLeftAxis], s[mpsUpAxis], s[mpsRightAxis]

	m := state[i].Reshape(chiL*d, chiR)
	u, sig, vh, truncErr, err := TruncatedSVD(m, opt)
	if err != nil {
		return 0, errors.Wrap(err, "tnop: ShiftRight")
	}
	Scale(sig, 1/FrobeniusNorm(sig))

	state[i] = resetCopy(tensor.Zeros(1), u).Reshape(chiL, d, -1)

	sv := tensor.Product(tensor.Zeros(1), sig, vh, [][2]int{{1, 0}})
	axes := [][2]int{{1, mpsLeftAxis}}
	state[i+1] = resetCopy(tensor.Zeros(1), tensor.Product(tensor.Zeros(1), sv, state[i+1], axes))
	return truncErr, nil
}

// ShiftLeft moves the canonical center from site i to site i-1: the
// mirror image of ShiftRight, reshaping A[i] to [chiLeft, d*chiRight]
// so that Vh becomes the new right-canonical A[i] and U*Sigma absorbs
// into A[i-1]. Generalizes the teacher's rightNormalize, which used a
// lossless LQ decomposition.
func ShiftLeft(state []*tensor.Dense, i int, opt SVDPolicy) (truncErr float32, err error) {
	if i <= 0 || i >= len(state) {
		return 0, errors.Wrapf(ErrCenterOutOfRange, "ShiftLeft: site %d, chain length %d", i, len(state))
	}
	s := state[i].Shape()
	chiL, d, chiR := s[mpsLeftAxis], s[mpsUpAxis], s[mpsRightAxis]

	m := state[i].Reshape(chiL, d*chiR)
	u, sig, vh, truncErr, err := TruncatedSVD(m, opt)
	if err != nil {
		return 0, errors.Wrap(err, "tnop: ShiftLeft")
	}
	Scale(sig, 1/FrobeniusNorm(sig))

	state[i] = resetCopy(tensor.Zeros(1), vh).Reshape(-1, d, chiR)

	us := tensor.Product(tensor.Zeros(1), u, sig, [][2]int{{1, 0}})
	axes := [][2]int{{mpsRightAxis, 0}}
	state[i-1] = resetCopy(tensor.Zeros(1), tensor.Product(tensor.Zeros(1), state[i-1], us, axes))
	return truncErr, nil
}

// Canonicalize brings state into mixed canonical form around the
// zero-indexed center c: sites c+1..N-1 are made right-canonical by a
// right-to-left sweep, then sites 0..c-1 are made left-canonical by a
// left-to-right sweep, leaving site c holding the state's full weight.
// Both sweeps use the lossless policy (opt as given, typically the
// zero-value SVDPolicy), so Canonicalize(Canonicalize(c)) is the
// identity up to numerical noise.
func Canonicalize(state []*tensor.Dense, c int, opt SVDPolicy) error {
	n := len(state)
	if c < 0 || c >= n {
		return errors.Wrapf(ErrCenterOutOfRange, "Canonicalize: center %d, chain length %d", c, n)
	}
	for i := n - 1; i > c; i-- {
		if _, err := ShiftLeft(state, i, opt); err != nil {
			return err
		}
	}
	for i := 0; i < c; i++ {
		if _, err := ShiftRight(state, i, opt); err != nil {
			return err
		}
	}
	return nil
}
