package tnop

import "github.com/fumin/tensor"

// EnvChain is a persistent left/right environment cache for a sweep over
// a fixed MPO, generalizing the teacher's per-call lExpression/rExpression
// sweep buffer in mps/mps.go into a long-lived structure that is extended
// incrementally as the canonical center moves, rather than rebuilt from
// scratch at every bond.
//
// left[i] is valid for 0 <= i <= center, right[i] is valid for
// center < i <= n; entries outside that range are nil, mirroring
// BuildEnvironment's population rule.
type EnvChain struct {
	mpo    []*tensor.Dense
	left   []*tensor.Dense
	right  []*tensor.Dense
	center int
}

// NewEnvChain builds an EnvChain for mpsState against mpo, with the
// canonical center at c.
func NewEnvChain(mpsState, mpo []*tensor.Dense, c int) (*EnvChain, error) {
	left, right, err := BuildEnvironment(mpsState, mpo, c)
	if err != nil {
		return nil, err
	}
	return &EnvChain{mpo: mpo, left: left, right: right, center: c}, nil
}

// Center returns the bond index the cache currently treats as valid on
// both sides.
func (e *EnvChain) Center() int { return e.center }

// Left returns the cached left environment ending just before site i
// (E[i] in BuildEnvironment's indexing). i must be <= Center().
func (e *EnvChain) Left(i int) *tensor.Dense { return e.left[i] }

// Right returns the cached right environment of sites i..n-1, i.e. the one
// starting just after site i-1 (right[i] in BuildEnvironment's indexing).
// i must be > Center().
func (e *EnvChain) Right(i int) *tensor.Dense { return e.right[i] }

// AdvanceRight extends the cache after site i has been left-canonicalized
// (its tensor now a, replacing mpsState[i]), moving the center from i to
// i+1: left[i+1] is computed from left[i], and right[i] is invalidated
// since it is now stale with respect to the new canonical form.
func (e *EnvChain) AdvanceRight(i int, a *tensor.Dense) {
	e.left[i+1] = UpdateLeft(e.left[i], e.mpo[i], a)
	e.right[i] = nil
	e.center = i + 1
}

// AdvanceLeft extends the cache after site i has been right-canonicalized
// (its tensor now a, replacing mpsState[i]), moving the center from i to
// i-1: right[i] is computed from right[i+1], and left[i] is invalidated.
func (e *EnvChain) AdvanceLeft(i int, a *tensor.Dense) {
	e.right[i] = UpdateRight(e.right[i+1], e.mpo[i], a)
	e.left[i] = nil
	e.center = i - 1
}
