// Package channel implements the Hamiltonian term IR: a closed set of
// channel kinds, each knowing how to compile itself into fsm.Builder edges.
// A channel list is closed under composition — sums of terms are just
// multiple channels — and the fsm package is what merges them into one MPO.
package channel

import (
	"math"

	"github.com/fumin/tnsim/fsm"
	"github.com/pkg/errors"
)

// ErrConfigInvalid is returned by Compile when a channel's own parameters
// are out of range (e.g. a non-positive separation, or |lambda| >= 1).
var ErrConfigInvalid = errors.New("channel: invalid configuration")

// Channel is one additive term of the Hamiltonian, expressed independently
// of any particular site chain; Compile emits the fsm.Builder edges that
// realize it, leaving all other states' idle self-loops to carry identities
// on sites the channel does not touch.
type Channel interface {
	Compile(b *fsm.Builder) error
}

// Field is a single-site term w * sum_i O_i.
type Field struct {
	Op string
	W  complex64
}

// Compile emits the single Initial-to-Final edge carrying O weighted by W;
// the channel touches exactly one site per term, at whatever site the FSM
// compiler's bond index the edge crosses (the MPO assembler selects the
// site, not the channel).
func (f Field) Compile(b *fsm.Builder) error {
	b.AddEdge(fsm.Final, fsm.Initial, f.Op, f.W)
	return nil
}

// FiniteRangeCoupling is a two-site term w * sum_i A_i B_{i+delta}, delta >= 1.
type FiniteRangeCoupling struct {
	OpA, OpB string
	Delta    int
	W        complex64
}

func (c FiniteRangeCoupling) Compile(b *fsm.Builder) error {
	if c.Delta < 1 {
		return errors.Wrapf(ErrConfigInvalid, "finite-range coupling: delta %d < 1", c.Delta)
	}
	// near starts adjacent to Initial (carrying A) and walks outward through
	// delta-1 identity hops to the state adjacent to Final (carrying B).
	near := b.NewAux()
	b.AddEdge(near, fsm.Initial, c.OpA, 1)
	for k := 1; k < c.Delta; k++ {
		next := b.NewAux()
		b.AddEdge(next, near, "I", 1)
		near = next
	}
	b.AddEdge(fsm.Final, near, c.OpB, c.W)
	return nil
}

// ExpChannelCoupling is amp * sum_{i<j} A_i B_j lambda^(j-i), 0 < |lambda| < 1.
type ExpChannelCoupling struct {
	OpA, OpB string
	Amp      complex64
	Lambda   complex64
}

func (c ExpChannelCoupling) Compile(b *fsm.Builder) error {
	if m := abs(c.Lambda); m <= 0 || m >= 1 {
		return errors.Wrapf(ErrConfigInvalid, "exponential coupling: |lambda| = %v not in (0,1)", m)
	}
	aux := b.NewAux()
	b.AddEdge(aux, fsm.Initial, c.OpA, 1)
	b.AddEdge(aux, aux, "I", c.Lambda)
	b.AddEdge(fsm.Final, aux, c.OpB, c.Amp*c.Lambda)
	return nil
}

// BosonOnly is a single-site term acting only on the boson site: w * sum_i O_i.
type BosonOnly struct {
	Op string
	W  complex64
}

func (c BosonOnly) Compile(b *fsm.Builder) error {
	return Field{Op: c.Op, W: c.W}.Compile(b)
}

// SpinBosonInteraction multiplies a spin-side sub-channel list by a boson
// operator: each sub-channel's entry hop out of Final is spliced behind a
// new hop carrying BosonOp, weighted by Wb. The sub-channel's own weight is
// preserved by the FSM's multiplicative path-weight semantics: the spliced
// hop's weight is simply Wb, not Wb times the original edge's weight, since
// the path product already carries the original weight once the original
// edge's source is moved off Final.
type SpinBosonInteraction struct {
	SpinSubChannels []Channel
	BosonOp         string
	Wb              complex64
}

func (c SpinBosonInteraction) Compile(b *fsm.Builder) error {
	mark := b.Mark()
	for _, sub := range c.SpinSubChannels {
		if err := sub.Compile(b); err != nil {
			return errors.Wrap(err, "spin-boson interaction: sub-channel")
		}
	}
	aux := b.NewAux()
	for _, idx := range b.FinalEdgesSince(mark) {
		b.RedirectSource(idx, aux)
	}
	b.AddEdge(fsm.Final, aux, c.BosonOp, c.Wb)
	return nil
}

func abs(z complex64) float64 {
	return math.Hypot(float64(real(z)), float64(imag(z)))
}
