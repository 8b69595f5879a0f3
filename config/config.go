// Package config JSON-decodes a simulation run: the channel list, site
// chain, initial-state descriptor, and algorithm options spec.md §6's
// EXTERNAL INTERFACES section names. The teacher's own drivers
// (cmd/run/main.go, mps/cmd/run/main.go) build their configuration as Go
// struct literals with no serialization at all; encoding/json here follows
// the same ambient idiom the sibling exactdiag/mat CSV round-trips use for
// on-disk data, generalized from CSV rows to a JSON document since a run
// configuration is a nested, heterogeneous structure a flat CSV row cannot
// express.
package config

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"

	"github.com/fumin/tnsim/channel"
	"github.com/fumin/tnsim/fsm"
	"github.com/fumin/tnsim/mpo"
	"github.com/fumin/tnsim/mps"
	"github.com/fumin/tnsim/site"
	"github.com/fumin/tnsim/solver"
	"github.com/fumin/tnsim/sweep"
)

// ErrConfigInvalid is returned for a Run document whose shape or field
// values cannot be compiled into a channel list, site chain, or initial
// state.
var ErrConfigInvalid = errors.New("config: invalid run configuration")

// Complex is a complex64 channel weight, JSON-encoded as the same
// string form the teacher's cmd/run/main.go reads and writes complex
// amplitudes in via strconv.ParseComplex/FormatComplex, since
// encoding/json has no native complex number representation.
type Complex complex64

func (c Complex) MarshalJSON() ([]byte, error) {
	s := strconv.FormatComplex(complex128(c), 'f', -1, 64)
	return json.Marshal(s)
}

func (c *Complex) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.Wrap(err, "config: complex weight")
	}
	v, err := strconv.ParseComplex(s, 64)
	if err != nil {
		return errors.Wrapf(err, "config: complex weight %q", s)
	}
	*c = Complex(complex64(v))
	return nil
}

// SiteSpec names one position in the site chain: a spin-S site (Kind
// "spin", TwoS = 2S) or a truncated boson site (Kind "boson", NMax).
type SiteSpec struct {
	Kind string `json:"kind"`
	TwoS int    `json:"two_s,omitempty"`
	NMax int    `json:"n_max,omitempty"`
}

func (s SiteSpec) build(cat *site.Catalog) (site.Site, error) {
	switch s.Kind {
	case "spin":
		return cat.Spin(s.TwoS)
	case "boson":
		return cat.Boson(s.NMax)
	default:
		return nil, errors.Wrapf(ErrConfigInvalid, "site kind %q", s.Kind)
	}
}

// ChannelSpec is one channel IR term, tagged by Kind so a flat JSON
// object can carry any of the closed channel set's shapes; Sub carries
// SpinBosonInteraction's nested sub-channel list.
type ChannelSpec struct {
	Kind      string        `json:"kind"`
	Op        string        `json:"op,omitempty"`
	OpA       string        `json:"op_a,omitempty"`
	OpB       string        `json:"op_b,omitempty"`
	W         Complex       `json:"w,omitempty"`
	Delta     int           `json:"delta,omitempty"`
	Amp       Complex       `json:"amp,omitempty"`
	Lambda    Complex       `json:"lambda,omitempty"`
	BosonOp   string        `json:"boson_op,omitempty"`
	Wb        Complex       `json:"wb,omitempty"`
	Sub       []ChannelSpec `json:"sub,omitempty"`
	J         Complex       `json:"j,omitempty"`
	Alpha     float64       `json:"alpha,omitempty"`
	K         int           `json:"k,omitempty"`
	N         int           `json:"n,omitempty"`
	MaxRelErr float64       `json:"max_rel_err,omitempty"`
}

func (c ChannelSpec) build() (channel.Channel, error) {
	switch c.Kind {
	case "field":
		return channel.Field{Op: c.Op, W: complex64(c.W)}, nil
	case "boson_only":
		return channel.BosonOnly{Op: c.Op, W: complex64(c.W)}, nil
	case "finite_range_coupling":
		return channel.FiniteRangeCoupling{OpA: c.OpA, OpB: c.OpB, Delta: c.Delta, W: complex64(c.W)}, nil
	case "exp_channel_coupling":
		return channel.ExpChannelCoupling{OpA: c.OpA, OpB: c.OpB, Amp: complex64(c.Amp), Lambda: complex64(c.Lambda)}, nil
	case "power_law_coupling":
		return channel.PowerLawCoupling{
			OpA: c.OpA, OpB: c.OpB, J: complex64(c.J),
			Alpha: c.Alpha, K: c.K, N: c.N, MaxRelErr: c.MaxRelErr,
		}, nil
	case "spin_boson_interaction":
		subs := make([]channel.Channel, len(c.Sub))
		for i, s := range c.Sub {
			built, err := s.build()
			if err != nil {
				return nil, errors.Wrapf(err, "sub-channel %d", i)
			}
			subs[i] = built
		}
		return channel.SpinBosonInteraction{SpinSubChannels: subs, BosonOp: c.BosonOp, Wb: complex64(c.Wb)}, nil
	default:
		return nil, errors.Wrapf(ErrConfigInvalid, "channel kind %q", c.Kind)
	}
}

// PatternEntrySpec names one site's basis state for a product initial
// state: Axis is one of "x", "y", "z" (ignored for a boson site, whose
// Index is read as the Fock occupation number instead).
type PatternEntrySpec struct {
	Axis  string `json:"axis,omitempty"`
	Index int    `json:"index"`
}

func (p PatternEntrySpec) axis() (site.Axis, error) {
	switch p.Axis {
	case "x":
		return site.AxisX, nil
	case "y":
		return site.AxisY, nil
	case "z", "":
		return site.AxisZ, nil
	default:
		return 0, errors.Wrapf(ErrConfigInvalid, "pattern axis %q", p.Axis)
	}
}

// InitialStateSpec is the initial-state descriptor: either a per-site
// product pattern (Kind "product") or a random MPS of uniform bond
// dimension Chi0 (Kind "random").
type InitialStateSpec struct {
	Kind    string             `json:"kind"`
	Pattern []PatternEntrySpec `json:"pattern,omitempty"`
	Chi0    int                `json:"chi0,omitempty"`
}

func (s InitialStateSpec) build(chain site.Chain) (mps.State, error) {
	switch s.Kind {
	case "product":
		if len(s.Pattern) != chain.Len() {
			return nil, errors.Wrapf(ErrConfigInvalid, "pattern length %d, chain length %d", len(s.Pattern), chain.Len())
		}
		pattern := make([]mps.PatternEntry, len(s.Pattern))
		for i, p := range s.Pattern {
			axis, err := p.axis()
			if err != nil {
				return nil, err
			}
			pattern[i] = mps.PatternEntry{Axis: axis, Index: p.Index}
		}
		return mps.Product(chain, pattern)
	case "random":
		return mps.Random(chain, s.Chi0), nil
	default:
		return nil, errors.Wrapf(ErrConfigInvalid, "initial state kind %q", s.Kind)
	}
}

// DMRGSpec mirrors sweep.DMRGOptions for JSON decoding.
type DMRGSpec struct {
	ChiMax    int     `json:"chi_max"`
	Cutoff    float32 `json:"cutoff"`
	KrylovDim int     `json:"krylov_dim"`
	MaxIter   int     `json:"max_iter"`
	NSweeps   int     `json:"n_sweeps"`
}

func (d DMRGSpec) toOptions() sweep.DMRGOptions {
	return sweep.DMRGOptions{ChiMax: d.ChiMax, Cutoff: d.Cutoff, KrylovDim: d.KrylovDim, MaxIter: d.MaxIter, NSweeps: d.NSweeps}
}

// TDVPSpec mirrors sweep.TDVPOptions for JSON decoding. EvolKind is
// "real" or "imaginary", per spec.md §6.
type TDVPSpec struct {
	Dt        float32 `json:"dt"`
	ChiMax    int     `json:"chi_max"`
	Cutoff    float32 `json:"cutoff"`
	KrylovDim int     `json:"krylov_dim"`
	Tol       float32 `json:"tol"`
	EvolKind  string  `json:"evol_kind"`
	NSweeps   int     `json:"n_sweeps"`
}

func (d TDVPSpec) toOptions() (sweep.TDVPOptions, error) {
	var kind solver.EvolutionKind
	switch d.EvolKind {
	case "real":
		kind = solver.Real
	case "imaginary":
		kind = solver.Imaginary
	default:
		return sweep.TDVPOptions{}, errors.Wrapf(ErrConfigInvalid, "evol_kind %q", d.EvolKind)
	}
	return sweep.TDVPOptions{
		Dt: d.Dt, ChiMax: d.ChiMax, Cutoff: d.Cutoff, KrylovDim: d.KrylovDim,
		Tol: d.Tol, Kind: kind, NSweeps: d.NSweeps,
	}, nil
}

// Run is the top-level JSON document: a channel list, site chain,
// initial-state descriptor, and exactly one of DMRG or TDVP algorithm
// options.
type Run struct {
	Channels []ChannelSpec    `json:"channels"`
	Sites    []SiteSpec       `json:"sites"`
	Initial  InitialStateSpec `json:"initial"`
	DMRG     *DMRGSpec        `json:"dmrg,omitempty"`
	TDVP     *TDVPSpec        `json:"tdvp,omitempty"`
}

// Decode parses a JSON-encoded Run document.
func Decode(b []byte) (Run, error) {
	var r Run
	if err := json.Unmarshal(b, &r); err != nil {
		return Run{}, errors.Wrap(err, "config: decode")
	}
	if r.DMRG == nil && r.TDVP == nil {
		return Run{}, errors.Wrap(ErrConfigInvalid, "neither dmrg nor tdvp options set")
	}
	if r.DMRG != nil && r.TDVP != nil {
		return Run{}, errors.Wrap(ErrConfigInvalid, "both dmrg and tdvp options set")
	}
	return r, nil
}

// Built is a Run document compiled into the core package's working
// values: a site chain, an assembled MPO, and an initial MPS.
type Built struct {
	Chain site.Chain
	MPO   mpo.MPO
	State mps.State
}

// Build compiles the channel list against the site chain into an MPO,
// and the initial-state descriptor against the chain into an MPS,
// using cat to memoize site construction across the chain.
func (r Run) Build(cat *site.Catalog) (Built, error) {
	chain := make(site.Chain, len(r.Sites))
	for i, s := range r.Sites {
		built, err := s.build(cat)
		if err != nil {
			return Built{}, errors.Wrapf(err, "config: site %d", i)
		}
		chain[i] = built
	}

	b := fsm.NewBuilder()
	for i, c := range r.Channels {
		ch, err := c.build()
		if err != nil {
			return Built{}, errors.Wrapf(err, "config: channel %d", i)
		}
		if err := ch.Compile(b); err != nil {
			return Built{}, errors.Wrapf(err, "config: channel %d compile", i)
		}
	}
	chi, edges, err := b.Build()
	if err != nil {
		return Built{}, errors.Wrap(err, "config: fsm build")
	}
	m, err := mpo.Build(chi, edges, chain)
	if err != nil {
		return Built{}, errors.Wrap(err, "config: mpo build")
	}

	state, err := r.Initial.build(chain)
	if err != nil {
		return Built{}, errors.Wrap(err, "config: initial state")
	}

	return Built{Chain: chain, MPO: m, State: state}, nil
}
