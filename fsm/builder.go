// Package fsm builds the weighted directed multigraph that a channel list
// compiles into, and reduces it to the dense bond-index form an MPO
// assembler consumes: a vertex count chi (the MPO bond dimension) and an
// edge list of (from, to, operator symbol, weight) tuples.
//
// Vertex topology (reachability of every state from Final, and of Initial
// from every state) is cross-checked against
// github.com/katalvlaran/lvlath's core.Graph and bfs package; the complex
// edge weights themselves live in the Builder's own edge list, since
// lvlath's Edge.Weight is int64 and cannot carry a channel amplitude.
package fsm

import (
	"sort"
	"strconv"

	"github.com/katalvlaran/lvlath/bfs"
	"github.com/katalvlaran/lvlath/core"
	"github.com/pkg/errors"
)

// Initial and Final are the two sentinel states every channel's edges route
// between. Auxiliary states, allocated by NewAux, start at 2.
const (
	Initial = 0
	Final   = 1
)

// Edge is one transition of the compiled FSM: reading operator Op on the
// current site moves the running product from state From to state To,
// multiplying the path amplitude by Weight.
type Edge struct {
	From, To int
	Op       string
	Weight   complex64
}

// Builder accumulates the edges emitted by a channel list's Compile methods.
// A Builder is not safe for concurrent use; each channel list compiles on a
// single goroutine.
type Builder struct {
	nextState int
	edges     []Edge
}

// NewBuilder returns a Builder with the Initial and Final states allocated
// and their mandatory identity self-loops already in place: every simple
// Initial-to-Final path skips sites a channel doesn't touch by riding one
// of these self-loops.
func NewBuilder() *Builder {
	b := &Builder{nextState: 2}
	b.AddEdge(Initial, Initial, "I", 1)
	b.AddEdge(Final, Final, "I", 1)
	return b
}

// NewAux allocates and returns a fresh auxiliary state id.
func (b *Builder) NewAux() int {
	s := b.nextState
	b.nextState++
	return s
}

// AddEdge records a transition and returns its index, for later lookup via
// Mark/FinalEdgesSince or mutation via RedirectSource.
func (b *Builder) AddEdge(from, to int, op string, weight complex64) int {
	b.edges = append(b.edges, Edge{From: from, To: to, Op: op, Weight: weight})
	return len(b.edges) - 1
}

// Mark returns a position in the edge sequence, to be passed to FinalEdgesSince.
func (b *Builder) Mark() int {
	return len(b.edges)
}

// FinalEdgesSince returns the indices of edges added since mark that depart
// Final, i.e. a sub-channel's entry point into its own FSM fragment (most
// Compile implementations emit one such edge; PowerLawCoupling emits one
// per fitted branch). Paths run from Final
// toward Initial, so these are the first hop of each sub-channel's path.
// SpinBosonInteraction uses this to splice an extra operator-carrying hop
// in front of a spin sub-channel list, via RedirectSource.
func (b *Builder) FinalEdgesSince(mark int) []int {
	var idxs []int
	for i := mark; i < len(b.edges); i++ {
		if b.edges[i].From == Final {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// RedirectSource changes the source state of an already-added edge.
func (b *Builder) RedirectSource(idx, newFrom int) {
	b.edges[idx].From = newFrom
}

// RedirectTarget changes the target state of an already-added edge.
func (b *Builder) RedirectTarget(idx, newTarget int) {
	b.edges[idx].To = newTarget
}

// ErrUnreachable is returned by Build when some state cannot be reached
// from Final, or cannot reach Initial: a channel left a
// dangling auxiliary state that would inflate the MPO bond dimension
// without contributing any Initial-to-Final path.
var ErrUnreachable = errors.New("fsm: state is not on any Initial-to-Final path")

// Build validates the accumulated graph and compacts it to a dense state
// space 0..chi-1, with Initial fixed at 0 and Final fixed at chi-1. Parallel
// edges sharing (From, To, Op) are merged by summing their weights, since
// they contribute identical terms to the assembled MPO tensor entry.
func (b *Builder) Build() (chi int, edges []Edge, err error) {
	live, err := b.reachableStates()
	if err != nil {
		return 0, nil, err
	}

	// Initial takes bond index 0 and Final takes the last bond index, so
	// the MPO assembler can recover them as the left- and right-boundary
	// rows/columns of the bulk tensor by slicing index 0 and index chi-1.
	relabel := make(map[int]int, len(live))
	relabel[Initial] = 0
	next := 1
	for _, s := range live {
		if s == Initial || s == Final {
			continue
		}
		relabel[s] = next
		next++
	}
	relabel[Final] = next
	next++

	type key struct {
		from, to int
		op       string
	}
	merged := make(map[key]complex64)
	order := make([]key, 0, len(b.edges))
	for _, e := range b.edges {
		k := key{from: relabel[e.From], to: relabel[e.To], op: e.Op}
		if _, ok := merged[k]; !ok {
			order = append(order, k)
		}
		merged[k] += e.Weight
	}

	out := make([]Edge, len(order))
	for i, k := range order {
		out[i] = Edge{From: k.from, To: k.to, Op: k.op, Weight: merged[k]}
	}
	return next, out, nil
}

// reachableStates validates the graph via lvlath's BFS. Channel paths run
// from Final toward Initial (the MPO assembler selects Final as the left
// boundary row and Initial as the right boundary column, per the channel
// package's edge convention), so a state is live iff it is reachable
// forward from Final and can reach Initial forward (equivalently, Initial
// is reachable from it in the reversed graph). Returns the sorted list of
// live states; any state that is not live, Initial and Final included, is
// reported as ErrUnreachable.
func (b *Builder) reachableStates() ([]int, error) {
	allStates := map[int]bool{Initial: true, Final: true}
	for _, e := range b.edges {
		allStates[e.From] = true
		allStates[e.To] = true
	}

	fwd := core.NewGraph(core.WithDirected(true), core.WithMultiEdges(), core.WithLoops())
	rev := core.NewGraph(core.WithDirected(true), core.WithMultiEdges(), core.WithLoops())
	for s := range allStates {
		id := vertexID(s)
		if err := fwd.AddVertex(id); err != nil {
			return nil, errors.Wrap(err, "fsm: add vertex")
		}
		if err := rev.AddVertex(id); err != nil {
			return nil, errors.Wrap(err, "fsm: add vertex")
		}
	}
	for _, e := range b.edges {
		if _, err := fwd.AddEdge(vertexID(e.From), vertexID(e.To), 0); err != nil {
			return nil, errors.Wrap(err, "fsm: add edge")
		}
		if _, err := rev.AddEdge(vertexID(e.To), vertexID(e.From), 0); err != nil {
			return nil, errors.Wrap(err, "fsm: add edge")
		}
	}

	fromFinal, err := bfs.BFS(fwd, vertexID(Final))
	if err != nil {
		return nil, errors.Wrap(err, "fsm: reachability from Final")
	}
	toInitial, err := bfs.BFS(rev, vertexID(Initial))
	if err != nil {
		return nil, errors.Wrap(err, "fsm: reachability to Initial")
	}

	live := make([]int, 0, len(allStates))
	for s := range allStates {
		id := vertexID(s)
		if _, ok := fromFinal.Depth[id]; !ok {
			return nil, errors.Wrapf(ErrUnreachable, "state %d unreachable from Final", s)
		}
		if _, ok := toInitial.Depth[id]; !ok {
			return nil, errors.Wrapf(ErrUnreachable, "state %d cannot reach Initial", s)
		}
		live = append(live, s)
	}
	sort.Ints(live)
	return live, nil
}

func vertexID(state int) string {
	return strconv.Itoa(state)
}
