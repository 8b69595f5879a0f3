package fsm

import "testing"

// Every test edge below follows the channel package's convention: a term's
// path runs from Final toward Initial, since the MPO assembler selects
// Final as the left-boundary row and Initial as the right-boundary column.

func countOp(edges []Edge, op string) int {
	n := 0
	for _, e := range edges {
		if e.Op == op {
			n++
		}
	}
	return n
}

func TestBuilderLinearChain(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	b.AddEdge(Final, Initial, "Z", 1)

	chi, edges, err := b.Build()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if chi != 2 {
		t.Fatalf("chi = %d, want 2", chi)
	}
	// Initial self-loop, Final self-loop, and the Z term.
	if len(edges) != 3 {
		t.Fatalf("len(edges) = %d, want 3: %+v", len(edges), edges)
	}
	var found bool
	for _, e := range edges {
		if e.Op == "Z" {
			found = true
			if e.From != 1 || e.To != 0 || e.Weight != 1 {
				t.Fatalf("unexpected Z edge: %+v", e)
			}
		}
	}
	if !found {
		t.Fatalf("Z edge missing: %+v", edges)
	}
}

func TestBuilderAuxiliaryChain(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	aux := b.NewAux()
	b.AddEdge(Final, aux, "X", 1)
	b.AddEdge(aux, Initial, "X", 0.5)

	chi, edges, err := b.Build()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if chi != 3 {
		t.Fatalf("chi = %d, want 3", chi)
	}
	if countOp(edges, "X") != 2 {
		t.Fatalf("expected 2 X edges, got %+v", edges)
	}
	// Final (bond index chi-1) must carry its identity self-loop.
	var sawFinalLoop bool
	for _, e := range edges {
		if e.Op == "I" && e.From == chi-1 && e.To == chi-1 {
			sawFinalLoop = true
		}
	}
	if !sawFinalLoop {
		t.Fatalf("missing Final identity self-loop: %+v", edges)
	}
}

func TestBuilderMergesParallelEdges(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	b.AddEdge(Final, Initial, "Z", 1)
	b.AddEdge(Final, Initial, "Z", 2)
	b.AddEdge(Final, Initial, "X", 3)

	_, edges, err := b.Build()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	// Initial self-loop + Final self-loop + merged Z + X = 4.
	if len(edges) != 4 {
		t.Fatalf("len(edges) = %d, want 4: %+v", len(edges), edges)
	}
	var gotZ, gotX bool
	for _, e := range edges {
		switch e.Op {
		case "Z":
			if e.Weight != 3 {
				t.Fatalf("merged Z weight = %v, want 3", e.Weight)
			}
			gotZ = true
		case "X":
			if e.Weight != 3 {
				t.Fatalf("X weight = %v, want 3", e.Weight)
			}
			gotX = true
		}
	}
	if !gotZ || !gotX {
		t.Fatalf("missing merged edges: %+v", edges)
	}
}

func TestBuilderRedirectSource(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	mark := b.Mark()
	b.AddEdge(Final, Initial, "a", 1)
	b.AddEdge(Final, Initial, "a+", 1)

	aux := b.NewAux()
	for _, idx := range b.FinalEdgesSince(mark) {
		b.RedirectSource(idx, aux)
	}
	b.AddEdge(Final, aux, "n", 0.3)

	chi, edges, err := b.Build()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if chi != 3 {
		t.Fatalf("chi = %d, want 3", chi)
	}
	for _, e := range edges {
		if e.Op == "a" || e.Op == "a+" {
			if e.From == chi-1 {
				t.Fatalf("edge %+v should have been redirected off Final", e)
			}
		}
	}
	// Initial self-loop, Final self-loop, a, a+, n = 5.
	if len(edges) != 5 {
		t.Fatalf("len(edges) = %d, want 5: %+v", len(edges), edges)
	}
}

func TestBuilderUnreachableAuxIsError(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	b.AddEdge(Final, Initial, "Z", 1)
	aux := b.NewAux()
	b.AddEdge(Final, aux, "X", 1) // aux never reaches Initial

	_, _, err := b.Build()
	if err == nil {
		t.Fatalf("expected ErrUnreachable, got nil")
	}
}

func TestBuilderBackwardEdgeIsUnreachable(t *testing.T) {
	t.Parallel()
	b := NewBuilder()
	// Wrong direction: a term edge must depart Final, not Initial.
	b.AddEdge(Initial, Final, "Z", 1)

	_, _, err := b.Build()
	if err == nil {
		t.Fatalf("expected ErrUnreachable for a backward edge, got nil")
	}
}
