package mpo

import (
	"testing"

	"github.com/fumin/tnsim/channel"
	"github.com/fumin/tnsim/fsm"
	"github.com/fumin/tnsim/site"
)

func TestBuildFieldShapes(t *testing.T) {
	t.Parallel()
	cat := site.NewCatalog()
	spinHalf, err := cat.Spin(1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	chain := site.Chain{spinHalf, spinHalf, spinHalf}

	b := fsm.NewBuilder()
	if err := (channel.Field{Op: site.OpZ, W: 0.5}).Compile(b); err != nil {
		t.Fatalf("%+v", err)
	}
	chi, edges, err := b.Build()
	if err != nil {
		t.Fatalf("%+v", err)
	}

	m, err := Build(chi, edges, chain)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(m) != 3 {
		t.Fatalf("len(m) = %d, want 3", len(m))
	}
	d := spinHalf.LocalDim()
	wantShapes := [][]int{
		{1, chi, d, d},
		{chi, chi, d, d},
		{chi, 1, d, d},
	}
	for i, w := range m {
		got := w.Shape()
		for axis, want := range wantShapes[i] {
			if got[axis] != want {
				t.Fatalf("site %d shape = %v, want %v", i, got, wantShapes[i])
			}
		}
	}
}

func TestBuildUnknownOperatorErrors(t *testing.T) {
	t.Parallel()
	cat := site.NewCatalog()
	spinHalf, err := cat.Spin(1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	chain := site.Chain{spinHalf}

	b := fsm.NewBuilder()
	if err := (channel.Field{Op: site.OpA, W: 1}).Compile(b); err != nil {
		t.Fatalf("%+v", err)
	}
	chi, edges, err := b.Build()
	if err != nil {
		t.Fatalf("%+v", err)
	}

	if _, err := Build(chi, edges, chain); err == nil {
		t.Fatalf("expected ErrDimensionMismatch for boson operator on a spin site")
	}
}

func TestBuildHeterogeneousChain(t *testing.T) {
	t.Parallel()
	cat := site.NewCatalog()
	spinHalf, err := cat.Spin(1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	boson, err := cat.Boson(2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	chain := site.Chain{spinHalf, boson}

	b := fsm.NewBuilder()
	c := channel.SpinBosonInteraction{
		SpinSubChannels: []channel.Channel{channel.Field{Op: site.OpX, W: 1}},
		BosonOp:         site.OpN,
		Wb:              0.25,
	}
	if err := c.Compile(b); err != nil {
		t.Fatalf("%+v", err)
	}
	chi, edges, err := b.Build()
	if err != nil {
		t.Fatalf("%+v", err)
	}

	m, err := Build(chi, edges, chain)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(m) != 2 {
		t.Fatalf("len(m) = %d, want 2", len(m))
	}
}
