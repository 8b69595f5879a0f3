package tnop

import (
	"testing"

	"github.com/fumin/tensor"
)

func TestEnvChainAdvanceRightMatchesRebuild(t *testing.T) {
	t.Parallel()
	w := identityBondOneMPO()
	mpoState := []*tensor.Dense{w, w, w}
	a := tensor.T3([][][]complex64{{{1}, {0}}})
	mpsState := []*tensor.Dense{a, a, a}

	ec, err := NewEnvChain(mpsState, mpoState, 0)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	ec.AdvanceRight(0, a)
	if got, want := ec.Center(), 1; got != want {
		t.Fatalf("center = %d, want %d", got, want)
	}

	left, _, err := BuildEnvironment(mpsState, mpoState, 1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if err := ec.Left(1).Equal(left[1], 1e-6); err != nil {
		t.Fatalf("AdvanceRight diverged from a fresh build: %+v", err)
	}
	if ec.Right(0) != nil {
		t.Fatalf("right[0] should be invalidated after AdvanceRight")
	}
}

func TestEnvChainAdvanceLeftMatchesRebuild(t *testing.T) {
	t.Parallel()
	w := identityBondOneMPO()
	mpoState := []*tensor.Dense{w, w, w}
	a := tensor.T3([][][]complex64{{{1}, {0}}})
	mpsState := []*tensor.Dense{a, a, a}

	ec, err := NewEnvChain(mpsState, mpoState, 2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	ec.AdvanceLeft(2, a)
	if got, want := ec.Center(), 1; got != want {
		t.Fatalf("center = %d, want %d", got, want)
	}

	_, right, err := BuildEnvironment(mpsState, mpoState, 1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if err := ec.Right(2).Equal(right[2], 1e-6); err != nil {
		t.Fatalf("AdvanceLeft diverged from a fresh build: %+v", err)
	}
	if ec.Left(2) != nil {
		t.Fatalf("left[2] should be invalidated after AdvanceLeft")
	}
}
