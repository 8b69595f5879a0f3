package tnop

import (
	"testing"

	"github.com/fumin/tensor"
)

// identityBondOneMPO returns a 1x1x2x2 MPO tensor carrying the identity
// operator on its only edge, the trivial Hamiltonian "H = I".
func identityBondOneMPO() *tensor.Dense {
	return tensor.T4([][][][]complex64{{
		{{1, 0}, {0, 1}},
	}})
}

func TestUpdateLeftOnNormalizedSiteGivesNorm(t *testing.T) {
	t.Parallel()
	a := tensor.T3([][][]complex64{{
		{0.6}, {0.8},
	}})
	w := identityBondOneMPO()

	env := UpdateLeft(trivialEnv3(), w, a)
	if got := env.Shape(); got[0] != 1 || got[1] != 1 || got[2] != 1 {
		t.Fatalf("env shape = %v, want [1,1,1]", got)
	}
	if v := env.At(0, 0, 0); v != complex(1, 0) {
		t.Fatalf("env value = %v, want 1 (0.6^2+0.8^2)", v)
	}
}

func TestUpdateRightOnNormalizedSiteGivesNorm(t *testing.T) {
	t.Parallel()
	a := tensor.T3([][][]complex64{{
		{0.6}, {0.8},
	}})
	w := identityBondOneMPO()

	env := UpdateRight(trivialEnv3(), w, a)
	if v := env.At(0, 0, 0); v != complex(1, 0) {
		t.Fatalf("env value = %v, want 1", v)
	}
}

func TestInnerProductContractMatchesUpdateLeftWithIdentity(t *testing.T) {
	t.Parallel()
	a := tensor.T3([][][]complex64{{
		{0.6}, {0.8},
	}})
	got := InnerProductContract(trivialEnv2(), a, true)
	if v := got.At(0, 0); v != complex(1, 0) {
		t.Fatalf("InnerProductContract = %v, want 1", v)
	}
}

func TestExpectationContractWithIdentityMatchesInnerProduct(t *testing.T) {
	t.Parallel()
	a := tensor.T3([][][]complex64{{
		{0.6}, {0.8},
	}})
	identity := tensor.T2([][]complex64{
		{1, 0},
		{0, 1},
	})
	got := ExpectationContract(trivialEnv2(), identity, a, true)
	if v := got.At(0, 0); v != complex(1, 0) {
		t.Fatalf("ExpectationContract with identity = %v, want 1", v)
	}
}

func TestBuildEnvironmentShapes(t *testing.T) {
	t.Parallel()
	w := identityBondOneMPO()
	mpoState := []*tensor.Dense{w, w, w}
	mpsState := []*tensor.Dense{
		tensor.T3([][][]complex64{{{1}, {0}}}),
		tensor.T3([][][]complex64{{{1}, {0}}}),
		tensor.T3([][][]complex64{{{1}, {0}}}),
	}

	left, right, err := BuildEnvironment(mpsState, mpoState, 1)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if left[0] == nil || left[1] == nil {
		t.Fatalf("expected left[0] and left[1] to be populated")
	}
	if left[2] != nil {
		t.Fatalf("left[2] should be unpopulated past the center")
	}
	if right[3] == nil || right[2] == nil {
		t.Fatalf("expected right[3] (trivial boundary) and right[2] to be populated")
	}
	if right[1] != nil {
		t.Fatalf("right[1] should be unpopulated before the center")
	}
	if got := left[1].Shape(); got[0] != 1 || got[1] != 1 || got[2] != 1 {
		t.Fatalf("left[1] shape = %v, want [1,1,1]", got)
	}
}

func TestBuildEnvironmentRejectsBadCenter(t *testing.T) {
	t.Parallel()
	w := identityBondOneMPO()
	mpoState := []*tensor.Dense{w}
	mpsState := []*tensor.Dense{tensor.T3([][][]complex64{{{1}, {0}}})}
	if _, _, err := BuildEnvironment(mpsState, mpoState, 5); err == nil {
		t.Fatalf("expected ErrChainLengthMismatch")
	}
}

func TestBuildEnvironmentRejectsLengthMismatch(t *testing.T) {
	t.Parallel()
	w := identityBondOneMPO()
	mpoState := []*tensor.Dense{w, w}
	mpsState := []*tensor.Dense{tensor.T3([][][]complex64{{{1}, {0}}})}
	if _, _, err := BuildEnvironment(mpsState, mpoState, 0); err == nil {
		t.Fatalf("expected ErrChainLengthMismatch")
	}
}
