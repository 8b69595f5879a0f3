package tnop

import (
	"testing"

	"github.com/fumin/tensor"
)

func TestContractBondThenSplitRoundTrips(t *testing.T) {
	t.Parallel()
	state := twoSiteChain()
	psi := ContractBond(state[0], state[1])
	if got, want := psi.Shape(), []int{1, 2, 2, 1}; got[0] != want[0] || got[1] != want[1] || got[2] != want[2] || got[3] != want[3] {
		t.Fatalf("ContractBond shape = %v, want %v", got, want)
	}

	aI, aI1, chi, truncErr, err := SplitTwoSite(psi, true, SVDPolicy{})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if truncErr > 1e-5 {
		t.Fatalf("truncErr = %v, want ~0 with no truncation policy", truncErr)
	}
	if chi < 1 {
		t.Fatalf("chi = %d, want >= 1", chi)
	}

	recon := ContractBond(aI, aI1)
	if err := recon.Equal(psi, 1e-4); err != nil {
		t.Fatalf("round trip mismatch: %+v", err)
	}
}

func TestSplitTwoSiteRejectsBadRank(t *testing.T) {
	t.Parallel()
	if _, _, _, _, err := SplitTwoSite(tensor.Zeros(2, 2), true, SVDPolicy{}); err == nil {
		t.Fatalf("expected ErrDimensionMismatch for a rank-2 input")
	}
}
