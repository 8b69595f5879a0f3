package site

// Catalog memoizes Site constructions so identical sites across a chain (or
// across chains built from the same Catalog value) share one operator table
// and eigenbasis set. A Catalog carries no package-level state; callers
// thread one explicitly through construction, per the "runtime context"
// re-architecture note for the teacher's process-wide caches.
type Catalog struct {
	spins  map[int]*Spin
	bosons map[int]*Boson
}

// NewCatalog returns an empty site cache.
func NewCatalog() *Catalog {
	return &Catalog{
		spins:  make(map[int]*Spin),
		bosons: make(map[int]*Boson),
	}
}

// Spin returns the cached spin-S site for 2S = twoS, constructing it on first use.
func (c *Catalog) Spin(twoS int) (*Spin, error) {
	if s, ok := c.spins[twoS]; ok {
		return s, nil
	}
	s, err := NewSpin(twoS)
	if err != nil {
		return nil, err
	}
	c.spins[twoS] = s
	return s, nil
}

// Boson returns the cached boson site truncated at nMax, constructing it on first use.
func (c *Catalog) Boson(nMax int) (*Boson, error) {
	if b, ok := c.bosons[nMax]; ok {
		return b, nil
	}
	b, err := NewBoson(nMax)
	if err != nil {
		return nil, err
	}
	c.bosons[nMax] = b
	return b, nil
}

// Chain is an ordered, possibly heterogeneous sequence of sites. Site
// ordering is significant and part of the MPO/MPS contract.
type Chain []Site

// Kind returns the promotion of all site kinds in the chain.
func (c Chain) Kind() ScalarKind {
	k := Real
	for _, s := range c {
		k = k.Promote(s.Kind())
	}
	return k
}

// Len returns the chain length N.
func (c Chain) Len() int { return len(c) }
