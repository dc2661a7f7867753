package ppi

// PairKey identifies an unordered protein pair. A is always the
// lexicographically smaller ID, so NewPairKey(u, v) == NewPairKey(v, u).
type PairKey struct {
	A, B string
}

// NewPairKey returns the order-independent key for the pair (u, v).
func NewPairKey(u, v string) PairKey {
	if v < u {
		u, v = v, u
	}
	return PairKey{A: u, B: v}
}

// String renders the key as "A|B".
func (k PairKey) String() string {
	return k.A + "|" + k.B
}
