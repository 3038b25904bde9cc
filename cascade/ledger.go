package cascade

// Ledger is the append-only record of parent->child edges accepted during
// expansion. Entries are never mutated or removed; the visualization
// synthesizer reads it to resolve linkage by id.
type Ledger struct {
	entries []EffectRelationship
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append records one accepted edge.
func (l *Ledger) Append(rel EffectRelationship) {
	l.entries = append(l.entries, rel)
}

// All returns the recorded edges in insertion order. The returned slice is a
// copy; the ledger itself stays append-only.
func (l *Ledger) All() []EffectRelationship {
	out := make([]EffectRelationship, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded edges.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// ByChild returns the edge into the given effect, if any. Every accepted
// effect has exactly one incoming edge.
func (l *Ledger) ByChild(id string) (EffectRelationship, bool) {
	for _, e := range l.entries {
		if e.ChildID == id {
			return e, true
		}
	}
	return EffectRelationship{}, false
}
