package domain

// AuditReport lists dataset members that the index re-addressed, replaced
// or dropped. A non-empty Mismatched list usually means the producer keyed
// the file with a different normalization scheme.
type AuditReport struct {
	Stats      BuildStats    `json:"stats"`
	Mismatched []KeyMismatch `json:"mismatched,omitempty"`
	Collisions []Collision   `json:"collisions,omitempty"`
	Skipped    []string      `json:"skipped,omitempty"`
}

// Clean reports whether every member was indexed under its own key.
func (r AuditReport) Clean() bool {
	return len(r.Mismatched) == 0 && len(r.Collisions) == 0 && len(r.Skipped) == 0
}

// Audit returns the key report collected while building idx.
func (idx *Index) Audit() AuditReport {
	if idx == nil {
		return AuditReport{}
	}
	return AuditReport{
		Stats:      idx.stats,
		Mismatched: append([]KeyMismatch(nil), idx.mismatches...),
		Collisions: append([]Collision(nil), idx.collisions...),
		Skipped:    append([]string(nil), idx.skipped...),
	}
}
