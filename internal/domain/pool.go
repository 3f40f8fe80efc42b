// Package domain contains pure, dependency-free domain models and types
// for the lucky-draw engine: the candidate pool, the shuffle, and the
// presentation sequence a draw is resolved from.
package domain

// Pool is the ordered working collection of candidate labels.
// A Pool is not safe for concurrent use; the DrawController that owns it
// serializes every access.
type Pool struct {
	items []string
	// keepDuplicates disables by-value deduplication on Replace.
	keepDuplicates bool
}

// NewPool creates a pool from labels. Empty labels are always dropped.
// Unless keepDuplicates is set, repeated labels collapse to their first
// occurrence.
func NewPool(labels []string, keepDuplicates bool) *Pool {
	p := &Pool{keepDuplicates: keepDuplicates}
	p.Replace(labels)
	return p
}

// Replace swaps the pool contents for a filtered copy of labels,
// preserving first-seen order.
func (p *Pool) Replace(labels []string) {
	items := make([]string, 0, len(labels))
	var seen map[string]struct{}
	if !p.keepDuplicates {
		seen = make(map[string]struct{}, len(labels))
	}

	for _, label := range labels {
		if label == "" {
			continue
		}
		if seen != nil {
			if _, dup := seen[label]; dup {
				continue
			}
			seen[label] = struct{}{}
		}
		items = append(items, label)
	}
	p.items = items
}

// SetKeepDuplicates changes the dedup policy used by later calls to Replace.
// The current contents are left as they are.
func (p *Pool) SetKeepDuplicates(keep bool) { p.keepDuplicates = keep }

// IsEmpty reports whether the pool has no candidates.
func (p *Pool) IsEmpty() bool { return len(p.items) == 0 }

// Len returns the number of candidates, counting repeats.
func (p *Pool) Len() int { return len(p.items) }

// Items returns a copy of the pool contents in order.
func (p *Pool) Items() []string {
	out := make([]string, len(p.items))
	copy(out, p.items)
	return out
}

// Count returns how many times label occurs in the pool.
func (p *Pool) Count(label string) int {
	n := 0
	for _, item := range p.items {
		if item == label {
			n++
		}
	}
	return n
}

// RemoveFirstMatching removes the first occurrence of label and reports
// whether anything was removed.
func (p *Pool) RemoveFirstMatching(label string) bool {
	for i, item := range p.items {
		if item == label {
			p.items = append(p.items[:i], p.items[i+1:]...)
			return true
		}
	}
	return false
}
