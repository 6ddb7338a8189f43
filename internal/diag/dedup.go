package diag

import (
	"sync"

	"faultline/internal/fingerprint"
)

// DedupResponder wraps another Responder and suppresses repeated reports
// with the same fingerprint. Repeats are counted.
type DedupResponder struct {
	next Responder

	mu   sync.Mutex
	seen map[fingerprint.ID]int
}

// NewDedupResponder returns a Responder that forwards only the first report
// of each fingerprint to next.
func NewDedupResponder(next Responder) *DedupResponder {
	return &DedupResponder{
		next: next,
		seen: make(map[fingerprint.ID]int),
	}
}

func (r *DedupResponder) Respond(info ErrorInfo) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	r.seen[info.Fingerprint]++
	first := r.seen[info.Fingerprint] == 1
	r.mu.Unlock()
	if !first || r.next == nil {
		return nil
	}
	return r.next.Respond(info)
}

// Count returns how many reports with id have been seen.
func (r *DedupResponder) Count(id fingerprint.ID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[id]
}
