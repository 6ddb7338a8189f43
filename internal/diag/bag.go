package diag

import (
	"errors"
	"slices"
	"sync"

	"faultline/internal/fingerprint"
)

// ErrBagFull is returned by Bag.Respond once the limit is reached.
var ErrBagFull = errors.New("bag is full")

// Bag collects reports in memory up to a limit. It is safe for concurrent use.
type Bag struct {
	mu    sync.Mutex
	items []ErrorInfo
	max   int
}

// NewBag creates a Bag holding at most max reports; max <= 0 means no limit.
func NewBag(max int) *Bag {
	return &Bag{max: max}
}

// Add добавляет отчёт, учитывая лимит.
// Возвращает false, если отчёт не добавлен (достигнут лимит).
func (b *Bag) Add(info ErrorInfo) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.max > 0 && len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, info)
	return true
}

// Respond implements Responder.
func (b *Bag) Respond(info ErrorInfo) error {
	if !b.Add(info) {
		return ErrBagFull
	}
	return nil
}

// Cap возвращает лимит отчётов; значение <= 0 означает отсутствие лимита.
func (b *Bag) Cap() int {
	return b.max
}

// Len возвращает число собранных отчётов.
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Items возвращает копию собранных отчётов.
func (b *Bag) Items() []ErrorInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.items)
}

// Fingerprints returns the distinct fingerprints in arrival order.
func (b *Bag) Fingerprints() []fingerprint.ID {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]fingerprint.ID, 0, len(b.items))
	seen := make(map[fingerprint.ID]bool, len(b.items))
	for _, it := range b.items {
		if seen[it.Fingerprint] {
			continue
		}
		seen[it.Fingerprint] = true
		out = append(out, it.Fingerprint)
	}
	return out
}

// Sort упорядочивает отчёты по времени, затем по fingerprint,
// для стабильного и детерминированного порядка вывода.
func (b *Bag) Sort() {
	b.mu.Lock()
	defer b.mu.Unlock()
	slices.SortStableFunc(b.items, func(x, y ErrorInfo) int {
		if c := x.Timestamp.Compare(y.Timestamp); c != 0 {
			return c
		}
		return slices.Compare(x.Fingerprint[:], y.Fingerprint[:])
	})
}
