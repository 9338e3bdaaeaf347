package search

import (
	"fmt"
	"sync"
)

type node struct {
	sweep *SweepResult
	next  *node
}

// SweepBuffer re-orders sweep results that complete out of order. Results are
// kept in a list sorted by sweep index and released only as a contiguous run
// starting at the next expected index.
type SweepBuffer struct {
	mu   sync.Mutex
	head *node
	size int
	next int // index of the next sweep to release
}

// NewSweepBuffer creates a buffer that releases sweeps starting at index first.
func NewSweepBuffer(first int) *SweepBuffer {
	return &SweepBuffer{next: first}
}

// Insert adds a sweep result in index order. Nil results, results already
// released and duplicate indices are refused.
func (b *SweepBuffer) Insert(sweep *SweepResult) error {
	if sweep == nil {
		return fmt.Errorf("cannot insert nil sweep")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if sweep.Index < b.next {
		return fmt.Errorf("sweep %d already released", sweep.Index)
	}

	if b.head == nil || sweep.Index < b.head.sweep.Index {
		b.head = &node{sweep: sweep, next: b.head}
		b.size++
		return nil
	}

	current := b.head
	for {
		if current.sweep.Index == sweep.Index {
			return fmt.Errorf("duplicate sweep %d", sweep.Index)
		}
		if current.next == nil || current.next.sweep.Index > sweep.Index {
			current.next = &node{sweep: sweep, next: current.next}
			b.size++
			return nil
		}
		current = current.next
	}
}

// Flush removes and returns the contiguous run of sweeps starting at the next
// expected index. It returns nil while that sweep is still missing.
func (b *SweepBuffer) Flush() []*SweepResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	var results []*SweepResult
	for b.head != nil && b.head.sweep.Index == b.next {
		results = append(results, b.head.sweep)
		b.head = b.head.next
		b.size--
		b.next++
	}
	return results
}

// DrainAll removes and returns every buffered sweep in index order, gaps included.
func (b *SweepBuffer) DrainAll() []*SweepResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.head == nil {
		return nil
	}

	results := make([]*SweepResult, 0, b.size)
	for current := b.head; current != nil; current = current.next {
		results = append(results, current.sweep)
	}
	b.next = results[len(results)-1].Index + 1
	b.head = nil
	b.size = 0
	return results
}

// Size returns the number of buffered sweeps.
func (b *SweepBuffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}
