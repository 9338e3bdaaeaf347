package search

import (
	"testing"
)

func indices(sweeps []*SweepResult) []int {
	out := make([]int, len(sweeps))
	for i, s := range sweeps {
		out[i] = s.Index
	}
	return out
}

func TestSweepBuffer_Ordering(t *testing.T) {
	b := NewSweepBuffer(0)

	for _, i := range []int{3, 1, 4, 2} {
		if err := b.Insert(&SweepResult{Index: i}); err != nil {
			t.Fatalf("Failed to insert sweep %d: %v", i, err)
		}
	}

	// sweep 0 is still missing
	if flushed := b.Flush(); flushed != nil {
		t.Errorf("Expected nothing flushed, got %v", indices(flushed))
	}
	if size := b.Size(); size != 4 {
		t.Errorf("Expected buffer size 4, got %d", size)
	}

	if err := b.Insert(&SweepResult{Index: 0}); err != nil {
		t.Fatalf("Failed to insert sweep 0: %v", err)
	}

	flushed := b.Flush()
	expected := []int{0, 1, 2, 3, 4}
	if len(flushed) != len(expected) {
		t.Fatalf("Expected %d flushed sweeps, got %d", len(expected), len(flushed))
	}
	for i, idx := range expected {
		if flushed[i].Index != idx {
			t.Errorf("Result %d: expected sweep %d, got %d", i, idx, flushed[i].Index)
		}
	}
	if b.Size() != 0 {
		t.Errorf("Expected empty buffer, got size %d", b.Size())
	}
}

func TestSweepBuffer_PartialFlush(t *testing.T) {
	b := NewSweepBuffer(5)

	for _, i := range []int{5, 6, 8} {
		if err := b.Insert(&SweepResult{Index: i}); err != nil {
			t.Fatalf("Failed to insert sweep %d: %v", i, err)
		}
	}

	flushed := b.Flush()
	if len(flushed) != 2 || flushed[0].Index != 5 || flushed[1].Index != 6 {
		t.Errorf("Expected sweeps [5 6], got %v", indices(flushed))
	}
	if size := b.Size(); size != 1 {
		t.Errorf("Expected remaining size 1, got %d", size)
	}

	drained := b.DrainAll()
	if len(drained) != 1 || drained[0].Index != 8 {
		t.Errorf("Expected sweeps [8], got %v", indices(drained))
	}

	// everything up to 8 counts as released after a drain
	if err := b.Insert(&SweepResult{Index: 7}); err == nil {
		t.Error("Expected error when inserting a released sweep")
	}
	if err := b.Insert(&SweepResult{Index: 9}); err != nil {
		t.Errorf("Failed to insert sweep 9: %v", err)
	}
}

func TestSweepBuffer_EdgeCases(t *testing.T) {
	b := NewSweepBuffer(0)

	if err := b.Insert(nil); err == nil {
		t.Error("Expected error when inserting nil sweep")
	}
	if b.Flush() != nil {
		t.Error("Flush on empty buffer should return nil")
	}
	if b.DrainAll() != nil {
		t.Error("DrainAll on empty buffer should return nil")
	}
	if b.Size() != 0 {
		t.Error("Empty buffer should have size 0")
	}

	if err := b.Insert(&SweepResult{Index: 2}); err != nil {
		t.Fatalf("Failed to insert sweep 2: %v", err)
	}
	if err := b.Insert(&SweepResult{Index: 2}); err == nil {
		t.Error("Expected error when inserting duplicate sweep")
	}
	if err := b.Insert(&SweepResult{Index: 4}); err != nil {
		t.Fatalf("Failed to insert sweep 4: %v", err)
	}
	if err := b.Insert(&SweepResult{Index: 4}); err == nil {
		t.Error("Expected error when inserting duplicate tail sweep")
	}
}
