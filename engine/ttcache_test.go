package engine

import "testing"

func TestLocalCacheDirectMapped(t *testing.T) {
	var c localTTCache
	key := uint64(5 + localCacheSize*3)
	c.insert(key, TTEntry{Move: 9, Depth: 4, Bound: BoundExact})

	if e, ok := c.probe(key); !ok || e.Move != 9 {
		t.Fatalf("probe after insert: %+v ok=%v", e, ok)
	}
	// Same slot, different key: must miss, then evict on insert.
	other := uint64(5)
	if _, ok := c.probe(other); ok {
		t.Fatal("different key in the same slot must miss")
	}
	c.insert(other, TTEntry{Move: 7, Depth: 2, Bound: BoundLower})
	if _, ok := c.probe(key); ok {
		t.Fatal("old key should have been evicted")
	}
	if e, ok := c.probe(other); !ok || e.Move != 7 {
		t.Fatal("new key should be present")
	}

	c.clear()
	if _, ok := c.probe(other); ok {
		t.Fatal("clear must empty the cache")
	}
}

func TestWriteBatchFlushesWhenFull(t *testing.T) {
	tt, err := NewTransTable(1)
	if err != nil {
		t.Fatal(err)
	}
	b := newWriteBatch(tt)

	for i := 0; i < writeBatchSize-1; i++ {
		b.add(uint64(i+1)<<32|uint64(i+1), TTEntry{Move: 1, Depth: 1, Bound: BoundExact})
	}
	if _, ok := tt.Probe(uint64(1)<<32 | 1); ok {
		t.Fatal("batch must not write through before it is full")
	}

	b.add(uint64(writeBatchSize)<<32|uint64(writeBatchSize), TTEntry{Move: 1, Depth: 1, Bound: BoundExact})
	if len(b.pending) != 0 {
		t.Fatal("batch should have drained itself when full")
	}
	for i := 0; i < writeBatchSize; i++ {
		if _, ok := tt.Probe(uint64(i+1)<<32 | uint64(i+1)); !ok {
			t.Fatalf("entry %d missing after the flush", i+1)
		}
	}
}

func TestWriteBatchManualFlush(t *testing.T) {
	tt, err := NewTransTable(1)
	if err != nil {
		t.Fatal(err)
	}
	b := newWriteBatch(tt)
	b.flush() // empty flush is a no-op

	b.add(42, TTEntry{Move: 3, Depth: 2, Bound: BoundUpper})
	b.flush()
	if e, ok := tt.Probe(42); !ok || e.Move != 3 || e.Bound != BoundUpper {
		t.Fatalf("manual flush lost the entry: %+v ok=%v", e, ok)
	}
}
