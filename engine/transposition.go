package engine

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/dylhunn/dragontoothmg"
)

// Bound classifies how a stored score relates to the true node value.
type Bound uint8

const (
	BoundNone Bound = iota
	BoundExact
	BoundLower
	BoundUpper
)

// TTEntry is one transposition table record. The tag is the high half of
// the Zobrist key; the bucket index is taken from the low bits (key & mask),
// so keys that agree in the tag and in those low bits share a record.
type TTEntry struct {
	keyTag uint32
	Move   dragontoothmg.Move
	Score  int16
	Depth  int8
	Bound  Bound
	Age    uint8
}

const bucketEntries = 3

type ttBucket struct {
	entries [bucketEntries]TTEntry
}

// TransTable is the shared transposition table: a fixed power-of-two array
// of 3-entry buckets behind a readers-writers lock. Probes take the shared
// lock; search writes arrive in batches under the exclusive lock (see
// ttWriteBatch), which keeps contention off the per-node path.
type TransTable struct {
	mu        sync.RWMutex
	buckets   []ttBucket
	mask      uint64
	age       uint8
	megabytes int
}

// NewTransTable allocates a table of roughly the requested size, rounded
// down to a power-of-two bucket count.
func NewTransTable(megabytes int) (*TransTable, error) {
	if megabytes < 1 {
		return nil, fmt.Errorf("hash size must be at least 1 MB, got %d", megabytes)
	}
	bucketBytes := uint64(unsafe.Sizeof(ttBucket{}))
	count := roundPowerOfTwo(uint64(megabytes) * 1024 * 1024 / bucketBytes)
	return &TransTable{
		buckets:   make([]ttBucket, count),
		mask:      count - 1,
		megabytes: megabytes,
	}, nil
}

func roundPowerOfTwo(n uint64) uint64 {
	var x uint64 = 1
	for x<<1 <= n {
		x <<= 1
	}
	return x
}

func (tt *TransTable) Megabytes() int {
	return tt.megabytes
}

// Probe looks the key up under the shared lock. The returned score is raw;
// the caller adjusts mate distances with ScoreFromTT.
func (tt *TransTable) Probe(key uint64) (TTEntry, bool) {
	tag := uint32(key >> 32)
	bucket := &tt.buckets[key&tt.mask]

	tt.mu.RLock()
	defer tt.mu.RUnlock()
	for i := range bucket.entries {
		if e := &bucket.entries[i]; e.Bound != BoundNone && e.keyTag == tag {
			return *e, true
		}
	}
	return TTEntry{}, false
}

// Insert stores one entry under the exclusive lock. Prefer InsertBatch for
// search traffic.
func (tt *TransTable) Insert(key uint64, entry TTEntry) {
	tt.mu.Lock()
	tt.insertLocked(key, entry)
	tt.mu.Unlock()
}

// InsertBatch applies a batch of pending updates under a single lock
// acquisition.
func (tt *TransTable) InsertBatch(updates []ttUpdate) {
	if len(updates) == 0 {
		return
	}
	tt.mu.Lock()
	for i := range updates {
		tt.insertLocked(updates[i].key, updates[i].entry)
	}
	tt.mu.Unlock()
}

// insertLocked picks the replacement victim: a slot already holding this
// key, else an empty slot, else the slot with the smallest (age, depth)
// tuple, so the oldest and shallowest entry loses.
func (tt *TransTable) insertLocked(key uint64, entry TTEntry) {
	entry.keyTag = uint32(key >> 32)
	entry.Age = tt.age
	bucket := &tt.buckets[key&tt.mask]

	target := -1
	for i := range bucket.entries {
		if e := &bucket.entries[i]; e.Bound != BoundNone && e.keyTag == entry.keyTag {
			target = i
			break
		}
	}
	if target < 0 {
		for i := range bucket.entries {
			if bucket.entries[i].Bound == BoundNone {
				target = i
				break
			}
		}
	}
	if target < 0 {
		target = 0
		for i := 1; i < bucketEntries; i++ {
			if lessAgeDepth(&bucket.entries[i], &bucket.entries[target]) {
				target = i
			}
		}
	}
	bucket.entries[target] = entry
}

func lessAgeDepth(a, b *TTEntry) bool {
	if a.Age != b.Age {
		return a.Age < b.Age
	}
	return a.Depth < b.Depth
}

// Clear zeroes all buckets and resets the age generation.
func (tt *TransTable) Clear() {
	tt.mu.Lock()
	for i := range tt.buckets {
		tt.buckets[i] = ttBucket{}
	}
	tt.age = 0
	tt.mu.Unlock()
}

// NewSearch advances the age generation; in a full bucket, entries from an
// older generation are replaced before fresher ones, whatever their depth.
func (tt *TransTable) NewSearch() {
	tt.mu.Lock()
	tt.age++
	tt.mu.Unlock()
}

// Hashfull approximates table occupancy in parts per thousand by sampling
// the first 1000 buckets.
func (tt *TransTable) Hashfull() int {
	sample := len(tt.buckets)
	if sample > 1000 {
		sample = 1000
	}

	tt.mu.RLock()
	defer tt.mu.RUnlock()
	used := 0
	for i := 0; i < sample; i++ {
		for j := range tt.buckets[i].entries {
			if tt.buckets[i].entries[j].Bound != BoundNone {
				used++
			}
		}
	}
	return used * 1000 / (sample * bucketEntries)
}

// ScoreToTT converts a search score into the node-relative form stored in
// the table: mate scores become distances from the storing node, so they
// stay valid at any other ply.
func ScoreToTT(score, ply int) int16 {
	if score >= CheckmateThreshold {
		score += ply
	} else if score <= -CheckmateThreshold {
		score -= ply
	}
	return int16(score)
}

// ScoreFromTT undoes ScoreToTT for the probing node's ply.
func ScoreFromTT(score int16, ply int) int {
	v := int(score)
	if v >= CheckmateThreshold {
		v -= ply
	} else if v <= -CheckmateThreshold {
		v += ply
	}
	return v
}
