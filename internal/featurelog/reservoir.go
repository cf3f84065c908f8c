package featurelog

import "math/rand/v2"

// DefaultCapacity is the number of rows kept per block-size bucket.
const DefaultCapacity = 7000

// reservoir keeps a uniform sample of at most capacity records from an
// unbounded stream (Algorithm R). After n offers every record seen so far
// survives with probability capacity/n regardless of arrival order.
type reservoir struct {
	capacity int
	seen     uint64
	rows     []CompletedRecord
}

func newReservoir(capacity int) *reservoir {
	return &reservoir{
		capacity: capacity,
		rows:     make([]CompletedRecord, 0, min(capacity, 256)),
	}
}

// offer counts rec and keeps it if it wins a slot. rng must only be used
// by the caller holding the logger lock.
func (r *reservoir) offer(rec CompletedRecord, rng *rand.Rand) bool {
	r.seen++
	if len(r.rows) < r.capacity {
		r.rows = append(r.rows, rec)
		return true
	}
	j := rng.Uint64N(r.seen)
	if j < uint64(r.capacity) {
		r.rows[j] = rec
		return true
	}
	return false
}

// snapshot copies the slot slice; records themselves are immutable.
func (r *reservoir) snapshot() []CompletedRecord {
	return append([]CompletedRecord(nil), r.rows...)
}
