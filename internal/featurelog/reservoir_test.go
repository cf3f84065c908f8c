package featurelog

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservoir_FillsThenStaysAtCapacity(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	r := newReservoir(5)
	for i := 0; i < 5; i++ {
		assert.True(t, r.offer(CompletedRecord{Tag: Tag(strconv.Itoa(i))}, rng))
	}
	require.Len(t, r.rows, 5)
	for i := 5; i < 1000; i++ {
		r.offer(CompletedRecord{Tag: Tag(strconv.Itoa(i))}, rng)
		require.Len(t, r.rows, 5)
	}
	assert.Equal(t, uint64(1000), r.seen)
}

func TestReservoir_UniformInclusion(t *testing.T) {
	t.Parallel()

	const (
		capacity = 10
		stream   = 100
		trials   = 20000
	)
	rng := rand.New(rand.NewPCG(42, 7))
	hits := make([]int, stream)

	for trial := 0; trial < trials; trial++ {
		r := newReservoir(capacity)
		for i := 0; i < stream; i++ {
			r.offer(CompletedRecord{Fields: []string{strconv.Itoa(i)}}, rng)
		}
		require.Len(t, r.rows, capacity)
		for _, rec := range r.rows {
			i, err := strconv.Atoi(rec.Fields[0])
			require.NoError(t, err)
			hits[i]++
		}
	}

	want := float64(capacity) / float64(stream)
	for i, h := range hits {
		p := float64(h) / trials
		// binomial sd is ~0.002 here; 0.02 is ten sigma
		assert.InDelta(t, want, p, 0.02, "observation %d kept with p=%.4f", i, p)
	}

	// early and late arrivals are treated alike
	var early, late int
	for i := 0; i < stream/2; i++ {
		early += hits[i]
		late += hits[stream/2+i]
	}
	assert.InDelta(t, 1.0, float64(early)/float64(late), 0.05)
}

func TestReservoir_SnapshotIsACopy(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(3, 4))
	r := newReservoir(2)
	r.offer(CompletedRecord{Tag: TagSkip}, rng)
	snap := r.snapshot()
	snap[0].Tag = TagUnknown
	assert.Equal(t, TagSkip, r.rows[0].Tag)
}
