package transporter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"haulmatch/internal/types"
)

func makeIDs(n int) []types.ID {
	ids := make([]types.ID, n)
	for i := range ids {
		ids[i] = types.ID(rune('a' + i))
	}
	return ids
}

func TestChunkIDs(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		size     int
		wantLens []int
	}{
		{"empty", 0, 10, nil},
		{"single partial batch", 3, 10, []int{3}},
		{"exact batch", 10, 10, []int{10}},
		{"overflow by one", 11, 10, []int{10, 1}},
		{"several batches", 25, 10, []int{10, 10, 5}},
		{"size one", 3, 1, []int{1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := chunkIDs(makeIDs(tt.total), tt.size)
			var lens []int
			for _, c := range chunks {
				lens = append(lens, len(c))
			}
			assert.Equal(t, tt.wantLens, lens)
		})
	}
}

func TestChunkIDs_InvalidSize(t *testing.T) {
	assert.Nil(t, chunkIDs(makeIDs(5), 0))
	assert.Nil(t, chunkIDs(makeIDs(5), -1))
}

func TestChunkIDs_PreservesOrderAndContent(t *testing.T) {
	ids := makeIDs(25)
	var flat []types.ID
	for _, c := range chunkIDs(ids, 10) {
		flat = append(flat, c...)
	}
	assert.Equal(t, ids, flat)
}
