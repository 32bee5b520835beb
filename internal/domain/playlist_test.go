package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func videoIDs(p Playlist) []string {
	ids := make([]string, 0, p.Length())
	for _, v := range p.AsList() {
		ids = append(ids, v.VideoID)
	}
	return ids
}

func TestPlaylistLimit(t *testing.T) {
	p := NewPlaylist(100)
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Add(Video{VideoID: fmt.Sprintf("video%06d", i)}))
	}

	assert.ErrorIs(t, p.Add(Video{VideoID: "overflow000"}), ErrPlaylistLimitReached)
	assert.Equal(t, 100, p.Length())
}

func TestPlaylistLimitClamped(t *testing.T) {
	for _, limit := range []int{0, -5, 1000} {
		p := NewPlaylist(limit)
		for i := 0; i < MaxPlaylistLimit; i++ {
			require.NoError(t, p.Add(Video{VideoID: fmt.Sprintf("video%06d", i)}))
		}

		assert.ErrorIs(t, p.Add(Video{VideoID: "overflow000"}), ErrPlaylistLimitReached, "limit %d", limit)
	}
}

func TestPlaylistEdit(t *testing.T) {
	p := NewPlaylist(10)
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, p.Add(Video{VideoID: id}))
	}

	require.NoError(t, p.Reorder(0, 2))
	assert.Equal(t, []string{"b", "c", "a", "d"}, videoIDs(p))

	require.NoError(t, p.Reorder(3, 0))
	assert.Equal(t, []string{"d", "b", "c", "a"}, videoIDs(p))

	assert.ErrorIs(t, p.Reorder(0, 4), ErrIndexOutOfRange)
	assert.ErrorIs(t, p.Reorder(-1, 0), ErrIndexOutOfRange)

	require.NoError(t, p.Remove("b"))
	assert.ErrorIs(t, p.Remove("b"), ErrVideoNotFound)
	assert.Equal(t, []string{"d", "c", "a"}, videoIDs(p))

	head, ok := p.PopFront()
	require.True(t, ok)
	assert.Equal(t, "d", head.VideoID)

	p.Clear()
	_, ok = p.PopFront()
	assert.False(t, ok)
	assert.Equal(t, 0, p.Length())
}
