package domain

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoom() *Room {
	return NewRoom("abcde12345", "", Config{MembersLimit: 20, PlaylistLimit: 100, ChatLimit: 200}, t0)
}

func TestRoomJoin(t *testing.T) {
	r := newTestRoom()

	rejoined, err := r.Join(Member{UserID: "A1", Username: "Alice", ConnID: "c1"}, t0.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, rejoined)
	assert.Equal(t, "A1", r.HostUserID, "first joiner becomes host")

	_, err = r.Join(Member{UserID: "B1", Username: "Bob", ConnID: "c2"}, t0.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, "A1", r.HostUserID)

	rejoined, err = r.Join(Member{UserID: "A1", Username: "Alice", ConnID: "c3"}, t0.Add(3*time.Second))
	require.NoError(t, err)
	assert.True(t, rejoined)

	alice, ok := r.Members.GetByID("A1")
	require.True(t, ok)
	assert.Equal(t, "c3", alice.ConnID)
	assert.Equal(t, t0.Add(time.Second), alice.JoinedAt, "rebind keeps join time")
	assert.Equal(t, 2, r.Members.Length())
	assert.Equal(t, t0.Add(3*time.Second), r.LastActivityAt())
}

func TestRoomJoinLimit(t *testing.T) {
	r := NewRoom("abcde12345", "", Config{MembersLimit: 2, PlaylistLimit: 1, ChatLimit: 1}, t0)
	_, err := r.Join(Member{UserID: "A1"}, t0)
	require.NoError(t, err)
	_, err = r.Join(Member{UserID: "B1"}, t0)
	require.NoError(t, err)

	_, err = r.Join(Member{UserID: "C1"}, t0.Add(time.Second))
	assert.ErrorIs(t, err, ErrMembersLimitReached)
	assert.Equal(t, t0, r.LastActivityAt(), "failed join leaves activity untouched")

	_, err = r.Join(Member{UserID: "B1", ConnID: "new"}, t0)
	assert.NoError(t, err, "rebind ignores the limit")
}

func TestRoomLeaveHostTransfer(t *testing.T) {
	r := newTestRoom()
	_, _ = r.Join(Member{UserID: "A1"}, t0)
	_, _ = r.Join(Member{UserID: "C1"}, t0.Add(time.Second))
	_, _ = r.Join(Member{UserID: "B1"}, t0.Add(time.Second))

	_, newHost, err := r.Leave("A1", t0.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, "B1", newHost, "equal join times fall back to user id")
	assert.Equal(t, "B1", r.HostUserID)

	_, newHost, err = r.Leave("C1", t0.Add(3*time.Second))
	require.NoError(t, err)
	assert.Empty(t, newHost)

	_, _, err = r.Leave("C1", t0.Add(4*time.Second))
	assert.ErrorIs(t, err, ErrMemberNotFound)
	assert.Equal(t, t0.Add(3*time.Second), r.LastActivityAt())
}

func TestRoomHostInvariant(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	r := newTestRoom()
	now := t0

	for i := 0; i < 2000; i++ {
		now = now.Add(time.Duration(rng.IntN(3)) * time.Millisecond)
		id := fmt.Sprintf("u%d", rng.IntN(12))

		switch rng.IntN(3) {
		case 0:
			_, _ = r.Join(Member{UserID: id}, now)
		case 1:
			_, _, _ = r.Leave(id, now)
		case 2:
			_ = r.TransferHost(id, now)
		}

		if r.Members.Length() > 0 {
			require.True(t, r.Members.Has(r.HostUserID), "step %d: host %q not a member", i, r.HostUserID)
		}
	}
}

func TestRoomTouchMonotonic(t *testing.T) {
	r := newTestRoom()
	r.Touch(t0.Add(time.Minute))
	r.Touch(t0.Add(time.Second))
	assert.Equal(t, t0.Add(time.Minute), r.LastActivityAt())

	assert.False(t, r.IsIdle(t0.Add(2*time.Minute), time.Minute))
	assert.True(t, r.IsIdle(t0.Add(2*time.Minute+time.Millisecond), time.Minute))
}

func TestRoomHeartbeatDoesNotTouch(t *testing.T) {
	r := newTestRoom()
	_, _ = r.Join(Member{UserID: "A1"}, t0)

	require.NoError(t, r.Heartbeat("A1", t0.Add(time.Hour)))
	assert.Equal(t, t0, r.LastActivityAt())

	a, _ := r.Members.GetByID("A1")
	assert.Equal(t, t0.Add(time.Hour), a.LastHeartbeat)
	assert.ErrorIs(t, r.Heartbeat("nobody", t0), ErrMemberNotFound)
}

func TestRoomPlayNext(t *testing.T) {
	r := newTestRoom()

	_, ok := r.PlayNext(t0)
	assert.False(t, ok)

	require.NoError(t, r.Playlist.Add(Video{VideoID: "dQw4w9WgXcQ", Title: "Song"}))
	require.NoError(t, r.Apply(ActionPause, 99, "", t0))

	v, ok := r.PlayNext(t0.Add(time.Second))
	require.True(t, ok)
	assert.Equal(t, "Song", v.Title)
	assert.Equal(t, Player{VideoID: "dQw4w9WgXcQ", CurrentTime: 0, IsPlaying: true, UpdatedAt: t0.Add(time.Second)}, r.Player)
	assert.Equal(t, 0, r.Playlist.Length())
}

func TestRoomBuffering(t *testing.T) {
	r := newTestRoom()
	require.NoError(t, r.Apply(ActionPlay, 10, "dQw4w9WgXcQ", t0))

	added, paused := r.StartBuffering("A1", t0.Add(2*time.Second))
	assert.True(t, added)
	assert.True(t, paused)
	assert.False(t, r.Player.IsPlaying)
	assert.Equal(t, 10.0, r.Player.CurrentTime, "pauses at the anchor, not the extrapolated position")
	assert.Equal(t, t0.Add(2*time.Second), r.Player.UpdatedAt)

	added, paused = r.StartBuffering("B1", t0.Add(3*time.Second))
	assert.True(t, added)
	assert.False(t, paused)

	added, _ = r.StartBuffering("B1", t0.Add(3*time.Second))
	assert.False(t, added)
	assert.Equal(t, []string{"A1", "B1"}, r.BufferingUserIDs())

	removed, resumed, _ := r.StopBuffering("A1", t0.Add(4*time.Second))
	assert.True(t, removed)
	assert.False(t, resumed)
	assert.False(t, r.Player.IsPlaying)

	removed, _, _ = r.StopBuffering("nobody", t0.Add(4*time.Second))
	assert.False(t, removed)

	removed, resumed, at := r.StopBuffering("B1", t0.Add(9*time.Second))
	assert.True(t, removed)
	assert.True(t, resumed)
	assert.Equal(t, 10.0, at)
	assert.True(t, r.Player.IsPlaying)
	assert.Empty(t, r.BufferingUserIDs())
}
