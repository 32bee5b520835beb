package domain

import (
	"sync"
	"time"

	"golang.org/x/exp/slices"
)

// BufferingThreshold is the local stall a client must report before the room pauses for it.
const BufferingThreshold = 5 * time.Second

type Config struct {
	MembersLimit  int
	PlaylistLimit int
	ChatLimit     int
}

// Room is the aggregate of one watch session. Callers must hold the lock for every access
// after construction.
type Room struct {
	mu sync.Mutex

	ID         string
	CreatedAt  time.Time
	HostUserID string
	Members    Members
	Player     Player
	Playlist   Playlist
	Chat       ChatLog

	lastActivityAt time.Time
	buffering      []string
	deleted        bool
}

func NewRoom(id, hostUserID string, cfg Config, now time.Time) *Room {
	return &Room{
		ID:             id,
		CreatedAt:      now,
		HostUserID:     hostUserID,
		Members:        NewMembers(cfg.MembersLimit),
		Player:         NewPlayer(now),
		Playlist:       NewPlaylist(cfg.PlaylistLimit),
		Chat:           NewChatLog(cfg.ChatLimit),
		lastActivityAt: now,
	}
}

func (r *Room) Lock()   { r.mu.Lock() }
func (r *Room) Unlock() { r.mu.Unlock() }

// MarkDeleted flags the room so holders of a stale pointer observe the deletion.
func (r *Room) MarkDeleted()  { r.deleted = true }
func (r *Room) Deleted() bool { return r.deleted }

func (r *Room) LastActivityAt() time.Time {
	return r.lastActivityAt
}

// Touch records activity. The timestamp never moves backwards.
func (r *Room) Touch(now time.Time) {
	if now.After(r.lastActivityAt) {
		r.lastActivityAt = now
	}
}

func (r *Room) IsIdle(now time.Time, timeout time.Duration) bool {
	return now.Sub(r.lastActivityAt) > timeout
}

func (r *Room) IsHost(userID string) bool {
	return userID != "" && r.HostUserID == userID
}

// Join admits a member or rebinds an existing one to a new connection. A rebind keeps the
// original join time and is not subject to the members limit.
func (r *Room) Join(member Member, now time.Time) (rejoined bool, err error) {
	if r.Members.Has(member.UserID) {
		rejoined = true
		err = r.Members.Update(member.UserID, func(m *Member) {
			m.Username = member.Username
			m.IsGuest = member.IsGuest
			m.ConnID = member.ConnID
			m.LastHeartbeat = now
			m.IsReconnecting = false
		})
	} else {
		member.JoinedAt = now
		member.LastHeartbeat = now
		err = r.Members.Add(member)
	}
	if err != nil {
		return false, err
	}

	if !r.Members.Has(r.HostUserID) {
		r.HostUserID = member.UserID
	}
	r.Touch(now)

	return rejoined, nil
}

// Leave removes a member and hands the host role to the most senior remaining member
// when the host left. newHost is empty when the host did not change.
func (r *Room) Leave(userID string, now time.Time) (member Member, newHost string, err error) {
	member, err = r.Members.RemoveByID(userID)
	if err != nil {
		return Member{}, "", err
	}

	if r.HostUserID == userID {
		if senior, ok := r.Members.Senior(); ok {
			r.HostUserID = senior.UserID
			newHost = senior.UserID
		}
	}
	r.Touch(now)

	return member, newHost, nil
}

func (r *Room) TransferHost(newHostUserID string, now time.Time) error {
	if !r.Members.Has(newHostUserID) {
		return ErrMemberNotFound
	}

	r.HostUserID = newHostUserID
	r.Touch(now)

	return nil
}

func (r *Room) Heartbeat(userID string, now time.Time) error {
	return r.Members.Update(userID, func(m *Member) {
		m.LastHeartbeat = now
	})
}

func (r *Room) Apply(action Action, reportedTime float64, videoID string, now time.Time) error {
	if err := r.Player.Apply(action, reportedTime, videoID, now); err != nil {
		return err
	}
	r.Touch(now)

	return nil
}

// PlayNext starts the head of the playlist from zero.
func (r *Room) PlayNext(now time.Time) (Video, bool) {
	video, ok := r.Playlist.PopFront()
	if !ok {
		return Video{}, false
	}

	r.Player.Apply(ActionPlay, 0, video.VideoID, now)
	r.Touch(now)

	return video, true
}

func (r *Room) BufferingUserIDs() []string {
	return slices.Clone(r.buffering)
}

func (r *Room) IsBuffering(userID string) bool {
	return slices.Contains(r.buffering, userID)
}

// StartBuffering adds userID to the buffering set. The first entrant pauses the room at
// its anchor position; time elapsed since the last update is discarded.
func (r *Room) StartBuffering(userID string, now time.Time) (added, paused bool) {
	if r.IsBuffering(userID) {
		return false, false
	}

	r.buffering = append(r.buffering, userID)
	if len(r.buffering) > 1 {
		return true, false
	}

	r.Player.Apply(ActionPause, r.Player.CurrentTime, "", now)
	r.Touch(now)

	return true, true
}

// StopBuffering removes userID from the buffering set. When the set drains the room resumes
// playing from its expected position, returned as at.
func (r *Room) StopBuffering(userID string, now time.Time) (removed, resumed bool, at float64) {
	i := slices.Index(r.buffering, userID)
	if i < 0 {
		return false, false, 0
	}

	r.buffering = slices.Delete(r.buffering, i, i+1)
	if len(r.buffering) > 0 {
		return true, false, 0
	}

	at = r.Player.Expected(now)
	r.Player.Apply(ActionPlay, at, "", now)
	r.Touch(now)

	return true, true, at
}
