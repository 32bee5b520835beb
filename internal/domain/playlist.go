package domain

import (
	"errors"
	"time"

	"golang.org/x/exp/slices"
)

// MaxPlaylistLimit caps any configured queue size.
const MaxPlaylistLimit = 100

var (
	ErrPlaylistLimitReached = errors.New("playlist limit reached")
	ErrVideoNotFound        = errors.New("video not found")
	ErrIndexOutOfRange      = errors.New("index out of range")
)

type Video struct {
	VideoID   string
	Title     string
	Thumbnail string
	Duration  int
	AddedBy   string
	AddedAt   time.Time
}

// Playlist is a bounded FIFO of pending videos.
type Playlist struct {
	videos []Video
	limit  int
}

// NewPlaylist clamps limit to MaxPlaylistLimit.
func NewPlaylist(limit int) Playlist {
	if limit <= 0 || limit > MaxPlaylistLimit {
		limit = MaxPlaylistLimit
	}

	return Playlist{limit: limit}
}

func (p Playlist) Length() int {
	return len(p.videos)
}

func (p Playlist) AsList() []Video {
	return slices.Clone(p.videos)
}

func (p *Playlist) Add(video Video) error {
	if len(p.videos) >= p.limit {
		return ErrPlaylistLimitReached
	}

	p.videos = append(p.videos, video)
	return nil
}

func (p *Playlist) Remove(videoID string) error {
	i := slices.IndexFunc(p.videos, func(v Video) bool { return v.VideoID == videoID })
	if i < 0 {
		return ErrVideoNotFound
	}

	p.videos = slices.Delete(p.videos, i, i+1)
	return nil
}

func (p *Playlist) Reorder(oldIndex, newIndex int) error {
	if oldIndex < 0 || oldIndex >= len(p.videos) || newIndex < 0 || newIndex >= len(p.videos) {
		return ErrIndexOutOfRange
	}

	video := p.videos[oldIndex]
	p.videos = slices.Delete(p.videos, oldIndex, oldIndex+1)
	p.videos = slices.Insert(p.videos, newIndex, video)

	return nil
}

func (p *Playlist) PopFront() (Video, bool) {
	if len(p.videos) == 0 {
		return Video{}, false
	}

	video := p.videos[0]
	p.videos = slices.Delete(p.videos, 0, 1)

	return video, true
}

func (p *Playlist) Clear() {
	p.videos = nil
}
