package domain

import (
	"errors"
	"math"
	"time"
)

// DriftThreshold is the tolerated distance in seconds between a client position and the room clock.
const DriftThreshold = 3.0

var ErrUnknownAction = errors.New("unknown playback action")

type Action string

const (
	ActionPlay  Action = "play"
	ActionPause Action = "pause"
	ActionSeek  Action = "seek"
)

// Player is the playback anchor. The position at any instant is derived by Expected.
type Player struct {
	VideoID     string
	CurrentTime float64
	IsPlaying   bool
	UpdatedAt   time.Time
}

func NewPlayer(now time.Time) Player {
	return Player{UpdatedAt: now}
}

// Apply resets the anchor. videoID is only honored for play and only when non-empty.
func (p *Player) Apply(action Action, reportedTime float64, videoID string, now time.Time) error {
	switch action {
	case ActionPlay:
		p.IsPlaying = true
		if videoID != "" {
			p.VideoID = videoID
		}
	case ActionPause:
		p.IsPlaying = false
	case ActionSeek:
	default:
		return ErrUnknownAction
	}

	p.CurrentTime = reportedTime
	p.UpdatedAt = now

	return nil
}

func (p Player) Expected(now time.Time) float64 {
	if !p.IsPlaying {
		return p.CurrentTime
	}

	elapsed := now.Sub(p.UpdatedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	return p.CurrentTime + elapsed
}

type Drift struct {
	NeedsResync      bool
	CorrectTime      float64
	CorrectIsPlaying bool
	Drift            float64
}

func (p Player) CheckDrift(reportedTime float64, reportedIsPlaying bool, now time.Time) Drift {
	expected := p.Expected(now)
	drift := math.Abs(reportedTime - expected)

	return Drift{
		NeedsResync:      drift > DriftThreshold || reportedIsPlaying != p.IsPlaying,
		CorrectTime:      expected,
		CorrectIsPlaying: p.IsPlaying,
		Drift:            drift,
	}
}
