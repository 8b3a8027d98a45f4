// Package player provides the adapter around the embedded media player SDK.
package player

import "context"

// State is the player state reported by the SDK.
type State int

const (
	StateUnstarted State = -1
	StateEnded     State = 0
	StatePlaying   State = 1
	StatePaused    State = 2
	StateBuffering State = 3
	StateCued      State = 5
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateEnded:
		return "ended"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateCued:
		return "cued"
	default:
		return "unknown"
	}
}

// SDK error codes.
const (
	ErrorInvalidParam   = 2   // Request contained an invalid parameter
	ErrorHTML5          = 5   // Content cannot be played in the HTML5 player
	ErrorNotFound       = 100 // Video removed or private
	ErrorNotEmbeddable  = 101 // Owner does not allow embedded playback
	ErrorNotEmbeddable2 = 150 // Same as 101
)

// Unplayable reports whether an SDK error code means the track can never play.
func Unplayable(code int) bool {
	switch code {
	case ErrorNotFound, ErrorNotEmbeddable, ErrorNotEmbeddable2:
		return true
	default:
		return false
	}
}

// LoadRequest stages a track, optionally restricted to [StartSeconds, EndSeconds).
type LoadRequest struct {
	TrackID      string
	StartSeconds float64
	EndSeconds   float64 // 0 plays to the end of the track
	Quality      string  // Suggested playback quality
}

// InstanceOptions configures a new player instance.
type InstanceOptions struct {
	TrackID  string // Track loaded at construction
	Autoplay bool
	Controls bool
}

// Events are the SDK callbacks. They may be invoked from any goroutine.
type Events struct {
	OnReady       func()
	OnStateChange func(State)
	OnError       func(code int)
}

// Runtime is the externally loaded player library.
type Runtime interface {
	// Load fetches the player library. It may block until the library is available.
	Load(ctx context.Context) error
	// NewInstance constructs a player bound to hostID. OnReady fires once it can accept commands.
	NewInstance(hostID string, opts InstanceOptions, events Events) (Instance, error)
}

// Instance is a constructed player.
type Instance interface {
	CueVideoByID(req LoadRequest)
	LoadVideoByID(req LoadRequest)
	PlayVideo()
	PauseVideo()
	StopVideo()
	SeekTo(seconds float64)
	Mute()
	UnMute()
	GetCurrentTime() float64
	GetDuration() float64
	GetPlayerState() State
	Destroy()
}
