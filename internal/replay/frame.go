package replay

import (
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// BallState is the ball's kinematic state on one frame.
type BallState struct {
	Position        rc.Vec3
	Velocity        rc.Vec3
	AngularVelocity rc.Vec3
}

// PlayerState is one player's actor-resolved kinematic state on one frame.
// IsJumping/IsDodging/IsDoubleJumping are pointers: nil means the parser
// could not extract authoritative component state for this sample, and
// downstream detectors must fall back to kinematic inference.
type PlayerState struct {
	PlayerID     string
	Team         rc.Team
	Position     rc.Vec3
	Velocity     rc.Vec3
	Rotation     rc.Quat
	BoostAmount  float64 // normalized to [0,100]
	IsSupersonic bool
	IsOnGround   bool
	IsDemolished bool

	IsJumping       *bool
	IsDodging       *bool
	IsDoubleJumping *bool
}

// RawFrame is one sampled snapshot from the network stream, prior to
// normalization. Players may be empty in degraded parses.
type RawFrame struct {
	Timestamp float64
	Ball      BallState
	Players   []PlayerState
}

// NormalizedFrame is a RawFrame with coordinates clamped to the arena,
// player IDs canonicalized, and the timestamp zero-based against the first
// kickoff.
type NormalizedFrame struct {
	Timestamp float64
	Ball      BallState
	Players   []PlayerState
}

// PlayerIdentity is the stable identity key carried through the whole
// pipeline.
type PlayerIdentity struct {
	CanonicalID string
	DisplayName string
	Team        rc.Team
	Aliases     []string // raw actor IDs, header indices, slugs
	PlatformIDs map[string]string
}

// NormalizedTimeline is the immutable, canonical per-replay timeline built
// once by the Normalizer and read-only thereafter.
type NormalizedTimeline struct {
	Frames    []NormalizedFrame
	FrameHz   float64
	DurationS float64
	PlayerIDs []PlayerIdentity
}

// PlayerByID returns the identity for id, or false if unknown.
func (t *NormalizedTimeline) PlayerByID(id string) (PlayerIdentity, bool) {
	for _, p := range t.PlayerIDs {
		if p.CanonicalID == id {
			return p, true
		}
	}
	return PlayerIdentity{}, false
}

// PlayerState looks up a single player's state within frame f, returning
// false if that player has no sample on this frame.
func (f *NormalizedFrame) PlayerState(playerID string) (PlayerState, bool) {
	for _, p := range f.Players {
		if p.PlayerID == playerID {
			return p, true
		}
	}
	return PlayerState{}, false
}
