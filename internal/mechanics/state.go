package mechanics

import (
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// psychoPhase is the skim-after-slam state progression.
type psychoPhase int

const (
	psychoIdle psychoPhase = iota
	psychoWaitingForBounce
	psychoInverting
	psychoSkimReady
)

// boostDelta is one sampled boost-amount change, kept for the recent window
// the fast-aerial and speedflip detectors inspect.
type boostDelta struct {
	t     float64
	delta float64
}

// playerState is the single per-player state record every detector reads
// and mutates. Resets happen in exactly two places: resetOnGround and
// resetOnMatchEvent. Scattering resets across detectors is how state leaks
// happen, so don't.
type playerState struct {
	initialized bool

	isAirborne             bool
	hasFlipped             bool
	flipAvailableFromReset bool

	lastGroundTime float64
	airborneSince  float64

	firstJumpTime   float64
	secondJumpTime  float64
	lastJumpImpulse float64

	flipStartTime    float64
	flipPitchIntent  int // +1 front, -1 back, 0 none
	flipIsDiagonal   bool
	flipDirection    rc.Vec3
	flipStartForward rc.Vec3
	flipStartSpeed   float64
	flipStartPitch   float64
	flipStartRoll    float64
	halfFlipDone     bool
	speedflipDone    bool

	flipCancelStartTime float64
	flipCancelFrames    int
	flipCancelConfirmed float64 // time of confirmed cancel; 0 when none

	isDribbling      bool
	dribbleStartTime float64

	lastCeilingTouchTime          float64
	ceilingContactFrames          int
	hasCeilingFlip                bool
	leftCeilingYet                bool
	hadSurfaceContactSinceCeiling bool

	flipResetTouchTime float64

	airRollStart     float64
	airRollActive    bool
	stallStart       float64
	stallActive      bool
	powerSlideStart  float64
	powerSlideActive bool

	aerialStart     float64
	aerialHighSince float64
	aerialEmittedAt float64

	lastAerialTouchTime   float64
	lastAerialTouchHeight float64
	wallBounceSinceTouch  bool

	prevPos      rc.Vec3
	prevVel      rc.Vec3
	prevForward  rc.Vec3
	prevPitch    float64
	prevYaw      float64
	prevRoll     float64
	prevBoost    float64
	prevOnGround bool

	recentBoostDeltas []boostDelta

	psychoState    psychoPhase
	psychoSlamTime float64
}

// resetOnGround clears the airborne-scoped state when the car regains a
// surface. Ground-scoped trackers (dribble, powerslide) survive.
func (s *playerState) resetOnGround(t float64) {
	s.isAirborne = false
	s.hasFlipped = false
	s.flipAvailableFromReset = false
	s.lastGroundTime = t
	s.firstJumpTime = 0
	s.secondJumpTime = 0
	s.flipStartTime = 0
	s.flipPitchIntent = 0
	s.flipIsDiagonal = false
	s.flipCancelStartTime = 0
	s.flipCancelFrames = 0
	s.flipCancelConfirmed = 0
	s.halfFlipDone = false
	s.speedflipDone = false
	s.flipResetTouchTime = 0
	s.airRollActive = false
	s.stallActive = false
	s.aerialStart = 0
	s.aerialHighSince = 0
	if s.hadSurfaceContactSinceCeiling == false && s.lastCeilingTouchTime > 0 {
		s.hadSurfaceContactSinceCeiling = true
	}
}

// resetOnMatchEvent clears everything transient at kickoffs and demolitions.
func (s *playerState) resetOnMatchEvent(t float64) {
	s.resetOnGround(t)
	s.isDribbling = false
	s.dribbleStartTime = 0
	s.powerSlideActive = false
	s.lastCeilingTouchTime = 0
	s.ceilingContactFrames = 0
	s.hasCeilingFlip = false
	s.leftCeilingYet = false
	s.hadSurfaceContactSinceCeiling = false
	s.lastAerialTouchTime = 0
	s.wallBounceSinceTouch = false
	s.psychoState = psychoIdle
	s.psychoSlamTime = 0
	s.recentBoostDeltas = s.recentBoostDeltas[:0]
}

// pruneBoostDeltas drops samples older than the inspection window.
func (s *playerState) pruneBoostDeltas(now, window float64) {
	keep := s.recentBoostDeltas[:0]
	for _, d := range s.recentBoostDeltas {
		if now-d.t <= window {
			keep = append(keep, d)
		}
	}
	s.recentBoostDeltas = keep
}

// boostActiveAround reports whether boost was being consumed near t:
// a negative boost delta within tol. Pad-pickup upswings are positive and
// never count.
func (s *playerState) boostActiveAround(t, tol float64) bool {
	for _, d := range s.recentBoostDeltas {
		if d.delta < 0 && d.t >= t-tol && d.t <= t+tol {
			return true
		}
	}
	return false
}
