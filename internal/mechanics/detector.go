/*
Package mechanics classifies per-player mechanical actions (jumps, flips,
wavedashes, aerials, dribbles, flicks, resets, ...) from kinematic state
sampled at the replay's measured rate.

Jump impulses are measured in car-local coordinates: the car-up and
car-forward axes come from the rotation quaternion, and dot(Δv, carUp) is
the jump test, so jumps off walls and tilted aerials classify correctly.
Height tests (the grounded fallback, aerial, ceiling and dribble checks)
use world Z. Authoritative component flags are preferred when
the parser exposed them; kinematic inference is the fallback.
*/
package mechanics

import (
	"math"
	"sort"

	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// Thresholds tuned for ~30 Hz sampling. Windows are in seconds and are
// compared against frame timestamps; at 30 Hz a frame is ~0.033 s, and some
// windows (flipCancelWindowS, wavedashMaxDelayS) are not a whole number of
// frames wide.
const (
	jumpImpulseUUPS   = 250.0
	jumpCooldownS     = 0.1
	doubleJumpWindowS = 1.25

	flipOmegaStep     = 2.0
	flipCancelWindowS = 0.25
	flipCancelFrames  = 3

	halfFlipWindowS    = 0.6
	halfFlipHeadingDot = -0.8

	speedflipCancelS   = 0.10
	speedflipAccelUUPS = 500.0
	speedflipScoreEmit = 3

	wavedashMinDelayS = 0.05
	wavedashMaxDelayS = 0.125
	wavedashTiltRad   = 0.2
	wavedashGainUUPS  = 100.0

	aerialHeightUU = 300.0
	aerialSustainS = 0.5
	aerialDedupeS  = 1.0

	fastAerialSecondJumpS = 0.5
	fastAerialHeightByS   = 1.0

	flipResetUpDot     = -0.7
	flipResetDistUU    = 120.0
	flipResetUseWindow = 2.0

	airRollRate     = 2.0
	airRollSustainS = 0.3
	airRollPostFlip = 0.2

	dribbleOvalX    = 80.0
	dribbleOvalY    = 120.0
	dribbleZLow     = 90.0
	dribbleZHigh    = 180.0
	dribbleGroundZ  = 50.0
	dribbleRelVel   = 300.0
	dribbleSustainS = 0.5

	flickGainUUPS = 500.0
	flickWindowS  = 0.3

	ceilingZ           = 2040.0
	ceilingInvertedDot = 0.7
	ceilingFrames      = 2

	powerSlideSideUUPS = 500.0
	powerSlideSustainS = 0.2

	pinchBallZ     = 100.0
	pinchSpeedUUPS = 3000.0
	pinchDeltaUUPS = 1500.0

	doubleTouchWindowS = 3.0
	wallProximityUU    = 200.0

	redirectAngleDeg = 45.0
	redirectSpeed    = 500.0

	stallRollRate = 3.0
	stallYawRate  = 2.0
	stallVZ       = 100.0
	stallVXY      = 500.0
	stallSustainS = 0.15

	skimUpDot = -0.7

	psychoSkimWindowS = 3.0

	contactProximityUU = 200.0
	contactDeltaVUUPS  = 150.0

	groundHeightUU = 50.0
)

// Detect walks the timeline once and returns the mechanic event stream,
// ordered by timestamp. Duration-bearing events are emitted when their
// window closes but stamped with its start, so the stream is sorted before
// it is returned; events with equal timestamps keep their emission order.
func Detect(tl *replay.NormalizedTimeline) []replay.MechanicEvent {
	d := &detector{
		states: map[string]*playerState{},
	}
	var prevBallVel rc.Vec3
	for i := range tl.Frames {
		f := &tl.Frames[i]
		var dt float64
		if i > 0 {
			dt = f.Timestamp - tl.Frames[i-1].Timestamp
		}
		if dt <= 0 {
			dt = 1.0 / math.Max(tl.FrameHz, 1)
		}
		d.step(f, dt, prevBallVel, atKickoff(f))
		prevBallVel = f.Ball.Velocity
	}
	sort.SliceStable(d.events, func(i, j int) bool {
		return d.events[i].Timestamp < d.events[j].Timestamp
	})
	return d.events
}

// atKickoff mirrors the normalizer's kickoff test: ball resting at center.
func atKickoff(f *replay.NormalizedFrame) bool {
	return math.Hypot(f.Ball.Position.X, f.Ball.Position.Y) <= 10 &&
		f.Ball.Velocity.Length() <= 1
}

type detector struct {
	states map[string]*playerState
	events []replay.MechanicEvent
}

func (d *detector) emit(ev replay.MechanicEvent) {
	d.events = append(d.events, ev)
}

func (d *detector) state(id string) *playerState {
	s, ok := d.states[id]
	if !ok {
		s = &playerState{}
		d.states[id] = s
	}
	return s
}

// frameCtx is the derived kinematics for one player on one frame.
type frameCtx struct {
	t  float64
	dt float64

	p replay.PlayerState

	up      rc.Vec3
	forward rc.Vec3

	pitch, yaw, roll             float64
	pitchRate, yawRate, rollRate float64

	dv       rc.Vec3
	grounded bool

	ball        replay.BallState
	ballDV      rc.Vec3
	ballContact bool
}

func (d *detector) step(f *replay.NormalizedFrame, dt float64, prevBallVel rc.Vec3, kickoff bool) {
	ballDV := f.Ball.Velocity.Sub(prevBallVel)

	// Attribute any ball contact on this frame to the nearest player inside
	// the contact radius, provided the ball's velocity actually deviated.
	contactPlayer := ""
	if ballDV.Length() > contactDeltaVUUPS {
		best := contactProximityUU
		for _, p := range f.Players {
			dist := p.Position.Distance(f.Ball.Position)
			if dist < best {
				best = dist
				contactPlayer = p.PlayerID
			}
		}
	}

	for _, p := range f.Players {
		s := d.state(p.PlayerID)

		c := frameCtx{
			t:           f.Timestamp,
			dt:          dt,
			p:           p,
			up:          p.Rotation.Up(),
			forward:     p.Rotation.Forward(),
			ball:        f.Ball,
			ballDV:      ballDV,
			ballContact: p.PlayerID == contactPlayer,
		}
		c.pitch, c.yaw, c.roll = p.Rotation.PitchYawRoll()
		c.grounded = p.IsOnGround || (p.Position.Z < groundHeightUU && math.Abs(p.Velocity.Z) < 10)

		if !s.initialized {
			s.initialized = true
			s.prevPos = p.Position
			s.prevVel = p.Velocity
			s.prevForward = c.forward
			s.prevPitch, s.prevYaw, s.prevRoll = c.pitch, c.yaw, c.roll
			s.prevBoost = p.BoostAmount
			s.prevOnGround = c.grounded
			s.lastGroundTime = c.t
			continue
		}

		c.pitchRate = angleWrap(c.pitch-s.prevPitch) / dt
		c.yawRate = angleWrap(c.yaw-s.prevYaw) / dt
		c.rollRate = angleWrap(c.roll-s.prevRoll) / dt
		c.dv = p.Velocity.Sub(s.prevVel)

		if db := p.BoostAmount - s.prevBoost; db != 0 {
			s.recentBoostDeltas = append(s.recentBoostDeltas, boostDelta{t: c.t, delta: db})
		}
		s.pruneBoostDeltas(c.t, 2.0)

		switch {
		case p.IsDemolished:
			s.resetOnMatchEvent(c.t)
		case kickoff:
			s.resetOnMatchEvent(c.t)
		default:
			d.update(s, &c)
		}

		s.prevPos = p.Position
		s.prevVel = p.Velocity
		s.prevForward = c.forward
		s.prevPitch, s.prevYaw, s.prevRoll = c.pitch, c.yaw, c.roll
		s.prevBoost = p.BoostAmount
		s.prevOnGround = c.grounded
	}
}

// update runs every detector against one player-frame. Order matters only
// where a detector consumes what another produced on the same frame (flip
// consumes the jump, wavedash consumes the flip at landing).
func (d *detector) update(s *playerState, c *frameCtx) {
	d.detectSurfaceTransition(s, c)
	d.detectJump(s, c)
	d.detectFlip(s, c)
	d.detectFlipCancel(s, c)
	d.checkPendingHalfFlip(s, c)
	d.checkPendingSpeedflip(s, c)
	d.detectAerial(s, c)
	d.detectFastAerial(s, c)
	d.detectFlipReset(s, c)
	d.detectAirRoll(s, c)
	d.detectStall(s, c)
	d.detectCeiling(s, c)
	d.detectDribble(s, c)
	d.detectPowerSlide(s, c)
	d.detectBallContactMechanics(s, c)
	d.detectPsycho(s, c)
}

func (d *detector) detectSurfaceTransition(s *playerState, c *frameCtx) {
	if c.grounded && s.isAirborne {
		d.detectWavedash(s, c)
		s.resetOnGround(c.t)
		return
	}
	if !c.grounded && !s.isAirborne {
		s.isAirborne = true
		s.airborneSince = c.t
	}
	if c.grounded {
		s.lastGroundTime = c.t
	}
}

func (d *detector) detectJump(s *playerState, c *frameCtx) {
	impulse := c.dv.Dot(c.up)

	jumped := false
	if c.p.IsJumping != nil {
		jumped = *c.p.IsJumping && impulse > jumpImpulseUUPS/2
	} else {
		jumped = impulse > jumpImpulseUUPS
	}
	if !jumped || c.t-s.lastJumpImpulse < jumpCooldownS {
		return
	}
	s.lastJumpImpulse = c.t

	if s.firstJumpTime == 0 || c.grounded {
		s.firstJumpTime = c.t
		d.emit(replay.MechanicEvent{
			Timestamp: c.t, PlayerID: c.p.PlayerID, Kind: rc.MechJump,
			Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
		})
		return
	}

	// A second impulse without an accompanying rotation step is a double
	// jump; the flip detector claims the rotating case.
	if s.secondJumpTime == 0 && c.t-s.firstJumpTime <= doubleJumpWindowS &&
		math.Abs(c.pitchRate) < flipOmegaStep && math.Abs(c.rollRate) < flipOmegaStep {
		s.secondJumpTime = c.t
		d.emit(replay.MechanicEvent{
			Timestamp: c.t, PlayerID: c.p.PlayerID, Kind: rc.MechDoubleJump,
			Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
		})
	}
}

func (d *detector) detectFlip(s *playerState, c *frameCtx) {
	if !s.isAirborne {
		return
	}
	if s.hasFlipped && !s.flipAvailableFromReset {
		return
	}
	if s.firstJumpTime == 0 && !s.flipAvailableFromReset {
		return
	}

	omegaStep := math.Max(math.Abs(c.pitchRate), math.Abs(c.rollRate))
	dodging := c.p.IsDodging != nil && *c.p.IsDodging
	if omegaStep <= flipOmegaStep && !dodging {
		return
	}
	if s.flipStartTime != 0 && c.t-s.flipStartTime < flipCancelWindowS {
		return
	}

	pitchHeavy := math.Abs(c.pitchRate) > 1.5*math.Abs(c.rollRate)
	rollHeavy := math.Abs(c.rollRate) > 1.5*math.Abs(c.pitchRate)

	wasFromReset := s.flipAvailableFromReset
	s.hasFlipped = true
	s.flipAvailableFromReset = false
	s.secondJumpTime = c.t // the flip consumes the double jump
	s.flipStartTime = c.t
	s.flipIsDiagonal = !pitchHeavy && !rollHeavy
	s.flipStartForward = c.forward
	s.flipStartSpeed = c.p.Velocity.Dot(c.forward)
	s.flipStartPitch = c.pitch
	s.flipStartRoll = c.roll
	s.flipCancelStartTime = 0
	s.flipCancelFrames = 0
	s.flipCancelConfirmed = 0
	s.halfFlipDone = false
	s.speedflipDone = false
	if pitchHeavy || s.flipIsDiagonal {
		if c.pitchRate > 0 {
			s.flipPitchIntent = 1
		} else {
			s.flipPitchIntent = -1
		}
	} else {
		s.flipPitchIntent = 0
	}

	dir := c.p.Velocity.Normalized()
	s.flipDirection = dir
	d.emit(replay.MechanicEvent{
		Timestamp: c.t, PlayerID: c.p.PlayerID, Kind: rc.MechFlip,
		Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
		Direction: &dir,
	})

	if wasFromReset && c.t-s.flipResetTouchTime <= flipResetUseWindow {
		d.emit(replay.MechanicEvent{
			Timestamp: c.t, PlayerID: c.p.PlayerID, Kind: rc.MechFlipResetUse,
			Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
		})
	}
}

func (d *detector) detectFlipCancel(s *playerState, c *frameCtx) {
	if s.flipStartTime == 0 || s.flipPitchIntent == 0 || s.flipCancelConfirmed != 0 {
		return
	}
	since := c.t - s.flipStartTime
	if since > flipCancelWindowS+float64(flipCancelFrames)*c.dt {
		s.flipCancelStartTime = 0
		s.flipCancelFrames = 0
		return
	}

	reversed := (s.flipPitchIntent > 0 && c.pitchRate < -0.5) ||
		(s.flipPitchIntent < 0 && c.pitchRate > 0.5)
	if !reversed {
		s.flipCancelStartTime = 0
		s.flipCancelFrames = 0
		return
	}
	if s.flipCancelStartTime == 0 {
		if since > flipCancelWindowS {
			return
		}
		s.flipCancelStartTime = c.t
	}
	s.flipCancelFrames++
	if s.flipCancelFrames < flipCancelFrames {
		return
	}

	s.flipCancelConfirmed = s.flipCancelStartTime
	d.emit(replay.MechanicEvent{
		Timestamp: s.flipCancelStartTime, PlayerID: c.p.PlayerID, Kind: rc.MechFlipCancel,
		Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
	})
}

// checkPendingHalfFlip watches for the net heading reversal that completes
// a half flip: backward flip, confirmed cancel, forward axis flipped within
// the window.
func (d *detector) checkPendingHalfFlip(s *playerState, c *frameCtx) {
	if s.halfFlipDone || s.flipCancelConfirmed == 0 || s.flipPitchIntent >= 0 {
		return
	}
	if c.t-s.flipStartTime > halfFlipWindowS {
		return
	}
	if c.forward.Dot(s.flipStartForward) < halfFlipHeadingDot {
		s.halfFlipDone = true
		d.emit(replay.MechanicEvent{
			Timestamp: c.t, PlayerID: c.p.PlayerID, Kind: rc.MechHalfFlip,
			Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
		})
	}
}

// checkPendingSpeedflip scores the cancel tightness in frame buckets plus
// boost-active and forward-acceleration components once the post-cancel
// acceleration has had a few frames to develop; a composite of 3 emits.
func (d *detector) checkPendingSpeedflip(s *playerState, c *frameCtx) {
	if s.speedflipDone || !s.flipIsDiagonal || s.flipCancelConfirmed == 0 {
		return
	}
	cancelDelay := s.flipCancelConfirmed - s.flipStartTime
	if cancelDelay > speedflipCancelS {
		s.speedflipDone = true
		return
	}
	if c.t-s.flipCancelConfirmed < 3*c.dt {
		return
	}
	s.speedflipDone = true

	score := 0
	frameW := c.dt
	switch {
	case cancelDelay <= frameW:
		score += 3 // great
	case cancelDelay <= 2*frameW:
		score += 2 // ok
	case cancelDelay <= 3*frameW:
		score += 1 // acceptable
	}
	if s.boostActiveAround(s.flipStartTime, 0.2) {
		score++
	}
	accel := c.p.Velocity.Dot(c.forward) - s.flipStartSpeed
	if accel >= speedflipAccelUUPS {
		score += 2
	} else if accel > 0 {
		score++
	}

	if score >= speedflipScoreEmit {
		boosted := s.boostActiveAround(s.flipStartTime, 0.2)
		d.emit(replay.MechanicEvent{
			Timestamp: s.flipStartTime, PlayerID: c.p.PlayerID, Kind: rc.MechSpeedflip,
			Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
			BoostUsed: &boosted,
		})
	}
}

func (d *detector) detectWavedash(s *playerState, c *frameCtx) {
	if s.flipStartTime == 0 {
		return
	}
	delay := c.t - s.flipStartTime
	if delay < wavedashMinDelayS || delay > wavedashMaxDelayS {
		return
	}
	if math.Abs(s.flipStartPitch) <= wavedashTiltRad && math.Abs(s.flipStartRoll) <= wavedashTiltRad {
		return
	}
	gain := c.p.Velocity.Dot(c.forward) - s.flipStartSpeed
	if gain >= wavedashGainUUPS {
		d.emit(replay.MechanicEvent{
			Timestamp: c.t, PlayerID: c.p.PlayerID, Kind: rc.MechWavedash,
			Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
		})
	}
}

func (d *detector) detectAerial(s *playerState, c *frameCtx) {
	if !s.isAirborne || c.p.Position.Z <= aerialHeightUU {
		s.aerialHighSince = 0
		return
	}
	if s.aerialHighSince == 0 {
		s.aerialHighSince = c.t
		return
	}
	if c.t-s.aerialHighSince < aerialSustainS {
		return
	}
	if s.aerialEmittedAt != 0 && c.t-s.aerialEmittedAt < aerialDedupeS {
		return
	}
	s.aerialEmittedAt = c.t
	dur := c.t - s.airborneSince
	d.emit(replay.MechanicEvent{
		Timestamp: c.t, PlayerID: c.p.PlayerID, Kind: rc.MechAerial,
		Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
		Duration: &dur,
	})
}

func (d *detector) detectFastAerial(s *playerState, c *frameCtx) {
	if s.firstJumpTime == 0 || s.secondJumpTime == 0 {
		return
	}
	if s.secondJumpTime-s.firstJumpTime > fastAerialSecondJumpS {
		return
	}
	if c.p.Position.Z <= aerialHeightUU || c.t-s.firstJumpTime > fastAerialHeightByS {
		return
	}
	tol := c.dt + 1e-9
	if !s.boostActiveAround(s.firstJumpTime, tol) || !s.boostActiveAround(s.secondJumpTime, tol) {
		return
	}
	// Consume the jump pair so one climb emits once.
	s.firstJumpTime = 0
	boosted := true
	d.emit(replay.MechanicEvent{
		Timestamp: c.t, PlayerID: c.p.PlayerID, Kind: rc.MechFastAerial,
		Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
		BoostUsed: &boosted,
	})
}

func (d *detector) detectFlipReset(s *playerState, c *frameCtx) {
	if !s.isAirborne || !s.hasFlipped {
		return
	}
	toBall := c.ball.Position.Sub(c.p.Position)
	if toBall.Length() >= flipResetDistUU {
		return
	}
	if c.up.Dot(toBall.Normalized()) >= flipResetUpDot {
		return
	}
	if s.flipResetTouchTime != 0 && c.t-s.flipResetTouchTime < 0.2 {
		return
	}
	s.flipResetTouchTime = c.t
	s.flipAvailableFromReset = true
	s.hasFlipped = false
	ballPos := c.ball.Position
	d.emit(replay.MechanicEvent{
		Timestamp: c.t, PlayerID: c.p.PlayerID, Kind: rc.MechFlipResetTouch,
		Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
		BallPosition: &ballPos,
	})
}

func (d *detector) detectAirRoll(s *playerState, c *frameCtx) {
	rolling := s.isAirborne &&
		math.Abs(c.rollRate) > airRollRate &&
		(s.flipStartTime == 0 || c.t-s.flipStartTime > airRollPostFlip)

	if rolling && !s.airRollActive {
		s.airRollActive = true
		s.airRollStart = c.t
		return
	}
	if !rolling && s.airRollActive {
		dur := c.t - s.airRollStart
		s.airRollActive = false
		if dur > airRollSustainS {
			d.emit(replay.MechanicEvent{
				Timestamp: s.airRollStart, PlayerID: c.p.PlayerID, Kind: rc.MechAirRoll,
				Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
				Duration: &dur,
			})
		}
	}
}

func (d *detector) detectStall(s *playerState, c *frameCtx) {
	vxy := math.Hypot(c.p.Velocity.X, c.p.Velocity.Y)
	stalling := s.isAirborne && c.p.Position.Z > aerialHeightUU &&
		math.Abs(c.rollRate) > stallRollRate &&
		math.Abs(c.yawRate) > stallYawRate &&
		c.rollRate*c.yawRate < 0 &&
		math.Abs(c.p.Velocity.Z) < stallVZ &&
		vxy < stallVXY

	if stalling && !s.stallActive {
		s.stallActive = true
		s.stallStart = c.t
		return
	}
	if !stalling && s.stallActive {
		dur := c.t - s.stallStart
		s.stallActive = false
		if dur > stallSustainS {
			d.emit(replay.MechanicEvent{
				Timestamp: s.stallStart, PlayerID: c.p.PlayerID, Kind: rc.MechStall,
				Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
				Duration: &dur,
			})
		}
	}
}

func (d *detector) detectCeiling(s *playerState, c *frameCtx) {
	nearCeiling := c.p.Position.Z > ceilingZ
	inverted := c.up.Dot(rc.Vec3{Z: -1}) > ceilingInvertedDot

	if nearCeiling && inverted {
		s.ceilingContactFrames++
		if s.ceilingContactFrames >= ceilingFrames {
			s.lastCeilingTouchTime = c.t
			s.leftCeilingYet = false
			s.hadSurfaceContactSinceCeiling = false
			s.hasCeilingFlip = false
		}
		return
	}
	if s.lastCeilingTouchTime != 0 && !s.leftCeilingYet {
		s.leftCeilingYet = true
	}
	s.ceilingContactFrames = 0

	if s.lastCeilingTouchTime == 0 || s.hadSurfaceContactSinceCeiling || s.hasCeilingFlip {
		return
	}
	// A flip after dropping off the ceiling, before regaining a surface,
	// combined with a ball touch, is the ceiling shot.
	if s.flipStartTime > s.lastCeilingTouchTime && c.ballContact {
		s.hasCeilingFlip = true
		ballPos := c.ball.Position
		d.emit(replay.MechanicEvent{
			Timestamp: c.t, PlayerID: c.p.PlayerID, Kind: rc.MechCeilingShot,
			Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
			BallPosition: &ballPos,
		})
	}
}

func (d *detector) detectDribble(s *playerState, c *frameCtx) {
	rel := c.ball.Position.Sub(c.p.Position)
	localX := rel.Dot(c.p.Rotation.Right())
	localY := rel.Dot(c.forward)
	localZ := rel.Dot(c.up)

	inOval := (localX/dribbleOvalX)*(localX/dribbleOvalX)+(localY/dribbleOvalY)*(localY/dribbleOvalY) <= 1
	carried := inOval &&
		localZ > dribbleZLow && localZ < dribbleZHigh &&
		c.p.Position.Z < dribbleGroundZ &&
		c.ball.Velocity.Sub(c.p.Velocity).Length() < dribbleRelVel

	if carried && !s.isDribbling {
		s.isDribbling = true
		s.dribbleStartTime = c.t
		return
	}
	if !carried && s.isDribbling {
		dur := c.t - s.dribbleStartTime
		wasDribble := dur > dribbleSustainS
		if wasDribble {
			d.emit(replay.MechanicEvent{
				Timestamp: s.dribbleStartTime, PlayerID: c.p.PlayerID, Kind: rc.MechDribble,
				Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
				Duration: &dur,
			})
		}
		// Flick: the dribble ends with a flip and the ball gains speed.
		if wasDribble && s.flipStartTime != 0 && c.t-s.flipStartTime <= flickWindowS {
			gain := c.ballDV.Length()
			if gain > flickGainUUPS {
				d.emit(replay.MechanicEvent{
					Timestamp: c.t, PlayerID: c.p.PlayerID, Kind: rc.MechFlick,
					Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
					BallVelocityChange: &gain,
				})
			}
		}
		s.isDribbling = false
	}
}

func (d *detector) detectPowerSlide(s *playerState, c *frameCtx) {
	side := math.Abs(c.p.Velocity.Dot(c.p.Rotation.Right()))
	sliding := c.grounded && side > powerSlideSideUUPS

	if sliding && !s.powerSlideActive {
		s.powerSlideActive = true
		s.powerSlideStart = c.t
		return
	}
	if !sliding && s.powerSlideActive {
		dur := c.t - s.powerSlideStart
		s.powerSlideActive = false
		if dur > powerSlideSustainS {
			d.emit(replay.MechanicEvent{
				Timestamp: s.powerSlideStart, PlayerID: c.p.PlayerID, Kind: rc.MechPowerSlide,
				Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
				Duration: &dur,
			})
		}
	}
}

// detectBallContactMechanics covers the touch-triggered kinds: musty flick,
// ground pinch, double touch, redirect, and skim.
func (d *detector) detectBallContactMechanics(s *playerState, c *frameCtx) {
	// Wall-bounce tracking for double touches runs every frame.
	if s.lastAerialTouchTime != 0 && !s.wallBounceSinceTouch {
		nearWall := math.Abs(c.ball.Position.X) > rc.SideWallX-wallProximityUU ||
			math.Abs(c.ball.Position.Y) > rc.BackWallY-wallProximityUU
		if nearWall && (c.ballDV.X*c.ball.Velocity.X < 0 || c.ballDV.Y*c.ball.Velocity.Y < 0 || signFlip(c.ballDV, c.ball.Velocity)) {
			s.wallBounceSinceTouch = true
		}
	}

	if !c.ballContact {
		return
	}

	gain := c.ballDV.Length()
	ballSpeed := c.ball.Velocity.Length()
	ballPos := c.ball.Position

	// Musty flick: a backward flip into the ball with any speed gain.
	if s.flipStartTime != 0 && s.flipPitchIntent < 0 && c.t-s.flipStartTime <= flickWindowS && gain > 0 {
		d.emit(replay.MechanicEvent{
			Timestamp: c.t, PlayerID: c.p.PlayerID, Kind: rc.MechMustyFlick,
			Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
			BallPosition: &ballPos, BallVelocityChange: &gain,
		})
	}

	// Ground pinch: low contact squeezed to extreme exit speed.
	if c.ball.Position.Z < pinchBallZ && ballSpeed > pinchSpeedUUPS && gain > pinchDeltaUUPS {
		d.emit(replay.MechanicEvent{
			Timestamp: c.t, PlayerID: c.p.PlayerID, Kind: rc.MechGroundPinch,
			Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
			BallPosition: &ballPos, BallVelocityChange: &gain,
		})
	}

	aerialTouch := s.isAirborne && c.p.Position.Z > aerialHeightUU
	if aerialTouch {
		goalDir := opponentGoalDir(c.p.Team)

		// Double touch: second aerial touch after a wall bounce.
		if s.lastAerialTouchTime != 0 && c.t-s.lastAerialTouchTime <= doubleTouchWindowS && s.wallBounceSinceTouch {
			d.emit(replay.MechanicEvent{
				Timestamp: c.t, PlayerID: c.p.PlayerID, Kind: rc.MechDoubleTouch,
				Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
				BallPosition: &ballPos,
			})
		}

		// Redirect: the touch swings the ball > 45 degrees toward the goal.
		prevDir := c.ball.Velocity.Sub(c.ballDV).Normalized()
		newDir := c.ball.Velocity.Normalized()
		if ballSpeed > redirectSpeed && newDir.Dot(goalDir) > 0 &&
			angleBetweenDeg(prevDir, newDir) > redirectAngleDeg {
			d.emit(replay.MechanicEvent{
				Timestamp: c.t, PlayerID: c.p.PlayerID, Kind: rc.MechRedirect,
				Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
				BallPosition: &ballPos,
			})
		}

		// Skim: an underside contact that speeds the ball toward the goal.
		toBall := c.ball.Position.Sub(c.p.Position).Normalized()
		speedGain := ballSpeed - c.ball.Velocity.Sub(c.ballDV).Length()
		if c.up.Dot(toBall) < skimUpDot && speedGain > 0 && newDir.Dot(goalDir) > 0 {
			d.emit(replay.MechanicEvent{
				Timestamp: c.t, PlayerID: c.p.PlayerID, Kind: rc.MechSkim,
				Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
				BallPosition: &ballPos, BallVelocityChange: &speedGain,
			})
			if s.psychoState == psychoSkimReady && c.t-s.psychoSlamTime <= psychoSkimWindowS {
				d.emit(replay.MechanicEvent{
					Timestamp: c.t, PlayerID: c.p.PlayerID, Kind: rc.MechPsycho,
					Position: c.p.Position, Velocity: c.p.Velocity, Height: c.p.Position.Z,
					BallPosition: &ballPos,
				})
				s.psychoState = psychoIdle
			}
		}

		s.lastAerialTouchTime = c.t
		s.lastAerialTouchHeight = c.p.Position.Z
		s.wallBounceSinceTouch = false
	}
}

// detectPsycho advances the slam-invert-skim progression.
func (d *detector) detectPsycho(s *playerState, c *frameCtx) {
	ownGoalDir := opponentGoalDir(c.p.Team).Scale(-1)

	switch s.psychoState {
	case psychoIdle:
		// A touch that speeds the ball toward the player's own goal arms
		// the state machine.
		if c.ballContact && c.ball.Velocity.Normalized().Dot(ownGoalDir) > 0.5 && c.ballDV.Length() > contactDeltaVUUPS {
			s.psychoState = psychoWaitingForBounce
			s.psychoSlamTime = c.t
		}
	case psychoWaitingForBounce:
		if c.t-s.psychoSlamTime > psychoSkimWindowS {
			s.psychoState = psychoIdle
			return
		}
		nearWall := math.Abs(c.ball.Position.X) > rc.SideWallX-wallProximityUU ||
			math.Abs(c.ball.Position.Y) > rc.BackWallY-wallProximityUU
		if nearWall && signFlip(c.ballDV, c.ball.Velocity) {
			s.psychoState = psychoInverting
		}
	case psychoInverting:
		if c.t-s.psychoSlamTime > psychoSkimWindowS {
			s.psychoState = psychoIdle
			return
		}
		if c.up.Dot(rc.Vec3{Z: 1}) < -0.5 {
			s.psychoState = psychoSkimReady
		}
	case psychoSkimReady:
		if c.t-s.psychoSlamTime > psychoSkimWindowS {
			s.psychoState = psychoIdle
		}
	}
}

// opponentGoalDir is the unit vector toward the goal a team attacks.
func opponentGoalDir(team rc.Team) rc.Vec3 {
	if team == rc.TeamBlue {
		return rc.Vec3{Y: 1}
	}
	return rc.Vec3{Y: -1}
}

// signFlip reports whether the velocity change reversed a horizontal
// component, the shape of a wall bounce.
func signFlip(dv, v rc.Vec3) bool {
	prev := v.Sub(dv)
	return prev.X*v.X < 0 || prev.Y*v.Y < 0
}

func angleBetweenDeg(a, b rc.Vec3) float64 {
	dot := a.Dot(b)
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	return math.Acos(dot) * 180 / math.Pi
}

// angleWrap maps an angle difference into (-pi, pi].
func angleWrap(d float64) float64 {
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}
