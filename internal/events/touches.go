package events

import (
	"math"

	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

const (
	// ballContactProximityUU is the car-to-ball distance inside which a
	// trajectory deviation attributes a touch.
	ballContactProximityUU = 200.0

	// touchDeviationUUPS is the minimum deviation of the ball's velocity
	// from its extrapolated pre-touch trajectory.
	touchDeviationUUPS = 150.0

	// touchDebounceS is the per-player touch debounce.
	touchDebounceS = 0.1

	gravityUUPS2 = 650.0

	aerialTouchZ  = 300.0
	ceilingTouchZ = 1900.0
	wallMarginUU  = 200.0

	shotSpeedFloorUUPS  = 1400.0
	clearSpeedFloorUUPS = 1200.0
	passSpeedFloorUUPS  = 500.0
	goalMouthHalfWidth  = 1000.0

	fiftyWindowS   = 0.15
	passWindowS    = 2.0
	dribbleWindowS = 1.0
)

// detectTouches finds ball contacts by proximity plus trajectory deviation,
// then classifies each touch's context and outcome.
func detectTouches(tl *replay.NormalizedTimeline) []replay.TouchEvent {
	var touches []replay.TouchEvent
	lastTouchAt := map[string]float64{}

	for i := 1; i < len(tl.Frames); i++ {
		prev := &tl.Frames[i-1]
		f := &tl.Frames[i]
		dt := f.Timestamp - prev.Timestamp
		if dt <= 0 {
			continue
		}

		// Extrapolate the pre-touch trajectory: prior velocity under
		// gravity. A real touch deviates from it.
		expected := prev.Ball.Velocity
		expected.Z -= gravityUUPS2 * dt
		deviation := f.Ball.Velocity.Sub(expected).Length()
		if deviation < touchDeviationUUPS {
			continue
		}

		playerID, dist := nearestPlayer(f, f.Ball.Position)
		if playerID == "" || dist >= ballContactProximityUU {
			continue
		}
		if last, ok := lastTouchAt[playerID]; ok && f.Timestamp-last < touchDebounceS {
			continue
		}
		lastTouchAt[playerID] = f.Timestamp

		ps, _ := f.PlayerState(playerID)
		speed := f.Ball.Velocity.Length()
		touches = append(touches, replay.TouchEvent{
			T:             f.Timestamp,
			Frame:         i,
			PlayerID:      playerID,
			Team:          ps.Team,
			Context:       touchContext(ps, prev.Ball),
			Position:      f.Ball.Position,
			BallSpeedUUPS: speed,
			BallSpeedKPH:  round2(rc.KPH(speed)),
		})
	}

	classifyOutcomes(tl, touches)
	return touches
}

func nearestPlayer(f *replay.NormalizedFrame, to rc.Vec3) (string, float64) {
	best := math.MaxFloat64
	id := ""
	for _, p := range f.Players {
		if d := p.Position.Distance(to); d < best {
			best, id = d, p.PlayerID
		}
	}
	return id, best
}

// touchContext classifies the touch by car height and wall proximity.
func touchContext(p replay.PlayerState, prevBall replay.BallState) rc.TouchContext {
	nearWall := math.Abs(p.Position.X) > rc.SideWallX-wallMarginUU ||
		math.Abs(p.Position.Y) > rc.BackWallY-wallMarginUU
	switch {
	case p.Position.Z > ceilingTouchZ:
		return rc.TouchCeiling
	case nearWall && p.Position.Z > 100:
		return rc.TouchWall
	case p.Position.Z > aerialTouchZ:
		return rc.TouchAerial
	case prevBall.Velocity.Z > 0 && prevBall.Position.Z < 200 && p.IsOnGround:
		return rc.TouchHalfVolley
	case p.IsOnGround || p.Position.Z < 100:
		return rc.TouchGround
	default:
		return rc.TouchUnknown
	}
}

// classifyOutcomes assigns each touch's outcome from the subsequent ball
// trajectory and who touches next.
func classifyOutcomes(tl *replay.NormalizedTimeline, touches []replay.TouchEvent) {
	for i := range touches {
		t := &touches[i]
		f := &tl.Frames[t.Frame]

		var next *replay.TouchEvent
		if i+1 < len(touches) {
			next = &touches[i+1]
		}

		// Contested: an opposing touch inside the 50-50 window.
		if next != nil && next.Team != t.Team && next.T-t.T <= fiftyWindowS {
			t.Outcome = rc.Outcome50
			touches[i+1].Outcome = rc.Outcome50
			continue
		}
		if t.Outcome == rc.Outcome50 {
			continue
		}

		goalY := goalLineY(t.Team)
		vel := f.Ball.Velocity

		if aimedAtGoalMouth(f.Ball.Position, vel, goalY) && t.BallSpeedUUPS >= shotSpeedFloorUUPS {
			t.Outcome = rc.OutcomeShot
			continue
		}

		inDefensiveThird := signedDepth(t.Position.Y, t.Team) < -rc.BackWallY/3
		towardOpponent := signedDepth(vel.Y, t.Team) > 0
		if inDefensiveThird && towardOpponent && t.BallSpeedUUPS >= clearSpeedFloorUUPS {
			t.Outcome = rc.OutcomeClear
			continue
		}

		if next != nil && next.PlayerID == t.PlayerID && next.T-t.T <= dribbleWindowS && t.BallSpeedUUPS < passSpeedFloorUUPS+100 {
			t.Outcome = rc.OutcomeDribble
			continue
		}

		if towardOpponent && t.BallSpeedUUPS >= passSpeedFloorUUPS {
			t.Outcome = rc.OutcomePass
			continue
		}

		t.Outcome = rc.OutcomeNeutral
	}
}

// goalLineY is the y of the goal the touching player attacks.
func goalLineY(team rc.Team) float64 {
	if team == rc.TeamBlue {
		return rc.BackWallY
	}
	return -rc.BackWallY
}

// signedDepth maps y into attack-positive coordinates for a team.
func signedDepth(y float64, team rc.Team) float64 {
	if team == rc.TeamBlue {
		return y
	}
	return -y
}

// aimedAtGoalMouth extrapolates the ball's x at the goal line and checks it
// lands within the mouth.
func aimedAtGoalMouth(pos, vel rc.Vec3, goalY float64) bool {
	if vel.Y == 0 {
		return false
	}
	tTo := (goalY - pos.Y) / vel.Y
	if tTo <= 0 {
		return false
	}
	xAt := pos.X + vel.X*tTo
	return math.Abs(xAt) <= goalMouthHalfWidth
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
