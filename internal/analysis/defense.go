package analysis

import (
	"math"

	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

const (
	shadowMaxAngleDeg  = 60.0
	shadowMinBallSpeed = 500.0
	dangerZoneDepthUU  = 4200.0
	dangerZoneHalfW    = 1600.0
)

// analyzeDefense measures defensive shape: last-defender time, shadow
// defense time and angle, danger-zone presence, and time caught out of
// position (last defender while ahead of the ball).
func analyzeDefense(in *Input) assignFn {
	type acc struct {
		lastDefender float64
		shadowing    float64
		shadowAngSum float64
		shadowN      int
		dangerZone   float64
		outOfPos     float64
	}
	accs := map[string]*acc{}
	get := func(id string) *acc {
		a, ok := accs[id]
		if !ok {
			a = &acc{}
			accs[id] = a
		}
		return a
	}

	for i, f := range in.Timeline.Frames {
		dt := in.dts[i]
		for _, p := range f.Players {
			a := get(p.PlayerID)

			last := isDeepestDefender(&f, p)
			if last {
				a.lastDefender += dt
				if signedDepth(p.Position.Y, p.Team) > signedDepth(f.Ball.Position.Y, p.Team) {
					a.outOfPos += dt
				}
			}

			if ang, ok := shadowAngle(&f, p); ok {
				a.shadowing += dt
				a.shadowAngSum += ang
				a.shadowN++
			}

			if signedDepth(p.Position.Y, p.Team) < -dangerZoneDepthUU &&
				math.Abs(p.Position.X) < dangerZoneHalfW {
				a.dangerZone += dt
			}
		}
	}

	return func(out *Output) {
		teamTotals := map[rc.Team]replay.DefenseStats{}
		teamAngSum := map[rc.Team]float64{}
		teamAngN := map[rc.Team]int{}

		for id, a := range accs {
			s := replay.DefenseStats{
				TimeLastDefenderS:  round2(a.lastDefender),
				TimeShadowingS:     round2(a.shadowing),
				DangerZoneTimeS:    round2(a.dangerZone),
				TimeOutOfPositionS: round2(a.outOfPos),
			}
			if a.shadowN > 0 {
				s.AvgShadowAngleDeg = round2(a.shadowAngSum / float64(a.shadowN))
			}
			mutatePlayer(out, id, func(pa *replay.PlayerAnalysis) { pa.Defense = s })

			team := teamOf(in, id)
			t := teamTotals[team]
			t.TimeLastDefenderS += s.TimeLastDefenderS
			t.TimeShadowingS += s.TimeShadowingS
			t.DangerZoneTimeS += s.DangerZoneTimeS
			t.TimeOutOfPositionS += s.TimeOutOfPositionS
			teamTotals[team] = t
			teamAngSum[team] += a.shadowAngSum
			teamAngN[team] += a.shadowN
		}

		for team, t := range teamTotals {
			if n := teamAngN[team]; n > 0 {
				t.AvgShadowAngleDeg = round2(teamAngSum[team] / float64(n))
			}
			teamBlock(out, team).Defense = t
		}
	}
}

func isDeepestDefender(f *replay.NormalizedFrame, p replay.PlayerState) bool {
	own := signedDepth(p.Position.Y, p.Team)
	for _, q := range f.Players {
		if q.Team != p.Team || q.PlayerID == p.PlayerID {
			continue
		}
		if signedDepth(q.Position.Y, q.Team) < own {
			return false
		}
	}
	return true
}

// shadowAngle reports the angle between the player's retreat line and the
// ball-to-own-goal line when the player is actively shadowing: retreating
// goal-side of a ball moving toward their net.
func shadowAngle(f *replay.NormalizedFrame, p replay.PlayerState) (float64, bool) {
	ownGoal := rc.Vec3{Y: -attackGoalY(p.Team)}

	ballToGoal := ownGoal.Sub(f.Ball.Position).Normalized()
	ballMovingIn := f.Ball.Velocity.Dot(ballToGoal) > 0 && f.Ball.Velocity.Length() > shadowMinBallSpeed
	if !ballMovingIn {
		return 0, false
	}

	goalSide := signedDepth(p.Position.Y, p.Team) < signedDepth(f.Ball.Position.Y, p.Team)
	retreating := p.Velocity.Dot(ballToGoal) > 0
	if !goalSide || !retreating || p.Velocity.Length() < 100 {
		return 0, false
	}

	ang := angleDeg(p.Velocity.Normalized(), ballToGoal)
	if ang > shadowMaxAngleDeg {
		return 0, false
	}
	return ang, true
}

func angleDeg(a, b rc.Vec3) float64 {
	d := a.Dot(b)
	if d > 1 {
		d = 1
	} else if d < -1 {
		d = -1
	}
	return math.Acos(d) * 180 / math.Pi
}
