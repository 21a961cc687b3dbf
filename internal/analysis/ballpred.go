package analysis

import (
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

const (
	predWindowS      = 1.0
	predHorizonS     = 1.0
	predStepS        = 1.0 / 30
	predGravity      = 650.0
	predBounceEnergy = 0.6
)

// analyzeBallPrediction samples a simple physics projection of the ball
// about once per second and scores each player's velocity alignment with
// the path toward the predicted intercept point.
func analyzeBallPrediction(in *Input) assignFn {
	type acc struct {
		stats        replay.BallPredictionStats
		alignmentSum float64
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

	nextWindowT := 0.0
	for i := range in.Timeline.Frames {
		f := &in.Timeline.Frames[i]
		if f.Timestamp < nextWindowT {
			continue
		}
		nextWindowT = f.Timestamp + predWindowS

		intercept := projectBall(f.Ball, predHorizonS)
		for _, p := range f.Players {
			a := get(p.PlayerID)
			toIntercept := intercept.Sub(p.Position).Normalized()
			alignment := p.Velocity.Normalized().Dot(toIntercept)

			a.stats.WindowsScored++
			a.alignmentSum += alignment
			switch classifyRead(alignment) {
			case rc.ReadExcellent:
				a.stats.Excellent++
			case rc.ReadGood:
				a.stats.Good++
			case rc.ReadAverage:
				a.stats.Average++
			case rc.ReadPoor:
				a.stats.Poor++
			default:
				a.stats.Whiffs++
			}
		}
	}

	return func(out *Output) {
		teamTotals := map[rc.Team]replay.BallPredictionStats{}
		teamAlign := map[rc.Team]float64{}

		for id, a := range accs {
			s := a.stats
			if s.WindowsScored > 0 {
				s.AvgAlignment = round2(a.alignmentSum / float64(s.WindowsScored))
			}
			mutatePlayer(out, id, func(pa *replay.PlayerAnalysis) { pa.BallPrediction = s })

			team := teamOf(in, id)
			t := teamTotals[team]
			t.WindowsScored += s.WindowsScored
			t.Excellent += s.Excellent
			t.Good += s.Good
			t.Average += s.Average
			t.Poor += s.Poor
			t.Whiffs += s.Whiffs
			teamTotals[team] = t
			teamAlign[team] += a.alignmentSum
		}

		for team, t := range teamTotals {
			if t.WindowsScored > 0 {
				t.AvgAlignment = round2(teamAlign[team] / float64(t.WindowsScored))
			}
			teamBlock(out, team).BallPrediction = t
		}
	}
}

// projectBall advances the ball by simple physics: gravity, floor/ceiling
// bounces with energy loss, wall reflection.
func projectBall(b replay.BallState, horizon float64) rc.Vec3 {
	pos := b.Position
	vel := b.Velocity
	for t := 0.0; t < horizon; t += predStepS {
		vel.Z -= predGravity * predStepS
		pos = pos.Add(vel.Scale(predStepS))

		if pos.Z < 93 && vel.Z < 0 { // resting ball radius
			pos.Z = 93
			vel.Z = -vel.Z * predBounceEnergy
		}
		if pos.Z > rc.CeilingZ && vel.Z > 0 {
			pos.Z = rc.CeilingZ
			vel.Z = -vel.Z * predBounceEnergy
		}
		if pos.X > rc.SideWallX && vel.X > 0 {
			pos.X = rc.SideWallX
			vel.X = -vel.X * predBounceEnergy
		} else if pos.X < -rc.SideWallX && vel.X < 0 {
			pos.X = -rc.SideWallX
			vel.X = -vel.X * predBounceEnergy
		}
		if pos.Y > rc.BackWallY && vel.Y > 0 {
			pos.Y = rc.BackWallY
			vel.Y = -vel.Y * predBounceEnergy
		} else if pos.Y < -rc.BackWallY && vel.Y < 0 {
			pos.Y = -rc.BackWallY
			vel.Y = -vel.Y * predBounceEnergy
		}
	}
	return pos
}

func classifyRead(alignment float64) rc.ReadQuality {
	switch {
	case alignment >= 0.8:
		return rc.ReadExcellent
	case alignment >= 0.6:
		return rc.ReadGood
	case alignment >= 0.3:
		return rc.ReadAverage
	case alignment >= 0:
		return rc.ReadPoor
	default:
		return rc.ReadWhiff
	}
}
