package analysis

import (
	"math"

	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

const (
	xgMaxDistanceUU   = 6000.0
	xgCoverageConeDeg = 25.0
	goalMouthZ        = 321.0
)

// analyzeXG scores each SHOT-outcome touch with an expected-goal
// probability from distance, angle, pre-touch ball speed, defender
// coverage, and shot type. PASS and other outcomes never contribute.
func analyzeXG(in *Input) assignFn {
	type acc struct {
		shots   int
		totalXG float64
	}
	accs := map[string]*acc{}

	var touches []replay.TouchEvent
	if in.Events != nil {
		touches = in.Events.Touches
	}

	for _, t := range touches {
		if t.Outcome != rc.OutcomeShot {
			continue
		}
		a, ok := accs[t.PlayerID]
		if !ok {
			a = &acc{}
			accs[t.PlayerID] = a
		}
		a.shots++
		a.totalXG += shotXG(in, t)
	}

	goalsBy := map[string]int{}
	if in.Events != nil {
		for _, g := range in.Events.Goals {
			goalsBy[g.ScorerPlayer]++
		}
	}

	return func(out *Output) {
		teamTotals := map[rc.Team]replay.XGStats{}
		for id, a := range accs {
			s := replay.XGStats{
				Shots:       a.shots,
				TotalXG:     round2(a.totalXG),
				GoalsScored: goalsBy[id],
			}
			if a.shots > 0 {
				s.XGPerShot = round2(a.totalXG / float64(a.shots))
			}
			s.GoalsAboveXG = round2(float64(s.GoalsScored) - s.TotalXG)
			mutatePlayer(out, id, func(pa *replay.PlayerAnalysis) { pa.XG = s })

			team := teamOf(in, id)
			t := teamTotals[team]
			t.Shots += s.Shots
			t.TotalXG = round2(t.TotalXG + s.TotalXG)
			t.GoalsScored += s.GoalsScored
			teamTotals[team] = t
		}

		// Players who scored without a detected shot still count goals.
		for id, goals := range goalsBy {
			if _, ok := accs[id]; ok || id == "" {
				continue
			}
			s := replay.XGStats{GoalsScored: goals, GoalsAboveXG: float64(goals)}
			mutatePlayer(out, id, func(pa *replay.PlayerAnalysis) { pa.XG = s })
			team := teamOf(in, id)
			t := teamTotals[team]
			t.GoalsScored += goals
			teamTotals[team] = t
		}

		for team, t := range teamTotals {
			if t.Shots > 0 {
				t.XGPerShot = round2(t.TotalXG / float64(t.Shots))
			}
			t.GoalsAboveXG = round2(float64(t.GoalsScored) - t.TotalXG)
			teamBlock(out, team).XG = t
		}
	}
}

// shotXG is the geometric xG model: distance decay, shooting-angle factor,
// speed factor, defender-coverage discount, and an aerial premium.
func shotXG(in *Input, t replay.TouchEvent) float64 {
	goal := rc.Vec3{Y: attackGoalY(t.Team), Z: goalMouthZ}
	dist := t.Position.Distance(goal)

	base := 1 - dist/xgMaxDistanceUU
	if base < 0.03 {
		base = 0.03
	}

	// Shooting angle: how much of the mouth the shooter sees.
	toGoal := goal.Sub(t.Position).Normalized()
	straight := rc.Vec3{Y: toGoal.Y}.Normalized()
	angleFactor := 0.4 + 0.6*math.Abs(toGoal.Dot(straight))

	// Pre-touch speed: the ball's speed on the frame before the touch.
	ballSpeed := t.BallSpeedUUPS
	if t.Frame > 0 && t.Frame <= len(in.Timeline.Frames) {
		ballSpeed = in.Timeline.Frames[t.Frame-1].Ball.Velocity.Length()
	}
	speedFactor := 0.5 + 0.5*math.Min(ballSpeed/3000, 1)

	coverage := defenderCoverage(in, t, goal)
	coverageFactor := 1 - 0.5*coverage

	typeFactor := 1.0
	if t.Context == rc.TouchAerial || t.Context == rc.TouchCeiling {
		typeFactor = 0.85
	}

	xg := base * angleFactor * speedFactor * coverageFactor * typeFactor
	if xg > 0.95 {
		xg = 0.95
	}
	return xg
}

// defenderCoverage is the fraction [0,1] of opposing players sitting inside
// the shot cone between ball and goal.
func defenderCoverage(in *Input, t replay.TouchEvent, goal rc.Vec3) float64 {
	if t.Frame < 0 || t.Frame >= len(in.Timeline.Frames) {
		return 0
	}
	f := &in.Timeline.Frames[t.Frame]
	toGoal := goal.Sub(t.Position).Normalized()
	cosCone := math.Cos(xgCoverageConeDeg * math.Pi / 180)

	var defenders, covering int
	for _, p := range f.Players {
		if p.Team == t.Team {
			continue
		}
		defenders++
		toDef := p.Position.Sub(t.Position).Normalized()
		if toDef.Dot(toGoal) > cosCone && p.Position.Distance(t.Position) < goal.Sub(t.Position).Length() {
			covering++
		}
	}
	if defenders == 0 {
		return 0
	}
	return float64(covering) / float64(defenders)
}

func attackGoalY(team rc.Team) float64 {
	if team == rc.TeamBlue {
		return rc.BackWallY
	}
	return -rc.BackWallY
}
