package analysis

import (
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

const (
	recoveryMinAirborneS = 0.5
	recoveryControlSpeed = 200.0
	recoveryControlCapS  = 2.0
)

// analyzeRecovery classifies every landing after a meaningful airborne
// stretch: how long the player was out of play, how fast they regained
// control, and how much momentum survived the landing.
func analyzeRecovery(in *Input) assignFn {
	type landing struct {
		quality          rc.RecoveryQuality
		timeToControl    float64
		momentumRetained float64
	}
	perPlayer := map[string][]landing{}

	type airState struct {
		airborne    bool
		since       float64
		speedAtPeak float64
	}
	states := map[string]*airState{}

	for i := range in.Timeline.Frames {
		f := &in.Timeline.Frames[i]
		for _, p := range f.Players {
			st, ok := states[p.PlayerID]
			if !ok {
				st = &airState{}
				states[p.PlayerID] = st
			}
			grounded := p.IsOnGround || p.Position.Z < 50

			if !grounded {
				if !st.airborne {
					st.airborne = true
					st.since = f.Timestamp
					st.speedAtPeak = 0
				}
				if s := p.Velocity.Length(); s > st.speedAtPeak {
					st.speedAtPeak = s
				}
				continue
			}
			if !st.airborne {
				continue
			}
			st.airborne = false
			airTime := f.Timestamp - st.since
			if airTime < recoveryMinAirborneS {
				continue
			}

			l := landing{
				timeToControl:    timeToControl(in, i, p.PlayerID),
				momentumRetained: momentumRetained(p.Velocity.Length(), st.speedAtPeak),
			}
			l.quality = classifyRecovery(airTime, l.timeToControl, l.momentumRetained)
			perPlayer[p.PlayerID] = append(perPlayer[p.PlayerID], l)
		}
	}

	return func(out *Output) {
		teamTotals := map[rc.Team]replay.RecoveryStats{}
		teamControl := map[rc.Team]float64{}
		teamMomentum := map[rc.Team]float64{}

		for id, landings := range perPlayer {
			var s replay.RecoveryStats
			var controlSum, momentumSum float64
			for _, l := range landings {
				s.Count++
				controlSum += l.timeToControl
				momentumSum += l.momentumRetained
				switch l.quality {
				case rc.RecoveryExcellent:
					s.Excellent++
				case rc.RecoveryGood:
					s.Good++
				case rc.RecoveryAverage:
					s.Average++
				case rc.RecoveryPoor:
					s.Poor++
				default:
					s.Failed++
				}
			}
			if s.Count > 0 {
				n := float64(s.Count)
				s.AvgTimeToControlS = round2(controlSum / n)
				s.AvgMomentumRetainedPct = round2(capPct(momentumSum / n))
			}
			mutatePlayer(out, id, func(pa *replay.PlayerAnalysis) { pa.Recovery = s })

			team := teamOf(in, id)
			t := teamTotals[team]
			t.Count += s.Count
			t.Excellent += s.Excellent
			t.Good += s.Good
			t.Average += s.Average
			t.Poor += s.Poor
			t.Failed += s.Failed
			teamTotals[team] = t
			teamControl[team] += controlSum
			teamMomentum[team] += momentumSum
		}

		for team, t := range teamTotals {
			if t.Count > 0 {
				n := float64(t.Count)
				t.AvgTimeToControlS = round2(teamControl[team] / n)
				t.AvgMomentumRetainedPct = round2(capPct(teamMomentum[team] / n))
			}
			teamBlock(out, team).Recovery = t
		}
	}
}

// timeToControl measures how long after landing the player's velocity
// stops changing sharply, capped.
func timeToControl(in *Input, landFrame int, playerID string) float64 {
	landT := in.Timeline.Frames[landFrame].Timestamp
	var prevVel *rc.Vec3
	for i := landFrame; i < len(in.Timeline.Frames); i++ {
		f := &in.Timeline.Frames[i]
		if f.Timestamp-landT > recoveryControlCapS {
			break
		}
		p, ok := f.PlayerState(playerID)
		if !ok {
			continue
		}
		if prevVel != nil && p.Velocity.Sub(*prevVel).Length() < recoveryControlSpeed {
			return f.Timestamp - landT
		}
		v := p.Velocity
		prevVel = &v
	}
	return recoveryControlCapS
}

func momentumRetained(landingSpeed, peakSpeed float64) float64 {
	if peakSpeed <= 0 {
		return 0
	}
	return 100 * landingSpeed / peakSpeed
}

func capPct(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}

func classifyRecovery(airTime, control, momentum float64) rc.RecoveryQuality {
	switch {
	case momentum >= 90 && control <= 0.3 && airTime < 2.0:
		return rc.RecoveryExcellent
	case momentum >= 70 && control <= 0.6:
		return rc.RecoveryGood
	case momentum >= 45 && control <= 1.2:
		return rc.RecoveryAverage
	case momentum >= 20:
		return rc.RecoveryPoor
	default:
		return rc.RecoveryFailed
	}
}
