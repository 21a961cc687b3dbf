package analysis

import (
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

const (
	slowSpeedCeiling  = 1400.0
	boostSpeedCeiling = 2200.0

	lowAirCeilingZ = 840.0
)

// analyzeMovement buckets each player's time by speed and height and sums
// travel distance. Powerslide and aerial figures come from the mechanic
// stream so the two reports agree.
func analyzeMovement(in *Input) assignFn {
	stats := map[string]*replay.MovementStats{}
	get := func(id string) *replay.MovementStats {
		s, ok := stats[id]
		if !ok {
			s = &replay.MovementStats{}
			stats[id] = s
		}
		return s
	}

	prevPos := map[string]rc.Vec3{}
	timeSum := map[string]float64{}

	for i, f := range in.Timeline.Frames {
		dt := in.dts[i]
		for _, p := range f.Players {
			s := get(p.PlayerID)
			speed := p.Velocity.Length()
			switch {
			case speed < slowSpeedCeiling:
				s.TimeSlowS += dt
			case speed < boostSpeedCeiling:
				s.TimeBoostSpeedS += dt
			default:
				s.TimeSupersonicS += dt
			}
			switch {
			case p.IsOnGround:
				s.TimeGroundS += dt
			case p.Position.Z < lowAirCeilingZ:
				s.TimeLowAirS += dt
			default:
				s.TimeHighAirS += dt
			}
			if prev, ok := prevPos[p.PlayerID]; ok {
				s.DistanceTravelledUU += p.Position.Distance(prev)
			}
			prevPos[p.PlayerID] = p.Position
			timeSum[p.PlayerID] += dt
		}
	}

	for _, m := range in.Mechanics {
		s := get(m.PlayerID)
		switch m.Kind {
		case rc.MechPowerSlide:
			s.PowerslideCount++
			if m.Duration != nil {
				s.PowerslideDurationS += *m.Duration
			}
		case rc.MechAerial:
			s.AerialCount++
			if m.Duration != nil {
				s.AerialTimeS += *m.Duration
			}
		}
	}

	return func(out *Output) {
		teamTotals := map[rc.Team]replay.MovementStats{}
		for id, s := range stats {
			if t := timeSum[id]; t > 0 {
				s.AvgSpeedUUPS = round2(s.DistanceTravelledUU / t)
			}
			s.TimeSlowS = round2(s.TimeSlowS)
			s.TimeBoostSpeedS = round2(s.TimeBoostSpeedS)
			s.TimeSupersonicS = round2(s.TimeSupersonicS)
			s.TimeGroundS = round2(s.TimeGroundS)
			s.TimeLowAirS = round2(s.TimeLowAirS)
			s.TimeHighAirS = round2(s.TimeHighAirS)
			s.PowerslideDurationS = round2(s.PowerslideDurationS)
			s.AerialTimeS = round2(s.AerialTimeS)
			s.DistanceTravelledUU = round2(s.DistanceTravelledUU)

			val := *s
			mutatePlayer(out, id, func(pa *replay.PlayerAnalysis) { pa.Movement = val })

			team := teamOf(in, id)
			t := teamTotals[team]
			t.TimeSlowS += val.TimeSlowS
			t.TimeBoostSpeedS += val.TimeBoostSpeedS
			t.TimeSupersonicS += val.TimeSupersonicS
			t.TimeGroundS += val.TimeGroundS
			t.TimeLowAirS += val.TimeLowAirS
			t.TimeHighAirS += val.TimeHighAirS
			t.PowerslideCount += val.PowerslideCount
			t.PowerslideDurationS += val.PowerslideDurationS
			t.AerialCount += val.AerialCount
			t.AerialTimeS += val.AerialTimeS
			t.DistanceTravelledUU += val.DistanceTravelledUU
			teamTotals[team] = t
		}
		for team, t := range teamTotals {
			teamBlock(out, team).Movement = t
		}
	}
}
