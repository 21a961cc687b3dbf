package analysis

import (
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// analyzeMechanics folds the mechanic stream into per-kind counts and the
// aggregate durations for the duration-bearing kinds.
func analyzeMechanics(in *Input) assignFn {
	perPlayer := map[string]*replay.MechanicsStats{}
	get := func(id string) *replay.MechanicsStats {
		s, ok := perPlayer[id]
		if !ok {
			s = &replay.MechanicsStats{}
			perPlayer[id] = s
		}
		return s
	}

	for _, m := range in.Mechanics {
		s := get(m.PlayerID)
		var dur float64
		if m.Duration != nil {
			dur = *m.Duration
		}
		switch m.Kind {
		case rc.MechJump:
			s.JumpCount++
		case rc.MechDoubleJump:
			s.DoubleJumpCount++
		case rc.MechFlip:
			s.FlipCount++
		case rc.MechFlipCancel:
			s.FlipCancelCount++
		case rc.MechHalfFlip:
			s.HalfFlipCount++
		case rc.MechSpeedflip:
			s.SpeedflipCount++
		case rc.MechWavedash:
			s.WavedashCount++
		case rc.MechAerial:
			s.AerialCount++
		case rc.MechFastAerial:
			s.FastAerialCount++
		case rc.MechFlipResetTouch:
			s.FlipResetTouchCount++
		case rc.MechFlipResetUse:
			s.FlipResetUseCount++
		case rc.MechAirRoll:
			s.AirRollCount++
			s.AirRollTimeS += dur
		case rc.MechDribble:
			s.DribbleCount++
			s.DribbleTimeS += dur
		case rc.MechFlick:
			s.FlickCount++
		case rc.MechMustyFlick:
			s.MustyFlickCount++
		case rc.MechCeilingShot:
			s.CeilingShotCount++
		case rc.MechPowerSlide:
			s.PowerSlideCount++
			s.PowerSlideTimeS += dur
		case rc.MechGroundPinch:
			s.GroundPinchCount++
		case rc.MechDoubleTouch:
			s.DoubleTouchCount++
		case rc.MechRedirect:
			s.RedirectCount++
		case rc.MechStall:
			s.StallCount++
		case rc.MechSkim:
			s.SkimCount++
		case rc.MechPsycho:
			s.PsychoCount++
		}
	}

	return func(out *Output) {
		teamTotals := map[rc.Team]replay.MechanicsStats{}
		for id, s := range perPlayer {
			s.AirRollTimeS = round2(s.AirRollTimeS)
			s.DribbleTimeS = round2(s.DribbleTimeS)
			s.PowerSlideTimeS = round2(s.PowerSlideTimeS)
			val := *s
			mutatePlayer(out, id, func(pa *replay.PlayerAnalysis) { pa.Mechanics = val })

			team := teamOf(in, id)
			t := teamTotals[team]
			t.JumpCount += val.JumpCount
			t.DoubleJumpCount += val.DoubleJumpCount
			t.FlipCount += val.FlipCount
			t.FlipCancelCount += val.FlipCancelCount
			t.HalfFlipCount += val.HalfFlipCount
			t.SpeedflipCount += val.SpeedflipCount
			t.WavedashCount += val.WavedashCount
			t.AerialCount += val.AerialCount
			t.FastAerialCount += val.FastAerialCount
			t.FlipResetTouchCount += val.FlipResetTouchCount
			t.FlipResetUseCount += val.FlipResetUseCount
			t.AirRollCount += val.AirRollCount
			t.AirRollTimeS = round2(t.AirRollTimeS + val.AirRollTimeS)
			t.DribbleCount += val.DribbleCount
			t.DribbleTimeS = round2(t.DribbleTimeS + val.DribbleTimeS)
			t.FlickCount += val.FlickCount
			t.MustyFlickCount += val.MustyFlickCount
			t.CeilingShotCount += val.CeilingShotCount
			t.PowerSlideCount += val.PowerSlideCount
			t.PowerSlideTimeS = round2(t.PowerSlideTimeS + val.PowerSlideTimeS)
			t.GroundPinchCount += val.GroundPinchCount
			t.DoubleTouchCount += val.DoubleTouchCount
			t.RedirectCount += val.RedirectCount
			t.StallCount += val.StallCount
			t.SkimCount += val.SkimCount
			t.PsychoCount += val.PsychoCount
			teamTotals[team] = t
		}
		for team, t := range teamTotals {
			teamBlock(out, team).Mechanics = t
		}
	}
}
