package analysis

import (
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

const (
	passChainWindowS      = 2.0
	passForwardProgressUU = 80.0
	giveAndGoWindowS      = 4.0
	possessionCapS        = 5.0
)

// analyzePassing derives pass chains from consecutive touches: a pass
// attempt is a touch followed within the chain window by a same-team touch
// with enough forward progress toward the opponent goal.
func analyzePassing(in *Input) assignFn {
	stats := map[string]*replay.PassingStats{}
	get := func(id string) *replay.PassingStats {
		s, ok := stats[id]
		if !ok {
			s = &replay.PassingStats{}
			stats[id] = s
		}
		return s
	}

	var touches []replay.TouchEvent
	if in.Events != nil {
		touches = in.Events.Touches
	}

	for i := 0; i < len(touches); i++ {
		t := touches[i]
		s := get(t.PlayerID)

		// Possession: this player's team owns the ball until the next
		// touch, capped so dead stretches don't inflate it.
		if i+1 < len(touches) {
			span := touches[i+1].T - t.T
			if span > possessionCapS {
				span = possessionCapS
			}
			s.PossessionTimeS += span
		}

		if i+1 >= len(touches) {
			continue
		}
		next := touches[i+1]
		gap := next.T - t.T
		if gap > passChainWindowS {
			continue
		}

		if next.Team != t.Team {
			s.Turnovers++
			continue
		}
		progress := signedDepth(next.Position.Y, t.Team) - signedDepth(t.Position.Y, t.Team)
		if next.PlayerID == t.PlayerID || progress < passForwardProgressUU {
			continue
		}
		s.PassesAttempted++
		s.PassesCompleted++

		// Give-and-go: the original passer touches again shortly after
		// the receiver.
		for j := i + 2; j < len(touches); j++ {
			if touches[j].T-t.T > giveAndGoWindowS {
				break
			}
			if touches[j].PlayerID == t.PlayerID && touches[j].Team == t.Team {
				s.GiveAndGoCount++
				break
			}
		}
	}

	return func(out *Output) {
		teamTotals := map[rc.Team]replay.PassingStats{}
		for id, s := range stats {
			s.PossessionTimeS = round2(s.PossessionTimeS)
			val := *s
			mutatePlayer(out, id, func(pa *replay.PlayerAnalysis) { pa.Passing = val })

			team := teamOf(in, id)
			t := teamTotals[team]
			t.PassesAttempted += val.PassesAttempted
			t.PassesCompleted += val.PassesCompleted
			t.Turnovers += val.Turnovers
			t.GiveAndGoCount += val.GiveAndGoCount
			t.PossessionTimeS = round2(t.PossessionTimeS + val.PossessionTimeS)
			teamTotals[team] = t
		}
		for team, t := range teamTotals {
			teamBlock(out, team).Passing = t
		}
	}
}
