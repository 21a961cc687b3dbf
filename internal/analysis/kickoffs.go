package analysis

import (
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// analyzeKickoffs folds the kickoff events into per-player and per-team
// records. The invariant sum(approach_types) == total_approaches holds by
// construction: one approach per participant per kickoff.
func analyzeKickoffs(in *Input) assignFn {
	perPlayer := map[string]*replay.KickoffStats{}
	get := func(id string) *replay.KickoffStats {
		s, ok := perPlayer[id]
		if !ok {
			s = &replay.KickoffStats{ApproachTypes: map[rc.KickoffApproach]int{}}
			perPlayer[id] = s
		}
		return s
	}

	var kickoffs []replay.KickoffEvent
	if in.Events != nil {
		kickoffs = in.Events.Kickoffs
	}

	touchTimeSum := map[string]float64{}
	touchTimeN := map[string]int{}

	for _, k := range kickoffs {
		for _, part := range k.Participants {
			s := get(part.PlayerID)
			s.Count++
			s.ApproachTypes[part.Approach]++
			s.TotalApproaches++

			team := teamOf(in, part.PlayerID)
			switch k.Outcome {
			case rc.KickoffNeutral:
				s.Neutral++
			case rc.KickoffFirstPossessionBlue:
				if team == rc.TeamBlue {
					s.FirstPossession++
				}
			case rc.KickoffFirstPossessionOrange:
				if team == rc.TeamOrange {
					s.FirstPossession++
				}
			case rc.KickoffGoalFor:
				if team == rc.TeamBlue {
					s.GoalsFor++
				} else {
					s.GoalsAgainst++
				}
			case rc.KickoffGoalAgainst:
				if team == rc.TeamBlue {
					s.GoalsAgainst++
				} else {
					s.GoalsFor++
				}
			}

			if k.FirstTouchPlayer != "" {
				touchTimeSum[part.PlayerID] += k.TimeToFirstTouch
				touchTimeN[part.PlayerID]++
			}
		}
	}

	return func(out *Output) {
		for id, s := range perPlayer {
			if n := touchTimeN[id]; n > 0 {
				s.AvgTimeToFirstTouchS = round2(touchTimeSum[id] / float64(n))
			}
			val := *s
			mutatePlayer(out, id, func(pa *replay.PlayerAnalysis) { pa.Kickoffs = val })
		}

		// Team counts are per-kickoff, not per-participant; only the
		// approach breakdown sums over participants.
		for _, team := range []rc.Team{rc.TeamBlue, rc.TeamOrange} {
			t := replay.KickoffStats{ApproachTypes: map[rc.KickoffApproach]int{}}
			var touchSum float64
			var touchN int
			for _, k := range kickoffs {
				t.Count++
				switch k.Outcome {
				case rc.KickoffNeutral:
					t.Neutral++
				case rc.KickoffFirstPossessionBlue:
					if team == rc.TeamBlue {
						t.FirstPossession++
					}
				case rc.KickoffFirstPossessionOrange:
					if team == rc.TeamOrange {
						t.FirstPossession++
					}
				case rc.KickoffGoalFor:
					if team == rc.TeamBlue {
						t.GoalsFor++
					} else {
						t.GoalsAgainst++
					}
				case rc.KickoffGoalAgainst:
					if team == rc.TeamBlue {
						t.GoalsAgainst++
					} else {
						t.GoalsFor++
					}
				}
				for _, part := range k.Participants {
					if teamOf(in, part.PlayerID) != team {
						continue
					}
					t.ApproachTypes[part.Approach]++
					t.TotalApproaches++
				}
				if k.FirstTouchPlayer != "" {
					touchSum += k.TimeToFirstTouch
					touchN++
				}
			}
			if touchN > 0 {
				t.AvgTimeToFirstTouchS = round2(touchSum / float64(touchN))
			}
			teamBlock(out, team).Kickoffs = t
		}
	}
}
