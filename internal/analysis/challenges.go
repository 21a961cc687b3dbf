package analysis

import (
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// analyzeChallenges folds the challenge event stream into per-player and
// per-team contest records.
func analyzeChallenges(in *Input) assignFn {
	type acc struct {
		stats      replay.ChallengeStats
		depthSum   float64
		riskSum    float64
		firstCount int
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

	var challenges []replay.ChallengeEvent
	if in.Events != nil {
		challenges = in.Events.Challenges
	}

	for _, c := range challenges {
		for _, id := range c.Players {
			a := get(id)
			a.stats.Contests++
			team := teamOf(in, id)
			switch {
			case c.Outcome == rc.ChallengeNeutral:
				a.stats.Neutral++
			case c.WinningTeam == team:
				a.stats.Wins++
			default:
				a.stats.Losses++
			}
			a.depthSum += signedDepth(c.DepthY, team)
			a.riskSum += c.RiskIndex[id]
			if c.FirstToBall == id {
				a.firstCount++
			}
		}
	}

	return func(out *Output) {
		teamTotals := map[rc.Team]replay.ChallengeStats{}
		teamDepth := map[rc.Team]float64{}
		teamRisk := map[rc.Team]float64{}
		teamFirst := map[rc.Team]int{}

		for id, a := range accs {
			s := a.stats
			if s.Contests > 0 {
				n := float64(s.Contests)
				s.FirstToBallPct = round2(100 * float64(a.firstCount) / n)
				s.AvgChallengeDepthUU = round2(a.depthSum / n)
				s.AvgRiskIndex = round2(a.riskSum / n)
			}
			mutatePlayer(out, id, func(pa *replay.PlayerAnalysis) { pa.Challenges = s })

			team := teamOf(in, id)
			t := teamTotals[team]
			t.Contests += s.Contests
			t.Wins += s.Wins
			t.Losses += s.Losses
			t.Neutral += s.Neutral
			teamTotals[team] = t
			teamDepth[team] += a.depthSum
			teamRisk[team] += a.riskSum
			teamFirst[team] += a.firstCount
		}

		for team, t := range teamTotals {
			if t.Contests > 0 {
				n := float64(t.Contests)
				t.FirstToBallPct = round2(100 * float64(teamFirst[team]) / n)
				t.AvgChallengeDepthUU = round2(teamDepth[team] / n)
				t.AvgRiskIndex = round2(teamRisk[team] / n)
			}
			teamBlock(out, team).Challenges = t
		}
	}
}
