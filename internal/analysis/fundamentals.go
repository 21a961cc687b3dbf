package analysis

import (
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// analyzeFundamentals builds scoreboard counts. Header stat rows are
// authoritative where present; demo events fill the for/against split the
// header rows lack.
func analyzeFundamentals(in *Input) assignFn {
	perPlayer := map[string]replay.FundamentalsStats{}

	if in.Header != nil {
		for _, row := range in.Header.PlayerStats {
			id := canonicalFor(in, row.PlayerID)
			perPlayer[id] = replay.FundamentalsStats{
				Goals:          row.Goals,
				Assists:        row.Assists,
				Saves:          row.Saves,
				Shots:          row.Shots,
				DemosInflicted: row.Demos,
				DemosTaken:     row.DemosTaken,
				Score:          row.Score,
				ShootingPct:    shootingPct(row.Goals, row.Shots),
			}
		}
	}

	if in.Events != nil {
		for _, d := range in.Events.Demos {
			if d.AttackerPlayer != "" {
				s := perPlayer[d.AttackerPlayer]
				if s.DemosInflicted == 0 {
					s.DemosInflicted = countDemosBy(in.Events.Demos, d.AttackerPlayer)
					perPlayer[d.AttackerPlayer] = s
				}
			}
			s := perPlayer[d.VictimPlayer]
			if s.DemosTaken == 0 {
				s.DemosTaken = countDemosOn(in.Events.Demos, d.VictimPlayer)
				perPlayer[d.VictimPlayer] = s
			}
		}
	}

	return func(out *Output) {
		teamTotals := map[rc.Team]replay.FundamentalsStats{}
		for id, stats := range perPlayer {
			stats := stats
			mutatePlayer(out, id, func(pa *replay.PlayerAnalysis) { pa.Fundamentals = stats })
			team := teamOf(in, id)
			t := teamTotals[team]
			t.Goals += stats.Goals
			t.Assists += stats.Assists
			t.Saves += stats.Saves
			t.Shots += stats.Shots
			t.DemosInflicted += stats.DemosInflicted
			t.DemosTaken += stats.DemosTaken
			t.Score += stats.Score
			teamTotals[team] = t
		}
		for team, t := range teamTotals {
			t.ShootingPct = shootingPct(t.Goals, t.Shots)
			if in.Header != nil {
				if score, ok := in.Header.FinalScore[team]; ok && score > t.Goals {
					t.Goals = score
				}
			}
			teamBlock(out, team).Fundamentals = t
		}
	}
}

func shootingPct(goals, shots int) float64 {
	if shots == 0 {
		return 0
	}
	return round2(100 * float64(goals) / float64(shots))
}

func countDemosBy(demos []replay.DemoEvent, player string) int {
	n := 0
	for _, d := range demos {
		if d.AttackerPlayer == player {
			n++
		}
	}
	return n
}

func countDemosOn(demos []replay.DemoEvent, player string) int {
	n := 0
	for _, d := range demos {
		if d.VictimPlayer == player {
			n++
		}
	}
	return n
}

// canonicalFor resolves any alias (raw header ID, actor ID) to the
// canonical player ID via the identity alias sets.
func canonicalFor(in *Input, alias string) string {
	for _, id := range in.Timeline.PlayerIDs {
		if id.CanonicalID == alias {
			return alias
		}
		for _, a := range id.Aliases {
			if a == alias {
				return id.CanonicalID
			}
		}
	}
	return alias
}
