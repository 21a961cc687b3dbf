package analysis

import (
	"sort"

	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// analyzePositioning measures where each player spends the match: thirds
// and halves of the field, behind/ahead of the ball, distances, and the
// first/second/third-man rotation shares. The percentage metrics are
// frame-weighted.
func analyzePositioning(in *Input) assignFn {
	var thirdY float64 = rc.BackWallY / 3

	type acc struct {
		offThird, midThird, defThird float64
		offHalf, defHalf             float64
		behindFrames, totalFrames    int
		distBallSum, distMateSum     float64
		distMateFrames               int
		manFrames                    [3]int
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

		// Rank teammates by distance to ball once per frame for the
		// first/second/third-man shares.
		rankByTeam := map[rc.Team][]string{}
		for _, team := range []rc.Team{rc.TeamBlue, rc.TeamOrange} {
			var ids []string
			for _, p := range f.Players {
				if p.Team == team {
					ids = append(ids, p.PlayerID)
				}
			}
			sort.Slice(ids, func(a, b int) bool {
				pa, _ := f.PlayerState(ids[a])
				pb, _ := f.PlayerState(ids[b])
				da := pa.Position.Distance(f.Ball.Position)
				db := pb.Position.Distance(f.Ball.Position)
				if da != db {
					return da < db
				}
				return ids[a] < ids[b]
			})
			rankByTeam[team] = ids
		}

		for _, p := range f.Players {
			a := get(p.PlayerID)
			depth := signedDepth(p.Position.Y, p.Team)

			switch {
			case depth > thirdY:
				a.offThird += dt
			case depth < -thirdY:
				a.defThird += dt
			default:
				a.midThird += dt
			}
			if depth > 0 {
				a.offHalf += dt
			} else {
				a.defHalf += dt
			}

			a.totalFrames++
			if depth <= signedDepth(f.Ball.Position.Y, p.Team) {
				a.behindFrames++
			}

			a.distBallSum += p.Position.Distance(f.Ball.Position)
			for _, q := range f.Players {
				if q.Team == p.Team && q.PlayerID != p.PlayerID {
					a.distMateSum += p.Position.Distance(q.Position)
					a.distMateFrames++
				}
			}

			for rank, id := range rankByTeam[p.Team] {
				if id == p.PlayerID && rank < 3 {
					a.manFrames[rank]++
				}
			}
		}
	}

	return func(out *Output) {
		teamTotals := map[rc.Team]replay.PositioningStats{}
		teamN := map[rc.Team]int{}

		for id, a := range accs {
			stats := replay.PositioningStats{
				TimeOffensiveThirdS: round2(a.offThird),
				TimeMiddleThirdS:    round2(a.midThird),
				TimeDefensiveThirdS: round2(a.defThird),
				TimeOffensiveHalfS:  round2(a.offHalf),
				TimeDefensiveHalfS:  round2(a.defHalf),
			}
			if a.totalFrames > 0 {
				n := float64(a.totalFrames)
				stats.BehindBallPct = round2(100 * float64(a.behindFrames) / n)
				stats.AheadBallPct = round2(100 - stats.BehindBallPct)
				stats.AvgDistanceToBallUU = round2(a.distBallSum / n)
				stats.FirstManPct = round2(100 * float64(a.manFrames[0]) / n)
				stats.SecondManPct = round2(100 * float64(a.manFrames[1]) / n)
				if in.TeamSize >= 3 {
					third := round2(100 * float64(a.manFrames[2]) / n)
					stats.ThirdManPct = &third
				}
			}
			if a.distMateFrames > 0 {
				stats.AvgDistanceToTeammateUU = round2(a.distMateSum / float64(a.distMateFrames))
			}

			mutatePlayer(out, id, func(pa *replay.PlayerAnalysis) { pa.Positioning = stats })

			team := teamOf(in, id)
			t := teamTotals[team]
			t.TimeOffensiveThirdS += stats.TimeOffensiveThirdS
			t.TimeMiddleThirdS += stats.TimeMiddleThirdS
			t.TimeDefensiveThirdS += stats.TimeDefensiveThirdS
			t.TimeOffensiveHalfS += stats.TimeOffensiveHalfS
			t.TimeDefensiveHalfS += stats.TimeDefensiveHalfS
			t.BehindBallPct += stats.BehindBallPct
			t.AheadBallPct += stats.AheadBallPct
			t.AvgDistanceToBallUU += stats.AvgDistanceToBallUU
			t.AvgDistanceToTeammateUU += stats.AvgDistanceToTeammateUU
			teamTotals[team] = t
			teamN[team]++
		}

		for team, t := range teamTotals {
			if n := float64(teamN[team]); n > 0 {
				t.BehindBallPct = round2(t.BehindBallPct / n)
				t.AheadBallPct = round2(t.AheadBallPct / n)
				t.AvgDistanceToBallUU = round2(t.AvgDistanceToBallUU / n)
				t.AvgDistanceToTeammateUU = round2(t.AvgDistanceToTeammateUU / n)
			}
			teamBlock(out, team).Positioning = t
		}
	}
}
