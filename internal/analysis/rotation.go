package analysis

import (
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

const (
	commitRadiusUU       = 600.0
	commitDebounceS      = 2.0
	ballchaseWindowS     = 5.0
	ballchaseMinFraction = 0.8

	doubleCommitPenalty = 10.0
	overcommitPenalty   = 15.0
	ballchasePenalty    = 5.0
)

// analyzeRotation scores rotation compliance per player: 100 minus
// penalties for double commits, last-man overcommits, and sustained
// ball-chasing windows.
func analyzeRotation(in *Input) assignFn {
	stats := map[string]*replay.RotationComplianceStats{}
	get := func(id string) *replay.RotationComplianceStats {
		s, ok := stats[id]
		if !ok {
			s = &replay.RotationComplianceStats{}
			stats[id] = s
		}
		return s
	}

	lastDoubleCommit := map[string]float64{}
	lastOvercommit := map[string]float64{}

	chaseFrames := map[string]int{}
	chaseTotal := map[string]int{}
	chaseWindowStart := 0.0

	for _, f := range in.Timeline.Frames {
		// Double commit: two teammates both committed tight on the ball in
		// the offensive half.
		for _, p := range f.Players {
			if signedDepth(f.Ball.Position.Y, p.Team) < 0 {
				continue
			}
			if p.Position.Distance(f.Ball.Position) > commitRadiusUU {
				continue
			}
			for _, q := range f.Players {
				if q.Team != p.Team || q.PlayerID == p.PlayerID {
					continue
				}
				if q.Position.Distance(f.Ball.Position) > commitRadiusUU {
					continue
				}
				if f.Timestamp-lastDoubleCommit[p.PlayerID] < commitDebounceS {
					continue
				}
				lastDoubleCommit[p.PlayerID] = f.Timestamp
				get(p.PlayerID).DoubleCommits++
			}
		}

		// Last-man overcommit: the deepest defender crossing into the
		// offensive third.
		for _, p := range f.Players {
			if !isDeepestDefender(&f, p) {
				continue
			}
			if signedDepth(p.Position.Y, p.Team) > rc.BackWallY/3 {
				if f.Timestamp-lastOvercommit[p.PlayerID] < commitDebounceS {
					continue
				}
				lastOvercommit[p.PlayerID] = f.Timestamp
				get(p.PlayerID).LastManOvercommits++
			}
		}

		// Ball-chase accounting: fraction of a rolling window spent as the
		// player nearest the ball while moving toward it.
		for _, p := range f.Players {
			chaseTotal[p.PlayerID]++
			nearest, _ := nearestTeammateToBall(&f, p.Team)
			toBall := f.Ball.Position.Sub(p.Position).Normalized()
			if nearest == p.PlayerID && p.Velocity.Normalized().Dot(toBall) > 0.7 {
				chaseFrames[p.PlayerID]++
			}
		}
		if f.Timestamp-chaseWindowStart >= ballchaseWindowS {
			for id, total := range chaseTotal {
				if total > 0 && float64(chaseFrames[id])/float64(total) >= ballchaseMinFraction {
					get(id).BallchaseWindows++
				}
				chaseFrames[id] = 0
				chaseTotal[id] = 0
			}
			chaseWindowStart = f.Timestamp
		}
	}

	return func(out *Output) {
		for id, s := range stats {
			score := 100.0 -
				doubleCommitPenalty*float64(s.DoubleCommits) -
				overcommitPenalty*float64(s.LastManOvercommits) -
				ballchasePenalty*float64(s.BallchaseWindows)
			if score < 0 {
				score = 0
			}
			s.Score = round2(score)
			val := *s
			mutatePlayer(out, id, func(pa *replay.PlayerAnalysis) { pa.RotationCompliance = val })
		}

		// Players with no recorded windows keep a full score rather than a
		// zero that reads as maximally non-compliant.
		for id := range out.PerPlayer {
			if _, ok := stats[id]; !ok {
				mutatePlayer(out, id, func(pa *replay.PlayerAnalysis) {
					pa.RotationCompliance.Score = 100
				})
			}
		}
	}
}

func nearestTeammateToBall(f *replay.NormalizedFrame, team rc.Team) (string, float64) {
	best := -1.0
	id := ""
	for _, p := range f.Players {
		if p.Team != team {
			continue
		}
		d := p.Position.Distance(f.Ball.Position)
		if best < 0 || d < best {
			best, id = d, p.PlayerID
		}
	}
	return id, best
}
