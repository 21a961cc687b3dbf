package analysis

import (
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

const (
	bigPadAmount   = 100.0
	smallPadAmount = 12.0
)

// analyzeBoost computes boost economy per player: consumption and
// collection rates, starvation/saturation time, pad counts split by size
// and theft, overfill and supersonic waste.
func analyzeBoost(in *Input) assignFn {
	type acc struct {
		used, collected    float64
		boostSum, timeSum  float64
		timeZero, timeFull float64
		overfill, waste    float64
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

	prevBoost := map[string]float64{}
	for i, f := range in.Timeline.Frames {
		dt := in.dts[i]
		for _, p := range f.Players {
			a := get(p.PlayerID)
			a.boostSum += p.BoostAmount * dt
			a.timeSum += dt
			if p.BoostAmount <= 1 {
				a.timeZero += dt
			}
			if p.BoostAmount >= 99.5 {
				a.timeFull += dt
			}
			if prev, ok := prevBoost[p.PlayerID]; ok {
				delta := p.BoostAmount - prev
				if delta < 0 {
					a.used += -delta
					if p.IsSupersonic {
						a.waste += -delta
					}
				} else if delta > 0 {
					a.collected += delta
				}
			}
			prevBoost[p.PlayerID] = p.BoostAmount
		}
	}

	type padCounts struct{ big, small, stolenBig, stolenSmall int }
	pads := map[string]*padCounts{}
	if in.Events != nil {
		for _, b := range in.Events.BoostPickups {
			pc, ok := pads[b.PlayerID]
			if !ok {
				pc = &padCounts{}
				pads[b.PlayerID] = pc
			}
			if b.PadSize == rc.PadBig {
				pc.big++
				if b.Stolen {
					pc.stolenBig++
				}
			} else {
				pc.small++
				if b.Stolen {
					pc.stolenSmall++
				}
			}

			// Overfill: pad amount beyond the tank cap at pickup time.
			if b.Frame >= 0 && b.Frame < len(in.Timeline.Frames) {
				if ps, ok := in.Timeline.Frames[b.Frame].PlayerState(b.PlayerID); ok {
					amount := smallPadAmount
					if b.PadSize == rc.PadBig {
						amount = bigPadAmount
					}
					if over := ps.BoostAmount + amount - 100; over > 0 {
						get(b.PlayerID).overfill += over
					}
				}
			}
		}
	}

	return func(out *Output) {
		teamTotals := map[rc.Team]replay.BoostStats{}
		teamTime := map[rc.Team]float64{}

		for id, a := range accs {
			minutes := a.timeSum / 60
			stats := replay.BoostStats{
				TimeZeroBoostS: round2(a.timeZero),
				TimeFullBoostS: round2(a.timeFull),
				Overfill:       round2(a.overfill),
				Waste:          round2(a.waste),
			}
			if minutes > 0 {
				stats.BPM = round2(a.used / minutes)
				stats.BCPM = round2(a.collected / minutes)
			}
			if a.timeSum > 0 {
				stats.AvgBoost = round2(a.boostSum / a.timeSum)
			}
			if pc, ok := pads[id]; ok {
				stats.BigPads = pc.big
				stats.SmallPads = pc.small
				stats.StolenBigPads = pc.stolenBig
				stats.StolenSmallPads = pc.stolenSmall
			}
			mutatePlayer(out, id, func(pa *replay.PlayerAnalysis) { pa.Boost = stats })

			team := teamOf(in, id)
			t := teamTotals[team]
			t.BPM += stats.BPM
			t.BCPM += stats.BCPM
			t.AvgBoost += stats.AvgBoost * a.timeSum
			t.TimeZeroBoostS += stats.TimeZeroBoostS
			t.TimeFullBoostS += stats.TimeFullBoostS
			t.BigPads += stats.BigPads
			t.SmallPads += stats.SmallPads
			t.StolenBigPads += stats.StolenBigPads
			t.StolenSmallPads += stats.StolenSmallPads
			t.Overfill += stats.Overfill
			t.Waste += stats.Waste
			teamTotals[team] = t
			teamTime[team] += a.timeSum
		}

		for team, t := range teamTotals {
			if teamTime[team] > 0 {
				t.AvgBoost = round2(t.AvgBoost / teamTime[team])
			}
			teamBlock(out, team).Boost = t
		}
	}
}
