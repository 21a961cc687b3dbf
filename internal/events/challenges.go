package events

import (
	"math"

	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

const (
	challengeRadiusUU  = 300.0
	challengeWindowS   = 0.3
	challengeDebounceS = 1.0
	lowBoostThreshold  = 30.0
)

// detectChallenges finds frames where opposing cars contest the ball inside
// the challenge radius, and resolves each contest by who touches next.
func detectChallenges(tl *replay.NormalizedTimeline, touches []replay.TouchEvent) []replay.ChallengeEvent {
	var out []replay.ChallengeEvent
	lastChallengeT := math.Inf(-1)

	for i := range tl.Frames {
		f := &tl.Frames[i]
		if f.Timestamp-lastChallengeT < challengeDebounceS {
			continue
		}

		blueID, blueDist := nearestOfTeam(f, rc.TeamBlue)
		orangeID, orangeDist := nearestOfTeam(f, rc.TeamOrange)
		if blueID == "" || orangeID == "" || blueDist >= challengeRadiusUU || orangeDist >= challengeRadiusUU {
			continue
		}
		lastChallengeT = f.Timestamp

		ev := replay.ChallengeEvent{
			T:         f.Timestamp,
			Frame:     i,
			Players:   []string{blueID, orangeID},
			DepthY:    f.Ball.Position.Y,
			RiskIndex: map[string]float64{},
			Outcome:   rc.ChallengeNeutral,
		}

		for _, id := range ev.Players {
			ev.RiskIndex[id] = riskIndex(f, id)
		}

		// Possession after the challenge window decides the outcome.
		for _, t := range touches {
			if t.T <= f.Timestamp+challengeWindowS {
				continue
			}
			ev.WinningTeam = t.Team
			ev.Outcome = rc.ChallengeWin
			ev.FirstToBall = t.PlayerID
			break
		}

		out = append(out, ev)
	}
	return out
}

func nearestOfTeam(f *replay.NormalizedFrame, team rc.Team) (string, float64) {
	best := math.MaxFloat64
	id := ""
	for _, p := range f.Players {
		if p.Team != team {
			continue
		}
		if d := p.Position.Distance(f.Ball.Position); d < best {
			best, id = d, p.PlayerID
		}
	}
	return id, best
}

// riskIndex composites three equally-weighted signals: last defender, low
// boost, and being ahead of the ball.
func riskIndex(f *replay.NormalizedFrame, playerID string) float64 {
	p, ok := f.PlayerState(playerID)
	if !ok {
		return 0
	}
	risk := 0.0
	if isLastDefender(f, p) {
		risk += 1.0 / 3
	}
	if p.BoostAmount < lowBoostThreshold {
		risk += 1.0 / 3
	}
	if signedDepth(p.Position.Y, p.Team) > signedDepth(f.Ball.Position.Y, p.Team) {
		risk += 1.0 / 3
	}
	return math.Round(risk*100) / 100
}

// isLastDefender reports whether p is the teammate deepest toward their own
// goal.
func isLastDefender(f *replay.NormalizedFrame, p replay.PlayerState) bool {
	own := signedDepth(p.Position.Y, p.Team)
	for _, q := range f.Players {
		if q.Team != p.Team || q.PlayerID == p.PlayerID {
			continue
		}
		if signedDepth(q.Position.Y, q.Team) < own {
			return false
		}
	}
	return true
}
