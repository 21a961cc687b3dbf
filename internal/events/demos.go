package events

import (
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

const (
	demoAttackerRadiusUU = 300.0
	demoLookbackS        = 0.2
)

// detectDemos finds demolitions via the actor demolition flag and
// attributes the attacker by intersecting opponent velocity in the prior
// lookback window.
func detectDemos(tl *replay.NormalizedTimeline) []replay.DemoEvent {
	var demos []replay.DemoEvent
	demolished := map[string]bool{}

	for i := range tl.Frames {
		f := &tl.Frames[i]
		for _, p := range f.Players {
			was := demolished[p.PlayerID]
			demolished[p.PlayerID] = p.IsDemolished
			if !p.IsDemolished || was {
				continue
			}

			attacker, attackerTeam := findAttacker(tl, i, p)
			demos = append(demos, replay.DemoEvent{
				T:              f.Timestamp,
				Frame:          i,
				VictimPlayer:   p.PlayerID,
				AttackerPlayer: attacker,
				VictimTeam:     p.Team,
				AttackerTeam:   attackerTeam,
				Position:       p.Position,
			})
		}
	}
	return demos
}

// findAttacker looks back over the lookback window for the opponent closest
// to the victim whose velocity pointed at them.
func findAttacker(tl *replay.NormalizedTimeline, frame int, victim replay.PlayerState) (string, rc.Team) {
	t := tl.Frames[frame].Timestamp
	bestDist := demoAttackerRadiusUU
	attacker := ""
	attackerTeam := opposing(victim.Team)

	for i := frame; i >= 0; i-- {
		f := &tl.Frames[i]
		if t-f.Timestamp > demoLookbackS {
			break
		}
		for _, q := range f.Players {
			if q.Team == victim.Team || q.PlayerID == victim.PlayerID {
				continue
			}
			dist := q.Position.Distance(victim.Position)
			if dist >= bestDist {
				continue
			}
			toVictim := victim.Position.Sub(q.Position).Normalized()
			if q.Velocity.Normalized().Dot(toVictim) > 0.5 {
				bestDist = dist
				attacker = q.PlayerID
				attackerTeam = q.Team
			}
		}
	}
	return attacker, attackerTeam
}

func opposing(t rc.Team) rc.Team {
	if t == rc.TeamBlue {
		return rc.TeamOrange
	}
	return rc.TeamBlue
}
