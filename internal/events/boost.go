package events

import (
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// buildBoostPickups converts the adapter's authoritative pad pickups into
// events. Pad identity always comes from the registry record on the pickup;
// a boost-delta cross-check never overrides it.
func buildBoostPickups(tl *replay.NormalizedTimeline, pickups []replay.PadPickup) []replay.BoostPickupEvent {
	out := make([]replay.BoostPickupEvent, 0, len(pickups))
	for _, p := range pickups {
		frame := p.Frame
		if frame < 0 {
			frame = 0
		}
		var t float64
		if len(tl.Frames) > 0 {
			if frame >= len(tl.Frames) {
				frame = len(tl.Frames) - 1
			}
			t = tl.Frames[frame].Timestamp
		}
		out = append(out, replay.BoostPickupEvent{
			T:        t,
			Frame:    frame,
			PlayerID: canonicalID(tl, p.PlayerID),
			Team:     p.PlayerTeam,
			PadID:    p.PadID,
			PadSide:  p.PadSide,
			PadSize:  p.PadSize,
			Stolen:   isStolen(p.PlayerTeam, p.PadSide),
		})
	}
	return out
}

// isStolen is the single stolen-pad rule: the pad sits on the opponent's
// half. Midfield pads are never stolen.
func isStolen(team rc.Team, side rc.PadSide) bool {
	if side == rc.PadSideMid {
		return false
	}
	teamSide := rc.PadSideBlue
	if team == rc.TeamOrange {
		teamSide = rc.PadSideOrange
	}
	return side != teamSide
}
