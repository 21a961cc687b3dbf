package events

import (
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

const (
	// goalShotSpeedFloor is the minimum pre-goal ball speed accepted as the
	// shot speed; the goal frame itself is unreliable because the engine
	// resets ball physics on score.
	goalShotSpeedFloor = 500.0

	goalScanBackS = 1.0
	assistWindowS = 5.0
	goalCenterZ   = 321.0
)

// detectGoals converts the authoritative header tickmarks into goal events,
// recovering shot speed and distance from the pre-goal window.
func detectGoals(h *replay.Header, tl *replay.NormalizedTimeline, touches []replay.TouchEvent) []replay.GoalEvent {
	if h == nil {
		return nil
	}
	goals := make([]replay.GoalEvent, 0, len(h.GoalTickmarks))
	for _, tm := range h.GoalTickmarks {
		frame := tm.Frame
		if frame < 0 {
			frame = 0
		}
		if len(tl.Frames) > 0 && frame >= len(tl.Frames) {
			frame = len(tl.Frames) - 1
		}

		g := replay.GoalEvent{
			Frame:        frame,
			ScoringTeam:  tm.ScoringTeam,
			ScorerPlayer: canonicalID(tl, tm.ScorerPlayer),
			OnTarget:     true,
		}

		if len(tl.Frames) > 0 {
			g.T = tl.Frames[frame].Timestamp
			speed, dist := recoverShotSpeed(tl, frame, tm.ScoringTeam)
			g.ShotSpeedUUPS = speed
			g.ShotSpeedKPH = round2(rc.KPH(speed))
			g.DistanceUU = dist
			g.AssistPlayer = findAssist(touches, g.T, tm.ScoringTeam, tm.ScorerPlayer)
		}

		goals = append(goals, g)
	}
	return goals
}

// recoverShotSpeed scans backward from the goal frame up to the scan window
// for the last frame where the ball still carried shot speed, and returns
// that speed plus the distance from there to the goal center.
func recoverShotSpeed(tl *replay.NormalizedTimeline, goalFrame int, scoringTeam rc.Team) (speed, distance float64) {
	goalT := tl.Frames[goalFrame].Timestamp
	goal := rc.Vec3{Y: goalLineY(scoringTeam), Z: goalCenterZ}

	for i := goalFrame; i >= 0; i-- {
		f := &tl.Frames[i]
		if goalT-f.Timestamp > goalScanBackS {
			break
		}
		v := f.Ball.Velocity.Length()
		if v >= goalShotSpeedFloor {
			return v, f.Ball.Position.Distance(goal)
		}
	}
	return 0, 0
}

// findAssist attributes the last same-team touch by another player inside
// the assist window.
func findAssist(touches []replay.TouchEvent, goalT float64, team rc.Team, scorer string) string {
	for i := len(touches) - 1; i >= 0; i-- {
		t := touches[i]
		if t.T >= goalT || goalT-t.T > assistWindowS {
			if t.T >= goalT {
				continue
			}
			break
		}
		if t.Team == team && t.PlayerID != scorer {
			return t.PlayerID
		}
	}
	return ""
}
