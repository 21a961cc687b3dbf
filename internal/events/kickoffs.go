package events

import (
	"math"
	"sort"

	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

const (
	kickoffBallRadiusUU = 10.0
	kickoffSpeedEps     = 1.0

	kickoffApproachWindowS = 3.0
	kickoffResolveWindowS  = 5.0

	kickoffWingX       = 1500.0
	kickoffBackY       = 3000.0
	kickoffStationary  = 300.0
	kickoffDelayStartS = 0.5
)

// detectKickoffs finds each reset phase (ball resting at center), assigns
// roles by spawn position, classifies approaches from motion plus the
// mechanic stream, and resolves the outcome from the following touches and
// goals.
func detectKickoffs(tl *replay.NormalizedTimeline, touches []replay.TouchEvent, goals []replay.GoalEvent, mechs []replay.MechanicEvent) []replay.KickoffEvent {
	var out []replay.KickoffEvent
	inKickoff := false

	for i := range tl.Frames {
		f := &tl.Frames[i]
		resting := ballResting(f.Ball)
		if !resting {
			inKickoff = false
			continue
		}
		if inKickoff {
			continue
		}
		inKickoff = true

		ev := replay.KickoffEvent{
			T:       f.Timestamp,
			Frame:   i,
			Outcome: rc.KickoffNeutral,
		}
		ev.Participants = classifyParticipants(tl, i, mechs)
		resolveKickoff(&ev, touches, goals)
		out = append(out, ev)
	}
	return out
}

func ballResting(b replay.BallState) bool {
	return math.Hypot(b.Position.X, b.Position.Y) <= kickoffBallRadiusUU &&
		b.Velocity.Length() <= kickoffSpeedEps
}

// classifyParticipants assigns each player's role from the spawn position
// and their approach from how they move over the approach window.
func classifyParticipants(tl *replay.NormalizedTimeline, frame int, mechs []replay.MechanicEvent) []replay.KickoffParticipant {
	f := &tl.Frames[frame]
	t0 := f.Timestamp

	// The player closest to the ball on each team takes GO; the rest
	// classify by spawn geometry.
	closest := map[rc.Team]string{}
	closestDist := map[rc.Team]float64{rc.TeamBlue: math.MaxFloat64, rc.TeamOrange: math.MaxFloat64}
	for _, p := range f.Players {
		d := p.Position.Distance(f.Ball.Position)
		if d < closestDist[p.Team] {
			closestDist[p.Team] = d
			closest[p.Team] = p.PlayerID
		}
	}

	parts := make([]replay.KickoffParticipant, 0, len(f.Players))
	for _, p := range f.Players {
		role := rc.RoleCheat
		switch {
		case closest[p.Team] == p.PlayerID:
			role = rc.RoleGo
		case math.Abs(p.Position.Y) > kickoffBackY:
			role = rc.RoleBack
		case math.Abs(p.Position.X) > kickoffWingX:
			role = rc.RoleWing
		}
		parts = append(parts, replay.KickoffParticipant{
			PlayerID: p.PlayerID,
			Role:     role,
			Approach: classifyApproach(tl, frame, p, t0, mechs),
		})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].PlayerID < parts[j].PlayerID })
	return parts
}

// classifyApproach inspects the player's displacement over the approach
// window and the mechanics they invoked during it.
func classifyApproach(tl *replay.NormalizedTimeline, frame int, p replay.PlayerState, t0 float64, mechs []replay.MechanicEvent) rc.KickoffApproach {
	endPos, endSpeed, firstMoveT, found := motionOverWindow(tl, frame, p.PlayerID, t0)
	if !found {
		return rc.ApproachUnknown
	}

	var sawSpeedflip, sawWavedash, sawHalfFlip, sawFlip bool
	var flipDir *rc.Vec3
	for _, m := range mechs {
		if m.PlayerID != p.PlayerID || m.Timestamp < t0 || m.Timestamp > t0+kickoffApproachWindowS {
			continue
		}
		switch m.Kind {
		case rc.MechSpeedflip:
			sawSpeedflip = true
		case rc.MechWavedash:
			sawWavedash = true
		case rc.MechHalfFlip:
			sawHalfFlip = true
		case rc.MechFlip:
			sawFlip = true
			flipDir = m.Direction
		}
	}

	displacement := endPos.Distance(p.Position)
	towardBall := endPos.Distance(rc.Vec3{}) < p.Position.Distance(rc.Vec3{})

	switch {
	case sawSpeedflip:
		return rc.ApproachSpeedflip
	case sawHalfFlip && !towardBall:
		return rc.ApproachFakeHalfflip
	case displacement < kickoffStationary:
		return rc.ApproachFakeStationary
	case sawWavedash && towardBall:
		return rc.ApproachStandardWavedash
	case !towardBall:
		return rc.ApproachFakeAggressive
	case firstMoveT-t0 > kickoffDelayStartS:
		return rc.ApproachDelay
	case sawFlip && flipDir != nil && diagonalFlip(*flipDir):
		return rc.ApproachStandardDiagonal
	case sawFlip:
		return rc.ApproachStandardFrontflip
	case endSpeed > 1500:
		return rc.ApproachStandardBoost
	default:
		return rc.ApproachStandard
	}
}

// motionOverWindow samples the player's position across the approach
// window, returning where they ended up, their end speed, and when they
// first moved.
func motionOverWindow(tl *replay.NormalizedTimeline, frame int, playerID string, t0 float64) (endPos rc.Vec3, endSpeed float64, firstMoveT float64, found bool) {
	firstMoveT = t0 + kickoffApproachWindowS
	moved := false
	for i := frame; i < len(tl.Frames); i++ {
		f := &tl.Frames[i]
		if f.Timestamp-t0 > kickoffApproachWindowS {
			break
		}
		p, ok := f.PlayerState(playerID)
		if !ok {
			continue
		}
		found = true
		endPos = p.Position
		endSpeed = p.Velocity.Length()
		if !moved && p.Velocity.Length() > 100 {
			moved = true
			firstMoveT = f.Timestamp
		}
	}
	return endPos, endSpeed, firstMoveT, found
}

func diagonalFlip(dir rc.Vec3) bool {
	ax, ay := math.Abs(dir.X), math.Abs(dir.Y)
	if ax == 0 && ay == 0 {
		return false
	}
	ratio := math.Min(ax, ay) / math.Max(ax, ay)
	return ratio > 0.3
}

// resolveKickoff fills first touch, time-to-first-touch, and the outcome.
// GOAL_FOR / GOAL_AGAINST are blue-relative.
func resolveKickoff(ev *replay.KickoffEvent, touches []replay.TouchEvent, goals []replay.GoalEvent) {
	var first *replay.TouchEvent
	for i := range touches {
		if touches[i].T > ev.T {
			first = &touches[i]
			break
		}
	}
	if first == nil || first.T-ev.T > kickoffResolveWindowS {
		return
	}
	ev.FirstTouchPlayer = first.PlayerID
	ev.TimeToFirstTouch = first.T - ev.T

	for _, g := range goals {
		if g.T > ev.T && g.T-ev.T <= kickoffResolveWindowS {
			if g.ScoringTeam == rc.TeamBlue {
				ev.Outcome = rc.KickoffGoalFor
			} else {
				ev.Outcome = rc.KickoffGoalAgainst
			}
			return
		}
	}

	if first.Outcome == rc.Outcome50 {
		return
	}

	// First possession needs confirming: the same team must also take the
	// touch after the first. A lone touch resolves neutral.
	var second *replay.TouchEvent
	for i := range touches {
		if touches[i].T > first.T {
			second = &touches[i]
			break
		}
	}
	if second == nil || second.T-ev.T > kickoffResolveWindowS || second.Team != first.Team {
		return
	}
	if first.Team == rc.TeamBlue {
		ev.Outcome = rc.KickoffFirstPossessionBlue
	} else {
		ev.Outcome = rc.KickoffFirstPossessionOrange
	}
}
