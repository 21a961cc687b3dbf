/*
Package events derives the discrete game events — goals, touches, demos,
kickoffs, boost pickups, challenges — from the normalized timeline. Each
detector is independent, reads the timeline once, and never mutates it;
the assembled timeline is ordered by (t, kind priority, insertion index).
*/
package events

import (
	"sort"

	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// Result is the full detected event set. Challenges ride in the timeline
// and the analysis blocks; the report's events section carries the other
// five streams as arrays of their own.
type Result struct {
	Timeline     []replay.Event
	Goals        []replay.GoalEvent
	Demos        []replay.DemoEvent
	Kickoffs     []replay.KickoffEvent
	BoostPickups []replay.BoostPickupEvent
	Touches      []replay.TouchEvent
	Challenges   []replay.ChallengeEvent
}

// Detect runs all six detectors over the timeline. mechs is the mechanic
// stream; kickoff approach classification consumes it.
func Detect(h *replay.Header, tl *replay.NormalizedTimeline, pickups []replay.PadPickup, mechs []replay.MechanicEvent) *Result {
	touches := detectTouches(tl)
	goals := detectGoals(h, tl, touches)
	demos := detectDemos(tl)
	boosts := buildBoostPickups(tl, pickups)
	challenges := detectChallenges(tl, touches)
	kickoffs := detectKickoffs(tl, touches, goals, mechs)

	r := &Result{
		Goals:        goals,
		Demos:        demos,
		Kickoffs:     kickoffs,
		BoostPickups: boosts,
		Touches:      touches,
		Challenges:   challenges,
	}
	r.Timeline = assembleTimeline(r)
	return r
}

// canonicalID resolves any alias (raw header ID, actor ID) through the
// identity alias sets; unknown aliases pass through unchanged.
func canonicalID(tl *replay.NormalizedTimeline, alias string) string {
	if alias == "" {
		return alias
	}
	for _, id := range tl.PlayerIDs {
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

// assembleTimeline merges every stream into one ordered sequence. Stable
// sort preserves insertion order as the final tie-break.
func assembleTimeline(r *Result) []replay.Event {
	var tl []replay.Event
	for i := range r.Goals {
		g := r.Goals[i]
		tl = append(tl, replay.Event{Kind: rc.EventGoal, T: g.T, Frame: g.Frame, Goal: &g})
	}
	for i := range r.Demos {
		d := r.Demos[i]
		tl = append(tl, replay.Event{Kind: rc.EventDemo, T: d.T, Frame: d.Frame, Demo: &d})
	}
	for i := range r.Touches {
		t := r.Touches[i]
		tl = append(tl, replay.Event{Kind: rc.EventTouch, T: t.T, Frame: t.Frame, Touch: &t})
	}
	for i := range r.BoostPickups {
		b := r.BoostPickups[i]
		tl = append(tl, replay.Event{Kind: rc.EventBoostPickup, T: b.T, Frame: b.Frame, BoostPickup: &b})
	}
	for i := range r.Challenges {
		c := r.Challenges[i]
		tl = append(tl, replay.Event{Kind: rc.EventChallenge, T: c.T, Frame: c.Frame, Challenge: &c})
	}
	for i := range r.Kickoffs {
		k := r.Kickoffs[i]
		tl = append(tl, replay.Event{Kind: rc.EventKickoff, T: k.T, Frame: k.Frame, Kickoff: &k})
	}

	sort.SliceStable(tl, func(i, j int) bool {
		if tl[i].T != tl[j].T {
			return tl[i].T < tl[j].T
		}
		return tl[i].Kind.Priority() < tl[j].Kind.Priority()
	})
	return tl
}
