package report

import (
	"fmt"

	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// Validate enforces the schema contract on an assembled report. A failure
// here is an engine bug, never a user error: the pipeline aborts with exit
// code 4 rather than emit a malformed report.
func Validate(r *replay.Report) error {
	if r.ReplayID == "" {
		return fmt.Errorf("replay_id empty")
	}
	if r.SchemaVersion != replay.SchemaVersion {
		return fmt.Errorf("schema_version %q does not match %q", r.SchemaVersion, replay.SchemaVersion)
	}
	if r.Metadata.TeamSize < 0 || r.Metadata.TeamSize > 4 {
		return fmt.Errorf("team_size %d out of range", r.Metadata.TeamSize)
	}
	if r.Metadata.RecordedFrameHz < 1 || r.Metadata.RecordedFrameHz > 240 {
		return fmt.Errorf("recorded_frame_hz %v out of range", r.Metadata.RecordedFrameHz)
	}

	switch r.Quality.Parser.NetworkDiagnostics.Status {
	case rc.NetworkOK, rc.NetworkDegraded, rc.NetworkUnavailable:
	default:
		return fmt.Errorf("unknown network status %q", r.Quality.Parser.NetworkDiagnostics.Status)
	}
	if len(r.Quality.Parser.NetworkDiagnostics.ErrorDetail) > 512 {
		return fmt.Errorf("error_detail exceeds 512 chars")
	}

	known := map[string]bool{}
	for _, p := range r.Players {
		if p.PlayerID == "" {
			return fmt.Errorf("player with empty id")
		}
		if known[p.PlayerID] {
			return fmt.Errorf("duplicate player id %q", p.PlayerID)
		}
		known[p.PlayerID] = true
	}

	for _, id := range append(append([]string{}, r.Teams.Blue.Players...), r.Teams.Orange.Players...) {
		if !known[id] {
			return fmt.Errorf("team roster references unknown player %q", id)
		}
	}

	for i, ev := range r.Events.Timeline {
		if err := validateEventRef(&ev, known); err != nil {
			return fmt.Errorf("timeline[%d]: %w", i, err)
		}
	}
	for i, b := range r.Events.BoostPickups {
		wantStolen := b.PadSide != rc.PadSideMid && padSideOf(b.Team) != b.PadSide
		if b.Stolen != wantStolen {
			return fmt.Errorf("boost_pickups[%d]: stolen=%v inconsistent with team %v pad side %v", i, b.Stolen, b.Team, b.PadSide)
		}
	}

	for id, pa := range r.Analysis.PerPlayer {
		if !known[id] {
			return fmt.Errorf("analysis.per_player references unknown player %q", id)
		}
		if total := sumApproaches(pa.Kickoffs.ApproachTypes); total != pa.Kickoffs.TotalApproaches {
			return fmt.Errorf("player %q kickoff approaches %d != total_approaches %d", id, total, pa.Kickoffs.TotalApproaches)
		}
		if pa.Boost.AvgBoost < 0 || pa.Boost.AvgBoost > 100 {
			return fmt.Errorf("player %q avg_boost %v out of range", id, pa.Boost.AvgBoost)
		}
	}

	return nil
}

// validateEventRef checks the player references an event carries. A
// non-empty reference must name a known player; an empty reference is
// accepted for every field, not only for kickoff first touches,
// unattributed demos and own-goal scorers.
func validateEventRef(ev *replay.Event, known map[string]bool) error {
	check := func(id, field string) error {
		if id != "" && !known[id] {
			return fmt.Errorf("%s references unknown player %q", field, id)
		}
		return nil
	}
	switch {
	case ev.Goal != nil:
		if err := check(ev.Goal.ScorerPlayer, "scorer_player"); err != nil {
			return err
		}
		return check(ev.Goal.AssistPlayer, "assist_player")
	case ev.Demo != nil:
		if err := check(ev.Demo.VictimPlayer, "victim_player"); err != nil {
			return err
		}
		return check(ev.Demo.AttackerPlayer, "attacker_player")
	case ev.Touch != nil:
		return check(ev.Touch.PlayerID, "player_id")
	case ev.BoostPickup != nil:
		return check(ev.BoostPickup.PlayerID, "player_id")
	case ev.Challenge != nil:
		for _, id := range ev.Challenge.Players {
			if err := check(id, "players"); err != nil {
				return err
			}
		}
		return nil
	case ev.Kickoff != nil:
		for _, p := range ev.Kickoff.Participants {
			if err := check(p.PlayerID, "players"); err != nil {
				return err
			}
		}
		return check(ev.Kickoff.FirstTouchPlayer, "first_touch_player")
	default:
		return fmt.Errorf("event kind %q carries no payload", ev.Kind)
	}
}

func padSideOf(team rc.Team) rc.PadSide {
	if team == rc.TeamBlue {
		return rc.PadSideBlue
	}
	return rc.PadSideOrange
}

func sumApproaches(m map[rc.KickoffApproach]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}
