package analysis

import (
	"context"
	"testing"

	"github.com/rlcoach/rlcoach/internal/events"
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

func identity(id string, team rc.Team) replay.PlayerIdentity {
	return replay.PlayerIdentity{CanonicalID: id, DisplayName: id, Team: team, Aliases: []string{id}}
}

func TestAggregateHeaderOnlyZeroFills(t *testing.T) {
	in := &Input{
		Header: &replay.Header{TeamSize: 1, PlayerStats: []replay.PlayerHeaderStat{
			{PlayerID: "steam:a", Team: rc.TeamBlue, Goals: 2, Shots: 4, Score: 300},
		}},
		Timeline: &replay.NormalizedTimeline{
			PlayerIDs: []replay.PlayerIdentity{identity("steam:a", rc.TeamBlue)},
		},
		Events:   &events.Result{},
		TeamSize: 1,
	}

	out := Aggregate(context.Background(), in)

	pa, ok := out.PerPlayer["steam:a"]
	if !ok {
		t.Fatal("per_player block missing for known player")
	}
	if pa.Fundamentals.Goals != 2 || pa.Fundamentals.Shots != 4 {
		t.Errorf("fundamentals not taken from header rows: %+v", pa.Fundamentals)
	}
	if pa.Fundamentals.ShootingPct != 50 {
		t.Errorf("shooting pct = %v, want 50", pa.Fundamentals.ShootingPct)
	}
	// Zero network data: every timeline-derived block stays zero-filled
	// but present.
	if pa.Movement.DistanceTravelledUU != 0 || pa.Boost.BPM != 0 {
		t.Errorf("expected zero-filled movement/boost: %+v %+v", pa.Movement, pa.Boost)
	}
	if pa.Heatmaps.Position.XBins != heatmapXBins {
		t.Errorf("heatmap grid not initialized: %+v", pa.Heatmaps.Position)
	}
}

func TestThirdManSuppressedBelowThrees(t *testing.T) {
	tl := &replay.NormalizedTimeline{
		Frames: []replay.NormalizedFrame{
			{
				Timestamp: 0,
				Ball:      replay.BallState{Position: rc.Vec3{Z: 93}},
				Players: []replay.PlayerState{
					{PlayerID: "steam:a", Team: rc.TeamBlue, Position: rc.Vec3{Y: -1000}},
				},
			},
		},
		FrameHz:   30,
		PlayerIDs: []replay.PlayerIdentity{identity("steam:a", rc.TeamBlue)},
	}

	for _, teamSize := range []int{1, 2} {
		in := &Input{Header: &replay.Header{TeamSize: teamSize}, Timeline: tl, Events: &events.Result{}, TeamSize: teamSize}
		out := Aggregate(context.Background(), in)
		if out.PerPlayer["steam:a"].Positioning.ThirdManPct != nil {
			t.Errorf("team_size=%d: third_man_pct should be nil", teamSize)
		}
	}

	in := &Input{Header: &replay.Header{TeamSize: 3}, Timeline: tl, Events: &events.Result{}, TeamSize: 3}
	out := Aggregate(context.Background(), in)
	if out.PerPlayer["steam:a"].Positioning.ThirdManPct == nil {
		t.Error("team_size=3: third_man_pct should be present")
	}
}

func TestKickoffApproachInvariant(t *testing.T) {
	tl := &replay.NormalizedTimeline{
		PlayerIDs: []replay.PlayerIdentity{
			identity("steam:a", rc.TeamBlue),
			identity("steam:b", rc.TeamOrange),
		},
		FrameHz: 30,
	}
	ev := &events.Result{Kickoffs: []replay.KickoffEvent{
		{
			T: 0, Outcome: rc.KickoffNeutral,
			Participants: []replay.KickoffParticipant{
				{PlayerID: "steam:a", Role: rc.RoleGo, Approach: rc.ApproachSpeedflip},
				{PlayerID: "steam:b", Role: rc.RoleGo, Approach: rc.ApproachFakeStationary},
			},
		},
		{
			T: 60, Outcome: rc.KickoffFirstPossessionBlue,
			Participants: []replay.KickoffParticipant{
				{PlayerID: "steam:a", Role: rc.RoleGo, Approach: rc.ApproachStandard},
				{PlayerID: "steam:b", Role: rc.RoleGo, Approach: rc.ApproachStandard},
			},
		},
	}}

	in := &Input{Header: &replay.Header{TeamSize: 1}, Timeline: tl, Events: ev, TeamSize: 1}
	out := Aggregate(context.Background(), in)

	for _, team := range []rc.Team{rc.TeamBlue, rc.TeamOrange} {
		blk := out.PerTeam.Blue
		if team == rc.TeamOrange {
			blk = out.PerTeam.Orange
		}
		k := blk.Kickoffs
		sum := 0
		for _, n := range k.ApproachTypes {
			sum += n
		}
		if sum != k.TotalApproaches {
			t.Errorf("team %v: approach sum %d != total %d", team, sum, k.TotalApproaches)
		}
		if k.TotalApproaches != in.TeamSize*k.Count {
			t.Errorf("team %v: total %d != team_size*count %d", team, k.TotalApproaches, in.TeamSize*k.Count)
		}
	}

	blue := out.PerTeam.Blue.Kickoffs
	if blue.Count != 2 || blue.Neutral != 1 || blue.FirstPossession != 1 {
		t.Errorf("blue kickoffs = %+v", blue)
	}
	if out.PerPlayer["steam:a"].Mechanics.SpeedflipCount != 0 {
		// Approach classification and mechanic counts come from different
		// streams; nothing here implies a speedflip mechanic.
		t.Error("mechanics should be empty without a mechanic stream")
	}
}

func TestXGCountsOnlyShotTouches(t *testing.T) {
	tl := &replay.NormalizedTimeline{
		Frames: []replay.NormalizedFrame{
			{Timestamp: 0, Ball: replay.BallState{Position: rc.Vec3{Y: 3000, Z: 93}}},
		},
		FrameHz:   30,
		PlayerIDs: []replay.PlayerIdentity{identity("steam:a", rc.TeamBlue)},
	}
	ev := &events.Result{Touches: []replay.TouchEvent{
		{T: 1, Frame: 0, PlayerID: "steam:a", Team: rc.TeamBlue, Outcome: rc.OutcomeShot, Position: rc.Vec3{Y: 3000}, BallSpeedUUPS: 2000},
		{T: 2, Frame: 0, PlayerID: "steam:a", Team: rc.TeamBlue, Outcome: rc.OutcomePass, Position: rc.Vec3{Y: 1000}, BallSpeedUUPS: 2000},
		{T: 3, Frame: 0, PlayerID: "steam:a", Team: rc.TeamBlue, Outcome: rc.OutcomeNeutral, Position: rc.Vec3{Y: 0}, BallSpeedUUPS: 900},
	}}

	in := &Input{Header: &replay.Header{TeamSize: 1}, Timeline: tl, Events: ev, TeamSize: 1}
	out := Aggregate(context.Background(), in)

	xg := out.PerPlayer["steam:a"].XG
	if xg.Shots != 1 {
		t.Errorf("xg shots = %d, want 1 (only SHOT outcomes count)", xg.Shots)
	}
	if xg.TotalXG <= 0 {
		t.Errorf("total xg = %v, want > 0", xg.TotalXG)
	}
}

func TestBoostStolenPadCounting(t *testing.T) {
	tl := &replay.NormalizedTimeline{
		Frames: []replay.NormalizedFrame{
			{Timestamp: 0, Players: []replay.PlayerState{
				{PlayerID: "steam:a", Team: rc.TeamBlue, BoostAmount: 50},
			}},
		},
		FrameHz:   30,
		PlayerIDs: []replay.PlayerIdentity{identity("steam:a", rc.TeamBlue)},
	}
	ev := &events.Result{BoostPickups: []replay.BoostPickupEvent{
		{Frame: 0, PlayerID: "steam:a", Team: rc.TeamBlue, PadSide: rc.PadSideOrange, PadSize: rc.PadBig, Stolen: true},
		{Frame: 0, PlayerID: "steam:a", Team: rc.TeamBlue, PadSide: rc.PadSideMid, PadSize: rc.PadBig, Stolen: false},
	}}

	in := &Input{Header: &replay.Header{TeamSize: 1}, Timeline: tl, Events: ev, TeamSize: 1}
	out := Aggregate(context.Background(), in)

	b := out.PerPlayer["steam:a"].Boost
	if b.BigPads != 2 {
		t.Errorf("big pads = %d, want 2", b.BigPads)
	}
	if b.StolenBigPads != 1 {
		t.Errorf("stolen big pads = %d, want 1 (mid pad excluded)", b.StolenBigPads)
	}
}

func TestRecoveryMomentumCapped(t *testing.T) {
	if got := capPct(135); got != 100 {
		t.Errorf("capPct(135) = %v, want 100", got)
	}
	if got := capPct(80); got != 80 {
		t.Errorf("capPct(80) = %v, want 80", got)
	}
}
