package normalize

import (
	"testing"

	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

func frame(t float64, ballPos rc.Vec3, players ...replay.PlayerState) replay.RawFrame {
	return replay.RawFrame{Timestamp: t, Ball: replay.BallState{Position: ballPos}, Players: players}
}

func player(id string, team rc.Team, pos rc.Vec3) replay.PlayerState {
	return replay.PlayerState{PlayerID: id, Team: team, Position: pos}
}

func TestMeasureFrameHz(t *testing.T) {
	cases := []struct {
		name   string
		deltas []float64
		want   float64
	}{
		{"thirty hz", []float64{1.0 / 30, 1.0 / 30, 1.0 / 30, 1.0 / 30}, 30},
		{"outlier ignored by median", []float64{1.0 / 30, 1.0 / 30, 1.0 / 30, 2.0}, 30},
		{"clamped high", []float64{1.0 / 1000, 1.0 / 1000, 1.0 / 1000}, 240},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			frames := []replay.NormalizedFrame{{Timestamp: 0}}
			ts := 0.0
			for _, d := range c.deltas {
				ts += d
				frames = append(frames, replay.NormalizedFrame{Timestamp: ts})
			}
			got := measureFrameHz(frames)
			if got < c.want-0.5 || got > c.want+0.5 {
				t.Errorf("measureFrameHz() = %v, want ~%v", got, c.want)
			}
		})
	}
}

func TestBuildClampsPositions(t *testing.T) {
	h := &replay.Header{TeamSize: 1, PlayerStats: []replay.PlayerHeaderStat{
		{PlayerID: "steam:1", Team: rc.TeamBlue},
	}}

	// One out-of-bounds sample among many valid ones stays under the
	// corruption threshold, so it clamps rather than zeroes.
	frames := []replay.RawFrame{
		frame(0, rc.Vec3{}, player("actor:1", rc.TeamBlue, rc.Vec3{X: 5000, Y: -6000, Z: -10})),
	}
	for i := 1; i < 30; i++ {
		frames = append(frames, frame(float64(i)/30, rc.Vec3{Y: 100},
			player("actor:1", rc.TeamBlue, rc.Vec3{X: 100})))
	}

	tl, out := Build(h, replay.NetworkFrames{Frames: frames})
	if out.Degraded {
		t.Fatalf("unexpected degradation, oob fraction %v", out.OutOfBoundsFraction)
	}
	p := tl.Frames[0].Players[0]
	if p.Position.X != rc.SideWallX || p.Position.Y != -rc.BackWallY || p.Position.Z != 0 {
		t.Errorf("position not clamped: %+v", p.Position)
	}
}

func TestBuildZeroesCorruptFrames(t *testing.T) {
	// Every sample out of bounds: past the threshold, samples zero out.
	frames := []replay.RawFrame{
		frame(0, rc.Vec3{X: 99999}),
		frame(0.033, rc.Vec3{X: 99999}),
	}
	tl, out := Build(&replay.Header{}, replay.NetworkFrames{Frames: frames})
	if !out.Degraded {
		t.Fatal("expected degraded outcome")
	}
	if got := tl.Frames[0].Ball.Position; got != (rc.Vec3{}) {
		t.Errorf("corrupt ball position not zeroed: %+v", got)
	}
}

func TestIdentityPrecedence(t *testing.T) {
	cases := []struct {
		name     string
		headerID string
		want     string
	}{
		{"steam platform id", "steam:7656119", "steam:7656119"},
		{"epic platform id", "epic:abc", "epic:abc"},
		{"display name slugs", "Cool Player!", "slug:cool-player"},
		{"unknown namespace slugs", "weird:thing", "slug:weird-thing"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := &replay.Header{PlayerStats: []replay.PlayerHeaderStat{
				{PlayerID: c.headerID, Team: rc.TeamBlue},
			}}
			tl, _ := Build(h, replay.NetworkFrames{})
			if len(tl.PlayerIDs) != 1 {
				t.Fatalf("expected 1 identity, got %d", len(tl.PlayerIDs))
			}
			if got := tl.PlayerIDs[0].CanonicalID; got != c.want {
				t.Errorf("canonical = %q, want %q", got, c.want)
			}
		})
	}
}

func TestActorBindsToHeaderIdentity(t *testing.T) {
	h := &replay.Header{PlayerStats: []replay.PlayerHeaderStat{
		{PlayerID: "steam:1", Team: rc.TeamBlue},
		{PlayerID: "psn:2", Team: rc.TeamOrange},
	}}
	nf := replay.NetworkFrames{Frames: []replay.RawFrame{
		frame(0, rc.Vec3{},
			player("actor:10", rc.TeamBlue, rc.Vec3{}),
			player("actor:11", rc.TeamOrange, rc.Vec3{})),
	}}

	tl, _ := Build(h, nf)
	if got := tl.Frames[0].Players[0].PlayerID; got != "steam:1" {
		t.Errorf("blue actor bound to %q, want steam:1", got)
	}
	if got := tl.Frames[0].Players[1].PlayerID; got != "psn:2" {
		t.Errorf("orange actor bound to %q, want psn:2", got)
	}
}

func TestTimelineZeroedAtKickoff(t *testing.T) {
	nf := replay.NetworkFrames{Frames: []replay.RawFrame{
		// Pre-kickoff drift: ball off-center.
		frame(10.0, rc.Vec3{X: 500}),
		// Kickoff: ball at center, then movement.
		frame(10.5, rc.Vec3{Z: 93}),
		{Timestamp: 11.0, Ball: replay.BallState{Position: rc.Vec3{Y: 200, Z: 93}, Velocity: rc.Vec3{Y: 800}}},
	}}

	tl, _ := Build(&replay.Header{}, nf)
	if len(tl.Frames) != 2 {
		t.Fatalf("expected pre-kickoff frame trimmed, got %d frames", len(tl.Frames))
	}
	if tl.Frames[0].Timestamp != 0 {
		t.Errorf("first frame timestamp = %v, want 0", tl.Frames[0].Timestamp)
	}
}

func TestSanitizeDisplayName(t *testing.T) {
	valid := sanitizeDisplayName("plain name")
	if valid != "plain name" {
		t.Errorf("valid UTF-8 changed: %q", valid)
	}
	// 0xE9 alone is invalid UTF-8; Windows-1252 decodes it as é.
	fixed := sanitizeDisplayName(string([]byte{'c', 'a', 'f', 0xE9}))
	if fixed != "café" {
		t.Errorf("sanitizeDisplayName = %q, want café", fixed)
	}
}
