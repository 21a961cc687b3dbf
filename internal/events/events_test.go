package events

import (
	"testing"

	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

func testIdentity(id string, team rc.Team) replay.PlayerIdentity {
	return replay.PlayerIdentity{CanonicalID: id, DisplayName: id, Team: team, Aliases: []string{id}}
}

// buildTouchTimeline makes a two-player timeline at 30 Hz where the ball gets
// struck by the blue player partway through.
func buildTouchTimeline() *replay.NormalizedTimeline {
	const hz = 30.0
	var frames []replay.NormalizedFrame
	for i := 0; i < 60; i++ {
		t := float64(i) / hz
		ball := replay.BallState{Position: rc.Vec3{Y: 0, Z: 93}}
		bluePos := rc.Vec3{X: 0, Y: -1000, Z: 17}
		if i >= 30 {
			// After the strike the ball travels toward orange.
			ball.Position = rc.Vec3{Y: float64(i-30) * 40, Z: 93}
			ball.Velocity = rc.Vec3{Y: 1200}
			bluePos = rc.Vec3{Y: ball.Position.Y - 100, Z: 17}
		} else if i >= 28 {
			bluePos = rc.Vec3{Y: -150, Z: 17}
		}
		frames = append(frames, replay.NormalizedFrame{
			Timestamp: t,
			Ball:      ball,
			Players: []replay.PlayerState{
				{PlayerID: "steam:blue", Team: rc.TeamBlue, Position: bluePos, IsOnGround: true},
				{PlayerID: "steam:orange", Team: rc.TeamOrange, Position: rc.Vec3{Y: 3000, Z: 17}, IsOnGround: true},
			},
		})
	}
	return &replay.NormalizedTimeline{
		Frames:  frames,
		FrameHz: hz,
		PlayerIDs: []replay.PlayerIdentity{
			testIdentity("steam:blue", rc.TeamBlue),
			testIdentity("steam:orange", rc.TeamOrange),
		},
	}
}

func TestDetectTouches(t *testing.T) {
	tl := buildTouchTimeline()
	touches := detectTouches(tl)
	if len(touches) == 0 {
		t.Fatal("expected at least one touch")
	}
	first := touches[0]
	if first.PlayerID != "steam:blue" {
		t.Errorf("touch attributed to %q, want steam:blue", first.PlayerID)
	}
	if first.Context != rc.TouchGround {
		t.Errorf("touch context = %v, want GROUND", first.Context)
	}
	if first.BallSpeedUUPS != 1200 {
		t.Errorf("ball speed = %v, want 1200", first.BallSpeedUUPS)
	}
}

func TestTouchDebounce(t *testing.T) {
	tl := buildTouchTimeline()
	// Inject a second velocity step right after the first; within the
	// debounce window it must not produce a second touch for the player.
	tl.Frames[31].Ball.Velocity = rc.Vec3{Y: 1200, X: 400}
	touches := detectTouches(tl)
	for i := 1; i < len(touches); i++ {
		if touches[i].PlayerID == touches[i-1].PlayerID &&
			touches[i].T-touches[i-1].T < touchDebounceS {
			t.Errorf("touches %d and %d inside debounce window", i-1, i)
		}
	}
}

func TestIsStolen(t *testing.T) {
	cases := []struct {
		name string
		team rc.Team
		side rc.PadSide
		want bool
	}{
		{"blue takes orange pad", rc.TeamBlue, rc.PadSideOrange, true},
		{"blue takes own pad", rc.TeamBlue, rc.PadSideBlue, false},
		{"blue takes mid pad", rc.TeamBlue, rc.PadSideMid, false},
		{"orange takes blue pad", rc.TeamOrange, rc.PadSideBlue, true},
		{"orange takes mid pad", rc.TeamOrange, rc.PadSideMid, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := isStolen(c.team, c.side); got != c.want {
				t.Errorf("isStolen(%v, %v) = %v, want %v", c.team, c.side, got, c.want)
			}
		})
	}
}

func TestGoalShotSpeedRecovery(t *testing.T) {
	const hz = 30.0
	var frames []replay.NormalizedFrame
	for i := 0; i < 90; i++ {
		t := float64(i) / hz
		f := replay.NormalizedFrame{Timestamp: t}
		switch {
		case i < 84:
			// Ball flying at 2100 uu/s toward the orange goal.
			f.Ball = replay.BallState{
				Position: rc.Vec3{Y: 4000 + float64(i)*10, Z: 100},
				Velocity: rc.Vec3{Y: 2100},
			}
		default:
			// Post-goal physics reset: velocity zeroed.
			f.Ball = replay.BallState{Position: rc.Vec3{Y: 5120, Z: 100}}
		}
		frames = append(frames, f)
	}
	tl := &replay.NormalizedTimeline{
		Frames:    frames,
		FrameHz:   hz,
		PlayerIDs: []replay.PlayerIdentity{testIdentity("steam:blue", rc.TeamBlue)},
	}
	h := &replay.Header{GoalTickmarks: []replay.GoalTickmark{
		{Frame: 86, ScorerPlayer: "steam:blue", ScoringTeam: rc.TeamBlue},
	}}

	goals := detectGoals(h, tl, nil)
	if len(goals) != 1 {
		t.Fatalf("expected 1 goal, got %d", len(goals))
	}
	if goals[0].ShotSpeedUUPS != 2100 {
		t.Errorf("shot speed = %v, want 2100 (pre-goal peak, not the reset frame)", goals[0].ShotSpeedUUPS)
	}
	wantKPH := 75.6
	if got := goals[0].ShotSpeedKPH; got < wantKPH-0.1 || got > wantKPH+0.1 {
		t.Errorf("shot speed kph = %v, want ~%v", got, wantKPH)
	}
}

func TestTimelineOrdering(t *testing.T) {
	r := &Result{
		Touches: []replay.TouchEvent{{T: 5.0, PlayerID: "a"}},
		Goals:   []replay.GoalEvent{{T: 5.0, ScorerPlayer: "a"}},
		Demos:   []replay.DemoEvent{{T: 5.0, VictimPlayer: "b"}},
	}
	tl := assembleTimeline(r)
	if len(tl) != 3 {
		t.Fatalf("expected 3 events, got %d", len(tl))
	}
	// Equal timestamps break ties by kind priority: GOAL > DEMO > TOUCH.
	if tl[0].Kind != rc.EventGoal || tl[1].Kind != rc.EventDemo || tl[2].Kind != rc.EventTouch {
		t.Errorf("tie-break order wrong: %v %v %v", tl[0].Kind, tl[1].Kind, tl[2].Kind)
	}
}

func TestDetectKickoffRoles(t *testing.T) {
	frames := []replay.NormalizedFrame{
		{
			Timestamp: 0,
			Ball:      replay.BallState{Position: rc.Vec3{Z: 93}},
			Players: []replay.PlayerState{
				{PlayerID: "steam:go", Team: rc.TeamBlue, Position: rc.Vec3{Y: -2000, Z: 17}, IsOnGround: true},
				{PlayerID: "steam:back", Team: rc.TeamBlue, Position: rc.Vec3{Y: -4500, Z: 17}, IsOnGround: true},
				{PlayerID: "steam:wing", Team: rc.TeamBlue, Position: rc.Vec3{X: 2048, Y: -2500, Z: 17}, IsOnGround: true},
			},
		},
	}
	tl := &replay.NormalizedTimeline{
		Frames:  frames,
		FrameHz: 30,
		PlayerIDs: []replay.PlayerIdentity{
			testIdentity("steam:go", rc.TeamBlue),
			testIdentity("steam:back", rc.TeamBlue),
			testIdentity("steam:wing", rc.TeamBlue),
		},
	}

	kickoffs := detectKickoffs(tl, nil, nil, nil)
	if len(kickoffs) != 1 {
		t.Fatalf("expected 1 kickoff, got %d", len(kickoffs))
	}
	roles := map[string]rc.KickoffRole{}
	for _, p := range kickoffs[0].Participants {
		roles[p.PlayerID] = p.Role
	}
	if roles["steam:go"] != rc.RoleGo {
		t.Errorf("go player role = %v", roles["steam:go"])
	}
	if roles["steam:back"] != rc.RoleBack {
		t.Errorf("back player role = %v", roles["steam:back"])
	}
	if roles["steam:wing"] != rc.RoleWing {
		t.Errorf("wing player role = %v", roles["steam:wing"])
	}
}

func TestKickoffLoneTouchResolvesNeutral(t *testing.T) {
	tl := buildTouchTimeline()
	touches := []replay.TouchEvent{{T: 1.1, PlayerID: "steam:blue", Team: rc.TeamBlue}}
	kickoffs := detectKickoffs(tl, touches, nil, nil)
	if len(kickoffs) == 0 {
		t.Fatal("expected a kickoff")
	}
	k := kickoffs[0]
	if k.FirstTouchPlayer != "steam:blue" {
		t.Errorf("first touch = %q", k.FirstTouchPlayer)
	}
	if k.Outcome != rc.KickoffNeutral {
		t.Errorf("outcome = %v, want NEUTRAL for an unconfirmed possession", k.Outcome)
	}
}
