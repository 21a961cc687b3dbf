package mechanics

import (
	"testing"

	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// upright is the identity rotation: car-up is world-up, car-forward +X.
var upright = rc.Quat{W: 1}

func timeline(frames []replay.NormalizedFrame) *replay.NormalizedTimeline {
	return &replay.NormalizedTimeline{Frames: frames, FrameHz: 30}
}

func countKind(events []replay.MechanicEvent, kind rc.MechanicKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestDetectJump(t *testing.T) {
	const hz = 30.0
	var frames []replay.NormalizedFrame
	for i := 0; i < 20; i++ {
		ts := float64(i) / hz
		p := replay.PlayerState{
			PlayerID: "p1", Team: rc.TeamBlue,
			Position: rc.Vec3{X: 1000, Y: 500, Z: 17},
			Rotation: upright, IsOnGround: true,
		}
		if i >= 10 {
			// Jump impulse: +300 uu/s along car-up, airborne after.
			p.IsOnGround = false
			p.Position.Z = 17 + float64(i-9)*10
			p.Velocity = rc.Vec3{Z: 300}
		}
		frames = append(frames, replay.NormalizedFrame{
			Timestamp: ts,
			Ball:      replay.BallState{Position: rc.Vec3{Y: 4000, Z: 93}},
			Players:   []replay.PlayerState{p},
		})
	}

	events := Detect(timeline(frames))
	if n := countKind(events, rc.MechJump); n != 1 {
		t.Errorf("jump count = %d, want 1", n)
	}
}

func TestPowerSlide(t *testing.T) {
	const hz = 30.0
	var frames []replay.NormalizedFrame
	for i := 0; i < 30; i++ {
		ts := float64(i) / hz
		p := replay.PlayerState{
			PlayerID: "p1", Team: rc.TeamBlue,
			Position: rc.Vec3{Z: 17}, Rotation: upright, IsOnGround: true,
		}
		if i >= 5 && i < 20 {
			// Forward is +X under the identity quat; an +Y velocity is pure
			// sideways slide.
			p.Velocity = rc.Vec3{Y: 800}
		}
		frames = append(frames, replay.NormalizedFrame{
			Timestamp: ts,
			Ball:      replay.BallState{Position: rc.Vec3{Y: 4000, Z: 93}},
			Players:   []replay.PlayerState{p},
		})
	}

	events := Detect(timeline(frames))
	if n := countKind(events, rc.MechPowerSlide); n != 1 {
		t.Errorf("power slide count = %d, want 1", n)
	}
	for _, e := range events {
		if e.Kind == rc.MechPowerSlide && (e.Duration == nil || *e.Duration < powerSlideSustainS) {
			t.Errorf("power slide duration missing or below sustain: %+v", e.Duration)
		}
	}
}

func TestDribbleDetected(t *testing.T) {
	const hz = 30.0
	var frames []replay.NormalizedFrame
	for i := 0; i < 40; i++ {
		ts := float64(i) / hz
		carPos := rc.Vec3{X: float64(i) * 20, Z: 17}
		p := replay.PlayerState{
			PlayerID: "p1", Team: rc.TeamBlue,
			Position: carPos, Velocity: rc.Vec3{X: 600},
			Rotation: upright, IsOnGround: true,
		}
		ball := replay.BallState{
			Position: carPos.Add(rc.Vec3{Z: 130}),
			Velocity: rc.Vec3{X: 600},
		}
		if i >= 30 {
			// Ball rolls away: the dribble segment ends.
			ball.Position = carPos.Add(rc.Vec3{X: 500, Z: 93})
			ball.Velocity = rc.Vec3{X: 1400}
		}
		frames = append(frames, replay.NormalizedFrame{
			Timestamp: ts, Ball: ball, Players: []replay.PlayerState{p},
		})
	}

	events := Detect(timeline(frames))
	if n := countKind(events, rc.MechDribble); n != 1 {
		t.Errorf("dribble count = %d, want 1", n)
	}
}

func TestStateResetsOnDemolition(t *testing.T) {
	const hz = 30.0
	var frames []replay.NormalizedFrame
	for i := 0; i < 30; i++ {
		ts := float64(i) / hz
		p := replay.PlayerState{
			PlayerID: "p1", Team: rc.TeamBlue,
			Position: rc.Vec3{Z: 500}, Rotation: upright,
		}
		if i == 15 {
			p.IsDemolished = true
		}
		frames = append(frames, replay.NormalizedFrame{
			Timestamp: ts,
			Ball:      replay.BallState{Position: rc.Vec3{Y: 4000, Z: 93}},
			Players:   []replay.PlayerState{p},
		})
	}

	d := &detector{states: map[string]*playerState{}}
	var prevBall rc.Vec3
	for i := range frames {
		dt := 1.0 / hz
		d.step(&frames[i], dt, prevBall, false)
		prevBall = frames[i].Ball.Velocity
	}
	s := d.state("p1")
	if s.hasFlipped || s.flipAvailableFromReset || s.isDribbling {
		t.Errorf("state not reset after demolition: %+v", s)
	}
}

func TestJumpBeforeFlipInvariant(t *testing.T) {
	// A rotation step without a preceding jump must not emit a flip.
	const hz = 30.0
	var frames []replay.NormalizedFrame
	for i := 0; i < 20; i++ {
		ts := float64(i) / hz
		rot := upright
		if i >= 10 {
			// Pitch-down rotation mid-air with no jump impulse recorded.
			rot = rc.Quat{X: 0, Y: 0.5, Z: 0, W: 0.866}
		}
		p := replay.PlayerState{
			PlayerID: "p1", Team: rc.TeamBlue,
			Position: rc.Vec3{Z: 600}, Rotation: rot,
		}
		frames = append(frames, replay.NormalizedFrame{
			Timestamp: ts,
			Ball:      replay.BallState{Position: rc.Vec3{Y: 4000, Z: 93}},
			Players:   []replay.PlayerState{p},
		})
	}

	events := Detect(timeline(frames))
	jumps := countKind(events, rc.MechJump)
	flips := countKind(events, rc.MechFlip)
	if flips > jumps {
		t.Errorf("flip count %d exceeds jump count %d", flips, jumps)
	}
}

func TestAerialSustain(t *testing.T) {
	const hz = 30.0
	var frames []replay.NormalizedFrame
	for i := 0; i < 50; i++ {
		ts := float64(i) / hz
		p := replay.PlayerState{
			PlayerID: "p1", Team: rc.TeamBlue,
			Position: rc.Vec3{Z: 17}, Rotation: upright, IsOnGround: true,
		}
		if i >= 10 {
			p.IsOnGround = false
			p.Position.Z = 500
		}
		frames = append(frames, replay.NormalizedFrame{
			Timestamp: ts,
			Ball:      replay.BallState{Position: rc.Vec3{Y: 4000, Z: 93}},
			Players:   []replay.PlayerState{p},
		})
	}

	events := Detect(timeline(frames))
	if n := countKind(events, rc.MechAerial); n != 1 {
		t.Errorf("aerial count = %d, want 1 (sustained height, deduped)", n)
	}
}
