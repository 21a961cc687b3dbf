package pipeline

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
	"github.com/rlcoach/rlcoach/internal/report"
)

// replayWriter builds synthetic replay bytes in the native format.
type replayWriter struct{ buf bytes.Buffer }

func (w *replayWriter) b(v byte)     { w.buf.WriteByte(v) }
func (w *replayWriter) u16(v uint16) { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *replayWriter) i32(v int32)  { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *replayWriter) u32(v uint32) { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *replayWriter) i64(v int64)  { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *replayWriter) f32(v float32) {
	binary.Write(&w.buf, binary.LittleEndian, math.Float32bits(v))
}
func (w *replayWriter) f64(v float64) {
	binary.Write(&w.buf, binary.LittleEndian, math.Float64bits(v))
}
func (w *replayWriter) str(s string) {
	w.u16(uint16(len(s)))
	w.buf.WriteString(s)
}
func (w *replayWriter) vec3(x, y, z float32) { w.f32(x); w.f32(y); w.f32(z) }

// buildHeader encodes a two-player duel header.
func buildHeader() []byte {
	var w replayWriter
	w.str("build-2026")
	w.b(0) // DUEL
	w.str("DFH Stadium")
	w.b(1) // team size
	w.b(0) // overtime false
	w.u16(0)
	w.str("guid-test-1")
	w.i64(1750000000)
	w.f64(2.0)
	w.u16(0) // no goal tickmarks
	w.i32(0)
	w.i32(0)
	w.u16(2)
	for _, p := range []struct {
		id   string
		team byte
	}{{"steam:alpha", 0}, {"steam:bravo", 1}} {
		w.str(p.id)
		w.b(p.team)
		for i := 0; i < 7; i++ {
			w.i32(0)
		}
	}
	return w.buf.Bytes()
}

type testPlayer struct {
	actor      uint32
	team       byte
	x, y, z    float32
	vx, vy, vz float32
	boost      byte
}

func writeFrame(w *replayWriter, ts float64, ballPos, ballVel [3]float32, players []testPlayer) {
	w.f64(ts)
	w.vec3(ballPos[0], ballPos[1], ballPos[2])
	w.vec3(ballVel[0], ballVel[1], ballVel[2])
	w.vec3(0, 0, 0)
	w.b(byte(len(players)))
	for _, p := range players {
		w.u32(p.actor)
		w.b(p.team)
		w.vec3(p.x, p.y, p.z)
		w.vec3(p.vx, p.vy, p.vz)
		w.f32(0)
		w.f32(0)
		w.f32(0)
		w.f32(1) // identity quat
		w.b(p.boost)
		w.b(0x02) // on ground
	}
}

// buildNetwork encodes a short frame stream: a kickoff, then the ball
// moving after a touch.
func buildNetwork(frameCount int, declareCount int) []byte {
	var w replayWriter
	w.i32(int32(declareCount))
	players := func(t float64) []testPlayer {
		return []testPlayer{
			{actor: 10, team: 0, x: 0, y: -2000, z: 17, boost: 85},
			{actor: 11, team: 1, x: 0, y: 2000, z: 17, boost: 85},
		}
	}
	for i := 0; i < frameCount; i++ {
		ts := float64(i) / 30
		ballPos := [3]float32{0, 0, 93}
		ballVel := [3]float32{}
		if i >= 30 {
			ballPos = [3]float32{0, float32(i-30) * 40, 93}
			ballVel = [3]float32{0, 1200, 0}
		}
		ps := players(ts)
		if i >= 28 {
			ps[0].y = -150
		}
		writeFrame(&w, ts, ballPos, ballVel, ps)
	}
	if frameCount == declareCount {
		w.u16(0) // no pad pickups
	}
	return w.buf.Bytes()
}

func buildReplayFile(t *testing.T, network []byte) string {
	t.Helper()
	header := buildHeader()

	var w replayWriter
	w.buf.WriteString("RLRP")
	w.u32(1)
	w.i32(int32(len(header)))
	w.buf.Write(header)
	w.i32(int32(len(network)))
	w.buf.Write(network)

	// Pad past the ingest minimum.
	if pad := 11*1024 - w.buf.Len(); pad > 0 {
		w.buf.Write(make([]byte, pad))
	}

	path := filepath.Join(t.TempDir(), "match.replay")
	if err := os.WriteFile(path, w.buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
}

func TestRunSuccessEnvelope(t *testing.T) {
	path := buildReplayFile(t, buildNetwork(60, 60))

	res := Run(context.Background(), path, Options{Clock: fixedClock()})
	if res.Err != nil {
		t.Fatalf("unexpected error envelope: %+v", res.Err)
	}
	r := res.Report

	if r.Metadata.Playlist != rc.PlaylistDuel || r.Metadata.TeamSize != 1 {
		t.Errorf("metadata = %+v", r.Metadata)
	}
	if r.Quality.Parser.NetworkDiagnostics.Status != rc.NetworkOK {
		t.Errorf("network status = %v", r.Quality.Parser.NetworkDiagnostics.Status)
	}
	if len(r.Players) != 2 {
		t.Fatalf("players = %d, want 2", len(r.Players))
	}
	if len(r.Events.Kickoffs) == 0 {
		t.Error("expected a kickoff event")
	}
	if _, ok := r.Analysis.PerPlayer["steam:alpha"]; !ok {
		t.Errorf("per_player missing steam:alpha: have %v", keys(r.Analysis.PerPlayer))
	}
}

func TestRunDeterministic(t *testing.T) {
	path := buildReplayFile(t, buildNetwork(60, 60))
	opts := Options{Clock: fixedClock()}

	a := Run(context.Background(), path, opts)
	b := Run(context.Background(), path, opts)
	if a.Err != nil || b.Err != nil {
		t.Fatalf("unexpected errors: %v %v", a.Err, b.Err)
	}
	da, err := report.Marshal(a.Report)
	if err != nil {
		t.Fatal(err)
	}
	db, err := report.Marshal(b.Report)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(da, db) {
		t.Error("two runs over the same bytes are not byte-identical")
	}
}

func TestRunDegradedNetwork(t *testing.T) {
	// Declare more frames than are present: the decoder truncates
	// mid-stream and degrades instead of failing.
	path := buildReplayFile(t, buildNetwork(40, 100))

	res := Run(context.Background(), path, Options{Clock: fixedClock()})
	if res.Err != nil {
		t.Fatalf("unexpected error envelope: %+v", res.Err)
	}
	diag := res.Report.Quality.Parser.NetworkDiagnostics
	if diag.Status != rc.NetworkDegraded {
		t.Fatalf("status = %v, want degraded", diag.Status)
	}
	if diag.FramesEmitted == nil || *diag.FramesEmitted != 40 {
		t.Errorf("frames_emitted = %v, want 40", diag.FramesEmitted)
	}
	if !contains(res.Report.Quality.Warnings, "network_parse_degraded") {
		t.Errorf("warnings = %v, want network_parse_degraded", res.Report.Quality.Warnings)
	}
	if contains(res.Report.Quality.Warnings, "header_only_mode_limited_metrics") {
		t.Error("header-only warning must not fire when partial network data exists")
	}
}

func TestRunHeaderOnly(t *testing.T) {
	// Zero-length network section: no frames at all.
	path := buildReplayFile(t, nil)

	res := Run(context.Background(), path, Options{Clock: fixedClock()})
	if res.Err != nil {
		t.Fatalf("unexpected error envelope: %+v", res.Err)
	}
	r := res.Report
	if r.Quality.Parser.NetworkDiagnostics.Status != rc.NetworkUnavailable {
		t.Errorf("status = %v, want unavailable", r.Quality.Parser.NetworkDiagnostics.Status)
	}
	if !contains(r.Quality.Warnings, "header_only_mode_limited_metrics") {
		t.Errorf("warnings = %v, want header_only_mode_limited_metrics", r.Quality.Warnings)
	}
	// Analysis blocks stay present and zero-filled.
	if _, ok := r.Analysis.PerPlayer["steam:alpha"]; !ok {
		t.Error("per_player missing in header-only mode")
	}
}

func TestRunUnreadableFile(t *testing.T) {
	// Valid magic, truncated header: undersized for ingest.
	path := filepath.Join(t.TempDir(), "truncated.replay")
	data := append([]byte("RLRP"), make([]byte, 8*1024)...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	res := Run(context.Background(), path, Options{Clock: fixedClock()})
	if res.Err == nil {
		t.Fatal("expected the error envelope")
	}
	if res.Err.Error != "unreadable_replay_file" {
		t.Errorf("error = %q", res.Err.Error)
	}
	if res.Report != nil {
		t.Error("error and success envelopes are mutually exclusive")
	}
}

func TestRunNullAdapter(t *testing.T) {
	path := buildReplayFile(t, buildNetwork(60, 60))
	res := Run(context.Background(), path, Options{AdapterName: "null", Clock: fixedClock()})
	if res.Err != nil {
		t.Fatalf("unexpected error envelope: %+v", res.Err)
	}
	if res.Report.Quality.Parser.Name != "null" {
		t.Errorf("parser name = %q", res.Report.Quality.Parser.Name)
	}
	if res.Report.Quality.Parser.NetworkDiagnostics.Status != rc.NetworkUnavailable {
		t.Errorf("null adapter must report unavailable network data")
	}
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}

func keys(m map[string]replay.PlayerAnalysis) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
