package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rlcoach/rlcoach/internal/analysis"
	"github.com/rlcoach/rlcoach/internal/events"
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

func testInputs() Inputs {
	tl := &replay.NormalizedTimeline{
		FrameHz: 30,
		PlayerIDs: []replay.PlayerIdentity{
			{CanonicalID: "steam:a", DisplayName: "Alpha", Team: rc.TeamBlue, PlatformIDs: map[string]string{"steam": "a"}},
			{CanonicalID: "steam:b", DisplayName: "Bravo", Team: rc.TeamOrange, PlatformIDs: map[string]string{"steam": "b"}},
		},
	}
	return Inputs{
		SourceFile:     "match.replay",
		FileSHA256:     strings.Repeat("ab", 32),
		AdapterName:    "native",
		AdapterVersion: "v1.0.0",
		Header: &replay.Header{
			EngineBuild: "build-1",
			Playlist:    rc.PlaylistDuel,
			Map:         "DFH Stadium",
			TeamSize:    1,
			MatchGUID:   "guid-123",
			Duration:    2 * time.Second,
			Mutators:    map[string]string{},
			FinalScore:  map[rc.Team]int{rc.TeamBlue: 1, rc.TeamOrange: 0},
		},
		Diagnostics: replay.NetworkDiagnostics{Status: rc.NetworkOK, FramesEmitted: 3, AttemptedBackends: []string{"native"}},
		Timeline:    tl,
		Events:      &events.Result{},
		Analysis: &analysis.Output{
			PerPlayer: map[string]replay.PlayerAnalysis{
				"steam:a": {Insights: []replay.Insight{}, Kickoffs: replay.KickoffStats{ApproachTypes: map[rc.KickoffApproach]int{}}},
				"steam:b": {Insights: []replay.Insight{}, Kickoffs: replay.KickoffStats{ApproachTypes: map[rc.KickoffApproach]int{}}},
			},
		},
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestAssembleValidates(t *testing.T) {
	r := Assemble(testInputs())
	if err := Validate(r); err != nil {
		t.Fatalf("assembled report failed validation: %v", err)
	}
	if r.SchemaVersion != replay.SchemaVersion {
		t.Errorf("schema version = %q", r.SchemaVersion)
	}
	if len(r.Teams.Blue.Players) != 1 || r.Teams.Blue.Players[0] != "steam:a" {
		t.Errorf("blue roster = %v", r.Teams.Blue.Players)
	}
	if !r.Quality.Parser.ParsedNetworkData {
		t.Error("parsed_network_data should be true for status=ok")
	}
	if r.Metadata.CoordinateReference.SideWallX != 4096 ||
		r.Metadata.CoordinateReference.BackWallY != 5120 ||
		r.Metadata.CoordinateReference.CeilingZ != 2044 {
		t.Errorf("coordinate reference = %+v", r.Metadata.CoordinateReference)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	in := testInputs()
	a, err := Marshal(Assemble(in))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Marshal(Assemble(in))
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("repeated assembly over the same inputs is not byte-identical")
	}
}

func TestReportRoundTrip(t *testing.T) {
	r := Assemble(testInputs())
	data, err := Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var back replay.Report
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("round-trip unmarshal: %v", err)
	}
	if back.ReplayID != r.ReplayID || back.Metadata.Map != r.Metadata.Map {
		t.Error("round-trip lost top-level fields")
	}
	if len(back.Analysis.PerPlayer) != len(r.Analysis.PerPlayer) {
		t.Error("round-trip lost per-player analysis")
	}
}

func TestErrorEnvelopeExclusivity(t *testing.T) {
	env := replay.NewErrorEnvelope("truncated header")
	data, err := Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	var keys map[string]any
	if err := json.Unmarshal(data, &keys); err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Errorf("error envelope carries %d keys, want exactly 2: %v", len(keys), keys)
	}
	if keys["error"] != "unreadable_replay_file" {
		t.Errorf("error = %v", keys["error"])
	}
}

func TestErrorEnvelopeTruncatesDetails(t *testing.T) {
	env := replay.NewErrorEnvelope(strings.Repeat("x", 600))
	if len(env.Details) != 512 {
		t.Errorf("details length = %d, want 512", len(env.Details))
	}
}

func TestValidateRejectsUnknownPlayerRef(t *testing.T) {
	r := Assemble(testInputs())
	r.Events.Timeline = append(r.Events.Timeline, replay.Event{
		Kind: rc.EventTouch, T: 1,
		Touch: &replay.TouchEvent{PlayerID: "steam:ghost"},
	})
	if err := Validate(r); err == nil {
		t.Error("expected validation failure for unknown player reference")
	}
}

func TestValidateRejectsInconsistentStolenFlag(t *testing.T) {
	r := Assemble(testInputs())
	r.Events.BoostPickups = append(r.Events.BoostPickups, replay.BoostPickupEvent{
		PlayerID: "steam:a", Team: rc.TeamBlue, PadSide: rc.PadSideMid, Stolen: true,
	})
	if err := Validate(r); err == nil {
		t.Error("expected validation failure for stolen mid pad")
	}
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	if err := WriteAtomic(path, []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("content = %q", data)
	}

	// Overwrite in place; no temp file may remain.
	if err := WriteAtomic(path, []byte(`{"a":2}`)); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the target", len(entries))
	}
}
