package native

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

type sectionWriter struct{ buf bytes.Buffer }

func (w *sectionWriter) b(v byte)     { w.buf.WriteByte(v) }
func (w *sectionWriter) u16(v uint16) { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *sectionWriter) i32(v int32)  { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *sectionWriter) u32(v uint32) { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *sectionWriter) i64(v int64)  { binary.Write(&w.buf, binary.LittleEndian, v) }
func (w *sectionWriter) f32(v float32) {
	binary.Write(&w.buf, binary.LittleEndian, math.Float32bits(v))
}
func (w *sectionWriter) f64(v float64) {
	binary.Write(&w.buf, binary.LittleEndian, math.Float64bits(v))
}
func (w *sectionWriter) str(s string) {
	w.u16(uint16(len(s)))
	w.buf.WriteString(s)
}

func minimalHeaderSection() []byte {
	var w sectionWriter
	w.str("build-x")
	w.b(1) // DOUBLES
	w.str("DFH Stadium")
	w.b(2)
	w.b(1) // overtime
	w.u16(1)
	w.str("BallType")
	w.str("Default")
	w.str("guid-42")
	w.i64(1700000000)
	w.f64(321.5)
	w.u16(1)
	w.i32(900)
	w.str("steam:scorer")
	w.b(1)
	w.i32(2)
	w.i32(3)
	w.u16(0)
	return w.buf.Bytes()
}

func wrapFile(header, network []byte) []byte {
	var w sectionWriter
	w.buf.WriteString(formatMagic)
	w.u32(formatVersionKnown)
	w.i32(int32(len(header)))
	w.buf.Write(header)
	w.i32(int32(len(network)))
	w.buf.Write(network)
	return w.buf.Bytes()
}

func TestParseHeader(t *testing.T) {
	data := wrapFile(minimalHeaderSection(), nil)
	h, err := New().ParseHeader(data)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Playlist != rc.PlaylistDoubles || h.TeamSize != 2 || !h.Overtime {
		t.Errorf("header = %+v", h)
	}
	if h.Mutators["BallType"] != "Default" {
		t.Errorf("mutators = %v", h.Mutators)
	}
	if len(h.GoalTickmarks) != 1 || h.GoalTickmarks[0].Frame != 900 ||
		h.GoalTickmarks[0].ScoringTeam != rc.TeamOrange {
		t.Errorf("tickmarks = %+v", h.GoalTickmarks)
	}
	if h.FinalScore[rc.TeamBlue] != 2 || h.FinalScore[rc.TeamOrange] != 3 {
		t.Errorf("final score = %v", h.FinalScore)
	}
	if h.Duration.Seconds() != 321.5 {
		t.Errorf("duration = %v", h.Duration)
	}
}

func TestParseHeaderTruncatedIsFatal(t *testing.T) {
	full := minimalHeaderSection()
	data := wrapFile(full[:len(full)/2], nil)
	if _, err := New().ParseHeader(data); err == nil {
		t.Fatal("expected a header decode error")
	}
}

func TestParseNetworkTruncationDegrades(t *testing.T) {
	var w sectionWriter
	w.i32(5) // declare five frames, provide one complete and one cut short
	// frame 0
	w.f64(0)
	for i := 0; i < 9; i++ {
		w.f32(0)
	}
	w.b(0)
	// frame 1: timestamp only
	w.f64(0.033)

	data := wrapFile(minimalHeaderSection(), w.buf.Bytes())
	nf := New().ParseNetwork(data)

	if nf.Diagnostics.Status != rc.NetworkDegraded {
		t.Fatalf("status = %v, want degraded", nf.Diagnostics.Status)
	}
	if nf.Diagnostics.FramesEmitted != 1 {
		t.Errorf("frames emitted = %d, want 1", nf.Diagnostics.FramesEmitted)
	}
	if nf.Diagnostics.ErrorCode == "" {
		t.Error("degraded parse must carry an error code")
	}
	if len(nf.Diagnostics.ErrorDetail) > 512 {
		t.Error("error detail exceeds the schema bound")
	}
}

func TestPadRegistrySnapsWithinTolerance(t *testing.T) {
	pads := newPadRegistry(standardPadTable())

	// Slightly off the canonical big-pad spot at (-3584, 0).
	p := pads.resolve(1, -3500, 40, 73)
	if p == nil {
		t.Fatal("pad did not snap within tolerance")
	}
	if p.Size != rc.PadBig {
		t.Errorf("snapped to %v, want a big pad", p.Size)
	}

	// Far from any pad: no guess.
	if q := pads.resolve(2, -2500, 500, 73); q != nil {
		t.Errorf("resolve far from any pad = %+v, want nil", q)
	}

	// The actor binding is cached.
	if again := pads.resolve(1, 0, 0, 0); again != p {
		t.Error("pad resolution not cached by actor id")
	}
}
