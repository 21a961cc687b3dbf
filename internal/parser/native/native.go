package native

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/rlcoach/rlcoach/internal/parser"
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

const (
	name    = "native"
	version = "v1.0.0"
)

// debugBoostEventsEnv gates debug logging in the boost-pickup subsystem
// .
const debugBoostEventsEnv = "RLCOACH_DEBUG_BOOST_EVENTS"

// Adapter is the native ParserAdapter implementation: it decodes both the
// header and network sections of the binary format documented in format.go.
type Adapter struct {
	padTable []pad
}

// New returns a native adapter using the standard-arena pad table. Callers
// analyzing a non-standard map would supply a different table; this module
// only ships the standard one.
func New() *Adapter {
	return &Adapter{padTable: standardPadTable()}
}

func (a *Adapter) Name() string                 { return name }
func (a *Adapter) Version() string              { return version }
func (a *Adapter) SupportsNetworkParsing() bool { return true }

// ParseHeader decodes just the header section. Any decode failure is fatal
// and wrapped in parser.ErrHeaderUndecodable.
func (a *Adapter) ParseHeader(data []byte) (*replay.Header, error) {
	sections, err := splitSections(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", parser.ErrHeaderUndecodable, err)
	}

	h, err := decodeHeaderSection(sections.header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", parser.ErrHeaderUndecodable, err)
	}
	return h, nil
}

// ParseNetwork decodes the network section, degrading instead of failing
// on truncation or unknown bytes. It never returns an error.
func (a *Adapter) ParseNetwork(data []byte) replay.NetworkFrames {
	sections, err := splitSections(data)
	if err != nil {
		return replay.NetworkFrames{
			Diagnostics: replay.NetworkDiagnostics{
				Status:            rc.NetworkUnavailable,
				ErrorCode:         parser.ErrCodeNetworkError,
				ErrorDetail:       parser.TruncateDetail(err.Error()),
				AttemptedBackends: []string{name},
			},
		}
	}

	arena := newActorArena()
	decoded := decodeNetworkSection(sections.network, arena)
	pads := newPadRegistry(a.padTable)

	frames := decoded.Frames
	pickups := buildPadPickupEvents(decoded.PadPickups, frames, pads)

	if decoded.Truncated && decoded.FramesEmitted == 0 {
		return replay.NetworkFrames{
			Diagnostics: replay.NetworkDiagnostics{
				Status:            rc.NetworkUnavailable,
				ErrorCode:         parser.ErrCodeNetworkError,
				ErrorDetail:       parser.TruncateDetail(decoded.TruncatedAt),
				AttemptedBackends: []string{name},
			},
		}
	}

	if decoded.Truncated {
		return replay.NetworkFrames{
			Frames:     frames,
			PadPickups: pickups,
			Diagnostics: replay.NetworkDiagnostics{
				Status:            rc.NetworkDegraded,
				ErrorCode:         pickErrorCode(decoded.TruncatedAt),
				ErrorDetail:       parser.TruncateDetail(decoded.TruncatedAt),
				FramesEmitted:     decoded.FramesEmitted,
				AttemptedBackends: []string{name},
			},
		}
	}

	return replay.NetworkFrames{
		Frames:     frames,
		PadPickups: pickups,
		Diagnostics: replay.NetworkDiagnostics{
			Status:            rc.NetworkOK,
			FramesEmitted:     decoded.FramesEmitted,
			AttemptedBackends: []string{name},
		},
	}
}

func pickErrorCode(detail string) string {
	if strings.Contains(detail, "flags") || strings.Contains(detail, "player") {
		return parser.ErrCodeUnknownAttribute
	}
	return parser.ErrCodeNetworkError
}

// buildPadPickupEvents resolves each raw pickup record to its
// authoritative pad identity; pad side/size come straight
// from the registry, never from a player boost-amount delta.
func buildPadPickupEvents(raw []padPickupRaw, frames []replay.RawFrame, pads *padRegistry) []replay.PadPickup {
	debug := isTruthyEnv(debugBoostEventsEnv)

	out := make([]replay.PadPickup, 0, len(raw))
	for _, p := range raw {
		resolved := pads.resolve(p.ActorID, p.X, p.Y, p.Z)
		if resolved == nil {
			if debug {
				slog.Debug("pad pickup dropped: no table entry within snap radius", "actor", p.ActorID, "x", p.X, "y", p.Y, "z", p.Z)
			}
			continue
		}

		team := teamAtFrame(frames, p.Frame, p.PlayerID)
		if debug {
			slog.Debug("pad pickup resolved", "pad", resolved.ID, "side", resolved.Side, "player", p.PlayerID, "frame", p.Frame)
		}
		out = append(out, replay.PadPickup{
			Frame: p.Frame, PlayerID: p.PlayerID, PlayerTeam: team,
			PadID: resolved.ID, PadSide: resolved.Side, PadSize: resolved.Size,
		})
	}
	return out
}

func teamAtFrame(frames []replay.RawFrame, frame int, playerID string) rc.Team {
	if frame < 0 || frame >= len(frames) {
		return rc.TeamBlue
	}
	for _, p := range frames[frame].Players {
		if p.PlayerID == playerID {
			return p.Team
		}
	}
	return rc.TeamBlue
}

func isTruthyEnv(name string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

// sections holds the raw byte ranges of each top-level section.
type sections struct {
	header  []byte
	network []byte
}

// splitSections validates the magic/version prefix and slices out the
// header and network sections (format.go documents the layout).
func splitSections(data []byte) (sections, error) {
	r := newByteReader(data)
	if len(data) < len(formatMagic) {
		return sections{}, fmt.Errorf("file shorter than magic prefix")
	}
	magic := string(data[:len(formatMagic)])
	if magic != formatMagic {
		return sections{}, fmt.Errorf("bad magic: %q", magic)
	}
	r.pos = len(formatMagic)

	ver, err := r.uint32()
	if err != nil {
		return sections{}, fmt.Errorf("format version: %w", err)
	}
	if ver != formatVersionKnown {
		return sections{}, fmt.Errorf("unsupported format version %d", ver)
	}

	headerSize, err := r.int32()
	if err != nil {
		return sections{}, fmt.Errorf("header size: %w", err)
	}
	if err := r.require(int(headerSize)); err != nil {
		return sections{}, fmt.Errorf("header section: %w", err)
	}
	header := r.b[r.pos : r.pos+int(headerSize)]
	r.pos += int(headerSize)

	networkSize, err := r.int32()
	if err != nil {
		// No network section at all: header-only file.
		return sections{header: header, network: nil}, nil
	}
	end := r.pos + int(networkSize)
	if end > len(r.b) {
		end = len(r.b)
	}
	network := r.b[r.pos:end]

	return sections{header: header, network: network}, nil
}
