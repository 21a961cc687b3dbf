/*
Package nulladapter implements parser.Adapter as the last-resort fallback: it parses nothing from the network stream and, when asked for
a header, returns a fixed placeholder (unknown build, playlist and map, team
size 1); no header field is read from the file. It is always available and
never fails, which makes it the adapter the pipeline falls back to when the
requested backend is unknown. A panic in the native adapter is not a
fallback case: the pipeline turns it into an error envelope.
*/
package nulladapter

import (
	"time"

	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"

	"github.com/rlcoach/rlcoach/internal/replay"
)

const (
	name    = "null"
	version = "v1.0.0"
)

// Adapter is the null ParserAdapter implementation.
type Adapter struct{}

// New returns a ready-to-use null adapter.
func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Name() string    { return name }
func (a *Adapter) Version() string { return version }

func (a *Adapter) SupportsNetworkParsing() bool { return false }

// ParseHeader never fails: it synthesizes a minimal header so the pipeline
// can still emit a header-only success report.
func (a *Adapter) ParseHeader(data []byte) (*replay.Header, error) {
	return &replay.Header{
		EngineBuild: "unknown",
		Playlist:    rc.PlaylistUnknown,
		Map:         "unknown",
		TeamSize:    1,
		Mutators:    map[string]string{},
		StartedAt:   time.Time{},
		FinalScore:  map[rc.Team]int{},
	}, nil
}

// ParseNetwork always returns a zero-frame stream with status=unavailable.
func (a *Adapter) ParseNetwork(data []byte) replay.NetworkFrames {
	return replay.NetworkFrames{
		Frames: nil,
		Diagnostics: replay.NetworkDiagnostics{
			Status:            rc.NetworkUnavailable,
			AttemptedBackends: []string{name},
		},
	}
}
