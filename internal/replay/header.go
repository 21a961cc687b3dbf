// Package replay contains the entities shared by every pipeline stage: the
// decoded header, the raw and normalized frame types, player identity, the
// event and mechanic unions, and the final report shape.
package replay

import (
	"time"

	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// Header models the decoded replay header.
type Header struct {
	EngineBuild string
	Playlist    rc.Playlist
	Map         string
	TeamSize    int
	Overtime    bool

	// Mutators is the string->scalar mutator mapping (boost amount,
	// gravity, ball type, ...).
	Mutators map[string]string

	MatchGUID string
	StartedAt time.Time
	Duration  time.Duration

	// GoalTickmarks are the authoritative header-level goal markers; the
	// EventDetector prefers these over inferring goals from the network
	// stream.
	GoalTickmarks []GoalTickmark

	// FinalScore holds the team score as recorded in the header, keyed by
	// rc.Team.
	FinalScore map[rc.Team]int

	// PlayerStats are the authoritative per-player header rows (fundamentals
	// fall back to these when network data is degraded or unavailable).
	PlayerStats []PlayerHeaderStat
}

// GoalTickmark is an authoritative header-level goal marker.
type GoalTickmark struct {
	Frame        int
	ScorerPlayer string // PlayerIdentity.CanonicalID; empty for own-goals with unknown scorer
	ScoringTeam  rc.Team
}

// PlayerHeaderStat is a header-level per-player stat row, used verbatim
// when network parsing is unavailable (header-only mode).
type PlayerHeaderStat struct {
	PlayerID   string
	Team       rc.Team
	Score      int
	Goals      int
	Assists    int
	Saves      int
	Shots      int
	Demos      int
	DemosTaken int
}

// NetworkDiagnostics reports the outcome of parsing the network frame
// stream.
type NetworkDiagnostics struct {
	Status            rc.NetworkStatus
	ErrorCode         string
	ErrorDetail       string
	FramesEmitted     int
	AttemptedBackends []string
}

// PadPickup is an authoritative boost-pad pickup emitted by the adapter
// . EventDetector consumes these directly;
// it never infers pad identity from a player's boost-amount delta.
type PadPickup struct {
	Frame      int
	PlayerID   string
	PlayerTeam rc.Team
	PadID      string
	PadSide    rc.PadSide
	PadSize    rc.PadSize
}

// NetworkFrames is the ordered raw frame stream plus its diagnostics and
// the authoritative pad-pickup stream.
type NetworkFrames struct {
	Frames      []RawFrame
	PadPickups  []PadPickup
	Diagnostics NetworkDiagnostics
}
