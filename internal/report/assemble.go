/*
Package report assembles the final report object, validates it against the
schema contract, and writes it atomically. Field ordering is deterministic:
struct fields serialize in declaration order and map keys sort, so repeated
runs over the same bytes yield byte-identical output.
*/
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rlcoach/rlcoach/internal/analysis"
	"github.com/rlcoach/rlcoach/internal/events"
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// Inputs carries everything the assembler composes into the report.
type Inputs struct {
	SourceFile string
	FileSHA256 string
	CRCChecked bool

	AdapterName    string
	AdapterVersion string

	Header      *replay.Header
	Diagnostics replay.NetworkDiagnostics
	Timeline    *replay.NormalizedTimeline
	Events      *events.Result
	Analysis    *analysis.Output

	Warnings    []string
	GeneratedAt time.Time
}

// Assemble builds the success-envelope report.
func Assemble(in Inputs) *replay.Report {
	h := in.Header

	r := &replay.Report{
		ReplayID:       replayID(in),
		SourceFile:     in.SourceFile,
		SchemaVersion:  replay.SchemaVersion,
		GeneratedAtUTC: in.GeneratedAt.UTC().Truncate(time.Second),
		Metadata:       assembleMetadata(h, in.Timeline),
		Quality:        assembleQuality(in),
		Teams:          assembleTeams(h, in.Timeline),
		Players:        assemblePlayers(in.Timeline),
		Events:         assembleEvents(in.Events),
		Analysis:       assembleAnalysis(in.Analysis),
	}
	return r
}

// replayID hashes the match GUID when the header carries one, else the file
// hash; with neither, a random correlation ID keeps reports addressable.
func replayID(in Inputs) string {
	if in.Header != nil && in.Header.MatchGUID != "" {
		sum := sha256.Sum256([]byte(in.Header.MatchGUID))
		return hex.EncodeToString(sum[:16])
	}
	if in.FileSHA256 != "" {
		return in.FileSHA256[:32]
	}
	return uuid.NewString()
}

func assembleMetadata(h *replay.Header, tl *replay.NormalizedTimeline) replay.Metadata {
	m := replay.Metadata{
		Playlist:            rc.PlaylistUnknown,
		Mutators:            map[string]string{},
		CoordinateReference: replay.DefaultCoordinateReference(),
	}
	if h != nil {
		m.EngineBuild = h.EngineBuild
		m.Playlist = h.Playlist
		m.Map = h.Map
		m.TeamSize = h.TeamSize
		m.Overtime = h.Overtime
		if h.Mutators != nil {
			m.Mutators = h.Mutators
		}
		m.MatchGUID = h.MatchGUID
		m.StartedAtUTC = h.StartedAt
		m.DurationSeconds = h.Duration.Seconds()
	}
	if tl != nil {
		m.RecordedFrameHz = tl.FrameHz
		m.TotalFrames = len(tl.Frames)
		if m.DurationSeconds == 0 {
			m.DurationSeconds = tl.DurationS
		}
	}
	if m.RecordedFrameHz < 1 {
		m.RecordedFrameHz = 1
	}
	return m
}

func assembleQuality(in Inputs) replay.Quality {
	diag := replay.NetworkDiagnosticsJSON{
		Status:      in.Diagnostics.Status,
		ErrorCode:   in.Diagnostics.ErrorCode,
		ErrorDetail: in.Diagnostics.ErrorDetail,
	}
	if in.Diagnostics.Status != rc.NetworkUnavailable {
		framesEmitted := in.Diagnostics.FramesEmitted
		diag.FramesEmitted = &framesEmitted
	}
	if len(in.Diagnostics.AttemptedBackends) > 0 {
		diag.AttemptedBackends = in.Diagnostics.AttemptedBackends
	}

	warnings := append([]string{}, in.Warnings...)
	sort.Strings(warnings)

	return replay.Quality{
		Parser: replay.ParserQuality{
			Name:               in.AdapterName,
			Version:            in.AdapterVersion,
			ParsedHeader:       in.Header != nil,
			ParsedNetworkData:  in.Diagnostics.Status == rc.NetworkOK || in.Diagnostics.Status == rc.NetworkDegraded,
			CRCChecked:         in.CRCChecked,
			NetworkDiagnostics: diag,
		},
		Warnings: warnings,
	}
}

func assembleTeams(h *replay.Header, tl *replay.NormalizedTimeline) replay.Teams {
	teams := replay.Teams{
		Blue:   replay.TeamReport{Name: "BLUE", Players: []string{}},
		Orange: replay.TeamReport{Name: "ORANGE", Players: []string{}},
	}
	if h != nil {
		teams.Blue.Score = h.FinalScore[rc.TeamBlue]
		teams.Orange.Score = h.FinalScore[rc.TeamOrange]
	}
	if tl != nil {
		for _, id := range tl.PlayerIDs {
			if id.Team == rc.TeamBlue {
				teams.Blue.Players = append(teams.Blue.Players, id.CanonicalID)
			} else {
				teams.Orange.Players = append(teams.Orange.Players, id.CanonicalID)
			}
		}
	}
	sort.Strings(teams.Blue.Players)
	sort.Strings(teams.Orange.Players)
	return teams
}

func assemblePlayers(tl *replay.NormalizedTimeline) []replay.PlayerReport {
	players := []replay.PlayerReport{}
	if tl == nil {
		return players
	}
	for _, id := range tl.PlayerIDs {
		platforms := id.PlatformIDs
		if platforms == nil {
			platforms = map[string]string{}
		}
		players = append(players, replay.PlayerReport{
			PlayerID:    id.CanonicalID,
			DisplayName: id.DisplayName,
			Team:        id.Team,
			PlatformIDs: platforms,
			Camera:      map[string]any{},
			Loadout:     map[string]any{},
		})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].PlayerID < players[j].PlayerID })
	return players
}

func assembleEvents(ev *events.Result) replay.EventsReport {
	out := replay.EventsReport{
		Timeline:     []replay.Event{},
		Goals:        []replay.GoalEvent{},
		Demos:        []replay.DemoEvent{},
		Kickoffs:     []replay.KickoffEvent{},
		BoostPickups: []replay.BoostPickupEvent{},
		Touches:      []replay.TouchEvent{},
	}
	if ev == nil {
		return out
	}
	if ev.Timeline != nil {
		out.Timeline = ev.Timeline
	}
	if ev.Goals != nil {
		out.Goals = ev.Goals
	}
	if ev.Demos != nil {
		out.Demos = ev.Demos
	}
	if ev.Kickoffs != nil {
		out.Kickoffs = ev.Kickoffs
	}
	if ev.BoostPickups != nil {
		out.BoostPickups = ev.BoostPickups
	}
	if ev.Touches != nil {
		out.Touches = ev.Touches
	}
	return out
}

func assembleAnalysis(a *analysis.Output) replay.Analysis {
	out := replay.Analysis{
		PerPlayer:        map[string]replay.PlayerAnalysis{},
		CoachingInsights: []replay.Insight{},
	}
	if a == nil {
		return out
	}
	out.PerTeam = a.PerTeam
	if a.PerPlayer != nil {
		out.PerPlayer = a.PerPlayer
	}
	if a.Insights != nil {
		out.CoachingInsights = a.Insights
	}
	return out
}
