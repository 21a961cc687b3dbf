/*
Package normalize turns the raw parser output into the canonical,
immutable timeline every downstream stage reads: stable player identities,
arena-clamped coordinates, a measured sample rate, and timestamps zero-based
against the first kickoff.
*/
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

const (
	// maxOutOfBoundsFraction is the corrupt-frame rejection threshold:
	// above it the build degrades and out-of-bounds samples are zeroed.
	maxOutOfBoundsFraction = 0.05

	// kickoffBallRadius and kickoffSpeedEps define "ball stationary at
	// origin" for timeline zeroing.
	kickoffBallRadius = 10.0
	kickoffSpeedEps   = 1.0

	// kickoffMoveWindowS bounds how long after a candidate kickoff frame
	// the ball must start moving for the candidate to count.
	kickoffMoveWindowS = 5.0

	minFrameHz = 1.0
	maxFrameHz = 240.0
)

// Outcome reports what the normalizer observed while building the timeline.
type Outcome struct {
	Degraded            bool
	OutOfBoundsFraction float64
	Warnings            []string
}

// Build constructs the canonical timeline from the decoded header and raw
// frame stream. The returned timeline is never nil; with zero input frames
// it carries only the resolved identities so header-only runs still see a
// stable player set.
func Build(h *replay.Header, nf replay.NetworkFrames) (*replay.NormalizedTimeline, Outcome) {
	ids := resolveIdentities(h, nf.Frames)

	var out Outcome
	if len(nf.Frames) == 0 {
		return &replay.NormalizedTimeline{PlayerIDs: ids.identities}, out
	}

	frames, oobFraction := clampFrames(nf.Frames, ids)
	out.OutOfBoundsFraction = oobFraction
	if oobFraction > maxOutOfBoundsFraction {
		out.Degraded = true
		out.Warnings = append(out.Warnings, "out_of_bounds_samples_zeroed")
		zeroOutOfBounds(frames, nf.Frames)
	}

	hz := measureFrameHz(frames)

	start := findFirstKickoff(frames, hz)
	frames = frames[start:]
	t0 := frames[0].Timestamp
	for i := range frames {
		frames[i].Timestamp -= t0
	}

	duration := frames[len(frames)-1].Timestamp

	return &replay.NormalizedTimeline{
		Frames:    frames,
		FrameHz:   hz,
		DurationS: duration,
		PlayerIDs: ids.identities,
	}, out
}

// measureFrameHz returns the reciprocal of the median inter-frame delta,
// clamped to the sane [1, 240] range. Replays are usually ~30 Hz samples of
// the 120 Hz engine; timing-sensitive detectors treat precision as ±1/rate.
func measureFrameHz(frames []replay.NormalizedFrame) float64 {
	if len(frames) < 2 {
		return minFrameHz
	}
	deltas := make([]float64, 0, len(frames)-1)
	for i := 1; i < len(frames); i++ {
		d := frames[i].Timestamp - frames[i-1].Timestamp
		if d > 0 {
			deltas = append(deltas, d)
		}
	}
	if len(deltas) == 0 {
		return minFrameHz
	}
	sort.Float64s(deltas)
	median := deltas[len(deltas)/2]
	if len(deltas)%2 == 0 {
		median = (deltas[len(deltas)/2-1] + deltas[len(deltas)/2]) / 2
	}
	hz := 1 / median
	if hz < minFrameHz {
		return minFrameHz
	}
	if hz > maxFrameHz {
		return maxFrameHz
	}
	return hz
}

// clampFrames copies the raw frames into normalized frames with positions
// clamped into the arena and player IDs canonicalized, returning the
// fraction of sampled positions that were out of bounds.
func clampFrames(raw []replay.RawFrame, ids *identityIndex) ([]replay.NormalizedFrame, float64) {
	frames := make([]replay.NormalizedFrame, len(raw))
	var sampled, oob int

	for i, rf := range raw {
		ballPos, ballOOB := rc.ClampArena(rf.Ball.Position)
		sampled++
		if ballOOB {
			oob++
		}

		players := make([]replay.PlayerState, len(rf.Players))
		for j, p := range rf.Players {
			pos, playerOOB := rc.ClampArena(p.Position)
			sampled++
			if playerOOB {
				oob++
			}
			np := p
			np.Position = pos
			np.PlayerID = ids.canonical(p.PlayerID, p.Team)
			if np.BoostAmount < 0 {
				np.BoostAmount = 0
			} else if np.BoostAmount > 100 {
				np.BoostAmount = 100
			}
			players[j] = np
		}

		frames[i] = replay.NormalizedFrame{
			Timestamp: rf.Timestamp,
			Ball: replay.BallState{
				Position:        ballPos,
				Velocity:        rf.Ball.Velocity,
				AngularVelocity: rf.Ball.AngularVelocity,
			},
			Players: players,
		}
	}

	if sampled == 0 {
		return frames, 0
	}
	return frames, float64(oob) / float64(sampled)
}

// zeroOutOfBounds zeroes the samples that were clamped, used only above the
// corruption threshold where a clamped value would be a fabricated position.
func zeroOutOfBounds(frames []replay.NormalizedFrame, raw []replay.RawFrame) {
	for i := range frames {
		if _, wasOOB := rc.ClampArena(raw[i].Ball.Position); wasOOB {
			frames[i].Ball.Position = rc.Vec3{}
			frames[i].Ball.Velocity = rc.Vec3{}
		}
		for j := range frames[i].Players {
			if _, wasOOB := rc.ClampArena(raw[i].Players[j].Position); wasOOB {
				frames[i].Players[j].Position = rc.Vec3{}
				frames[i].Players[j].Velocity = rc.Vec3{}
			}
		}
	}
}

// findFirstKickoff returns the index of the first frame where the ball sits
// stationary at the origin and starts moving within the move window. Frames
// before it are trimmed; if no kickoff is found the stream starts at 0.
func findFirstKickoff(frames []replay.NormalizedFrame, hz float64) int {
	window := int(kickoffMoveWindowS * hz)
	if window < 1 {
		window = 1
	}
	for i := range frames {
		if !ballAtOrigin(frames[i].Ball) {
			continue
		}
		end := i + window
		if end > len(frames) {
			end = len(frames)
		}
		for j := i + 1; j < end; j++ {
			if frames[j].Ball.Velocity.Length() > kickoffSpeedEps*10 {
				return i
			}
		}
		// A stationary tail with no movement still anchors t=0 when the
		// stream ends inside the window (short synthetic replays).
		if end == len(frames) {
			return i
		}
	}
	return 0
}

// ballAtOrigin checks the XY center only; the resting ball sits above z=0.
func ballAtOrigin(b replay.BallState) bool {
	return math.Hypot(b.Position.X, b.Position.Y) <= kickoffBallRadius &&
		b.Velocity.Length() <= kickoffSpeedEps
}

// identityIndex is the alias map built once per replay: every raw actor ID,
// header index and slug resolves to the same canonical ID.
type identityIndex struct {
	identities []replay.PlayerIdentity
	byAlias    map[string]int
	perTeam    map[rc.Team][]int
	nextByTeam map[rc.Team]int
}

// platformPrefixes are the platform identifier namespaces accepted as an
// explicit platform ID.
var platformPrefixes = []string{"steam", "epic", "psn", "xbox"}

// resolveIdentities derives the canonical player set. Precedence per player:
// explicit platform ID, else the header account row, else a display-name
// slug.
func resolveIdentities(h *replay.Header, frames []replay.RawFrame) *identityIndex {
	idx := &identityIndex{
		byAlias:    map[string]int{},
		perTeam:    map[rc.Team][]int{},
		nextByTeam: map[rc.Team]int{},
	}

	if h != nil {
		for i, st := range h.PlayerStats {
			canonical, display, platforms := canonicalFromHeaderID(st.PlayerID)
			id := replay.PlayerIdentity{
				CanonicalID: canonical,
				DisplayName: display,
				Team:        st.Team,
				Aliases:     []string{st.PlayerID, fmt.Sprintf("header:%d", i)},
				PlatformIDs: platforms,
			}
			n := len(idx.identities)
			idx.identities = append(idx.identities, id)
			idx.byAlias[st.PlayerID] = n
			idx.byAlias[canonical] = n
			idx.perTeam[st.Team] = append(idx.perTeam[st.Team], n)
		}
	}

	// Bind raw actor IDs to header identities in order of first appearance
	// within each team; actors beyond the header roster get slug identities
	// of their own.
	for _, f := range frames {
		for _, p := range f.Players {
			if _, ok := idx.byAlias[p.PlayerID]; ok {
				continue
			}
			idx.bindActor(p.PlayerID, p.Team)
		}
	}

	return idx
}

func (idx *identityIndex) bindActor(actorID string, team rc.Team) {
	slots := idx.perTeam[team]
	next := idx.nextByTeam[team]
	if next < len(slots) {
		n := slots[next]
		idx.nextByTeam[team] = next + 1
		idx.byAlias[actorID] = n
		idx.identities[n].Aliases = append(idx.identities[n].Aliases, actorID)
		return
	}

	// No header row left for this actor; it becomes its own identity.
	canonical := "slug:" + slugify(actorID)
	n := len(idx.identities)
	idx.identities = append(idx.identities, replay.PlayerIdentity{
		CanonicalID: canonical,
		DisplayName: actorID,
		Team:        team,
		Aliases:     []string{actorID},
		PlatformIDs: map[string]string{},
	})
	idx.byAlias[actorID] = n
	idx.byAlias[canonical] = n
	idx.perTeam[team] = append(idx.perTeam[team], n)
	idx.nextByTeam[team] = len(idx.perTeam[team])
}

// canonical maps any known alias to its canonical ID, binding unseen actor
// IDs on first sight so degraded streams with players missing from the
// header still resolve consistently.
func (idx *identityIndex) canonical(alias string, team rc.Team) string {
	if n, ok := idx.byAlias[alias]; ok {
		return idx.identities[n].CanonicalID
	}
	idx.bindActor(alias, team)
	return idx.identities[idx.byAlias[alias]].CanonicalID
}

// canonicalFromHeaderID interprets a header player-ID cell. A
// "platform:account" pair in a known namespace is used verbatim; anything
// else is treated as a display name and slugged.
func canonicalFromHeaderID(raw string) (canonical, display string, platforms map[string]string) {
	platforms = map[string]string{}
	if i := strings.IndexByte(raw, ':'); i > 0 {
		prefix := strings.ToLower(raw[:i])
		for _, p := range platformPrefixes {
			if prefix == p && raw[i+1:] != "" {
				platforms[p] = raw[i+1:]
				return prefix + ":" + raw[i+1:], raw[i+1:], platforms
			}
		}
	}
	display = sanitizeDisplayName(raw)
	return "slug:" + slugify(display), display, platforms
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases and collapses a display name into a stable slug.
func slugify(name string) string {
	s := strings.ToLower(sanitizeDisplayName(name))
	s = slugStrip.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "unknown"
	}
	return s
}

// sanitizeDisplayName repairs non-UTF8 display names. Replays written by
// older builds carry Windows-1252 bytes in name fields; decode those rather
// than dropping the name.
func sanitizeDisplayName(name string) string {
	if utf8.ValidString(name) {
		return name
	}
	decoded, _, err := transform.String(charmap.Windows1252.NewDecoder(), name)
	if err != nil {
		return strings.ToValidUTF8(name, "")
	}
	return decoded
}
