/*
Package analysis computes the per-team and per-player metric blocks. Each
analyzer is a pure function over the immutable timeline, event streams, and
mechanic stream; the aggregator schedules the set declaratively and fans
them out on an errgroup, merging the typed results by explicit field
assignment afterward.

A panicking analyzer is recovered locally: its block stays zero-filled and a
warning is recorded. One bad metric never aborts the run.
*/
package analysis

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/rlcoach/rlcoach/internal/events"
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// Input is the read-only snapshot every analyzer sees.
type Input struct {
	Header    *replay.Header
	Timeline  *replay.NormalizedTimeline
	Events    *events.Result
	Mechanics []replay.MechanicEvent
	TeamSize  int

	dts []float64 // per-frame durations, index-aligned with Timeline.Frames
}

// Output is the merged analyzer result set.
type Output struct {
	PerTeam   replay.PerTeamAnalysis
	PerPlayer map[string]replay.PlayerAnalysis
	Insights  []replay.Insight
	Warnings  []string
}

// assignFn writes one analyzer's typed result into the output. Analyzers
// compute concurrently; assignment happens serially after the barrier, so
// no analyzer ever observes another's writes.
type assignFn func(*Output)

// analyzerTable is the declarative analyzer schedule. Insights are not in
// the table: they read the merged metrics and run after it.
var analyzerTable = []struct {
	name string
	run  func(*Input) assignFn
}{
	{"fundamentals", analyzeFundamentals},
	{"boost", analyzeBoost},
	{"movement", analyzeMovement},
	{"positioning", analyzePositioning},
	{"passing", analyzePassing},
	{"challenges", analyzeChallenges},
	{"kickoffs", analyzeKickoffs},
	{"heatmaps", analyzeHeatmaps},
	{"mechanics", analyzeMechanics},
	{"recovery", analyzeRecovery},
	{"xg", analyzeXG},
	{"defense", analyzeDefense},
	{"ball_prediction", analyzeBallPrediction},
	{"rotation_compliance", analyzeRotation},
}

// Aggregate runs the full analyzer set and merges the results. The output
// always carries a block for both teams and every known player, zero-filled
// where signals are missing.
func Aggregate(ctx context.Context, in *Input) *Output {
	in.dts = frameDurations(in.Timeline)

	out := &Output{PerPlayer: map[string]replay.PlayerAnalysis{}}
	for _, id := range in.Timeline.PlayerIDs {
		pa := replay.PlayerAnalysis{Insights: []replay.Insight{}}
		pa.Kickoffs.ApproachTypes = map[rc.KickoffApproach]int{}
		pa.Heatmaps = replay.HeatmapStats{
			Position:     newGrid(),
			Touches:      newGrid(),
			BoostPickups: newGrid(),
		}
		out.PerPlayer[id.CanonicalID] = pa
	}

	assigns := make([]assignFn, len(analyzerTable))
	warnings := make([]string, len(analyzerTable))

	g, _ := errgroup.WithContext(ctx)
	for i := range analyzerTable {
		i := i
		entry := analyzerTable[i]
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					assigns[i] = nil
					warnings[i] = fmt.Sprintf("analyzer_%s_failed", entry.name)
				}
			}()
			assigns[i] = entry.run(in)
			return nil
		})
	}
	_ = g.Wait()

	for i, a := range assigns {
		if a != nil {
			a(out)
		} else if warnings[i] != "" {
			out.Warnings = append(out.Warnings, warnings[i])
		}
	}

	computeInsights(in, out)
	return out
}

func frameDurations(tl *replay.NormalizedTimeline) []float64 {
	dts := make([]float64, len(tl.Frames))
	fallback := 1.0 / 30
	if tl.FrameHz > 0 {
		fallback = 1.0 / tl.FrameHz
	}
	for i := range tl.Frames {
		if i+1 < len(tl.Frames) {
			d := tl.Frames[i+1].Timestamp - tl.Frames[i].Timestamp
			if d > 0 {
				dts[i] = d
				continue
			}
		}
		dts[i] = fallback
	}
	return dts
}

// teamOf returns a player's team, defaulting to blue for unknown IDs.
func teamOf(in *Input, playerID string) rc.Team {
	for _, id := range in.Timeline.PlayerIDs {
		if id.CanonicalID == playerID {
			return id.Team
		}
	}
	return rc.TeamBlue
}

// mutatePlayer applies f to one player's analysis block.
func mutatePlayer(out *Output, id string, f func(*replay.PlayerAnalysis)) {
	pa, ok := out.PerPlayer[id]
	if !ok {
		pa = replay.PlayerAnalysis{Insights: []replay.Insight{}}
	}
	f(&pa)
	out.PerPlayer[id] = pa
}

// teamBlock selects the mutable team analysis for a side.
func teamBlock(out *Output, team rc.Team) *replay.TeamAnalysis {
	if team == rc.TeamBlue {
		return &out.PerTeam.Blue
	}
	return &out.PerTeam.Orange
}

// signedDepth maps y into attack-positive coordinates for a team: positive
// is toward the opponent goal.
func signedDepth(y float64, team rc.Team) float64 {
	if team == rc.TeamBlue {
		return y
	}
	return -y
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
