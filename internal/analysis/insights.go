package analysis

import (
	"fmt"
	"sort"

	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// computeInsights runs the rule set against the merged metrics. It executes
// after the analyzer barrier because every rule reads finished blocks.
func computeInsights(in *Input, out *Output) {
	ids := make([]string, 0, len(out.PerPlayer))
	for id := range out.PerPlayer {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		pa := out.PerPlayer[id]
		var insights []replay.Insight

		for _, rule := range insightRules {
			if ins, ok := rule(id, &pa); ok {
				insights = append(insights, ins)
			}
		}

		pa.Insights = insights
		if pa.Insights == nil {
			pa.Insights = []replay.Insight{}
		}
		out.PerPlayer[id] = pa
		out.Insights = append(out.Insights, insights...)
	}
}

// insightRules maps metric thresholds to coaching recommendations. Each
// rule returns its insight plus whether it fired.
var insightRules = []func(id string, pa *replay.PlayerAnalysis) (replay.Insight, bool){
	func(id string, pa *replay.PlayerAnalysis) (replay.Insight, bool) {
		if pa.Boost.AvgBoost > 0 && pa.Boost.AvgBoost < 25 {
			return replay.Insight{
				Severity: rc.SeverityWarning,
				Message:  fmt.Sprintf("%s runs very low on boost (avg %.0f); pick up small pads on rotation", id, pa.Boost.AvgBoost),
				Evidence: map[string]any{"player_id": id, "avg_boost": pa.Boost.AvgBoost},
			}, true
		}
		return replay.Insight{}, false
	},
	func(id string, pa *replay.PlayerAnalysis) (replay.Insight, bool) {
		if pa.Boost.Waste > 100 {
			return replay.Insight{
				Severity: rc.SeveritySuggestion,
				Message:  fmt.Sprintf("%s feathers boost while already supersonic (%.0f wasted); save it for the next play", id, pa.Boost.Waste),
				Evidence: map[string]any{"player_id": id, "boost_waste": pa.Boost.Waste},
			}, true
		}
		return replay.Insight{}, false
	},
	func(id string, pa *replay.PlayerAnalysis) (replay.Insight, bool) {
		if pa.Positioning.BehindBallPct > 0 && pa.Positioning.BehindBallPct < 50 {
			return replay.Insight{
				Severity: rc.SeverityWarning,
				Message:  fmt.Sprintf("%s spends most of the match ahead of the ball (%.1f%% behind); rotate back sooner", id, pa.Positioning.BehindBallPct),
				Evidence: map[string]any{"player_id": id, "behind_ball_pct": pa.Positioning.BehindBallPct},
			}, true
		}
		return replay.Insight{}, false
	},
	func(id string, pa *replay.PlayerAnalysis) (replay.Insight, bool) {
		if pa.RotationCompliance.DoubleCommits >= 3 {
			return replay.Insight{
				Severity: rc.SeverityWarning,
				Message:  fmt.Sprintf("%s double-committed %d times; call the ball or cover the pass", id, pa.RotationCompliance.DoubleCommits),
				Evidence: map[string]any{"player_id": id, "double_commits": pa.RotationCompliance.DoubleCommits},
			}, true
		}
		return replay.Insight{}, false
	},
	func(id string, pa *replay.PlayerAnalysis) (replay.Insight, bool) {
		if pa.Kickoffs.Count > 0 && pa.Mechanics.SpeedflipCount == 0 {
			return replay.Insight{
				Severity: rc.SeverityInfo,
				Message:  fmt.Sprintf("%s took no speedflip kickoffs; learning the speedflip wins neutral kickoffs", id),
				Evidence: map[string]any{"player_id": id, "kickoffs": pa.Kickoffs.Count},
			}, true
		}
		return replay.Insight{}, false
	},
	func(id string, pa *replay.PlayerAnalysis) (replay.Insight, bool) {
		if pa.Challenges.Contests >= 4 && pa.Challenges.Wins*2 < pa.Challenges.Losses {
			return replay.Insight{
				Severity: rc.SeveritySuggestion,
				Message:  fmt.Sprintf("%s loses most 50-50s (%d/%d); arrive with more boost or fake the challenge", id, pa.Challenges.Wins, pa.Challenges.Contests),
				Evidence: map[string]any{"player_id": id, "wins": pa.Challenges.Wins, "contests": pa.Challenges.Contests},
			}, true
		}
		return replay.Insight{}, false
	},
	func(id string, pa *replay.PlayerAnalysis) (replay.Insight, bool) {
		if pa.Recovery.Count >= 5 && pa.Recovery.Failed+pa.Recovery.Poor > pa.Recovery.Count/2 {
			return replay.Insight{
				Severity: rc.SeveritySuggestion,
				Message:  fmt.Sprintf("%s lands poorly after aerials (%d rough landings of %d); practice wavedash recoveries", id, pa.Recovery.Failed+pa.Recovery.Poor, pa.Recovery.Count),
				Evidence: map[string]any{"player_id": id, "rough_landings": pa.Recovery.Failed + pa.Recovery.Poor, "landings": pa.Recovery.Count},
			}, true
		}
		return replay.Insight{}, false
	},
}
