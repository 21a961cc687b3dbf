package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rlcoach/rlcoach/internal/replay"
)

// RenderMarkdown produces the human-readable dossier from an assembled
// report. The JSON report is the contract; this rendering is a convenience
// view over the same data.
func RenderMarkdown(r *replay.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Match Report — %s\n\n", orUnknown(r.Metadata.Map))
	fmt.Fprintf(&b, "- Playlist: %s\n", r.Metadata.Playlist)
	fmt.Fprintf(&b, "- Duration: %.0f s\n", r.Metadata.DurationSeconds)
	fmt.Fprintf(&b, "- Score: BLUE %d — %d ORANGE\n", r.Teams.Blue.Score, r.Teams.Orange.Score)
	fmt.Fprintf(&b, "- Replay ID: `%s`\n\n", r.ReplayID)

	if len(r.Quality.Warnings) > 0 {
		fmt.Fprintf(&b, "> Quality warnings: %s\n\n", strings.Join(r.Quality.Warnings, ", "))
	}

	b.WriteString("## Players\n\n")
	b.WriteString("| Player | Team | Goals | Assists | Saves | Shots | Score |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	ids := make([]string, 0, len(r.Analysis.PerPlayer))
	for id := range r.Analysis.PerPlayer {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		pa := r.Analysis.PerPlayer[id]
		team := "BLUE"
		for _, p := range r.Players {
			if p.PlayerID == id && p.Team == 1 {
				team = "ORANGE"
			}
		}
		f := pa.Fundamentals
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %d | %d |\n",
			displayName(r, id), team, f.Goals, f.Assists, f.Saves, f.Shots, f.Score)
	}
	b.WriteString("\n")

	if len(r.Events.Goals) > 0 {
		b.WriteString("## Goals\n\n")
		for _, g := range r.Events.Goals {
			scorer := displayName(r, g.ScorerPlayer)
			fmt.Fprintf(&b, "- %.1fs — %s (%s), shot %.1f km/h", g.T, scorer, g.ScoringTeam, g.ShotSpeedKPH)
			if g.AssistPlayer != "" {
				fmt.Fprintf(&b, ", assist %s", displayName(r, g.AssistPlayer))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(r.Analysis.CoachingInsights) > 0 {
		b.WriteString("## Coaching Insights\n\n")
		for _, ins := range r.Analysis.CoachingInsights {
			fmt.Fprintf(&b, "- **%s** — %s\n", ins.Severity, ins.Message)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func displayName(r *replay.Report, id string) string {
	for _, p := range r.Players {
		if p.PlayerID == id && p.DisplayName != "" {
			return p.DisplayName
		}
	}
	if id == "" {
		return "unknown"
	}
	return id
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown map"
	}
	return s
}
