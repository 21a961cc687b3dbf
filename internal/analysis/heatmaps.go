package analysis

import (
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// Heatmap grids span the arena in arena units: the report's coordinate
// reference is in arena units, and a second normalization convention in the
// same document would be a trap for consumers.
const (
	heatmapXBins = 24
	heatmapYBins = 16
)

func newGrid() replay.HeatmapGrid {
	cells := make([][]int, heatmapYBins)
	for i := range cells {
		cells[i] = make([]int, heatmapXBins)
	}
	return replay.HeatmapGrid{
		XBins:   heatmapXBins,
		YBins:   heatmapYBins,
		ExtentX: rc.SideWallX,
		ExtentY: rc.BackWallY,
		Cells:   cells,
	}
}

func gridAdd(g *replay.HeatmapGrid, pos rc.Vec3) {
	x := int((pos.X + rc.SideWallX) / (2 * rc.SideWallX) * float64(g.XBins))
	y := int((pos.Y + rc.BackWallY) / (2 * rc.BackWallY) * float64(g.YBins))
	if x < 0 {
		x = 0
	} else if x >= g.XBins {
		x = g.XBins - 1
	}
	if y < 0 {
		y = 0
	} else if y >= g.YBins {
		y = g.YBins - 1
	}
	g.Cells[y][x]++
}

func gridMerge(dst *replay.HeatmapGrid, src replay.HeatmapGrid) {
	for y := range src.Cells {
		for x := range src.Cells[y] {
			dst.Cells[y][x] += src.Cells[y][x]
		}
	}
}

// analyzeHeatmaps accumulates position, touch, and boost-pickup occupancy
// grids per player, merged per team.
func analyzeHeatmaps(in *Input) assignFn {
	perPlayer := map[string]*replay.HeatmapStats{}
	get := func(id string) *replay.HeatmapStats {
		h, ok := perPlayer[id]
		if !ok {
			h = &replay.HeatmapStats{
				Position:     newGrid(),
				Touches:      newGrid(),
				BoostPickups: newGrid(),
			}
			perPlayer[id] = h
		}
		return h
	}

	for i := range in.Timeline.Frames {
		for _, p := range in.Timeline.Frames[i].Players {
			h := get(p.PlayerID)
			gridAdd(&h.Position, p.Position)
		}
	}

	if in.Events != nil {
		for _, t := range in.Events.Touches {
			gridAdd(&get(t.PlayerID).Touches, t.Position)
		}
		for _, b := range in.Events.BoostPickups {
			if b.Frame >= 0 && b.Frame < len(in.Timeline.Frames) {
				if ps, ok := in.Timeline.Frames[b.Frame].PlayerState(b.PlayerID); ok {
					gridAdd(&get(b.PlayerID).BoostPickups, ps.Position)
				}
			}
		}
	}

	return func(out *Output) {
		teamMaps := map[rc.Team]*replay.HeatmapStats{
			rc.TeamBlue:   {Position: newGrid(), Touches: newGrid(), BoostPickups: newGrid()},
			rc.TeamOrange: {Position: newGrid(), Touches: newGrid(), BoostPickups: newGrid()},
		}

		for id, h := range perPlayer {
			val := *h
			mutatePlayer(out, id, func(pa *replay.PlayerAnalysis) { pa.Heatmaps = val })
			tm := teamMaps[teamOf(in, id)]
			gridMerge(&tm.Position, val.Position)
			gridMerge(&tm.Touches, val.Touches)
			gridMerge(&tm.BoostPickups, val.BoostPickups)
		}

		out.PerTeam.Blue.Heatmaps = *teamMaps[rc.TeamBlue]
		out.PerTeam.Orange.Heatmaps = *teamMaps[rc.TeamOrange]
	}
}
