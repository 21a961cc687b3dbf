package native

import (
	"fmt"
	"math"

	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// actorArena maps network actor IDs to canonical, stable player_id indices
// : two maps keyed by
// small integer actor ID (resolved identity and actor class), with no
// pointer cycles between actors/controllers/PRIs/players. The mapping is
// built once on first sight of an actor and cached; subsequent frames emit
// the cached ID without re-resolution.
type actorArena struct {
	idByActor    map[uint32]string
	classByActor map[uint32]rc.ActorClass
	next         int
}

func newActorArena() *actorArena {
	return &actorArena{
		idByActor:    map[uint32]string{},
		classByActor: map[uint32]rc.ActorClass{},
	}
}

// resolve returns the canonical player_id for actorID, creating one on
// first sight. class is the actor's resolved class; only ActorCar actors get a player_id.
func (a *actorArena) resolve(actorID uint32, class rc.ActorClass) string {
	a.classByActor[actorID] = class
	if class != rc.ActorCar {
		return ""
	}
	if id, ok := a.idByActor[actorID]; ok {
		return id
	}
	id := fmt.Sprintf("actor:%d", actorID)
	a.idByActor[actorID] = id
	a.next++
	return id
}

// pad is one resolved boost-pad entity.
type pad struct {
	ID       string
	Position [3]float32
	Size     rc.PadSize
	Side     rc.PadSide
}

// padRegistry resolves pad actors to canonical pads by map-specific
// metadata, snapping within a per-size radius tolerance.
type padRegistry struct {
	byActor map[uint32]*pad
	table   []pad
}

// padSnapRadiusBig and padSnapRadiusSmall are the per-size snap tolerances
// in unreal units.
const padSnapRadiusBig = 160.0
const padSnapRadiusSmall = 120.0

func newPadRegistry(table []pad) *padRegistry {
	return &padRegistry{byActor: map[uint32]*pad{}, table: table}
}

// resolve snaps (x,y,z) to the nearest table entry within the size-specific
// radius, caching the result against actorID. Returns nil if no table entry
// is within tolerance (the pickup is then dropped upstream, never guessed;
// the drop is logged at debug level only when RLCOACH_DEBUG_BOOST_EVENTS is
// set).
func (pr *padRegistry) resolve(actorID uint32, x, y, z float32) *pad {
	if p, ok := pr.byActor[actorID]; ok {
		return p
	}

	var best *pad
	bestDist := math.MaxFloat64
	for i := range pr.table {
		cand := &pr.table[i]
		dx := float64(cand.Position[0] - x)
		dy := float64(cand.Position[1] - y)
		dz := float64(cand.Position[2] - z)
		dist := math.Sqrt(dx*dx + dy*dy + dz*dz)

		radius := padSnapRadiusSmall
		if cand.Size == rc.PadBig {
			radius = padSnapRadiusBig
		}
		if dist <= radius && dist < bestDist {
			best, bestDist = cand, dist
		}
	}

	if best != nil {
		pr.byActor[actorID] = best
	}
	return best
}

// standardPadTable is the canonical 28-small/6-big pad layout for the
// standard arena. Coordinates are representative
// positions along the well-known standard-arena pad ring; a real map-data
// table would vary per map, which is why padRegistry takes the table as a
// parameter rather than hardcoding it.
func standardPadTable() []pad {
	side := func(y float32) rc.PadSide {
		switch {
		case y > 100:
			return rc.PadSideOrange
		case y < -100:
			return rc.PadSideBlue
		default:
			return rc.PadSideMid
		}
	}

	bigCoords := [][2]float32{
		{-3584, 0}, {3584, 0},
		{-3072, -4096}, {3072, -4096},
		{-3072, 4096}, {3072, 4096},
	}
	table := make([]pad, 0, 34)
	for i, c := range bigCoords {
		table = append(table, pad{
			ID:       fmt.Sprintf("big:%d", i),
			Position: [3]float32{c[0], c[1], 73},
			Size:     rc.PadBig,
			Side:     side(c[1]),
		})
	}

	smallCoords := [][2]float32{
		{0, -4240}, {-1792, -4184}, {1792, -4184},
		{-940, -3308}, {940, -3308},
		{0, -2816}, {-2048, -2560}, {2048, -2560},
		{-3584, -2484}, {3584, -2484},
		{-1024, -1788}, {1024, -1788},
		{0, -1024},
		{0, 1024},
		{-1024, 1788}, {1024, 1788},
		{-3584, 2484}, {3584, 2484},
		{-2048, 2560}, {2048, 2560},
		{0, 2816},
		{-940, 3308}, {940, 3308},
		{-1792, 4184}, {1792, 4184},
		{0, 4240},
		{-4096, 0}, {4096, 0},
	}
	for i, c := range smallCoords {
		table = append(table, pad{
			ID:       fmt.Sprintf("small:%d", i),
			Position: [3]float32{c[0], c[1], 70},
			Size:     rc.PadSmall,
			Side:     side(c[1]),
		})
	}
	return table
}
