package native

import (
	"fmt"
	"time"

	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
)

// decodeHeaderSection decodes the header section; its fields are read in
// the order below. Any error here is fatal (wrapped in ErrHeaderUndecodable by
// the caller): a replay whose header can't be read has nothing an engine
// can build a report from.
func decodeHeaderSection(b []byte) (*replay.Header, error) {
	r := newByteReader(b)

	engineBuild, err := r.str()
	if err != nil {
		return nil, fmt.Errorf("engine build: %w", err)
	}
	playlistByte, err := r.byte()
	if err != nil {
		return nil, fmt.Errorf("playlist: %w", err)
	}
	mapName, err := r.str()
	if err != nil {
		return nil, fmt.Errorf("map name: %w", err)
	}
	teamSizeByte, err := r.byte()
	if err != nil {
		return nil, fmt.Errorf("team size: %w", err)
	}
	overtime, err := r.boolean()
	if err != nil {
		return nil, fmt.Errorf("overtime: %w", err)
	}

	mutatorCount, err := r.uint16()
	if err != nil {
		return nil, fmt.Errorf("mutator count: %w", err)
	}
	mutators := make(map[string]string, mutatorCount)
	for i := 0; i < int(mutatorCount); i++ {
		k, err := r.str()
		if err != nil {
			return nil, fmt.Errorf("mutator key %d: %w", i, err)
		}
		v, err := r.str()
		if err != nil {
			return nil, fmt.Errorf("mutator value %d: %w", i, err)
		}
		mutators[k] = v
	}

	matchGUID, err := r.str()
	if err != nil {
		return nil, fmt.Errorf("match guid: %w", err)
	}
	startUnix, err := r.int64()
	if err != nil {
		return nil, fmt.Errorf("start time: %w", err)
	}
	durationSeconds, err := r.float64()
	if err != nil {
		return nil, fmt.Errorf("duration: %w", err)
	}

	tickmarkCount, err := r.uint16()
	if err != nil {
		return nil, fmt.Errorf("tickmark count: %w", err)
	}
	tickmarks := make([]replay.GoalTickmark, 0, tickmarkCount)
	for i := 0; i < int(tickmarkCount); i++ {
		frame, err := r.int32()
		if err != nil {
			return nil, fmt.Errorf("tickmark %d frame: %w", i, err)
		}
		scorer, err := r.str()
		if err != nil {
			return nil, fmt.Errorf("tickmark %d scorer: %w", i, err)
		}
		team, err := r.byte()
		if err != nil {
			return nil, fmt.Errorf("tickmark %d team: %w", i, err)
		}
		tickmarks = append(tickmarks, replay.GoalTickmark{
			Frame:        int(frame),
			ScorerPlayer: scorer,
			ScoringTeam:  rc.Team(team),
		})
	}

	blueScore, err := r.int32()
	if err != nil {
		return nil, fmt.Errorf("blue score: %w", err)
	}
	orangeScore, err := r.int32()
	if err != nil {
		return nil, fmt.Errorf("orange score: %w", err)
	}

	statCount, err := r.uint16()
	if err != nil {
		return nil, fmt.Errorf("player stat count: %w", err)
	}
	stats := make([]replay.PlayerHeaderStat, 0, statCount)
	for i := 0; i < int(statCount); i++ {
		id, err := r.str()
		if err != nil {
			return nil, fmt.Errorf("stat %d id: %w", i, err)
		}
		team, err := r.byte()
		if err != nil {
			return nil, fmt.Errorf("stat %d team: %w", i, err)
		}
		var ints [7]int32
		for j := range ints {
			ints[j], err = r.int32()
			if err != nil {
				return nil, fmt.Errorf("stat %d field %d: %w", i, j, err)
			}
		}
		stats = append(stats, replay.PlayerHeaderStat{
			PlayerID: id, Team: rc.Team(team),
			Score: int(ints[0]), Goals: int(ints[1]), Assists: int(ints[2]),
			Saves: int(ints[3]), Shots: int(ints[4]), Demos: int(ints[5]), DemosTaken: int(ints[6]),
		})
	}

	return &replay.Header{
		EngineBuild:   engineBuild,
		Playlist:      playlistFromByte(playlistByte),
		Map:           mapName,
		TeamSize:      int(teamSizeByte),
		Overtime:      overtime,
		Mutators:      mutators,
		MatchGUID:     matchGUID,
		StartedAt:     time.Unix(startUnix, 0).UTC(),
		Duration:      time.Duration(durationSeconds * float64(time.Second)),
		GoalTickmarks: tickmarks,
		FinalScore: map[rc.Team]int{
			rc.TeamBlue:   int(blueScore),
			rc.TeamOrange: int(orangeScore),
		},
		PlayerStats: stats,
	}, nil
}

var playlistByByte = []rc.Playlist{
	rc.PlaylistDuel, rc.PlaylistDoubles, rc.PlaylistStandard,
	rc.PlaylistChaos, rc.PlaylistPrivate, rc.PlaylistExtraMode,
}

func playlistFromByte(b byte) rc.Playlist {
	if int(b) < len(playlistByByte) {
		return playlistByByte[b]
	}
	return rc.PlaylistUnknown
}

// networkDecodeResult carries the decoded frames plus the degradation
// information the adapter needs to build NetworkDiagnostics; a partial
// decode (truncated mid-stream) is not an error, it's degraded output with
// framesEmitted telling the caller how far it got.
type networkDecodeResult struct {
	Frames        []replay.RawFrame
	PadPickups    []padPickupRaw
	FramesEmitted int
	Truncated     bool
	TruncatedAt   string
}

type padPickupRaw struct {
	Frame    int
	PlayerID string
	ActorID  uint32
	X, Y, Z  float32
}

// decodeNetworkSection decodes the frame stream: an int32 frame count, then
// the frames as decodeFrame reads them.
// It returns partial results with Truncated=true instead of an error when
// the bytes run out mid-section; a partial stream is degraded, not fatal.
func decodeNetworkSection(b []byte, arena *actorArena) networkDecodeResult {
	r := newByteReader(b)

	frameCount, err := r.int32()
	if err != nil {
		return networkDecodeResult{Truncated: true, TruncatedAt: "frame count"}
	}

	result := networkDecodeResult{
		Frames:     make([]replay.RawFrame, 0, frameCount),
		PadPickups: make([]padPickupRaw, 0),
	}

	for i := 0; i < int(frameCount); i++ {
		frame, err := decodeFrame(r, arena)
		if err != nil {
			result.Truncated = true
			result.TruncatedAt = fmt.Sprintf("frame %d: %v", i, err)
			return result
		}
		result.Frames = append(result.Frames, frame)
		result.FramesEmitted++
	}

	pickupCount, err := r.uint16()
	if err != nil {
		// Frames all decoded fine; the pickup list is a bonus section.
		return result
	}
	for i := 0; i < int(pickupCount); i++ {
		p, err := decodePadPickup(r)
		if err != nil {
			break
		}
		result.PadPickups = append(result.PadPickups, p)
	}

	return result
}

func decodeFrame(r *byteReader, arena *actorArena) (replay.RawFrame, error) {
	ts, err := r.float64()
	if err != nil {
		return replay.RawFrame{}, fmt.Errorf("timestamp: %w", err)
	}

	bx, by, bz, err := r.vec3()
	if err != nil {
		return replay.RawFrame{}, fmt.Errorf("ball pos: %w", err)
	}
	bvx, bvy, bvz, err := r.vec3()
	if err != nil {
		return replay.RawFrame{}, fmt.Errorf("ball vel: %w", err)
	}
	bwx, bwy, bwz, err := r.vec3()
	if err != nil {
		return replay.RawFrame{}, fmt.Errorf("ball angvel: %w", err)
	}

	playerCount, err := r.byte()
	if err != nil {
		return replay.RawFrame{}, fmt.Errorf("player count: %w", err)
	}

	players := make([]replay.PlayerState, 0, playerCount)
	for i := 0; i < int(playerCount); i++ {
		p, err := decodePlayerState(r, arena)
		if err != nil {
			return replay.RawFrame{}, fmt.Errorf("player %d: %w", i, err)
		}
		players = append(players, p)
	}

	return replay.RawFrame{
		Timestamp: ts,
		Ball: replay.BallState{
			Position:        rc.Vec3{X: float64(bx), Y: float64(by), Z: float64(bz)},
			Velocity:        rc.Vec3{X: float64(bvx), Y: float64(bvy), Z: float64(bvz)},
			AngularVelocity: rc.Vec3{X: float64(bwx), Y: float64(bwy), Z: float64(bwz)},
		},
		Players: players,
	}, nil
}

func decodePlayerState(r *byteReader, arena *actorArena) (replay.PlayerState, error) {
	actorID, err := r.uint32()
	if err != nil {
		return replay.PlayerState{}, fmt.Errorf("actor id: %w", err)
	}
	team, err := r.byte()
	if err != nil {
		return replay.PlayerState{}, fmt.Errorf("team: %w", err)
	}
	px, py, pz, err := r.vec3()
	if err != nil {
		return replay.PlayerState{}, fmt.Errorf("position: %w", err)
	}
	vx, vy, vz, err := r.vec3()
	if err != nil {
		return replay.PlayerState{}, fmt.Errorf("velocity: %w", err)
	}
	qx, err := r.float32()
	if err != nil {
		return replay.PlayerState{}, fmt.Errorf("quat x: %w", err)
	}
	qy, err := r.float32()
	if err != nil {
		return replay.PlayerState{}, fmt.Errorf("quat y: %w", err)
	}
	qz, err := r.float32()
	if err != nil {
		return replay.PlayerState{}, fmt.Errorf("quat z: %w", err)
	}
	qw, err := r.float32()
	if err != nil {
		return replay.PlayerState{}, fmt.Errorf("quat w: %w", err)
	}
	boostByte, err := r.byte()
	if err != nil {
		return replay.PlayerState{}, fmt.Errorf("boost: %w", err)
	}
	flags, err := r.byte()
	if err != nil {
		return replay.PlayerState{}, fmt.Errorf("flags: %w", err)
	}

	playerID := arena.resolve(actorID, rc.ActorCar)

	state := replay.PlayerState{
		PlayerID:     playerID,
		Team:         rc.Team(team),
		Position:     rc.Vec3{X: float64(px), Y: float64(py), Z: float64(pz)},
		Velocity:     rc.Vec3{X: float64(vx), Y: float64(vy), Z: float64(vz)},
		Rotation:     rc.Quat{X: float64(qx), Y: float64(qy), Z: float64(qz), W: float64(qw)},
		BoostAmount:  float64(boostByte) * boostScale,
		IsSupersonic: flags&flagSupersonic != 0,
		IsOnGround:   flags&flagOnGround != 0,
		IsDemolished: flags&flagDemolished != 0,
	}

	if flags&flagJumpingKnown != 0 {
		v := flags&flagJumping != 0
		state.IsJumping = &v
	}
	if flags&flagDodgingKnown != 0 {
		v := flags&flagDodging != 0
		state.IsDodging = &v
	}
	if flags&flagDoubleJumpKnown != 0 {
		v := flags&flagDodging != 0 // double-jump shares the dodge bit's semantics window
		state.IsDoubleJumping = &v
	}

	return state, nil
}

func decodePadPickup(r *byteReader) (padPickupRaw, error) {
	frame, err := r.int32()
	if err != nil {
		return padPickupRaw{}, err
	}
	actorID, err := r.uint32()
	if err != nil {
		return padPickupRaw{}, err
	}
	playerID, err := r.str()
	if err != nil {
		return padPickupRaw{}, err
	}
	x, y, z, err := r.vec3()
	if err != nil {
		return padPickupRaw{}, err
	}
	return padPickupRaw{Frame: int(frame), ActorID: actorID, PlayerID: playerID, X: x, Y: y, Z: z}, nil
}
