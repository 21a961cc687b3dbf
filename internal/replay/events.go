package replay

import rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"

// Event is the tagged union over {Goal, Demo, Kickoff, BoostPickup, Touch,
// Challenge}. Exactly one of the typed fields is non-nil; Kind says which,
// and also drives the timeline tie-break order.
type Event struct {
	Kind  rc.EventKind `json:"kind"`
	T     float64      `json:"t"`
	Frame int          `json:"frame"`

	Goal        *GoalEvent        `json:"goal,omitempty"`
	Demo        *DemoEvent        `json:"demo,omitempty"`
	Kickoff     *KickoffEvent     `json:"kickoff,omitempty"`
	BoostPickup *BoostPickupEvent `json:"boost_pickup,omitempty"`
	Touch       *TouchEvent       `json:"touch,omitempty"`
	Challenge   *ChallengeEvent   `json:"challenge,omitempty"`
}

// GoalEvent is a detected goal. ShotSpeed comes from the last pre-goal frame
// with ball speed over the shot floor, never the goal frame itself: the
// engine resets ball physics on score.
type GoalEvent struct {
	T             float64 `json:"t"`
	Frame         int     `json:"frame"`
	ScoringTeam   rc.Team `json:"scoring_team"`
	ScorerPlayer  string  `json:"scorer_player"`
	AssistPlayer  string  `json:"assist_player,omitempty"`
	ShotSpeedUUPS float64 `json:"shot_speed_uu_per_s"`
	ShotSpeedKPH  float64 `json:"shot_speed_kph"`
	DistanceUU    float64 `json:"distance_uu"`
	OnTarget      bool    `json:"on_target"`
}

// DemoEvent is a detected demolition.
type DemoEvent struct {
	T              float64 `json:"t"`
	Frame          int     `json:"frame"`
	VictimPlayer   string  `json:"victim_player"`
	AttackerPlayer string  `json:"attacker_player,omitempty"`
	VictimTeam     rc.Team `json:"victim_team"`
	AttackerTeam   rc.Team `json:"attacker_team"`
	Position       rc.Vec3 `json:"position"`
}

// KickoffParticipant is one player's role/approach within a kickoff.
type KickoffParticipant struct {
	PlayerID string             `json:"player_id"`
	Role     rc.KickoffRole     `json:"role"`
	Approach rc.KickoffApproach `json:"approach_type"`
}

// KickoffEvent is a detected kickoff. Outcome is blue-relative for the
// GOAL_FOR/GOAL_AGAINST variants; per-team kickoff stats flip it.
type KickoffEvent struct {
	T                float64              `json:"t"`
	Frame            int                  `json:"frame"`
	Participants     []KickoffParticipant `json:"players"`
	FirstTouchPlayer string               `json:"first_touch_player,omitempty"`
	TimeToFirstTouch float64              `json:"time_to_first_touch_s"`
	Outcome          rc.KickoffOutcome    `json:"outcome"`
}

// BoostPickupEvent is a boost-pad pickup. Stolen is always derived as
// player.Team != Pad.Side && Pad.Side != MID — never from boost deltas.
type BoostPickupEvent struct {
	T        float64    `json:"t"`
	Frame    int        `json:"frame"`
	PlayerID string     `json:"player_id"`
	Team     rc.Team    `json:"team"`
	PadID    string     `json:"pad_id"`
	PadSide  rc.PadSide `json:"pad_side"`
	PadSize  rc.PadSize `json:"pad_size"`
	Stolen   bool       `json:"stolen"`
}

// TouchEvent is a single ball contact.
type TouchEvent struct {
	T             float64         `json:"t"`
	Frame         int             `json:"frame"`
	PlayerID      string          `json:"player_id"`
	Team          rc.Team         `json:"team"`
	Context       rc.TouchContext `json:"context"`
	Outcome       rc.TouchOutcome `json:"outcome"`
	Position      rc.Vec3         `json:"location"`
	BallSpeedUUPS float64         `json:"ball_speed_uu_per_s"`
	BallSpeedKPH  float64         `json:"ball_speed_kph"`
}

// ChallengeEvent is a contested 50-50.
type ChallengeEvent struct {
	T           float64             `json:"t"`
	Frame       int                 `json:"frame"`
	Players     []string            `json:"players"`
	Outcome     rc.ChallengeOutcome `json:"outcome"`
	DepthY      float64             `json:"challenge_depth"`
	RiskIndex   map[string]float64  `json:"risk_index"`
	WinningTeam rc.Team             `json:"winning_team"`
	FirstToBall string              `json:"first_to_ball,omitempty"`
}
