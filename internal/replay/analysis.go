package replay

import rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"

// The analyzer output records below are closed field sets: every analyzer
// returns one of these typed blocks and the aggregator composes them into
// PlayerAnalysis / TeamAnalysis by explicit field assignment.

// FundamentalsStats are scoreboard counts from events plus header stat rows.
type FundamentalsStats struct {
	Goals          int     `json:"goals"`
	Assists        int     `json:"assists"`
	Saves          int     `json:"saves"`
	Shots          int     `json:"shots"`
	DemosInflicted int     `json:"demos_inflicted"`
	DemosTaken     int     `json:"demos_taken"`
	Score          int     `json:"score"`
	ShootingPct    float64 `json:"shooting_percentage"`
}

// BoostStats summarize boost economy. Stolen pads are counted strictly by
// pad side: a pickup is stolen iff the pad sits on the opponent half.
type BoostStats struct {
	BPM             float64 `json:"bpm"`
	BCPM            float64 `json:"bcpm"`
	AvgBoost        float64 `json:"avg_boost"`
	TimeZeroBoostS  float64 `json:"time_zero_boost_s"`
	TimeFullBoostS  float64 `json:"time_full_boost_s"`
	BigPads         int     `json:"big_pads"`
	SmallPads       int     `json:"small_pads"`
	StolenBigPads   int     `json:"stolen_big_pads"`
	StolenSmallPads int     `json:"stolen_small_pads"`
	Overfill        float64 `json:"overfill"`
	Waste           float64 `json:"waste"`
}

// MovementStats bucket time by speed and height.
type MovementStats struct {
	TimeSlowS           float64 `json:"time_slow_s"`
	TimeBoostSpeedS     float64 `json:"time_boost_speed_s"`
	TimeSupersonicS     float64 `json:"time_supersonic_s"`
	TimeGroundS         float64 `json:"time_ground_s"`
	TimeLowAirS         float64 `json:"time_low_air_s"`
	TimeHighAirS        float64 `json:"time_high_air_s"`
	PowerslideCount     int     `json:"powerslide_count"`
	PowerslideDurationS float64 `json:"powerslide_duration_s"`
	AerialCount         int     `json:"aerial_count"`
	AerialTimeS         float64 `json:"aerial_time_s"`
	DistanceTravelledUU float64 `json:"distance_travelled_uu"`
	AvgSpeedUUPS        float64 `json:"avg_speed_uu_per_s"`
}

// PositioningStats describe where a player spends the match. ThirdManPct is
// nil for team sizes below 3, where the rotation slot does not exist.
type PositioningStats struct {
	TimeOffensiveThirdS     float64  `json:"time_offensive_third_s"`
	TimeMiddleThirdS        float64  `json:"time_middle_third_s"`
	TimeDefensiveThirdS     float64  `json:"time_defensive_third_s"`
	TimeOffensiveHalfS      float64  `json:"time_offensive_half_s"`
	TimeDefensiveHalfS      float64  `json:"time_defensive_half_s"`
	BehindBallPct           float64  `json:"behind_ball_pct"`
	AheadBallPct            float64  `json:"ahead_ball_pct"`
	AvgDistanceToBallUU     float64  `json:"avg_distance_to_ball_uu"`
	AvgDistanceToTeammateUU float64  `json:"avg_distance_to_teammate_uu"`
	FirstManPct             float64  `json:"first_man_pct"`
	SecondManPct            float64  `json:"second_man_pct"`
	ThirdManPct             *float64 `json:"third_man_pct"`
}

// PassingStats count pass chains and possession.
type PassingStats struct {
	PassesAttempted int     `json:"passes_attempted"`
	PassesCompleted int     `json:"passes_completed"`
	Turnovers       int     `json:"turnovers"`
	GiveAndGoCount  int     `json:"give_and_go_count"`
	PossessionTimeS float64 `json:"possession_time_s"`
}

// ChallengeStats summarize contested 50-50s.
type ChallengeStats struct {
	Contests            int     `json:"contests"`
	Wins                int     `json:"wins"`
	Losses              int     `json:"losses"`
	Neutral             int     `json:"neutral"`
	FirstToBallPct      float64 `json:"first_to_ball_pct"`
	AvgChallengeDepthUU float64 `json:"avg_challenge_depth_uu"`
	AvgRiskIndex        float64 `json:"avg_risk_index"`
}

// KickoffStats summarize kickoff participation. ApproachTypes always sums to
// TotalApproaches.
type KickoffStats struct {
	Count                int                        `json:"count"`
	FirstPossession      int                        `json:"first_possession"`
	Neutral              int                        `json:"neutral"`
	GoalsFor             int                        `json:"goals_for"`
	GoalsAgainst         int                        `json:"goals_against"`
	AvgTimeToFirstTouchS float64                    `json:"avg_time_to_first_touch_s"`
	ApproachTypes        map[rc.KickoffApproach]int `json:"approach_types"`
	TotalApproaches      int                        `json:"total_approaches"`
}

// HeatmapGrid is an occupancy grid over the arena extent, in arena units.
// Cells is row-major, YBins rows of XBins counts.
type HeatmapGrid struct {
	XBins   int     `json:"x_bins"`
	YBins   int     `json:"y_bins"`
	ExtentX float64 `json:"extent_x"`
	ExtentY float64 `json:"extent_y"`
	Cells   [][]int `json:"cells"`
}

// HeatmapStats hold the three occupancy grids per player/team.
type HeatmapStats struct {
	Position     HeatmapGrid `json:"position"`
	Touches      HeatmapGrid `json:"touches"`
	BoostPickups HeatmapGrid `json:"boost_pickups"`
}

// MechanicsStats are per-kind counts plus aggregate durations for the
// duration-bearing kinds.
type MechanicsStats struct {
	JumpCount           int     `json:"jump_count"`
	DoubleJumpCount     int     `json:"double_jump_count"`
	FlipCount           int     `json:"flip_count"`
	FlipCancelCount     int     `json:"flip_cancel_count"`
	HalfFlipCount       int     `json:"half_flip_count"`
	SpeedflipCount      int     `json:"speedflip_count"`
	WavedashCount       int     `json:"wavedash_count"`
	AerialCount         int     `json:"aerial_count"`
	FastAerialCount     int     `json:"fast_aerial_count"`
	FlipResetTouchCount int     `json:"flip_reset_touch_count"`
	FlipResetUseCount   int     `json:"flip_reset_use_count"`
	AirRollCount        int     `json:"air_roll_count"`
	AirRollTimeS        float64 `json:"air_roll_time_s"`
	DribbleCount        int     `json:"dribble_count"`
	DribbleTimeS        float64 `json:"dribble_time_s"`
	FlickCount          int     `json:"flick_count"`
	MustyFlickCount     int     `json:"musty_flick_count"`
	CeilingShotCount    int     `json:"ceiling_shot_count"`
	PowerSlideCount     int     `json:"power_slide_count"`
	PowerSlideTimeS     float64 `json:"power_slide_time_s"`
	GroundPinchCount    int     `json:"ground_pinch_count"`
	DoubleTouchCount    int     `json:"double_touch_count"`
	RedirectCount       int     `json:"redirect_count"`
	StallCount          int     `json:"stall_count"`
	SkimCount           int     `json:"skim_count"`
	PsychoCount         int     `json:"psycho_count"`
}

// RecoveryStats classify post-airborne landings. AvgMomentumRetainedPct is
// capped at 100 in the aggregate.
type RecoveryStats struct {
	Count                  int     `json:"count"`
	Excellent              int     `json:"excellent"`
	Good                   int     `json:"good"`
	Average                int     `json:"average"`
	Poor                   int     `json:"poor"`
	Failed                 int     `json:"failed"`
	AvgTimeToControlS      float64 `json:"avg_time_to_control_s"`
	AvgMomentumRetainedPct float64 `json:"avg_momentum_retained_pct"`
}

// XGStats hold expected-goal totals. Only SHOT-outcome touches contribute.
type XGStats struct {
	Shots        int     `json:"shots"`
	TotalXG      float64 `json:"total_xg"`
	XGPerShot    float64 `json:"xg_per_shot"`
	GoalsScored  int     `json:"goals_scored"`
	GoalsAboveXG float64 `json:"goals_above_xg"`
}

// DefenseStats describe defensive shape.
type DefenseStats struct {
	TimeLastDefenderS  float64 `json:"time_last_defender_s"`
	TimeShadowingS     float64 `json:"time_shadowing_s"`
	AvgShadowAngleDeg  float64 `json:"avg_shadow_angle_deg"`
	DangerZoneTimeS    float64 `json:"danger_zone_time_s"`
	TimeOutOfPositionS float64 `json:"time_out_of_position_s"`
}

// BallPredictionStats score how well a player's movement tracked the ball's
// projected path, windowed about once per second.
type BallPredictionStats struct {
	WindowsScored int     `json:"windows_scored"`
	Excellent     int     `json:"excellent"`
	Good          int     `json:"good"`
	Average       int     `json:"average"`
	Poor          int     `json:"poor"`
	Whiffs        int     `json:"whiffs"`
	AvgAlignment  float64 `json:"avg_alignment"`
}

// RotationComplianceStats penalize double-commits, last-man overcommits and
// ball-chasing. Score is 0..100.
type RotationComplianceStats struct {
	Score              float64 `json:"score"`
	DoubleCommits      int     `json:"double_commits"`
	LastManOvercommits int     `json:"last_man_overcommits"`
	BallchaseWindows   int     `json:"ballchase_windows"`
}

// PlayerAnalysis is one player's full analysis block.
type PlayerAnalysis struct {
	Fundamentals       FundamentalsStats       `json:"fundamentals"`
	Boost              BoostStats              `json:"boost"`
	Movement           MovementStats           `json:"movement"`
	Positioning        PositioningStats        `json:"positioning"`
	Passing            PassingStats            `json:"passing"`
	Challenges         ChallengeStats          `json:"challenges"`
	Kickoffs           KickoffStats            `json:"kickoffs"`
	Heatmaps           HeatmapStats            `json:"heatmaps"`
	Mechanics          MechanicsStats          `json:"mechanics"`
	Recovery           RecoveryStats           `json:"recovery"`
	Defense            DefenseStats            `json:"defense"`
	BallPrediction     BallPredictionStats     `json:"ball_prediction"`
	XG                 XGStats                 `json:"xg"`
	RotationCompliance RotationComplianceStats `json:"rotation_compliance"`
	Insights           []Insight               `json:"insights"`
}

// TeamAnalysis is one team's aggregated analysis block.
type TeamAnalysis struct {
	Fundamentals   FundamentalsStats   `json:"fundamentals"`
	Boost          BoostStats          `json:"boost"`
	Movement       MovementStats       `json:"movement"`
	Positioning    PositioningStats    `json:"positioning"`
	Passing        PassingStats        `json:"passing"`
	Challenges     ChallengeStats      `json:"challenges"`
	Kickoffs       KickoffStats        `json:"kickoffs"`
	Heatmaps       HeatmapStats        `json:"heatmaps"`
	Mechanics      MechanicsStats      `json:"mechanics"`
	Recovery       RecoveryStats       `json:"recovery"`
	Defense        DefenseStats        `json:"defense"`
	BallPrediction BallPredictionStats `json:"ball_prediction"`
	XG             XGStats             `json:"xg"`
}

// PerTeamAnalysis keys the two team blocks by side.
type PerTeamAnalysis struct {
	Blue   TeamAnalysis `json:"blue"`
	Orange TeamAnalysis `json:"orange"`
}
