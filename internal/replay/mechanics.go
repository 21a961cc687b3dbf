package replay

import rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"

// MechanicEvent is a single detected mechanical action. Optional
// fields are nil/zero when not meaningful for Kind.
type MechanicEvent struct {
	Timestamp float64
	PlayerID  string
	Kind      rc.MechanicKind

	Position rc.Vec3
	Velocity rc.Vec3
	Height   float64

	Direction          *rc.Vec3
	Duration           *float64
	BallPosition       *rc.Vec3
	BallVelocityChange *float64
	BoostUsed          *bool
}
