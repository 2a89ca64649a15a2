// Package msgs holds the ROS message shapes exchanged with the bridge.
package msgs

// Message type and topic names used on the bridge.
const (
	TwistType   = "geometry_msgs/Twist"
	CmdVelTopic = "/cmd_vel"
)

// Vector2 is a normalized 2-D control input, each axis in [-1, 1].
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vector3 defines a standard 3D vector.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Twist represents a command velocity message, matching geometry_msgs/Twist.
// Linear is in m/s, Angular in rad/s.
type Twist struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
}

// DriveLimits scale a normalized input into SI velocities.
type DriveLimits struct {
	MaxLinearSpeed  float64 `json:"max_linear_speed"`
	MaxAngularSpeed float64 `json:"max_angular_speed"`
}

// DefaultDriveLimits maps full stick deflection to 1 m/s and 1 rad/s.
var DefaultDriveLimits = DriveLimits{MaxLinearSpeed: 1.0, MaxAngularSpeed: 1.0}

// TwistFromJoystick converts a joystick vector into a Twist.
// The vertical axis drives forward/backward translation and the horizontal
// axis drives yaw. Yaw is sign-inverted so pushing right turns the robot right.
func TwistFromJoystick(x, y, maxLinearSpeed, maxAngularSpeed float64) Twist {
	return Twist{
		Linear:  Vector3{X: positiveZero(y * maxLinearSpeed)},
		Angular: Vector3{Z: positiveZero(-x * maxAngularSpeed)},
	}
}

// Stop is the all-zero Twist.
func Stop() Twist { return Twist{} }

// positiveZero folds -0 into 0 so the JSON payload never carries "-0".
func positiveZero(v float64) float64 {
	if v == 0 {
		return 0
	}
	return v
}
