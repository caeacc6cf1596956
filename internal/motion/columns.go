package motion

import "strings"

// Joint names used in normalized column names.
const (
	Head      = "head"
	LeftHand  = "left_hand"
	RightHand = "right_hand"
)

// DeltaTimeColumn is the milliseconds-since-first-frame column every
// normalized recording carries.
const DeltaTimeColumn = "delta_time_ms"

// Joints lists the tracked joints in output order.
var Joints = []string{Head, LeftHand, RightHand}

// PosColumn returns the position column name for joint and axis (x, y or z).
func PosColumn(joint string, axis byte) string {
	return joint + "_pos_" + string(axis)
}

// RotColumn returns the rotation column name for joint and component (x, y, z or w).
func RotColumn(joint string, comp byte) string {
	return joint + "_rot_" + string(comp)
}

// PosColumns returns the x, y, z position columns of joint.
func PosColumns(joint string) [3]string {
	return [3]string{PosColumn(joint, 'x'), PosColumn(joint, 'y'), PosColumn(joint, 'z')}
}

// RotColumns returns the x, y, z, w quaternion columns of joint.
func RotColumns(joint string) [4]string {
	return [4]string{RotColumn(joint, 'x'), RotColumn(joint, 'y'), RotColumn(joint, 'z'), RotColumn(joint, 'w')}
}

// JointColumns returns the seven pose columns of joint: position then quaternion.
func JointColumns(joint string) []string {
	p, r := PosColumns(joint), RotColumns(joint)
	return []string{p[0], p[1], p[2], r[0], r[1], r[2], r[3]}
}

// PoseColumns returns the pose columns for the given joints in order.
func PoseColumns(joints ...string) []string {
	out := make([]string, 0, 7*len(joints))
	for _, j := range joints {
		out = append(out, JointColumns(j)...)
	}
	return out
}

// IsPositionColumn reports whether name follows the position naming convention.
func IsPositionColumn(name string) bool {
	return strings.Contains(name, "_pos_")
}

// IsHandednessColumn reports whether name is a depth-axis or quaternion
// scalar column, i.e. one whose sign changes between RUB and RUF.
func IsHandednessColumn(name string) bool {
	return strings.HasSuffix(name, "_z") || strings.HasSuffix(name, "_w")
}
