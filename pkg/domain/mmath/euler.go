// 指示: miu200521358
package mmath

import (
	"math"
	"strings"
)

// RotationMode は関節の回転表現を表す。
type RotationMode string

const (
	RotationModeQuaternion RotationMode = "QUATERNION"
	RotationModeXYZ        RotationMode = "XYZ"
	RotationModeXZY        RotationMode = "XZY"
	RotationModeYXZ        RotationMode = "YXZ"
	RotationModeYZX        RotationMode = "YZX"
	RotationModeZXY        RotationMode = "ZXY"
	RotationModeZYX        RotationMode = "ZYX"
	// RotationModeAxisAngle は読み込み互換用。評価時はクォータニオンとして扱う。
	RotationModeAxisAngle RotationMode = "AXIS_ANGLE"
)

// IsEuler はオイラー角表現か判定する。
func (m RotationMode) IsEuler() bool {
	_, ok := eulerOrders[m]
	return ok
}

// ParseRotationMode は文字列から回転表現を解決する。未知の値はクォータニオン扱い。
func ParseRotationMode(value string) RotationMode {
	mode := RotationMode(strings.ToUpper(strings.TrimSpace(value)))
	if mode.IsEuler() || mode == RotationModeQuaternion || mode == RotationModeAxisAngle {
		return mode
	}
	return RotationModeQuaternion
}

type eulerOrder struct {
	axis   [3]int
	parity bool
}

var eulerOrders = map[RotationMode]eulerOrder{
	RotationModeXYZ: {axis: [3]int{0, 1, 2}, parity: false},
	RotationModeXZY: {axis: [3]int{0, 2, 1}, parity: true},
	RotationModeYXZ: {axis: [3]int{1, 0, 2}, parity: true},
	RotationModeYZX: {axis: [3]int{1, 2, 0}, parity: false},
	RotationModeZXY: {axis: [3]int{2, 0, 1}, parity: false},
	RotationModeZYX: {axis: [3]int{2, 1, 0}, parity: true},
}

var unitAxes = [3]Vec3{NewVec3(1, 0, 0), NewVec3(0, 1, 0), NewVec3(0, 0, 1)}

// QuaternionFromEuler はオイラー角(ラジアン)を回転順に合成する。順序の先頭軸を最初に適用する。
func QuaternionFromEuler(euler Vec3, mode RotationMode) Quaternion {
	order, ok := eulerOrders[mode]
	if !ok {
		order = eulerOrders[RotationModeXYZ]
	}
	i, j, k := order.axis[0], order.axis[1], order.axis[2]
	qi := NewQuaternionFromAxisAngle(unitAxes[i], euler.Get(i))
	qj := NewQuaternionFromAxisAngle(unitAxes[j], euler.Get(j))
	qk := NewQuaternionFromAxisAngle(unitAxes[k], euler.Get(k))
	return qk.Mul(qj).Mul(qi).Normalized()
}

// EulerCandidates は回転行列から2通りのオイラー角解を返す。
func EulerCandidates(rot Mat4, mode RotationMode) (Vec3, Vec3) {
	order, ok := eulerOrders[mode]
	if !ok {
		order = eulerOrders[RotationModeXYZ]
	}
	m := rot.normalizedRotation3()
	// bl(c, r) は列 c 行 r の要素。
	bl := func(c, r int) float64 { return m[c*4+r] }
	i, j, k := order.axis[0], order.axis[1], order.axis[2]

	var e1, e2 [3]float64
	cy := math.Hypot(bl(i, i), bl(i, j))
	if cy > 16*2.220446049250313e-16 {
		e1[i] = math.Atan2(bl(j, k), bl(k, k))
		e1[j] = math.Atan2(-bl(i, k), cy)
		e1[k] = math.Atan2(bl(i, j), bl(i, i))
		e2[i] = math.Atan2(-bl(j, k), -bl(k, k))
		e2[j] = math.Atan2(-bl(i, k), -cy)
		e2[k] = math.Atan2(-bl(i, j), -bl(i, i))
	} else {
		e1[i] = math.Atan2(-bl(k, j), bl(j, j))
		e1[j] = math.Atan2(-bl(i, k), cy)
		e1[k] = 0
		e2 = e1
	}
	a := NewVec3(e1[0], e1[1], e1[2])
	b := NewVec3(e2[0], e2[1], e2[2])
	if order.parity {
		a = a.MulScalar(-1)
		b = b.MulScalar(-1)
	}
	return a, b
}

// EulerFromQuaternion はクォータニオンをオイラー角へ変換する。
func EulerFromQuaternion(q Quaternion, mode RotationMode) Vec3 {
	a, _ := EulerCandidates(q.ToMat4(), mode)
	return a
}

// CompatibleEuler は prev に最も近い等価なオイラー角を返す。
func CompatibleEuler(rot Mat4, mode RotationMode, prev Vec3) Vec3 {
	a, b := EulerCandidates(rot, mode)
	a = UnwrapEuler(a, prev)
	b = UnwrapEuler(b, prev)
	if eulerDistance(b, prev) < eulerDistance(a, prev) {
		return b
	}
	return a
}

// UnwrapEuler は各軸を prev からπ以内になるよう2π単位でずらす。
func UnwrapEuler(euler Vec3, prev Vec3) Vec3 {
	out := euler
	for axis := 0; axis < 3; axis++ {
		out = out.With(axis, UnwrapAngle(euler.Get(axis), prev.Get(axis)))
	}
	return out
}

// UnwrapAngle は prev に最も近い等価な角度を返す。
func UnwrapAngle(angle, prev float64) float64 {
	diff := angle - prev
	if math.Abs(diff) <= math.Pi {
		return angle
	}
	return angle - math.Round(diff/(2*math.Pi))*2*math.Pi
}

func eulerDistance(a, b Vec3) float64 {
	d := a.Sub(b)
	return math.Abs(d.X) + math.Abs(d.Y) + math.Abs(d.Z)
}
