// 指示: miu200521358
package mmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Quaternion は回転クォータニオンを表す。
type Quaternion struct {
	W float64
	X float64
	Y float64
	Z float64
}

// NewQuaternion はクォータニオンを生成する。
func NewQuaternion(w, x, y, z float64) Quaternion {
	return Quaternion{W: w, X: x, Y: y, Z: z}
}

// QuaternionIdentity は単位クォータニオンを返す。
func QuaternionIdentity() Quaternion {
	return Quaternion{W: 1}
}

// NewQuaternionFromAxisAngle は軸と角度(ラジアン)から生成する。
func NewQuaternionFromAxisAngle(axis Vec3, angle float64) Quaternion {
	n := axis.Normalized()
	if n.Length() < Epsilon {
		return QuaternionIdentity()
	}
	return quatFromMgl(mgl64.QuatRotate(angle, mgl64.Vec3{n.X, n.Y, n.Z}))
}

// RotationBetween は from を to へ向ける最小回転を返す。
func RotationBetween(from, to Vec3) Quaternion {
	a := from.Normalized()
	b := to.Normalized()
	if a.Length() < Epsilon || b.Length() < Epsilon {
		return QuaternionIdentity()
	}
	dot := a.Dot(b)
	if dot < -1+1e-12 {
		// 反平行では任意の直交軸で180度回す。
		axis := a.Cross(NewVec3(1, 0, 0))
		if axis.Length() < 1e-6 {
			axis = a.Cross(NewVec3(0, 1, 0))
		}
		return NewQuaternionFromAxisAngle(axis, math.Pi)
	}
	return quatFromMgl(mgl64.QuatBetweenVectors(mgl64.Vec3{a.X, a.Y, a.Z}, mgl64.Vec3{b.X, b.Y, b.Z})).Normalized()
}

// QuaternionFromSlice は [w, x, y, z] から生成する。
func QuaternionFromSlice(values []float64) Quaternion {
	var v [4]float64
	copy(v[:], values)
	return NewQuaternion(v[0], v[1], v[2], v[3])
}

func (q Quaternion) mgl() mgl64.Quat {
	return mgl64.Quat{W: q.W, V: mgl64.Vec3{q.X, q.Y, q.Z}}
}

func quatFromMgl(m mgl64.Quat) Quaternion {
	return Quaternion{W: m.W, X: m.V[0], Y: m.V[1], Z: m.V[2]}
}

// Mul は q*o を返す。o を先に適用する。
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return quatFromMgl(q.mgl().Mul(o.mgl()))
}

// Dot は内積を返す。
func (q Quaternion) Dot(o Quaternion) float64 {
	return q.W*o.W + q.X*o.X + q.Y*o.Y + q.Z*o.Z
}

// Length はノルムを返す。
func (q Quaternion) Length() float64 {
	return math.Sqrt(q.Dot(q))
}

// Normalized は正規化したクォータニオンを返す。ノルム0なら単位クォータニオン。
func (q Quaternion) Normalized() Quaternion {
	l := q.Length()
	if l < Epsilon {
		return QuaternionIdentity()
	}
	return Quaternion{W: q.W / l, X: q.X / l, Y: q.Y / l, Z: q.Z / l}
}

// Negated は全成分の符号を反転したクォータニオンを返す。
func (q Quaternion) Negated() Quaternion {
	return Quaternion{W: -q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Inverted は逆回転を返す。
func (q Quaternion) Inverted() Quaternion {
	return quatFromMgl(q.Normalized().mgl().Inverse())
}

// Rotate はベクトルを回転する。
func (q Quaternion) Rotate(v Vec3) Vec3 {
	r := q.Normalized().mgl().Rotate(mgl64.Vec3{v.X, v.Y, v.Z})
	return NewVec3(r[0], r[1], r[2])
}

// Slerp は球面線形補間を返す。
func (q Quaternion) Slerp(o Quaternion, t float64) Quaternion {
	a := q.Normalized()
	b := o.Normalized()
	if a.Dot(b) < 0 {
		b = b.Negated()
	}
	if a.Dot(b) > 1-1e-12 {
		return Quaternion{
			W: a.W + (b.W-a.W)*t,
			X: a.X + (b.X-a.X)*t,
			Y: a.Y + (b.Y-a.Y)*t,
			Z: a.Z + (b.Z-a.Z)*t,
		}.Normalized()
	}
	return quatFromMgl(mgl64.QuatSlerp(a.mgl(), b.mgl(), t)).Normalized()
}

// AngleTo は2つの回転の間の角度(ラジアン、0..π)を返す。
func (q Quaternion) AngleTo(o Quaternion) float64 {
	d := math.Abs(q.Normalized().Dot(o.Normalized()))
	if d > 1 {
		d = 1
	}
	return 2 * math.Acos(d)
}

// Pow は回転角を t 倍した回転を返す。
func (q Quaternion) Pow(t float64) Quaternion {
	n := q.Normalized()
	if n.W < 0 {
		n = n.Negated()
	}
	axis := NewVec3(n.X, n.Y, n.Z)
	sinHalf := axis.Length()
	if sinHalf < Epsilon {
		return QuaternionIdentity()
	}
	angle := 2 * math.Atan2(sinHalf, n.W)
	return NewQuaternionFromAxisAngle(axis, angle*t)
}

// ToMat4 は回転行列を返す。
func (q Quaternion) ToMat4() Mat4 {
	return Mat4(q.Normalized().mgl().Mat4())
}

// Slice は [w, x, y, z] を返す。
func (q Quaternion) Slice() []float64 {
	return []float64{q.W, q.X, q.Y, q.Z}
}

// Get は [w, x, y, z] の添字成分を返す。
func (q Quaternion) Get(index int) float64 {
	switch index {
	case 0:
		return q.W
	case 1:
		return q.X
	case 2:
		return q.Y
	default:
		return q.Z
	}
}

// With は [w, x, y, z] の添字成分を差し替えたクォータニオンを返す。
func (q Quaternion) With(index int, value float64) Quaternion {
	switch index {
	case 0:
		q.W = value
	case 1:
		q.X = value
	case 2:
		q.Y = value
	default:
		q.Z = value
	}
	return q
}

// NearEquals は同じ回転を表すか判定する。符号違いは同一とみなす。
func (q Quaternion) NearEquals(o Quaternion, eps float64) bool {
	return q.AngleTo(o) <= eps
}

// MakeCompatible は prev との内積が負なら符号を反転した q を返す。
func (q Quaternion) MakeCompatible(prev Quaternion) Quaternion {
	if q.Dot(prev) < 0 {
		return q.Negated()
	}
	return q
}

// String は表示用文字列を返す。
func (q Quaternion) String() string {
	return fmt.Sprintf("[w=%.5f, x=%.5f, y=%.5f, z=%.5f]", q.W, q.X, q.Y, q.Z)
}
