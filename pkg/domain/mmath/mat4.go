// 指示: miu200521358
package mmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mat4 は列優先の4x4行列を表す。要素 (row, col) は m[col*4+row]。
type Mat4 [16]float64

// Mat4Identity は単位行列を返す。
func Mat4Identity() Mat4 {
	return Mat4(mgl64.Ident4())
}

// NewMat4Translation は平行移動行列を返す。
func NewMat4Translation(v Vec3) Mat4 {
	return Mat4(mgl64.Translate3D(v.X, v.Y, v.Z))
}

// NewMat4Scale は拡縮行列を返す。
func NewMat4Scale(v Vec3) Mat4 {
	return Mat4(mgl64.Scale3D(v.X, v.Y, v.Z))
}

// NewMat4FromLocRotScale は T*R*S の行列を返す。
func NewMat4FromLocRotScale(loc Vec3, rot Quaternion, scale Vec3) Mat4 {
	return NewMat4Translation(loc).Mul(rot.ToMat4()).Mul(NewMat4Scale(scale))
}

// Mat4FromRowMajor は行優先16要素から行列を生成する。
func Mat4FromRowMajor(values []float64) Mat4 {
	if len(values) < 16 {
		return Mat4Identity()
	}
	var m Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[c*4+r] = values[r*4+c]
		}
	}
	return m
}

// RowMajor は行優先16要素を返す。
func (m Mat4) RowMajor() []float64 {
	out := make([]float64, 16)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r*4+c] = m[c*4+r]
		}
	}
	return out
}

// At は (row, col) 要素を返す。
func (m Mat4) At(row, col int) float64 {
	return m[col*4+row]
}

// Mul は m*o を返す。
func (m Mat4) Mul(o Mat4) Mat4 {
	return Mat4(mgl64.Mat4(m).Mul4(mgl64.Mat4(o)))
}

// Inverted は逆行列を返す。特異行列の場合は単位行列。
func (m Mat4) Inverted() Mat4 {
	g := mgl64.Mat4(m)
	if math.Abs(g.Det()) < 1e-15 {
		return Mat4Identity()
	}
	return Mat4(g.Inv())
}

// Det は行列式を返す。
func (m Mat4) Det() float64 {
	return mgl64.Mat4(m).Det()
}

// MulVec3 は点を変換する。
func (m Mat4) MulVec3(v Vec3) Vec3 {
	r := mgl64.TransformCoordinate(mgl64.Vec3{v.X, v.Y, v.Z}, mgl64.Mat4(m))
	return NewVec3(r[0], r[1], r[2])
}

// MulDirection は方向ベクトルを変換する。平行移動は無視する。
func (m Mat4) MulDirection(v Vec3) Vec3 {
	r := mgl64.TransformNormal(mgl64.Vec3{v.X, v.Y, v.Z}, mgl64.Mat4(m))
	return NewVec3(r[0], r[1], r[2])
}

// Translation は平行移動成分を返す。
func (m Mat4) Translation() Vec3 {
	return NewVec3(m[12], m[13], m[14])
}

// WithTranslation は平行移動成分を差し替えた行列を返す。
func (m Mat4) WithTranslation(v Vec3) Mat4 {
	m[12], m[13], m[14] = v.X, v.Y, v.Z
	return m
}

// Axis は列ベクトル(0:X, 1:Y, 2:Z)を返す。
func (m Mat4) Axis(index int) Vec3 {
	return NewVec3(m[index*4], m[index*4+1], m[index*4+2])
}

// Scale は各軸の長さを返す。行列式が負なら全成分を負にする。
func (m Mat4) Scale() Vec3 {
	s := NewVec3(m.Axis(0).Length(), m.Axis(1).Length(), m.Axis(2).Length())
	if m.Det() < 0 {
		s = s.MulScalar(-1)
	}
	return s
}

// Rotation は拡縮を除いた回転を返す。
func (m Mat4) Rotation() Quaternion {
	return m.normalizedRotation3().Rotation3Quaternion()
}

// normalizedRotation3 は各軸を正規化した回転行列を返す。
func (m Mat4) normalizedRotation3() Mat4 {
	s := m.Scale()
	out := Mat4Identity()
	for axis := 0; axis < 3; axis++ {
		size := ClampMin(s.Get(axis), Epsilon)
		col := m.Axis(axis).MulScalar(1 / size)
		out[axis*4], out[axis*4+1], out[axis*4+2] = col.X, col.Y, col.Z
	}
	return out
}

// Rotation3Quaternion は正規直交な回転部分をクォータニオンにする。
func (m Mat4) Rotation3Quaternion() Quaternion {
	return quatFromMgl(mgl64.Mat4ToQuat(mgl64.Mat4(m))).Normalized()
}

// Decompose は平行移動・回転・拡縮に分解する。
func (m Mat4) Decompose() (Vec3, Quaternion, Vec3) {
	return m.Translation(), m.Rotation(), m.Scale()
}

// NormalizedAxes は拡縮を除いた行列を返す。
func (m Mat4) NormalizedAxes() Mat4 {
	return m.normalizedRotation3().WithTranslation(m.Translation())
}

// NearEquals は全要素が許容誤差内か判定する。
func (m Mat4) NearEquals(o Mat4, eps float64) bool {
	for i := range m {
		if math.Abs(m[i]-o[i]) > eps {
			return false
		}
	}
	return true
}

// Lerp は要素ごとの線形補間を返す。
func (m Mat4) Lerp(o Mat4, t float64) Mat4 {
	var out Mat4
	for i := range m {
		out[i] = m[i] + (o[i]-m[i])*t
	}
	return out
}

// BlendTransforms は分解した成分ごとに補間した行列を返す。回転は球面補間する。
func BlendTransforms(a, b Mat4, t float64) Mat4 {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	la, ra, sa := a.Decompose()
	lb, rb, sb := b.Decompose()
	return NewMat4FromLocRotScale(la.Lerp(lb, t), ra.Slerp(rb, t), sa.Lerp(sb, t))
}
