// 指示: miu200521358
package mmath

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Epsilon は幾何計算で使う許容誤差。
const Epsilon = 1e-10

// Vec3 は3次元ベクトルを表す。
type Vec3 struct {
	r3.Vec
}

// NewVec3 はベクトルを生成する。
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{r3.Vec{X: x, Y: y, Z: z}}
}

// Vec3Zero は零ベクトルを返す。
func Vec3Zero() Vec3 {
	return Vec3{}
}

// Vec3One は全成分1のベクトルを返す。
func Vec3One() Vec3 {
	return NewVec3(1, 1, 1)
}

// Vec3FromSlice はスライスからベクトルを生成する。不足分は0。
func Vec3FromSlice(values []float64) Vec3 {
	var v [3]float64
	copy(v[:], values)
	return NewVec3(v[0], v[1], v[2])
}

// Add は加算結果を返す。
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{r3.Add(v.Vec, o.Vec)}
}

// Sub は減算結果を返す。
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{r3.Sub(v.Vec, o.Vec)}
}

// MulScalar はスカラー倍を返す。
func (v Vec3) MulScalar(s float64) Vec3 {
	return Vec3{r3.Scale(s, v.Vec)}
}

// Mul は成分ごとの積を返す。
func (v Vec3) Mul(o Vec3) Vec3 {
	return NewVec3(v.X*o.X, v.Y*o.Y, v.Z*o.Z)
}

// Dot は内積を返す。
func (v Vec3) Dot(o Vec3) float64 {
	return r3.Dot(v.Vec, o.Vec)
}

// Cross は外積を返す。
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{r3.Cross(v.Vec, o.Vec)}
}

// Length は長さを返す。
func (v Vec3) Length() float64 {
	return r3.Norm(v.Vec)
}

// Normalized は単位ベクトルを返す。長さが0の場合は零ベクトル。
func (v Vec3) Normalized() Vec3 {
	if v.Length() < Epsilon {
		return Vec3{}
	}
	return Vec3{r3.Unit(v.Vec)}
}

// Get は添字の成分を返す。
func (v Vec3) Get(index int) float64 {
	switch index {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// With は添字の成分を差し替えたベクトルを返す。
func (v Vec3) With(index int, value float64) Vec3 {
	switch index {
	case 0:
		v.X = value
	case 1:
		v.Y = value
	default:
		v.Z = value
	}
	return v
}

// Slice は成分をスライスで返す。
func (v Vec3) Slice() []float64 {
	return []float64{v.X, v.Y, v.Z}
}

// NearEquals は各成分が許容誤差内か判定する。
func (v Vec3) NearEquals(o Vec3, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps && math.Abs(v.Z-o.Z) <= eps
}

// String は表示用文字列を返す。
func (v Vec3) String() string {
	return fmt.Sprintf("[x=%.5f, y=%.5f, z=%.5f]", v.X, v.Y, v.Z)
}

// Lerp は線形補間結果を返す。
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return v.Add(o.Sub(v).MulScalar(t))
}

// ClampMin は絶対値が下限未満の成分を符号付きで下限に丸める。
func ClampMin(value, minAbs float64) float64 {
	if math.Abs(value) >= minAbs {
		return value
	}
	if value < 0 {
		return -minAbs
	}
	return minAbs
}
