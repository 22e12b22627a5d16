// 指示: miu200521358
package model

import (
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
)

// InheritScale は親スケールの継承方式を表す。
type InheritScale string

const (
	InheritScaleFull       InheritScale = "FULL"
	InheritScaleFixShear   InheritScale = "FIX_SHEAR"
	InheritScaleAligned    InheritScale = "ALIGNED"
	InheritScaleAverage    InheritScale = "AVERAGE"
	InheritScaleNone       InheritScale = "NONE"
	InheritScaleNoneLegacy InheritScale = "NONE_LEGACY"
)

// Effective は評価時に使う継承方式を返す。
func (s InheritScale) Effective() InheritScale {
	switch s {
	case InheritScaleFixShear, InheritScaleAligned, "":
		return InheritScaleFull
	case InheritScaleNoneLegacy:
		return InheritScaleNone
	default:
		return s
	}
}

// Display は関節の表示情報を表す。
type Display struct {
	ShapeRef         string
	ShapeScale       mmath.Vec3
	ShapeTranslation mmath.Vec3
	ShapeRotation    mmath.Vec3
	ShapeTransform   string
	ColorPalette     string
	NormalColor      [3]float64
	SelectColor      [3]float64
	ActiveColor      [3]float64
	Hidden           bool
	Collections      []string
}

// Joint は骨格の関節を表す。Rest は骨格空間のレスト行列、関節の向きはローカル +Y。
type Joint struct {
	Name               string
	Parent             string
	Rest               mmath.Mat4
	Length             float64
	Location           mmath.Vec3
	RotationQuaternion mmath.Quaternion
	RotationEuler      mmath.Vec3
	Scale              mmath.Vec3
	RotationMode       mmath.RotationMode
	InheritRotation    bool
	InheritScale       InheritScale
	Display            Display
	Props              map[string]float64
}

// NewJoint は既定姿勢の関節を生成する。
func NewJoint(name string, parent string, rest mmath.Mat4, length float64) *Joint {
	return &Joint{
		Name:               NormalizeName(name),
		Parent:             NormalizeName(parent),
		Rest:               rest,
		Length:             length,
		RotationQuaternion: mmath.QuaternionIdentity(),
		Scale:              mmath.Vec3One(),
		RotationMode:       mmath.RotationModeQuaternion,
		InheritRotation:    true,
		InheritScale:       InheritScaleFull,
		Display: Display{
			ShapeScale:   mmath.Vec3One(),
			ColorPalette: "DEFAULT",
		},
		Props: map[string]float64{},
	}
}

// Head はレスト位置の根元を返す。
func (j *Joint) Head() mmath.Vec3 {
	return j.Rest.Translation()
}

// Tail はレスト位置の先端を返す。
func (j *Joint) Tail() mmath.Vec3 {
	return j.Rest.MulVec3(mmath.NewVec3(0, j.Length, 0))
}

// BasisRotation は回転表現に応じた静的回転を返す。
func (j *Joint) BasisRotation() mmath.Quaternion {
	if j.RotationMode.IsEuler() {
		return mmath.QuaternionFromEuler(j.RotationEuler, j.RotationMode)
	}
	return j.RotationQuaternion.Normalized()
}

// BasisMatrix は静的ローカル姿勢の行列を返す。
func (j *Joint) BasisMatrix() mmath.Mat4 {
	return mmath.NewMat4FromLocRotScale(j.Location, j.BasisRotation(), j.Scale)
}

// SetBasisFromMatrix は行列を分解して静的ローカル姿勢に書き込む。
func (j *Joint) SetBasisFromMatrix(m mmath.Mat4) {
	loc, rot, scale := m.Decompose()
	j.Location = loc
	j.Scale = scale
	if j.RotationMode.IsEuler() {
		j.RotationEuler = mmath.CompatibleEuler(rot.ToMat4(), j.RotationMode, j.RotationEuler)
		return
	}
	j.RotationQuaternion = rot.MakeCompatible(j.RotationQuaternion)
}

// ResetBasis は静的ローカル姿勢を初期化する。
func (j *Joint) ResetBasis() {
	j.Location = mmath.Vec3Zero()
	j.RotationQuaternion = mmath.QuaternionIdentity()
	j.RotationEuler = mmath.Vec3Zero()
	j.Scale = mmath.Vec3One()
}

// Copy は関節の複製を返す。
func (j *Joint) Copy() *Joint {
	if j == nil {
		return nil
	}
	out := *j
	out.Display.Collections = append([]string(nil), j.Display.Collections...)
	out.Props = make(map[string]float64, len(j.Props))
	for key, value := range j.Props {
		out.Props[key] = value
	}
	return &out
}

// InCollection は表示グループに属しているか判定する。
func (j *Joint) InCollection(name string) bool {
	for _, current := range j.Display.Collections {
		if current == name {
			return true
		}
	}
	return false
}
