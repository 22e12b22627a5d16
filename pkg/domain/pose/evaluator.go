// 指示: miu200521358
package pose

import (
	"math"

	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
	"github.com/miu200521358/mu_rigbake/pkg/shared/base/logging"
)

// Resolver はシーンの姿勢評価サービスを表す。
type Resolver struct {
	scene *scene.Scene
}

// NewResolver は姿勢評価サービスを生成する。
func NewResolver(sc *scene.Scene) *Resolver {
	return &Resolver{scene: sc}
}

// ResolveWorldTransform はコンストレイントを含めた関節のワールド行列を返す。
func (r *Resolver) ResolveWorldTransform(skeleton string, joint string, time float64) (mmath.Mat4, error) {
	return r.At(time).World(constraint.JointRef{Skeleton: skeleton, Joint: model.NormalizeName(joint)})
}

// At は時刻の評価フレームを返す。フレーム内の結果はキャッシュされる。
func (r *Resolver) At(time float64) *Frame {
	return &Frame{
		scene:    r.scene,
		time:     time,
		poses:    map[constraint.JointRef]mmath.Mat4{},
		visiting: map[constraint.JointRef]bool{},
		solved:   map[string]bool{},
	}
}

// Current は時刻カーソルの評価フレームを返す。
func (r *Resolver) Current() *Frame {
	return r.At(r.scene.Frame())
}

// Frame は1時刻分の評価結果を保持する。
type Frame struct {
	scene    *scene.Scene
	time     float64
	poses    map[constraint.JointRef]mmath.Mat4
	visiting map[constraint.JointRef]bool
	solved   map[string]bool
}

// Time は評価時刻を返す。
func (f *Frame) Time() float64 {
	return f.time
}

// Pose は関節の骨格空間の姿勢行列を返す。
func (f *Frame) Pose(ref constraint.JointRef) (mmath.Mat4, error) {
	if m, ok := f.poses[ref]; ok {
		return m, nil
	}
	skeleton, joint, err := f.scene.ResolveJoint(ref)
	if err != nil {
		return mmath.Mat4Identity(), err
	}
	if err := skeleton.RequireEvaluable(); err != nil {
		return mmath.Mat4Identity(), err
	}
	if f.visiting[ref] {
		logPoseWarn("依存関係が循環しているためコンストレイントを無視します: %s[%s]", ref.Skeleton, ref.Joint)
		return f.forward(skeleton, joint)
	}
	f.visiting[ref] = true
	defer delete(f.visiting, ref)

	if chain := f.pendingChain(skeleton, joint); chain != nil {
		if err := f.solveChain(skeleton, chain); err != nil {
			return mmath.Mat4Identity(), err
		}
		if m, ok := f.poses[ref]; ok {
			return m, nil
		}
	}

	m, err := f.forward(skeleton, joint)
	if err != nil {
		return mmath.Mat4Identity(), err
	}
	m = f.applyConstraints(skeleton, joint, m)
	f.poses[ref] = m
	return m, nil
}

// World は関節のワールド行列を返す。
func (f *Frame) World(ref constraint.JointRef) (mmath.Mat4, error) {
	m, err := f.Pose(ref)
	if err != nil {
		return mmath.Mat4Identity(), err
	}
	skeleton, _ := f.scene.Skeleton(ref.Skeleton)
	return skeleton.Matrix.Mul(m), nil
}

// Offset は関節のローカル姿勢を骨格空間へ写す行列を返す。姿勢 = Offset × ローカル。
func (f *Frame) Offset(ref constraint.JointRef) (mmath.Mat4, error) {
	skeleton, joint, err := f.scene.ResolveJoint(ref)
	if err != nil {
		return mmath.Mat4Identity(), err
	}
	return f.offset(skeleton, joint)
}

// Local は解決済み姿勢を関節のローカル空間で返す。
func (f *Frame) Local(ref constraint.JointRef) (mmath.Mat4, error) {
	m, err := f.Pose(ref)
	if err != nil {
		return mmath.Mat4Identity(), err
	}
	return f.LocalFromPose(ref, m)
}

// LocalFromPose は骨格空間の行列を関節のローカル空間へ変換する。
func (f *Frame) LocalFromPose(ref constraint.JointRef, m mmath.Mat4) (mmath.Mat4, error) {
	offset, err := f.Offset(ref)
	if err != nil {
		return mmath.Mat4Identity(), err
	}
	return offset.Inverted().Mul(m), nil
}

// PoseFromLocal はローカル空間の行列を骨格空間へ変換する。
func (f *Frame) PoseFromLocal(ref constraint.JointRef, local mmath.Mat4) (mmath.Mat4, error) {
	offset, err := f.Offset(ref)
	if err != nil {
		return mmath.Mat4Identity(), err
	}
	return offset.Mul(local), nil
}

// PoseFromWorld はワールド行列を骨格空間へ変換する。
func (f *Frame) PoseFromWorld(skeleton *model.Skeleton, world mmath.Mat4) mmath.Mat4 {
	return skeleton.Matrix.Inverted().Mul(world)
}

// poseIn は別骨格の関節姿勢も owner の骨格空間で返す。
func (f *Frame) poseIn(owner *model.Skeleton, ref constraint.JointRef) (mmath.Mat4, error) {
	m, err := f.Pose(ref)
	if err != nil {
		return mmath.Mat4Identity(), err
	}
	if ref.Skeleton == owner.Name {
		return m, nil
	}
	other, ok := f.scene.Skeleton(ref.Skeleton)
	if !ok {
		return m, nil
	}
	return owner.Matrix.Inverted().Mul(other.Matrix).Mul(m), nil
}

// forward は親姿勢とローカル姿勢のみから姿勢を求める。
func (f *Frame) forward(skeleton *model.Skeleton, joint *model.Joint) (mmath.Mat4, error) {
	offset, err := f.offset(skeleton, joint)
	if err != nil {
		return mmath.Mat4Identity(), err
	}
	return offset.Mul(f.basis(skeleton, joint)), nil
}

func (f *Frame) offset(skeleton *model.Skeleton, joint *model.Joint) (mmath.Mat4, error) {
	if joint.Parent == "" {
		return joint.Rest, nil
	}
	parent, ok := skeleton.Joint(joint.Parent)
	if !ok {
		return joint.Rest, nil
	}
	parentPose, err := f.Pose(scene.Ref(skeleton, parent.Name))
	if err != nil {
		return mmath.Mat4Identity(), err
	}
	return parentOffset(parent.Rest, parentPose, joint), nil
}

// parentOffset は継承設定に従って親姿勢から子のオフセット行列を作る。
func parentOffset(parentRest mmath.Mat4, parentPose mmath.Mat4, joint *model.Joint) mmath.Mat4 {
	full := parentPose.Mul(parentRest.Inverted().Mul(joint.Rest))
	inheritScale := joint.InheritScale.Effective()
	if joint.InheritRotation && inheritScale == model.InheritScaleFull {
		return full
	}
	rotation := full.Rotation()
	if !joint.InheritRotation {
		rotation = joint.Rest.Rotation()
	}
	scale := full.Scale()
	switch inheritScale {
	case model.InheritScaleAverage:
		s := parentPose.Scale()
		avg := math.Cbrt(math.Abs(s.X * s.Y * s.Z))
		scale = mmath.NewVec3(avg, avg, avg)
	case model.InheritScaleNone:
		scale = joint.Rest.Scale()
	}
	return mmath.NewMat4FromLocRotScale(full.Translation(), rotation, scale)
}

// LocalPoseOf はアニメーションとドライバーを合成した関節のローカル姿勢成分を返す。
func (f *Frame) LocalPoseOf(skeleton *model.Skeleton, joint *model.Joint) anim.LocalPose {
	static := anim.LocalPose{
		Location:   joint.Location,
		Quaternion: joint.RotationQuaternion,
		Euler:      joint.RotationEuler,
		Scale:      joint.Scale,
	}
	local, _ := f.scene.Store.EvaluateLocal(skeleton.Name, joint.Name, static, f.time)
	for _, driver := range f.scene.Drivers.ForOwner(scene.Ref(skeleton, joint.Name)) {
		value, err := f.evaluateDriver(driver)
		if err != nil {
			logPoseWarn("ドライバーを評価できません: %s[%s] %v", skeleton.Name, joint.Name, err)
			continue
		}
		local = local.WithComponent(driver.Property, driver.Index, value)
	}
	return local
}

func (f *Frame) basis(skeleton *model.Skeleton, joint *model.Joint) mmath.Mat4 {
	return f.LocalPoseOf(skeleton, joint).Matrix(joint.RotationMode)
}

func (f *Frame) evaluateDriver(driver *constraint.Driver) (float64, error) {
	values := make(map[string]float64, len(driver.Variables))
	for _, variable := range driver.Variables {
		switch variable.Kind {
		case constraint.VariableProperty:
			_, joint, err := f.scene.ResolveJoint(variable.Source)
			if err != nil {
				return 0, err
			}
			values[variable.Name] = joint.Props[variable.Property]
		default:
			owner, ok := f.scene.Skeleton(driver.Owner.Skeleton)
			if !ok {
				return 0, nil
			}
			m, err := f.poseIn(owner, variable.Source)
			if err != nil {
				return 0, err
			}
			values[variable.Name] = m.Translation().Get(variable.Index)
		}
	}
	return driver.Evaluate(values)
}

// logPoseDebug は姿勢評価のDEBUGログを出力する。
func logPoseDebug(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(format, params...)
	if logger.IsVerboseEnabled(logging.VERBOSE_INDEX_POSE) {
		logger.Verbose(logging.VERBOSE_INDEX_POSE, "[DEBUG] "+format, params...)
	}
}

// logPoseWarn は姿勢評価のWARNログを出力する。
func logPoseWarn(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Warn(format, params...)
	if logger.IsVerboseEnabled(logging.VERBOSE_INDEX_POSE) {
		logger.Verbose(logging.VERBOSE_INDEX_POSE, "[WARN] "+format, params...)
	}
}
