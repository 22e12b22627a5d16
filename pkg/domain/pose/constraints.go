// 指示: miu200521358
package pose

import (
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
)

// applyConstraints は所有者のIK以外のコンストレイントを登録順に適用する。
func (f *Frame) applyConstraints(skeleton *model.Skeleton, joint *model.Joint, m mmath.Mat4) mmath.Mat4 {
	for _, c := range f.scene.Constraints.ForOwner(scene.Ref(skeleton, joint.Name)) {
		if c.Kind == constraint.KindIK || c.Influence <= 0 {
			continue
		}
		result, err := f.evaluateConstraint(c, skeleton, joint, m)
		if err != nil {
			logPoseWarn("コンストレイントの対象を解決できません: %s %s[%s] %v", c.Name, c.Target.Skeleton, c.Target.Joint, err)
			continue
		}
		m = mmath.BlendTransforms(m, result, c.Influence)
	}
	return m
}

func (f *Frame) evaluateConstraint(
	c *constraint.Constraint,
	skeleton *model.Skeleton,
	joint *model.Joint,
	owner mmath.Mat4,
) (mmath.Mat4, error) {
	source, err := f.constraintSource(c, skeleton, joint)
	if err != nil {
		return owner, err
	}
	switch c.Kind {
	case constraint.KindCopyTransforms:
		return source, nil
	case constraint.KindCopyLocation:
		return owner.WithTranslation(source.Translation()), nil
	case constraint.KindCopyRotation:
		loc, _, scale := owner.Decompose()
		return mmath.NewMat4FromLocRotScale(loc, source.Rotation(), scale), nil
	case constraint.KindCopyScale:
		loc, rot, _ := owner.Decompose()
		return mmath.NewMat4FromLocRotScale(loc, rot, source.Scale()), nil
	case constraint.KindDampedTrack:
		return track(owner, c.TrackDirection(), source.Translation()), nil
	case constraint.KindStretchTo:
		tracked := track(owner, c.TrackDirection(), source.Translation())
		distance := source.Translation().Sub(owner.Translation()).Length()
		rest := mmath.ClampMin(c.RestLength, mmath.Epsilon)
		return tracked.Mul(mmath.NewMat4Scale(mmath.NewVec3(1, distance/rest, 1))), nil
	default:
		return owner, nil
	}
}

// constraintSource は対象の行列を所有者の骨格空間で返す。両空間が LOCAL の場合は対象のローカル姿勢を所有者へ載せ替える。
func (f *Frame) constraintSource(c *constraint.Constraint, skeleton *model.Skeleton, joint *model.Joint) (mmath.Mat4, error) {
	if c.OwnerSpace == constraint.SpaceLocal && c.TargetSpace == constraint.SpaceLocal {
		targetLocal, err := f.Local(c.Target)
		if err != nil {
			return mmath.Mat4Identity(), err
		}
		offset, err := f.offset(skeleton, joint)
		if err != nil {
			return mmath.Mat4Identity(), err
		}
		return offset.Mul(targetLocal), nil
	}
	target, err := f.poseIn(skeleton, c.Target)
	if err != nil {
		return mmath.Mat4Identity(), err
	}
	if c.UseOffset {
		target = target.Mul(c.Offset)
	}
	return target, nil
}

// track は姿勢の axis 方向が point を向く最小回転を根元周りに適用する。
func track(m mmath.Mat4, axis mmath.Vec3, point mmath.Vec3) mmath.Mat4 {
	head := m.Translation()
	want := point.Sub(head)
	if want.Length() < mmath.Epsilon {
		return m
	}
	q := mmath.RotationBetween(m.MulDirection(axis), want)
	return rotationAbout(head, q).Mul(m)
}

// rotationAbout は pivot 周りの回転行列を返す。
func rotationAbout(pivot mmath.Vec3, q mmath.Quaternion) mmath.Mat4 {
	return mmath.NewMat4Translation(pivot).Mul(q.ToMat4()).Mul(mmath.NewMat4Translation(pivot.MulScalar(-1)))
}
