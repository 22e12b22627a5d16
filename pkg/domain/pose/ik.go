// 指示: miu200521358
package pose

import (
	"math"

	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
)

const (
	ikIterations = 32
	ikTolerance  = 1e-7
)

// ChainMembers はIKの所有者から根方向へ chainLength 個の関節名を返す。0 は根まで。
func ChainMembers(skeleton *model.Skeleton, owner string, chainLength int) []string {
	if !skeleton.Has(owner) {
		return nil
	}
	members := []string{model.NormalizeName(owner)}
	for _, parent := range skeleton.ParentChain(owner) {
		if chainLength > 0 && len(members) >= chainLength {
			break
		}
		members = append(members, parent)
	}
	return members
}

// pendingChain は関節を含む未解決のIKを返す。
func (f *Frame) pendingChain(skeleton *model.Skeleton, joint *model.Joint) *constraint.Constraint {
	for _, c := range f.scene.Constraints.ForSkeleton(skeleton.Name) {
		if c.Kind != constraint.KindIK || c.Influence <= 0 || f.solved[c.ID] {
			continue
		}
		for _, name := range ChainMembers(skeleton, c.Owner.Joint, c.ChainLength) {
			if name == joint.Name {
				return c
			}
		}
	}
	return nil
}

// solveChain はIKチェーン全体を解き、各関節の姿勢をキャッシュする。
func (f *Frame) solveChain(skeleton *model.Skeleton, c *constraint.Constraint) error {
	f.solved[c.ID] = true
	names := ChainMembers(skeleton, c.Owner.Joint, c.ChainLength)
	n := len(names)
	members := make([]*model.Joint, n)
	for i, name := range names {
		joint, err := skeleton.Get(name)
		if err != nil {
			return err
		}
		members[n-1-i] = joint
	}

	fk := make([]mmath.Mat4, n)
	for i, joint := range members {
		var offset mmath.Mat4
		if i == 0 {
			base, err := f.offset(skeleton, joint)
			if err != nil {
				return err
			}
			offset = base
		} else {
			offset = parentOffset(members[i-1].Rest, fk[i-1], joint)
		}
		fk[i] = f.applyConstraints(skeleton, joint, offset.Mul(f.basis(skeleton, joint)))
	}

	solved := append([]mmath.Mat4(nil), fk...)
	target, err := f.poseIn(skeleton, c.Target)
	if err != nil {
		logPoseWarn("IKターゲットを解決できません: %s[%s] %v", c.Target.Skeleton, c.Target.Joint, err)
	} else {
		var pole *mmath.Vec3
		if !c.Pole.IsZero() {
			if m, err := f.poseIn(skeleton, c.Pole); err == nil {
				point := m.Translation()
				pole = &point
			}
		}
		solveIK(c, members, solved, target, pole)
	}

	for i, joint := range members {
		f.poses[scene.Ref(skeleton, joint.Name)] = mmath.BlendTransforms(fk[i], solved[i], c.Influence)
	}
	return nil
}

// solveIK は poses を根元から順に並べたチェーンとしてその場で解く。
func solveIK(c *constraint.Constraint, members []*model.Joint, poses []mmath.Mat4, target mmath.Mat4, pole *mmath.Vec3) {
	n := len(poses)
	if n == 0 {
		return
	}
	if !c.UseLocation {
		if c.UseRotation {
			distributeRotation(poses, target.Rotation())
		}
		return
	}
	point := target.Translation()
	if c.UseStretch {
		stretchChain(members, poses, point)
	}
	if n == 2 {
		solveTwoBone(members, poses, point, pole)
		return
	}
	solveCCD(members, poses, point)
	if pole != nil && n > 1 {
		alignToPole(members, poses, *pole)
	}
}

// distributeRotation は先端の回転を目標へ合わせる差分をチェーンに等分配する。
func distributeRotation(poses []mmath.Mat4, want mmath.Quaternion) {
	n := len(poses)
	delta := want.Mul(poses[n-1].Rotation().Inverted())
	step := delta.Pow(1 / float64(n))
	for i := range poses {
		rotateFrom(poses, i, step, poses[i].Translation())
	}
}

// stretchChain は目標がチェーン長より遠い場合に各関節を長さ方向へ伸ばす。
func stretchChain(members []*model.Joint, poses []mmath.Mat4, point mmath.Vec3) {
	base := poses[0].Translation()
	total := 0.0
	prev := base
	for i := range poses {
		tail := tailOf(members[i], poses[i])
		total += tail.Sub(prev).Length()
		prev = tail
	}
	total = mmath.ClampMin(total, mmath.Epsilon)
	distance := point.Sub(base).Length()
	if distance <= total*(1+1e-9) {
		return
	}
	factor := distance / total
	original := append([]mmath.Mat4(nil), poses...)
	for i := range poses {
		if i > 0 {
			localHead := original[i-1].Inverted().MulVec3(original[i].Translation())
			poses[i] = poses[i].WithTranslation(poses[i-1].MulVec3(localHead))
		}
		poses[i] = poses[i].Mul(mmath.NewMat4Scale(mmath.NewVec3(1, factor, 1)))
	}
}

// solveTwoBone は2関節チェーンを解析的に解く。曲げ方向はポール、なければ現在の肘。
func solveTwoBone(members []*model.Joint, poses []mmath.Mat4, point mmath.Vec3, pole *mmath.Vec3) {
	base := poses[0].Translation()
	elbow := poses[1].Translation()
	end := tailOf(members[1], poses[1])
	upper := elbow.Sub(base).Length()
	lower := end.Sub(elbow).Length()

	toTarget := point.Sub(base)
	distance := toTarget.Length()
	if distance < mmath.Epsilon || upper < mmath.Epsilon {
		solveCCD(members, poses, point)
		return
	}
	dir := toTarget.MulScalar(1 / distance)
	distance = math.Min(math.Max(distance, math.Abs(upper-lower)), upper+lower)

	bend := elbow.Sub(base)
	if pole != nil {
		bend = pole.Sub(base)
	}
	perp := bend.Sub(dir.MulScalar(bend.Dot(dir)))
	if perp.Length() < 1e-9 {
		current := elbow.Sub(base)
		perp = current.Sub(dir.MulScalar(current.Dot(dir)))
	}
	if perp.Length() < 1e-9 {
		perp = poses[0].Axis(2)
		perp = perp.Sub(dir.MulScalar(perp.Dot(dir)))
	}
	perp = perp.Normalized()

	along := (upper*upper - lower*lower + distance*distance) / (2 * distance)
	height := math.Sqrt(math.Max(upper*upper-along*along, 0))
	wantElbow := base.Add(dir.MulScalar(along)).Add(perp.MulScalar(height))
	rotateFrom(poses, 0, mmath.RotationBetween(elbow.Sub(base), wantElbow.Sub(base)), base)

	reach := base.Add(dir.MulScalar(distance))
	elbow = poses[1].Translation()
	end = tailOf(members[1], poses[1])
	rotateFrom(poses, 1, mmath.RotationBetween(end.Sub(elbow), reach.Sub(elbow)), elbow)
}

// solveCCD は循環座標降下法でチェーンを解く。
func solveCCD(members []*model.Joint, poses []mmath.Mat4, point mmath.Vec3) {
	n := len(poses)
	for iteration := 0; iteration < ikIterations; iteration++ {
		if tailOf(members[n-1], poses[n-1]).Sub(point).Length() < ikTolerance {
			return
		}
		for i := n - 1; i >= 0; i-- {
			head := poses[i].Translation()
			end := tailOf(members[n-1], poses[n-1])
			rotateFrom(poses, i, mmath.RotationBetween(end.Sub(head), point.Sub(head)), head)
		}
	}
}

// alignToPole は根元と先端を結ぶ軸周りにチェーンを回し、中間関節をポール側へ向ける。
func alignToPole(members []*model.Joint, poses []mmath.Mat4, pole mmath.Vec3) {
	n := len(poses)
	base := poses[0].Translation()
	axis := tailOf(members[n-1], poses[n-1]).Sub(base).Normalized()
	if axis.Length() < mmath.Epsilon {
		return
	}
	project := func(v mmath.Vec3) mmath.Vec3 {
		d := v.Sub(base)
		return d.Sub(axis.MulScalar(d.Dot(axis)))
	}
	mid := project(poses[n/2].Translation())
	want := project(pole)
	if mid.Length() < 1e-9 || want.Length() < 1e-9 {
		return
	}
	rotateFrom(poses, 0, mmath.RotationBetween(mid, want), base)
}

// rotateFrom は start 以降の姿勢を pivot 周りに回転する。
func rotateFrom(poses []mmath.Mat4, start int, q mmath.Quaternion, pivot mmath.Vec3) {
	rotation := rotationAbout(pivot, q)
	for k := start; k < len(poses); k++ {
		poses[k] = rotation.Mul(poses[k])
	}
}

func tailOf(joint *model.Joint, m mmath.Mat4) mmath.Vec3 {
	return m.MulVec3(mmath.NewVec3(0, joint.Length, 0))
}
