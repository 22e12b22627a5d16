// 指示: miu200521358
package pose

import (
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
)

// ReleaseConstraints は関節が所有するエンジン所有コンストレイントのうち match に一致するものを削除し、削除数を返す。
// 関節にキーフレームがない場合は削除前の解決済み姿勢を静的ローカル姿勢へ書き戻す。
func ReleaseConstraints(sc *scene.Scene, refs []constraint.JointRef, match func(*constraint.Constraint) bool) (int, error) {
	targets := make([]*constraint.Constraint, 0)
	captureRefs := make([]constraint.JointRef, 0)
	for _, ref := range refs {
		found := false
		for _, c := range sc.Constraints.ForOwner(ref) {
			if c.EngineOwned && (match == nil || match(c)) {
				targets = append(targets, c)
				found = true
			}
		}
		if found && !sc.Store.HasJointAnimation(ref.Skeleton, ref.Joint) {
			captureRefs = append(captureRefs, ref)
		}
	}
	if len(targets) == 0 {
		return 0, nil
	}

	captured := make(map[constraint.JointRef]mmath.Mat4, len(captureRefs))
	if len(captureRefs) > 0 {
		frame := NewResolver(sc).Current()
		for _, ref := range captureRefs {
			m, err := frame.Pose(ref)
			if err != nil {
				return 0, err
			}
			captured[ref] = m
		}
	}

	for _, c := range targets {
		c.Influence = 0
	}
	for _, c := range targets {
		sc.Constraints.Remove(c.ID)
	}

	for _, ref := range orderedRefs(sc, captureRefs) {
		skeleton, joint, err := sc.ResolveJoint(ref)
		if err != nil {
			continue
		}
		local, err := NewResolver(sc).Current().LocalFromPose(ref, captured[ref])
		if err != nil {
			return len(targets), err
		}
		joint.SetBasisFromMatrix(local)
		logPoseDebug("解決済み姿勢を静的姿勢へ書き戻しました: %s[%s]", skeleton.Name, joint.Name)
	}
	return len(targets), nil
}

// orderedRefs は骨格の関節登録順に並べた参照を返す。親が先に書き戻される。
func orderedRefs(sc *scene.Scene, refs []constraint.JointRef) []constraint.JointRef {
	wanted := make(map[constraint.JointRef]bool, len(refs))
	for _, ref := range refs {
		wanted[ref] = true
	}
	ordered := make([]constraint.JointRef, 0, len(refs))
	for _, skeleton := range sc.Skeletons() {
		for _, name := range skeleton.Names() {
			ref := scene.Ref(skeleton, name)
			if wanted[ref] {
				ordered = append(ordered, ref)
			}
		}
	}
	return ordered
}
