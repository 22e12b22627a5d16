// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/pose"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
)

const (
	proxyLabelIK           = "ik"
	proxyLabelPole         = "pole"
	proxyLabelDistribution = "distribution"
)

// ikLimbVariant は関節の親チェーンをIK目標の代理関節で動かす。
type ikLimbVariant struct {
	baseVariant
}

func (v *ikLimbVariant) plan(ctx *operationContext, req OperationRequest) []*operationUnit {
	params := req.Params
	if params.ChainLength <= 0 {
		params.ChainLength = ctx.defaults.IKChainLength
	}
	if params.Pole == nil {
		pole := ctx.defaults.IKPole
		params.Pole = &pole
	}
	if params.PoleAxis == "" {
		params.PoleAxis = ctx.defaults.IKPoleAxis
	}
	if params.StretchType == "" {
		params.StretchType = ctx.defaults.IKStretchType
	}
	req.Params = params
	return v.planEach(ctx, req, func(name string, unit *operationUnit) bool {
		if !ctx.requireParents(name, params.ChainLength) {
			return false
		}
		joint, _ := ctx.skeleton.Joint(name)
		chain := pose.ChainMembers(ctx.skeleton, joint.Parent, params.ChainLength)
		unit.affected = append(unit.affected, chain...)
		if *params.Pole && len(chain) < 2 {
			pole := false
			unit.params.Pole = &pole
		}
		if *unit.params.Pole {
			unit.axis = v.poleAxis(ctx, joint.Parent, params)
		}
		return true
	})
}

// poleAxis はチェーン中間関節のローカル空間でのポール方向を返す。
// 現在の姿勢で曲がっている側を向き、伸び切っている場合は poleAxis 設定の軸を使う。
func (v *ikLimbVariant) poleAxis(ctx *operationContext, owner string, params OperationParams) mmath.Vec3 {
	axis := constraint.ParseTrackAxis(params.PoleAxis).Vector()
	chain := pose.ChainMembers(ctx.skeleton, owner, params.ChainLength)
	if len(chain) < 2 {
		return axis
	}
	frame := pose.NewResolver(ctx.scene).Current()
	basePose, err := frame.Pose(ctx.ref(chain[len(chain)-1]))
	if err != nil {
		return axis
	}
	midPose, err := frame.Pose(ctx.ref(chain[len(chain)-2]))
	if err != nil {
		return axis
	}
	ownerJoint, _ := ctx.skeleton.Joint(owner)
	ownerPose, err := frame.Pose(ctx.ref(owner))
	if err != nil {
		return axis
	}
	head := basePose.Translation()
	end := ownerPose.MulVec3(mmath.NewVec3(0, ownerJoint.Length, 0))
	dir := end.Sub(head).Normalized()
	bend := midPose.Translation().Sub(head)
	perp := bend.Sub(dir.MulScalar(bend.Dot(dir)))
	if perp.Length() < 1e-6 {
		return axis
	}
	local := midPose.Inverted().MulDirection(perp.Normalized())
	if local.Length() < mmath.Epsilon {
		return axis
	}
	return local.Normalized()
}

func (v *ikLimbVariant) build(ctx *operationContext, unit *operationUnit) error {
	joint, err := ctx.skeleton.Get(unit.name)
	if err != nil {
		return err
	}
	if _, err := ctx.duplicateProxy(unit, proxyLabelIK, "IK", joint.Name, "", joint.Rest); err != nil {
		return err
	}
	if unit.params.Pole == nil || !*unit.params.Pole {
		return nil
	}
	chain := pose.ChainMembers(ctx.skeleton, joint.Parent, unit.params.ChainLength)
	mid, err := ctx.skeleton.Get(chain[len(chain)-2])
	if err != nil {
		return err
	}
	total := 0.0
	for _, name := range chain {
		member, _ := ctx.skeleton.Joint(name)
		total += member.Length
	}
	unit.offset = mmath.NewMat4Translation(unit.axis.MulScalar(total))
	poleLength := mmath.ClampMin(joint.Length*0.25, mmath.Epsilon)
	_, err = ctx.createProxy(unit, proxyLabelPole, model.ProxyName("IKPole", joint.Name), "", mid.Rest.Mul(unit.offset), poleLength)
	return err
}

func (v *ikLimbVariant) bind(ctx *operationContext, unit *operationUnit) error {
	ik := unit.proxy(proxyLabelIK)
	ctx.bindConstraint(unit, constraint.KindCopyTransforms, ik, ctx.ref(unit.name))
	ctx.addBakeTarget(unit, ik, ctx.ref(unit.name))
	if pole := unit.proxy(proxyLabelPole); pole != "" {
		joint, err := ctx.skeleton.Get(unit.name)
		if err != nil {
			return err
		}
		chain := pose.ChainMembers(ctx.skeleton, joint.Parent, unit.params.ChainLength)
		mid := ctx.ref(chain[len(chain)-2])
		c := ctx.bindConstraint(unit, constraint.KindCopyLocation, pole, mid)
		c.UseOffset = true
		c.Offset = unit.offset
		ctx.addBakeTarget(unit, pole, mid)
	}
	return nil
}

func (v *ikLimbVariant) rewire(ctx *operationContext, unit *operationUnit) error {
	joint, err := ctx.skeleton.Get(unit.name)
	if err != nil {
		return err
	}
	ik := ctx.ref(unit.proxy(proxyLabelIK))
	solver := ctx.behaviorConstraint(unit, constraint.KindIK, joint.Parent, ik)
	solver.ChainLength = unit.params.ChainLength
	solver.UseStretch = unit.params.StretchType == StretchTypeStretch
	if pole := unit.proxy(proxyLabelPole); pole != "" {
		solver.Pole = ctx.ref(pole)
	}
	ctx.clearKeys(joint.Name, anim.MaskRotation|anim.MaskScale)
	ctx.behaviorConstraint(unit, constraint.KindCopyRotation, joint.Name, ik)
	ctx.behaviorConstraint(unit, constraint.KindCopyScale, joint.Name, ik)
	ctx.hide(joint.Name)
	return nil
}

func (v *ikLimbVariant) entry(ctx *operationContext, unit *operationUnit) *rigstate.Entry {
	entry := ctx.newEntry(unit)
	entry.Bools = []bool{unit.proxy(proxyLabelPole) != ""}
	entry.Strings = []string{unit.params.StretchType, unit.params.PoleAxis}
	entry.Ints = []int{unit.params.ChainLength}
	return entry
}

func (v *ikLimbVariant) decode(entry *rigstate.Entry) OperationRequest {
	req := v.baseVariant.decode(entry)
	pole := entry.Bool(0, false)
	req.Params.Pole = &pole
	req.Params.StretchType = entry.String(0, "")
	req.Params.PoleAxis = entry.String(1, "")
	req.Params.ChainLength = entry.Int(0, 0)
	return req
}

func (v *ikLimbVariant) removalTargets(ctx *operationContext, entry *rigstate.Entry) []BakeTarget {
	sinks := make([]string, 0)
	for _, name := range entry.Joints {
		joint, ok := ctx.skeleton.Joint(name)
		if !ok {
			continue
		}
		chain := pose.ChainMembers(ctx.skeleton, joint.Parent, entry.Int(0, ctx.defaults.IKChainLength))
		for i := len(chain) - 1; i >= 0; i-- {
			sinks = append(sinks, chain[i])
		}
		sinks = append(sinks, name)
	}
	return proxySourcedTargets(ctx, entry, sinks)
}

// ikStretchVariant は関節を含むチェーンを先端の代理関節へ伸縮付きIKで向ける。
type ikStretchVariant struct {
	baseVariant
}

func (v *ikStretchVariant) plan(ctx *operationContext, req OperationRequest) []*operationUnit {
	params := req.Params
	if params.ChainLength <= 0 {
		params.ChainLength = ctx.defaults.IKChainLength
	}
	if params.StretchType == "" {
		params.StretchType = StretchTypeStretch
	}
	req.Params = params
	return v.planEach(ctx, req, func(name string, unit *operationUnit) bool {
		if !ctx.requireParents(name, params.ChainLength-1) {
			return false
		}
		unit.affected = pose.ChainMembers(ctx.skeleton, name, params.ChainLength)
		return true
	})
}

func (v *ikStretchVariant) build(ctx *operationContext, unit *operationUnit) error {
	joint, err := ctx.skeleton.Get(unit.name)
	if err != nil {
		return err
	}
	unit.offset = mmath.NewMat4Translation(mmath.NewVec3(0, joint.Length, 0))
	_, err = ctx.duplicateProxy(unit, proxyLabelIK, "IK", joint.Name, "", joint.Rest.Mul(unit.offset))
	return err
}

func (v *ikStretchVariant) bind(ctx *operationContext, unit *operationUnit) error {
	ik := unit.proxy(proxyLabelIK)
	c := ctx.bindConstraint(unit, constraint.KindCopyTransforms, ik, ctx.ref(unit.name))
	c.UseOffset = true
	c.Offset = unit.offset
	ctx.addBakeTarget(unit, ik, ctx.ref(unit.name))
	return nil
}

func (v *ikStretchVariant) rewire(ctx *operationContext, unit *operationUnit) error {
	solver := ctx.behaviorConstraint(unit, constraint.KindIK, unit.name, ctx.ref(unit.proxy(proxyLabelIK)))
	solver.ChainLength = unit.params.ChainLength
	solver.UseStretch = unit.params.StretchType != StretchTypeNone
	return nil
}

func (v *ikStretchVariant) entry(ctx *operationContext, unit *operationUnit) *rigstate.Entry {
	entry := ctx.newEntry(unit)
	entry.Strings = []string{unit.params.StretchType}
	entry.Ints = []int{unit.params.ChainLength}
	return entry
}

func (v *ikStretchVariant) decode(entry *rigstate.Entry) OperationRequest {
	req := v.baseVariant.decode(entry)
	req.Params.StretchType = entry.String(0, "")
	req.Params.ChainLength = entry.Int(0, 0)
	return req
}

func (v *ikStretchVariant) removalTargets(ctx *operationContext, entry *rigstate.Entry) []BakeTarget {
	return proxySourcedTargets(ctx, entry, chainSinks(ctx, entry, entry.Int(0, ctx.defaults.IKChainLength)))
}

// rotationDistributionVariant は先端の回転をチェーン全体へ等分配する代理関節を追加する。
type rotationDistributionVariant struct {
	baseVariant
}

func (v *rotationDistributionVariant) plan(ctx *operationContext, req OperationRequest) []*operationUnit {
	params := req.Params
	if params.ChainLength <= 0 {
		params.ChainLength = ctx.defaults.DistributionChainLength
	}
	req.Params = params
	return v.planEach(ctx, req, func(name string, unit *operationUnit) bool {
		if !ctx.requireParents(name, params.ChainLength-1) {
			return false
		}
		unit.affected = pose.ChainMembers(ctx.skeleton, name, params.ChainLength)
		return true
	})
}

func (v *rotationDistributionVariant) build(ctx *operationContext, unit *operationUnit) error {
	joint, err := ctx.skeleton.Get(unit.name)
	if err != nil {
		return err
	}
	chain := pose.ChainMembers(ctx.skeleton, unit.name, unit.params.ChainLength)
	base, err := ctx.skeleton.Get(chain[len(chain)-1])
	if err != nil {
		return err
	}
	_, err = ctx.duplicateProxy(unit, proxyLabelDistribution, "RotDistribution", joint.Name, base.Parent, joint.Rest)
	return err
}

func (v *rotationDistributionVariant) bind(ctx *operationContext, unit *operationUnit) error {
	proxy := unit.proxy(proxyLabelDistribution)
	ctx.bindConstraint(unit, constraint.KindCopyTransforms, proxy, ctx.ref(unit.name))
	ctx.addBakeTarget(unit, proxy, ctx.ref(unit.name))
	return nil
}

func (v *rotationDistributionVariant) rewire(ctx *operationContext, unit *operationUnit) error {
	solver := ctx.behaviorConstraint(unit, constraint.KindIK, unit.name, ctx.ref(unit.proxy(proxyLabelDistribution)))
	solver.ChainLength = unit.params.ChainLength
	solver.UseLocation = false
	solver.UseRotation = true
	return nil
}

func (v *rotationDistributionVariant) entry(ctx *operationContext, unit *operationUnit) *rigstate.Entry {
	entry := ctx.newEntry(unit)
	entry.Ints = []int{unit.params.ChainLength}
	return entry
}

func (v *rotationDistributionVariant) decode(entry *rigstate.Entry) OperationRequest {
	req := v.baseVariant.decode(entry)
	req.Params.ChainLength = entry.Int(0, 0)
	return req
}

func (v *rotationDistributionVariant) removalTargets(ctx *operationContext, entry *rigstate.Entry) []BakeTarget {
	return proxySourcedTargets(ctx, entry, chainSinks(ctx, entry, entry.Int(0, ctx.defaults.DistributionChainLength)))
}

// chainSinks はエントリの関節を先端とするチェーンを根元から順に返す。
func chainSinks(ctx *operationContext, entry *rigstate.Entry, chainLength int) []string {
	sinks := make([]string, 0)
	for _, name := range entry.Joints {
		chain := pose.ChainMembers(ctx.skeleton, name, chainLength)
		for i := len(chain) - 1; i >= 0; i-- {
			sinks = append(sinks, chain[i])
		}
	}
	return sinks
}
