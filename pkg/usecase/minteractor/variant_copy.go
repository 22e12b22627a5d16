// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
)

// simpleCopyVariant は代理関節を作らず、関節へ直接コピー系コンストレイントを付ける。
type simpleCopyVariant struct {
	baseVariant
}

func (v *simpleCopyVariant) plan(ctx *operationContext, req OperationRequest) []*operationUnit {
	params := req.Params
	if params.TargetSkeleton == "" {
		params.TargetSkeleton = ctx.skeleton.Name
	}
	params.TargetSkeleton = model.NormalizeName(params.TargetSkeleton)
	params.TargetJoint = model.NormalizeName(params.TargetJoint)
	target, ok := ctx.scene.Skeleton(params.TargetSkeleton)
	if !ok || !target.Has(params.TargetJoint) {
		ctx.reportMissing(params.TargetSkeleton, params.TargetJoint)
		return nil
	}
	switch params.CopyKind {
	case constraint.KindCopyLocation, constraint.KindCopyRotation, constraint.KindCopyScale, constraint.KindCopyTransforms:
	default:
		params.CopyKind = constraint.KindCopyTransforms
	}
	if params.Influence == nil {
		influence := 1.0
		params.Influence = &influence
	}
	req.Params = params
	return v.planEach(ctx, req, func(name string, unit *operationUnit) bool {
		if params.TargetSkeleton == ctx.skeleton.Name && name == params.TargetJoint {
			ctx.problems.Addf("%s|Invalid target: %s[%s]", ctx.label(), ctx.skeleton.Name, name)
			return false
		}
		return true
	})
}

func (v *simpleCopyVariant) build(ctx *operationContext, unit *operationUnit) error {
	return nil
}

func (v *simpleCopyVariant) rewire(ctx *operationContext, unit *operationUnit) error {
	c := ctx.behaviorConstraint(unit, unit.params.CopyKind, unit.name, v.target(unit.params))
	c.EngineOwned = false
	c.Influence = *unit.params.Influence
	return nil
}

func (v *simpleCopyVariant) target(params OperationParams) constraint.JointRef {
	return constraint.JointRef{Skeleton: params.TargetSkeleton, Joint: params.TargetJoint}
}

func (v *simpleCopyVariant) entry(ctx *operationContext, unit *operationUnit) *rigstate.Entry {
	entry := ctx.newEntry(unit)
	entry.Strings = []string{unit.params.TargetSkeleton, unit.params.TargetJoint, string(unit.params.CopyKind)}
	entry.Floats = []float64{*unit.params.Influence}
	return entry
}

func (v *simpleCopyVariant) decode(entry *rigstate.Entry) OperationRequest {
	req := v.baseVariant.decode(entry)
	req.Params.TargetSkeleton = entry.String(0, "")
	req.Params.TargetJoint = entry.String(1, "")
	req.Params.CopyKind = constraint.Kind(entry.String(2, string(constraint.KindCopyTransforms)))
	influence := entry.Float(0, 1)
	req.Params.Influence = &influence
	return req
}

// removalTargets はコピー先の関節を、コピー元と自身をベイク元として書き戻す。
func (v *simpleCopyVariant) removalTargets(ctx *operationContext, entry *rigstate.Entry) []BakeTarget {
	target := constraint.JointRef{Skeleton: entry.String(0, ctx.skeleton.Name), Joint: entry.String(1, "")}
	targets := make([]BakeTarget, 0, len(entry.Joints))
	for _, name := range entry.Joints {
		targets = append(targets, BakeTarget{
			Sink:    ctx.ref(name),
			Sources: []BakeSource{NewBakeSource(target), NewBakeSource(ctx.ref(name))},
		})
	}
	return targets
}
