// 指示: miu200521358
package minteractor

import (
	"fmt"

	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
)

// parentSpaceVariant は関節を別の関節の子として動かす代理関節へ置き換える。
type parentSpaceVariant struct {
	baseVariant
}

func (v *parentSpaceVariant) plan(ctx *operationContext, req OperationRequest) []*operationUnit {
	params := req.Params
	if params.TargetSkeleton == "" {
		params.TargetSkeleton = ctx.skeleton.Name
	}
	params.TargetSkeleton = model.NormalizeName(params.TargetSkeleton)
	params.TargetJoint = model.NormalizeName(params.TargetJoint)
	parentSkeleton, ok := ctx.scene.Skeleton(params.TargetSkeleton)
	if !ok || !parentSkeleton.Has(params.TargetJoint) {
		ctx.reportMissing(params.TargetSkeleton, params.TargetJoint)
		return nil
	}
	if params.TargetSkeleton != ctx.skeleton.Name {
		params.ParentCopy = true
	}
	req.Params = params
	return v.planEach(ctx, req, func(name string, unit *operationUnit) bool {
		if params.TargetSkeleton != ctx.skeleton.Name {
			return true
		}
		if name == params.TargetJoint || containsName(ctx.skeleton.ParentChain(params.TargetJoint), name) {
			ctx.problems.Addf("%s|Invalid parent: %s[%s] -> %s", ctx.label(), ctx.skeleton.Name, name, params.TargetJoint)
			return false
		}
		return true
	})
}

func (v *parentSpaceVariant) build(ctx *operationContext, unit *operationUnit) error {
	joint, err := ctx.skeleton.Get(unit.name)
	if err != nil {
		return err
	}
	parent := unit.params.TargetJoint
	if unit.params.ParentCopy {
		parentSkeleton, ok := ctx.scene.Skeleton(unit.params.TargetSkeleton)
		if !ok {
			return fmt.Errorf("親の骨格が見つかりません: %s", unit.params.TargetSkeleton)
		}
		source, err := parentSkeleton.Get(unit.params.TargetJoint)
		if err != nil {
			return err
		}
		rest := ctx.skeleton.Matrix.Inverted().Mul(parentSkeleton.Matrix).Mul(source.Rest)
		copied, err := ctx.createProxy(unit, proxyLabelCopy, model.ProxyName("ParentCopy", source.Name), "", rest, source.Length)
		if err != nil {
			return err
		}
		copied.RotationMode = source.RotationMode
		parent = copied.Name
	}
	_, err = ctx.duplicateProxy(unit, proxyLabelChild, "Child", joint.Name, parent, joint.Rest)
	return err
}

func (v *parentSpaceVariant) bind(ctx *operationContext, unit *operationUnit) error {
	if copied := unit.proxy(proxyLabelCopy); copied != "" {
		target := constraint.JointRef{Skeleton: unit.params.TargetSkeleton, Joint: unit.params.TargetJoint}
		ctx.bindConstraint(unit, constraint.KindCopyTransforms, copied, target)
		ctx.addBakeTarget(unit, copied, target)
	}
	child := unit.proxy(proxyLabelChild)
	ctx.bindConstraint(unit, constraint.KindCopyTransforms, child, ctx.ref(unit.name))
	ctx.addBakeTarget(unit, child, ctx.ref(unit.name))
	return nil
}

func (v *parentSpaceVariant) rewire(ctx *operationContext, unit *operationUnit) error {
	ctx.clearKeys(unit.name, anim.MaskAll)
	ctx.behaviorConstraint(unit, constraint.KindCopyTransforms, unit.name, ctx.ref(unit.proxy(proxyLabelChild)))
	ctx.hide(unit.name)
	return nil
}

func (v *parentSpaceVariant) entry(ctx *operationContext, unit *operationUnit) *rigstate.Entry {
	entry := ctx.newEntry(unit)
	entry.Strings = []string{unit.params.TargetSkeleton, unit.params.TargetJoint}
	entry.Bools = []bool{unit.params.ParentCopy}
	return entry
}

func (v *parentSpaceVariant) decode(entry *rigstate.Entry) OperationRequest {
	req := v.baseVariant.decode(entry)
	req.Params.TargetSkeleton = entry.String(0, "")
	req.Params.TargetJoint = entry.String(1, "")
	req.Params.ParentCopy = entry.Bool(0, false)
	return req
}

// parentOffsetVariant は関節をオフセット位置の親コピーの子として動かす代理関節へ置き換える。
type parentOffsetVariant struct {
	baseVariant
}

func (v *parentOffsetVariant) plan(ctx *operationContext, req OperationRequest) []*operationUnit {
	return v.planEach(ctx, req, func(name string, unit *operationUnit) bool {
		if req.Params.Offset != nil {
			unit.offset = *req.Params.Offset
		}
		return true
	})
}

func (v *parentOffsetVariant) build(ctx *operationContext, unit *operationUnit) error {
	joint, err := ctx.skeleton.Get(unit.name)
	if err != nil {
		return err
	}
	copied, err := ctx.duplicateProxy(unit, proxyLabelCopy, "ParentCopy", joint.Name, "", joint.Rest.Mul(unit.offset))
	if err != nil {
		return err
	}
	_, err = ctx.duplicateProxy(unit, proxyLabelChild, "Child", joint.Name, copied.Name, joint.Rest)
	return err
}

func (v *parentOffsetVariant) bind(ctx *operationContext, unit *operationUnit) error {
	copied := unit.proxy(proxyLabelCopy)
	c := ctx.bindConstraint(unit, constraint.KindCopyTransforms, copied, ctx.ref(unit.name))
	c.UseOffset = true
	c.Offset = unit.offset
	ctx.addBakeTarget(unit, copied, ctx.ref(unit.name))

	child := unit.proxy(proxyLabelChild)
	ctx.bindConstraint(unit, constraint.KindCopyTransforms, child, ctx.ref(unit.name))
	ctx.addBakeTarget(unit, child, ctx.ref(unit.name))
	return nil
}

func (v *parentOffsetVariant) rewire(ctx *operationContext, unit *operationUnit) error {
	ctx.clearKeys(unit.name, anim.MaskAll)
	ctx.behaviorConstraint(unit, constraint.KindCopyTransforms, unit.name, ctx.ref(unit.proxy(proxyLabelChild)))
	ctx.hide(unit.name)
	return nil
}

func (v *parentOffsetVariant) entry(ctx *operationContext, unit *operationUnit) *rigstate.Entry {
	entry := ctx.newEntry(unit)
	entry.Floats = unit.offset.RowMajor()
	return entry
}

func (v *parentOffsetVariant) decode(entry *rigstate.Entry) OperationRequest {
	req := v.baseVariant.decode(entry)
	req.Params.Offset = offsetFromFloats(entry.Floats)
	return req
}

// offsetFromFloats は行優先16要素の行列を返す。要素数が足りない場合は nil。
func offsetFromFloats(values []float64) *mmath.Mat4 {
	if len(values) < 16 {
		return nil
	}
	m := mmath.Mat4FromRowMajor(values[:16])
	return &m
}

func containsName(names []string, name string) bool {
	for _, current := range names {
		if current == name {
			return true
		}
	}
	return false
}
