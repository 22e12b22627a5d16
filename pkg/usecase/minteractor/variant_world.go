// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
)

const (
	proxyLabelWorld = "world"
	proxyLabelChild = "child"
	proxyLabelCopy  = "parent"
)

// worldSpaceVariant は関節を親を持たない代理関節へ置き換える。
type worldSpaceVariant struct {
	baseVariant
}

func (v *worldSpaceVariant) plan(ctx *operationContext, req OperationRequest) []*operationUnit {
	return v.planEach(ctx, req, nil)
}

func (v *worldSpaceVariant) build(ctx *operationContext, unit *operationUnit) error {
	joint, err := ctx.skeleton.Get(unit.name)
	if err != nil {
		return err
	}
	_, err = ctx.duplicateProxy(unit, proxyLabelWorld, "World", joint.Name, "", joint.Rest)
	return err
}

func (v *worldSpaceVariant) bind(ctx *operationContext, unit *operationUnit) error {
	world := unit.proxy(proxyLabelWorld)
	ctx.bindConstraint(unit, constraint.KindCopyTransforms, world, ctx.ref(unit.name))
	ctx.addBakeTarget(unit, world, ctx.ref(unit.name))
	return nil
}

func (v *worldSpaceVariant) rewire(ctx *operationContext, unit *operationUnit) error {
	ctx.clearKeys(unit.name, anim.MaskAll)
	ctx.behaviorConstraint(unit, constraint.KindCopyTransforms, unit.name, ctx.ref(unit.proxy(proxyLabelWorld)))
	ctx.hide(unit.name)
	return nil
}
