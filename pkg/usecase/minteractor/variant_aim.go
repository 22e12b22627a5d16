// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
)

const (
	proxyLabelAim    = "aim"
	proxyLabelTarget = "target"
)

// aimVariant は関節を注視先の代理関節を向く代理関節へ置き換える。
// useOffset の場合は注視先をレスト基準のオフセット行列で置く。
type aimVariant struct {
	baseVariant
	useOffset bool
}

func (v *aimVariant) plan(ctx *operationContext, req OperationRequest) []*operationUnit {
	params := req.Params
	if params.AimAxis == "" {
		params.AimAxis = ctx.defaults.AimAxis
	}
	if params.AimDistance == 0 {
		params.AimDistance = ctx.defaults.AimDistance
	}
	if params.AimStretch == nil {
		stretch := ctx.defaults.AimStretch
		params.AimStretch = &stretch
	}
	if v.useOffset {
		stretch := false
		params.AimStretch = &stretch
	}
	req.Params = params
	return v.planEach(ctx, req, func(name string, unit *operationUnit) bool {
		if v.useOffset {
			if params.Offset != nil {
				unit.offset = *params.Offset
			}
			unit.axis = unit.offset.Translation()
			return true
		}
		unit.axis = constraint.ParseTrackAxis(params.AimAxis).Vector()
		unit.offset = mmath.NewMat4Translation(unit.axis.MulScalar(params.AimDistance))
		return true
	})
}

func (v *aimVariant) build(ctx *operationContext, unit *operationUnit) error {
	joint, err := ctx.skeleton.Get(unit.name)
	if err != nil {
		return err
	}
	if _, err := ctx.duplicateProxy(unit, proxyLabelAim, "AimOffset", joint.Name, joint.Parent, joint.Rest); err != nil {
		return err
	}
	target, err := ctx.duplicateProxy(unit, proxyLabelTarget, "AimTarget", joint.Name, "", joint.Rest.Mul(unit.offset))
	if err != nil {
		return err
	}
	target.Length = joint.Length * 0.25
	return nil
}

func (v *aimVariant) bind(ctx *operationContext, unit *operationUnit) error {
	aim := unit.proxy(proxyLabelAim)
	c := ctx.bindConstraint(unit, constraint.KindCopyTransforms, aim, ctx.ref(unit.name))
	c.OwnerSpace = constraint.SpaceLocal
	c.TargetSpace = constraint.SpaceLocal
	ctx.addBakeTarget(unit, aim, ctx.ref(unit.name))

	target := unit.proxy(proxyLabelTarget)
	located := ctx.bindConstraint(unit, constraint.KindCopyLocation, target, ctx.ref(unit.name))
	located.UseOffset = true
	located.Offset = unit.offset
	ctx.addBakeTarget(unit, target, ctx.ref(unit.name))
	return nil
}

func (v *aimVariant) rewire(ctx *operationContext, unit *operationUnit) error {
	aim := unit.proxy(proxyLabelAim)
	target := ctx.ref(unit.proxy(proxyLabelTarget))
	if unit.params.AimStretch != nil && *unit.params.AimStretch {
		joint, err := ctx.skeleton.Get(unit.name)
		if err != nil {
			return err
		}
		c := ctx.behaviorConstraint(unit, constraint.KindStretchTo, aim, target)
		c.Axis = constraint.ParseTrackAxis(unit.params.AimAxis)
		c.RestLength = joint.Rest.Mul(unit.offset).Translation().Sub(joint.Head()).Length()
	} else {
		c := ctx.behaviorConstraint(unit, constraint.KindDampedTrack, aim, target)
		c.Axis = constraint.ParseTrackAxis(unit.params.AimAxis)
		if v.useOffset {
			c.AxisVector = unit.axis
		}
	}

	ctx.clearKeys(unit.name, anim.MaskAll)
	copied := ctx.behaviorConstraint(unit, constraint.KindCopyTransforms, unit.name, ctx.ref(aim))
	copied.OwnerSpace = constraint.SpaceLocal
	copied.TargetSpace = constraint.SpaceLocal
	ctx.hide(unit.name)
	return nil
}

func (v *aimVariant) entry(ctx *operationContext, unit *operationUnit) *rigstate.Entry {
	entry := ctx.newEntry(unit)
	if v.useOffset {
		entry.Floats = unit.offset.RowMajor()
		return entry
	}
	entry.Bools = []bool{unit.params.AimStretch != nil && *unit.params.AimStretch}
	entry.Strings = []string{unit.params.AimAxis}
	entry.Floats = []float64{unit.params.AimDistance}
	return entry
}

func (v *aimVariant) decode(entry *rigstate.Entry) OperationRequest {
	req := v.baseVariant.decode(entry)
	if v.useOffset {
		req.Params.Offset = offsetFromFloats(entry.Floats)
		return req
	}
	stretch := entry.Bool(0, false)
	req.Params.AimStretch = &stretch
	req.Params.AimAxis = entry.String(0, "")
	req.Params.AimDistance = entry.Float(0, 0)
	return req
}
