// 指示: miu200521358
package minteractor

import (
	"math"
	"sort"

	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
)

const (
	proxyLabelReverse = "reverse:"
	proxyLabelOffset  = "offset:"
)

// reverseHierarchyVariant は連続する関節チェーンを先端を根とする逆向きの代理チェーンへ置き換える。
type reverseHierarchyVariant struct {
	baseVariant
}

func (v *reverseHierarchyVariant) plan(ctx *operationContext, req OperationRequest) []*operationUnit {
	names := make([]string, 0, len(req.Joints))
	for _, raw := range uniqueNames(req.Joints) {
		if name, ok := ctx.requireJoint(raw); ok {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	chain, ok := sortChain(ctx.skeleton, names)
	if !ok {
		ctx.problems.Addf("%s|Bones are not a single chain: %s[%s]", ctx.label(), ctx.skeleton.Name, names[0])
		return nil
	}
	unit := newOperationUnit(v.operation, chain[len(chain)-1], req.Params)
	unit.joints = chain
	unit.affected = append([]string(nil), chain...)
	return []*operationUnit{unit}
}

// sortChain は関節を根元から先端の順に並べる。直接の親子で連続しない場合は false。
func sortChain(skeleton *model.Skeleton, names []string) ([]string, bool) {
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(skeleton.ParentChain(sorted[i])) < len(skeleton.ParentChain(sorted[j]))
	})
	for i := 1; i < len(sorted); i++ {
		joint, ok := skeleton.Joint(sorted[i])
		if !ok || joint.Parent != sorted[i-1] {
			return nil, false
		}
	}
	return sorted, true
}

// reversedRest は関節の先端を根元とし、逆方向を向くレスト行列を返す。
func reversedRest(joint *model.Joint) mmath.Mat4 {
	flip := mmath.NewQuaternionFromAxisAngle(mmath.NewVec3(1, 0, 0), math.Pi).ToMat4()
	return joint.Rest.Mul(mmath.NewMat4Translation(mmath.NewVec3(0, joint.Length, 0))).Mul(flip)
}

func (v *reverseHierarchyVariant) build(ctx *operationContext, unit *operationUnit) error {
	chain := unit.joints
	root, err := ctx.skeleton.Get(chain[0])
	if err != nil {
		return err
	}
	parent := root.Parent
	for i := len(chain) - 1; i >= 0; i-- {
		joint, err := ctx.skeleton.Get(chain[i])
		if err != nil {
			return err
		}
		reversed, err := ctx.duplicateProxy(unit, proxyLabelReverse+joint.Name, "Reverse", joint.Name, parent, reversedRest(joint))
		if err != nil {
			return err
		}
		parent = reversed.Name
	}
	for _, name := range chain {
		joint, err := ctx.skeleton.Get(name)
		if err != nil {
			return err
		}
		if _, err := ctx.duplicateProxy(unit, proxyLabelOffset+name, "Offset", name, unit.proxy(proxyLabelReverse+name), joint.Rest); err != nil {
			return err
		}
	}
	return nil
}

func (v *reverseHierarchyVariant) bind(ctx *operationContext, unit *operationUnit) error {
	chain := unit.joints
	for i := len(chain) - 1; i >= 0; i-- {
		joint, err := ctx.skeleton.Get(chain[i])
		if err != nil {
			return err
		}
		reversed := unit.proxy(proxyLabelReverse + joint.Name)
		c := ctx.bindConstraint(unit, constraint.KindCopyTransforms, reversed, ctx.ref(joint.Name))
		c.UseOffset = true
		c.Offset = joint.Rest.Inverted().Mul(reversedRest(joint))
		ctx.addBakeTarget(unit, reversed, ctx.ref(joint.Name))
	}
	for _, name := range chain {
		offset := unit.proxy(proxyLabelOffset + name)
		ctx.bindConstraint(unit, constraint.KindCopyTransforms, offset, ctx.ref(name))
		ctx.addBakeTarget(unit, offset, ctx.ref(name))
	}
	return nil
}

func (v *reverseHierarchyVariant) rewire(ctx *operationContext, unit *operationUnit) error {
	for _, name := range unit.joints {
		ctx.clearKeys(name, anim.MaskAll)
		ctx.behaviorConstraint(unit, constraint.KindCopyTransforms, name, ctx.ref(unit.proxy(proxyLabelOffset+name)))
		ctx.hide(name)
	}
	return nil
}
