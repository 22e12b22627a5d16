// 指示: miu200521358
package minteractor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
	"github.com/miu200521358/mu_rigbake/pkg/shared/base/merr"
)

const (
	proxyLabelCenterOfMass = "com"
	centerOfMassName       = "CoM"
	defaultMemberWeight    = 100.0
)

// memberWeightProperty は重心関節に持たせる構成関節の重みプロパティ名を返す。
func memberWeightProperty(joint string) string {
	return joint + " Weight"
}

// centerOfMassVariant は構成関節の重み付き平均位置をドライバーで追う重心関節を追加する。
type centerOfMassVariant struct {
	baseVariant
}

func (v *centerOfMassVariant) plan(ctx *operationContext, req OperationRequest) []*operationUnit {
	members := make([]string, 0, len(req.Joints))
	for _, raw := range uniqueNames(req.Joints) {
		if name, ok := ctx.requireJoint(raw); ok {
			members = append(members, name)
		}
	}
	if len(members) == 0 {
		return nil
	}
	unit := newOperationUnit(v.operation, ctx.skeleton.UniqueName(centerOfMassName), req.Params)
	unit.joints = members
	unit.affected = nil
	return []*operationUnit{unit}
}

func (v *centerOfMassVariant) build(ctx *operationContext, unit *operationUnit) error {
	length := 0.0
	for _, name := range unit.joints {
		joint, err := ctx.skeleton.Get(name)
		if err != nil {
			return err
		}
		length += joint.Length
	}
	length = mmath.ClampMin(length/float64(len(unit.joints))*0.5, mmath.Epsilon)
	com, err := ctx.createProxy(unit, proxyLabelCenterOfMass, unit.name, "", mmath.Mat4Identity(), length)
	if err != nil {
		return err
	}
	for _, name := range unit.joints {
		com.Props[memberWeightProperty(name)] = memberWeight(unit.params.Weights, name)
	}
	return nil
}

func (v *centerOfMassVariant) rewire(ctx *operationContext, unit *operationUnit) error {
	return addCenterOfMassDrivers(ctx.scene, ctx.skeleton, unit.key, unit.proxy(proxyLabelCenterOfMass), unit.joints)
}

func (v *centerOfMassVariant) entry(ctx *operationContext, unit *operationUnit) *rigstate.Entry {
	entry := ctx.newEntry(unit)
	entry.Floats = make([]float64, 0, len(unit.joints))
	for _, name := range unit.joints {
		entry.Floats = append(entry.Floats, memberWeight(unit.params.Weights, name))
	}
	return entry
}

func (v *centerOfMassVariant) decode(entry *rigstate.Entry) OperationRequest {
	req := v.baseVariant.decode(entry)
	req.Params.Weights = map[string]float64{}
	for i, name := range entry.Joints {
		req.Params.Weights[name] = entry.Float(i, defaultMemberWeight)
	}
	return req
}

func (v *centerOfMassVariant) removalTargets(ctx *operationContext, entry *rigstate.Entry) []BakeTarget {
	return nil
}

func memberWeight(weights map[string]float64, name string) float64 {
	if weight, ok := weights[name]; ok {
		return weight
	}
	return defaultMemberWeight
}

// centerOfMassExpression は構成関節数に応じた重み付き平均の式を返す。
// 重みの合計は mmath.Epsilon 未満にならないよう丸める。
func centerOfMassExpression(count int) string {
	terms := make([]string, 0, count)
	weights := make([]string, 0, count)
	for i := 0; i < count; i++ {
		terms = append(terms, fmt.Sprintf("(l%d*w%d) ", i, i))
		weights = append(weights, fmt.Sprintf("w%d", i))
	}
	sum := strings.Join(weights, "+")
	eps := strconv.FormatFloat(mmath.Epsilon, 'f', -1, 64)
	return fmt.Sprintf("1*(%s)/(((%s) > %s) ? (%s) : %s)", strings.Join(terms, "+"), sum, eps, sum, eps)
}

// addCenterOfMassDrivers は重心関節の位置3成分へドライバーを設定する。
func addCenterOfMassDrivers(sc *scene.Scene, skeleton *model.Skeleton, tag string, com string, members []string) error {
	if len(members) == 0 {
		return fmt.Errorf("重心の構成関節がありません: %s", com)
	}
	expression := centerOfMassExpression(len(members))
	owner := scene.Ref(skeleton, com)
	for axis := 0; axis < 3; axis++ {
		variables := make([]constraint.Variable, 0, len(members)*2)
		for i, name := range members {
			variables = append(variables,
				constraint.Variable{
					Name:   fmt.Sprintf("l%d", i),
					Kind:   constraint.VariableLocation,
					Source: scene.Ref(skeleton, name),
					Index:  axis,
				},
				constraint.Variable{
					Name:     fmt.Sprintf("w%d", i),
					Kind:     constraint.VariableProperty,
					Source:   owner,
					Property: memberWeightProperty(name),
				},
			)
		}
		driver, err := constraint.NewDriver(owner, anim.PropertyLocation, axis, expression, variables)
		if err != nil {
			return err
		}
		driver.EngineOwned = true
		driver.Tag = tag
		sc.Drivers.Add(driver)
	}
	return nil
}

// UpdateCenterOfMass は重心の構成関節を追加・削除し、既存の重みを保ったままドライバーを組み直す。
func (uc *RigBakeUsecase) UpdateCenterOfMass(sc *scene.Scene, update CenterOfMassUpdate) ([]string, error) {
	problems := &merr.Problems{}
	label := model.OperationCenterOfMass.ProblemLabel()
	if sc == nil {
		return nil, fmt.Errorf("シーンが未設定です")
	}
	skeleton, ok := sc.Skeleton(model.NormalizeName(update.Skeleton))
	if !ok {
		problems.Addf("%s|Armature not found: %s", label, update.Skeleton)
		return problems.Strings(), nil
	}
	comName := model.NormalizeName(update.Joint)
	com, ok := skeleton.Joint(comName)
	if !ok {
		problems.Add(notFoundProblem(label, skeleton.Name, comName))
		return problems.Strings(), nil
	}
	role, ok := skeleton.RoleOf(comName)
	if !ok || role.Kind != model.OperationCenterOfMass.Role() {
		return nil, merr.NewReferenceError("重心関節ではありません: %s[%s]", skeleton.Name, comName)
	}
	entry, ok := skeleton.State.Get(role.EntryKey)
	if !ok {
		return nil, merr.NewStateConsistencyError("重心のリグ状態エントリがありません: %s", role.EntryKey)
	}

	removed := map[string]bool{}
	for _, name := range uniqueNames(update.Remove) {
		removed[name] = true
	}
	members := make([]string, 0, len(entry.Joints)+len(update.Add))
	for _, name := range entry.Joints {
		if !removed[name] {
			members = append(members, name)
		}
	}
	for _, raw := range uniqueNames(update.Add) {
		if !skeleton.Has(raw) {
			problems.Add(notFoundProblem(label, skeleton.Name, raw))
			continue
		}
		if raw == comName || containsName(members, raw) {
			continue
		}
		members = append(members, raw)
		if _, exists := com.Props[memberWeightProperty(raw)]; !exists {
			com.Props[memberWeightProperty(raw)] = memberWeight(update.Weights, raw)
		}
	}
	if len(members) == 0 {
		problems.Addf("%s|No members left: %s[%s]", label, skeleton.Name, comName)
		return problems.Strings(), nil
	}
	for name, weight := range update.Weights {
		normalized := model.NormalizeName(name)
		if containsName(members, normalized) {
			com.Props[memberWeightProperty(normalized)] = weight
		}
	}
	for name := range removed {
		delete(com.Props, memberWeightProperty(name))
	}

	sc.Drivers.RemoveWhere(func(d *constraint.Driver) bool { return d.Tag == entry.Key })
	if err := addCenterOfMassDrivers(sc, skeleton, entry.Key, comName, members); err != nil {
		return problems.Strings(), err
	}

	entry.Joints = members
	entry.FullName = fmt.Sprintf("%s: %s", model.OperationCenterOfMass, strings.Join(members, ", "))
	entry.Floats = make([]float64, 0, len(members))
	for _, name := range members {
		entry.Floats = append(entry.Floats, com.Props[memberWeightProperty(name)])
	}
	logBakeInfo("重心の構成関節を更新しました: %s %s", entry.Key, strings.Join(members, ", "))
	return problems.Strings(), nil
}
