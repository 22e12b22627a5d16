// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
)

// Registry は操作種別ごとの構築手順を保持する。
type Registry struct {
	variants map[model.OperationKind]operationVariant
	order    []model.OperationKind
}

// NewRegistry は全操作種別を登録した登録表を生成する。
func NewRegistry() *Registry {
	registry := &Registry{variants: map[model.OperationKind]operationVariant{}}
	registry.register(&worldSpaceVariant{baseVariant{model.OperationWorldSpace}})
	registry.register(&parentSpaceVariant{baseVariant{model.OperationParentSpace}})
	registry.register(&parentOffsetVariant{baseVariant{model.OperationParentOffsetSpace}})
	registry.register(&aimVariant{baseVariant: baseVariant{model.OperationAimSpace}})
	registry.register(&aimVariant{baseVariant: baseVariant{model.OperationAimOffsetSpace}, useOffset: true})
	registry.register(&reverseHierarchyVariant{baseVariant{model.OperationReverseHierarchy}})
	registry.register(&ikLimbVariant{baseVariant{model.OperationIKLimb}})
	registry.register(&ikStretchVariant{baseVariant{model.OperationIKStretch}})
	registry.register(&rotationDistributionVariant{baseVariant{model.OperationRotationDistribution}})
	registry.register(&centerOfMassVariant{baseVariant{model.OperationCenterOfMass}})
	registry.register(&simpleCopyVariant{baseVariant{model.OperationSimpleCopyTransforms}})
	return registry
}

func (r *Registry) register(variant operationVariant) {
	if _, exists := r.variants[variant.kind()]; !exists {
		r.order = append(r.order, variant.kind())
	}
	r.variants[variant.kind()] = variant
}

func (r *Registry) lookup(kind model.OperationKind) (operationVariant, bool) {
	variant, ok := r.variants[kind]
	return variant, ok
}

// Has は操作種別が登録済みか判定する。
func (r *Registry) Has(kind model.OperationKind) bool {
	_, ok := r.variants[kind]
	return ok
}

// Kinds は登録順の操作種別を返す。
func (r *Registry) Kinds() []model.OperationKind {
	return append([]model.OperationKind(nil), r.order...)
}

// affectedBy はエントリの操作で姿勢が置き換わる元関節を返す。
func (r *Registry) affectedBy(ctx *operationContext, entry *rigstate.Entry) []string {
	variant, ok := r.lookup(model.OperationKind(entry.Kind))
	if !ok {
		return append([]string(nil), entry.Joints...)
	}
	names := make([]string, 0)
	for _, target := range variant.removalTargets(ctx, entry) {
		if target.Sink.Skeleton == ctx.skeleton.Name {
			names = append(names, target.Sink.Joint)
		}
	}
	return names
}

// baseVariant は各操作種別の共通実装を表す。
type baseVariant struct {
	operation model.OperationKind
}

func (v baseVariant) kind() model.OperationKind {
	return v.operation
}

// planEach は要求の関節ごとに1単位を作る。
func (v baseVariant) planEach(ctx *operationContext, req OperationRequest, fn func(name string, unit *operationUnit) bool) []*operationUnit {
	units := make([]*operationUnit, 0, len(req.Joints))
	for _, raw := range uniqueNames(req.Joints) {
		name, ok := ctx.requireJoint(raw)
		if !ok {
			continue
		}
		unit := newOperationUnit(v.operation, name, req.Params)
		if fn != nil && !fn(name, unit) {
			continue
		}
		units = append(units, unit)
	}
	return units
}

func (v baseVariant) bind(ctx *operationContext, unit *operationUnit) error {
	return nil
}

func (v baseVariant) entry(ctx *operationContext, unit *operationUnit) *rigstate.Entry {
	return ctx.newEntry(unit)
}

func (v baseVariant) decode(entry *rigstate.Entry) OperationRequest {
	return OperationRequest{Kind: v.operation, Joints: append([]string(nil), entry.Joints...)}
}

// removalTargets は記録された元関節を書き込み先、操作の代理関節と自身をベイク元とする。
func (v baseVariant) removalTargets(ctx *operationContext, entry *rigstate.Entry) []BakeTarget {
	return proxySourcedTargets(ctx, entry, entry.Joints)
}

// proxySourcedTargets は sinks それぞれについて、エントリの代理関節と自身をベイク元にしたターゲットを返す。
func proxySourcedTargets(ctx *operationContext, entry *rigstate.Entry, sinks []string) []BakeTarget {
	proxies := ctx.skeleton.JointsForEntry(entry.Key)
	targets := make([]BakeTarget, 0, len(sinks))
	for _, sink := range sinks {
		target := BakeTarget{Sink: ctx.ref(sink)}
		for _, proxy := range proxies {
			target.Sources = append(target.Sources, NewBakeSource(ctx.ref(proxy)))
		}
		target.Sources = append(target.Sources, NewBakeSource(ctx.ref(sink)))
		targets = append(targets, target)
	}
	return targets
}
