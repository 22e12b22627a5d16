// 指示: miu200521358
package minteractor

import (
	"fmt"
	"strings"

	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/pose"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
	"github.com/miu200521358/mu_rigbake/pkg/shared/base/merr"
)

// bindTagSuffix はベイク用の一時コンストレイントのタグ接尾辞。
const bindTagSuffix = "#bind"

// operationVariant は操作種別ごとの構築手順を表す。
type operationVariant interface {
	kind() model.OperationKind
	// plan は要求を処理単位へ分ける。見つからない関節は ctx に報告する。
	plan(ctx *operationContext, req OperationRequest) []*operationUnit
	build(ctx *operationContext, unit *operationUnit) error
	bind(ctx *operationContext, unit *operationUnit) error
	rewire(ctx *operationContext, unit *operationUnit) error
	entry(ctx *operationContext, unit *operationUnit) *rigstate.Entry
	// decode はログのエントリから再適用用の要求を作る。
	decode(entry *rigstate.Entry) OperationRequest
	// removalTargets は解除時に元関節へ書き戻すベイクターゲットを返す。書き込み先は操作の影響を受ける元関節。
	removalTargets(ctx *operationContext, entry *rigstate.Entry) []BakeTarget
}

// operationUnit は1件のログエントリになる処理単位を表す。
type operationUnit struct {
	key      string
	name     string
	joints   []string
	affected []string
	params   OperationParams
	proxies  map[string]string
	created  []string
	targets  []BakeTarget
	offset   mmath.Mat4
	axis     mmath.Vec3
}

func newOperationUnit(kind model.OperationKind, name string, params OperationParams) *operationUnit {
	return &operationUnit{
		key:      kind.EntryKey(name),
		name:     name,
		joints:   []string{name},
		affected: []string{name},
		params:   params,
		proxies:  map[string]string{},
		offset:   mmath.Mat4Identity(),
	}
}

// proxy は役割ラベルに対応する生成済み代理関節名を返す。
func (u *operationUnit) proxy(label string) string {
	return u.proxies[label]
}

// operationContext は1回の操作要求の処理文脈を表す。
type operationContext struct {
	scene    *scene.Scene
	skeleton *model.Skeleton
	kind     model.OperationKind
	defaults OperationDefaults
	registry *Registry
	problems *merr.Problems
	missing  []string
}

func newOperationContext(
	sc *scene.Scene,
	skeleton *model.Skeleton,
	kind model.OperationKind,
	defaults OperationDefaults,
	registry *Registry,
	problems *merr.Problems,
) *operationContext {
	return &operationContext{
		scene:    sc,
		skeleton: skeleton,
		kind:     kind,
		defaults: defaults,
		registry: registry,
		problems: problems,
	}
}

// notFoundProblem は関節が見つからない場合の問題文字列を返す。
func notFoundProblem(label string, skeleton string, joint string) string {
	return fmt.Sprintf("%s|Bone not found: %s[%s]", label, skeleton, joint)
}

func (ctx *operationContext) label() string {
	return ctx.kind.ProblemLabel()
}

func (ctx *operationContext) ref(name string) constraint.JointRef {
	return scene.Ref(ctx.skeleton, name)
}

// requireJoint は関節名を正規化して存在を確認する。見つからない場合は問題一覧に追加する。
func (ctx *operationContext) requireJoint(name string) (string, bool) {
	normalized := model.NormalizeName(name)
	if !ctx.skeleton.Has(normalized) {
		ctx.reportMissing(ctx.skeleton.Name, normalized)
		return normalized, false
	}
	return normalized, true
}

func (ctx *operationContext) reportMissing(skeleton string, joint string) {
	ctx.problems.Add(notFoundProblem(ctx.label(), skeleton, joint))
	ctx.missing = append(ctx.missing, joint)
}

// requireParents はチェーン長に足りる親関節があるか確認する。
func (ctx *operationContext) requireParents(name string, count int) bool {
	if len(ctx.skeleton.ParentChain(name)) >= count {
		return true
	}
	ctx.problems.Addf("%s|Not enough parents: %s[%s]", ctx.label(), ctx.skeleton.Name, name)
	return false
}

// uniqueNames は正規化して重複を除いた関節名を返す。
func uniqueNames(names []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(names))
	for _, name := range names {
		normalized := model.NormalizeName(name)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	return out
}

// liveAffected は有効なエントリごとの影響関節を返す。
func (ctx *operationContext) liveAffected() map[string]string {
	owners := map[string]string{}
	for _, entry := range ctx.skeleton.State.Entries() {
		for _, name := range ctx.registry.affectedBy(ctx, entry) {
			if _, ok := owners[name]; !ok {
				owners[name] = entry.Key
			}
		}
	}
	return owners
}

// rejectOverlaps は有効な操作や同じ要求内の前の単位と影響関節が重なる単位を除く。
func (ctx *operationContext) rejectOverlaps(units []*operationUnit) []*operationUnit {
	owners := ctx.liveAffected()
	accepted := make([]*operationUnit, 0, len(units))
	for _, unit := range units {
		conflict := ""
		for _, name := range unit.affected {
			if ctx.skeleton.IsEngineOwned(name) {
				conflict = name
				break
			}
			if _, ok := owners[name]; ok {
				conflict = name
				break
			}
		}
		if conflict != "" {
			ctx.problems.Addf("%s|Bone already in use: %s[%s]", ctx.label(), ctx.skeleton.Name, conflict)
			continue
		}
		for _, name := range unit.affected {
			owners[name] = unit.key
		}
		accepted = append(accepted, unit)
	}
	return accepted
}

// duplicateProxy は元関節を複製した代理関節を生成する。構造編集スコープ内で呼ぶ。
func (ctx *operationContext) duplicateProxy(
	unit *operationUnit,
	label string,
	prefix string,
	source string,
	parent string,
	rest mmath.Mat4,
) (*model.Joint, error) {
	name := ctx.skeleton.UniqueName(model.ProxyName(prefix, source))
	joint, err := ctx.skeleton.DuplicateJoint(source, name, parent)
	if err != nil {
		return nil, err
	}
	joint.Rest = rest
	joint.InheritRotation = true
	joint.InheritScale = model.InheritScaleFull
	unit.proxies[label] = joint.Name
	unit.created = append(unit.created, joint.Name)
	return joint, nil
}

// createProxy は新しい代理関節を生成する。構造編集スコープ内で呼ぶ。
func (ctx *operationContext) createProxy(
	unit *operationUnit,
	label string,
	name string,
	parent string,
	rest mmath.Mat4,
	length float64,
) (*model.Joint, error) {
	joint, err := ctx.skeleton.CreateJoint(ctx.skeleton.UniqueName(name), parent, rest, length)
	if err != nil {
		return nil, err
	}
	unit.proxies[label] = joint.Name
	unit.created = append(unit.created, joint.Name)
	return joint, nil
}

func (ctx *operationContext) addConstraint(
	tag string,
	kind constraint.Kind,
	owner constraint.JointRef,
	target constraint.JointRef,
) *constraint.Constraint {
	c := constraint.New(kind, owner, target)
	c.Name = fmt.Sprintf("%s %s", ctx.kind, kind)
	c.EngineOwned = true
	c.Tag = tag
	return ctx.scene.Constraints.Add(c)
}

// bindConstraint はベイク用の一時コンストレイントを追加する。
func (ctx *operationContext) bindConstraint(unit *operationUnit, kind constraint.Kind, owner string, target constraint.JointRef) *constraint.Constraint {
	return ctx.addConstraint(unit.key+bindTagSuffix, kind, ctx.ref(owner), target)
}

// behaviorConstraint は操作の恒久コンストレイントを追加する。
func (ctx *operationContext) behaviorConstraint(unit *operationUnit, kind constraint.Kind, owner string, target constraint.JointRef) *constraint.Constraint {
	return ctx.addConstraint(unit.key, kind, ctx.ref(owner), target)
}

// addBakeTarget は代理関節を書き込み先とするベイクターゲットを登録する。
func (ctx *operationContext) addBakeTarget(unit *operationUnit, sink string, sources ...constraint.JointRef) {
	target := BakeTarget{Sink: ctx.ref(sink)}
	for _, source := range sources {
		target.Sources = append(target.Sources, NewBakeSource(source))
	}
	unit.targets = append(unit.targets, target)
}

// hide は置き換えた元関節を非表示グループへ移す。
func (ctx *operationContext) hide(name string) {
	ctx.skeleton.EnsureCollection(model.HiddenCollectionName, false)
	ctx.skeleton.AssignCollection(name, model.HiddenCollectionName)
}

// unhide は元関節を非表示グループから戻し、空になったグループを削除する。
func (ctx *operationContext) unhide(name string) {
	ctx.skeleton.UnassignCollection(name, model.HiddenCollectionName)
	ctx.skeleton.RemoveEmptyCollection(model.HiddenCollectionName)
}

// clearKeys は関連クリップから関節のマスク内チャンネルを削除する。
func (ctx *operationContext) clearKeys(name string, mask anim.ChannelMask) int {
	removed := 0
	for _, clip := range ctx.scene.Store.RelevantClips(ctx.skeleton.Name) {
		for _, key := range mask.Keys(name) {
			if clip.RemoveChannel(key) {
				removed++
			}
		}
	}
	return removed
}

// assignRoles は生成した代理関節へ役割を設定する。
func (ctx *operationContext) assignRoles(unit *operationUnit) {
	for _, name := range unit.created {
		ctx.skeleton.SetRole(name, model.RoleTag{
			Kind:         ctx.kind.Role(),
			HostSkeleton: ctx.skeleton.Name,
			HostJoint:    unit.name,
			EntryKey:     unit.key,
		})
	}
}

// releaseBinding は一時コンストレイントを外す。キーのない代理関節は解決済み姿勢を静的姿勢へ書き戻す。
func (ctx *operationContext) releaseBinding(unit *operationUnit) error {
	tag := unit.key + bindTagSuffix
	owners := make([]constraint.JointRef, 0)
	seen := map[constraint.JointRef]bool{}
	for _, c := range ctx.scene.Constraints.ByTag(tag) {
		if !seen[c.Owner] {
			seen[c.Owner] = true
			owners = append(owners, c.Owner)
		}
	}
	_, err := pose.ReleaseConstraints(ctx.scene, owners, func(c *constraint.Constraint) bool { return c.Tag == tag })
	return err
}

// discard は途中で失敗した単位の生成物を取り除く。
func (ctx *operationContext) discard(unit *operationUnit) {
	ctx.scene.Constraints.RemoveWhere(func(c *constraint.Constraint) bool {
		return c.Tag == unit.key || c.Tag == unit.key+bindTagSuffix
	})
	ctx.scene.Drivers.RemoveWhere(func(d *constraint.Driver) bool { return d.Tag == unit.key })
	err := ctx.skeleton.WithStructuralEditScope(func() error {
		for i := len(unit.created) - 1; i >= 0; i-- {
			ctx.scene.Store.ClearJointKeys(ctx.skeleton.Name, unit.created[i])
			if err := ctx.skeleton.RemoveJoint(unit.created[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logBakeWarn("生成途中の代理関節を削除できません: %s %v", unit.key, err)
	}
	for _, name := range unit.joints {
		ctx.unhide(name)
	}
}

// newEntry は単位からログのエントリを作る。
func (ctx *operationContext) newEntry(unit *operationUnit) *rigstate.Entry {
	return &rigstate.Entry{
		Key:      unit.key,
		FullName: fmt.Sprintf("%s: %s", ctx.kind, strings.Join(unit.joints, ", ")),
		Kind:     string(ctx.kind),
		Joints:   append([]string(nil), unit.joints...),
	}
}

// Apply は空間変換操作を一括で適用する。見つからない関節や重なる関節は問題一覧に追加し、残りは処理を続ける。
func (uc *RigBakeUsecase) Apply(sc *scene.Scene, req OperationRequest) (*OperationResult, []string) {
	problems := &merr.Problems{}
	result := &OperationResult{Kind: req.Kind, Skeleton: req.Skeleton}
	if sc == nil {
		problems.Add("シーンが未設定です")
		return result, problems.Strings()
	}
	variant, ok := uc.registry.lookup(req.Kind)
	if !ok {
		problems.AddError(merr.NewConfigurationError("未対応の操作種別です: %s", req.Kind))
		return result, problems.Strings()
	}
	skeleton, ok := sc.Skeleton(model.NormalizeName(req.Skeleton))
	if !ok {
		problems.Addf("%s|Armature not found: %s", req.Kind.ProblemLabel(), req.Skeleton)
		return result, problems.Strings()
	}
	result.Skeleton = skeleton.Name

	ctx := newOperationContext(sc, skeleton, req.Kind, uc.defaults, uc.registry, problems)
	units := ctx.rejectOverlaps(variant.plan(ctx, req))
	result.Missing = append(result.Missing, ctx.missing...)
	if len(units) == 0 {
		return result, problems.Strings()
	}

	for _, unit := range runOperation(ctx, variant, units, req.ProgressReporter) {
		if entry, ok := skeleton.State.Get(unit.key); ok {
			result.Entries = append(result.Entries, entry)
		}
		result.Joints = append(result.Joints, unit.joints...)
		result.Proxies = append(result.Proxies, unit.created...)
	}
	return result, problems.Strings()
}

// runOperation は構築・接続・ベイク・張り替え・記録の順に単位を処理し、記録まで到達した単位を返す。
func runOperation(
	ctx *operationContext,
	variant operationVariant,
	units []*operationUnit,
	reporter IProgressReporter,
) []*operationUnit {
	built := make([]*operationUnit, 0, len(units))
	failed := make([]*operationUnit, 0)
	err := ctx.skeleton.WithStructuralEditScope(func() error {
		for _, unit := range units {
			if err := variant.build(ctx, unit); err != nil {
				ctx.problems.Addf("%s|%s: %v", ctx.label(), unit.name, err)
				failed = append(failed, unit)
				continue
			}
			built = append(built, unit)
		}
		return nil
	})
	for _, unit := range failed {
		ctx.discard(unit)
	}
	if err != nil {
		ctx.problems.AddError(err)
		return nil
	}
	reportProgress(reporter, ProgressEvent{Type: ProgressEventTypeStructureBuilt, Kind: ctx.kind, UnitCount: len(built)})

	bound := make([]*operationUnit, 0, len(built))
	targets := make([]BakeTarget, 0)
	for _, unit := range built {
		if err := variant.bind(ctx, unit); err != nil {
			ctx.problems.Addf("%s|%s: %v", ctx.label(), unit.name, err)
			ctx.discard(unit)
			continue
		}
		bound = append(bound, unit)
		targets = append(targets, unit.targets...)
	}
	reportProgress(reporter, ProgressEvent{Type: ProgressEventTypeBound, Kind: ctx.kind, UnitCount: len(bound)})

	summary, bakeProblems := Bake(ctx.scene, targets, bakeOptionsFor(ctx.scene))
	ctx.problems.Extend(bakeProblems)
	reportProgress(reporter, ProgressEvent{
		Type:         ProgressEventTypeBaked,
		Kind:         ctx.kind,
		UnitCount:    len(bound),
		FrameCount:   summary.Frames,
		ChannelCount: summary.Channels,
	})

	rewired := make([]*operationUnit, 0, len(bound))
	for _, unit := range bound {
		if ctx.skeleton.State.Contains(unit.key) {
			ctx.problems.AddError(merr.NewStateConsistencyError("リグ状態ログへ記録できません: %s", unit.key))
			ctx.discard(unit)
			continue
		}
		if err := ctx.releaseBinding(unit); err != nil {
			ctx.problems.Addf("%s|%s: %v", ctx.label(), unit.name, err)
			ctx.discard(unit)
			continue
		}
		if err := variant.rewire(ctx, unit); err != nil {
			ctx.problems.Addf("%s|%s: %v", ctx.label(), unit.name, err)
			ctx.discard(unit)
			continue
		}
		ctx.assignRoles(unit)
		rewired = append(rewired, unit)
	}
	reportProgress(reporter, ProgressEvent{Type: ProgressEventTypeBehaviorRewired, Kind: ctx.kind, UnitCount: len(rewired)})

	logged := make([]*operationUnit, 0, len(rewired))
	for _, unit := range rewired {
		if err := ctx.skeleton.State.Append(variant.entry(ctx, unit)); err != nil {
			ctx.problems.AddError(merr.NewStateConsistencyError("リグ状態ログへ記録できません: %s %v", unit.key, err))
			ctx.discard(unit)
			continue
		}
		logged = append(logged, unit)
		logBakeInfo("空間変換を適用しました: %s", unit.key)
	}
	reportProgress(reporter, ProgressEvent{Type: ProgressEventTypeLogged, Kind: ctx.kind, UnitCount: len(logged)})
	return logged
}
