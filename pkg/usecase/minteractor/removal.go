// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/pose"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
	"github.com/miu200521358/mu_rigbake/pkg/shared/base/merr"
)

const removeProblemLabel = "Remove"

// removal は解除対象1件を表す。
type removal struct {
	ctx     *operationContext
	entry   *rigstate.Entry
	targets []BakeTarget
	proxies []string
}

// Remove は関節に掛かった操作を解除する。解除前に元関節へ動きをベイクし、代理関節と関連するコンストレイント・ドライバーを取り除く。
// 操作の掛かっていない関節は何もしない。
func (uc *RigBakeUsecase) Remove(sc *scene.Scene, req RemoveRequest) (*RemoveResult, []string) {
	problems := &merr.Problems{}
	result := &RemoveResult{}
	label := removeProblemLabel
	if req.Kind != "" {
		label = req.Kind.ProblemLabel()
	}
	if sc == nil {
		problems.Add("シーンが未設定です")
		return result, problems.Strings()
	}
	if req.Kind != "" && !uc.registry.Has(req.Kind) {
		problems.AddError(merr.NewConfigurationError("未対応の操作種別です: %s", req.Kind))
		return result, problems.Strings()
	}
	skeleton, ok := sc.Skeleton(model.NormalizeName(req.Skeleton))
	if !ok {
		problems.Addf("%s|Armature not found: %s", label, req.Skeleton)
		return result, problems.Strings()
	}

	keys := uc.resolveRemovalKeys(sc, skeleton, req, label, problems)
	removals := make([]*removal, 0, len(keys))
	for _, key := range keys {
		entry, ok := skeleton.State.Get(key)
		if !ok {
			uc.cleanupOrphan(sc, skeleton, key, problems)
			continue
		}
		kind := model.OperationKind(entry.Kind)
		variant, ok := uc.registry.lookup(kind)
		if !ok {
			problems.AddError(merr.NewConfigurationError("未対応の操作種別です: %s", entry.Kind))
			continue
		}
		ctx := newOperationContext(sc, skeleton, kind, uc.defaults, uc.registry, problems)
		removals = append(removals, &removal{
			ctx:     ctx,
			entry:   entry,
			targets: variant.removalTargets(ctx, entry),
			proxies: skeleton.JointsForEntry(key),
		})
	}
	if len(removals) == 0 {
		return result, problems.Strings()
	}

	for _, r := range removals {
		skeleton.State.Remove(r.entry.Key)
	}

	if !sc.Settings.NoBakeOnRemove {
		targets := make([]BakeTarget, 0)
		for _, r := range removals {
			targets = append(targets, r.targets...)
		}
		summary, bakeProblems := Bake(sc, targets, bakeOptionsFor(sc))
		problems.Extend(bakeProblems)
		reportProgress(req.ProgressReporter, ProgressEvent{
			Type:         ProgressEventTypeBaked,
			Kind:         req.Kind,
			UnitCount:    len(removals),
			FrameCount:   summary.Frames,
			ChannelCount: summary.Channels,
		})
	}

	for _, r := range removals {
		if err := releaseEntry(sc, r.entry.Key); err != nil {
			problems.AddError(err)
		}
	}
	for _, r := range removals {
		if err := deleteProxies(sc, skeleton, r.proxies); err != nil {
			problems.AddError(err)
		}
		for _, target := range r.targets {
			if target.Sink.Skeleton == skeleton.Name {
				r.ctx.unhide(target.Sink.Joint)
				result.Joints = append(result.Joints, target.Sink.Joint)
			}
		}
		for _, name := range r.entry.Joints {
			r.ctx.unhide(name)
		}
		result.Entries = append(result.Entries, r.entry.Key)
		result.Proxies = append(result.Proxies, r.proxies...)
		logBakeInfo("空間変換を解除しました: %s", r.entry.Key)
	}
	result.Joints = uniqueNames(result.Joints)
	reportProgress(req.ProgressReporter, ProgressEvent{Type: ProgressEventTypeRemoved, Kind: req.Kind, UnitCount: len(removals)})
	return result, problems.Strings()
}

// resolveRemovalKeys は関節名から解除するエントリキーを登録順で集める。
func (uc *RigBakeUsecase) resolveRemovalKeys(
	sc *scene.Scene,
	skeleton *model.Skeleton,
	req RemoveRequest,
	label string,
	problems *merr.Problems,
) []string {
	matchesKind := func(kind string) bool {
		return req.Kind == "" || model.OperationKind(kind) == req.Kind
	}
	ctx := newOperationContext(sc, skeleton, req.Kind, uc.defaults, uc.registry, problems)
	affected := map[string][]string{}
	for _, entry := range skeleton.State.Entries() {
		if !matchesKind(entry.Kind) {
			continue
		}
		for _, name := range uc.registry.affectedBy(ctx, entry) {
			affected[name] = append(affected[name], entry.Key)
		}
	}

	keys := make([]string, 0)
	seen := map[string]bool{}
	add := func(key string) {
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	for _, name := range uniqueNames(req.Joints) {
		if !skeleton.Has(name) {
			problems.Add(notFoundProblem(label, skeleton.Name, name))
			continue
		}
		if tag, ok := skeleton.RoleOf(name); ok {
			if entry, live := skeleton.State.Get(tag.EntryKey); !live || matchesKind(entry.Kind) {
				add(tag.EntryKey)
			}
			continue
		}
		found := false
		for _, kind := range uc.registry.Kinds() {
			if !matchesKind(string(kind)) {
				continue
			}
			if skeleton.State.Contains(kind.EntryKey(name)) {
				add(kind.EntryKey(name))
				found = true
			}
		}
		if found {
			continue
		}
		for _, key := range affected[name] {
			add(key)
		}
	}
	return keys
}

// releaseEntry はエントリのタグが付いたコンストレイントとドライバーを取り除く。
func releaseEntry(sc *scene.Scene, key string) error {
	owners := make([]constraint.JointRef, 0)
	seen := map[constraint.JointRef]bool{}
	for _, c := range sc.Constraints.ByTag(key) {
		if !seen[c.Owner] {
			seen[c.Owner] = true
			owners = append(owners, c.Owner)
		}
	}
	matchKey := func(c *constraint.Constraint) bool { return c.Tag == key }
	if _, err := pose.ReleaseConstraints(sc, owners, matchKey); err != nil {
		return err
	}
	sc.Constraints.RemoveWhere(matchKey)
	sc.Drivers.RemoveWhere(func(d *constraint.Driver) bool { return d.Tag == key })
	return nil
}

// deleteProxies は代理関節のキーを消し、生成と逆順に削除する。
func deleteProxies(sc *scene.Scene, skeleton *model.Skeleton, proxies []string) error {
	for _, name := range proxies {
		sc.Store.ClearJointKeys(skeleton.Name, name)
	}
	return skeleton.WithStructuralEditScope(func() error {
		for i := len(proxies) - 1; i >= 0; i-- {
			if !skeleton.Has(proxies[i]) {
				continue
			}
			if err := skeleton.RemoveJoint(proxies[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// cleanupOrphan はログに記録のない代理関節の残骸を取り除き、整合性エラーを報告する。
func (uc *RigBakeUsecase) cleanupOrphan(sc *scene.Scene, skeleton *model.Skeleton, key string, problems *merr.Problems) {
	problems.AddError(merr.NewStateConsistencyError("リグ状態ログにない操作の構造が残っています: %s", key))
	proxies := skeleton.JointsForEntry(key)
	hosts := map[string]bool{}
	for _, name := range proxies {
		if tag, ok := skeleton.RoleOf(name); ok && tag.HostJoint != "" {
			hosts[tag.HostJoint] = true
		}
	}
	if err := releaseEntry(sc, key); err != nil {
		problems.AddError(err)
	}
	sc.Constraints.RemoveWhere(func(c *constraint.Constraint) bool { return c.Tag == key+bindTagSuffix })
	if err := deleteProxies(sc, skeleton, proxies); err != nil {
		problems.AddError(err)
	}
	for host := range hosts {
		skeleton.UnassignCollection(host, model.HiddenCollectionName)
	}
	skeleton.RemoveEmptyCollection(model.HiddenCollectionName)
	logStateWarn("残っていた代理関節を削除しました: %s %d件", key, len(proxies))
}
