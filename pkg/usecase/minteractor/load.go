// 指示: miu200521358
package minteractor

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/pose"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
	"github.com/miu200521358/mu_rigbake/pkg/shared/base/merr"
	"github.com/miu200521358/mu_rigbake/pkg/usecase/port/moutput"
)

// boneStateTag は関節状態適用時の一時コンストレイントのタグ。
const boneStateTag = "#bone_state"

// LoadStateFile はファイルからリグ状態を読み込み、骨格へ再適用する。
func (uc *RigBakeUsecase) LoadStateFile(
	rep moutput.IRigStateReader,
	path string,
	sc *scene.Scene,
	skeletonName string,
	reporter IProgressReporter,
) (*LoadStateResult, []string, error) {
	repo := rep
	if repo == nil {
		repo = uc.stateReader
	}
	if repo == nil {
		return nil, nil, fmt.Errorf("リグ状態読み込みリポジトリが設定されていません")
	}
	if strings.TrimSpace(path) == "" {
		return nil, nil, fmt.Errorf("リグ状態ファイルパスが未指定です")
	}
	doc, err := repo.Load(path)
	if err != nil {
		return nil, nil, err
	}
	result, problems := uc.LoadState(sc, skeletonName, doc, reporter)
	return result, problems, nil
}

// LoadState は文書の表示グループ・操作・関節状態の順に骨格へ適用する。
// 既に有効なキーの操作は読み飛ばし、未知の種別は問題一覧に追加して続行する。
func (uc *RigBakeUsecase) LoadState(
	sc *scene.Scene,
	skeletonName string,
	doc *rigstate.Document,
	reporter IProgressReporter,
) (*LoadStateResult, []string) {
	problems := &merr.Problems{}
	result := &LoadStateResult{}
	if sc == nil || doc == nil {
		problems.Add("シーンまたはリグ状態文書が未設定です")
		return result, problems.Strings()
	}
	skeleton, ok := sc.Skeleton(model.NormalizeName(skeletonName))
	if !ok {
		problems.Addf("%s|Armature not found: %s", model.BoneStateProblemLabel, skeletonName)
		return result, problems.Strings()
	}

	applyDisplayGroups(skeleton, doc.DisplayGroups())
	reported := uc.replayConstraints(sc, skeleton, doc, result, problems)
	reportProgress(reporter, ProgressEvent{Type: ProgressEventTypeStateReplayed, UnitCount: len(result.Replayed)})

	result.States = uc.applyBoneStates(sc, skeleton, doc, reported, problems)
	reportProgress(reporter, ProgressEvent{Type: ProgressEventTypeBoneStatesApplied, UnitCount: result.States})
	logStateInfo("リグ状態を読み込みました: %s 再適用=%d 読み飛ばし=%d 関節=%d",
		skeleton.Name, len(result.Replayed), len(result.Skipped), result.States)
	return result, problems.Strings()
}

// applyDisplayGroups は表示グループを作成し、可視状態を合わせる。
func applyDisplayGroups(skeleton *model.Skeleton, groups *rigstate.DisplayGroups) {
	if groups == nil {
		return
	}
	for i, name := range groups.Names {
		visible := true
		if i < len(groups.Visibility) {
			visible = groups.Visibility[i]
		}
		skeleton.EnsureCollection(name, visible).Visible = visible
	}
}

// replayRun は同じ種別・同じパラメータで一括適用する要求を表す。
type replayRun struct {
	request OperationRequest
	keys    []string
}

// replayConstraints は記録順に操作を再適用し、見つからなかった関節名を返す。
// 連続する同じ種別でパラメータが等しい単関節の操作はまとめて適用する。
func (uc *RigBakeUsecase) replayConstraints(
	sc *scene.Scene,
	skeleton *model.Skeleton,
	doc *rigstate.Document,
	result *LoadStateResult,
	problems *merr.Problems,
) map[string]bool {
	reported := map[string]bool{}
	runs := make([]*replayRun, 0)
	for _, key := range doc.Constraints.Keys() {
		record, _ := doc.Constraints.Get(key)
		if skeleton.State.Contains(key) {
			result.Skipped = append(result.Skipped, key)
			continue
		}
		kind := model.OperationKind(record.ConstraintType)
		variant, ok := uc.registry.lookup(kind)
		if !ok {
			problems.AddError(merr.NewConfigurationError("未対応の操作種別です: %s (%s)", record.ConstraintType, key))
			result.Skipped = append(result.Skipped, key)
			continue
		}
		req := variant.decode(rigstate.EntryFromRecord(key, record))
		req.Skeleton = skeleton.Name
		if n := len(runs); n > 0 && canMergeReplay(runs[n-1].request, req) {
			runs[n-1].request.Joints = append(runs[n-1].request.Joints, req.Joints...)
			runs[n-1].keys = append(runs[n-1].keys, key)
			continue
		}
		runs = append(runs, &replayRun{request: req, keys: []string{key}})
	}

	for _, run := range runs {
		applied, runProblems := uc.Apply(sc, run.request)
		problems.Extend(runProblems)
		for _, name := range applied.Missing {
			reported[name] = true
		}
		for _, entry := range applied.Entries {
			result.Replayed = append(result.Replayed, entry.Key)
		}
		logStateInfo("操作を再適用しました: %s %s", run.request.Kind, strings.Join(run.request.Joints, ", "))
	}
	return reported
}

// canMergeReplay は2つの再適用要求を1回の適用にまとめられるか判定する。
func canMergeReplay(prev OperationRequest, next OperationRequest) bool {
	if prev.Kind != next.Kind || len(next.Joints) != 1 || len(prev.Joints) == 0 {
		return false
	}
	switch prev.Kind {
	case model.OperationReverseHierarchy, model.OperationCenterOfMass:
		return false
	}
	return reflect.DeepEqual(prev.Params, next.Params)
}

// boneStateChange は継承・回転表現の変更で動きの付け直しが必要な関節を表す。
type boneStateChange struct {
	joint *model.Joint
	state rigstate.BoneState
	proxy string
}

// applyBoneStates は関節状態を一括で適用し、適用した関節数を返す。
func (uc *RigBakeUsecase) applyBoneStates(
	sc *scene.Scene,
	skeleton *model.Skeleton,
	doc *rigstate.Document,
	reported map[string]bool,
	problems *merr.Problems,
) int {
	missing := make([]string, 0)
	changes := make([]*boneStateChange, 0)
	applied := 0
	for _, name := range doc.BoneStates.Keys() {
		state, _ := doc.BoneStates.Get(name)
		joint, ok := skeleton.Joint(name)
		if !ok {
			if !reported[model.NormalizeName(name)] {
				missing = append(missing, name)
			}
			continue
		}
		applyBoneDisplay(skeleton, joint, state)
		applied++
		if needsReexpression(joint, state) {
			changes = append(changes, &boneStateChange{joint: joint, state: state})
			continue
		}
		applyBoneInheritance(joint, state)
	}
	if len(missing) > 0 {
		problems.Addf("%s|Bone not found: %s", model.BoneStateProblemLabel, strings.Join(missing, ", "))
	}
	if len(changes) > 0 {
		if err := reexpressMotion(sc, skeleton, changes, problems); err != nil {
			problems.AddError(err)
		}
	}
	return applied
}

// applyBoneDisplay は表示形状・色・表示グループ・カスタムプロパティを適用する。
func applyBoneDisplay(skeleton *model.Skeleton, joint *model.Joint, state rigstate.BoneState) {
	joint.Display.ShapeRef = state.DisplayShapeRef
	if shape := state.DisplayShapeTransform; shape != nil {
		joint.Display.ShapeScale = mmath.NewVec3(shape.Scale[0], shape.Scale[1], shape.Scale[2])
		joint.Display.ShapeTranslation = mmath.NewVec3(shape.Translation[0], shape.Translation[1], shape.Translation[2])
		joint.Display.ShapeRotation = mmath.NewVec3(shape.Rotation[0], shape.Rotation[1], shape.Rotation[2])
		joint.Display.ShapeTransform = shape.Joint
	}
	if color := state.Color; color != nil {
		joint.Display.ColorPalette = color.Palette
		joint.Display.NormalColor = color.Normal
		joint.Display.SelectColor = color.Select
		joint.Display.ActiveColor = color.Active
	}
	hidden := joint.InCollection(model.HiddenCollectionName)
	joint.Display.Collections = nil
	for _, name := range state.Collections {
		skeleton.AssignCollection(joint.Name, name)
	}
	if hidden {
		skeleton.AssignCollection(joint.Name, model.HiddenCollectionName)
	}
	for _, pair := range state.CustomInfluenceWeights {
		if joint.Props == nil {
			joint.Props = map[string]float64{}
		}
		joint.Props[pair.Key] = pair.Value
	}
}

func needsReexpression(joint *model.Joint, state rigstate.BoneState) bool {
	mode := mmath.ParseRotationMode(state.RotationMode)
	if state.RotationMode != "" && mode != joint.RotationMode {
		return true
	}
	if state.UseInheritRotation != joint.InheritRotation {
		return true
	}
	return state.InheritScale != "" && model.InheritScale(state.InheritScale) != joint.InheritScale
}

// applyBoneInheritance は回転表現と継承方式を設定する。静的な回転は新しい表現へ変換する。
func applyBoneInheritance(joint *model.Joint, state rigstate.BoneState) {
	if state.RotationMode != "" {
		mode := mmath.ParseRotationMode(state.RotationMode)
		if mode != joint.RotationMode {
			rotation := joint.BasisRotation()
			joint.RotationMode = mode
			if mode.IsEuler() {
				joint.RotationEuler = mmath.CompatibleEuler(rotation.ToMat4(), mode, joint.RotationEuler)
			} else {
				joint.RotationQuaternion = rotation
			}
		}
	}
	joint.InheritRotation = state.UseInheritRotation
	if state.InheritScale != "" {
		joint.InheritScale = model.InheritScale(state.InheritScale)
	}
}

// reexpressMotion は一時代理関節へ動きを退避してから設定を変更し、同じ骨格空間の動きを書き戻す。
func reexpressMotion(sc *scene.Scene, skeleton *model.Skeleton, changes []*boneStateChange, problems *merr.Problems) error {
	err := skeleton.WithStructuralEditScope(func() error {
		for _, change := range changes {
			name := skeleton.UniqueName(model.ProxyName("Temp", change.joint.Name))
			proxy, err := skeleton.DuplicateJoint(change.joint.Name, name, "")
			if err != nil {
				return err
			}
			proxy.InheritRotation = true
			proxy.InheritScale = model.InheritScaleFull
			change.proxy = proxy.Name
		}
		return nil
	})
	defer removeTempProxies(sc, skeleton, changes, problems)
	if err != nil {
		return err
	}

	opts := bakeOptionsFor(sc)
	stash := make([]BakeTarget, 0, len(changes))
	for _, change := range changes {
		c := constraint.New(constraint.KindCopyTransforms, scene.Ref(skeleton, change.proxy), scene.Ref(skeleton, change.joint.Name))
		c.EngineOwned = true
		c.Tag = boneStateTag
		sc.Constraints.Add(c)
		stash = append(stash, BakeTarget{
			Sink:    scene.Ref(skeleton, change.proxy),
			Sources: []BakeSource{NewBakeSource(scene.Ref(skeleton, change.joint.Name))},
		})
	}
	_, bakeProblems := Bake(sc, stash, opts)
	problems.Extend(bakeProblems)
	if err := releaseBoneStateConstraints(sc, skeleton, changes, true); err != nil {
		return err
	}

	restore := make([]BakeTarget, 0, len(changes))
	for _, change := range changes {
		hadKeys := sc.Store.HasJointAnimation(skeleton.Name, change.joint.Name)
		applyBoneInheritance(change.joint, change.state)
		if hadKeys {
			sc.Store.ClearJointKeys(skeleton.Name, change.joint.Name)
		}
		c := constraint.New(constraint.KindCopyTransforms, scene.Ref(skeleton, change.joint.Name), scene.Ref(skeleton, change.proxy))
		c.EngineOwned = true
		c.Tag = boneStateTag
		sc.Constraints.Add(c)
		restore = append(restore, BakeTarget{
			Sink:    scene.Ref(skeleton, change.joint.Name),
			Sources: []BakeSource{NewBakeSource(scene.Ref(skeleton, change.proxy))},
		})
	}
	_, bakeProblems = Bake(sc, restore, opts)
	problems.Extend(bakeProblems)
	if err := releaseBoneStateConstraints(sc, skeleton, changes, false); err != nil {
		return err
	}
	logStateInfo("関節設定の変更に合わせて動きを付け直しました: %s %d件", skeleton.Name, len(changes))
	return nil
}

// releaseBoneStateConstraints は一時コンストレイントを外す。toProxy は代理関節側の解除を表す。
func releaseBoneStateConstraints(sc *scene.Scene, skeleton *model.Skeleton, changes []*boneStateChange, toProxy bool) error {
	refs := make([]constraint.JointRef, 0, len(changes))
	for _, change := range changes {
		if toProxy {
			refs = append(refs, scene.Ref(skeleton, change.proxy))
		} else {
			refs = append(refs, scene.Ref(skeleton, change.joint.Name))
		}
	}
	_, err := pose.ReleaseConstraints(sc, refs, func(c *constraint.Constraint) bool { return c.Tag == boneStateTag })
	return err
}

// removeTempProxies は一時代理関節とそのキー・コンストレイントを取り除く。
func removeTempProxies(sc *scene.Scene, skeleton *model.Skeleton, changes []*boneStateChange, problems *merr.Problems) {
	sc.Constraints.RemoveWhere(func(c *constraint.Constraint) bool { return c.Tag == boneStateTag })
	proxies := make([]string, 0, len(changes))
	for _, change := range changes {
		if change.proxy != "" {
			proxies = append(proxies, change.proxy)
		}
	}
	if err := deleteProxies(sc, skeleton, proxies); err != nil {
		problems.AddError(err)
	}
	for _, change := range changes {
		clearEmptyChannels(sc, skeleton, change.joint.Name)
	}
}

// clearEmptyChannels はサンプルのないチャンネルを取り除く。
func clearEmptyChannels(sc *scene.Scene, skeleton *model.Skeleton, joint string) {
	for _, clip := range sc.Store.RelevantClips(skeleton.Name) {
		for _, channel := range clip.JointChannels(joint) {
			if len(channel.Keyframes) == 0 {
				clip.RemoveChannel(channel.Key)
			}
		}
	}
}
