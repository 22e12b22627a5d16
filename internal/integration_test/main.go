// 指示: miu200521358
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/io_rigstate"
	"github.com/miu200521358/mu_rigbake/pkg/adapter/io_scene"
	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/pose"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
	"github.com/miu200521358/mu_rigbake/pkg/usecase/minteractor"
)

const (
	batchOutputDirMode = 0o755
	skeletonName       = "Armature"
	poseTolerance      = 1e-4
)

var chainJoints = []string{"Root", "Upper", "Lower", "Hand", "Other"}

// scenarioEntry は1操作分の検証入力を表す。
type scenarioEntry struct {
	Index     int
	Name      string
	Request   minteractor.OperationRequest
	CaseDir   string
	ScenePath string
	StatePath string
}

// scenarioResult は1操作分の検証結果を表す。
type scenarioResult struct {
	Entry     scenarioEntry
	Status    string
	Duration  time.Duration
	Err       error
	StageInfo string
}

// batchConfig はシナリオ一括検証の実行設定を表す。
type batchConfig struct {
	OutputRoot string
	DryRun     bool
	FailFast   bool
	Frames     int
}

// progressCollector は操作の進捗イベントを収集する。
type progressCollector struct {
	eventCounts map[minteractor.ProgressEventType]int
	unitTotal   int
	frameMax    int
	channelSum  int
}

// main は全操作種別の適用・保存・復元・削除を一括検証する。
func main() {
	os.Exit(run())
}

// run は実行設定を解決して一括検証を実行し、終了コードを返す。
func run() int {
	config, err := parseBatchConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定解析に失敗しました: %v\n", err)
		return 2
	}
	entries := buildScenarioEntries(config.OutputRoot)
	results := executeBatch(config, entries)
	printBatchSummary(results)
	for _, result := range results {
		if result.Status == "failed" {
			return 1
		}
	}
	return 0
}

// parseBatchConfig はコマンドライン引数から実行設定を構築する。
func parseBatchConfig() (batchConfig, error) {
	defaultOutputRoot, err := resolveDefaultOutputRoot()
	if err != nil {
		return batchConfig{}, err
	}
	outputRoot := flag.String("output-root", defaultOutputRoot, "検証結果の出力ルートディレクトリ")
	dryRun := flag.Bool("dry-run", false, "操作を実行せず、出力先計画のみ表示する")
	failFast := flag.Bool("fail-fast", false, "失敗時に即時終了する")
	frames := flag.Int("frames", 20, "検証する最終フレーム")
	flag.Parse()

	trimmedOutputRoot := strings.TrimSpace(*outputRoot)
	if trimmedOutputRoot == "" {
		return batchConfig{}, errors.New("output-root が空です")
	}
	if *frames < 2 {
		return batchConfig{}, errors.New("frames は 2 以上が必要です")
	}
	return batchConfig{
		OutputRoot: filepath.Clean(trimmedOutputRoot),
		DryRun:     *dryRun,
		FailFast:   *failFast,
		Frames:     *frames,
	}, nil
}

// resolveDefaultOutputRoot はスクリプト配置ディレクトリ基準の既定出力先を返す。
func resolveDefaultOutputRoot() (string, error) {
	_, currentFilePath, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("実行ファイル位置を取得できません")
	}
	return filepath.Join(filepath.Dir(currentFilePath), "output"), nil
}

// buildScenarioEntries は操作種別ごとの検証エントリを生成する。
func buildScenarioEntries(outputRoot string) []scenarioEntry {
	offset := mmath.NewMat4Translation(mmath.NewVec3(0, 0.5, 0))
	noPole := false
	requests := []minteractor.OperationRequest{
		{Kind: model.OperationWorldSpace, Joints: []string{"Lower", "Hand"}},
		{Kind: model.OperationParentSpace, Joints: []string{"Hand"}, Params: minteractor.OperationParams{TargetJoint: "Other"}},
		{Kind: model.OperationParentOffsetSpace, Joints: []string{"Lower"}, Params: minteractor.OperationParams{Offset: &offset}},
		{Kind: model.OperationAimSpace, Joints: []string{"Lower"}, Params: minteractor.OperationParams{AimAxis: "Y", AimDistance: 1}},
		{Kind: model.OperationAimOffsetSpace, Joints: []string{"Lower"}, Params: minteractor.OperationParams{AimAxis: "Y", AimDistance: 1}},
		{Kind: model.OperationReverseHierarchy, Joints: []string{"Lower", "Hand"}},
		{Kind: model.OperationIKLimb, Joints: []string{"Hand"}},
		{Kind: model.OperationIKStretch, Joints: []string{"Hand"}, Params: minteractor.OperationParams{Pole: &noPole, StretchType: minteractor.StretchTypeStretch}},
		{Kind: model.OperationRotationDistribution, Joints: []string{"Lower"}, Params: minteractor.OperationParams{ChainLength: 2}},
		{Kind: model.OperationCenterOfMass, Joints: []string{"Upper", "Other"}, Params: minteractor.OperationParams{Weights: map[string]float64{"Other": 300}}},
		{Kind: model.OperationSimpleCopyTransforms, Joints: []string{"Hand"}, Params: minteractor.OperationParams{TargetJoint: "Other", CopyKind: constraint.KindCopyRotation}},
	}
	entries := make([]scenarioEntry, 0, len(requests))
	for i, req := range requests {
		req.Skeleton = skeletonName
		name := sanitizePathComponent(string(req.Kind))
		caseDir := filepath.Join(outputRoot, fmt.Sprintf("%02d_%s", i+1, name))
		entries = append(entries, scenarioEntry{
			Index:     i + 1,
			Name:      string(req.Kind),
			Request:   req,
			CaseDir:   caseDir,
			ScenePath: filepath.Join(caseDir, "scene.json"),
			StatePath: filepath.Join(caseDir, "rig.json"),
		})
	}
	return entries
}

// executeBatch は全シナリオを順次実行する。
func executeBatch(config batchConfig, entries []scenarioEntry) []scenarioResult {
	results := make([]scenarioResult, 0, len(entries))
	usecase := minteractor.NewRigBakeUsecase(minteractor.RigBakeUsecaseDeps{
		StateReader: io_rigstate.NewRigStateRepository(),
		StateWriter: io_rigstate.NewRigStateRepository(),
		SceneReader: io_scene.NewSceneRepository(),
		SceneWriter: io_scene.NewSceneRepository(),
	})

	total := len(entries)
	for _, entry := range entries {
		fmt.Printf("[%d/%d] 検証開始: kind=%s\n", entry.Index, total, entry.Name)
		result := runScenario(usecase, config, entry)
		results = append(results, result)
		switch result.Status {
		case "succeeded":
			fmt.Printf("[%d/%d] 検証成功: kind=%s output=%s elapsed=%s\n", entry.Index, total, entry.Name, entry.CaseDir, result.Duration.Round(time.Millisecond))
			if strings.TrimSpace(result.StageInfo) != "" {
				fmt.Printf("[%d/%d] 進捗: %s\n", entry.Index, total, result.StageInfo)
			}
		case "dry_run":
			fmt.Printf("[%d/%d] DRY-RUN: kind=%s output=%s\n", entry.Index, total, entry.Name, entry.CaseDir)
		default:
			fmt.Printf("[%d/%d] 検証失敗: kind=%s reason=%v\n", entry.Index, total, entry.Name, result.Err)
			if config.FailFast {
				return results
			}
		}
	}
	return results
}

// runScenario は適用・保存・再読込・状態復元・削除を順に検証する。
func runScenario(usecase *minteractor.RigBakeUsecase, config batchConfig, entry scenarioEntry) scenarioResult {
	result := scenarioResult{Entry: entry, Status: "failed"}
	if config.DryRun {
		result.Status = "dry_run"
		return result
	}
	if err := os.MkdirAll(entry.CaseDir, batchOutputDirMode); err != nil {
		result.Err = fmt.Errorf("出力ディレクトリ作成に失敗しました: %w", err)
		return result
	}

	startedAt := time.Now()
	frames := sampleFrames(config.Frames)
	sc, err := buildArmScene(config.Frames)
	if err != nil {
		result.Err = err
		return result
	}
	before, err := samplePoses(sc, chainJoints, frames)
	if err != nil {
		result.Err = err
		return result
	}

	collector := newProgressCollector()
	req := entry.Request
	req.ProgressReporter = collector
	applied, problems := usecase.Apply(sc, req)
	if len(problems) > 0 {
		result.Err = fmt.Errorf("Applyで問題が発生しました: %s", strings.Join(problems, "; "))
		return result
	}
	if err := comparePoses("applied", sc, before, frames); err != nil {
		result.Err = err
		return result
	}

	if err := usecase.SaveScene(nil, entry.ScenePath, sc); err != nil {
		result.Err = fmt.Errorf("SaveSceneに失敗しました: %w", err)
		return result
	}
	if err := usecase.SaveStateFile(nil, entry.StatePath, sc, skeletonName); err != nil {
		result.Err = fmt.Errorf("SaveStateFileに失敗しました: %w", err)
		return result
	}
	reloaded, err := usecase.LoadScene(nil, entry.ScenePath)
	if err != nil {
		result.Err = fmt.Errorf("LoadSceneに失敗しました: %w", err)
		return result
	}
	if err := comparePoses("reloaded", reloaded, before, frames); err != nil {
		result.Err = err
		return result
	}

	fresh, err := buildArmScene(config.Frames)
	if err != nil {
		result.Err = err
		return result
	}
	loaded, problems, err := usecase.LoadStateFile(nil, entry.StatePath, fresh, skeletonName, collector)
	if err != nil {
		result.Err = fmt.Errorf("LoadStateFileに失敗しました: %w", err)
		return result
	}
	if len(problems) > 0 || len(loaded.Replayed) == 0 {
		result.Err = fmt.Errorf("状態復元が不完全です: replayed=%v problems=%v", loaded.Replayed, problems)
		return result
	}
	if err := comparePoses("replayed", fresh, before, frames); err != nil {
		result.Err = err
		return result
	}

	removal := minteractor.RemoveRequest{
		Kind:             entry.Request.Kind,
		Skeleton:         skeletonName,
		Joints:           entry.Request.Joints,
		ProgressReporter: collector,
	}
	if entry.Request.Kind == model.OperationCenterOfMass {
		// 重心の構成関節は影響対象ではないため代理関節名で解除する。
		removal.Kind = ""
		removal.Joints = applied.Proxies
	}
	removed, problems := usecase.Remove(reloaded, removal)
	if len(problems) > 0 {
		result.Err = fmt.Errorf("Removeで問題が発生しました: %s", strings.Join(problems, "; "))
		return result
	}
	skeleton, _ := reloaded.Skeleton(skeletonName)
	if skeleton.State.Len() != 0 || len(skeleton.EngineOwnedJoints()) != 0 {
		result.Err = fmt.Errorf("削除後に痕跡が残っています: entries=%v proxies=%v", skeleton.State.Keys(), skeleton.EngineOwnedJoints())
		return result
	}
	if err := comparePoses("removed", reloaded, before, frames); err != nil {
		result.Err = err
		return result
	}

	result.Status = "succeeded"
	result.Duration = time.Since(startedAt)
	result.StageInfo = fmt.Sprintf("removed=%d %s", len(removed.Entries), collector.Summary())
	return result
}

// buildArmScene は検証用の腕骨格と回転キーを持つシーンを生成する。
func buildArmScene(lastFrame int) (*scene.Scene, error) {
	sc := scene.NewScene()
	sc.Settings.SmartFrames = false
	skeleton := model.NewSkeleton(skeletonName)
	joints := []struct {
		name   string
		parent string
		head   mmath.Vec3
		length float64
	}{
		{name: "Root", head: mmath.NewVec3(0, 0, 0), length: 1},
		{name: "Upper", parent: "Root", head: mmath.NewVec3(0, 1, 0), length: 1},
		{name: "Lower", parent: "Upper", head: mmath.NewVec3(0, 2, 0), length: 1},
		{name: "Hand", parent: "Lower", head: mmath.NewVec3(0, 3, 0), length: 0.5},
		{name: "Other", head: mmath.NewVec3(2, 0, 0), length: 1},
	}
	err := skeleton.WithStructuralEditScope(func() error {
		for _, j := range joints {
			if _, err := skeleton.CreateJoint(j.name, j.parent, mmath.NewMat4Translation(j.head), j.length); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("骨格生成に失敗しました: %w", err)
	}
	if err := sc.AddSkeleton(skeleton); err != nil {
		return nil, err
	}

	clip := sc.Store.EnsureActiveClip(skeleton.Name)
	end := float64(lastFrame)
	keyRotation(clip, "Upper", mmath.NewVec3(1, 0, 0), []float64{1, end}, []float64{0.1, -0.3})
	keyRotation(clip, "Lower", mmath.NewVec3(1, 0, 0), []float64{1, end / 2, end}, []float64{0.3, 0.8, 1.2})
	keyRotation(clip, "Hand", mmath.NewVec3(0, 0, 1), []float64{1, end}, []float64{0.4, 0.9})
	location := clip.EnsureChannel(anim.ChannelKey{Joint: "Other", Property: anim.PropertyLocation, Index: 2})
	location.Insert(1, 0)
	location.Insert(end, 1.5)
	return sc, nil
}

func keyRotation(clip *anim.Clip, joint string, axis mmath.Vec3, times []float64, angles []float64) {
	for index := 0; index < 4; index++ {
		channel := clip.EnsureChannel(anim.ChannelKey{Joint: joint, Property: anim.PropertyRotationQuaternion, Index: index})
		for i := range times {
			channel.Insert(times[i], mmath.NewQuaternionFromAxisAngle(axis, angles[i]).Get(index))
		}
	}
}

func sampleFrames(lastFrame int) []float64 {
	frames := make([]float64, 0, lastFrame)
	for frame := 1; frame <= lastFrame; frame++ {
		frames = append(frames, float64(frame))
	}
	return frames
}

// samplePoses は関節ごとのフレーム別姿勢行列を返す。
func samplePoses(sc *scene.Scene, names []string, frames []float64) (map[string][]mmath.Mat4, error) {
	resolver := pose.NewResolver(sc)
	poses := make(map[string][]mmath.Mat4, len(names))
	for _, frame := range frames {
		evaluated := resolver.At(frame)
		for _, name := range names {
			m, err := evaluated.Pose(constraint.JointRef{Skeleton: skeletonName, Joint: name})
			if err != nil {
				return nil, fmt.Errorf("姿勢評価に失敗しました: %s frame=%v: %w", name, frame, err)
			}
			poses[name] = append(poses[name], m)
		}
	}
	return poses, nil
}

// comparePoses は元関節の動きが保たれていることを確認する。
func comparePoses(label string, sc *scene.Scene, want map[string][]mmath.Mat4, frames []float64) error {
	got, err := samplePoses(sc, chainJoints, frames)
	if err != nil {
		return err
	}
	for _, name := range chainJoints {
		for i := range frames {
			if !got[name][i].NearEquals(want[name][i], poseTolerance) {
				return fmt.Errorf("%s: 姿勢がずれました joint=%s frame=%v", label, name, frames[i])
			}
		}
	}
	return nil
}

// printBatchSummary は検証結果の集計を標準出力へ表示する。
func printBatchSummary(results []scenarioResult) {
	succeeded := 0
	failed := 0
	dryRun := 0
	for _, result := range results {
		switch result.Status {
		case "succeeded":
			succeeded++
		case "dry_run":
			dryRun++
		default:
			failed++
		}
	}
	fmt.Printf("一括検証サマリ: total=%d succeeded=%d failed=%d dry_run=%d\n", len(results), succeeded, failed, dryRun)
}

// sanitizePathComponent は出力ディレクトリ名に使えない文字を置換する。
func sanitizePathComponent(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "case"
	}
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*', ' ':
			return '_'
		default:
			if r < 0x20 {
				return '_'
			}
			return r
		}
	}, trimmed)
	replaced = strings.Trim(replaced, "_.")
	if replaced == "" {
		return "case"
	}
	return replaced
}

func newProgressCollector() *progressCollector {
	return &progressCollector{eventCounts: map[minteractor.ProgressEventType]int{}}
}

// ReportProgress は操作の進捗イベントを収集する。
func (collector *progressCollector) ReportProgress(event minteractor.ProgressEvent) {
	if collector == nil {
		return
	}
	collector.eventCounts[event.Type]++
	collector.unitTotal += event.UnitCount
	if event.FrameCount > collector.frameMax {
		collector.frameMax = event.FrameCount
	}
	collector.channelSum += event.ChannelCount
}

// Summary は収集した進捗の要約文字列を返す。
func (collector *progressCollector) Summary() string {
	if collector == nil || len(collector.eventCounts) == 0 {
		return ""
	}
	types := make([]string, 0, len(collector.eventCounts))
	for stageType := range collector.eventCounts {
		types = append(types, string(stageType))
	}
	sort.Strings(types)
	return fmt.Sprintf(
		"events=%d units=%d frameMax=%d channels=%d stages=%s",
		len(collector.eventCounts),
		collector.unitTotal,
		collector.frameMax,
		collector.channelSum,
		strings.Join(types, ","),
	)
}
