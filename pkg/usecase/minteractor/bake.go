// 指示: miu200521358
package minteractor

import (
	"math"
	"sort"

	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/pose"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
	"github.com/miu200521358/mu_rigbake/pkg/shared/base/merr"
)

// bakeProblemLabel はベイク時の問題文字列の表示名。
const bakeProblemLabel = "Bake"

// BakeSource はベイク元の関節と、キー時刻を集めるチャンネル・書き込むチャンネルを表す。
type BakeSource struct {
	Joint constraint.JointRef
	Check anim.ChannelMask
	Write anim.ChannelMask
}

// NewBakeSource は全チャンネルを対象とするベイク元を返す。
func NewBakeSource(ref constraint.JointRef) BakeSource {
	return BakeSource{Joint: ref, Check: anim.MaskAll, Write: anim.MaskAll}
}

// BakeTarget は書き込み先の関節とベイク元一覧を表す。
type BakeTarget struct {
	Sink    constraint.JointRef
	Sources []BakeSource
}

// BakeOptions はベイクの動作設定を表す。
type BakeOptions struct {
	SmartFrames   bool
	SmartChannels bool
	// Frames は指定時にフレーム選択を置き換える。
	Frames []float64
	// ActiveOnly はアクティブクリップのみへ書き込む。
	ActiveOnly bool
}

// BakeSummary はベイクの集計を表す。
type BakeSummary struct {
	Clips    int
	Frames   int
	Channels int
}

// bakeOptionsFor はシーン設定からベイク設定を作る。
func bakeOptionsFor(sc *scene.Scene) BakeOptions {
	return BakeOptions{SmartFrames: sc.Settings.SmartFrames, SmartChannels: sc.Settings.SmartChannels}
}

// sinkSamples は書き込み先1件分のサンプル列を表す。
type sinkSamples struct {
	target    BakeTarget
	joint     *model.Joint
	write     anim.ChannelMask
	location  []mmath.Vec3
	rotation  []mmath.Quaternion
	euler     []mmath.Vec3
	scale     []mmath.Vec3
	available bool
}

// Bake は各書き込み先の解決済み姿勢を関連クリップごとにサンプリングし、ローカルチャンネルへ書き込む。
// 見つからない関節を含むターゲットは問題一覧に追加して読み飛ばす。
func Bake(sc *scene.Scene, targets []BakeTarget, opts BakeOptions) (BakeSummary, []string) {
	problems := &merr.Problems{}
	summary := BakeSummary{}
	if sc == nil || len(targets) == 0 {
		return summary, problems.Strings()
	}

	groups, order := partitionTargets(sc, targets, problems)
	cursor := sc.Frame()
	defer sc.SetFrame(cursor)

	for _, name := range order {
		skeleton, _ := sc.Skeleton(name)
		clips := bakeClips(sc, name, opts)
		if len(clips) == 0 {
			logBakeDebug("ベイク対象クリップがありません: %s", name)
			continue
		}
		for _, clip := range clips {
			frames, channels, err := bakeClip(sc, skeleton, clip, groups[name], opts)
			if err != nil {
				problems.AddError(err)
				continue
			}
			if frames > 0 {
				summary.Clips++
			}
			summary.Frames += frames
			summary.Channels += channels
		}
	}
	logBakeInfo("ベイク完了: 対象=%d クリップ=%d フレーム=%d チャンネル=%d",
		len(targets), summary.Clips, summary.Frames, summary.Channels)
	return summary, problems.Strings()
}

// bakeClips は骨格の書き込み対象クリップを返す。
func bakeClips(sc *scene.Scene, skeleton string, opts BakeOptions) []*anim.Clip {
	if !opts.ActiveOnly {
		return sc.Store.RelevantClips(skeleton)
	}
	if clip, ok := sc.Store.ActiveClip(skeleton); ok {
		return []*anim.Clip{clip}
	}
	return nil
}

// partitionTargets は書き込み先の骨格ごとにターゲットを分け、骨格の初出順を返す。
func partitionTargets(sc *scene.Scene, targets []BakeTarget, problems *merr.Problems) (map[string][]BakeTarget, []string) {
	groups := map[string][]BakeTarget{}
	order := make([]string, 0)
	for _, target := range targets {
		if _, _, err := sc.ResolveJoint(target.Sink); err != nil {
			problems.Add(bakeNotFound(target.Sink))
			continue
		}
		missing := false
		for _, source := range target.Sources {
			if _, _, err := sc.ResolveJoint(source.Joint); err != nil {
				problems.Add(bakeNotFound(source.Joint))
				missing = true
			}
		}
		if missing {
			continue
		}
		if _, ok := groups[target.Sink.Skeleton]; !ok {
			order = append(order, target.Sink.Skeleton)
		}
		groups[target.Sink.Skeleton] = append(groups[target.Sink.Skeleton], target)
	}
	return groups, order
}

func bakeNotFound(ref constraint.JointRef) string {
	return notFoundProblem(bakeProblemLabel, ref.Skeleton, ref.Joint)
}

// bakeClip はクリップを単独評価に切り替えてサンプリングし、書き込む。レイヤー構成は必ず復元する。
func bakeClip(
	sc *scene.Scene,
	skeleton *model.Skeleton,
	clip *anim.Clip,
	targets []BakeTarget,
	opts BakeOptions,
) (frameCount int, channelCount int, err error) {
	token, err := sc.Store.Snapshot(skeleton.Name)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if restoreErr := sc.Store.Restore(token); restoreErr != nil && err == nil {
			err = restoreErr
		}
	}()
	sc.Store.Stack(skeleton.Name).Isolate(clip.Name)

	frames := bakeFrames(sc, skeleton, clip, targets, opts)
	if len(frames) == 0 {
		return 0, 0, nil
	}

	samples := make([]*sinkSamples, 0, len(targets))
	for _, target := range targets {
		joint, _ := skeleton.Joint(target.Sink.Joint)
		write := writeMask(sc, skeleton, clip, target, opts)
		samples = append(samples, &sinkSamples{target: target, joint: joint, write: write, available: write != anim.MaskNone})
	}

	resolver := pose.NewResolver(sc)
	err = skeleton.WithEvaluationScope(func() error {
		for _, frame := range frames {
			sc.SetFrame(frame)
			evaluated := resolver.At(frame)
			for _, sample := range samples {
				if !sample.available {
					continue
				}
				local, err := evaluated.Local(sample.target.Sink)
				if err != nil {
					return err
				}
				sample.append(local)
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	for _, sample := range samples {
		channelCount += sample.writeTo(clip, frames)
	}
	logBakeDebug("クリップをベイクしました: %s %s フレーム=%d", skeleton.Name, clip.Name, len(frames))
	return len(frames), channelCount, nil
}

// bakeFrames はサンプリングするフレームを昇順・重複なしで返す。スマートフレームは親関節のキー時刻も含める。
func bakeFrames(sc *scene.Scene, skeleton *model.Skeleton, clip *anim.Clip, targets []BakeTarget, opts BakeOptions) []float64 {
	if len(opts.Frames) > 0 {
		return uniqueSorted(opts.Frames)
	}
	if !opts.SmartFrames {
		start, end, ok := clip.FrameRange()
		if !ok {
			return nil
		}
		frames := make([]float64, 0)
		for frame := math.Ceil(start); frame <= math.Floor(end); frame++ {
			frames = append(frames, frame)
		}
		return frames
	}
	collected := make([]float64, 0)
	for _, target := range targets {
		for _, source := range target.Sources {
			for _, sourceClip := range sourceClips(sc, skeleton, clip, source.Joint) {
				for _, name := range sourceHierarchy(sc, source.Joint) {
					collected = append(collected, sourceClip.KeyTimes(name, source.Check)...)
				}
			}
		}
	}
	return uniqueSorted(collected)
}

// sourceHierarchy はベイク元の関節と、その姿勢に影響する親関節の名前を返す。
func sourceHierarchy(sc *scene.Scene, ref constraint.JointRef) []string {
	names := []string{ref.Joint}
	if skeleton, ok := sc.Skeleton(ref.Skeleton); ok {
		names = append(names, skeleton.ParentChain(ref.Joint)...)
	}
	return names
}

// sourceClips はベイク元のキーを読むクリップを返す。同じ骨格なら処理中のクリップのみ。
func sourceClips(sc *scene.Scene, skeleton *model.Skeleton, clip *anim.Clip, ref constraint.JointRef) []*anim.Clip {
	if ref.Skeleton == skeleton.Name {
		return []*anim.Clip{clip}
	}
	return sc.Store.RelevantClips(ref.Skeleton)
}

// writeMask は書き込み先の回転表現に合わせた書き込みチャンネルを返す。
func writeMask(sc *scene.Scene, skeleton *model.Skeleton, clip *anim.Clip, target BakeTarget, opts BakeOptions) anim.ChannelMask {
	mask := anim.MaskNone
	for _, source := range target.Sources {
		if !opts.SmartChannels {
			mask |= source.Write
			continue
		}
		for _, sourceClip := range sourceClips(sc, skeleton, clip, source.Joint) {
			if sourceClip.HasJointChannels(source.Joint.Joint, source.Check) {
				mask |= source.Write
				break
			}
		}
	}
	joint, ok := skeleton.Joint(target.Sink.Joint)
	if !ok {
		return anim.MaskNone
	}
	if joint.RotationMode.IsEuler() {
		return mask &^ anim.MaskQuaternion
	}
	return mask &^ anim.MaskEuler
}

// append はローカル行列を分解して回転の連続性を保ったまま追加する。
func (s *sinkSamples) append(local mmath.Mat4) {
	loc, rot, scale := local.Decompose()
	s.location = append(s.location, loc)
	s.scale = append(s.scale, scale)
	if s.joint.RotationMode.IsEuler() {
		prev := s.joint.RotationEuler
		if n := len(s.euler); n > 0 {
			prev = s.euler[n-1]
		}
		s.euler = append(s.euler, mmath.CompatibleEuler(rot.ToMat4(), s.joint.RotationMode, prev))
		return
	}
	prev := s.joint.RotationQuaternion
	if n := len(s.rotation); n > 0 {
		prev = s.rotation[n-1]
	}
	s.rotation = append(s.rotation, rot.MakeCompatible(prev))
}

// writeTo は書き込みマスク内のチャンネルをサンプルで置き換え、書き込んだチャンネル数を返す。
func (s *sinkSamples) writeTo(clip *anim.Clip, frames []float64) int {
	if !s.available || len(s.location) != len(frames) {
		return 0
	}
	written := 0
	for _, key := range s.write.Keys(s.target.Sink.Joint) {
		values := make([]float64, len(frames))
		for i := range frames {
			values[i] = s.component(key.Property, key.Index, i)
		}
		clip.EnsureChannel(key).SetSamples(frames, values)
		written++
	}
	return written
}

func (s *sinkSamples) component(property anim.Property, index int, i int) float64 {
	switch property {
	case anim.PropertyLocation:
		return s.location[i].Get(index)
	case anim.PropertyRotationQuaternion:
		return s.rotation[i].Get(index)
	case anim.PropertyRotationEuler:
		return s.euler[i].Get(index)
	default:
		return s.scale[i].Get(index)
	}
}

func uniqueSorted(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	out := sorted[:0]
	for i, value := range sorted {
		if i > 0 && value == out[len(out)-1] {
			continue
		}
		out = append(out, value)
	}
	return out
}
