// 指示: miu200521358
package minteractor

import (
	"fmt"

	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
	"github.com/miu200521358/mu_rigbake/pkg/shared/base/merr"
)

const keyRangeProblemLabel = "Key Range"

// KeyRange はアクティブクリップの start..end を step 間隔で、関節の解決済み姿勢によりキー打ちする。
func (uc *RigBakeUsecase) KeyRange(sc *scene.Scene, req KeyRangeRequest) (*KeyRangeResult, []string) {
	problems := &merr.Problems{}
	result := &KeyRangeResult{}
	if sc == nil {
		problems.Add("シーンが未設定です")
		return result, problems.Strings()
	}
	skeleton, ok := sc.Skeleton(model.NormalizeName(req.Skeleton))
	if !ok {
		problems.Addf("%s|Armature not found: %s", keyRangeProblemLabel, req.Skeleton)
		return result, problems.Strings()
	}
	frames, err := keyRangeFrames(req.Start, req.End, req.Step)
	if err != nil {
		problems.AddError(err)
		return result, problems.Strings()
	}
	mask := req.Mask
	if mask == anim.MaskNone {
		mask = anim.MaskAll
	}

	clip := sc.Store.EnsureActiveClip(skeleton.Name)
	sampled := append([]float64(nil), frames...)
	targets := make([]BakeTarget, 0, len(req.Joints))
	for _, raw := range uniqueNames(req.Joints) {
		if !skeleton.Has(raw) {
			problems.Add(notFoundProblem(keyRangeProblemLabel, skeleton.Name, raw))
			continue
		}
		write := mask
		if req.AvailableOnly {
			write = availableChannels(clip, raw, mask)
			if write == anim.MaskNone {
				continue
			}
		}
		sampled = append(sampled, clip.KeyTimes(raw, anim.MaskAll)...)
		ref := scene.Ref(skeleton, raw)
		targets = append(targets, BakeTarget{
			Sink:    ref,
			Sources: []BakeSource{{Joint: ref, Check: mask, Write: write}},
		})
	}
	if len(targets) == 0 {
		return result, problems.Strings()
	}

	// 範囲外の既存キーも同じ時刻で書き戻す。
	summary, bakeProblems := Bake(sc, targets, BakeOptions{Frames: sampled, ActiveOnly: true})
	problems.Extend(bakeProblems)
	result.Frames = frames
	result.Channels = summary.Channels
	return result, problems.Strings()
}

// keyRangeFrames は start から end までの step 間隔のフレームを返す。end は含む。
func keyRangeFrames(start float64, end float64, step float64) ([]float64, error) {
	if step <= 0 {
		return nil, merr.NewConfigurationError("キー打ち間隔は正の値が必要です: %v", step)
	}
	if end < start {
		return nil, merr.NewConfigurationError("キー打ち範囲が不正です: %v..%v", start, end)
	}
	frames := make([]float64, 0, int((end-start)/step)+2)
	for i := 0; ; i++ {
		frame := start + float64(i)*step
		if frame > end+1e-9 {
			break
		}
		frames = append(frames, frame)
	}
	if last := frames[len(frames)-1]; last < end-1e-9 {
		frames = append(frames, end)
	}
	return frames, nil
}

// availableChannels はクリップに既に存在するマスク内チャンネルを返す。
func availableChannels(clip *anim.Clip, joint string, mask anim.ChannelMask) anim.ChannelMask {
	available := anim.MaskNone
	for _, key := range mask.Keys(joint) {
		if _, ok := clip.Channel(key); ok {
			available |= anim.MaskFor(key.Property, key.Index)
		}
	}
	return available
}

func (r *KeyRangeResult) String() string {
	return fmt.Sprintf("frames=%d channels=%d", len(r.Frames), r.Channels)
}
