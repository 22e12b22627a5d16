// 指示: miu200521358
package minteractor

import (
	"testing"

	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
)

func TestBakeWritesEulerChannelsForEulerSink(t *testing.T) {
	sc, skeleton := newArmSceneForTest(t)
	frames := framesForTest(1, 10)
	other, _ := skeleton.Joint("Other")
	other.RotationMode = mmath.RotationModeXYZ
	sc.Constraints.Add(constraint.New(constraint.KindCopyTransforms, armRefForTest("Other"), armRefForTest("Hand")))
	want := posesForTest(t, sc, []string{"Hand"}, frames)

	summary, problems := Bake(sc, []BakeTarget{{
		Sink:    armRefForTest("Other"),
		Sources: []BakeSource{NewBakeSource(armRefForTest("Hand"))},
	}}, BakeOptions{})
	assertNoProblemsForTest(t, "bake", problems)
	if summary.Frames != len(frames) {
		t.Fatalf("frame count mismatch: got=%d want=%d", summary.Frames, len(frames))
	}
	sc.Constraints.RemoveWhere(func(*constraint.Constraint) bool { return true })

	clip := sc.Store.EnsureActiveClip(armatureForTest)
	if clip.HasJointChannels("Other", anim.MaskQuaternion) {
		t.Fatalf("quaternion channels should not be written for euler sink")
	}
	if !clip.HasJointChannels("Other", anim.MaskEuler) {
		t.Fatalf("euler channels should be written")
	}
	got := posesForTest(t, sc, []string{"Other"}, frames)
	assertPosesNearForTest(t, "baked", map[string][]mmath.Mat4{"Hand": got["Other"]}, want, frames, 1e-6)
}

func TestBakeSmartChannelsSkipsUnkeyedSources(t *testing.T) {
	sc, _ := newArmSceneForTest(t)
	sc.Constraints.Add(constraint.New(constraint.KindCopyTransforms, armRefForTest("Other"), armRefForTest("Hand")))
	clip := sc.Store.EnsureActiveClip(armatureForTest)

	source := BakeSource{Joint: armRefForTest("Hand"), Check: anim.MaskLocation, Write: anim.MaskLocation}
	_, problems := Bake(sc, []BakeTarget{{Sink: armRefForTest("Other"), Sources: []BakeSource{source}}}, BakeOptions{SmartFrames: true, SmartChannels: true})
	assertNoProblemsForTest(t, "bake", problems)
	if clip.HasJointChannels("Other", anim.MaskAll) {
		t.Fatalf("no channels should be written when source has no location keys")
	}

	source = BakeSource{Joint: armRefForTest("Hand"), Check: anim.MaskQuaternion, Write: anim.MaskRotation}
	_, problems = Bake(sc, []BakeTarget{{Sink: armRefForTest("Other"), Sources: []BakeSource{source}}}, BakeOptions{SmartFrames: true, SmartChannels: true})
	assertNoProblemsForTest(t, "bake", problems)
	if !clip.HasJointChannels("Other", anim.MaskQuaternion) || clip.HasJointChannels("Other", anim.MaskLocation) {
		t.Fatalf("only rotation channels should be written")
	}
	channel, _ := clip.Channel(anim.ChannelKey{Joint: "Other", Property: anim.PropertyRotationQuaternion, Index: 0})
	if times := channel.Times(); len(times) != 3 || times[0] != 1 || times[1] != 5 || times[2] != 10 {
		t.Fatalf("smart frames mismatch: got=%v want=[1 5 10]", times)
	}
}

func TestBakeReportsMissingSink(t *testing.T) {
	sc, _ := newArmSceneForTest(t)
	_, problems := Bake(sc, []BakeTarget{{Sink: armRefForTest("Ghost"), Sources: []BakeSource{NewBakeSource(armRefForTest("Hand"))}}}, BakeOptions{})
	if len(problems) != 1 {
		t.Fatalf("problems mismatch: got=%v", problems)
	}
}

func TestBakeRestoresLayerStackAndFrame(t *testing.T) {
	sc, _ := newArmSceneForTest(t)
	sc.SetFrame(7)
	_, problems := Bake(sc, []BakeTarget{{Sink: armRefForTest("Other"), Sources: []BakeSource{NewBakeSource(armRefForTest("Hand"))}}}, BakeOptions{})
	assertNoProblemsForTest(t, "bake", problems)
	if got := sc.Frame(); got != 7 {
		t.Fatalf("frame should be restored: got=%v want=7", got)
	}
	if pending := sc.Store.PendingSnapshots(); pending != 0 {
		t.Fatalf("layer snapshots should be restored: pending=%d", pending)
	}
}

// layeredStackForTest はアクティブ(COMBINE)に加えて、ソロの加算レイヤーとミュートした置換レイヤーを持たせる。
func layeredStackForTest(sc *scene.Scene) *anim.LayerStack {
	stack := sc.Store.Stack(armatureForTest)
	stack.ActiveBlend = anim.BlendCombine
	stack.ActiveInfluence = 0.8
	keyComponentForTest(sc.Store.EnsureClip("LayerB"), "Hand", anim.PropertyLocation, 2, []float64{1, 10}, []float64{0, 0.2})
	keyComponentForTest(sc.Store.EnsureClip("LayerC"), "Root", anim.PropertyLocation, 1, []float64{1, 10}, []float64{0, 1})
	stack.Layers = []anim.Layer{
		{Name: "B", Clip: "LayerB", Blend: anim.BlendAdd, Influence: 1, Solo: true},
		{Name: "C", Clip: "LayerC", Blend: anim.BlendReplace, Influence: 1, Mute: true},
	}
	return stack
}

func copyStackForTest(stack *anim.LayerStack) anim.LayerStack {
	copied := *stack
	copied.Layers = append([]anim.Layer(nil), stack.Layers...)
	return copied
}

func assertStackRestoredForTest(t *testing.T, sc *scene.Scene, got *anim.LayerStack, want anim.LayerStack) {
	t.Helper()
	if got.Active != want.Active || got.ActiveBlend != want.ActiveBlend || got.ActiveInfluence != want.ActiveInfluence || got.SinglePose != want.SinglePose {
		t.Fatalf("active settings mismatch: got=%+v want=%+v", *got, want)
	}
	if len(got.Layers) != len(want.Layers) {
		t.Fatalf("layer count mismatch: got=%d want=%d", len(got.Layers), len(want.Layers))
	}
	for i := range want.Layers {
		if got.Layers[i] != want.Layers[i] {
			t.Fatalf("layer %d mismatch: got=%+v want=%+v", i, got.Layers[i], want.Layers[i])
		}
	}
	if pending := sc.Store.PendingSnapshots(); pending != 0 {
		t.Fatalf("layer snapshots should be restored: pending=%d", pending)
	}
}

func TestBakeWritesEveryUnmutedLayerClip(t *testing.T) {
	sc, _ := newArmSceneForTest(t)
	stack := layeredStackForTest(sc)
	before := copyStackForTest(stack)
	sc.Constraints.Add(constraint.New(constraint.KindCopyTransforms, armRefForTest("Other"), armRefForTest("Hand")))

	summary, problems := Bake(sc, []BakeTarget{{Sink: armRefForTest("Other"), Sources: []BakeSource{NewBakeSource(armRefForTest("Hand"))}}}, BakeOptions{})
	assertNoProblemsForTest(t, "bake", problems)
	if summary.Clips != 2 {
		t.Fatalf("clip count mismatch: got=%d want=2", summary.Clips)
	}
	for _, tc := range []struct {
		clip string
		want bool
	}{
		{clip: before.Active, want: true},
		{clip: "LayerB", want: true},
		{clip: "LayerC", want: false},
	} {
		clip, _ := sc.Store.Clip(tc.clip)
		if got := clip.HasJointChannels("Other", anim.MaskAll); got != tc.want {
			t.Fatalf("%s keyed mismatch: got=%v want=%v", tc.clip, got, tc.want)
		}
	}
	assertStackRestoredForTest(t, sc, stack, before)
}

func TestBakeSinglePoseWritesActiveClipOnly(t *testing.T) {
	sc, _ := newArmSceneForTest(t)
	stack := layeredStackForTest(sc)
	stack.SinglePose = true
	before := copyStackForTest(stack)

	summary, problems := Bake(sc, []BakeTarget{{Sink: armRefForTest("Other"), Sources: []BakeSource{NewBakeSource(armRefForTest("Hand"))}}}, BakeOptions{})
	assertNoProblemsForTest(t, "bake", problems)
	if summary.Clips != 1 {
		t.Fatalf("clip count mismatch: got=%d want=1", summary.Clips)
	}
	layer, _ := sc.Store.Clip("LayerB")
	if layer.HasJointChannels("Other", anim.MaskAll) {
		t.Fatalf("layer clip should not be keyed under single pose")
	}
	if !sc.Store.EnsureActiveClip(armatureForTest).HasJointChannels("Other", anim.MaskAll) {
		t.Fatalf("active clip should be keyed")
	}
	assertStackRestoredForTest(t, sc, stack, before)
}

func TestBakeClipRestoresLayerStackWhenSinkFails(t *testing.T) {
	sc, skeleton := newArmSceneForTest(t)
	stack := layeredStackForTest(sc)
	before := copyStackForTest(stack)
	layer, _ := sc.Store.Clip("LayerB")

	targets := []BakeTarget{
		{Sink: armRefForTest("Other"), Sources: []BakeSource{NewBakeSource(armRefForTest("Hand"))}},
		// 関節名は骨格内で見つかるが、参照先の骨格が存在しないため評価で失敗する。
		{Sink: constraint.JointRef{Skeleton: "Ghost", Joint: "Hand"}, Sources: []BakeSource{NewBakeSource(armRefForTest("Hand"))}},
	}
	if _, _, err := bakeClip(sc, skeleton, layer, targets, BakeOptions{}); err == nil {
		t.Fatalf("expected evaluation error")
	}
	if layer.HasJointChannels("Other", anim.MaskAll) {
		t.Fatalf("aborted clip should not be keyed")
	}
	assertStackRestoredForTest(t, sc, stack, before)
}
