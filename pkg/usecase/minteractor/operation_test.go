// 指示: miu200521358
package minteractor

import (
	"math"
	"strings"
	"testing"

	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/pose"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
)

const armatureForTest = "Armature"

var armJointsForTest = []string{"Root", "Upper", "Lower", "Hand", "Other"}

// newArmSceneForTest は腕のチェーンと独立した関節を持つシーンを生成する。フレームは 1..10 を密に評価する。
func newArmSceneForTest(t *testing.T) (*scene.Scene, *model.Skeleton) {
	t.Helper()
	sc := scene.NewScene()
	sc.Settings.SmartFrames = false
	skeleton := model.NewSkeleton(armatureForTest)
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
		t.Fatalf("build skeleton failed: %v", err)
	}
	if err := sc.AddSkeleton(skeleton); err != nil {
		t.Fatalf("add skeleton failed: %v", err)
	}

	clip := sc.Store.EnsureActiveClip(skeleton.Name)
	keyComponentForTest(clip, "Root", anim.PropertyLocation, 0, []float64{1, 10}, []float64{0, 1})
	xAxis := mmath.NewVec3(1, 0, 0)
	zAxis := mmath.NewVec3(0, 0, 1)
	keyRotationForTest(clip, "Upper", xAxis, []float64{1, 10}, []float64{0.1, -0.2})
	keyRotationForTest(clip, "Lower", xAxis, []float64{1, 5, 10}, []float64{0.3, 0.8, 1.2})
	keyRotationForTest(clip, "Hand", zAxis, []float64{1, 10}, []float64{0.4, 0.9})
	return sc, skeleton
}

func keyComponentForTest(clip *anim.Clip, joint string, property anim.Property, index int, times []float64, values []float64) {
	channel := clip.EnsureChannel(anim.ChannelKey{Joint: joint, Property: property, Index: index})
	for i := range times {
		channel.Insert(times[i], values[i])
	}
}

func keyRotationForTest(clip *anim.Clip, joint string, axis mmath.Vec3, times []float64, angles []float64) {
	for index := 0; index < 4; index++ {
		values := make([]float64, len(angles))
		for i, angle := range angles {
			values[i] = mmath.NewQuaternionFromAxisAngle(axis, angle).Get(index)
		}
		keyComponentForTest(clip, joint, anim.PropertyRotationQuaternion, index, times, values)
	}
}

func framesForTest(start, end int) []float64 {
	frames := make([]float64, 0, end-start+1)
	for frame := start; frame <= end; frame++ {
		frames = append(frames, float64(frame))
	}
	return frames
}

func armRefForTest(name string) constraint.JointRef {
	return constraint.JointRef{Skeleton: armatureForTest, Joint: name}
}

// posesForTest は関節ごとのフレーム別姿勢行列を返す。
func posesForTest(t *testing.T, sc *scene.Scene, names []string, frames []float64) map[string][]mmath.Mat4 {
	t.Helper()
	resolver := pose.NewResolver(sc)
	poses := make(map[string][]mmath.Mat4, len(names))
	for _, frame := range frames {
		evaluated := resolver.At(frame)
		for _, name := range names {
			m, err := evaluated.Pose(armRefForTest(name))
			if err != nil {
				t.Fatalf("pose %s at %v failed: %v", name, frame, err)
			}
			poses[name] = append(poses[name], m)
		}
	}
	return poses
}

func assertPosesNearForTest(t *testing.T, label string, got, want map[string][]mmath.Mat4, frames []float64, eps float64) {
	t.Helper()
	for name, expected := range want {
		actual := got[name]
		if len(actual) != len(expected) {
			t.Fatalf("%s %s sample count mismatch: got=%d want=%d", label, name, len(actual), len(expected))
		}
		for i := range expected {
			if !actual[i].NearEquals(expected[i], eps) {
				t.Fatalf("%s %s mismatch at frame %v: got=%v want=%v", label, name, frames[i], actual[i], expected[i])
			}
		}
	}
}

func assertNoProblemsForTest(t *testing.T, label string, problems []string) {
	t.Helper()
	if len(problems) != 0 {
		t.Fatalf("%s problems: %v", label, problems)
	}
}

// assertCleanRigForTest は操作の痕跡が残っていないことを確認する。
func assertCleanRigForTest(t *testing.T, sc *scene.Scene, skeleton *model.Skeleton) {
	t.Helper()
	if skeleton.State.Len() != 0 {
		t.Fatalf("state log should be empty: got=%v", skeleton.State.Keys())
	}
	if owned := skeleton.EngineOwnedJoints(); len(owned) != 0 {
		t.Fatalf("proxies should be deleted: got=%v", owned)
	}
	if sc.Constraints.Len() != 0 {
		t.Fatalf("constraints should be removed: got=%d", sc.Constraints.Len())
	}
	if drivers := sc.Drivers.All(); len(drivers) != 0 {
		t.Fatalf("drivers should be removed: got=%d", len(drivers))
	}
	if _, ok := skeleton.Collection(model.HiddenCollectionName); ok {
		t.Fatalf("hidden collection should be removed")
	}
	if skeleton.Len() != len(armJointsForTest) {
		t.Fatalf("joint count mismatch: got=%d want=%d", skeleton.Len(), len(armJointsForTest))
	}
}

func TestApplyThenRemoveKeepsWorldMotion(t *testing.T) {
	parentOffset := mmath.NewMat4Translation(mmath.NewVec3(0, 0, 1))
	aimOffset := mmath.NewMat4Translation(mmath.NewVec3(0.3, 0.8, 0))
	noPole := false
	withPole := true
	cases := []struct {
		name   string
		kind   model.OperationKind
		joints []string
		params OperationParams
	}{
		{name: "world", kind: model.OperationWorldSpace, joints: []string{"Lower"}},
		{name: "parent", kind: model.OperationParentSpace, joints: []string{"Hand"}, params: OperationParams{TargetJoint: "Other"}},
		{name: "parent copy", kind: model.OperationParentSpace, joints: []string{"Hand"}, params: OperationParams{TargetJoint: "Other", ParentCopy: true}},
		{name: "parent offset", kind: model.OperationParentOffsetSpace, joints: []string{"Lower"}, params: OperationParams{Offset: &parentOffset}},
		{name: "aim", kind: model.OperationAimSpace, joints: []string{"Lower"}},
		{name: "aim offset", kind: model.OperationAimOffsetSpace, joints: []string{"Lower"}, params: OperationParams{Offset: &aimOffset}},
		{name: "reverse", kind: model.OperationReverseHierarchy, joints: []string{"Lower", "Hand"}},
		{name: "ik limb", kind: model.OperationIKLimb, joints: []string{"Hand"}, params: OperationParams{Pole: &noPole}},
		{name: "ik limb pole", kind: model.OperationIKLimb, joints: []string{"Hand"}, params: OperationParams{Pole: &withPole}},
		{name: "ik stretch", kind: model.OperationIKStretch, joints: []string{"Hand"}},
		{name: "rotation distribution", kind: model.OperationRotationDistribution, joints: []string{"Hand"}},
	}
	frames := framesForTest(1, 10)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sc, skeleton := newArmSceneForTest(t)
			uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})
			before := posesForTest(t, sc, armJointsForTest, frames)

			applied, problems := uc.Apply(sc, OperationRequest{Kind: tc.kind, Skeleton: armatureForTest, Joints: tc.joints, Params: tc.params})
			assertNoProblemsForTest(t, "apply", problems)
			if len(applied.Entries) != 1 {
				t.Fatalf("entry count mismatch: got=%d want=1", len(applied.Entries))
			}
			if len(applied.Proxies) == 0 {
				t.Fatalf("proxies should be created")
			}
			during := posesForTest(t, sc, armJointsForTest, frames)
			assertPosesNearForTest(t, "during", during, before, frames, 1e-5)

			removed, problems := uc.Remove(sc, RemoveRequest{Kind: tc.kind, Skeleton: armatureForTest, Joints: tc.joints})
			assertNoProblemsForTest(t, "remove", problems)
			if len(removed.Entries) != 1 || removed.Entries[0] != applied.Entries[0].Key {
				t.Fatalf("removed entries mismatch: got=%v want=%s", removed.Entries, applied.Entries[0].Key)
			}
			after := posesForTest(t, sc, armJointsForTest, frames)
			assertPosesNearForTest(t, "after", after, before, frames, 1e-5)
			assertCleanRigForTest(t, sc, skeleton)
		})
	}
}

func TestApplyRecordsEntryAndHidesOriginal(t *testing.T) {
	sc, skeleton := newArmSceneForTest(t)
	uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})

	result, problems := uc.Apply(sc, OperationRequest{Kind: model.OperationWorldSpace, Skeleton: armatureForTest, Joints: []string{"Lower"}})
	assertNoProblemsForTest(t, "apply", problems)
	if got := result.Entries[0].Key; got != "World Space|Lower" {
		t.Fatalf("entry key mismatch: got=%s want=World Space|Lower", got)
	}
	if len(result.Proxies) != 1 || result.Proxies[0] != "World.Lower" {
		t.Fatalf("proxy mismatch: got=%v want=[World.Lower]", result.Proxies)
	}
	role, ok := skeleton.RoleOf("World.Lower")
	if !ok || role.EntryKey != "World Space|Lower" || role.HostJoint != "Lower" {
		t.Fatalf("role mismatch: got=%+v ok=%v", role, ok)
	}
	lower, _ := skeleton.Joint("Lower")
	if !lower.InCollection(model.HiddenCollectionName) {
		t.Fatalf("original should be hidden")
	}
	if len(sc.Constraints.ByTag("World Space|Lower")) == 0 {
		t.Fatalf("behavior constraint should be tagged with entry key")
	}
	if len(sc.Constraints.ByTag("World Space|Lower"+bindTagSuffix)) != 0 {
		t.Fatalf("bind constraints should be released")
	}
}

func TestApplySparseBakeKeepsSourceKeyTimes(t *testing.T) {
	sc := scene.NewScene()
	skeleton := model.NewSkeleton(armatureForTest)
	err := skeleton.WithStructuralEditScope(func() error {
		if _, err := skeleton.CreateJoint("Root", "", mmath.Mat4Identity(), 1); err != nil {
			return err
		}
		if _, err := skeleton.CreateJoint("Mid", "Root", mmath.NewMat4Translation(mmath.NewVec3(0, 1, 0)), 1); err != nil {
			return err
		}
		_, err := skeleton.CreateJoint("Tip", "Mid", mmath.NewMat4Translation(mmath.NewVec3(0, 2, 0)), 1)
		return err
	})
	if err != nil {
		t.Fatalf("build skeleton failed: %v", err)
	}
	if err := sc.AddSkeleton(skeleton); err != nil {
		t.Fatalf("add skeleton failed: %v", err)
	}
	clip := sc.Store.EnsureActiveClip(armatureForTest)
	keyRotationForTest(clip, "Tip", mmath.NewVec3(0, 0, 1), []float64{1, 24}, []float64{0.2, 1.5})
	before := posesForTest(t, sc, []string{"Tip"}, []float64{12})

	uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})
	_, problems := uc.Apply(sc, OperationRequest{Kind: model.OperationWorldSpace, Skeleton: armatureForTest, Joints: []string{"Tip"}})
	assertNoProblemsForTest(t, "apply", problems)

	channels := clip.JointChannels("World.Tip")
	if len(channels) == 0 {
		t.Fatalf("proxy should be keyed")
	}
	for _, channel := range channels {
		times := channel.Times()
		if len(times) != 2 || times[0] != 1 || times[1] != 24 {
			t.Fatalf("%s key times mismatch: got=%v want=[1 24]", channel.Key, times)
		}
	}
	during := posesForTest(t, sc, []string{"Tip"}, []float64{12})
	assertPosesNearForTest(t, "frame 12", during, before, []float64{12}, 1e-6)
}

func TestApplyDenseAndSparseAgreeAtKeyFrames(t *testing.T) {
	keyFrames := []float64{1, 5, 10}
	results := make([]map[string][]mmath.Mat4, 0, 2)
	for _, smart := range []bool{false, true} {
		sc, _ := newArmSceneForTest(t)
		sc.Settings.SmartFrames = smart
		uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})
		_, problems := uc.Apply(sc, OperationRequest{Kind: model.OperationWorldSpace, Skeleton: armatureForTest, Joints: []string{"Hand"}})
		assertNoProblemsForTest(t, "apply", problems)
		results = append(results, posesForTest(t, sc, []string{"Hand", "World.Hand"}, keyFrames))
	}
	assertPosesNearForTest(t, "sparse", results[1], results[0], keyFrames, 1e-6)
}

func TestApplyKeepsQuaternionContinuity(t *testing.T) {
	sc, _ := newArmSceneForTest(t)
	clip := sc.Store.EnsureActiveClip(armatureForTest)
	times := framesForTest(1, 30)
	angles := make([]float64, len(times))
	for i := range times {
		angles[i] = 0.25 * float64(i)
	}
	for index := 0; index < 4; index++ {
		clip.RemoveChannel(anim.ChannelKey{Joint: "Hand", Property: anim.PropertyRotationQuaternion, Index: index})
	}
	keyRotationForTest(clip, "Hand", mmath.NewVec3(0, 0, 1), times, angles)

	uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})
	_, problems := uc.Apply(sc, OperationRequest{Kind: model.OperationWorldSpace, Skeleton: armatureForTest, Joints: []string{"Hand"}})
	assertNoProblemsForTest(t, "apply", problems)

	components := make([][]anim.Keyframe, 4)
	for index := 0; index < 4; index++ {
		channel, ok := clip.Channel(anim.ChannelKey{Joint: "World.Hand", Property: anim.PropertyRotationQuaternion, Index: index})
		if !ok {
			t.Fatalf("quaternion channel %d missing", index)
		}
		components[index] = channel.Keyframes
	}
	var prev mmath.Quaternion
	for i := range components[0] {
		q := mmath.NewQuaternion(components[0][i].Value, components[1][i].Value, components[2][i].Value, components[3][i].Value)
		if i > 0 && q.Dot(prev) <= 0 {
			t.Fatalf("quaternion flipped at frame %v: prev=%v got=%v", components[0][i].Time, prev, q)
		}
		prev = q
	}
}

func TestApplyReportsMissingJointAndContinues(t *testing.T) {
	sc, skeleton := newArmSceneForTest(t)
	uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})

	result, problems := uc.Apply(sc, OperationRequest{
		Kind:     model.OperationWorldSpace,
		Skeleton: armatureForTest,
		Joints:   []string{"Root", "Upper", "Nope", "Lower", "Other"},
	})
	if len(problems) != 1 || !strings.Contains(problems[0], "Nope") {
		t.Fatalf("problems mismatch: got=%v", problems)
	}
	if want := "World Space Constraint|Bone not found: Armature[Nope]"; problems[0] != want {
		t.Fatalf("problem text mismatch: got=%s want=%s", problems[0], want)
	}
	if len(result.Entries) != 4 || skeleton.State.Len() != 4 {
		t.Fatalf("entry count mismatch: got=%d log=%d want=4", len(result.Entries), skeleton.State.Len())
	}
	if len(result.Missing) != 1 || result.Missing[0] != "Nope" {
		t.Fatalf("missing mismatch: got=%v", result.Missing)
	}
}

func TestApplyRejectsJointAlreadyInUse(t *testing.T) {
	sc, skeleton := newArmSceneForTest(t)
	uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})
	_, problems := uc.Apply(sc, OperationRequest{Kind: model.OperationWorldSpace, Skeleton: armatureForTest, Joints: []string{"Lower"}})
	assertNoProblemsForTest(t, "apply", problems)

	result, problems := uc.Apply(sc, OperationRequest{Kind: model.OperationIKLimb, Skeleton: armatureForTest, Joints: []string{"Hand"}})
	want := "IK Constraint|Bone already in use: Armature[Lower]"
	if len(problems) != 1 || problems[0] != want {
		t.Fatalf("problems mismatch: got=%v want=[%s]", problems, want)
	}
	if len(result.Entries) != 0 || skeleton.State.Len() != 1 {
		t.Fatalf("rejected operation should not be recorded: entries=%d log=%d", len(result.Entries), skeleton.State.Len())
	}

	_, problems = uc.Apply(sc, OperationRequest{Kind: model.OperationWorldSpace, Skeleton: armatureForTest, Joints: []string{"World.Lower"}})
	if len(problems) != 1 || !strings.Contains(problems[0], "Bone already in use") {
		t.Fatalf("proxy should be rejected: got=%v", problems)
	}
}

func TestApplyUnknownKindIsConfigurationError(t *testing.T) {
	sc, _ := newArmSceneForTest(t)
	uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})
	_, problems := uc.Apply(sc, OperationRequest{Kind: "Spiral Space", Skeleton: armatureForTest, Joints: []string{"Lower"}})
	if len(problems) != 1 || !strings.Contains(problems[0], "Spiral Space") {
		t.Fatalf("problems mismatch: got=%v", problems)
	}
}

func TestRemoveWithoutEntryIsNoop(t *testing.T) {
	sc, skeleton := newArmSceneForTest(t)
	uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})
	result, problems := uc.Remove(sc, RemoveRequest{Kind: model.OperationWorldSpace, Skeleton: armatureForTest, Joints: []string{"Hand"}})
	assertNoProblemsForTest(t, "remove", problems)
	if len(result.Joints) != 0 || len(result.Entries) != 0 {
		t.Fatalf("remove should be no-op: got=%+v", result)
	}
	assertCleanRigForTest(t, sc, skeleton)
}

func TestRemoveByProxyNameAndAnyKind(t *testing.T) {
	sc, skeleton := newArmSceneForTest(t)
	uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})
	_, problems := uc.Apply(sc, OperationRequest{Kind: model.OperationAimSpace, Skeleton: armatureForTest, Joints: []string{"Lower"}})
	assertNoProblemsForTest(t, "apply", problems)

	result, problems := uc.Remove(sc, RemoveRequest{Skeleton: armatureForTest, Joints: []string{"AimOffset.Lower"}})
	assertNoProblemsForTest(t, "remove", problems)
	if len(result.Entries) != 1 || result.Entries[0] != "Aim Space|Lower" {
		t.Fatalf("removed entries mismatch: got=%v", result.Entries)
	}
	assertCleanRigForTest(t, sc, skeleton)
}

func TestRemoveWithoutBakeDropsMotion(t *testing.T) {
	sc, skeleton := newArmSceneForTest(t)
	sc.Settings.NoBakeOnRemove = true
	uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})
	_, problems := uc.Apply(sc, OperationRequest{Kind: model.OperationWorldSpace, Skeleton: armatureForTest, Joints: []string{"Hand"}})
	assertNoProblemsForTest(t, "apply", problems)

	_, problems = uc.Remove(sc, RemoveRequest{Kind: model.OperationWorldSpace, Skeleton: armatureForTest, Joints: []string{"Hand"}})
	assertNoProblemsForTest(t, "remove", problems)
	if sc.Store.HasJointAnimation(armatureForTest, "Hand") {
		t.Fatalf("hand keys should not be written back")
	}
	assertCleanRigForTest(t, sc, skeleton)
}

func TestRemoveCleansUpOrphanProxies(t *testing.T) {
	sc, skeleton := newArmSceneForTest(t)
	uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})
	_, problems := uc.Apply(sc, OperationRequest{Kind: model.OperationWorldSpace, Skeleton: armatureForTest, Joints: []string{"Hand"}})
	assertNoProblemsForTest(t, "apply", problems)
	skeleton.State.Remove("World Space|Hand")

	_, problems = uc.Remove(sc, RemoveRequest{Skeleton: armatureForTest, Joints: []string{"World.Hand"}})
	if len(problems) != 1 || !strings.Contains(problems[0], "World Space|Hand") {
		t.Fatalf("problems mismatch: got=%v", problems)
	}
	assertCleanRigForTest(t, sc, skeleton)
}

func TestSimpleCopyTransformsRemoveKeepsCopiedMotion(t *testing.T) {
	sc, skeleton := newArmSceneForTest(t)
	uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})
	frames := framesForTest(1, 10)

	result, problems := uc.Apply(sc, OperationRequest{
		Kind:     model.OperationSimpleCopyTransforms,
		Skeleton: armatureForTest,
		Joints:   []string{"Hand"},
		Params:   OperationParams{TargetJoint: "Other", CopyKind: constraint.KindCopyLocation},
	})
	assertNoProblemsForTest(t, "apply", problems)
	if len(result.Entries) != 1 || len(result.Proxies) != 0 {
		t.Fatalf("simple copy should not create proxies: entries=%d proxies=%v", len(result.Entries), result.Proxies)
	}
	during := posesForTest(t, sc, []string{"Hand", "Other"}, frames)
	for i := range frames {
		if !during["Hand"][i].Translation().NearEquals(during["Other"][i].Translation(), 1e-9) {
			t.Fatalf("hand should follow other at %v: got=%v", frames[i], during["Hand"][i].Translation())
		}
	}

	_, problems = uc.Remove(sc, RemoveRequest{Kind: model.OperationSimpleCopyTransforms, Skeleton: armatureForTest, Joints: []string{"Hand"}})
	assertNoProblemsForTest(t, "remove", problems)
	after := posesForTest(t, sc, []string{"Hand", "Other"}, frames)
	assertPosesNearForTest(t, "after", after, during, frames, 1e-5)
	assertCleanRigForTest(t, sc, skeleton)
}

func TestSimpleCopyTransformsRejectsSelfTarget(t *testing.T) {
	sc, _ := newArmSceneForTest(t)
	uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})
	_, problems := uc.Apply(sc, OperationRequest{
		Kind:     model.OperationSimpleCopyTransforms,
		Skeleton: armatureForTest,
		Joints:   []string{"Hand"},
		Params:   OperationParams{TargetJoint: "Hand"},
	})
	if len(problems) != 1 || !strings.Contains(problems[0], "Invalid target") {
		t.Fatalf("problems mismatch: got=%v", problems)
	}
}

func TestCenterOfMassFollowsWeightedMembers(t *testing.T) {
	sc, skeleton := newArmSceneForTest(t)
	uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})
	frames := []float64{1, 5, 10}

	result, problems := uc.Apply(sc, OperationRequest{
		Kind:     model.OperationCenterOfMass,
		Skeleton: armatureForTest,
		Joints:   []string{"Upper", "Other"},
		Params:   OperationParams{Weights: map[string]float64{"Other": 300}},
	})
	assertNoProblemsForTest(t, "apply", problems)
	if got := result.Entries[0].Key; got != "Center of Gravity|CoM" {
		t.Fatalf("entry key mismatch: got=%s", got)
	}
	if got := result.Entries[0].Floats; len(got) != 2 || got[0] != 100 || got[1] != 300 {
		t.Fatalf("weights mismatch: got=%v want=[100 300]", got)
	}

	poses := posesForTest(t, sc, []string{"Upper", "Other", "CoM"}, frames)
	for i := range frames {
		want := poses["Upper"][i].Translation().MulScalar(100).Add(poses["Other"][i].Translation().MulScalar(300)).MulScalar(1.0 / 400)
		if got := poses["CoM"][i].Translation(); !got.NearEquals(want, 1e-9) {
			t.Fatalf("center mismatch at %v: got=%v want=%v", frames[i], got, want)
		}
	}

	problems, err := uc.UpdateCenterOfMass(sc, CenterOfMassUpdate{Skeleton: armatureForTest, Joint: "CoM", Remove: []string{"Other"}})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	assertNoProblemsForTest(t, "update", problems)
	poses = posesForTest(t, sc, []string{"Upper", "CoM"}, frames)
	for i := range frames {
		if got, want := poses["CoM"][i].Translation(), poses["Upper"][i].Translation(); !got.NearEquals(want, 1e-9) {
			t.Fatalf("single member center mismatch at %v: got=%v want=%v", frames[i], got, want)
		}
	}
	entry, _ := skeleton.State.Get("Center of Gravity|CoM")
	if len(entry.Joints) != 1 || entry.Joints[0] != "Upper" {
		t.Fatalf("entry members mismatch: got=%v", entry.Joints)
	}

	problems, _ = uc.UpdateCenterOfMass(sc, CenterOfMassUpdate{Skeleton: armatureForTest, Joint: "CoM", Remove: []string{"Upper"}})
	if len(problems) != 1 || !strings.Contains(problems[0], "No members left") {
		t.Fatalf("problems mismatch: got=%v", problems)
	}

	_, problems = uc.Remove(sc, RemoveRequest{Skeleton: armatureForTest, Joints: []string{"CoM"}})
	assertNoProblemsForTest(t, "remove", problems)
	assertCleanRigForTest(t, sc, skeleton)
}

func TestCenterOfMassZeroWeightsStayFinite(t *testing.T) {
	sc, _ := newArmSceneForTest(t)
	uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})
	frames := []float64{1, 5, 10}

	_, problems := uc.Apply(sc, OperationRequest{
		Kind:     model.OperationCenterOfMass,
		Skeleton: armatureForTest,
		Joints:   []string{"Upper", "Other"},
		Params:   OperationParams{Weights: map[string]float64{"Upper": 0, "Other": 0}},
	})
	assertNoProblemsForTest(t, "apply", problems)
	poses := posesForTest(t, sc, []string{"CoM"}, frames)
	for i := range frames {
		got := poses["CoM"][i].Translation()
		if math.IsNaN(got.X) || math.IsNaN(got.Y) || math.IsNaN(got.Z) {
			t.Fatalf("center should stay finite at %v: got=%v", frames[i], got)
		}
		if !got.NearEquals(mmath.Vec3Zero(), 1e-9) {
			t.Fatalf("zero weights should resolve to origin at %v: got=%v", frames[i], got)
		}
	}

	problems, err := uc.UpdateCenterOfMass(sc, CenterOfMassUpdate{Skeleton: armatureForTest, Joint: "CoM", Weights: map[string]float64{"Upper": 1}})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	assertNoProblemsForTest(t, "update", problems)
	poses = posesForTest(t, sc, []string{"Upper", "CoM"}, frames)
	for i := range frames {
		if got, want := poses["CoM"][i].Translation(), poses["Upper"][i].Translation(); !got.NearEquals(want, 1e-6) {
			t.Fatalf("weighted center mismatch at %v: got=%v want=%v", frames[i], got, want)
		}
	}
}

func TestApplyDiscardsUnitWhenEntryKeyIsTaken(t *testing.T) {
	frames := framesForTest(1, 10)
	sc, skeleton := newArmSceneForTest(t)
	uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})
	before := posesForTest(t, sc, armJointsForTest, frames)
	if err := skeleton.State.Append(&rigstate.Entry{Key: "World Space|Lower", Kind: string(model.OperationWorldSpace)}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	result, problems := uc.Apply(sc, OperationRequest{Kind: model.OperationWorldSpace, Skeleton: armatureForTest, Joints: []string{"Lower"}})
	if len(problems) != 1 || !strings.Contains(problems[0], "World Space|Lower") {
		t.Fatalf("problems mismatch: got=%v", problems)
	}
	if len(result.Entries) != 0 || skeleton.State.Len() != 1 {
		t.Fatalf("no entry should be logged: entries=%d log=%v", len(result.Entries), skeleton.State.Keys())
	}
	if owned := skeleton.EngineOwnedJoints(); len(owned) != 0 {
		t.Fatalf("proxies should be discarded: got=%v", owned)
	}
	if sc.Constraints.Len() != 0 {
		t.Fatalf("constraints should be discarded: got=%d", sc.Constraints.Len())
	}
	lower, _ := skeleton.Joint("Lower")
	if lower.InCollection(model.HiddenCollectionName) {
		t.Fatalf("original should be visible again")
	}
	clip := sc.Store.EnsureActiveClip(armatureForTest)
	if !clip.HasJointChannels("Lower", anim.MaskQuaternion) {
		t.Fatalf("original keys should be kept")
	}
	for _, channel := range clip.Channels() {
		if !skeleton.Has(channel.Key.Joint) {
			t.Fatalf("discarded proxy keys should be removed: %s", channel.Key.Joint)
		}
	}
	assertPosesNearForTest(t, "after", posesForTest(t, sc, armJointsForTest, frames), before, frames, 1e-9)
}

func TestUpdateCenterOfMassRejectsOrdinaryJoint(t *testing.T) {
	sc, _ := newArmSceneForTest(t)
	uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})
	if _, err := uc.UpdateCenterOfMass(sc, CenterOfMassUpdate{Skeleton: armatureForTest, Joint: "Hand", Add: []string{"Other"}}); err == nil {
		t.Fatalf("expected error for ordinary joint")
	}
}

type progressRecorderForTest struct {
	events []ProgressEventType
}

func (r *progressRecorderForTest) ReportProgress(event ProgressEvent) {
	r.events = append(r.events, event.Type)
}

func TestApplyReportsProgressInOrder(t *testing.T) {
	sc, _ := newArmSceneForTest(t)
	uc := NewRigBakeUsecase(RigBakeUsecaseDeps{})
	recorder := &progressRecorderForTest{}
	_, problems := uc.Apply(sc, OperationRequest{
		Kind:             model.OperationWorldSpace,
		Skeleton:         armatureForTest,
		Joints:           []string{"Hand"},
		ProgressReporter: recorder,
	})
	assertNoProblemsForTest(t, "apply", problems)
	want := []ProgressEventType{
		ProgressEventTypeStructureBuilt,
		ProgressEventTypeBound,
		ProgressEventTypeBaked,
		ProgressEventTypeBehaviorRewired,
		ProgressEventTypeLogged,
	}
	if len(recorder.events) != len(want) {
		t.Fatalf("event count mismatch: got=%v want=%v", recorder.events, want)
	}
	for i := range want {
		if recorder.events[i] != want[i] {
			t.Fatalf("event mismatch at %d: got=%s want=%s", i, recorder.events[i], want[i])
		}
	}
}
