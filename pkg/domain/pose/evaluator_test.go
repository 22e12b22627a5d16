// 指示: miu200521358
package pose

import (
	"math"
	"testing"

	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
)

func newChainSceneForTest(t *testing.T, extra ...string) (*scene.Scene, *model.Skeleton) {
	t.Helper()
	sc := scene.NewScene()
	skeleton := model.NewSkeleton("Armature")
	err := skeleton.WithStructuralEditScope(func() error {
		if _, err := skeleton.CreateJoint("Root", "", mmath.Mat4Identity(), 1); err != nil {
			return err
		}
		if _, err := skeleton.CreateJoint("Mid", "Root", mmath.NewMat4Translation(mmath.NewVec3(0, 1, 0)), 1); err != nil {
			return err
		}
		if _, err := skeleton.CreateJoint("Tip", "Mid", mmath.NewMat4Translation(mmath.NewVec3(0, 2, 0)), 1); err != nil {
			return err
		}
		for _, name := range extra {
			if _, err := skeleton.CreateJoint(name, "", mmath.Mat4Identity(), 1); err != nil {
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
	return sc, skeleton
}

func refForTest(name string) constraint.JointRef {
	return constraint.JointRef{Skeleton: "Armature", Joint: name}
}

func mustPoseForTest(t *testing.T, sc *scene.Scene, name string) mmath.Mat4 {
	t.Helper()
	m, err := NewResolver(sc).Current().Pose(refForTest(name))
	if err != nil {
		t.Fatalf("pose %s failed: %v", name, err)
	}
	return m
}

func mustJointForTest(t *testing.T, skeleton *model.Skeleton, name string) *model.Joint {
	t.Helper()
	joint, err := skeleton.Get(name)
	if err != nil {
		t.Fatalf("joint %s missing: %v", name, err)
	}
	return joint
}

func zRotationForTest(angle float64) mmath.Quaternion {
	return mmath.NewQuaternionFromAxisAngle(mmath.NewVec3(0, 0, 1), angle)
}

func TestForwardPropagatesParentRotation(t *testing.T) {
	sc, skeleton := newChainSceneForTest(t)
	mustJointForTest(t, skeleton, "Root").RotationQuaternion = zRotationForTest(math.Pi / 2)

	got := mustPoseForTest(t, sc, "Mid").Translation()
	if !got.NearEquals(mmath.NewVec3(-1, 0, 0), 1e-9) {
		t.Fatalf("mid head mismatch: got=%v want=(-1,0,0)", got)
	}
	tip := mustPoseForTest(t, sc, "Tip").Translation()
	if !tip.NearEquals(mmath.NewVec3(-2, 0, 0), 1e-9) {
		t.Fatalf("tip head mismatch: got=%v want=(-2,0,0)", tip)
	}
}

func TestForwardWithoutInheritRotationKeepsRestOrientation(t *testing.T) {
	sc, skeleton := newChainSceneForTest(t)
	mustJointForTest(t, skeleton, "Root").RotationQuaternion = zRotationForTest(math.Pi / 2)
	mustJointForTest(t, skeleton, "Mid").InheritRotation = false

	m := mustPoseForTest(t, sc, "Mid")
	if !m.Translation().NearEquals(mmath.NewVec3(-1, 0, 0), 1e-9) {
		t.Fatalf("location mismatch: got=%v", m.Translation())
	}
	if !m.Rotation().NearEquals(mmath.QuaternionIdentity(), 1e-9) {
		t.Fatalf("rotation mismatch: got=%v want=identity", m.Rotation())
	}
}

func TestAnimatedChannelOverridesStaticPose(t *testing.T) {
	sc, _ := newChainSceneForTest(t)
	clip := sc.Store.EnsureActiveClip("Armature")
	channel := clip.EnsureChannel(anim.ChannelKey{Joint: "Tip", Property: anim.PropertyLocation, Index: 0})
	channel.Insert(1, 0)
	channel.Insert(11, 2)

	sc.SetFrame(11)
	got := mustPoseForTest(t, sc, "Tip").Translation()
	if !got.NearEquals(mmath.NewVec3(2, 2, 0), 1e-9) {
		t.Fatalf("tip mismatch: got=%v want=(2,2,0)", got)
	}
}

func TestCopyTransformsWithOffsetAndInfluence(t *testing.T) {
	sc, skeleton := newChainSceneForTest(t, "Proxy")
	mustJointForTest(t, skeleton, "Root").RotationQuaternion = zRotationForTest(math.Pi / 2)

	c := constraint.New(constraint.KindCopyTransforms, refForTest("Proxy"), refForTest("Tip"))
	c.UseOffset = true
	c.Offset = mmath.NewMat4Translation(mmath.NewVec3(0, 1, 0))
	sc.Constraints.Add(c)

	got := mustPoseForTest(t, sc, "Proxy")
	want := mustPoseForTest(t, sc, "Tip").Mul(c.Offset)
	if !got.NearEquals(want, 1e-9) {
		t.Fatalf("proxy mismatch: got=%v want=%v", got, want)
	}

	c.Influence = 0
	if got := mustPoseForTest(t, sc, "Proxy"); !got.NearEquals(mmath.Mat4Identity(), 1e-9) {
		t.Fatalf("zero influence should keep own pose: got=%v", got)
	}
}

func TestDampedTrackPointsAxisAtTarget(t *testing.T) {
	sc, skeleton := newChainSceneForTest(t, "Goal")
	mustJointForTest(t, skeleton, "Goal").Location = mmath.NewVec3(3, 0, 0)
	sc.Constraints.Add(constraint.New(constraint.KindDampedTrack, refForTest("Root"), refForTest("Goal")))

	axis := mustPoseForTest(t, sc, "Root").Axis(1).Normalized()
	if !axis.NearEquals(mmath.NewVec3(1, 0, 0), 1e-9) {
		t.Fatalf("track axis mismatch: got=%v want=(1,0,0)", axis)
	}
}

func TestTwoBoneIKReachesTarget(t *testing.T) {
	sc, skeleton := newChainSceneForTest(t, "Goal")
	mustJointForTest(t, skeleton, "Goal").Location = mmath.NewVec3(1, 1, 0)
	ik := constraint.New(constraint.KindIK, refForTest("Mid"), refForTest("Goal"))
	ik.ChainLength = 2
	sc.Constraints.Add(ik)

	mid := mustPoseForTest(t, sc, "Mid")
	tail := mid.MulVec3(mmath.NewVec3(0, 1, 0))
	if !tail.NearEquals(mmath.NewVec3(1, 1, 0), 1e-6) {
		t.Fatalf("chain end mismatch: got=%v want=(1,1,0)", tail)
	}
	tip := mustPoseForTest(t, sc, "Tip").Translation()
	if !tip.NearEquals(tail, 1e-6) {
		t.Fatalf("child should follow solved chain: got=%v want=%v", tip, tail)
	}
}

func TestTwoBoneIKKeepsSolvedForwardPose(t *testing.T) {
	sc, skeleton := newChainSceneForTest(t, "Goal", "Pole")
	mustJointForTest(t, skeleton, "Root").RotationQuaternion = zRotationForTest(0.3)
	mustJointForTest(t, skeleton, "Mid").RotationQuaternion = zRotationForTest(-1.2)
	beforeRoot := mustPoseForTest(t, sc, "Root")
	beforeMid := mustPoseForTest(t, sc, "Mid")

	end := beforeMid.MulVec3(mmath.NewVec3(0, 1, 0))
	mustJointForTest(t, skeleton, "Goal").Location = end
	elbow := beforeMid.Translation()
	mustJointForTest(t, skeleton, "Pole").Location = elbow.MulScalar(3)

	ik := constraint.New(constraint.KindIK, refForTest("Mid"), refForTest("Goal"))
	ik.ChainLength = 2
	ik.Pole = refForTest("Pole")
	sc.Constraints.Add(ik)

	if got := mustPoseForTest(t, sc, "Root"); !got.NearEquals(beforeRoot, 1e-6) {
		t.Fatalf("root changed: got=%v want=%v", got, beforeRoot)
	}
	if got := mustPoseForTest(t, sc, "Mid"); !got.NearEquals(beforeMid, 1e-6) {
		t.Fatalf("mid changed: got=%v want=%v", got, beforeMid)
	}
}

func TestCCDIKReachesTargetOnLongChain(t *testing.T) {
	sc, skeleton := newChainSceneForTest(t, "Goal")
	mustJointForTest(t, skeleton, "Goal").Location = mmath.NewVec3(1.5, 1.5, 0)
	ik := constraint.New(constraint.KindIK, refForTest("Tip"), refForTest("Goal"))
	ik.ChainLength = 3
	sc.Constraints.Add(ik)

	tail := mustPoseForTest(t, sc, "Tip").MulVec3(mmath.NewVec3(0, 1, 0))
	if tail.Sub(mmath.NewVec3(1.5, 1.5, 0)).Length() > 1e-3 {
		t.Fatalf("chain end mismatch: got=%v", tail)
	}
}

func TestRotationOnlyIKDistributesRotation(t *testing.T) {
	sc, skeleton := newChainSceneForTest(t, "Goal")
	mustJointForTest(t, skeleton, "Goal").RotationQuaternion = zRotationForTest(math.Pi / 2)
	ik := constraint.New(constraint.KindIK, refForTest("Mid"), refForTest("Goal"))
	ik.ChainLength = 2
	ik.UseLocation = false
	sc.Constraints.Add(ik)

	mid := mustPoseForTest(t, sc, "Mid").Rotation()
	if !mid.NearEquals(zRotationForTest(math.Pi/2), 1e-9) {
		t.Fatalf("tip rotation mismatch: got=%v", mid)
	}
	root := mustPoseForTest(t, sc, "Root").Rotation()
	if !root.NearEquals(zRotationForTest(math.Pi/4), 1e-9) {
		t.Fatalf("root share mismatch: got=%v", root)
	}
}

func TestStretchIKScalesChainToReach(t *testing.T) {
	sc, skeleton := newChainSceneForTest(t, "Goal")
	mustJointForTest(t, skeleton, "Goal").Location = mmath.NewVec3(0, 3, 0)
	ik := constraint.New(constraint.KindIK, refForTest("Mid"), refForTest("Goal"))
	ik.ChainLength = 2
	ik.UseStretch = true
	sc.Constraints.Add(ik)

	tail := mustPoseForTest(t, sc, "Mid").MulVec3(mmath.NewVec3(0, 1, 0))
	if !tail.NearEquals(mmath.NewVec3(0, 3, 0), 1e-6) {
		t.Fatalf("stretched end mismatch: got=%v want=(0,3,0)", tail)
	}
}

func TestDriverWeightedAverageLocation(t *testing.T) {
	sc, skeleton := newChainSceneForTest(t, "CoM")
	com := mustJointForTest(t, skeleton, "CoM")
	com.Props["Tip Weight"] = 100
	com.Props["Mid Weight"] = 300
	driver, err := constraint.NewDriver(refForTest("CoM"), anim.PropertyLocation, 1, "1*((l0*w0) +(l1*w1) )/(w0+w1)", []constraint.Variable{
		{Name: "l0", Kind: constraint.VariableLocation, Source: refForTest("Tip"), Index: 1},
		{Name: "w0", Kind: constraint.VariableProperty, Source: refForTest("CoM"), Property: "Tip Weight"},
		{Name: "l1", Kind: constraint.VariableLocation, Source: refForTest("Mid"), Index: 1},
		{Name: "w1", Kind: constraint.VariableProperty, Source: refForTest("CoM"), Property: "Mid Weight"},
	})
	if err != nil {
		t.Fatalf("driver failed: %v", err)
	}
	sc.Drivers.Add(driver)

	got := mustPoseForTest(t, sc, "CoM").Translation().Y
	if math.Abs(got-1.25) > 1e-9 {
		t.Fatalf("weighted location mismatch: got=%v want=1.25", got)
	}
}

func TestConstraintCycleTerminates(t *testing.T) {
	sc, _ := newChainSceneForTest(t, "A", "B")
	sc.Constraints.Add(constraint.New(constraint.KindCopyTransforms, refForTest("A"), refForTest("B")))
	sc.Constraints.Add(constraint.New(constraint.KindCopyTransforms, refForTest("B"), refForTest("A")))

	if _, err := NewResolver(sc).Current().Pose(refForTest("A")); err != nil {
		t.Fatalf("cycle should resolve: %v", err)
	}
}

func TestResolveWorldTransformAppliesSkeletonMatrix(t *testing.T) {
	sc, skeleton := newChainSceneForTest(t)
	skeleton.Matrix = mmath.NewMat4Translation(mmath.NewVec3(10, 0, 0))

	world, err := NewResolver(sc).ResolveWorldTransform("Armature", "Tip", 1)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !world.Translation().NearEquals(mmath.NewVec3(10, 2, 0), 1e-9) {
		t.Fatalf("world mismatch: got=%v", world.Translation())
	}
	if _, err := NewResolver(sc).ResolveWorldTransform("Armature", "Missing", 1); err == nil {
		t.Fatalf("missing joint should fail")
	}
}

func TestEvaluationRejectedDuringStructuralEdit(t *testing.T) {
	sc, skeleton := newChainSceneForTest(t)
	err := skeleton.WithStructuralEditScope(func() error {
		_, err := NewResolver(sc).Current().Pose(refForTest("Tip"))
		return err
	})
	if err == nil {
		t.Fatalf("evaluation inside structural scope should fail")
	}
}

func TestLocalFromPoseRoundTrip(t *testing.T) {
	sc, skeleton := newChainSceneForTest(t)
	mustJointForTest(t, skeleton, "Root").RotationQuaternion = zRotationForTest(0.7)
	frame := NewResolver(sc).Current()
	want := mmath.NewMat4FromLocRotScale(mmath.NewVec3(0.1, 0.2, 0.3), zRotationForTest(0.4), mmath.NewVec3(1, 2, 1))

	pose, err := frame.PoseFromLocal(refForTest("Tip"), want)
	if err != nil {
		t.Fatalf("pose from local failed: %v", err)
	}
	got, err := frame.LocalFromPose(refForTest("Tip"), pose)
	if err != nil {
		t.Fatalf("local from pose failed: %v", err)
	}
	if !got.NearEquals(want, 1e-9) {
		t.Fatalf("round trip mismatch: got=%v want=%v", got, want)
	}
}

func TestReleaseConstraintsCapturesPoseWithoutAnimation(t *testing.T) {
	sc, skeleton := newChainSceneForTest(t, "World.Tip")
	mustJointForTest(t, skeleton, "World.Tip").Location = mmath.NewVec3(3, 0, 0)
	behavior := constraint.New(constraint.KindCopyTransforms, refForTest("Tip"), refForTest("World.Tip"))
	behavior.EngineOwned = true
	sc.Constraints.Add(behavior)
	before := mustPoseForTest(t, sc, "Tip")

	removed, err := ReleaseConstraints(sc, []constraint.JointRef{refForTest("Tip")}, nil)
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if removed != 1 || sc.Constraints.Len() != 0 {
		t.Fatalf("removed mismatch: removed=%d left=%d", removed, sc.Constraints.Len())
	}
	if got := mustPoseForTest(t, sc, "Tip"); !got.NearEquals(before, 1e-9) {
		t.Fatalf("pose not preserved: got=%v want=%v", got, before)
	}
}
