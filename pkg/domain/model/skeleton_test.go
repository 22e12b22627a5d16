// 指示: miu200521358
package model

import (
	"testing"

	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
	"github.com/miu200521358/mu_rigbake/pkg/shared/base/merr"
)

func newChainSkeletonForTest(t *testing.T) *Skeleton {
	t.Helper()
	skeleton := NewSkeleton("Armature")
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
	return skeleton
}

func TestStructuralMutationRequiresScope(t *testing.T) {
	skeleton := NewSkeleton("Armature")
	_, err := skeleton.CreateJoint("Root", "", mmath.Mat4Identity(), 1)
	if err == nil {
		t.Fatalf("expected scope error")
	}
	if merr.KindOf(err) != merr.ErrorKindScope {
		t.Fatalf("kind mismatch: got=%s", merr.KindOf(err))
	}
	if skeleton.Scope() != ScopeNone {
		t.Fatalf("scope should stay none: got=%s", skeleton.Scope())
	}
}

func TestScopesRestorePreviousOnExit(t *testing.T) {
	skeleton := NewSkeleton("Armature")
	_ = skeleton.WithEvaluationScope(func() error {
		_ = skeleton.WithStructuralEditScope(func() error {
			if err := skeleton.RequireEvaluable(); err == nil {
				t.Fatalf("evaluation should be rejected during structural edit")
			}
			return merr.NewReferenceError("abort")
		})
		if skeleton.Scope() != ScopeEvaluation {
			t.Fatalf("scope mismatch: got=%s want=evaluation", skeleton.Scope())
		}
		return nil
	})
	if skeleton.Scope() != ScopeNone {
		t.Fatalf("scope mismatch: got=%s want=none", skeleton.Scope())
	}
}

func TestRemoveJointDetachesChildren(t *testing.T) {
	skeleton := newChainSkeletonForTest(t)
	if err := skeleton.WithStructuralEditScope(func() error {
		return skeleton.RemoveJoint("Mid")
	}); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	tip, ok := skeleton.Joint("Tip")
	if !ok {
		t.Fatalf("child should survive")
	}
	if tip.Parent != "" {
		t.Fatalf("child parent mismatch: got=%s want=", tip.Parent)
	}
	if !tip.Head().NearEquals(mmath.NewVec3(0, 2, 0), 1e-12) {
		t.Fatalf("child rest should be kept: got=%v", tip.Head())
	}
	err := skeleton.WithStructuralEditScope(func() error {
		return skeleton.RemoveJoint("Missing")
	})
	if !merr.IsReference(err) {
		t.Fatalf("missing joint should be reference error: %v", err)
	}
}

func TestReparentRejectsCycle(t *testing.T) {
	skeleton := newChainSkeletonForTest(t)
	err := skeleton.WithStructuralEditScope(func() error {
		return skeleton.Reparent("Root", "Tip")
	})
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	chain := skeleton.ParentChain("Tip")
	if len(chain) != 2 || chain[0] != "Mid" || chain[1] != "Root" {
		t.Fatalf("parent chain mismatch: got=%v", chain)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	skeleton := newChainSkeletonForTest(t)
	skeleton.SetRole("Tip", RoleTag{Kind: RoleWorld, HostSkeleton: "Armature", HostJoint: "Mid"})
	if err := skeleton.State.Append(&rigstate.Entry{Key: "World Space|Mid"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	skeleton.AssignCollection("Tip", "Body")

	cloned, err := skeleton.Clone()
	if err != nil {
		t.Fatalf("clone failed: %v", err)
	}
	tip, _ := cloned.Joint("Tip")
	tip.Location = mmath.NewVec3(1, 0, 0)
	tip.Props["x"] = 1

	original, _ := skeleton.Joint("Tip")
	if original.Location.Length() != 0 || len(original.Props) != 0 {
		t.Fatalf("clone should not share joint state")
	}
	if !cloned.IsEngineOwned("Tip") || cloned.State.Len() != 1 {
		t.Fatalf("clone should carry roles and state")
	}
	if got := cloned.CollectionMembers("Body"); len(got) != 1 {
		t.Fatalf("collection members mismatch: got=%v", got)
	}
}

func TestNormalizeNameAndUniqueName(t *testing.T) {
	// 合成済みと分解済みの「ガ」は同じ名前として扱う。
	decomposed := "\u30ab\u3099"
	if NormalizeName(" "+decomposed+" ") != "\u30ac" {
		t.Fatalf("normalize mismatch: got=%q", NormalizeName(decomposed))
	}
	skeleton := newChainSkeletonForTest(t)
	if got := skeleton.UniqueName("Tip"); got != "Tip.001" {
		t.Fatalf("unique name mismatch: got=%s", got)
	}
	if got := ProxyName("World", "Tip"); got != "World.Tip" {
		t.Fatalf("proxy name mismatch: got=%s", got)
	}
}

func TestJointBasisFromMatrixKeepsEulerContinuity(t *testing.T) {
	joint := NewJoint("A", "", mmath.Mat4Identity(), 1)
	joint.RotationMode = mmath.RotationModeXYZ
	joint.RotationEuler = mmath.NewVec3(0, 0, 3.1)
	target := mmath.QuaternionFromEuler(mmath.NewVec3(0, 0, 3.2), mmath.RotationModeXYZ)
	joint.SetBasisFromMatrix(target.ToMat4())
	if joint.RotationEuler.Z < 3.19 || joint.RotationEuler.Z > 3.21 {
		t.Fatalf("euler continuity mismatch: got=%v", joint.RotationEuler)
	}
}
