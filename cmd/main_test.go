// 指示: miu200521358
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/io_scene"
	"github.com/miu200521358/mu_rigbake/pkg/domain/anim"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
	"github.com/miu200521358/mu_rigbake/pkg/usecase/minteractor"
)

// newSceneFileForTest は3関節の腕を持つシーンファイルを作成してパスを返す。
func newSceneFileForTest(t *testing.T) string {
	t.Helper()
	sc := scene.NewScene()
	skeleton := model.NewSkeleton("Armature")
	err := skeleton.WithStructuralEditScope(func() error {
		heads := []float64{0, 1, 2}
		names := []string{"Upper", "Lower", "Hand"}
		parent := ""
		for i, name := range names {
			if _, err := skeleton.CreateJoint(name, parent, mmath.NewMat4Translation(mmath.NewVec3(0, heads[i], 0)), 1); err != nil {
				return err
			}
			parent = name
		}
		return nil
	})
	if err != nil {
		t.Fatalf("build skeleton failed: %v", err)
	}
	if err := sc.AddSkeleton(skeleton); err != nil {
		t.Fatalf("add skeleton failed: %v", err)
	}
	clip := sc.Store.EnsureActiveClip("Armature")
	for index := 0; index < 4; index++ {
		channel := clip.EnsureChannel(anim.ChannelKey{Joint: "Lower", Property: anim.PropertyRotationQuaternion, Index: index})
		channel.Insert(1, mmath.NewQuaternionFromAxisAngle(mmath.NewVec3(1, 0, 0), 0.1).Get(index))
		channel.Insert(6, mmath.NewQuaternionFromAxisAngle(mmath.NewVec3(1, 0, 0), 0.7).Get(index))
	}
	path := filepath.Join(t.TempDir(), "scene.json")
	if err := io_scene.NewSceneRepository().Save(path, sc); err != nil {
		t.Fatalf("save scene failed: %v", err)
	}
	return path
}

// runForTest は設定ファイルなしの環境で CLI を実行する。
func runForTest(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
	out := bytes.NewBuffer(nil)
	errOut := bytes.NewBuffer(nil)
	err := run(args, out, errOut)
	return out.String(), errOut.String(), err
}

func loadSceneForTest(t *testing.T, path string) *scene.Scene {
	t.Helper()
	sc, err := io_scene.NewSceneRepository().Load(path)
	if err != nil {
		t.Fatalf("load scene failed: %v", err)
	}
	return sc
}

func TestRunApplyThenRemove(t *testing.T) {
	t.Chdir(t.TempDir())
	scenePath := newSceneFileForTest(t)

	out, errOut, err := runForTest(t, "apply", "world", "Lower", "--scene", scenePath)
	if err != nil {
		t.Fatalf("apply failed: %v (%s)", err, errOut)
	}
	if !strings.Contains(out, "適用完了: World Space entries=1") {
		t.Fatalf("unexpected output: %s", out)
	}
	sc := loadSceneForTest(t, scenePath)
	skeleton, _ := sc.Skeleton("Armature")
	if !skeleton.State.Contains("World Space|Lower") || !skeleton.Has("World.Lower") {
		t.Fatalf("world space should be applied: log=%v", skeleton.State.Keys())
	}

	if _, errOut, err := runForTest(t, "remove", "all", "World.Lower", "--scene", scenePath); err != nil {
		t.Fatalf("remove failed: %v (%s)", err, errOut)
	}
	sc = loadSceneForTest(t, scenePath)
	skeleton, _ = sc.Skeleton("Armature")
	if skeleton.State.Len() != 0 || skeleton.Has("World.Lower") || sc.Constraints.Len() != 0 {
		t.Fatalf("rig should be clean: log=%v", skeleton.State.Keys())
	}
}

func TestRunApplyWritesToOutAndReportsProblems(t *testing.T) {
	t.Chdir(t.TempDir())
	scenePath := newSceneFileForTest(t)
	outPath := filepath.Join(t.TempDir(), "result.json")

	_, errOut, err := runForTest(t, "apply", "parent", "Hand", "Ghost", "--target", "Upper", "--scene", scenePath, "--out", outPath)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if !strings.Contains(errOut, "[問題] Parent Space Constraint|Bone not found: Armature[Ghost]") {
		t.Fatalf("problem should be reported: %s", errOut)
	}
	sc := loadSceneForTest(t, outPath)
	skeleton, _ := sc.Skeleton("Armature")
	if !skeleton.State.Contains("Parent Space|Hand") {
		t.Fatalf("parent space should be applied: log=%v", skeleton.State.Keys())
	}
	original := loadSceneForTest(t, scenePath)
	originalSkeleton, _ := original.Skeleton("Armature")
	if originalSkeleton.State.Len() != 0 {
		t.Fatalf("input scene should be untouched")
	}
}

func TestRunStateSaveThenLoad(t *testing.T) {
	t.Chdir(t.TempDir())
	scenePath := newSceneFileForTest(t)
	statePath := filepath.Join(t.TempDir(), "rig.json")
	freshPath := newSceneFileForTest(t)

	if _, errOut, err := runForTest(t, "apply", "ik", "Hand", "--pole=false", "--scene", scenePath); err != nil {
		t.Fatalf("apply failed: %v (%s)", err, errOut)
	}
	if _, _, err := runForTest(t, "state", "save", statePath, "--scene", scenePath); err != nil {
		t.Fatalf("state save failed: %v", err)
	}
	if _, err := os.Stat(statePath); err != nil {
		t.Fatalf("state file should exist: %v", err)
	}
	out, errOut, err := runForTest(t, "state", "load", statePath, "--scene", freshPath)
	if err != nil {
		t.Fatalf("state load failed: %v (%s)", err, errOut)
	}
	if !strings.Contains(out, "replayed=1") {
		t.Fatalf("unexpected output: %s", out)
	}
	sc := loadSceneForTest(t, freshPath)
	skeleton, _ := sc.Skeleton("Armature")
	if !skeleton.State.Contains("IK Limb|Hand") {
		t.Fatalf("ik should be replayed: log=%v", skeleton.State.Keys())
	}
	for _, c := range sc.Constraints.All() {
		if c.Kind == constraint.KindIK && !c.Pole.IsZero() {
			t.Fatalf("pole flag should survive the round trip")
		}
	}
}

func TestRunInspectPrintsTables(t *testing.T) {
	t.Chdir(t.TempDir())
	scenePath := newSceneFileForTest(t)
	if _, _, err := runForTest(t, "apply", "world", "Hand", "--scene", scenePath); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	out, _, err := runForTest(t, "inspect", "--scene", scenePath)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, want := range []string{"Armature", "World.Hand", "World Space|Hand", "COPY_TRANSFORMS", model.HiddenCollectionName} {
		if !strings.Contains(out, want) {
			t.Fatalf("inspect output should contain %q:\n%s", want, out)
		}
	}
}

func TestRunKeyRangeUsesFlags(t *testing.T) {
	t.Chdir(t.TempDir())
	scenePath := newSceneFileForTest(t)
	if _, _, err := runForTest(t, "key-range", "Hand", "--start", "1", "--end", "6", "--step", "5", "--location=false", "--scale=false", "--scene", scenePath); err != nil {
		t.Fatalf("key-range failed: %v", err)
	}
	sc := loadSceneForTest(t, scenePath)
	clip, _ := sc.Store.ActiveClip("Armature")
	if clip.HasJointChannels("Hand", anim.MaskLocation|anim.MaskScale) {
		t.Fatalf("location and scale should not be keyed")
	}
	channel, ok := clip.Channel(anim.ChannelKey{Joint: "Hand", Property: anim.PropertyRotationQuaternion, Index: 0})
	if !ok {
		t.Fatalf("rotation should be keyed")
	}
	if times := channel.Times(); len(times) != 2 || times[0] != 1 || times[1] != 6 {
		t.Fatalf("key times mismatch: got=%v want=[1 6]", times)
	}
}

func TestRunRequiresScene(t *testing.T) {
	t.Chdir(t.TempDir())
	_, _, err := runForTest(t, "apply", "world", "Hand")
	if err == nil || !strings.Contains(err.Error(), "--scene") {
		t.Fatalf("expected scene required error, got %v", err)
	}
}

func TestRunRejectsUnknownKind(t *testing.T) {
	t.Chdir(t.TempDir())
	scenePath := newSceneFileForTest(t)
	_, _, err := runForTest(t, "apply", "spiral", "Hand", "--scene", scenePath)
	if err == nil || !strings.Contains(err.Error(), "spiral") {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
}

func TestRunConfigInitCreatesSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "mu_rigbake.toml")
	out, _, err := runForTest(t, "config", "init", path)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("unexpected output: %s", out)
	}
	if _, _, err := runForTest(t, "--config", path, "kinds"); err != nil {
		t.Fatalf("kinds failed: %v", err)
	}
	if _, _, err := runForTest(t, "config", "init", path); err == nil {
		t.Fatalf("expected error for existing config")
	}
}

func TestParseKindAcceptsAliasesAndNames(t *testing.T) {
	registry := minteractor.NewRegistry()
	cases := map[string]model.OperationKind{
		"world":            model.OperationWorldSpace,
		"AIM-OFFSET":       model.OperationAimOffsetSpace,
		"com":              model.OperationCenterOfMass,
		"IK Stretch":       model.OperationIKStretch,
		"reverse":          model.OperationReverseHierarchy,
		" copy-transforms": model.OperationSimpleCopyTransforms,
	}
	for input, want := range cases {
		got, err := parseKind(registry, input)
		if err != nil {
			t.Fatalf("parse %q failed: %v", input, err)
		}
		if got != want {
			t.Fatalf("kind mismatch for %q: got=%s want=%s", input, got, want)
		}
	}
}

func TestParseWeightsAndOffset(t *testing.T) {
	weights, err := parseWeights([]string{"Hand=300", " Upper = 50 "})
	if err != nil {
		t.Fatalf("parse weights failed: %v", err)
	}
	if weights["Hand"] != 300 || weights["Upper"] != 50 {
		t.Fatalf("weights mismatch: %v", weights)
	}
	if _, err := parseWeights([]string{"Hand"}); err == nil {
		t.Fatalf("expected weight error")
	}
	offset, err := parseOffset("0.5, 1, -2")
	if err != nil {
		t.Fatalf("parse offset failed: %v", err)
	}
	if !offset.Translation().NearEquals(mmath.NewVec3(0.5, 1, -2), 1e-12) {
		t.Fatalf("offset mismatch: %v", offset.Translation())
	}
	if _, err := parseOffset("1,2"); err == nil {
		t.Fatalf("expected offset error")
	}
}

func TestRunImportCreatesSceneFromGltf(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "avatar.gltf")
	gltf := `{"asset": {"version": "2.0"}, "nodes": [
  {"name": "Hips", "translation": [0, 1, 0], "children": [1]},
  {"name": "Spine", "translation": [0, 0.5, 0]}
]}`
	if err := os.WriteFile(modelPath, []byte(gltf), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	scenePath := filepath.Join(dir, "scene.json")

	out, errOut, err := runForTest(t, "import", modelPath, "--name", "Avatar", "--scene", scenePath)
	if err != nil {
		t.Fatalf("import failed: %v (%s)", err, errOut)
	}
	if !strings.Contains(out, "骨格取込: Avatar joints=2") {
		t.Fatalf("unexpected output: %s", out)
	}
	if _, _, err := runForTest(t, "import", modelPath, "--name", "Avatar", "--scene", scenePath); err == nil {
		t.Fatalf("expected duplicate skeleton error")
	}
	if _, _, err := runForTest(t, "import", modelPath, "--scene", scenePath); err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	sc := loadSceneForTest(t, scenePath)
	if len(sc.Skeletons()) != 2 {
		t.Fatalf("skeleton count mismatch: got=%d want=2", len(sc.Skeletons()))
	}
	if _, _, err := runForTest(t, "apply", "world", "Spine", "--skeleton", "avatar", "--scene", scenePath); err != nil {
		t.Fatalf("apply on imported skeleton failed: %v", err)
	}
	sc = loadSceneForTest(t, scenePath)
	skeleton, _ := sc.Skeleton("avatar")
	if !skeleton.State.Contains("World Space|Spine") {
		t.Fatalf("world space should be applied on imported skeleton")
	}
}
