// 指示: miu200521358
package io_gltf

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/io_common"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/shared/base/merr"
)

const humanoidGltfForTest = `{
  "asset": {"version": "2.0", "generator": "test"},
  "nodes": [
    {"name": "Hips", "translation": [0, 1, 0], "children": [1, 3]},
    {"name": "Spine", "translation": [0, 0.5, 0], "children": [2]},
    {"name": "Head", "translation": [0, 0.5, 0]},
    {"name": "Body", "mesh": 0}
  ],
  "extensionsUsed": ["VRM"],
  "extensions": {"VRM": {"humanoid": {"humanBones": [{"bone": "hips", "node": 0}, {"bone": "head", "node": 2}]}}}
}`

func writeFileForTest(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

// glbForTest はJSONチャンクのみのGLBを組み立てる。
func glbForTest(jsonText string) []byte {
	chunk := []byte(jsonText)
	for len(chunk)%4 != 0 {
		chunk = append(chunk, ' ')
	}
	out := make([]byte, glbHeaderLength+glbChunkHeadSize, glbHeaderLength+glbChunkHeadSize+len(chunk))
	binary.LittleEndian.PutUint32(out[0:4], glbMagic)
	binary.LittleEndian.PutUint32(out[4:8], 2)
	binary.LittleEndian.PutUint32(out[8:12], uint32(glbHeaderLength+glbChunkHeadSize+len(chunk)))
	binary.LittleEndian.PutUint32(out[12:16], uint32(len(chunk)))
	binary.LittleEndian.PutUint32(out[16:20], glbJSONChunkType)
	return append(out, chunk...)
}

func TestSkeletonRepositoryLoadsNodeHierarchy(t *testing.T) {
	path := writeFileForTest(t, "avatar.gltf", []byte(humanoidGltfForTest))
	skeleton, err := NewSkeletonRepository().Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if skeleton.Name != "avatar" {
		t.Fatalf("skeleton name mismatch: got=%s", skeleton.Name)
	}
	if skeleton.Len() != 3 || skeleton.Has("Body") {
		t.Fatalf("mesh node should be skipped: joints=%v", skeleton.Names())
	}
	spine, _ := skeleton.Joint("Spine")
	if spine.Parent != "Hips" {
		t.Fatalf("parent mismatch: got=%s want=Hips", spine.Parent)
	}
	head, _ := skeleton.Joint("Head")
	if !head.Rest.Translation().NearEquals(mmath.NewVec3(0, 2, 0), 1e-9) {
		t.Fatalf("rest mismatch: got=%v", head.Rest.Translation())
	}
	hips, _ := skeleton.Joint("Hips")
	if hips.Length != 0.5 || head.Length != 0.25 {
		t.Fatalf("length mismatch: hips=%v head=%v", hips.Length, head.Length)
	}
	if !hips.InCollection(HumanoidCollectionName) || !head.InCollection(HumanoidCollectionName) || spine.InCollection(HumanoidCollectionName) {
		t.Fatalf("humanoid collection mismatch")
	}
}

func TestSkeletonRepositoryLoadsGlbAndSkinJoints(t *testing.T) {
	skinned := `{
  "asset": {"version": "2.0"},
  "nodes": [
    {"name": "Armature", "children": [1]},
    {"name": "Upper", "rotation": [0, 0, 0.7071067811865476, 0.7071067811865476], "children": [2]},
    {"name": "Lower", "translation": [0, 1, 0], "scale": [2, 2, 2]}
  ],
  "skins": [{"joints": [1, 2]}]
}`
	path := writeFileForTest(t, "rig.glb", glbForTest(skinned))
	skeleton, err := NewSkeletonRepository().Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if skeleton.Len() != 2 || skeleton.Has("Armature") {
		t.Fatalf("only skin joints should be loaded: joints=%v", skeleton.Names())
	}
	upper, _ := skeleton.Joint("Upper")
	if upper.Parent != "" {
		t.Fatalf("upper should be a root: parent=%s", upper.Parent)
	}
	lower, _ := skeleton.Joint("Lower")
	if !lower.Rest.Translation().NearEquals(mmath.NewVec3(-1, 0, 0), 1e-9) {
		t.Fatalf("rotated rest mismatch: got=%v", lower.Rest.Translation())
	}
	if !lower.Rest.Scale().NearEquals(mmath.Vec3One(), 1e-9) {
		t.Fatalf("rest scale should be removed: got=%v", lower.Rest.Scale())
	}
}

func TestSkeletonRepositoryLoadErrors(t *testing.T) {
	repository := NewSkeletonRepository()
	if _, err := repository.Load(filepath.Join(t.TempDir(), "model.pmx")); merr.ExtractErrorID(err) != io_common.ExtInvalidErrorID {
		t.Fatalf("expected ext invalid, got %v", err)
	}
	badMagic := glbForTest(`{"nodes": [{"name": "A"}]}`)
	badMagic[0] = 'x'
	if _, err := repository.Load(writeFileForTest(t, "bad.vrm", badMagic)); merr.ExtractErrorID(err) != io_common.ParseFailedErrorID {
		t.Fatalf("expected parse failed, got %v", err)
	}
	cycle := `{"nodes": [{"name": "A", "children": [1]}, {"name": "B", "children": [0]}]}`
	if _, err := repository.Load(writeFileForTest(t, "cycle.gltf", []byte(cycle))); merr.ExtractErrorID(err) != io_common.ParseFailedErrorID {
		t.Fatalf("expected cycle error, got %v", err)
	}
	future := `{"asset": {"version": "3.0"}, "nodes": [{"name": "A"}]}`
	if _, err := repository.Load(writeFileForTest(t, "future.gltf", []byte(future))); merr.ExtractErrorID(err) != io_common.FormatNotSupportedErrorID {
		t.Fatalf("expected format not supported, got %v", err)
	}
}
