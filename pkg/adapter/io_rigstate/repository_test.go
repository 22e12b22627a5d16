// 指示: miu200521358
package io_rigstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/io_common"
	"github.com/miu200521358/mu_rigbake/pkg/domain/rigstate"
	"github.com/miu200521358/mu_rigbake/pkg/shared/base/merr"
)

func TestRigStateRepositoryCanLoad(t *testing.T) {
	repository := NewRigStateRepository()
	if !repository.CanLoad("rig.json") || !repository.CanLoad("rig.JSON") {
		t.Fatalf("expected json to be loadable")
	}
	if repository.CanLoad("rig.toml") {
		t.Fatalf("expected toml to be not loadable")
	}
}

func TestRigStateRepositorySaveThenLoadKeepsOrder(t *testing.T) {
	repository := NewRigStateRepository()
	path := filepath.Join(t.TempDir(), "rig.json")
	doc := rigstate.NewDocument(rigstate.CurrentSchemaVersion)
	for _, name := range []string{"Lower", "Hand", "Arm"} {
		doc.Constraints.Set("World Space|"+name, rigstate.ConstraintRecord{
			FullName:       "World Space: " + name,
			ConstraintType: "World Space",
			BoneList:       []string{name},
			BoolList:       []bool{},
			StringList:     []string{},
			IntList:        []int{},
			FloatList:      []float64{},
		})
	}
	doc.BoneStates.Set("Hand", rigstate.BoneState{RotationMode: "QUATERNION", UseInheritRotation: true, InheritScale: "FULL", Collections: []string{"Arms"}})
	doc.SetDisplayGroups(&rigstate.DisplayGroups{Names: []string{"Arms"}, Visibility: []bool{true}})

	if err := repository.Save(path, doc); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := repository.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	keys := loaded.Constraints.Keys()
	want := []string{"World Space|Lower", "World Space|Hand", "World Space|Arm"}
	if len(keys) != len(want) {
		t.Fatalf("keys mismatch: got=%v want=%v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys mismatch: got=%v want=%v", keys, want)
		}
	}
	state, ok := loaded.BoneStates.Get("Hand")
	if !ok || state.Collections[0] != "Arms" {
		t.Fatalf("bone state mismatch: ok=%v state=%+v", ok, state)
	}
	if groups := loaded.DisplayGroups(); groups == nil || groups.Names[0] != "Arms" {
		t.Fatalf("display groups mismatch: %+v", groups)
	}
}

func TestRigStateRepositoryLoadErrors(t *testing.T) {
	repository := NewRigStateRepository()
	dir := t.TempDir()

	if _, err := repository.Load(filepath.Join(dir, "rig.toml")); merr.ExtractErrorID(err) != io_common.ExtInvalidErrorID {
		t.Fatalf("expected ext invalid, got %v", err)
	}
	if _, err := repository.Load(filepath.Join(dir, "missing.json")); merr.ExtractErrorID(err) != io_common.FileNotFoundErrorID {
		t.Fatalf("expected file not found, got %v", err)
	}
	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte("{"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := repository.Load(broken); merr.ExtractErrorID(err) != io_common.ParseFailedErrorID {
		t.Fatalf("expected parse failed, got %v", err)
	}
	future := filepath.Join(dir, "future.json")
	if err := os.WriteFile(future, []byte(`{"schema_version": 99, "constraints": {}, "bone_states": {}}`), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := repository.Load(future); err == nil {
		t.Fatalf("expected unsupported schema error")
	}
}

func TestRigStateRepositorySaveRejectsNilDocument(t *testing.T) {
	repository := NewRigStateRepository()
	err := repository.Save(filepath.Join(t.TempDir(), "rig.json"), nil)
	if merr.ExtractErrorID(err) != io_common.SaveFailedErrorID {
		t.Fatalf("expected save failed, got %v", err)
	}
}
