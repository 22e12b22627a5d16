// 指示: miu200521358
package model

import "testing"

func TestOperationKindsAreNonEmptyAndUnique(t *testing.T) {
	if OperationWorldSpace.EntryKey("Hand") != "World Space|Hand" {
		t.Fatalf("entry key mismatch: got=%s want=%s", OperationWorldSpace.EntryKey("Hand"), "World Space|Hand")
	}

	seen := map[OperationKind]struct{}{}
	for _, kind := range AllOperationKinds() {
		if kind == "" {
			t.Fatalf("operation kind should not be empty")
		}
		if _, exists := seen[kind]; exists {
			t.Fatalf("operation kind should be unique: %s", kind)
		}
		seen[kind] = struct{}{}
		if kind.ProblemLabel() == "" {
			t.Fatalf("problem label should not be empty: %s", kind)
		}
		if kind != OperationSimpleCopyTransforms && kind.Role() == "" {
			t.Fatalf("role should be defined: %s", kind)
		}
	}
}
