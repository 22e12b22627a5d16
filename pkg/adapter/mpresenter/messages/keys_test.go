// 指示: miu200521358
package messages

import (
	"strings"
	"testing"
)

func TestMessagesAreDefinedAndUnique(t *testing.T) {
	keys := []string{
		MessageSceneRequired,
		MessageSkeletonRequired,
		MessageSkeletonNotFound,
		MessageKindUnknown,
		MessageJointsRequired,
		MessageWeightInvalid,
		MessageOffsetInvalid,
		MessageProblem,
		MessageApplied,
		MessageRemoved,
		MessageStateSaved,
		MessageStateLoaded,
		MessageKeyRangeDone,
		MessageBaked,
		MessageComUpdated,
		MessageSceneSaved,
		MessageImported,
		MessageConfigCreated,
		MessageConfigPath,
		MessageProgress,
		MessageNoEntries,
		MessageNoConstraints,
		MessageInvalidVerboseKey,
	}

	seen := map[string]struct{}{}
	for _, key := range keys {
		if key == "" {
			t.Fatalf("key should not be empty")
		}
		if _, exists := seen[key]; exists {
			t.Fatalf("key should be unique: %s", key)
		}
		seen[key] = struct{}{}
	}
}

func TestOutputMessagesCarryPrefix(t *testing.T) {
	for _, key := range []string{MessageApplied, MessageRemoved, MessageStateSaved, MessageStateLoaded, MessageSceneSaved, MessageBaked, MessageImported} {
		if !strings.HasPrefix(key, "[mu_rigbake] ") {
			t.Fatalf("message should carry prefix: %s", key)
		}
	}
}
