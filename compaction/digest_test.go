package compaction

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/youssefsiam38/agentloop/types"
)

func failureMessage(callID, name, status, payload string) *types.Message {
	return types.NewMessage(types.RoleToolResult, []types.ContentBlock{
		{
			Type:         types.ContentTypeToolResult,
			ToolResultID: callID,
			ToolContent:  payload,
			IsError:      true,
			ToolStatus:   status,
		},
	})
}

func toolUseMessage(callID, name string) *types.Message {
	return types.NewMessage(types.RoleAssistant, []types.ContentBlock{
		{Type: types.ContentTypeToolUse, ToolUseID: callID, ToolName: name},
	})
}

func TestToolFailureDigest_CapAndDedup(t *testing.T) {
	var messages []*types.Message
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("call_%d", i)
		messages = append(messages, toolUseMessage(id, "bash"))
		messages = append(messages, failureMessage(id, "bash", "", "command failed"))
	}
	// Duplicate call-id must not produce a second entry.
	messages = append(messages, failureMessage("call_0", "bash", "", "command failed again"))

	failures := collectToolFailures(messages)
	if len(failures) != maxDigestEntries {
		t.Errorf("failure count = %d, want %d", len(failures), maxDigestEntries)
	}
	seen := make(map[string]bool)
	for _, f := range failures {
		if seen[f.callID] {
			t.Errorf("duplicate call id %s in digest", f.callID)
		}
		seen[f.callID] = true
	}
}

func TestToolFailureDigest_TruncationAndStatus(t *testing.T) {
	long := strings.Repeat("e", 1000)
	messages := []*types.Message{
		toolUseMessage("call_a", "bash"),
		failureMessage("call_a", "bash", "exit 127", long),
	}

	digest := toolFailureDigest(messages)
	if !strings.Contains(digest, "exit 127") {
		t.Error("digest missing status annotation")
	}
	if !strings.Contains(digest, "bash") {
		t.Error("digest missing tool name")
	}
	for _, line := range strings.Split(digest, "\n") {
		if len(line) > maxDigestChars+100 {
			t.Errorf("digest line not truncated: %d chars", len(line))
		}
	}
}

func TestToolFailureDigest_NoFailures(t *testing.T) {
	messages := []*types.Message{
		types.NewUserMessage("hello"),
		toolUseMessage("call_a", "bash"),
		types.NewMessage(types.RoleToolResult, []types.ContentBlock{
			{Type: types.ContentTypeToolResult, ToolResultID: "call_a", ToolContent: "ok"},
		}),
	}
	if digest := toolFailureDigest(messages); digest != "" {
		t.Errorf("digest for clean run = %q, want empty", digest)
	}
}

func TestMergeFileOps(t *testing.T) {
	read, modified := mergeFileOps(FileOperations{
		Read:     []string{"b.go", "a.go", "c.go", "a.go"},
		Modified: []string{"c.go", "d.go", "c.go"},
	})

	// c.go was both read and modified, so it lists as modified only.
	wantRead := []string{"a.go", "b.go"}
	wantModified := []string{"c.go", "d.go"}
	if !reflect.DeepEqual(read, wantRead) {
		t.Errorf("read = %v, want %v", read, wantRead)
	}
	if !reflect.DeepEqual(modified, wantModified) {
		t.Errorf("modified = %v, want %v", modified, wantModified)
	}
}

func TestFileOpsSection_ModifiedFirst(t *testing.T) {
	section := fileOpsSection([]string{"a.go"}, []string{"z.go"})
	modIdx := strings.Index(section, "z.go (modified)")
	readIdx := strings.Index(section, "a.go (read)")
	if modIdx == -1 || readIdx == -1 {
		t.Fatalf("section missing entries:\n%s", section)
	}
	if modIdx > readIdx {
		t.Error("modified paths should list before read paths")
	}
}
