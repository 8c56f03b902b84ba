package compaction

import (
	"fmt"
	"sort"
	"strings"

	"github.com/youssefsiam38/agentloop/types"
)

const (
	// maxDigestEntries caps the tool-failure digest length.
	maxDigestEntries = 8

	// maxDigestChars truncates each digest entry's payload.
	maxDigestChars = 240
)

type toolFailure struct {
	callID  string
	name    string
	status  string
	payload string
}

// collectToolFailures scans messages for error tool results, oldest
// first, deduplicated by call-id and capped at maxDigestEntries.
func collectToolFailures(messages []*types.Message) []toolFailure {
	names := make(map[string]string)
	for _, msg := range messages {
		for _, block := range msg.Content {
			if block.Type == types.ContentTypeToolUse {
				names[block.ToolUseID] = block.ToolName
			}
		}
	}

	seen := make(map[string]bool)
	var failures []toolFailure
	for _, msg := range messages {
		for _, block := range msg.Content {
			if block.Type != types.ContentTypeToolResult || !block.IsError {
				continue
			}
			if seen[block.ToolResultID] {
				continue
			}
			seen[block.ToolResultID] = true
			failures = append(failures, toolFailure{
				callID:  block.ToolResultID,
				name:    names[block.ToolResultID],
				status:  block.ToolStatus,
				payload: block.ToolContent,
			})
			if len(failures) >= maxDigestEntries {
				return failures
			}
		}
	}
	return failures
}

// toolFailureDigest renders the tool-failure section, or "" when no
// failures were recorded.
func toolFailureDigest(messages []*types.Message) string {
	failures := collectToolFailures(messages)
	if len(failures) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Tool failures\n")
	for _, f := range failures {
		name := f.name
		if name == "" {
			name = "unknown"
		}
		payload := strings.TrimSpace(f.payload)
		if len(payload) > maxDigestChars {
			payload = payload[:maxDigestChars] + "..."
		}
		if f.status != "" {
			fmt.Fprintf(&b, "- %s (%s, %s): %s\n", name, f.callID, f.status, payload)
		} else {
			fmt.Fprintf(&b, "- %s (%s): %s\n", name, f.callID, payload)
		}
	}
	return b.String()
}

// mergeFileOps deduplicates and sorts the request's file operations.
// A path that was both read and modified is listed as modified only.
func mergeFileOps(ops FileOperations) (read, modified []string) {
	modSet := make(map[string]bool, len(ops.Modified))
	for _, p := range ops.Modified {
		modSet[p] = true
	}
	readSet := make(map[string]bool, len(ops.Read))
	for _, p := range ops.Read {
		if !modSet[p] {
			readSet[p] = true
		}
	}

	for p := range modSet {
		modified = append(modified, p)
	}
	for p := range readSet {
		read = append(read, p)
	}
	sort.Strings(modified)
	sort.Strings(read)
	return read, modified
}

// fileOpsSection renders the file-operations section, or "" when no
// operations were recorded.
func fileOpsSection(read, modified []string) string {
	if len(read) == 0 && len(modified) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Files touched\n")
	for _, p := range modified {
		fmt.Fprintf(&b, "- %s (modified)\n", p)
	}
	for _, p := range read {
		fmt.Fprintf(&b, "- %s (read)\n", p)
	}
	return b.String()
}
