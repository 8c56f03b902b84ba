package compaction

import (
	"strings"

	"github.com/youssefsiam38/agentloop/types"
)

// fallbackNotice opens every fallback summary. Callers can detect the
// degraded path by this prefix in addition to Result.Fallback.
const fallbackNotice = "Earlier conversation history was removed to stay within the context limit. A summary could not be generated; details below were recovered from local records only."

// buildFallbackSummary assembles the degraded summary from local data
// only. It is deterministic and performs no I/O, so it cannot fail.
func buildFallbackSummary(messages []*types.Message, previousSummary string, read, modified []string) string {
	sections := []string{fallbackNotice}

	if previousSummary != "" {
		sections = append(sections, "## Earlier summary\n"+previousSummary)
	}
	if digest := toolFailureDigest(messages); digest != "" {
		sections = append(sections, strings.TrimRight(digest, "\n"))
	}
	if files := fileOpsSection(read, modified); files != "" {
		sections = append(sections, strings.TrimRight(files, "\n"))
	}

	return strings.Join(sections, "\n\n")
}
