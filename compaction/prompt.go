package compaction

import (
	"fmt"
	"strings"

	"github.com/youssefsiam38/agentloop/types"
)

// summarizationSystemPrompt instructs the model to produce a structured
// summary that can replace the original messages without losing the
// context needed to continue the conversation.
const summarizationSystemPrompt = `You are a conversation summarizer for an AI agent system. Your task is to create a comprehensive summary of the conversation that will replace the original messages while preserving all critical context.

Create a structured summary covering:

1. **Primary Request and Intent** - the user's main goal, constraints, and requirements.
2. **Key Technical Concepts** - important terms, APIs, and decisions established.
3. **Files and Code Sections** - files created, modified, or discussed, with paths.
4. **Errors and Fixes** - errors encountered and the solutions applied.
5. **Pending Tasks** - work mentioned but not yet done.
6. **Current State** - what was being worked on and how far it got.

Guidelines:

- Be concise but complete. Preserve all information needed to continue the conversation.
- Include specific details (file names, function names, error messages).
- Maintain the chronological order of events.
- Do not add information that wasn't in the original conversation.
- If a section has no relevant content, write "None" for that section.`

// turnPrefixSystemPrompt is used for the head of a turn split across the
// compaction boundary. The prefix is incomplete by construction, so the
// instructions differ from the main pass.
const turnPrefixSystemPrompt = `You are a conversation summarizer for an AI agent system. The following messages are the beginning of a turn that was cut off mid-way; its remainder is preserved elsewhere. Summarize only what these messages establish: the request being worked on, any tool activity so far, and partial results. Be brief. Do not speculate about how the turn ended.`

// buildChunkPrompt creates the user message for one summarization stage.
// previousSummary carries the running summary forward between stages.
func buildChunkPrompt(previousSummary, conversationText string) string {
	var b strings.Builder
	b.WriteString("Please summarize the following conversation according to the format specified in your instructions.\n\n")
	if previousSummary != "" {
		b.WriteString("<previous_summary>\n")
		b.WriteString(previousSummary)
		b.WriteString("\n</previous_summary>\n\n")
		b.WriteString("The above summarizes the conversation so far. Produce a single updated summary that merges it with the new messages below. Keep earlier facts unless the new messages supersede them.\n\n")
	}
	b.WriteString("<conversation>\n")
	b.WriteString(conversationText)
	b.WriteString("\n</conversation>\n\n")
	b.WriteString("Create a comprehensive summary that will allow continuation of this conversation with full context.")
	return b.String()
}

// buildPrunedGroupPrompt creates the user message for pre-summarizing a
// group of messages dropped by the budget check. These messages will not
// appear in the main pass, so the result is their only trace.
func buildPrunedGroupPrompt(previousSummary, conversationText string) string {
	var b strings.Builder
	b.WriteString("The following old messages are being removed from the conversation to fit a token budget. Summarize them in a short paragraph preserving decisions, file paths, and unresolved errors.\n\n")
	if previousSummary != "" {
		b.WriteString("<earlier_summary>\n")
		b.WriteString(previousSummary)
		b.WriteString("\n</earlier_summary>\n\n")
		b.WriteString("Merge your paragraph with the earlier summary above into one text.\n\n")
	}
	b.WriteString("<messages>\n")
	b.WriteString(conversationText)
	b.WriteString("\n</messages>")
	return b.String()
}

// buildTurnPrefixPrompt creates the user message for a split-turn prefix.
func buildTurnPrefixPrompt(conversationText string) string {
	return "<turn_prefix>\n" + conversationText + "\n</turn_prefix>"
}

// renderMessages formats messages as readable text for summarization.
func renderMessages(messages []*types.Message) string {
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(renderMessage(msg))
	}
	return b.String()
}

func renderMessage(msg *types.Message) string {
	var b strings.Builder
	b.WriteString(roleLabel(msg.Role))
	b.WriteString(":\n")
	for _, block := range msg.Content {
		switch block.Type {
		case types.ContentTypeText:
			b.WriteString(block.Text)
			b.WriteString("\n")
		case types.ContentTypeToolUse:
			fmt.Fprintf(&b, "[tool call %s: %s %s]\n", block.ToolUseID, block.ToolName, string(block.ToolInputRaw))
		case types.ContentTypeToolResult:
			label := "tool result"
			if block.IsError {
				label = "tool error"
			}
			fmt.Fprintf(&b, "[%s %s: %s]\n", label, block.ToolResultID, block.ToolContent)
		case types.ContentTypeImage:
			b.WriteString("[image]\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func roleLabel(role types.Role) string {
	switch role {
	case types.RoleAssistant:
		return "Assistant"
	case types.RoleToolResult:
		return "Tool"
	case types.RoleCustom:
		return "System"
	default:
		return "User"
	}
}
