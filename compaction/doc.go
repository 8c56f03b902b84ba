// Package compaction provides context window management for agent conversations.
//
// When a conversation grows past its token budget, the host hands the engine a
// prefix of the transcript to compress. The engine produces a single summary
// message that replaces that prefix; the host splices it in before the next
// turn. Compact never fails: any error at any stage (no summarizer configured,
// a summarization call failing, cancellation) degrades to a local fallback
// built purely from the request, so callers never need an error path.
//
// # Pipeline
//
// A compaction pass runs these stages in order:
//
//   - Recency split: a trailing slice of messages is held back verbatim
//     instead of summarized, governed by RecencyPolicy. The most recent
//     message is always admitted even when it alone exceeds the token cap,
//     so the buffer is never empty while messages exist.
//
//   - Budget check: if the transcript projected to remain after compaction
//     still exceeds ContextWindow x MaxHistoryShare x SafetyMargin, the
//     oldest halves of the input are peeled off whole (messages are never
//     split) and each peeled group is summarized separately, seeding the
//     main pass via the carried summary rather than being discarded.
//
//   - Adaptive chunking: the input is split into chunks sized to a fraction
//     of the context window; the fraction shrinks as the mean message size
//     grows, so oversized messages still fit a single summarization call.
//
//   - Staged summarization: chunks are summarized strictly in order, each
//     call carrying the running summary forward. Ordering is preserved in
//     the narrative; this fold is never parallelized.
//
//   - Assembly: a split-turn section (when the boundary fell inside a turn),
//     the verbatim recency buffer, a tool-failure digest, and a sorted
//     file-operations audit are appended to the summary text.
//
// # Usage
//
//	compactor := compaction.NewWithClient(client, &compaction.Config{
//	    ContextWindow:   200000,
//	    MaxHistoryShare: 0.5,
//	}, logger)
//
//	result := compactor.Compact(ctx, &compaction.Request{
//	    Messages:         older,
//	    TokensBefore:     total,
//	    FirstKeptEntryID: keptID,
//	})
//	// splice result.Summary in place of the summarized messages
//
// # Thread safety
//
// A Compactor is safe for concurrent use across conversations. Input
// messages are never mutated.
package compaction
