package compaction

import "github.com/youssefsiam38/agentloop/types"

// pruneToBudget checks whether the transcript still fits the history
// budget after compaction and, if not, peels whole groups of the oldest
// messages off the summarization input until the remainder fits. Groups
// are formed by repeated bisection so each pass drops the oldest half of
// what remains. Messages are never split.
//
// tokensBefore is the full transcript estimate; each dropped group's
// tokens are subtracted from it. Dropped groups are returned oldest
// first so the caller can compress each one into the summary seed
// before discarding it.
func pruneToBudget(input []*types.Message, tokensBefore, budget int) (dropped [][]*types.Message, retained []*types.Message) {
	retained = input
	remainder := tokensBefore

	for remainder > budget && len(retained) > 1 {
		half := len(retained) / 2
		group := retained[:half]
		retained = retained[half:]
		remainder -= types.SumTokens(group)
		dropped = append(dropped, group)
	}

	return dropped, retained
}
