// Package agentloop is the execution core of an LLM agent runtime: it
// runs conversational turns against a completion provider and keeps
// long-lived conversations within a bounded token budget.
//
// The Engine drives one turn loop at a time: send history, receive a
// completion, execute any requested tool calls, and decide whether to
// continue, request more tools, or terminate. Tool calls run with
// bounded concurrency and per-call timeouts; a failing or hanging tool
// becomes an error tool-result, never a failed turn. RunTurnLoop is the
// batch mode; RunTurnStream exposes the same state machine as a stream
// of discrete events for callers that need partial output.
//
// The compaction package shrinks a transcript prefix into a single
// summary message when the context budget is exceeded; the storage
// package persists transcripts in PostgreSQL and splices summaries in
// atomically. The hooks package observes turns, tool calls, and
// compaction passes.
//
// A minimal host looks like:
//
//	registry := tool.NewRegistry()
//	registry.Register(myTool)
//
//	engine, err := agentloop.NewEngine(
//	    agentloop.NewAnthropicCompletion(&client, agentloop.ProviderConfig{
//	        Model:        "claude-sonnet-4-5-20250929",
//	        SystemPrompt: "You are a helpful assistant",
//	        Registry:     registry,
//	    }),
//	    tool.NewExecutor(registry),
//	    agentloop.WithMaxTurns(20),
//	)
//	if err != nil {
//	    return err
//	}
//
//	result, err := engine.RunTurnLoop(ctx, history)
package agentloop
