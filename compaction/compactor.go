package compaction

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/youssefsiam38/agentloop/types"
)

// Compactor compresses conversation history into summary text.
type Compactor struct {
	summarize SummarizeFunc
	config    *Config
	logger    Logger
}

// New creates a Compactor using the given summarizer. A nil config uses
// DefaultConfig; a nil logger discards output. A nil summarize function
// is allowed and makes every Compact call take the fallback path.
func New(summarize SummarizeFunc, cfg *Config, logger Logger) *Compactor {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg.ApplyDefaults()
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Compactor{
		summarize: summarize,
		config:    cfg,
		logger:    logger,
	}
}

// NewWithClient creates a Compactor whose summarizer streams from the
// Anthropic API with the configured model.
func NewWithClient(client *anthropic.Client, cfg *Config, logger Logger) *Compactor {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg.ApplyDefaults()
	}
	return New(AnthropicSummarizer(client, cfg.SummarizerModel), cfg, logger)
}

// Compact turns a request into a result. It never returns an error: any
// failure degrades to a deterministic fallback summary built from the
// request alone, with the cause recorded in Details.Err.
func (c *Compactor) Compact(ctx context.Context, req *Request) *Result {
	start := time.Now()
	read, modified := mergeFileOps(req.FileOps)

	older, recent := splitRecency(req.Messages, c.config.Recency)

	result, err := c.run(ctx, req, older, recent, read, modified)
	if err != nil {
		c.logger.Warn("compaction failed, using fallback",
			"error", err,
			"messages", len(req.Messages))
		result = c.fallbackResult(req, recent, read, modified, err)
	}

	result.Details.Duration = time.Since(start)
	result.Details.FilesRead = read
	result.Details.FilesModified = modified
	result.Details.MessagesRetained = len(recent)

	c.logger.Info("compaction complete",
		"fallback", result.Fallback,
		"summarized", result.Details.MessagesSummarized,
		"dropped", result.Details.MessagesDropped,
		"chunks", result.Details.Chunks,
		"duration", result.Details.Duration)

	return result
}

// run executes the summarization pipeline. Any returned error sends the
// caller down the fallback path.
func (c *Compactor) run(ctx context.Context, req *Request, older, recent []*types.Message, read, modified []string) (*Result, error) {
	if c.summarize == nil {
		return nil, newError("summarize", -1, ErrNoSummarizer)
	}
	if err := ctx.Err(); err != nil {
		return nil, newError("compact", -1, err)
	}

	reserve := c.config.ReserveTokens
	if req.ReserveTokens > 0 {
		reserve = req.ReserveTokens
	}

	// Budget check. Groups peeled off here are compressed one level
	// further into the summary seed instead of being discarded.
	dropped, input := pruneToBudget(older, req.TokensBefore, c.config.HistoryBudget())
	seed := req.PreviousSummary
	droppedCount := 0
	for _, group := range dropped {
		if err := ctx.Err(); err != nil {
			return nil, newError("prune", -1, err)
		}
		text, err := c.summarize(ctx, summarizationSystemPrompt,
			buildPrunedGroupPrompt(seed, renderMessages(group)), reserve)
		if err != nil {
			return nil, newError("prune", -1, err)
		}
		seed = text
		droppedCount += len(group)
		c.logger.Debug("pruned message group into seed summary",
			"messages", len(group))
	}

	// Adaptive chunking and staged summarization. The fold is strictly
	// sequential; later chunks depend on the carried summary.
	ratio := chunkRatio(input, c.config)
	chunkBudget := int(float64(c.config.ContextWindow) * ratio)
	chunks := chunkMessages(input, chunkBudget)

	summary := seed
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, newError("summarize", i, err)
		}
		text, err := c.summarize(ctx, summarizationSystemPrompt,
			buildChunkPrompt(summary, renderMessages(chunk)), reserve)
		if err != nil {
			return nil, newError("summarize", i, err)
		}
		summary = text
	}
	if len(chunks) == 0 && summary == "" {
		summary = "No earlier conversation history."
	}

	sections := []string{summary}

	// Split-turn prefix gets its own instructions and a labeled section.
	if req.SplitTurn && len(req.TurnPrefix) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, newError("turn_prefix", -1, err)
		}
		prefix, err := c.summarize(ctx, turnPrefixSystemPrompt,
			buildTurnPrefixPrompt(renderMessages(req.TurnPrefix)), reserve)
		if err != nil {
			return nil, newError("turn_prefix", -1, err)
		}
		sections = append(sections, "## In-progress turn\n"+prefix)
	}

	if len(recent) > 0 {
		sections = append(sections, "## Recent messages (verbatim)\n"+renderMessages(recent))
	}
	if digest := toolFailureDigest(allRequestMessages(req)); digest != "" {
		sections = append(sections, strings.TrimRight(digest, "\n"))
	}
	if files := fileOpsSection(read, modified); files != "" {
		sections = append(sections, strings.TrimRight(files, "\n"))
	}

	composite := strings.Join(sections, "\n\n")

	return &Result{
		Summary:          composite,
		FirstKeptEntryID: req.FirstKeptEntryID,
		TokensBefore:     req.TokensBefore,
		Retained:         recent,
		Details: Details{
			MessagesSummarized: len(input),
			MessagesDropped:    droppedCount,
			Chunks:             len(chunks),
		},
	}, nil
}

// fallbackResult builds the degraded result from local data only.
func (c *Compactor) fallbackResult(req *Request, recent []*types.Message, read, modified []string, cause error) *Result {
	return &Result{
		Summary:          buildFallbackSummary(allRequestMessages(req), req.PreviousSummary, read, modified),
		FirstKeptEntryID: req.FirstKeptEntryID,
		TokensBefore:     req.TokensBefore,
		Retained:         recent,
		Fallback:         true,
		Details: Details{
			Err: cause,
		},
	}
}

// allRequestMessages returns the request's messages including any split
// turn prefix, in order.
func allRequestMessages(req *Request) []*types.Message {
	if len(req.TurnPrefix) == 0 {
		return req.Messages
	}
	all := make([]*types.Message, 0, len(req.Messages)+len(req.TurnPrefix))
	all = append(all, req.Messages...)
	all = append(all, req.TurnPrefix...)
	return all
}
