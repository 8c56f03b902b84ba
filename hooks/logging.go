package hooks

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/youssefsiam38/agentloop/compaction"
	"github.com/youssefsiam38/agentloop/types"
)

// LoggingHooks provides built-in structured-logging hooks for observability
type LoggingHooks struct {
	logger *slog.Logger
}

// NewLoggingHooks creates logging hooks with the provided logger
func NewLoggingHooks(logger *slog.Logger) *LoggingHooks {
	return &LoggingHooks{logger: logger}
}

// DefaultLoggingHooks creates logging hooks with the default slog logger
func DefaultLoggingHooks() *LoggingHooks {
	return &LoggingHooks{logger: slog.Default()}
}

// Register attaches all logging hooks to a registry
func (h *LoggingHooks) Register(r *Registry) {
	r.OnBeforeTurn(h.BeforeTurn)
	r.OnAfterTurn(h.AfterTurn)
	r.OnToolCall(h.ToolCall)
	r.OnBeforeCompaction(h.BeforeCompaction)
	r.OnAfterCompaction(h.AfterCompaction)
}

// BeforeTurn logs before each completion call
func (h *LoggingHooks) BeforeTurn(ctx context.Context, messages []*types.Message) error {
	h.logger.Debug("sending history to completion provider", "messages", len(messages))
	return nil
}

// AfterTurn logs the completion's stop reason
func (h *LoggingHooks) AfterTurn(ctx context.Context, message *types.Message, stopReason string) error {
	h.logger.Debug("completion received", "stop_reason", stopReason)
	return nil
}

// ToolCall logs tool execution
func (h *LoggingHooks) ToolCall(ctx context.Context, toolName string, input json.RawMessage, output string, err error) error {
	if err != nil {
		h.logger.Warn("tool failed", "tool", toolName, "error", err)
		return nil
	}
	preview := output
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	h.logger.Debug("tool succeeded", "tool", toolName, "output", preview)
	return nil
}

// BeforeCompaction logs before context compaction
func (h *LoggingHooks) BeforeCompaction(ctx context.Context, req *compaction.Request) error {
	h.logger.Info("starting compaction",
		"messages", len(req.Messages),
		"tokens_before", req.TokensBefore)
	return nil
}

// AfterCompaction logs compaction results
func (h *LoggingHooks) AfterCompaction(ctx context.Context, result *compaction.Result) error {
	h.logger.Info("compaction complete",
		"fallback", result.Fallback,
		"summarized", result.Details.MessagesSummarized,
		"retained", result.Details.MessagesRetained,
		"dropped", result.Details.MessagesDropped,
		"duration", result.Details.Duration)
	return nil
}

// MetricsHooks collects metrics for monitoring
type MetricsHooks struct {
	OnMetric func(name string, value float64, tags map[string]string)
}

// NewMetricsHooks creates metrics collection hooks
func NewMetricsHooks(onMetric func(string, float64, map[string]string)) *MetricsHooks {
	return &MetricsHooks{OnMetric: onMetric}
}

// Register attaches all metrics hooks to a registry
func (h *MetricsHooks) Register(r *Registry) {
	r.OnAfterTurn(h.AfterTurn)
	r.OnToolCall(h.ToolCall)
	r.OnAfterCompaction(h.AfterCompaction)
}

// AfterTurn records turn metrics
func (h *MetricsHooks) AfterTurn(ctx context.Context, message *types.Message, stopReason string) error {
	h.OnMetric("agent.turn", 1, map[string]string{"stop_reason": stopReason})
	if message != nil && message.Usage != nil {
		h.OnMetric("agent.tokens.input", float64(message.Usage.InputTokens), nil)
		h.OnMetric("agent.tokens.output", float64(message.Usage.OutputTokens), nil)
	}
	return nil
}

// ToolCall records tool execution metrics
func (h *MetricsHooks) ToolCall(ctx context.Context, toolName string, input json.RawMessage, output string, err error) error {
	tags := map[string]string{"tool": toolName}
	if err != nil {
		h.OnMetric("agent.tool.error", 1, tags)
	} else {
		h.OnMetric("agent.tool.success", 1, tags)
	}
	return nil
}

// AfterCompaction records compaction metrics
func (h *MetricsHooks) AfterCompaction(ctx context.Context, result *compaction.Result) error {
	h.OnMetric("agent.compaction.messages_summarized", float64(result.Details.MessagesSummarized), nil)
	if result.Fallback {
		h.OnMetric("agent.compaction.fallback", 1, nil)
	}
	return nil
}
