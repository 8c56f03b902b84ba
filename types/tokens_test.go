package types

import (
	"encoding/json"
	"testing"
)

func TestApproximateTokens(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"hi", 0},
		{"hello world", 3}, // 11 chars
		{string(make([]byte, 350)), 100},
	}
	for _, tt := range tests {
		if got := ApproximateTokens(tt.content); got != tt.want {
			t.Errorf("ApproximateTokens(%d chars) = %d, want %d", len(tt.content), got, tt.want)
		}
	}
}

func TestEstimateMessageTokens(t *testing.T) {
	msg := &Message{
		Role: RoleAssistant,
		Content: []ContentBlock{
			{Type: ContentTypeText, Text: string(make([]byte, 35))},
			{Type: ContentTypeToolUse, ToolUseID: "call_1", ToolName: "read_file", ToolInputRaw: json.RawMessage(`{"path":"a"}`)},
		},
	}
	// 10 text tokens + 3 input tokens + 10 tool overhead + 4 message overhead
	if got := EstimateMessageTokens(msg); got != 27 {
		t.Errorf("EstimateMessageTokens() = %d, want 27", got)
	}

	image := &Message{
		Role:    RoleUser,
		Content: []ContentBlock{{Type: ContentTypeImage, ImageSource: &ImageSource{Type: "base64"}}},
	}
	if got := EstimateMessageTokens(image); got != 1604 {
		t.Errorf("EstimateMessageTokens(image) = %d, want 1604", got)
	}
}

func TestTokenCountPrefersUsage(t *testing.T) {
	msg := NewUserMessage(string(make([]byte, 3500)))
	if got := msg.TokenCount(); got != 1004 {
		t.Errorf("TokenCount() estimate = %d, want 1004", got)
	}

	msg.Usage = &Usage{InputTokens: 120, OutputTokens: 30}
	if got := msg.TokenCount(); got != 150 {
		t.Errorf("TokenCount() with usage = %d, want 150", got)
	}
}

func TestSumTokens(t *testing.T) {
	messages := []*Message{
		NewUserMessage(string(make([]byte, 35))),
		NewUserMessage(string(make([]byte, 70))),
	}
	// (10+4) + (20+4)
	if got := SumTokens(messages); got != 38 {
		t.Errorf("SumTokens() = %d, want 38", got)
	}
}

func TestUsageAdd(t *testing.T) {
	u := &Usage{InputTokens: 10, OutputTokens: 5}
	u.Add(&Usage{InputTokens: 3, OutputTokens: 2, CacheReadTokens: 7})
	u.Add(nil)
	if u.InputTokens != 13 || u.OutputTokens != 7 || u.CacheReadTokens != 7 {
		t.Errorf("Add() = %+v", *u)
	}
}
