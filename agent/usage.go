// Copyright (c) Microsoft. All rights reserved.

package agent

// UsageDetails reports token consumption for a model call.
type UsageDetails struct {
	InputTokens  int64 `json:"inputTokenCount,omitempty"`
	OutputTokens int64 `json:"outputTokenCount,omitempty"`
	TotalTokens  int64 `json:"totalTokenCount,omitempty"`
}

// Add accumulates another usage record into u.
func (u *UsageDetails) Add(other UsageDetails) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}
