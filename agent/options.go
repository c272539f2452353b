// Copyright (c) Microsoft. All rights reserved.

package agent

// ToolChoice controls how the model selects tools.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceRequired ToolChoice = "required"
	ToolChoiceNone     ToolChoice = "none"
)

// ToolChoiceFunction returns a ToolChoice that forces the model to call
// the named function.
func ToolChoiceFunction(name string) ToolChoice {
	return ToolChoice("function:" + name)
}

// ChatOptions configures a single chat completion request.
// Pointer fields use nil to represent "unset" (use provider default).
type ChatOptions struct {
	ModelID      string
	Temperature  *float64
	TopP         *float64
	MaxTokens    *int
	Stop         []string
	Seed         *int
	Tools        []Tool
	ToolChoice   ToolChoice
	Metadata     map[string]string
	User         string
	Instructions string
}

// MergeChatOptions produces a new ChatOptions by overlaying override values
// onto base. Nil or zero-value fields in override do not overwrite base.
// Tools are merged by name (override replaces same-named tools).
// Metadata is merged (override keys win). Instructions are concatenated.
func MergeChatOptions(base, override *ChatOptions) *ChatOptions {
	if base == nil {
		if override == nil {
			return &ChatOptions{}
		}
		cp := *override
		return &cp
	}
	if override == nil {
		cp := *base
		return &cp
	}

	merged := *base

	if override.ModelID != "" {
		merged.ModelID = override.ModelID
	}
	if override.Temperature != nil {
		merged.Temperature = override.Temperature
	}
	if override.TopP != nil {
		merged.TopP = override.TopP
	}
	if override.MaxTokens != nil {
		merged.MaxTokens = override.MaxTokens
	}
	if len(override.Stop) > 0 {
		merged.Stop = override.Stop
	}
	if override.Seed != nil {
		merged.Seed = override.Seed
	}
	if override.ToolChoice != "" {
		merged.ToolChoice = override.ToolChoice
	}
	if override.User != "" {
		merged.User = override.User
	}

	// Instructions: concatenate
	if override.Instructions != "" {
		if merged.Instructions != "" {
			merged.Instructions += "\n" + override.Instructions
		} else {
			merged.Instructions = override.Instructions
		}
	}

	// Tools: merge by name, base order first
	if len(override.Tools) > 0 {
		replace := make(map[string]Tool, len(override.Tools))
		for _, t := range override.Tools {
			replace[t.Name()] = t
		}
		tools := make([]Tool, 0, len(merged.Tools)+len(override.Tools))
		seen := make(map[string]bool, len(merged.Tools))
		for _, t := range merged.Tools {
			if r, ok := replace[t.Name()]; ok {
				t = r
			}
			tools = append(tools, t)
			seen[t.Name()] = true
		}
		for _, t := range override.Tools {
			if !seen[t.Name()] {
				tools = append(tools, t)
			}
		}
		merged.Tools = tools
	}

	// Metadata: merge into a fresh map so base is left untouched
	if len(override.Metadata) > 0 {
		md := make(map[string]string, len(base.Metadata)+len(override.Metadata))
		for k, v := range base.Metadata {
			md[k] = v
		}
		for k, v := range override.Metadata {
			md[k] = v
		}
		merged.Metadata = md
	}

	return &merged
}
