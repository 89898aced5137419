package mcptools

import "github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/knowledge"

// --- MCP Tool Input Types ---
// The MCP Go SDK derives each tool's JSON schema from these structs.

// JudgeInput is the input for the judge MCP tool.
type JudgeInput struct {
	Context string `json:"context" jsonschema:"the situation in the user's own words (10 to 4000 characters)"`
	Query   string `json:"query" jsonschema:"the question being asked about the situation (5 to 4000 characters)"`
}

// JudgeOutput is the result of the judge MCP tool.
type JudgeOutput struct {
	ID string `json:"id,omitempty"`
	// Result holds a *judgment.Result. It is typed loosely so the SDK's
	// schema inference does not read the result's own schema tags.
	Result     any                 `json:"result"`
	Domains    []string            `json:"domains,omitempty"`
	References []knowledge.Snippet `json:"references,omitempty"`
	Attempts   int                 `json:"attempts"`
}

// GetResultInput is the input for the get_result MCP tool.
type GetResultInput struct {
	ID string `json:"id" jsonschema:"the result ID returned by the judge tool"`
}

// GetResultOutput is the result of the get_result MCP tool.
type GetResultOutput struct {
	ID        string   `json:"id"`
	Context   string   `json:"context"`
	Query     string   `json:"query"`
	Result    any      `json:"result"`
	Domains   []string `json:"domains,omitempty"`
	CreatedAt string   `json:"createdAt"`
	ExpiresAt string   `json:"expiresAt,omitempty"`
}
