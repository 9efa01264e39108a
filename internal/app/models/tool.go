package models

// Tool 暴露给调用方的工具描述
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ToolResult 工具调用结果, 只有文本
type ToolResult struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func TextResult(text string) ToolResult {
	return ToolResult{Type: "text", Text: text}
}
