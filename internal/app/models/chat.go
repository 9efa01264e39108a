package models

// SearchRequest 流式搜索请求
type SearchRequest struct {
	Query   string `form:"q" json:"query" binding:"required"`
	Mode    string `form:"mode" json:"mode"`
	Scholar bool   `form:"scholar" json:"scholar"`
}

// ToolCallRequest 工具调用
type ToolCallRequest struct {
	Name      string         `json:"name" binding:"required"`
	Arguments map[string]any `json:"arguments"`
}

// HistoryQuery 历史记录分页
type HistoryQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}
