package models

// 流式搜索推送给调用方的事件, 与秘塔原始帧同形, 客户端可以复用同一套解析

// AppendTextEvent 正文增量
type AppendTextEvent struct {
	Text string `json:"text"`
}

// QueryEvent 会话建立后推送一次
type QueryEvent struct {
	Data           []string `json:"data"`
	ConversationID string   `json:"conversationId"`
}

// HeartbeatEvent 无字段
type HeartbeatEvent struct{}

// SetReferenceEvent 结束前推送完整引用列表
type SetReferenceEvent struct {
	ResultID string          `json:"resultId"`
	List     []ReferenceItem `json:"list"`
}

// ErrorEvent 流中途失败
type ErrorEvent struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type ReferenceItem struct {
	ID       string           `json:"id"`
	Display  ReferenceDisplay `json:"display"`
	Title    string           `json:"title"`
	Link     string           `json:"link"`
	Source   string           `json:"displaySource"`
	Date     string           `json:"date"`
	FileMeta *FileMeta        `json:"file_meta,omitempty"`
}

type ReferenceDisplay struct {
	ReferID string `json:"refer_id"`
}

type FileMeta struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}
