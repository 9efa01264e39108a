package models

import "search-server/internal/pkg/answer"

// SearchMeta 请求元信息
type SearchMeta struct {
	Model          string `json:"model"`
	ConversationID string `json:"conversation_id"`
	Query          string `json:"query"`
	Timestamp      int64  `json:"timestamp"`
}

// SearchResult 阻塞模式的完整结果
type SearchResult struct {
	answer.Snapshot
	Meta SearchMeta `json:"meta"`
}

// ReferenceItems 转成推送用的引用列表
func ReferenceItems(refs []answer.Reference) []ReferenceItem {
	items := make([]ReferenceItem, 0, len(refs))
	for _, ref := range refs {
		item := ReferenceItem{
			ID:      ref.ID,
			Display: ReferenceDisplay{ReferID: ref.DisplayID},
			Title:   ref.Title,
			Link:    ref.Link,
			Source:  ref.Source,
			Date:    ref.Date,
		}
		if ref.FileMeta != nil {
			item.FileMeta = &FileMeta{Type: ref.FileMeta.Type, URL: ref.FileMeta.URL}
		}
		items = append(items, item)
	}
	return items
}
