package answer

import (
	"errors"

	"github.com/tidwall/gjson"
)

// EventType 事件种类
type EventType int

const (
	EventTypeUnknown EventType = iota
	EventTypeQuery
	EventTypeAppendText
	EventTypeSetReference
	EventTypeImageMeta
	EventTypeRecommendedQuestion
	EventTypeHighlights
	EventTypeUpdateReference
	EventTypeHeartbeat
)

// 帧里 type 字段的取值
const (
	TagQuery               = "query"
	TagAppendText          = "append-text"
	TagSetReference        = "set-reference"
	TagImageMeta           = "img-meta"
	TagRecommendedQuestion = "recommended-question"
	TagHighlights          = "answer-link-num-highlights"
	TagUpdateReference     = "update-reference"
	TagHeartbeat           = "heartbeat"
)

var errMalformedFrame = errors.New("malformed frame payload")

// Event 帧解析后的事件, 只能是本文件定义的几种
type Event interface {
	Type() EventType
	isEvent()
}

// QueryEvent 查询改写信息, 整体覆盖
type QueryEvent struct {
	Info QueryInfo
}

// AppendTextEvent 答案正文增量
type AppendTextEvent struct {
	Text string
}

// SetReferenceEvent 整体替换引用列表
type SetReferenceEvent struct {
	List []Reference
}

// ImageMetaEvent 图库图片
type ImageMetaEvent struct {
	List []Image
}

// RecommendedQuestionEvent 推荐追问
type RecommendedQuestionEvent struct {
	Data []any
}

// HighlightsEvent 高亮标记
type HighlightsEvent struct {
	Data []any
}

// ReferenceUpdate 按 id 补丁引用的命中片段
type ReferenceUpdate struct {
	ID             string
	MatchedSnippet *string
}

// UpdateReferenceEvent 引用补丁
type UpdateReferenceEvent struct {
	List []ReferenceUpdate
}

// HeartbeatEvent 心跳
type HeartbeatEvent struct{}

// UnknownEvent 无法识别或无法解析的帧。Err 非空表示解析失败。
type UnknownEvent struct {
	Tag string
	Err error
}

func (QueryEvent) Type() EventType               { return EventTypeQuery }
func (AppendTextEvent) Type() EventType          { return EventTypeAppendText }
func (SetReferenceEvent) Type() EventType        { return EventTypeSetReference }
func (ImageMetaEvent) Type() EventType           { return EventTypeImageMeta }
func (RecommendedQuestionEvent) Type() EventType { return EventTypeRecommendedQuestion }
func (HighlightsEvent) Type() EventType          { return EventTypeHighlights }
func (UpdateReferenceEvent) Type() EventType     { return EventTypeUpdateReference }
func (HeartbeatEvent) Type() EventType           { return EventTypeHeartbeat }
func (UnknownEvent) Type() EventType             { return EventTypeUnknown }

func (QueryEvent) isEvent()               {}
func (AppendTextEvent) isEvent()          {}
func (SetReferenceEvent) isEvent()        {}
func (ImageMetaEvent) isEvent()           {}
func (RecommendedQuestionEvent) isEvent() {}
func (HighlightsEvent) isEvent()          {}
func (UpdateReferenceEvent) isEvent()     {}
func (HeartbeatEvent) isEvent()           {}
func (UnknownEvent) isEvent()             {}

// Classify 解析一帧的载荷。解析失败返回带 Err 的 UnknownEvent, 从不返回错误。
func Classify(payload string) Event {
	if !gjson.Valid(payload) {
		return UnknownEvent{Err: errMalformedFrame}
	}
	root := gjson.Parse(payload)
	if !root.IsObject() {
		return UnknownEvent{Err: errMalformedFrame}
	}

	tag := root.Get("type").String()
	switch tag {
	case TagQuery:
		return QueryEvent{Info: parseQueryInfo(root)}
	case TagAppendText:
		return AppendTextEvent{Text: root.Get("text").String()}
	case TagSetReference:
		return SetReferenceEvent{List: parseReferences(root.Get("list"))}
	case TagImageMeta:
		return ImageMetaEvent{List: parseImages(root.Get("list"))}
	case TagRecommendedQuestion:
		return RecommendedQuestionEvent{Data: values(root.Get("data"))}
	case TagHighlights:
		return HighlightsEvent{Data: values(root.Get("data"))}
	case TagUpdateReference:
		return UpdateReferenceEvent{List: parseUpdates(root.Get("list"))}
	case TagHeartbeat:
		return HeartbeatEvent{}
	default:
		return UnknownEvent{Tag: tag}
	}
}

func parseQueryInfo(root gjson.Result) QueryInfo {
	return QueryInfo{
		RealQuestion: root.Get("realQuestion").String(),
		Suggestions:  values(root.Get("data")),
		DebugID:      root.Get("debugId").String(),
		QueryID:      root.Get("id").String(),
		Label:        root.Get("label").String(),
	}
}

func parseReferences(list gjson.Result) []Reference {
	refs := make([]Reference, 0)
	list.ForEach(func(_, item gjson.Result) bool {
		ref := Reference{
			ID:          item.Get("id").String(),
			DisplayID:   item.Get("display.refer_id").String(),
			Title:       item.Get("title").String(),
			Link:        item.Get("link").String(),
			Source:      item.Get("displaySource").String(),
			Date:        item.Get("date").String(),
			Author:      item.Get("author").String(),
			ArticleType: item.Get("article_type").String(),
			Abstract:    item.Get("abstract").String(),
			Scholar:     item.Get("scholar").Bool(),
			PublishDate: item.Get("publish_date").String(),
		}
		if fm := item.Get("file_meta"); fm.IsObject() {
			ref.FileMeta = &FileMeta{
				FilePath: fm.Get("file_path").String(),
				Source:   fm.Get("source").String(),
				URL:      fm.Get("url").String(),
				Type:     fm.Get("type").String(),
			}
		}
		refs = append(refs, ref)
		return true
	})
	return refs
}

func parseImages(list gjson.Result) []Image {
	var images []Image
	list.ForEach(func(_, item gjson.Result) bool {
		images = append(images, Image{
			Name:         item.Get("name").String(),
			URL:          item.Get("contentUrl").String(),
			ThumbnailURL: item.Get("thumbnailUrl").String(),
			Width:        int(item.Get("width").Int()),
			Height:       int(item.Get("height").Int()),
			Caption:      item.Get("caption").String(),
			Source:       item.Get("hostPageDisplayUrl").String(),
			RerankScore:  item.Get("rerank_score").Float(),
			ImageID:      item.Get("image_id").String(),
			Origin:       OriginGallery,
		})
		return true
	})
	return images
}

func parseUpdates(list gjson.Result) []ReferenceUpdate {
	var updates []ReferenceUpdate
	list.ForEach(func(_, item gjson.Result) bool {
		u := ReferenceUpdate{ID: item.Get("id").String()}
		if s := item.Get("matched_snippet"); s.Exists() && s.Type != gjson.Null {
			snippet := s.String()
			u.MatchedSnippet = &snippet
		}
		updates = append(updates, u)
		return true
	})
	return updates
}

func values(arr gjson.Result) []any {
	if !arr.IsArray() {
		return nil
	}
	var out []any
	for _, v := range arr.Array() {
		out = append(out, v.Value())
	}
	return out
}
