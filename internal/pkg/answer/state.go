package answer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ImageOrigin 图片来源
type ImageOrigin string

const (
	// OriginInline 从正文 markdown 中提取的图片
	OriginInline ImageOrigin = "inline"
	// OriginGallery img-meta 事件带来的图库图片
	OriginGallery ImageOrigin = "gallery"
)

// QueryInfo 查询信息
type QueryInfo struct {
	RealQuestion string `json:"real_question"`
	Suggestions  []any  `json:"suggestions"`
	DebugID      string `json:"debug_id"`
	QueryID      string `json:"query_id"`
	Label        string `json:"label"`
}

// FileMeta 引用对应的文件信息(学术/文库类引用才有)
type FileMeta struct {
	FilePath string `json:"file_path"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Type     string `json:"type"`
}

// Reference 引用条目, ID 在一次回答内唯一
type Reference struct {
	ID             string    `json:"id"`
	DisplayID      string    `json:"display_id"`
	Title          string    `json:"title"`
	Link           string    `json:"link"`
	Source         string    `json:"source"`
	Date           string    `json:"date"`
	Author         string    `json:"author"`
	ArticleType    string    `json:"article_type,omitempty"`
	Abstract       string    `json:"abstract"`
	Scholar        bool      `json:"scholar"`
	PublishDate    string    `json:"publish_date,omitempty"`
	MatchedSnippet *string   `json:"matched_snippet"`
	FileMeta       *FileMeta `json:"file_meta"`
}

// Image 图片
type Image struct {
	Name         string      `json:"name"`
	URL          string      `json:"url,omitempty"`
	ThumbnailURL string      `json:"thumbnail_url"`
	Width        int         `json:"width,omitempty"`
	Height       int         `json:"height,omitempty"`
	Caption      string      `json:"caption"`
	Source       string      `json:"source,omitempty"`
	RerankScore  float64     `json:"rerank_score,omitempty"`
	ImageID      string      `json:"image_id,omitempty"`
	Origin       ImageOrigin `json:"origin"`
}

type imageKey struct {
	name  string
	thumb string
}

func (i Image) key() imageKey {
	return imageKey{name: i.Name, thumb: i.ThumbnailURL}
}

var markdownImagePattern = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)

// State 正在构建的回答。只通过 Apply 修改, 不是并发安全的, 由 Capture 串行驱动。
type State struct {
	fragments   []string
	references  []Reference
	images      []Image
	tables      []any
	recommended []any
	highlights  []any
	query       QueryInfo
}

// NewState 创建空状态
func NewState() *State {
	return &State{
		references: make([]Reference, 0),
	}
}

// Apply 把事件应用到状态上。返回值是要推给增量消费者的正文, 其他事件返回空串。
func (s *State) Apply(ev Event) string {
	switch e := ev.(type) {
	case QueryEvent:
		s.query = e.Info
	case AppendTextEvent:
		return s.appendText(e.Text)
	case SetReferenceEvent:
		// 整体替换, 不与旧列表合并
		refs := make([]Reference, len(e.List))
		copy(refs, e.List)
		s.references = refs
	case ImageMetaEvent:
		for _, img := range e.List {
			if IsEncodedContent(img.Caption) {
				img.Caption = ""
			}
			img.Origin = OriginGallery
			s.images = append(s.images, img)
		}
	case RecommendedQuestionEvent:
		s.recommended = append(s.recommended, e.Data...)
	case HighlightsEvent:
		s.highlights = append(s.highlights, e.Data...)
	case UpdateReferenceEvent:
		for _, u := range e.List {
			s.patchReference(u)
		}
	case HeartbeatEvent, UnknownEvent:
	}
	return ""
}

func (s *State) appendText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	s.fragments = append(s.fragments, text)
	for _, m := range markdownImagePattern.FindAllStringSubmatch(text, -1) {
		s.images = append(s.images, Image{
			Name:         m[1],
			ThumbnailURL: m[2],
			Caption:      m[1],
			Origin:       OriginInline,
		})
	}
	return text
}

func (s *State) patchReference(u ReferenceUpdate) {
	for i := range s.references {
		if s.references[i].ID == u.ID {
			s.references[i].MatchedSnippet = u.MatchedSnippet
			return
		}
	}
}

// Content 按到达顺序拼接的原始正文
func (s *State) Content() string {
	return strings.Join(s.fragments, "")
}

// References 当前引用列表的副本
func (s *State) References() []Reference {
	out := make([]Reference, len(s.references))
	for i, ref := range s.references {
		if ref.MatchedSnippet != nil {
			snippet := *ref.MatchedSnippet
			ref.MatchedSnippet = &snippet
		}
		if ref.FileMeta != nil {
			fm := *ref.FileMeta
			ref.FileMeta = &fm
		}
		out[i] = ref
	}
	return out
}

// Images 图片列表的副本, 正文图片与图库图片按到达顺序混排
func (s *State) Images() []Image {
	return append(make([]Image, 0, len(s.images)), s.images...)
}

// Tables 表格数据, 目前服务端不下发, 恒为空
func (s *State) Tables() []any {
	return append(make([]any, 0, len(s.tables)), s.tables...)
}

func (s *State) RecommendedQuestions() []any {
	return append(make([]any, 0, len(s.recommended)), s.recommended...)
}

func (s *State) Highlights() []any {
	return append(make([]any, 0, len(s.highlights)), s.highlights...)
}

func (s *State) QueryInfo() QueryInfo {
	q := s.query
	if q.Suggestions != nil {
		q.Suggestions = append([]any(nil), q.Suggestions...)
	}
	return q
}

// Snapshot 结构化结果
type Snapshot struct {
	Content              string      `json:"content"`
	References           []Reference `json:"references"`
	Images               []Image     `json:"images"`
	Tables               []any       `json:"tables"`
	RecommendedQuestions []any       `json:"recommended_questions"`
	Highlights           []any       `json:"highlights"`
	QueryInfo            QueryInfo   `json:"query_info"`
	Markdown             string      `json:"markdown"`
}

// Snapshot 生成当前状态的只读副本
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Content:              s.Content(),
		References:           s.References(),
		Images:               s.Images(),
		Tables:               s.Tables(),
		RecommendedQuestions: s.RecommendedQuestions(),
		Highlights:           s.Highlights(),
		QueryInfo:            s.QueryInfo(),
		Markdown:             Render(s),
	}
}

// IsEncodedContent 判断图片说明是不是 base64 一类的编码噪声。
// 规则: 超过 200 字符; 或 "+/=" 占比超过 10%; 或全 ASCII 且 [A-Za-z0-9+/=] 占比超过 90%。
// 纯英文单词的短说明也会命中第三条, 这是启发式规则的已知代价。
func IsEncodedContent(text string) bool {
	if text == "" {
		return false
	}
	n := utf8.RuneCountInString(text)
	if n > 200 {
		return true
	}

	special, base64ish, ascii := 0, 0, true
	for _, r := range text {
		switch {
		case r == '+' || r == '/' || r == '=':
			special++
			base64ish++
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			base64ish++
		}
		if r >= utf8.RuneSelf {
			ascii = false
		}
	}
	if float64(special) > float64(n)*0.1 {
		return true
	}
	return ascii && float64(base64ish) > float64(n)*0.9
}
