package answer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyAll(s *State, payloads ...string) {
	for _, p := range payloads {
		s.Apply(Classify(p))
	}
}

func TestState_EndToEnd(t *testing.T) {
	s := NewState()
	applyAll(s,
		`{"type":"append-text","text":"Hello "}`,
		`{"type":"append-text","text":"World"}`,
		`{"type":"set-reference","list":[{"id":1,"display":{"refer_id":1},"title":"T","link":"L"}]}`,
		`{"type":"append-text","text":"[[1]]"}`,
	)

	assert.Equal(t, "Hello World[1]", Render(s))
	refs := s.References()
	require.Len(t, refs, 1)
	assert.Equal(t, "1", refs[0].ID)
	assert.Equal(t, "T", refs[0].Title)
	assert.Equal(t, "L", refs[0].Link)

	applyAll(s, `{"type":"update-reference","list":[{"id":1,"matched_snippet":"S"}]}`)
	refs = s.References()
	require.Len(t, refs, 1)
	require.NotNil(t, refs[0].MatchedSnippet)
	assert.Equal(t, "S", *refs[0].MatchedSnippet)
	assert.Equal(t, "T", refs[0].Title)
	assert.Equal(t, "L", refs[0].Link)
}

func TestState_SetReferenceReplaces(t *testing.T) {
	s := NewState()
	applyAll(s,
		`{"type":"set-reference","list":[{"id":1,"title":"a"},{"id":2,"title":"b"}]}`,
		`{"type":"set-reference","list":[{"id":3,"title":"c"}]}`,
	)

	refs := s.References()
	require.Len(t, refs, 1)
	assert.Equal(t, "3", refs[0].ID)
	for _, ref := range refs {
		assert.NotEqual(t, "1", ref.ID)
		assert.NotEqual(t, "2", ref.ID)
	}
}

func TestState_UpdateReferenceUnknownID(t *testing.T) {
	s := NewState()
	applyAll(s,
		`{"type":"set-reference","list":[{"id":1,"title":"a"}]}`,
		`{"type":"update-reference","list":[{"id":9,"matched_snippet":"x"}]}`,
	)
	refs := s.References()
	require.Len(t, refs, 1)
	assert.Nil(t, refs[0].MatchedSnippet)
}

func TestState_AppendTextSkipsBlank(t *testing.T) {
	s := NewState()
	assert.Equal(t, "", s.Apply(AppendTextEvent{Text: "  \n\t"}))
	assert.Equal(t, "", s.Apply(AppendTextEvent{}))
	assert.Equal(t, " a ", s.Apply(AppendTextEvent{Text: " a "}))
	assert.Equal(t, " a ", s.Content())
}

func TestState_OtherEventsProduceNoDelta(t *testing.T) {
	s := NewState()
	for _, ev := range []Event{
		QueryEvent{Info: QueryInfo{RealQuestion: "q"}},
		SetReferenceEvent{},
		ImageMetaEvent{},
		RecommendedQuestionEvent{Data: []any{"x"}},
		HighlightsEvent{Data: []any{1.0}},
		UpdateReferenceEvent{},
		HeartbeatEvent{},
		UnknownEvent{Tag: "x"},
	} {
		assert.Empty(t, s.Apply(ev), "%T", ev)
	}
	assert.Equal(t, []any{"x"}, s.RecommendedQuestions())
	assert.Equal(t, []any{1.0}, s.Highlights())
	assert.Equal(t, "q", s.QueryInfo().RealQuestion)
	assert.Empty(t, s.Tables())
}

func TestState_QueryOverwrites(t *testing.T) {
	s := NewState()
	applyAll(s,
		`{"type":"query","realQuestion":"first","data":["a"],"debugId":"d1"}`,
		`{"type":"query","realQuestion":"second"}`,
	)
	q := s.QueryInfo()
	assert.Equal(t, "second", q.RealQuestion)
	assert.Empty(t, q.DebugID)
	assert.Empty(t, q.Suggestions)
}

func TestState_InlineImages(t *testing.T) {
	s := NewState()
	s.Apply(AppendTextEvent{Text: "看图 ![湖](https://img/a.png) 和 ![](https://img/b.png)"})

	imgs := s.Images()
	require.Len(t, imgs, 2)
	assert.Equal(t, Image{Name: "湖", ThumbnailURL: "https://img/a.png", Caption: "湖", Origin: OriginInline}, imgs[0])
	assert.Equal(t, OriginInline, imgs[1].Origin)
	assert.Equal(t, "https://img/b.png", imgs[1].ThumbnailURL)
}

func TestState_CaptionFiltering(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/="
	var b strings.Builder
	for i := 0; b.Len() < 250; i++ {
		b.WriteByte(alphabet[i%len(alphabet)])
	}
	garbled := b.String()
	require.Len(t, garbled, 250)

	s := NewState()
	s.Apply(ImageMetaEvent{List: []Image{
		{Name: "a", ThumbnailURL: "t1", Caption: garbled},
		{Name: "b", ThumbnailURL: "t2", Caption: "西湖夕阳"},
	}})

	imgs := s.Images()
	require.Len(t, imgs, 2)
	assert.Empty(t, imgs[0].Caption)
	assert.Equal(t, "西湖夕阳", imgs[1].Caption)
	assert.Equal(t, OriginGallery, imgs[0].Origin)
}

func TestIsEncodedContent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", false},
		{"chinese", "西湖夕阳", false},
		{"sentence", "A sunset over the lake", false},
		{"too long", strings.Repeat("湖", 201), true},
		{"many specials", "ab/c=d+e", true},
		{"base64ish ascii", "aGVsbG8gd29ybGQK", true},
		{"mixed chinese with slash", "西湖/夕阳的美景很好看啊呀", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEncodedContent(tt.text))
		})
	}
}

func TestState_AccessorsReturnCopies(t *testing.T) {
	s := NewState()
	applyAll(s,
		`{"type":"set-reference","list":[{"id":1,"title":"a","file_meta":{"url":"u"}}]}`,
		`{"type":"update-reference","list":[{"id":1,"matched_snippet":"S"}]}`,
	)

	refs := s.References()
	refs[0].Title = "changed"
	*refs[0].MatchedSnippet = "changed"
	refs[0].FileMeta.URL = "changed"

	again := s.References()
	assert.Equal(t, "a", again[0].Title)
	assert.Equal(t, "S", *again[0].MatchedSnippet)
	assert.Equal(t, "u", again[0].FileMeta.URL)
}
