package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Tags(t *testing.T) {
	tests := []struct {
		payload string
		want    EventType
	}{
		{`{"type":"query","realQuestion":"q"}`, EventTypeQuery},
		{`{"type":"append-text","text":"hi"}`, EventTypeAppendText},
		{`{"type":"set-reference","list":[]}`, EventTypeSetReference},
		{`{"type":"img-meta","list":[]}`, EventTypeImageMeta},
		{`{"type":"recommended-question","data":["a"]}`, EventTypeRecommendedQuestion},
		{`{"type":"answer-link-num-highlights","data":[1]}`, EventTypeHighlights},
		{`{"type":"update-reference","list":[]}`, EventTypeUpdateReference},
		{`{"type":"heartbeat"}`, EventTypeHeartbeat},
		{`{"type":"something-new","x":1}`, EventTypeUnknown},
		{`{"text":"no tag"}`, EventTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.payload).Type())
		})
	}
}

func TestClassify_Malformed(t *testing.T) {
	for _, payload := range []string{`{"type":`, `not json`, `[1,2]`, `"append-text"`} {
		ev, ok := Classify(payload).(UnknownEvent)
		require.True(t, ok, payload)
		assert.ErrorIs(t, ev.Err, errMalformedFrame, payload)
	}
}

func TestClassify_UnknownTagIsNotAnError(t *testing.T) {
	ev, ok := Classify(`{"type":"future-event"}`).(UnknownEvent)
	require.True(t, ok)
	assert.NoError(t, ev.Err)
	assert.Equal(t, "future-event", ev.Tag)
}

func TestClassify_Query(t *testing.T) {
	ev := Classify(`{"type":"query","realQuestion":"rq","data":["s1","s2"],"debugId":"d","id":"qid","label":"L"}`)
	q, ok := ev.(QueryEvent)
	require.True(t, ok)
	assert.Equal(t, QueryInfo{
		RealQuestion: "rq",
		Suggestions:  []any{"s1", "s2"},
		DebugID:      "d",
		QueryID:      "qid",
		Label:        "L",
	}, q.Info)
}

func TestClassify_SetReference(t *testing.T) {
	ev := Classify(`{"type":"set-reference","list":[
		{"id":7,"display":{"refer_id":2},"title":"T","link":"L","displaySource":"S","date":"2024-01-01",
		 "author":"A","abstract":"Ab","scholar":true,"article_type":"journal","publish_date":"2023",
		 "file_meta":{"file_path":"/p","source":"src","url":"u","type":"pdf"}},
		{"id":"8","title":"no display"}]}`)
	set, ok := ev.(SetReferenceEvent)
	require.True(t, ok)
	require.Len(t, set.List, 2)

	ref := set.List[0]
	assert.Equal(t, "7", ref.ID)
	assert.Equal(t, "2", ref.DisplayID)
	assert.Equal(t, "T", ref.Title)
	assert.Equal(t, "L", ref.Link)
	assert.Equal(t, "S", ref.Source)
	assert.Equal(t, "2024-01-01", ref.Date)
	assert.Equal(t, "A", ref.Author)
	assert.Equal(t, "Ab", ref.Abstract)
	assert.True(t, ref.Scholar)
	assert.Equal(t, "journal", ref.ArticleType)
	assert.Equal(t, "2023", ref.PublishDate)
	assert.Nil(t, ref.MatchedSnippet)
	require.NotNil(t, ref.FileMeta)
	assert.Equal(t, FileMeta{FilePath: "/p", Source: "src", URL: "u", Type: "pdf"}, *ref.FileMeta)

	assert.Equal(t, "8", set.List[1].ID)
	assert.Empty(t, set.List[1].DisplayID)
	assert.Nil(t, set.List[1].FileMeta)
}

func TestClassify_ImageMeta(t *testing.T) {
	ev := Classify(`{"type":"img-meta","list":[{"name":"n","contentUrl":"c","thumbnailUrl":"t","width":640,"height":480,
		"caption":"cap","hostPageDisplayUrl":"h","rerank_score":0.5,"image_id":"i"}]}`)
	meta, ok := ev.(ImageMetaEvent)
	require.True(t, ok)
	require.Len(t, meta.List, 1)
	assert.Equal(t, Image{
		Name:         "n",
		URL:          "c",
		ThumbnailURL: "t",
		Width:        640,
		Height:       480,
		Caption:      "cap",
		Source:       "h",
		RerankScore:  0.5,
		ImageID:      "i",
		Origin:       OriginGallery,
	}, meta.List[0])
}

func TestClassify_UpdateReference(t *testing.T) {
	ev := Classify(`{"type":"update-reference","list":[{"id":1,"matched_snippet":"S"},{"id":2,"matched_snippet":null},{"id":3}]}`)
	upd, ok := ev.(UpdateReferenceEvent)
	require.True(t, ok)
	require.Len(t, upd.List, 3)

	require.NotNil(t, upd.List[0].MatchedSnippet)
	assert.Equal(t, "S", *upd.List[0].MatchedSnippet)
	assert.Nil(t, upd.List[1].MatchedSnippet)
	assert.Nil(t, upd.List[2].MatchedSnippet)
}
