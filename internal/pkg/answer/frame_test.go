package answer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStream = `data:{"type":"query","realQuestion":"杭州 天气","data":["明天呢"],"debugId":"dbg-1","id":"q1"}

data:{"type":"append-text","text":"Hello "}

data:{"type":"heartbeat"}

data:{"type":"append-text","text":"World"}

data:{"type":"set-reference","list":[{"id":1,"display":{"refer_id":1},"title":"T","link":"L"}]}

data:{"type":"img-meta","list":[{"name":"西湖","thumbnailUrl":"https://img/1.jpg","caption":"西湖夕阳"}]}

data:{"type":"append-text","text":"[[1]]"}

data:{"type":"update-reference","list":[{"id":1,"matched_snippet":"S"}]}

data:[DONE]
`

// decodeChunks 按给定切分喂入解码器, 返回全部帧
func decodeChunks(chunks [][]byte) []string {
	var d FrameDecoder
	var frames []string
	for _, c := range chunks {
		frames = append(frames, d.Ingest(c)...)
	}
	if last, ok := d.Finalize(); ok {
		frames = append(frames, last)
	}
	return frames
}

func buildState(frames []string) *State {
	s := NewState()
	for _, f := range frames {
		s.Apply(Classify(f))
	}
	return s
}

func TestFrameDecoder_SplitsFrames(t *testing.T) {
	var d FrameDecoder
	frames := d.Ingest([]byte("data:{\"a\":1}\n\ndata:{\"b\":2}\n\ndata:{\"c\""))
	assert.Equal(t, []string{`{"a":1}`, `{"b":2}`}, frames)
	assert.Equal(t, len(`data:{"c"`), d.Buffered())

	frames = d.Ingest([]byte(":3}\n\n"))
	assert.Empty(t, frames)

	last, ok := d.Finalize()
	require.True(t, ok)
	assert.Equal(t, `{"c":3}`, last)
	assert.Zero(t, d.Buffered())
}

func TestFrameDecoder_DropsEmptyAndSentinel(t *testing.T) {
	frames := decodeChunks([][]byte{[]byte("data:\n\ndata:   \n\ndata:[DONE]\n\ndata:{\"x\":1}\n\ndata:[DONE]")})
	assert.Equal(t, []string{`{"x":1}`}, frames)
}

func TestFrameDecoder_FinalizeEmpty(t *testing.T) {
	var d FrameDecoder
	_, ok := d.Finalize()
	assert.False(t, ok)

	d.Ingest([]byte("data:  \n"))
	_, ok = d.Finalize()
	assert.False(t, ok)
}

func TestFrameDecoder_SingleFrameWaitsForFinalize(t *testing.T) {
	var d FrameDecoder
	assert.Empty(t, d.Ingest([]byte(`data:{"type":"append-text","text":"x"}`)))

	last, ok := d.Finalize()
	require.True(t, ok)
	assert.Equal(t, `{"type":"append-text","text":"x"}`, last)
}

func TestFrameDecoder_ChunkBoundaryInvariance(t *testing.T) {
	raw := []byte(sampleStream)
	want := decodeChunks([][]byte{raw})
	require.Len(t, want, 8)
	wantState := buildState(want).Snapshot()

	// 单点切分
	for i := 0; i <= len(raw); i++ {
		got := decodeChunks([][]byte{raw[:i], raw[i:]})
		require.Equal(t, want, got, "cut at %d", i)
	}

	// 任意两点切分, 逐个比较最终状态
	for i := 0; i <= len(raw); i++ {
		for j := i; j <= len(raw); j++ {
			got := decodeChunks([][]byte{raw[:i], raw[i:j], raw[j:]})
			if !assert.Equal(t, want, got, "cuts at %d,%d", i, j) {
				return
			}
		}
	}

	// 逐字节到达
	var single [][]byte
	for i := range raw {
		single = append(single, raw[i:i+1])
	}
	got := buildState(decodeChunks(single)).Snapshot()
	assert.Equal(t, wantState, got)
	assert.Equal(t, "Hello World[1]\n\n"+GalleryHeading+"\n![西湖夕阳](https://img/1.jpg)", got.Markdown)
}

// 标记出现在 JSON 字符串内部时, 一帧会被切成两段并都被丢弃。
// 这里固定现有的切分结果, 改动分帧逻辑时必须显式更新本测试。
func TestFrameDecoder_MarkerInsidePayload(t *testing.T) {
	raw := "data:{\"type\":\"append-text\",\"text\":\"see data: here\"}\n\ndata:[DONE]"
	frames := decodeChunks([][]byte{[]byte(raw)})
	assert.Equal(t, []string{
		`{"type":"append-text","text":"see`,
		`here"}`,
	}, frames)

	for _, f := range frames {
		ev, ok := Classify(f).(UnknownEvent)
		require.True(t, ok)
		assert.Error(t, ev.Err)
	}
	assert.Empty(t, buildState(frames).Content())
}

func TestFrameDecoder_LeadingBytesBeforeFirstMarker(t *testing.T) {
	frames := decodeChunks([][]byte{[]byte(": ping\n" + `data:{"x":1}` + "\n\n" + `data:{"y":2}`)})
	assert.Equal(t, []string{": ping", `{"x":1}`, `{"y":2}`}, frames)
	_, ok := Classify(frames[0]).(UnknownEvent)
	assert.True(t, ok)
}

func TestFrameDecoder_LargeStream(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 500; i++ {
		b.WriteString("data:{\"type\":\"append-text\",\"text\":\"a\"}\n\n")
	}
	raw := []byte(b.String())

	var chunks [][]byte
	for i := 0; i < len(raw); i += 37 {
		end := i + 37
		if end > len(raw) {
			end = len(raw)
		}
		chunks = append(chunks, raw[i:end])
	}
	s := buildState(decodeChunks(chunks))
	assert.Equal(t, strings.Repeat("a", 500), s.Content())
}
