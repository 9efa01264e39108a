// Package answer 把秘塔搜索推送的分块应答流还原成结构化结果。
//
// 数据流: 字节块 -> FrameDecoder -> Classify -> State.Apply -> Render。
// Capture 负责把推送式的字节到达和两种消费方式(阻塞等待 / 增量拉取)衔接起来。
package answer

import (
	"bytes"
	"strings"
)

const (
	// FrameMarker 每一帧以该标记开头
	FrameMarker = "data:"
	// DoneSentinel 服务端的逻辑结束帧, 真正的结束以数据源的 final 标志为准
	DoneSentinel = "[DONE]"
)

var frameMarker = []byte(FrameMarker)

// FrameDecoder 把任意切分的字节块还原成完整帧。
//
// 切分只按标记文本扫描, 不识别 JSON 字符串里出现的 "data:"。
// 这种帧会被拆成两段, 两段都解析失败后被丢弃。这是沿用下来的已知缺陷,
// 改动它会改变现有输入的分帧结果, 见 TestFrameDecoder_MarkerInsidePayload。
type FrameDecoder struct {
	buf []byte
}

// Ingest 追加新字节, 返回最后一个标记之前的全部完整帧。
// 最后一个标记(含标记本身)之后的内容留在缓冲区等待后续字节。
func (d *FrameDecoder) Ingest(chunk []byte) []string {
	d.buf = append(d.buf, chunk...)

	idx := bytes.LastIndex(d.buf, frameMarker)
	if idx <= 0 {
		return nil
	}

	var frames []string
	for _, part := range bytes.Split(d.buf[:idx], frameMarker) {
		if payload, ok := cleanPayload(part); ok {
			frames = append(frames, payload)
		}
	}
	d.buf = append([]byte(nil), d.buf[idx:]...)
	return frames
}

// Finalize 在流结束时冲刷缓冲区里剩下的最后一帧
func (d *FrameDecoder) Finalize() (string, bool) {
	rest := d.buf
	d.buf = nil
	rest = bytes.TrimPrefix(bytes.TrimSpace(rest), frameMarker)
	return cleanPayload(rest)
}

// Buffered 返回尚未成帧的字节数
func (d *FrameDecoder) Buffered() int {
	return len(d.buf)
}

func cleanPayload(part []byte) (string, bool) {
	payload := strings.TrimSpace(string(part))
	if payload == "" || payload == DoneSentinel {
		return "", false
	}
	return payload, true
}
