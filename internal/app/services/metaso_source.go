package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"search-server/internal/pkg/answer"
)

const (
	eventRequestPaused = "Fetch.requestPaused"
	defaultReadSize    = 256
)

var errSourceBusy = errors.New("answer source already has an active subscriber")

// cdpSession playwright.CDPSession 中用到的部分
type cdpSession interface {
	Send(method string, params map[string]interface{}) (interface{}, error)
	On(name string, handler interface{})
}

// CDPStreamSource 拦截秘塔 searchV2 响应, 把响应体按块推给订阅者。
// 同一时间只服务一个订阅, 页面本身由会话锁串行使用。
// Fetch.requestPaused 监听随数据源常驻, 没有订阅认领的请求一律放行。
type CDPStreamSource struct {
	session  cdpSession
	readSize int

	mu     sync.Mutex
	active *streamSubscription
}

func NewCDPStreamSource(session cdpSession, readSize int) *CDPStreamSource {
	if readSize <= 0 {
		readSize = defaultReadSize
	}
	c := &CDPStreamSource{session: session, readSize: readSize}
	session.On(eventRequestPaused, func(ev map[string]interface{}) {
		// 回调在 CDP 事件分发协程里执行, 读取流必须另起协程, 否则 Send 的响应无法被分发
		go c.pump(c.current(), ev)
	})
	return c
}

type streamSubscription struct {
	id       string
	listener answer.Listener
	log      *log.Entry

	mu      sync.Mutex
	bound   bool
	stopped bool
}

// claim 第一个被拦截的请求归本次订阅, 后续的直接放行
func (s *streamSubscription) claim() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound || s.stopped {
		return false
	}
	s.bound = true
	return true
}

func (s *streamSubscription) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *streamSubscription) stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

func (c *CDPStreamSource) current() *streamSubscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Subscribe 成为当前订阅, release 让出订阅并让读取循环尽快关闭流句柄
func (c *CDPStreamSource) Subscribe(correlationID string, l answer.Listener) (func() error, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return nil, errSourceBusy
	}

	sub := &streamSubscription{
		id:       correlationID,
		listener: l,
		log:      log.WithField("correlation_id", correlationID),
	}
	c.active = sub

	var once sync.Once
	release := func() error {
		once.Do(func() {
			sub.stop()
			c.mu.Lock()
			if c.active == sub {
				c.active = nil
			}
			c.mu.Unlock()
		})
		return nil
	}
	return release, nil
}

// pump sub 为空或已认领过请求时放行, 否则读取响应体推给订阅者
func (c *CDPStreamSource) pump(sub *streamSubscription, ev map[string]interface{}) {
	entry := log.NewEntry(log.StandardLogger())
	if sub != nil {
		entry = sub.log
	}
	requestID, _ := ev["requestId"].(string)
	if requestID == "" {
		entry.Warn("paused request without id")
		return
	}

	if !sub.claim() {
		if _, err := c.session.Send("Fetch.continueRequest", map[string]interface{}{"requestId": requestID}); err != nil {
			entry.WithError(err).Warn("continue request")
		}
		return
	}

	res, err := c.session.Send("Fetch.takeResponseBodyAsStream", map[string]interface{}{"requestId": requestID})
	if err != nil {
		sub.listener.OnError(fmt.Errorf("%w: %v", answer.ErrNoStream, err))
		return
	}
	handle := stringField(res, "stream")
	if handle == "" {
		sub.listener.OnError(answer.ErrNoStream)
		return
	}
	defer func() {
		if _, err := c.session.Send("IO.close", map[string]interface{}{"handle": handle}); err != nil {
			sub.log.WithError(err).Warn("close response stream")
		}
	}()

	for !sub.isStopped() {
		chunk, eof, err := c.read(handle)
		if err != nil {
			sub.listener.OnError(fmt.Errorf("read response stream: %w", err))
			return
		}
		if len(chunk) > 0 || eof {
			sub.listener.OnChunk(chunk, eof)
		}
		if eof {
			return
		}
	}
}

func (c *CDPStreamSource) read(handle string) ([]byte, bool, error) {
	res, err := c.session.Send("IO.read", map[string]interface{}{"handle": handle, "size": c.readSize})
	if err != nil {
		return nil, false, err
	}
	m, ok := res.(map[string]interface{})
	if !ok {
		// 空结果视为流结束
		return nil, true, nil
	}

	data, _ := m["data"].(string)
	eof, _ := m["eof"].(bool)
	if encoded, _ := m["base64Encoded"].(bool); encoded && data != "" {
		raw, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, false, fmt.Errorf("decode chunk: %w", err)
		}
		return raw, eof, nil
	}
	return []byte(data), eof, nil
}

func stringField(v interface{}, key string) string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
