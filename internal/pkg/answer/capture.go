package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultWaitTimeout  = 30 * time.Second
	DefaultPollInterval = 1 * time.Second

	// maxLoggedPayload 日志里帧内容最多保留的字符数
	maxLoggedPayload = 512
)

var (
	ErrTimeout  = errors.New("wait for answer stream timed out")
	ErrNoStream = errors.New("no response stream")
	ErrClosed   = errors.New("capture closed")
)

// Listener 接收数据源推送的字节块
type Listener interface {
	OnChunk(data []byte, final bool)
	OnError(err error)
}

// Source 推送一次应答的字节块。
// Subscribe 注册监听, 返回的 release 注销监听并释放底层流句柄, 可重复调用。
type Source interface {
	Subscribe(correlationID string, l Listener) (release func() error, err error)
}

// Status 采集状态
type Status int

const (
	StatusCapturing Status = iota
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCapturing:
		return "capturing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options Capture 参数
type Options struct {
	// WaitTimeout 阻塞等待结果的上限
	WaitTimeout time.Duration
	// PollInterval 增量消费时单次等待的上限
	PollInterval time.Duration
	Logger       *log.Entry
}

// Capture 一次应答流的采集。
//
// 单写者: 数据源回调在 mu 下串行修改解码缓冲、状态和增量队列。
// 读者: Wait 和 Deltas 只读完成信号和队列, 可以并发使用。
type Capture struct {
	id   string
	opts Options
	log  *log.Entry

	mu      sync.Mutex
	decoder FrameDecoder
	state   *State
	status  Status
	err     error
	release func() error
	closed  bool

	queue *deltaQueue
	done  chan struct{}
}

// NewCapture 创建采集, 需要调用 Start 挂到数据源上
func NewCapture(correlationID string, opts Options) *Capture {
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = DefaultWaitTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	entry := opts.Logger
	if entry == nil {
		entry = log.NewEntry(log.StandardLogger())
	}
	return &Capture{
		id:     correlationID,
		opts:   opts,
		log:    entry.WithField("correlation_id", correlationID),
		state:  NewState(),
		status: StatusCapturing,
		queue:  newDeltaQueue(),
		done:   make(chan struct{}),
	}
}

// ID 关联 ID
func (c *Capture) ID() string {
	return c.id
}

// Start 向数据源注册监听。拿不到流直接进入失败状态。
func (c *Capture) Start(src Source) error {
	release, err := src.Subscribe(c.id, c)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrNoStream, err)
		c.OnError(err)
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.releaseSource(release)
		return ErrClosed
	}
	c.release = release
	c.mu.Unlock()
	return nil
}

// OnChunk 数据源回调
func (c *Capture) OnChunk(data []byte, final bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusCapturing {
		return
	}

	for _, payload := range c.decoder.Ingest(data) {
		c.handleFrame(payload)
	}
	if !final {
		return
	}
	if payload, ok := c.decoder.Finalize(); ok {
		c.handleFrame(payload)
	}
	c.finishLocked(StatusCompleted, nil)
}

// OnError 数据源回调, 采集进入失败状态
func (c *Capture) OnError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finishLocked(StatusFailed, err) {
		c.log.WithError(err).Warn("answer stream failed")
	}
}

// handleFrame 单帧出错只影响这一帧
func (c *Capture) handleFrame(payload string) {
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("payload", abbreviate(payload, maxLoggedPayload)).Errorf("apply frame panic: %v", r)
		}
	}()

	ev := Classify(payload)
	if u, ok := ev.(UnknownEvent); ok && u.Err != nil {
		c.log.WithError(u.Err).WithField("payload", abbreviate(payload, maxLoggedPayload)).Warn("drop frame")
		return
	}
	if delta := c.state.Apply(ev); delta != "" {
		c.queue.push(delta)
	}
}

// finishLocked 置完成信号, 只生效一次
func (c *Capture) finishLocked(status Status, err error) bool {
	if c.status != StatusCapturing {
		return false
	}
	c.status = status
	c.err = err
	close(c.done)
	return true
}

// Done 完成信号
func (c *Capture) Done() <-chan struct{} {
	return c.done
}

// Status 当前状态
func (c *Capture) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err 失败原因
func (c *Capture) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Snapshot 当前结果的副本
func (c *Capture) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Snapshot()
}

// Wait 阻塞等待结果。无论结果如何, 返回前都会拆除采集; 超时返回 ErrTimeout, 已构建的部分结果丢弃。
func (c *Capture) Wait(ctx context.Context) (*Snapshot, error) {
	defer c.Close()

	timer := time.NewTimer(c.opts.WaitTimeout)
	defer timer.Stop()

	select {
	case <-c.done:
	case <-timer.C:
		c.mu.Lock()
		timedOut := c.finishLocked(StatusFailed, ErrTimeout)
		c.mu.Unlock()
		if timedOut {
			c.log.Errorf("no answer within %s", c.opts.WaitTimeout)
			return nil, fmt.Errorf("capture %s: %w", c.id, ErrTimeout)
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := c.Err(); err != nil {
		return nil, err
	}
	snap := c.Snapshot()
	return &snap, nil
}

// Deltas 按产生顺序返回正文增量。
// 每次最多等待 PollInterval, 等待超时后只有在已结束且队列为空时才收尾,
// 否则继续等待。通道关闭前会拆除采集。
func (c *Capture) Deltas(ctx context.Context) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		defer close(out)
		defer c.Close()

		for {
			if delta, ok := c.queue.pop(); ok {
				select {
				case out <- delta:
				case <-ctx.Done():
					errc <- ctx.Err()
					return
				}
				continue
			}

			select {
			case <-c.queue.ready:
			case <-c.done:
				if c.queue.empty() {
					c.finishDeltas(errc)
					return
				}
			case <-time.After(c.opts.PollInterval):
				if c.terminated() && c.queue.empty() {
					c.finishDeltas(errc)
					return
				}
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()

	return out, errc
}

func (c *Capture) finishDeltas(errc chan<- error) {
	if err := c.Err(); err != nil {
		errc <- err
	}
}

func (c *Capture) terminated() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Close 注销监听并释放流句柄, 可重复调用。释放失败只记日志。
func (c *Capture) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.finishLocked(StatusFailed, ErrClosed)
	release := c.release
	c.release = nil
	c.mu.Unlock()

	return c.releaseSource(release)
}

func (c *Capture) releaseSource(release func() error) error {
	if release == nil {
		return nil
	}
	if err := release(); err != nil {
		c.log.WithError(err).Warn("release answer stream")
		return err
	}
	return nil
}

// deltaQueue 无界 FIFO, ready 用于唤醒等待者
type deltaQueue struct {
	mu    sync.Mutex
	items []string
	ready chan struct{}
}

func newDeltaQueue() *deltaQueue {
	return &deltaQueue{ready: make(chan struct{}, 1)}
}

func (q *deltaQueue) push(s string) {
	q.mu.Lock()
	q.items = append(q.items, s)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *deltaQueue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return "", false
	}
	s := q.items[0]
	q.items[0] = ""
	q.items = q.items[1:]
	return s, true
}

func (q *deltaQueue) empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// abbreviate 截断过长的日志字段, 按字符计
func abbreviate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == limit {
			break
		}
		b.WriteRune(r)
		n++
	}
	b.WriteString("...")
	return b.String()
}
