package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"search-server/internal/app/models"
	"search-server/internal/pkg/answer"
	"search-server/pkg/config"
)

// 秘塔模型
const (
	ModelConcise  = "concise"
	ModelDetail   = "detail"
	ModelResearch = "research"

	scholarSuffix = "-scholar"
	DefaultMode   = ModelDetail
)

var supportedModels = map[string]bool{
	ModelConcise:                  true,
	ModelDetail:                   true,
	ModelResearch:                 true,
	ModelConcise + scholarSuffix:  true,
	ModelDetail + scholarSuffix:   true,
	ModelResearch + scholarSuffix: true,
}

// ResolveModel 由搜索模式和是否学术搜索得到模型名, mode 为空时用深入模式
func ResolveModel(mode string, scholar bool) (string, error) {
	if mode == "" {
		mode = DefaultMode
	}
	model := mode
	if scholar && !strings.HasSuffix(mode, scholarSuffix) {
		model = mode + scholarSuffix
	}
	if !supportedModels[model] {
		return "", ErrParamsInvalid("不支持的搜索模式: %s", mode)
	}
	return model, nil
}

// MetasoClient 通过浏览器页面调用秘塔搜索。
// 页面只有一个, 同一时间只跑一次采集, 由 locker 保证。
type MetasoClient struct {
	browser metasoBrowser
	locker  Locker
	history ISearchRecord
	opts    answer.Options
	now     func() time.Time
}

func NewMetasoClient(conf config.Metaso, locker Locker, history ISearchRecord) *MetasoClient {
	return newMetasoClient(newPlaywrightBrowser(conf), locker, history, answer.Options{
		WaitTimeout:  conf.WaitTimeout,
		PollInterval: conf.PollInterval,
	})
}

func newMetasoClient(browser metasoBrowser, locker Locker, history ISearchRecord, opts answer.Options) *MetasoClient {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &MetasoClient{
		browser: browser,
		locker:  locker,
		history: history,
		opts:    opts,
		now:     time.Now,
	}
}

// MetasoStream 一次增量输出的搜索
type MetasoStream struct {
	Meta    models.SearchMeta
	capture *answer.Capture
}

// NewMetasoStream 包装已挂到数据源上的采集
func NewMetasoStream(meta models.SearchMeta, capture *answer.Capture) *MetasoStream {
	return &MetasoStream{Meta: meta, capture: capture}
}

// ID 采集关联ID
func (s *MetasoStream) ID() string {
	return s.capture.ID()
}

// Deltas 正文增量, 结束后 errc 给出带返回码的失败原因
func (s *MetasoStream) Deltas(ctx context.Context) (<-chan string, <-chan error) {
	out, errc := s.capture.Deltas(ctx)
	mapped := make(chan error, 1)
	go func() {
		defer close(mapped)
		if err := <-errc; err != nil {
			mapped <- mapCaptureErr(err)
		}
	}()
	return out, mapped
}

// Result 当前结构化结果, 在 Deltas 结束后调用得到完整结果
func (s *MetasoStream) Result() *models.SearchResult {
	return &models.SearchResult{Snapshot: s.capture.Snapshot(), Meta: s.Meta}
}

func (s *MetasoStream) Close() error {
	return s.capture.Close()
}

// Complete 阻塞等待完整回答
func (c *MetasoClient) Complete(ctx context.Context, query, model string) (*models.SearchResult, error) {
	capture, meta, err := c.start(ctx, query, model)
	if err != nil {
		return nil, err
	}
	snap, err := capture.Wait(ctx)
	if err != nil {
		return nil, mapCaptureErr(err)
	}
	return &models.SearchResult{Snapshot: *snap, Meta: meta}, nil
}

// Stream 建立会话后立即返回, 调用方通过 Deltas 读取正文增量
func (c *MetasoClient) Stream(ctx context.Context, query, model string) (*MetasoStream, error) {
	capture, meta, err := c.start(ctx, query, model)
	if err != nil {
		return nil, err
	}
	return NewMetasoStream(meta, capture), nil
}

// Close 关闭浏览器
func (c *MetasoClient) Close() error {
	return c.browser.Close()
}

func (c *MetasoClient) start(ctx context.Context, query, model string) (*answer.Capture, models.SearchMeta, error) {
	var meta models.SearchMeta
	if strings.TrimSpace(query) == "" {
		return nil, meta, ErrContentEmpty()
	}
	if !supportedModels[model] {
		return nil, meta, ErrParamsInvalid("不支持的模型: %s", model)
	}

	unlock, err := c.locker.TryLock(ctx, metasoSessionLock)
	if err != nil {
		if errors.Is(err, errLockHeld) {
			return nil, meta, ErrStreamPushing(err)
		}
		return nil, meta, ErrRequestFailed(err)
	}

	capture, meta, err := c.open(query, model)
	if err != nil {
		unlock()
		return nil, meta, err
	}

	go c.finish(capture, meta, unlock)
	return capture, meta, nil
}

// open 建会话, 挂监听, 打开搜索页
func (c *MetasoClient) open(query, model string) (*answer.Capture, models.SearchMeta, error) {
	id := uuid.NewString()
	entry := log.WithField("correlation_id", id)
	meta := models.SearchMeta{Model: model, Query: query, Timestamp: c.now().Unix()}

	convID, err := c.browser.CreateConversation(query, model)
	if err != nil {
		entry.WithError(err).Error("create conversation")
		return nil, meta, ErrRequestFailed(err)
	}
	meta.ConversationID = convID

	src, err := c.browser.Source()
	if err != nil {
		return nil, meta, ErrRequestFailed(err)
	}
	capture := answer.NewCapture(id, c.opts)
	if err := capture.Start(src); err != nil {
		return nil, meta, ErrRequestFailed(err)
	}

	if err := c.browser.Navigate(convID, query); err != nil {
		_ = capture.Close()
		entry.WithError(err).Error("navigate search page")
		return nil, meta, ErrRequestFailed(err)
	}
	entry.WithFields(log.Fields{"model": model, "conversation_id": convID}).Info("metaso search started")
	return capture, meta, nil
}

// finish 采集结束后释放会话锁, 成功的结果写入历史
func (c *MetasoClient) finish(capture *answer.Capture, meta models.SearchMeta, unlock func()) {
	<-capture.Done()
	unlock()

	if capture.Status() != answer.StatusCompleted || c.history == nil {
		return
	}
	result := &models.SearchResult{Snapshot: capture.Snapshot(), Meta: meta}
	if err := c.history.CreateSearchRecord(models.NewSearchRecord(capture.ID(), result)); err != nil {
		log.WithField("correlation_id", capture.ID()).Warnf("save search record: %v", err)
	}
}

func mapCaptureErr(err error) error {
	if errors.Is(err, answer.ErrTimeout) {
		return ErrTimeout(err)
	}
	return ErrRequestFailed(err)
}

// FormatMetasoResult 回答正文加参考文献列表
func FormatMetasoResult(result *models.SearchResult) (string, error) {
	if result == nil || result.Content == "" {
		return "", ErrContentEmpty()
	}
	content := result.Markdown
	if content == "" {
		content = result.Content
	}
	lines := []string{content, "\n\n参考文献:"}
	for i, ref := range result.References {
		lines = append(lines, fmt.Sprintf("\n[%d] %s\n    链接: %s\n    来源: %s\n    日期: %s",
			i+1,
			orDefault(ref.Title, "无标题"),
			orDefault(ref.Link, "无链接"),
			orDefault(ref.Source, "未知来源"),
			orDefault(ref.Date, "未知日期"),
		))
	}
	return strings.Join(lines, "\n"), nil
}

// FormatMetasoMarkdown 渲染后的回答加 Markdown 链接形式的参考文献
func FormatMetasoMarkdown(result *models.SearchResult) (string, error) {
	if result == nil || result.Content == "" {
		return "", ErrContentEmpty()
	}
	refs := answer.ReferencesMarkdown(result.References)
	if refs == "" {
		return result.Markdown, nil
	}
	return result.Markdown + "\n\n" + strings.TrimRight(refs, "\n"), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
