package services

import (
	"sync"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPage 只实现 Close, 其余方法不会被调用
type stubPage struct {
	playwright.Page

	mu     sync.Mutex
	closed int
}

func (p *stubPage) Close(options ...playwright.PageCloseOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

func startedBrowser(page playwright.Page) (*playwrightBrowser, *CDPStreamSource) {
	src := NewCDPStreamSource(newFakeCDP(), 0)
	return &playwrightBrowser{page: page, source: src, metaToken: "token-1"}, src
}

func TestPlaywrightBrowser_HandlesSurviveClose(t *testing.T) {
	page := &stubPage{}
	b, src := startedBrowser(page)

	s, err := b.Source()
	require.NoError(t, err)
	assert.Equal(t, src, s)

	h, err := b.ensure()
	require.NoError(t, err)
	require.NoError(t, b.Close())

	assert.Nil(t, b.page)
	assert.Nil(t, b.source)
	assert.Empty(t, b.metaToken)
	assert.Equal(t, 1, page.closed)

	assert.Same(t, page, h.page)
	assert.Same(t, src, h.source)
	assert.Equal(t, "token-1", h.metaToken)
}
