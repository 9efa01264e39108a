package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"search-server/internal/app/models"
	"search-server/internal/pkg/answer"
	"search-server/internal/pkg/code"
	"search-server/pkg/config"
)

type fakeSearcher struct {
	query, model string
	err          error
}

func (s *fakeSearcher) Complete(_ context.Context, query, model string) (*models.SearchResult, error) {
	s.query, s.model = query, model
	if s.err != nil {
		return nil, s.err
	}
	return &models.SearchResult{Snapshot: answer.Snapshot{Content: "答案", Markdown: "答案"}}, nil
}

type denyLimiter struct{ calls int }

func (l *denyLimiter) Allow(context.Context, string) error {
	l.calls++
	return ErrRateLimited(errors.New("per_second"))
}

func TestArgHelpers(t *testing.T) {
	args := map[string]any{"n": float64(3), "f": 2.5, "s": "x", "b": true, "bad": []int{1}}

	n, err := intArg(args, "n", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = intArg(args, "missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = intArg(args, "f", 1)
	assert.Equal(t, code.RequestParamsInvalid, CodeOf(err))
	_, err = intArg(args, "s", 1)
	assert.Equal(t, code.RequestParamsInvalid, CodeOf(err))

	s, err := stringArg(args, "s", "d")
	require.NoError(t, err)
	assert.Equal(t, "x", s)
	_, err = stringArg(args, "n", "d")
	assert.Error(t, err)

	b, err := boolArg(args, "b", false)
	require.NoError(t, err)
	assert.True(t, b)
	_, err = boolArg(args, "bad", false)
	assert.Error(t, err)

	_, err = queryArg(map[string]any{"query": "   "})
	assert.Equal(t, code.RequestParamsInvalid, CodeOf(err))
}

func TestMetasoTools_Call(t *testing.T) {
	searcher := &fakeSearcher{}
	tools := NewMetasoTools(searcher)
	assert.Equal(t, config.ProviderMetaso, tools.Name())
	require.Len(t, tools.Tools(), 2)

	text, err := tools.Call(context.Background(), "scholar_search", map[string]any{"query": "transformer", "mode": "concise"})
	require.NoError(t, err)
	assert.Equal(t, "答案\n\n\n参考文献:", text)
	assert.Equal(t, "transformer", searcher.query)
	assert.Equal(t, "concise-scholar", searcher.model)

	_, err = tools.Call(context.Background(), "search", map[string]any{"query": "q"})
	require.NoError(t, err)
	assert.Equal(t, "detail", searcher.model)

	_, err = tools.Call(context.Background(), "search", map[string]any{"query": "q", "mode": "research"})
	assert.Equal(t, code.RequestParamsInvalid, CodeOf(err))

	_, err = tools.Call(context.Background(), "translate", map[string]any{"query": "q"})
	assert.Equal(t, code.RequestParamsInvalid, CodeOf(err))
}

func TestBochaParams(t *testing.T) {
	params, err := bochaParams(map[string]any{"query": "q", "count": float64(5), "freshness": "oneWeek", "summary": true})
	require.NoError(t, err)
	assert.Equal(t, BochaSearchParams{Query: "q", Count: 5, Page: 1, Freshness: "oneWeek", Summary: true}, params)

	_, err = bochaParams(map[string]any{"query": "q", "count": float64(11)})
	assert.Equal(t, code.RequestParamsInvalid, CodeOf(err))

	_, err = bochaParams(map[string]any{"query": "q", "freshness": "oneHour"})
	assert.Equal(t, code.RequestParamsInvalid, CodeOf(err))
}

func TestToolbox_Call(t *testing.T) {
	searcher := &fakeSearcher{}
	box := NewToolbox(NewMetasoTools(searcher), NewMemoryLimiter(config.RateLimit{}))
	assert.Equal(t, config.ProviderMetaso, box.Provider())

	result, err := box.Call(context.Background(), "search", map[string]any{"query": "q"})
	require.NoError(t, err)
	assert.Equal(t, models.ToolResult{Type: "text", Text: "答案\n\n\n参考文献:"}, result)

	searcher.err = ErrTimeout(answer.ErrTimeout)
	_, err = box.Call(context.Background(), "search", map[string]any{"query": "q"})
	assert.Equal(t, code.Timeout, CodeOf(err))
}

func TestToolbox_RateLimited(t *testing.T) {
	searcher := &fakeSearcher{}
	limiter := &denyLimiter{}
	box := NewToolbox(NewMetasoTools(searcher), limiter)

	_, err := box.Call(context.Background(), "search", map[string]any{"query": "q"})
	assert.Equal(t, code.RateLimited, CodeOf(err))
	assert.Equal(t, 1, limiter.calls)
	assert.Empty(t, searcher.query)
}

func TestNewToolProvider(t *testing.T) {
	for _, name := range []string{"", config.ProviderMetaso, config.ProviderBocha, config.ProviderBrave} {
		p, err := NewToolProvider(name, &fakeSearcher{})
		require.NoError(t, err, name)
		assert.NotEmpty(t, p.Tools())
	}
	_, err := NewToolProvider("google", nil)
	assert.Error(t, err)
}
