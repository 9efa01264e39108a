package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"search-server/internal/pkg/code"
	"search-server/pkg/config"
)

const bochaOK = `{
  "code": 200,
  "msg": null,
  "data": {
    "webPages": {
      "totalEstimatedMatches": 12345,
      "value": [
        {"name": "西湖", "url": "https://a", "siteName": "百科", "snippet": "片段", "summary": "摘要全文", "dateLastCrawled": "2024-05-01T00:00:00Z"},
        {"name": "断桥", "url": "https://b", "snippet": "桥"}
      ]
    },
    "images": {
      "value": [
        {"name": "", "width": 640, "height": 0, "hostPageUrl": "https://host", "contentUrl": "https://img/full.jpg", "thumbnailUrl": "https://img/t.jpg"}
      ]
    }
  }
}`

func newBochaServer(t *testing.T, status int, body string, seen *map[string]any) *BochaClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewBochaClient(config.Bocha{ApiKey: "key-1", Endpoint: srv.URL + "/v1/web-search"})
}

func TestBochaSearchParams_Normalize(t *testing.T) {
	p := BochaSearchParams{Query: "q"}
	require.NoError(t, p.Normalize())
	assert.Equal(t, BochaSearchParams{Query: "q", Count: 10, Page: 1, Freshness: FreshnessNoLimit}, p)

	for _, bad := range []BochaSearchParams{
		{Query: ""},
		{Query: "q", Count: 11},
		{Query: "q", Count: -1},
		{Query: "q", Page: -2},
		{Query: "q", Freshness: "oneDecade"},
	} {
		assert.Equal(t, code.RequestParamsInvalid, CodeOf(bad.Normalize()), "%+v", bad)
	}
}

func TestBochaClient_WebSearch(t *testing.T) {
	var seen map[string]any
	client := newBochaServer(t, http.StatusOK, bochaOK, &seen)

	params := BochaSearchParams{Query: "西湖", Count: 2, Summary: true, Freshness: FreshnessOneWeek}
	resp, err := client.WebSearch(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"query": "西湖", "count": 2.0, "page": 1.0, "freshness": "oneWeek", "summary": true,
	}, seen)
	require.NotNil(t, resp.Data)
	assert.Len(t, resp.Data.WebPages.Value, 2)

	params.Page = 1
	params.Count = 2
	got := FormatBochaResult(params, resp)
	want := "搜索统计信息:\n- 总结果数: 12,345 条\n- 当前页/总页数: 1/6173\n- 本页结果数: 2 条" +
		"\n\n标题: 西湖\n网址: https://a\n来源: 百科\n摘要: 摘要全文\n发布时间: 2024-05-01T00:00:00Z" +
		"\n\n标题: 断桥\n网址: https://b\n来源: 未知来源\n描述: 桥" +
		"\n\n\n相关图片:" +
		"\n\n- 名称: 未命名\n  尺寸: 640x未知\n  来源页面: https://host\n  原图URL: https://img/full.jpg\n  缩略图URL: https://img/t.jpg"
	assert.Equal(t, want, got)
}

func TestBochaClient_ErrorCodes(t *testing.T) {
	tests := []struct {
		status int
		body   string
		kind   BochaErrorKind
		code   int
	}{
		{http.StatusBadRequest, `{"code":"400","msg":"参数错误"}`, BochaAPIError, code.RequestFailed},
		{http.StatusUnauthorized, `{"code":"401","msg":"invalid key"}`, BochaAuthError, code.TokenExpired},
		{http.StatusForbidden, `{"code":403,"msg":"余额不足"}`, BochaBalanceError, code.RequestFailed},
		{http.StatusTooManyRequests, `{"code":"429","msg":"slow down"}`, BochaRateLimitError, code.RateLimited},
		{http.StatusInternalServerError, `{"code":"500"}`, BochaAPIError, code.RequestFailed},
		{http.StatusBadGateway, `<html>`, BochaResponseError, code.RequestFailed},
	}
	for _, tt := range tests {
		client := newBochaServer(t, tt.status, tt.body, nil)
		_, err := client.WebSearch(context.Background(), BochaSearchParams{Query: "q"})
		var be *BochaError
		require.ErrorAs(t, err, &be, "status %d", tt.status)
		assert.Equal(t, tt.kind, be.Kind, "status %d", tt.status)
		assert.Equal(t, tt.code, CodeOf(err), "status %d", tt.status)
	}
}

func TestFormatBochaResult_Empty(t *testing.T) {
	p := BochaSearchParams{Query: "q", Count: 10, Page: 1}
	assert.Equal(t, "搜索失败: quota", FormatBochaResult(p, &BochaResponse{Code: 500, Msg: "quota"}))
	assert.Equal(t, "未找到相关结果", FormatBochaResult(p, &BochaResponse{Code: 200}))

	got := FormatBochaResult(p, &BochaResponse{Code: 200, Data: &BochaData{}})
	assert.Equal(t, "搜索统计信息:\n- 总结果数: 0 条\n- 当前页/总页数: 1/0\n- 本页结果数: 0 条", got)
}

func TestGroupThousands(t *testing.T) {
	for in, want := range map[int64]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -12345: "-12,345"} {
		assert.Equal(t, want, groupThousands(in))
	}
}
