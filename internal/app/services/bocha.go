package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"github.com/tidwall/gjson"

	"search-server/internal/pkg/code"
	"search-server/pkg/config"
)

// 博查时间范围
const (
	FreshnessNoLimit  = "noLimit"
	FreshnessOneDay   = "oneDay"
	FreshnessOneWeek  = "oneWeek"
	FreshnessOneMonth = "oneMonth"
	FreshnessOneYear  = "oneYear"
)

var freshnessRanges = []string{FreshnessNoLimit, FreshnessOneDay, FreshnessOneWeek, FreshnessOneMonth, FreshnessOneYear}

const (
	bochaDefaultCount = 10
	bochaMaxCount     = 10
	bochaTimeout      = 30 * time.Second
)

// BochaErrorKind 博查错误分类
type BochaErrorKind string

const (
	BochaAPIError       BochaErrorKind = "api"
	BochaAuthError      BochaErrorKind = "auth"
	BochaBalanceError   BochaErrorKind = "balance"
	BochaRateLimitError BochaErrorKind = "rate_limit"
	BochaRequestError   BochaErrorKind = "request"
	BochaResponseError  BochaErrorKind = "response"
)

// bochaErrorKinds 接口错误码对应的分类, 未列出的按 API 错误处理
var bochaErrorKinds = map[string]BochaErrorKind{
	"400": BochaAPIError,
	"401": BochaAuthError,
	"403": BochaBalanceError,
	"429": BochaRateLimitError,
	"500": BochaAPIError,
}

type BochaError struct {
	Kind BochaErrorKind
	Code string
	Msg  string
}

func (e *BochaError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API错误 %s: %s", e.Code, e.Msg)
	}
	return e.Msg
}

func (e *BochaError) code() int {
	switch e.Kind {
	case BochaRateLimitError:
		return code.RateLimited
	case BochaAuthError:
		return code.TokenExpired
	default:
		return code.RequestFailed
	}
}

func newBochaAPIError(errCode, msg string) *BochaError {
	kind, ok := bochaErrorKinds[errCode]
	if !ok {
		kind = BochaAPIError
	}
	return &BochaError{Kind: kind, Code: errCode, Msg: msg}
}

// BochaSearchParams 网页搜索参数
type BochaSearchParams struct {
	Query     string `json:"query"`
	Count     int    `json:"count"`
	Page      int    `json:"page"`
	Freshness string `json:"freshness"`
	Summary   bool   `json:"summary"`
}

// Normalize 填充默认值并校验
func (p *BochaSearchParams) Normalize() error {
	if p.Count == 0 {
		p.Count = bochaDefaultCount
	}
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Freshness == "" {
		p.Freshness = FreshnessNoLimit
	}
	if strings.TrimSpace(p.Query) == "" {
		return ErrParamsInvalid("搜索查询不能为空")
	}
	if p.Count < 1 || p.Count > bochaMaxCount {
		return ErrParamsInvalid("count必须在1-%d之间", bochaMaxCount)
	}
	if p.Page < 1 {
		return ErrParamsInvalid("page必须大于0")
	}
	for _, f := range freshnessRanges {
		if p.Freshness == f {
			return nil
		}
	}
	return ErrParamsInvalid("freshness必须是以下值之一: %s", strings.Join(freshnessRanges, ", "))
}

type BochaResponse struct {
	Code int        `json:"code"`
	Msg  string     `json:"msg"`
	Data *BochaData `json:"data"`
}

type BochaData struct {
	WebPages BochaWebPages `json:"webPages"`
	Images   BochaImages   `json:"images"`
}

type BochaWebPages struct {
	TotalEstimatedMatches int64          `json:"totalEstimatedMatches"`
	Value                 []BochaWebPage `json:"value"`
}

type BochaWebPage struct {
	Name            string  `json:"name"`
	URL             string  `json:"url"`
	SiteName        string  `json:"siteName"`
	Snippet         string  `json:"snippet"`
	Summary         *string `json:"summary"`
	DateLastCrawled *string `json:"dateLastCrawled"`
}

type BochaImages struct {
	Value []BochaImage `json:"value"`
}

type BochaImage struct {
	Name               string `json:"name"`
	Width              int    `json:"width"`
	Height             int    `json:"height"`
	HostPageURL        string `json:"hostPageUrl"`
	HostPageDisplayURL string `json:"hostPageDisplayUrl"`
	ContentURL         string `json:"contentUrl"`
	ThumbnailURL       string `json:"thumbnailUrl"`
}

// BochaClient 博查网页搜索
type BochaClient struct {
	client   *req.Client
	endpoint string
}

func NewBochaClient(conf config.Bocha) *BochaClient {
	client := req.C().
		SetTimeout(bochaTimeout).
		SetCommonBearerAuthToken(conf.ApiKey).
		SetCommonContentType("application/json")
	return &BochaClient{client: client, endpoint: conf.Endpoint}
}

// WebSearch 调用博查搜索, HTTP 状态非 200 时按响应里的错误码返回 BochaError
func (c *BochaClient) WebSearch(ctx context.Context, params BochaSearchParams) (*BochaResponse, error) {
	if err := params.Normalize(); err != nil {
		return nil, err
	}

	var out BochaResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&params).
		SetSuccessResult(&out).
		Post(c.endpoint)
	if err != nil {
		return nil, &BochaError{Kind: BochaRequestError, Msg: fmt.Sprintf("请求失败: %v", err)}
	}

	body := resp.Bytes()
	if resp.StatusCode != http.StatusOK {
		if !gjson.ValidBytes(body) {
			return nil, &BochaError{Kind: BochaResponseError, Msg: "API返回数据解析失败"}
		}
		errCode := gjson.GetBytes(body, "code").String()
		if errCode == "" {
			errCode = "unknown"
		}
		msg := gjson.GetBytes(body, "msg").String()
		if msg == "" {
			msg = "未知错误"
		}
		return nil, newBochaAPIError(errCode, msg)
	}
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return nil, &BochaError{Kind: BochaResponseError, Msg: "API返回数据格式错误"}
	}
	return &out, nil
}

// FormatBochaResult 统计信息、网页结果和图片, 块之间空一行
func FormatBochaResult(params BochaSearchParams, resp *BochaResponse) string {
	if resp.Code != http.StatusOK {
		msg := resp.Msg
		if msg == "" {
			msg = "未知错误"
		}
		return "搜索失败: " + msg
	}
	if resp.Data == nil {
		return "未找到相关结果"
	}

	pages := resp.Data.WebPages
	totalPages := int64(0)
	if pages.TotalEstimatedMatches > 0 {
		totalPages = (pages.TotalEstimatedMatches + int64(params.Count) - 1) / int64(params.Count)
	}
	blocks := []string{strings.Join([]string{
		"搜索统计信息:",
		fmt.Sprintf("- 总结果数: %s 条", groupThousands(pages.TotalEstimatedMatches)),
		fmt.Sprintf("- 当前页/总页数: %d/%d", params.Page, totalPages),
		fmt.Sprintf("- 本页结果数: %d 条", len(pages.Value)),
	}, "\n")}

	for _, page := range pages.Value {
		lines := []string{
			"标题: " + page.Name,
			"网址: " + page.URL,
			"来源: " + orDefault(page.SiteName, "未知来源"),
		}
		if params.Summary && page.Summary != nil {
			lines = append(lines, "摘要: "+*page.Summary)
		} else {
			lines = append(lines, "描述: "+page.Snippet)
		}
		if page.DateLastCrawled != nil {
			lines = append(lines, "发布时间: "+*page.DateLastCrawled)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	if images := resp.Data.Images.Value; len(images) > 0 {
		blocks = append(blocks, "\n相关图片:")
		for _, img := range images {
			blocks = append(blocks, strings.Join([]string{
				"- 名称: " + orDefault(img.Name, "未命名"),
				fmt.Sprintf("  尺寸: %sx%s", dimension(img.Width), dimension(img.Height)),
				"  来源页面: " + orDefault(img.HostPageDisplayURL, orDefault(img.HostPageURL, "未知")),
				"  原图URL: " + img.ContentURL,
				"  缩略图URL: " + img.ThumbnailURL,
			}, "\n"))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func dimension(n int) string {
	if n <= 0 {
		return "未知"
	}
	return strconv.Itoa(n)
}

// groupThousands 1234567 -> 1,234,567
func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
