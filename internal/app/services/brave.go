package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"golang.org/x/sync/errgroup"

	"search-server/pkg/config"
)

const (
	braveDefaultCount         = 10
	braveDefaultLocationCount = 5
	braveMaxCount             = 20
	braveTimeout              = 30 * time.Second
)

// BraveWebResult 网页结果
type BraveWebResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// BravePOI 地点详情
type BravePOI struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Address      BraveAddress `json:"address"`
	Phone        string       `json:"phone"`
	Rating       BraveRating  `json:"rating"`
	PriceRange   string       `json:"priceRange"`
	OpeningHours []string     `json:"openingHours"`
	Description  string       `json:"-"`
}

type BraveAddress struct {
	StreetAddress   string `json:"streetAddress"`
	AddressLocality string `json:"addressLocality"`
	AddressRegion   string `json:"addressRegion"`
	PostalCode      string `json:"postalCode"`
}

type BraveRating struct {
	RatingValue *float64 `json:"ratingValue"`
	RatingCount int      `json:"ratingCount"`
}

// BraveLocationResult 地点搜索结果, 没有地点时退回网页结果
type BraveLocationResult struct {
	POIs []BravePOI
	Web  []BraveWebResult
}

type braveWebResponse struct {
	Web struct {
		Results []BraveWebResult `json:"results"`
	} `json:"web"`
	Locations struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	} `json:"locations"`
}

type bravePOIResponse struct {
	Results []BravePOI `json:"results"`
}

type braveDescriptionResponse struct {
	Descriptions map[string]string `json:"descriptions"`
}

// BraveClient Brave 搜索
type BraveClient struct {
	client *req.Client
}

func NewBraveClient(conf config.Brave) *BraveClient {
	client := req.C().
		SetBaseURL(conf.Endpoint).
		SetTimeout(braveTimeout).
		SetCommonHeader("Accept", "application/json").
		SetCommonHeader("X-Subscription-Token", conf.ApiKey)
	return &BraveClient{client: client}
}

func (c *BraveClient) get(ctx context.Context, path string, query map[string][]string, out interface{}) error {
	r := c.client.R().SetContext(ctx).SetSuccessResult(out)
	for k, vs := range query {
		r.AddQueryParams(k, vs...)
	}
	resp, err := r.Get(path)
	if err != nil {
		return ErrRequestFailed(err)
	}
	if resp.StatusCode != http.StatusOK {
		return ErrRequestFailed(fmt.Errorf("API错误: %d %s", resp.StatusCode, resp.String()))
	}
	return nil
}

// WebSearch 网页搜索, count 最多 20
func (c *BraveClient) WebSearch(ctx context.Context, query string, count, offset int) ([]BraveWebResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrParamsInvalid("搜索查询不能为空")
	}
	if count <= 0 {
		count = braveDefaultCount
	}
	var out braveWebResponse
	err := c.get(ctx, "/web/search", map[string][]string{
		"q":      {query},
		"count":  {strconv.Itoa(min(count, braveMaxCount))},
		"offset": {strconv.Itoa(max(offset, 0))},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Web.Results, nil
}

// LocationSearch 先查地点 ID, 再并行取详情和描述
func (c *BraveClient) LocationSearch(ctx context.Context, query string, count int) (*BraveLocationResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrParamsInvalid("搜索查询不能为空")
	}
	if count <= 0 {
		count = braveDefaultLocationCount
	}
	count = min(count, braveMaxCount)

	var out braveWebResponse
	err := c.get(ctx, "/web/search", map[string][]string{
		"q":             {query},
		"search_lang":   {"en"},
		"result_filter": {"locations"},
		"count":         {strconv.Itoa(count)},
	}, &out)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, loc := range out.Locations.Results {
		if loc.ID != "" {
			ids = append(ids, loc.ID)
		}
	}
	if len(ids) == 0 {
		web, err := c.WebSearch(ctx, query, count, 0)
		if err != nil {
			return nil, err
		}
		return &BraveLocationResult{Web: web}, nil
	}

	var (
		pois  bravePOIResponse
		descs braveDescriptionResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.get(gctx, "/local/pois", map[string][]string{"ids": ids}, &pois)
	})
	g.Go(func() error {
		return c.get(gctx, "/local/descriptions", map[string][]string{"ids": ids}, &descs)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range pois.Results {
		desc, ok := descs.Descriptions[pois.Results[i].ID]
		if !ok || desc == "" {
			desc = "暂无描述"
		}
		pois.Results[i].Description = desc
	}
	return &BraveLocationResult{POIs: pois.Results}, nil
}

// FormatBraveWeb 标题、描述、网址, 结果间空一行
func FormatBraveWeb(results []BraveWebResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("标题: %s\n描述: %s\n网址: %s", r.Title, r.Description, r.URL))
	}
	if len(blocks) == 0 {
		return "未找到相关结果"
	}
	return strings.Join(blocks, "\n\n")
}

// FormatBraveLocations 地点结果用 --- 分隔, 退回网页结果时沿用网页格式
func FormatBraveLocations(result *BraveLocationResult) string {
	var blocks []string
	if len(result.POIs) == 0 {
		for _, r := range result.Web {
			blocks = append(blocks, fmt.Sprintf("标题: %s\n描述: %s\n网址: %s", r.Title, r.Description, r.URL))
		}
	}
	for _, poi := range result.POIs {
		rating := "暂无"
		if poi.Rating.RatingValue != nil {
			rating = strconv.FormatFloat(*poi.Rating.RatingValue, 'f', -1, 64)
		}
		hours := strings.Join(poi.OpeningHours, ", ")
		blocks = append(blocks, strings.Join([]string{
			"名称: " + orDefault(poi.Name, "暂无"),
			"地址: " + orDefault(poi.Address.String(), "暂无"),
			"电话: " + orDefault(poi.Phone, "暂无"),
			fmt.Sprintf("评分: %s (%d条评论)", rating, poi.Rating.RatingCount),
			"价格范围: " + orDefault(poi.PriceRange, "暂无"),
			"营业时间: " + orDefault(hours, "暂无"),
			"描述: " + poi.Description,
		}, "\n"))
	}
	if len(blocks) == 0 {
		return "未找到相关结果"
	}
	return strings.Join(blocks, "\n---\n")
}

// String 非空部分用逗号连接
func (a BraveAddress) String() string {
	var parts []string
	for _, p := range []string{a.StreetAddress, a.AddressLocality, a.AddressRegion, a.PostalCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
