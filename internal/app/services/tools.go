package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"search-server/internal/app/models"
	"search-server/pkg/config"
)

// ToolProvider 一个搜索服务暴露的工具
type ToolProvider interface {
	Name() string
	Tools() []models.Tool
	Call(ctx context.Context, name string, args map[string]any) (string, error)
}

// Toolbox 当前启用的搜索服务, 调用前做限流
type Toolbox struct {
	provider ToolProvider
	limiter  Limiter
}

func NewToolbox(provider ToolProvider, limiter Limiter) *Toolbox {
	return &Toolbox{provider: provider, limiter: limiter}
}

func (t *Toolbox) Provider() string {
	return t.provider.Name()
}

func (t *Toolbox) Tools() []models.Tool {
	return t.provider.Tools()
}

// Call 按名称调用工具
func (t *Toolbox) Call(ctx context.Context, name string, args map[string]any) (models.ToolResult, error) {
	if t.limiter != nil {
		if err := t.limiter.Allow(ctx, t.provider.Name()); err != nil {
			return models.ToolResult{}, err
		}
	}
	text, err := t.provider.Call(ctx, name, args)
	if err != nil {
		log.WithFields(log.Fields{"provider": t.provider.Name(), "tool": name}).Warnf("tool call failed: %v", err)
		return models.ToolResult{}, err
	}
	return models.TextResult(text), nil
}

func queryArg(args map[string]any) (string, error) {
	q, ok := args["query"].(string)
	if !ok || strings.TrimSpace(q) == "" {
		return "", ErrParamsInvalid("缺少query参数")
	}
	return q, nil
}

// intArg JSON 数字解码为 float64, 缺省时取 def
func intArg(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, ErrParamsInvalid("%s必须是整数", key)
		}
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, ErrParamsInvalid("%s必须是数字", key)
	}
}

func stringArg(args map[string]any, key, def string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", ErrParamsInvalid("%s必须是字符串", key)
	}
	return s, nil
}

func boolArg(args map[string]any, key string, def bool) (bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, ErrParamsInvalid("%s必须是布尔值", key)
	}
	return b, nil
}

func unsupportedTool(provider, name string) error {
	return ErrParamsInvalid("%s搜索不支持的工具: %s", provider, name)
}

// MetasoSearcher 秘塔阻塞搜索
type MetasoSearcher interface {
	Complete(ctx context.Context, query, model string) (*models.SearchResult, error)
}

// MetasoTools 网页搜索和学术搜索
type MetasoTools struct {
	client MetasoSearcher
}

func NewMetasoTools(client MetasoSearcher) *MetasoTools {
	return &MetasoTools{client: client}
}

func (p *MetasoTools) Name() string {
	return config.ProviderMetaso
}

func (p *MetasoTools) Tools() []models.Tool {
	modeSchema := map[string]any{
		"type":        "string",
		"description": "搜索模式(concise:简洁, detail:深入)",
		"enum":        []string{ModelConcise, ModelDetail},
		"default":     ModelDetail,
	}
	return []models.Tool{
		{
			Name: "search",
			Description: "执行网络搜索，查找网页、新闻、文章等在线内容。支持两种模式：\n" +
				"- 简洁模式：回答简短精炼\n- 深入模式：回答详细全面（默认）\n" +
				"返回内容包含主要内容和参考文献。（当前使用Metaso Search API实现）",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "搜索查询内容"},
					"mode":  modeSchema,
				},
				"required": []string{"query"},
			},
		},
		{
			Name: "scholar_search",
			Description: "执行学术搜索，专门用于查找学术论文、研究报告等学术资源。支持两种模式：\n" +
				"- 简洁模式：回答简短精炼\n- 深入模式：回答详细全面（默认）\n" +
				"返回内容包含主要内容和学术参考文献。（当前使用Metaso Search API实现）",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "学术搜索查询内容"},
					"mode":  modeSchema,
				},
				"required": []string{"query"},
			},
		},
	}
}

func (p *MetasoTools) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	var scholar bool
	switch name {
	case "search":
	case "scholar_search":
		scholar = true
	default:
		return "", unsupportedTool("Metaso", name)
	}

	query, err := queryArg(args)
	if err != nil {
		return "", err
	}
	mode, err := stringArg(args, "mode", ModelDetail)
	if err != nil {
		return "", err
	}
	if mode != ModelConcise && mode != ModelDetail {
		return "", ErrParamsInvalid("不支持的搜索模式: %s", mode)
	}
	model, err := ResolveModel(mode, scholar)
	if err != nil {
		return "", err
	}

	result, err := p.client.Complete(ctx, query, model)
	if err != nil {
		return "", err
	}
	return FormatMetasoResult(result)
}

// BochaTools 博查网页搜索
type BochaTools struct {
	client *BochaClient
}

func NewBochaTools(client *BochaClient) *BochaTools {
	return &BochaTools{client: client}
}

func (p *BochaTools) Name() string {
	return config.ProviderBocha
}

func (p *BochaTools) Tools() []models.Tool {
	return []models.Tool{{
		Name: "search",
		Description: "执行网页搜索，从全网搜索任何网页信息和网页链接。结果准确、摘要完整，更适合AI使用。支持以下特性：\n" +
			"- 时间范围过滤\n- 显示详细摘要\n- 分页获取\n" +
			"每次请求最多返回10个结果。（当前使用博查搜索API实现）",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string", "description": "搜索查询内容"},
				"count": map[string]any{"type": "number", "description": "结果数量(1-10，默认10)", "default": bochaDefaultCount},
				"page":  map[string]any{"type": "number", "description": "页码，从1开始", "default": 1},
				"freshness": map[string]any{
					"type":        "string",
					"description": "时间范围(noLimit:不限, oneDay:一天内, oneWeek:一周内, oneMonth:一月内, oneYear:一年内)",
					"enum":        freshnessRanges,
					"default":     FreshnessNoLimit,
				},
				"summary": map[string]any{"type": "boolean", "description": "是否显示详细摘要", "default": false},
			},
			"required": []string{"query"},
		},
	}}
}

func (p *BochaTools) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	if name != "search" {
		return "", unsupportedTool("博查", name)
	}
	params, err := bochaParams(args)
	if err != nil {
		return "", err
	}
	resp, err := p.client.WebSearch(ctx, params)
	if err != nil {
		return "", err
	}
	return FormatBochaResult(params, resp), nil
}

func bochaParams(args map[string]any) (BochaSearchParams, error) {
	var (
		params BochaSearchParams
		err    error
	)
	if params.Query, err = queryArg(args); err != nil {
		return params, err
	}
	if params.Count, err = intArg(args, "count", bochaDefaultCount); err != nil {
		return params, err
	}
	if params.Page, err = intArg(args, "page", 1); err != nil {
		return params, err
	}
	if params.Freshness, err = stringArg(args, "freshness", FreshnessNoLimit); err != nil {
		return params, err
	}
	if params.Summary, err = boolArg(args, "summary", false); err != nil {
		return params, err
	}
	return params, params.Normalize()
}

// BraveTools 网页搜索和地点搜索
type BraveTools struct {
	client *BraveClient
}

func NewBraveTools(client *BraveClient) *BraveTools {
	return &BraveTools{client: client}
}

func (p *BraveTools) Name() string {
	return config.ProviderBrave
}

func (p *BraveTools) Tools() []models.Tool {
	return []models.Tool{
		{
			Name: "search",
			Description: "执行网络搜索，查找网页、新闻、文章等在线内容。适合广泛的信息收集、近期事件，或需要多样化网络来源时使用。" +
				"支持分页、内容过滤和时效性控制。每次请求最多返回20个结果，支持分页偏移。（当前使用Brave Search API实现）",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query":  map[string]any{"type": "string", "description": "搜索查询(最多400字符，50个词)"},
					"count":  map[string]any{"type": "number", "description": "结果数量(1-20，默认10)", "default": braveDefaultCount},
					"offset": map[string]any{"type": "number", "description": "分页偏移量(最大9，默认0)", "default": 0},
				},
				"required": []string{"query"},
			},
		},
		{
			Name: "location_search",
			Description: "搜索地理位置相关的信息，如商家、餐厅、服务等。返回详细信息包括:\n" +
				"- 商家名称和地址\n- 评分和评论数\n- 电话号码和营业时间\n" +
				"适用于查询特定地点或位置相关的信息，如果没有找到相关结果会自动切换到普通网络搜索。（当前使用Brave Search API实现）",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "位置搜索查询(例如:'上海东方明珠附近的餐厅')"},
					"count": map[string]any{"type": "number", "description": "结果数量(1-20，默认5)", "default": braveDefaultLocationCount},
				},
				"required": []string{"query"},
			},
		},
	}
}

func (p *BraveTools) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	query, err := queryArg(args)
	if err != nil {
		return "", err
	}
	switch name {
	case "search":
		count, err := intArg(args, "count", braveDefaultCount)
		if err != nil {
			return "", err
		}
		offset, err := intArg(args, "offset", 0)
		if err != nil {
			return "", err
		}
		results, err := p.client.WebSearch(ctx, query, count, offset)
		if err != nil {
			return "", err
		}
		return FormatBraveWeb(results), nil
	case "location_search":
		count, err := intArg(args, "count", braveDefaultLocationCount)
		if err != nil {
			return "", err
		}
		result, err := p.client.LocationSearch(ctx, query, count)
		if err != nil {
			return "", err
		}
		return FormatBraveLocations(result), nil
	default:
		return "", unsupportedTool("Brave", name)
	}
}

// NewToolProvider 按配置选择搜索服务
func NewToolProvider(name string, metaso MetasoSearcher) (ToolProvider, error) {
	switch name {
	case config.ProviderMetaso, "":
		return NewMetasoTools(metaso), nil
	case config.ProviderBocha:
		return NewBochaTools(NewBochaClient(config.GetBochaConf())), nil
	case config.ProviderBrave:
		return NewBraveTools(NewBraveClient(config.GetBraveConf())), nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", name)
	}
}
