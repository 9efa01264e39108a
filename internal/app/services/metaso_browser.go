package services

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"

	"github.com/playwright-community/playwright-go"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"search-server/internal/pkg/answer"
	"search-server/pkg/config"
	"search-server/pkg/util"
)

// metasoBrowser 秘塔页面上的操作, 调用方持有会话锁后串行使用
type metasoBrowser interface {
	// CreateConversation 创建会话, 返回会话 ID
	CreateConversation(query, model string) (string, error)
	// Navigate 打开搜索页, 触发 searchV2 请求
	Navigate(conversationID, query string) error
	// Source 拦截 searchV2 响应的数据源
	Source() (answer.Source, error)
	Close() error
}

// createConversationJS 在页面里发起建会话请求, 带上页面的 cookie
const createConversationJS = `
async (args) => {
    try {
        const response = await fetch(args.url, {
            method: 'POST',
            headers: args.headers,
            body: JSON.stringify(args.data),
            credentials: 'include'
        });
        if (!response.ok) {
            return null;
        }
        const result = await response.json();
        if (result.errCode) {
            return null;
        }
        return result;
    } catch (error) {
        return null;
    }
}
`

// playwrightBrowser 用持久化上下文打开秘塔, 首次使用时启动
type playwrightBrowser struct {
	conf config.Metaso

	mu        sync.Mutex
	installed bool
	pw        *playwright.Playwright
	context   playwright.BrowserContext
	page      playwright.Page
	cdp       playwright.CDPSession
	source    *CDPStreamSource
	metaToken string
}

func newPlaywrightBrowser(conf config.Metaso) *playwrightBrowser {
	return &playwrightBrowser{conf: conf}
}

// 确保 Playwright 已安装
func (b *playwrightBrowser) ensurePlaywrightInstalled() error {
	if b.installed {
		return nil
	}
	if err := playwright.Install(); err != nil {
		return fmt.Errorf("安装 Playwright 失败: %w", err)
	}
	b.installed = true
	return nil
}

// browserHandles 持锁时取出的页面句柄, 之后并发的 Close 不影响本次调用
type browserHandles struct {
	page      playwright.Page
	source    *CDPStreamSource
	metaToken string
}

// ensure 启动浏览器、写入 cookie、开启 CDP 拦截并取得 meta token
func (b *playwrightBrowser) ensure() (browserHandles, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.page == nil {
		if err := b.start(); err != nil {
			b.cleanupLocked()
			return browserHandles{}, err
		}
	}
	return browserHandles{page: b.page, source: b.source, metaToken: b.metaToken}, nil
}

func (b *playwrightBrowser) start() error {
	if err := b.ensurePlaywrightInstalled(); err != nil {
		return fmt.Errorf("Playwright 初始化失败: %w", err)
	}
	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("启动 Playwright 失败: %w", err)
	}
	b.pw = pw

	if err := os.MkdirAll(b.conf.BrowserDataDir, 0o755); err != nil {
		return fmt.Errorf("创建浏览器数据目录失败: %w", err)
	}
	ctx, err := pw.Chromium.LaunchPersistentContext(b.conf.BrowserDataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:          playwright.Bool(b.conf.Headless),
		IgnoreHttpsErrors: playwright.Bool(true),
		UserAgent:         playwright.String(util.MetasoUserAgent),
		NoViewport:        playwright.Bool(true),
		Args:              util.BrowserArgs,
	})
	if err != nil {
		return fmt.Errorf("启动浏览器失败: %w", err)
	}
	b.context = ctx
	log.Infoln("浏览器启动成功")

	page, err := ctx.NewPage()
	if err != nil {
		return fmt.Errorf("创建页面失败: %w", err)
	}
	b.page = page

	if err := page.AddInitScript(playwright.Script{Content: playwright.String(util.HideWebdriverScript)}); err != nil {
		return fmt.Errorf("注入脚本失败: %w", err)
	}
	if err := page.SetExtraHTTPHeaders(util.FakeHeaders); err != nil {
		return fmt.Errorf("设置请求头失败: %w", err)
	}
	if err := ctx.AddCookies([]playwright.OptionalCookie{
		{Name: "uid", Value: b.conf.UID, URL: playwright.String(util.MetasoBaseURL)},
		{Name: "sid", Value: b.conf.SID, URL: playwright.String(util.MetasoBaseURL)},
	}); err != nil {
		return fmt.Errorf("设置 cookie 失败: %w", err)
	}

	cdp, err := ctx.NewCDPSession(page)
	if err != nil {
		return fmt.Errorf("创建 CDP 会话失败: %w", err)
	}
	b.cdp = cdp
	if _, err := cdp.Send("Fetch.enable", map[string]interface{}{
		"patterns": []map[string]interface{}{
			{"urlPattern": util.MetasoSearchPattern, "requestStage": "Response"},
		},
	}); err != nil {
		return fmt.Errorf("开启响应拦截失败: %w", err)
	}
	b.source = NewCDPStreamSource(cdp, b.conf.ReadSize)

	token, err := b.fetchMetaToken()
	if err != nil {
		return err
	}
	b.metaToken = token
	log.Infoln("秘塔页面初始化完成")
	return nil
}

// fetchMetaToken 打开首页读取 meta#meta-token, 元素不要求可见
func (b *playwrightBrowser) fetchMetaToken() (string, error) {
	if _, err := b.page.Goto(util.MetasoBaseURL); err != nil {
		return "", fmt.Errorf("打开秘塔首页失败: %w", err)
	}
	el, err := b.page.WaitForSelector("meta#meta-token", playwright.PageWaitForSelectorOptions{
		State: playwright.WaitForSelectorStateAttached,
	})
	if err != nil {
		return "", fmt.Errorf("等待 meta token 失败: %w", err)
	}
	token, err := el.GetAttribute("content")
	if err != nil {
		return "", fmt.Errorf("读取 meta token 失败: %w", err)
	}
	if token == "" {
		return "", errors.New("meta token 为空")
	}
	return token, nil
}

func (b *playwrightBrowser) CreateConversation(query, model string) (string, error) {
	h, err := b.ensure()
	if err != nil {
		return "", err
	}

	headers := make(map[string]string, len(util.FakeHeaders)+6)
	for k, v := range util.FakeHeaders {
		headers[k] = v
	}
	headers["Content-Type"] = "application/json"
	headers["Token"] = h.metaToken
	headers["Is-Mini-Webview"] = "0"
	headers["Cookie"] = fmt.Sprintf("uid=%s; sid=%s", b.conf.UID, b.conf.SID)
	headers["Referer"] = util.MetasoBaseURL + "/"

	res, err := h.page.Evaluate(createConversationJS, map[string]interface{}{
		"url":     util.MetasoSessionAPI,
		"headers": headers,
		"data": map[string]interface{}{
			"question":            query,
			"mode":                model,
			"engineType":          "",
			"scholarSearchDomain": "all",
		},
	})
	if err != nil {
		return "", fmt.Errorf("创建会话失败: %w", err)
	}
	id := gjson.Get(util.GetJson(res), "data.id").String()
	if id == "" {
		return "", errors.New("创建会话失败: 响应中没有会话ID")
	}
	return id, nil
}

func (b *playwrightBrowser) Navigate(conversationID, query string) error {
	h, err := b.ensure()
	if err != nil {
		return err
	}
	// 响应体被拦截, 只等到导航提交
	_, err = h.page.Goto(searchURL(conversationID, query), playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateCommit,
	})
	if err != nil {
		return fmt.Errorf("打开搜索页失败: %w", err)
	}
	return nil
}

func (b *playwrightBrowser) Source() (answer.Source, error) {
	h, err := b.ensure()
	if err != nil {
		return nil, err
	}
	return h.source, nil
}

// Close 关闭页面和浏览器, 下次使用时重新启动
func (b *playwrightBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleanupLocked()
	return nil
}

func (b *playwrightBrowser) cleanupLocked() {
	if b.cdp != nil {
		if err := b.cdp.Detach(); err != nil {
			log.Warnf("detach cdp session: %v", err)
		}
	}
	if b.page != nil {
		_ = b.page.Close()
	}
	if b.context != nil {
		_ = b.context.Close()
	}
	if b.pw != nil {
		_ = b.pw.Stop()
	}
	b.cdp, b.page, b.context, b.pw, b.source = nil, nil, nil, nil, nil
	b.metaToken = ""
}

func searchURL(conversationID, query string) string {
	return fmt.Sprintf("%s/search/%s?q=%s", util.MetasoBaseURL, url.PathEscape(conversationID), url.QueryEscape(query))
}
