package util

// 秘塔站点
const (
	MetasoBaseURL       = "https://metaso.cn"
	MetasoSearchAPI     = MetasoBaseURL + "/api/searchV2"
	MetasoSessionAPI    = MetasoBaseURL + "/api/session"
	MetasoSearchPattern = MetasoSearchAPI + "*"
)

const MetasoUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

// FakeHeaders 页面请求附带的浏览器头
var FakeHeaders = map[string]string{
	"Accept":             "*/*",
	"Accept-Encoding":    "gzip, deflate, br, zstd",
	"Accept-Language":    "zh-CN,zh;q=0.9",
	"Origin":             MetasoBaseURL,
	"Sec-Ch-Ua":          `"Chromium";v="122", "Not(A:Brand";v="24", "Google Chrome";v="122"`,
	"Sec-Ch-Ua-Mobile":   "?0",
	"Sec-Ch-Ua-Platform": `"Windows"`,
	"Sec-Fetch-Dest":     "empty",
	"Sec-Fetch-Mode":     "cors",
	"Sec-Fetch-Site":     "same-origin",
	"User-Agent":         MetasoUserAgent,
}

// BrowserArgs 启动 chromium 的参数
var BrowserArgs = []string{
	"--no-sandbox",
	"--disable-setuid-sandbox",
	"--disable-dev-shm-usage",
	"--disable-extensions",
	"--hide-scrollbars",
	"--mute-audio",
	"--disable-gpu",
	"--disable-web-security",
	"--process-per-tab",
}

// HideWebdriverScript 隐藏自动化特征
const HideWebdriverScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => false });
window.navigator.chrome = { runtime: {} };
delete navigator.__proto__.webdriver;
`
