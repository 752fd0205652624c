package browser

import (
	"encoding/json"
	"runtime"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xpzouying/headless_browser"
	"github.com/xpzouying/instagram-unlike/cookies"
)

type browserConfig struct {
	binPath    string
	cookiePath string
}

type Option func(*browserConfig)

func WithBinPath(binPath string) Option {
	return func(c *browserConfig) {
		c.binPath = binPath
	}
}

// WithCookiesPath 指定启动时加载的 cookies 文件，Instagram 登录态依赖它
func WithCookiesPath(path string) Option {
	return func(c *browserConfig) {
		c.cookiePath = path
	}
}

// NewBrowser 创建浏览器实例，并尝试注入已保存的 Instagram 登录 cookies
func NewBrowser(headless bool, options ...Option) *headless_browser.Browser {
	cfg := &browserConfig{}
	for _, opt := range options {
		opt(cfg)
	}

	opts := []headless_browser.Option{
		headless_browser.WithHeadless(headless),
	}
	if cfg.binPath != "" {
		opts = append(opts, headless_browser.WithChromeBinPath(cfg.binPath))
	}

	cookiePath := cfg.cookiePath
	if cookiePath == "" {
		cookiePath = cookies.GetCookiesFilePath()
	}

	if data, err := cookies.NewLoadCookie(cookiePath).LoadCookies(); err == nil {
		opts = append(opts, headless_browser.WithCookies(string(data)))
		logrus.WithField("cookies_path", cookiePath).Debug("loaded cookies from file successfully")
	} else {
		logrus.WithField("cookies_path", cookiePath).Warnf("failed to load cookies, login required: %v", err)
	}

	return headless_browser.New(opts...)
}

// ConfigurePage 页面级补丁：Windows 下修正 stealth 伪装出的 Mac UA
func ConfigurePage(page *rod.Page) {
	if runtime.GOOS != "windows" {
		return
	}

	ua := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// 页面已关闭时会失败，不影响主流程
	_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: ua,
		Platform:  "Windows",
	})

	if _, err := page.EvalOnNewDocument(`
		Object.defineProperty(navigator, 'platform', { get: () => 'Win32' });
		Object.defineProperty(navigator, 'userAgent', { get: () => '` + ua + `' });
	`); err != nil {
		logrus.Warnf("failed to set user agent script: %v", err)
	}
}

// SavePageCookies 把当前浏览器的 cookies 写回文件，下次启动免登录
func SavePageCookies(page *rod.Page, cookiePath string) error {
	cks, err := page.Browser().GetCookies()
	if err != nil {
		return errors.Wrap(err, "get browser cookies")
	}

	data, err := json.Marshal(cks)
	if err != nil {
		return errors.Wrap(err, "encode cookies")
	}

	return cookies.NewLoadCookie(cookiePath).SaveCookies(data)
}
