package browser

import (
	"sync"

	"github.com/go-rod/rod"
	"github.com/sirupsen/logrus"
	"github.com/xpzouying/headless_browser"
)

// Manager 管理唯一的浏览器实例。点赞页会话长期占用一个页面，
// 其它操作（如单独保存 cookies）需要等待它释放。
type Manager struct {
	mu       sync.Mutex
	cond     *sync.Cond
	browser  *headless_browser.Browser
	headless bool
	binPath  string
	inUse    bool
}

// NewManager 创建浏览器管理器
func NewManager(headless bool, binPath string) *Manager {
	m := &Manager{headless: headless, binPath: binPath}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// AcquireBrowser 获取浏览器实例，被占用时阻塞；使用完毕必须调用 release
func (m *Manager) AcquireBrowser() (*headless_browser.Browser, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.inUse {
		logrus.Info("⏳ 浏览器正在使用中，等待释放...")
		m.cond.Wait()
	}

	if m.browser == nil {
		logrus.Info("创建新的浏览器实例...")
		m.browser = NewBrowser(m.headless, WithBinPath(m.binPath))
	}
	m.inUse = true

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.inUse = false
			m.cond.Signal()
		})
	}
	return m.browser, release
}

// NewPageWithRelease 打开新页面，release 先关闭页面再释放浏览器
func (m *Manager) NewPageWithRelease() (*rod.Page, func()) {
	b, releaseBrowser := m.AcquireBrowser()

	page := b.NewPage()
	ConfigurePage(page)

	release := func() {
		if page != nil {
			_ = page.Close()
		}
		releaseBrowser()
	}
	return page, release
}

// Close 关闭浏览器实例
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		logrus.Info("关闭浏览器实例...")
		m.browser.Close()
		m.browser = nil
		m.inUse = false
	}
}
