// Package instagram 在 Instagram「你的动态 → 点赞」页面上定位并操作控件。
// 选择器策略全部集中在这里，核心流程只依赖 unlike.PageAdapter 接口。
package instagram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xpzouying/instagram-unlike/unlike"
)

const (
	// LikesURL 点赞记录页面
	LikesURL = "https://www.instagram.com/your_activity/interactions/likes/"

	likesPathMarker = "your_activity/interactions/likes"
)

// 页面控件的识别规则，集中定义便于在改版时统一维护
var (
	// itemSelectors 点赞条目上的复选框
	itemSelectors = []string{
		`[aria-label="Toggle checkbox"]`,
		`[role="checkbox"]`,
		`input[type="checkbox"]`,
		`svg[fill="#8E8E8E"]`,
		`svg[fill="#8e8e8e"]`,
		`[data-testid="checkbox"]`,
		`.checkbox`,
		`[aria-pressed="false"]`,
	}

	// unlikeTexts Unlike 按钮的多语言文案
	unlikeTexts = []string{
		"Unlike", "Remove like", "Gefällt mir nicht mehr",
		"No me gusta", "Je n'aime plus", "Non mi piace più",
		"Curtir", "Descurtir",
	}

	// confirmTexts 确认弹窗按钮的多语言文案
	confirmTexts = []string{
		"Confirm", "Remove", "Delete", "Yes", "OK",
		"Bestätigen", "Confirmar", "Conferma", "Oui",
	}
)

// scrollSettle 滚动到条目后等待的时间
const scrollSettle = 50 * time.Millisecond

// element 包装 rod 元素，实现 unlike.Control
type element struct {
	el    *rod.Element
	label string
}

func (e *element) Label() string {
	return e.label
}

// LikesPage 基于 go-rod 的 PageAdapter / Reloader 实现
type LikesPage struct {
	page    *rod.Page
	sleeper unlike.Sleeper
}

// NewLikesPage 创建点赞页适配器
func NewLikesPage(page *rod.Page) *LikesPage {
	return &LikesPage{page: page, sleeper: unlike.RealSleeper}
}

var (
	_ unlike.PageAdapter = (*LikesPage)(nil)
	_ unlike.Reloader    = (*LikesPage)(nil)
)

// IsLikesURL 判断 URL 是否为点赞记录页
func IsLikesURL(url string) bool {
	return strings.Contains(url, likesPathMarker)
}

// EnsureLikesPage 当前不在点赞页时跳转过去
func (p *LikesPage) EnsureLikesPage(ctx context.Context) error {
	page := p.page.Context(ctx)

	info, err := page.Info()
	if err == nil && IsLikesURL(info.URL) {
		logrus.Info("Instagram bulk unlike loaded and ready on likes page")
		return nil
	}

	logrus.WithField("url", LikesURL).Info("not on likes page, navigating")
	if err := page.Navigate(LikesURL); err != nil {
		return errors.Wrap(err, "navigate to likes page")
	}
	return nil
}

// WaitLoaded 等待页面加载完成（每次重载后由会话调用）
func (p *LikesPage) WaitLoaded(ctx context.Context) error {
	page := p.page.Context(ctx)
	if err := page.WaitLoad(); err != nil {
		return errors.Wrap(err, "wait page load")
	}
	if err := page.WaitDOMStable(time.Second, 0); err != nil {
		logrus.WithError(err).Debug("DOM 未稳定，继续执行")
	}
	return nil
}

// Reload 整页重载
func (p *LikesPage) Reload(ctx context.Context) error {
	return errors.Wrap(p.page.Context(ctx).Reload(), "reload page")
}

// FindSelectControl 依次尝试 aria-label、按钮文案、span 文案
func (p *LikesPage) FindSelectControl(ctx context.Context) (unlike.Control, error) {
	return p.find(ctx, "select button", `() => {
		let btn = document.querySelector('[aria-label="Select"]');
		if (btn) return btn;

		btn = Array.from(document.querySelectorAll('button, [role="button"]')).find((b) =>
			b.textContent.trim().toLowerCase().includes('select'));
		if (btn) return btn;

		const span = Array.from(document.querySelectorAll('span')).find((s) =>
			s.textContent.trim().toLowerCase() === 'select');
		if (span) return span.closest('button') || span.closest('[role="button"]');
		return null;
	}`)
}

// FindUnselectedItems 收集所有复选框，去重并过滤掉已选中的，最多返回 limit 个
func (p *LikesPage) FindUnselectedItems(ctx context.Context, limit int) ([]unlike.Control, error) {
	els, err := p.page.Context(ctx).ElementsByJS(rod.Eval(`(selectors, limit) => {
		let all = [];
		for (const sel of selectors) {
			try {
				all = all.concat(Array.from(document.querySelectorAll(sel)));
			} catch (e) {}
		}
		all = Array.from(new Set(all));

		const unselected = all.filter((cb) => {
			const fill = cb.getAttribute('fill');
			const selected =
				cb.getAttribute('aria-pressed') === 'true' ||
				cb.getAttribute('aria-checked') === 'true' ||
				getComputedStyle(cb).backgroundColor.includes('rgb(24, 119, 242)') ||
				fill === '#1877f2' ||
				fill === 'rgb(24, 119, 242)';
			return !selected;
		});
		return unselected.slice(0, limit);
	}`, itemSelectors, limit))
	if err != nil {
		return nil, errors.Wrap(err, "query checkboxes")
	}

	items := make([]unlike.Control, 0, len(els))
	for i, el := range els {
		items = append(items, &element{el: el, label: fmt.Sprintf("item-%d", i)})
	}
	logrus.Debugf("找到 %d 个未选中的条目", len(items))
	return items, nil
}

// ClickItem 滚动到元素并点击。鼠标点击失败时退回到派发 click 事件（svg 复选框）。
func (p *LikesPage) ClickItem(ctx context.Context, item unlike.Control) error {
	e, ok := item.(*element)
	if !ok {
		return errors.Errorf("unexpected control type %T", item)
	}
	el := e.el.Context(ctx)

	if err := el.ScrollIntoView(); err != nil {
		logrus.WithError(err).Debugf("滚动到 %s 失败", e.label)
	}
	if err := p.settle(ctx); err != nil {
		return err
	}

	err := el.Click(proto.InputMouseButtonLeft, 1)
	if err == nil {
		return nil
	}
	logrus.WithError(err).Debugf("鼠标点击 %s 失败，改用事件派发", e.label)

	_, err = el.Eval(`() => this.dispatchEvent(new MouseEvent('click', {bubbles: true, cancelable: true}))`)
	return errors.Wrapf(err, "click %s", e.label)
}

// settle 滚动后等待页面稳定，页面卸载时立即返回
func (p *LikesPage) settle(ctx context.Context) error {
	return errors.Wrap(p.sleeper.Sleep(ctx, scrollSettle), "wait after scroll")
}

// FindUnlikeControl 按多语言文案在 span、button、aria-label 中查找
func (p *LikesPage) FindUnlikeControl(ctx context.Context) (unlike.Control, error) {
	return p.find(ctx, "unlike button", `(texts) => {
		const lower = texts.map((t) => t.toLowerCase());
		const matches = (s) => lower.some((t) => (s || '').toLowerCase().includes(t));

		let btn = Array.from(document.querySelectorAll('span')).find((el) => matches(el.textContent.trim()));
		if (btn) return btn;

		btn = Array.from(document.querySelectorAll('button')).find((el) => matches(el.textContent));
		if (btn) return btn;

		return Array.from(document.querySelectorAll('[aria-label]')).find((el) =>
			matches(el.getAttribute('aria-label'))) || null;
	}`, unlikeTexts)
}

// FindConfirmControl 查找确认弹窗里的按钮，没有弹窗时返回 NotFound
func (p *LikesPage) FindConfirmControl(ctx context.Context) (unlike.Control, error) {
	return p.find(ctx, "confirm button", `(texts) => {
		const lower = texts.map((t) => t.toLowerCase());
		return Array.from(document.querySelectorAll('button')).find((btn) =>
			lower.some((t) => btn.textContent.toLowerCase().includes(t))) || null;
	}`, confirmTexts)
}

// find 执行查找脚本，脚本返回 null 时立即返回 NotFound（不等待元素出现）
func (p *LikesPage) find(ctx context.Context, name, js string, args ...interface{}) (unlike.Control, error) {
	el, err := p.page.Context(ctx).Sleeper(rod.NotFoundSleeper).ElementByJS(rod.Eval(js, args...))
	if err != nil {
		var notFound *rod.ElementNotFoundError
		if errors.As(err, &notFound) {
			return nil, errors.Wrap(unlike.ErrNotFound, name)
		}
		return nil, errors.Wrapf(err, "find %s", name)
	}
	return &element{el: el, label: name}, nil
}
