// Package unlike 实现批量取消点赞的核心流程：
// 单轮 选择→取消点赞 的执行引擎（带重试退避），以及跨页面重载的运行/停止/恢复控制器。
package unlike

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound 页面上找不到需要的控件（Select / Unlike / Confirm 按钮）
var ErrNotFound = errors.New("control not found")

// Control 页面上可点击元素的不透明句柄
type Control interface {
	// Label 用于日志的简短描述
	Label() string
}

// PageAdapter 负责定位并操作页面控件，具体选择器策略对核心流程不可见。
// 找不到控件时返回包装了 ErrNotFound 的错误。
type PageAdapter interface {
	FindSelectControl(ctx context.Context) (Control, error)
	FindUnselectedItems(ctx context.Context, limit int) ([]Control, error)
	ClickItem(ctx context.Context, item Control) error
	FindUnlikeControl(ctx context.Context) (Control, error)
	FindConfirmControl(ctx context.Context) (Control, error)
}

// Reloader 触发整页重载。调用返回后当前进程实例的生命周期即告结束。
type Reloader interface {
	Reload(ctx context.Context) error
}

// IsNotFound 判断错误是否为控件缺失
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
