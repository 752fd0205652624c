// Package cookies 负责浏览器 cookies 文件的读写，保持登录状态
package cookies

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/xpzouying/instagram-unlike/configs"
)

type loadCookie struct {
	filePath string
}

// NewLoadCookie 创建指定路径的 cookies 读写器
func NewLoadCookie(filePath string) *loadCookie {
	return &loadCookie{filePath: filePath}
}

// LoadCookies 读取 cookies 文件
func (c *loadCookie) LoadCookies() ([]byte, error) {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read cookies from file")
	}
	return data, nil
}

// SaveCookies 写入 cookies 文件
func (c *loadCookie) SaveCookies(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(c.filePath), 0750); err != nil {
		return errors.Wrap(err, "failed to create cookies directory")
	}
	return errors.Wrap(os.WriteFile(c.filePath, data, 0600), "failed to write cookies")
}

// GetCookiesFilePath 获取 cookies 文件路径。
// 优先使用环境变量 COOKIES_PATH，否则放在数据目录下。
func GetCookiesFilePath() string {
	if path := os.Getenv("COOKIES_PATH"); path != "" {
		return path
	}
	return filepath.Join(configs.GetDataDir(), "cookies.json")
}
