// Package configs 保存进程级的运行参数（浏览器、数据目录）
package configs

import (
	"os"
	"path/filepath"
	"sync"
)

var (
	mu       sync.RWMutex
	headless = true
	binPath  string
	dataDir  string
)

func InitHeadless(h bool) {
	mu.Lock()
	defer mu.Unlock()
	headless = h
}

// IsHeadless 是否无头模式
func IsHeadless() bool {
	mu.RLock()
	defer mu.RUnlock()
	return headless
}

func SetBinPath(b string) {
	mu.Lock()
	defer mu.Unlock()
	binPath = b
}

func GetBinPath() string {
	mu.RLock()
	defer mu.RUnlock()
	return binPath
}

// SetDataDir 设置数据目录（settings.json、local.json、cookies.json 所在目录）
func SetDataDir(dir string) {
	mu.Lock()
	defer mu.Unlock()
	dataDir = dir
}

// GetDataDir 返回数据目录，未设置时使用 ~/.instagram-unlike，
// 取不到用户目录则退回到系统临时目录
func GetDataDir() string {
	mu.RLock()
	dir := dataDir
	mu.RUnlock()
	if dir != "" {
		return dir
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".instagram-unlike")
	}
	return filepath.Join(os.TempDir(), "instagram-unlike")
}
