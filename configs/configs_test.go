package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataDir(t *testing.T) {
	SetDataDir("")
	assert.NotEmpty(t, GetDataDir())

	dir := t.TempDir()
	SetDataDir(dir)
	t.Cleanup(func() { SetDataDir("") })
	assert.Equal(t, dir, GetDataDir())
}

func TestBrowserFlags(t *testing.T) {
	InitHeadless(false)
	SetBinPath("/usr/bin/chromium")
	t.Cleanup(func() {
		InitHeadless(true)
		SetBinPath("")
	})

	assert.False(t, IsHeadless())
	assert.Equal(t, "/usr/bin/chromium", GetBinPath())
}

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
	})

	assert.Error(t, InitLogger("verbose", ""))

	file := filepath.Join(t.TempDir(), "unlike.log")
	require.NoError(t, InitLogger("debug", file))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	logrus.Info("hello")
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
