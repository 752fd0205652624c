package main

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xpzouying/instagram-unlike/browser"
	"github.com/xpzouying/instagram-unlike/configs"
	"github.com/xpzouying/instagram-unlike/cookies"
	"github.com/xpzouying/instagram-unlike/instagram"
	"github.com/xpzouying/instagram-unlike/kvstore"
	"github.com/xpzouying/instagram-unlike/session"
	"github.com/xpzouying/instagram-unlike/unlike"
)

// newLikesSession 打开浏览器页面和两个持久化命名空间，组装会话。
// 返回的 cleanup 会保存 cookies 并关闭浏览器。
func newLikesSession(dataDir string, autoStart bool) (*session.Session, func(), error) {
	settings, err := kvstore.OpenNamespace(dataDir, kvstore.NamespaceSettings)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open settings store")
	}
	local, err := kvstore.OpenNamespace(dataDir, kvstore.NamespaceLocal)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open local store")
	}
	logrus.WithFields(logrus.Fields{
		"settings": settings.Path(),
		"local":    local.Path(),
	}).Info("持久化存储已就绪")

	manager := browser.NewManager(configs.IsHeadless(), configs.GetBinPath())
	page, release := manager.NewPageWithRelease()

	sess := session.New(
		instagram.NewLikesPage(page),
		unlike.NewConfigStore(settings),
		unlike.NewRunStateStore(local),
		unlike.NewBroadcaster(),
		session.WithAutoStart(autoStart),
	)

	cleanup := func() {
		cookiePath := cookies.GetCookiesFilePath()
		if err := browser.SavePageCookies(page, cookiePath); err != nil {
			logrus.WithError(err).Warn("保存 cookies 失败")
		} else {
			logrus.WithField("cookies_path", cookiePath).Info("cookies 已保存")
		}
		release()
		manager.Close()
	}
	return sess, cleanup, nil
}
