package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DirHandler 目录处理函数: 收到一个准备好的 bundle 源目录
type DirHandler func(ctx context.Context, dir string) error

// DirWatcher 监控投放根目录, 发现新的 bundle 源目录后交给处理函数
// 源目录被认为"准备好"的条件是包含 base.apk 且总大小在短时间内稳定
type DirWatcher struct {
	watcher  *fsnotify.Watcher
	watchDir string
	handler  DirHandler
	logger   *logrus.Logger
	debounce time.Duration // 防抖时间

	// mu 同时保护 processing 和 timers:
	// 两者都会被防抖回调的 goroutine 和事件循环并发访问
	mu         sync.Mutex
	processing map[string]bool
	timers     map[string]*time.Timer
}

// NewDirWatcher 创建目录监控器
func NewDirWatcher(watchDir string, debounce time.Duration, handler DirHandler, logger *logrus.Logger) (*DirWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// 确保监控目录存在
	if err := os.MkdirAll(watchDir, 0755); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to create watch directory: %w", err)
	}

	if err := watcher.Add(watchDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to add watch directory: %w", err)
	}

	dw := &DirWatcher{
		watcher:    watcher,
		watchDir:   watchDir,
		handler:    handler,
		logger:     logger,
		debounce:   debounce,
		processing: make(map[string]bool),
		timers:     make(map[string]*time.Timer),
	}

	logger.WithField("watch_dir", watchDir).Info("Directory watcher created")
	return dw, nil
}

// Start 启动监控, 事件循环随 ctx 取消而退出
func (dw *DirWatcher) Start(ctx context.Context) {
	dw.logger.Info("Starting directory watcher")
	go dw.eventLoop(ctx)
}

// Close 关闭底层 watcher
func (dw *DirWatcher) Close() error {
	return dw.watcher.Close()
}

// eventLoop 事件循环
func (dw *DirWatcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			dw.logger.Info("Directory watcher context done")
			return

		case event, ok := <-dw.watcher.Events:
			if !ok {
				dw.logger.Warn("Watcher events channel closed")
				return
			}

			// 只关心根目录下的创建和写入事件
			if event.Op&fsnotify.Create != fsnotify.Create &&
				event.Op&fsnotify.Write != fsnotify.Write {
				continue
			}

			// 事件目标可能是新子目录本身, 也可能是复制进子目录的文件;
			// 统一归一到投放根目录的直接子目录
			dir := dw.sourceDirFor(event.Name)
			if dir == "" {
				continue
			}

			dw.logger.WithFields(logrus.Fields{
				"event": event.Op.String(),
				"dir":   filepath.Base(dir),
			}).Debug("Directory event detected")

			// 防抖处理: 同一目录在短时间内多次触发只处理一次
			dw.scheduleDir(ctx, dir)

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				dw.logger.Warn("Watcher errors channel closed")
				return
			}
			dw.logger.WithError(err).Error("Watcher error")
		}
	}
}

// scheduleDir 重置目录的防抖定时器
// timers 的写入发生在事件循环, 删除发生在定时器回调的 goroutine,
// 两边都必须持锁, 否则并发写 map 会直接让进程崩溃
func (dw *DirWatcher) scheduleDir(ctx context.Context, dir string) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if timer, exists := dw.timers[dir]; exists {
		timer.Stop()
	}
	dw.timers[dir] = time.AfterFunc(dw.debounce, func() {
		dw.mu.Lock()
		delete(dw.timers, dir)
		dw.mu.Unlock()

		dw.handleDir(ctx, dir)
	})
}

// sourceDirFor 把事件路径归一到投放根目录的直接子目录, 无关路径返回空串
func (dw *DirWatcher) sourceDirFor(eventPath string) string {
	rel, err := filepath.Rel(dw.watchDir, eventPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}

	first := rel
	if idx := strings.IndexByte(filepath.ToSlash(rel), '/'); idx >= 0 {
		first = rel[:idx]
	}

	dir := filepath.Join(dw.watchDir, first)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return ""
	}
	return dir
}

// handleDir 处理一个候选源目录
func (dw *DirWatcher) handleDir(ctx context.Context, dir string) {
	dw.mu.Lock()
	if dw.processing[dir] {
		dw.mu.Unlock()
		dw.logger.WithField("dir", dir).Debug("Directory is already being processed")
		return
	}
	dw.processing[dir] = true
	dw.mu.Unlock()
	defer func() {
		dw.mu.Lock()
		delete(dw.processing, dir)
		dw.mu.Unlock()
	}()

	// base.apk 还没出现说明复制尚未开始或不是 bundle 目录
	if _, err := os.Stat(filepath.Join(dir, "base.apk")); err != nil {
		dw.logger.WithField("dir", dir).Debug("No base.apk yet, skipping")
		return
	}

	// 等待目录写入完成
	if err := dw.waitForDirReady(dir); err != nil {
		dw.logger.WithError(err).WithField("dir", dir).Error("Directory not ready")
		return
	}

	dw.logger.WithField("dir", dir).Info("Processing directory")

	if err := dw.handler(ctx, dir); err != nil {
		dw.logger.WithError(err).WithField("dir", dir).Error("Failed to process directory")
		return
	}

	dw.logger.WithField("dir", dir).Info("Directory processed successfully")
}

// waitForDirReady 等待目录内容稳定 (复制完成)
func (dw *DirWatcher) waitForDirReady(dir string) error {
	const maxAttempts = 10

	previous := int64(-1)
	for i := 0; i < maxAttempts; i++ {
		size, err := dirSize(dir)
		if err != nil {
			return err
		}
		if size == previous {
			return nil
		}
		previous = size
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("directory size did not stabilize after %d checks", maxAttempts)
}

// dirSize 目录下所有普通文件的大小总和
func dirSize(dir string) (int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}
