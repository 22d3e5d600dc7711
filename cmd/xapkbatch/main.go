package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/xapktool/xapktool-go/internal/archive"
	"github.com/xapktool/xapktool-go/internal/bundle"
	"github.com/xapktool/xapktool-go/internal/config"
	"github.com/xapktool/xapktool-go/internal/inspect"
	"github.com/xapktool/xapktool-go/internal/repository"
	"github.com/xapktool/xapktool-go/internal/service"
	"github.com/xapktool/xapktool-go/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "path to config file (yaml)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: xapkbatch [--config config.yaml] <root_directory>")
		os.Exit(2)
	}
	root := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := config.InitLogger(&cfg.Log)

	var records repository.BundleRecordRepository
	if cfg.Database.Enabled {
		db, err := repository.InitDB(&cfg.Database, logger)
		if err != nil {
			logger.Fatalf("Failed to init database: %v", err)
		}
		records = repository.NewBundleRecordRepository(db, logger)
	}

	inspector := inspect.NewAPKInspector(logger)
	builder := bundle.NewBuilder(inspector, cfg.Bundler.MaxIconDensity, logger)
	svc := service.NewBundleService(builder, archive.NewAssembler(logger), records, logger)

	// 收集候选源目录: 含 base.apk 的直接子目录
	dirs, err := candidateDirs(root)
	if err != nil {
		logger.Fatalf("Failed to scan %s: %v", root, err)
	}
	if len(dirs) == 0 {
		logger.Fatalf("No bundle directories found under %s", root)
	}
	logger.Infof("Found %d bundle directories", len(dirs))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := worker.NewPool(cfg.Worker.Concurrency, cfg.Worker.QueueSize, svc, logger)
	pool.Start(ctx)

	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0
	for i, dir := range dirs {
		wg.Add(1)
		task := &worker.Task{ID: fmt.Sprintf("batch-%d", i), SourceDir: dir}
		go func() {
			defer wg.Done()
			if err := pool.SubmitAndWait(ctx, task); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	pool.Stop() // 任务已全部完成, 收编所有 Worker 再退出

	logger.Infof("Batch finished: %d succeeded, %d failed", len(dirs)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// candidateDirs 返回 root 下所有包含 base.apk 的直接子目录
func candidateDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, bundle.BasePackageName)); err == nil {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}
