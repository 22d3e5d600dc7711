package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xapktool/xapktool-go/internal/archive"
	"github.com/xapktool/xapktool-go/internal/bundle"
	"github.com/xapktool/xapktool-go/internal/config"
	"github.com/xapktool/xapktool-go/internal/inspect"
	"github.com/xapktool/xapktool-go/internal/repository"
	"github.com/xapktool/xapktool-go/internal/service"
	"github.com/xapktool/xapktool-go/internal/watcher"
)

func main() {
	configPath := flag.String("config", "", "path to config file (yaml)")
	flag.Parse()

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

	handler := func(ctx context.Context, dir string) error {
		out, err := svc.ProcessDirectory(ctx, dir)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	debounce := time.Duration(cfg.Watcher.DebounceSeconds) * time.Second
	dw, err := watcher.NewDirWatcher(cfg.Watcher.Dir, debounce, handler, logger)
	if err != nil {
		logger.Fatalf("Failed to create watcher: %v", err)
	}
	defer dw.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dw.Start(ctx)
	logger.WithField("dir", cfg.Watcher.Dir).Info("Watching for bundle directories, Ctrl+C to stop")

	<-ctx.Done()
	logger.Info("Shutting down")
}
