package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/xapktool/xapktool-go/internal/archive"
	"github.com/xapktool/xapktool-go/internal/bundle"
	"github.com/xapktool/xapktool-go/internal/config"
	"github.com/xapktool/xapktool-go/internal/inspect"
	"github.com/xapktool/xapktool-go/internal/repository"
	"github.com/xapktool/xapktool-go/internal/service"
)

var (
	Version = "1.0.0"
)

func main() {
	configPath := flag.String("config", "", "path to config file (yaml)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: xapktool [--config config.yaml] <apk_obb_directory>")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := config.InitLogger(&cfg.Log)
	logger.Infof("xapktool %s", Version)

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

	outPath, err := svc.ProcessDirectory(context.Background(), flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(outPath)
}
