package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/xapktool/xapktool-go/internal/archive"
	"github.com/xapktool/xapktool-go/internal/bundle"
	"github.com/xapktool/xapktool-go/internal/domain"
	"github.com/xapktool/xapktool-go/internal/repository"
)

// BundleService 单个源目录到 .xapk 的完整转换流程
// 所有入口 (CLI / 批量 / 目录监控) 共用这一个实现
type BundleService struct {
	builder   *bundle.Builder
	assembler *archive.Assembler
	records   repository.BundleRecordRepository // 可为 nil, 表示不记录历史
	logger    *logrus.Logger
}

func NewBundleService(
	builder *bundle.Builder,
	assembler *archive.Assembler,
	records repository.BundleRecordRepository,
	logger *logrus.Logger,
) *BundleService {
	return &BundleService{
		builder:   builder,
		assembler: assembler,
		records:   records,
		logger:    logger,
	}
}

// ProcessDirectory 把一个源目录转换成 XAPK 归档, 返回归档路径
// 构建和落盘的任何失败都会中止转换并记入历史 (如果历史库开启)
func (s *BundleService) ProcessDirectory(ctx context.Context, dir string) (string, error) {
	s.logger.WithField("dir", dir).Info("Processing bundle directory")

	res, err := s.builder.Build(dir)
	if err != nil {
		s.record(ctx, nil, dir, "", err)
		return "", err
	}

	outPath, err := s.assembler.Assemble(res)
	s.record(ctx, res, dir, outPath, err)
	if err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"package_name": res.Package.PackageName,
		"archive":      outPath,
		"total_size":   res.Manifest.TotalSize,
	}).Info("Bundle created successfully")

	return outPath, nil
}

// record 把结果写入构建历史, 历史库关闭时不做任何事
// 记录失败只告警, 不影响转换结果
func (s *BundleService) record(ctx context.Context, res *bundle.Result, dir, outPath string, buildErr error) {
	if s.records == nil {
		return
	}

	rec := &domain.BundleRecord{
		ID:        uuid.New().String(),
		SourceDir: dir,
		Status:    domain.BundleStatusSucceeded,
		CreatedAt: time.Now().UTC(),
	}
	if buildErr != nil {
		rec.Status = domain.BundleStatusFailed
		rec.ErrorMessage = buildErr.Error()
	} else {
		rec.OutputPath = outPath
	}
	if res != nil {
		rec.PackageName = res.Package.PackageName
		rec.AppName = res.Package.AppName
		rec.VersionCode = res.Package.VersionCode
		rec.VersionName = res.Package.VersionName
		rec.TotalSize = res.Manifest.TotalSize
		rec.SplitCount = len(res.InputSet.SplitConfigs)
		rec.ExpansionCount = len(res.InputSet.Expansions)
	}

	if err := s.records.Create(ctx, rec); err != nil {
		s.logger.WithError(err).WithField("dir", dir).Warn("Failed to record bundle history")
	}
}
