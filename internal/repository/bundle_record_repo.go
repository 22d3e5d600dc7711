package repository

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/xapktool/xapktool-go/internal/domain"
)

type BundleRecordRepository interface {
	Create(ctx context.Context, record *domain.BundleRecord) error
	FindByID(ctx context.Context, id string) (*domain.BundleRecord, error)
	List(ctx context.Context, limit int) ([]*domain.BundleRecord, error)
	ListByPackage(ctx context.Context, packageName string) ([]*domain.BundleRecord, error)
	// 获取各状态构建数量统计（使用数据库聚合查询）
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type bundleRecordRepo struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewBundleRecordRepository(db *gorm.DB, logger *logrus.Logger) BundleRecordRepository {
	return &bundleRecordRepo{
		db:     db,
		logger: logger,
	}
}

func (r *bundleRecordRepo) Create(ctx context.Context, record *domain.BundleRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *bundleRecordRepo) FindByID(ctx context.Context, id string) (*domain.BundleRecord, error) {
	var record domain.BundleRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *bundleRecordRepo) List(ctx context.Context, limit int) ([]*domain.BundleRecord, error) {
	var records []*domain.BundleRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (r *bundleRecordRepo) ListByPackage(ctx context.Context, packageName string) ([]*domain.BundleRecord, error) {
	var records []*domain.BundleRecord
	err := r.db.WithContext(ctx).
		Where("package_name = ?", packageName).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

func (r *bundleRecordRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&domain.BundleRecord{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
