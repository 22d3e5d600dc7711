package domain

import (
	"time"
)

type BundleStatus string

const (
	BundleStatusSucceeded BundleStatus = "succeeded"
	BundleStatusFailed    BundleStatus = "failed"
)

// BundleRecord 一次 XAPK 构建的历史记录
type BundleRecord struct {
	ID             string       `gorm:"primaryKey;size:36" json:"id"`
	PackageName    string       `gorm:"size:255;index" json:"package_name"`
	AppName        string       `gorm:"size:255" json:"app_name"`
	VersionCode    int          `json:"version_code"`
	VersionName    string       `gorm:"size:64" json:"version_name"`
	TotalSize      int64        `json:"total_size"`
	SplitCount     int          `json:"split_count"`     // split 包数量 (不含 base)
	ExpansionCount int          `json:"expansion_count"` // OBB 数量
	SourceDir      string       `gorm:"size:1024" json:"source_dir"`
	OutputPath     string       `gorm:"size:1024" json:"output_path"`
	Status         BundleStatus `gorm:"size:16;index" json:"status"`
	ErrorMessage   string       `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}
