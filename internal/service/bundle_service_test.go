package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/xapktool/xapktool-go/internal/archive"
	"github.com/xapktool/xapktool-go/internal/bundle"
	"github.com/xapktool/xapktool-go/internal/domain"
	"github.com/xapktool/xapktool-go/internal/repository"
)

// fakeInspector 合成的包检查协作者
type fakeInspector struct {
	pkg *bundle.PackageInfo
}

func (f *fakeInspector) Inspect(apkPath string) (*bundle.PackageInfo, error) {
	return f.pkg, nil
}

func (f *fakeInspector) Icon(apkPath string, maxDensity int) ([]byte, error) {
	return []byte("icon"), nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestService(t *testing.T, records repository.BundleRecordRepository) *BundleService {
	t.Helper()
	logger := testLogger()
	inspector := &fakeInspector{pkg: &bundle.PackageInfo{
		PackageName: "com.example.app",
		AppName:     "Example",
		VersionCode: 7,
		VersionName: "1.0",
	}}
	builder := bundle.NewBuilder(inspector, 0, logger)
	return NewBundleService(builder, archive.NewAssembler(logger), records, logger)
}

func newRecordsRepo(t *testing.T) repository.BundleRecordRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.BundleRecord{}))
	return repository.NewBundleRecordRepository(db, testLogger())
}

func writeSourceDir(t *testing.T, obbName string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.apk"), make([]byte, 100), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, obbName), make([]byte, 200), 0644))
	return dir
}

// TestBundleService_ProcessDirectory 测试端到端转换
func TestBundleService_ProcessDirectory(t *testing.T) {
	dir := writeSourceDir(t, "main.1.com.example.app.obb")
	svc := newTestService(t, nil) // 历史库关闭

	out, err := svc.ProcessDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "com.example.app_1.0.xapk"), out)

	_, statErr := os.Stat(out)
	assert.NoError(t, statErr)
}

// TestBundleService_RecordsSuccess 测试成功构建写入历史
func TestBundleService_RecordsSuccess(t *testing.T) {
	dir := writeSourceDir(t, "main.1.com.example.app.obb")
	records := newRecordsRepo(t)
	svc := newTestService(t, records)

	_, err := svc.ProcessDirectory(context.Background(), dir)
	require.NoError(t, err)

	list, err := records.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "com.example.app", list[0].PackageName)
	assert.Equal(t, domain.BundleStatusSucceeded, list[0].Status)
	assert.Equal(t, int64(300), list[0].TotalSize)
	assert.Equal(t, 1, list[0].ExpansionCount)
}

// TestBundleService_RecordsFailure 测试失败构建也写入历史
func TestBundleService_RecordsFailure(t *testing.T) {
	dir := writeSourceDir(t, "main.1.com.example.other.obb") // 身份不匹配
	records := newRecordsRepo(t)
	svc := newTestService(t, records)

	_, err := svc.ProcessDirectory(context.Background(), dir)
	require.Error(t, err)

	var mismatch *bundle.IdentityMismatchError
	assert.ErrorAs(t, err, &mismatch)

	list, listErr := records.List(context.Background(), 10)
	require.NoError(t, listErr)
	require.Len(t, list, 1)
	assert.Equal(t, domain.BundleStatusFailed, list[0].Status)
	assert.Contains(t, list[0].ErrorMessage, "main.1.com.example.other.obb")
}
