package bundle

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInspector 合成的包检查协作者, 核心逻辑无需真实 APK 解析即可测试
type fakeInspector struct {
	pkg       *PackageInfo
	icon      []byte
	inspected int
	err       error
	iconErr   error
}

func (f *fakeInspector) Inspect(apkPath string) (*PackageInfo, error) {
	f.inspected++
	if f.err != nil {
		return nil, f.err
	}
	return f.pkg, nil
}

func (f *fakeInspector) Icon(apkPath string, maxDensity int) ([]byte, error) {
	if f.iconErr != nil {
		return nil, f.iconErr
	}
	return f.icon, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// TestBuilder_Build 测试完整流水线
func TestBuilder_Build(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.apk", 1000)
	writeFile(t, dir, "main.123.com.example.app.obb", 2000)

	fake := &fakeInspector{pkg: testPackageInfo(), icon: []byte("png-bytes")}
	b := NewBuilder(fake, 0, testLogger())

	res, err := b.Build(dir)
	require.NoError(t, err)

	assert.Equal(t, int64(3000), res.Manifest.TotalSize)
	assert.Equal(t, []byte("png-bytes"), res.Icon)

	// 清单在 manifest 阶段就已编码完成, 归档阶段原样落盘
	want, err := res.Manifest.EncodeJSON()
	require.NoError(t, err)
	assert.Equal(t, want, res.ManifestJSON)

	require.Len(t, res.Layout.Files, 2)
	assert.Equal(t, "com.example.app.apk", res.Layout.Files[0].Dest)
	assert.Equal(t, "Android/obb/com.example.app/main.123.com.example.app.obb", res.Layout.Files[1].Dest)
}

// TestBuilder_ResolveFailsBeforeInspection 测试目录不合格时不会触发包检查
func TestBuilder_ResolveFailsBeforeInspection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.apk", 10) // 没有补充文件

	fake := &fakeInspector{pkg: testPackageInfo()}
	b := NewBuilder(fake, 0, testLogger())

	_, err := b.Build(dir)
	assert.ErrorIs(t, err, ErrNoSupplementaryFiles)
	assert.Zero(t, fake.inspected, "Inspector should not be called when resolve fails")

	var stage *StageError
	require.ErrorAs(t, err, &stage)
	assert.Equal(t, StageInitialization, stage.Stage)
}

// TestBuilder_IdentityMismatchAborts 测试身份不匹配时不产出清单
func TestBuilder_IdentityMismatchAborts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.apk", 1000)
	writeFile(t, dir, "main.123.com.example.other.obb", 2000)

	fake := &fakeInspector{pkg: testPackageInfo()}
	b := NewBuilder(fake, 0, testLogger())

	res, err := b.Build(dir)
	assert.Nil(t, res)

	var mismatch *IdentityMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "main.123.com.example.other.obb", mismatch.File)
}

// TestBuilder_InspectionFailureIsFatal 测试协作者报错中止构建
func TestBuilder_InspectionFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.apk", 10)
	writeFile(t, dir, "main.1.com.example.app.obb", 10)

	boom := errors.New("corrupt manifest")
	b := NewBuilder(&fakeInspector{err: boom}, 0, testLogger())

	_, err := b.Build(dir)
	assert.ErrorIs(t, err, boom)
}

// TestBuilder_IconFailureIsNotFatal 测试图标失败降级为无图标
func TestBuilder_IconFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.apk", 10)
	writeFile(t, dir, "main.1.com.example.app.obb", 10)

	fake := &fakeInspector{pkg: testPackageInfo(), iconErr: errors.New("no icon resource")}
	b := NewBuilder(fake, 0, testLogger())

	res, err := b.Build(dir)
	require.NoError(t, err)
	assert.Nil(t, res.Icon)
	assert.NotNil(t, res.Manifest)
}
