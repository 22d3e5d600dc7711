package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xapktool/xapktool-go/internal/bundle"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// buildTestResult 在临时目录里造一个最小的构建产物
func buildTestResult(t *testing.T) *bundle.Result {
	t.Helper()
	dir := t.TempDir()

	base := filepath.Join(dir, "base.apk")
	obb := filepath.Join(dir, "main.1.com.example.app.obb")
	require.NoError(t, os.WriteFile(base, []byte("apk-bytes"), 0644))
	require.NoError(t, os.WriteFile(obb, []byte("obb-bytes"), 0644))

	in := &bundle.InputSet{
		Dir:         dir,
		BasePackage: bundle.InputFile{Path: base, Name: "base.apk", Size: 9},
		Expansions: []bundle.InputFile{
			{Path: obb, Name: "main.1.com.example.app.obb", Size: 9},
		},
	}
	pkg := &bundle.PackageInfo{
		PackageName: "com.example.app",
		AppName:     "Example",
		VersionName: "1.0",
		Permissions: []string{},
	}

	manifest := bundle.BuildManifest(in, pkg)
	manifestJSON, err := manifest.EncodeJSON()
	require.NoError(t, err)

	return &bundle.Result{
		InputSet:     in,
		Package:      pkg,
		Manifest:     manifest,
		ManifestJSON: manifestJSON,
		Layout:       bundle.BuildLayout(in, pkg),
		Icon:         []byte("icon-bytes"),
	}
}

// readZipEntries 读出归档里所有条目的内容
func readZipEntries(t *testing.T, path string) map[string][]byte {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	entries := map[string][]byte{}
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		entries[f.Name] = data
	}
	return entries
}

// TestAssembler_Assemble 测试归档内容和命名
func TestAssembler_Assemble(t *testing.T) {
	res := buildTestResult(t)
	a := NewAssembler(testLogger())

	out, err := a.Assemble(res)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(res.InputSet.Dir, "com.example.app_1.0.xapk"), out)

	entries := readZipEntries(t, out)
	assert.Equal(t, []byte("apk-bytes"), entries["com.example.app.apk"])
	assert.Equal(t, []byte("obb-bytes"), entries["Android/obb/com.example.app/main.1.com.example.app.obb"])
	assert.Equal(t, []byte("icon-bytes"), entries["icon.png"])

	assert.Equal(t, res.ManifestJSON, entries["manifest.json"])
}

// TestAssembler_NoIcon 测试无图标时不写 icon.png
func TestAssembler_NoIcon(t *testing.T) {
	res := buildTestResult(t)
	res.Icon = nil

	out, err := NewAssembler(testLogger()).Assemble(res)
	require.NoError(t, err)

	entries := readZipEntries(t, out)
	assert.NotContains(t, entries, "icon.png")
	assert.Contains(t, entries, "manifest.json")
}

// TestAssembler_StageFailureLeavesNoArchive 测试源文件缺失时不留下归档
func TestAssembler_StageFailureLeavesNoArchive(t *testing.T) {
	res := buildTestResult(t)
	res.Layout.Files[0].Source = filepath.Join(res.InputSet.Dir, "missing.apk")

	_, err := NewAssembler(testLogger()).Assemble(res)
	require.Error(t, err)

	var stage *bundle.StageError
	require.ErrorAs(t, err, &stage)
	assert.Equal(t, bundle.StageSave, stage.Stage)

	_, statErr := os.Stat(filepath.Join(res.InputSet.Dir, "com.example.app_1.0.xapk"))
	assert.True(t, os.IsNotExist(statErr), "No partial archive should be left behind")
}
