// Package archive 把构建产物物理落盘: 暂存目录 → deflate 压缩的 .xapk
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/xapktool/xapktool-go/internal/bundle"
)

// Assembler 归档组装器
// 每次 Assemble 使用独立的临时暂存目录, 成功或失败都保证清理,
// 因此多个 bundle 可以并发组装
type Assembler struct {
	logger *logrus.Logger
}

func NewAssembler(logger *logrus.Logger) *Assembler {
	return &Assembler{logger: logger}
}

// Assemble 按布局暂存所有文件并打成 <package>_<version>.xapk, 返回归档路径
// 产物放在源目录旁边; 任何失败都不会留下部分归档
func (a *Assembler) Assemble(res *bundle.Result) (string, error) {
	outPath := filepath.Join(res.InputSet.Dir,
		fmt.Sprintf("%s_%s.xapk", res.Package.PackageName, res.Package.VersionName))

	stageDir := filepath.Join(os.TempDir(), "xapk-stage-"+uuid.New().String())
	if err := os.MkdirAll(stageDir, 0755); err != nil {
		return "", &bundle.StageError{Stage: bundle.StageSave, Err: fmt.Errorf("create staging directory: %w", err)}
	}
	defer func() {
		if err := os.RemoveAll(stageDir); err != nil {
			a.logger.WithError(err).WithField("dir", stageDir).Warn("Failed to clean up staging directory")
		}
	}()

	if err := a.stage(stageDir, res); err != nil {
		return "", &bundle.StageError{Stage: bundle.StageSave, Err: err}
	}

	if err := a.zipTree(stageDir, outPath); err != nil {
		os.Remove(outPath) // 不留部分写入的归档
		return "", &bundle.StageError{Stage: bundle.StageSave, Err: err}
	}

	a.logger.WithField("archive", outPath).Info("XAPK: OK")
	return outPath, nil
}

// stage 把布局中的每个文件复制到暂存目录, 再写入清单和图标
func (a *Assembler) stage(stageDir string, res *bundle.Result) error {
	for _, f := range res.Layout.Files {
		dest := filepath.Join(stageDir, filepath.FromSlash(f.Dest))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
		}
		if err := copyFile(f.Source, dest); err != nil {
			return fmt.Errorf("copy %s: %w", f.Source, err)
		}
		a.logger.WithField("file", f.Dest).Debug("Staged")
	}

	if res.Icon != nil {
		if err := os.WriteFile(filepath.Join(stageDir, bundle.IconFileName), res.Icon, 0644); err != nil {
			return fmt.Errorf("write icon: %w", err)
		}
		a.logger.Info("Icon: OK")
	}

	if err := os.WriteFile(filepath.Join(stageDir, bundle.ManifestFileName), res.ManifestJSON, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	a.logger.Info("Manifest: OK")

	return nil
}

// zipTree 把暂存目录整棵树 deflate 压缩成一个归档
func (a *Assembler) zipTree(root, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		_, err = io.Copy(w, in)
		return err
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("compress staging tree: %w", err)
	}
	return zw.Close()
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
