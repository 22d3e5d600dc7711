package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BasePackageName base.apk 的固定文件名
// 按固定名而不是模式匹配: 一个 bundle 只允许一个规范的 base 包
const BasePackageName = "base.apk"

// InputFile 源目录中的一个输入文件及其 stat 大小
type InputFile struct {
	Path string // 绝对/原始路径
	Name string // 文件名
	Size int64  // 字节数 (来自 stat, 不读内容)
}

// InputSet 一个源目录分类后的内容
type InputSet struct {
	Dir          string
	BasePackage  InputFile
	Expansions   []InputFile // *.obb, 目录枚举顺序
	SplitConfigs []InputFile // config.*.apk 在前, asset.*.apk 在后
}

// Resolve 扫描源目录并按文件名模式分类
// 失败场景: 路径不是目录 / 缺少 base.apk / 既无 OBB 也无 split 文件
func Resolve(dir string) (*InputSet, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	in := &InputSet{Dir: dir}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if entry.Name() != BasePackageName {
			continue
		}
		f, err := newInputFile(dir, entry.Name())
		if err != nil {
			return nil, err
		}
		in.BasePackage = f
	}
	if in.BasePackage.Path == "" {
		return nil, ErrMissingBasePackage
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".obb") {
			continue
		}
		f, err := newInputFile(dir, entry.Name())
		if err != nil {
			return nil, err
		}
		in.Expansions = append(in.Expansions, f)
	}

	// split 包两种命名各扫一遍, config.* 永远排在 asset.* 之前
	for _, pattern := range []string{"config.*.apk", "asset.*.apk"} {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			matched, err := filepath.Match(pattern, entry.Name())
			if err != nil {
				return nil, fmt.Errorf("match %q: %w", pattern, err)
			}
			if !matched {
				continue
			}
			f, err := newInputFile(dir, entry.Name())
			if err != nil {
				return nil, err
			}
			in.SplitConfigs = append(in.SplitConfigs, f)
		}
	}

	if len(in.Expansions) == 0 && len(in.SplitConfigs) == 0 {
		return nil, ErrNoSupplementaryFiles
	}

	return in, nil
}

func newInputFile(dir, name string) (InputFile, error) {
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return InputFile{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return InputFile{Path: path, Name: name, Size: info.Size()}, nil
}
