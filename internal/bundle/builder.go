package bundle

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// DefaultMaxIconDensity 图标密度上限的默认值, 取尽可能高的密度
const DefaultMaxIconDensity = 65534

// Result 一次构建的全部产物, 不可变
type Result struct {
	InputSet     *InputSet
	Package      *PackageInfo
	Manifest     *Manifest
	ManifestJSON []byte // 写入归档的缩进 JSON 文本
	Layout       *BundleLayout
	Icon         []byte // 图标不可用时为 nil
}

// Builder bundle 描述符构建器
// 无持久状态, 每次 Build 都是独立的 resolve → inspect → verify → manifest 流水线,
// 身份校验是清单构造前的闸门
type Builder struct {
	inspector      Inspector
	maxIconDensity int
	logger         *logrus.Logger
}

// NewBuilder 创建构建器, maxIconDensity <= 0 时取默认上限
func NewBuilder(inspector Inspector, maxIconDensity int, logger *logrus.Logger) *Builder {
	if maxIconDensity <= 0 {
		maxIconDensity = DefaultMaxIconDensity
	}
	return &Builder{
		inspector:      inspector,
		maxIconDensity: maxIconDensity,
		logger:         logger,
	}
}

// Build 把一个源目录转换成清单 + 布局
// 任何解析/检查/校验失败都中止整个构建, 绝不产出部分正确的描述符;
// 唯一的例外是图标读取失败, 降级为无图标继续
func (b *Builder) Build(dir string) (*Result, error) {
	in, err := Resolve(dir)
	if err != nil {
		return nil, &StageError{Stage: StageInitialization, Err: err}
	}

	pkg, err := b.inspector.Inspect(in.BasePackage.Path)
	if err != nil {
		return nil, &StageError{Stage: StageInitialization, Err: fmt.Errorf("inspect %s: %w", in.BasePackage.Name, err)}
	}

	b.logger.WithFields(logrus.Fields{
		"package_name": pkg.PackageName,
		"version_name": pkg.VersionName,
	}).Info("Verifying APK and OBB...")

	if err := VerifyIdentity(in, pkg); err != nil {
		return nil, &StageError{Stage: StageInitialization, Err: err}
	}
	b.logger.Info("Verification: OK")

	manifest := BuildManifest(in, pkg)
	manifestJSON, err := manifest.EncodeJSON()
	if err != nil {
		return nil, &StageError{Stage: StageManifest, Err: err}
	}
	layout := BuildLayout(in, pkg)

	icon, err := b.inspector.Icon(in.BasePackage.Path, b.maxIconDensity)
	if err != nil {
		b.logger.WithError(err).Warn("Skip icon")
		icon = nil
	}

	return &Result{
		InputSet:     in,
		Package:      pkg,
		Manifest:     manifest,
		ManifestJSON: manifestJSON,
		Layout:       layout,
		Icon:         icon,
	}, nil
}
