package bundle

import (
	"path/filepath"
	"strings"
)

// PackageInfo base.apk 中读出的应用元数据, 由 Inspector 提供
type PackageInfo struct {
	PackageName string // 反域名格式, 应用的唯一身份
	AppName     string
	VersionCode int
	VersionName string
	MinSDK      int
	TargetSDK   int
	Permissions []string
}

// Inspector 包检查协作者: 从 base.apk 中读取元数据和图标
// 核心校验/清单逻辑只依赖这个接口, 测试时注入合成实现即可
type Inspector interface {
	Inspect(apkPath string) (*PackageInfo, error)
	// Icon 返回不超过 maxDensity 密度的应用图标 PNG 字节
	// 失败是非致命的: 图标缺失不影响可安装性
	Icon(apkPath string, maxDensity int) ([]byte, error)
}

// ExpansionPackageName 从扩展文件名中还原其所属应用的包名
// OBB 命名约定为 <type>.<version>.<package.name>.obb,
// 去掉扩展名后前两段是类型和版本号, 其余各段用 "." 还原成包名
// 段数不足视为畸形文件名, 直接报错而不是返回一个碰巧不匹配的空串
func ExpansionPackageName(filename string) (string, error) {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	parts := strings.Split(stem, ".")
	if len(parts) <= 2 {
		return "", &MalformedExpansionNameError{File: filename}
	}
	return strings.Join(parts[2:], "."), nil
}

// VerifyIdentity 校验所有扩展文件与 base.apk 属于同一个应用
// 全有或全无: 任何一个文件不匹配整个 bundle 都不可安装
// split 包的文件名编码的是变体 id 而不是包名, 不做身份校验
// TODO: 如果上游开始在 split 文件名里携带包名, 这里可以同步收紧
func VerifyIdentity(in *InputSet, pkg *PackageInfo) error {
	for _, obb := range in.Expansions {
		embedded, err := ExpansionPackageName(obb.Name)
		if err != nil {
			return err
		}
		if embedded != pkg.PackageName {
			return &IdentityMismatchError{
				File:     obb.Name,
				Declared: pkg.PackageName,
				Embedded: embedded,
			}
		}
	}
	return nil
}
