package inspect

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
)

// 资源目录密度限定符到 dpi 的映射, 无限定符按 mdpi 处理
var densityByQualifier = map[string]int{
	"ldpi":    120,
	"mdpi":    160,
	"tvdpi":   213,
	"hdpi":    240,
	"xhdpi":   320,
	"xxhdpi":  480,
	"xxxhdpi": 640,
}

// Icon 在 APK 的 res/ 树中找不超过 maxDensity 的最高密度图标 PNG
// 图标是装饰性的, 调用方应把这里的失败降级为"无图标"
func (ai *APKInspector) Icon(apkPath string, maxDensity int) ([]byte, error) {
	man, err := ai.decodedManifest(apkPath)
	if err != nil {
		return nil, err
	}

	return ai.pickIcon(apkPath, iconStem(man.Application.Icon), maxDensity)
}

// pickIcon 在 zip 的 res/ 条目里按密度挑选图标
func (ai *APKInspector) pickIcon(apkPath, stem string, maxDensity int) ([]byte, error) {
	r, err := zip.OpenReader(apkPath)
	if err != nil {
		return nil, fmt.Errorf("open apk: %w", err)
	}
	defer r.Close()

	var best *zip.File
	bestDensity := -1
	for _, f := range r.File {
		if !strings.HasPrefix(f.Name, "res/") || !strings.HasSuffix(f.Name, ".png") {
			continue
		}
		base := path.Base(f.Name)
		if strings.TrimSuffix(base, ".png") != stem {
			continue
		}
		d := dirDensity(path.Base(path.Dir(f.Name)))
		if d > maxDensity {
			continue
		}
		if d > bestDensity {
			bestDensity = d
			best = f
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no icon %q found under res/ (max density %d)", stem, maxDensity)
	}

	rc, err := best.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", best.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", best.Name, err)
	}

	ai.logger.WithFields(logrus.Fields{
		"entry":   best.Name,
		"density": bestDensity,
	}).Debug("Icon extracted")

	return data, nil
}

// iconStem 从清单的 icon 属性推断资源基名
// 属性值可能是已解析的 zip 路径 (res/mipmap-xhdpi-v4/ic_launcher.png),
// 也可能是未解析的引用 (@mipmap/ic_launcher 或 @0x7f0e0000)
func iconStem(iconAttr string) string {
	if iconAttr == "" {
		return "ic_launcher"
	}
	s := strings.TrimPrefix(iconAttr, "@")
	s = path.Base(s)
	s = strings.TrimSuffix(s, path.Ext(s))
	if s == "" || s == "." || strings.HasPrefix(s, "0x") {
		return "ic_launcher"
	}
	return s
}

// dirDensity 解析资源目录名中的密度限定符, 如 mipmap-xxhdpi-v4 → 480
func dirDensity(dir string) int {
	for _, segment := range strings.Split(dir, "-") {
		if d, ok := densityByQualifier[segment]; ok {
			return d
		}
	}
	return densityByQualifier["mdpi"]
}
