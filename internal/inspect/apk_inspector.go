// Package inspect 从 base.apk 中读取应用元数据和图标
// 实现 bundle.Inspector, 清单/校验逻辑对解析细节不可见
package inspect

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/avast/apkparser"
	"github.com/sirupsen/logrus"

	"github.com/xapktool/xapktool-go/internal/bundle"
)

// androidManifest AndroidManifest.xml 中本工具需要的字段子集
type androidManifest struct {
	XMLName     xml.Name         `xml:"manifest"`
	Package     string           `xml:"package,attr"`
	VersionCode int              `xml:"versionCode,attr"`
	VersionName string           `xml:"versionName,attr"`
	UsesSDK     usesSDK          `xml:"uses-sdk"`
	Permissions []usesPermission `xml:"uses-permission"`
	Application manifestApp      `xml:"application"`
}

type usesSDK struct {
	MinSDKVersion    int `xml:"minSdkVersion,attr"`
	TargetSDKVersion int `xml:"targetSdkVersion,attr"`
}

type usesPermission struct {
	Name string `xml:"name,attr"`
}

type manifestApp struct {
	Label string `xml:"label,attr"`
	Icon  string `xml:"icon,attr"`
}

// APKInspector 基于 apkparser 的包检查实现
type APKInspector struct {
	logger *logrus.Logger
}

func NewAPKInspector(logger *logrus.Logger) *APKInspector {
	return &APKInspector{logger: logger}
}

// Inspect 解码二进制 AndroidManifest.xml 并提取包元数据
func (ai *APKInspector) Inspect(apkPath string) (*bundle.PackageInfo, error) {
	man, err := ai.decodedManifest(apkPath)
	if err != nil {
		return nil, err
	}
	if man.Package == "" {
		return nil, fmt.Errorf("AndroidManifest.xml of %s declares no package name", apkPath)
	}

	info := &bundle.PackageInfo{
		PackageName: man.Package,
		AppName:     man.Application.Label,
		VersionCode: man.VersionCode,
		VersionName: man.VersionName,
		MinSDK:      man.UsesSDK.MinSDKVersion,
		TargetSDK:   man.UsesSDK.TargetSDKVersion,
	}
	for _, p := range man.Permissions {
		info.Permissions = append(info.Permissions, p.Name)
	}

	ai.logger.WithFields(logrus.Fields{
		"package_name": info.PackageName,
		"version_code": info.VersionCode,
		"version_name": info.VersionName,
	}).Debug("APK inspected")

	return info, nil
}

// decodedManifest 把二进制清单解码成文本 XML 再反序列化
func (ai *APKInspector) decodedManifest(apkPath string) (*androidManifest, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)

	zipErr, resErr, manErr := apkparser.ParseApk(apkPath, enc)
	if zipErr != nil {
		return nil, fmt.Errorf("failed to unzip the APK: %w", zipErr)
	}
	if resErr != nil {
		// 资源表解析失败时清单属性可能停留在资源引用形态, 元数据本身仍可读
		ai.logger.WithError(resErr).Debug("Failed to parse resources.arsc, continuing without resource resolution")
	}
	if manErr != nil {
		return nil, fmt.Errorf("failed to parse AndroidManifest.xml: %w", manErr)
	}

	return parseManifestXML(buf.Bytes())
}

func parseManifestXML(data []byte) (*androidManifest, error) {
	var man androidManifest
	if err := xml.Unmarshal(data, &man); err != nil {
		return nil, fmt.Errorf("failed to unmarshal AndroidManifest.xml: %w", err)
	}
	return &man, nil
}
