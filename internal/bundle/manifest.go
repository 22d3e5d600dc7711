package bundle

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

// XAPKVersion 清单格式版本号
const XAPKVersion = 2

// InstallLocationExternalStorage 扩展文件固定的安装位置
const InstallLocationExternalStorage = "EXTERNAL_STORAGE"

// SplitAPK 清单中的一个 split 包描述
type SplitAPK struct {
	File string `json:"file"`
	ID   string `json:"id"`
}

// Expansion 清单中的一个扩展文件描述, file 与 install_path 取相同值
type Expansion struct {
	File            string `json:"file"`
	InstallLocation string `json:"install_location"`
	InstallPath     string `json:"install_path"`
}

// Manifest 嵌入 XAPK 归档的 JSON 描述符
// 键顺序即结构体字段顺序, 与既有消费端的线上格式保持一致
// split_configs / expansions 两个键只在非空时出现 (不允许出现空列表),
// 这是格式契约的一部分, 用 omitempty 显式表达
// 构造后不可变, 原样序列化进归档
type Manifest struct {
	XAPKVersion      int         `json:"xapk_version"`
	PackageName      string      `json:"package_name"`
	Name             string      `json:"name"`
	VersionCode      int         `json:"version_code"`
	VersionName      string      `json:"version_name"`
	MinSDKVersion    int         `json:"min_sdk_version"`
	TargetSDKVersion int         `json:"target_sdk_version"`
	Permissions      []string    `json:"permissions"`
	TotalSize        int64       `json:"total_size"`
	SplitAPKs        []SplitAPK  `json:"split_apks"`
	SplitConfigs     []string    `json:"split_configs,omitempty"`
	Expansions       []Expansion `json:"expansions,omitempty"`
}

// ObbInstallPath 扩展文件在设备和归档中的统一路径
func ObbInstallPath(packageName, obbName string) string {
	return "Android/obb/" + packageName + "/" + obbName
}

// BuildManifest 由分类后的输入和包元数据组装清单
// total_size 为 base + 所有 OBB + 所有 split 的 stat 大小之和;
// split_apks 首项恒为 {<package>.apk, "base"}, 其后按枚举顺序跟 split 包
func BuildManifest(in *InputSet, pkg *PackageInfo) *Manifest {
	totalSize := in.BasePackage.Size

	var expansions []Expansion
	for _, obb := range in.Expansions {
		totalSize += obb.Size
		installPath := ObbInstallPath(pkg.PackageName, obb.Name)
		expansions = append(expansions, Expansion{
			File:            installPath,
			InstallLocation: InstallLocationExternalStorage,
			InstallPath:     installPath,
		})
	}

	splitAPKs := []SplitAPK{{File: pkg.PackageName + ".apk", ID: "base"}}
	var splitConfigs []string
	for _, sc := range in.SplitConfigs {
		totalSize += sc.Size
		id := strings.TrimSuffix(sc.Name, filepath.Ext(sc.Name))
		splitAPKs = append(splitAPKs, SplitAPK{File: sc.Name, ID: id})
		splitConfigs = append(splitConfigs, id)
	}

	permissions := pkg.Permissions
	if permissions == nil {
		permissions = []string{} // permissions 键始终存在, 空集序列化为 []
	}

	return &Manifest{
		XAPKVersion:      XAPKVersion,
		PackageName:      pkg.PackageName,
		Name:             pkg.AppName,
		VersionCode:      pkg.VersionCode,
		VersionName:      pkg.VersionName,
		MinSDKVersion:    pkg.MinSDK,
		TargetSDKVersion: pkg.TargetSDK,
		Permissions:      permissions,
		TotalSize:        totalSize,
		SplitAPKs:        splitAPKs,
		SplitConfigs:     splitConfigs,
		Expansions:       expansions,
	}
}

// EncodeJSON 输出写入归档的缩进 JSON 文本
func (m *Manifest) EncodeJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "    ")
}
