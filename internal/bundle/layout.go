package bundle

// 归档内的固定文件名
const (
	ManifestFileName = "manifest.json"
	IconFileName     = "icon.png"
)

// PlacedFile 一个输入文件到归档内路径的映射
type PlacedFile struct {
	Source string // 源文件路径
	Dest   string // 归档内的目标路径, 斜杠分隔
}

// BundleLayout 归档的文件布局: 每个输入文件在归档内的落点
// 纯命名结果, 不含任何可变状态, 由归档组装方按此摆放文件
type BundleLayout struct {
	Files []PlacedFile
}

// BuildLayout 按固定规则计算布局, 纯函数, 不做任何 I/O
// base.apk 重命名为 <package>.apk 放根目录;
// OBB 放 Android/obb/<package>/ 下保留原名;
// split 包保留原名放根目录
func BuildLayout(in *InputSet, pkg *PackageInfo) *BundleLayout {
	files := make([]PlacedFile, 0, 1+len(in.Expansions)+len(in.SplitConfigs))

	files = append(files, PlacedFile{
		Source: in.BasePackage.Path,
		Dest:   pkg.PackageName + ".apk",
	})
	for _, obb := range in.Expansions {
		files = append(files, PlacedFile{
			Source: obb.Path,
			Dest:   ObbInstallPath(pkg.PackageName, obb.Name),
		})
	}
	for _, sc := range in.SplitConfigs {
		files = append(files, PlacedFile{
			Source: sc.Path,
			Dest:   sc.Name,
		})
	}

	return &BundleLayout{Files: files}
}
