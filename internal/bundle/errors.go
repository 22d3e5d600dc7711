package bundle

import (
	"errors"
	"fmt"
)

// 阶段标签: 错误向上传播时标记失败发生在哪个阶段
const (
	StageInitialization = "initialization"
	StageManifest       = "manifest creation"
	StageSave           = "saving"
)

var (
	// ErrNotADirectory 源路径不存在或不是目录
	ErrNotADirectory = errors.New("the specified folder does not exist or is not a directory")

	// ErrMissingBasePackage 目录中没有 base.apk
	ErrMissingBasePackage = errors.New("no base.apk found in the specified folder")

	// ErrNoSupplementaryFiles 没有任何 OBB 或 split 文件, 打包成 XAPK 没有意义
	ErrNoSupplementaryFiles = errors.New("no obb and split files found in the specified directory")
)

// IdentityMismatchError 扩展文件的包名与 base.apk 声明的包名不一致
// 一个文件不匹配即判定整个目录混入了其他应用/版本的文件
type IdentityMismatchError struct {
	File     string // 不匹配的扩展文件名
	Declared string // base.apk 声明的包名
	Embedded string // 文件名中嵌入的包名
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("expansion file %q does not belong to package %q (embedded name: %q)",
		e.File, e.Declared, e.Embedded)
}

// MalformedExpansionNameError 扩展文件名不符合 <type>.<version>.<package.name>.obb 约定
type MalformedExpansionNameError struct {
	File string
}

func (e *MalformedExpansionNameError) Error() string {
	return fmt.Sprintf("expansion file %q has a malformed name: expected <type>.<version>.<package.name>.obb", e.File)
}

// StageError 带阶段标签的错误包装, 调用方无需检查内部状态即可区分失败阶段
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
