// 指示: miu200521358
package io_common

import (
	"fmt"

	"github.com/miu200521358/mu_rigbake/pkg/shared/base/merr"
)

const (
	// FileNotFoundErrorID はファイル未検出エラーのID。
	FileNotFoundErrorID = "14101"
	// ExtInvalidErrorID は拡張子不正エラーのID。
	ExtInvalidErrorID = "14102"
	// ParseFailedErrorID は解析失敗エラーのID。
	ParseFailedErrorID = "14103"
	// SaveFailedErrorID は保存失敗エラーのID。
	SaveFailedErrorID = "14104"
	// LockFailedErrorID はファイルロック取得失敗エラーのID。
	LockFailedErrorID = "14105"
	// FormatNotSupportedErrorID は未対応形式エラーのID。
	FormatNotSupportedErrorID = "14106"
)

// NewIoFileNotFound はファイル未検出エラーを生成する。
func NewIoFileNotFound(path string, cause error) *merr.RigError {
	return merr.NewIOError(FileNotFoundErrorID, fmt.Sprintf("ファイルが見つかりません: %s", path), cause)
}

// NewIoExtInvalid は拡張子不正エラーを生成する。
func NewIoExtInvalid(path string, cause error) *merr.RigError {
	return merr.NewIOError(ExtInvalidErrorID, fmt.Sprintf("対応していない拡張子です: %s", path), cause)
}

// NewIoParseFailed は解析失敗エラーを生成する。
func NewIoParseFailed(message string, cause error) *merr.RigError {
	return merr.NewIOError(ParseFailedErrorID, message, cause)
}

// NewIoSaveFailed は保存失敗エラーを生成する。
func NewIoSaveFailed(message string, cause error) *merr.RigError {
	return merr.NewIOError(SaveFailedErrorID, message, cause)
}

// NewIoLockFailed はファイルロック取得失敗エラーを生成する。
func NewIoLockFailed(path string, cause error) *merr.RigError {
	return merr.NewIOError(LockFailedErrorID, fmt.Sprintf("ファイルをロックできません: %s", path), cause)
}

// NewIoFormatNotSupported は未対応形式エラーを生成する。
func NewIoFormatNotSupported(message string, cause error) *merr.RigError {
	return merr.NewIOError(FormatNotSupportedErrorID, message, cause)
}
