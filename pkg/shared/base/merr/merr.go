// 指示: miu200521358
package merr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind はエラー分類を表す。
type ErrorKind string

const (
	// ErrorKindReference は参照先の関節・骨格が見つからないことを表す。
	ErrorKindReference ErrorKind = "ReferenceError"
	// ErrorKindConfiguration は未対応の操作種別などの設定不備を表す。
	ErrorKindConfiguration ErrorKind = "ConfigurationError"
	// ErrorKindNumericDegeneracy は極小値の除算を丸めたことを表す。通知はしない。
	ErrorKindNumericDegeneracy ErrorKind = "NumericDegeneracyWarning"
	// ErrorKindStateConsistency はリグ状態ログと構造の不一致を表す。
	ErrorKindStateConsistency ErrorKind = "StateConsistencyError"
	// ErrorKindScope は編集スコープ違反を表す。
	ErrorKindScope ErrorKind = "ScopeError"
	// ErrorKindIO はファイル入出力の失敗を表す。
	ErrorKindIO ErrorKind = "IOError"
)

const (
	// ReferenceErrorID は参照エラーのID。
	ReferenceErrorID = "95101"
	// ConfigurationErrorID は設定エラーのID。
	ConfigurationErrorID = "95102"
	// StateConsistencyErrorID は状態不一致エラーのID。
	StateConsistencyErrorID = "95103"
	// ScopeErrorID はスコープ違反エラーのID。
	ScopeErrorID = "95104"
)

// RigError は分類付きのエラーを表す。
type RigError struct {
	ID      string
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error はエラーメッセージを返す。
func (e *RigError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap は原因エラーを返す。
func (e *RigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewReferenceError は参照エラーを生成する。
func NewReferenceError(format string, params ...any) *RigError {
	return &RigError{ID: ReferenceErrorID, Kind: ErrorKindReference, Message: fmt.Sprintf(format, params...)}
}

// NewConfigurationError は設定エラーを生成する。
func NewConfigurationError(format string, params ...any) *RigError {
	return &RigError{ID: ConfigurationErrorID, Kind: ErrorKindConfiguration, Message: fmt.Sprintf(format, params...)}
}

// NewStateConsistencyError は状態不一致エラーを生成する。
func NewStateConsistencyError(format string, params ...any) *RigError {
	return &RigError{ID: StateConsistencyErrorID, Kind: ErrorKindStateConsistency, Message: fmt.Sprintf(format, params...)}
}

// NewScopeError はスコープ違反エラーを生成する。
func NewScopeError(format string, params ...any) *RigError {
	return &RigError{ID: ScopeErrorID, Kind: ErrorKindScope, Message: fmt.Sprintf(format, params...)}
}

// NewIOError はファイル入出力エラーを生成する。
func NewIOError(id string, message string, cause error) *RigError {
	return &RigError{ID: id, Kind: ErrorKindIO, Message: message, Cause: cause}
}

// ExtractErrorID はエラーチェーンからIDを取り出す。
func ExtractErrorID(err error) string {
	var rigErr *RigError
	if errors.As(err, &rigErr) && rigErr != nil {
		return rigErr.ID
	}
	return ""
}

// KindOf はエラーチェーンから分類を取り出す。
func KindOf(err error) ErrorKind {
	var rigErr *RigError
	if errors.As(err, &rigErr) && rigErr != nil {
		return rigErr.Kind
	}
	return ""
}

// IsReference は参照エラーか判定する。
func IsReference(err error) bool {
	return KindOf(err) == ErrorKindReference
}

// Problems は一括処理で集めた問題文字列を表す。
type Problems struct {
	items []string
}

// Add は問題文字列を追加する。空文字は無視する。
func (p *Problems) Add(message string) {
	if p == nil || strings.TrimSpace(message) == "" {
		return
	}
	p.items = append(p.items, message)
}

// Addf は書式付きで問題文字列を追加する。
func (p *Problems) Addf(format string, params ...any) {
	p.Add(fmt.Sprintf(format, params...))
}

// AddError はエラーのメッセージを追加する。
func (p *Problems) AddError(err error) {
	if err == nil {
		return
	}
	p.Add(err.Error())
}

// Extend は別の問題一覧を末尾に連結する。
func (p *Problems) Extend(messages []string) {
	for _, message := range messages {
		p.Add(message)
	}
}

// Len は問題件数を返す。
func (p *Problems) Len() int {
	if p == nil {
		return 0
	}
	return len(p.items)
}

// Strings は問題一覧の複製を返す。問題がない場合も非 nil の空スライスを返す。
func (p *Problems) Strings() []string {
	if p == nil {
		return []string{}
	}
	out := make([]string, len(p.items))
	copy(out, p.items)
	return out
}
