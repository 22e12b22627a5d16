// 指示: miu200521358
package logging

import "sync"

// LogLevel はログレベルを表す。
type LogLevel int

const (
	// LOG_LEVEL_VERBOSE は冗長ログレベル。
	LOG_LEVEL_VERBOSE LogLevel = -8
	// LOG_LEVEL_DEBUG はデバッグログレベル。
	LOG_LEVEL_DEBUG LogLevel = -4
	// LOG_LEVEL_INFO は情報ログレベル。
	LOG_LEVEL_INFO LogLevel = 0
	// LOG_LEVEL_WARN は警告ログレベル。
	LOG_LEVEL_WARN LogLevel = 4
	// LOG_LEVEL_ERROR はエラーログレベル。
	LOG_LEVEL_ERROR LogLevel = 8
)

// VerboseIndex は冗長ログのチャネルを表す。
type VerboseIndex int

const (
	// VERBOSE_INDEX_BAKE はベイク処理の冗長ログ。
	VERBOSE_INDEX_BAKE VerboseIndex = iota
	// VERBOSE_INDEX_POSE は姿勢評価の冗長ログ。
	VERBOSE_INDEX_POSE
	// VERBOSE_INDEX_STATE はリグ状態ログの冗長ログ。
	VERBOSE_INDEX_STATE
)

// IMessageBuffer はログ行の保持先を表す。
type IMessageBuffer interface {
	// Lines は保持しているログ行を返す。
	Lines() []string
	// Clear は保持しているログ行を破棄する。
	Clear()
}

// ILogger はアプリ全体で使うロガー契約を表す。
type ILogger interface {
	Verbose(index VerboseIndex, format string, params ...any)
	Debug(format string, params ...any)
	Info(format string, params ...any)
	Warn(format string, params ...any)
	Error(format string, params ...any)
	SetLevel(level LogLevel)
	Level() LogLevel
	IsVerboseEnabled(index VerboseIndex) bool
	EnableVerbose(index VerboseIndex, enabled bool)
	MessageBuffer() IMessageBuffer
}

var (
	defaultMu     sync.RWMutex
	defaultLogger ILogger
)

// DefaultLogger は既定ロガーを返す。未設定時は nil。
func DefaultLogger() ILogger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger は既定ロガーを差し替える。
func SetDefaultLogger(logger ILogger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}
