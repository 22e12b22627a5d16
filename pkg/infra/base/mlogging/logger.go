// 指示: miu200521358
package mlogging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/miu200521358/mu_rigbake/pkg/shared/base/logging"
)

// Options はロガー生成パラメータを表す。
type Options struct {
	Writer io.Writer
	Level  string
	Format string
}

// Logger は slog を使う ILogger 実装。
type Logger struct {
	slogger  *slog.Logger
	levelVar *slog.LevelVar
	buffer   *MessageBuffer
	verbose  map[logging.VerboseIndex]bool
	mu       sync.RWMutex
}

// NewLogger はテキスト形式のロガーを生成する。w が nil の場合はバッファのみに出力する。
func NewLogger(w io.Writer) *Logger {
	logger, _ := New(Options{Writer: w, Level: "info", Format: "text"})
	return logger
}

// New はオプションからロガーを生成する。
func New(opts Options) (*Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(ParseLevel(opts.Level))

	writer := opts.Writer
	if writer == nil {
		writer = io.Discard
	}

	handlerOpts := &slog.HandlerOptions{Level: levelVar}
	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "text", "console":
		handler = slog.NewTextHandler(writer, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(writer, handlerOpts)
	default:
		return nil, fmt.Errorf("ログ形式が未対応です: %q", opts.Format)
	}

	buffer := &MessageBuffer{}
	return &Logger{
		slogger:  slog.New(&bufferHandler{next: handler, buffer: buffer}),
		levelVar: levelVar,
		buffer:   buffer,
		verbose:  map[logging.VerboseIndex]bool{},
	}, nil
}

// ParseLevel は文字列のログレベルを slog のレベルへ変換する。
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "verbose":
		return slog.Level(logging.LOG_LEVEL_VERBOSE)
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Verbose は有効なチャネルのみ冗長ログを出力する。
func (l *Logger) Verbose(index logging.VerboseIndex, format string, params ...any) {
	if !l.IsVerboseEnabled(index) {
		return
	}
	l.log(slog.Level(logging.LOG_LEVEL_VERBOSE), format, params...)
}

// Debug はデバッグログを出力する。
func (l *Logger) Debug(format string, params ...any) {
	l.log(slog.LevelDebug, format, params...)
}

// Info は情報ログを出力する。
func (l *Logger) Info(format string, params ...any) {
	l.log(slog.LevelInfo, format, params...)
}

// Warn は警告ログを出力する。
func (l *Logger) Warn(format string, params ...any) {
	l.log(slog.LevelWarn, format, params...)
}

// Error はエラーログを出力する。
func (l *Logger) Error(format string, params ...any) {
	l.log(slog.LevelError, format, params...)
}

// SetLevel はログレベルを設定する。
func (l *Logger) SetLevel(level logging.LogLevel) {
	l.levelVar.Set(slog.Level(level))
}

// Level は現在のログレベルを返す。
func (l *Logger) Level() logging.LogLevel {
	return logging.LogLevel(l.levelVar.Level())
}

// IsVerboseEnabled は冗長ログチャネルが有効か判定する。
func (l *Logger) IsVerboseEnabled(index logging.VerboseIndex) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose[index]
}

// EnableVerbose は冗長ログチャネルを切り替える。
func (l *Logger) EnableVerbose(index logging.VerboseIndex, enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose[index] = enabled
}

// MessageBuffer はログ行バッファを返す。
func (l *Logger) MessageBuffer() logging.IMessageBuffer {
	return l.buffer
}

func (l *Logger) log(level slog.Level, format string, params ...any) {
	if l == nil || l.slogger == nil {
		return
	}
	ctx := context.Background()
	if !l.slogger.Enabled(ctx, level) {
		return
	}
	l.slogger.Log(ctx, level, fmt.Sprintf(format, params...))
}

// MessageBuffer は出力済みメッセージを保持する。
type MessageBuffer struct {
	mu    sync.Mutex
	lines []string
}

// Lines は保持しているログ行の複製を返す。
func (b *MessageBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Clear は保持しているログ行を破棄する。
func (b *MessageBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = nil
}

func (b *MessageBuffer) append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
}

// bufferHandler はメッセージをバッファへ複製してから後段へ渡す。
type bufferHandler struct {
	next   slog.Handler
	buffer *MessageBuffer
}

func (h *bufferHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *bufferHandler) Handle(ctx context.Context, record slog.Record) error {
	h.buffer.append(record.Message)
	return h.next.Handle(ctx, record)
}

func (h *bufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &bufferHandler{next: h.next.WithAttrs(attrs), buffer: h.buffer}
}

func (h *bufferHandler) WithGroup(name string) slog.Handler {
	return &bufferHandler{next: h.next.WithGroup(name), buffer: h.buffer}
}
