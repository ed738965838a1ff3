// 指示: miu200521358
// Package logging はビューア全体で使うログ出力の薄い共通層を提供する。
package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel はログ出力レベルを表す。
type LogLevel int

const (
	// LOG_LEVEL_DEBUG はデバッグレベルを表す。
	LOG_LEVEL_DEBUG LogLevel = iota
	// LOG_LEVEL_INFO は情報レベルを表す。
	LOG_LEVEL_INFO
	// LOG_LEVEL_WARN は警告レベルを表す。
	LOG_LEVEL_WARN
	// LOG_LEVEL_ERROR はエラーレベルを表す。
	LOG_LEVEL_ERROR
)

// VerboseCategory は詳細ログの出力カテゴリを表す。
type VerboseCategory string

const (
	// VERBOSE_VIEWER はビューア内部処理の詳細ログカテゴリを表す。
	VERBOSE_VIEWER VerboseCategory = "viewer"
	// VERBOSE_CLONE はクローン処理の詳細ログカテゴリを表す。
	VERBOSE_CLONE VerboseCategory = "clone"
	// VERBOSE_COMPOSE は外観合成処理の詳細ログカテゴリを表す。
	VERBOSE_COMPOSE VerboseCategory = "compose"
)

// Logger はzapを包んだビューア用ロガーを表す。
type Logger struct {
	mu         sync.RWMutex
	zapLogger  *zap.SugaredLogger
	level      LogLevel
	categories map[VerboseCategory]struct{}
}

// NewLogger はLoggerを生成する。baseがnilの場合は既定構成のzapを使う。
func NewLogger(base *zap.Logger) *Logger {
	resolved := base
	if resolved == nil {
		config := zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		built, err := config.Build()
		if err != nil {
			built = zap.NewNop()
		}
		resolved = built
	}
	return &Logger{
		zapLogger:  resolved.Sugar(),
		level:      LOG_LEVEL_INFO,
		categories: map[VerboseCategory]struct{}{},
	}
}

// SetLevel はログ出力レベルを設定する。
func (l *Logger) SetLevel(level LogLevel) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// EnableVerbose は指定カテゴリの詳細ログを有効化する。
func (l *Logger) EnableVerbose(category VerboseCategory) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.categories[category] = struct{}{}
}

// IsVerboseEnabled は指定カテゴリの詳細ログ出力可否を返す。
func (l *Logger) IsVerboseEnabled(category VerboseCategory) bool {
	if l == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.categories[category]
	return ok
}

// Verbose は指定カテゴリが有効な場合のみ詳細ログを出力する。
func (l *Logger) Verbose(category VerboseCategory, format string, params ...any) {
	if l == nil || !l.IsVerboseEnabled(category) {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.zapLogger.Debugf(format, params...)
}

// Debug はデバッグログを出力する。
func (l *Logger) Debug(format string, params ...any) {
	l.logAt(LOG_LEVEL_DEBUG, format, params...)
}

// Info は情報ログを出力する。
func (l *Logger) Info(format string, params ...any) {
	l.logAt(LOG_LEVEL_INFO, format, params...)
}

// Warn は警告ログを出力する。
func (l *Logger) Warn(format string, params ...any) {
	l.logAt(LOG_LEVEL_WARN, format, params...)
}

// Error はエラーログを出力する。
func (l *Logger) Error(format string, params ...any) {
	l.logAt(LOG_LEVEL_ERROR, format, params...)
}

// logAt はレベル判定付きでログを出力する。
func (l *Logger) logAt(level LogLevel, format string, params ...any) {
	if l == nil {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if level < l.level {
		return
	}
	message := fmt.Sprintf(format, params...)
	switch level {
	case LOG_LEVEL_DEBUG:
		l.zapLogger.Debug(message)
	case LOG_LEVEL_INFO:
		l.zapLogger.Info(message)
	case LOG_LEVEL_WARN:
		l.zapLogger.Warn(message)
	default:
		l.zapLogger.Error(message)
	}
}

var (
	defaultLoggerMu sync.RWMutex
	defaultLogger   = NewLogger(nil)
)

// DefaultLogger は既定ロガーを返す。
func DefaultLogger() *Logger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger は既定ロガーを差し替える。
func SetDefaultLogger(logger *Logger) {
	if logger == nil {
		return
	}
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = logger
}
