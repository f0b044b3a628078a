package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once sync.Once
	base *zap.Logger
)

// Init builds the process-wide structured logger. Idempotent; call once
// from main before anything else logs.
func Init() {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.DisableStacktrace = true
		l, err := cfg.Build()
		if err != nil {
			panic(err)
		}
		base = l
	})
}

// L returns the process-wide logger, initializing it if needed.
func L() *zap.Logger {
	if base == nil {
		Init()
	}
	return base
}

// Named returns a logger tagged with a component name.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync flushes buffered log entries. Call via defer in main.
func Sync() {
	_ = L().Sync()
}

func toFields(m map[string]any) []zap.Field {
	fs := make([]zap.Field, 0, len(m))
	for k, v := range m {
		fs = append(fs, zap.Any(k, v))
	}
	return fs
}

func Info(msg string, fields map[string]any) {
	L().Info(msg, toFields(fields)...)
}

func Warn(msg string, fields map[string]any) {
	L().Warn(msg, toFields(fields)...)
}

func Error(msg string, fields map[string]any) {
	L().Error(msg, toFields(fields)...)
}

func Fatal(msg string, fields map[string]any) {
	L().Fatal(msg, toFields(fields)...)
}
