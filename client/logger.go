package client

import (
	"fmt"
	"log/slog"
)

// Logger is an optional package logger used for non-fatal warnings.
type Logger interface {
	// Warnf logs a formatted warning message.
	Warnf(format string, args ...any)
	// Debugf logs a formatted diagnostic message.
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Debugf(string, ...any) {}

// SlogLogger adapts a *slog.Logger to Logger.
type SlogLogger struct {
	L *slog.Logger
}

// Warnf implements Logger.
func (s SlogLogger) Warnf(format string, args ...any) {
	s.L.Warn(fmt.Sprintf(format, args...))
}

// Debugf implements Logger.
func (s SlogLogger) Debugf(format string, args ...any) {
	s.L.Debug(fmt.Sprintf(format, args...))
}
