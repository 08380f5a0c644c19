// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package log

import (
	"context"
	"log/slog"

	"github.com/luxfi/log"
	"go.uber.org/zap"
)

// NoLog satisfies the full luxfi/log.Logger interface while discarding
// every call. count.State itself never logs (spec.md §7: the engine is
// single-goroutine and I/O-free); it is the Default logger handed to
// callers that supply none, so the rest of the tree can still take a
// log.Logger unconditionally.
type NoLog struct{}

// NewNoOpLogger returns a logger that discards everything written to it.
func NewNoOpLogger() log.Logger {
	return &NoLog{}
}

// slog-flavoured surface.

func (n NoLog) With(ctx ...interface{}) log.Logger { return n }
func (n NoLog) New(ctx ...interface{}) log.Logger  { return n }

func (NoLog) Log(level slog.Level, msg string, ctx ...interface{})      {}
func (NoLog) Trace(msg string, ctx ...interface{})                      {}
func (NoLog) Debug(msg string, ctx ...interface{})                      {}
func (NoLog) Info(msg string, ctx ...interface{})                       {}
func (NoLog) Warn(msg string, ctx ...interface{})                       {}
func (NoLog) Error(msg string, ctx ...interface{})                      {}
func (NoLog) Crit(msg string, ctx ...interface{})                       {}
func (NoLog) WriteLog(level slog.Level, msg string, attrs ...any)       {}
func (NoLog) Enabled(ctx context.Context, level slog.Level) bool        { return false }
func (NoLog) Handler() slog.Handler                                     { return nil }

// zap-flavoured surface, kept for callers that pass zap.Field values
// directly rather than going through the slog adapter above.

func (NoLog) Fatal(msg string, fields ...zap.Field) {}
func (NoLog) Verbo(msg string, fields ...zap.Field) {}

func (n NoLog) WithFields(fields ...zap.Field) log.Logger  { return n }
func (n NoLog) WithOptions(opts ...zap.Option) log.Logger  { return n }

// Level and lifecycle management — every call is a harmless no-op since
// there is no underlying sink to start, stop, or level-gate.

func (NoLog) SetLevel(level slog.Level)    {}
func (NoLog) GetLevel() slog.Level         { return slog.Level(0) }
func (NoLog) EnabledLevel(lvl slog.Level) bool { return false }

func (NoLog) StopOnPanic() {}

func (NoLog) RecoverAndPanic(f func()) { f() }
func (NoLog) RecoverAndExit(f, exit func()) { f() }

func (NoLog) Stop() {}

// Write lets NoLog stand in anywhere an io.Writer is expected (e.g. as
// the sink for a third-party library that writes log lines directly).
func (NoLog) Write(p []byte) (n int, err error) {
	return len(p), nil
}
