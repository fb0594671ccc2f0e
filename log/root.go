// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"log/slog"
	"sync/atomic"
)

var root atomic.Value

func init() {
	root.Store(&logger{slog.New(DiscardHandler())})
}

// SetDefault sets the default global logger
func SetDefault(l Logger) {
	root.Store(l)
	if lg, ok := l.(*logger); ok {
		slog.SetDefault(lg.inner)
	}
}

// Root returns the root logger
func Root() Logger {
	return root.Load().(Logger)
}

// WithContext returns a logger bound to the root logger's handler at call time
// of each record, so package level loggers follow later SetDefault calls.
func WithContext(ctx ...any) Logger {
	return &lazyLogger{ctx: ctx}
}

// New is an alias of WithContext.
func New(ctx ...any) Logger {
	return WithContext(ctx...)
}

func Trace(msg string, ctx ...any) { Root().Write(LevelTrace, msg, ctx...) }
func Debug(msg string, ctx ...any) { Root().Write(slog.LevelDebug, msg, ctx...) }
func Info(msg string, ctx ...any)  { Root().Write(slog.LevelInfo, msg, ctx...) }
func Warn(msg string, ctx ...any)  { Root().Write(slog.LevelWarn, msg, ctx...) }
func Error(msg string, ctx ...any) { Root().Write(slog.LevelError, msg, ctx...) }
func Crit(msg string, ctx ...any)  { Root().Crit(msg, ctx...) }
