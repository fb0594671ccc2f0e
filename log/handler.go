// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/holiman/uint256"
)

const (
	levelMaxVerbosity slog.Level = math.MinInt
	timeFormat                   = "2006-01-02T15:04:05-0700"
	termTimeFormat               = "01-02|15:04:05.000"
	termMsgJust                  = 40
)

type discardHandler struct{}

// DiscardHandler returns a no-op handler
func DiscardHandler() slog.Handler {
	return &discardHandler{}
}

func (h *discardHandler) Handle(_ context.Context, _ slog.Record) error { return nil }

func (h *discardHandler) Enabled(_ context.Context, _ slog.Level) bool { return false }

func (h *discardHandler) WithGroup(_ string) slog.Handler { return h }

func (h *discardHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

// TerminalHandler formats records for a human reading a terminal:
//
//	INFO [10-18|09:12:44.120] deposit accepted                 pkg=pool participant=0x7567d8... amount=1000
type TerminalHandler struct {
	mu       sync.Mutex
	wr       io.Writer
	lvl      *slog.LevelVar
	useColor bool
	attrs    []slog.Attr

	buf bytes.Buffer
}

// NewTerminalHandler returns a TerminalHandler that prints records at every level.
func NewTerminalHandler(wr io.Writer, useColor bool) *TerminalHandler {
	var level slog.LevelVar
	level.Set(levelMaxVerbosity)
	return NewTerminalHandlerWithLevel(wr, &level, useColor)
}

// NewTerminalHandlerWithLevel returns the same handler as NewTerminalHandler but only outputs
// records at or above lvl. lvl may be changed at runtime.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl *slog.LevelVar, useColor bool) *TerminalHandler {
	return &TerminalHandler{
		wr:       wr,
		lvl:      lvl,
		useColor: useColor,
	}
}

func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()
	h.format(&h.buf, r)
	_, err := h.wr.Write(h.buf.Bytes())
	return err
}

func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl.Level()
}

func (h *TerminalHandler) WithGroup(_ string) slog.Handler {
	panic("not implemented")
}

func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	return &TerminalHandler{
		wr:       h.wr,
		lvl:      h.lvl,
		useColor: h.useColor,
		attrs:    append(merged, attrs...),
	}
}

func (h *TerminalHandler) format(b *bytes.Buffer, r slog.Record) {
	lvl := LevelAlignedString(r.Level)
	if h.useColor {
		color := 0
		switch r.Level {
		case LevelCrit:
			color = 35
		case slog.LevelError:
			color = 31
		case slog.LevelWarn:
			color = 33
		case slog.LevelInfo:
			color = 32
		case slog.LevelDebug:
			color = 36
		case LevelTrace:
			color = 34
		}
		fmt.Fprintf(b, "\x1b[%dm%s\x1b[0m", color, lvl)
	} else {
		b.WriteString(lvl)
	}
	b.WriteString("[")
	b.WriteString(r.Time.Format(termTimeFormat))
	b.WriteString("] ")
	b.WriteString(r.Message)

	if r.NumAttrs() > 0 || len(h.attrs) > 0 {
		for i := len(r.Message); i < termMsgJust; i++ {
			b.WriteByte(' ')
		}
	}
	for _, a := range h.attrs {
		writeAttr(b, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(b, a)
		return true
	})
	b.WriteByte('\n')
}

func writeAttr(b *bytes.Buffer, a slog.Attr) {
	b.WriteByte(' ')
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(formatValue(a.Value))
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return quoteIfNeeded(v.String())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindTime:
		return v.Time().Format(timeFormat)
	case slog.KindAny:
		switch x := v.Any().(type) {
		case *uint256.Int:
			if x == nil {
				return "<nil>"
			}
			return x.Dec()
		case error:
			return quoteIfNeeded(x.Error())
		case fmt.Stringer:
			return quoteIfNeeded(x.String())
		case nil:
			return "<nil>"
		}
	}
	return quoteIfNeeded(v.String())
}

func quoteIfNeeded(s string) string {
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return strconv.Quote(s)
		}
	}
	return s
}

type leveler struct{ minLevel *slog.LevelVar }

func (l *leveler) Level() slog.Level {
	return l.minLevel.Level()
}

// JSONHandler returns a handler which prints records in JSON format.
func JSONHandler(wr io.Writer) slog.Handler {
	var level slog.LevelVar
	level.Set(levelMaxVerbosity)
	return JSONHandlerWithLevel(wr, &level)
}

// JSONHandlerWithLevel returns a handler which prints records in JSON format that are at or above
// the specified verbosity level.
func JSONHandlerWithLevel(wr io.Writer, level *slog.LevelVar) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{
		ReplaceAttr: builtinReplace,
		Level:       &leveler{level},
	})
}

func builtinReplace(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		if attr.Value.Kind() == slog.KindTime {
			return slog.Attr{Key: "t", Value: attr.Value}
		}
	case slog.LevelKey:
		if l, ok := attr.Value.Any().(slog.Level); ok {
			return slog.String("lvl", LevelString(l))
		}
	}

	switch v := attr.Value.Any().(type) {
	case time.Time:
		return slog.String(attr.Key, v.Format(timeFormat))
	case *uint256.Int:
		if v == nil {
			return slog.String(attr.Key, "<nil>")
		}
		return slog.String(attr.Key, v.Dec())
	case fmt.Stringer:
		return slog.String(attr.Key, v.String())
	}
	return attr
}
