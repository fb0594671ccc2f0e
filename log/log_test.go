// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromLegacyLevel(t *testing.T) {
	assert.Equal(t, LevelCrit, FromLegacyLevel(LegacyLevelCrit))
	assert.Equal(t, slog.LevelInfo, FromLegacyLevel(LegacyLevelInfo))
	assert.Equal(t, LevelTrace, FromLegacyLevel(LegacyLevelTrace))
	assert.Equal(t, LevelTrace, FromLegacyLevel(9))
	assert.Equal(t, LevelCrit, FromLegacyLevel(-1))
}

func TestTerminalHandler(t *testing.T) {
	var lvl slog.LevelVar
	lvl.Set(slog.LevelInfo)

	buf := &bytes.Buffer{}
	l := NewLogger(NewTerminalHandlerWithLevel(buf, &lvl, false)).With("pkg", "pool")

	l.Debug("hidden")
	assert.Empty(t, buf.String())

	l.Info("deposit accepted", "amount", uint256.NewInt(1000), "note", "two words")
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "INFO "))
	assert.Contains(t, out, "deposit accepted")
	assert.Contains(t, out, "pkg=pool")
	assert.Contains(t, out, "amount=1000")
	assert.Contains(t, out, `note="two words"`)

	lvl.Set(LevelTrace)
	buf.Reset()
	l.Trace("now visible")
	assert.Contains(t, buf.String(), "TRACE")
}

func TestJSONHandler(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLogger(JSONHandler(buf))
	l.Warn("venue changed", "principal", uint256.NewInt(42))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "warn", rec["lvl"])
	assert.Equal(t, "42", rec["principal"])
	assert.Equal(t, "venue changed", rec["msg"])
}

func TestWithContextFollowsRoot(t *testing.T) {
	pkgLogger := WithContext("pkg", "test")

	old := Root()
	defer SetDefault(old)

	buf := &bytes.Buffer{}
	SetDefault(NewLogger(JSONHandler(buf)))
	pkgLogger.Info("hello", "k", 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "test", rec["pkg"])
	assert.Equal(t, float64(1), rec["k"])
}

func TestOddArguments(t *testing.T) {
	buf := &bytes.Buffer{}
	NewLogger(NewTerminalHandler(buf, false)).Info("odd", "lonely")
	assert.Contains(t, buf.String(), errorKey)
}
