// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package loglevel

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/log"
)

func TestLogLevelHandler(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           any
		expectedStatus int
		expectedLevel  string
		expectedError  string
	}{
		{"set debug", http.MethodPost, Request{Level: "debug"}, http.StatusOK, "debug", ""},
		{"set trace", http.MethodPost, Request{Level: "trace"}, http.StatusOK, "trace", ""},
		{"set crit", http.MethodPost, Request{Level: "crit"}, http.StatusOK, "crit", ""},
		{"invalid level", http.MethodPost, Request{Level: "loud"}, http.StatusBadRequest, "", "invalid verbosity level: loud"},
		{"unknown field", http.MethodPost, map[string]string{"lvl": "debug"}, http.StatusBadRequest, "", "invalid request body"},
		{"get", http.MethodGet, nil, http.StatusOK, "info", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var level slog.LevelVar
			level.Set(log.LevelInfo)

			var body []byte
			if tt.body != nil {
				var err error
				body, err = json.Marshal(tt.body)
				require.NoError(t, err)
			}
			req := httptest.NewRequest(tt.method, "/admin/loglevel", bytes.NewReader(body))
			rr := httptest.NewRecorder()

			router := mux.NewRouter()
			New(&level).Mount(router, "/admin/loglevel")
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedError != "" {
				assert.Contains(t, rr.Body.String(), tt.expectedError)
				assert.Equal(t, log.LevelInfo, level.Level(), "level must not change")
				return
			}
			var res Response
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
			assert.Equal(t, tt.expectedLevel, res.CurrentLevel)
		})
	}
}
