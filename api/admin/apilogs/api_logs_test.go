// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package apilogs

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func TestAPILogs(t *testing.T) {
	var enabled atomic.Bool
	router := mux.NewRouter()
	New(&enabled).Mount(router, "/admin/apilogs")

	serve := func(method, body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(method, "/admin/apilogs", strings.NewReader(body)))
		return rr
	}

	rr := serve(http.MethodGet, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"enabled":false}`, rr.Body.String())

	rr = serve(http.MethodPost, `{"enabled":true}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, enabled.Load())

	rr = serve(http.MethodPost, `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "missing 'enabled' field")
	assert.True(t, enabled.Load())

	rr = serve(http.MethodPost, `{"enabled":"yes"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
