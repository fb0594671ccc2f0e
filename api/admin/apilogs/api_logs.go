// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package apilogs

import (
	"net/http"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/log"
)

type Status struct {
	Enabled *bool `json:"enabled"`
}

// APILogs toggles request logging at runtime.
type APILogs struct {
	enabled *atomic.Bool
}

func New(enabled *atomic.Bool) *APILogs {
	return &APILogs{
		enabled: enabled,
	}
}

func (a *APILogs) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("get-api-logs-enabled").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGet))

	sub.Path("").
		Methods(http.MethodPost).
		Name("post-api-logs-enabled").
		HandlerFunc(utils.WrapHandlerFunc(a.handlePost))
}

func (a *APILogs) handleGet(w http.ResponseWriter, _ *http.Request) error {
	enabled := a.enabled.Load()
	return utils.WriteJSON(w, &Status{Enabled: &enabled})
}

func (a *APILogs) handlePost(w http.ResponseWriter, r *http.Request) error {
	var req Status
	if err := utils.ParseJSON(r.Body, &req); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "invalid request body"))
	}
	if req.Enabled == nil {
		return utils.BadRequest(errors.New("missing 'enabled' field"))
	}

	a.enabled.Store(*req.Enabled)
	log.Info("api logs updated", "pkg", "apilogs", "enabled", *req.Enabled)

	return utils.WriteJSON(w, &req)
}
