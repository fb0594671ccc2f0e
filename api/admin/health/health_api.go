// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/health"
)

type API struct {
	health *health.Health
}

func NewAPI(h *health.Health) *API {
	return &API{
		health: h,
	}
}

func (h *API) handleGetHealth(w http.ResponseWriter, _ *http.Request) error {
	status, err := h.health.Status()
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", utils.JSONContentType)
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	return utils.WriteJSON(w, status)
}

func (h *API) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("health").
		HandlerFunc(utils.WrapHandlerFunc(h.handleGetHealth))
}
