// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package venue

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/thor"
)

// AmountRequest is the body of accept, release and accrue calls.
type AmountRequest struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// BalanceResponse is the body returned by the balance endpoint.
type BalanceResponse struct {
	Balance *math.HexOrDecimal256 `json:"balance"`
}

// Handler serves a Simulated venue over HTTP so that remote pools can use it through Client.
type Handler struct {
	venue *Simulated
}

func NewHandler(v *Simulated) *Handler {
	return &Handler{venue: v}
}

func poolAddress(req *http.Request) (thor.Address, error) {
	addr, err := thor.ParseAddress(mux.Vars(req)["pool"])
	if err != nil {
		return thor.Address{}, utils.BadRequest(errors.WithMessage(err, "pool"))
	}
	return addr, nil
}

func (h *Handler) parseAmountRequest(req *http.Request) (thor.Address, *AmountRequest, error) {
	pool, err := poolAddress(req)
	if err != nil {
		return thor.Address{}, nil, err
	}
	var body AmountRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return thor.Address{}, nil, utils.BadRequest(errors.WithMessage(err, "body"))
	}
	return pool, &body, nil
}

func (h *Handler) handleAccept(w http.ResponseWriter, req *http.Request) error {
	pool, body, err := h.parseAmountRequest(req)
	if err != nil {
		return err
	}
	amount, err := utils.ParseAmount(body.Amount)
	if err != nil {
		return utils.BadRequest(err)
	}
	if err := h.venue.AcceptPrincipal(req.Context(), pool, amount); err != nil {
		return utils.HTTPError(err, http.StatusUnprocessableEntity)
	}
	return utils.WriteJSON(w, utils.M{"ok": true})
}

func (h *Handler) handleRelease(w http.ResponseWriter, req *http.Request) error {
	pool, body, err := h.parseAmountRequest(req)
	if err != nil {
		return err
	}
	amount, err := utils.ParseAmount(body.Amount)
	if err != nil {
		return utils.BadRequest(err)
	}
	if err := h.venue.ReleasePrincipal(req.Context(), pool, amount); err != nil {
		return utils.HTTPError(err, http.StatusUnprocessableEntity)
	}
	return utils.WriteJSON(w, utils.M{"ok": true})
}

func (h *Handler) handleAccrue(w http.ResponseWriter, req *http.Request) error {
	pool, body, err := h.parseAmountRequest(req)
	if err != nil {
		return err
	}
	amount, err := utils.ParseAmount(body.Amount)
	if err != nil {
		return utils.BadRequest(err)
	}
	if err := h.venue.Accrue(pool, amount); err != nil {
		return utils.BadRequest(err)
	}
	return utils.WriteJSON(w, utils.M{"ok": true})
}

func (h *Handler) handleBalance(w http.ResponseWriter, req *http.Request) error {
	pool, err := poolAddress(req)
	if err != nil {
		return err
	}
	bal, err := h.venue.ReportedBalance(req.Context(), pool)
	if err != nil {
		return utils.HTTPError(err, http.StatusUnprocessableEntity)
	}
	return utils.WriteJSON(w, &BalanceResponse{Balance: utils.Amount(bal)})
}

func (h *Handler) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{pool}/accept").
		Methods(http.MethodPost).
		Name("POST /venue/{pool}/accept").
		HandlerFunc(utils.WrapHandlerFunc(h.handleAccept))
	sub.Path("/{pool}/release").
		Methods(http.MethodPost).
		Name("POST /venue/{pool}/release").
		HandlerFunc(utils.WrapHandlerFunc(h.handleRelease))
	sub.Path("/{pool}/accrue").
		Methods(http.MethodPost).
		Name("POST /venue/{pool}/accrue").
		HandlerFunc(utils.WrapHandlerFunc(h.handleAccrue))
	sub.Path("/{pool}/balance").
		Methods(http.MethodGet).
		Name("GET /venue/{pool}/balance").
		HandlerFunc(utils.WrapHandlerFunc(h.handleBalance))
}
