// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/thor"
)

const defaultPageLimit = 100

// Pools exposes a pool.Service over REST. Callers name themselves in the
// request body; authentication is left to the deployment.
type Pools struct {
	svc       *pool.Service
	pageLimit uint64
}

func New(svc *pool.Service, pageLimit uint64) *Pools {
	if pageLimit == 0 {
		pageLimit = defaultPageLimit
	}
	return &Pools{svc: svc, pageLimit: pageLimit}
}

func parseCaller(caller *thor.Address) (thor.Address, error) {
	if caller == nil {
		return thor.Address{}, utils.BadRequest(errors.New("caller: missing"))
	}
	return *caller, nil
}

func (p *Pools) parseAmountRequest(req *http.Request) (thor.Address, *uint256.Int, error) {
	var body AmountRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return thor.Address{}, nil, utils.BadRequest(errors.WithMessage(err, "body"))
	}
	caller, err := parseCaller(body.Caller)
	if err != nil {
		return thor.Address{}, nil, err
	}
	amount, err := utils.ParseAmount(body.Amount)
	if err != nil {
		return thor.Address{}, nil, utils.BadRequest(err)
	}
	return caller, amount, nil
}

func (p *Pools) handleDeposit(w http.ResponseWriter, req *http.Request) error {
	caller, amount, err := p.parseAmountRequest(req)
	if err != nil {
		return err
	}
	if err := p.svc.Deposit(caller, amount); err != nil {
		return utils.FromRevert(err)
	}
	return p.writeBalances(w, caller)
}

func (p *Pools) handleRequestStake(w http.ResponseWriter, req *http.Request) error {
	var body CallerRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	caller, err := parseCaller(body.Caller)
	if err != nil {
		return err
	}
	amount, err := p.svc.RequestStake(caller)
	if err != nil {
		return utils.FromRevert(err)
	}
	return utils.WriteJSON(w, &AmountResponse{Amount: utils.Amount(amount)})
}

func (p *Pools) handleRequestUnstake(w http.ResponseWriter, req *http.Request) error {
	caller, amount, err := p.parseAmountRequest(req)
	if err != nil {
		return err
	}
	if err := p.svc.RequestUnstake(caller, amount); err != nil {
		return utils.FromRevert(err)
	}
	return p.writeBalances(w, caller)
}

func (p *Pools) handleCommitStake(w http.ResponseWriter, req *http.Request) error {
	amount, err := p.svc.CommitStakeRequests(req.Context())
	if err != nil {
		return utils.FromRevert(err)
	}
	return utils.WriteJSON(w, &AmountResponse{Amount: utils.Amount(amount)})
}

func (p *Pools) handleCommitUnstake(w http.ResponseWriter, req *http.Request) error {
	amount, err := p.svc.CommitUnstakeRequests(req.Context())
	if err != nil {
		return utils.FromRevert(err)
	}
	return utils.WriteJSON(w, &AmountResponse{Amount: utils.Amount(amount)})
}

func (p *Pools) handleDistribute(w http.ResponseWriter, req *http.Request) error {
	ok, err := p.svc.DistributeEarnings(req.Context())
	if err != nil {
		return utils.FromRevert(err)
	}
	return utils.WriteJSON(w, &DistributionResponse{Distributed: ok})
}

func (p *Pools) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	caller, amount, err := p.parseAmountRequest(req)
	if err != nil {
		return err
	}
	if err := p.svc.Withdraw(caller, amount); err != nil {
		return utils.FromRevert(err)
	}
	return p.writeBalances(w, caller)
}

func (p *Pools) handleWithdrawOwnerFee(w http.ResponseWriter, req *http.Request) error {
	var body CallerRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	caller, err := parseCaller(body.Caller)
	if err != nil {
		return err
	}
	fee, err := p.svc.WithdrawOwnerFee(caller)
	if err != nil {
		return utils.FromRevert(err)
	}
	return utils.WriteJSON(w, &AmountResponse{Amount: utils.Amount(fee)})
}

func (p *Pools) handleSetVenue(w http.ResponseWriter, req *http.Request) error {
	var body VenueRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	caller, err := parseCaller(body.Caller)
	if err != nil {
		return err
	}
	if body.Venue == nil {
		return utils.BadRequest(errors.New("venue: missing"))
	}
	if err := p.svc.SetVenueAddress(caller, *body.Venue); err != nil {
		return utils.FromRevert(err)
	}
	return p.writeSummary(w)
}

func (p *Pools) handleSetFeeRate(w http.ResponseWriter, req *http.Request) error {
	var body FeeRateRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	caller, err := parseCaller(body.Caller)
	if err != nil {
		return err
	}
	if body.FeeRate == nil {
		return utils.BadRequest(errors.New("feeRate: missing"))
	}
	if err := p.svc.SetFeeRate(caller, *body.FeeRate); err != nil {
		return utils.FromRevert(err)
	}
	return p.writeSummary(w)
}

func (p *Pools) handleGetUndistributed(w http.ResponseWriter, req *http.Request) error {
	caller, err := thor.ParseAddress(req.URL.Query().Get("caller"))
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "caller"))
	}
	amount, err := p.svc.UndistributedCustodialFunds(caller)
	if err != nil {
		return utils.FromRevert(err)
	}
	return utils.WriteJSON(w, &AmountResponse{Amount: utils.Amount(amount)})
}

func (p *Pools) handleGetSummary(w http.ResponseWriter, _ *http.Request) error {
	return p.writeSummary(w)
}

func (p *Pools) handleGetParticipants(w http.ResponseWriter, req *http.Request) error {
	offset, err := parseUint(req, "offset", 0)
	if err != nil {
		return err
	}
	limit, err := parseUint(req, "limit", p.pageLimit)
	if err != nil {
		return err
	}
	if limit > p.pageLimit {
		return utils.BadRequest(errors.Errorf("limit: exceeds %d", p.pageLimit))
	}
	addrs, err := p.svc.Participants(offset, limit)
	if err != nil {
		return err
	}
	if addrs == nil {
		addrs = []thor.Address{}
	}
	return utils.WriteJSON(w, &ParticipantsResponse{Offset: offset, Participants: addrs})
}

func (p *Pools) handleGetParticipant(w http.ResponseWriter, req *http.Request) error {
	addr, err := thor.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	return p.writeBalances(w, addr)
}

func (p *Pools) handleRemoveParticipant(w http.ResponseWriter, req *http.Request) error {
	addr, err := thor.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	caller, err := thor.ParseAddress(req.URL.Query().Get("caller"))
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "caller"))
	}
	removed, err := p.svc.RemoveParticipant(caller, addr)
	if err != nil {
		return utils.FromRevert(err)
	}
	if !removed {
		return utils.HTTPError(errors.New("participant has balances or is not registered"), http.StatusConflict)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (p *Pools) handleGetWallet(w http.ResponseWriter, req *http.Request) error {
	addr, err := thor.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	bal, err := p.svc.Wallet(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Wallet{Address: addr, Balance: utils.Amount(bal)})
}

func (p *Pools) writeBalances(w http.ResponseWriter, addr thor.Address) error {
	bal, err := p.svc.GetBalances(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertBalances(addr, bal))
}

func (p *Pools) writeSummary(w http.ResponseWriter) error {
	s, err := p.svc.Summary()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertSummary(p.svc.Address(), s))
}

func parseUint(req *http.Request, name string, def uint64) (uint64, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, name))
	}
	return v, nil
}

func (p *Pools) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /pool").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetSummary))
	sub.Path("/deposits").
		Methods(http.MethodPost).
		Name("POST /pool/deposits").
		HandlerFunc(utils.WrapHandlerFunc(p.handleDeposit))
	sub.Path("/stake-requests").
		Methods(http.MethodPost).
		Name("POST /pool/stake-requests").
		HandlerFunc(utils.WrapHandlerFunc(p.handleRequestStake))
	sub.Path("/unstake-requests").
		Methods(http.MethodPost).
		Name("POST /pool/unstake-requests").
		HandlerFunc(utils.WrapHandlerFunc(p.handleRequestUnstake))
	sub.Path("/commits/stake").
		Methods(http.MethodPost).
		Name("POST /pool/commits/stake").
		HandlerFunc(utils.WrapHandlerFunc(p.handleCommitStake))
	sub.Path("/commits/unstake").
		Methods(http.MethodPost).
		Name("POST /pool/commits/unstake").
		HandlerFunc(utils.WrapHandlerFunc(p.handleCommitUnstake))
	sub.Path("/distributions").
		Methods(http.MethodPost).
		Name("POST /pool/distributions").
		HandlerFunc(utils.WrapHandlerFunc(p.handleDistribute))
	sub.Path("/withdrawals").
		Methods(http.MethodPost).
		Name("POST /pool/withdrawals").
		HandlerFunc(utils.WrapHandlerFunc(p.handleWithdraw))
	sub.Path("/participants").
		Methods(http.MethodGet).
		Name("GET /pool/participants").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetParticipants))
	sub.Path("/participants/{address}").
		Methods(http.MethodGet).
		Name("GET /pool/participants/{address}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetParticipant))
	sub.Path("/wallets/{address}").
		Methods(http.MethodGet).
		Name("GET /pool/wallets/{address}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetWallet))

	// owner only
	sub.Path("/owner-fee/withdrawals").
		Methods(http.MethodPost).
		Name("POST /pool/owner-fee/withdrawals").
		HandlerFunc(utils.WrapHandlerFunc(p.handleWithdrawOwnerFee))
	sub.Path("/venue").
		Methods(http.MethodPut).
		Name("PUT /pool/venue").
		HandlerFunc(utils.WrapHandlerFunc(p.handleSetVenue))
	sub.Path("/fee-rate").
		Methods(http.MethodPut).
		Name("PUT /pool/fee-rate").
		HandlerFunc(utils.WrapHandlerFunc(p.handleSetFeeRate))
	sub.Path("/undistributed").
		Methods(http.MethodGet).
		Name("GET /pool/undistributed").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetUndistributed))
	sub.Path("/participants/{address}").
		Methods(http.MethodDelete).
		Name("DELETE /pool/participants/{address}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleRemoveParticipant))
}
