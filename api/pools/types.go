// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/pool/ledger"
	"github.com/vechain/stakepool/thor"
)

// CallerRequest identifies the account an operation acts for.
type CallerRequest struct {
	Caller *thor.Address `json:"caller"`
}

type AmountRequest struct {
	Caller *thor.Address         `json:"caller"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type VenueRequest struct {
	Caller *thor.Address `json:"caller"`
	Venue  *thor.Address `json:"venue"`
}

type FeeRateRequest struct {
	Caller  *thor.Address `json:"caller"`
	FeeRate *uint64       `json:"feeRate"`
}

type AmountResponse struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type DistributionResponse struct {
	Distributed bool `json:"distributed"`
}

// Balances are the four accounts of one participant.
type Balances struct {
	Address          thor.Address          `json:"address"`
	Deposited        *math.HexOrDecimal256 `json:"deposited"`
	RequestedStake   *math.HexOrDecimal256 `json:"requestedStake"`
	RequestedUnstake *math.HexOrDecimal256 `json:"requestedUnstake"`
	Staked           *math.HexOrDecimal256 `json:"staked"`
}

func convertBalances(addr thor.Address, p *ledger.Participant) *Balances {
	return &Balances{
		Address:          addr,
		Deposited:        utils.Amount(p.Deposited),
		RequestedStake:   utils.Amount(p.RequestedStake),
		RequestedUnstake: utils.Amount(p.RequestedUnstake),
		Staked:           utils.Amount(p.Staked),
	}
}

type Summary struct {
	Address         thor.Address          `json:"address"`
	Owner           thor.Address          `json:"owner"`
	Venue           thor.Address          `json:"venue"`
	FeeRate         uint64                `json:"feeRate"`
	Participants    uint64                `json:"participants"`
	TotalStaked     *math.HexOrDecimal256 `json:"totalStaked"`
	TotalDeposited  *math.HexOrDecimal256 `json:"totalDeposited"`
	OwnerFeeBalance *math.HexOrDecimal256 `json:"ownerFeeBalance"`
	PendingFee      *math.HexOrDecimal256 `json:"pendingFee"`
	Custody         *math.HexOrDecimal256 `json:"custody"`
}

func convertSummary(addr thor.Address, s *pool.Summary) *Summary {
	return &Summary{
		Address:         addr,
		Owner:           s.Owner,
		Venue:           s.Venue,
		FeeRate:         s.FeeRate,
		Participants:    s.Participants,
		TotalStaked:     utils.Amount(s.TotalStaked),
		TotalDeposited:  utils.Amount(s.TotalDeposited),
		OwnerFeeBalance: utils.Amount(s.OwnerFeeBalance),
		PendingFee:      utils.Amount(s.PendingFee),
		Custody:         utils.Amount(s.Custody),
	}
}

type Wallet struct {
	Address thor.Address          `json:"address"`
	Balance *math.HexOrDecimal256 `json:"balance"`
}

type ParticipantsResponse struct {
	Offset       uint64         `json:"offset"`
	Participants []thor.Address `json:"participants"`
}
