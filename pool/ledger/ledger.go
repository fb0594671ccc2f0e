// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/pool/reverts"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
)

var (
	slotParticipants    = thor.BytesToBytes32([]byte("participant-balances"))
	slotTotalStaked     = thor.BytesToBytes32([]byte("total-staked"))
	slotTotalDeposited  = thor.BytesToBytes32([]byte("total-deposited"))
	slotOwnerFeeBalance = thor.BytesToBytes32([]byte("owner-fee-balance"))
	slotPendingFee      = thor.BytesToBytes32([]byte("pending-fee"))
	slotFeeRate         = thor.BytesToBytes32([]byte("fee-rate-bps"))
	slotVenue           = thor.BytesToBytes32([]byte("venue"))
)

// MaxFeeRate is 100% in basis points.
const MaxFeeRate = 10000

// Ledger stores participant records and pool aggregates. It does no policy
// checks beyond checked arithmetic; callers enforce operation preconditions.
type Ledger struct {
	addr  thor.Address
	state *state.State

	participants    *solidity.Mapping[thor.Address, *Participant]
	totalStaked     *solidity.Uint256
	totalDeposited  *solidity.Uint256
	ownerFeeBalance *solidity.Uint256
	pendingFee      *solidity.Uint256
	feeRate         *solidity.Uint256
	venue           *solidity.Address
}

func New(sctx *solidity.Context) *Ledger {
	return &Ledger{
		addr:            sctx.Address(),
		state:           sctx.State(),
		participants:    solidity.NewMapping[thor.Address, *Participant](sctx, slotParticipants),
		totalStaked:     solidity.NewUint256(sctx, slotTotalStaked),
		totalDeposited:  solidity.NewUint256(sctx, slotTotalDeposited),
		ownerFeeBalance: solidity.NewUint256(sctx, slotOwnerFeeBalance),
		pendingFee:      solidity.NewUint256(sctx, slotPendingFee),
		feeRate:         solidity.NewUint256(sctx, slotFeeRate),
		venue:           solidity.NewAddress(sctx, slotVenue),
	}
}

// Participant returns the record of addr; unknown addresses read as all zero.
func (l *Ledger) Participant(addr thor.Address) (*Participant, error) {
	p, err := l.participants.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get participant")
	}
	return p.normalize(), nil
}

func (l *Ledger) SetParticipant(addr thor.Address, p *Participant) error {
	if p.IsEmpty() {
		l.participants.Delete(addr)
		return nil
	}
	if err := l.participants.Set(addr, p); err != nil {
		return errors.Wrap(err, "failed to set participant")
	}
	return nil
}

func (l *Ledger) TotalStaked() (*uint256.Int, error) { return l.totalStaked.Get() }

func (l *Ledger) SetTotalStaked(v *uint256.Int) { l.totalStaked.Set(v) }

func (l *Ledger) AddTotalStaked(v *uint256.Int) error { return arith(l.totalStaked.Add(v)) }

func (l *Ledger) SubTotalStaked(v *uint256.Int) error { return arith(l.totalStaked.Sub(v)) }

func (l *Ledger) TotalDeposited() (*uint256.Int, error) { return l.totalDeposited.Get() }

func (l *Ledger) AddTotalDeposited(v *uint256.Int) error { return arith(l.totalDeposited.Add(v)) }

func (l *Ledger) SubTotalDeposited(v *uint256.Int) error { return arith(l.totalDeposited.Sub(v)) }

func (l *Ledger) OwnerFeeBalance() (*uint256.Int, error) { return l.ownerFeeBalance.Get() }

func (l *Ledger) AddOwnerFee(v *uint256.Int) error { return arith(l.ownerFeeBalance.Add(v)) }

func (l *Ledger) SetOwnerFeeBalance(v *uint256.Int) { l.ownerFeeBalance.Set(v) }

// PendingFee is owner fee and rounding dust that still sits at the venue.
func (l *Ledger) PendingFee() (*uint256.Int, error) { return l.pendingFee.Get() }

func (l *Ledger) AddPendingFee(v *uint256.Int) error { return arith(l.pendingFee.Add(v)) }

func (l *Ledger) SetPendingFee(v *uint256.Int) { l.pendingFee.Set(v) }

func (l *Ledger) FeeRate() (uint64, error) {
	v, err := l.feeRate.Get()
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

func (l *Ledger) SetFeeRate(bps uint64) error {
	if bps > MaxFeeRate {
		return reverts.ErrInvalidFeeRate
	}
	l.feeRate.Set(uint256.NewInt(bps))
	return nil
}

func (l *Ledger) Venue() (thor.Address, error) { return l.venue.Get() }

func (l *Ledger) SetVenue(addr thor.Address) { l.venue.Set(addr) }

// Custody returns the pool's idle custodial balance.
func (l *Ledger) Custody() (*uint256.Int, error) {
	return l.state.GetBalance(l.addr)
}

func (l *Ledger) AddCustody(v *uint256.Int) error {
	return l.transfer(l.addr, v, false)
}

func (l *Ledger) SubCustody(v *uint256.Int) error {
	if err := l.transfer(l.addr, v, true); err != nil {
		if reverts.IsRevertErr(err) {
			return reverts.ErrInsufficientCustody
		}
		return err
	}
	return nil
}

// Payout credits an external account with funds that left custody.
func (l *Ledger) Payout(to thor.Address, v *uint256.Int) error {
	return l.transfer(to, v, false)
}

// Wallet returns the external balance of addr, i.e. everything paid out to it.
func (l *Ledger) Wallet(addr thor.Address) (*uint256.Int, error) {
	return l.state.GetBalance(addr)
}

func (l *Ledger) transfer(addr thor.Address, v *uint256.Int, sub bool) error {
	bal, err := l.state.GetBalance(addr)
	if err != nil {
		return err
	}
	var next *uint256.Int
	if sub {
		next, err = Sub(bal, v)
	} else {
		next, err = Add(bal, v)
	}
	if err != nil {
		return err
	}
	return l.state.SetBalance(addr, next)
}

// arith converts storage overflow errors into arithmetic reverts.
func arith(err error) error {
	if err == nil {
		return nil
	}
	var overflow *solidity.ErrOverflow
	if errors.As(err, &overflow) {
		return reverts.NewArithmetic("aggregate update failed", err)
	}
	return err
}
