// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/holiman/uint256"

	"github.com/vechain/stakepool/pool/ledger"
	"github.com/vechain/stakepool/pool/reverts"
	"github.com/vechain/stakepool/thor"
)

// WithdrawOwnerFee pays the whole owner fee balance out of custody to the owner.
func (p *Pool) WithdrawOwnerFee(caller thor.Address) (*uint256.Int, error) {
	logger.Debug("withdrawing owner fee", "caller", caller)

	var fee *uint256.Int
	err := p.atomic(func() error {
		if err := p.onlyOwner(caller); err != nil {
			return err
		}
		var err error
		if fee, err = p.ledger.OwnerFeeBalance(); err != nil {
			return err
		}
		if fee.IsZero() {
			return reverts.ErrNoOwnerFee
		}
		p.ledger.SetOwnerFeeBalance(new(uint256.Int))
		if err := p.ledger.SubCustody(fee); err != nil {
			return err
		}
		if err := p.ledger.Payout(caller, fee); err != nil {
			return err
		}
		p.emit(&Event{Kind: EventOwnerFeeWithdrawn, Participant: caller, Amount: fee, Before: fee, After: new(uint256.Int)})
		return nil
	})
	if err != nil {
		logger.Info("withdraw owner fee failed", "caller", caller, "error", err)
		return nil, err
	}
	logger.Info("withdrew owner fee", "amount", fee)
	return fee, nil
}

// SetVenueAddress repoints the pool at another venue. Principal held by the
// previous venue is not migrated.
func (p *Pool) SetVenueAddress(caller, addr thor.Address) error {
	logger.Debug("setting venue", "caller", caller, "venue", addr)

	err := p.atomic(func() error {
		if err := p.onlyOwner(caller); err != nil {
			return err
		}
		if addr.IsZero() {
			return reverts.ErrZeroAddress
		}
		prev, err := p.ledger.Venue()
		if err != nil {
			return err
		}
		total, err := p.ledger.TotalStaked()
		if err != nil {
			return err
		}
		if !total.IsZero() && prev != addr {
			logger.Warn("venue repointed with principal outstanding", "prev", prev, "venue", addr, "totalStaked", total)
		}
		p.ledger.SetVenue(addr)
		p.emit(&Event{Kind: EventVenueChanged, Participant: caller, Amount: total, Venue: addr, PrevVenue: prev})
		return nil
	})
	if err != nil {
		logger.Info("set venue failed", "caller", caller, "error", err)
		return err
	}
	logger.Info("venue set", "venue", addr)
	return nil
}

// SetFeeRate changes the fee skimmed from future distributions.
func (p *Pool) SetFeeRate(caller thor.Address, bps uint64) error {
	logger.Debug("setting fee rate", "caller", caller, "bps", bps)

	err := p.atomic(func() error {
		if err := p.onlyOwner(caller); err != nil {
			return err
		}
		before, err := p.ledger.FeeRate()
		if err != nil {
			return err
		}
		if err := p.ledger.SetFeeRate(bps); err != nil {
			return err
		}
		p.emit(&Event{Kind: EventFeeRateChanged, Participant: caller, Before: uint256.NewInt(before), After: uint256.NewInt(bps)})
		return nil
	})
	if err != nil {
		logger.Info("set fee rate failed", "caller", caller, "error", err)
		return err
	}
	logger.Info("fee rate set", "bps", bps)
	return nil
}

// UndistributedCustodialFunds returns custody not owed to anybody: custody
// minus the owner fee balance and every participant's deposited and
// requested stake. It is a read and mutates nothing.
func (p *Pool) UndistributedCustodialFunds(caller thor.Address) (*uint256.Int, error) {
	if err := p.onlyOwner(caller); err != nil {
		return nil, err
	}
	custody, err := p.ledger.Custody()
	if err != nil {
		return nil, err
	}
	owed, err := p.ledger.OwnerFeeBalance()
	if err != nil {
		return nil, err
	}
	err = p.registry.Range(p.opts.SweepPageSize, func(addr thor.Address) error {
		part, err := p.ledger.Participant(addr)
		if err != nil {
			return err
		}
		if owed, err = ledger.Add(owed, part.Deposited); err != nil {
			return err
		}
		owed, err = ledger.Add(owed, part.RequestedStake)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ledger.Sub(custody, owed)
}
