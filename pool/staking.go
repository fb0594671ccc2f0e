// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/vechain/stakepool/pool/ledger"
	"github.com/vechain/stakepool/pool/reverts"
	"github.com/vechain/stakepool/thor"
)

var bpsDenominator = uint256.NewInt(ledger.MaxFeeRate)

// Deposit credits amount, which has arrived in custody, to caller's deposited
// balance and registers caller. A zero amount only registers.
func (p *Pool) Deposit(caller thor.Address, amount *uint256.Int) error {
	logger.Debug("depositing", "caller", caller, "amount", amount)

	err := p.atomic(func() error {
		if err := p.requireInit(); err != nil {
			return err
		}
		if _, err := p.registry.Add(caller); err != nil {
			return err
		}
		part, err := p.ledger.Participant(caller)
		if err != nil {
			return err
		}
		before := part.Deposited
		if part.Deposited, err = ledger.Add(part.Deposited, amount); err != nil {
			return err
		}
		if err := p.ledger.SetParticipant(caller, part); err != nil {
			return err
		}
		if err := p.ledger.AddTotalDeposited(amount); err != nil {
			return err
		}
		if err := p.ledger.AddCustody(amount); err != nil {
			return err
		}
		p.emit(&Event{Kind: EventDeposited, Participant: caller, Amount: amount, Before: before, After: part.Deposited})
		return nil
	})
	if err != nil {
		logger.Info("deposit failed", "caller", caller, "error", err)
		return err
	}
	logger.Info("deposited", "caller", caller, "amount", amount)
	return nil
}

// RequestStake queues caller's whole deposited balance for the next stake commit.
func (p *Pool) RequestStake(caller thor.Address) (*uint256.Int, error) {
	logger.Debug("requesting stake", "caller", caller)

	var amount *uint256.Int
	err := p.atomic(func() error {
		if err := p.requireInit(); err != nil {
			return err
		}
		part, err := p.ledger.Participant(caller)
		if err != nil {
			return err
		}
		if part.Deposited.IsZero() {
			return reverts.ErrNothingDeposited
		}
		amount = part.Deposited
		before := part.RequestedStake
		if part.RequestedStake, err = ledger.Add(part.RequestedStake, amount); err != nil {
			return err
		}
		part.Deposited = new(uint256.Int)
		if err := p.ledger.SetParticipant(caller, part); err != nil {
			return err
		}
		if err := p.ledger.SubTotalDeposited(amount); err != nil {
			return err
		}
		p.emit(&Event{Kind: EventStakeRequested, Participant: caller, Amount: amount, Before: before, After: part.RequestedStake})
		return nil
	})
	if err != nil {
		logger.Info("request stake failed", "caller", caller, "error", err)
		return nil, err
	}
	logger.Info("requested stake", "caller", caller, "amount", amount)
	return amount, nil
}

// RequestUnstake queues amount of caller's staked principal for the next unstake commit.
func (p *Pool) RequestUnstake(caller thor.Address, amount *uint256.Int) error {
	logger.Debug("requesting unstake", "caller", caller, "amount", amount)

	err := p.atomic(func() error {
		if err := p.requireInit(); err != nil {
			return err
		}
		if amount.IsZero() {
			return reverts.ErrZeroAmount
		}
		part, err := p.ledger.Participant(caller)
		if err != nil {
			return err
		}
		available := part.Staked
		if !p.opts.LegacyUnstake {
			if available, err = ledger.Sub(part.Staked, part.RequestedUnstake); err != nil {
				return err
			}
		}
		if available.Lt(amount) {
			return reverts.ErrInsufficientStake
		}
		before := part.RequestedUnstake
		if part.RequestedUnstake, err = ledger.Add(part.RequestedUnstake, amount); err != nil {
			return err
		}
		if err := p.ledger.SetParticipant(caller, part); err != nil {
			return err
		}
		p.emit(&Event{Kind: EventUnstakeRequested, Participant: caller, Amount: amount, Before: before, After: part.RequestedUnstake})
		return nil
	})
	if err != nil {
		logger.Info("request unstake failed", "caller", caller, "error", err)
		return err
	}
	logger.Info("requested unstake", "caller", caller, "amount", amount)
	return nil
}

// CommitStakeRequests moves every pending stake request into staked and pushes
// the total to the venue in one transfer. It returns the amount transferred.
func (p *Pool) CommitStakeRequests(ctx context.Context) (*uint256.Int, error) {
	logger.Debug("committing stake requests")

	toStake := new(uint256.Int)
	var count uint64
	err := p.atomic(func() error {
		if err := p.requireInit(); err != nil {
			return err
		}
		err := p.sweep(func(_ thor.Address, part *ledger.Participant) (bool, error) {
			if part.RequestedStake.IsZero() {
				return false, nil
			}
			var err error
			if toStake, err = ledger.Add(toStake, part.RequestedStake); err != nil {
				return false, err
			}
			if part.Staked, err = ledger.Add(part.Staked, part.RequestedStake); err != nil {
				return false, err
			}
			part.RequestedStake = new(uint256.Int)
			count++
			return true, nil
		})
		if err != nil {
			return err
		}

		before, err := p.ledger.TotalStaked()
		if err != nil {
			return err
		}
		if err := p.ledger.AddTotalStaked(toStake); err != nil {
			return err
		}
		if err := p.ledger.SubCustody(toStake); err != nil {
			return err
		}
		after, err := p.ledger.TotalStaked()
		if err != nil {
			return err
		}
		p.emit(&Event{Kind: EventStakeCommitted, Amount: toStake, Before: before, After: after, Count: count})

		if toStake.IsZero() {
			return nil
		}
		// interaction last, ledger is settled
		_, v, err := p.venue()
		if err != nil {
			return err
		}
		if err := v.AcceptPrincipal(ctx, p.addr, toStake); err != nil {
			return reverts.NewCollaborator("venue rejected principal", err)
		}
		return nil
	})
	if err != nil {
		logger.Info("commit stake requests failed", "error", err)
		return nil, err
	}
	logger.Info("committed stake requests", "amount", toStake, "participants", count)
	return toStake, nil
}

// CommitUnstakeRequests returns every pending unstake request to deposited and
// asks the venue to release the total. Pending owner fee is released along
// with it and credited to the owner fee balance. It returns the principal
// unstaked for participants.
func (p *Pool) CommitUnstakeRequests(ctx context.Context) (*uint256.Int, error) {
	logger.Debug("committing unstake requests")

	toUnstake := new(uint256.Int)
	var count uint64
	err := p.atomic(func() error {
		if err := p.requireInit(); err != nil {
			return err
		}
		err := p.sweep(func(addr thor.Address, part *ledger.Participant) (bool, error) {
			if part.RequestedUnstake.IsZero() {
				return false, nil
			}
			staked, err := ledger.Sub(part.Staked, part.RequestedUnstake)
			if err != nil {
				logger.Warn("unstake over-committed", "participant", addr, "staked", part.Staked, "requested", part.RequestedUnstake)
				return false, reverts.ErrUnstakeOverCommitted
			}
			if toUnstake, err = ledger.Add(toUnstake, part.RequestedUnstake); err != nil {
				return false, err
			}
			if part.Deposited, err = ledger.Add(part.Deposited, part.RequestedUnstake); err != nil {
				return false, err
			}
			part.Staked = staked
			part.RequestedUnstake = new(uint256.Int)
			count++
			return true, nil
		})
		if err != nil {
			return err
		}
		if err := p.ledger.AddTotalDeposited(toUnstake); err != nil {
			return err
		}

		fee, err := p.ledger.PendingFee()
		if err != nil {
			return err
		}
		p.ledger.SetPendingFee(new(uint256.Int))
		if err := p.ledger.AddOwnerFee(fee); err != nil {
			return err
		}

		release, err := ledger.Add(toUnstake, fee)
		if err != nil {
			return err
		}
		before, err := p.ledger.TotalStaked()
		if err != nil {
			return err
		}
		if err := p.ledger.SubTotalStaked(release); err != nil {
			return err
		}
		if err := p.ledger.AddCustody(release); err != nil {
			return err
		}
		after, err := p.ledger.TotalStaked()
		if err != nil {
			return err
		}
		p.emit(&Event{Kind: EventUnstakeCommitted, Amount: toUnstake, Fee: fee, Before: before, After: after, Count: count})

		if release.IsZero() {
			return nil
		}
		_, v, err := p.venue()
		if err != nil {
			return err
		}
		if err := v.ReleasePrincipal(ctx, p.addr, release); err != nil {
			return reverts.NewCollaborator("venue refused release", err)
		}
		return nil
	})
	if err != nil {
		logger.Info("commit unstake requests failed", "error", err)
		return nil, err
	}
	logger.Info("committed unstake requests", "amount", toUnstake, "participants", count)
	return toUnstake, nil
}

// DistributeEarnings credits the venue's surplus over totalStaked pro rata by
// staked balance, less the fee. The residual, fee plus rounding dust, accrues
// to the pending owner fee and totalStaked is resynchronised to the venue's
// figure. It returns false when there is nothing to distribute.
func (p *Pool) DistributeEarnings(ctx context.Context) (bool, error) {
	logger.Debug("distributing earnings")

	var (
		distributed bool
		earnings    *uint256.Int
	)
	err := p.atomic(func() error {
		if err := p.requireInit(); err != nil {
			return err
		}
		_, v, err := p.venue()
		if err != nil {
			return err
		}
		// a read, so it may precede the effects
		venueBalance, err := v.ReportedBalance(ctx, p.addr)
		if err != nil {
			return reverts.NewCollaborator("venue balance unavailable", err)
		}
		total, err := p.ledger.TotalStaked()
		if err != nil {
			return err
		}
		if venueBalance.Lt(total) {
			return reverts.ErrVenueLoss
		}
		earnings = new(uint256.Int).Sub(venueBalance, total)
		if earnings.IsZero() {
			return nil
		}
		if total.IsZero() {
			return reverts.ErrNoStake
		}

		bps, err := p.ledger.FeeRate()
		if err != nil {
			return err
		}
		// share = floor(earnings * (10000 - bps) * staked / (10000 * total))
		numerator, err := ledger.Mul(earnings, uint256.NewInt(ledger.MaxFeeRate-bps))
		if err != nil {
			return err
		}
		denominator, err := ledger.Mul(bpsDenominator, total)
		if err != nil {
			return err
		}

		shared := new(uint256.Int)
		var count uint64
		err = p.sweep(func(_ thor.Address, part *ledger.Participant) (bool, error) {
			if part.Staked.IsZero() {
				return false, nil
			}
			share, err := ledger.MulDiv(numerator, part.Staked, denominator)
			if err != nil {
				return false, err
			}
			if share.IsZero() {
				return false, nil
			}
			if part.Staked, err = ledger.Add(part.Staked, share); err != nil {
				return false, err
			}
			if shared, err = ledger.Add(shared, share); err != nil {
				return false, err
			}
			count++
			return true, nil
		})
		if err != nil {
			return err
		}

		residual, err := ledger.Sub(earnings, shared)
		if err != nil {
			return err
		}
		if err := p.ledger.AddPendingFee(residual); err != nil {
			return err
		}
		p.ledger.SetTotalStaked(venueBalance)

		p.emit(&Event{Kind: EventEarningsDistributed, Amount: earnings, Fee: residual, Before: total, After: venueBalance, Count: count})
		distributed = true
		return nil
	})
	if err != nil {
		logger.Info("distribute earnings failed", "error", err)
		return false, err
	}
	if !distributed {
		logger.Debug("no earnings to distribute")
		return false, nil
	}
	logger.Info("distributed earnings", "earnings", earnings)
	return true, nil
}

// Withdraw pays amount of caller's deposited balance out of custody.
func (p *Pool) Withdraw(caller thor.Address, amount *uint256.Int) error {
	logger.Debug("withdrawing", "caller", caller, "amount", amount)

	err := p.atomic(func() error {
		if err := p.requireInit(); err != nil {
			return err
		}
		if amount.IsZero() {
			return reverts.ErrZeroAmount
		}
		part, err := p.ledger.Participant(caller)
		if err != nil {
			return err
		}
		if part.Deposited.Lt(amount) {
			return reverts.ErrInsufficientDeposit
		}
		before := part.Deposited
		part.Deposited = new(uint256.Int).Sub(part.Deposited, amount)
		if err := p.ledger.SetParticipant(caller, part); err != nil {
			return err
		}
		if err := p.ledger.SubTotalDeposited(amount); err != nil {
			return err
		}
		if err := p.ledger.SubCustody(amount); err != nil {
			return err
		}
		if err := p.ledger.Payout(caller, amount); err != nil {
			return err
		}
		p.emit(&Event{Kind: EventWithdrawn, Participant: caller, Amount: amount, Before: before, After: part.Deposited})
		return nil
	})
	if err != nil {
		logger.Info("withdraw failed", "caller", caller, "error", err)
		return err
	}
	logger.Info("withdrew", "caller", caller, "amount", amount)
	return nil
}
