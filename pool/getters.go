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

// GetBalances returns caller's four balances.
func (p *Pool) GetBalances(caller thor.Address) (*ledger.Participant, error) {
	return p.ledger.Participant(caller)
}

// Wallet returns what has been paid out of the pool to addr.
func (p *Pool) Wallet(addr thor.Address) (*uint256.Int, error) {
	return p.ledger.Wallet(addr)
}

// Summary is a snapshot of the pool aggregates.
type Summary struct {
	Owner           thor.Address
	Venue           thor.Address
	FeeRate         uint64
	Participants    uint64 // registry size, owner included
	TotalStaked     *uint256.Int
	TotalDeposited  *uint256.Int
	OwnerFeeBalance *uint256.Int
	PendingFee      *uint256.Int
	Custody         *uint256.Int
}

func (p *Pool) Summary() (*Summary, error) {
	var (
		s   Summary
		err error
	)
	if s.Owner, err = p.owner(); err != nil {
		return nil, err
	}
	if s.Venue, err = p.ledger.Venue(); err != nil {
		return nil, err
	}
	if s.FeeRate, err = p.ledger.FeeRate(); err != nil {
		return nil, err
	}
	if s.Participants, err = p.registry.Len(); err != nil {
		return nil, err
	}
	if s.TotalStaked, err = p.ledger.TotalStaked(); err != nil {
		return nil, err
	}
	if s.TotalDeposited, err = p.ledger.TotalDeposited(); err != nil {
		return nil, err
	}
	if s.OwnerFeeBalance, err = p.ledger.OwnerFeeBalance(); err != nil {
		return nil, err
	}
	if s.PendingFee, err = p.ledger.PendingFee(); err != nil {
		return nil, err
	}
	if s.Custody, err = p.ledger.Custody(); err != nil {
		return nil, err
	}
	return &s, nil
}

// VenueBalance asks the current venue what it holds for the pool.
func (p *Pool) VenueBalance(ctx context.Context) (*uint256.Int, error) {
	_, v, err := p.venue()
	if err != nil {
		return nil, err
	}
	bal, err := v.ReportedBalance(ctx, p.addr)
	if err != nil {
		return nil, reverts.NewCollaborator("venue balance unavailable", err)
	}
	return bal, nil
}

// Participants returns up to limit registered addresses starting at offset, in registry order.
func (p *Pool) Participants(offset, limit uint64) ([]thor.Address, error) {
	return p.registry.Page(offset, limit)
}

// RemoveParticipant drops an address with no balances from the registry.
// The owner and unknown addresses are ignored.
func (p *Pool) RemoveParticipant(addr thor.Address) (bool, error) {
	var removed bool
	err := p.atomic(func() error {
		if err := p.requireInit(); err != nil {
			return err
		}
		part, err := p.ledger.Participant(addr)
		if err != nil {
			return err
		}
		if !part.IsEmpty() {
			return nil
		}
		removed, err = p.registry.Remove(addr)
		return err
	})
	return removed, err
}
