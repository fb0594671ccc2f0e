// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/holiman/uint256"
)

// Participant holds the four accounts of one participant.
type Participant struct {
	Deposited        *uint256.Int // idle, withdrawable on demand
	RequestedStake   *uint256.Int // enters at the next stake commit
	RequestedUnstake *uint256.Int // leaves at the next unstake commit
	Staked           *uint256.Int // earning at the venue
}

func newParticipant() *Participant {
	return &Participant{
		Deposited:        new(uint256.Int),
		RequestedStake:   new(uint256.Int),
		RequestedUnstake: new(uint256.Int),
		Staked:           new(uint256.Int),
	}
}

func (p *Participant) normalize() *Participant {
	for _, f := range []**uint256.Int{&p.Deposited, &p.RequestedStake, &p.RequestedUnstake, &p.Staked} {
		if *f == nil {
			*f = new(uint256.Int)
		}
	}
	return p
}

// IsEmpty returns true if every account is zero.
func (p *Participant) IsEmpty() bool {
	return p.Deposited.IsZero() && p.RequestedStake.IsZero() && p.RequestedUnstake.IsZero() && p.Staked.IsZero()
}

// Clone returns a deep copy.
func (p *Participant) Clone() *Participant {
	return &Participant{
		Deposited:        new(uint256.Int).Set(p.Deposited),
		RequestedStake:   new(uint256.Int).Set(p.RequestedStake),
		RequestedUnstake: new(uint256.Int).Set(p.RequestedUnstake),
		Staked:           new(uint256.Int).Set(p.Staked),
	}
}
