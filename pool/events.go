// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"github.com/holiman/uint256"

	"github.com/vechain/stakepool/thor"
)

type EventKind string

const (
	EventDeposited           EventKind = "Deposited"
	EventStakeRequested      EventKind = "StakeRequested"
	EventUnstakeRequested    EventKind = "UnstakeRequested"
	EventStakeCommitted      EventKind = "StakeCommitted"
	EventUnstakeCommitted    EventKind = "UnstakeCommitted"
	EventEarningsDistributed EventKind = "EarningsDistributed"
	EventWithdrawn           EventKind = "Withdrawn"
	EventOwnerFeeWithdrawn   EventKind = "OwnerFeeWithdrawn"
	EventVenueChanged        EventKind = "VenueChanged"
	EventFeeRateChanged      EventKind = "FeeRateChanged"
)

// Event is a notification of a settled mutation. Before and After hold the
// balance the event is about:
//
//	Deposited, Withdrawn           participant deposited
//	StakeRequested                 participant requestedStake
//	UnstakeRequested               participant requestedUnstake
//	StakeCommitted, UnstakeCommitted, EarningsDistributed   pool totalStaked
//	OwnerFeeWithdrawn              pool ownerFeeBalance
//	FeeRateChanged                 fee rate in basis points
//	VenueChanged                   unset; Amount is the principal left at PrevVenue
type Event struct {
	ID          string // operation id, assigned when published
	Kind        EventKind
	Time        int64 // unix seconds, assigned when published
	Participant thor.Address
	Amount      *uint256.Int
	Before      *uint256.Int
	After       *uint256.Int
	Fee         *uint256.Int // residual credited to the owner
	Count       uint64       // participants settled by a sweep
	Venue       thor.Address
	PrevVenue   thor.Address
}

func (p *Pool) emit(ev *Event) {
	for _, f := range []**uint256.Int{&ev.Amount, &ev.Before, &ev.After, &ev.Fee} {
		if *f == nil {
			*f = new(uint256.Int)
		} else {
			*f = new(uint256.Int).Set(*f)
		}
	}
	p.events = append(p.events, ev)
}

// Events returns the notifications buffered since the last TakeEvents.
func (p *Pool) Events() []*Event {
	return p.events
}

// TakeEvents drains the notification buffer.
func (p *Pool) TakeEvents() []*Event {
	evs := p.events
	p.events = nil
	return evs
}
