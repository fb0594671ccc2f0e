// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pool implements the accounting engine of a custodial staking pool.
//
// Every public operation is atomic: it runs inside a state checkpoint, applies
// all ledger effects before the single venue interaction, and reverts to the
// checkpoint on any error.
package pool

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/pool/ledger"
	"github.com/vechain/stakepool/pool/registry"
	"github.com/vechain/stakepool/pool/reverts"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/venue"
)

var logger = log.WithContext("pkg", "pool")

const (
	DefaultFeeRate       = 100 // 1%
	DefaultSweepPageSize = 256
)

func SetLogger(l log.Logger) {
	logger = l
}

// Options tunes engine policy.
type Options struct {
	// LegacyUnstake only checks staked >= amount when an unstake is requested,
	// so over-commitment is detected at commit time and reverts the sweep.
	LegacyUnstake bool
	// SweepPageSize is how many registry entries a sweep loads at a time.
	SweepPageSize uint64
}

// Resolver finds the venue client bound to an address.
type Resolver interface {
	Resolve(addr thor.Address) (venue.Venue, error)
}

// Pool is the staking engine bound to one pool account in state.
type Pool struct {
	addr     thor.Address
	state    *state.State
	ledger   *ledger.Ledger
	registry *registry.Registry
	venues   Resolver
	opts     Options

	events []*Event
}

func New(addr thor.Address, st *state.State, venues Resolver, opts Options) *Pool {
	if opts.SweepPageSize == 0 {
		opts.SweepPageSize = DefaultSweepPageSize
	}
	sctx := solidity.NewContext(addr, st)
	return &Pool{
		addr:     addr,
		state:    st,
		ledger:   ledger.New(sctx),
		registry: registry.New(sctx),
		venues:   venues,
		opts:     opts,
	}
}

// Address returns the pool account.
func (p *Pool) Address() thor.Address {
	return p.addr
}

// Initialized reports whether Init has run against this state.
func (p *Pool) Initialized() (bool, error) {
	n, err := p.registry.Len()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Init pins owner at registry index 0 and stores the initial venue and fee
// rate. It does nothing on an already initialised pool.
func (p *Pool) Init(owner, venueAddr thor.Address, feeRate uint64) error {
	return p.atomic(func() error {
		ok, err := p.Initialized()
		if err != nil || ok {
			return err
		}
		if owner.IsZero() {
			return reverts.ErrZeroAddress
		}
		if err := p.ledger.SetFeeRate(feeRate); err != nil {
			return err
		}
		if err := p.registry.Init(owner); err != nil {
			return err
		}
		p.ledger.SetVenue(venueAddr)
		logger.Info("pool initialised", "pool", p.addr, "owner", owner, "venue", venueAddr, "feeBps", feeRate)
		return nil
	})
}

// atomic runs fn inside a checkpoint. On error, state and the event buffer
// are rolled back to where they were.
func (p *Pool) atomic(fn func() error) error {
	checkpoint := p.state.NewCheckpoint()
	nEvents := len(p.events)
	if err := fn(); err != nil {
		p.state.RevertTo(checkpoint)
		p.events = p.events[:nEvents]
		return err
	}
	return nil
}

func (p *Pool) requireInit() error {
	ok, err := p.Initialized()
	if err != nil {
		return err
	}
	if !ok {
		return reverts.ErrNotInitialized
	}
	return nil
}

func (p *Pool) owner() (thor.Address, error) {
	owner, err := p.registry.Owner()
	if err != nil {
		return thor.Address{}, errors.Wrap(err, "failed to get owner")
	}
	return owner, nil
}

func (p *Pool) onlyOwner(caller thor.Address) error {
	if err := p.requireInit(); err != nil {
		return err
	}
	owner, err := p.owner()
	if err != nil {
		return err
	}
	if owner.IsZero() || caller != owner {
		return reverts.ErrNotOwner
	}
	return nil
}

func (p *Pool) venue() (thor.Address, venue.Venue, error) {
	addr, err := p.ledger.Venue()
	if err != nil {
		return thor.Address{}, nil, err
	}
	if addr.IsZero() {
		return thor.Address{}, nil, reverts.ErrVenueNotSet
	}
	v, err := p.venues.Resolve(addr)
	if err != nil {
		return thor.Address{}, nil, reverts.NewCollaborator("resolve venue", err)
	}
	return addr, v, nil
}

// sweep visits every registered participant and stores the record back when fn reports a change.
func (p *Pool) sweep(fn func(addr thor.Address, part *ledger.Participant) (bool, error)) error {
	return p.registry.Range(p.opts.SweepPageSize, func(addr thor.Address) error {
		part, err := p.ledger.Participant(addr)
		if err != nil {
			return err
		}
		changed, err := fn(addr, part)
		if err != nil || !changed {
			return err
		}
		return p.ledger.SetParticipant(addr, part)
	})
}
