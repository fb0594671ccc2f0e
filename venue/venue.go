// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package venue defines the boundary between the pool and the upstream stake
// venue that holds pooled principal, plus an in-memory and an HTTP implementation.
package venue

import (
	"context"
	"sync"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/thor"
)

var (
	ErrUnknownVenue          = errors.New("unknown venue")
	ErrInsufficientPrincipal = errors.New("insufficient principal at venue")
)

// Venue is the upstream staking venue. Every method may fail, and the pool
// treats any error as grounds to abort the calling operation.
type Venue interface {
	// AcceptPrincipal pushes amount of pool principal into the venue.
	AcceptPrincipal(ctx context.Context, pool thor.Address, amount *uint256.Int) error
	// ReleasePrincipal returns amount back to the pool's custody.
	ReleasePrincipal(ctx context.Context, pool thor.Address, amount *uint256.Int) error
	// ReportedBalance is what the venue holds for pool, principal plus yield.
	ReportedBalance(ctx context.Context, pool thor.Address) (*uint256.Int, error)
}

// Directory maps venue addresses to venue clients.
type Directory struct {
	lock   sync.RWMutex
	venues map[thor.Address]Venue
}

func NewDirectory() *Directory {
	return &Directory{venues: make(map[thor.Address]Venue)}
}

// Register binds addr to v, replacing any previous binding.
func (d *Directory) Register(addr thor.Address, v Venue) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.venues[addr] = v
}

func (d *Directory) Resolve(addr thor.Address) (Venue, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	v, ok := d.venues[addr]
	if !ok {
		return nil, errors.Wrap(ErrUnknownVenue, addr.String())
	}
	return v, nil
}

// Addresses returns every registered venue address.
func (d *Directory) Addresses() []thor.Address {
	d.lock.RLock()
	defer d.lock.RUnlock()
	addrs := make([]thor.Address, 0, len(d.venues))
	for addr := range d.venues {
		addrs = append(addrs, addr)
	}
	return addrs
}
