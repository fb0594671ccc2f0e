// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package venue

import (
	"context"
	"sync"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/thor"
)

var logger = log.WithContext("pkg", "venue")

// Op names a venue method, used for failure injection and hooks.
type Op string

const (
	OpAccept  Op = "accept"
	OpRelease Op = "release"
	OpReport  Op = "report"
)

// Hook runs inside a venue call before it takes effect. A non-nil error fails the call.
// The venue lock is not held, so the hook may call back into the pool.
type Hook func(ctx context.Context, op Op, pool thor.Address, amount *uint256.Int) error

// Simulated is an in-memory venue. Yield is injected with Accrue.
type Simulated struct {
	lock     sync.Mutex
	balances map[thor.Address]*uint256.Int
	failures map[Op]error
	hook     Hook
}

func NewSimulated() *Simulated {
	return &Simulated{
		balances: make(map[thor.Address]*uint256.Int),
		failures: make(map[Op]error),
	}
}

// FailNext makes the next call of op return err.
func (s *Simulated) FailNext(op Op, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failures[op] = err
}

func (s *Simulated) SetHook(h Hook) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.hook = h
}

// Accrue adds yield to what the venue holds for pool.
func (s *Simulated) Accrue(pool thor.Address, amount *uint256.Int) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	bal := s.balanceLocked(pool)
	sum, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		return errors.New("accrue overflow")
	}
	bal.Set(sum)
	logger.Debug("accrued yield", "pool", pool, "amount", amount, "balance", bal)
	return nil
}

// Slash removes amount from what the venue holds for pool, saturating at zero.
func (s *Simulated) Slash(pool thor.Address, amount *uint256.Int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	bal := s.balanceLocked(pool)
	if bal.Lt(amount) {
		bal.Clear()
		return
	}
	bal.Sub(bal, amount)
}

func (s *Simulated) balanceLocked(pool thor.Address) *uint256.Int {
	bal, ok := s.balances[pool]
	if !ok {
		bal = new(uint256.Int)
		s.balances[pool] = bal
	}
	return bal
}

// before consumes an injected failure and runs the hook.
func (s *Simulated) before(ctx context.Context, op Op, pool thor.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.lock.Lock()
	err, failing := s.failures[op]
	delete(s.failures, op)
	hook := s.hook
	s.lock.Unlock()

	if failing {
		return err
	}
	if hook != nil {
		return hook(ctx, op, pool, amount)
	}
	return nil
}

func (s *Simulated) AcceptPrincipal(ctx context.Context, pool thor.Address, amount *uint256.Int) error {
	if err := s.before(ctx, OpAccept, pool, amount); err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	bal := s.balanceLocked(pool)
	sum, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		return errors.New("accept overflow")
	}
	bal.Set(sum)
	return nil
}

func (s *Simulated) ReleasePrincipal(ctx context.Context, pool thor.Address, amount *uint256.Int) error {
	if err := s.before(ctx, OpRelease, pool, amount); err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	bal := s.balanceLocked(pool)
	if bal.Lt(amount) {
		return ErrInsufficientPrincipal
	}
	bal.Sub(bal, amount)
	return nil
}

func (s *Simulated) ReportedBalance(ctx context.Context, pool thor.Address) (*uint256.Int, error) {
	if err := s.before(ctx, OpReport, pool, nil); err != nil {
		return nil, err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return new(uint256.Int).Set(s.balanceLocked(pool)), nil
}
