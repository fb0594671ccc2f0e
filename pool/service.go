// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/metrics"
	"github.com/vechain/stakepool/pool/ledger"
	"github.com/vechain/stakepool/pool/reverts"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
)

var (
	metricOperations   = metrics.LazyLoadCounterVec("pool_operations_count", []string{"op", "outcome"})
	metricOpDuration   = metrics.LazyLoadHistogramVec("pool_operation_duration_ms", []string{"op"}, metrics.BucketHTTPReqs)
	metricEvents       = metrics.LazyLoadCounter("pool_events_count")
	metricTotalStaked  = metrics.LazyLoadGauge("pool_total_staked")
	metricParticipants = metrics.LazyLoadGauge("pool_participants")
)

// EventSink persists published events.
type EventSink interface {
	Insert(events []*Event) error
}

// Service hosts a Pool over a kv store. Operations are serialised; each one
// runs against a fresh state overlay that is written to the store in a single
// batch only when the operation succeeds. Events are published afterwards.
//
// Venue callbacks must not call back into the Service, they would deadlock.
type Service struct {
	lock   sync.Mutex
	db     kv.Store
	addr   thor.Address
	venues Resolver
	opts   Options
	sink   EventSink

	feed  event.Feed
	scope event.SubscriptionScope
	now   func() time.Time
}

func NewService(db kv.Store, addr thor.Address, venues Resolver, opts Options, sink EventSink) *Service {
	return &Service{
		db:     db,
		addr:   addr,
		venues: venues,
		opts:   opts,
		sink:   sink,
		now:    time.Now,
	}
}

// Address returns the pool account.
func (s *Service) Address() thor.Address {
	return s.addr
}

// Subscribe delivers every published event to ch.
func (s *Service) Subscribe(ch chan *Event) event.Subscription {
	return s.scope.Track(s.feed.Subscribe(ch))
}

// Close ends all subscriptions.
func (s *Service) Close() {
	s.scope.Close()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind, ok := reverts.KindOf(err); ok {
		return kind.String()
	}
	return "error"
}

// exec runs fn against a fresh Pool and persists the result.
func (s *Service) exec(op string, fn func(p *Pool) error) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	start := s.now()
	st := state.New(s.db)
	p := New(s.addr, st, s.venues, s.opts)

	err := fn(p)
	if err == nil {
		err = s.commit(st, p)
	}
	metricOperations().AddWithLabel(1, map[string]string{"op": op, "outcome": outcome(err)})
	metricOpDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"op": op})
	return err
}

func (s *Service) commit(st *state.State, p *Pool) error {
	if err := st.Stage().Commit(s.db); err != nil {
		logger.Error("failed to persist pool state", "err", err)
		return errors.Wrap(err, "persist")
	}

	if summary, err := p.Summary(); err == nil {
		f, _ := new(big.Float).SetInt(summary.TotalStaked.ToBig()).Float64()
		metricTotalStaked().SetFloat(f)
		metricParticipants().Set(int64(summary.Participants))
	}

	events := p.TakeEvents()
	if len(events) == 0 {
		return nil
	}
	id := uuid.New()
	now := s.now().Unix()
	for _, ev := range events {
		ev.ID = id
		ev.Time = now
	}
	if s.sink != nil {
		if err := s.sink.Insert(events); err != nil {
			// state is already durable, losing the log entry is not fatal
			logger.Warn("failed to store events", "op", id, "err", err)
		}
	}
	for _, ev := range events {
		s.feed.Send(ev)
	}
	metricEvents().Add(int64(len(events)))
	return nil
}

// view runs fn against a read-only snapshot.
func (s *Service) view(fn func(p *Pool) error) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return fn(New(s.addr, state.New(s.db), s.venues, s.opts))
}

func (s *Service) Init(owner, venueAddr thor.Address, feeRate uint64) error {
	return s.exec("init", func(p *Pool) error {
		return p.Init(owner, venueAddr, feeRate)
	})
}

func (s *Service) Deposit(caller thor.Address, amount *uint256.Int) error {
	return s.exec("deposit", func(p *Pool) error {
		return p.Deposit(caller, amount)
	})
}

func (s *Service) RequestStake(caller thor.Address) (amount *uint256.Int, err error) {
	err = s.exec("request_stake", func(p *Pool) error {
		amount, err = p.RequestStake(caller)
		return err
	})
	return
}

func (s *Service) RequestUnstake(caller thor.Address, amount *uint256.Int) error {
	return s.exec("request_unstake", func(p *Pool) error {
		return p.RequestUnstake(caller, amount)
	})
}

func (s *Service) CommitStakeRequests(ctx context.Context) (amount *uint256.Int, err error) {
	err = s.exec("commit_stake", func(p *Pool) error {
		amount, err = p.CommitStakeRequests(ctx)
		return err
	})
	return
}

func (s *Service) CommitUnstakeRequests(ctx context.Context) (amount *uint256.Int, err error) {
	err = s.exec("commit_unstake", func(p *Pool) error {
		amount, err = p.CommitUnstakeRequests(ctx)
		return err
	})
	return
}

func (s *Service) DistributeEarnings(ctx context.Context) (distributed bool, err error) {
	err = s.exec("distribute", func(p *Pool) error {
		distributed, err = p.DistributeEarnings(ctx)
		return err
	})
	return
}

func (s *Service) Withdraw(caller thor.Address, amount *uint256.Int) error {
	return s.exec("withdraw", func(p *Pool) error {
		return p.Withdraw(caller, amount)
	})
}

func (s *Service) WithdrawOwnerFee(caller thor.Address) (fee *uint256.Int, err error) {
	err = s.exec("withdraw_owner_fee", func(p *Pool) error {
		fee, err = p.WithdrawOwnerFee(caller)
		return err
	})
	return
}

func (s *Service) SetVenueAddress(caller, addr thor.Address) error {
	return s.exec("set_venue", func(p *Pool) error {
		return p.SetVenueAddress(caller, addr)
	})
}

func (s *Service) SetFeeRate(caller thor.Address, bps uint64) error {
	return s.exec("set_fee_rate", func(p *Pool) error {
		return p.SetFeeRate(caller, bps)
	})
}

func (s *Service) UndistributedCustodialFunds(caller thor.Address) (amount *uint256.Int, err error) {
	err = s.view(func(p *Pool) error {
		amount, err = p.UndistributedCustodialFunds(caller)
		return err
	})
	return
}

func (s *Service) GetBalances(addr thor.Address) (balances *ledger.Participant, err error) {
	err = s.view(func(p *Pool) error {
		balances, err = p.GetBalances(addr)
		return err
	})
	return
}

func (s *Service) Wallet(addr thor.Address) (balance *uint256.Int, err error) {
	err = s.view(func(p *Pool) error {
		balance, err = p.Wallet(addr)
		return err
	})
	return
}

func (s *Service) Summary() (summary *Summary, err error) {
	err = s.view(func(p *Pool) error {
		summary, err = p.Summary()
		return err
	})
	return
}

func (s *Service) Participants(offset, limit uint64) (addrs []thor.Address, err error) {
	err = s.view(func(p *Pool) error {
		addrs, err = p.Participants(offset, limit)
		return err
	})
	return
}

// RemoveParticipant prunes an empty participant on behalf of the owner.
func (s *Service) RemoveParticipant(caller, addr thor.Address) (removed bool, err error) {
	err = s.exec("remove_participant", func(p *Pool) error {
		if err := p.onlyOwner(caller); err != nil {
			return err
		}
		removed, err = p.RemoveParticipant(addr)
		return err
	})
	return
}

// Initialized reports whether Init has been persisted.
func (s *Service) Initialized() (ok bool, err error) {
	err = s.view(func(p *Pool) error {
		ok, err = p.Initialized()
		return err
	})
	return
}

func (s *Service) VenueBalance(ctx context.Context) (balance *uint256.Int, err error) {
	err = s.view(func(p *Pool) error {
		balance, err = p.VenueBalance(ctx)
		return err
	})
	return
}
