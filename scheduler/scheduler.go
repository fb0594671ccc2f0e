// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package scheduler drives the pool's periodic settlement. Each epoch
// distributes earnings, then commits unstake and stake requests.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/metrics"
	"github.com/vechain/stakepool/pool/reverts"
)

var (
	logger       = log.WithContext("pkg", "scheduler")
	metricEpochs = metrics.LazyLoadCounterVec("scheduler_epochs_count", []string{"outcome"})
)

// Pool is the part of pool.Service an epoch drives.
type Pool interface {
	DistributeEarnings(ctx context.Context) (bool, error)
	CommitUnstakeRequests(ctx context.Context) (*uint256.Int, error)
	CommitStakeRequests(ctx context.Context) (*uint256.Int, error)
}

// Scheduler runs settlement epochs on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	pool    Pool
	ctx     context.Context
	timeout time.Duration

	running sync.Mutex
}

// New creates a scheduler. Specs take a leading seconds field. Each epoch is
// bounded by timeout when it is positive.
func New(ctx context.Context, pool Pool, timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		pool:    pool,
		ctx:     ctx,
		timeout: timeout,
	}
}

// Register schedules an epoch at spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.epochTask); err != nil {
		return errors.Wrapf(err, "register epoch [%v]", spec)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("scheduler started", "entries", len(s.cron.Entries()))
}

// Stop waits for a running epoch to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("scheduler stopped")
}

func (s *Scheduler) epochTask() {
	if err := s.RunEpoch(); err != nil {
		logger.Warn("epoch aborted", "err", err)
	}
}

// RunEpoch settles the pool once. Earnings are distributed before any
// principal moves so they are shared among the stakers that earned them.
// The first failing step ends the epoch; steps already done stay done.
func (s *Scheduler) RunEpoch() (err error) {
	if !s.running.TryLock() {
		logger.Debug("epoch already running, skipped")
		return nil
	}
	defer s.running.Unlock()

	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			if kind, ok := reverts.KindOf(err); ok {
				outcome = kind.String()
			}
		}
		metricEpochs().AddWithLabel(1, map[string]string{"outcome": outcome})
	}()

	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	distributed, err := s.pool.DistributeEarnings(ctx)
	if err != nil {
		return errors.WithMessage(err, "distribute")
	}
	unstaked, err := s.pool.CommitUnstakeRequests(ctx)
	if err != nil {
		return errors.WithMessage(err, "commit unstake")
	}
	staked, err := s.pool.CommitStakeRequests(ctx)
	if err != nil {
		return errors.WithMessage(err, "commit stake")
	}
	logger.Info("epoch settled",
		"distributed", distributed,
		"unstaked", unstaked,
		"staked", staked,
		"elapsed", time.Since(start),
	)
	return nil
}
