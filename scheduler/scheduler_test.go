// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/pool/reverts"
)

type fakePool struct {
	calls   []string
	fail    map[string]error
	entered chan struct{}
	block   chan struct{}
}

func (f *fakePool) step(name string) error {
	f.calls = append(f.calls, name)
	if f.block != nil {
		f.entered <- struct{}{}
		<-f.block
	}
	return f.fail[name]
}

func (f *fakePool) DistributeEarnings(context.Context) (bool, error) {
	return true, f.step("distribute")
}

func (f *fakePool) CommitUnstakeRequests(context.Context) (*uint256.Int, error) {
	return uint256.NewInt(1), f.step("unstake")
}

func (f *fakePool) CommitStakeRequests(context.Context) (*uint256.Int, error) {
	return uint256.NewInt(2), f.step("stake")
}

func TestRunEpoch_Order(t *testing.T) {
	p := &fakePool{}
	s := New(context.Background(), p, time.Second)

	require.NoError(t, s.RunEpoch())
	assert.Equal(t, []string{"distribute", "unstake", "stake"}, p.calls)
}

func TestRunEpoch_StopsOnError(t *testing.T) {
	tests := []struct {
		failAt string
		calls  []string
	}{
		{"distribute", []string{"distribute"}},
		{"unstake", []string{"distribute", "unstake"}},
		{"stake", []string{"distribute", "unstake", "stake"}},
	}
	for _, tt := range tests {
		t.Run(tt.failAt, func(t *testing.T) {
			p := &fakePool{fail: map[string]error{tt.failAt: reverts.ErrVenueLoss}}
			err := New(context.Background(), p, 0).RunEpoch()

			assert.ErrorIs(t, err, reverts.ErrVenueLoss)
			assert.Contains(t, err.Error(), map[string]string{
				"distribute": "distribute",
				"unstake":    "commit unstake",
				"stake":      "commit stake",
			}[tt.failAt])
			assert.Equal(t, tt.calls, p.calls)
		})
	}
}

func TestRunEpoch_SkipsWhileRunning(t *testing.T) {
	p := &fakePool{entered: make(chan struct{}), block: make(chan struct{})}
	s := New(context.Background(), p, 0)

	done := make(chan error)
	go func() { done <- s.RunEpoch() }()
	<-p.entered

	// a second epoch while the first is blocked is a no-op
	require.NoError(t, s.RunEpoch())
	close(p.block)
	for i := 0; i < 2; i++ {
		<-p.entered
	}
	require.NoError(t, <-done)
	assert.Equal(t, []string{"distribute", "unstake", "stake"}, p.calls)
}

func TestRegister(t *testing.T) {
	s := New(context.Background(), &fakePool{}, 0)
	assert.NoError(t, s.Register("0 0 0 * * *"))
	assert.NoError(t, s.Register("@every 1h"))

	err := s.Register("every day")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, reverts.ErrVenueLoss))
}

func TestScheduledEpoch(t *testing.T) {
	p := &fakePool{}
	s := New(context.Background(), p, 0)
	require.NoError(t, s.Register("* * * * * *"))
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		if !s.running.TryLock() {
			return false
		}
		defer s.running.Unlock()
		return len(p.calls) >= 3
	}, 3*time.Second, 10*time.Millisecond)
}
