// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/pool/ledger"
	"github.com/vechain/stakepool/pool/reverts"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/venue"
)

func TestAccessControl(t *testing.T) {
	env := newTestEnv(t, Options{})
	p := env.pool

	NewSequence(env).
		Deposit(alice, 100).
		RequestStake(alice).
		CommitStake().
		Accrue(40).
		Distribute(true).
		RequestUnstake(alice, 10).
		CommitUnstake().
		Run(t)
	p.TakeEvents()

	before, err := p.Summary()
	require.NoError(t, err)
	require.False(t, before.OwnerFeeBalance.IsZero())

	tests := []struct {
		name string
		call func(caller thor.Address) error
	}{
		{"WithdrawOwnerFee", func(caller thor.Address) error {
			_, err := p.WithdrawOwnerFee(caller)
			return err
		}},
		{"SetVenueAddress", func(caller thor.Address) error {
			return p.SetVenueAddress(caller, thor.BytesToAddress([]byte("elsewhere")))
		}},
		{"SetFeeRate", func(caller thor.Address) error {
			return p.SetFeeRate(caller, 9000)
		}},
		{"UndistributedCustodialFunds", func(caller thor.Address) error {
			_, err := p.UndistributedCustodialFunds(caller)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, caller := range []thor.Address{alice, bob, {}} {
				err := tt.call(caller)
				assert.ErrorIs(t, err, reverts.ErrNotOwner)
				kind, _ := reverts.KindOf(err)
				assert.Equal(t, reverts.Precondition, kind)
			}
			after, err := p.Summary()
			require.NoError(t, err)
			assert.Equal(t, before, after)
			assert.Empty(t, p.Events())

			wallet, err := p.Wallet(alice)
			require.NoError(t, err)
			assert.True(t, wallet.IsZero())
		})
	}
}

func TestWithdrawOwnerFee_Nothing(t *testing.T) {
	env := newTestEnv(t, Options{})
	_, err := env.pool.WithdrawOwnerFee(owner)
	assert.ErrorIs(t, err, reverts.ErrNoOwnerFee)
}

func TestWithdrawOwnerFee_Event(t *testing.T) {
	env := newTestEnv(t, Options{})
	p := env.pool

	NewSequence(env).
		Deposit(alice, 100).
		RequestStake(alice).
		CommitStake().
		Accrue(100).
		Distribute(true).
		CommitUnstake().
		Run(t)
	p.TakeEvents()

	// 1% of 100 is the whole residual: the share divides evenly
	fee, err := p.WithdrawOwnerFee(owner)
	require.NoError(t, err)
	assert.Equal(t, amt(1), fee)

	events := p.TakeEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventOwnerFeeWithdrawn, events[0].Kind)
	assert.Equal(t, owner, events[0].Participant)
	assert.Equal(t, amt(1), events[0].Amount)
	assert.True(t, events[0].After.IsZero())
	checkInvariants(t, env)
}

func TestSetVenueAddress(t *testing.T) {
	env := newTestEnv(t, Options{})
	p := env.pool

	NewSequence(env).
		Deposit(alice, 100).
		RequestStake(alice).
		CommitStake().
		Deposit(bob, 50).
		RequestStake(bob).
		Run(t)
	p.TakeEvents()

	assert.ErrorIs(t, p.SetVenueAddress(owner, thor.Address{}), reverts.ErrZeroAddress)

	next := thor.BytesToAddress([]byte("next-venue"))
	require.NoError(t, p.SetVenueAddress(owner, next))

	events := p.TakeEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventVenueChanged, events[0].Kind)
	assert.Equal(t, next, events[0].Venue)
	assert.Equal(t, venueAddr, events[0].PrevVenue)
	// principal left behind at the previous venue
	assert.Equal(t, amt(100), events[0].Amount)

	summary, err := p.Summary()
	require.NoError(t, err)
	assert.Equal(t, next, summary.Venue)

	// not resolvable yet
	_, err = p.CommitStakeRequests(context.Background())
	kind, ok := reverts.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, reverts.Collaborator, kind)
	AssertParticipant(p, bob).RequestedStake(50).Assert(t)

	sim := venue.NewSimulated()
	env.dir.Register(next, sim)
	_, err = p.CommitStakeRequests(context.Background())
	require.NoError(t, err)

	balance, err := sim.ReportedBalance(context.Background(), poolAddr)
	require.NoError(t, err)
	assert.Equal(t, amt(50), balance)

	// the new venue reports less than the ledger's total
	_, err = p.DistributeEarnings(context.Background())
	assert.ErrorIs(t, err, reverts.ErrVenueLoss)
}

func TestVenueNotSet(t *testing.T) {
	env := newTestEnv(t, Options{})
	fresh := New(thor.BytesToAddress([]byte("unset-pool")), env.state, env.dir, Options{})
	require.NoError(t, fresh.Init(owner, thor.Address{}, DefaultFeeRate))

	require.NoError(t, fresh.Deposit(alice, amt(10)))
	_, err := fresh.RequestStake(alice)
	require.NoError(t, err)

	_, err = fresh.CommitStakeRequests(context.Background())
	assert.ErrorIs(t, err, reverts.ErrVenueNotSet)
	_, err = fresh.DistributeEarnings(context.Background())
	assert.ErrorIs(t, err, reverts.ErrVenueNotSet)

	// no request pending means no venue call
	_, err = fresh.CommitUnstakeRequests(context.Background())
	assert.NoError(t, err)
}

func TestSetFeeRate(t *testing.T) {
	env := newTestEnv(t, Options{})
	p := env.pool

	assert.ErrorIs(t, p.SetFeeRate(owner, ledger.MaxFeeRate+1), reverts.ErrInvalidFeeRate)
	require.NoError(t, p.SetFeeRate(owner, 500))

	events := p.TakeEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventFeeRateChanged, events[0].Kind)
	assert.Equal(t, amt(DefaultFeeRate), events[0].Before)
	assert.Equal(t, amt(500), events[0].After)

	require.NoError(t, p.SetFeeRate(owner, ledger.MaxFeeRate))

	// the whole yield goes to the owner
	NewSequence(env).
		Deposit(alice, 100).
		RequestStake(alice).
		CommitStake().
		Accrue(30).
		Distribute(true).
		Run(t)
	AssertParticipant(p, alice).Staked(100).Assert(t)
	summary, err := p.Summary()
	require.NoError(t, err)
	assert.Equal(t, amt(30), summary.PendingFee)
	assert.Equal(t, amt(130), summary.TotalStaked)
}

func TestUndistributedCustodialFunds(t *testing.T) {
	env := newTestEnv(t, Options{})
	p := env.pool

	NewSequence(env).
		Deposit(alice, 100).
		Deposit(bob, 20).
		RequestStake(bob).
		Deposit(carol, 30).
		RequestStake(carol).
		CommitStake().
		Deposit(carol, 5).
		Run(t)

	free, err := p.UndistributedCustodialFunds(owner)
	require.NoError(t, err)
	assert.True(t, free.IsZero())

	// funds sent straight to the pool account belong to nobody
	custody, err := env.state.GetBalance(poolAddr)
	require.NoError(t, err)
	require.NoError(t, env.state.SetBalance(poolAddr, new(uint256.Int).Add(custody, amt(7))))

	free, err = p.UndistributedCustodialFunds(owner)
	require.NoError(t, err)
	assert.Equal(t, amt(7), free)

	// a read only
	again, err := p.UndistributedCustodialFunds(owner)
	require.NoError(t, err)
	assert.Equal(t, free, again)
	checkInvariants(t, env)
}

func TestRemoveParticipant(t *testing.T) {
	env := newTestEnv(t, Options{})
	p := env.pool

	NewSequence(env).
		Deposit(alice, 10).
		Deposit(bob, 10).
		Run(t)

	removed, err := p.RemoveParticipant(alice)
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, p.Withdraw(alice, amt(10)))
	removed, err = p.RemoveParticipant(alice)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = p.RemoveParticipant(owner)
	require.NoError(t, err)
	assert.False(t, removed)

	addrs, err := p.Participants(0, 10)
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{owner, bob}, addrs)
	checkInvariants(t, env)
}

func TestOrderIndependence(t *testing.T) {
	build := func(order []thor.Address, deposits map[thor.Address]uint64) *testEnv {
		env := newTestEnv(t, Options{})
		seq := NewSequence(env)
		for _, addr := range order {
			seq.Deposit(addr, deposits[addr]).RequestStake(addr)
		}
		seq.CommitStake().
			Accrue(37).
			Distribute(true).
			Accrue(1001).
			Distribute(true).
			Run(t)
		return env
	}

	deposits := map[thor.Address]uint64{alice: 100, bob: 300, carol: 57}
	a := build([]thor.Address{alice, bob, carol}, deposits)
	b := build([]thor.Address{carol, bob, alice}, deposits)

	// a removal reshuffles the registry
	c := newTestEnv(t, Options{})
	NewSequence(c).
		Deposit(carol, 1).
		Deposit(bob, 300).
		Withdraw(carol, 1).
		Run(t)
	removed, err := c.pool.RemoveParticipant(carol)
	require.NoError(t, err)
	require.True(t, removed)
	NewSequence(c).
		Deposit(alice, 100).
		Deposit(carol, 57).
		RequestStake(carol).
		RequestStake(alice).
		RequestStake(bob).
		CommitStake().
		Accrue(37).
		Distribute(true).
		Accrue(1001).
		Distribute(true).
		Run(t)

	for _, addr := range []thor.Address{alice, bob, carol} {
		want, err := a.pool.GetBalances(addr)
		require.NoError(t, err)
		for _, other := range []*testEnv{b, c} {
			got, err := other.pool.GetBalances(addr)
			require.NoError(t, err)
			assert.Equal(t, want, got, "%s", addr)
		}
	}

	sa, err := a.pool.Summary()
	require.NoError(t, err)
	sb, err := b.pool.Summary()
	require.NoError(t, err)
	assert.Equal(t, sa.PendingFee, sb.PendingFee)
}
