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

	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/venue"
)

var (
	poolAddr  = thor.BytesToAddress([]byte("pool"))
	owner     = thor.BytesToAddress([]byte("owner"))
	venueAddr = thor.BytesToAddress([]byte("venue"))
	alice     = thor.BytesToAddress([]byte("alice"))
	bob       = thor.BytesToAddress([]byte("bob"))
	carol     = thor.BytesToAddress([]byte("carol"))
)

func amt(v uint64) *uint256.Int { return uint256.NewInt(v) }

type testEnv struct {
	pool  *Pool
	state *state.State
	sim   *venue.Simulated
	dir   *venue.Directory
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sim := venue.NewSimulated()
	dir := venue.NewDirectory()
	dir.Register(venueAddr, sim)

	st := state.New(db)
	p := New(poolAddr, st, dir, opts)
	require.NoError(t, p.Init(owner, venueAddr, DefaultFeeRate))
	p.TakeEvents()
	return &testEnv{pool: p, state: st, sim: sim, dir: dir}
}

type TestFunc func(t *testing.T)

type TestSequence struct {
	env   *testEnv
	funcs []TestFunc
}

func NewSequence(env *testEnv) *TestSequence {
	return &TestSequence{env: env}
}

func (st *TestSequence) AddFunc(f TestFunc) *TestSequence {
	st.funcs = append(st.funcs, f)
	return st
}

func (st *TestSequence) Deposit(addr thor.Address, amount uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		require.NoError(t, st.env.pool.Deposit(addr, amt(amount)), "deposit %s", addr)
	})
}

func (st *TestSequence) RequestStake(addr thor.Address) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		_, err := st.env.pool.RequestStake(addr)
		require.NoError(t, err, "request stake %s", addr)
	})
}

func (st *TestSequence) RequestUnstake(addr thor.Address, amount uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		require.NoError(t, st.env.pool.RequestUnstake(addr, amt(amount)), "request unstake %s", addr)
	})
}

func (st *TestSequence) CommitStake() *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		_, err := st.env.pool.CommitStakeRequests(context.Background())
		require.NoError(t, err, "commit stake")
	})
}

func (st *TestSequence) CommitUnstake() *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		_, err := st.env.pool.CommitUnstakeRequests(context.Background())
		require.NoError(t, err, "commit unstake")
	})
}

func (st *TestSequence) Accrue(amount uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		require.NoError(t, st.env.sim.Accrue(poolAddr, amt(amount)))
	})
}

func (st *TestSequence) Distribute(expected bool) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		ok, err := st.env.pool.DistributeEarnings(context.Background())
		require.NoError(t, err, "distribute")
		assert.Equal(t, expected, ok, "distribution result")
	})
}

func (st *TestSequence) Withdraw(addr thor.Address, amount uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		require.NoError(t, st.env.pool.Withdraw(addr, amt(amount)), "withdraw %s", addr)
	})
}

func (st *TestSequence) Run(t *testing.T) {
	for _, f := range st.funcs {
		f(t)
		checkInvariants(t, st.env)
	}
}

type ParticipantAssertions struct {
	pool *Pool
	addr thor.Address

	deposited        *uint256.Int
	requestedStake   *uint256.Int
	requestedUnstake *uint256.Int
	staked           *uint256.Int
}

func AssertParticipant(p *Pool, addr thor.Address) *ParticipantAssertions {
	return &ParticipantAssertions{pool: p, addr: addr}
}

func (pa *ParticipantAssertions) Deposited(v uint64) *ParticipantAssertions {
	pa.deposited = amt(v)
	return pa
}

func (pa *ParticipantAssertions) RequestedStake(v uint64) *ParticipantAssertions {
	pa.requestedStake = amt(v)
	return pa
}

func (pa *ParticipantAssertions) RequestedUnstake(v uint64) *ParticipantAssertions {
	pa.requestedUnstake = amt(v)
	return pa
}

func (pa *ParticipantAssertions) Staked(v uint64) *ParticipantAssertions {
	pa.staked = amt(v)
	return pa
}

func (pa *ParticipantAssertions) Assert(t *testing.T) {
	t.Helper()
	got, err := pa.pool.GetBalances(pa.addr)
	require.NoError(t, err)

	if pa.deposited != nil {
		assert.Equal(t, pa.deposited, got.Deposited, "%s deposited", pa.addr)
	}
	if pa.requestedStake != nil {
		assert.Equal(t, pa.requestedStake, got.RequestedStake, "%s requestedStake", pa.addr)
	}
	if pa.requestedUnstake != nil {
		assert.Equal(t, pa.requestedUnstake, got.RequestedUnstake, "%s requestedUnstake", pa.addr)
	}
	if pa.staked != nil {
		assert.Equal(t, pa.staked, got.Staked, "%s staked", pa.addr)
	}
}

// checkInvariants verifies the ledger against the venue and custody:
//
//	Σ staked + pendingFee == totalStaked
//	Σ deposited == totalDeposited
//	Σ deposited + Σ requestedStake + ownerFeeBalance <= custody
//	requestedUnstake <= staked (strict policy)
//	totalStaked <= venue balance
func checkInvariants(t *testing.T, env *testEnv) {
	t.Helper()
	p := env.pool
	summary, err := p.Summary()
	require.NoError(t, err)

	sumStaked := new(uint256.Int)
	sumDeposited := new(uint256.Int)
	sumRequestedStake := new(uint256.Int)
	require.NoError(t, p.registry.Range(3, func(addr thor.Address) error {
		part, err := p.GetBalances(addr)
		if err != nil {
			return err
		}
		sumStaked.Add(sumStaked, part.Staked)
		sumDeposited.Add(sumDeposited, part.Deposited)
		sumRequestedStake.Add(sumRequestedStake, part.RequestedStake)
		if !p.opts.LegacyUnstake {
			assert.False(t, part.Staked.Lt(part.RequestedUnstake), "%s requestedUnstake exceeds staked", addr)
		}
		return nil
	}))

	assert.Equal(t, summary.TotalStaked, new(uint256.Int).Add(sumStaked, summary.PendingFee), "Σ staked + pendingFee")
	assert.Equal(t, summary.TotalDeposited, sumDeposited, "Σ deposited")

	owed := new(uint256.Int).Add(sumDeposited, sumRequestedStake)
	owed.Add(owed, summary.OwnerFeeBalance)
	assert.False(t, summary.Custody.Lt(owed), "custody %s below owed %s", summary.Custody, owed)

	venueBalance, err := env.sim.ReportedBalance(context.Background(), poolAddr)
	require.NoError(t, err)
	assert.False(t, venueBalance.Lt(summary.TotalStaked), "venue %s below totalStaked %s", venueBalance, summary.TotalStaked)
}
