// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/pool/reverts"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
)

var poolAddr = thor.BytesToAddress([]byte("pool"))

func newLedger(t *testing.T) *Ledger {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(solidity.NewContext(poolAddr, state.New(db)))
}

func TestParticipant_ZeroRecord(t *testing.T) {
	l := newLedger(t)

	p, err := l.Participant(thor.BytesToAddress([]byte("nobody")))
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
	assert.NotNil(t, p.Staked)
}

func TestParticipant_SetGet(t *testing.T) {
	l := newLedger(t)
	addr := thor.BytesToAddress([]byte("alice"))

	p := newParticipant()
	p.Deposited = uint256.NewInt(10)
	p.Staked = uint256.NewInt(20)
	require.NoError(t, l.SetParticipant(addr, p))

	got, err := l.Participant(addr)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(10), got.Deposited)
	assert.Equal(t, uint256.NewInt(20), got.Staked)
	assert.True(t, got.RequestedStake.IsZero())

	clone := got.Clone()
	clone.Deposited.SetUint64(99)
	assert.Equal(t, uint256.NewInt(10), got.Deposited)

	// empty records are cleared
	require.NoError(t, l.SetParticipant(addr, newParticipant()))
	got, err = l.Participant(addr)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestAggregates_Checked(t *testing.T) {
	l := newLedger(t)

	require.NoError(t, l.AddTotalStaked(uint256.NewInt(5)))
	err := l.SubTotalStaked(uint256.NewInt(6))
	kind, ok := reverts.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, reverts.Arithmetic, kind)

	total, err := l.TotalStaked()
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(5), total)
}

func TestCustody(t *testing.T) {
	l := newLedger(t)
	alice := thor.BytesToAddress([]byte("alice"))

	require.NoError(t, l.AddCustody(uint256.NewInt(100)))
	require.NoError(t, l.SubCustody(uint256.NewInt(40)))
	require.NoError(t, l.Payout(alice, uint256.NewInt(40)))

	custody, err := l.Custody()
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(60), custody)

	wallet, err := l.Wallet(alice)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(40), wallet)

	assert.ErrorIs(t, l.SubCustody(uint256.NewInt(61)), reverts.ErrInsufficientCustody)
}

func TestFeeRate(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.SetFeeRate(100))
	bps, err := l.FeeRate()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), bps)

	assert.ErrorIs(t, l.SetFeeRate(MaxFeeRate+1), reverts.ErrInvalidFeeRate)
	require.NoError(t, l.SetFeeRate(MaxFeeRate))
}

func TestMath(t *testing.T) {
	max := new(uint256.Int).SetAllOne()

	_, err := Add(max, uint256.NewInt(1))
	assert.True(t, reverts.IsRevertErr(err))

	_, err = Sub(uint256.NewInt(1), uint256.NewInt(2))
	assert.True(t, reverts.IsRevertErr(err))

	_, err = MulDiv(uint256.NewInt(1), uint256.NewInt(1), new(uint256.Int))
	assert.True(t, reverts.IsRevertErr(err))

	// 512-bit intermediate: max*max/max == max
	z, err := MulDiv(max, max, max)
	require.NoError(t, err)
	assert.Equal(t, max, z)

	// floor(40 * 9900 * 100 / (10000 * 400)) == 9
	z, err = MulDiv(uint256.NewInt(40*9900), uint256.NewInt(100), uint256.NewInt(10000*400))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(9), z)

	_, err = Mul(max, uint256.NewInt(2))
	assert.True(t, reverts.IsRevertErr(err))
}
