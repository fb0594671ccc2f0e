// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/thor"
)

func newMemDB(t *testing.T) *lvldb.LevelDB {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStateReadWrite(t *testing.T) {
	db := newMemDB(t)
	st := New(db)

	addr := thor.BytesToAddress([]byte("account1"))
	storageKey := thor.BytesToBytes32([]byte("storageKey"))

	balance, err := st.GetBalance(addr)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	require.NoError(t, st.SetBalance(addr, uint256.NewInt(10)))
	st.SetStorage(addr, storageKey, thor.BytesToBytes32([]byte("value")))

	balance, err = st.GetBalance(addr)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(10), balance)

	v, err := st.GetStorage(addr, storageKey)
	require.NoError(t, err)
	assert.Equal(t, thor.BytesToBytes32([]byte("value")), v)
}

func TestStateRevert(t *testing.T) {
	st := New(newMemDB(t))

	addr := thor.BytesToAddress([]byte("account1"))
	storageKey := thor.BytesToBytes32([]byte("storageKey"))

	values := []struct {
		balance uint64
		storage thor.Bytes32
	}{
		{10, thor.BytesToBytes32([]byte("v1"))},
		{11, thor.BytesToBytes32([]byte("v2"))},
		{12, thor.BytesToBytes32([]byte("v3"))},
	}

	var chk int
	for _, v := range values {
		chk = st.NewCheckpoint()
		require.NoError(t, st.SetBalance(addr, uint256.NewInt(v.balance)))
		st.SetStorage(addr, storageKey, v.storage)
	}

	for i := range values {
		b, err := st.GetBalance(addr)
		require.NoError(t, err)
		s, err := st.GetStorage(addr, storageKey)
		require.NoError(t, err)

		v := values[len(values)-i-1]
		assert.Equal(t, uint256.NewInt(v.balance), b)
		assert.Equal(t, v.storage, s)
		st.RevertTo(chk)
		chk--
	}

	b, err := st.GetBalance(addr)
	require.NoError(t, err)
	assert.True(t, b.IsZero())

	// revert to zero keeps the state usable
	st.RevertTo(0)
	require.NoError(t, st.SetBalance(addr, uint256.NewInt(1)))
}

func TestStageCommit(t *testing.T) {
	db := newMemDB(t)
	st := New(db)

	addr := thor.BytesToAddress([]byte("pool"))
	key := thor.BytesToBytes32([]byte("slot"))

	require.NoError(t, st.SetBalance(addr, uint256.NewInt(100)))
	require.NoError(t, st.EncodeStorage(addr, key, func() ([]byte, error) {
		return rlp.EncodeToBytes([]uint64{1, 2, 3})
	}))

	chk := st.NewCheckpoint()
	require.NoError(t, st.SetBalance(addr, uint256.NewInt(999)))
	st.RevertTo(chk)

	stage := st.Stage()
	assert.Equal(t, 2, stage.Len())
	require.NoError(t, stage.Commit(db))

	reopened := New(db)
	b, err := reopened.GetBalance(addr)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(100), b)

	var decoded []uint64
	require.NoError(t, reopened.DecodeStorage(addr, key, func(raw []byte) error {
		return rlp.DecodeBytes(raw, &decoded)
	}))
	assert.Equal(t, []uint64{1, 2, 3}, decoded)

	// zeroing a value deletes it from the store
	require.NoError(t, reopened.SetBalance(addr, new(uint256.Int)))
	require.NoError(t, reopened.Stage().Commit(db))
	has, err := db.Has(stateKey{kind: balanceKind, addr: addr}.dbKey())
	require.NoError(t, err)
	assert.False(t, has)
}

func TestDecodeStorageError(t *testing.T) {
	st := New(newMemDB(t))
	addr := thor.BytesToAddress([]byte("a"))
	key := thor.BytesToBytes32([]byte("k"))
	st.SetRawStorage(addr, key, rlp.RawValue{0xFF})

	err := st.DecodeStorage(addr, key, func(raw []byte) error {
		var v uint64
		return rlp.DecodeBytes(raw, &v)
	})
	var stateErr *Error
	assert.True(t, errors.As(err, &stateErr))
}
