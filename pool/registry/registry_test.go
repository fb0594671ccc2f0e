// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/state"
	"github.com/vechain/stakepool/thor"
)

var owner = thor.BytesToAddress([]byte("owner"))

func newRegistry(t *testing.T) *Registry {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := New(solidity.NewContext(thor.BytesToAddress([]byte("pool")), state.New(db)))
	require.NoError(t, r.Init(owner))
	return r
}

func members(t *testing.T, r *Registry) []thor.Address {
	var out []thor.Address
	require.NoError(t, r.Range(2, func(addr thor.Address) error {
		out = append(out, addr)
		return nil
	}))
	return out
}

func TestRegistry_OwnerPinned(t *testing.T) {
	r := newRegistry(t)

	n, err := r.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	ok, err := r.Contains(owner)
	require.NoError(t, err)
	assert.True(t, ok)

	added, err := r.Add(owner)
	require.NoError(t, err)
	assert.False(t, added)

	removed, err := r.Remove(owner)
	require.NoError(t, err)
	assert.False(t, removed)

	// Init again keeps the existing owner
	require.NoError(t, r.Init(thor.BytesToAddress([]byte("other"))))
	got, err := r.Owner()
	require.NoError(t, err)
	assert.Equal(t, owner, got)
}

func TestRegistry_AddRemove(t *testing.T) {
	r := newRegistry(t)
	a := thor.BytesToAddress([]byte("a"))
	b := thor.BytesToAddress([]byte("b"))
	c := thor.BytesToAddress([]byte("c"))

	for _, addr := range []thor.Address{a, b, c} {
		added, err := r.Add(addr)
		require.NoError(t, err)
		assert.True(t, added)
	}
	added, err := r.Add(b)
	require.NoError(t, err)
	assert.False(t, added)

	assert.Equal(t, []thor.Address{owner, a, b, c}, members(t, r))

	// removing a swaps c into its slot
	removed, err := r.Remove(a)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []thor.Address{owner, c, b}, members(t, r))

	ok, err := r.Contains(a)
	require.NoError(t, err)
	assert.False(t, ok)

	at, err := r.At(1)
	require.NoError(t, err)
	assert.Equal(t, c, at)

	// removing the tail needs no swap
	removed, err = r.Remove(b)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []thor.Address{owner, c}, members(t, r))

	removed, err = r.Remove(b)
	require.NoError(t, err)
	assert.False(t, removed)

	// re-adding reuses the freed position
	_, err = r.Add(a)
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{owner, c, a}, members(t, r))

	_, err = r.At(3)
	assert.Error(t, err)
}

func TestRegistry_RangeStopsOnError(t *testing.T) {
	r := newRegistry(t)
	for i := 0; i < 5; i++ {
		_, err := r.Add(thor.BytesToAddress([]byte{byte(i + 1)}))
		require.NoError(t, err)
	}

	stop := errors.New("stop")
	visited := 0
	err := r.Range(4, func(thor.Address) error {
		visited++
		if visited == 3 {
			return stop
		}
		return nil
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 3, visited)

	assert.Error(t, r.Range(0, func(thor.Address) error { return nil }))
}

func TestRegistry_Page(t *testing.T) {
	r := newRegistry(t)
	a := thor.BytesToAddress([]byte("a"))
	_, err := r.Add(a)
	require.NoError(t, err)

	page, err := r.Page(1, 10)
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{a}, page)

	page, err = r.Page(5, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestRegistry_AddBeforeInit(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	r := New(solidity.NewContext(thor.Address{1}, state.New(db)))
	a := thor.BytesToAddress([]byte("a"))
	added, err := r.Add(a)
	assert.Error(t, err)
	assert.False(t, added)

	n, err := r.Len()
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, r.Init(owner))
	got, err := r.Owner()
	require.NoError(t, err)
	assert.Equal(t, owner, got)
}

func TestRegistry_InitZeroOwner(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	r := New(solidity.NewContext(thor.Address{1}, state.New(db)))
	assert.Error(t, r.Init(thor.Address{}))
}
