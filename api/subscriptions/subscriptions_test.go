// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakepool/api/events"
	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/thor"
)

var (
	alice = thor.BytesToAddress([]byte("alice"))
	bob   = thor.BytesToAddress([]byte("bob"))
)

func TestMessageCache(t *testing.T) {
	cache := newMessageCache(2)
	ev := &pool.Event{ID: "op", Kind: pool.EventDeposited, Participant: alice, Amount: uint256.NewInt(5)}

	msg, fresh, err := cache.GetOrAdd(ev)
	require.NoError(t, err)
	assert.True(t, fresh)

	var decoded events.Event
	require.NoError(t, json.Unmarshal(msg, &decoded))
	assert.Equal(t, pool.EventDeposited, decoded.Kind)
	assert.Equal(t, alice, *decoded.Participant)

	again, fresh, err := cache.GetOrAdd(ev)
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, msg, again)

	// an equal but distinct event is encoded on its own
	_, fresh, err = cache.GetOrAdd(&pool.Event{ID: "op", Kind: pool.EventDeposited, Participant: alice, Amount: uint256.NewInt(5)})
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestMessageCache_Evicts(t *testing.T) {
	cache := newMessageCache(1)
	first := &pool.Event{Kind: pool.EventDeposited}
	_, _, err := cache.GetOrAdd(first)
	require.NoError(t, err)
	_, _, err = cache.GetOrAdd(&pool.Event{Kind: pool.EventWithdrawn})
	require.NoError(t, err)

	_, fresh, err := cache.GetOrAdd(first)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestParseSelector(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr string
		match   []*pool.Event
		miss    []*pool.Event
	}{
		{
			name:  "everything",
			query: "",
			match: []*pool.Event{{Kind: pool.EventDeposited, Participant: alice}, {Kind: pool.EventVenueChanged}},
		},
		{
			name:  "participant",
			query: "participant=" + alice.String(),
			match: []*pool.Event{{Kind: pool.EventWithdrawn, Participant: alice}},
			miss:  []*pool.Event{{Kind: pool.EventWithdrawn, Participant: bob}},
		},
		{
			name:  "kinds",
			query: "kinds=Deposited,%20Withdrawn",
			match: []*pool.Event{{Kind: pool.EventDeposited}, {Kind: pool.EventWithdrawn, Participant: bob}},
			miss:  []*pool.Event{{Kind: pool.EventStakeCommitted}},
		},
		{
			name:  "both",
			query: "participant=" + bob.String() + "&kinds=StakeRequested",
			match: []*pool.Event{{Kind: pool.EventStakeRequested, Participant: bob}},
			miss:  []*pool.Event{{Kind: pool.EventStakeRequested, Participant: alice}, {Kind: pool.EventDeposited, Participant: bob}},
		},
		{name: "bad participant", query: "participant=0x12", wantErr: "participant"},
		{name: "bad kind", query: "kinds=Minted", wantErr: "kinds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := parseSelector(httptest.NewRequest("GET", "/subscriptions/pool?"+tt.query, nil))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			for _, ev := range tt.match {
				assert.True(t, sel.match(ev), ev.Kind)
			}
			for _, ev := range tt.miss {
				assert.False(t, sel.match(ev), ev.Kind)
			}
		})
	}
}
