// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_Status(t *testing.T) {
	h := New(time.Minute)

	status, err := h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.Nil(t, status.VenueProbe)

	h.PoolInitialized(true)
	h.VenueProbed(nil)
	status, err = h.Status()
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.True(t, status.VenueProbe.Reachable)
	assert.Empty(t, status.VenueProbe.Error)

	h.VenueProbed(errors.New("connection refused"))
	status, err = h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.False(t, status.VenueProbe.Reachable)
	assert.Equal(t, "connection refused", status.VenueProbe.Error)
}

func TestHealth_StaleProbe(t *testing.T) {
	h := New(time.Millisecond)
	h.PoolInitialized(true)
	h.VenueProbed(nil)

	time.Sleep(5 * time.Millisecond)
	status, err := h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy)
	assert.True(t, status.PoolInitialized)
}

func TestHealth_NotInitialized(t *testing.T) {
	h := New(time.Minute)
	h.VenueProbed(nil)

	status, err := h.Status()
	require.NoError(t, err)
	assert.False(t, status.Healthy)
}

func TestHealth_Watch(t *testing.T) {
	h := New(time.Minute)
	h.PoolInitialized(true)

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Watch(ctx, 5*time.Millisecond, func(context.Context) error {
			calls.Add(1)
			return nil
		})
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	<-done

	status, err := h.Status()
	require.NoError(t, err)
	assert.True(t, status.Healthy)
}
