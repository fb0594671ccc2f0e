// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"context"
	"sync"
	"time"
)

// VenueProbe is the outcome of the last venue balance query.
type VenueProbe struct {
	Reachable bool       `json:"reachable"`
	Timestamp *time.Time `json:"timestamp"`
	Error     string     `json:"error,omitempty"`
}

type Status struct {
	Healthy         bool        `json:"healthy"`
	PoolInitialized bool        `json:"poolInitialized"`
	VenueProbe      *VenueProbe `json:"venueProbe"`
}

// Health tracks whether the pool can serve commits: it must be initialised
// and its venue must have answered recently.
type Health struct {
	lock        sync.RWMutex
	initialized bool
	probedAt    time.Time
	probeErr    error
	maxAge      time.Duration
}

func New(maxProbeAge time.Duration) *Health {
	return &Health{maxAge: maxProbeAge}
}

func (h *Health) PoolInitialized(initialized bool) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.initialized = initialized
}

// VenueProbed records the result of a venue query.
func (h *Health) VenueProbed(err error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.probedAt = time.Now()
	h.probeErr = err
}

func (h *Health) Status() (*Status, error) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	var probe *VenueProbe
	if !h.probedAt.IsZero() {
		at := h.probedAt
		probe = &VenueProbe{Reachable: h.probeErr == nil, Timestamp: &at}
		if h.probeErr != nil {
			probe.Error = h.probeErr.Error()
		}
	}

	healthy := h.initialized &&
		probe != nil && probe.Reachable &&
		time.Since(h.probedAt) <= h.maxAge

	return &Status{
		Healthy:         healthy,
		PoolInitialized: h.initialized,
		VenueProbe:      probe,
	}, nil
}

// Watch calls probe every interval and records its result until ctx is done.
func (h *Health) Watch(ctx context.Context, interval time.Duration, probe func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		pctx, cancel := context.WithTimeout(ctx, interval)
		err := probe(pctx)
		cancel()
		if ctx.Err() != nil {
			return
		}
		h.VenueProbed(err)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
