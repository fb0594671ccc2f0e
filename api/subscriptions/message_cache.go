// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/vechain/stakepool/api/events"
	"github.com/vechain/stakepool/pool"
)

// messageCache holds encoded events so every subscriber of an event shares
// one encoding. Events are keyed by identity, the feed hands the same
// pointer to all subscribers.
type messageCache struct {
	cache *lru.Cache
	mu    sync.Mutex
}

func newMessageCache(size int) *messageCache {
	cache, err := lru.New(size)
	if err != nil {
		// lru.New only fails for a non-positive size
		panic(fmt.Errorf("failed to create message cache: %v", err))
	}
	return &messageCache{cache: cache}
}

// GetOrAdd returns the encoded ev, encoding it on a miss. The bool reports
// whether the message was newly encoded.
func (mc *messageCache) GetOrAdd(ev *pool.Event) ([]byte, bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if msg, ok := mc.cache.Get(ev); ok {
		return msg.([]byte), false, nil
	}
	msg, err := json.Marshal(events.ConvertEvent(ev))
	if err != nil {
		return nil, false, err
	}
	mc.cache.Add(ev, msg)
	return msg, true, nil
}
