// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/api/utils"
	"github.com/vechain/stakepool/eventdb"
	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/thor"
)

// Event is the JSON form of a pool event. Address fields that do not apply
// to the event kind are omitted.
type Event struct {
	OpID        string                `json:"opId"`
	Kind        pool.EventKind        `json:"kind"`
	Timestamp   int64                 `json:"timestamp"`
	Participant *thor.Address         `json:"participant,omitempty"`
	Amount      *math.HexOrDecimal256 `json:"amount"`
	Before      *math.HexOrDecimal256 `json:"before"`
	After       *math.HexOrDecimal256 `json:"after"`
	Fee         *math.HexOrDecimal256 `json:"fee"`
	Count       uint64                `json:"count"`
	Venue       *thor.Address         `json:"venue,omitempty"`
	PrevVenue   *thor.Address         `json:"prevVenue,omitempty"`
}

func optionalAddress(addr thor.Address) *thor.Address {
	if addr.IsZero() {
		return nil
	}
	return &addr
}

// ConvertEvent converts a pool event into its JSON form.
func ConvertEvent(ev *pool.Event) *Event {
	return &Event{
		OpID:        ev.ID,
		Kind:        ev.Kind,
		Timestamp:   ev.Time,
		Participant: optionalAddress(ev.Participant),
		Amount:      utils.Amount(ev.Amount),
		Before:      utils.Amount(ev.Before),
		After:       utils.Amount(ev.After),
		Fee:         utils.Amount(ev.Fee),
		Count:       ev.Count,
		Venue:       optionalAddress(ev.Venue),
		PrevVenue:   optionalAddress(ev.PrevVenue),
	}
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// EventFilter is the body of an event query.
type EventFilter struct {
	Participant *thor.Address    `json:"participant"`
	Kinds       []pool.EventKind `json:"kinds"`
	OpID        string           `json:"opId"`
	Options     *Options         `json:"options"`
	Order       eventdb.Order    `json:"order"`
}

var knownKinds = map[pool.EventKind]bool{
	pool.EventDeposited:           true,
	pool.EventStakeRequested:      true,
	pool.EventUnstakeRequested:    true,
	pool.EventStakeCommitted:      true,
	pool.EventUnstakeCommitted:    true,
	pool.EventEarningsDistributed: true,
	pool.EventWithdrawn:           true,
	pool.EventOwnerFeeWithdrawn:   true,
	pool.EventVenueChanged:        true,
	pool.EventFeeRateChanged:      true,
}

// ParseKind checks that kind names a pool event.
func ParseKind(kind string) (pool.EventKind, error) {
	k := pool.EventKind(kind)
	if !knownKinds[k] {
		return "", errors.Errorf("unknown event kind %q", kind)
	}
	return k, nil
}

func convertFilter(ef *EventFilter) (*eventdb.Filter, error) {
	for _, k := range ef.Kinds {
		if _, err := ParseKind(string(k)); err != nil {
			return nil, err
		}
	}
	switch ef.Order {
	case "", eventdb.ASC, eventdb.DESC:
	default:
		return nil, errors.Errorf("unknown order %q", ef.Order)
	}
	f := &eventdb.Filter{
		Participant: ef.Participant,
		Kinds:       ef.Kinds,
		OpID:        ef.OpID,
		Order:       ef.Order,
	}
	if ef.Options != nil {
		f.Options = &eventdb.Options{Offset: ef.Options.Offset, Limit: ef.Options.Limit}
	}
	return f, nil
}
