// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/stackedmap"
	"github.com/vechain/stakepool/thor"
)

const (
	accountBucket = kv.Bucket("a")
	storageBucket = kv.Bucket("s")
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

type keyKind byte

const (
	balanceKind keyKind = iota
	storageKind
)

// stateKey addresses either an account balance or a storage slot.
type stateKey struct {
	kind keyKind
	addr thor.Address
	key  thor.Bytes32
}

func (k stateKey) dbKey() []byte {
	if k.kind == balanceKind {
		return append([]byte(accountBucket), k.addr[:]...)
	}
	return append(append([]byte(storageBucket), k.addr[:]...), k.key[:]...)
}

// State manages the pool state.
type State struct {
	db kv.Getter
	sm *stackedmap.StackedMap[stateKey, []byte] // keeps revisions of state
}

// New create state object.
func New(db kv.Getter) *State {
	state := &State{db: db}
	state.sm = stackedmap.New(state.dbGetter)
	// bottom level holds changes that are not reverted by RevertTo(0)
	state.sm.Push()
	return state
}

// dbGetter implements stackedmap.MapGetter.
func (s *State) dbGetter(key stateKey) ([]byte, bool, error) {
	raw, err := s.db.Get(key.dbKey())
	if err != nil {
		if s.db.IsNotFound(err) {
			return nil, true, nil
		}
		return nil, false, err
	}
	return raw, true, nil
}

// GetBalance returns balance for the given address.
func (s *State) GetBalance(addr thor.Address) (*uint256.Int, error) {
	raw, _, err := s.sm.Get(stateKey{kind: balanceKind, addr: addr})
	if err != nil {
		return nil, &Error{err}
	}
	balance := new(uint256.Int)
	if len(raw) == 0 {
		return balance, nil
	}
	if err := rlp.DecodeBytes(raw, balance); err != nil {
		return nil, &Error{err}
	}
	return balance, nil
}

// SetBalance set balance for the given address.
func (s *State) SetBalance(addr thor.Address, balance *uint256.Int) error {
	var raw []byte
	if !balance.IsZero() {
		enc, err := rlp.EncodeToBytes(balance)
		if err != nil {
			return &Error{err}
		}
		raw = enc
	}
	s.sm.Put(stateKey{kind: balanceKind, addr: addr}, raw)
	return nil
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr thor.Address, key thor.Bytes32) (thor.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return thor.Bytes32{}, err
	}
	if len(raw) == 0 {
		return thor.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return thor.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// special case for rlp list, it should be customized storage value
		// return hash of raw data
		return thor.Blake2b(raw), nil
	}
	return thor.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr thor.Address, key, value thor.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr thor.Address, key thor.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(stateKey{kind: storageKind, addr: addr, key: key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr thor.Address, key thor.Bytes32, raw rlp.RawValue) {
	s.sm.Put(stateKey{kind: storageKind, addr: addr, key: key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
func (s *State) DecodeStorage(addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
	if s.sm.Depth() == 0 {
		s.sm.Push()
	}
}

// Stage plays back the journal and collects the latest value of every touched key.
func (s *State) Stage() *Stage {
	changes := make(map[stateKey][]byte)
	var order []stateKey

	s.sm.Journal(func(key stateKey, value []byte) bool {
		if _, ok := changes[key]; !ok {
			order = append(order, key)
		}
		changes[key] = value
		return true
	})

	return &Stage{changes: changes, order: order}
}
