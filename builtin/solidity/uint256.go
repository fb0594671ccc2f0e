// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/holiman/uint256"

	"github.com/vechain/stakepool/thor"
)

// ErrOverflow is returned by Add and Sub when the result does not fit the slot.
type ErrOverflow struct {
	Slot thor.Bytes32
	Sub  bool
}

func (e *ErrOverflow) Error() string {
	if e.Sub {
		return "uint256 underflow at slot " + e.Slot.AbbrevString()
	}
	return "uint256 overflow at slot " + e.Slot.AbbrevString()
}

// Uint256 is a wrapper for storage and retrieval of an uint256. Similar to storing an uint256 in a smart contract.
// Unlike a plain uint256 in the EVM, Add and Sub are checked and never wrap.
type Uint256 struct {
	context *Context
	pos     thor.Bytes32
}

func NewUint256(context *Context, slot thor.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: slot}
}

func (u *Uint256) Get() (*uint256.Int, error) {
	storage, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes32(storage[:]), nil
}

func (u *Uint256) Set(value *uint256.Int) {
	u.context.state.SetStorage(u.context.address, u.pos, thor.Bytes32(value.Bytes32()))
}

func (u *Uint256) Add(value *uint256.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	if _, overflow := storage.AddOverflow(storage, value); overflow {
		return &ErrOverflow{Slot: u.pos}
	}
	u.Set(storage)
	return nil
}

func (u *Uint256) Sub(value *uint256.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	if _, underflow := storage.SubOverflow(storage, value); underflow {
		return &ErrOverflow{Slot: u.pos, Sub: true}
	}
	u.Set(storage)
	return nil
}
