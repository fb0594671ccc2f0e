// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/solidity"
	"github.com/vechain/stakepool/thor"
)

var (
	slotLength  = thor.BytesToBytes32([]byte("participants-length"))
	slotIndexes = thor.BytesToBytes32([]byte("participants-index"))
	slotMembers = thor.BytesToBytes32([]byte("participants"))
)

// Registry is the ordered set of participant addresses.
// Index 0 is pinned to the owner and doubles as the "absent" marker of the
// index map, so the owner is never stored there.
type Registry struct {
	length  *solidity.Uint256
	indexes *solidity.Mapping[thor.Address, uint64]
	members *solidity.Mapping[thor.Uint64Key, thor.Address]
}

func New(sctx *solidity.Context) *Registry {
	return &Registry{
		length:  solidity.NewUint256(sctx, slotLength),
		indexes: solidity.NewMapping[thor.Address, uint64](sctx, slotIndexes),
		members: solidity.NewMapping[thor.Uint64Key, thor.Address](sctx, slotMembers),
	}
}

// Init pins owner at index 0. It is a no-op once the registry has been initialised.
func (r *Registry) Init(owner thor.Address) error {
	if owner.IsZero() {
		return errors.New("registry: zero owner")
	}
	n, err := r.Len()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if err := r.members.Set(0, owner); err != nil {
		return errors.Wrap(err, "registry: set owner")
	}
	r.length.Set(uint256.NewInt(1))
	return nil
}

// Owner returns the address pinned at index 0.
func (r *Registry) Owner() (thor.Address, error) {
	return r.members.Get(0)
}

func (r *Registry) Len() (uint64, error) {
	n, err := r.length.Get()
	if err != nil {
		return 0, errors.Wrap(err, "registry: get length")
	}
	return n.Uint64(), nil
}

func (r *Registry) setLen(n uint64) {
	r.length.Set(uint256.NewInt(n))
}

// At returns the member at position i.
func (r *Registry) At(i uint64) (thor.Address, error) {
	n, err := r.Len()
	if err != nil {
		return thor.Address{}, err
	}
	if i >= n {
		return thor.Address{}, errors.Errorf("registry: index %d out of range [0, %d)", i, n)
	}
	return r.members.Get(thor.Uint64Key(i))
}

func (r *Registry) Contains(id thor.Address) (bool, error) {
	owner, err := r.Owner()
	if err != nil {
		return false, err
	}
	if id == owner {
		return true, nil
	}
	idx, err := r.indexes.Get(id)
	if err != nil {
		return false, errors.Wrap(err, "registry: get index")
	}
	return idx != 0, nil
}

// Add appends id. It reports whether id was newly added.
// It fails until Init has pinned the owner.
func (r *Registry) Add(id thor.Address) (bool, error) {
	n, err := r.Len()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, errors.New("registry: not initialised")
	}
	if ok, err := r.Contains(id); err != nil || ok {
		return false, err
	}
	if err := r.members.Set(thor.Uint64Key(n), id); err != nil {
		return false, errors.Wrap(err, "registry: set member")
	}
	if err := r.indexes.Set(id, n); err != nil {
		return false, errors.Wrap(err, "registry: set index")
	}
	r.setLen(n + 1)
	return true, nil
}

// Remove swaps the last member into id's slot and shrinks the set.
// The owner and absent ids are ignored. It must not be called while a Range is in progress.
func (r *Registry) Remove(id thor.Address) (bool, error) {
	idx, err := r.indexes.Get(id)
	if err != nil {
		return false, errors.Wrap(err, "registry: get index")
	}
	if idx == 0 {
		return false, nil
	}
	n, err := r.Len()
	if err != nil {
		return false, err
	}
	last := n - 1
	if idx != last {
		moved, err := r.members.Get(thor.Uint64Key(last))
		if err != nil {
			return false, errors.Wrap(err, "registry: get member")
		}
		if err := r.members.Set(thor.Uint64Key(idx), moved); err != nil {
			return false, errors.Wrap(err, "registry: set member")
		}
		if err := r.indexes.Set(moved, idx); err != nil {
			return false, errors.Wrap(err, "registry: set index")
		}
	}
	r.members.Delete(thor.Uint64Key(last))
	r.indexes.Delete(id)
	r.setLen(last)
	return true, nil
}

// Page returns up to limit members starting at position start.
func (r *Registry) Page(start, limit uint64) ([]thor.Address, error) {
	n, err := r.Len()
	if err != nil {
		return nil, err
	}
	if start >= n {
		return nil, nil
	}
	end := min(start+limit, n)
	page := make([]thor.Address, 0, end-start)
	for i := start; i < end; i++ {
		addr, err := r.members.Get(thor.Uint64Key(i))
		if err != nil {
			return nil, errors.Wrap(err, "registry: get member")
		}
		page = append(page, addr)
	}
	return page, nil
}

// Range visits every member in registry order, loading pageSize members at a time.
// Iteration stops at the first error returned by fn.
func (r *Registry) Range(pageSize uint64, fn func(addr thor.Address) error) error {
	if pageSize == 0 {
		return errors.New("registry: zero page size")
	}
	n, err := r.Len()
	if err != nil {
		return err
	}
	for start := uint64(0); start < n; start += pageSize {
		page, err := r.Page(start, pageSize)
		if err != nil {
			return err
		}
		for _, addr := range page {
			if err := fn(addr); err != nil {
				return err
			}
		}
	}
	return nil
}
