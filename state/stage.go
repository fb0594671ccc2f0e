// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/kv"
)

// Stage abstracts changes made on a State, ready to be written.
type Stage struct {
	changes map[stateKey][]byte
	order   []stateKey
}

// Len returns the count of changed keys.
func (s *Stage) Len() int {
	return len(s.order)
}

// Commit writes all changes into the store in one atomic bulk.
func (s *Stage) Commit(store kv.Store) error {
	if len(s.order) == 0 {
		return nil
	}
	bulk := store.Bulk()
	for _, key := range s.order {
		val := s.changes[key]
		var err error
		if len(val) == 0 {
			err = bulk.Delete(key.dbKey())
		} else {
			err = bulk.Put(key.dbKey(), val)
		}
		if err != nil {
			return errors.Wrap(err, "stage")
		}
	}
	return errors.Wrap(bulk.Write(), "commit stage")
}
