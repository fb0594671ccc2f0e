// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket provides logical bucket for kv store.
type Bucket string

func (b Bucket) key(k []byte) []byte {
	return append([]byte(b), k...)
}

// Get reads value for the key inside the bucket.
func (b Bucket) Get(src Getter, key []byte) ([]byte, error) {
	return src.Get(b.key(key))
}

// Has reports whether the key exists inside the bucket.
func (b Bucket) Has(src Getter, key []byte) (bool, error) {
	return src.Has(b.key(key))
}

// Put writes value for the key inside the bucket.
func (b Bucket) Put(dst Putter, key, val []byte) error {
	return dst.Put(b.key(key), val)
}

// Delete removes the key inside the bucket.
func (b Bucket) Delete(dst Putter, key []byte) error {
	return dst.Delete(b.key(key))
}

// Range returns the key range covering the whole bucket.
func (b Bucket) Range() Range {
	start := []byte(b)
	return Range{Start: start, Limit: prefixLimit(start)}
}

// prefixLimit returns the smallest key greater than all keys with the given prefix.
// Nil is returned if no such key exists (prefix is all 0xff).
func prefixLimit(prefix []byte) []byte {
	limit := make([]byte, len(prefix))
	copy(limit, prefix)
	for i := len(limit) - 1; i >= 0; i-- {
		if limit[i] < 0xff {
			limit[i]++
			return limit[:i+1]
		}
	}
	return nil
}
