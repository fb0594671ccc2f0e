// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the pool's persisted accounts and storage slots.
// It follows the flow as bellow:
//
//	         o
//	         |
//	[ revertable state ]
//	         |
//	  [ stacked map ] -> [ journal ] -> [ playback(staging) ] -> [ kv batch ]
//	         |
//	    [ kv store ]
//
// Every pool operation runs against a fresh State. Checkpoints let an
// operation revert all of its writes, and a successful operation is staged
// and committed as one atomic batch.
package state
