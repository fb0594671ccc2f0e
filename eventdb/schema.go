// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

// amounts are decimal strings, addresses raw 20 bytes
const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	opID TEXT NOT NULL,
	kind TEXT NOT NULL,
	time INTEGER NOT NULL,
	participant BLOB,
	amount TEXT NOT NULL,
	before TEXT NOT NULL,
	after TEXT NOT NULL,
	fee TEXT NOT NULL,
	count INTEGER NOT NULL,
	venue BLOB,
	prevVenue BLOB
);
CREATE INDEX IF NOT EXISTS event_participant ON event(participant);
CREATE INDEX IF NOT EXISTS event_kind ON event(kind);
CREATE INDEX IF NOT EXISTS event_op ON event(opID);`
