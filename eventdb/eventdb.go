// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventdb keeps a queryable sqlite log of pool events.
package eventdb

import (
	"context"
	"database/sql"
	"strings"

	"github.com/holiman/uint256"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/thor"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

type Options struct {
	Offset uint64
	Limit  uint64
}

// Filter selects events. Zero fields match everything.
type Filter struct {
	Participant *thor.Address
	Kinds       []pool.EventKind
	OpID        string
	Order       Order // default asc
	Options     *Options
}

// EventDB manages the pool event log.
type EventDB struct {
	path          string
	db            *sql.DB
	sqliteVersion string
}

// New opens or creates an event db at path.
func New(path string) (*EventDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open event db")
	}
	// a single connection keeps ":memory:" databases shared and serialises writers
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(eventTableSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create event schema")
	}
	s, _, _ := sqlite3.Version()
	return &EventDB{
		path:          path,
		db:            db,
		sqliteVersion: s,
	}, nil
}

// NewMem create a memory sqlite db.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Insert appends events in one transaction.
func (db *EventDB) Insert(events []*pool.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	stmt, err := tx.Prepare("INSERT INTO event(opID, kind, time, participant, amount, before, after, fee, count, venue, prevVenue) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "prepare")
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.Exec(
			ev.ID,
			string(ev.Kind),
			ev.Time,
			addressValue(ev.Participant),
			amountValue(ev.Amount),
			amountValue(ev.Before),
			amountValue(ev.After),
			amountValue(ev.Fee),
			ev.Count,
			addressValue(ev.Venue),
			addressValue(ev.PrevVenue),
		); err != nil {
			tx.Rollback()
			return errors.Wrap(err, "insert event")
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// Filter returns events matching filter in insertion order.
func (db *EventDB) Filter(ctx context.Context, filter *Filter) ([]*pool.Event, error) {
	if filter == nil {
		filter = &Filter{}
	}
	var (
		args []any
		stmt strings.Builder
	)
	stmt.WriteString("SELECT opID, kind, time, participant, amount, before, after, fee, count, venue, prevVenue FROM event WHERE 1")
	if filter.Participant != nil {
		stmt.WriteString(" AND participant = ?")
		args = append(args, filter.Participant.Bytes())
	}
	if filter.OpID != "" {
		stmt.WriteString(" AND opID = ?")
		args = append(args, filter.OpID)
	}
	if len(filter.Kinds) > 0 {
		stmt.WriteString(" AND kind IN (?" + strings.Repeat(", ?", len(filter.Kinds)-1) + ")")
		for _, k := range filter.Kinds {
			args = append(args, string(k))
		}
	}
	if filter.Order == DESC {
		stmt.WriteString(" ORDER BY seq DESC")
	} else {
		stmt.WriteString(" ORDER BY seq ASC")
	}
	if filter.Options != nil {
		stmt.WriteString(" LIMIT ?, ?")
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(ctx, stmt.String(), args...)
}

func (db *EventDB) query(ctx context.Context, stmt string, args ...any) ([]*pool.Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer rows.Close()

	var events []*pool.Event
	for rows.Next() {
		var (
			ev                            pool.Event
			kind                          string
			participant, venue, prevVenue []byte
			amount, before, after, fee    string
		)
		if err := rows.Scan(&ev.ID, &kind, &ev.Time, &participant, &amount, &before, &after, &fee, &ev.Count, &venue, &prevVenue); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		ev.Kind = pool.EventKind(kind)
		ev.Participant = thor.BytesToAddress(participant)
		ev.Venue = thor.BytesToAddress(venue)
		ev.PrevVenue = thor.BytesToAddress(prevVenue)
		for _, f := range []struct {
			dst **uint256.Int
			src string
		}{{&ev.Amount, amount}, {&ev.Before, before}, {&ev.After, after}, {&ev.Fee, fee}} {
			v, err := uint256.FromDecimal(f.src)
			if err != nil {
				return nil, errors.Wrap(err, "decode amount")
			}
			*f.dst = v
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows")
	}
	return events, nil
}

// Count returns the number of stored events.
func (db *EventDB) Count(ctx context.Context) (uint64, error) {
	var n uint64
	err := db.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM event").Scan(&n)
	return n, errors.Wrap(err, "count")
}

// Path return db's directory
func (db *EventDB) Path() string {
	return db.path
}

// SQLiteVersion returns the version of the linked sqlite library.
func (db *EventDB) SQLiteVersion() string {
	return db.sqliteVersion
}

// Close close sqlite
func (db *EventDB) Close() error {
	return db.db.Close()
}

func addressValue(addr thor.Address) []byte {
	if addr.IsZero() {
		return nil
	}
	return addr.Bytes()
}

func amountValue(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
