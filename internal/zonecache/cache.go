// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package zonecache persists compiled zones to SQLite so that TZif
// parsing and rule compilation can be skipped when the underlying data
// has not changed. Zones are keyed by name and a caller supplied
// version (typically the tzdata release or a digest of the source
// file); storing a zone under a new version replaces the old one.
//
// SQLite runs in WAL mode so multiple processes can share a cache.
// Writes are retried on the transient contention errors WAL mode can
// surface.
package zonecache

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cloudeng.io/algo/container/list"
	"github.com/cosnicolaou/tzdb/transition"
	"github.com/cosnicolaou/tzdb/zone"

	_ "modernc.org/sqlite"
)

// ErrNotCached is returned by Load for zones absent from the cache.
var ErrNotCached = errors.New("zonecache: zone not cached")

// Cache is a SQLite backed store of compiled zones. It additionally
// keeps an in-memory most-recently-used record of the zone names it
// has served.
type Cache struct {
	db     *sql.DB
	logger *slog.Logger

	mu  sync.Mutex
	mru *list.Double[string]
	ids map[string]list.DoubleID[string]
}

// Option represents an option to New.
type Option func(c *Cache)

// WithLogger sets the logger used by the cache.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

var discardLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

// New opens (or creates) the cache database and initializes the
// schema.
func New(path string, opts ...Option) (*Cache, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	c := &Cache{
		db:     db,
		logger: discardLogger,
		mru:    list.NewDouble[string](),
		ids:    map[string]list.DoubleID[string]{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return c, nil
}

// Close closes the database connection.
func (c *Cache) Close() error { return c.db.Close() }

func (c *Cache) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS zones (
		name           TEXT PRIMARY KEY,
		version        TEXT NOT NULL,
		initial_abbrev TEXT NOT NULL,
		initial_offset INTEGER NOT NULL,
		initial_dst    INTEGER NOT NULL,
		rule           TEXT NOT NULL DEFAULT '',
		stored         TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transitions (
		zone     TEXT NOT NULL REFERENCES zones(name) ON DELETE CASCADE,
		seq      INTEGER NOT NULL,
		at       INTEGER NOT NULL,
		calendar INTEGER NOT NULL,
		abbrev   TEXT NOT NULL,
		offset   INTEGER NOT NULL,
		dst      INTEGER NOT NULL,
		PRIMARY KEY (zone, seq)
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// retryOnContention retries fn on the transient errors WAL mode can
// return under concurrent access.
func retryOnContention(fn func() error) error {
	var err error
	for attempt := 0; attempt < 4; attempt++ {
		if err = fn(); err == nil || !isTransient(err) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
	return err
}

func isTransient(err error) bool {
	msg := err.Error()
	for _, pattern := range []string{"SQLITE_BUSY", "SQLITE_LOCKED", "database is locked", "database table is locked"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// Store persists z under the supplied version, replacing any previous
// entry for the zone.
func (c *Cache) Store(z *zone.Zone, version string) error {
	rule := ""
	if r := z.Rule(); r != nil {
		rule = r.String()
	}
	first := z.Offsets()[0]
	now := time.Now().UTC().Format(time.RFC3339)
	err := retryOnContention(func() error {
		tx, err := c.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback() //nolint:errcheck
		if _, err := tx.Exec(
			`INSERT INTO zones (name, version, initial_abbrev, initial_offset, initial_dst, rule, stored)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET
			   version = excluded.version,
			   initial_abbrev = excluded.initial_abbrev,
			   initial_offset = excluded.initial_offset,
			   initial_dst = excluded.initial_dst,
			   rule = excluded.rule,
			   stored = excluded.stored`,
			z.Name(), version, first.Abbrev(), first.Seconds(), first.IsDST(), rule, now,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM transitions WHERE zone = ?`, z.Name()); err != nil {
			return err
		}
		for i, tr := range z.Transitions() {
			at := tr.At()
			to := tr.Offset()
			if _, err := tx.Exec(
				`INSERT INTO transitions (zone, seq, at, calendar, abbrev, offset, dst)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				z.Name(), i, at.Unix(), at.IsCalendar(), to.Abbrev(), to.Seconds(), to.IsDST(),
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("store %v: %w", z.Name(), err)
	}
	c.touch(z.Name())
	c.logger.Info("stored", "zone", z.Name(), "version", version, "transitions", len(z.Transitions()))
	return nil
}

// Load returns the cached zone and the version it was stored under.
// The transition instants round-trip with their representation family
// intact.
func (c *Cache) Load(name string) (*zone.Zone, string, error) {
	var version, abbrev, ruleStr string
	var offset int
	var dst bool
	err := c.db.QueryRow(
		`SELECT version, initial_abbrev, initial_offset, initial_dst, rule FROM zones WHERE name = ?`,
		name).Scan(&version, &abbrev, &offset, &dst, &ruleStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotCached
	}
	if err != nil {
		return nil, "", fmt.Errorf("load %v: %w", name, err)
	}
	first := transition.NewOffset(abbrev, offset, dst)

	rows, err := c.db.Query(
		`SELECT at, calendar, abbrev, offset, dst FROM transitions WHERE zone = ? ORDER BY seq`,
		name)
	if err != nil {
		return nil, "", fmt.Errorf("load %v: %w", name, err)
	}
	defer rows.Close()
	prev := first
	var transitions []*transition.Transition
	for rows.Next() {
		var at int64
		var calendar, tdst bool
		var tabbrev string
		var toffset int
		if err := rows.Scan(&at, &calendar, &tabbrev, &toffset, &tdst); err != nil {
			return nil, "", fmt.Errorf("load %v: %w", name, err)
		}
		to := transition.NewOffset(tabbrev, toffset, tdst)
		transitions = append(transitions, transition.New(to, prev,
			transition.FixedInstant{When: instantFor(at, calendar)}))
		prev = to
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("load %v: %w", name, err)
	}

	var rule *zone.Rule
	if len(ruleStr) > 0 {
		r, err := zone.ParsePosixTZ(ruleStr)
		if err != nil {
			return nil, "", fmt.Errorf("load %v: %w", name, err)
		}
		rule = &r
	}
	z, err := zone.New(name, first, transitions, rule)
	if err != nil {
		return nil, "", fmt.Errorf("load %v: %w", name, err)
	}
	c.touch(name)
	return z, version, nil
}

// Names returns the names of all cached zones in lexical order.
func (c *Cache) Names() ([]string, error) {
	rows, err := c.db.Query(`SELECT name FROM zones ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Recent returns the zone names served by this cache instance, least
// recently used first.
func (c *Cache) Recent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := []string{}
	for name := range c.mru.Forward() {
		names = append(names, name)
	}
	return names
}

func (c *Cache) touch(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.ids[name]; ok {
		c.mru.RemoveItem(id)
	}
	c.ids[name] = c.mru.Append(name)
}

func instantFor(at int64, calendar bool) transition.Instant {
	if !calendar {
		return transition.NewUnix(at)
	}
	i := transition.NewUnix(at)
	cd, tod := i.Calendar()
	return transition.NewCalendar(cd, tod)
}
