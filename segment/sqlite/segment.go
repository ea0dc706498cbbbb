// Package sqlite provides a segment stored in its own SQLite database file.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"

	"github.com/teenjuna/spill/segment"
)

const (
	memory = ":memory:"

	// Page cache sizes in KiB (negative values for the cache_size pragma).
	defaultCacheSize = "-2000"
	hardCacheSize    = "-1048576"
)

// Segment is a FIFO of items stored in a SQLite database file. The file is created by [New]
// and deleted by [Segment.Close].
type Segment struct {
	cfg    *Config
	db     *sql.DB
	closed atomic.Bool
}

var _ segment.Segment = (*Segment)(nil)

// New creates a new Segment with the provided configuration functions. A file must be
// configured. Default cache strategy is [segment.CacheLRU] with SQLite's default size.
func New(configFuncs ...ConfigFunc) (*Segment, error) {
	cfg := &Config{}
	for _, cf := range configFuncs {
		cf(cfg)
	}
	if cfg.file == "" {
		return nil, errors.New("file is not configured")
	}

	db, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	if err := setup(db); err != nil {
		return nil, errors.Join(fmt.Errorf("setup: %w", err), db.Close(), remove(cfg.file))
	}

	return &Segment{cfg: cfg, db: db}, nil
}

// Factory returns a factory creating every segment in a fresh file inside dir.
func Factory(dir string, configFuncs ...ConfigFunc) segment.Factory {
	next := segment.Paths(dir, ".db")
	return segment.FactoryFunc(func() (segment.Segment, error) {
		file := next()
		return New(append(configFuncs, func(c *Config) { c.File(file) })...)
	})
}

// File returns the path of the database file.
func (s *Segment) File() string {
	return s.cfg.file
}

func (s *Segment) Peek() ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, nil
	}

	var data []byte
	err := s.db.QueryRow(`select data from item order by id limit 1`).Scan(&data)
	return result(data, err)
}

func (s *Segment) Poll() ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, nil
	}

	var data []byte
	err := s.db.QueryRow(
		`
		delete from item
		where id = (select min(id) from item)
		returning data
		`,
	).Scan(&data)
	return result(data, err)
}

func (s *Segment) Offer(item []byte) error {
	if s.closed.Load() {
		return segment.ErrClosed
	}
	if item == nil {
		item = []byte{}
	}

	_, err := s.db.Exec(`insert into item (data) values (:data)`, sql.Named("data", item))
	if isClosed(err) {
		return segment.ErrClosed
	}
	return err
}

func (s *Segment) IsEmpty() (bool, error) {
	if s.closed.Load() {
		return true, nil
	}

	var empty bool
	err := s.db.QueryRow(`select not exists (select 1 from item)`).Scan(&empty)
	if isClosed(err) {
		return true, nil
	}
	return empty, err
}

// Close closes the database and deletes its files. Only the first call has an effect.
func (s *Segment) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	var errs []error
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close sqlite: %w", err))
	}
	if err := remove(s.cfg.file); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func result(data []byte, err error) ([]byte, bool, error) {
	switch {
	case errors.Is(err, sql.ErrNoRows), isClosed(err):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	if data == nil {
		// Blobs are never NULL; an empty item is stored as a zero-length blob.
		data = []byte{}
	}
	return data, true, nil
}

func isClosed(err error) bool {
	return err != nil && err.Error() == "sql: database is closed"
}

func open(cfg *Config) (*sql.DB, error) {
	params := url.Values{}
	params.Add("_txlock", "immediate")
	params.Add("_timeout", "5000") // 5s
	// The file is working storage deleted on close, so there is nothing to make durable.
	params.Add("_journal", "memory")
	params.Add("_sync", "off")

	switch cfg.cache.Strategy {
	case segment.CacheNone:
		params.Add("_cache_size", "0")
	case segment.CacheHard:
		params.Add("_cache_size", hardCacheSize)
	default:
		if cfg.cache.SizeItems > 0 {
			// One page per item is a rough upper bound for small items.
			params.Add("_cache_size", strconv.Itoa(cfg.cache.SizeItems))
		} else {
			params.Add("_cache_size", defaultCacheSize)
		}
	}

	uri := url.URL{Scheme: "file", Opaque: cfg.file, RawQuery: params.Encode()}

	db, err := sql.Open("sqlite3", uri.String())
	if err != nil {
		return nil, err
	}

	// A single connection serialises the writer and the reader of the segment.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)

	return db, nil
}

func setup(db *sql.DB) error {
	if _, err := db.Exec(
		`
		create table if not exists item (
			id   integer primary key autoincrement,
			data blob not null
		) strict
		`,
	); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

func remove(file string) error {
	var errs []error
	for _, f := range []string{file, file + "-journal", file + "-wal", file + "-shm"} {
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", f, err))
		}
	}
	return errors.Join(errs...)
}
