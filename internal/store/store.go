package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/phyten/bracketx/internal/bracket"
)

// ErrMiss is returned by Get when no report is cached for a key.
var ErrMiss = errors.New("cache miss")

// Key identifies one scan result. Any change to the content or to a setting
// that affects the report produces a different key.
type Key struct {
	Hash     string
	Language string
	Colors   int
	Policy   string
}

// FormatVersion is mixed into every key. Bump it whenever the matcher's output
// for the same input changes, so existing databases stop serving old reports.
const FormatVersion = 2

// KeyFor hashes content and combines it with the scan settings.
func KeyFor(content []byte, lang bracket.Language, colors int, policy string) Key {
	return keyAt(FormatVersion, content, lang, colors, policy)
}

func keyAt(version int, content []byte, lang bracket.Language, colors int, policy string) Key {
	h := sha256.New()
	fmt.Fprintf(h, "bracketx/%d\x00", version)
	h.Write(content)
	return Key{
		Hash:     hex.EncodeToString(h.Sum(nil)),
		Language: lang.String(),
		Colors:   colors,
		Policy:   policy,
	}
}

func (k Key) String() string {
	return k.Hash[:min(12, len(k.Hash))] + "/" + k.Language + "/" + strconv.Itoa(k.Colors) + "/" + k.Policy
}

// Store is the SQLite-backed report cache.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the cache database at path with WAL mode enabled.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the cache table. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS reports (
  content_hash TEXT NOT NULL,
  language     TEXT NOT NULL,
  colors       INTEGER NOT NULL,
  policy       TEXT NOT NULL,
  report       BLOB NOT NULL,
  pairs        INTEGER NOT NULL,
  unmatched    INTEGER NOT NULL,
  stored_at    INTEGER NOT NULL,
  PRIMARY KEY (content_hash, language, colors, policy)
);

CREATE INDEX IF NOT EXISTS idx_reports_stored_at ON reports(stored_at);
`

// Get returns the cached collection for key, or ErrMiss.
func (s *Store) Get(ctx context.Context, key Key) (bracket.Collection, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM reports WHERE content_hash = ? AND language = ? AND colors = ? AND policy = ?`,
		key.Hash, key.Language, key.Colors, key.Policy,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return bracket.Collection{}, ErrMiss
	}
	if err != nil {
		return bracket.Collection{}, fmt.Errorf("get %s: %w", key, err)
	}
	var c bracket.Collection
	if err := json.Unmarshal(blob, &c); err != nil {
		return bracket.Collection{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return c, nil
}

// Put stores or replaces the collection for key.
func (s *Store) Put(ctx context.Context, key Key, c bracket.Collection) error {
	blob, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (content_hash, language, colors, policy, report, pairs, unmatched, stored_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(content_hash, language, colors, policy) DO UPDATE SET
		   report = excluded.report,
		   pairs = excluded.pairs,
		   unmatched = excluded.unmatched,
		   stored_at = excluded.stored_at`,
		key.Hash, key.Language, key.Colors, key.Policy, blob,
		len(c.Pairs), len(c.Unmatched), s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Prune deletes entries stored before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE stored_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune rows affected: %w", err)
	}
	return n, nil
}

// Stats summarises the cache contents.
type Stats struct {
	Entries   int64 `json:"entries"`
	Pairs     int64 `json:"pairs"`
	Unmatched int64 `json:"unmatched"`
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(pairs), 0), COALESCE(SUM(unmatched), 0) FROM reports`,
	).Scan(&st.Entries, &st.Pairs, &st.Unmatched)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}
