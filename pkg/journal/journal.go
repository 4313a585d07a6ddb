package journal

import (
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/fiber"
)

// Memory is the path of a private in-memory journal.
const Memory = ":memory:"

// Entry is one journaled commit.
type Entry struct {
	ID          int64
	Seq         uint64
	Component   string
	Units       int
	Deletions   int
	Placements  int
	Effects     int
	Cleanups    int
	Duration    time.Duration
	CommittedAt time.Time
}

// Journal persists commit records to SQLite.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Journal, error) {
	dsn := path
	if path != Memory {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.New("F050").WithDetail(path).Wrap(err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.New("F050").WithDetail(path).Wrap(err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, errors.New("F050").WithDetail("migrate " + path).Wrap(err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one commit.
func (j *Journal) Record(info fiber.CommitInfo) error {
	_, err := j.db.Exec(`INSERT INTO commits
		(seq, component, units, deletions, placements, effects, cleanups, duration_ns, committed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(info.Seq), info.Component, info.Units, info.Deletions, info.Placements,
		info.Effects, info.Cleanups, info.Duration.Nanoseconds(), j.now().UTC())
	if err != nil {
		return errors.New("F051").Wrap(err)
	}
	return nil
}

// Hook returns a commit listener that records every commit, logging
// failures instead of returning them.
func (j *Journal) Hook(logger *slog.Logger) func(fiber.CommitInfo) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(info fiber.CommitInfo) {
		if err := j.Record(info); err != nil {
			logger.Error("journal: record failed", "seq", info.Seq, "error", err)
		}
	}
}

// List returns the most recent commits, oldest first. limit <= 0
// returns all of them.
func (j *Journal) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.Query(`SELECT id, seq, component, units, deletions, placements,
		effects, cleanups, duration_ns, committed_at
		FROM (SELECT * FROM commits ORDER BY id DESC LIMIT ?)
		ORDER BY id ASC`, limit)
	if err != nil {
		return nil, errors.New("F050").Wrap(err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var seq, dur int64
		if err := rows.Scan(&e.ID, &seq, &e.Component, &e.Units, &e.Deletions, &e.Placements,
			&e.Effects, &e.Cleanups, &dur, &e.CommittedAt); err != nil {
			return nil, errors.New("F050").Wrap(err)
		}
		e.Seq = uint64(seq)
		e.Duration = time.Duration(dur)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New("F050").Wrap(err)
	}
	return entries, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS commits (
  id           INTEGER PRIMARY KEY,
  seq          INTEGER NOT NULL,
  component    TEXT NOT NULL DEFAULT '',
  units        INTEGER NOT NULL,
  deletions    INTEGER NOT NULL,
  placements   INTEGER NOT NULL,
  effects      INTEGER NOT NULL,
  cleanups     INTEGER NOT NULL,
  duration_ns  INTEGER NOT NULL,
  committed_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_commits_seq ON commits(seq);
`
