package audit

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS console_audit (
	id TEXT PRIMARY KEY,
	timestamp TEXT NOT NULL,
	actor TEXT NOT NULL,
	action TEXT NOT NULL,
	target TEXT,
	outcome TEXT NOT NULL,
	detail TEXT
);

CREATE INDEX IF NOT EXISTS idx_console_audit_action ON console_audit(action);
CREATE INDEX IF NOT EXISTS idx_console_audit_actor ON console_audit(actor);
CREATE INDEX IF NOT EXISTS idx_console_audit_timestamp ON console_audit(timestamp);
`

const defaultQueryLimit = 50

// Store is the console audit trail. Writes are buffered and applied by a
// single goroutine.
type Store struct {
	db       *sql.DB
	postgres bool
	writes   chan op
	done     chan struct{}
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
}

type op struct {
	entry Entry
	flush chan struct{}
}

// Open opens the audit database named by dsn: a postgres:// or
// postgresql:// URL selects PostgreSQL, anything else is a SQLite path.
func Open(dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver, postgres := "sqlite", false
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, postgres = "pgx", true
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening audit db: %w", err)
	}

	if !postgres {
		// WAL keeps `trafficmon audit` readable while serve is writing.
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return nil, closeWith(db, fmt.Errorf("setting WAL mode: %w", err))
		}
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return nil, closeWith(db, fmt.Errorf("creating schema: %w", err))
		}
	}

	s := &Store{
		db:       db,
		postgres: postgres,
		writes:   make(chan op, 256),
		done:     make(chan struct{}),
		logger:   logger,
	}
	go s.writeLoop()
	return s, nil
}

func closeWith(db *sql.DB, err error) error {
	if cerr := db.Close(); cerr != nil {
		return fmt.Errorf("%w (also: close: %v)", err, cerr)
	}
	return err
}

// Record builds an entry stamped now and enqueues it.
func (s *Store) Record(actor, action, target, outcome, detail string) {
	s.Log(Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Format(TimeLayout),
		Actor:     actor,
		Action:    action,
		Target:    target,
		Outcome:   outcome,
		Detail:    detail,
	})
}

// Log enqueues an entry for async writing. Entries are dropped with a
// warning when the buffer is full or the store is closed.
func (s *Store) Log(entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(TimeLayout)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.Warn("audit store closed, dropping entry", "action", entry.Action)
		return
	}
	select {
	case s.writes <- op{entry: entry}:
	default:
		s.logger.Warn("audit write buffer full, dropping entry", "id", entry.ID, "action", entry.Action)
	}
}

// Flush blocks until every entry enqueued before the call is written.
func (s *Store) Flush() {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return
	}
	ch := make(chan struct{})
	s.writes <- op{flush: ch}
	s.mu.RUnlock()
	<-ch
}

// Query returns entries matching opts, newest first.
func (s *Store) Query(opts QueryOpts) ([]Entry, error) {
	query := "SELECT id, timestamp, actor, action, target, outcome, detail FROM console_audit WHERE 1=1"
	var args []any

	if opts.Action != "" {
		query += " AND action = ?"
		args = append(args, opts.Action)
	}
	if opts.Actor != "" {
		query += " AND actor = ?"
		args = append(args, opts.Actor)
	}
	if opts.Since != "" {
		query += " AND timestamp >= ?"
		args = append(args, opts.Since)
	}

	query += " ORDER BY timestamp DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := s.db.Query(s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit trail: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var target, detail sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Actor, &e.Action, &target, &e.Outcome, &detail); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.Target = target.String
		e.Detail = detail.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close writes pending entries and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.writes)
	s.mu.Unlock()

	<-s.done
	return s.db.Close()
}

func (s *Store) writeLoop() {
	defer close(s.done)
	insert := s.rebind(`INSERT INTO console_audit (id, timestamp, actor, action, target, outcome, detail) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for o := range s.writes {
		if o.flush != nil {
			close(o.flush)
			continue
		}
		e := o.entry
		if _, err := s.db.Exec(insert, e.ID, e.Timestamp, e.Actor, e.Action, e.Target, e.Outcome, e.Detail); err != nil {
			s.logger.Error("audit write failed", "id", e.ID, "error", err)
		}
	}
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
