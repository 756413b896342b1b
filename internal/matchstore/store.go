package matchstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/loqalabs/courtcall/internal/config"
	"github.com/loqalabs/courtcall/internal/match"
	"github.com/loqalabs/courtcall/internal/score"
	_ "modernc.org/sqlite"
)

// Point is one applied score event on a match timeline.
type Point struct {
	ID         int64
	MatchID    string
	Court      string
	Rule       string
	Transcript string
	Game       int
	State      score.ScoreState
	CreatedAt  time.Time
}

// Active is the persisted in-progress match of a court.
type Active struct {
	MatchID   string
	State     score.ScoreState
	UpdatedAt time.Time
}

// Store keeps the active match, the match archive and the point timeline
// in SQLite. In ephemeral mode every call is a no-op.
type Store struct {
	db    *sql.DB
	cfg   config.MatchStoreConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the match store according to config.
func Open(ctx context.Context, cfg config.MatchStoreConfig, log *slog.Logger) (*Store, error) {
	if cfg.RetentionMode == "ephemeral" {
		return &Store{cfg: cfg, log: log, clock: time.Now}, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; keeps WAL checkpoints and the active row consistent.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}

	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.VacuumOnStart {
		if err := s.vacuum(ctx); err != nil {
			log.Warn("match store vacuum failed", slog.String("error", err.Error()))
		}
	}

	if err := s.Prune(ctx); err != nil {
		log.Warn("match store prune on start failed", slog.String("error", err.Error()))
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	ddl := `
CREATE TABLE IF NOT EXISTS active_match (
    court TEXT PRIMARY KEY,
    match_id TEXT NOT NULL,
    payload BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS matches (
    id TEXT PRIMARY KEY,
    court TEXT NOT NULL,
    sport TEXT NOT NULL,
    winner TEXT,
    payload BLOB NOT NULL,
    ended_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS points (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    match_id TEXT NOT NULL,
    court TEXT NOT NULL,
    rule TEXT,
    transcript TEXT,
    game INTEGER NOT NULL,
    payload BLOB NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_matches_court_ended ON matches(court, ended_at);
CREATE INDEX IF NOT EXISTS idx_points_match_created ON points(match_id, created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *Store) vacuum(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

func (s *Store) disabled() bool {
	return s.cfg.RetentionMode == "ephemeral" || s.db == nil
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveActive replaces the in-progress match of court.
func (s *Store) SaveActive(ctx context.Context, court, matchID string, state score.ScoreState) error {
	if s.disabled() {
		return nil
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode active match: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO active_match(court, match_id, payload, updated_at)
		 VALUES(?, ?, ?, ?)
		 ON CONFLICT(court) DO UPDATE SET match_id=excluded.match_id, payload=excluded.payload, updated_at=excluded.updated_at`,
		court, matchID, payload, s.clock().UnixMilli())
	return err
}

// LoadActive returns the persisted in-progress match of court, if any.
func (s *Store) LoadActive(ctx context.Context, court string) (Active, bool, error) {
	if s.disabled() {
		return Active{}, false, nil
	}
	var (
		a       Active
		payload []byte
		updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT match_id, payload, updated_at FROM active_match WHERE court = ?`, court).
		Scan(&a.MatchID, &payload, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Active{}, false, nil
	}
	if err != nil {
		return Active{}, false, err
	}
	if err := json.Unmarshal(payload, &a.State); err != nil {
		return Active{}, false, fmt.Errorf("decode active match: %w", err)
	}
	a.UpdatedAt = time.UnixMilli(updated).UTC()
	return a, true, nil
}

// ClearActive forgets the in-progress match of court.
func (s *Store) ClearActive(ctx context.Context, court string) error {
	if s.disabled() {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM active_match WHERE court = ?`, court)
	return err
}

// AppendPoint writes a timeline entry.
func (s *Store) AppendPoint(ctx context.Context, p Point) error {
	if s.disabled() {
		return nil
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.clock()
	}
	payload, err := json.Marshal(p.State)
	if err != nil {
		return fmt.Errorf("encode point state: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO points(match_id, court, rule, transcript, game, payload, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		p.MatchID, p.Court, p.Rule, p.Transcript, p.Game, payload, p.CreatedAt.UnixMilli())
	return err
}

// ListPoints retrieves up to limit timeline entries of a match in the order
// they were applied.
func (s *Store) ListPoints(ctx context.Context, matchID string, limit int) ([]Point, error) {
	if s.disabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, match_id, court, rule, transcript, game, payload, created_at
		 FROM points WHERE match_id = ? ORDER BY created_at ASC, id ASC LIMIT ?`, matchID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var (
			p       Point
			payload []byte
			created int64
		)
		if err := rows.Scan(&p.ID, &p.MatchID, &p.Court, &p.Rule, &p.Transcript, &p.Game, &payload, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &p.State); err != nil {
			return nil, fmt.Errorf("decode point %d: %w", p.ID, err)
		}
		p.CreatedAt = time.UnixMilli(created).UTC()
		points = append(points, p)
	}
	return points, rows.Err()
}

// ArchiveMatch stores a finished match and clears the court's active row
// in one transaction.
func (s *Store) ArchiveMatch(ctx context.Context, court string, m match.Match) error {
	if s.disabled() {
		return nil
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode match: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO matches(id, court, sport, winner, payload, ended_at) VALUES(?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload=excluded.payload, winner=excluded.winner, ended_at=excluded.ended_at`,
		m.ID, court, string(m.Sport), string(m.Winner), payload, m.Date.UnixMilli()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM active_match WHERE court = ?`, court); err != nil {
		return err
	}
	return tx.Commit()
}

// ListMatches returns up to limit archived matches of court, newest first.
func (s *Store) ListMatches(ctx context.Context, court string, limit int) ([]match.Match, error) {
	if s.disabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM matches WHERE court = ? ORDER BY ended_at DESC, rowid DESC LIMIT ?`, court, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []match.Match
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var m match.Match
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("decode match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ClearMatches deletes the archive of court along with the archived
// matches' timelines.
func (s *Store) ClearMatches(ctx context.Context, court string) error {
	if s.disabled() {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM points WHERE match_id IN (SELECT id FROM matches WHERE court = ?)`, court); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE court = ?`, court); err != nil {
		return err
	}
	return tx.Commit()
}

// Prune applies configured retention (called on startup and can be scheduled).
// MaxMatches is a per-court limit. Timelines of the active matches are never
// pruned.
func (s *Store) Prune(ctx context.Context) error {
	if s.disabled() || s.cfg.RetentionMode != "persistent" {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if s.cfg.RetentionDays > 0 {
		cutoff := s.clock().Add(-time.Duration(s.cfg.RetentionDays) * 24 * time.Hour)
		if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE ended_at < ?`, cutoff.UnixMilli()); err != nil {
			return err
		}
	}
	if s.cfg.MaxMatches > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY court ORDER BY ended_at DESC, rowid DESC) AS n
				FROM matches
			) WHERE n > ?
		)`, s.cfg.MaxMatches); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM points
		WHERE match_id NOT IN (SELECT id FROM matches)
		AND match_id NOT IN (SELECT match_id FROM active_match)`); err != nil {
		return err
	}
	return tx.Commit()
}

// Ensure checks the store is consistent with its retention mode.
func (s *Store) Ensure() error {
	if s.cfg.RetentionMode == "ephemeral" && s.db != nil {
		return errors.New("ephemeral store should not have database connection")
	}
	return nil
}
