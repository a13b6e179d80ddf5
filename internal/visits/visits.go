// Package visits counts page visits and project views without storing raw
// client addresses.
package visits

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Visit is one recorded page request.
type Visit struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// ProjectCount is the number of dialog opens for one project.
type ProjectCount struct {
	ProjectID int   `json:"project_id"`
	Views     int64 `json:"views"`
}

// Stats is the dashboard summary.
type Stats struct {
	TotalVisitors    int64          `json:"total_visitors"`
	UniqueVisitors   int64          `json:"unique_visitors"`
	VisitorsToday    int64          `json:"visitors_today"`
	VisitorsThisWeek int64          `json:"visitors_this_week"`
	ProjectViews     []ProjectCount `json:"project_views"`
	RecentVisitors   []Visit        `json:"recent_visitors"`
}

const schema = `
CREATE TABLE IF NOT EXISTS visitors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	hashed_ip TEXT NOT NULL,
	user_agent TEXT,
	path TEXT,
	timestamp DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS project_views (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id INTEGER NOT NULL,
	timestamp DATETIME NOT NULL
);`

// Store records visits in SQLite.
type Store struct {
	db   *sql.DB
	salt string
	now  func() time.Time
}

// Open opens the database at dsn and creates the tables. A fresh random salt
// is used for address hashing, so hashes are only comparable within one run.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening visits database")
	}
	// in-memory databases live only as long as a connection holds them
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating visits tables")
	}

	salt, err := randomHex(16)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, salt: salt, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "generating salt")
	}
	return hex.EncodeToString(b), nil
}

// HashIP returns a truncated salted hash of ip, stable for the life of the store.
func (s *Store) HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + s.salt))
	return hex.EncodeToString(sum[:])[:16]
}

// RecordVisit stores a page request.
func (s *Store) RecordVisit(ctx context.Context, ip, userAgent, path string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO visitors (hashed_ip, user_agent, path, timestamp) VALUES (?, ?, ?, ?)`,
		s.HashIP(ip), userAgent, path, s.now().UTC())
	return errors.Wrap(err, "recording visit")
}

// RecordProjectView stores one dialog open.
func (s *Store) RecordProjectView(ctx context.Context, projectID int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO project_views (project_id, timestamp) VALUES (?, ?)`,
		projectID, s.now().UTC())
	return errors.Wrap(err, "recording project view")
}

// Cleanup removes visits older than retention and returns how many rows went.
func (s *Store) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-retention)
	res, err := s.db.ExecContext(ctx, `DELETE FROM visitors WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "cleaning up visits")
	}
	n, _ := res.RowsAffected()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM project_views WHERE timestamp < ?`, cutoff); err != nil {
		return n, errors.Wrap(err, "cleaning up project views")
	}
	return n, nil
}

// Stats summarizes recorded activity.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	now := s.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	stats := &Stats{}

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{startOfDay}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{now.Add(-7 * 24 * time.Hour)}},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, errors.Wrap(err, "counting visits")
		}
	}

	views, err := s.projectViews(ctx)
	if err != nil {
		return nil, err
	}
	stats.ProjectViews = views

	recent, err := s.Recent(ctx, 50)
	if err != nil {
		return nil, err
	}
	stats.RecentVisitors = recent
	return stats, nil
}

// projectViews returns view counts per project, most viewed first.
func (s *Store) projectViews(ctx context.Context) ([]ProjectCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT project_id, COUNT(*) AS views
		FROM project_views
		GROUP BY project_id
		ORDER BY views DESC, project_id ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "counting project views")
	}
	defer rows.Close()

	var views []ProjectCount
	for rows.Next() {
		var pc ProjectCount
		if err := rows.Scan(&pc.ProjectID, &pc.Views); err != nil {
			return nil, errors.Wrap(err, "scanning project views")
		}
		views = append(views, pc)
	}
	return views, errors.Wrap(rows.Err(), "reading project views")
}

// Recent returns the latest visits, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Visit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hashed_ip, user_agent, path, timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "loading recent visits")
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Timestamp); err != nil {
			return nil, errors.Wrap(err, "scanning visit")
		}
		visits = append(visits, v)
	}
	return visits, errors.Wrap(rows.Err(), "iterating visits")
}
