package videos

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anatolykoptev/go_video/internal/engine"
	_ "modernc.org/sqlite"
)

const (
	DownloadOK     = "ok"
	DownloadFailed = "failed"
)

// SearchEntry is one recorded search.
type SearchEntry struct {
	ID        string   `json:"id"`
	Query     string   `json:"query"`
	Platforms []string `json:"platforms"`
	Total     int      `json:"total"`
	CreatedAt string   `json:"created_at"`
}

// DownloadEntry is one recorded download attempt.
type DownloadEntry struct {
	ID        int64  `json:"id"`
	Platform  string `json:"platform"`
	URL       string `json:"url"`
	Path      string `json:"path,omitempty"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
}

// History is a SQLite log of searches and downloads.
type History struct {
	db  *sql.DB
	now func() time.Time
}

// OpenHistory opens (or creates) the history database at path.
// ":memory:" gives a private in-memory database.
func OpenHistory(path string) (*History, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("history: mkdir %s: %w", filepath.Dir(path), err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if err := initHistorySchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return &History{db: db, now: time.Now}, nil
}

func initHistorySchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS searches (
		id         TEXT PRIMARY KEY,
		query      TEXT NOT NULL,
		platforms  TEXT NOT NULL,
		total      INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS downloads (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		platform   TEXT NOT NULL,
		url        TEXT NOT NULL,
		path       TEXT,
		status     TEXT NOT NULL,
		error      TEXT,
		created_at TEXT NOT NULL
	)`)
	return err
}

// Close releases the database.
func (h *History) Close() error { return h.db.Close() }

// RecordSearch stores the outcome of one search. Platforms lists every platform
// that was asked, successful or not.
func (h *History) RecordSearch(ctx context.Context, out engine.VideoSearchOutput) error {
	names := make([]string, 0, len(out.Platforms))
	for _, st := range out.Platforms {
		names = append(names, string(st.Platform))
	}
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO searches (id, query, platforms, total, created_at) VALUES (?, ?, ?, ?, ?)`,
		out.SearchID, out.Query, strings.Join(names, ","), out.Total, h.stamp(),
	)
	if err != nil {
		return fmt.Errorf("history: insert search: %w", err)
	}
	return nil
}

// RecordDownload stores a download attempt; dlErr nil means success.
func (h *History) RecordDownload(ctx context.Context, p engine.Platform, videoURL, path string, dlErr error) error {
	status, msg := DownloadOK, ""
	if dlErr != nil {
		status, msg = DownloadFailed, dlErr.Error()
	}
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO downloads (platform, url, path, status, error, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		string(p), videoURL, path, status, msg, h.stamp(),
	)
	if err != nil {
		return fmt.Errorf("history: insert download: %w", err)
	}
	return nil
}

// ListSearches returns the most recent searches first.
func (h *History) ListSearches(ctx context.Context, limit int) ([]SearchEntry, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, query, platforms, total, created_at FROM searches
		 ORDER BY rowid DESC LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("history: list searches: %w", err)
	}
	defer rows.Close()

	var out []SearchEntry
	for rows.Next() {
		var e SearchEntry
		var platforms string
		if err := rows.Scan(&e.ID, &e.Query, &platforms, &e.Total, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan search: %w", err)
		}
		if platforms != "" {
			e.Platforms = strings.Split(platforms, ",")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListDownloads returns the most recent download attempts first.
func (h *History) ListDownloads(ctx context.Context, limit int) ([]DownloadEntry, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, platform, url, path, status, error, created_at FROM downloads
		 ORDER BY id DESC LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("history: list downloads: %w", err)
	}
	defer rows.Close()

	var out []DownloadEntry
	for rows.Next() {
		var e DownloadEntry
		var path, msg sql.NullString
		if err := rows.Scan(&e.ID, &e.Platform, &e.URL, &path, &e.Status, &msg, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan download: %w", err)
		}
		e.Path, e.Error = path.String, msg.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (h *History) stamp() string {
	return h.now().UTC().Format(time.RFC3339Nano)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}
