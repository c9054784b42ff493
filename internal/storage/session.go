package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vidyasagar/tabroll/internal/history"
	"github.com/vidyasagar/tabroll/internal/host"
)

// SessionStore saves and restores the workspace layout: which windows are
// open and which tabs they hold. Tab history is never written here.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a session store using the given database.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db.Conn()}
}

// Save replaces the stored layout with windows.
func (ss *SessionStore) Save(ctx context.Context, windows []host.Window) error {
	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting session save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tabs`); err != nil {
		return fmt.Errorf("clearing tabs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM windows`); err != nil {
		return fmt.Errorf("clearing windows: %w", err)
	}

	for wpos, w := range windows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO windows (id, type, position, focused) VALUES (?, ?, ?, ?)`,
			int(w.ID), string(w.Type), wpos, boolInt(w.Focused),
		); err != nil {
			return fmt.Errorf("saving window %d: %w", w.ID, err)
		}
		for tpos, t := range w.Tabs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO tabs (id, window_id, position, title, url, active) VALUES (?, ?, ?, ?, ?, ?)`,
				int(t.ID), int(w.ID), tpos, t.Title, t.URL, boolInt(t.Active),
			); err != nil {
				return fmt.Errorf("saving tab %d: %w", t.ID, err)
			}
		}
	}

	return tx.Commit()
}

// Load returns the stored layout in window order. An empty database yields
// no windows.
func (ss *SessionStore) Load(ctx context.Context) ([]host.Window, error) {
	rows, err := ss.db.QueryContext(ctx,
		`SELECT id, type, focused FROM windows ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("loading windows: %w", err)
	}
	defer rows.Close()

	var windows []host.Window
	index := make(map[history.WindowID]int)
	for rows.Next() {
		var (
			id      int
			typ     string
			focused int
		)
		if err := rows.Scan(&id, &typ, &focused); err != nil {
			return nil, fmt.Errorf("scanning window: %w", err)
		}
		index[history.WindowID(id)] = len(windows)
		windows = append(windows, host.Window{
			ID:      history.WindowID(id),
			Type:    host.WindowType(typ),
			Focused: focused != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tabRows, err := ss.db.QueryContext(ctx,
		`SELECT id, window_id, title, url, active FROM tabs ORDER BY window_id, position`,
	)
	if err != nil {
		return nil, fmt.Errorf("loading tabs: %w", err)
	}
	defer tabRows.Close()

	for tabRows.Next() {
		var (
			id, windowID, active int
			title, url           string
		)
		if err := tabRows.Scan(&id, &windowID, &title, &url, &active); err != nil {
			return nil, fmt.Errorf("scanning tab: %w", err)
		}
		i, ok := index[history.WindowID(windowID)]
		if !ok {
			continue
		}
		windows[i].Tabs = append(windows[i].Tabs, host.Tab{
			ID:     history.TabID(id),
			Title:  title,
			URL:    url,
			Active: active != 0,
		})
	}
	return windows, tabRows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
