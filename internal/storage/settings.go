package storage

import (
	"context"
	"database/sql"
	"errors"
)

// SaveSetting stores value under key, replacing any previous value.
func (db *DB) SaveSetting(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return storageErr("save setting "+key, err)
	}
	return nil
}

// LoadSetting returns the stored value for key, or def when the key was never saved.
func (db *DB) LoadSetting(ctx context.Context, key, def string) (string, error) {
	var value string
	err := db.conn.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return def, nil
		}
		return "", storageErr("load setting "+key, err)
	}
	return value, nil
}
