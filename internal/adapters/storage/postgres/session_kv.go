package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// SessionKV guarda las claves de sesión en la tabla device_storage.
// Pensado para terminales compartidas (p.ej. recepción) donde el "dispositivo" es un host.
type SessionKV struct {
	db     *sql.DB
	prefix string
}

// NewSessionKV usa prefix para aislar varias terminales sobre la misma tabla.
func NewSessionKV(db *sql.DB, prefix string) *SessionKV {
	return &SessionKV{db: db, prefix: strings.TrimSpace(prefix)}
}

func (s *SessionKV) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

func (s *SessionKV) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM device_storage WHERE key = $1
	`, s.key(key)).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *SessionKV) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_storage (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now()
	`, s.key(key), value)
	return err
}

func (s *SessionKV) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM device_storage WHERE key = $1
	`, s.key(key))
	return err
}
