package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"eps-citas/internal/ports/records"
)

// RecordsRepo guarda los documentos del backend demo como JSONB.
type RecordsRepo struct {
	db *sql.DB
}

func NewRecordsRepo(db *sql.DB) *RecordsRepo {
	return &RecordsRepo{db: db}
}

func (r *RecordsRepo) Create(ctx context.Context, collection string, rec records.Record) (records.Record, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO record_sequences (collection, last_id)
		VALUES ($1, 1)
		ON CONFLICT (collection) DO UPDATE
		SET last_id = record_sequences.last_id + 1
		RETURNING last_id
	`, collection).Scan(&id); err != nil {
		return nil, err
	}

	doc, err := records.Normalize(rec)
	if err != nil {
		return nil, err
	}
	doc["id"] = id

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO records (collection, id, doc) VALUES ($1, $2, $3)
	`, collection, id, b); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return records.Normalize(doc)
}

func (r *RecordsRepo) Update(ctx context.Context, collection string, id int64, patch records.Record) (records.Record, error) {
	p, err := records.Normalize(patch)
	if err != nil {
		return nil, err
	}
	delete(p, "id")
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = r.db.QueryRowContext(ctx, `
		UPDATE records
		SET doc = doc || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2
		RETURNING doc
	`, collection, id, b).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func (r *RecordsRepo) Get(ctx context.Context, collection string, id int64) (records.Record, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT doc FROM records WHERE collection = $1 AND id = $2
	`, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

func (r *RecordsRepo) List(ctx context.Context, collection string) ([]records.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT doc FROM records WHERE collection = $1 ORDER BY id ASC
	`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.Record, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		rec, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *RecordsRepo) Delete(ctx context.Context, collection string, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM records WHERE collection = $1 AND id = $2
	`, collection, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}

func decode(raw []byte) (records.Record, error) {
	out := records.Record{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
