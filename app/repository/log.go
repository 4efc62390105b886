package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vibast-solutions/ms-go-mailqueue/app/entity"
)

type LogRepository struct {
	db *sql.DB
}

// NewLogRepository constructs a repository backed by MySQL.
func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Insert stores one telemetry record and returns its id.
func (r *LogRepository) Insert(ctx context.Context, record entity.LogRecord) (int64, error) {
	const query = `
		INSERT INTO logs (source, type, description, data, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		nullString(record.Source),
		nullString(record.Type),
		nullString(record.Description),
		nullString(record.Data),
		record.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert log: %w", err)
	}
	return res.LastInsertId()
}

// ListRecent returns the newest records for a source, or for every source when source is empty.
func (r *LogRepository) ListRecent(ctx context.Context, source string, limit int) ([]entity.LogRecord, error) {
	const query = `
		SELECT id, COALESCE(source, ''), COALESCE(type, ''), COALESCE(description, ''), COALESCE(data, ''), created_at
		FROM logs
		WHERE (? = '' OR source = ?)
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, source, source, limit)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	var out []entity.LogRecord
	for rows.Next() {
		var rec entity.LogRecord
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Type, &rec.Description, &rec.Data, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
