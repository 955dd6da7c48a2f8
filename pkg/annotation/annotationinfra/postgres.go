// Package annotationinfra provides the storage adapters behind the
// annotation ports: Postgres for records, S3 for payloads and page files,
// Redis for draft caching.
package annotationinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/saiteja-tally/taggo/pkg/annotation"
	"github.com/saiteja-tally/taggo/pkg/errx"
	"github.com/saiteja-tally/taggo/pkg/workflow"
)

// PostgresRecordRepository is the Postgres implementation of
// annotation.RecordRepository.
type PostgresRecordRepository struct {
	db *sqlx.DB
}

// NewPostgresRecordRepository creates the repository.
func NewPostgresRecordRepository(db *sqlx.DB) annotation.RecordRepository {
	return &PostgresRecordRepository{db: db}
}

func (r *PostgresRecordRepository) Get(ctx context.Context, id string) (*annotation.Record, error) {
	query := `
		SELECT id, status, assigned_user, history, inserted_time, file_key
		FROM annotation_records
		WHERE id = $1`

	var rec annotation.Record
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, annotation.RecordNotFound(id)
		}
		return nil, errx.Wrap(err, "failed to load annotation record", errx.TypeInternal).
			WithDetail("record_id", id)
	}
	return &rec, nil
}

func (r *PostgresRecordRepository) Create(ctx context.Context, rec *annotation.Record) error {
	query := `
		INSERT INTO annotation_records (
			id, status, assigned_user, history, inserted_time, file_key
		) VALUES (
			:id, :status, :assigned_user, :history, :inserted_time, :file_key
		)`

	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return errx.Wrap(err, "failed to create annotation record", errx.TypeInternal).
			WithDetail("record_id", rec.ID)
	}
	return nil
}

func (r *PostgresRecordRepository) UpdateStatus(ctx context.Context, id string, status workflow.Status, history annotation.History) error {
	query := `
		UPDATE annotation_records
		SET status = $2, history = $3
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status.String(), history)
	if err != nil {
		return errx.Wrap(err, "failed to update annotation record status", errx.TypeInternal).
			WithDetail("record_id", id)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on status update", errx.TypeInternal)
	}
	if affected == 0 {
		return annotation.RecordNotFound(id)
	}
	return nil
}

func (r *PostgresRecordRepository) Assign(ctx context.Context, id string, user *string) error {
	query := `
		UPDATE annotation_records
		SET assigned_user = $2
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, user)
	if err != nil {
		return errx.Wrap(err, "failed to assign annotation record", errx.TypeInternal).
			WithDetail("record_id", id)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on assign", errx.TypeInternal)
	}
	if affected == 0 {
		return annotation.RecordNotFound(id)
	}
	return nil
}

func (r *PostgresRecordRepository) Next(ctx context.Context, after *annotation.Record, assignee *string) (*annotation.Record, error) {
	query := `
		SELECT id, status, assigned_user, history, inserted_time, file_key
		FROM annotation_records
		WHERE (inserted_time, id) > ($1, $2)
		  AND ($3::text IS NULL OR assigned_user = $3)
		ORDER BY inserted_time ASC, id ASC
		LIMIT 1`
	return r.neighbour(ctx, query, after, assignee)
}

func (r *PostgresRecordRepository) Prev(ctx context.Context, before *annotation.Record, assignee *string) (*annotation.Record, error) {
	query := `
		SELECT id, status, assigned_user, history, inserted_time, file_key
		FROM annotation_records
		WHERE (inserted_time, id) < ($1, $2)
		  AND ($3::text IS NULL OR assigned_user = $3)
		ORDER BY inserted_time DESC, id DESC
		LIMIT 1`
	return r.neighbour(ctx, query, before, assignee)
}

func (r *PostgresRecordRepository) neighbour(ctx context.Context, query string, from *annotation.Record, assignee *string) (*annotation.Record, error) {
	var rec annotation.Record
	err := r.db.GetContext(ctx, &rec, query, from.InsertedTime, from.ID, assignee)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errx.Wrap(err, "failed to walk annotation queue", errx.TypeInternal).
			WithDetail("from", from.ID)
	}
	return &rec, nil
}
