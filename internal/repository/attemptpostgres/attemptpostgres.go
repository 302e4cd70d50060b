// Package attemptpostgres stores settled animation attempts in Postgres
package attemptpostgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/wb-go/wbf/dbpg"
)

type PostgresRepo struct {
	DB *dbpg.DB
}

func (p PostgresRepo) Create(ctx context.Context, a *model.Attempt) error {
	query := `INSERT INTO attempts (attempt_uid, session_uid, status, source_mime, source_size, result_mime, result_key, thumb_key, err_msg, started_at, settled_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := p.DB.Master.ExecContext(ctx, query, a.UID, a.SessionID, a.Status, a.SourceMime, a.SourceSize,
		a.ResultMime, a.ResultKey, a.ThumbnailKey, a.ErrMsg, a.StartedAt, a.SettledAt)
	return err
}

func (p PostgresRepo) Get(ctx context.Context, id string) (*model.Attempt, error) {
	query := `SELECT attempt_uid, session_uid, status, source_mime, source_size, result_mime, result_key, thumb_key, err_msg, started_at, settled_at
	FROM attempts
	WHERE attempt_uid = $1`
	var a model.Attempt

	err := p.DB.Master.QueryRowContext(ctx, query, id).Scan(&a.UID,
		&a.SessionID,
		&a.Status,
		&a.SourceMime,
		&a.SourceSize,
		&a.ResultMime,
		&a.ResultKey,
		&a.ThumbnailKey,
		&a.ErrMsg,
		&a.StartedAt,
		&a.SettledAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, model.ErrAttemptNotFound
		default:
			return nil, err // 500
		}
	}
	return &a, nil
}

// GetList - sort и order уже провалидированы в сервисе, поэтому их можно подставлять в запрос
func (p PostgresRepo) GetList(ctx context.Context, req *model.ListRequest) ([]model.Attempt, error) {
	query := fmt.Sprintf(`SELECT attempt_uid, session_uid, status, source_mime, source_size, result_mime, err_msg, started_at, settled_at
	FROM attempts
	ORDER BY %s %s
	LIMIT $1
	OFFSET $2`, req.Sort, req.Order)

	offset := (req.Page - 1) * req.Limit

	rows, err := p.DB.Master.QueryContext(ctx, query, req.Limit, offset)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	attempts := make([]model.Attempt, 0, req.Limit)
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.UID,
			&a.SessionID,
			&a.Status,
			&a.SourceMime,
			&a.SourceSize,
			&a.ResultMime,
			&a.ErrMsg,
			&a.StartedAt,
			&a.SettledAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return attempts, nil
}

func (p PostgresRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM attempts
	WHERE attempt_uid = $1`

	res, err := p.DB.Master.ExecContext(ctx, query, id)
	if err != nil {
		return err // 500
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrAttemptNotFound // 404
	}
	return nil
}
