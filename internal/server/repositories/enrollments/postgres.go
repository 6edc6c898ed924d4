// Package enrollments stores event, gig and opportunity sign-ups.
package enrollments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/impacthands/internal/dbx"
	"github.com/dmitrijs2005/impacthands/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error) {
	details := e.Details
	if details == nil {
		details = map[string]string{}
	}
	b, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("encode details: %w", err)
	}

	query := `
		INSERT INTO enrollments (user_id, kind, target_id, target_title, full_name, email, phone, message, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)
		RETURNING id, created_at
	`
	err = r.db.QueryRowContext(ctx, query,
		e.UserID, e.Kind, e.TargetID, e.TargetTitle, e.FullName, e.Email, e.Phone, e.Message, string(b),
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Enrollment, error) {
	query := `
		SELECT id, user_id, kind, target_id, target_title, full_name, email, phone, message, details, created_at
		FROM enrollments
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Enrollment, 0)
	for rows.Next() {
		e := &models.Enrollment{}
		var details []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.Kind, &e.TargetID, &e.TargetTitle,
			&e.FullName, &e.Email, &e.Phone, &e.Message, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("decode details: %w", err)
			}
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
