// Package profiles stores user profile documents in PostgreSQL.
package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/impacthands/internal/common"
	"github.com/dmitrijs2005/impacthands/internal/dbx"
	"github.com/dmitrijs2005/impacthands/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint hit.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	query := `
		SELECT user_id, full_name, COALESCE(username, ''), phone,
		       COALESCE(to_char(date_of_birth, 'YYYY-MM-DD'), ''), gender, avatar_url,
		       street, city, state, country, postal_code, bio,
		       skills, interests, profile_completed, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	p := &models.Profile{}
	var skills, interests []byte
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.FullName, &p.Username, &p.Phone,
		&p.DateOfBirth, &p.Gender, &p.AvatarURL,
		&p.Street, &p.City, &p.State, &p.Country, &p.PostalCode, &p.Bio,
		&skills, &interests, &p.ProfileCompleted, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if p.Skills, err = decodeList(skills); err != nil {
		return nil, fmt.Errorf("decode skills: %w", err)
	}
	if p.Interests, err = decodeList(interests); err != nil {
		return nil, fmt.Errorf("decode interests: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) CreateEmpty(ctx context.Context, userID string) error {
	query := `
		INSERT INTO profiles (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, userID string, patch models.ProfilePatch) error {
	if patch.IsEmpty() {
		return nil
	}

	query, args, err := buildUpdate(userID, patch)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.WithMessage(common.ErrorConflict, "username is already taken")
		}
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// buildUpdate renders the SET list for the supplied fields in a fixed column
// order, so equal patches always produce the same statement.
func buildUpdate(userID string, patch models.ProfilePatch) (string, []any, error) {
	var sets []string
	var args []any

	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if patch.FullName != nil {
		ph := next(*patch.FullName)
		sets = append(sets, "full_name = "+ph, "profile_completed = (profile_completed OR "+ph+" <> '')")
	}
	// expr wraps the placeholder; "%s" writes the value as is.
	for _, f := range []struct {
		col  string
		expr string
		v    *string
	}{
		{"username", "NULLIF(%s, '')", patch.Username},
		{"phone", "%s", patch.Phone},
		{"date_of_birth", "NULLIF(%s, '')::date", patch.DateOfBirth},
		{"gender", "%s", patch.Gender},
		{"avatar_url", "%s", patch.AvatarURL},
		{"street", "%s", patch.Street},
		{"city", "%s", patch.City},
		{"state", "%s", patch.State},
		{"country", "%s", patch.Country},
		{"postal_code", "%s", patch.PostalCode},
		{"bio", "%s", patch.Bio},
	} {
		if f.v != nil {
			sets = append(sets, f.col+" = "+fmt.Sprintf(f.expr, next(*f.v)))
		}
	}
	for _, f := range []struct {
		col string
		v   *[]string
	}{
		{"skills", patch.Skills},
		{"interests", patch.Interests},
	} {
		if f.v == nil {
			continue
		}
		b, err := encodeList(*f.v)
		if err != nil {
			return "", nil, fmt.Errorf("encode %s: %w", f.col, err)
		}
		sets = append(sets, f.col+" = "+next(b)+"::jsonb")
	}

	sets = append(sets, "updated_at = now()")
	query := "UPDATE profiles SET " + strings.Join(sets, ", ") + " WHERE user_id = " + next(userID)
	return query, args, nil
}

func encodeList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func decodeList(b []byte) ([]string, error) {
	out := []string{}
	if len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
