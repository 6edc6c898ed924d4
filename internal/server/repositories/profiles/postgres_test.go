package profiles

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/impacthands/internal/common"
	"github.com/dmitrijs2005/impacthands/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func ptr[T any](v T) *T { return &v }

var profileCols = []string{
	"user_id", "full_name", "username", "phone", "date_of_birth", "gender", "avatar_url",
	"street", "city", "state", "country", "postal_code", "bio",
	"skills", "interests", "profile_completed", "updated_at",
}

const getQ = `(?s)^\s*SELECT\s+user_id,\s*full_name,.*FROM\s+profiles\s+WHERE\s+user_id\s*=\s*\$1\s*$`

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(getQ).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(profileCols).AddRow(
			"u1", "Jane Doe", "jane", "555", "1990-04-01", "female", "https://x/a",
			"1 Main St", "Springfield", "IL", "US", "62701", "hi",
			[]byte(`["Teaching","Cooking"]`), []byte(`[]`), true, time.Now(),
		))

	p, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", p.FullName)
	assert.Equal(t, "jane", p.Username)
	assert.Equal(t, "1990-04-01", p.DateOfBirth)
	assert.Equal(t, []string{"Teaching", "Cooking"}, p.Skills)
	assert.Equal(t, []string{}, p.Interests)
	assert.True(t, p.ProfileCompleted)
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(getQ).WithArgs("u1").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "u1")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet_BadSkillsJSON(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(getQ).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(profileCols).AddRow(
			"u1", "", "", "", "", "", "", "", "", "", "", "", "",
			[]byte(`{`), []byte(`[]`), false, time.Now(),
		))

	_, err := repo.Get(context.Background(), "u1")
	require.ErrorContains(t, err, "decode skills")
}

func TestCreateEmpty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+profiles\s*\(user_id\)\s*VALUES\s*\(\$1\)\s*ON\s+CONFLICT\s*\(user_id\)\s+DO\s+NOTHING\s*$`
	mock.ExpectExec(q).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.CreateEmpty(context.Background(), "u1"))

	mock.ExpectExec(q).WithArgs("u1").WillReturnError(errors.New("boom"))
	require.ErrorContains(t, repo.CreateEmpty(context.Background(), "u1"), "db error")
}

func TestUpdate_EmptyPatchIsNoop(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	require.NoError(t, repo.Update(context.Background(), "u1", models.ProfilePatch{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_AvatarOnly(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^UPDATE profiles SET avatar_url = \$1, updated_at = now\(\) WHERE user_id = \$2$`
	mock.ExpectExec(q).
		WithArgs("https://x/u1/avatar?t=1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "u1", models.ProfilePatch{AvatarURL: ptr("https://x/u1/avatar?t=1")})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_FullForm(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^UPDATE profiles SET full_name = \$1, profile_completed = \(profile_completed OR \$1 <> ''\), ` +
		`username = NULLIF\(\$2, ''\), phone = \$3, date_of_birth = NULLIF\(\$4, ''\)::date, bio = \$5, ` +
		`skills = \$6::jsonb, interests = \$7::jsonb, updated_at = now\(\) WHERE user_id = \$8$`
	mock.ExpectExec(q).
		WithArgs("Sam", "", "555", "", "bio", `["Teaching","Cooking","Construction"]`, `[]`, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "u1", models.ProfilePatch{
		FullName:    ptr("Sam"),
		Username:    ptr(""),
		Phone:       ptr("555"),
		DateOfBirth: ptr(""),
		Bio:         ptr("bio"),
		Skills:      ptr([]string{"Teaching", "Cooking", "Construction"}),
		Interests:   ptr([]string(nil)),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NoRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^UPDATE profiles SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "u1", models.ProfilePatch{Bio: ptr("x")})
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdate_UsernameTaken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^UPDATE profiles SET`).WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Update(context.Background(), "u1", models.ProfilePatch{Username: ptr("jane")})
	require.ErrorIs(t, err, common.ErrorConflict)
	assert.Regexp(t, regexp.MustCompile(`username is already taken`), err.Error())
}

func TestUpdate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^UPDATE profiles SET`).WillReturnError(errors.New("db down"))

	err := repo.Update(context.Background(), "u1", models.ProfilePatch{Bio: ptr("x")})
	require.ErrorContains(t, err, "db error: db down")
	assert.NotErrorIs(t, err, common.ErrorConflict)
}
