package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/impacthands/internal/dbx"
	"github.com/dmitrijs2005/impacthands/internal/server/repositories/enrollments"
	"github.com/dmitrijs2005/impacthands/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/impacthands/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/impacthands/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DB handle or transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Enrollments(db dbx.DBTX) enrollments.Repository
}
