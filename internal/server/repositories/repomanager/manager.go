package repomanager

import (
	"context"
	"database/sql"

	"github.com/okovalenko/mediadrop/internal/dbx"
	"github.com/okovalenko/mediadrop/internal/server/repositories/mediafiles"
	"github.com/okovalenko/mediadrop/internal/server/repositories/sessions"
	"github.com/okovalenko/mediadrop/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	MediaFiles(db dbx.DBTX) mediafiles.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
