package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/okovalenko/mediadrop/internal/common"
	"github.com/okovalenko/mediadrop/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*password_hash,\s*role\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(42))
	mock.ExpectQuery(insertQ).
		WithArgs("alice", "hash", "admin").
		WillReturnRows(rows)

	u := &models.User{Username: "alice", PasswordHash: "hash", Role: "admin"}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 42 || got.Username != "alice" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreate_DuplicateUsername(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("alice", "hash", "user").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	_, err := repo.Create(context.Background(), &models.User{Username: "alice", PasswordHash: "hash", Role: "user"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("expected ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("alice", "hash", "user").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Username: "alice", PasswordHash: "hash", Role: "user"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

const selectQ = `(?s)^SELECT\s+id,\s*username,\s*password_hash,\s*role\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`

func TestGetByUsername_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "role"}).
		AddRow(int64(1), "alice", "hash", "admin")
	mock.ExpectQuery(selectQ).
		WithArgs("alice").
		WillReturnRows(rows)

	got, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername error: %v", err)
	}
	if got.ID != 1 || got.Role != "admin" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByUsername_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQ).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

const updateQ = `(?s)^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$1\s+WHERE\s+username\s*=\s*\$2\s*$`

func TestUpdatePasswordHash_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(updateQ).
		WithArgs("newhash", "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePasswordHash(context.Background(), "alice", "newhash"); err != nil {
		t.Fatalf("UpdatePasswordHash error: %v", err)
	}
}

func TestUpdatePasswordHash_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(updateQ).
		WithArgs("newhash", "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePasswordHash(context.Background(), "ghost", "newhash")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}
