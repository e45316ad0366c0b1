package services

import (
	"database/sql"
	"testing"

	"qqueue-app/qqueue/testutils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGetUserByIdQueryError(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnError(sql.ErrConnDone)

	svc := NewUserService(testutils.NewMockAuthService())
	_, err := svc.GetUserById(db, uuid.New().String())
	assert.ErrorIs(t, err, sql.ErrConnDone)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByIdNotFoundMapping(t *testing.T) {
	db, mock, close := testutils.SetupMockDB()
	defer close()

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username"}))

	svc := NewUserService(testutils.NewMockAuthService())
	_, err := svc.GetUserById(db, uuid.New().String())
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
