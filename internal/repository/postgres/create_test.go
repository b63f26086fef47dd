package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkcare/care-api/internal/model"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

// The id column has no database default; every repository must mint the
// primary key before inserting.

func TestCreateAccountMintsID(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO accounts").WillReturnResult(sqlmock.NewResult(0, 1))

	user := &model.UserAccount{
		Email:    "pat@parkcare.local",
		FullName: "Pat",
		Role:     model.RolePatient,
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAssignmentMintsID(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO assignments").WillReturnResult(sqlmock.NewResult(0, 1))

	a := &model.Assignment{
		PatientID:   uuid.New(),
		CaretakerID: uuid.New(),
		Status:      model.AssignmentStatusActive,
	}
	require.NoError(t, NewAssignmentRepository(db).Create(context.Background(), a))

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInvitationMintsID(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO invitations").WillReturnResult(sqlmock.NewResult(0, 1))

	inv := &model.Invitation{
		Token:           "tok",
		Email:           "carer@parkcare.local",
		InvitedByUserID: uuid.New(),
		InvitedByRole:   model.RolePatient,
		Status:          model.InvitationStatusPending,
	}
	require.NoError(t, NewInvitationRepository(NewBaseRepository(db)).Create(context.Background(), inv))

	assert.NotEqual(t, uuid.Nil, inv.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInsightMintsID(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO insights").WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &model.InsightRecord{
		UserID:         uuid.New(),
		InsightType:    model.InsightTypeWeekly,
		DateRangeStart: time.Now().AddDate(0, 0, -6),
		DateRangeEnd:   time.Now(),
	}
	require.NoError(t, NewInsightRepository(db).Create(context.Background(), rec))

	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertCheckInMintsID(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("INSERT INTO checkins").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))

	c := &model.CheckIn{
		UserID:          uuid.New(),
		CheckInDate:     time.Now(),
		MedicationTaken: model.MedicationTaken,
	}
	_, err := NewCheckInRepository(db).Upsert(context.Background(), c)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
