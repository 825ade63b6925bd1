package repository

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuvrajGora/FlowFund/internal/model"
	"github.com/YuvrajGora/FlowFund/internal/storage"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestBackend(t *testing.T) (storage.Backend, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return storage.NewSQLiteBackend(db, testLogger()), mock, db
}

var ruleColumns = []string{
	"id", "user_id", "type", "title", "amount", "category",
	"frequency", "last_processed", "next_due", "created_at",
}

func TestRecurringCreateSetsID(t *testing.T) {
	backend, mock, db := newTestBackend(t)
	defer db.Close()
	repo := NewRecurringRepository(backend, testLogger())

	rule := &model.RecurringRule{
		UserID:        1,
		Type:          model.TransactionTypeExpense,
		Title:         "Аренда",
		Amount:        25000,
		Category:      "Жилье",
		Frequency:     model.FrequencyMonthly,
		LastProcessed: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		NextDue:       time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC),
		CreatedAt:     time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(`INSERT INTO recurring_transactions`).
		WithArgs(
			int64(1), "expense", "Аренда", 25000.0, "Жилье", "monthly",
			"2024-01-15T00:00:00Z", "2024-02-15T00:00:00Z", "2024-01-15T00:00:00Z",
		).
		WillReturnResult(sqlmock.NewResult(5, 1))

	require.NoError(t, repo.Create(context.Background(), rule))
	assert.Equal(t, int64(5), rule.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Выборка наступивших правил ограничена владельцем и сроком
func TestDueRulesScopedToUserAndDate(t *testing.T) {
	backend, mock, db := newTestBackend(t)
	defer db.Close()
	repo := NewRecurringRepository(backend, testLogger())

	asOf := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, user_id, type, title, amount, category, frequency, last_processed, next_due, created_at FROM recurring_transactions WHERE user_id = \? AND next_due <= \?`).
		WithArgs(int64(1), "2024-01-20T00:00:00Z").
		WillReturnRows(sqlmock.NewRows(ruleColumns).AddRow(
			int64(3), int64(1), "expense", "Аренда", 25000.0, "Жилье",
			"monthly", "2023-12-15T00:00:00Z", "2024-01-15T00:00:00Z", "2023-11-15T00:00:00Z",
		))

	rules, err := repo.DueRules(context.Background(), 1, asOf)
	require.NoError(t, err)
	require.Len(t, rules, 1)

	rule := rules[0]
	assert.Equal(t, int64(3), rule.ID)
	assert.Equal(t, model.FrequencyMonthly, rule.Frequency)
	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), rule.NextDue)
	assert.Equal(t, time.Date(2023, time.December, 15, 0, 0, 0, 0, time.UTC), rule.LastProcessed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvanceConditional(t *testing.T) {
	processedAt := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)
	newNextDue := time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC)
	prevNextDue := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	t.Run("срок сдвинут", func(t *testing.T) {
		backend, mock, db := newTestBackend(t)
		defer db.Close()
		repo := NewRecurringRepository(backend, testLogger())

		mock.ExpectExec(`UPDATE recurring_transactions SET last_processed = \?, next_due = \? WHERE id = \? AND next_due = \?`).
			WithArgs("2024-01-20T00:00:00Z", "2024-02-15T00:00:00Z", int64(3), "2024-01-15T00:00:00Z").
			WillReturnResult(sqlmock.NewResult(0, 1))

		advanced, err := repo.Advance(context.Background(), 3, processedAt, newNextDue, prevNextDue)
		require.NoError(t, err)
		assert.True(t, advanced)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("срок уже сдвинут другим вызовом", func(t *testing.T) {
		backend, mock, db := newTestBackend(t)
		defer db.Close()
		repo := NewRecurringRepository(backend, testLogger())

		// next_due в базе изменился с момента выборки - ноль затронутых строк
		mock.ExpectExec(`UPDATE recurring_transactions`).
			WithArgs("2024-01-20T00:00:00Z", "2024-02-15T00:00:00Z", int64(3), "2024-01-15T00:00:00Z").
			WillReturnResult(sqlmock.NewResult(0, 0))

		advanced, err := repo.Advance(context.Background(), 3, processedAt, newNextDue, prevNextDue)
		require.NoError(t, err)
		assert.False(t, advanced)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteScopedToUser(t *testing.T) {
	backend, mock, db := newTestBackend(t)
	defer db.Close()
	repo := NewRecurringRepository(backend, testLogger())

	mock.ExpectExec(`DELETE FROM recurring_transactions WHERE id = \? AND user_id = \?`).
		WithArgs(int64(3), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 1, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteNotFound(t *testing.T) {
	backend, mock, db := newTestBackend(t)
	defer db.Close()
	repo := NewRecurringRepository(backend, testLogger())

	// Чужое либо несуществующее правило: ноль строк - ошибка
	mock.ExpectExec(`DELETE FROM recurring_transactions`).
		WithArgs(int64(3), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 2, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "не найдено")
}

func TestDueUserIDs(t *testing.T) {
	backend, mock, db := newTestBackend(t)
	defer db.Close()
	repo := NewRecurringRepository(backend, testLogger())

	mock.ExpectQuery(`SELECT DISTINCT user_id FROM recurring_transactions WHERE next_due <= \?`).
		WithArgs("2024-01-20T00:00:00Z").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(1)).AddRow(int64(4)))

	userIDs, err := repo.DueUserIDs(context.Background(), time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, userIDs)
}
