package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuvrajGora/FlowFund/internal/model"
	"github.com/YuvrajGora/FlowFund/internal/repository"
	"github.com/YuvrajGora/FlowFund/internal/storage"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newRecurringService(t *testing.T) (*RecurringService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := testLogger()
	backend := storage.NewSQLiteBackend(db, logger)
	svc := NewRecurringService(
		repository.NewRecurringRepository(backend, logger),
		repository.NewTransactionRepository(backend, logger),
		repository.NewUserRepository(backend, logger),
		&EmailSender{logger: logger},
		logger,
	)
	return svc, mock, db
}

var ruleColumns = []string{
	"id", "user_id", "type", "title", "amount", "category",
	"frequency", "last_processed", "next_due", "created_at",
}

const (
	dueRulesSQL    = `SELECT id, user_id, type, title, amount, category, frequency, last_processed, next_due, created_at FROM recurring_transactions WHERE user_id = \? AND next_due <= \?`
	advanceSQL     = `UPDATE recurring_transactions SET last_processed = \?, next_due = \? WHERE id = \? AND next_due = \?`
	insertTxSQL    = `INSERT INTO transactions \(user_id, title, amount, type, category, date\) VALUES \(\?, \?, \?, \?, \?, \?\)`
	dueUserIDsSQL  = `SELECT DISTINCT user_id FROM recurring_transactions WHERE next_due <= \?`
	insertRulesSQL = `INSERT INTO recurring_transactions`
)

// Правило: ежемесячная аренда со сроком 15 января, последний раз
// обработана 15 декабря
func monthlyRentRows(ruleID, userID int64) *sqlmock.Rows {
	return sqlmock.NewRows(ruleColumns).AddRow(
		ruleID, userID, "expense", "Аренда", 25000.0, "Жилье",
		"monthly", "2023-12-15T00:00:00Z", "2024-01-15T00:00:00Z", "2023-11-15T00:00:00Z",
	)
}

func TestProcessDueMaterializesRule(t *testing.T) {
	svc, mock, db := newRecurringService(t)
	defer db.Close()

	now := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(dueRulesSQL).
		WithArgs(int64(1), "2024-01-20T00:00:00Z").
		WillReturnRows(monthlyRentRows(3, 1))

	// Срок двигается от прежнего next_due: 15 января -> 15 февраля,
	// а не от даты обработки
	mock.ExpectExec(advanceSQL).
		WithArgs("2024-01-20T00:00:00Z", "2024-02-15T00:00:00Z", int64(3), "2024-01-15T00:00:00Z").
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Запись журнала датируется моментом фактической обработки
	mock.ExpectExec(insertTxSQL).
		WithArgs(int64(1), "Аренда", 25000.0, "expense", "Жилье", "2024-01-20T00:00:00Z").
		WillReturnResult(sqlmock.NewResult(10, 1))

	processed, err := svc.ProcessDue(context.Background(), 1, now)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Просроченное на несколько периодов правило дает одну запись за вызов,
// без дозаполнения пропущенных периодов
func TestProcessDueSingleIncrementPerCall(t *testing.T) {
	svc, mock, db := newRecurringService(t)
	defer db.Close()

	// Обработка спустя три месяца после срока
	now := time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(dueRulesSQL).
		WithArgs(int64(1), "2024-04-10T00:00:00Z").
		WillReturnRows(monthlyRentRows(3, 1))

	mock.ExpectExec(advanceSQL).
		WithArgs("2024-04-10T00:00:00Z", "2024-02-15T00:00:00Z", int64(3), "2024-01-15T00:00:00Z").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(insertTxSQL).
		WithArgs(int64(1), "Аренда", 25000.0, "expense", "Жилье", "2024-04-10T00:00:00Z").
		WillReturnResult(sqlmock.NewResult(10, 1))

	processed, err := svc.ProcessDue(context.Background(), 1, now)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Проигравший гонку вызов видит ноль затронутых строк при сдвиге срока
// и не добавляет запись в журнал
func TestProcessDueSkipsWhenAdvanceLost(t *testing.T) {
	svc, mock, db := newRecurringService(t)
	defer db.Close()

	now := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(dueRulesSQL).
		WithArgs(int64(1), "2024-01-20T00:00:00Z").
		WillReturnRows(monthlyRentRows(3, 1))

	mock.ExpectExec(advanceSQL).
		WithArgs("2024-01-20T00:00:00Z", "2024-02-15T00:00:00Z", int64(3), "2024-01-15T00:00:00Z").
		WillReturnResult(sqlmock.NewResult(0, 0))

	processed, err := svc.ProcessDue(context.Background(), 1, now)
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
	// INSERT в журнал не ожидался и не выполнялся
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Правило с нераспознанной периодичностью пропускается, остальная партия
// обрабатывается
func TestProcessDueSkipsDamagedRule(t *testing.T) {
	svc, mock, db := newRecurringService(t)
	defer db.Close()

	now := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(ruleColumns).
		AddRow(int64(1), int64(1), "expense", "Аренда", 25000.0, "Жилье",
			"monthly", "2023-12-15T00:00:00Z", "2024-01-15T00:00:00Z", "2023-11-15T00:00:00Z").
		AddRow(int64(2), int64(1), "income", "Кэшбэк", 500.0, "Банк",
			"daily", "2024-01-10T00:00:00Z", "2024-01-17T00:00:00Z", "2024-01-01T00:00:00Z").
		AddRow(int64(3), int64(1), "income", "Зарплата", 90000.0, "Работа",
			"weekly", "2024-01-12T00:00:00Z", "2024-01-19T00:00:00Z", "2023-10-01T00:00:00Z")

	mock.ExpectQuery(dueRulesSQL).
		WithArgs(int64(1), "2024-01-20T00:00:00Z").
		WillReturnRows(rows)

	mock.ExpectExec(advanceSQL).
		WithArgs("2024-01-20T00:00:00Z", "2024-02-15T00:00:00Z", int64(1), "2024-01-15T00:00:00Z").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertTxSQL).
		WithArgs(int64(1), "Аренда", 25000.0, "expense", "Жилье", "2024-01-20T00:00:00Z").
		WillReturnResult(sqlmock.NewResult(10, 1))

	// Правило 2 повреждено, срок не двигается и запись не создается.
	// Правило 3 обрабатывается следом.
	mock.ExpectExec(advanceSQL).
		WithArgs("2024-01-20T00:00:00Z", "2024-01-26T00:00:00Z", int64(3), "2024-01-19T00:00:00Z").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertTxSQL).
		WithArgs(int64(1), "Зарплата", 90000.0, "income", "Работа", "2024-01-20T00:00:00Z").
		WillReturnResult(sqlmock.NewResult(11, 1))

	processed, err := svc.ProcessDue(context.Background(), 1, now)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessDueFetchFailure(t *testing.T) {
	svc, mock, db := newRecurringService(t)
	defer db.Close()

	mock.ExpectQuery(dueRulesSQL).WillReturnError(fmt.Errorf("disk I/O error"))

	processed, err := svc.ProcessDue(context.Background(), 1, time.Now())
	require.Error(t, err)
	assert.Equal(t, 0, processed)
}

func TestProcessDueNothingDue(t *testing.T) {
	svc, mock, db := newRecurringService(t)
	defer db.Close()

	mock.ExpectQuery(dueRulesSQL).
		WithArgs(int64(1), "2024-01-20T00:00:00Z").
		WillReturnRows(sqlmock.NewRows(ruleColumns))

	processed, err := svc.ProcessDue(context.Background(), 1, time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Сбой записи в журнал после сдвига срока не валит вызов целиком
func TestProcessDueLedgerAppendFailure(t *testing.T) {
	svc, mock, db := newRecurringService(t)
	defer db.Close()

	now := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(dueRulesSQL).
		WithArgs(int64(1), "2024-01-20T00:00:00Z").
		WillReturnRows(monthlyRentRows(3, 1))

	mock.ExpectExec(advanceSQL).
		WithArgs("2024-01-20T00:00:00Z", "2024-02-15T00:00:00Z", int64(3), "2024-01-15T00:00:00Z").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(insertTxSQL).WillReturnError(fmt.Errorf("disk I/O error"))

	processed, err := svc.ProcessDue(context.Background(), 1, now)
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
}

func TestProcessDueForAllUsers(t *testing.T) {
	svc, mock, db := newRecurringService(t)
	defer db.Close()

	now := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(dueUserIDsSQL).
		WithArgs("2024-01-20T00:00:00Z").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(1)).AddRow(int64(2)))

	// Пользователь 1: одно наступившее правило
	mock.ExpectQuery(dueRulesSQL).
		WithArgs(int64(1), "2024-01-20T00:00:00Z").
		WillReturnRows(monthlyRentRows(3, 1))
	mock.ExpectExec(advanceSQL).
		WithArgs("2024-01-20T00:00:00Z", "2024-02-15T00:00:00Z", int64(3), "2024-01-15T00:00:00Z").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertTxSQL).
		WithArgs(int64(1), "Аренда", 25000.0, "expense", "Жилье", "2024-01-20T00:00:00Z").
		WillReturnResult(sqlmock.NewResult(10, 1))

	// Пользователь 2: к моменту обработки правил уже нет
	mock.ExpectQuery(dueRulesSQL).
		WithArgs(int64(2), "2024-01-20T00:00:00Z").
		WillReturnRows(sqlmock.NewRows(ruleColumns))

	total, err := svc.ProcessDueForAllUsers(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRuleRejectsInvalidRequest(t *testing.T) {
	svc, mock, db := newRecurringService(t)
	defer db.Close()

	_, err := svc.CreateRule(context.Background(), 1, model.CreateRecurringRequest{
		Type:      model.TransactionTypeExpense,
		Title:     "Аренда",
		Amount:    25000,
		Category:  "Жилье",
		Frequency: "daily",
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRuleSchedulesOnePeriodAhead(t *testing.T) {
	svc, mock, db := newRecurringService(t)
	defer db.Close()

	mock.ExpectExec(insertRulesSQL).
		WithArgs(int64(1), "income", "Зарплата", 90000.0, "Работа", "weekly",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(4, 1))

	before := time.Now()
	rule, err := svc.CreateRule(context.Background(), 1, model.CreateRecurringRequest{
		Type:      model.TransactionTypeIncome,
		Title:     "Зарплата",
		Amount:    90000,
		Category:  "Работа",
		Frequency: model.FrequencyWeekly,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(4), rule.ID)
	// Первый срок - неделя от момента создания
	assert.WithinDuration(t, before.AddDate(0, 0, 7), rule.NextDue, 5*time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}
