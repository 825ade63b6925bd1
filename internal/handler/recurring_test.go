package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuvrajGora/FlowFund/internal/repository"
	"github.com/YuvrajGora/FlowFund/internal/service"
	"github.com/YuvrajGora/FlowFund/internal/storage"
)

func newRecurringRouter(t *testing.T) (*mux.Router, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := testLogger()
	backend := storage.NewSQLiteBackend(db, logger)
	svc := service.NewRecurringService(
		repository.NewRecurringRepository(backend, logger),
		repository.NewTransactionRepository(backend, logger),
		repository.NewUserRepository(backend, logger),
		service.NewEmailSender(logger),
		logger,
	)

	router := mux.NewRouter()
	NewRecurringHandler(svc, logger).RegisterRoutes(router.PathPrefix("/api/recurring").Subrouter())
	return router, mock, func() { db.Close() }
}

func authorizedRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(context.WithValue(req.Context(), "userID", int64(1)))
}

func TestProcessEndpointReportsCount(t *testing.T) {
	router, mock, closeDB := newRecurringRouter(t)
	defer closeDB()

	ruleColumns := []string{
		"id", "user_id", "type", "title", "amount", "category",
		"frequency", "last_processed", "next_due", "created_at",
	}

	mock.ExpectQuery(`SELECT id, user_id, type, title, amount, category, frequency, last_processed, next_due, created_at FROM recurring_transactions WHERE user_id = \? AND next_due <= \?`).
		WillReturnRows(sqlmock.NewRows(ruleColumns).AddRow(
			int64(3), int64(1), "expense", "Аренда", 25000.0, "Жилье",
			"monthly", "2023-12-15T00:00:00Z", "2024-01-15T00:00:00Z", "2023-11-15T00:00:00Z",
		))
	mock.ExpectExec(`UPDATE recurring_transactions SET last_processed = \?, next_due = \?`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO transactions`).
		WillReturnResult(sqlmock.NewResult(10, 1))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authorizedRequest(http.MethodPost, "/api/recurring/process"))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp["processed_count"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessEndpointZeroIsSuccess(t *testing.T) {
	router, mock, closeDB := newRecurringRouter(t)
	defer closeDB()

	mock.ExpectQuery(`SELECT id, user_id, type, title`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "type", "title", "amount", "category",
			"frequency", "last_processed", "next_due", "created_at",
		}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authorizedRequest(http.MethodPost, "/api/recurring/process"))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 0, resp["processed_count"])
}

func TestDeleteEndpointUnknownRule(t *testing.T) {
	router, mock, closeDB := newRecurringRouter(t)
	defer closeDB()

	mock.ExpectExec(`DELETE FROM recurring_transactions WHERE id = \? AND user_id = \?`).
		WithArgs(int64(99), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authorizedRequest(http.MethodDelete, "/api/recurring/99"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListEndpointReturnsEmptyArray(t *testing.T) {
	router, mock, closeDB := newRecurringRouter(t)
	defer closeDB()

	mock.ExpectQuery(`SELECT id, user_id, type, title`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "type", "title", "amount", "category",
			"frequency", "last_processed", "next_due", "created_at",
		}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authorizedRequest(http.MethodGet, "/api/recurring"))

	require.Equal(t, http.StatusOK, rec.Code)
	// Пустой список сериализуется как [], а не null
	assert.Equal(t, "[]\n", rec.Body.String())
}
