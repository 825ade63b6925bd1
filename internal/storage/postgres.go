package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/YuvrajGora/FlowFund/internal/config"
)

// postgresBackend реализует Backend поверх PostgreSQL (lib/pq)
type postgresBackend struct {
	db     *sql.DB
	logger *logrus.Logger
}

func openPostgres(cfg *config.Config, logger *logrus.Logger) (Backend, error) {
	db, err := sql.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	// Проверка соединения с БД
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	logger.WithFields(logrus.Fields{
		"driver": config.DriverPostgres,
		"host":   cfg.DBHost,
		"dbname": cfg.DBName,
	}).Info("Подключение к PostgreSQL установлено")

	return NewPostgresBackend(db, logger), nil
}

// NewPostgresBackend оборачивает готовое подключение к PostgreSQL
func NewPostgresBackend(db *sql.DB, logger *logrus.Logger) Backend {
	return &postgresBackend{db: db, logger: logger}
}

func (b *postgresBackend) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	rows, err := b.db.QueryContext(ctx, rebindPostgres(query), args...)
	if err != nil {
		return nil, b.normalize(err)
	}
	return rows, nil
}

func (b *postgresBackend) Get(ctx context.Context, query string, args ...interface{}) *Row {
	return &Row{
		row:       b.db.QueryRowContext(ctx, rebindPostgres(query), args...),
		normalize: b.normalize,
	}
}

// Exec выполняет модифицирующий запрос. PostgreSQL не сообщает идентификатор
// вставленной строки в результате Exec, поэтому для INSERT запрос дополняется
// RETURNING id, а идентификатор читается из первой строки ответа.
func (b *postgresBackend) Exec(ctx context.Context, query string, args ...interface{}) (ExecResult, error) {
	rebound := rebindPostgres(query)

	if isInsert(query) {
		var id int64
		if err := b.db.QueryRowContext(ctx, rebound+" RETURNING id", args...).Scan(&id); err != nil {
			return ExecResult{}, b.normalize(err)
		}
		return ExecResult{InsertedID: id, RowsAffected: 1}, nil
	}

	res, err := b.db.ExecContext(ctx, rebound, args...)
	if err != nil {
		return ExecResult{}, b.normalize(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return ExecResult{}, b.normalize(err)
	}
	return ExecResult{RowsAffected: affected}, nil
}

func (b *postgresBackend) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(postgresDialect) {
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ошибка создания схемы: %w", b.normalize(err))
		}
	}
	b.logger.Info("Схема базы данных PostgreSQL готова")
	return nil
}

func (b *postgresBackend) Close() error {
	return b.db.Close()
}

// normalize приводит ошибку lib/pq к обобщенному виду
func (b *postgresBackend) normalize(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "23": // integrity_constraint_violation
			return fmt.Errorf("%w: %s (%s)", ErrConstraint, pqErr.Constraint, pqErr.Message)
		case "08", "53", "57": // connection_exception, insufficient_resources, operator_intervention
			return fmt.Errorf("%w: %s", ErrUnavailable, pqErr.Message)
		}
		// Остальное отдаем текстом, без типа драйвера
		return fmt.Errorf("ошибка запроса: %s", pqErr.Message)
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return fmt.Errorf("ошибка запроса: %v", err)
}

// rebindPostgres переводит позиционные плейсхолдеры `?` в нумерованные `$n`
func rebindPostgres(query string) string {
	if !strings.ContainsRune(query, '?') {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// isInsert определяет, что запрос - INSERT и ему нужен RETURNING id
func isInsert(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "INSERT")
}
