package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"modernc.org/sqlite"

	"github.com/YuvrajGora/FlowFund/internal/config"
)

// Базовые коды ошибок SQLite (младший байт расширенного кода)
const (
	sqliteBusy       = 5
	sqliteLocked     = 6
	sqliteIOErr      = 10
	sqliteCantOpen   = 14
	sqliteConstraint = 19
)

// sqliteBackend реализует Backend поверх SQLite (modernc.org/sqlite,
// драйвер без cgo). Плейсхолдеры `?` - родной синтаксис SQLite, запросы
// уходят в движок без изменений.
type sqliteBackend struct {
	db     *sql.DB
	logger *logrus.Logger
}

func openSQLite(cfg *config.Config, logger *logrus.Logger) (Backend, error) {
	db, err := sql.Open("sqlite", cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Файл открыт, настраиваем режим работы
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logger.WithError(err).Warnf("Не удалось выполнить %s", pragma)
		}
	}

	logger.WithFields(logrus.Fields{
		"driver": config.DriverSQLite,
		"path":   cfg.SQLitePath,
	}).Info("Подключение к SQLite установлено")

	return NewSQLiteBackend(db, logger), nil
}

// NewSQLiteBackend оборачивает готовое подключение к SQLite
func NewSQLiteBackend(db *sql.DB, logger *logrus.Logger) Backend {
	return &sqliteBackend{db: db, logger: logger}
}

func (b *sqliteBackend) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, b.normalize(err)
	}
	return rows, nil
}

func (b *sqliteBackend) Get(ctx context.Context, query string, args ...interface{}) *Row {
	return &Row{
		row:       b.db.QueryRowContext(ctx, query, args...),
		normalize: b.normalize,
	}
}

// Exec выполняет модифицирующий запрос. SQLite отдает идентификатор
// вставленной строки через LastInsertId самого результата.
func (b *sqliteBackend) Exec(ctx context.Context, query string, args ...interface{}) (ExecResult, error) {
	res, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return ExecResult{}, b.normalize(err)
	}

	result := ExecResult{}
	if result.RowsAffected, err = res.RowsAffected(); err != nil {
		return ExecResult{}, b.normalize(err)
	}
	if isInsert(query) {
		if result.InsertedID, err = res.LastInsertId(); err != nil {
			return ExecResult{}, b.normalize(err)
		}
	}
	return result, nil
}

func (b *sqliteBackend) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(sqliteDialect) {
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ошибка создания схемы: %w", b.normalize(err))
		}
	}
	b.logger.Info("Схема базы данных SQLite готова")
	return nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}

// normalize приводит ошибку modernc.org/sqlite к обобщенному виду
func (b *sqliteBackend) normalize(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqliteConstraint:
			return fmt.Errorf("%w: %s", ErrConstraint, sqliteErr.Error())
		case sqliteBusy, sqliteLocked, sqliteIOErr, sqliteCantOpen:
			return fmt.Errorf("%w: %s", ErrUnavailable, sqliteErr.Error())
		}
		return fmt.Errorf("ошибка запроса: %s", sqliteErr.Error())
	}

	return fmt.Errorf("ошибка запроса: %v", err)
}
