// Package storage предоставляет единый контракт доступа к базе данных
// поверх двух взаимозаменяемых движков: PostgreSQL и SQLite.
//
// Запросы пишутся с позиционными плейсхолдерами `?`; активный бэкенд сам
// приводит их к своему синтаксису и нормализует получение идентификатора
// вставленной строки. Ошибки движка не покидают пакет в исходном виде:
// наружу уходят только обобщенные виды ошибок (ErrUnavailable,
// ErrConstraint) либо чистый текст.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/YuvrajGora/FlowFund/internal/config"
)

// Обобщенные виды ошибок хранилища. Репозитории и сервисы проверяют их
// через errors.Is, не зная, какой движок активен.
var (
	// ErrUnavailable - база данных недоступна, операцию безопасно повторить
	ErrUnavailable = errors.New("хранилище недоступно")
	// ErrConstraint - нарушение ограничения целостности (уникальность, внешний ключ)
	ErrConstraint = errors.New("нарушение ограничения целостности")
)

// ExecResult - нормализованный результат модифицирующего запроса.
// InsertedID заполняется только для INSERT; способ его получения зависит
// от бэкенда и скрыт за этим типом.
type ExecResult struct {
	InsertedID   int64
	RowsAffected int64
}

// Backend - единый контракт доступа к базе данных. Конкретная реализация
// выбирается один раз при старте процесса по конфигурации и владеет пулом
// соединений до завершения работы.
type Backend interface {
	// Query выполняет SELECT, возвращающий множество строк
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	// Get выполняет SELECT одной строки; отсутствие строки - sql.ErrNoRows при Scan
	Get(ctx context.Context, query string, args ...interface{}) *Row
	// Exec выполняет INSERT/UPDATE/DELETE
	Exec(ctx context.Context, query string, args ...interface{}) (ExecResult, error)
	// InitSchema создает таблицы и индексы, если их еще нет
	InitSchema(ctx context.Context) error
	Close() error
}

// Row оборачивает *sql.Row, чтобы нормализовать ошибку при Scan
type Row struct {
	row       *sql.Row
	normalize func(error) error
}

func (r *Row) Scan(dest ...interface{}) error {
	if err := r.row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return r.normalize(err)
	}
	return nil
}

// Open подключается к базе данных согласно конфигурации
func Open(cfg *config.Config, logger *logrus.Logger) (Backend, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return openPostgres(cfg, logger)
	case config.DriverSQLite:
		return openSQLite(cfg, logger)
	default:
		return nil, fmt.Errorf("неизвестный драйвер базы данных: %s", cfg.DBDriver)
	}
}
