package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/YuvrajGora/FlowFund/internal/model"
	"github.com/YuvrajGora/FlowFund/internal/storage"
)

// ErrValidation - входные данные отклонены до обращения к базе
var ErrValidation = errors.New("некорректные данные")

// TransactionRepository - журнал операций. Журнал только пополняется:
// методов изменения и удаления записей здесь нет намеренно.
type TransactionRepository struct {
	db     storage.Backend
	logger *logrus.Logger
}

func NewTransactionRepository(db storage.Backend, logger *logrus.Logger) *TransactionRepository {
	return &TransactionRepository{db: db, logger: logger}
}

// Create добавляет запись в журнал и проставляет сгенерированный
// идентификатор. Проверки выполняются до запроса к базе.
func (r *TransactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	if tx.UserID <= 0 {
		return fmt.Errorf("%w: не указан владелец операции", ErrValidation)
	}
	if tx.Amount <= 0 {
		return fmt.Errorf("%w: сумма должна быть положительной", ErrValidation)
	}
	if !tx.Type.Valid() {
		return fmt.Errorf("%w: неизвестный тип операции %q", ErrValidation, tx.Type)
	}

	query := `
        INSERT INTO transactions (user_id, title, amount, type, category, date)
        VALUES (?, ?, ?, ?, ?, ?)
    `

	res, err := r.db.Exec(ctx, query,
		tx.UserID,
		tx.Title,
		tx.Amount,
		string(tx.Type),
		tx.Category,
		formatTime(tx.Date),
	)
	if err != nil {
		r.logger.WithError(err).Error("Ошибка при создании записи в журнале операций")
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	tx.ID = res.InsertedID
	return nil
}

// ListByUser возвращает операции пользователя, новые первыми
func (r *TransactionRepository) ListByUser(ctx context.Context, userID int64) ([]model.Transaction, error) {
	query := `
        SELECT id, user_id, title, amount, type, category, date
        FROM transactions
        WHERE user_id = ?
        ORDER BY id DESC
    `

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListByUserAndPeriod возвращает операции пользователя за период
func (r *TransactionRepository) ListByUserAndPeriod(ctx context.Context, userID int64, start, end time.Time) ([]model.Transaction, error) {
	query := `
        SELECT id, user_id, title, amount, type, category, date
        FROM transactions
        WHERE user_id = ? AND date >= ? AND date <= ?
        ORDER BY date
    `

	rows, err := r.db.Query(ctx, query, userID, formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions by period: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		var (
			tx      model.Transaction
			txType  string
			rawDate string
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Title, &tx.Amount, &txType, &tx.Category, &rawDate); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Type = model.TransactionType(txType)
		date, err := parseTime(rawDate)
		if err != nil {
			return nil, err
		}
		tx.Date = date
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return transactions, nil
}
