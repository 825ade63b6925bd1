package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/YuvrajGora/FlowFund/internal/model"
	"github.com/YuvrajGora/FlowFund/internal/storage"
)

// RecurringRepository - правила повторяющихся операций
type RecurringRepository struct {
	db     storage.Backend
	logger *logrus.Logger
}

func NewRecurringRepository(db storage.Backend, logger *logrus.Logger) *RecurringRepository {
	return &RecurringRepository{db: db, logger: logger}
}

func (r *RecurringRepository) Create(ctx context.Context, rule *model.RecurringRule) error {
	query := `
        INSERT INTO recurring_transactions (user_id, type, title, amount, category, frequency, last_processed, next_due, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	res, err := r.db.Exec(ctx, query,
		rule.UserID,
		string(rule.Type),
		rule.Title,
		rule.Amount,
		rule.Category,
		string(rule.Frequency),
		formatTime(rule.LastProcessed),
		formatTime(rule.NextDue),
		formatTime(rule.CreatedAt),
	)
	if err != nil {
		r.logger.WithError(err).Error("Ошибка при создании правила повторяющейся операции")
		return fmt.Errorf("failed to create recurring rule: %w", err)
	}

	rule.ID = res.InsertedID
	return nil
}

func (r *RecurringRepository) ListByUser(ctx context.Context, userID int64) ([]model.RecurringRule, error) {
	query := `
        SELECT id, user_id, type, title, amount, category, frequency, last_processed, next_due, created_at
        FROM recurring_transactions
        WHERE user_id = ?
        ORDER BY id
    `

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// DueRules возвращает правила пользователя, срок которых наступил.
// Правила других пользователей выборка не затрагивает.
func (r *RecurringRepository) DueRules(ctx context.Context, userID int64, asOf time.Time) ([]model.RecurringRule, error) {
	query := `
        SELECT id, user_id, type, title, amount, category, frequency, last_processed, next_due, created_at
        FROM recurring_transactions
        WHERE user_id = ? AND next_due <= ?
    `

	rows, err := r.db.Query(ctx, query, userID, formatTime(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to query due rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// Advance сдвигает срок правила условно: обновление проходит только если
// next_due в базе все еще равен прочитанному ранее prevNextDue. Ноль
// затронутых строк означает, что правило уже обработано параллельным
// вызовом либо удалено - это не ошибка, вызывающий просто пропускает
// правило.
func (r *RecurringRepository) Advance(ctx context.Context, ruleID int64, processedAt, newNextDue, prevNextDue time.Time) (bool, error) {
	query := `
        UPDATE recurring_transactions
        SET last_processed = ?, next_due = ?
        WHERE id = ? AND next_due = ?
    `

	res, err := r.db.Exec(ctx, query,
		formatTime(processedAt),
		formatTime(newNextDue),
		ruleID,
		formatTime(prevNextDue),
	)
	if err != nil {
		return false, fmt.Errorf("failed to advance recurring rule: %w", err)
	}

	return res.RowsAffected > 0, nil
}

// Delete удаляет правило пользователя
func (r *RecurringRepository) Delete(ctx context.Context, userID, ruleID int64) error {
	query := `DELETE FROM recurring_transactions WHERE id = ? AND user_id = ?`

	res, err := r.db.Exec(ctx, query, ruleID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete recurring rule: %w", err)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("правило не найдено")
	}
	return nil
}

// DueUserIDs возвращает пользователей, у которых есть наступившие правила.
// Используется фоновым планировщиком для обхода всех владельцев.
func (r *RecurringRepository) DueUserIDs(ctx context.Context, asOf time.Time) ([]int64, error) {
	query := `
        SELECT DISTINCT user_id
        FROM recurring_transactions
        WHERE next_due <= ?
    `

	rows, err := r.db.Query(ctx, query, formatTime(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to query due users: %w", err)
	}
	defer rows.Close()

	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read due users: %w", err)
	}
	return userIDs, nil
}

func scanRules(rows *sql.Rows) ([]model.RecurringRule, error) {
	var rules []model.RecurringRule
	for rows.Next() {
		var (
			rule          model.RecurringRule
			ruleType      string
			frequency     string
			lastProcessed string
			nextDue       string
			createdAt     string
		)
		if err := rows.Scan(
			&rule.ID,
			&rule.UserID,
			&ruleType,
			&rule.Title,
			&rule.Amount,
			&rule.Category,
			&frequency,
			&lastProcessed,
			&nextDue,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recurring rule: %w", err)
		}

		rule.Type = model.TransactionType(ruleType)
		rule.Frequency = model.Frequency(frequency)

		var err error
		if rule.LastProcessed, err = parseTime(lastProcessed); err != nil {
			return nil, err
		}
		if rule.NextDue, err = parseTime(nextDue); err != nil {
			return nil, err
		}
		if rule.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}

		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recurring rules: %w", err)
	}
	return rules, nil
}
