package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/YuvrajGora/FlowFund/internal/model"
	"github.com/YuvrajGora/FlowFund/internal/storage"
)

type BudgetRepository struct {
	db     storage.Backend
	logger *logrus.Logger
}

func NewBudgetRepository(db storage.Backend, logger *logrus.Logger) *BudgetRepository {
	return &BudgetRepository{db: db, logger: logger}
}

func (r *BudgetRepository) ListByUser(ctx context.Context, userID int64) ([]model.Budget, error) {
	query := `
        SELECT id, user_id, category, limit_amount, created_at
        FROM budgets
        WHERE user_id = ?
        ORDER BY category
    `

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	var budgets []model.Budget
	for rows.Next() {
		budget, err := scanBudget(rows.Scan)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, *budget)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read budgets: %w", err)
	}
	return budgets, nil
}

// GetByCategory возвращает лимит пользователя по категории; sql.ErrNoRows,
// если лимит еще не задан
func (r *BudgetRepository) GetByCategory(ctx context.Context, userID int64, category string) (*model.Budget, error) {
	query := `
        SELECT id, user_id, category, limit_amount, created_at
        FROM budgets
        WHERE user_id = ? AND category = ?
    `

	budget, err := scanBudget(r.db.Get(ctx, query, userID, category).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	return budget, nil
}

func (r *BudgetRepository) Create(ctx context.Context, budget *model.Budget) error {
	query := `
        INSERT INTO budgets (user_id, category, limit_amount, created_at)
        VALUES (?, ?, ?, ?)
    `

	res, err := r.db.Exec(ctx, query,
		budget.UserID,
		budget.Category,
		budget.LimitAmount,
		formatTime(budget.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}

	budget.ID = res.InsertedID
	return nil
}

func (r *BudgetRepository) UpdateLimit(ctx context.Context, budgetID int64, limitAmount float64) error {
	query := `UPDATE budgets SET limit_amount = ? WHERE id = ?`

	if _, err := r.db.Exec(ctx, query, limitAmount, budgetID); err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	return nil
}

func scanBudget(scan func(dest ...interface{}) error) (*model.Budget, error) {
	var (
		budget    model.Budget
		createdAt string
	)
	if err := scan(&budget.ID, &budget.UserID, &budget.Category, &budget.LimitAmount, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan budget: %w", err)
	}

	var err error
	if budget.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &budget, nil
}
