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

type GoalRepository struct {
	db     storage.Backend
	logger *logrus.Logger
}

func NewGoalRepository(db storage.Backend, logger *logrus.Logger) *GoalRepository {
	return &GoalRepository{db: db, logger: logger}
}

func (r *GoalRepository) Create(ctx context.Context, goal *model.Goal) error {
	var deadline interface{}
	if goal.Deadline != nil {
		deadline = formatTime(*goal.Deadline)
	}

	query := `
        INSERT INTO goals (user_id, name, target_amount, current_amount, deadline, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `

	res, err := r.db.Exec(ctx, query,
		goal.UserID,
		goal.Name,
		goal.TargetAmount,
		goal.CurrentAmount,
		deadline,
		formatTime(goal.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}

	goal.ID = res.InsertedID
	return nil
}

func (r *GoalRepository) ListByUser(ctx context.Context, userID int64) ([]model.Goal, error) {
	query := `
        SELECT id, user_id, name, target_amount, current_amount, deadline, created_at
        FROM goals
        WHERE user_id = ?
        ORDER BY id
    `

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		goal, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read goals: %w", err)
	}
	return goals, nil
}

func (r *GoalRepository) GetByID(ctx context.Context, userID, goalID int64) (*model.Goal, error) {
	query := `
        SELECT id, user_id, name, target_amount, current_amount, deadline, created_at
        FROM goals
        WHERE id = ? AND user_id = ?
    `

	goal, err := scanGoal(r.db.Get(ctx, query, goalID, userID).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("цель не найдена")
		}
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return goal, nil
}

// UpdateProgress обновляет накопленную сумму цели пользователя
func (r *GoalRepository) UpdateProgress(ctx context.Context, userID, goalID int64, currentAmount float64) error {
	query := `UPDATE goals SET current_amount = ? WHERE id = ? AND user_id = ?`

	res, err := r.db.Exec(ctx, query, currentAmount, goalID, userID)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("цель не найдена")
	}
	return nil
}

func scanGoal(scan func(dest ...interface{}) error) (*model.Goal, error) {
	var (
		goal      model.Goal
		deadline  sql.NullString
		createdAt string
	)
	if err := scan(&goal.ID, &goal.UserID, &goal.Name, &goal.TargetAmount, &goal.CurrentAmount, &deadline, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan goal: %w", err)
	}

	if deadline.Valid {
		parsed, err := parseTime(deadline.String)
		if err != nil {
			return nil, err
		}
		goal.Deadline = &parsed
	}

	var err error
	if goal.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &goal, nil
}
