package model

import (
	"fmt"
	"time"
)

// Budget - месячный лимит расходов по категории
type Budget struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Category    string    `json:"category" db:"category"`
	LimitAmount float64   `json:"limit_amount" db:"limit_amount"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// BudgetProgress - лимит вместе с фактическими расходами по категории
type BudgetProgress struct {
	Budget
	Spent   float64 `json:"spent"`
	Percent float64 `json:"percent"`
}

type UpsertBudgetRequest struct {
	Category    string  `json:"category" validate:"required"`
	LimitAmount float64 `json:"limit_amount" validate:"required,gt=0"`
}

func (r *UpsertBudgetRequest) Validate() error {
	if r.Category == "" {
		return fmt.Errorf("категория обязательна")
	}
	if r.LimitAmount <= 0 {
		return fmt.Errorf("лимит должен быть положительным")
	}
	return nil
}
