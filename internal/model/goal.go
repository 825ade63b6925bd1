package model

import (
	"fmt"
	"time"
)

// Goal - накопительная цель пользователя
type Goal struct {
	ID            int64      `json:"id" db:"id"`
	UserID        int64      `json:"user_id" db:"user_id"`
	Name          string     `json:"name" db:"name"`
	TargetAmount  float64    `json:"target_amount" db:"target_amount"`
	CurrentAmount float64    `json:"current_amount" db:"current_amount"`
	Deadline      *time.Time `json:"deadline" db:"deadline"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

type CreateGoalRequest struct {
	Name          string     `json:"name" validate:"required"`
	TargetAmount  float64    `json:"target_amount" validate:"required,gt=0"`
	CurrentAmount float64    `json:"current_amount"`
	Deadline      *time.Time `json:"deadline"`
}

func (r *CreateGoalRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("название цели обязательно")
	}
	if r.TargetAmount <= 0 {
		return fmt.Errorf("целевая сумма должна быть положительной")
	}
	if r.CurrentAmount < 0 {
		return fmt.Errorf("накопленная сумма не может быть отрицательной")
	}
	return nil
}

type UpdateGoalProgressRequest struct {
	CurrentAmount float64 `json:"current_amount" validate:"gte=0"`
}

// GoalProjection - прогноз достижения цели с учетом ключевой ставки
type GoalProjection struct {
	GoalID          int64      `json:"goal_id"`
	Remaining       float64    `json:"remaining"`
	MonthlySaving   float64    `json:"monthly_saving"`
	KeyRate         float64    `json:"key_rate"`
	MonthsToTarget  int        `json:"months_to_target"`
	ProjectedFinish *time.Time `json:"projected_finish"`
}
