package model

import (
	"fmt"
	"time"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"  // доход
	TransactionTypeExpense TransactionType = "expense" // расход
)

// Valid проверяет, что тип операции известен
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction - запись в журнале операций. После создания запись
// не изменяется и не удаляется.
type Transaction struct {
	ID       int64           `json:"id" db:"id"`
	UserID   int64           `json:"user_id" db:"user_id"`
	Title    string          `json:"title" db:"title"`
	Amount   float64         `json:"amount" db:"amount"`
	Type     TransactionType `json:"type" db:"type"`
	Category string          `json:"category" db:"category"`
	Date     time.Time       `json:"date" db:"date"`
}

type CreateTransactionRequest struct {
	Title    string          `json:"title" validate:"required"`
	Amount   float64         `json:"amount" validate:"required,gt=0"`
	Type     TransactionType `json:"type" validate:"required,oneof=income expense"`
	Category string          `json:"category" validate:"required"`
	Date     *time.Time      `json:"date"`
}

func (r *CreateTransactionRequest) Validate() error {
	if r.Title == "" || r.Category == "" {
		return fmt.Errorf("название и категория обязательны")
	}
	if r.Amount <= 0 {
		return fmt.Errorf("сумма должна быть положительной")
	}
	if !r.Type.Valid() {
		return fmt.Errorf("неизвестный тип операции: %s", r.Type)
	}
	return nil
}
