package model

import (
	"errors"
	"fmt"
	"time"
)

type Frequency string

const (
	FrequencyWeekly  Frequency = "weekly"  // еженедельно
	FrequencyMonthly Frequency = "monthly" // ежемесячно
)

// ErrUnknownFrequency возвращается при попытке вычислить следующую дату
// для правила с нераспознанной периодичностью. Правило с такой ошибкой
// пропускается при обработке, иначе оно срабатывало бы бесконечно.
var ErrUnknownFrequency = errors.New("неизвестная периодичность")

// Valid проверяет, что периодичность известна
func (f Frequency) Valid() bool {
	return f == FrequencyWeekly || f == FrequencyMonthly
}

// RecurringRule - правило повторяющейся операции. При наступлении срока
// (next_due) правило порождает одну запись в журнале операций, после чего
// срок сдвигается ровно на один период вперед от прежнего next_due.
type RecurringRule struct {
	ID            int64           `json:"id" db:"id"`
	UserID        int64           `json:"user_id" db:"user_id"`
	Type          TransactionType `json:"type" db:"type"`
	Title         string          `json:"title" db:"title"`
	Amount        float64         `json:"amount" db:"amount"`
	Category      string          `json:"category" db:"category"`
	Frequency     Frequency       `json:"frequency" db:"frequency"`
	LastProcessed time.Time       `json:"last_processed" db:"last_processed"`
	NextDue       time.Time       `json:"next_due" db:"next_due"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

type CreateRecurringRequest struct {
	Type      TransactionType `json:"type" validate:"required,oneof=income expense"`
	Title     string          `json:"title" validate:"required"`
	Amount    float64         `json:"amount" validate:"required,gt=0"`
	Category  string          `json:"category" validate:"required"`
	Frequency Frequency       `json:"frequency" validate:"required,oneof=weekly monthly"`
}

func (r *CreateRecurringRequest) Validate() error {
	if r.Title == "" || r.Category == "" {
		return fmt.Errorf("название и категория обязательны")
	}
	if r.Amount <= 0 {
		return fmt.Errorf("сумма должна быть положительной")
	}
	if !r.Type.Valid() {
		return fmt.Errorf("неизвестный тип операции: %s", r.Type)
	}
	if !r.Frequency.Valid() {
		return fmt.Errorf("периодичность должна быть weekly или monthly")
	}
	return nil
}

// NextOccurrence вычисляет следующий срок правила от даты from.
// Недельный период - ровно 7 дней. Месячный период - плюс один календарный
// месяц; если в целевом месяце нет такого числа, берется последний день
// месяца (31 января -> 28/29 февраля).
func NextOccurrence(from time.Time, freq Frequency) (time.Time, error) {
	switch freq {
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7), nil
	case FrequencyMonthly:
		return addMonthClamped(from), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s", ErrUnknownFrequency, freq)
	}
}

// addMonthClamped прибавляет календарный месяц с прижатием числа к концу
// месяца. time.AddDate здесь не подходит: он нормализует 31 февраля
// в 2-3 марта.
func addMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	// Последний день целевого месяца: нулевой день следующего за ним
	lastDay := time.Date(year, month+2, 0, 0, 0, 0, 0, t.Location()).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month+1, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
