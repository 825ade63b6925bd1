package model

import "time"

// AnalyticsRequest - запрос на получение аналитики за период
type AnalyticsRequest struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// FinancialStats - статистика по доходам/расходам
type FinancialStats struct {
	TotalIncome   float64                  `json:"total_income"`
	TotalExpenses float64                  `json:"total_expenses"`
	NetBalance    float64                  `json:"net_balance"`
	ByCategory    map[string]CategoryStats `json:"by_category"`
}

// CategoryStats - статистика по категориям
type CategoryStats struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Count    int     `json:"count"`
}
