package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/YuvrajGora/FlowFund/internal/model"
	"github.com/YuvrajGora/FlowFund/internal/repository"
)

type AnalyticService struct {
	transactionRepo *repository.TransactionRepository
	logger          *logrus.Logger
}

func NewAnalyticService(transactionRepo *repository.TransactionRepository, logger *logrus.Logger) *AnalyticService {
	return &AnalyticService{transactionRepo: transactionRepo, logger: logger}
}

// GetFinancialStats возвращает статистику по доходам/расходам за период
func (s *AnalyticService) GetFinancialStats(
	ctx context.Context,
	userID int64,
	startDate, endDate time.Time,
) (*model.FinancialStats, error) {
	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"start_date": startDate.Format("2006-01-02"),
		"end_date":   endDate.Format("2006-01-02"),
	}).Debug("Начало расчета финансовой статистики")

	// Валидация дат
	if startDate.After(endDate) {
		s.logger.Warn("Дата начала периода позже даты окончания")
		return nil, fmt.Errorf("дата начала не может быть позже даты окончания")
	}

	transactions, err := s.transactionRepo.ListByUserAndPeriod(ctx, userID, startDate, endDate)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения операций за период")
		return nil, fmt.Errorf("не удалось получить операции: %w", err)
	}

	s.logger.WithField("transaction_count", len(transactions)).Debug("Получены операции для анализа")

	stats := &model.FinancialStats{
		ByCategory: make(map[string]model.CategoryStats),
	}

	for _, tx := range transactions {
		categoryStats := stats.ByCategory[tx.Category]

		switch tx.Type {
		case model.TransactionTypeIncome:
			stats.TotalIncome += tx.Amount
			categoryStats.Income += tx.Amount
		case model.TransactionTypeExpense:
			stats.TotalExpenses += tx.Amount
			categoryStats.Expenses += tx.Amount
		}
		categoryStats.Count++

		stats.ByCategory[tx.Category] = categoryStats
	}

	stats.NetBalance = stats.TotalIncome - stats.TotalExpenses
	return stats, nil
}
