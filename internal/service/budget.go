package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/YuvrajGora/FlowFund/internal/model"
	"github.com/YuvrajGora/FlowFund/internal/repository"
)

// BudgetService - лимиты расходов по категориям
type BudgetService struct {
	budgetRepo      *repository.BudgetRepository
	transactionRepo *repository.TransactionRepository
	logger          *logrus.Logger
}

func NewBudgetService(
	budgetRepo *repository.BudgetRepository,
	transactionRepo *repository.TransactionRepository,
	logger *logrus.Logger,
) *BudgetService {
	return &BudgetService{
		budgetRepo:      budgetRepo,
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// List возвращает лимиты пользователя вместе с расходами текущего месяца
func (s *BudgetService) List(ctx context.Context, userID int64, now time.Time) ([]model.BudgetProgress, error) {
	budgets, err := s.budgetRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения бюджетов пользователя")
		return nil, fmt.Errorf("ошибка получения бюджетов: %w", err)
	}

	// Расходы считаются с начала текущего месяца
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	transactions, err := s.transactionRepo.ListByUserAndPeriod(ctx, userID, monthStart, now)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения операций за месяц")
		return nil, fmt.Errorf("ошибка получения операций: %w", err)
	}

	spentByCategory := make(map[string]float64)
	for _, tx := range transactions {
		if tx.Type == model.TransactionTypeExpense {
			spentByCategory[tx.Category] += tx.Amount
		}
	}

	progress := make([]model.BudgetProgress, 0, len(budgets))
	for _, budget := range budgets {
		spent := spentByCategory[budget.Category]
		percent := 0.0
		if budget.LimitAmount > 0 {
			percent = spent / budget.LimitAmount * 100
		}
		progress = append(progress, model.BudgetProgress{
			Budget:  budget,
			Spent:   spent,
			Percent: percent,
		})
	}

	return progress, nil
}

// Upsert создает лимит по категории или обновляет существующий
func (s *BudgetService) Upsert(ctx context.Context, userID int64, req model.UpsertBudgetRequest) (*model.Budget, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.budgetRepo.GetByCategory(ctx, userID, req.Category)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.WithError(err).Error("Ошибка поиска бюджета по категории")
		return nil, fmt.Errorf("ошибка поиска бюджета: %w", err)
	}

	if existing != nil {
		if err := s.budgetRepo.UpdateLimit(ctx, existing.ID, req.LimitAmount); err != nil {
			s.logger.WithError(err).Error("Не удалось обновить бюджет")
			return nil, fmt.Errorf("ошибка обновления бюджета: %w", err)
		}
		existing.LimitAmount = req.LimitAmount
		s.logger.WithField("budget_id", existing.ID).Info("Бюджет обновлен")
		return existing, nil
	}

	budget := &model.Budget{
		UserID:      userID,
		Category:    req.Category,
		LimitAmount: req.LimitAmount,
		CreatedAt:   time.Now(),
	}
	if err := s.budgetRepo.Create(ctx, budget); err != nil {
		s.logger.WithError(err).Error("Не удалось создать бюджет")
		return nil, fmt.Errorf("ошибка создания бюджета: %w", err)
	}

	s.logger.WithField("budget_id", budget.ID).Info("Бюджет создан")
	return budget, nil
}
