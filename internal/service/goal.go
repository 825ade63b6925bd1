package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/YuvrajGora/FlowFund/internal/model"
	"github.com/YuvrajGora/FlowFund/internal/repository"
)

// Горизонт прогноза накоплений, дальше считать бессмысленно
const maxProjectionMonths = 600

// Ставка по умолчанию, если ЦБ недоступен
const defaultKeyRate = 16.0

// GoalService - накопительные цели пользователя
type GoalService struct {
	goalRepo        *repository.GoalRepository
	transactionRepo *repository.TransactionRepository
	cbrClient       *CBRClient
	logger          *logrus.Logger
}

func NewGoalService(
	goalRepo *repository.GoalRepository,
	transactionRepo *repository.TransactionRepository,
	cbrClient *CBRClient,
	logger *logrus.Logger,
) *GoalService {
	return &GoalService{
		goalRepo:        goalRepo,
		transactionRepo: transactionRepo,
		cbrClient:       cbrClient,
		logger:          logger,
	}
}

func (s *GoalService) List(ctx context.Context, userID int64) ([]model.Goal, error) {
	goals, err := s.goalRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения целей пользователя")
		return nil, fmt.Errorf("ошибка получения целей: %w", err)
	}
	return goals, nil
}

func (s *GoalService) Create(ctx context.Context, userID int64, req model.CreateGoalRequest) (*model.Goal, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	goal := &model.Goal{
		UserID:        userID,
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		Deadline:      req.Deadline,
		CreatedAt:     time.Now(),
	}

	if err := s.goalRepo.Create(ctx, goal); err != nil {
		s.logger.WithError(err).Error("Не удалось создать цель")
		return nil, fmt.Errorf("ошибка создания цели: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"goal_id": goal.ID,
		"user_id": userID,
	}).Info("Цель создана")
	return goal, nil
}

func (s *GoalService) UpdateProgress(ctx context.Context, userID, goalID int64, currentAmount float64) error {
	if currentAmount < 0 {
		return fmt.Errorf("накопленная сумма не может быть отрицательной")
	}

	if err := s.goalRepo.UpdateProgress(ctx, userID, goalID, currentAmount); err != nil {
		s.logger.WithError(err).Errorf("Не удалось обновить цель %d", goalID)
		return err
	}

	s.logger.WithField("goal_id", goalID).Info("Прогресс цели обновлен")
	return nil
}

// Projection оценивает срок достижения цели. Ежемесячное пополнение
// берется как средний чистый доход за последние три месяца, на остаток
// начисляется ключевая ставка ЦБ как на вклад.
func (s *GoalService) Projection(ctx context.Context, userID, goalID int64, now time.Time) (*model.GoalProjection, error) {
	goal, err := s.goalRepo.GetByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	remaining := goal.TargetAmount - goal.CurrentAmount
	if remaining <= 0 {
		finish := now
		return &model.GoalProjection{
			GoalID:          goal.ID,
			Remaining:       0,
			MonthsToTarget:  0,
			ProjectedFinish: &finish,
		}, nil
	}

	monthlySaving, err := s.averageMonthlySaving(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if monthlySaving <= 0 {
		s.logger.WithField("goal_id", goalID).Info("Чистый доход не положителен, прогноз невозможен")
		return &model.GoalProjection{
			GoalID:         goal.ID,
			Remaining:      remaining,
			MonthlySaving:  monthlySaving,
			MonthsToTarget: -1,
		}, nil
	}

	rate, err := s.cbrClient.GetKeyRate()
	if err != nil {
		s.logger.WithError(err).Warn("Не удалось получить ставку ЦБ, используется значение по умолчанию")
		rate = defaultKeyRate
	}

	monthlyRate := rate / 12 / 100
	balance := goal.CurrentAmount
	months := 0
	for balance < goal.TargetAmount && months < maxProjectionMonths {
		balance = balance*(1+monthlyRate) + monthlySaving
		months++
	}
	if months == maxProjectionMonths {
		return &model.GoalProjection{
			GoalID:         goal.ID,
			Remaining:      remaining,
			MonthlySaving:  monthlySaving,
			KeyRate:        rate,
			MonthsToTarget: -1,
		}, nil
	}

	finish := now.AddDate(0, months, 0)
	return &model.GoalProjection{
		GoalID:          goal.ID,
		Remaining:       remaining,
		MonthlySaving:   monthlySaving,
		KeyRate:         rate,
		MonthsToTarget:  months,
		ProjectedFinish: &finish,
	}, nil
}

// averageMonthlySaving - средний чистый доход за последние три месяца
func (s *GoalService) averageMonthlySaving(ctx context.Context, userID int64, now time.Time) (float64, error) {
	start := now.AddDate(0, -3, 0)
	transactions, err := s.transactionRepo.ListByUserAndPeriod(ctx, userID, start, now)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения операций для прогноза")
		return 0, fmt.Errorf("ошибка получения операций: %w", err)
	}

	var net float64
	for _, tx := range transactions {
		switch tx.Type {
		case model.TransactionTypeIncome:
			net += tx.Amount
		case model.TransactionTypeExpense:
			net -= tx.Amount
		}
	}

	return net / 3, nil
}
