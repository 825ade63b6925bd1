package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/YuvrajGora/FlowFund/internal/model"
	"github.com/YuvrajGora/FlowFund/internal/repository"
)

// TransactionService - ручное пополнение и чтение журнала операций
type TransactionService struct {
	transactionRepo *repository.TransactionRepository
	logger          *logrus.Logger
}

func NewTransactionService(transactionRepo *repository.TransactionRepository, logger *logrus.Logger) *TransactionService {
	return &TransactionService{transactionRepo: transactionRepo, logger: logger}
}

func (s *TransactionService) List(ctx context.Context, userID int64) ([]model.Transaction, error) {
	transactions, err := s.transactionRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения журнала операций")
		return nil, fmt.Errorf("ошибка получения операций: %w", err)
	}
	return transactions, nil
}

func (s *TransactionService) Create(ctx context.Context, userID int64, req model.CreateTransactionRequest) (*model.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}

	tx := &model.Transaction{
		UserID:   userID,
		Title:    req.Title,
		Amount:   req.Amount,
		Type:     req.Type,
		Category: req.Category,
		Date:     date,
	}

	if err := s.transactionRepo.Create(ctx, tx); err != nil {
		s.logger.WithError(err).Error("Не удалось создать запись в журнале операций")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"transaction_id": tx.ID,
		"user_id":        userID,
		"amount":         tx.Amount,
		"type":           tx.Type,
	}).Info("Операция добавлена в журнал")
	return tx, nil
}
