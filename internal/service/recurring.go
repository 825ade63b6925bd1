package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/YuvrajGora/FlowFund/internal/model"
	"github.com/YuvrajGora/FlowFund/internal/repository"
)

// RecurringService управляет правилами повторяющихся операций и
// материализует их в записи журнала при наступлении срока.
type RecurringService struct {
	recurringRepo   *repository.RecurringRepository
	transactionRepo *repository.TransactionRepository
	userRepo        *repository.UserRepository
	emailSender     *EmailSender
	logger          *logrus.Logger
}

func NewRecurringService(
	recurringRepo *repository.RecurringRepository,
	transactionRepo *repository.TransactionRepository,
	userRepo *repository.UserRepository,
	emailSender *EmailSender,
	logger *logrus.Logger,
) *RecurringService {
	return &RecurringService{
		recurringRepo:   recurringRepo,
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		emailSender:     emailSender,
		logger:          logger,
	}
}

// CreateRule создает правило. Первый срок - дата создания плюс один период:
// исходную операцию пользователь вносит вручную, правило лишь продолжает ее.
func (s *RecurringService) CreateRule(ctx context.Context, userID int64, req model.CreateRecurringRequest) (*model.RecurringRule, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	nextDue, err := model.NextOccurrence(now, req.Frequency)
	if err != nil {
		// Недостижимо после Validate, но периодичность проверяется еще раз:
		// правило с нераспознанной периодичностью не должно попасть в базу
		return nil, err
	}

	rule := &model.RecurringRule{
		UserID:        userID,
		Type:          req.Type,
		Title:         req.Title,
		Amount:        req.Amount,
		Category:      req.Category,
		Frequency:     req.Frequency,
		LastProcessed: now,
		NextDue:       nextDue,
		CreatedAt:     now,
	}

	if err := s.recurringRepo.Create(ctx, rule); err != nil {
		s.logger.WithError(err).Error("Не удалось создать правило повторяющейся операции")
		return nil, fmt.Errorf("ошибка создания правила: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"rule_id":  rule.ID,
		"user_id":  userID,
		"next_due": rule.NextDue.Format(time.RFC3339),
	}).Info("Правило повторяющейся операции создано")
	return rule, nil
}

func (s *RecurringService) ListRules(ctx context.Context, userID int64) ([]model.RecurringRule, error) {
	rules, err := s.recurringRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения правил пользователя")
		return nil, fmt.Errorf("ошибка получения правил: %w", err)
	}
	return rules, nil
}

func (s *RecurringService) DeleteRule(ctx context.Context, userID, ruleID int64) error {
	if err := s.recurringRepo.Delete(ctx, userID, ruleID); err != nil {
		s.logger.WithError(err).Errorf("Ошибка удаления правила %d", ruleID)
		return err
	}
	return nil
}

// ProcessDue обрабатывает наступившие правила пользователя: на каждое
// правило добавляется одна запись в журнал, после чего срок сдвигается
// ровно на один период от прежнего next_due. Правило, просроченное на
// несколько периодов, за один вызов дает одну запись - полная догонка
// требует повторных вызовов.
//
// Возвращается число добавленных записей. Сбой одного правила не
// останавливает обработку остальных; целиком вызов падает только если
// не удалось получить сам список наступивших правил.
func (s *RecurringService) ProcessDue(ctx context.Context, userID int64, now time.Time) (int, error) {
	rules, err := s.recurringRepo.DueRules(ctx, userID, now)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения наступивших правил")
		return 0, fmt.Errorf("ошибка получения наступивших правил: %w", err)
	}

	if len(rules) == 0 {
		return 0, nil
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"count":   len(rules),
	}).Info("Найдены наступившие правила")

	processed := 0
	for _, rule := range rules {
		ok, err := s.processRule(ctx, rule, now)
		if err != nil {
			// Ошибка фиксируется по каждому правилу отдельно, партия продолжается
			s.logger.WithError(err).WithField("rule_id", rule.ID).Error("Ошибка обработки правила")
			continue
		}
		if ok {
			processed++
		}
	}

	if processed > 0 {
		s.notifyProcessed(ctx, userID, processed)
	}

	return processed, nil
}

// processRule обрабатывает одно правило. Сначала срок сдвигается условным
// обновлением (только если next_due в базе не изменился с момента выборки),
// и лишь затем добавляется запись в журнал. Так два одновременных вызова
// не могут материализовать одно правило дважды: проигравший гонку получит
// ноль затронутых строк и пропустит правило.
func (s *RecurringService) processRule(ctx context.Context, rule model.RecurringRule, now time.Time) (bool, error) {
	// Новый срок считается от прежнего next_due, а не от текущего момента,
	// чтобы расписание не дрейфовало
	newNextDue, err := model.NextOccurrence(rule.NextDue, rule.Frequency)
	if err != nil {
		// Поврежденное правило: двигать срок нечем, а оставить как есть -
		// значит обрабатывать его заново при каждом вызове
		return false, fmt.Errorf("правило %d повреждено: %w", rule.ID, err)
	}

	advanced, err := s.recurringRepo.Advance(ctx, rule.ID, now, newNextDue, rule.NextDue)
	if err != nil {
		return false, fmt.Errorf("ошибка сдвига срока правила %d: %w", rule.ID, err)
	}
	if !advanced {
		// Правило уже обработано параллельным вызовом либо удалено
		s.logger.WithField("rule_id", rule.ID).Debug("Правило уже обработано в этом цикле, пропускаем")
		return false, nil
	}

	// Запись получает дату фактического внесения, а не номинальный срок правила
	tx := &model.Transaction{
		UserID:   rule.UserID,
		Title:    rule.Title,
		Amount:   rule.Amount,
		Type:     rule.Type,
		Category: rule.Category,
		Date:     now,
	}

	if err := s.transactionRepo.Create(ctx, tx); err != nil {
		// Срок уже сдвинут, а запись не создана - данные разошлись,
		// логируем с полным контекстом, чтобы расхождение можно было найти
		s.logger.WithError(err).WithFields(logrus.Fields{
			"rule_id":  rule.ID,
			"user_id":  rule.UserID,
			"amount":   rule.Amount,
			"next_due": newNextDue.Format(time.RFC3339),
		}).Error("Срок правила сдвинут, но запись в журнал не создана")
		return false, fmt.Errorf("ошибка создания записи по правилу %d: %w", rule.ID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"rule_id":        rule.ID,
		"transaction_id": tx.ID,
		"next_due":       newNextDue.Format(time.RFC3339),
	}).Info("Правило обработано")
	return true, nil
}

// ProcessDueForAllUsers обходит всех пользователей с наступившими правилами.
// Вызывается фоновым планировщиком.
func (s *RecurringService) ProcessDueForAllUsers(ctx context.Context, now time.Time) (int, error) {
	userIDs, err := s.recurringRepo.DueUserIDs(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("ошибка получения пользователей с наступившими правилами: %w", err)
	}

	total := 0
	for _, userID := range userIDs {
		processed, err := s.ProcessDue(ctx, userID, now)
		if err != nil {
			s.logger.WithError(err).Errorf("Ошибка обработки правил пользователя %d", userID)
			continue
		}
		total += processed
	}

	return total, nil
}

// notifyProcessed отправляет пользователю уведомление об автоматически
// добавленных операциях. Отказ почты не влияет на результат обработки.
func (s *RecurringService) notifyProcessed(ctx context.Context, userID int64, processed int) {
	if !s.emailSender.Enabled() {
		return
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || user.Email == "" {
		return
	}

	go func() {
		if err := s.emailSender.SendRecurringProcessedNotification(user.Email, processed); err != nil {
			s.logger.WithError(err).Warn("Не удалось отправить уведомление об обработке правил")
		}
	}()
}
