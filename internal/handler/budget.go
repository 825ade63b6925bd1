package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/YuvrajGora/FlowFund/internal/model"
	"github.com/YuvrajGora/FlowFund/internal/service"
)

// BudgetHandler обрабатывает запросы бюджетов по категориям
type BudgetHandler struct {
	budgetService *service.BudgetService
	logger        *logrus.Logger
}

func NewBudgetHandler(budgetService *service.BudgetService, logger *logrus.Logger) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, logger: logger}
}

// RegisterRoutes регистрирует маршруты бюджетов
func (h *BudgetHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.List).Methods("GET")    // Лимиты с расходами текущего месяца
	router.HandleFunc("", h.Upsert).Methods("POST") // Создание или обновление лимита
}

// List возвращает лимиты пользователя вместе с прогрессом
func (h *BudgetHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		http.Error(w, "Неавторизованный доступ", http.StatusUnauthorized)
		return
	}

	budgets, err := h.budgetService.List(r.Context(), userID, time.Now())
	if err != nil {
		h.logger.WithError(err).Error("Не удалось получить бюджеты")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(budgets)
}

// Upsert создает лимит по категории или обновляет существующий
func (h *BudgetHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		http.Error(w, "Неавторизованный доступ", http.StatusUnauthorized)
		return
	}

	var req model.UpsertBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Не удалось декодировать запрос на изменение бюджета")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	budget, err := h.budgetService.Upsert(r.Context(), userID, req)
	if err != nil {
		h.logger.WithError(err).Error("Не удалось сохранить бюджет")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(budget)
}
