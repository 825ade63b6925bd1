package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/YuvrajGora/FlowFund/internal/model"
	"github.com/YuvrajGora/FlowFund/internal/service"
)

// RecurringHandler обрабатывает запросы правил повторяющихся операций
type RecurringHandler struct {
	recurringService *service.RecurringService
	logger           *logrus.Logger
}

func NewRecurringHandler(recurringService *service.RecurringService, logger *logrus.Logger) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService, logger: logger}
}

// RegisterRoutes регистрирует маршруты правил
func (h *RecurringHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.List).Methods("GET")                 // Список правил пользователя
	router.HandleFunc("", h.Create).Methods("POST")              // Создание правила
	router.HandleFunc("/process", h.Process).Methods("POST")     // Обработка наступивших правил
	router.HandleFunc("/{id:[0-9]+}", h.Delete).Methods("DELETE") // Удаление правила
}

// List возвращает правила пользователя
func (h *RecurringHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		http.Error(w, "Неавторизованный доступ", http.StatusUnauthorized)
		return
	}

	rules, err := h.recurringService.ListRules(r.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("Не удалось получить правила")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if rules == nil {
		rules = []model.RecurringRule{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rules)
}

// Create создает правило повторяющейся операции
func (h *RecurringHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		http.Error(w, "Неавторизованный доступ", http.StatusUnauthorized)
		return
	}

	var req model.CreateRecurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Не удалось декодировать запрос на создание правила")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	rule, err := h.recurringService.CreateRule(r.Context(), userID, req)
	if err != nil {
		h.logger.WithError(err).Error("Не удалось создать правило")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(rule)
}

// Process запускает обработку наступивших правил пользователя.
// Ответ без ошибки - успех, даже если обработано ноль правил.
func (h *RecurringHandler) Process(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		http.Error(w, "Неавторизованный доступ", http.StatusUnauthorized)
		return
	}

	processed, err := h.recurringService.ProcessDue(r.Context(), userID, time.Now())
	if err != nil {
		h.logger.WithError(err).Error("Ошибка обработки повторяющихся операций")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"processed_count": processed})
}

// Delete удаляет правило пользователя
func (h *RecurringHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		http.Error(w, "Неавторизованный доступ", http.StatusUnauthorized)
		return
	}

	ruleID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Неверный идентификатор правила", http.StatusBadRequest)
		return
	}

	if err := h.recurringService.DeleteRule(r.Context(), userID, ruleID); err != nil {
		h.logger.WithError(err).Error("Не удалось удалить правило")
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Правило удалено"})
}
