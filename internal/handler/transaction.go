package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/YuvrajGora/FlowFund/internal/model"
	"github.com/YuvrajGora/FlowFund/internal/service"
)

// TransactionHandler обрабатывает запросы журнала операций
type TransactionHandler struct {
	transactionService *service.TransactionService
	logger             *logrus.Logger
}

func NewTransactionHandler(transactionService *service.TransactionService, logger *logrus.Logger) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, logger: logger}
}

// RegisterRoutes регистрирует маршруты журнала операций
func (h *TransactionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.List).Methods("GET")    // Список операций пользователя
	router.HandleFunc("", h.Create).Methods("POST") // Добавление операции вручную
}

// List возвращает операции пользователя, новые первыми
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		http.Error(w, "Неавторизованный доступ", http.StatusUnauthorized)
		return
	}

	transactions, err := h.transactionService.List(r.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("Не удалось получить журнал операций")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if transactions == nil {
		transactions = []model.Transaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}

// Create добавляет операцию в журнал
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		http.Error(w, "Неавторизованный доступ", http.StatusUnauthorized)
		return
	}

	var req model.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Не удалось декодировать запрос на создание операции")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	tx, err := h.transactionService.Create(r.Context(), userID, req)
	if err != nil {
		h.logger.WithError(err).Error("Не удалось создать операцию")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tx)
}
