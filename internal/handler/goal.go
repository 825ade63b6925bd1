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

// GoalHandler обрабатывает запросы накопительных целей
type GoalHandler struct {
	goalService *service.GoalService
	logger      *logrus.Logger
}

func NewGoalHandler(goalService *service.GoalService, logger *logrus.Logger) *GoalHandler {
	return &GoalHandler{goalService: goalService, logger: logger}
}

// RegisterRoutes регистрирует маршруты целей
func (h *GoalHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.List).Methods("GET")                                // Список целей
	router.HandleFunc("", h.Create).Methods("POST")                             // Создание цели
	router.HandleFunc("/{id:[0-9]+}", h.UpdateProgress).Methods("PUT")          // Обновление прогресса
	router.HandleFunc("/{id:[0-9]+}/projection", h.Projection).Methods("GET")   // Прогноз достижения
}

// List возвращает цели пользователя
func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		http.Error(w, "Неавторизованный доступ", http.StatusUnauthorized)
		return
	}

	goals, err := h.goalService.List(r.Context(), userID)
	if err != nil {
		h.logger.WithError(err).Error("Не удалось получить цели")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if goals == nil {
		goals = []model.Goal{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(goals)
}

// Create создает накопительную цель
func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		http.Error(w, "Неавторизованный доступ", http.StatusUnauthorized)
		return
	}

	var req model.CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Не удалось декодировать запрос на создание цели")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	goal, err := h.goalService.Create(r.Context(), userID, req)
	if err != nil {
		h.logger.WithError(err).Error("Не удалось создать цель")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(goal)
}

// UpdateProgress обновляет накопленную сумму цели
func (h *GoalHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		http.Error(w, "Неавторизованный доступ", http.StatusUnauthorized)
		return
	}

	goalID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Неверный идентификатор цели", http.StatusBadRequest)
		return
	}

	var req model.UpdateGoalProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Не удалось декодировать запрос на обновление цели")
		http.Error(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if err := h.goalService.UpdateProgress(r.Context(), userID, goalID, req.CurrentAmount); err != nil {
		h.logger.WithError(err).Error("Не удалось обновить цель")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Цель обновлена"})
}

// Projection возвращает прогноз достижения цели
func (h *GoalHandler) Projection(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		http.Error(w, "Неавторизованный доступ", http.StatusUnauthorized)
		return
	}

	goalID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Неверный идентификатор цели", http.StatusBadRequest)
		return
	}

	projection, err := h.goalService.Projection(r.Context(), userID, goalID, time.Now())
	if err != nil {
		h.logger.WithError(err).Error("Не удалось построить прогноз по цели")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(projection)
}
