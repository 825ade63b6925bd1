package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/YuvrajGora/FlowFund/internal/service"
)

// AnalyticsHandler обрабатывает запросы финансовой аналитики
type AnalyticsHandler struct {
	analyticService *service.AnalyticService
	logger          *logrus.Logger
}

func NewAnalyticsHandler(analyticService *service.AnalyticService, logger *logrus.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analyticService: analyticService, logger: logger}
}

// RegisterRoutes регистрирует маршруты аналитики
func (h *AnalyticsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/stats", h.Stats).Methods("GET") // Статистика за период
}

// Stats возвращает статистику доходов/расходов за период.
// Параметры start и end в формате 2006-01-02; по умолчанию текущий месяц.
func (h *AnalyticsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		http.Error(w, "Неавторизованный доступ", http.StatusUnauthorized)
		return
	}

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := now

	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "Неверный формат даты start", http.StatusBadRequest)
			return
		}
		start = parsed
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "Неверный формат даты end", http.StatusBadRequest)
			return
		}
		// Конец периода включает весь день
		end = parsed.AddDate(0, 0, 1).Add(-time.Second)
	}

	stats, err := h.analyticService.GetFinancialStats(r.Context(), userID, start, end)
	if err != nil {
		h.logger.WithError(err).Error("Не удалось рассчитать статистику")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
