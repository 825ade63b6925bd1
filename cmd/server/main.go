package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/YuvrajGora/FlowFund/internal/config"
	"github.com/YuvrajGora/FlowFund/internal/handler"
	"github.com/YuvrajGora/FlowFund/internal/repository"
	"github.com/YuvrajGora/FlowFund/internal/service"
	"github.com/YuvrajGora/FlowFund/internal/storage"
)

func main() {
	logger := logrus.New()
	// Уровень логирования (Debug для разработки, Info для продакшена)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Загрузка конфигурации приложения
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Подключение к базе данных: бэкенд выбирается один раз по конфигурации
	db, err := storage.Open(cfg, logger)
	if err != nil {
		logger.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer db.Close()

	// Создание таблиц и индексов
	if err := db.InitSchema(context.Background()); err != nil {
		logger.Fatalf("Ошибка инициализации схемы: %v", err)
	}

	// Инициализация репозиториев
	logger.Info("Инициализация репозиториев...")
	userRepo := repository.NewUserRepository(db, logger)
	transactionRepo := repository.NewTransactionRepository(db, logger)
	recurringRepo := repository.NewRecurringRepository(db, logger)
	budgetRepo := repository.NewBudgetRepository(db, logger)
	goalRepo := repository.NewGoalRepository(db, logger)
	emailSender := service.NewEmailSender(logger)

	// Инициализация сервисов
	logger.Info("Инициализация сервисов...")
	authService := service.NewAuthService(userRepo, emailSender, cfg.JWTSecret, cfg.TokenExpiry, logger)
	transactionService := service.NewTransactionService(transactionRepo, logger)
	recurringService := service.NewRecurringService(recurringRepo, transactionRepo, userRepo, emailSender, logger)
	budgetService := service.NewBudgetService(budgetRepo, transactionRepo, logger)
	cbrClient := service.NewCBRClient(logger)
	goalService := service.NewGoalService(goalRepo, transactionRepo, cbrClient, logger)
	analyticService := service.NewAnalyticService(transactionRepo, logger)

	// Инициализация HTTP обработчиков
	logger.Info("Инициализация обработчиков API...")
	authHandler := handler.NewAuthHandler(authService, logger)
	transactionHandler := handler.NewTransactionHandler(transactionService, logger)
	recurringHandler := handler.NewRecurringHandler(recurringService, logger)
	budgetHandler := handler.NewBudgetHandler(budgetService, logger)
	goalHandler := handler.NewGoalHandler(goalService, logger)
	analyticsHandler := handler.NewAnalyticsHandler(analyticService, logger)

	// Настройка маршрутизатора
	router := mux.NewRouter()

	// Проверка работоспособности
	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("FlowFund API is running"))
	}).Methods("GET")

	// 1. Публичные маршруты для аутентификации
	authRouter := router.PathPrefix("/api/auth").Subrouter()
	authHandler.RegisterRoutes(authRouter)

	// 2. Защищенные API маршруты (требуется JWT токен)
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(handler.AuthMiddleware(authService, logger))

	transactionRouter := apiRouter.PathPrefix("/transactions").Subrouter()
	transactionHandler.RegisterRoutes(transactionRouter)

	recurringRouter := apiRouter.PathPrefix("/recurring").Subrouter()
	recurringHandler.RegisterRoutes(recurringRouter)

	budgetRouter := apiRouter.PathPrefix("/budgets").Subrouter()
	budgetHandler.RegisterRoutes(budgetRouter)

	goalRouter := apiRouter.PathPrefix("/goals").Subrouter()
	goalHandler.RegisterRoutes(goalRouter)

	analyticsRouter := apiRouter.PathPrefix("/analytics").Subrouter()
	analyticsHandler.RegisterRoutes(analyticsRouter)

	// Настройка планировщика фоновой обработки повторяющихся операций.
	// Основной путь - запрос клиента, планировщик лишь догоняет тех,
	// кто давно не заходил.
	var scheduler *cron.Cron
	if cfg.SchedulerSpec != "" {
		logger.Info("Настройка планировщика повторяющихся операций...")
		scheduler = cron.New()
		_, err = scheduler.AddFunc(cfg.SchedulerSpec, func() {
			logger.Info("Запуск фоновой обработки повторяющихся операций")
			processed, err := recurringService.ProcessDueForAllUsers(context.Background(), time.Now())
			if err != nil {
				logger.WithError(err).Error("Ошибка фоновой обработки повторяющихся операций")
				return
			}
			logger.WithField("processed", processed).Info("Фоновая обработка завершена")
		})
		if err != nil {
			logger.Fatalf("Ошибка настройки планировщика: %v", err)
		}
		scheduler.Start()
	}

	// Настройка и запуск HTTP сервера
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		logger.Infof("Запуск сервера на %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Ошибка сервера: %v", err)
		}
	}()

	// Ожидание сигналов для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Завершение работы сервера...")
	if scheduler != nil {
		scheduler.Stop()
	}
	if err := server.Shutdown(context.Background()); err != nil {
		logger.Errorf("Ошибка при завершении работы сервера: %v", err)
	}
	logger.Info("Сервер успешно остановлен")
}
