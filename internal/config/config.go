package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Поддерживаемые драйверы базы данных
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config содержит настройки приложения
type Config struct {
	DBDriver   string // Драйвер базы данных: postgres или sqlite
	DBHost     string // Хост базы данных (postgres)
	DBPort     string // Порт базы данных (postgres)
	DBUser     string // Пользователь базы данных (postgres)
	DBPassword string // Пароль базы данных (postgres)
	DBName     string // Имя базы данных (postgres)
	SQLitePath string // Путь к файлу базы данных (sqlite)

	JWTSecret   string        // Секрет для JWT
	TokenExpiry time.Duration // Время жизни токена

	ListenAddr    string // Адрес HTTP сервера
	SchedulerSpec string // Cron-расписание фоновой обработки повторяющихся операций (пусто = выключено)
}

// LoadConfig загружает конфигурацию из .env файла и переменных окружения
func LoadConfig() (*Config, error) {
	// Загружаем переменные окружения из .env файла
	if err := godotenv.Load(); err != nil {
		logrus.Warn("Файл .env не найден")
	}

	// Парсим время жизни токена
	expiry, err := time.ParseDuration(os.Getenv("TOKEN_EXPIRY"))
	if err != nil {
		expiry = time.Hour
	}

	// Создаем объект конфигурации
	config := &Config{
		DBDriver:      getEnv("DB_DRIVER", DriverSQLite),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "flowfund"),
		SQLitePath:    getEnv("SQLITE_PATH", "flowfund.sqlite"),
		JWTSecret:     getEnv("JWT_SECRET", "flowfund_secret_key_change_me_in_prod"),
		TokenExpiry:   expiry,
		ListenAddr:    getEnv("LISTEN_ADDR", ":3000"),
		SchedulerSpec: getEnv("SCHEDULER_SPEC", "0 */12 * * *"),
	}

	if config.DBDriver != DriverPostgres && config.DBDriver != DriverSQLite {
		return nil, fmt.Errorf("неизвестный драйвер базы данных: %s", config.DBDriver)
	}

	return config, nil
}

// PostgresDSN возвращает строку подключения к PostgreSQL
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
