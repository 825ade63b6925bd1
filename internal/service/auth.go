package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/YuvrajGora/FlowFund/internal/model"
	"github.com/YuvrajGora/FlowFund/internal/repository"
)

type AuthService struct {
	userRepo    *repository.UserRepository
	emailSender *EmailSender
	jwtSecret   string
	tokenExpiry time.Duration
	logger      *logrus.Logger
}

func NewAuthService(
	userRepo *repository.UserRepository,
	emailSender *EmailSender,
	jwtSecret string,
	tokenExpiry time.Duration,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		emailSender: emailSender,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
		logger:      logger,
	}
}

// SignUp Регистрация нового пользователя. Если отправка почты включена,
// пользователь получает ссылку подтверждения; иначе учетная запись
// подтверждается сразу.
func (s *AuthService) SignUp(ctx context.Context, input model.SignUpInput) (*model.User, error) {
	s.logger.WithFields(logrus.Fields{
		"email":    input.Email,
		"username": input.Username,
	}).Info("Попытка регистрации нового пользователя")

	// Хеширование пароля
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.WithError(err).Error("Не удалось захешировать пароль")
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	user := &model.User{
		Username:  input.Username,
		Email:     input.Email,
		Password:  string(hashedPassword),
		CreatedAt: time.Now(),
	}

	if s.emailSender.Enabled() {
		token := uuid.NewString()
		user.VerificationToken = &token
	} else {
		user.IsVerified = true
	}

	// Занятые username/email отлавливаются уникальными индексами,
	// предварительной выборки нет - она оставляла бы окно гонки
	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.WithError(err).Warn("Не удалось зарегистрировать пользователя")
		return nil, err
	}

	if user.VerificationToken != nil {
		email, token := user.Email, *user.VerificationToken
		go func() {
			if err := s.emailSender.SendVerificationEmail(email, token); err != nil {
				s.logger.WithError(err).Warn("Не удалось отправить письмо с подтверждением")
			}
		}()
	}

	s.logger.WithField("user_id", user.ID).Info("Пользователь успешно зарегистрирован")
	return user, nil
}

// VerifyEmail подтверждает учетную запись по токену из письма
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.userRepo.FindByVerificationToken(ctx, token)
	if err != nil {
		s.logger.WithError(err).Warn("Токен подтверждения не найден")
		return fmt.Errorf("invalid or expired token")
	}

	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		s.logger.WithError(err).Error("Не удалось подтвердить учетную запись")
		return fmt.Errorf("ошибка подтверждения: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("Учетная запись подтверждена")
	return nil
}

// SignIn Авторизация по имени пользователя или email и генерация JWT токена
func (s *AuthService) SignIn(ctx context.Context, input model.SignInInput) (string, *model.User, error) {
	s.logger.WithField("login", input.Username).Info("Попытка входа пользователя")

	user, err := s.userRepo.FindByLogin(ctx, input.Username)
	if err != nil {
		s.logger.WithError(err).Warn("Пользователь не найден или неверные учётные данные")
		return "", nil, fmt.Errorf("неверные учетные данные")
	}

	// Проверка пароля
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		s.logger.Warn("Неверный пароль при попытке входа")
		return "", nil, fmt.Errorf("неверные учетные данные")
	}

	token, err := s.GenerateJWTToken(user.ID)
	if err != nil {
		s.logger.WithError(err).Error("Не удалось сгенерировать JWT токен")
		return "", nil, fmt.Errorf("ошибка генерации токена: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("Пользователь успешно вошёл в систему")
	return token, user, nil
}

// GenerateJWTToken Генерация JWT токена
func (s *AuthService) GenerateJWTToken(userID int64) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenExpiry)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ParseToken Разбор и валидация JWT токена, возвращает идентификатор пользователя
func (s *AuthService) ParseToken(tokenString string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil || !token.Valid {
		s.logger.WithError(err).Warn("Невалидный JWT токен")
		return 0, fmt.Errorf("невалидный токен: %w", err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		s.logger.Error("Не удалось извлечь идентификатор пользователя из токена")
		return 0, fmt.Errorf("некорректные claims токена")
	}

	return userID, nil
}
