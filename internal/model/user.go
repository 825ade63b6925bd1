package model

import (
	"fmt"
	"regexp"
	"time"
)

type User struct {
	ID                int64     `json:"id" db:"id"`
	Username          string    `json:"username" db:"username"`
	Email             string    `json:"email" db:"email"`
	Password          string    `json:"-" db:"password"`
	IsVerified        bool      `json:"is_verified" db:"is_verified"`
	VerificationToken *string   `json:"-" db:"verification_token"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

type SignUpInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=64"`
}

// SignInInput - вход по имени пользователя или email
type SignInInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (u *SignUpInput) Validate() error {
	if u.Username == "" || u.Email == "" || u.Password == "" {
		return fmt.Errorf("все поля обязательны")
	}

	// Проверка email
	if !isValidEmail(u.Email) {
		return fmt.Errorf("invalid email format")
	}

	return nil
}

func isValidEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	return emailRegex.MatchString(email)
}
