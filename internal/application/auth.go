package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gwgplus/nikkle/internal/domain/entity"
	"github.com/gwgplus/nikkle/internal/domain/port"
)

// ErrWrongPassword пароль не совпал с хранимым
var ErrWrongPassword = errors.New("wrong password")

// AuthService вход оператора на киоске
type AuthService struct {
	accounts port.AccountStore
}

// NewAuthService создаёт сервис входа.
func NewAuthService(accounts port.AccountStore) *AuthService {
	return &AuthService{accounts: accounts}
}

// Login проверяет логин и, если запись того требует, пароль.
func (s *AuthService) Login(ctx context.Context, accountID, password string) (*entity.Account, error) {
	acc, err := s.accounts.Lookup(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if acc.NeedPassword && acc.Password != password {
		return nil, ErrWrongPassword
	}
	return acc, nil
}
