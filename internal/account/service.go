package account

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/apuestago/bet-ledger/internal/ledger"
	"github.com/apuestago/bet-ledger/internal/shared/middleware"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Store é a persistência de contas. O saldo mora na mesma linha, mas só o
// ledger escreve nele; aqui a conta nasce zerada e só muda de status.
type Store interface {
	Create(ctx context.Context, a *ledger.Account, passwordHash []byte) error
	ByEmail(ctx context.Context, email string) (*ledger.Account, []byte, error)
	SetStatus(ctx context.Context, accountID, status string) error
}

// Service cuida de registro, login e desativação de contas.
type Service struct {
	log       *zap.Logger
	store     Store
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewService(log *zap.Logger, store Store, jwtSecret []byte) *Service {
	return &Service{log: log, store: store, jwtSecret: jwtSecret, tokenTTL: 24 * time.Hour}
}

// Register cria a conta ativa com saldo zero. Contas nunca são apagadas.
func (s *Service) Register(ctx context.Context, email, password string) (*ledger.Account, error) {
	if email == "" || len(password) < 6 {
		return nil, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	a := &ledger.Account{
		ID:        uuid.NewString(),
		Email:     email,
		Status:    ledger.StatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, a, hash); err != nil {
		return nil, err
	}

	s.log.Info("account registered", zap.String("accountId", a.ID))
	return a, nil
}

// Authenticate valida as credenciais e emite um token HS256 com o accountId.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, *ledger.Account, error) {
	a, hash, err := s.store.ByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if a.Status != ledger.StatusActive {
		return "", nil, ledger.ErrAccountInactive
	}

	now := time.Now()
	claims := &middleware.Claims{
		AccountID: a.ID,
		Email:     a.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, err
	}
	return token, a, nil
}

// Deactivate tira a conta de circulação sem apagar nada.
func (s *Service) Deactivate(ctx context.Context, accountID string) error {
	return s.store.SetStatus(ctx, accountID, ledger.StatusInactive)
}
