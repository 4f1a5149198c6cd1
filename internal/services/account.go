package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/cookshare/apiserver/internal/store"
	"github.com/cookshare/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	// bcrypt refuses longer inputs.
	maxPasswordBytes = 72
)

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (types.Account, error)
	GetByEmail(ctx context.Context, email string) (types.Account, error)
	CreateWithProfile(ctx context.Context, account types.Account, profile types.Profile) (types.Account, types.Profile, error)
}

// SignUpRequest carries the fields needed to open an account.
type SignUpRequest struct {
	Email    string
	Password string
	Username string
	FullName string
}

// AccountService encapsulates sign up and sign in.
type AccountService struct {
	repo AccountRepository
	cost int
}

func NewAccountService(repo AccountRepository) *AccountService {
	return &AccountService{repo: repo, cost: bcrypt.DefaultCost}
}

// SignUp creates an account and its profile together. Emails are stored
// lowercased. An email or username already in use yields ErrAlreadyExists.
func (s *AccountService) SignUp(ctx context.Context, req SignUpRequest) (types.Account, types.Profile, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return types.Account{}, types.Profile{}, err
	}
	req.Username = strings.TrimSpace(req.Username)
	req.FullName = strings.TrimSpace(req.FullName)

	if req.Username == "" {
		return types.Account{}, types.Profile{}, invalid("username", "is required")
	}
	if len(req.Password) < minPasswordLength {
		return types.Account{}, types.Profile{}, invalid("password", "must be at least 6 characters")
	}
	if len(req.Password) > maxPasswordBytes {
		return types.Account{}, types.Profile{}, invalid("password", "must be at most 72 bytes")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return types.Account{}, types.Profile{}, err
	}

	profile := types.Profile{Username: req.Username}
	if req.FullName != "" {
		profile.FullName = &req.FullName
	}

	account, created, err := s.repo.CreateWithProfile(ctx, types.Account{
		Email:        email,
		PasswordHash: string(hashed),
	}, profile)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.Account{}, types.Profile{}, ErrAlreadyExists
		}
		return types.Account{}, types.Profile{}, err
	}
	return account, created, nil
}

// SignIn verifies credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AccountService) SignIn(ctx context.Context, email, password string) (types.Account, error) {
	account, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Account{}, ErrInvalidCredentials
		}
		return types.Account{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return types.Account{}, ErrInvalidCredentials
	}
	return account, nil
}

func (s *AccountService) GetByID(ctx context.Context, id string) (types.Account, error) {
	return s.repo.GetByID(ctx, id)
}

// normalizeEmail accepts a bare address only. Display-name forms such as
// "Ana <ana@example.com>" are rejected.
func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", invalid("email", "is not a valid address")
	}
	return strings.ToLower(addr.Address), nil
}
