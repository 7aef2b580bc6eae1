package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"dilemmas/internal/auth"
	"dilemmas/internal/models"
	"dilemmas/internal/store"
	"dilemmas/internal/utils"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RegisterInput is a sign-up request.
type RegisterInput struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	AgeRange *string `json:"age_range"`
	Country  *string `json:"country"`
}

// Session is what a successful register or login hands back.
type Session struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type AccountService struct {
	repo   store.Repository
	tokens *auth.TokenIssuer
}

func NewAccountService(repo store.Repository, tokens *auth.TokenIssuer) *AccountService {
	return &AccountService{repo: repo, tokens: tokens}
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name := utils.PlainText(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" || in.Password == "" {
		return nil, newError(ErrInvalidInput, "name, email and password are required")
	}
	if !emailPattern.MatchString(email) {
		return nil, newError(ErrInvalidInput, "invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, newError(ErrInvalidInput, "password must be at least %d characters", minPasswordLength)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hash,
		AgeRange: optionalText(in.AgeRange),
		Country:  optionalText(in.Country),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, newError(ErrConflict, "email is already registered")
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.session(user)
}

// Login checks credentials. An unknown email and a wrong password get the
// same answer.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, newError(ErrInvalidInput, "email and password are required")
	}

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !auth.CheckPasswordHash(password, user.Password) {
		return nil, errBadCredentials
	}
	return s.session(user)
}

// Principal resolves a session-stored user id, failing if the user is gone.
func (s *AccountService) Principal(ctx context.Context, userID uint) (*auth.Principal, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(ErrUnauthorized, "unknown user")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &auth.Principal{UserID: user.ID, Email: user.Email}, nil
}

func (s *AccountService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: user, Token: token}, nil
}

func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	v := utils.PlainText(*s)
	if v == "" {
		return nil
	}
	return &v
}

var errBadCredentials = newError(ErrUnauthorized, "invalid email or password")
