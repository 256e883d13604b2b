package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/repository"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Phone    string `json:"phone" validate:"max=30"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        *models.User `json:"user"`
}

// AuthService registers customers and issues access tokens. Admin accounts
// are ordinary users with isAdmin set in the database.
type AuthService struct {
	users  repository.UserRepository
	events notify.Publisher
	secret string
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

func NewAuthService(users repository.UserRepository, events notify.Publisher, secret string, ttl time.Duration) *AuthService {
	if events == nil {
		events = notify.Discard{}
	}
	return &AuthService{
		users:  users,
		events: events,
		secret: secret,
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

func authLog() *zap.Logger {
	return zap.L().With(zap.String("area", "auth"))
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Phone:        input.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	authLog().Info("user registered", zap.String("email", user.Email))
	s.events.Emit(notify.NewEvent(
		notify.EventUserRegistered,
		"New customer",
		fmt.Sprintf("%s registered", user.Name),
		map[string]any{"userId": user.ID.Hex(), "email": user.Email},
	))
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		authLog().Warn("login invalid credentials", zap.String("email", input.Email))
		return nil, ErrInvalidCredentials
	}

	authLog().Info("user login succeeded", zap.String("email", user.Email), zap.Bool("admin", user.IsAdmin))
	return s.issue(user)
}

func (s *AuthService) Me(ctx context.Context, actor models.Identity) (*models.User, error) {
	if !actor.Authenticated() {
		return nil, ErrAuthRequired
	}
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	identity := models.Identity{UserID: user.ID, Email: user.Email, IsAdmin: user.IsAdmin}
	token, expires, err := auth.Issue(identity, s.secret, s.ttl, s.now())
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: token, ExpiresAt: expires, User: user}, nil
}
