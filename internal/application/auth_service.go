package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/travel-diaries/internal/domain/entity"
	repo "github.com/oksasatya/travel-diaries/internal/domain/repository"
	"github.com/oksasatya/travel-diaries/pkg/helpers"
	"github.com/oksasatya/travel-diaries/pkg/mailer"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService owns the credential store: registration, login (issuing a
// signed principal token) and the admin-only account listing.
type AuthService struct {
	Repo        repo.UserRepository
	Tokens      *helpers.TokenManager
	Pub         *helpers.RabbitPublisher
	Logger      *logrus.Logger
	MailEnabled bool
}

func NewAuthService(userRepo repo.UserRepository, tokens *helpers.TokenManager, pub *helpers.RabbitPublisher, logger *logrus.Logger, mailEnabled bool) *AuthService {
	return &AuthService{
		Repo:        userRepo,
		Tokens:      tokens,
		Pub:         pub,
		Logger:      logger,
		MailEnabled: mailEnabled,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	role := in.Role
	if role == "" {
		role = entity.RoleUser
	}
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hash,
		Role:     role,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}

	// Welcome email is best effort and only possible when the user gave an
	// address at signup.
	if s.Pub != nil && s.MailEnabled && u.Email != "" {
		job := mailer.WelcomeJob(u.Email, u.Username)
		if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("enqueue welcome email failed")
		}
	}
	return u, nil
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.Repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	token, exp, err := s.Tokens.Issue(u.ID, u.Role)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("issue token failed")
		}
		return nil, err
	}
	return &LoginResult{
		Token:     token,
		ExpiresAt: exp,
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
	}, nil
}

// ListUsers returns every account. The role gate lives in middleware; this
// method assumes the caller was already authorized.
func (s *AuthService) ListUsers(ctx context.Context) ([]*entity.User, error) {
	return s.Repo.List(ctx)
}
