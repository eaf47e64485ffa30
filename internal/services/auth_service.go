package service

import (
	"context"
	"fmt"
	"log/slog"

	stderrors "errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"

	"github.com/honeynil/TravelBookingService/internal/infrastructure/auth"
	"github.com/honeynil/TravelBookingService/internal/infrastructure/redis"
	"github.com/honeynil/TravelBookingService/internal/models"
	"github.com/honeynil/TravelBookingService/internal/repository"
	pkgerrors "github.com/honeynil/TravelBookingService/pkg/errors"
)

type AuthService interface {
	Register(ctx context.Context, username, email, password string) (uuid.UUID, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type authService struct {
	userRepo    repository.UserRepository
	redisClient redis.RedisClient
	jwtSecret   string
}

func NewAuthService(userRepo repository.UserRepository, redisClient redis.RedisClient, jwtSecret string) *authService {
	return &authService{
		userRepo:    userRepo,
		redisClient: redisClient,
		jwtSecret:   jwtSecret,
	}
}

func (s *authService) Register(ctx context.Context, username, email, password string) (uuid.UUID, error) {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "Register")
	defer span.End()

	if username == "" || password == "" {
		span.SetStatus(codes.Error, "empty username or password")
		return uuid.Nil, pkgerrors.ErrInvalidInput
	}

	existingUser, err := s.userRepo.GetByUsername(ctx, username)
	if existingUser != nil {
		span.SetStatus(codes.Error, "username already exists")
		slog.Warn("username already exists",
			"username", username,
			"existing_id", existingUser.ID)
		return uuid.Nil, pkgerrors.ErrUsernameExists
	}
	if err != nil && !stderrors.Is(err, pkgerrors.ErrUserNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user check failed")
		slog.Error("failed to check user existence",
			"username", username,
			"error", err)
		return uuid.Nil, fmt.Errorf("%w: failed to check user existence", pkgerrors.ErrInternal)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "password hashing failed")
		slog.Error("failed to hash password",
			"username", username,
			"error", err)
		return uuid.Nil, fmt.Errorf("%w: failed to hash password", pkgerrors.ErrInternal)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user creation failed")
		slog.Error("failed to create user in DB",
			"username", username,
			"error", err)
		// lost a race with a concurrent registration
		if stderrors.Is(err, pkgerrors.ErrUsernameExists) {
			return uuid.Nil, err
		}
		return uuid.Nil, fmt.Errorf("%w: failed to create user", pkgerrors.ErrInternal)
	}

	slog.Info("user registered successfully",
		"user_id", user.ID,
		"username", username)
	return user.ID, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		slog.Error("failed to login", "username", username, "error", err)
		return "", pkgerrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Error("invalid password", "username", username)
		return "", pkgerrors.ErrInvalidCredentials
	}

	tokenString, err := auth.GenerateToken(s.jwtSecret, user.ID, auth.TokenTTL)
	if err != nil {
		span.RecordError(err)
		slog.Error("failed to generate JWT", "error", err)
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.redisClient.Set(ctx, auth.TokenKey(user.ID), tokenString, auth.TokenTTL); err != nil {
		slog.Error("failed to cache JWT", "user_id", user.ID, "error", err)
	}

	slog.Info("user logged in", "username", username, "user_id", user.ID)
	return tokenString, nil
}
