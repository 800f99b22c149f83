package auth

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"CampusPortal/internal/apperr"
	"CampusPortal/internal/config"
	"CampusPortal/internal/rbac"
)

var errInvalidCredentials = apperr.Unauthorized("Invalid credentials")

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

type UserService struct {
	repo                   Repository
	tokens                 *TokenManager
	logger                 *zap.Logger
	allowAdminRegistration bool
}

func NewUserService(repo Repository, tokens *TokenManager, cfg *config.Config, logger *zap.Logger) *UserService {
	return &UserService{
		repo:                   repo,
		tokens:                 tokens,
		logger:                 logger.Named("auth"),
		allowAdminRegistration: cfg.AllowAdminRegistration,
	}
}

// RegisterUser creates an account and returns it with a fresh token.
func (s *UserService) RegisterUser(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	role, err := rbac.ParseRole(req.Role)
	if err != nil {
		return nil, apperr.ValidationFields("Invalid role", map[string]string{"role": err.Error()})
	}
	if role == rbac.Admin && !s.allowAdminRegistration {
		return nil, apperr.Forbidden("Admin accounts cannot be self-registered")
	}
	if len(req.Password) > maxPasswordBytes {
		return nil, apperr.ValidationFields("Invalid request", map[string]string{"password": "password must be at most 72 bytes"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hashing password")
	}

	now := time.Now().UTC()
	user := &User{
		ID:           primitive.NewObjectID(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Department:   req.Department,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	switch role {
	case rbac.Student:
		user.StudentID = req.StudentID
	default:
		user.EmployeeID = req.EmployeeID
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user", user.ID.Hex()), zap.String("role", role.String()))

	token, err := s.tokens.GenerateJWT(user)
	if err != nil {
		return nil, errors.Wrap(err, "signing token")
	}
	return &TokenResponse{Token: token, User: user}, nil
}

// AuthenticateUser checks the credential and returns a token on success.
func (s *UserService) AuthenticateUser(ctx context.Context, cred Credential) (*TokenResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(cred.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil || !CheckPasswordHash(cred.Password, user.PasswordHash) {
		return nil, errInvalidCredentials
	}

	token, err := s.tokens.GenerateJWT(user)
	if err != nil {
		return nil, errors.Wrap(err, "signing token")
	}
	return &TokenResponse{Token: token, User: user}, nil
}

// Profile returns the caller's own user document.
func (s *UserService) Profile(ctx context.Context, caller rbac.Principal) (*User, error) {
	user, err := s.repo.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("User not found")
	}
	return user, nil
}

// FindByID exposes the user lookup to other services.
func (s *UserService) FindByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return s.repo.FindByID(ctx, id)
}
