package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayush/feed-api/internal/apperr"
	"github.com/ayush/feed-api/internal/logger"
	"github.com/ayush/feed-api/internal/metrics"
	"github.com/ayush/feed-api/internal/models"
	"github.com/ayush/feed-api/internal/respond"
	"github.com/ayush/feed-api/internal/store"
	"github.com/ayush/feed-api/internal/validate"
)

// UserStore defines the interface for credential persistence.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Revoker records logged-out tokens. A nil Revoker makes logout a no-op on
// the server side.
type Revoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

var signupMessages = map[string]string{
	"email":    "Please enter a valid email.",
	"password": "Password must be at least 5 characters long.",
	"name":     "Name must not be empty.",
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users   UserStore
	hasher  PasswordHasher
	tokens  *TokenService
	revoker Revoker
	log     *logger.Logger
}

func NewHandler(users UserStore, hasher PasswordHasher, tokens *TokenService, revoker Revoker, log *logger.Logger) *Handler {
	return &Handler{users: users, hasher: hasher, tokens: tokens, revoker: revoker, log: log}
}

// Signup validates the request, hashes the password, and creates the user.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, h.log, apperr.Validation("Invalid request body.", nil))
		return
	}
	req.Email = validate.NormalizeEmail(req.Email)
	req.Password = strings.TrimSpace(req.Password)
	req.Name = strings.TrimSpace(req.Name)

	details, err := h.validateSignup(r.Context(), req)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	if len(details) > 0 {
		respond.Error(w, r, h.log, apperr.Validation("Validation failed.", details))
		return
	}

	hashed, err := h.hasher.Hash(req.Password)
	if err != nil {
		respond.Error(w, r, h.log, apperr.Internal(err))
		return
	}

	user := &models.User{
		Email:    req.Email,
		Password: hashed,
		Name:     req.Name,
		Status:   models.DefaultStatus,
	}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respond.Error(w, r, h.log, apperr.Validation("Validation failed.", []apperr.FieldError{emailTaken}))
			return
		}
		respond.Error(w, r, h.log, apperr.Internal(err))
		return
	}

	metrics.SignupsTotal.Inc()
	respond.JSON(w, http.StatusCreated, map[string]any{
		"message": "User created!",
		"userId":  user.ID,
		"user":    user,
	})
}

var emailTaken = apperr.FieldError{Field: "email", Message: "E-Mail address already exists!"}

func (h *Handler) validateSignup(ctx context.Context, req models.SignupRequest) ([]apperr.FieldError, error) {
	details, err := validate.Struct(req, signupMessages)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	for _, d := range details {
		if d.Field == "email" {
			return details, nil
		}
	}

	_, err = h.users.GetUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		details = append([]apperr.FieldError{emailTaken}, details...)
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperr.Internal(err)
	}
	return details, nil
}

// Login checks credentials and issues a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, r, h.log, apperr.Validation("Invalid request body.", nil))
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), validate.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.LoginsTotal.WithLabelValues("unknown_email").Inc()
			respond.Error(w, r, h.log, apperr.InvalidCredentials("A user with this email could not be found."))
			return
		}
		respond.Error(w, r, h.log, apperr.Internal(err))
		return
	}

	if err := h.hasher.Compare(user.Password, strings.TrimSpace(req.Password)); err != nil {
		metrics.LoginsTotal.WithLabelValues("wrong_password").Inc()
		respond.Error(w, r, h.log, apperr.InvalidCredentials("Incorrect password"))
		return
	}

	token, _, err := h.tokens.Issue(user)
	if err != nil {
		respond.Error(w, r, h.log, apperr.Internal(err))
		return
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	respond.JSON(w, http.StatusOK, map[string]string{
		"message": "Logged in successfully",
		"token":   token,
		"userId":  user.ID,
	})
}

// Logout revokes the caller's token. It must run behind the auth guard.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, r, h.log, apperr.Unauthenticated("Not authenticated."))
		return
	}

	if h.revoker != nil && claims.ExpiresAt != nil {
		if err := h.revoker.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			respond.Error(w, r, h.log, apperr.Internal(err))
			return
		}
		metrics.TokensRevokedTotal.Inc()
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Logged out."})
}
