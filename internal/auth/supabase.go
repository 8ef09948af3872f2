package auth

import (
	"context"
	"log"

	"github.com/localpulse/localpulse/internal/config"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/logger"

	"github.com/golang-jwt/jwt/v4"
	supabase "github.com/nedpals/supabase-go"
)

type supabaseAuth struct {
	cfg    config.AuthConfig
	client *supabase.Client
	logger *logger.Logger
}

// NewSupabaseAuth builds the Supabase-backed identity provider. Tokens are
// validated locally against the shared JWT secret when one is configured;
// otherwise each token is resolved against Supabase itself.
func NewSupabaseAuth(cfg *config.Configuration, logger *logger.Logger) Provider {
	client := supabase.CreateClient(cfg.Auth.Supabase.BaseURL, cfg.Auth.Supabase.ServiceKey)
	if client == nil {
		log.Fatalf("failed to create Supabase client")
	}

	return &supabaseAuth{
		cfg:    cfg.Auth,
		client: client,
		logger: logger,
	}
}

func (s *supabaseAuth) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	if s.cfg.Secret == "" {
		return s.lookupUser(ctx, token)
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithReportableDetails(map[string]interface{}{
					"signing_method": t.Method.Alg(),
				}).
				Mark(ierr.ErrPermissionDenied)
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Token parse error").
			Mark(ierr.ErrPermissionDenied)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ierr.NewError("invalid token claims").
			Mark(ierr.ErrPermissionDenied)
	}

	userID, ok := claims["sub"].(string)
	if !ok {
		return nil, ierr.NewError("token missing user ID").
			Mark(ierr.ErrPermissionDenied)
	}

	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return nil, ierr.NewError("token missing email").
			Mark(ierr.ErrPermissionDenied)
	}

	return &Claims{UserID: userID, Email: email}, nil
}

// lookupUser resolves the token against Supabase, which both verifies it and
// returns the account it belongs to.
func (s *supabaseAuth) lookupUser(ctx context.Context, token string) (*Claims, error) {
	user, err := s.client.Auth.User(ctx, token)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Token rejected by identity provider").
			Mark(ierr.ErrPermissionDenied)
	}
	if user.Email == "" {
		return nil, ierr.NewError("account has no email").
			Mark(ierr.ErrPermissionDenied)
	}
	return &Claims{UserID: user.ID, Email: user.Email}, nil
}
