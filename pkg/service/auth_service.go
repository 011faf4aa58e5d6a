package service

import (
	"github.com/lemonhall/oa-mvp/pkg/apperrors"
	"github.com/lemonhall/oa-mvp/pkg/auth"
	"github.com/lemonhall/oa-mvp/pkg/models"
	"github.com/lemonhall/oa-mvp/pkg/storage"
	"github.com/pkg/errors"
)

// AuthService issues tokens on login and resolves tokens back to live
// directory users.
type AuthService struct {
	store  storage.Store
	tokens *auth.TokenIssuer
	logger Logger
}

func NewAuthService(store storage.Store, tokens *auth.TokenIssuer, logger Logger) *AuthService {
	return &AuthService{store: store, tokens: tokens, logger: logger}
}

// Login verifies credentials and returns a signed access token. Bad
// username, bad password and deactivated accounts are indistinguishable to
// the caller.
func (s *AuthService) Login(username, password string) (string, models.User, error) {
	user, err := s.store.GetUserByUsername(username)
	if err == storage.ErrNotFound {
		return "", models.User{}, apperrors.NewUnauthorizedError("bad username or password")
	}
	if err != nil {
		return "", models.User{}, errors.Wrapf(err, "load user %q", username)
	}
	if !user.IsActive || !auth.VerifyPassword(password, user.PasswordHash) {
		return "", models.User{}, apperrors.NewUnauthorizedError("bad username or password")
	}

	token, err := s.tokens.Issue(user.Username, string(user.Role))
	if err != nil {
		return "", models.User{}, errors.Wrap(err, "issue token")
	}
	s.logger.Infof("User %q logged in", username)
	return token, user, nil
}

// Authenticate resolves a bearer token to the current directory user. The
// user is re-read on every call so deactivation and role or position changes
// take effect immediately.
func (s *AuthService) Authenticate(tokenString string) (models.User, error) {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return models.User{}, apperrors.NewUnauthorizedError("bad token")
	}
	user, err := s.store.GetUserByUsername(claims.Subject)
	if err == storage.ErrNotFound {
		return models.User{}, apperrors.NewUnauthorizedError("unknown user")
	}
	if err != nil {
		return models.User{}, errors.Wrapf(err, "load user %q", claims.Subject)
	}
	if !user.IsActive {
		return models.User{}, apperrors.NewUnauthorizedError("inactive user")
	}
	return user, nil
}
