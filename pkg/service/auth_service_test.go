package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lemonhall/oa-mvp/pkg/apperrors"
	"github.com/lemonhall/oa-mvp/pkg/auth"
	"github.com/lemonhall/oa-mvp/pkg/service"
	"github.com/lemonhall/oa-mvp/pkg/storage"
)

func TestAuthService(t *testing.T) {
	setup := func(t *testing.T) (*service.AuthService, *service.DirectoryService) {
		t.Helper()
		store := storage.NewMockStore()
		tokens := auth.NewTokenIssuer("test-secret", time.Hour)
		return service.NewAuthService(store, tokens, logger{}),
			service.NewDirectoryService(store, logger{})
	}

	t.Run("LoginRoundTrip", func(t *testing.T) {
		authSvc, dirSvc := setup(t)
		created, err := dirSvc.CreateUser(service.CreateUserInput{
			Username: "jdoe", Password: "secret1", Role: "approver",
		})
		assert.NoError(t, err)

		token, user, err := authSvc.Login("jdoe", "secret1")
		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, created.ID, user.ID)

		resolved, err := authSvc.Authenticate(token)
		assert.NoError(t, err)
		assert.Equal(t, "jdoe", resolved.Username)
	})

	t.Run("BadCredentialsAreIndistinguishable", func(t *testing.T) {
		authSvc, dirSvc := setup(t)
		_, err := dirSvc.CreateUser(service.CreateUserInput{Username: "jdoe", Password: "secret1"})
		assert.NoError(t, err)

		_, _, errUser := authSvc.Login("nobody", "secret1")
		_, _, errPass := authSvc.Login("jdoe", "wrong")
		assert.Error(t, errUser)
		assert.Error(t, errPass)
		assert.Equal(t, errUser.Error(), errPass.Error())
		assert.Equal(t, 401, apperrors.StatusOf(errUser))
	})

	t.Run("DeactivatedUserCannotLogin", func(t *testing.T) {
		authSvc, dirSvc := setup(t)
		u, err := dirSvc.CreateUser(service.CreateUserInput{Username: "jdoe", Password: "secret1"})
		assert.NoError(t, err)

		inactive := false
		_, err = dirSvc.UpdateUser(u.ID, service.UserUpdate{IsActive: &inactive})
		assert.NoError(t, err)

		_, _, err = authSvc.Login("jdoe", "secret1")
		assert.Error(t, err)
		assert.Equal(t, 401, apperrors.StatusOf(err))
	})

	t.Run("DeactivationRevokesOutstandingTokens", func(t *testing.T) {
		authSvc, dirSvc := setup(t)
		u, err := dirSvc.CreateUser(service.CreateUserInput{Username: "jdoe", Password: "secret1"})
		assert.NoError(t, err)
		token, _, err := authSvc.Login("jdoe", "secret1")
		assert.NoError(t, err)

		inactive := false
		_, err = dirSvc.UpdateUser(u.ID, service.UserUpdate{IsActive: &inactive})
		assert.NoError(t, err)

		_, err = authSvc.Authenticate(token)
		assert.Error(t, err)
		assert.Equal(t, 401, apperrors.StatusOf(err))
	})

	t.Run("GarbageToken", func(t *testing.T) {
		authSvc, _ := setup(t)
		_, err := authSvc.Authenticate("not.a.token")
		assert.Error(t, err)
		assert.Equal(t, 401, apperrors.StatusOf(err))
	})

	t.Run("TokenSignedWithDifferentSecret", func(t *testing.T) {
		authSvc, dirSvc := setup(t)
		_, err := dirSvc.CreateUser(service.CreateUserInput{Username: "jdoe", Password: "secret1"})
		assert.NoError(t, err)

		forged, err := auth.NewTokenIssuer("other-secret", time.Hour).Issue("jdoe", "admin")
		assert.NoError(t, err)
		_, err = authSvc.Authenticate(forged)
		assert.Error(t, err)
		assert.Equal(t, 401, apperrors.StatusOf(err))
	})
}
