package services

import (
	"testing"

	"github.com/dhelicopters/pubquiz/internal/models"
	"github.com/dhelicopters/pubquiz/internal/quizerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	db := setupDB(t)
	s := NewAuthService(db, "test-secret")

	token, err := s.Register("quizmaster", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	id, err := s.ValidateToken(token)
	require.NoError(t, err)

	var account models.Account
	require.NoError(t, db.First(&account, id).Error)
	assert.Equal(t, "quizmaster", account.Username)
	assert.NotEqual(t, "hunter2", account.PasswordHash)

	token, err = s.Login("quizmaster", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := setupDB(t)
	s := NewAuthService(db, "test-secret")

	_, err := s.Register("quizmaster", "hunter2")
	require.NoError(t, err)

	_, err = s.Register("quizmaster", "other")
	assert.True(t, quizerr.IsKind(err, quizerr.KindConflict))
}

func TestLoginInvalidCredentials(t *testing.T) {
	db := setupDB(t)
	s := NewAuthService(db, "test-secret")

	_, err := s.Register("quizmaster", "hunter2")
	require.NoError(t, err)

	_, err = s.Login("quizmaster", "wrong")
	assert.True(t, quizerr.IsKind(err, quizerr.KindForbidden))

	_, err = s.Login("nobody", "hunter2")
	assert.True(t, quizerr.IsKind(err, quizerr.KindForbidden))
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	db := setupDB(t)
	s := NewAuthService(db, "test-secret")
	other := NewAuthService(db, "other-secret")

	token, err := s.Register("quizmaster", "hunter2")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestGuardOwnership(t *testing.T) {
	guard := NewAuthorizationGuard()
	quiz := &models.Quiz{OwnerID: 7}

	assert.True(t, guard.IsOwner(7, quiz))
	assert.False(t, guard.IsOwner(8, quiz))
	assert.False(t, guard.IsOwner(0, quiz))
	assert.False(t, guard.IsOwner(7, nil))

	assert.NoError(t, guard.RequireOwner(7, quiz))
	err := guard.RequireOwner(8, quiz)
	assert.True(t, quizerr.IsKind(err, quizerr.KindForbidden))
}
