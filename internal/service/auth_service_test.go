package service

import (
	"testing"
	"time"

	"prevention_edu_backend/internal/config"
	"prevention_edu_backend/internal/model"
	"prevention_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(env *testEnv) *AuthService {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-not-for-production-use"
	cfg.JWT.ExpireTime = time.Hour
	return NewAuthService(env.userRepo, cfg)
}

func TestAuthRegisterHashesPassword(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)

	user := &model.User{
		FullName: "新用户",
		Email:    "new@test.local",
		Password: "plaintext-secret",
	}
	require.NoError(t, auth.Register(user))

	stored, err := env.userRepo.FindByEmail("new@test.local")
	require.NoError(t, err)
	assert.NotEqual(t, "plaintext-secret", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("plaintext-secret")))
	assert.Equal(t, model.Member, stored.Role)
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)

	first := &model.User{FullName: "甲", Email: "dup@test.local", Password: "secret-one"}
	require.NoError(t, auth.Register(first))

	second := &model.User{FullName: "乙", Email: "dup@test.local", Password: "secret-two"}
	assert.ErrorIs(t, auth.Register(second), util.ErrEmailRegistered)
}

func TestAuthLogin(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)

	user := &model.User{FullName: "登录用户", Email: "login@test.local", Password: "right-password"}
	require.NoError(t, auth.Register(user))

	token, err := auth.Login("login@test.local", "right-password")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := util.ParseJWT(token, "test-secret-not-for-production-use")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)

	_, err = auth.Login("login@test.local", "wrong-password")
	assert.ErrorIs(t, err, util.ErrUnauthorized)

	_, err = auth.Login("nobody@test.local", "whatever")
	assert.ErrorIs(t, err, util.ErrUnauthorized)
}

func TestAuthLoginDisabledUser(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)

	user := &model.User{FullName: "停用用户", Email: "blocked@test.local", Password: "secret-pass"}
	require.NoError(t, auth.Register(user))

	require.NoError(t, env.db.Model(&model.User{}).
		Where("id = ?", user.ID).Update("disabled", true).Error)

	_, err := auth.Login("blocked@test.local", "secret-pass")
	assert.ErrorIs(t, err, util.ErrUnauthorized)
}
