package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleAndStatusValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("superadmin").Valid())
	assert.False(t, Role("").Valid())

	for _, s := range []Status{StatusPending, StatusActive, StatusRejected} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("banned").Valid())
}

func TestPublicUserOmitsSecrets(t *testing.T) {
	token := "tok"
	expires := time.Now()
	u := &User{
		ID:                     "1",
		Name:                   "Alice",
		Email:                  "a@x.com",
		PasswordHash:           "$argon2id$secret",
		Role:                   RoleUser,
		Status:                 StatusPending,
		EmailVerificationToken: &token,
		ResetPasswordToken:     &token,
		ResetPasswordExpires:   &expires,
	}

	raw, err := json.Marshal(u.Public())
	require.NoError(t, err)

	body := string(raw)
	assert.NotContains(t, body, "argon2")
	assert.NotContains(t, body, "tok")
	assert.Contains(t, body, `"_id":"1"`)
	assert.Contains(t, body, `"isEmailVerified":false`)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.Com "))
}

func TestGenerationTypeIsVideo(t *testing.T) {
	assert.True(t, Type4KUpscale.IsVideo())
	assert.True(t, TypeBeautyFilter.IsVideo())
	assert.True(t, TypeVideoFilter.IsVideo())
	assert.False(t, TypeImageGeneration.IsVideo())
	assert.False(t, GenerationType("3d-character").IsVideo())
}
