package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirauth/dirauth/internal/db/models"
)

func TestLocalProvider(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	p := NewLocalProvider(db)

	user, err := p.CreateUser(ctx, " Ada@Example.org ", "Ada Lovelace", "secret", nil)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.org", user.Email)
	assert.Equal(t, "Ada", user.Nickname)
	assert.Equal(t, models.AuthSourceInternal, user.AuthSource)
	assert.Equal(t, models.VisibilityUser, findPermission(t, db, user.ID).Visibility)

	_, err = p.CreateUser(ctx, "ADA@example.org", "Other", "x", nil)
	require.ErrorIs(t, err, ErrUserExists)

	testCases := []struct {
		name     string
		email    string
		password string
		ok       bool
	}{
		{name: "valid", email: "ada@example.org", password: "secret", ok: true},
		{name: "case insensitive email", email: "ADA@EXAMPLE.ORG", password: "secret", ok: true},
		{name: "wrong password", email: "ada@example.org", password: "Secret"},
		{name: "unknown user", email: "bob@example.org", password: "secret"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := p.Authenticate(ctx, tc.email, tc.password)
			if !tc.ok {
				require.ErrorIs(t, err, ErrInvalidCredentials)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
		})
	}
}

func TestLocalProvider_Inactive(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	p := NewLocalProvider(db)

	user, err := p.CreateUser(ctx, "ada@example.org", "Ada", "secret", nil)
	require.NoError(t, err)

	require.NoError(t, db.Model(user).Update("is_disabled", true).Error)

	_, err = p.Authenticate(ctx, "ada@example.org", "secret")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, db.Model(user).Updates(map[string]any{"is_disabled": false, "is_deleted": true}).Error)

	_, err = p.Authenticate(ctx, "ada@example.org", "secret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLocalProvider_SetPassword(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	p := NewLocalProvider(db)

	// directory users have no password record until one is set
	res, err := NewReconciler(db, nil).ReconcileDirectory(ctx, dirConfig(nil), adaIdentity(), false)
	require.NoError(t, err)

	_, err = p.Authenticate(ctx, "ada@example.org", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, p.SetPassword(ctx, res.User.ID, "first"))
	require.NoError(t, p.SetPassword(ctx, res.User.ID, "second"))

	_, err = p.Authenticate(ctx, "ada@example.org", "first")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	got, err := p.Authenticate(ctx, "ada@example.org", "second")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, got.ID)

	var n int64
	require.NoError(t, db.Model(&models.AuthRecord{}).
		Where("user_id = ? AND type = ?", res.User.ID, models.AuthTypePassword).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}
