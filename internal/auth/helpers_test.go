package auth

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dirauth/dirauth/internal/config"
	"github.com/dirauth/dirauth/internal/db/models"
	"github.com/dirauth/dirauth/internal/directory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// setupTestDB creates an in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...), "failed to migrate test database")

	return db
}

type fakeAccount struct {
	password string
	identity directory.Identity
}

// fakeDirectory serves a fixed configuration and account list.
type fakeDirectory struct {
	cfg       directory.Config
	accounts  map[string]fakeAccount
	authErr   error
	groups    map[string][]string
	all       []directory.Identity
	searchErr error
}

func (f *fakeDirectory) Config(context.Context) (directory.Config, error) {
	return f.cfg, nil
}

func (f *fakeDirectory) Authenticate(_ context.Context, username, password string) (*directory.Identity, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}

	acct, ok := f.accounts[username]
	if !ok {
		return nil, directory.ErrNotFound
	}

	if acct.password != password {
		return nil, directory.ErrBind
	}

	id := acct.identity

	return &id, nil
}

func (f *fakeDirectory) LookupGroupsByEmail(_ context.Context, email string) []string {
	if g, ok := f.groups[email]; ok {
		return g
	}

	return []string{}
}

func (f *fakeDirectory) SearchAll(context.Context) ([]directory.Identity, error) {
	return f.all, f.searchErr
}

func dirConfig(mutate func(c *directory.Config)) directory.Config {
	c := directory.DefaultConfig()
	c.Enabled = true
	c.AuthMode = directory.AuthModeLDAPOnly
	c.Host = "dc1"
	c.BaseDN = "ou=people,dc=example,dc=org"

	if mutate != nil {
		mutate(&c)
	}

	return c
}

func newTestService(t *testing.T, dir *fakeDirectory) (*Service, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)

	return NewService(db, dir, config.Auth{
		JWTSecret:       testSecret,
		Issuer:          "api",
		DefaultExpiry:   DefaultExpiry,
		ChallengeExpiry: ChallengeExpiry,
	}), db
}

func findUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()

	var u models.User
	require.NoError(t, db.Where("email = ?", email).First(&u).Error)

	return u
}

func findPermission(t *testing.T, db *gorm.DB, userID uint64) models.UserPermission {
	t.Helper()

	var p models.UserPermission
	require.NoError(t, db.Where("user_id = ?", userID).First(&p).Error)

	return p
}

func boolPtr(b bool) *bool { return &b }
