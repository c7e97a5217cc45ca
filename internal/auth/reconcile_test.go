package auth

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dirauth/dirauth/internal/db/models"
	"github.com/dirauth/dirauth/internal/directory"
)

func adaIdentity(groups ...string) *directory.Identity {
	return &directory.Identity{
		DN:     "uid=ada,ou=people,dc=example,dc=org",
		Email:  "Ada@Example.org",
		Name:   "Ada Lovelace",
		Groups: groups,
	}
}

func TestReconcileDirectory_CreateThenUpdate(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	r := NewReconciler(db, nil)
	cfg := dirConfig(func(c *directory.Config) { c.AdminGroup = "admins" })

	first, err := r.ReconcileDirectory(ctx, cfg, adaIdentity("cn=admins,ou=groups,dc=example,dc=org"), false)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "ada@example.org", first.User.Email)
	assert.Equal(t, "Ada", first.User.Nickname)
	assert.Equal(t, models.AuthSourceLDAP, first.User.AuthSource)
	assert.True(t, first.User.IsAdmin())
	assert.Contains(t, first.User.Avatar, "data:image/svg+xml;base64,")
	assert.Equal(t, models.VisibilityAll, findPermission(t, db, first.User.ID).Visibility)

	second, err := r.ReconcileDirectory(ctx, cfg, adaIdentity("cn=staff,ou=groups,dc=example,dc=org"), false)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.True(t, second.User.IsAdmin(), "admin is kept while sync is off")

	var records []models.AuthRecord
	require.NoError(t, db.Where("user_id = ? AND type = ?", first.User.ID, models.AuthTypeLDAP).Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, models.SecretLDAP, records[0].Secret)

	var meta map[string][]string
	require.NoError(t, json.Unmarshal(records[0].Meta, &meta))
	assert.Equal(t, []string{"cn=staff,ou=groups,dc=example,dc=org"}, meta["ldap_groups"])
}

func TestReconcileDirectory_AdminSync(t *testing.T) {
	testCases := []struct {
		name        string
		adminGroup  string
		sync        bool
		startAdmin  bool
		groups      []string
		expectAdmin bool
	}{
		{name: "revoked with sync", adminGroup: "admins", sync: true, startAdmin: true, groups: []string{"staff"}},
		{
			name: "kept without sync", adminGroup: "admins", startAdmin: true,
			groups: []string{"staff"}, expectAdmin: true,
		},
		{
			name: "granted with sync", adminGroup: "admins", sync: true,
			groups: []string{"cn=Admins,dc=x"}, expectAdmin: true,
		},
		{name: "no admin group leaves roles alone", sync: true, startAdmin: true, expectAdmin: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			db := setupTestDB(t)

			require.NoError(t, db.Create(&models.User{
				Email:      "ada@example.org",
				Roles:      rolesFor(tc.startAdmin),
				AuthSource: models.AuthSourceLDAP,
			}).Error)

			cfg := dirConfig(func(c *directory.Config) {
				c.AdminGroup = tc.adminGroup
				c.SyncAdminGroup = tc.sync
			})

			res, err := NewReconciler(db, nil).ReconcileDirectory(ctx, cfg, adaIdentity(tc.groups...), false)
			require.NoError(t, err)
			assert.Equal(t, tc.expectAdmin, res.User.IsAdmin())
			ada := findUser(t, db, "ada@example.org")
			assert.Equal(t, tc.expectAdmin, ada.IsAdmin())
		})
	}
}

func TestReconcileDirectory_Provisioning(t *testing.T) {
	ctx := context.Background()
	noAutoCreate := dirConfig(func(c *directory.Config) { c.AutoCreateUser = boolPtr(false) })

	t.Run("auto create off", func(t *testing.T) {
		db := setupTestDB(t)

		_, err := NewReconciler(db, nil).ReconcileDirectory(ctx, noAutoCreate, adaIdentity(), false)
		require.ErrorIs(t, err, ErrNoLocalAccount)

		var n int64
		require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
		assert.Zero(t, n)
	})

	t.Run("sync ignores auto create", func(t *testing.T) {
		res, err := NewReconciler(setupTestDB(t), nil).ReconcileDirectory(ctx, noAutoCreate, adaIdentity(), true)
		require.NoError(t, err)
		assert.True(t, res.Created)
	})

	t.Run("disabled account", func(t *testing.T) {
		db := setupTestDB(t)
		require.NoError(t, db.Create(&models.User{Email: "ada@example.org", IsDisabled: true}).Error)

		r := NewReconciler(db, nil)

		_, err := r.ReconcileDirectory(ctx, dirConfig(nil), adaIdentity(), false)
		require.ErrorIs(t, err, ErrAccountDisabled)

		res, err := r.ReconcileDirectory(ctx, dirConfig(nil), adaIdentity(), true)
		require.NoError(t, err)
		assert.False(t, res.Created)
	})

	t.Run("directory avatar wins", func(t *testing.T) {
		id := adaIdentity()
		id.Avatar = "data:image/png;base64,AAAA"

		res, err := NewReconciler(setupTestDB(t), nil).ReconcileDirectory(ctx, dirConfig(nil), id, false)
		require.NoError(t, err)
		assert.Equal(t, id.Avatar, res.User.Avatar)
	})
}

func TestReconciler_CreateRace(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	r := NewReconciler(db, nil)

	res, err := r.ReconcileDirectory(ctx, dirConfig(nil), adaIdentity(), false)
	require.NoError(t, err)

	record, err := groupRecord(models.AuthTypeLDAP, models.SecretLDAP, "ldap_groups", []string{})
	require.NoError(t, err)

	winner, created, err := r.create(ctx, &models.User{Email: "ada@example.org", Roles: models.Roles{}}, record)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, res.User.ID, winner.ID)

	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

// insertAfterFirstLookup provisions competitor right after the first user
// lookup, so the reconciler loses the create race to it.
func insertAfterFirstLookup(t *testing.T, db *gorm.DB, competitor *models.User) {
	t.Helper()

	fired := false

	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:competitor", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "users" {
			return
		}

		fired = true

		require.NoError(t, db.Session(&gorm.Session{NewDB: true}).Create(competitor).Error)
	}))
}

func TestReconciler_CreateRaceDisabledWinner(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name      string
		reconcile func(r *Reconciler) error
	}{
		{
			name: "directory",
			reconcile: func(r *Reconciler) error {
				_, err := r.ReconcileDirectory(ctx, dirConfig(nil), adaIdentity(), false)

				return err
			},
		},
		{
			name: "sso",
			reconcile: func(r *Reconciler) error {
				cfg := dirConfig(func(c *directory.Config) { c.SSOEnabled = true })
				_, err := r.ReconcileSSO(ctx, cfg, SSOHeaders{Email: "ada@example.org"})

				return err
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db := setupTestDB(t)
			insertAfterFirstLookup(t, db, &models.User{Email: "ada@example.org", Roles: models.Roles{}, IsDisabled: true})

			require.ErrorIs(t, tc.reconcile(NewReconciler(db, nil)), ErrAccountDisabled)

			var n int64
			require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
			assert.Equal(t, int64(1), n)
		})
	}
}

func TestReconcileSSO(t *testing.T) {
	ctx := context.Background()
	cfg := dirConfig(func(c *directory.Config) { c.SSOEnabled = true })

	t.Run("first user bootstraps admin", func(t *testing.T) {
		db := setupTestDB(t)

		res, err := NewReconciler(db, nil).ReconcileSSO(ctx, cfg, SSOHeaders{Email: "First@Example.org"})
		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.True(t, res.User.IsAdmin())
		assert.Equal(t, "first", res.User.Name)
		assert.Equal(t, models.AuthSourceSSO, res.User.AuthSource)
		assert.Equal(t, models.VisibilityAll, findPermission(t, db, res.User.ID).Visibility)
	})

	t.Run("later users are not admin", func(t *testing.T) {
		db := setupTestDB(t)
		seedAdmin(t, db)

		res, err := NewReconciler(db, nil).ReconcileSSO(ctx, cfg, SSOHeaders{Email: "bob@example.org", Name: "Bob"})
		require.NoError(t, err)
		assert.False(t, res.User.IsAdmin())
		assert.Equal(t, models.VisibilityUser, findPermission(t, db, res.User.ID).Visibility)
	})

	t.Run("admin grant is monotonic without sync", func(t *testing.T) {
		db := setupTestDB(t)
		seedAdmin(t, db)
		r := NewReconciler(db, nil)

		_, err := r.ReconcileSSO(ctx, cfg, SSOHeaders{Email: "bob@example.org"})
		require.NoError(t, err)

		res, err := r.ReconcileSSO(ctx, cfg, SSOHeaders{Email: "bob@example.org", Groups: "users, admins"})
		require.NoError(t, err)
		assert.False(t, res.Created)
		assert.True(t, res.User.IsAdmin())
		assert.Equal(t, models.VisibilityAll, findPermission(t, db, res.User.ID).Visibility)

		res, err = r.ReconcileSSO(ctx, cfg, SSOHeaders{Email: "bob@example.org", Groups: "users"})
		require.NoError(t, err)
		assert.True(t, res.User.IsAdmin())
	})

	t.Run("sync revokes admin", func(t *testing.T) {
		db := setupTestDB(t)
		seedAdmin(t, db)
		r := NewReconciler(db, nil)
		syncCfg := cfg
		syncCfg.SyncAdminGroup = true

		_, err := r.ReconcileSSO(ctx, syncCfg, SSOHeaders{Email: "bob@example.org", Groups: "admins"})
		require.NoError(t, err)

		res, err := r.ReconcileSSO(ctx, syncCfg, SSOHeaders{Email: "bob@example.org", Groups: "users"})
		require.NoError(t, err)
		assert.False(t, res.User.IsAdmin())
		bob := findUser(t, db, "bob@example.org")
		assert.False(t, bob.IsAdmin())
	})

	t.Run("revoking the last admin promotes again", func(t *testing.T) {
		db := setupTestDB(t)
		r := NewReconciler(db, nil)
		syncCfg := cfg
		syncCfg.SyncAdminGroup = true

		_, err := r.ReconcileSSO(ctx, syncCfg, SSOHeaders{Email: "only@example.org", Groups: "admins"})
		require.NoError(t, err)

		res, err := r.ReconcileSSO(ctx, syncCfg, SSOHeaders{Email: "only@example.org", Groups: "users"})
		require.NoError(t, err)
		assert.True(t, res.User.IsAdmin())
	})

	t.Run("admin email allowlist", func(t *testing.T) {
		db := setupTestDB(t)
		seedAdmin(t, db)
		allow := cfg
		allow.SSOAdminEmails = "Boss@Example.org, other@example.org"

		res, err := NewReconciler(db, nil).ReconcileSSO(ctx, allow, SSOHeaders{Email: "boss@example.org"})
		require.NoError(t, err)
		assert.True(t, res.User.IsAdmin())
	})

	t.Run("groups fall back to the directory", func(t *testing.T) {
		db := setupTestDB(t)
		seedAdmin(t, db)
		dir := &fakeDirectory{groups: map[string][]string{"bob@example.org": {"cn=admins,ou=groups,dc=x"}}}

		res, err := NewReconciler(db, dir).ReconcileSSO(ctx, cfg, SSOHeaders{Email: "bob@example.org"})
		require.NoError(t, err)
		assert.True(t, res.User.IsAdmin())

		var record models.AuthRecord
		require.NoError(t, db.Where("user_id = ? AND type = ?", res.User.ID, models.AuthTypeSSO).First(&record).Error)
		assert.Contains(t, string(record.Meta), "cn=admins,ou=groups,dc=x")
	})

	t.Run("disabled user", func(t *testing.T) {
		db := setupTestDB(t)
		require.NoError(t, db.Create(&models.User{Email: "bob@example.org", IsDisabled: true}).Error)

		_, err := NewReconciler(db, nil).ReconcileSSO(ctx, cfg, SSOHeaders{Email: "bob@example.org"})
		require.ErrorIs(t, err, ErrAccountDisabled)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := NewReconciler(setupTestDB(t), nil).ReconcileSSO(ctx, cfg, SSOHeaders{Email: "not-an-email"})
		require.ErrorIs(t, err, ErrSSOInvalidEmail)
	})
}

func seedAdmin(t *testing.T, db *gorm.DB) {
	t.Helper()

	require.NoError(t, db.Create(&models.User{
		Email:      "root@example.org",
		Roles:      models.Roles{models.RoleAdmin},
		AuthSource: models.AuthSourceInternal,
	}).Error)
}
