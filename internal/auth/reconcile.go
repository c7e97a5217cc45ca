package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dirauth/dirauth/internal/db/models"
	"github.com/dirauth/dirauth/internal/directory"
)

// Directory is the part of the directory client authentication depends on.
type Directory interface {
	Config(ctx context.Context) (directory.Config, error)
	Authenticate(ctx context.Context, username, password string) (*directory.Identity, error)
	LookupGroupsByEmail(ctx context.Context, email string) []string
	SearchAll(ctx context.Context) ([]directory.Identity, error)
}

// Reconciled is the outcome of a reconciliation.
type Reconciled struct {
	User    *models.User
	Created bool
}

// Reconciler maps directory and SSO identities onto local users.
type Reconciler struct {
	db  *gorm.DB
	dir Directory
}

// NewReconciler creates a reconciler. dir is consulted for SSO group fallback and may be nil.
func NewReconciler(db *gorm.DB, dir Directory) *Reconciler {
	return &Reconciler{db: db, dir: dir}
}

// ReconcileDirectory provisions or updates the local user for a directory identity.
// In sync mode the auto-create flag and the disabled check are ignored.
func (r *Reconciler) ReconcileDirectory(
	ctx context.Context,
	cfg directory.Config,
	id *directory.Identity,
	sync bool,
) (*Reconciled, error) {
	email := models.CanonicalEmail(id.Email)

	user, err := r.findUser(ctx, email)
	if err != nil {
		return nil, err
	}

	if user != nil && user.IsDisabled && !sync {
		return nil, ErrAccountDisabled
	}

	groups := id.Groups
	if groups == nil {
		groups = []string{}
	}

	avatar := id.Avatar
	if avatar == "" {
		avatar = GenerateAvatar(email, id.Name)
	}

	record, err := groupRecord(models.AuthTypeLDAP, models.SecretLDAP, "ldap_groups", groups)
	if err != nil {
		return nil, err
	}

	if user == nil {
		if !sync && !cfg.AutoCreate() {
			return nil, ErrNoLocalAccount
		}

		winner, created, err := r.create(ctx, &models.User{
			Email:      email,
			Name:       id.Name,
			Nickname:   models.Nickname(id.Name, "LDAP User"),
			Avatar:     avatar,
			Roles:      rolesFor(DirectoryAdminMatch(groups, cfg.AdminGroup)),
			AuthSource: models.AuthSourceLDAP,
		}, record)
		if err != nil {
			return nil, err
		}

		if created {
			return &Reconciled{User: winner, Created: true}, nil
		}

		if winner.IsDisabled && !sync {
			return nil, ErrAccountDisabled
		}

		user = winner
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user.Name = id.Name
		user.Avatar = avatar
		user.AuthSource = models.AuthSourceLDAP

		if cfg.AdminGroup != "" && cfg.SyncAdminGroup {
			user.Roles = syncAdmin(user.Roles, DirectoryAdminMatch(groups, cfg.AdminGroup))
		}

		if err := saveProfile(tx, user); err != nil {
			return err
		}

		record.UserID = user.ID

		return upsertRecord(tx, record, "meta")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", email, err)
	}

	return &Reconciled{User: user}, nil
}

// ReconcileSSO provisions or updates the local user for trusted proxy headers.
// Admin is granted whenever groups or the email allowlist match, revoked only when
// sync is enabled, and granted to anyone while no administrator exists.
func (r *Reconciler) ReconcileSSO(ctx context.Context, cfg directory.Config, h SSOHeaders) (*Reconciled, error) {
	email, err := h.CanonicalEmail()
	if err != nil {
		return nil, err
	}

	user, err := r.findUser(ctx, email)
	if err != nil {
		return nil, err
	}

	if user != nil && user.IsDisabled {
		return nil, ErrAccountDisabled
	}

	groups := r.resolveGroups(ctx, h, email)
	match := SSOAdminMatch(groups, cfg.AdminGroup) || AdminEmailMatch(email, cfg.AdminEmails())

	record, err := groupRecord(models.AuthTypeSSO, models.SecretSSO, "sso_groups", groups)
	if err != nil {
		return nil, err
	}

	if user == nil {
		local, _, _ := strings.Cut(email, "@")
		name := h.DisplayName(local)

		admin := match
		if !admin {
			n, err := countAdmins(r.db.WithContext(ctx))
			if err != nil {
				return nil, err
			}

			admin = n == 0
		}

		winner, created, err := r.create(ctx, &models.User{
			Email:      email,
			Name:       name,
			Nickname:   models.Nickname(name, "SSO User"),
			Avatar:     GenerateAvatar(email, name),
			Roles:      rolesFor(admin),
			AuthSource: models.AuthSourceSSO,
		}, record)
		if err != nil {
			return nil, err
		}

		if created {
			return &Reconciled{User: winner, Created: true}, nil
		}

		if winner.IsDisabled {
			return nil, ErrAccountDisabled
		}

		user = winner
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user.Name = h.DisplayName(user.Name)
		user.Avatar = GenerateAvatar(email, user.Name)

		if user.AuthSource == "" {
			user.AuthSource = models.AuthSourceSSO
		}

		elevate := false

		switch {
		case match && !user.IsAdmin():
			user.Roles = user.Roles.With(models.RoleAdmin)
			elevate = true
		case cfg.SyncAdminGroup && !match && user.IsAdmin():
			user.Roles = user.Roles.Without(models.RoleAdmin)
		}

		if err := saveProfile(tx, user); err != nil {
			return err
		}

		if !user.IsAdmin() {
			n, err := countAdmins(tx)
			if err != nil {
				return err
			}

			if n == 0 {
				log.Info().Str("email", email).Msg("no administrator left, promoting SSO user")

				user.Roles = user.Roles.With(models.RoleAdmin)
				elevate = true

				if err := saveProfile(tx, user); err != nil {
					return err
				}
			}
		}

		if elevate {
			if err := tx.Model(&models.UserPermission{}).Where("user_id = ?", user.ID).
				Update("visibility", models.VisibilityAll).Error; err != nil {
				return err
			}
		}

		record.UserID = user.ID

		return upsertRecord(tx, record, "meta")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", email, err)
	}

	return &Reconciled{User: user}, nil
}

// resolveGroups prefers the header groups and falls back to a directory lookup.
func (r *Reconciler) resolveGroups(ctx context.Context, h SSOHeaders, email string) []string {
	groups := h.GroupList()
	if len(groups) > 0 || r.dir == nil {
		return groups
	}

	groups = r.dir.LookupGroupsByEmail(ctx, email)
	if len(groups) > 0 {
		log.Info().Str("email", email).Strs("groups", groups).Msg("SSO groups resolved via LDAP")
	} else {
		log.Debug().Str("email", email).Msg("no SSO groups found via LDAP")
	}

	return groups
}

// findUser returns the non-deleted user with email, or nil.
func (r *Reconciler) findUser(ctx context.Context, email string) (*models.User, error) {
	var user models.User

	err := r.db.WithContext(ctx).Where("email = ? AND is_deleted = ?", email, false).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil //nolint:nilnil // absent user
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// create provisions user. When a concurrent login created the same email first,
// the stored user is returned with created=false so the caller can update it.
func (r *Reconciler) create(
	ctx context.Context,
	user *models.User,
	record *models.AuthRecord,
) (*models.User, bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return provision(tx, user, record)
	})
	if err == nil {
		log.Info().Str("email", user.Email).Str("source", string(user.AuthSource)).Msg("user provisioned")

		return user, true, nil
	}

	existing, findErr := r.findUser(ctx, user.Email)
	if findErr != nil || existing == nil {
		return nil, false, fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}

	log.Warn().Err(err).Str("email", user.Email).Msg("user was provisioned concurrently, updating instead")

	return existing, false, nil
}

// provision inserts user, its auth record and its default permissions.
func provision(tx *gorm.DB, user *models.User, record *models.AuthRecord) error {
	if err := tx.Create(user).Error; err != nil {
		return err
	}

	record.UserID = user.ID
	if err := tx.Create(record).Error; err != nil {
		return err
	}

	return tx.Create(&models.UserPermission{
		UserID:     user.ID,
		Visibility: models.VisibilityFor(user.IsAdmin()),
		Access:     models.PermissionManage,
	}).Error
}

// upsertRecord inserts record or, when the user already has one of that type, updates columns.
func upsertRecord(tx *gorm.DB, record *models.AuthRecord, columns ...string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns(append(columns, "updated_at")),
	}).Create(record).Error
}

func saveProfile(tx *gorm.DB, user *models.User) error {
	return tx.Model(user).Select("name", "avatar", "auth_source", "roles").Updates(user).Error
}

// countAdmins counts non-deleted users holding the admin role.
func countAdmins(tx *gorm.DB) (int64, error) {
	var n int64

	err := tx.Model(&models.User{}).
		Where("is_deleted = ? AND roles LIKE ?", false, `%"`+models.RoleAdmin+`"%`).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count administrators: %w", err)
	}

	return n, nil
}

func groupRecord(typ models.AuthType, secret, key string, groups []string) (*models.AuthRecord, error) {
	meta, err := json.Marshal(map[string][]string{key: groups})
	if err != nil {
		return nil, fmt.Errorf("failed to encode auth meta: %w", err)
	}

	return &models.AuthRecord{Type: typ, Secret: secret, Meta: datatypes.JSON(meta)}, nil
}

func rolesFor(admin bool) models.Roles {
	if admin {
		return models.Roles{models.RoleAdmin}
	}

	return models.Roles{}
}

func syncAdmin(roles models.Roles, admin bool) models.Roles {
	switch {
	case admin && !roles.Has(models.RoleAdmin):
		return roles.With(models.RoleAdmin)
	case !admin && roles.Has(models.RoleAdmin):
		return roles.Without(models.RoleAdmin)
	}

	return roles
}
