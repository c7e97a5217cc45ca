package daemon

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dirauth/dirauth/internal/auth"
	"github.com/dirauth/dirauth/internal/config"
	"github.com/dirauth/dirauth/internal/db/models"
	"github.com/dirauth/dirauth/internal/web/handler"
)

// seed creates the first administrator when the user table is empty.
func seed(ctx context.Context, cfg *config.Config, env *handler.Env) error {
	var count int64
	if err := env.DB.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}

	if count > 0 {
		return nil
	}

	password := cfg.Auth.AdminPassword
	generated := password == ""

	if generated {
		password = auth.GeneratePassword(auth.GeneratedPasswordLen)
	}

	user, err := env.Auth.Local().CreateUser(ctx, cfg.Auth.AdminEmail, "Administrator", password,
		models.Roles{models.RoleAdmin})
	if err != nil {
		return fmt.Errorf("failed to seed administrator: %w", err)
	}

	ev := log.Warn().Str("email", user.Email)
	if generated {
		ev = ev.Str("password", password)
	}

	ev.Msg("created initial administrator, change its password")

	return nil
}
