package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/dirauth/dirauth/internal/auth"
	"github.com/dirauth/dirauth/internal/config"
	"github.com/dirauth/dirauth/internal/db/controller/ldapconfig"
	"github.com/dirauth/dirauth/internal/directory"
)

// Env carries the collaborators handlers are built from.
type Env struct {
	Config     *config.Config
	DB         *gorm.DB
	Auth       *auth.Service
	Directory  *directory.Directory
	LDAPConfig *ldapconfig.Store
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, env *Env) error
}
