package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/rfpdock/rfpdock/internal/config"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
	"github.com/rfpdock/rfpdock/internal/identity/password"
	"gorm.io/gorm"
)

// EnsureBootstrapAdmin creates the configured platform admin account if it
// does not exist yet. Without configured credentials the seed is a no-op;
// an existing account is never modified, so rotating the password in config
// does not rewrite it.
func EnsureBootstrapAdmin(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	email := strings.ToLower(strings.TrimSpace(cfg.BootstrapAdminEmail))
	if email == "" || cfg.BootstrapAdminPassword == "" {
		return nil
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user identitydomain.User
		err := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(cfg.BootstrapAdminPassword)
		if err != nil {
			return err
		}

		user = identitydomain.User{
			ID:           node.Generate(),
			Email:        email,
			PasswordHash: hashed,
			PlatformRole: identitydomain.RoleAdmin,
		}
		return tx.WithContext(ctx).Create(&user).Error
	})
}
