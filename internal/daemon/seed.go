package daemon

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/dirsync/dirsync/internal/db/models"
)

const seedPassword = "changeme"

// ErrSeed is returned when the administrator does not get the reserved id.
var ErrSeed = errors.New("failed to seed administrator")

// seed creates the reserved administrator when the user table is empty.
func seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}

	if count > 0 {
		return nil
	}

	admin := models.User{
		Username:   "admin",
		Password:   models.HashPassword(seedPassword),
		Active:     true,
		AuthSource: models.AuthSourceLocal,
	}

	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed administrator: %w", err)
	}

	// the first row of an empty table gets the first id on every engine
	if admin.ID != models.ReservedUserID {
		return fmt.Errorf("%w: administrator seeded with id %d", ErrSeed, admin.ID)
	}

	log.Warn().Str("username", admin.Username).Msg("created the administrator account, change its password")

	return nil
}
