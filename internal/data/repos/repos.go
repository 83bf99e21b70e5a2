package repos

import (
	"gorm.io/gorm"

	"github.com/pyplots/pyplots-backend/internal/platform/logger"
)

// Set bundles the catalog repositories for wiring.
type Set struct {
	Specs           SpecRepo
	Libraries       LibraryRepo
	Implementations ImplementationRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Specs:           NewSpecRepo(db, log),
		Libraries:       NewLibraryRepo(db, log),
		Implementations: NewImplementationRepo(db, log),
	}
}
