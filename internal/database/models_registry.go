package database

import "devconnect/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Experience, education, likes and comments live inside these rows.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Profile{},
		&models.Post{},
	}
}
