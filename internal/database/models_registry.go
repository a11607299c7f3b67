package database

import "yatube/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for AutoMigrate: referenced tables come first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
	}
}

// TruncateOrder lists tables children-first, for test cleanup and the seed reset.
func TruncateOrder() []string {
	return []string{"comments", "follows", "posts", "groups", "users"}
}
