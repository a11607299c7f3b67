package models

import "time"

// Follow is a directed subscription edge: UserID follows AuthorID.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_follows_pair" json:"user_id"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_follows_pair;index" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`

	User   User `gorm:"foreignKey:UserID" json:"-"`
	Author User `gorm:"foreignKey:AuthorID" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
