package models

import "time"

// postPreviewLen is the number of characters shown when a post is printed.
const postPreviewLen = 15

// Post is a user-authored text entry, optionally grouped and illustrated.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"author"`
	GroupID   *uint     `gorm:"index" json:"group_id,omitempty"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	Image     string    `gorm:"size:255;not null;default:''" json:"image,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Post) TableName() string {
	return "posts"
}

func (p Post) String() string {
	runes := []rune(p.Text)
	if len(runes) > postPreviewLen {
		return string(runes[:postPreviewLen])
	}
	return p.Text
}

// HasImage reports whether an image is attached.
func (p Post) HasImage() bool {
	return p.Image != ""
}
