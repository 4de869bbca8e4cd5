package models

import (
	"time"

	"gorm.io/gorm"
)

// Like records that a user liked a post.
type Like struct {
	UserID uint `json:"user"`
}

// Comment is a reply to a post. Name and Avatar are copied from the author when
// the comment is written and are not kept in sync afterwards.
type Comment struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user"`
	Text      string    `json:"text"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"date"`
}

// Post is a status update. Likes and comments are stored newest first inside
// the post row; Name and Avatar are a snapshot of the author at creation time.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	Likes     []Like    `gorm:"serializer:json;type:text" json:"likes"`
	Comments  []Comment `gorm:"serializer:json;type:text" json:"comments"`
	Version   uint      `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"date"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LikedBy reports whether userID is in the like set.
func (p *Post) LikedBy(userID uint) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// CommentIndex returns the position of the comment with the given id, or -1.
func (p *Post) CommentIndex(id string) int {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return i
		}
	}
	return -1
}

// AfterFind makes empty collections serialize as [] rather than null.
func (p *Post) AfterFind(*gorm.DB) error {
	if p.Likes == nil {
		p.Likes = []Like{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	return nil
}
