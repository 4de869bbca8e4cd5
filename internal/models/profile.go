package models

import (
	"time"

	"gorm.io/gorm"
)

// Social holds optional links to external networks.
type Social struct {
	YouTube   string `gorm:"column:youtube" json:"youTube,omitempty"`
	Twitter   string `gorm:"column:twitter" json:"twitter,omitempty"`
	LinkedIn  string `gorm:"column:linkedin" json:"linkedIn,omitempty"`
	Facebook  string `gorm:"column:facebook" json:"facebook,omitempty"`
	Instagram string `gorm:"column:instagram" json:"instagram,omitempty"`
}

// Experience is one entry of a profile's work history.
type Experience struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	From        time.Time  `json:"from"`
	To          *time.Time `json:"to,omitempty"`
	Current     bool       `json:"current"`
	Description string     `json:"description,omitempty"`
}

// Education is one entry of a profile's education history.
type Education struct {
	ID           string     `json:"id"`
	School       string     `json:"school"`
	Degree       string     `json:"degree"`
	FieldOfStudy string     `json:"fieldOfStudy"`
	From         time.Time  `json:"from"`
	To           *time.Time `json:"to,omitempty"`
	Current      bool       `json:"current"`
	Description  string     `json:"description,omitempty"`
}

// Profile is the professional profile owned by exactly one user. Experience
// and education are stored newest first inside the profile row.
type Profile struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	UserID         uint         `gorm:"uniqueIndex;not null" json:"userId"`
	Owner          *Owner       `gorm:"-" json:"user,omitempty"`
	Company        string       `json:"company,omitempty"`
	Website        string       `json:"website,omitempty"`
	Location       string       `json:"location,omitempty"`
	Status         string       `gorm:"not null" json:"status"`
	Skills         []string     `gorm:"serializer:json;type:text" json:"skills"`
	Bio            string       `gorm:"type:text" json:"bio,omitempty"`
	GithubUsername string       `json:"githubUsername,omitempty"`
	Social         Social       `gorm:"embedded;embeddedPrefix:social_" json:"social"`
	Experience     []Experience `gorm:"serializer:json;type:text" json:"experience"`
	Education      []Education  `gorm:"serializer:json;type:text" json:"education"`
	Version        uint         `gorm:"not null;default:0" json:"-"`
	CreatedAt      time.Time    `json:"date"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// ExperienceIndex returns the position of the entry with the given id, or -1.
func (p *Profile) ExperienceIndex(id string) int {
	for i := range p.Experience {
		if p.Experience[i].ID == id {
			return i
		}
	}
	return -1
}

// EducationIndex returns the position of the entry with the given id, or -1.
func (p *Profile) EducationIndex(id string) int {
	for i := range p.Education {
		if p.Education[i].ID == id {
			return i
		}
	}
	return -1
}

// AfterFind makes empty collections serialize as [] rather than null.
func (p *Profile) AfterFind(*gorm.DB) error {
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Experience == nil {
		p.Experience = []Experience{}
	}
	if p.Education == nil {
		p.Education = []Education{}
	}
	return nil
}
