package project

import (
	"encoding/json"
	"time"
)

// StoryPage is one page of an editable project. Ids are stable for the life
// of the page; deleting a sibling leaves the remaining ids and positions
// untouched.
type StoryPage struct {
	ID        string    `gorm:"primaryKey;size:26" json:"id"`
	ProjectID string    `gorm:"size:26;index;not null" json:"-"`
	Position  int       `gorm:"not null" json:"position"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Image     string    `gorm:"type:varchar(255);not null" json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StoryPage) TableName() string { return "story_pages" }

type StoryProject struct {
	ID         string      `gorm:"primaryKey;size:26" json:"id"`
	OwnerID    uint64      `gorm:"index;not null" json:"-"`
	Title      string      `gorm:"type:varchar(255);not null" json:"title"`
	AuthorName string      `gorm:"type:varchar(128);not null" json:"author_name"`
	CoverImage *string     `gorm:"type:varchar(255)" json:"cover_image,omitempty"`
	Pages      []StoryPage `gorm:"foreignKey:ProjectID" json:"pages"`
	IsPublic   bool        `gorm:"not null;default:false" json:"is_public"`
	ShareToken *string     `gorm:"type:varchar(36);uniqueIndex" json:"share_token,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (StoryProject) TableName() string { return "story_projects" }

// VersionPage is the snapshot form of a page inside a StoryVersion.
type VersionPage struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Image string `json:"image"`
}

// StoryVersion is an immutable pre-update snapshot of a project. Pages are
// serialized as an independent JSON copy so the snapshot survives any later
// mutation or deletion of the live page rows.
type StoryVersion struct {
	ID         string    `gorm:"primaryKey;size:26" json:"id"`
	ProjectID  string    `gorm:"size:26;index;not null" json:"project_id"`
	Title      string    `gorm:"type:varchar(255);not null" json:"title"`
	AuthorName string    `gorm:"type:varchar(128);not null" json:"author_name"`
	CoverImage *string   `gorm:"type:varchar(255)" json:"cover_image,omitempty"`
	PagesJSON  []byte    `gorm:"type:json" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

func (StoryVersion) TableName() string { return "story_versions" }

// Pages decodes the snapshot's page copy.
func (v *StoryVersion) Pages() ([]VersionPage, error) {
	if len(v.PagesJSON) == 0 {
		return nil, nil
	}
	var pages []VersionPage
	if err := json.Unmarshal(v.PagesJSON, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}
