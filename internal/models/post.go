package models

import (
	"time"

	"gorm.io/gorm"
)

// Community groups a post can be filed under.
const (
	GroupDietFitness  = "Diet & Fitness for PCOS"
	GroupAskTheDoctor = "Ask the Doctor"
	GroupMindBody     = "Mind & Body Wellness"
	GroupMotivation   = "Motivation & Stories"
	GroupFertility    = "PCOS & Fertility Planning"
	GroupSupplements  = "Supplements"
	GroupRecipes      = "Recipes & Meal Plans"
	GroupGeneral      = "General"
	GroupAll          = "all"
)

// PostGroups lists every valid community group.
var PostGroups = []string{
	GroupDietFitness,
	GroupAskTheDoctor,
	GroupMindBody,
	GroupMotivation,
	GroupFertility,
	GroupSupplements,
	GroupRecipes,
	GroupGeneral,
}

// IsValidGroup reports whether g is one of PostGroups.
func IsValidGroup(g string) bool {
	for _, group := range PostGroups {
		if group == g {
			return true
		}
	}
	return false
}

// Post represents a community post.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   uint   `gorm:"not null;index" json:"userId"`
	User     User   `gorm:"foreignKey:UserID" json:"user"`
	Content  string `gorm:"type:text;not null" json:"content"`
	Group    string `gorm:"column:group_name;not null;index" json:"group"`
	ImageURL string `json:"imageUrl,omitempty"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likesCount"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->" json:"commentsCount"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool           `gorm:"->" json:"liked"`
	CreatedAt time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Like is one membership of a post's like set.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"userId"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post;index" json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment represents a reply to a post.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PostID    uint           `gorm:"not null;index" json:"postId"`
	UserID    uint           `gorm:"not null;index" json:"userId"`
	User      User           `gorm:"foreignKey:UserID" json:"user"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
