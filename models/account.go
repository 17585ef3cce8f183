package models

import (
	"gorm.io/gorm"
)

// Account represents a platform user account
type Account struct {
	gorm.Model

	// Authentication fields
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Plan information
	PlanType string `gorm:"default:'basic'" json:"plan_type"`

	// Account status
	IsActive bool `gorm:"default:true" json:"is_active"`

	// Relations
	Sessions   []TelegramSession `gorm:"foreignKey:AccountID" json:"sessions,omitempty"`
	Campaigns  []Campaign        `gorm:"foreignKey:AccountID" json:"campaigns,omitempty"`
	Categories []Category        `gorm:"foreignKey:AccountID" json:"categories,omitempty"`
}
