package models

import (
	"time"

	"gorm.io/gorm"
)

// Site is the tenant boundary. Email and phone number uniqueness is scoped
// per site: two users of different sites may share a credential value.
type Site struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Domain string `gorm:"size:250;not null;uniqueIndex" json:"domain"`
	Name   string `gorm:"size:100;not null;default:''" json:"name"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
