package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Username     string         `json:"username" gorm:"size:64;not null;uniqueIndex"`
	Email        string         `json:"email" gorm:"size:120;not null;uniqueIndex"`
	PasswordHash string         `json:"-" gorm:"size:255;not null"`
	Surveys      []Survey       `json:"surveys,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
