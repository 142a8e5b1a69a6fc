package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the minimal account row the order subsystem validates against.
type User struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Mobile      *string   `gorm:"column:mobile;uniqueIndex"`
	Name        string    `gorm:"column:name;not null"`
	Email       *string   `gorm:"column:email"`
	MemberLevel int       `gorm:"column:member_level;not null;default:0"`
	Points      int64     `gorm:"column:points;not null;default:0"`
	Status      string    `gorm:"column:status;not null;default:'active'"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
