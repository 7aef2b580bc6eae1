package models

import (
	"time"
)

const DefaultCategory = "general"

// Dilemma is a binary-choice question other users vote on.
// TotalDenunciations is only ever changed by an atomic increment in the store.
type Dilemma struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Title              string    `gorm:"not null" json:"title"`
	Description        string    `gorm:"type:text;not null" json:"description"`
	OptionA            string    `gorm:"not null" json:"option_a"`
	OptionB            string    `gorm:"not null" json:"option_b"`
	Category           string    `gorm:"size:50;not null;default:'general';index" json:"category"`
	CreatorID          uint      `gorm:"not null;index" json:"creator_id"`
	Creator            User      `gorm:"foreignKey:CreatorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	Active             bool      `gorm:"not null;default:true;index" json:"active"`
	TotalDenunciations int       `gorm:"not null;default:0" json:"total_denunciations"`
	CreatedAt          time.Time `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	// Filled by list queries, not a column.
	CreatorName string `gorm:"->;-:migration" json:"creator_name"`
}
