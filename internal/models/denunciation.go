package models

import (
	"time"
)

// DefaultReason is stored when a denunciation comes without a reason.
const DefaultReason = "unspecified"

type Denunciation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DilemmaID uint      `gorm:"not null;uniqueIndex:idx_denunciation_dilemma_user" json:"dilemma_id"`
	Dilemma   Dilemma   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_denunciation_dilemma_user" json:"user_id"` // Denouncer
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Reason    string    `gorm:"size:500;not null" json:"reason"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
