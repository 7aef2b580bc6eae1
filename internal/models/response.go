package models

import (
	"time"
)

const (
	OptionA = "A"
	OptionB = "B"
)

// ValidOption reports whether o is one of the two options of a dilemma.
func ValidOption(o string) bool {
	return o == OptionA || o == OptionB
}

// Response is one user's vote on a dilemma.
// The composite unique index is what enforces one vote per user.
type Response struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DilemmaID    uint      `gorm:"not null;uniqueIndex:idx_response_dilemma_user" json:"dilemma_id"`
	Dilemma      Dilemma   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID       uint      `gorm:"not null;index;uniqueIndex:idx_response_dilemma_user" json:"user_id"`
	User         User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ChosenOption string    `gorm:"type:char(1);not null;check:chosen_option = 'A' OR chosen_option = 'B'" json:"chosen_option"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}
