// Package store is the durable record of dilemmas, responses and denunciations.
//
// Uniqueness of a response or denunciation per (dilemma, user) pair is enforced by
// unique indexes, never by application locking; a violation surfaces as ErrDuplicate.
package store

import (
	"context"

	"dilemmas/internal/models"

	"gorm.io/gorm"
)

// VoteCounts are the raw vote totals of one dilemma.
type VoteCounts struct {
	VotesA int64
	VotesB int64
}

// DenouncedDilemma is a dilemma annotated with a recount of its denunciation rows.
type DenouncedDilemma struct {
	models.Dilemma
	VerifiedDenunciations int64 `json:"verified_denunciations"`
}

// DenunciationDetail is a denunciation with the denouncer's identity attached.
type DenunciationDetail struct {
	models.Denunciation
	DenouncerName  string `json:"denouncer_name"`
	DenouncerEmail string `json:"denouncer_email"`
}

// ResponseDetail is a response with the dilemma it answers.
type ResponseDetail struct {
	models.Response
	Title   string `json:"title"`
	OptionA string `json:"option_a"`
	OptionB string `json:"option_b"`
}

type Dilemmas interface {
	CreateDilemma(ctx context.Context, d *models.Dilemma) error
	FindDilemma(ctx context.Context, id uint) (*models.Dilemma, error)
	FindActiveDilemma(ctx context.Context, id uint) (*models.Dilemma, error)
	ListActiveDilemmas(ctx context.Context, category string) ([]models.Dilemma, error)
	UpdateOwnedDilemma(ctx context.Context, id, ownerID uint, fields map[string]any) (*models.Dilemma, error)
	DeactivateOwnedDilemma(ctx context.Context, id, ownerID uint) error
	DeactivateDilemma(ctx context.Context, id uint) error
}

type Responses interface {
	CreateResponse(ctx context.Context, r *models.Response) error
	FindResponse(ctx context.Context, dilemmaID, userID uint) (*models.Response, error)
	CountVotes(ctx context.Context, dilemmaID uint) (VoteCounts, error)
	ListResponsesByUser(ctx context.Context, userID uint) ([]ResponseDetail, error)
}

type Denunciations interface {
	CreateDenunciation(ctx context.Context, d *models.Denunciation) error
	HasDenounced(ctx context.Context, dilemmaID, userID uint) (bool, error)
	IncrementDenunciations(ctx context.Context, dilemmaID uint) (int, error)
	CountDenunciations(ctx context.Context, dilemmaID uint) (int64, error)
	SetDenunciationCount(ctx context.Context, dilemmaID uint, count int) error
	ListDenouncedDilemmas(ctx context.Context) ([]DenouncedDilemma, error)
	ListDenunciations(ctx context.Context, dilemmaID uint) ([]DenunciationDetail, error)
}

type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
}

type Notifications interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID uint) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID uint) error
}

// Repository is everything the services need from the store.
type Repository interface {
	Dilemmas
	Responses
	Denunciations
	Users
	Notifications

	// Transaction runs fn against a repository bound to one database
	// transaction. Returning an error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(Repository) error) error
}

// GormStore implements Repository on top of gorm.
type GormStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(Repository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
