package testutil

import (
	"context"

	"dilemmas/internal/models"
	"dilemmas/internal/store"
)

// memTx is the repository handed to a Transaction callback. Reads go
// straight to the store; writes are journaled so they can be undone.
type memTx struct {
	*MemStore
	j *journal
}

// Transaction inside a transaction joins the outer one.
func (t *memTx) Transaction(ctx context.Context, fn func(store.Repository) error) error {
	return fn(t)
}

func (t *memTx) CreateUser(ctx context.Context, u *models.User) error {
	return t.createUser(t.j, u)
}

func (t *memTx) CreateDilemma(ctx context.Context, d *models.Dilemma) error {
	return t.createDilemma(t.j, d)
}

func (t *memTx) UpdateOwnedDilemma(ctx context.Context, id, ownerID uint, fields map[string]any) (*models.Dilemma, error) {
	return t.updateOwnedDilemma(t.j, id, ownerID, fields)
}

func (t *memTx) DeactivateOwnedDilemma(ctx context.Context, id, ownerID uint) error {
	return t.setActive(t.j, "DeactivateOwnedDilemma", id, func(d models.Dilemma) bool {
		return d.Active && d.CreatorID == ownerID
	})
}

func (t *memTx) DeactivateDilemma(ctx context.Context, id uint) error {
	return t.deactivateDilemma(t.j, id)
}

func (t *memTx) CreateResponse(ctx context.Context, r *models.Response) error {
	return t.createResponse(t.j, r)
}

func (t *memTx) CreateDenunciation(ctx context.Context, d *models.Denunciation) error {
	return t.createDenunciation(t.j, d)
}

func (t *memTx) IncrementDenunciations(ctx context.Context, dilemmaID uint) (int, error) {
	return t.incrementDenunciations(t.j, dilemmaID)
}

func (t *memTx) SetDenunciationCount(ctx context.Context, dilemmaID uint, count int) error {
	return t.setDenunciationCount(t.j, dilemmaID, count)
}

func (t *memTx) CreateNotification(ctx context.Context, n *models.Notification) error {
	return t.createNotification(t.j, n)
}

func (t *memTx) MarkNotificationRead(ctx context.Context, id, userID uint) error {
	return t.markNotificationRead(t.j, id, userID)
}
