package store

import (
	"context"

	"dilemmas/internal/models"

	"gorm.io/gorm/clause"
)

const dilemmaWithCreator = "dilemmas.*, users.name AS creator_name"

func (s *GormStore) CreateDilemma(ctx context.Context, d *models.Dilemma) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(d).Error)
}

// FindDilemma loads a dilemma whatever its state.
func (s *GormStore) FindDilemma(ctx context.Context, id uint) (*models.Dilemma, error) {
	var d models.Dilemma
	if err := s.db.WithContext(ctx).Take(&d, id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (s *GormStore) FindActiveDilemma(ctx context.Context, id uint) (*models.Dilemma, error) {
	var d models.Dilemma
	err := s.db.WithContext(ctx).Model(&models.Dilemma{}).
		Select(dilemmaWithCreator).
		Joins("LEFT JOIN users ON users.id = dilemmas.creator_id").
		Where("dilemmas.id = ? AND dilemmas.active = ?", id, true).
		Take(&d).Error
	if err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (s *GormStore) ListActiveDilemmas(ctx context.Context, category string) ([]models.Dilemma, error) {
	query := s.db.WithContext(ctx).Model(&models.Dilemma{}).
		Select(dilemmaWithCreator).
		Joins("LEFT JOIN users ON users.id = dilemmas.creator_id").
		Where("dilemmas.active = ?", true)
	if category != "" {
		query = query.Where("dilemmas.category = ?", category)
	}

	dilemmas := make([]models.Dilemma, 0)
	if err := query.Order("dilemmas.created_at DESC, dilemmas.id DESC").Find(&dilemmas).Error; err != nil {
		return nil, translate(err)
	}
	return dilemmas, nil
}

// UpdateOwnedDilemma applies fields to an active dilemma owned by ownerID.
// A dilemma that is missing, inactive or owned by someone else is ErrNotFound.
func (s *GormStore) UpdateOwnedDilemma(ctx context.Context, id, ownerID uint, fields map[string]any) (*models.Dilemma, error) {
	res := s.db.WithContext(ctx).Model(&models.Dilemma{}).
		Where("id = ? AND creator_id = ? AND active = ?", id, ownerID, true).
		Updates(fields)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.FindActiveDilemma(ctx, id)
}

// DeactivateOwnedDilemma is the owner soft-delete.
func (s *GormStore) DeactivateOwnedDilemma(ctx context.Context, id, ownerID uint) error {
	res := s.db.WithContext(ctx).Model(&models.Dilemma{}).
		Where("id = ? AND creator_id = ? AND active = ?", id, ownerID, true).
		UpdateColumn("active", false)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeactivateDilemma(ctx context.Context, id uint) error {
	return translate(s.db.WithContext(ctx).Model(&models.Dilemma{}).
		Where("id = ?", id).
		UpdateColumn("active", false).Error)
}
