package store

import (
	"context"

	"dilemmas/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *GormStore) CreateDenunciation(ctx context.Context, d *models.Denunciation) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(d).Error)
}

func (s *GormStore) HasDenounced(ctx context.Context, dilemmaID, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Denunciation{}).
		Where("dilemma_id = ? AND user_id = ?", dilemmaID, userID).
		Count(&count).Error
	return count > 0, translate(err)
}

// IncrementDenunciations bumps the counter of an active dilemma in a single
// UPDATE ... RETURNING and returns the new value. The row lock taken by the
// UPDATE serializes concurrent increments, so none are lost.
// An inactive or missing dilemma is ErrNotFound.
func (s *GormStore) IncrementDenunciations(ctx context.Context, dilemmaID uint) (int, error) {
	var d models.Dilemma
	res := s.db.WithContext(ctx).Model(&d).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "total_denunciations"}}}).
		Where("id = ? AND active = ?", dilemmaID, true).
		UpdateColumn("total_denunciations", gorm.Expr("total_denunciations + ?", 1))
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return d.TotalDenunciations, nil
}

// CountDenunciations is the ground-truth recount the counter is checked against.
func (s *GormStore) CountDenunciations(ctx context.Context, dilemmaID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Denunciation{}).
		Where("dilemma_id = ?", dilemmaID).
		Count(&count).Error
	return count, translate(err)
}

// SetDenunciationCount overwrites the counter. Only the auditor's repair mode uses it.
func (s *GormStore) SetDenunciationCount(ctx context.Context, dilemmaID uint, count int) error {
	res := s.db.WithContext(ctx).Model(&models.Dilemma{}).
		Where("id = ?", dilemmaID).
		UpdateColumn("total_denunciations", count)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListDenouncedDilemmas(ctx context.Context) ([]DenouncedDilemma, error) {
	rows := make([]DenouncedDilemma, 0)
	err := s.db.WithContext(ctx).Table("dilemmas").
		Select(dilemmaWithCreator + ", (SELECT COUNT(*) FROM denunciations WHERE denunciations.dilemma_id = dilemmas.id) AS verified_denunciations").
		Joins("LEFT JOIN users ON users.id = dilemmas.creator_id").
		Where("dilemmas.total_denunciations > 0").
		Order("dilemmas.total_denunciations DESC, dilemmas.created_at DESC, dilemmas.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func (s *GormStore) ListDenunciations(ctx context.Context, dilemmaID uint) ([]DenunciationDetail, error) {
	rows := make([]DenunciationDetail, 0)
	err := s.db.WithContext(ctx).Table("denunciations").
		Select("denunciations.*, users.name AS denouncer_name, users.email AS denouncer_email").
		Joins("JOIN users ON users.id = denunciations.user_id").
		Where("denunciations.dilemma_id = ?", dilemmaID).
		Order("denunciations.created_at DESC, denunciations.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}
