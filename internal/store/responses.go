package store

import (
	"context"

	"dilemmas/internal/models"

	"gorm.io/gorm/clause"
)

// CreateResponse inserts a vote. A second vote for the same (dilemma, user)
// pair fails with ErrDuplicate no matter how the requests interleave.
func (s *GormStore) CreateResponse(ctx context.Context, r *models.Response) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(r).Error)
}

func (s *GormStore) FindResponse(ctx context.Context, dilemmaID, userID uint) (*models.Response, error) {
	var r models.Response
	err := s.db.WithContext(ctx).
		Where("dilemma_id = ? AND user_id = ?", dilemmaID, userID).
		Take(&r).Error
	if err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *GormStore) CountVotes(ctx context.Context, dilemmaID uint) (VoteCounts, error) {
	var counts VoteCounts
	err := s.db.WithContext(ctx).Model(&models.Response{}).
		Select("COALESCE(SUM(CASE WHEN chosen_option = 'A' THEN 1 ELSE 0 END), 0) AS votes_a, "+
			"COALESCE(SUM(CASE WHEN chosen_option = 'B' THEN 1 ELSE 0 END), 0) AS votes_b").
		Where("dilemma_id = ?", dilemmaID).
		Scan(&counts).Error
	return counts, translate(err)
}

func (s *GormStore) ListResponsesByUser(ctx context.Context, userID uint) ([]ResponseDetail, error) {
	rows := make([]ResponseDetail, 0)
	err := s.db.WithContext(ctx).Table("responses").
		Select("responses.*, dilemmas.title, dilemmas.option_a, dilemmas.option_b").
		Joins("JOIN dilemmas ON dilemmas.id = responses.dilemma_id").
		Where("responses.user_id = ?", userID).
		Order("responses.created_at DESC, responses.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}
