package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"dilemmas/internal/models"
	"dilemmas/internal/store"
	"dilemmas/internal/utils"
)

const maxReasonLength = 500

// DenounceResult has two shapes: either the dilemma was deactivated by this
// denunciation, or it is still active and Limit/Remaining say how close it is.
type DenounceResult struct {
	DilemmaDeactivated bool `json:"dilemma_deactivated,omitempty"`
	TotalDenunciations int  `json:"total_denunciations"`
	Limit              *int `json:"limit,omitempty"`
	Remaining          *int `json:"remaining,omitempty"`
}

type ModerationService struct {
	repo    store.Repository
	limit   int
	auditor *CounterAuditor
}

// NewModerationService builds the moderation engine. limit is the number of
// denunciations at which a dilemma is deactivated and must be positive.
// auditor may be nil.
func NewModerationService(repo store.Repository, limit int, auditor *CounterAuditor) (*ModerationService, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("denunciation limit must be positive, got %d", limit)
	}
	return &ModerationService{repo: repo, limit: limit, auditor: auditor}, nil
}

func (s *ModerationService) Limit() int {
	return s.limit
}

// Denounce records denouncerID's complaint against an active dilemma and
// bumps its counter. Insert, increment and the threshold deactivation commit
// together or not at all.
func (s *ModerationService) Denounce(ctx context.Context, dilemmaID, denouncerID uint, reason string) (*DenounceResult, error) {
	dilemma, err := s.repo.FindActiveDilemma(ctx, dilemmaID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errDilemmaNotFound
		}
		return nil, fmt.Errorf("load dilemma %d: %w", dilemmaID, err)
	}

	already, err := s.repo.HasDenounced(ctx, dilemmaID, denouncerID)
	if err != nil {
		return nil, fmt.Errorf("check existing denunciation: %w", err)
	}
	if already {
		return nil, errAlreadyDenounced
	}

	var (
		newCount    int
		deactivated bool
	)
	err = s.repo.Transaction(ctx, func(tx store.Repository) error {
		denunciation := &models.Denunciation{
			DilemmaID: dilemmaID,
			UserID:    denouncerID,
			Reason:    normalizeReason(reason),
		}
		if err := tx.CreateDenunciation(ctx, denunciation); err != nil {
			return err
		}

		n, err := tx.IncrementDenunciations(ctx, dilemmaID)
		if err != nil {
			return err
		}
		newCount = n
		if n < s.limit {
			return nil
		}

		if err := tx.DeactivateDilemma(ctx, dilemmaID); err != nil {
			return err
		}
		deactivated = true
		return tx.CreateNotification(ctx, &models.Notification{
			UserID:    dilemma.CreatorID,
			DilemmaID: &dilemma.ID,
			Type:      models.NotificationTypeModeration,
			Message:   fmt.Sprintf("Your dilemma %q was deactivated after receiving %d denunciations.", dilemma.Title, n),
		})
	})
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return nil, errAlreadyDenounced
	case errors.Is(err, store.ErrNotFound):
		// Deactivated by a concurrent denunciation between the lookup and the increment.
		return nil, errDilemmaNotFound
	case err != nil:
		return nil, fmt.Errorf("record denunciation: %w", err)
	}

	s.auditor.ScheduleCheck(dilemmaID)

	if deactivated {
		return &DenounceResult{DilemmaDeactivated: true, TotalDenunciations: newCount}, nil
	}
	limit, remaining := s.limit, s.limit-newCount
	return &DenounceResult{
		TotalDenunciations: newCount,
		Limit:              &limit,
		Remaining:          &remaining,
	}, nil
}

// ListDenounced returns every dilemma with at least one denunciation, active
// or not, most denounced first and newest first among equals.
func (s *ModerationService) ListDenounced(ctx context.Context) ([]store.DenouncedDilemma, error) {
	dilemmas, err := s.repo.ListDenouncedDilemmas(ctx)
	if err != nil {
		return nil, fmt.Errorf("list denounced dilemmas: %w", err)
	}
	return dilemmas, nil
}

// ListDenunciations returns the denunciations of one dilemma, newest first.
func (s *ModerationService) ListDenunciations(ctx context.Context, dilemmaID uint) ([]store.DenunciationDetail, error) {
	denunciations, err := s.repo.ListDenunciations(ctx, dilemmaID)
	if err != nil {
		return nil, fmt.Errorf("list denunciations: %w", err)
	}
	return denunciations, nil
}

func normalizeReason(reason string) string {
	reason = utils.PlainText(reason)
	if reason == "" {
		return models.DefaultReason
	}
	if utf8.RuneCountInString(reason) > maxReasonLength {
		reason = string([]rune(reason)[:maxReasonLength])
	}
	return reason
}

var errAlreadyDenounced = newError(ErrConflict, "you have already denounced this dilemma")
