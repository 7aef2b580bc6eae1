package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dilemmas/internal/auth"
	"dilemmas/internal/models"
	"dilemmas/internal/store"
	"dilemmas/internal/utils"
)

// DilemmaDetail is a dilemma as seen by one (possibly anonymous) reader.
type DilemmaDetail struct {
	models.Dilemma
	DescriptionHTML string  `json:"description_html"`
	Statistics      Stats   `json:"statistics"`
	UserResponse    *string `json:"user_response"`
	UserDenounced   bool    `json:"user_denounced"`
}

// DilemmaInput holds the fields of a new dilemma.
type DilemmaInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	OptionA     string `json:"option_a"`
	OptionB     string `json:"option_b"`
	Category    string `json:"category"`
}

// DilemmaPatch holds the fields of an update; nil fields are left alone.
type DilemmaPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	OptionA     *string `json:"option_a"`
	OptionB     *string `json:"option_b"`
	Category    *string `json:"category"`
}

type DilemmaService struct {
	repo     store.Repository
	cache    *utils.Cache
	statsTTL time.Duration
}

func NewDilemmaService(repo store.Repository, cache *utils.Cache, statsTTL time.Duration) *DilemmaService {
	return &DilemmaService{repo: repo, cache: cache, statsTTL: statsTTL}
}

// Get loads an active dilemma with its statistics. For an authenticated
// reader it also reports their own vote and whether they denounced it.
func (s *DilemmaService) Get(ctx context.Context, id uint, principal *auth.Principal) (*DilemmaDetail, error) {
	d, err := s.repo.FindActiveDilemma(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errDilemmaNotFound
		}
		return nil, fmt.Errorf("load dilemma %d: %w", id, err)
	}

	stats, err := s.stats(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &DilemmaDetail{
		Dilemma:         *d,
		DescriptionHTML: utils.RenderMarkdown(d.Description),
		Statistics:      stats,
	}
	if principal == nil {
		return detail, nil
	}

	response, err := s.repo.FindResponse(ctx, id, principal.UserID)
	switch {
	case err == nil:
		detail.UserResponse = &response.ChosenOption
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("load own response: %w", err)
	}

	denounced, err := s.repo.HasDenounced(ctx, id, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("load own denunciation: %w", err)
	}
	detail.UserDenounced = denounced
	return detail, nil
}

func (s *DilemmaService) stats(ctx context.Context, id uint) (Stats, error) {
	key := statsCacheKey(id)
	if cached, ok := s.cache.Get(key).(Stats); ok {
		return cached, nil
	}

	counts, err := s.repo.CountVotes(ctx, id)
	if err != nil {
		return Stats{}, fmt.Errorf("count votes: %w", err)
	}
	stats := ProjectStats(counts.VotesA, counts.VotesB)
	s.cache.Set(key, stats, s.statsTTL)
	return stats, nil
}

// List returns active dilemmas, newest first, optionally in one category.
func (s *DilemmaService) List(ctx context.Context, category string) ([]models.Dilemma, error) {
	dilemmas, err := s.repo.ListActiveDilemmas(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, fmt.Errorf("list dilemmas: %w", err)
	}
	return dilemmas, nil
}

func (s *DilemmaService) Create(ctx context.Context, creatorID uint, in DilemmaInput) (*models.Dilemma, error) {
	d := &models.Dilemma{
		Title:       utils.PlainText(in.Title),
		Description: strings.TrimSpace(in.Description),
		OptionA:     utils.PlainText(in.OptionA),
		OptionB:     utils.PlainText(in.OptionB),
		Category:    utils.PlainText(in.Category),
		CreatorID:   creatorID,
		Active:      true,
	}
	if d.Title == "" || d.Description == "" || d.OptionA == "" || d.OptionB == "" {
		return nil, newError(ErrInvalidInput, "title, description, option_a and option_b are required")
	}
	if d.Category == "" {
		d.Category = models.DefaultCategory
	}

	if err := s.repo.CreateDilemma(ctx, d); err != nil {
		return nil, fmt.Errorf("insert dilemma: %w", err)
	}
	return d, nil
}

// Update changes the given fields of an active dilemma owned by ownerID.
// Someone else's dilemma is reported as missing.
func (s *DilemmaService) Update(ctx context.Context, id, ownerID uint, patch DilemmaPatch) (*models.Dilemma, error) {
	fields := make(map[string]any)
	setText := func(column string, value *string, clean func(string) string) error {
		if value == nil {
			return nil
		}
		v := clean(*value)
		if v == "" {
			return newError(ErrInvalidInput, "%s must not be empty", column)
		}
		fields[column] = v
		return nil
	}

	for _, f := range []struct {
		column string
		value  *string
		clean  func(string) string
	}{
		{"title", patch.Title, utils.PlainText},
		{"description", patch.Description, strings.TrimSpace},
		{"option_a", patch.OptionA, utils.PlainText},
		{"option_b", patch.OptionB, utils.PlainText},
		{"category", patch.Category, utils.PlainText},
	} {
		if err := setText(f.column, f.value, f.clean); err != nil {
			return nil, err
		}
	}
	if len(fields) == 0 {
		return nil, newError(ErrInvalidInput, "no fields to update")
	}

	d, err := s.repo.UpdateOwnedDilemma(ctx, id, ownerID, fields)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errDilemmaNotFound
		}
		return nil, fmt.Errorf("update dilemma %d: %w", id, err)
	}
	return d, nil
}

// Delete is the owner soft-delete; the row stays with active = false.
func (s *DilemmaService) Delete(ctx context.Context, id, ownerID uint) error {
	if err := s.repo.DeactivateOwnedDilemma(ctx, id, ownerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errDilemmaNotFound
		}
		return fmt.Errorf("delete dilemma %d: %w", id, err)
	}
	s.cache.Delete(statsCacheKey(id))
	return nil
}
