package services

import (
	"context"
	"errors"
	"fmt"

	"dilemmas/internal/models"
	"dilemmas/internal/store"
	"dilemmas/internal/utils"
)

func statsCacheKey(dilemmaID uint) string {
	return fmt.Sprintf("dilemma:stats:%d", dilemmaID)
}

// VoteResult echoes the recorded option with the statistics after the vote.
type VoteResult struct {
	ChosenOption string `json:"chosen_option"`
	Statistics   Stats  `json:"statistics"`
}

type VotingService struct {
	repo  store.Repository
	cache *utils.Cache
}

// NewVotingService builds the voting engine. cache is the statistics cache
// shared with DilemmaService; a successful vote evicts the dilemma's entry.
func NewVotingService(repo store.Repository, cache *utils.Cache) *VotingService {
	return &VotingService{repo: repo, cache: cache}
}

// CastVote records voterID's choice on an active dilemma. The lookup for an
// existing vote only produces a nicer error early; the unique index on
// (dilemma_id, user_id) decides, and its violation is reported the same way.
func (s *VotingService) CastVote(ctx context.Context, dilemmaID, voterID uint, option string) (*VoteResult, error) {
	if !models.ValidOption(option) {
		return nil, newError(ErrInvalidInput, `chosen_option must be "A" or "B"`)
	}

	if _, err := s.repo.FindActiveDilemma(ctx, dilemmaID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errDilemmaNotFound
		}
		return nil, fmt.Errorf("load dilemma %d: %w", dilemmaID, err)
	}

	_, err := s.repo.FindResponse(ctx, dilemmaID, voterID)
	switch {
	case err == nil:
		return nil, errAlreadyVoted
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("check existing vote: %w", err)
	}

	response := &models.Response{
		DilemmaID:    dilemmaID,
		UserID:       voterID,
		ChosenOption: option,
	}
	if err := s.repo.CreateResponse(ctx, response); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, errAlreadyVoted
		}
		return nil, fmt.Errorf("insert response: %w", err)
	}

	s.cache.Delete(statsCacheKey(dilemmaID))

	counts, err := s.repo.CountVotes(ctx, dilemmaID)
	if err != nil {
		return nil, fmt.Errorf("count votes: %w", err)
	}
	return &VoteResult{
		ChosenOption: option,
		Statistics:   ProjectStats(counts.VotesA, counts.VotesB),
	}, nil
}

// MyResponses lists the votes cast by userID, newest first.
func (s *VotingService) MyResponses(ctx context.Context, userID uint) ([]store.ResponseDetail, error) {
	responses, err := s.repo.ListResponsesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return responses, nil
}

var errAlreadyVoted = newError(ErrConflict, "you have already voted on this dilemma")
