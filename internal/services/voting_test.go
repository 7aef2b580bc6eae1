package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dilemmas/internal/models"
	"dilemmas/internal/services"
	"dilemmas/internal/testutil"
	"dilemmas/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVotingFixture(t *testing.T) (*testutil.MemStore, *services.VotingService, *services.DilemmaService) {
	t.Helper()

	repo := testutil.NewMemStore()
	cache, err := utils.NewCache(16)
	require.NoError(t, err)
	return repo, services.NewVotingService(repo, cache), services.NewDilemmaService(repo, cache, time.Minute)
}

func TestCastVote(t *testing.T) {
	ctx := context.Background()
	repo, voting, _ := newVotingFixture(t)
	owner := testutil.CreateUser(t, repo, "owner")
	d := testutil.CreateDilemma(t, repo, owner.ID, "Tea or coffee?")
	voters := testutil.CreateUsers(t, repo, "voter", 3)

	res, err := voting.CastVote(ctx, d.ID, voters[0].ID, models.OptionA)
	require.NoError(t, err)
	assert.Equal(t, models.OptionA, res.ChosenOption)
	assert.Equal(t, services.Stats{TotalVotes: 1, VotesA: 1, PercentageA: 100}, res.Statistics)

	_, err = voting.CastVote(ctx, d.ID, voters[1].ID, models.OptionB)
	require.NoError(t, err)
	res, err = voting.CastVote(ctx, d.ID, voters[2].ID, models.OptionB)
	require.NoError(t, err)
	assert.Equal(t, services.Stats{TotalVotes: 3, VotesA: 1, VotesB: 2, PercentageA: 33, PercentageB: 67}, res.Statistics)
}

func TestCastVoteRejections(t *testing.T) {
	ctx := context.Background()
	repo, voting, dilemmas := newVotingFixture(t)
	owner := testutil.CreateUser(t, repo, "owner")
	voter := testutil.CreateUser(t, repo, "voter")
	d := testutil.CreateDilemma(t, repo, owner.ID, "Tea or coffee?")

	t.Run("invalid option", func(t *testing.T) {
		for _, option := range []string{"", "C", "a", "AB"} {
			_, err := voting.CastVote(ctx, d.ID, voter.ID, option)
			assert.ErrorIs(t, err, services.ErrInvalidInput, "option %q", option)
		}
	})

	t.Run("missing dilemma", func(t *testing.T) {
		_, err := voting.CastVote(ctx, 9999, voter.ID, models.OptionA)
		assert.ErrorIs(t, err, services.ErrNotFound)
	})

	t.Run("second vote", func(t *testing.T) {
		_, err := voting.CastVote(ctx, d.ID, voter.ID, models.OptionA)
		require.NoError(t, err)
		_, err = voting.CastVote(ctx, d.ID, voter.ID, models.OptionB)
		assert.ErrorIs(t, err, services.ErrConflict)

		counts, err := repo.CountVotes(ctx, d.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, counts.VotesA+counts.VotesB)
	})

	t.Run("owner deleted dilemma", func(t *testing.T) {
		deleted := testutil.CreateDilemma(t, repo, owner.ID, "Gone")
		require.NoError(t, dilemmas.Delete(ctx, deleted.ID, owner.ID))

		_, err := voting.CastVote(ctx, deleted.ID, voter.ID, models.OptionA)
		assert.ErrorIs(t, err, services.ErrNotFound)
	})
}

func TestCastVoteOnModeratedDilemma(t *testing.T) {
	ctx := context.Background()
	repo, voting, _ := newVotingFixture(t)
	moderation, err := services.NewModerationService(repo, 1, nil)
	require.NoError(t, err)

	owner := testutil.CreateUser(t, repo, "owner")
	voter := testutil.CreateUser(t, repo, "voter")
	d := testutil.CreateDilemma(t, repo, owner.ID, "Spam")

	res, err := moderation.Denounce(ctx, d.ID, voter.ID, "spam")
	require.NoError(t, err)
	require.True(t, res.DilemmaDeactivated)

	_, err = voting.CastVote(ctx, d.ID, voter.ID, models.OptionA)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestConcurrentVotesSameUser(t *testing.T) {
	ctx := context.Background()
	repo, voting, _ := newVotingFixture(t)
	owner := testutil.CreateUser(t, repo, "owner")
	voter := testutil.CreateUser(t, repo, "voter")
	d := testutil.CreateDilemma(t, repo, owner.ID, "Tea or coffee?")

	const n = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
		others    atomic.Int32
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			option := models.OptionA
			if i%2 == 1 {
				option = models.OptionB
			}
			_, err := voting.CastVote(ctx, d.ID, voter.ID, option)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, services.ErrConflict):
				conflicts.Add(1)
			default:
				others.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, successes.Load())
	assert.EqualValues(t, n-1, conflicts.Load())
	assert.Zero(t, others.Load())

	counts, err := repo.CountVotes(ctx, d.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.VotesA+counts.VotesB)
}

func TestCastVoteDuplicateAtInsertIsConflict(t *testing.T) {
	ctx := context.Background()
	repo, voting, _ := newVotingFixture(t)
	owner := testutil.CreateUser(t, repo, "owner")
	voter := testutil.CreateUser(t, repo, "voter")
	d := testutil.CreateDilemma(t, repo, owner.ID, "Tea or coffee?")

	// A competing request commits its vote after the pre-check has passed.
	fired := false
	repo.Hook = func(op string) error {
		if op != "CreateResponse" || fired {
			return nil
		}
		fired = true
		return repo.CreateResponse(ctx, &models.Response{DilemmaID: d.ID, UserID: voter.ID, ChosenOption: models.OptionB})
	}

	_, err := voting.CastVote(ctx, d.ID, voter.ID, models.OptionA)
	assert.ErrorIs(t, err, services.ErrConflict)

	own, err := repo.FindResponse(ctx, d.ID, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OptionB, own.ChosenOption)
}

func TestVoteEvictsCachedStats(t *testing.T) {
	ctx := context.Background()
	repo, voting, dilemmas := newVotingFixture(t)
	owner := testutil.CreateUser(t, repo, "owner")
	voter := testutil.CreateUser(t, repo, "voter")
	d := testutil.CreateDilemma(t, repo, owner.ID, "Tea or coffee?")

	before, err := dilemmas.Get(ctx, d.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, before.Statistics.TotalVotes)

	_, err = voting.CastVote(ctx, d.ID, voter.ID, models.OptionB)
	require.NoError(t, err)

	after, err := dilemmas.Get(ctx, d.ID, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, after.Statistics.VotesB)
	assert.Equal(t, 100, after.Statistics.PercentageB)
}

func TestMyResponses(t *testing.T) {
	ctx := context.Background()
	repo, voting, _ := newVotingFixture(t)
	owner := testutil.CreateUser(t, repo, "owner")
	voter := testutil.CreateUser(t, repo, "voter")
	first := testutil.CreateDilemma(t, repo, owner.ID, "First")
	second := testutil.CreateDilemma(t, repo, owner.ID, "Second")

	_, err := voting.CastVote(ctx, first.ID, voter.ID, models.OptionA)
	require.NoError(t, err)
	_, err = voting.CastVote(ctx, second.ID, voter.ID, models.OptionB)
	require.NoError(t, err)

	responses, err := voting.MyResponses(ctx, voter.ID)
	require.NoError(t, err)
	require.Len(t, responses, 2)
	assert.Equal(t, "Second", responses[0].Title)
	assert.Equal(t, models.OptionB, responses[0].ChosenOption)
	assert.Equal(t, "First", responses[1].Title)

	none, err := voting.MyResponses(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
