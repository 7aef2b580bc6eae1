package testutil

import (
	"context"
	"fmt"
	"testing"

	"dilemmas/internal/models"
	"dilemmas/internal/store"

	"github.com/stretchr/testify/require"
)

// CreateUser inserts a user with a unique email derived from name.
func CreateUser(t *testing.T, repo store.Repository, name string) *models.User {
	t.Helper()

	u := &models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "not-a-real-hash",
	}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u
}

// CreateDilemma inserts an active dilemma owned by creatorID.
func CreateDilemma(t *testing.T, repo store.Repository, creatorID uint, title string) *models.Dilemma {
	t.Helper()

	d := &models.Dilemma{
		Title:       title,
		Description: "Which one would you pick?",
		OptionA:     "Tea",
		OptionB:     "Coffee",
		Category:    models.DefaultCategory,
		CreatorID:   creatorID,
		Active:      true,
	}
	require.NoError(t, repo.CreateDilemma(context.Background(), d))
	return d
}

// CreateUsers inserts n users named prefix-0 .. prefix-(n-1).
func CreateUsers(t *testing.T, repo store.Repository, prefix string, n int) []*models.User {
	t.Helper()

	users := make([]*models.User, n)
	for i := range users {
		users[i] = CreateUser(t, repo, fmt.Sprintf("%s-%d", prefix, i))
	}
	return users
}
