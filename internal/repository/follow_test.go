package repository_test

import (
	"yatube/internal/repository"

	"context"
	"testing"

	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository_Integration(t *testing.T) {
	repo := repository.NewFollowRepository(testDB)
	ctx := context.Background()

	u := createUser(t, "follower")
	v := createUser(t, "followed")

	t.Run("Create is idempotent", func(t *testing.T) {
		created, err := repo.Create(ctx, u.ID, v.ID)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = repo.Create(ctx, u.ID, v.ID)
		require.NoError(t, err)
		assert.False(t, created)

		var edges int64
		testDB.Model(&models.Follow{}).Where("user_id = ? AND author_id = ?", u.ID, v.ID).Count(&edges)
		assert.EqualValues(t, 1, edges)

		exists, err := repo.Exists(ctx, u.ID, v.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.Exists(ctx, v.ID, u.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Self follow ignored", func(t *testing.T) {
		created, err := repo.Create(ctx, u.ID, u.ID)
		require.NoError(t, err)
		assert.False(t, created)

		exists, err := repo.Exists(ctx, u.ID, u.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Counts", func(t *testing.T) {
		followers, err := repo.CountFollowers(ctx, v.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, followers)

		following, err := repo.CountFollowing(ctx, u.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, following)
	})

	t.Run("Delete", func(t *testing.T) {
		deleted, err := repo.Delete(ctx, u.ID, v.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, u.ID, v.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		exists, err := repo.Exists(ctx, u.ID, v.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
