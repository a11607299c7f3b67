package repository_test

import (
	"yatube/internal/repository"

	"context"
	"regexp"
	"testing"

	"yatube/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGroupRepository_GetBySlug(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewGroupRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "groups" WHERE slug = $1 ORDER BY "groups"."id" LIMIT $2`)).
		WithArgs("test-slug", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug"}).AddRow(1, "Тестовая группа", "test-slug"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "groups" WHERE slug = $1 ORDER BY "groups"."id" LIMIT $2`)).
		WithArgs("missing", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	group, err := repo.GetBySlug(ctx, "test-slug")
	require.NoError(t, err)
	assert.Equal(t, "Тестовая группа", group.String())

	_, err = repo.GetBySlug(ctx, "missing")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepository_UpsertIntegration(t *testing.T) {
	repo := repository.NewGroupRepository(testDB)
	ctx := context.Background()
	slug := uniqueName("cats")

	g := &models.Group{Title: "Cats", Slug: slug, Description: "v1"}
	require.NoError(t, repo.Upsert(ctx, g))
	require.NotZero(t, g.ID)

	again := &models.Group{Title: "Cats and kittens", Slug: slug, Description: "v2"}
	require.NoError(t, repo.Upsert(ctx, again))
	assert.Equal(t, g.ID, again.ID)

	stored, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cats and kittens", stored.Title)
	assert.Equal(t, "v2", stored.Description)

	groups, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, groups)
}
