package repository

import (
	"context"

	"yatube/internal/models"

	"gorm.io/gorm"
)

// Totals holds row counts of the main tables.
type Totals struct {
	Users    int64
	Groups   int64
	Posts    int64
	Comments int64
	Follows  int64
}

// StatsRepository reads aggregate counts for metrics.
type StatsRepository interface {
	Totals(ctx context.Context) (Totals, error)
}

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.User{}, &t.Users},
		{&models.Group{}, &t.Groups},
		{&models.Post{}, &t.Posts},
		{&models.Comment{}, &t.Comments},
		{&models.Follow{}, &t.Follows},
	}
	db := r.db.WithContext(ctx)
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return Totals{}, models.NewInternalError(err)
		}
	}
	return t, nil
}
