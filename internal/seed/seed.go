package seed

import (
	"context"
	"fmt"
	"log/slog"

	"yatube/internal/database"
	"yatube/internal/media"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options configures a seeding run.
type Options struct {
	Users           int
	Posts           int
	CommentsPerPost int
	FollowsPerUser  int
	// ImageRatio is the share of posts that get a generated picture.
	ImageRatio float64
	MaxDays    int
	BatchSize  int
	SkipBcrypt bool
	DryRun     bool
	// Seed fixes the fake data; zero picks one from the clock.
	Seed int64
}

func (o Options) withDefaults() Options {
	if o.MaxDays <= 0 {
		o.MaxDays = 90
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	return o
}

// Summary counts what a run produced.
type Summary struct {
	Groups   int
	Users    int
	Posts    int
	Comments int
	Follows  int
}

// Seeder runs the full demo data pipeline.
type Seeder struct {
	db      *gorm.DB
	groups  repository.GroupRepository
	factory *Factory
	opts    Options
}

// NewSeeder creates a Seeder. store may be nil to skip images.
func NewSeeder(db *gorm.DB, store *media.Store, opts Options) (*Seeder, error) {
	opts = opts.withDefaults()
	factory, err := NewFactory(db, store, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{
		db:      db,
		groups:  repository.NewGroupRepository(db),
		factory: factory,
		opts:    opts,
	}, nil
}

// ClearAll deletes every row of the application tables, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	if s.opts.DryRun {
		middleware.Logger.InfoContext(ctx, "[dry-run] skipping cleanup")
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range database.TruncateOrder() {
			if err := tx.Exec("DELETE FROM ?", clause.Table{Name: table}).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// Run upserts fixtures, then generates users, posts, comments and follows.
func (s *Seeder) Run(ctx context.Context, fixtures []GroupFixture) (*Summary, error) {
	logger := middleware.Logger
	summary := &Summary{}

	groups, err := s.seedGroups(ctx, fixtures)
	if err != nil {
		return nil, err
	}
	summary.Groups = len(groups)
	logger.InfoContext(ctx, "Groups ready", slog.Int("count", len(groups)))

	users, err := s.factory.CreateUsers(ctx, s.opts.Users)
	if err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	summary.Users = len(users)
	logger.InfoContext(ctx, "Users created", slog.Int("count", len(users)))

	posts, err := s.factory.CreatePosts(ctx, users, groups, s.opts.Posts)
	if err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	summary.Posts = len(posts)
	logger.InfoContext(ctx, "Posts created", slog.Int("count", len(posts)))

	comments, err := s.factory.CreateComments(ctx, users, posts, s.opts.CommentsPerPost)
	if err != nil {
		return nil, fmt.Errorf("create comments: %w", err)
	}
	summary.Comments = len(comments)

	follows, err := s.factory.CreateFollows(ctx, users, s.opts.FollowsPerUser)
	if err != nil {
		return nil, fmt.Errorf("create follows: %w", err)
	}
	summary.Follows = len(follows)

	logger.InfoContext(ctx, "Seeding complete",
		slog.Bool("dry_run", s.opts.DryRun),
		slog.Int("comments", summary.Comments),
		slog.Int("follows", summary.Follows),
	)
	return summary, nil
}

func (s *Seeder) seedGroups(ctx context.Context, fixtures []GroupFixture) ([]models.Group, error) {
	if !s.opts.DryRun {
		return SeedGroups(ctx, s.groups, fixtures)
	}
	groups := make([]models.Group, len(fixtures))
	for i, fx := range fixtures {
		groups[i] = models.Group{
			ID:          s.factory.syntheticID(),
			Title:       fx.Title,
			Slug:        fx.Slug,
			Description: fx.Description,
		}
	}
	return groups, nil
}
