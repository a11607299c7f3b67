// Package seed fills a database with demo content: groups from a YAML file
// plus fake users, posts, comments and follows.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"yatube/internal/media"
	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is set on every generated account.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them. In dry-run mode nothing
// is written and rows get synthetic IDs so callers can keep wiring them up.
type Factory struct {
	db     *gorm.DB
	faker  *gofakeit.Faker
	media  *media.Store
	opts   Options
	nextID uint

	passwordHash string
}

// NewFactory creates a Factory bound to db. store may be nil, which disables
// generated images.
func NewFactory(db *gorm.DB, store *media.Store, opts Options) (*Factory, error) {
	opts = opts.withDefaults()

	cost := bcrypt.DefaultCost
	if opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:           db,
		faker:        gofakeit.New(seed),
		media:        store,
		opts:         opts,
		nextID:       1000,
		passwordHash: string(hash),
	}, nil
}

// BuildUser returns an unsaved user; n keeps usernames unique within a run.
func (f *Factory) BuildUser(n int) models.User {
	first := f.faker.FirstName()
	last := f.faker.LastName()
	username := fmt.Sprintf("%s%d", strings.ToLower(f.faker.Username()), n)
	return models.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  f.passwordHash,
		FirstName: first,
		LastName:  last,
	}
}

// BuildPost returns an unsaved post by author, placed in one of groups most of
// the time and dated somewhere in the last MaxDays.
func (f *Factory) BuildPost(ctx context.Context, author models.User, groups []models.Group) (models.Post, error) {
	post := models.Post{
		Text:      f.faker.Paragraph(1, f.faker.Number(1, 4), 12, " "),
		AuthorID:  author.ID,
		CreatedAt: f.pastTime(),
	}
	if len(groups) > 0 && f.faker.Float64() < 0.7 {
		group := groups[f.faker.Number(0, len(groups)-1)]
		post.GroupID = lo.ToPtr(group.ID)
	}

	if f.media != nil && !f.opts.DryRun && f.faker.Float64() < f.opts.ImageRatio {
		name, err := f.media.Save(ctx, media.Upload{
			Filename:    "seed.jpg",
			ContentType: "image/jpeg",
			Content:     f.faker.ImageJpeg(640, 480),
		})
		if err != nil {
			return post, fmt.Errorf("seed image: %w", err)
		}
		post.Image = name
	}
	return post, nil
}

// BuildComment returns an unsaved comment on post, written after it.
func (f *Factory) BuildComment(author models.User, post models.Post) models.Comment {
	created := post.CreatedAt.Add(time.Duration(f.faker.Number(1, 72*60)) * time.Minute)
	if now := time.Now(); created.After(now) {
		created = now
	}
	return models.Comment{
		Text:      f.faker.Sentence(f.faker.Number(3, 15)),
		PostID:    post.ID,
		AuthorID:  author.ID,
		CreatedAt: created,
	}
}

func (f *Factory) pastTime() time.Time {
	now := time.Now()
	return f.faker.DateRange(now.AddDate(0, 0, -f.opts.MaxDays), now)
}

// CreateUsers persists count new users.
func (f *Factory) CreateUsers(ctx context.Context, count int) ([]models.User, error) {
	users := make([]models.User, count)
	for i := range users {
		users[i] = f.BuildUser(i + 1)
	}
	if f.opts.DryRun {
		for i := range users {
			users[i].ID = f.syntheticID()
		}
		return users, nil
	}
	if err := f.db.WithContext(ctx).CreateInBatches(&users, f.opts.BatchSize).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CreatePosts persists count posts by random authors.
func (f *Factory) CreatePosts(ctx context.Context, authors []models.User, groups []models.Group, count int) ([]models.Post, error) {
	if len(authors) == 0 || count <= 0 {
		return nil, nil
	}
	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := authors[f.faker.Number(0, len(authors)-1)]
		post, err := f.BuildPost(ctx, author, groups)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if f.opts.DryRun {
		for i := range posts {
			posts[i].ID = f.syntheticID()
		}
		return posts, nil
	}
	err := f.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(&posts, f.opts.BatchSize).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// CreateComments persists up to perPost comments on every post.
func (f *Factory) CreateComments(ctx context.Context, authors []models.User, posts []models.Post, perPost int) ([]models.Comment, error) {
	if len(authors) == 0 || perPost <= 0 {
		return nil, nil
	}
	var comments []models.Comment
	for _, post := range posts {
		for n := f.faker.Number(0, perPost); n > 0; n-- {
			author := authors[f.faker.Number(0, len(authors)-1)]
			comments = append(comments, f.BuildComment(author, post))
		}
	}
	if len(comments) == 0 {
		return nil, nil
	}
	if f.opts.DryRun {
		for i := range comments {
			comments[i].ID = f.syntheticID()
		}
		return comments, nil
	}
	err := f.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(&comments, f.opts.BatchSize).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// CreateFollows subscribes every user to up to perUser other users. Self
// follows are never generated and existing edges are left alone.
func (f *Factory) CreateFollows(ctx context.Context, users []models.User, perUser int) ([]models.Follow, error) {
	if perUser <= 0 {
		return nil, nil
	}
	var follows []models.Follow
	for _, user := range users {
		others := lo.Filter(users, func(u models.User, _ int) bool { return u.ID != user.ID })
		for _, author := range lo.Samples(others, perUser) {
			follows = append(follows, models.Follow{UserID: user.ID, AuthorID: author.ID})
		}
	}
	if len(follows) == 0 {
		return nil, nil
	}
	if f.opts.DryRun {
		for i := range follows {
			follows[i].ID = f.syntheticID()
		}
		return follows, nil
	}
	err := f.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&follows, f.opts.BatchSize).Error
	if err != nil {
		return nil, err
	}
	return follows, nil
}

func (f *Factory) syntheticID() uint {
	f.nextID++
	return f.nextID
}
