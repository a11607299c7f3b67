package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/pagination"
	"yatube/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// PostPage is one page of a post listing.
type PostPage = pagination.Page[*models.Post]

type FeedService struct {
	postRepo    repository.PostRepository
	groupRepo   repository.GroupRepository
	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	commentRepo repository.CommentRepository
}

type GroupFeed struct {
	Group *models.Group
	Page  PostPage
}

type AuthorFeed struct {
	Author    *models.User
	Page      PostPage
	Following bool
	// IsSelf hides the follow button on your own profile.
	IsSelf    bool
	Followers int64
	Follows   int64
}

// PostCount is the author's total number of posts.
func (f AuthorFeed) PostCount() int64 {
	return f.Page.TotalCount
}

type PostDetail struct {
	Post            *models.Post
	Comments        []*models.Comment
	AuthorPostCount int64
	CanEdit         bool
}

type ListByAuthorInput struct {
	Username string
	Page     string
	ViewerID uint
}

func NewFeedService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	commentRepo repository.CommentRepository,
) *FeedService {
	return &FeedService{
		postRepo:    postRepo,
		groupRepo:   groupRepo,
		userRepo:    userRepo,
		followRepo:  followRepo,
		commentRepo: commentRepo,
	}
}

func (s *FeedService) ListIndex(ctx context.Context, page string) (PostPage, error) {
	return s.page(ctx, repository.PostFilter{}, page)
}

func (s *FeedService) ListByGroup(ctx context.Context, slug, page string) (*GroupFeed, error) {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	posts, err := s.page(ctx, repository.PostFilter{GroupID: group.ID}, page)
	if err != nil {
		return nil, err
	}
	return &GroupFeed{Group: group, Page: posts}, nil
}

func (s *FeedService) ListByAuthor(ctx context.Context, in ListByAuthorInput) (*AuthorFeed, error) {
	author, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	posts, err := s.page(ctx, repository.PostFilter{AuthorID: author.ID}, in.Page)
	if err != nil {
		return nil, err
	}

	feed := &AuthorFeed{
		Author: author,
		Page:   posts,
		IsSelf: in.ViewerID != 0 && in.ViewerID == author.ID,
	}
	if in.ViewerID != 0 && !feed.IsSelf {
		if feed.Following, err = s.followRepo.Exists(ctx, in.ViewerID, author.ID); err != nil {
			return nil, err
		}
	}
	if feed.Followers, err = s.followRepo.CountFollowers(ctx, author.ID); err != nil {
		return nil, err
	}
	if feed.Follows, err = s.followRepo.CountFollowing(ctx, author.ID); err != nil {
		return nil, err
	}
	return feed, nil
}

// ListFollowedFeed lists posts by everyone the viewer follows. No follows
// yields an empty page, not an error.
func (s *FeedService) ListFollowedFeed(ctx context.Context, viewerID uint, page string) (PostPage, error) {
	if viewerID == 0 {
		return PostPage{}, models.NewUnauthorizedError("Login required")
	}
	return s.page(ctx, repository.PostFilter{FollowerID: viewerID}, page)
}

func (s *FeedService) GetPostDetail(ctx context.Context, postID, viewerID uint) (*PostDetail, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	count, err := s.postRepo.Count(ctx, repository.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, err
	}
	return &PostDetail{
		Post:            post,
		Comments:        comments,
		AuthorPostCount: count,
		CanEdit:         viewerID != 0 && viewerID == post.AuthorID,
	}, nil
}

func (s *FeedService) page(ctx context.Context, filter repository.PostFilter, raw string) (_ PostPage, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "FeedService", "page",
		attribute.Int64("filter.group_id", int64(filter.GroupID)),
		attribute.Int64("filter.author_id", int64(filter.AuthorID)),
		attribute.Int64("filter.follower_id", int64(filter.FollowerID)),
	)
	defer func() { span.End(err) }()

	count, err := s.postRepo.Count(ctx, filter)
	if err != nil {
		return PostPage{}, err
	}
	span.AddAttributes(attribute.Int64("posts.count", count))
	p := pagination.New(count)
	n := p.Resolve(raw)
	if count == 0 {
		return pagination.NewPage[*models.Post](p, n, nil), nil
	}
	limit, offset := p.Window(n)
	posts, err := s.postRepo.List(ctx, filter, limit, offset)
	if err != nil {
		return PostPage{}, err
	}
	return pagination.NewPage(p, n, posts), nil
}
