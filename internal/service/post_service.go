package service

import (
	"context"
	"strings"

	"pcoscare/internal/models"
	"pcoscare/internal/repository"
)

const (
	maxPostContentLen = 10000
	defaultPostLimit  = 10
	maxPostLimit      = 100
)

type PostService struct {
	postRepo repository.PostRepository
	isAdmin  func(ctx context.Context, userID uint) (bool, error)
}

type CreatePostInput struct {
	UserID   uint
	Content  string
	Group    string
	ImageURL string
}

type ListPostsInput struct {
	Group         string
	Page          int
	Limit         int
	CurrentUserID uint
}

// PostPage is one page of the community feed.
type PostPage struct {
	Posts       []*models.Post `json:"posts"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
}

// UpdatePostInput carries a partial edit. Nil fields are left unchanged.
type UpdatePostInput struct {
	UserID   uint
	PostID   uint
	Content  *string
	Group    *string
	ImageURL *string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

// LikeState is a post's like count and whether the caller is in its like set.
type LikeState struct {
	LikesCount int64 `json:"likesCount"`
	Liked      bool  `json:"liked"`
}

func NewPostService(
	postRepo repository.PostRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *PostService {
	return &PostService{
		postRepo: postRepo,
		isAdmin:  isAdmin,
	}
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (*PostPage, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultPostLimit
	}
	if limit > maxPostLimit {
		limit = maxPostLimit
	}
	page := in.Page
	if page <= 0 {
		page = 1
	}

	posts, total, err := s.postRepo.List(ctx, strings.TrimSpace(in.Group), limit, (page-1)*limit, in.CurrentUserID)
	if err != nil {
		return nil, err
	}

	return &PostPage{
		Posts:       posts,
		TotalPages:  int((total + int64(limit) - 1) / int64(limit)),
		CurrentPage: page,
	}, nil
}

func (s *PostService) GetPost(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id, currentUserID)
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	group := strings.TrimSpace(in.Group)
	if content == "" || group == "" {
		return nil, models.NewValidationError("Please provide content and group")
	}
	if len(content) > maxPostContentLen {
		return nil, models.NewValidationError("Content too long (max 10000 characters)")
	}
	if !models.IsValidGroup(group) {
		return nil, models.NewValidationError("Invalid group")
	}

	post := &models.Post{
		UserID:   in.UserID,
		Content:  content,
		Group:    group,
		ImageURL: strings.TrimSpace(in.ImageURL),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewForbiddenError("Not authorized to edit this post")
	}

	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return nil, models.NewValidationError("Content cannot be empty")
		}
		if len(content) > maxPostContentLen {
			return nil, models.NewValidationError("Content too long (max 10000 characters)")
		}
		post.Content = content
	}
	if in.Group != nil && *in.Group != "" {
		if !models.IsValidGroup(*in.Group) {
			return nil, models.NewValidationError("Invalid group")
		}
		post.Group = *in.Group
	}
	if in.ImageURL != nil {
		post.ImageURL = strings.TrimSpace(*in.ImageURL)
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

// DeletePost removes a post and everything attached to it. Only the author
// or an admin may do so.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID, 0)
	if err != nil {
		return err
	}

	if post.UserID != in.UserID {
		if s.isAdmin == nil {
			return models.NewForbiddenError("Not authorized to delete this post")
		}
		admin, err := s.isAdmin(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !admin {
			return models.NewForbiddenError("Not authorized to delete this post")
		}
	}

	return s.postRepo.Delete(ctx, in.PostID)
}

// ToggleLike adds the caller to the post's like set, or removes them if
// they were already in it.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*LikeState, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}

	inserted, err := s.postRepo.Like(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if !inserted {
		if err := s.postRepo.Unlike(ctx, userID, postID); err != nil {
			return nil, err
		}
	}

	count, err := s.postRepo.CountLikes(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &LikeState{LikesCount: count, Liked: inserted}, nil
}
