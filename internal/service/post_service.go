package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"devconnect/internal/auth"
	"devconnect/internal/featureflags"
	"devconnect/internal/middleware"
	"devconnect/internal/models"
	"devconnect/internal/notifications"
	"devconnect/internal/observability"
	"devconnect/internal/repository"

	"github.com/google/uuid"
)

var errCommentNotFound = models.NewNotFoundMessage("Comment does not exist")

// ActivityPublisher delivers activity events to a user's open connections.
type ActivityPublisher interface {
	PublishEvent(ctx context.Context, userID uint, ev notifications.Event) error
}

type PostService struct {
	posts  repository.PostRepository
	users  repository.UserRepository
	policy *auth.Policy
	events ActivityPublisher
	flags  *featureflags.Manager
}

type CreatePostInput struct {
	Text string `json:"text"`
}

type CommentInput struct {
	Text string `json:"text"`
}

// NewPostService builds a PostService. events may be nil, which disables
// activity notifications.
func NewPostService(
	posts repository.PostRepository,
	users repository.UserRepository,
	policy *auth.Policy,
	events ActivityPublisher,
	flags *featureflags.Manager,
) *PostService {
	return &PostService{
		posts:  posts,
		users:  users,
		policy: policy,
		events: events,
		flags:  flags,
	}
}

// Create stores a post with a snapshot of the author's current name and avatar.
func (s *PostService) Create(ctx context.Context, claim auth.SessionClaim, in CreatePostInput) (*models.Post, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, textRequired()
	}
	author, err := s.users.GetByID(ctx, claim.UserID)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:   author.ID,
		Text:     in.Text,
		Name:     author.Name,
		Avatar:   author.Avatar,
		Likes:    []models.Like{},
		Comments: []models.Comment{},
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// List returns every post, newest first.
func (s *PostService) List(ctx context.Context) ([]models.Post, error) {
	return s.posts.List(ctx)
}

func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if models.HasCode(err, models.CodeNotFound) {
		return nil, postNotFound()
	}
	return post, err
}

// Delete removes a post. Only its author may do so.
func (s *PostService) Delete(ctx context.Context, claim auth.SessionClaim, id uint) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.Require(ctx, claim, models.RoleMember, auth.Owner(post.UserID)); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return postNotFound()
		}
		return err
	}
	return nil
}

// Like adds the caller to the front of the like list. A second like is rejected.
func (s *PostService) Like(ctx context.Context, claim auth.SessionClaim, id uint) ([]models.Like, error) {
	if _, err := s.users.GetByID(ctx, claim.UserID); err != nil {
		return nil, err
	}
	post, err := s.mutate(ctx, id, func(p *models.Post) error {
		if p.LikedBy(claim.UserID) {
			return models.NewAlreadyLikedError()
		}
		p.Likes = append([]models.Like{{UserID: claim.UserID}}, p.Likes...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.PostInteractions.WithLabelValues("like").Inc()

	s.notify(ctx, post.UserID, claim.UserID, notifications.Event{
		Type:    notifications.EventPostLiked,
		Payload: notifications.PostLikedPayload{PostID: post.ID, UserID: claim.UserID},
	})
	return post.Likes, nil
}

// Unlike removes the caller's like. Unliking a post the caller has not liked is rejected.
func (s *PostService) Unlike(ctx context.Context, claim auth.SessionClaim, id uint) ([]models.Like, error) {
	post, err := s.mutate(ctx, id, func(p *models.Post) error {
		likes := make([]models.Like, 0, len(p.Likes))
		for _, l := range p.Likes {
			if l.UserID != claim.UserID {
				likes = append(likes, l)
			}
		}
		if len(likes) == len(p.Likes) {
			return models.NewNotLikedError()
		}
		p.Likes = likes
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.PostInteractions.WithLabelValues("unlike").Inc()
	return post.Likes, nil
}

// AddComment prepends a comment carrying the caller's current name and avatar.
func (s *PostService) AddComment(ctx context.Context, claim auth.SessionClaim, id uint, in CommentInput) ([]models.Comment, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, textRequired()
	}
	author, err := s.users.GetByID(ctx, claim.UserID)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		UserID:    author.ID,
		Text:      in.Text,
		Name:      author.Name,
		Avatar:    author.Avatar,
		CreatedAt: time.Now().UTC(),
	}
	post, err := s.mutate(ctx, id, func(p *models.Post) error {
		p.Comments = append([]models.Comment{comment}, p.Comments...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.PostInteractions.WithLabelValues("comment").Inc()

	s.notify(ctx, post.UserID, claim.UserID, notifications.Event{
		Type: notifications.EventPostCommented,
		Payload: notifications.PostCommentedPayload{
			PostID:    post.ID,
			CommentID: comment.ID,
			UserID:    author.ID,
			Name:      author.Name,
			Text:      comment.Text,
		},
	})
	return post.Comments, nil
}

// DeleteComment removes one comment. Only the comment's author may do so.
func (s *PostService) DeleteComment(ctx context.Context, claim auth.SessionClaim, id uint, commentID string) ([]models.Comment, error) {
	post, err := s.mutate(ctx, id, func(p *models.Post) error {
		i := p.CommentIndex(commentID)
		if i < 0 {
			return errCommentNotFound
		}
		if err := s.policy.Require(ctx, claim, models.RoleMember, auth.Owner(p.Comments[i].UserID)); err != nil {
			return err
		}
		p.Comments = append(p.Comments[:i:i], p.Comments[i+1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.PostInteractions.WithLabelValues("uncomment").Inc()
	return post.Comments, nil
}

func (s *PostService) mutate(ctx context.Context, id uint, fn repository.Mutator[models.Post]) (*models.Post, error) {
	post, err := s.posts.Mutate(ctx, id, fn)
	if models.HasCode(err, models.CodeNotFound) && !errors.Is(err, errCommentNotFound) {
		return nil, postNotFound()
	}
	return post, err
}

// notify tells the post author about activity by someone else. Delivery
// failures are logged and never fail the request.
func (s *PostService) notify(ctx context.Context, authorID, actorID uint, ev notifications.Event) {
	if s.events == nil || authorID == actorID {
		return
	}
	if s.flags != nil && !s.flags.Enabled(featureflags.ActivityNotifications, authorID) {
		return
	}
	if err := s.events.PublishEvent(ctx, authorID, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "publish activity event failed",
			"event", ev.Type,
			"recipient", authorID,
			"error", err,
		)
	}
}

func postNotFound() error {
	return models.NewNotFoundMessage("Post not found")
}

func textRequired() error {
	return models.NewFieldValidationError([]models.FieldMessage{{Field: "text", Message: "Text is required"}})
}
