package repository

import (
	"context"
	"time"

	"devconnect/internal/cache"
	"devconnect/internal/models"
	"devconnect/internal/observability"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var postInteractionColumns = []string{"likes", "comments", "version", "updated_at"}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context) ([]models.Post, error)
	Delete(ctx context.Context, id uint) error
	Mutate(ctx context.Context, id uint, fn Mutator[models.Post]) (*models.Post, error)
	Count(ctx context.Context) (int64, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewPostRepository creates a new post repository. rdb may be nil, which disables caching.
func NewPostRepository(db *gorm.DB, rdb *redis.Client) PostRepository {
	return &postRepository{db: db, redis: rdb}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePostsList(ctx, r.redis)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return cache.Aside(ctx, r.redis, cache.PostKey(id), cache.PostTTL, func(ctx context.Context) (*models.Post, error) {
		return r.load(ctx, id)
	})
}

func (r *postRepository) load(ctx context.Context, id uint) (*models.Post, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "posts", "load")
	defer span.End()
	defer observability.TrackQuery("get_by_id", "posts")()

	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, mapLookupError(err, "Post", id)
	}
	return &post, nil
}

// List returns every post, newest first.
func (r *postRepository) List(ctx context.Context) ([]models.Post, error) {
	return cache.Aside(ctx, r.redis, cache.PostsListKey, cache.ListTTL, func(ctx context.Context) ([]models.Post, error) {
		defer observability.TrackQuery("list", "posts")()
		posts := []models.Post{}
		if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&posts).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
		return posts, nil
	})
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	cache.InvalidatePost(ctx, r.redis, id)
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

// Mutate applies fn to the freshly loaded post and stores likes and comments
// with an optimistic version check, replaying fn when a concurrent write wins.
func (r *postRepository) Mutate(ctx context.Context, id uint, fn Mutator[models.Post]) (*models.Post, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "posts", "mutate")
	defer span.End()

	post, err := compareAndSwap(ctx, "post",
		func(ctx context.Context) (*models.Post, error) { return r.load(ctx, id) },
		fn,
		r.save,
	)
	if err != nil {
		observability.RecordError(ctx, err)
		return nil, err
	}
	cache.InvalidatePost(ctx, r.redis, id)
	return post, nil
}

func (r *postRepository) save(ctx context.Context, post *models.Post) (bool, error) {
	defer observability.TrackQuery("update", "posts")()
	expected := post.Version
	post.Version = expected + 1
	post.UpdatedAt = time.Now()

	res := r.db.WithContext(ctx).Model(post).
		Where("version = ?", expected).
		Select(postInteractionColumns).
		Updates(post)
	if res.Error != nil {
		post.Version = expected
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
