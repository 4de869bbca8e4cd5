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

// profileColumns are written by every profile update.
var profileColumns = []string{
	"company", "website", "location", "status", "skills", "bio", "github_username",
	"social_youtube", "social_twitter", "social_linkedin", "social_facebook", "social_instagram",
	"experience", "education", "version", "updated_at",
}

// ProfileRepository stores one profile per user.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Mutate(ctx context.Context, userID uint, fn Mutator[models.Profile]) (*models.Profile, error)
	DeleteByUserID(ctx context.Context, userID uint) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type profileRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewProfileRepository returns a ProfileRepository. rdb may be nil, which disables caching.
func NewProfileRepository(db *gorm.DB, rdb *redis.Client) ProfileRepository {
	return &profileRepository{db: db, redis: rdb}
}

// GetByUserID returns the user's profile joined with the owner's name and
// avatar. Only the profile row is cached; the owner is read on every call so
// account edits show up immediately.
func (r *profileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	profile, err := cache.Aside(ctx, r.redis, cache.ProfileKey(userID), cache.ProfileTTL, func(ctx context.Context) (*models.Profile, error) {
		return r.load(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	if err := r.attachOwners(ctx, []*models.Profile{profile}); err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *profileRepository) load(ctx context.Context, userID uint) (*models.Profile, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "profiles", "load")
	defer span.End()
	defer observability.TrackQuery("get_by_user", "profiles")()

	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, mapLookupError(err, "Profile for user", userID)
	}
	return &profile, nil
}

func (r *profileRepository) List(ctx context.Context) ([]models.Profile, error) {
	profiles, err := cache.Aside(ctx, r.redis, cache.ProfilesListKey, cache.ListTTL, func(ctx context.Context) ([]models.Profile, error) {
		defer observability.TrackQuery("list", "profiles")()
		profiles := []models.Profile{}
		if err := r.db.WithContext(ctx).Order("id ASC").Find(&profiles).Error; err != nil {
			return nil, models.NewInternalError(err)
		}
		return profiles, nil
	})
	if err != nil {
		return nil, err
	}
	ptrs := make([]*models.Profile, len(profiles))
	for i := range profiles {
		ptrs[i] = &profiles[i]
	}
	if err := r.attachOwners(ctx, ptrs); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	defer observability.TrackQuery("create", "profiles")()
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Profile already exists")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateProfile(ctx, r.redis, profile.UserID)
	return r.attachOwners(ctx, []*models.Profile{profile})
}

// Mutate applies fn to the freshly loaded profile of userID and stores it with
// an optimistic version check, replaying fn when a concurrent write wins.
func (r *profileRepository) Mutate(ctx context.Context, userID uint, fn Mutator[models.Profile]) (*models.Profile, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "profiles", "mutate")
	defer span.End()

	profile, err := compareAndSwap(ctx, "profile",
		func(ctx context.Context) (*models.Profile, error) { return r.load(ctx, userID) },
		fn,
		r.save,
	)
	if err != nil {
		observability.RecordError(ctx, err)
		return nil, err
	}
	cache.InvalidateProfile(ctx, r.redis, userID)
	if err := r.attachOwners(ctx, []*models.Profile{profile}); err != nil {
		return nil, err
	}
	return profile, nil
}

func (r *profileRepository) save(ctx context.Context, profile *models.Profile) (bool, error) {
	defer observability.TrackQuery("update", "profiles")()
	expected := profile.Version
	profile.Version = expected + 1
	profile.UpdatedAt = time.Now()

	res := r.db.WithContext(ctx).Model(profile).
		Where("version = ?", expected).
		Select(profileColumns).
		Updates(profile)
	if res.Error != nil {
		profile.Version = expected
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// DeleteByUserID removes the user's profile and reports whether one existed.
func (r *profileRepository) DeleteByUserID(ctx context.Context, userID uint) (bool, error) {
	defer observability.TrackQuery("delete", "profiles")()
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Profile{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	cache.InvalidateProfile(ctx, r.redis, userID)
	return res.RowsAffected > 0, nil
}

func (r *profileRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Profile{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *profileRepository) attachOwners(ctx context.Context, profiles []*models.Profile) error {
	if len(profiles) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}
	owners, err := loadOwners(ctx, r.db, ids)
	if err != nil {
		return err
	}
	for _, p := range profiles {
		p.Owner = nil
		if owner, ok := owners[p.UserID]; ok {
			p.Owner = &owner
		}
	}
	return nil
}

// loadOwners fetches the public identity of each user id in one query.
func loadOwners(ctx context.Context, db *gorm.DB, ids []uint) (map[uint]models.Owner, error) {
	var users []models.User
	if err := db.WithContext(ctx).Select("id", "name", "avatar").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	owners := make(map[uint]models.Owner, len(users))
	for _, u := range users {
		owners[u.ID] = models.Owner{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
	}
	return owners, nil
}
