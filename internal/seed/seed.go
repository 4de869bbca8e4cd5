package seed

import (
	"fmt"
	"log/slog"

	"devconnect/internal/middleware"
	"devconnect/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	// DryRun builds everything in memory and writes nothing.
	DryRun bool
	// MaxDays bounds how far back post dates are spread.
	MaxDays    int
	Password   string
	BcryptCost int
	// RandSeed makes generated content reproducible when non-zero.
	RandSeed int64
}

// Result counts what a seeding run produced.
type Result struct {
	Users    int
	Profiles int
	Posts    int
	Likes    int
	Comments int
}

// Seed populates the database with users, profiles and posts. Every user gets
// a profile; posts are spread over random authors and liked and commented on
// by other users.
func Seed(db *gorm.DB, opts Options) (*Result, error) {
	log := middleware.Logger
	log.Info("starting database seeding",
		slog.Int("users", opts.NumUsers),
		slog.Int("posts", opts.NumPosts),
		slog.Bool("dry_run", opts.DryRun),
	)

	if opts.ShouldClean && !opts.DryRun {
		if err := ClearData(db); err != nil {
			return nil, fmt.Errorf("clear existing data: %w", err)
		}
	}

	f := NewFactory(db, opts)
	res := &Result{}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return res, err
		}
		users = append(users, u)
		if _, err := f.CreateProfile(u); err != nil {
			return res, err
		}
		res.Profiles++
	}
	res.Users = len(users)
	log.Info("users and profiles created", slog.Int("count", res.Users))

	if len(users) == 0 || opts.NumPosts <= 0 {
		return res, nil
	}

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[gofakeit.Number(0, len(users)-1)]
		p := f.BuildPost(author)
		res.Likes += f.sprinkleLikes(p, users, author)
		res.Comments += f.sprinkleComments(p, users, author)
		posts = append(posts, p)
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return res, fmt.Errorf("create posts: %w", err)
	}
	res.Posts = len(posts)

	log.Info("database seeding completed",
		slog.Int("posts", res.Posts),
		slog.Int("likes", res.Likes),
		slog.Int("comments", res.Comments),
	)
	return res, nil
}

func others(users []*models.User, author *models.User) []*models.User {
	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.ID != author.ID {
			out = append(out, u)
		}
	}
	return out
}

func (f *Factory) sprinkleLikes(p *models.Post, users []*models.User, author *models.User) int {
	pool := others(users, author)
	if len(pool) == 0 {
		return 0
	}
	gofakeit.ShuffleAnySlice(pool)
	n := gofakeit.Number(0, min(5, len(pool)))
	added := 0
	for _, u := range pool[:n] {
		if f.AddLike(p, u) {
			added++
		}
	}
	return added
}

func (f *Factory) sprinkleComments(p *models.Post, users []*models.User, author *models.User) int {
	pool := others(users, author)
	if len(pool) == 0 {
		return 0
	}
	n := gofakeit.Number(0, 3)
	for i := 0; i < n; i++ {
		f.AddComment(p, pool[gofakeit.Number(0, len(pool)-1)], "")
	}
	return n
}

// ClearData removes all posts, profiles and users.
func ClearData(db *gorm.DB) error {
	middleware.Logger.Info("clearing existing data")
	return db.Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, m := range []any{&models.Post{}, &models.Profile{}, &models.User{}} {
			if err := all.Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
