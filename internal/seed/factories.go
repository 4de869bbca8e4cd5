// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"devconnect/internal/auth"
	"devconnect/internal/middleware"
	"devconnect/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultPassword is the plain password given to every generated user.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by Seed and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	// bcrypt hash of opts.Password, computed on first use
	hash string
	// synthetic ID counter when running in DryRun mode
	nextID uint
	seq    int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.RandSeed != 0 {
		gofakeit.Seed(opts.RandSeed)
	} else {
		gofakeit.Seed(time.Now().UnixNano())
	}
	return &Factory{db: db, opts: opts, nextID: 1000}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	h, err := auth.NewHasher(f.opts.BcryptCost).Hash(f.opts.Password)
	if err != nil {
		return "", err
	}
	f.hash = h
	return h, nil
}

// BuildUser constructs a user with a hashed password but does not persist it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	f.seq++
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	user := &models.User{
		Name:     first + " " + last,
		Email:    fmt.Sprintf("%s.%s.%d@devconnect.test", strings.ToLower(first), strings.ToLower(last), f.seq),
		Password: hash,
		Role:     models.RoleMember,
	}
	for _, override := range overrides {
		override(user)
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Avatar == "" {
		user.Avatar = auth.GravatarURL(user.Email)
	}
	return user, nil
}

// CreateUser constructs and persists a sample user.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		middleware.Logger.Debug("[dry-run] CreateUser", slog.String("email", user.Email))
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Email, err)
	}
	return user, nil
}

// BuildProfile constructs a profile for user with a plausible career history.
func (f *Factory) BuildProfile(user *models.User, overrides ...func(*models.Profile)) *models.Profile {
	handle := strings.ToLower(strings.ReplaceAll(user.Name, " ", ""))
	profile := &models.Profile{
		UserID:         user.ID,
		Status:         gofakeit.JobTitle(),
		Company:        gofakeit.Company(),
		Website:        "https://" + handle + ".dev",
		Location:       gofakeit.City() + ", " + gofakeit.StateAbr(),
		Skills:         f.skills(),
		Bio:            gofakeit.Sentence(14),
		GithubUsername: handle,
		Social: models.Social{
			Twitter:  "https://twitter.com/" + handle,
			LinkedIn: "https://linkedin.com/in/" + handle,
		},
		Experience: f.experience(),
		Education:  f.education(),
	}
	for _, override := range overrides {
		override(profile)
	}
	return profile
}

// CreateProfile builds and persists a profile for user.
func (f *Factory) CreateProfile(user *models.User, overrides ...func(*models.Profile)) (*models.Profile, error) {
	profile := f.BuildProfile(user, overrides...)
	if f.opts.DryRun {
		f.nextID++
		profile.ID = f.nextID
		return profile, nil
	}
	if err := f.db.Create(profile).Error; err != nil {
		return nil, fmt.Errorf("create profile for user %d: %w", user.ID, err)
	}
	return profile, nil
}

func (f *Factory) skills() []string {
	n := gofakeit.Number(3, 6)
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for attempts := 0; len(out) < n && attempts < n*4; attempts++ {
		s := gofakeit.ProgrammingLanguage()
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// experience returns newest-first entries; only the first may be current.
func (f *Factory) experience() []models.Experience {
	n := gofakeit.Number(1, 3)
	out := make([]models.Experience, 0, n)
	cursor := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 0; i < n; i++ {
		from := cursor.AddDate(-gofakeit.Number(1, 4), -gofakeit.Number(0, 11), 0)
		e := models.Experience{
			ID:          uuid.NewString(),
			Title:       gofakeit.JobTitle(),
			Company:     gofakeit.Company(),
			Location:    gofakeit.City(),
			From:        from,
			Description: gofakeit.Sentence(10),
		}
		if i == 0 && gofakeit.Bool() {
			e.Current = true
		} else {
			to := cursor
			e.To = &to
		}
		out = append(out, e)
		cursor = from
	}
	return out
}

func (f *Factory) education() []models.Education {
	n := gofakeit.Number(1, 2)
	out := make([]models.Education, 0, n)
	cursor := time.Now().UTC().Truncate(24*time.Hour).AddDate(-gofakeit.Number(2, 10), 0, 0)
	degrees := []string{"BSc", "MSc", "BA", "Bootcamp Certificate", "PhD"}
	fields := []string{"Computer Science", "Software Engineering", "Mathematics", "Information Systems", "Physics"}
	for i := 0; i < n; i++ {
		from := cursor.AddDate(-gofakeit.Number(2, 4), 0, 0)
		to := cursor
		out = append(out, models.Education{
			ID:           uuid.NewString(),
			School:       gofakeit.City() + " University",
			Degree:       gofakeit.RandomString(degrees),
			FieldOfStudy: gofakeit.RandomString(fields),
			From:         from,
			To:           &to,
		})
		cursor = from
	}
	return out
}

// BuildPost constructs a post by author without persisting it. Name and
// Avatar are snapshotted from author and CreatedAt is spread over MaxDays.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	back := time.Duration(gofakeit.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	post := &models.Post{
		UserID:    author.ID,
		Text:      gofakeit.Paragraph(1, gofakeit.Number(1, 4), 12, " "),
		Name:      author.Name,
		Avatar:    author.Avatar,
		Likes:     []models.Like{},
		Comments:  []models.Comment{},
		CreatedAt: time.Now().Add(-back),
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost builds and persists a single post.
func (f *Factory) CreatePost(author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, overrides...)
	if err := f.CreatePostsBatch([]*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// CreatePostsBatch persists multiple posts in a single DB call when possible.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		middleware.Logger.Debug("[dry-run] CreatePostsBatch", slog.Int("posts", len(posts)))
		return nil
	}
	return f.db.CreateInBatches(posts, 100).Error
}

// AddLike records a like by user on post, newest first. It reports false if
// user already liked the post.
func (f *Factory) AddLike(post *models.Post, user *models.User) bool {
	if post.LikedBy(user.ID) {
		return false
	}
	post.Likes = append([]models.Like{{UserID: user.ID}}, post.Likes...)
	return true
}

// AddComment prepends a comment by user on post. The comment is dated after
// the post and its newest comment, and never in the future.
func (f *Factory) AddComment(post *models.Post, user *models.User, text string) models.Comment {
	if text == "" {
		text = gofakeit.Sentence(gofakeit.Number(4, 16))
	}
	base := post.CreatedAt
	if len(post.Comments) > 0 && post.Comments[0].CreatedAt.After(base) {
		base = post.Comments[0].CreatedAt
	}
	at := base.Add(time.Duration(gofakeit.Number(1, 72*60)) * time.Minute)
	if now := time.Now(); at.After(now) {
		at = now
	}
	c := models.Comment{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Text:      text,
		Name:      user.Name,
		Avatar:    user.Avatar,
		CreatedAt: at,
	}
	post.Comments = append([]models.Comment{c}, post.Comments...)
	return c
}
