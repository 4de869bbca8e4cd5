package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"devconnect/internal/auth"
	"devconnect/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixture is a hand-written data set loaded from YAML:
//
//	users:
//	  - name: Ada Lovelace
//	    email: ada@example.com
//	    password: secret123
//	    role: Admin
//	    profile:
//	      status: Developer
//	      skills: [go, sql]
//	      social:
//	        twitter: https://twitter.com/ada
//	    posts:
//	      - Hello world
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
}

// FixtureUser is one account in a Fixture.
type FixtureUser struct {
	Name     string          `yaml:"name"`
	Email    string          `yaml:"email"`
	Password string          `yaml:"password"`
	Role     models.Role     `yaml:"role"`
	Profile  *FixtureProfile `yaml:"profile"`
	Posts    []string        `yaml:"posts"`
}

// FixtureProfile mirrors the editable profile fields.
type FixtureProfile struct {
	Status         string        `yaml:"status"`
	Company        string        `yaml:"company"`
	Website        string        `yaml:"website"`
	Location       string        `yaml:"location"`
	Bio            string        `yaml:"bio"`
	GithubUsername string        `yaml:"githubUsername"`
	Skills         []string      `yaml:"skills"`
	Social         models.Social `yaml:"social"`
}

// FixtureResult counts rows written by ApplyFixture.
type FixtureResult struct {
	UsersCreated int
	UsersUpdated int
	Profiles     int
	Posts        int
}

// LoadFixture reads and validates a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes and validates a YAML fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := fx.Validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// Validate checks required fields and normalizes emails in place.
func (fx *Fixture) Validate() error {
	var errs []error
	seen := make(map[string]int, len(fx.Users))
	for i := range fx.Users {
		u := &fx.Users[i]
		u.Email = strings.ToLower(strings.TrimSpace(u.Email))
		where := fmt.Sprintf("users[%d]", i)
		if strings.TrimSpace(u.Name) == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", where))
		}
		if u.Email == "" || !strings.Contains(u.Email, "@") {
			errs = append(errs, fmt.Errorf("%s: a valid email is required", where))
		} else if j, dup := seen[u.Email]; dup {
			errs = append(errs, fmt.Errorf("%s: email %s already used by users[%d]", where, u.Email, j))
		} else {
			seen[u.Email] = i
		}
		if len(u.Password) < 6 {
			errs = append(errs, fmt.Errorf("%s: password must be at least 6 characters", where))
		}
		if u.Role != "" && !u.Role.Valid() {
			errs = append(errs, fmt.Errorf("%s: unknown role %q", where, u.Role))
		}
		if p := u.Profile; p != nil {
			if strings.TrimSpace(p.Status) == "" {
				errs = append(errs, fmt.Errorf("%s.profile: status is required", where))
			}
			if len(p.Skills) == 0 {
				errs = append(errs, fmt.Errorf("%s.profile: skills is required", where))
			}
		}
		for k, text := range u.Posts {
			if strings.TrimSpace(text) == "" {
				errs = append(errs, fmt.Errorf("%s.posts[%d]: text is required", where, k))
			}
		}
	}
	return errors.Join(errs...)
}

// ApplyFixture writes fx in one transaction. Existing users (matched by
// email) keep their password; their role and profile are brought in line with
// the fixture. Posts are only created for users the fixture creates, so
// applying the same fixture twice does not duplicate them.
func ApplyFixture(ctx context.Context, db *gorm.DB, fx *Fixture, hasher *auth.Hasher) (*FixtureResult, error) {
	res := &FixtureResult{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range fx.Users {
			fu := &fx.Users[i]
			role := fu.Role
			if role == "" {
				role = models.RoleMember
			}

			var user models.User
			err := tx.Where("email = ?", fu.Email).First(&user).Error
			created := false
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				hash, err := hasher.Hash(fu.Password)
				if err != nil {
					return fmt.Errorf("hash password for %s: %w", fu.Email, err)
				}
				user = models.User{
					Name:     strings.TrimSpace(fu.Name),
					Email:    fu.Email,
					Password: hash,
					Avatar:   auth.GravatarURL(fu.Email),
					Role:     role,
				}
				if err := tx.Create(&user).Error; err != nil {
					return fmt.Errorf("create user %s: %w", fu.Email, err)
				}
				created = true
				res.UsersCreated++
			case err != nil:
				return err
			default:
				if err := tx.Model(&user).Updates(map[string]any{"name": strings.TrimSpace(fu.Name), "role": role}).Error; err != nil {
					return fmt.Errorf("update user %s: %w", fu.Email, err)
				}
				res.UsersUpdated++
			}

			if fu.Profile != nil {
				if err := applyFixtureProfile(tx, &user, fu.Profile); err != nil {
					return err
				}
				res.Profiles++
			}

			if !created {
				continue
			}
			for _, text := range fu.Posts {
				post := &models.Post{
					UserID:   user.ID,
					Text:     strings.TrimSpace(text),
					Name:     user.Name,
					Avatar:   user.Avatar,
					Likes:    []models.Like{},
					Comments: []models.Comment{},
				}
				if err := tx.Create(post).Error; err != nil {
					return fmt.Errorf("create post for %s: %w", fu.Email, err)
				}
				res.Posts++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func applyFixtureProfile(tx *gorm.DB, user *models.User, fp *FixtureProfile) error {
	var profile models.Profile
	err := tx.Where("user_id = ?", user.ID).First(&profile).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile = models.Profile{
			UserID:     user.ID,
			Experience: []models.Experience{},
			Education:  []models.Education{},
		}
	case err != nil:
		return err
	}

	profile.Status = fp.Status
	profile.Company = fp.Company
	profile.Website = fp.Website
	profile.Location = fp.Location
	profile.Bio = fp.Bio
	profile.GithubUsername = fp.GithubUsername
	profile.Skills = trimAll(fp.Skills)
	profile.Social = fp.Social

	if profile.ID == 0 {
		if err := tx.Create(&profile).Error; err != nil {
			return fmt.Errorf("create profile for %s: %w", user.Email, err)
		}
		return nil
	}
	profile.Version++
	if err := tx.Save(&profile).Error; err != nil {
		return fmt.Errorf("update profile for %s: %w", user.Email, err)
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
