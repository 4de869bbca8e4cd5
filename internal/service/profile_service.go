package service

import (
	"context"
	"time"

	"devconnect/internal/auth"
	"devconnect/internal/models"
	"devconnect/internal/observability"
	"devconnect/internal/repository"
	"devconnect/internal/validation"

	"github.com/google/uuid"
)

type ProfileService struct {
	profiles repository.ProfileRepository
	users    repository.UserRepository
	policy   *auth.Policy
}

// UpsertProfileInput is the body of POST /profile. Nil fields are left
// unchanged on update; status and skills are required on creation.
type UpsertProfileInput struct {
	Company        *string `json:"company"`
	Website        *string `json:"website"`
	Location       *string `json:"location"`
	Status         *string `json:"status" validate:"omitempty,notblank" msg:"Status is required"`
	Skills         *string `json:"skills" validate:"omitempty,notblank" msg:"Skills is required"`
	Bio            *string `json:"bio"`
	GithubUsername *string `json:"githubUsername"`
	YouTube        *string `json:"youTube"`
	Twitter        *string `json:"twitter"`
	LinkedIn       *string `json:"linkedIn"`
	Facebook       *string `json:"facebook"`
	Instagram      *string `json:"instagram"`
}

type ExperienceInput struct {
	Title       string `json:"title" validate:"notblank" msg:"Title is required"`
	Company     string `json:"company" validate:"notblank" msg:"Company is required"`
	Location    string `json:"location"`
	From        string `json:"from" validate:"required,date" msg:"From date is required"`
	To          string `json:"to" validate:"omitempty,date"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

type EducationInput struct {
	School       string `json:"school" validate:"notblank" msg:"School is required"`
	Degree       string `json:"degree" validate:"notblank" msg:"Degree is required"`
	FieldOfStudy string `json:"fieldOfStudy" validate:"notblank" msg:"Field of study is required"`
	From         string `json:"from" validate:"required,date" msg:"From date is required"`
	To           string `json:"to" validate:"omitempty,date"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}

func NewProfileService(profiles repository.ProfileRepository, users repository.UserRepository, policy *auth.Policy) *ProfileService {
	return &ProfileService{profiles: profiles, users: users, policy: policy}
}

// List returns every profile with its owner's name and avatar.
func (s *ProfileService) List(ctx context.Context) ([]models.Profile, error) {
	return s.profiles.List(ctx)
}

// GetByUser returns userID's profile or NOT_FOUND.
func (s *ProfileService) GetByUser(ctx context.Context, userID uint) (*models.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if models.HasCode(err, models.CodeNotFound) {
		return nil, models.NewNotFoundMessage("Profile not found")
	}
	return profile, err
}

// GetMine returns the caller's profile. A missing profile is reported as a bad request.
func (s *ProfileService) GetMine(ctx context.Context, claim auth.SessionClaim) (*models.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, claim.UserID)
	if models.HasCode(err, models.CodeNotFound) {
		return nil, models.NewValidationError("User Profile not found!")
	}
	return profile, err
}

// Upsert creates the caller's profile or merges the supplied fields into it.
func (s *ProfileService) Upsert(ctx context.Context, claim auth.SessionClaim, in UpsertProfileInput) (*models.Profile, error) {
	ctx, span := observability.StartServiceSpan(ctx, "profile", "upsert")
	defer span.End()

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Skills != nil && len(validation.SplitSkills(*in.Skills)) == 0 {
		return nil, models.NewFieldValidationError([]models.FieldMessage{{Field: "skills", Message: "Skills is required"}})
	}

	_, err := s.profiles.GetByUserID(ctx, claim.UserID)
	switch {
	case models.HasCode(err, models.CodeNotFound):
		profile, err := s.create(ctx, claim, in)
		if !models.HasCode(err, models.CodeConflict) {
			return profile, err
		}
		// Lost a creation race; merge into the winner instead.
	case err != nil:
		return nil, err
	}

	return s.mutate(ctx, claim, func(p *models.Profile) error {
		mergeProfile(p, in)
		return nil
	})
}

func (s *ProfileService) create(ctx context.Context, claim auth.SessionClaim, in UpsertProfileInput) (*models.Profile, error) {
	var missing []models.FieldMessage
	if in.Status == nil {
		missing = append(missing, models.FieldMessage{Field: "status", Message: "Status is required"})
	}
	if in.Skills == nil {
		missing = append(missing, models.FieldMessage{Field: "skills", Message: "Skills is required"})
	}
	if len(missing) > 0 {
		return nil, models.NewFieldValidationError(missing)
	}
	// The token may outlive the account it was issued for.
	if _, err := s.users.GetByID(ctx, claim.UserID); err != nil {
		return nil, err
	}

	profile := &models.Profile{
		UserID:     claim.UserID,
		Skills:     []string{},
		Experience: []models.Experience{},
		Education:  []models.Education{},
	}
	mergeProfile(profile, in)
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func mergeProfile(p *models.Profile, in UpsertProfileInput) {
	setString(&p.Company, in.Company)
	setString(&p.Website, in.Website)
	setString(&p.Location, in.Location)
	setString(&p.Status, in.Status)
	setString(&p.Bio, in.Bio)
	setString(&p.GithubUsername, in.GithubUsername)
	if in.Skills != nil {
		p.Skills = validation.SplitSkills(*in.Skills)
	}
	setString(&p.Social.YouTube, in.YouTube)
	setString(&p.Social.Twitter, in.Twitter)
	setString(&p.Social.LinkedIn, in.LinkedIn)
	setString(&p.Social.Facebook, in.Facebook)
	setString(&p.Social.Instagram, in.Instagram)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// AddExperience prepends a new entry to the caller's work history.
func (s *ProfileService) AddExperience(ctx context.Context, claim auth.SessionClaim, in ExperienceInput) (*models.Profile, error) {
	entry, err := in.toExperience(uuid.NewString())
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, claim, func(p *models.Profile) error {
		p.Experience = append([]models.Experience{entry}, p.Experience...)
		return nil
	})
}

// UpdateExperience replaces the fields of entry id, keeping its id and position.
func (s *ProfileService) UpdateExperience(ctx context.Context, claim auth.SessionClaim, id string, in ExperienceInput) (*models.Profile, error) {
	entry, err := in.toExperience(id)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, claim, func(p *models.Profile) error {
		i := p.ExperienceIndex(id)
		if i < 0 {
			return models.NewNotFoundMessage("Experience not found")
		}
		p.Experience[i] = entry
		return nil
	})
}

// RemoveExperience drops entry id. An unknown id leaves the profile as it is.
func (s *ProfileService) RemoveExperience(ctx context.Context, claim auth.SessionClaim, id string) (*models.Profile, error) {
	return s.mutate(ctx, claim, func(p *models.Profile) error {
		if i := p.ExperienceIndex(id); i >= 0 {
			p.Experience = append(p.Experience[:i:i], p.Experience[i+1:]...)
		}
		return nil
	})
}

// AddEducation prepends a new entry to the caller's education history.
func (s *ProfileService) AddEducation(ctx context.Context, claim auth.SessionClaim, in EducationInput) (*models.Profile, error) {
	entry, err := in.toEducation(uuid.NewString())
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, claim, func(p *models.Profile) error {
		p.Education = append([]models.Education{entry}, p.Education...)
		return nil
	})
}

// UpdateEducation replaces the fields of entry id, keeping its id and position.
func (s *ProfileService) UpdateEducation(ctx context.Context, claim auth.SessionClaim, id string, in EducationInput) (*models.Profile, error) {
	entry, err := in.toEducation(id)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, claim, func(p *models.Profile) error {
		i := p.EducationIndex(id)
		if i < 0 {
			return models.NewNotFoundMessage("Education not found")
		}
		p.Education[i] = entry
		return nil
	})
}

// RemoveEducation drops entry id. An unknown id leaves the profile as it is.
func (s *ProfileService) RemoveEducation(ctx context.Context, claim auth.SessionClaim, id string) (*models.Profile, error) {
	return s.mutate(ctx, claim, func(p *models.Profile) error {
		if i := p.EducationIndex(id); i >= 0 {
			p.Education = append(p.Education[:i:i], p.Education[i+1:]...)
		}
		return nil
	})
}

// Delete removes the caller's profile.
func (s *ProfileService) Delete(ctx context.Context, claim auth.SessionClaim) error {
	profile, err := s.profiles.GetByUserID(ctx, claim.UserID)
	if err != nil {
		return err
	}
	if err := s.policy.Require(ctx, claim, models.RoleMember, auth.Owner(profile.UserID)); err != nil {
		return err
	}
	deleted, err := s.profiles.DeleteByUserID(ctx, profile.UserID)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundMessage("Profile not found")
	}
	return nil
}

// DeleteByUser removes userID's profile if there is one. Account deletion calls it.
func (s *ProfileService) DeleteByUser(ctx context.Context, userID uint) error {
	_, err := s.profiles.DeleteByUserID(ctx, userID)
	return err
}

// mutate runs fn against the caller's stored profile, checking ownership on
// the stored owner id rather than anything the client sent.
func (s *ProfileService) mutate(ctx context.Context, claim auth.SessionClaim, fn func(*models.Profile) error) (*models.Profile, error) {
	return s.profiles.Mutate(ctx, claim.UserID, func(p *models.Profile) error {
		if err := s.policy.Require(ctx, claim, models.RoleMember, auth.Owner(p.UserID)); err != nil {
			return err
		}
		return fn(p)
	})
}

func (in ExperienceInput) toExperience(id string) (models.Experience, error) {
	if err := validation.Struct(in); err != nil {
		return models.Experience{}, err
	}
	from, to, err := parseRange(in.From, in.To, in.Current)
	if err != nil {
		return models.Experience{}, err
	}
	return models.Experience{
		ID:          id,
		Title:       in.Title,
		Company:     in.Company,
		Location:    in.Location,
		From:        from,
		To:          to,
		Current:     in.Current,
		Description: in.Description,
	}, nil
}

func (in EducationInput) toEducation(id string) (models.Education, error) {
	if err := validation.Struct(in); err != nil {
		return models.Education{}, err
	}
	from, to, err := parseRange(in.From, in.To, in.Current)
	if err != nil {
		return models.Education{}, err
	}
	return models.Education{
		ID:           id,
		School:       in.School,
		Degree:       in.Degree,
		FieldOfStudy: in.FieldOfStudy,
		From:         from,
		To:           to,
		Current:      in.Current,
		Description:  in.Description,
	}, nil
}

// parseRange parses validated from/to dates. A current entry has no end date.
func parseRange(fromRaw, toRaw string, current bool) (time.Time, *time.Time, error) {
	from, err := validation.ParseDate(fromRaw)
	if err != nil {
		return time.Time{}, nil, models.NewValidationError("From date is invalid")
	}
	if current || toRaw == "" {
		return from, nil, nil
	}
	to, err := validation.ParseDate(toRaw)
	if err != nil {
		return time.Time{}, nil, models.NewValidationError("To date is invalid")
	}
	if to.Before(from) {
		return time.Time{}, nil, models.NewValidationError("To date must not be before from date")
	}
	return from, &to, nil
}
