package service

import (
	"context"
	"testing"
	"time"

	"devconnect/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_Upsert(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	ctx := context.Background()
	alice := f.register(t, "Alice", "alice@example.com")

	t.Run("creation requires status and skills", func(t *testing.T) {
		_, err := f.Profile.Upsert(ctx, alice, UpsertProfileInput{Company: ptr("Acme")})
		assertCode(t, err, models.CodeValidation)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Len(t, appErr.Fields, 2)

		_, err = f.Profile.Upsert(ctx, alice, UpsertProfileInput{Status: ptr("Developer"), Skills: ptr(" , ")})
		assertCode(t, err, models.CodeValidation)
	})

	t.Run("skills are split and trimmed", func(t *testing.T) {
		profile, err := f.Profile.Upsert(ctx, alice, UpsertProfileInput{
			Status:   ptr("Developer"),
			Skills:   ptr("go, rust"),
			LinkedIn: ptr("https://linkedin.com/in/alice"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"go", "rust"}, profile.Skills)
		assert.Equal(t, alice.UserID, profile.UserID)
		require.NotNil(t, profile.Owner)
		assert.Equal(t, "Alice", profile.Owner.Name)

		mine, err := f.Profile.GetMine(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, []string{"go", "rust"}, mine.Skills)
	})

	t.Run("update merges only supplied fields", func(t *testing.T) {
		profile, err := f.Profile.Upsert(ctx, alice, UpsertProfileInput{
			Bio:     ptr("Gopher"),
			Twitter: ptr("https://twitter.com/alice"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Developer", profile.Status)
		assert.Equal(t, []string{"go", "rust"}, profile.Skills)
		assert.Equal(t, "Gopher", profile.Bio)
		assert.Equal(t, "https://linkedin.com/in/alice", profile.Social.LinkedIn)
		assert.Equal(t, "https://twitter.com/alice", profile.Social.Twitter)

		_, err = f.Profile.Upsert(ctx, alice, UpsertProfileInput{Status: ptr(" ")})
		assertCode(t, err, models.CodeValidation)
	})

	n, err := f.profiles.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestProfileService_Reads(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	ctx := context.Background()
	alice := f.register(t, "Alice", "alice@example.com")
	bob := f.register(t, "Bob", "bob@example.com")

	_, err := f.Profile.GetMine(ctx, alice)
	assertCode(t, err, models.CodeValidation)
	assert.Contains(t, err.Error(), "User Profile not found!")

	_, err = f.Profile.GetByUser(ctx, alice.UserID)
	assertCode(t, err, models.CodeNotFound)

	for _, c := range []struct {
		claimName string
		skills    string
	}{{"alice", "go"}, {"bob", "sql"}} {
		claim := alice
		if c.claimName == "bob" {
			claim = bob
		}
		_, err := f.Profile.Upsert(ctx, claim, UpsertProfileInput{Status: ptr("Developer"), Skills: ptr(c.skills)})
		require.NoError(t, err)
	}

	all, err := f.Profile.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Alice", all[0].Owner.Name)
	assert.Equal(t, "Bob", all[1].Owner.Name)

	got, err := f.Profile.GetByUser(ctx, bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"sql"}, got.Skills)
}

func TestProfileService_Experience(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	ctx := context.Background()
	alice := f.register(t, "Alice", "alice@example.com")
	_, err := f.Profile.Upsert(ctx, alice, UpsertProfileInput{Status: ptr("Developer"), Skills: ptr("go")})
	require.NoError(t, err)

	_, err = f.Profile.AddExperience(ctx, alice, ExperienceInput{Title: "Engineer", From: "2020-01-01"})
	assertCode(t, err, models.CodeValidation)

	first, err := f.Profile.AddExperience(ctx, alice, ExperienceInput{
		Title: "Junior", Company: "Acme", From: "2018-01-01", To: "2019-12-31",
	})
	require.NoError(t, err)
	require.Len(t, first.Experience, 1)
	require.NotNil(t, first.Experience[0].To)

	second, err := f.Profile.AddExperience(ctx, alice, ExperienceInput{
		Title: "Senior", Company: "Globex", From: "2020-01-01T00:00:00Z", To: "2024-01-01", Current: true,
	})
	require.NoError(t, err)
	require.Len(t, second.Experience, 2)
	assert.Equal(t, "Senior", second.Experience[0].Title, "new entries go first")
	assert.Nil(t, second.Experience[0].To, "current entries have no end date")
	assert.True(t, second.Experience[0].From.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.NotEmpty(t, second.Experience[0].ID)
	assert.NotEqual(t, second.Experience[0].ID, second.Experience[1].ID)

	juniorID := second.Experience[1].ID
	updated, err := f.Profile.UpdateExperience(ctx, alice, juniorID, ExperienceInput{
		Title: "Intern", Company: "Acme", From: "2017-06-01",
	})
	require.NoError(t, err)
	assert.Equal(t, juniorID, updated.Experience[1].ID)
	assert.Equal(t, "Intern", updated.Experience[1].Title)
	assert.Nil(t, updated.Experience[1].To)

	_, err = f.Profile.UpdateExperience(ctx, alice, "missing", ExperienceInput{Title: "X", Company: "Y", From: "2020-01-01"})
	assertCode(t, err, models.CodeNotFound)

	_, err = f.Profile.AddExperience(ctx, alice, ExperienceInput{Title: "X", Company: "Y", From: "2020-01-01", To: "2019-01-01"})
	assertCode(t, err, models.CodeValidation)

	unchanged, err := f.Profile.RemoveExperience(ctx, alice, "missing")
	require.NoError(t, err, "removing an unknown entry is a no-op")
	assert.Len(t, unchanged.Experience, 2)

	removed, err := f.Profile.RemoveExperience(ctx, alice, juniorID)
	require.NoError(t, err)
	require.Len(t, removed.Experience, 1)
	assert.Equal(t, "Senior", removed.Experience[0].Title)
}

func TestProfileService_Education(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	ctx := context.Background()
	alice := f.register(t, "Alice", "alice@example.com")

	_, err := f.Profile.AddEducation(ctx, alice, EducationInput{School: "MIT", Degree: "BSc", FieldOfStudy: "CS", From: "2010-09-01"})
	assertCode(t, err, models.CodeNotFound)

	_, err = f.Profile.Upsert(ctx, alice, UpsertProfileInput{Status: ptr("Developer"), Skills: ptr("go")})
	require.NoError(t, err)

	_, err = f.Profile.AddEducation(ctx, alice, EducationInput{School: "MIT", Degree: "BSc", From: "2010-09-01"})
	assertCode(t, err, models.CodeValidation)
	_, err = f.Profile.AddEducation(ctx, alice, EducationInput{School: "MIT", Degree: "BSc", FieldOfStudy: "CS", From: "yesterday"})
	assertCode(t, err, models.CodeValidation)

	profile, err := f.Profile.AddEducation(ctx, alice, EducationInput{School: "MIT", Degree: "BSc", FieldOfStudy: "CS", From: "2010-09-01"})
	require.NoError(t, err)
	profile, err = f.Profile.AddEducation(ctx, alice, EducationInput{School: "ETH", Degree: "MSc", FieldOfStudy: "CS", From: "2014-09-01"})
	require.NoError(t, err)
	require.Len(t, profile.Education, 2)
	assert.Equal(t, "ETH", profile.Education[0].School)

	mitID := profile.Education[1].ID
	profile, err = f.Profile.UpdateEducation(ctx, alice, mitID, EducationInput{School: "MIT", Degree: "BSc", FieldOfStudy: "Mathematics", From: "2010-09-01"})
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", profile.Education[1].FieldOfStudy)

	_, err = f.Profile.UpdateEducation(ctx, alice, "missing", EducationInput{School: "A", Degree: "B", FieldOfStudy: "C", From: "2010-09-01"})
	assertCode(t, err, models.CodeNotFound)

	profile, err = f.Profile.RemoveEducation(ctx, alice, mitID)
	require.NoError(t, err)
	require.Len(t, profile.Education, 1)
	profile, err = f.Profile.RemoveEducation(ctx, alice, mitID)
	require.NoError(t, err)
	assert.Len(t, profile.Education, 1)
}

func TestProfileService_Delete(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	ctx := context.Background()
	alice := f.register(t, "Alice", "alice@example.com")

	assertCode(t, f.Profile.Delete(ctx, alice), models.CodeNotFound)

	_, err := f.Profile.Upsert(ctx, alice, UpsertProfileInput{Status: ptr("Developer"), Skills: ptr("go")})
	require.NoError(t, err)
	require.NoError(t, f.Profile.Delete(ctx, alice))

	_, err = f.Profile.GetByUser(ctx, alice.UserID)
	assertCode(t, err, models.CodeNotFound)

	require.NoError(t, f.Profile.DeleteByUser(ctx, alice.UserID), "deleting an absent profile is fine")
}

func TestProfileService_UpsertFromDeletedAccount(t *testing.T) {
	t.Parallel()
	f := newFixture(t, "")
	ctx := context.Background()
	alice := f.register(t, "Alice", "alice@example.com")

	_, err := f.Profile.Upsert(ctx, alice, UpsertProfileInput{Status: ptr("Developer"), Skills: ptr("go")})
	require.NoError(t, err)
	require.NoError(t, f.Users.DeleteSelf(ctx, alice))

	_, err = f.Profile.Upsert(ctx, alice, UpsertProfileInput{Status: ptr("Developer"), Skills: ptr("go")})
	assertCode(t, err, models.CodeNotFound)

	all, err := f.Profile.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
