// Service level tests of user profile access and admin moderation.

package user

import (
	"Quorum/internal/entity"
	"Quorum/internal/errors"
	"Quorum/pkg/log"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

var userTestLogger log.Logger = log.New("test")

// In-memory stand-in for the user repository.
type fakeRepo struct {
	users map[string]entity.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[string]entity.User{}}
}

func (f *fakeRepo) GetUser(ctx context.Context, logger log.Logger, username string) (entity.User, error) {
	ue, ok := f.users[username]
	if !ok {
		return entity.User{}, errors.NotFound("User not available")
	}
	return ue, nil
}

func (f *fakeRepo) SetOrUpdateUser(ctx context.Context, logger log.Logger, ue entity.User, userExistCheck bool) (bool, error) {
	f.users[ue.Username] = ue
	return true, nil
}

func (f *fakeRepo) HasUser(ctx context.Context, logger log.Logger, username string) (bool, error) {
	_, ok := f.users[username]
	return ok, nil
}

func (f *fakeRepo) GetAllUsers(ctx context.Context, logger log.Logger) ([]entity.User, error) {
	all := []entity.User{}
	for _, ue := range f.users {
		ue.Password = ""
		all = append(all, ue)
	}
	return all, nil
}

func TestMain(m *testing.M) {
	RegisterCustomValidations(context.Background(), userTestLogger)
	os.Exit(m.Run())
}

func seededRepo() *fakeRepo {
	repo := newFakeRepo()
	repo.users["gopher_dev"] = entity.User{
		Username: "gopher_dev",
		FullName: "Gopher Developer",
		Email:    "gopher@example.com",
		Password: "a-bcrypt-hash",
		Role:     entity.RoleUser,
	}
	return repo
}

func TestGetUser(t *testing.T) {
	service := NewService(seededRepo(), userTestLogger)

	ctx := context.WithValue(context.Background(), "Username", "gopher_dev")
	ue, err := service.getuser(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "gopher_dev", ue.Username)
	// Password never leaves the service layer
	assert.Empty(t, ue.Password)

	// Username missing from context
	_, err = service.getuser(context.Background())
	assert.Error(t, err)
}

func TestUpdateProfile(t *testing.T) {
	repo := seededRepo()
	service := NewService(repo, userTestLogger)
	ctx := context.WithValue(context.Background(), "Username", "gopher_dev")

	ue, err := service.updateprofile(ctx, entity.UserProfileUpdate{FullName: "Senior Gopher"})
	assert.NoError(t, err)
	assert.Equal(t, "Senior Gopher", ue.FullName)
	// The stored hash survives a profile update untouched
	assert.Equal(t, "a-bcrypt-hash", repo.users["gopher_dev"].Password)

	// Validation failure on a malformed full name
	_, err = service.updateprofile(ctx, entity.UserProfileUpdate{FullName: "1337"})
	assert.Error(t, err)
}

func TestModerate(t *testing.T) {
	repo := seededRepo()
	service := NewService(repo, userTestLogger)
	ctx := context.Background()

	role := entity.RoleAdmin
	verified := true
	ue, err := service.moderate(ctx, "gopher_dev", entity.UserModeration{Role: &role, Verified: &verified})
	assert.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, ue.Role)
	assert.True(t, ue.Verified)

	unknown := "overlord"
	_, err = service.moderate(ctx, "gopher_dev", entity.UserModeration{Role: &unknown})
	assert.Error(t, err)

	_, err = service.moderate(ctx, "who_dis", entity.UserModeration{Verified: &verified})
	errresp, ok := err.(errors.ErrorResponse)
	assert.True(t, ok)
	assert.Equal(t, 404, errresp.Status)
}

func TestListUsersHidesPasswords(t *testing.T) {
	service := NewService(seededRepo(), userTestLogger)
	users, err := service.listusers(context.Background())
	assert.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Empty(t, users[0].Password)
}
