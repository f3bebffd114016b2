// Service layer of the internal package user.

package user

import (
	"Quorum/internal/entity"
	"Quorum/internal/errors"
	"Quorum/pkg/log"
	"context"
	"strings"

	"github.com/asaskevich/govalidator"
)

// Service layer of internal package user which encapsulates UserModel logic of Quorum.
type Service interface {
	// Fetches User Data based on Username saved in context
	getuser(ctx context.Context) (entity.User, error)
	// Updates the profile fields an user is allowed to change on themselves
	updateprofile(ctx context.Context, update entity.UserProfileUpdate) (entity.User, error)
	// Lists every registered user, used by the admin dashboard
	listusers(ctx context.Context) ([]entity.User, error)
	// Applies admin moderation fields (role, verified) on an user
	moderate(ctx context.Context, username string, moderation entity.UserModeration) (entity.User, error)
}

// Object of this will be passed around from main to routers to API.
// Helps to access the service layer interface and call methods.
// Also helps to pass objects to be used from outer layer.
type service struct {
	userRepo Repository
	logger   log.Logger
}

func NewService(userRepo Repository, logger log.Logger) Service {
	return service{userRepo, logger}
}

func (s service) getuser(ctx context.Context) (entity.User, error) {
	// get username from context
	username := ctx.Value("Username")
	if username == nil {
		// username missing from context
		return entity.User{}, errors.InternalServerError("")
	}
	user, dberr := s.userRepo.GetUser(ctx, s.logger, username.(string))
	if dberr != nil {
		// Error occured in GetUser()
		return entity.User{}, dberr
	}
	// Hide password
	user.Password = ""
	return user, nil
}

func (s service) updateprofile(ctx context.Context, update entity.UserProfileUpdate) (entity.User, error) {
	username := ctx.Value("Username")
	if username == nil {
		return entity.User{}, errors.InternalServerError("")
	}
	// Validate the received update data against validation-tags mentioned in its entity
	if _, valerr := govalidator.ValidateStruct(update); valerr != nil {
		return entity.User{}, errors.GenerateValidationErrorResponse(valerr.(govalidator.Errors).Errors())
	}

	user, dberr := s.userRepo.GetUser(ctx, s.logger, username.(string))
	if dberr != nil {
		// Error occured in GetUser()
		return entity.User{}, dberr
	}
	if strings.TrimSpace(update.FullName) != "" {
		user.FullName = update.FullName
	}
	if strings.TrimSpace(update.ProfilePic) != "" {
		user.ProfilePic = update.ProfilePic
	}

	if _, dberr := s.userRepo.SetOrUpdateUser(ctx, s.logger, user, true); dberr != nil {
		// Error occured in SetOrUpdateUser()
		return entity.User{}, dberr
	}
	user.Password = ""
	return user, nil
}

func (s service) listusers(ctx context.Context) ([]entity.User, error) {
	users, dberr := s.userRepo.GetAllUsers(ctx, s.logger)
	if dberr != nil {
		// Error occured in GetAllUsers()
		return nil, dberr
	}
	return users, nil
}

func (s service) moderate(ctx context.Context, username string, moderation entity.UserModeration) (entity.User, error) {
	user, dberr := s.userRepo.GetUser(ctx, s.logger, username)
	if dberr != nil {
		// Error occured in GetUser()
		return entity.User{}, dberr
	}
	if moderation.Role != nil {
		role := *moderation.Role
		if role != entity.RoleUser && role != entity.RoleAdmin {
			return entity.User{}, errors.BadRequest("Unknown role")
		}
		user.Role = role
	}
	if moderation.Verified != nil {
		user.Verified = *moderation.Verified
	}

	if _, dberr := s.userRepo.SetOrUpdateUser(ctx, s.logger, user, true); dberr != nil {
		// Error occured in SetOrUpdateUser()
		return entity.User{}, dberr
	}
	user.Password = ""
	return user, nil
}
