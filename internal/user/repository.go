// User repository encapsulates the data access logic (interactions with the DB) related to Users in Quorum.

package user

import (
	"Quorum/internal/entity"
	"Quorum/internal/errors"
	"Quorum/pkg/db"
	"Quorum/pkg/log"
	"context"

	"github.com/go-redis/redis/v8"
)

type Repository interface {
	// GetUser returns the user with username if exists.
	GetUser(ctx context.Context, logger log.Logger, username string) (entity.User, error)
	// SetOrUpdateUser adds or updates the user saved in ue into the DB.
	SetOrUpdateUser(ctx context.Context, logger log.Logger, ue entity.User, userExistCheck bool) (bool, error)
	// HasUser returns a boolean depending on user's availability.
	HasUser(ctx context.Context, logger log.Logger, username string) (bool, error)
	// GetAllUsers returns every registered user, needed by the admin APIs.
	GetAllUsers(ctx context.Context, logger log.Logger) ([]entity.User, error)
}

// repository struct of user Repository.
// Object of this will be passed around from main to internal.
// Helps to access the repository layer interface and call methods.
type repository struct {
	db *db.RedisDB
}

// Returns a new instance of user repository for other packages to access its interface.
func NewRepository(dbwrp *db.RedisDB) Repository {
	return repository{db: dbwrp}
}

// Returns the user data object if user with the given username is found in the DB.
func (r repository) GetUser(ctx context.Context, logger log.Logger, username string) (entity.User, error) {
	user := entity.User{}
	available, dberr := r.HasUser(ctx, logger, username)
	if dberr != nil {
		// Issues in HasUser()
		return user, dberr
	} else if !available {
		return user, errors.NotFound("User not available")
	}
	if dberr := r.db.Client().HGetAll(ctx, "user:"+username).Scan(&user); dberr != nil {
		// Error during interacting with DB
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.HGetAll() in user.GetUser")
		return user, errors.InternalServerError("")
	}
	return user, nil
}

// Returns true if user got successfully added or updated into the DB.
func (r repository) SetOrUpdateUser(ctx context.Context, logger log.Logger, ue entity.User, userExistCheck bool) (bool, error) {
	if !userExistCheck {
		// Checking if an user with username ue.Username exists in the DB
		available, dberr := r.HasUser(ctx, logger, ue.Username)
		if dberr != nil {
			// Issues in HasUser()
			return false, dberr
		} else if available {
			return false, errors.BadRequest("User already exists")
		}
	}
	// Transaction to set user data
	key := "user:" + ue.Username
	txferr := func(key string) error {
		txf := func(tx *redis.Tx) error {
			// Operation is commited only if the watched keys remain unchanged
			_, dberr := r.db.Client().TxPipelined(ctx, func(client redis.Pipeliner) error {
				client.HSet(ctx, key, "username", ue.Username)
				client.HSet(ctx, key, "full_name", ue.FullName)
				client.HSet(ctx, key, "email", ue.Email)
				client.HSet(ctx, key, "password", ue.Password)
				client.HSet(ctx, key, "role", ue.Role)
				client.HSet(ctx, key, "verified", ue.Verified)
				client.HSet(ctx, key, "user_profile_pic", ue.ProfilePic)
				client.HSet(ctx, key, "created_at", ue.CreatedAt)
				return nil
			})
			return dberr
		}
		for i := 0; i < r.db.GetMaxRetries(); i++ {
			dberr := r.db.Client().Watch(ctx, txf, key)
			if dberr == nil {
				return nil
			} else if dberr == redis.TxFailedErr {
				// Optimistic lock lost. Retry.
				continue
			}
			// Return any other error.
			return dberr
		}
		return errors.New("SetOrUpdateUser reached maximum number of retries")
	}(key)
	if txferr != nil {
		logger.WithCtx(ctx).Error().Err(txferr).Msg("Error occured in SetOrUpdateUser transaction")
		return false, errors.InternalServerError("")
	}

	// Add user to user:index for admin listing
	dberr := r.db.Client().SAdd(ctx, "user:index", ue.Username).Err()
	if dberr != nil {
		// Issues in SAdd()
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during setting user index")
		return false, errors.InternalServerError("")
	}
	return true, nil
}

// Returns true if user with the given username exists in Quorum.
func (r repository) HasUser(ctx context.Context, logger log.Logger, username string) (bool, error) {
	available, dberr := r.db.Client().Exists(ctx, "user:"+username).Result()
	if dberr != nil && dberr != redis.Nil {
		// Error during interacting with DB
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.Exists() in user.HasUser")
		return false, errors.InternalServerError("")
	}
	return available != 0, nil
}

// Returns every registered user found through user:index, passwords blanked out.
func (r repository) GetAllUsers(ctx context.Context, logger log.Logger) ([]entity.User, error) {
	usernames, dberr := r.db.Client().SMembers(ctx, "user:index").Result()
	if dberr != nil && dberr != redis.Nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.SMembers() in user.GetAllUsers")
		return []entity.User{}, errors.InternalServerError("")
	}
	users := []entity.User{}
	for _, username := range usernames {
		user, err := r.GetUser(ctx, logger, username)
		if err != nil {
			if errresp, ok := err.(errors.ErrorResponse); ok && errresp.Status == 404 {
				// Index member without a hash, skip the stray entry
				continue
			}
			return users, err
		}
		// Hide password
		user.Password = ""
		users = append(users, user)
	}
	return users, nil
}
