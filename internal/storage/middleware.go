// Middlewares needed by tus avatar handling service are defined here.

package storage

import (
	"Quorum/internal/errors"
	"Quorum/internal/user"
	"Quorum/pkg/cleanup"
	"Quorum/pkg/log"
	"context"
	"net/http"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
)

// Only an authenticated user can touch their own avatar,
// This middleware is needed to validate incoming tus requests.
func AvatarStorageMiddleware(logger log.Logger, userRepo user.Repository) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		// Fetch username from context which owns the avatar being touched
		username, ok := gctx.Value("Username").(string)
		if !ok {
			// Type assertion error
			logger.WithCtx(gctx).Error().Msg("Type assertion error in AvatarStorageMiddleware")
			gctx.AbortWithStatusJSON(http.StatusInternalServerError, errors.InternalServerError(""))
			return
		}
		ue, dberr := userRepo.GetUser(gctx, logger, username)
		if dberr != nil {
			// Error occured, might be validation or server error
			err, ok := dberr.(errors.ErrorResponse)
			if !ok {
				// Type assertion error
				gctx.AbortWithStatusJSON(http.StatusInternalServerError, errors.InternalServerError(""))
				return
			}
			gctx.AbortWithStatusJSON(err.Status, err)
			return
		}
		// Check if enough disk space is available to accept another avatar
		// Convert MAX_UPLOAD_SIZE to int64
		avatarUploadSize, err := strconv.ParseInt(MAX_UPLOAD_SIZE, 10, 64)
		if err != nil {
			// Set default to 5MBs
			avatarUploadSize = 5242880
		}
		diskSpaceAvail, err := getAvailableDiskSpace(gctx, logger)
		if err != nil {
			gctx.AbortWithStatus(http.StatusInternalServerError)
			return
		} else if diskSpaceAvail-52428800 < uint64(avatarUploadSize) {
			// Not enough space available
			gctx.AbortWithStatus(http.StatusInsufficientStorage)
			return
		}
		if gctx.Request.Method == "DELETE" {
			// Erase avatar ID from DB and remove stored files
			defer func() {
				cleanup.DeleteAvatarFiles(UPLOAD_PATH, ue.ProfilePic, logger)
				ue.ProfilePic = ""
				userRepo.SetOrUpdateUser(gctx, logger, ue, true)
			}()
		}
		gctx.Request.Header.Add("User", username) // to be used in tusd callbacks
		gctx.Next()
	}
}

// Helper method to get available disk space
func getAvailableDiskSpace(ctx context.Context, logger log.Logger) (uint64, error) {
	fs := syscall.Statfs_t{}
	err := syscall.Statfs(UPLOAD_PATH, &fs)
	if err != nil {
		// Error occured in Statfs()
		logger.WithCtx(ctx).Error().Err(err).Msg("Error occured while trying to fetch available disk space")
		return 0, err
	}
	return fs.Bfree * uint64(fs.Bsize), err
}
