// External pkg tusd to handle avatar upload with resumable feature and file chunking.

package storage

import (
	"Quorum/internal/user"
	"Quorum/pkg/cleanup"
	"Quorum/pkg/log"
	"context"
	"errors"
	"os"
	"strconv"

	"github.com/h2non/filetype"
	"github.com/tus/tusd/pkg/filestore"
	tusd "github.com/tus/tusd/pkg/handler"
)

var (
	store           filestore.FileStore
	composer        *tusd.StoreComposer
	handler         *tusd.UnroutedHandler
	tusderr         error
	avatar_types    map[string]string = map[string]string{"image/jpeg": "jpg", "image/png": "png", "image/webp": "webp"}
	ctx             context.Context   = context.Background()
	UPLOAD_PATH     string            = os.Getenv("UPLOAD_PATH")
	MAX_UPLOAD_SIZE string            = os.Getenv("MAX_UPLOAD_SIZE")
)

// Returns a fresh or existing Tusd Unrouted handler to help in user avatar upload
func GetTusdStorageHandler(userRepo user.Repository, logger log.Logger) *tusd.UnroutedHandler {
	// Check if upload directory exists, if not make one
	if _, err := os.Stat(UPLOAD_PATH); errors.Is(err, os.ErrNotExist) {
		err := os.MkdirAll(UPLOAD_PATH, 0777)
		if err != nil {
			logger.WithCtx(ctx).Fatal().Err(err).Msg("Error during creating upload directory for tusd storage")
		}
	}
	// Convert MAX_UPLOAD_SIZE to int64
	avatarUploadSize, err := strconv.ParseInt(MAX_UPLOAD_SIZE, 10, 64)
	if err != nil {
		// Set default to 5MBs
		avatarUploadSize = 5242880
	}

	store = filestore.FileStore{Path: UPLOAD_PATH}

	composer = tusd.NewStoreComposer()
	store.UseIn(composer)

	handler, tusderr = tusd.NewUnroutedHandler(tusd.Config{
		BasePath:                "/api/upload_avatar",
		MaxSize:                 avatarUploadSize,
		StoreComposer:           composer,
		NotifyCompleteUploads:   true,
		NotifyTerminatedUploads: true,
		DisableDownload:         false,
		RespectForwardedHeaders: true,
		PreUploadCreateCallback: func(hook tusd.HookEvent) error {
			// Validate metadata attached with the upload request
			username := hook.HTTPRequest.Header.Get("User")
			available, dberr := userRepo.HasUser(ctx, logger, username)
			if dberr != nil || !available {
				return tusd.ErrUploadStoppedByServer
			}
			filetype := hook.Upload.MetaData["filetype"]
			if _, ok := avatar_types[filetype]; !ok {
				// invalid filetype
				return tusd.ErrInvalidContentType
			}
			if len(hook.Upload.MetaData["filename"]) == 0 {
				// filename cannot be blank
				return tusd.ErrNotFound
			}
			return nil
		},
		PreFinishResponseCallback: func(hook tusd.HookEvent) error {
			username := hook.HTTPRequest.Header.Get("User")
			ue, dberr := userRepo.GetUser(ctx, logger, username)
			if dberr != nil {
				// Error occured in GetUser()
				return tusd.NewHTTPError(dberr, 500)
			}
			// Validate uploaded file and set it as the user's avatar upon success
			filepath := UPLOAD_PATH + hook.Upload.ID
			file, oserr := os.Open(filepath)
			if oserr != nil {
				logger.Error().Err(oserr).Msg("Cannot open avatar - " + hook.Upload.ID)
				return tusd.ErrFileLocked
			}
			head := make([]byte, 261)
			file.Read(head)
			file.Close()
			if !filetype.IsImage(head) {
				// Filetype validation failed
				return tusd.ErrInvalidContentType
			}

			previousAvatar := ue.ProfilePic
			ue.ProfilePic = hook.Upload.ID
			if _, dberr = userRepo.SetOrUpdateUser(ctx, logger, ue, true); dberr != nil {
				// Error occured in SetOrUpdateUser()
				return tusd.NewHTTPError(dberr, 500)
			}
			// The replaced avatar is of no use anymore
			cleanup.DeleteAvatarFiles(UPLOAD_PATH, previousAvatar, logger)

			return nil
		},
	})
	if tusderr != nil {
		logger.WithCtx(ctx).Fatal().Err(tusderr).Msg("Unable to create tusd handler")
	}
	// Start a goroutine for receiving events from the handler whenever
	// an upload is completed or terminated. The event contains details
	// about the upload itself and the relevant HTTP request.
	go func() {
		for {
			select {
			case event := <-handler.CompleteUploads:
				logger.Info().Msgf("Upload %s finished", event.Upload.ID)
			case event := <-handler.TerminatedUploads:
				logger.Info().Msgf("Upload %s terminated", event.Upload.ID)
				cleanup.DeleteAvatarFiles(UPLOAD_PATH, event.Upload.ID, logger)
			}
		}
	}()

	return handler
}
