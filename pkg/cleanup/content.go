// Helpers to remove stale avatar files uploaded through the tusd storage handler.

package cleanup

import (
	"Quorum/pkg/log"
	"os"
)

// DeleteAvatarFiles removes the stored avatar blob and its tusd .info metadata file.
// Called when an user replaces their profile picture.
func DeleteAvatarFiles(uploadPath, avatarID string, logger log.Logger) {
	if avatarID == "" {
		return
	}
	for _, path := range []string{uploadPath + avatarID, uploadPath + avatarID + ".info"} {
		if oserr := os.Remove(path); oserr != nil && !os.IsNotExist(oserr) {
			logger.Error().Err(oserr).Msg("Error occured during removing avatar file " + path)
		}
	}
}
