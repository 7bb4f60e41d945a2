package vault

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alwitt/securepass/models"
	"github.com/apex/log"
)

// avatarBaseName the avatar file name within a vault directory, sans extension
const avatarBaseName = "avatar"

// avatarExtensions the supported avatar image extensions
var avatarExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".gif"}

func avatarExtSupported(ext string) bool {
	for _, known := range avatarExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

/*
SetAvatar install a new avatar image from a source file

	@param ctx context.Context - execution context
	@param sourcePath string - path of the image to install
	@returns path of the installed avatar
*/
func (s *vaultStoreImpl) SetAvatar(ctx context.Context, sourcePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(sourcePath))
	if !avatarExtSupported(ext) {
		return "", fmt.Errorf("unsupported avatar image type '%s'", ext)
	}

	source, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to open avatar source '%s' [%w]", sourcePath, err)
	}
	defer func() {
		if err := source.Close(); err != nil {
			log.WithError(err).WithFields(s.LogTags).Error("Failed to close avatar source")
		}
	}()

	// Stage the new image fully before touching the current avatar
	targetPath := filepath.Join(s.dirPath, avatarBaseName+ext)
	stagingPath := targetPath + ".partial"
	target, err := os.OpenFile(stagingPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create avatar file '%s' [%w]", stagingPath, err)
	}

	if _, err := io.Copy(target, source); err != nil {
		_ = target.Close()
		_ = os.Remove(stagingPath)
		return "", fmt.Errorf("failed to copy avatar image [%w]", err)
	}
	if err := target.Close(); err != nil {
		_ = os.Remove(stagingPath)
		return "", fmt.Errorf("failed to finalize avatar file [%w]", err)
	}

	// Only one avatar lives in the directory at a time
	if err := s.removeAvatarFiles(); err != nil {
		_ = os.Remove(stagingPath)
		return "", err
	}
	if err := os.Rename(stagingPath, targetPath); err != nil {
		return "", fmt.Errorf("failed to install avatar file '%s' [%w]", targetPath, err)
	}

	s.recordEvent(ctx, models.ActivityEventTypeAvatarUpdated, models.ActivityEventAccountRelated{
		Username: s.username,
	})

	return targetPath, nil
}

/*
AvatarPath path of the user's current avatar image

	@param ctx context.Context - execution context
	@returns avatar path, empty when no avatar is set
*/
func (s *vaultStoreImpl) AvatarPath(_ context.Context) string {
	for _, ext := range avatarExtensions {
		candidate := filepath.Join(s.dirPath, avatarBaseName+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

/*
ClearAvatar remove the user's avatar image

	@param ctx context.Context - execution context
*/
func (s *vaultStoreImpl) ClearAvatar(ctx context.Context) error {
	if err := s.removeAvatarFiles(); err != nil {
		return err
	}
	s.recordEvent(ctx, models.ActivityEventTypeAvatarUpdated, models.ActivityEventAccountRelated{
		Username: s.username,
	})
	return nil
}

func (s *vaultStoreImpl) removeAvatarFiles() error {
	for _, ext := range avatarExtensions {
		candidate := filepath.Join(s.dirPath, avatarBaseName+ext)
		if err := os.Remove(candidate); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove avatar '%s' [%w]", candidate, err)
		}
	}
	return nil
}
