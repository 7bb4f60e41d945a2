// Package transfer - whole data set export and import
package transfer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alwitt/goutils"
	"github.com/alwitt/securepass/journal"
	"github.com/alwitt/securepass/models"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
)

// transferItems the top level items a data set consists of
var transferItems = []string{"users.json", "remember_me.json", "SecurePassData"}

/*
Manager copies the complete data set between the application data directory
and an external directory.

A data set is the users document, the remember-me document, and the per-user
vault tree. Items absent from the source are skipped, not treated as errors.
*/
type Manager interface {
	/*
		Export copy the data set into a destination directory

			@param ctx context.Context - execution context
			@param destDir string - the directory to copy into
			@returns the top level items copied
	*/
	Export(ctx context.Context, destDir string) ([]string, error)

	/*
		Import copy a data set from a source directory into the data directory

		When overwrite is false, an item holding data in the data directory
		fails the import before anything is copied. Empty directories, such as
		the vault tree a fresh installation pre-creates, do not block an
		import.

			@param ctx context.Context - execution context
			@param srcDir string - the directory to copy from
			@param overwrite bool - whether existing items may be replaced
			@returns the top level items copied
	*/
	Import(ctx context.Context, srcDir string, overwrite bool) ([]string, error)
}

// managerImpl implements Manager
type managerImpl struct {
	goutils.Component

	dataDir string
	journal journal.Journal
}

// ManagerParams transfer manager init parameters
type ManagerParams struct {
	// DataDir the application data directory
	DataDir string `validate:"required"`
	// Journal optional activity journal; nil disables journaling
	Journal journal.Journal `validate:"-"`
}

/*
NewManager define new transfer manager

	@param params ManagerParams - manager parameters
	@returns manager instance
*/
func NewManager(params ManagerParams) (Manager, error) {
	validate := validator.New()
	if err := validate.Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid transfer manager init parameters [%w]", err)
	}
	return &managerImpl{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "transfer", "component": "transfer-manager"},
		},
		dataDir: params.DataDir,
		journal: params.Journal,
	}, nil
}

// recordEvent best effort activity journaling
func (m *managerImpl) recordEvent(
	ctx context.Context,
	eventType models.ActivityEventTypeENUMType,
	directory string,
	items []string,
) {
	if m.journal == nil {
		return
	}
	if err := m.journal.RecordEvent(ctx, eventType, models.ActivityEventTransferRelated{
		Directory: directory, Items: items,
	}); err != nil {
		log.WithError(err).
			WithFields(m.LogTags).
			WithField("event", eventType).
			Warn("Failed to journal transfer event")
	}
}

func (m *managerImpl) Export(ctx context.Context, destDir string) ([]string, error) {
	if err := os.MkdirAll(destDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to prepare export directory '%s' [%w]", destDir, err)
	}

	copied, err := copyItems(m.dataDir, destDir)
	if err != nil {
		return nil, err
	}

	m.recordEvent(ctx, models.ActivityEventTypeDataExported, destDir, copied)

	return copied, nil
}

func (m *managerImpl) Import(ctx context.Context, srcDir string, overwrite bool) ([]string, error) {
	if info, err := os.Stat(srcDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("import source '%s' is not a directory", srcDir)
	}

	if !overwrite {
		for _, item := range transferItems {
			if _, err := os.Stat(filepath.Join(srcDir, item)); err != nil {
				continue
			}
			if itemHoldsData(filepath.Join(m.dataDir, item)) {
				return nil, fmt.Errorf("import would overwrite existing '%s'", item)
			}
		}
	}

	copied, err := copyItems(srcDir, m.dataDir)
	if err != nil {
		return nil, err
	}

	m.recordEvent(ctx, models.ActivityEventTypeDataImported, srcDir, copied)

	return copied, nil
}

// itemHoldsData whether a data set item at this path holds anything worth
// protecting. An empty directory, such as the vault tree a fresh installation
// pre-creates, does not count.
func itemHoldsData(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return true
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return true
	}
	return len(entries) > 0
}

// copyItems copy the data set items present in srcDir into destDir. Returns
// the items actually copied.
func copyItems(srcDir, destDir string) ([]string, error) {
	copied := []string{}
	for _, item := range transferItems {
		srcPath := filepath.Join(srcDir, item)
		info, err := os.Stat(srcPath)
		if err != nil {
			continue
		}
		destPath := filepath.Join(destDir, item)
		if info.IsDir() {
			err = copyTree(srcPath, destPath)
		} else {
			err = copyFile(srcPath, destPath)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to copy '%s' [%w]", item, err)
		}
		copied = append(copied, item)
	}
	return copied, nil
}

func copyFile(srcPath, destPath string) error {
	source, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = source.Close()
	}()

	target, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(target, source); err != nil {
		_ = target.Close()
		return err
	}
	return target.Close()
}

func copyTree(srcRoot, destRoot string) error {
	return filepath.WalkDir(srcRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relative, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return err
		}
		destPath := filepath.Join(destRoot, relative)
		if entry.IsDir() {
			return os.MkdirAll(destPath, 0700)
		}
		return copyFile(path, destPath)
	})
}
