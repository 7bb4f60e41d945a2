// Package vault - per-user credential record storage
package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alwitt/goutils"
	"github.com/alwitt/securepass/journal"
	"github.com/alwitt/securepass/models"
	"github.com/alwitt/securepass/obfuscate"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// vaultFileName the record document file name within a user's vault directory
const vaultFileName = "passwords.json"

/*
VaultStore the credential vault of one user.

Records live in a single JSON document under the user's vault directory; every
mutation rewrites the document whole. Record identity is the record ID, which
the store assigns on insert. The store assumes one interactive session per
process and is not safe for concurrent use.
*/
type VaultStore interface {
	/*
		Records all records in the vault, in stored order

			@param ctx context.Context - execution context
			@returns the records
	*/
	Records(ctx context.Context) []models.VaultRecord

	/*
		Upsert insert or update one record

		A record without an ID is inserted at the end and assigned one. A
		record carrying a known ID replaces the stored record in place; an
		unknown ID fails with ErrUnknownRecord. The record timestamp is set
		to the save time either way.

			@param ctx context.Context - execution context
			@param record models.VaultRecord - the record to save
			@returns the saved record, with ID and timestamp filled in
	*/
	Upsert(ctx context.Context, record models.VaultRecord) (models.VaultRecord, error)

	/*
		Delete remove records by ID

		All named IDs must exist; otherwise nothing is removed and the call
		fails with ErrUnknownRecord. Surviving records keep their order.

			@param ctx context.Context - execution context
			@param ids ...string - IDs of the records to remove
	*/
	Delete(ctx context.Context, ids ...string) error

	/*
		Clear remove every record from the vault

			@param ctx context.Context - execution context
	*/
	Clear(ctx context.Context) error

	/*
		Filter the records matching a search term

		The term is matched case-insensitively as a substring of the website,
		site name, email, and display name of each record. An empty term
		matches everything. Matches keep their stored order.

			@param ctx context.Context - execution context
			@param term string - the search term
			@returns the matching records
	*/
	Filter(ctx context.Context, term string) []models.VaultRecord

	/*
		Reload re-read the record document from disk

			@param ctx context.Context - execution context
	*/
	Reload(ctx context.Context) error

	/*
		SetAvatar install a new avatar image from a source file

		The image is staged fully before the previous avatar, whatever its
		extension, is replaced; a failed install keeps the current avatar. The
		source file's extension must be one of the supported image types.

			@param ctx context.Context - execution context
			@param sourcePath string - path of the image to install
			@returns path of the installed avatar
	*/
	SetAvatar(ctx context.Context, sourcePath string) (string, error)

	/*
		AvatarPath path of the user's current avatar image

			@param ctx context.Context - execution context
			@returns avatar path, empty when no avatar is set
	*/
	AvatarPath(ctx context.Context) string

	/*
		ClearAvatar remove the user's avatar image

		Removing an avatar that is not set is a no-op.

			@param ctx context.Context - execution context
	*/
	ClearAvatar(ctx context.Context) error
}

// vaultStoreImpl implements VaultStore
type vaultStoreImpl struct {
	goutils.Component

	username  string
	dirPath   string
	journal   journal.Journal
	nowFunc   func() time.Time
	validator *validator.Validate

	records []models.VaultRecord
}

// VaultStoreParams vault store init parameters
type VaultStoreParams struct {
	// BaseDir parent directory holding all per-user vault directories
	BaseDir string `validate:"required"`
	// Username the vault owner
	Username string `validate:"required"`
	// Journal optional activity journal; nil disables journaling
	Journal journal.Journal `validate:"-"`
	// NowFunc clock override, defaults to time.Now
	NowFunc func() time.Time `validate:"-"`
}

/*
NewVaultStore define new vault store for one user

The user's vault directory is created if missing.

	@param ctx context.Context - execution context
	@param params VaultStoreParams - store parameters
	@returns store instance
*/
func NewVaultStore(ctx context.Context, params VaultStoreParams) (VaultStore, error) {
	validate := validator.New()
	if err := models.RegisterWithValidator(validate); err != nil {
		return nil, fmt.Errorf("failed to install custom validation macros [%w]", err)
	}
	if err := validate.Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid vault store init parameters [%w]", err)
	}
	if params.NowFunc == nil {
		params.NowFunc = time.Now
	}

	dirPath := filepath.Join(params.BaseDir, obfuscate.Encode(params.Username))
	if err := os.MkdirAll(dirPath, 0700); err != nil {
		return nil, fmt.Errorf("failed to prepare vault directory '%s' [%w]", dirPath, err)
	}

	instance := &vaultStoreImpl{
		Component: goutils.Component{
			LogTags: log.Fields{
				"module": "vault", "component": "vault-store", "username": params.Username,
			},
		},
		username:  params.Username,
		dirPath:   dirPath,
		journal:   params.Journal,
		nowFunc:   params.NowFunc,
		validator: validate,
		records:   []models.VaultRecord{},
	}

	if err := instance.Reload(ctx); err != nil {
		return nil, err
	}

	return instance, nil
}

func (s *vaultStoreImpl) filePath() string {
	return filepath.Join(s.dirPath, vaultFileName)
}

/*
Reload re-read the record document from disk

A missing document is an empty vault. Records persisted without an ID are
assigned one in memory; those IDs are only written back on the next save.

	@param ctx context.Context - execution context
*/
func (s *vaultStoreImpl) Reload(_ context.Context) error {
	s.records = []models.VaultRecord{}

	content, err := os.ReadFile(s.filePath())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).WithFields(s.LogTags).Warn("Vault document unreadable, starting empty")
		}
		return nil
	}

	var records []models.VaultRecord
	if err := json.Unmarshal(content, &records); err != nil {
		log.WithError(err).WithFields(s.LogTags).Warn("Vault document unparsable, starting empty")
		return nil
	}

	for idx := range records {
		if records[idx].ID == "" {
			records[idx].ID = uuid.NewString()
		}
	}
	s.records = records

	return nil
}

// save rewrite the record document whole. The caller owns rolling back the
// in-memory slice if this fails.
func (s *vaultStoreImpl) save() error {
	content, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("vault document serialization failed [%w]", models.ErrPersistence)
	}
	if err := os.WriteFile(s.filePath(), content, 0600); err != nil {
		return fmt.Errorf("vault document write failed: %s [%w]", err, models.ErrPersistence)
	}
	return nil
}

// recordEvent best effort activity journaling
func (s *vaultStoreImpl) recordEvent(
	ctx context.Context, eventType models.ActivityEventTypeENUMType, metadata interface{},
) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordEvent(ctx, eventType, metadata); err != nil {
		log.WithError(err).
			WithFields(s.LogTags).
			WithField("event", eventType).
			Warn("Failed to journal vault event")
	}
}

func (s *vaultStoreImpl) Records(_ context.Context) []models.VaultRecord {
	result := make([]models.VaultRecord, len(s.records))
	copy(result, s.records)
	return result
}

func (s *vaultStoreImpl) Upsert(
	ctx context.Context, record models.VaultRecord,
) (models.VaultRecord, error) {
	if record.Name.Type == "" {
		record.Name.Type = models.NameTypeNone
	}
	if err := s.validator.Struct(&record); err != nil {
		return models.VaultRecord{}, fmt.Errorf("vault record is not valid [%w]", err)
	}
	record.Timestamp = s.nowFunc().Format(models.TimeLayout)

	previous := s.records

	if record.ID == "" {
		record.ID = uuid.NewString()
		s.records = append(append([]models.VaultRecord{}, s.records...), record)
	} else {
		replaceAt := -1
		for idx, existing := range s.records {
			if existing.ID == record.ID {
				replaceAt = idx
				break
			}
		}
		if replaceAt < 0 {
			return models.VaultRecord{}, fmt.Errorf(
				"no vault record '%s' [%w]", record.ID, models.ErrUnknownRecord,
			)
		}
		updated := make([]models.VaultRecord, len(s.records))
		copy(updated, s.records)
		updated[replaceAt] = record
		s.records = updated
	}

	if err := s.save(); err != nil {
		s.records = previous
		return models.VaultRecord{}, fmt.Errorf(
			"failed to persist vault record '%s' [%w]", record.ID, err,
		)
	}

	s.recordEvent(ctx, models.ActivityEventTypeVaultRecordSaved, models.ActivityEventRecordRelated{
		Username: s.username, RecordIDs: []string{record.ID},
	})

	return record, nil
}

func (s *vaultStoreImpl) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	targeted := map[string]bool{}
	for _, id := range ids {
		targeted[id] = false
	}

	remaining := make([]models.VaultRecord, 0, len(s.records))
	for _, record := range s.records {
		if _, ok := targeted[record.ID]; ok {
			targeted[record.ID] = true
			continue
		}
		remaining = append(remaining, record)
	}

	for id, found := range targeted {
		if !found {
			return fmt.Errorf("no vault record '%s' [%w]", id, models.ErrUnknownRecord)
		}
	}

	previous := s.records
	s.records = remaining
	if err := s.save(); err != nil {
		s.records = previous
		return fmt.Errorf("failed to persist vault record removal [%w]", err)
	}

	s.recordEvent(ctx, models.ActivityEventTypeVaultRecordDeleted, models.ActivityEventRecordRelated{
		Username: s.username, RecordIDs: ids,
	})

	return nil
}

func (s *vaultStoreImpl) Clear(ctx context.Context) error {
	previous := s.records
	s.records = []models.VaultRecord{}
	if err := s.save(); err != nil {
		s.records = previous
		return fmt.Errorf("failed to persist vault clear [%w]", err)
	}

	s.recordEvent(ctx, models.ActivityEventTypeVaultCleared, models.ActivityEventAccountRelated{
		Username: s.username,
	})

	return nil
}

func (s *vaultStoreImpl) Filter(_ context.Context, term string) []models.VaultRecord {
	needle := strings.ToLower(term)
	result := []models.VaultRecord{}
	for _, record := range s.records {
		haystacks := []string{
			record.Website, record.SiteName, record.Email, record.Name.DisplayName(),
		}
		for _, candidate := range haystacks {
			if strings.Contains(strings.ToLower(candidate), needle) {
				result = append(result, record)
				break
			}
		}
	}
	return result
}
