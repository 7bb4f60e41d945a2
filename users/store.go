// Package users - account storage and authentication
package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alwitt/goutils"
	"github.com/alwitt/securepass/hashing"
	"github.com/alwitt/securepass/journal"
	"github.com/alwitt/securepass/models"
	"github.com/alwitt/securepass/policy"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
)

// RegistrationRequest parameters for registering a new account.
//
// A security question pair is used for recovery only when both the question
// and its answer are provided; a question without an answer is stored but
// never offered for recovery.
type RegistrationRequest struct {
	// Username unique account identifier
	Username string `validate:"required"`
	// Password account password, must satisfy the password policy
	Password string `validate:"required"`
	// SecurityQuestion1 optional first recovery question
	SecurityQuestion1 string
	// SecurityAnswer1 answer to the first recovery question
	SecurityAnswer1 string
	// SecurityQuestion2 optional second recovery question
	SecurityQuestion2 string
	// SecurityAnswer2 answer to the second recovery question
	SecurityAnswer2 string
}

/*
AccountStore holds the set of registered accounts.

The store is backed by a single obfuscated JSON document. All operations are
synchronous; the document is read or rewritten whole within a single call.
The store assumes single-writer single-reader access, one interactive session
per process; concurrent processes on the same file lose updates last-write-wins.
*/
type AccountStore interface {
	/*
		Exists whether an account with this username is registered

			@param ctx context.Context - execution context
			@param username string - the username to check
			@returns whether the account exists
	*/
	Exists(ctx context.Context, username string) bool

	/*
		Register register a new account

		Fails with ErrDuplicateUsername when the username is taken, with
		ErrPolicyViolation when the password fails the policy gate, and with
		ErrPersistence when the document rewrite fails; on persistence failure
		the in-memory state is rolled back so no unsaved account lingers.

			@param ctx context.Context - execution context
			@param request RegistrationRequest - registration parameters
	*/
	Register(ctx context.Context, request RegistrationRequest) error

	/*
		VerifyLogin verify a username and password pair

		Fails with ErrUnknownUser or ErrWrongPassword. A corrupt stored
		credential is treated as verification failure, not a crash.

			@param ctx context.Context - execution context
			@param username string - the username
			@param password string - the password to verify
	*/
	VerifyLogin(ctx context.Context, username string, password string) error

	/*
		SecurityQuestions the recovery questions configured for an account

		Question slot one is returned before slot two. Questions without a
		stored answer hash are unusable for recovery and are not returned.

			@param ctx context.Context - execution context
			@param username string - the username
			@returns ordered question texts, empty when none are usable
	*/
	SecurityQuestions(ctx context.Context, username string) []string

	/*
		VerifySecurityAnswer verify a recovery answer

		The question text is matched against whichever slot it equals; the
		answer is then verified against that slot's stored hash. Returns false
		when the question matches neither slot or the matched slot has no
		stored answer hash.

			@param ctx context.Context - execution context
			@param username string - the username
			@param question string - the question text as shown to the user
			@param answer string - the submitted answer
			@returns whether the answer is correct
	*/
	VerifySecurityAnswer(ctx context.Context, username string, question string, answer string) bool

	/*
		UpdatePassword replace an account's password

		Fails with ErrUnknownUser, ErrPolicyViolation, or ErrPersistence; on
		persistence failure the previous hash is restored in memory.

			@param ctx context.Context - execution context
			@param username string - the username
			@param newPassword string - the replacement password
	*/
	UpdatePassword(ctx context.Context, username string, newPassword string) error

	/*
		Account fetch one account

			@param ctx context.Context - execution context
			@param username string - the username
			@returns the account entry
	*/
	Account(ctx context.Context, username string) (models.Account, error)

	/*
		Reload re-read the users document from disk

			@param ctx context.Context - execution context
	*/
	Reload(ctx context.Context) error
}

// accountStoreImpl implements AccountStore
type accountStoreImpl struct {
	goutils.Component

	filePath  string
	hasher    hashing.Hasher
	journal   journal.Journal
	nowFunc   func() time.Time
	validator *validator.Validate

	accounts map[string]models.Account
}

// AccountStoreParams account store init parameters
type AccountStoreParams struct {
	// UsersFile file path of the users JSON document
	UsersFile string `validate:"required"`
	// Hasher credential hashing engine
	Hasher hashing.Hasher `validate:"-"`
	// Journal optional activity journal; nil disables journaling
	Journal journal.Journal `validate:"-"`
	// NowFunc clock override, defaults to time.Now
	NowFunc func() time.Time `validate:"-"`
}

/*
NewAccountStore define new account store

	@param ctx context.Context - execution context
	@param params AccountStoreParams - store parameters
	@returns store instance
*/
func NewAccountStore(ctx context.Context, params AccountStoreParams) (AccountStore, error) {
	logTags := log.Fields{"module": "users", "component": "account-store"}

	if params.Hasher == nil {
		return nil, fmt.Errorf("account store requires a credential hasher")
	}
	if params.NowFunc == nil {
		params.NowFunc = time.Now
	}

	instance := &accountStoreImpl{
		Component: goutils.Component{LogTags: logTags},
		filePath:  params.UsersFile,
		hasher:    params.Hasher,
		journal:   params.Journal,
		nowFunc:   params.NowFunc,
		validator: validator.New(),
		accounts:  map[string]models.Account{},
	}
	if err := models.RegisterWithValidator(instance.validator); err != nil {
		return nil, fmt.Errorf("failed to install custom validation macros [%w]", err)
	}
	if err := instance.validator.Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid account store init parameters [%w]", err)
	}

	if err := instance.Reload(ctx); err != nil {
		return nil, err
	}

	return instance, nil
}

/*
Reload re-read the users document from disk

Any read or parse failure degrades to an empty store with a warning; the file
may simply not exist yet. Individual undecodable entries are skipped.

	@param ctx context.Context - execution context
*/
func (s *accountStoreImpl) Reload(_ context.Context) error {
	s.accounts = map[string]models.Account{}

	content, err := os.ReadFile(s.filePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).WithFields(s.LogTags).Warn("Users document unreadable, starting empty")
		}
		return nil
	}

	document := map[string]accountFileEntry{}
	if err := json.Unmarshal(content, &document); err != nil {
		log.WithError(err).WithFields(s.LogTags).Warn("Users document unparsable, starting empty")
		return nil
	}

	for encodedUsername, entry := range document {
		account, err := decodeAccount(encodedUsername, entry)
		if err != nil {
			log.WithError(err).
				WithFields(s.LogTags).
				WithField("entry", encodedUsername).
				Warn("Skipping undecodable account entry")
			continue
		}
		s.accounts[account.Username] = account
	}

	return nil
}

// save rewrite the users document whole. The caller owns rolling back the
// in-memory map if this fails.
func (s *accountStoreImpl) save() error {
	document := map[string]accountFileEntry{}
	for _, account := range s.accounts {
		key, entry := encodeAccount(account)
		document[key] = entry
	}

	content, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("users document serialization failed [%w]", models.ErrPersistence)
	}

	if err := os.WriteFile(s.filePath, content, 0600); err != nil {
		return fmt.Errorf("users document write failed: %s [%w]", err, models.ErrPersistence)
	}

	return nil
}

// recordEvent best effort activity journaling
func (s *accountStoreImpl) recordEvent(
	ctx context.Context, eventType models.ActivityEventTypeENUMType, username string,
) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordEvent(
		ctx, eventType, models.ActivityEventAccountRelated{Username: username},
	); err != nil {
		log.WithError(err).
			WithFields(s.LogTags).
			WithField("event", eventType).
			Warn("Failed to journal account event")
	}
}

/*
Exists whether an account with this username is registered

	@param ctx context.Context - execution context
	@param username string - the username to check
	@returns whether the account exists
*/
func (s *accountStoreImpl) Exists(_ context.Context, username string) bool {
	_, ok := s.accounts[username]
	return ok
}

/*
Register register a new account

	@param ctx context.Context - execution context
	@param request RegistrationRequest - registration parameters
*/
func (s *accountStoreImpl) Register(ctx context.Context, request RegistrationRequest) error {
	if err := s.validator.Struct(&request); err != nil {
		return fmt.Errorf("invalid registration request [%w]", err)
	}

	if err := policy.Check(request.Password); err != nil {
		return err
	}

	if _, ok := s.accounts[request.Username]; ok {
		return fmt.Errorf(
			"cannot register '%s' [%w]", request.Username, models.ErrDuplicateUsername,
		)
	}

	passwordHash, err := s.hasher.HashSecret(ctx, request.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password for '%s' [%w]", request.Username, err)
	}

	account := models.Account{
		Username:          request.Username,
		PasswordHash:      passwordHash,
		SecurityQuestion1: request.SecurityQuestion1,
		SecurityQuestion2: request.SecurityQuestion2,
		CreatedAt:         s.nowFunc(),
	}

	if request.SecurityAnswer1 != "" {
		if account.SecurityAnswerHash1, err = s.hasher.HashSecret(ctx, request.SecurityAnswer1); err != nil {
			return fmt.Errorf("failed to hash recovery answer for '%s' [%w]", request.Username, err)
		}
	}
	if request.SecurityAnswer2 != "" {
		if account.SecurityAnswerHash2, err = s.hasher.HashSecret(ctx, request.SecurityAnswer2); err != nil {
			return fmt.Errorf("failed to hash recovery answer for '%s' [%w]", request.Username, err)
		}
	}

	s.accounts[request.Username] = account
	if err := s.save(); err != nil {
		// Roll back so the account is not silently registered without being saved
		delete(s.accounts, request.Username)
		return fmt.Errorf("failed to persist registration of '%s' [%w]", request.Username, err)
	}

	s.recordEvent(ctx, models.ActivityEventTypeUserRegistered, request.Username)

	return nil
}

/*
VerifyLogin verify a username and password pair

	@param ctx context.Context - execution context
	@param username string - the username
	@param password string - the password to verify
*/
func (s *accountStoreImpl) VerifyLogin(ctx context.Context, username string, password string) error {
	account, ok := s.accounts[username]
	if !ok {
		return fmt.Errorf("login rejected for '%s' [%w]", username, models.ErrUnknownUser)
	}

	matched, err := s.hasher.VerifySecret(ctx, account.PasswordHash, password)
	if err != nil {
		// A corrupt stored token reads as a failed verification
		log.WithError(err).
			WithFields(s.LogTags).
			WithField("username", username).
			Error("Stored password token unusable")
		matched = false
	}

	if !matched {
		s.recordEvent(ctx, models.ActivityEventTypeLoginFailure, username)
		return fmt.Errorf("login rejected for '%s' [%w]", username, models.ErrWrongPassword)
	}

	s.recordEvent(ctx, models.ActivityEventTypeLoginSuccess, username)
	return nil
}

/*
SecurityQuestions the recovery questions configured for an account

	@param ctx context.Context - execution context
	@param username string - the username
	@returns ordered question texts, empty when none are usable
*/
func (s *accountStoreImpl) SecurityQuestions(_ context.Context, username string) []string {
	account, ok := s.accounts[username]
	if !ok {
		return []string{}
	}
	return account.RecoveryQuestions()
}

/*
VerifySecurityAnswer verify a recovery answer

	@param ctx context.Context - execution context
	@param username string - the username
	@param question string - the question text as shown to the user
	@param answer string - the submitted answer
	@returns whether the answer is correct
*/
func (s *accountStoreImpl) VerifySecurityAnswer(
	ctx context.Context, username string, question string, answer string,
) bool {
	account, ok := s.accounts[username]
	if !ok {
		return false
	}

	storedHash, ok := account.AnswerHashForQuestion(question)
	if !ok {
		return false
	}

	matched, err := s.hasher.VerifySecret(ctx, storedHash, answer)
	if err != nil {
		log.WithError(err).
			WithFields(s.LogTags).
			WithField("username", username).
			Error("Stored recovery answer token unusable")
		return false
	}
	return matched
}

/*
UpdatePassword replace an account's password

	@param ctx context.Context - execution context
	@param username string - the username
	@param newPassword string - the replacement password
*/
func (s *accountStoreImpl) UpdatePassword(
	ctx context.Context, username string, newPassword string,
) error {
	if err := policy.Check(newPassword); err != nil {
		return err
	}

	account, ok := s.accounts[username]
	if !ok {
		return fmt.Errorf("cannot update password of '%s' [%w]", username, models.ErrUnknownUser)
	}

	newHash, err := s.hasher.HashSecret(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password for '%s' [%w]", username, err)
	}

	previous := account
	account.PasswordHash = newHash
	s.accounts[username] = account

	if err := s.save(); err != nil {
		s.accounts[username] = previous
		return fmt.Errorf("failed to persist password change of '%s' [%w]", username, err)
	}

	s.recordEvent(ctx, models.ActivityEventTypePasswordReset, username)

	return nil
}

/*
Account fetch one account

	@param ctx context.Context - execution context
	@param username string - the username
	@returns the account entry
*/
func (s *accountStoreImpl) Account(_ context.Context, username string) (models.Account, error) {
	account, ok := s.accounts[username]
	if !ok {
		return models.Account{}, fmt.Errorf("no account '%s' [%w]", username, models.ErrUnknownUser)
	}
	return account, nil
}
