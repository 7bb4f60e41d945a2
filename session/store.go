// Package session - remember-me persistence between application runs
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
)

// rememberedSession the on-disk remember-me document
type rememberedSession struct {
	Username string `json:"username,omitempty"`
}

/*
Store remembers the last signed-in username between application runs.

The record is a small JSON document; a missing or empty document means no
username is remembered.
*/
type Store interface {
	/*
		Remember record a username as the last signed-in user

			@param ctx context.Context - execution context
			@param username string - the username to remember
	*/
	Remember(ctx context.Context, username string) error

	/*
		LastUsername the remembered username, if any

			@param ctx context.Context - execution context
			@returns the username and whether one is remembered
	*/
	LastUsername(ctx context.Context) (string, bool)

	/*
		Forget discard the remembered username

		Forgetting when nothing is remembered is a no-op.

			@param ctx context.Context - execution context
	*/
	Forget(ctx context.Context) error
}

// storeImpl implements Store
type storeImpl struct {
	goutils.Component

	filePath string
}

// StoreParams session store init parameters
type StoreParams struct {
	// SessionFile file path of the remember-me JSON document
	SessionFile string `validate:"required"`
}

/*
NewStore define new session store

	@param params StoreParams - store parameters
	@returns store instance
*/
func NewStore(params StoreParams) (Store, error) {
	validate := validator.New()
	if err := validate.Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid session store init parameters [%w]", err)
	}
	return &storeImpl{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "session", "component": "session-store"},
		},
		filePath: params.SessionFile,
	}, nil
}

func (s *storeImpl) Remember(_ context.Context, username string) error {
	content, err := json.MarshalIndent(rememberedSession{Username: username}, "", "  ")
	if err != nil {
		return fmt.Errorf("session document serialization failed [%w]", err)
	}
	if err := os.WriteFile(s.filePath, content, 0600); err != nil {
		return fmt.Errorf("session document write failed [%w]", err)
	}
	return nil
}

func (s *storeImpl) LastUsername(_ context.Context) (string, bool) {
	content, err := os.ReadFile(s.filePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.WithError(err).WithFields(s.LogTags).Warn("Session document unreadable")
		}
		return "", false
	}

	var session rememberedSession
	if err := json.Unmarshal(content, &session); err != nil {
		log.WithError(err).WithFields(s.LogTags).Warn("Session document unparsable")
		return "", false
	}

	if session.Username == "" {
		return "", false
	}
	return session.Username, true
}

func (s *storeImpl) Forget(_ context.Context) error {
	if err := os.Remove(s.filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session document [%w]", err)
	}
	return nil
}
