/*
Package securepass implements the credential storage and authentication core
of a local-first password manager.

The core keeps a registry of accounts with hashed credentials, a per-user
credential vault, a remember-me record, and an activity journal, all rooted in
a single application data directory. Usernames and a few other fields in the
data files are base64 obscured for casual-glance privacy only; the obfuscation
is reversible and is not a security mechanism. Vault record passwords are
stored retrievable by design.
*/
package securepass

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alwitt/goutils"
	"github.com/alwitt/securepass/hashing"
	"github.com/alwitt/securepass/journal"
	"github.com/alwitt/securepass/models"
	"github.com/alwitt/securepass/recovery"
	"github.com/alwitt/securepass/session"
	"github.com/alwitt/securepass/transfer"
	"github.com/alwitt/securepass/users"
	"github.com/alwitt/securepass/vault"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm/logger"
)

const (
	usersFileName   = "users.json"
	sessionFileName = "remember_me.json"
	vaultDirName    = "SecurePassData"
	journalFileName = "journal.db"
)

// CoreParams core init parameters
type CoreParams struct {
	// DataDir the application data directory. Created if missing.
	DataDir string `validate:"required"`
	// JournalLogLevel gorm log level of the activity journal DB
	JournalLogLevel logger.LogLevel `validate:"-"`
}

// Core the assembled credential core
type Core struct {
	goutils.Component

	dataDir  string
	accounts users.AccountStore
	sessions session.Store
	journal  journal.Journal
	transfer transfer.Manager
}

/*
NewCore define new credential core rooted at a data directory

	@param ctx context.Context - execution context
	@param params CoreParams - core parameters
	@returns core instance
*/
func NewCore(ctx context.Context, params CoreParams) (*Core, error) {
	validate := validator.New()
	if err := validate.Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid core init parameters [%w]", err)
	}
	if params.JournalLogLevel == 0 {
		params.JournalLogLevel = logger.Error
	}

	vaultBaseDir := filepath.Join(params.DataDir, vaultDirName)
	if err := os.MkdirAll(vaultBaseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to prepare data directory '%s' [%w]", params.DataDir, err)
	}

	// The journal DB sits beside the transferable data set, never inside it
	activityJournal, err := journal.NewJournal(
		journal.GetSqliteDialector(filepath.Join(params.DataDir, journalFileName)),
		params.JournalLogLevel,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open activity journal [%w]", err)
	}

	hasher, err := hashing.NewHasher()
	if err != nil {
		return nil, fmt.Errorf("failed to define credential hasher [%w]", err)
	}

	accounts, err := users.NewAccountStore(ctx, users.AccountStoreParams{
		UsersFile: filepath.Join(params.DataDir, usersFileName),
		Hasher:    hasher,
		Journal:   activityJournal,
	})
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewStore(session.StoreParams{
		SessionFile: filepath.Join(params.DataDir, sessionFileName),
	})
	if err != nil {
		return nil, err
	}

	transferMgr, err := transfer.NewManager(transfer.ManagerParams{
		DataDir: params.DataDir, Journal: activityJournal,
	})
	if err != nil {
		return nil, err
	}

	return &Core{
		Component: goutils.Component{
			LogTags: log.Fields{"module": "securepass", "component": "core"},
		},
		dataDir:  params.DataDir,
		accounts: accounts,
		sessions: sessions,
		journal:  activityJournal,
		transfer: transferMgr,
	}, nil
}

// Accounts the account store
func (c *Core) Accounts() users.AccountStore {
	return c.accounts
}

// Session the remember-me store
func (c *Core) Session() session.Store {
	return c.sessions
}

// Journal the activity journal
func (c *Core) Journal() journal.Journal {
	return c.journal
}

// Transfer the data set transfer manager
func (c *Core) Transfer() transfer.Manager {
	return c.transfer
}

/*
OpenVault open the credential vault of one registered user

	@param ctx context.Context - execution context
	@param username string - the vault owner
	@returns the user's vault store
*/
func (c *Core) OpenVault(ctx context.Context, username string) (vault.VaultStore, error) {
	if !c.accounts.Exists(ctx, username) {
		return nil, fmt.Errorf("cannot open vault of '%s' [%w]", username, models.ErrUnknownUser)
	}
	return vault.NewVaultStore(ctx, vault.VaultStoreParams{
		BaseDir:  filepath.Join(c.dataDir, vaultDirName),
		Username: username,
		Journal:  c.journal,
	})
}

/*
NewRecoveryFlow start a new account recovery flow

	@returns the recovery flow
*/
func (c *Core) NewRecoveryFlow() (recovery.Flow, error) {
	return recovery.NewFlow(recovery.FlowParams{Accounts: c.accounts})
}
