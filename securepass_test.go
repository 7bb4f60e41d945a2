package securepass_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alwitt/securepass"
	"github.com/alwitt/securepass/journal"
	"github.com/alwitt/securepass/models"
	"github.com/alwitt/securepass/recovery"
	"github.com/alwitt/securepass/users"
	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

// TestCredentialCoreEndToEnd exercises the assembled core the way the
// application would: register, sign in, fill a vault, recover a forgotten
// password, and check the activity journal at the end.
func TestCredentialCoreEndToEnd(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	// ------------------------------------------------------------------
	// 1. Bring up a core over a fresh data directory
	// ------------------------------------------------------------------
	dataDir := t.TempDir()
	core, err := securepass.NewCore(utCtx, securepass.CoreParams{DataDir: dataDir})
	assert.Nil(err)

	// ------------------------------------------------------------------
	// 2. Register and sign in
	// ------------------------------------------------------------------
	assert.Nil(core.Accounts().Register(utCtx, users.RegistrationRequest{
		Username:          "alice",
		Password:          "Abcdefg1",
		SecurityQuestion1: "pet name",
		SecurityAnswer1:   "fido",
	}))
	assert.Nil(core.Accounts().VerifyLogin(utCtx, "alice", "Abcdefg1"))
	assert.Nil(core.Session().Remember(utCtx, "alice"))

	// ------------------------------------------------------------------
	// 3. Work with the vault
	// ------------------------------------------------------------------
	vaultStore, err := core.OpenVault(utCtx, "alice")
	assert.Nil(err)

	record, err := vaultStore.Upsert(utCtx, models.VaultRecord{
		Website:  "https://example.com",
		SiteName: "Example",
		Name:     models.NameInfo{Type: models.NameTypeSingle, Username: "alice99"},
		Password: "site-secret",
	})
	assert.Nil(err)
	assert.NotEmpty(record.ID)
	assert.Len(vaultStore.Filter(utCtx, "example"), 1)

	// A vault can only be opened for a registered user
	_, err = core.OpenVault(utCtx, "nobody")
	assert.ErrorIs(err, models.ErrUnknownUser)

	// ------------------------------------------------------------------
	// 4. Recover a forgotten password
	// ------------------------------------------------------------------
	flow, err := core.NewRecoveryFlow()
	assert.Nil(err)

	state, err := flow.SubmitUsername(utCtx, "alice")
	assert.Nil(err)
	assert.Equal(recovery.FlowStateAnswerQuestion, state)
	assert.Equal("pet name", flow.CurrentQuestion())

	accepted, err := flow.SubmitAnswer(utCtx, "fido")
	assert.Nil(err)
	assert.True(accepted)
	assert.Nil(flow.SubmitNewPassword(utCtx, "Newpass99", "Newpass99"))

	assert.ErrorIs(
		core.Accounts().VerifyLogin(utCtx, "alice", "Abcdefg1"), models.ErrWrongPassword,
	)
	assert.Nil(core.Accounts().VerifyLogin(utCtx, "alice", "Newpass99"))

	// ------------------------------------------------------------------
	// 5. A second core over the same directory sees everything
	// ------------------------------------------------------------------
	reopened, err := securepass.NewCore(utCtx, securepass.CoreParams{DataDir: dataDir})
	assert.Nil(err)
	assert.Nil(reopened.Accounts().VerifyLogin(utCtx, "alice", "Newpass99"))

	username, remembered := reopened.Session().LastUsername(utCtx)
	assert.True(remembered)
	assert.Equal("alice", username)

	reopenedVault, err := reopened.OpenVault(utCtx, "alice")
	assert.Nil(err)
	records := reopenedVault.Records(utCtx)
	assert.Len(records, 1)
	assert.Equal(record.ID, records[0].ID)

	// ------------------------------------------------------------------
	// 6. The journal recorded the activity
	// ------------------------------------------------------------------
	events, err := reopened.Journal().ListEvents(utCtx, journal.EventQueryFilter{})
	assert.Nil(err)
	seen := map[models.ActivityEventTypeENUMType]int{}
	for _, event := range events {
		seen[event.EventType]++
	}
	assert.Equal(1, seen[models.ActivityEventTypeUserRegistered])
	assert.Equal(1, seen[models.ActivityEventTypePasswordReset])
	assert.Equal(1, seen[models.ActivityEventTypeVaultRecordSaved])
	assert.GreaterOrEqual(seen[models.ActivityEventTypeLoginSuccess], 2)
	assert.GreaterOrEqual(seen[models.ActivityEventTypeLoginFailure], 1)

	// ------------------------------------------------------------------
	// 7. Export the data set and import it into a new core
	// ------------------------------------------------------------------
	exportDir := t.TempDir()
	copied, err := reopened.Transfer().Export(utCtx, exportDir)
	assert.Nil(err)
	assert.Contains(copied, "users.json")
	assert.Contains(copied, "SecurePassData")

	// The journal stays out of the backup
	_, err = os.Stat(filepath.Join(exportDir, "SecurePassData", "journal.db"))
	assert.True(os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(exportDir, "journal.db"))
	assert.True(os.IsNotExist(err))

	// Restoring into a freshly set up installation needs no overwrite
	migratedDir := t.TempDir()
	migrated, err := securepass.NewCore(utCtx, securepass.CoreParams{DataDir: migratedDir})
	assert.Nil(err)
	_, err = migrated.Transfer().Import(utCtx, exportDir, false)
	assert.Nil(err)

	// The stores read state at definition time, so refresh after the import
	assert.Nil(migrated.Accounts().Reload(utCtx))
	assert.Nil(migrated.Accounts().VerifyLogin(utCtx, "alice", "Newpass99"))

	// A second restore now collides with the restored data
	_, err = migrated.Transfer().Import(utCtx, exportDir, false)
	assert.NotNil(err)
}
