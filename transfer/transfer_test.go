package transfer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alwitt/securepass/transfer"
	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

func seedDataDir(t *testing.T, dataDir string) {
	assert.Nil(t, os.WriteFile(
		filepath.Join(dataDir, "users.json"), []byte(`{"YWxpY2U=":{}}`), 0600,
	))
	assert.Nil(t, os.WriteFile(
		filepath.Join(dataDir, "remember_me.json"), []byte(`{"username":"alice"}`), 0600,
	))
	vaultDir := filepath.Join(dataDir, "SecurePassData", "YWxpY2U=")
	assert.Nil(t, os.MkdirAll(vaultDir, 0700))
	assert.Nil(t, os.WriteFile(
		filepath.Join(vaultDir, "passwords.json"), []byte(`[]`), 0600,
	))
}

func TestTransferRoundTrip(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	dataDir := t.TempDir()
	seedDataDir(t, dataDir)

	uut, err := transfer.NewManager(transfer.ManagerParams{DataDir: dataDir})
	assert.Nil(err)

	// 1 – Export the full data set
	exportDir := filepath.Join(t.TempDir(), "backup")
	copied, err := uut.Export(utCtx, exportDir)
	assert.Nil(err)
	assert.Equal([]string{"users.json", "remember_me.json", "SecurePassData"}, copied)

	content, err := os.ReadFile(filepath.Join(exportDir, "users.json"))
	assert.Nil(err)
	assert.Equal(`{"YWxpY2U=":{}}`, string(content))
	_, err = os.Stat(filepath.Join(exportDir, "SecurePassData", "YWxpY2U=", "passwords.json"))
	assert.Nil(err)

	// 2 – Import into a fresh data directory. A pre-created empty vault
	// directory does not count as existing data.
	freshDataDir := t.TempDir()
	assert.Nil(os.MkdirAll(filepath.Join(freshDataDir, "SecurePassData"), 0700))
	fresh, err := transfer.NewManager(transfer.ManagerParams{DataDir: freshDataDir})
	assert.Nil(err)
	copied, err = fresh.Import(utCtx, exportDir, false)
	assert.Nil(err)
	assert.Len(copied, 3)
	_, err = os.Stat(filepath.Join(freshDataDir, "SecurePassData", "YWxpY2U=", "passwords.json"))
	assert.Nil(err)

	// 3 – Import without overwrite refuses to clobber existing items
	_, err = fresh.Import(utCtx, exportDir, false)
	assert.NotNil(err)

	// 4 – Import with overwrite replaces them
	assert.Nil(os.WriteFile(
		filepath.Join(freshDataDir, "users.json"), []byte(`{"stale":true}`), 0600,
	))
	copied, err = fresh.Import(utCtx, exportDir, true)
	assert.Nil(err)
	assert.Len(copied, 3)
	content, err = os.ReadFile(filepath.Join(freshDataDir, "users.json"))
	assert.Nil(err)
	assert.Equal(`{"YWxpY2U=":{}}`, string(content))

	// 5 – A bad source directory fails
	_, err = uut.Import(utCtx, filepath.Join(t.TempDir(), "missing"), true)
	assert.NotNil(err)
}

func TestTransferPartialDataSet(t *testing.T) {
	assert := assert.New(t)

	utCtx := context.Background()

	// Only the users document exists
	dataDir := t.TempDir()
	assert.Nil(os.WriteFile(filepath.Join(dataDir, "users.json"), []byte(`{}`), 0600))

	uut, err := transfer.NewManager(transfer.ManagerParams{DataDir: dataDir})
	assert.Nil(err)

	exportDir := filepath.Join(t.TempDir(), "backup")
	copied, err := uut.Export(utCtx, exportDir)
	assert.Nil(err)
	assert.Equal([]string{"users.json"}, copied)
	_, err = os.Stat(filepath.Join(exportDir, "remember_me.json"))
	assert.True(os.IsNotExist(err))
}
