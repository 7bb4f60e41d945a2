package session_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alwitt/securepass/session"
	"github.com/stretchr/testify/assert"
)

func TestSessionStore(t *testing.T) {
	assert := assert.New(t)

	utCtx := context.Background()

	sessionFile := filepath.Join(t.TempDir(), "remember_me.json")
	uut, err := session.NewStore(session.StoreParams{SessionFile: sessionFile})
	assert.Nil(err)

	// 1 – Nothing remembered initially
	username, remembered := uut.LastUsername(utCtx)
	assert.False(remembered)
	assert.Empty(username)

	// 2 – Remember a username
	assert.Nil(uut.Remember(utCtx, "alice"))
	username, remembered = uut.LastUsername(utCtx)
	assert.True(remembered)
	assert.Equal("alice", username)

	// 3 – Remembering again replaces the record
	assert.Nil(uut.Remember(utCtx, "bob"))
	username, remembered = uut.LastUsername(utCtx)
	assert.True(remembered)
	assert.Equal("bob", username)

	// 4 – Forget removes the record; forgetting twice is fine
	assert.Nil(uut.Forget(utCtx))
	_, remembered = uut.LastUsername(utCtx)
	assert.False(remembered)
	assert.Nil(uut.Forget(utCtx))

	// 5 – An empty document reads as nothing remembered
	assert.Nil(os.WriteFile(sessionFile, []byte("{}"), 0600))
	_, remembered = uut.LastUsername(utCtx)
	assert.False(remembered)

	// 6 – A corrupt document reads as nothing remembered
	assert.Nil(os.WriteFile(sessionFile, []byte("not json"), 0600))
	_, remembered = uut.LastUsername(utCtx)
	assert.False(remembered)
}
